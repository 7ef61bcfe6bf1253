package result

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed assets/*
var assets embed.FS

type htmlPhase struct {
	Name   string
	Result PhaseResult
}

type htmlScore struct {
	Name    string
	Percent float64
}

type htmlData struct {
	*RunResult
	Phases []htmlPhase
	Scores []htmlScore
}

// WriteHTML renders the run result as a standalone HTML page.
func WriteHTML(w io.Writer, res *RunResult) error {
	tmplBytes, err := assets.ReadFile("assets/report.html.tmpl")
	if err != nil {
		return fmt.Errorf("reading HTML template: %w", err)
	}

	tmpl, err := template.New("report").Parse(string(tmplBytes))
	if err != nil {
		return fmt.Errorf("parsing template: %w", err)
	}

	data := htmlData{RunResult: res}
	for _, name := range PhaseOrder {
		if pr, ok := res.Details[name]; ok {
			data.Phases = append(data.Phases, htmlPhase{Name: name, Result: pr})
		}
	}
	for _, cat := range ScoreCategories {
		data.Scores = append(data.Scores, htmlScore{Name: cat, Percent: res.Performance.Get(cat) * 100})
	}

	// Render to a buffer so a template error never leaves a half-written report.
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("executing template: %w", err)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write html output: %w", err)
	}
	return nil
}
