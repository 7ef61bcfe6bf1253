package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/lukemcguire/webprobe/batch"
	"github.com/lukemcguire/webprobe/phase"
	"github.com/lukemcguire/webprobe/result"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	successStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	errorStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	categoryStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	dimStyle      = lipgloss.NewStyle().Faint(true)
	cellStyle     = lipgloss.NewStyle()
)

const maxCellWidth = 60

// RenderSummary produces a Lip Gloss styled summary of a run.
func RenderSummary(res *result.RunResult) string {
	if res == nil {
		return errorStyle.Render("No results available.")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(res.URL))
	b.WriteString("\n")

	if res.Error != "" {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Run failed: %s", res.Error)))
		b.WriteString("\n")
		return b.String()
	}

	if len(res.Issues) == 0 {
		b.WriteString(successStyle.Render("No issues found!"))
		b.WriteString("\n")
	}

	for _, name := range result.PhaseOrder {
		pr, ok := res.Details[name]
		if !ok || len(pr.Issues) == 0 {
			continue
		}

		b.WriteString(categoryStyle.Render(fmt.Sprintf("## %s (%d)", phase.Title(name), len(pr.Issues))))
		b.WriteString("\n")

		rows := make([][]string, 0, len(pr.Issues))
		for _, issue := range pr.Issues {
			rows = append(rows, []string{
				string(issue.Severity),
				issue.Type,
				truncate(issue.Location),
				truncate(issue.Description),
			})
		}

		issueTable := table.New().
			Border(lipgloss.RoundedBorder()).
			Headers("Severity", "Type", "Location", "Description").
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				if col == 0 {
					if rows[row][0] == string(result.SeverityError) {
						return errorStyle
					}
					return warningStyle
				}
				return cellStyle
			}).
			Rows(rows...)

		b.WriteString(issueTable.Render())
		b.WriteString("\n\n")
	}

	b.WriteString(renderScores(res.Performance))
	b.WriteString("\n")

	b.WriteString(titleStyle.Render(fmt.Sprintf(
		"Passed %d of %d tests, found %d issues (%d errors, %d warnings) in %s",
		res.Summary.PassedTests,
		res.Summary.TotalTests,
		len(res.Issues),
		result.CountBySeverity(res.Issues, result.SeverityError),
		result.CountBySeverity(res.Issues, result.SeverityWarning),
		res.Duration.Round(time.Millisecond),
	)))
	b.WriteString("\n")
	return b.String()
}

func renderScores(scores result.Scores) string {
	headers := make([]string, 0, len(result.ScoreCategories))
	values := make([]string, 0, len(result.ScoreCategories))
	for _, cat := range result.ScoreCategories {
		headers = append(headers, cat)
		values = append(values, fmt.Sprintf("%.0f", scores.Get(cat)*100))
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Rows(values).
		Render()
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxCellWidth {
		return s
	}
	return string(r[:maxCellWidth-1]) + "…"
}

// RenderBatchLine renders one tested page of a batch as a single line.
func RenderBatchLine(rawURL string, res *result.RunResult, err error) string {
	switch {
	case err != nil:
		return errorStyle.Render("✗") + " " + rawURL + " " + dimStyle.Render(err.Error())
	case res == nil:
		return errorStyle.Render("✗") + " " + rawURL
	case len(res.Issues) == 0:
		return successStyle.Render("✓") + " " + rawURL
	default:
		return warningStyle.Render("!") + " " + rawURL + " " + dimStyle.Render(fmt.Sprintf(
			"(%d errors, %d warnings)",
			result.CountBySeverity(res.Issues, result.SeverityError),
			result.CountBySeverity(res.Issues, result.SeverityWarning),
		))
	}
}

// RenderBatchSummary renders the closing line of a batch.
func RenderBatchSummary(s batch.Summary) string {
	style := successStyle
	if !s.OK() {
		style = errorStyle
	}
	return style.Render(fmt.Sprintf(
		"Tested %d of %d pages (%d skipped): %d failed, %d with issues in %s",
		s.Tested, s.Total, s.Skipped, s.Failed, s.WithIssues, s.Duration.Round(time.Millisecond),
	))
}
