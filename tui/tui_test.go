package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lukemcguire/webprobe/batch"
	"github.com/lukemcguire/webprobe/result"
	"github.com/lukemcguire/webprobe/tester"
)

func noopRun(context.Context) (*result.RunResult, error) { return nil, nil }

func sampleRun() *result.RunResult {
	functional := result.PhaseResult{
		Success: false,
		Issues: []result.Issue{
			{Type: "Form Missing Submit", Severity: result.SeverityError, Location: "form#signup", Description: "Form form#signup has no submit control"},
			{Type: "Input Missing Label", Severity: result.SeverityWarning, Location: "input#email"},
		},
	}
	performance := result.PhaseResult{
		Success: false,
		Issues:  []result.Issue{{Type: "Slow Page Load", Severity: result.SeverityWarning, Description: "Page took 4000ms to load"}},
	}
	details := map[string]result.PhaseResult{
		result.PhaseFunctional:    functional,
		result.PhaseResponsive:    {Success: true, Issues: []result.Issue{}},
		result.PhasePerformance:   performance,
		result.PhaseAccessibility: {Success: true, Issues: []result.Issue{}},
	}
	return &result.RunResult{
		URL:         "https://example.com",
		Summary:     result.NewSummary(details),
		Performance: result.Scores{Performance: 0.6, Accessibility: 0.85, BestPractices: 0.9, SEO: 0.85},
		Issues:      result.CollectIssues(details),
		Details:     details,
		Duration:    2 * time.Second,
	}
}

func TestNewModel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan tester.Event, 10)
	model := NewModel(ctx, cancel, "https://example.com", noopRun, events)

	if model.ctx != ctx {
		t.Error("expected ctx to be stored in model")
	}
	if model.cancel == nil || model.run == nil {
		t.Error("expected cancel and run to be stored in model")
	}
	if model.events != events {
		t.Error("expected events channel to be stored in model")
	}
	if len(model.phases) != len(result.PhaseOrder) {
		t.Errorf("expected %d phases, got %d", len(result.PhaseOrder), len(model.phases))
	}
	if model.done {
		t.Error("expected done to be false initially")
	}
}

func TestInit_ReturnsBatchCmd(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	model := NewModel(ctx, cancel, "https://example.com", noopRun, make(chan tester.Event))
	if cmd := model.Init(); cmd == nil {
		t.Error("Init() should return a non-nil batch command")
	}
}

func TestStartRun_DeliversResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	want := sampleRun()
	run := func(context.Context) (*result.RunResult, error) { return want, nil }
	model := NewModel(ctx, cancel, want.URL, run, nil)

	msg, ok := model.startRun()().(RunDoneMsg)
	if !ok {
		t.Fatal("startRun did not produce RunDoneMsg")
	}
	if msg.Result != want || msg.Err != nil {
		t.Errorf("RunDoneMsg = %+v", msg)
	}
}

func TestUpdate_PhaseMsg(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	model := NewModel(ctx, cancel, "https://example.com", noopRun, make(chan tester.Event, 1))

	updatedModel, cmd := model.Update(PhaseMsg{Event: tester.Event{Kind: tester.PhaseStarted, Phase: result.PhaseResponsive}})
	updated := updatedModel.(Model)
	if !updated.phases[1].running {
		t.Error("expected responsive phase to be running")
	}
	if cmd == nil {
		t.Error("expected non-nil cmd to re-subscribe to events")
	}
	if model.phases[1].running {
		t.Error("original model was mutated")
	}

	updatedModel, _ = updated.Update(PhaseMsg{Event: tester.Event{
		Kind: tester.PhaseFinished, Phase: result.PhaseResponsive, Success: false, Issues: 3,
	}})
	updated = updatedModel.(Model)
	p := updated.phases[1]
	if p.running || !p.finished || p.success || p.issues != 3 {
		t.Errorf("phase state = %+v", p)
	}
}

func TestUpdate_RunDoneMsg(t *testing.T) {
	model := Model{}
	res := sampleRun()

	updatedModel, cmd := model.Update(RunDoneMsg{Result: res})
	updated := updatedModel.(Model)

	if !updated.done {
		t.Error("expected done=true after RunDoneMsg")
	}
	if updated.Result() != res {
		t.Error("expected result to be stored")
	}
	if cmd == nil {
		t.Error("expected quit command")
	}
}

func TestUpdate_QuitCancelsRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	model := NewModel(ctx, cancel, "https://example.com", noopRun, nil)

	updatedModel, _ := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if !updatedModel.(Model).quitting {
		t.Error("expected quitting=true")
	}
	if ctx.Err() == nil {
		t.Error("expected context to be cancelled")
	}
}

func TestUpdate_SpinnerTickMsg(t *testing.T) {
	model := Model{}
	updatedModel, _ := model.Update(spinner.TickMsg{})
	_ = updatedModel.(Model)
}

func TestUpdate_WindowSizeMsg(t *testing.T) {
	model := Model{}
	updatedModel, _ := model.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	if updated := updatedModel.(Model); updated.width != 120 {
		t.Errorf("expected width=120, got %d", updated.width)
	}
}

func TestFailed(t *testing.T) {
	tests := []struct {
		name  string
		model Model
		want  bool
	}{
		{"no result", Model{}, false},
		{"clean run", Model{result: &result.RunResult{Success: true}}, false},
		{"issues", Model{result: sampleRun()}, true},
		{"terminal error", Model{err: result.ErrNavigation}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.model.Failed(); got != tt.want {
				t.Errorf("Failed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestView_InProgress(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	model := NewModel(ctx, cancel, "https://example.com/checking", noopRun, nil)
	model.phases[0].finished = true
	model.phases[0].success = true
	model.phases[0].issues = 2

	output := model.View()
	for _, want := range []string{"Testing https://example.com/checking", "Functional", "(2 issues)", "Accessibility"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in progress view, got: %s", want, output)
		}
	}
}

func TestView_DoneWithError(t *testing.T) {
	model := Model{done: true, err: errors.New("navigation failed: HTTP 404")}
	if output := model.View(); !strings.Contains(output, "HTTP 404") {
		t.Errorf("expected error message in done view, got: %s", output)
	}
}

func TestRenderSummary_NilResult(t *testing.T) {
	if RenderSummary(nil) == "" {
		t.Error("expected non-empty output for nil result")
	}
}

func TestRenderSummary_NoIssues(t *testing.T) {
	details := map[string]result.PhaseResult{}
	for _, name := range result.PhaseOrder {
		details[name] = result.PhaseResult{Success: true, Issues: []result.Issue{}}
	}
	res := &result.RunResult{
		URL:     "https://example.com",
		Success: true,
		Summary: result.NewSummary(details),
		Issues:  []result.Issue{},
		Details: details,
	}

	output := RenderSummary(res)
	if !strings.Contains(output, "No issues found") {
		t.Errorf("expected success message, got: %s", output)
	}
	if !strings.Contains(output, "Passed 4 of 4 tests") {
		t.Errorf("expected test counts, got: %s", output)
	}
}

func TestRenderSummary_WithIssues(t *testing.T) {
	output := RenderSummary(sampleRun())

	for _, want := range []string{
		"## Functional (2)",
		"## Performance (1)",
		"Form Missing Submit",
		"input#email",
		"Slow Page Load",
		"best-practices",
		"60",
		"found 3 issues (1 errors, 2 warnings)",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
	if strings.Contains(output, "## Responsive") {
		t.Error("phase without issues should not get a section")
	}
	if strings.Index(output, "## Functional") > strings.Index(output, "## Performance") {
		t.Error("phases out of order")
	}
}

func TestRenderSummary_RunError(t *testing.T) {
	res := &result.RunResult{URL: "https://example.com/missing", Error: "navigation failed: HTTP 404"}
	output := RenderSummary(res)
	if !strings.Contains(output, "Run failed: navigation failed: HTTP 404") {
		t.Errorf("expected failure message, got: %s", output)
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("é", maxCellWidth+5)
	got := []rune(truncate(long))
	if len(got) != maxCellWidth {
		t.Errorf("truncated to %d runes, want %d", len(got), maxCellWidth)
	}
	if truncate("short") != "short" {
		t.Error("short strings must be unchanged")
	}
}

func TestRenderBatchLine(t *testing.T) {
	tests := []struct {
		name string
		res  *result.RunResult
		err  error
		want []string
	}{
		{"clean", &result.RunResult{Success: true, Issues: []result.Issue{}}, nil, []string{"✓", "https://example.com"}},
		{"issues", sampleRun(), nil, []string{"!", "(1 errors, 2 warnings)"}},
		{"terminal error", &result.RunResult{}, errors.New("navigation failed: HTTP 404"), []string{"✗", "HTTP 404"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderBatchLine("https://example.com", tt.res, tt.err)
			for _, want := range tt.want {
				if !strings.Contains(got, want) {
					t.Errorf("RenderBatchLine() = %q, missing %q", got, want)
				}
			}
		})
	}
}

func TestRenderBatchSummary(t *testing.T) {
	got := RenderBatchSummary(batch.Summary{Total: 5, Tested: 3, Skipped: 2, Failed: 1, WithIssues: 1, Duration: 1500 * time.Millisecond})
	want := "Tested 3 of 5 pages (2 skipped): 1 failed, 1 with issues in 1.5s"
	if !strings.Contains(got, want) {
		t.Errorf("RenderBatchSummary() = %q, want %q", got, want)
	}
}
