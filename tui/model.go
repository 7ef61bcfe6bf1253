// Package tui provides the Bubble Tea terminal UI for webprobe, showing
// live phase progress and a styled summary of the run.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lukemcguire/webprobe/phase"
	"github.com/lukemcguire/webprobe/result"
	"github.com/lukemcguire/webprobe/tester"
)

// RunFunc runs the pipeline; (*tester.Tester).Run bound to a URL fits.
type RunFunc func(ctx context.Context) (*result.RunResult, error)

type phaseState struct {
	name     string
	running  bool
	finished bool
	success  bool
	issues   int
}

// Model is the Bubble Tea model for a single-page run.
type Model struct {
	ctx     context.Context
	cancel  context.CancelFunc
	run     RunFunc
	spinner spinner.Model
	events  <-chan tester.Event

	url      string
	phases   []phaseState
	quitting bool
	done     bool
	result   *result.RunResult
	err      error
	width    int
}

// NewModel creates a TUI model wired to run and its progress channel.
func NewModel(ctx context.Context, cancel context.CancelFunc, url string, run RunFunc, events <-chan tester.Event) Model {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	phases := make([]phaseState, len(result.PhaseOrder))
	for i, name := range result.PhaseOrder {
		phases[i] = phaseState{name: name}
	}
	return Model{
		ctx:     ctx,
		cancel:  cancel,
		run:     run,
		spinner: spin,
		events:  events,
		url:     url,
		phases:  phases,
	}
}

// Init starts the spinner, the run, and the progress listener.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startRun(), waitForEvent(m.events))
}

func (m Model) startRun() tea.Cmd {
	return func() tea.Msg {
		res, err := m.run(m.ctx)
		return RunDoneMsg{Result: res, Err: err}
	}
}

// Update handles messages from the Bubble Tea runtime.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			m.cancel()
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case PhaseMsg:
		m.apply(msg.Event)
		return m, waitForEvent(m.events)

	case RunDoneMsg:
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) apply(ev tester.Event) {
	for i := range m.phases {
		if m.phases[i].name != ev.Phase {
			continue
		}
		// Copy on write: Model is passed by value.
		phases := append([]phaseState(nil), m.phases...)
		switch ev.Kind {
		case tester.PhaseStarted:
			phases[i].running = true
		case tester.PhaseFinished:
			phases[i].running = false
			phases[i].finished = true
			phases[i].success = ev.Success
			phases[i].issues = ev.Issues
		}
		m.phases = phases
		return
	}
}

// View renders the current TUI state.
func (m Model) View() string {
	if m.done && m.result != nil {
		return RenderSummary(m.result)
	}
	if m.done && m.err != nil {
		return errorStyle.Render("Error: "+m.err.Error()) + "\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s Testing %s\n", m.spinner.View(), m.url)
	for _, p := range m.phases {
		var mark string
		switch {
		case p.running:
			mark = m.spinner.View()
		case p.finished && p.success:
			mark = successStyle.Render("✓")
		case p.finished:
			mark = errorStyle.Render("✗")
		default:
			mark = dimStyle.Render("·")
		}
		line := fmt.Sprintf("  %s %s", mark, phase.Title(p.name))
		if p.finished {
			line += dimStyle.Render(fmt.Sprintf(" (%d issues)", p.issues))
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

// Failed reports whether the run ended with a terminal error or any issue.
func (m Model) Failed() bool {
	if m.err != nil {
		return true
	}
	return m.result != nil && !m.result.Success
}

// Result returns the run result for report writing.
func (m Model) Result() *result.RunResult {
	return m.result
}

// Err returns the terminal run error, if any.
func (m Model) Err() error {
	return m.err
}
