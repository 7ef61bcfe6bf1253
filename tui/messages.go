package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lukemcguire/webprobe/result"
	"github.com/lukemcguire/webprobe/tester"
)

// PhaseMsg carries one progress event from the tester.
type PhaseMsg struct {
	Event tester.Event
}

// RunDoneMsg signals the run has completed.
type RunDoneMsg struct {
	Result *result.RunResult
	Err    error
}

// waitForEvent returns a tea.Cmd that reads one event from the progress
// channel. A closed channel yields nil so the listener simply stops; the
// final result arrives through RunDoneMsg.
func waitForEvent(ch <-chan tester.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return PhaseMsg{Event: ev}
	}
}
