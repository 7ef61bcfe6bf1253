package tester

import (
	"time"

	"github.com/lukemcguire/webprobe/result"
)

// EventKind identifies a progress event.
type EventKind int

const (
	// PhaseStarted is sent before a phase runs.
	PhaseStarted EventKind = iota
	// PhaseFinished is sent after a phase returns, with its outcome.
	PhaseFinished
	// RunFinished is sent once per run, also on terminal errors.
	RunFinished
)

// Event reports run progress to an optional listener such as the TUI.
type Event struct {
	Kind     EventKind
	URL      string
	Phase    string
	Index    int // 1-based position of Phase in the run
	Total    int
	Success  bool
	Issues   int
	Error    string
	Category result.ErrorCategory
	Elapsed  time.Duration
}
