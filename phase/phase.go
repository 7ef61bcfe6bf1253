// Package phase implements the four test phases a run executes against one
// browser session: functional, responsive, performance and accessibility.
// Phases borrow the session; they never initialize or close it.
package phase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/lukemcguire/webprobe/browser"
	"github.com/lukemcguire/webprobe/config"
	"github.com/lukemcguire/webprobe/result"
)

// Phase is one independently scoped category of checks.
type Phase interface {
	// Name returns the phase key used in RunResult.Details.
	Name() string
	// Run inspects the page already loaded in s. A returned error is
	// converted by the caller into a single "<Phase> Test Error" issue.
	Run(ctx context.Context, s browser.Session, pageURL string) (result.PhaseResult, error)
}

// All returns the four phases in execution order.
func All(cfg config.Config, logger *slog.Logger) []Phase {
	return []Phase{
		NewFunctional(cfg, logger),
		NewResponsive(cfg, logger),
		NewPerformance(cfg, logger),
		NewAccessibility(cfg, logger),
	}
}

// Failed builds the result of a phase that could not complete.
func Failed(name string, err error) result.PhaseResult {
	return result.PhaseResult{
		Success: false,
		Issues: []result.Issue{{
			Type:        Title(name) + " Test Error",
			Description: err.Error(),
			Severity:    result.SeverityError,
		}},
		Error: err.Error(),
	}
}

// Title returns the display name of a phase key, e.g. "Functional".
func Title(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}

// evaluate runs one in-page script bounded by timeout.
func evaluate(ctx context.Context, s browser.Session, timeout time.Duration, script browser.Script, out any, args ...any) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return s.Evaluate(ctx, script, out, args...)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nonNil(issues []result.Issue) []result.Issue {
	if issues == nil {
		return []result.Issue{}
	}
	return issues
}
