package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lukemcguire/webprobe/result"
)

// PageTester runs the pipeline for one URL; *tester.Tester implements it.
type PageTester interface {
	Run(ctx context.Context, rawURL string) (*result.RunResult, error)
}

// Summary counts the outcome of a batch.
type Summary struct {
	Total      int
	Tested     int
	Skipped    int // duplicates and pages already tested in a resumed batch
	Failed     int // terminal run errors
	WithIssues int
	Duration   time.Duration
}

// OK reports whether every tested page ran and came back clean.
func (s Summary) OK() bool {
	return s.Failed == 0 && s.WithIssues == 0
}

// Runner tests URLs strictly one after another.
type Runner struct {
	tester PageTester
	pacer  *Pacer
	seen   *SeenSet
	logger *slog.Logger

	// OnResult, if set, is called after every tested page.
	OnResult func(entry Entry, res *result.RunResult, err error)
}

// NewRunner creates a Runner. seen and logger are optional.
func NewRunner(t PageTester, pacer *Pacer, seen *SeenSet, logger *slog.Logger) *Runner {
	if pacer == nil {
		pacer = NewPacer(0, 0)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{tester: t, pacer: pacer, seen: seen, logger: logger}
}

// Run tests every entry in order, skipping entries the SeenSet already
// holds. It stops early only when ctx is done.
func (r *Runner) Run(ctx context.Context, entries []Entry) (Summary, error) {
	start := time.Now()
	summary := Summary{Total: len(entries)}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(start)
			return summary, fmt.Errorf("batch interrupted: %w", err)
		}

		if r.seen != nil && entry.Key != "" && r.seen.Has(entry.Key) {
			r.logger.Info("skipping already tested page", "url", entry.URL, "line", entry.Line)
			summary.Skipped++
			continue
		}

		if err := r.pacer.Wait(ctx); err != nil {
			summary.Duration = time.Since(start)
			return summary, fmt.Errorf("batch interrupted: %w", err)
		}

		runStart := time.Now()
		res, err := r.tester.Run(ctx, entry.URL)
		r.pacer.Observe(time.Since(runStart))
		summary.Tested++

		switch {
		case err != nil:
			summary.Failed++
		case len(res.Issues) > 0:
			summary.WithIssues++
		}

		if r.seen != nil && entry.Key != "" && !errors.Is(err, context.Canceled) {
			if serr := r.seen.Add(entry.Key); serr != nil {
				r.logger.Warn("record tested page", "url", entry.URL, "error", serr)
			}
		}
		if r.OnResult != nil {
			r.OnResult(entry, res, err)
		}
	}

	summary.Duration = time.Since(start)
	return summary, nil
}
