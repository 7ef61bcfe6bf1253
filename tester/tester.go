// Package tester runs the test pipeline for one page: it owns the browser
// session, executes the phases in their fixed order, isolates phase
// failures, and aggregates everything into a result.RunResult.
package tester

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"runtime/debug"
	"time"

	"github.com/lukemcguire/webprobe/browser"
	"github.com/lukemcguire/webprobe/config"
	"github.com/lukemcguire/webprobe/phase"
	"github.com/lukemcguire/webprobe/result"
	"github.com/lukemcguire/webprobe/urlutil"
)

const maxRetryDelay = 30 * time.Second

// Tester runs the pipeline against one URL at a time.
type Tester struct {
	cfg     config.Config
	factory browser.Factory
	phases  []phase.Phase
	robots  *RobotsChecker
	events  chan<- Event
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a Tester. events and logger are optional.
func New(cfg config.Config, factory browser.Factory, events chan<- Event, logger *slog.Logger) *Tester {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Tester{
		cfg:     cfg,
		factory: factory,
		phases:  phase.All(cfg, logger),
		robots:  NewRobotsChecker(nil),
		events:  events,
		logger:  logger,
		now:     time.Now,
	}
}

// Run tests rawURL. It always returns a RunResult. Validation, robots,
// session and navigation failures are terminal: no phase runs, the result
// carries the error, and the same error is returned wrapped around one of
// the result sentinels.
func (t *Tester) Run(ctx context.Context, rawURL string) (*result.RunResult, error) {
	start := t.now()
	res := &result.RunResult{
		URL:       rawURL,
		Timestamp: start,
		Summary:   result.NewSummary(nil),
		Issues:    []result.Issue{},
	}
	logger := t.logger.With("url", rawURL)

	err := t.run(ctx, rawURL, res, logger)
	res.Duration = t.now().Sub(start)
	if err != nil {
		res.Success = false
		res.Error = err.Error()
		logger.Error("run failed", "error", err, "category", result.ClassifyError(err))
	} else {
		logger.Info("run finished",
			"success", res.Success,
			"issues", len(res.Issues),
			"passed", res.Summary.PassedTests,
			"duration", res.Duration)
	}

	ev := Event{Kind: RunFinished, URL: rawURL, Success: res.Success, Issues: len(res.Issues), Elapsed: res.Duration}
	if err != nil {
		ev.Error = err.Error()
		ev.Category = result.ClassifyError(err)
	}
	t.emit(ev)
	return res, err
}

func (t *Tester) run(ctx context.Context, rawURL string, res *result.RunResult, logger *slog.Logger) error {
	target, verr := urlutil.Validate(rawURL)
	if verr != nil {
		return fmt.Errorf("%w: %w", result.ErrValidation, verr)
	}
	res.URL = target.String()

	if t.cfg.RespectRobots {
		if err := t.checkRobots(ctx, target, logger); err != nil {
			return err
		}
	}

	session := t.factory()
	defer func() {
		if cerr := session.Close(); cerr != nil {
			logger.Warn("close browser session", "error", cerr)
		}
	}()

	if err := session.Initialize(ctx); err != nil {
		return fmt.Errorf("%w: %w", result.ErrSession, err)
	}

	policy := browser.RetryPolicy{
		MaxRetries: t.cfg.Retries,
		BaseDelay:  t.cfg.RetryDelayDuration(),
		MaxDelay:   maxRetryDelay,
	}
	nav, attempts, err := browser.NavigateWithRetry(ctx, session, res.URL, policy)
	switch {
	case err != nil:
		return fmt.Errorf("%w: %w", result.ErrNavigation, err)
	case nav.StatusCode == 0:
		return fmt.Errorf("%w: %w", result.ErrNavigation, browser.ErrNoResponse)
	case !nav.Succeeded:
		return fmt.Errorf("%w: HTTP %d", result.ErrNavigation, nav.StatusCode)
	}
	logger.Debug("page loaded", "status", nav.StatusCode, "attempts", attempts)

	details := make(map[string]result.PhaseResult, len(t.phases))
	for i, p := range t.phases {
		t.emit(Event{Kind: PhaseStarted, URL: res.URL, Phase: p.Name(), Index: i + 1, Total: len(t.phases)})
		phaseStart := t.now()

		pr := t.runPhase(ctx, p, session, res.URL, logger)
		details[p.Name()] = pr

		elapsed := t.now().Sub(phaseStart)
		logger.Info("phase finished", "phase", p.Name(), "success", pr.Success, "issues", len(pr.Issues), "elapsed", elapsed)
		t.emit(Event{
			Kind:    PhaseFinished,
			URL:     res.URL,
			Phase:   p.Name(),
			Index:   i + 1,
			Total:   len(t.phases),
			Success: pr.Success,
			Issues:  len(pr.Issues),
			Error:   pr.Error,
			Elapsed: elapsed,
		})
	}

	res.Details = details
	res.Issues = result.CollectIssues(details)
	res.Summary = result.NewSummary(details)
	res.Performance = scoresFrom(details)
	res.Success = len(res.Issues) == 0
	return nil
}

// runPhase runs p and folds any error or panic into a failed PhaseResult.
func (t *Tester) runPhase(ctx context.Context, p phase.Phase, s browser.Session, pageURL string, logger *slog.Logger) (pr result.PhaseResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("phase panicked", "phase", p.Name(), "panic", r, "stack", string(debug.Stack()))
			pr = phase.Failed(p.Name(), fmt.Errorf("panic: %v", r))
		}
	}()

	pr, err := p.Run(ctx, s, pageURL)
	if err != nil {
		logger.Warn("phase failed", "phase", p.Name(), "error", err)
		return phase.Failed(p.Name(), err)
	}
	if pr.Issues == nil {
		pr.Issues = []result.Issue{}
	}
	return pr
}

func (t *Tester) checkRobots(ctx context.Context, target *url.URL, logger *slog.Logger) error {
	allowed, err := t.robots.Allowed(ctx, target, t.cfg.UserAgent)
	if err != nil {
		logger.Warn("robots.txt unavailable, allowing", "error", err)
	}
	if !allowed {
		return fmt.Errorf("%w: %s", result.ErrRobots, target)
	}
	return nil
}

// scoresFrom returns the measured scores, or the placeholders with a zero
// performance score when the performance phase did not complete.
func scoresFrom(details map[string]result.PhaseResult) result.Scores {
	if d, ok := details[result.PhasePerformance].Details.(phase.PerformanceDetails); ok {
		return d.Scores
	}
	return phase.PlaceholderScores
}

func (t *Tester) emit(ev Event) {
	if t.events == nil {
		return
	}
	t.events <- ev
}

// IsTerminal reports whether err ended a run before any phase executed.
func IsTerminal(err error) bool {
	return errors.Is(err, result.ErrValidation) ||
		errors.Is(err, result.ErrRobots) ||
		errors.Is(err, result.ErrSession) ||
		errors.Is(err, result.ErrNavigation)
}
