package phase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lukemcguire/webprobe/browser"
	"github.com/lukemcguire/webprobe/config"
	"github.com/lukemcguire/webprobe/inspect"
	"github.com/lukemcguire/webprobe/result"
)

// PlaceholderScores are the fixed values for the categories that are not
// measured. Performance is filled in from timings.
var PlaceholderScores = result.Scores{
	Accessibility: 0.85,
	BestPractices: 0.90,
	SEO:           0.85,
}

// Metrics are the timing offsets (ms from navigation start) and resource
// totals of one cold load.
type Metrics struct {
	DOMContentLoadedTime     float64        `json:"domContentLoadedTime"`
	FirstPaintTime           float64        `json:"firstPaintTime"`
	FirstContentfulPaintTime float64        `json:"firstContentfulPaintTime"`
	LoadTime                 float64        `json:"loadTime"`
	TotalSize                int64          `json:"totalSize"`
	ResourceCount            int            `json:"resourceCount"`
	ResourcesByType          map[string]int `json:"resourcesByType"`
}

// PerformanceDetails is stored in the performance PhaseResult.Details.
type PerformanceDetails struct {
	Metrics   Metrics            `json:"metrics"`
	Scores    result.Scores      `json:"scores"`
	Resources []inspect.Resource `json:"resources,omitempty"`
}

// NewMetrics derives offsets and totals from raw timings and resource entries.
func NewMetrics(t inspect.Timings, resources []inspect.Resource) Metrics {
	offset := func(mark float64) float64 {
		if mark <= 0 {
			return 0
		}
		return max(mark-t.NavigationStart, 0)
	}

	m := Metrics{
		DOMContentLoadedTime:     offset(t.DOMContentLoaded),
		FirstPaintTime:           offset(t.FirstPaint),
		FirstContentfulPaintTime: offset(t.FirstContentfulPaint),
		LoadTime:                 offset(t.LoadEventEnd),
		ResourceCount:            len(resources),
		ResourcesByType:          make(map[string]int),
	}
	for _, r := range resources {
		m.TotalSize += r.TransferSize
		kind := r.InitiatorType
		if kind == "" {
			kind = "other"
		}
		m.ResourcesByType[kind]++
	}
	return m
}

// Map flattens m into PhaseResult.Metrics.
func (m Metrics) Map() map[string]float64 {
	out := map[string]float64{
		"domContentLoadedTime":     m.DOMContentLoadedTime,
		"firstPaintTime":           m.FirstPaintTime,
		"firstContentfulPaintTime": m.FirstContentfulPaintTime,
		"loadTime":                 m.LoadTime,
		"totalSize":                float64(m.TotalSize),
		"resourceCount":            float64(m.ResourceCount),
	}
	for kind, n := range m.ResourcesByType {
		out["resources."+kind] = float64(n)
	}
	return out
}

// Score maps value linearly onto [0,1]: 1 at or below lo, 0 at or above hi.
func Score(value, lo, hi float64) float64 {
	if hi <= lo {
		if value <= lo {
			return 1
		}
		return 0
	}
	return min(max(1-(value-lo)/(hi-lo), 0), 1)
}

// PerformanceScore blends first contentful paint and load time.
func PerformanceScore(m Metrics) float64 {
	return 0.4*Score(m.FirstContentfulPaintTime, 1000, 3000) + 0.6*Score(m.LoadTime, 2000, 6000)
}

// ComputeScores returns the category scores for m.
func ComputeScores(m Metrics) result.Scores {
	scores := PlaceholderScores
	scores.Performance = PerformanceScore(m)
	return scores
}

// Performance measures a cold reload of the page.
type Performance struct {
	cfg    config.Config
	logger *slog.Logger
}

// NewPerformance creates the performance phase.
func NewPerformance(cfg config.Config, logger *slog.Logger) *Performance {
	return &Performance{cfg: cfg, logger: orDiscard(logger)}
}

// Name implements Phase.
func (p *Performance) Name() string { return result.PhasePerformance }

// Run disables the cache, reloads, and reads timings within the performance window.
func (p *Performance) Run(ctx context.Context, s browser.Session, _ string) (result.PhaseResult, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.PerformanceTimeoutDuration())
	defer cancel()

	if err := s.DisableCache(ctx); err != nil {
		return result.PhaseResult{}, fmt.Errorf("disable cache: %w", err)
	}
	if err := s.Reload(ctx); err != nil {
		return result.PhaseResult{}, fmt.Errorf("reload page: %w", err)
	}

	var timings inspect.Timings
	if err := evaluate(ctx, s, p.cfg.ElementTimeoutDuration(), inspect.TimingsScript, &timings); err != nil {
		return result.PhaseResult{}, fmt.Errorf("read timings: %w", err)
	}
	var resources []inspect.Resource
	if err := evaluate(ctx, s, p.cfg.ElementTimeoutDuration(), inspect.Resources, &resources); err != nil {
		return result.PhaseResult{}, fmt.Errorf("read resource timings: %w", err)
	}

	metrics := NewMetrics(timings, resources)
	scores := ComputeScores(metrics)
	issues := BudgetIssues(metrics, scores, p.cfg.Budgets, p.cfg.Thresholds)

	p.logger.Debug("performance measured",
		"loadTime", metrics.LoadTime,
		"fcp", metrics.FirstContentfulPaintTime,
		"resources", metrics.ResourceCount,
		"score", scores.Performance)

	return result.PhaseResult{
		Success: len(issues) == 0,
		Issues:  nonNil(issues),
		Metrics: metrics.Map(),
		Details: PerformanceDetails{Metrics: metrics, Scores: scores, Resources: resources},
	}, nil
}

// BudgetIssues compares metrics against budgets and scores against thresholds.
func BudgetIssues(m Metrics, scores result.Scores, budgets config.Budgets, thresholds result.Scores) []result.Issue {
	var issues []result.Issue
	warn := func(kind, description, location, suggestion string) {
		issues = append(issues, result.Issue{
			Type:        kind,
			Description: description,
			Severity:    result.SeverityWarning,
			Location:    location,
			Suggestion:  suggestion,
		})
	}

	if m.LoadTime > budgets.LoadTime {
		warn("Slow Page Load",
			fmt.Sprintf("Page took %.0fms to load, over the %.0fms budget", m.LoadTime, budgets.LoadTime),
			"loadTime",
			"Defer non-critical scripts and reduce render-blocking resources")
	}
	if m.FirstContentfulPaintTime > budgets.FirstContentfulPaint {
		warn("Slow First Contentful Paint",
			fmt.Sprintf("First contentful paint at %.0fms, over the %.0fms budget",
				m.FirstContentfulPaintTime, budgets.FirstContentfulPaint),
			"firstContentfulPaintTime",
			"Inline critical CSS and serve above-the-fold content first")
	}
	if m.TotalSize > budgets.TotalSize {
		warn("Large Page Size",
			fmt.Sprintf("Page transferred %s, over the %s budget", formatBytes(m.TotalSize), formatBytes(budgets.TotalSize)),
			"totalSize",
			"Compress images, minify assets and drop unused code")
	}
	if m.ResourceCount > budgets.Resources {
		warn("Too Many Resources",
			fmt.Sprintf("Page loaded %d resources, over the budget of %d", m.ResourceCount, budgets.Resources),
			"resourceCount",
			"Bundle scripts and styles and lazy-load below-the-fold media")
	}

	for _, category := range result.ScoreCategories {
		score, threshold := scores.Get(category), thresholds.Get(category)
		if score < threshold {
			warn("Performance Issue",
				fmt.Sprintf("%s score %.2f is below the %.2f threshold", category, score, threshold),
				category,
				"Review the "+category+" findings and their budgets")
		}
	}
	return issues
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
