package phase

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/lukemcguire/webprobe/browser"
	"github.com/lukemcguire/webprobe/config"
	"github.com/lukemcguire/webprobe/inspect"
	"github.com/lukemcguire/webprobe/result"
	"github.com/lukemcguire/webprobe/urlutil"
)

// Layout inspection parameters.
const (
	minElementSize    = 10 // px; smaller elements are ignored for overflow
	overflowTolerance = 5  // px past the viewport edge before an element counts
	minFontSize       = 12 // px
	findingLimit      = 10
)

// ViewportResult is the responsive outcome for one viewport.
type ViewportResult struct {
	Name       string         `json:"name"`
	Width      int            `json:"width"`
	Height     int            `json:"height"`
	Screenshot string         `json:"screenshot,omitempty"`
	Layout     inspect.Layout `json:"layout"`
}

// Responsive renders the page at each configured viewport and checks layout.
type Responsive struct {
	cfg    config.Config
	logger *slog.Logger
	now    func() time.Time
}

// NewResponsive creates the responsive phase.
func NewResponsive(cfg config.Config, logger *slog.Logger) *Responsive {
	return &Responsive{cfg: cfg, logger: orDiscard(logger), now: time.Now}
}

// Name implements Phase.
func (r *Responsive) Name() string { return result.PhaseResponsive }

// Run visits every viewport in order. Screenshot failures are logged only.
func (r *Responsive) Run(ctx context.Context, s browser.Session, pageURL string) (result.PhaseResult, error) {
	var issues []result.Issue
	viewports := make([]ViewportResult, 0, len(r.cfg.Viewports))

	for _, vp := range r.cfg.Viewports {
		if err := s.SetViewport(ctx, vp.Width, vp.Height); err != nil {
			return result.PhaseResult{}, fmt.Errorf("resize to %s: %w", vp.Name, err)
		}
		if err := sleep(ctx, r.cfg.SettleDelayDuration()); err != nil {
			return result.PhaseResult{}, fmt.Errorf("settle at %s: %w", vp.Name, err)
		}

		vr := ViewportResult{Name: vp.Name, Width: vp.Width, Height: vp.Height}
		if r.cfg.Screenshots {
			path := ScreenshotPath(r.cfg.OutputDir, pageURL, vp.Name, r.now())
			if err := s.TakeScreenshot(ctx, path); err != nil {
				r.logger.Warn("screenshot failed", "viewport", vp.Name, "error", err)
			} else {
				vr.Screenshot = path
			}
		}

		if err := evaluate(ctx, s, r.cfg.ElementTimeoutDuration(), inspect.LayoutScript, &vr.Layout,
			minElementSize, overflowTolerance, minFontSize, findingLimit); err != nil {
			return result.PhaseResult{}, fmt.Errorf("inspect layout at %s: %w", vp.Name, err)
		}

		issues = append(issues, layoutIssues(vp, vr.Layout)...)
		viewports = append(viewports, vr)
	}

	return result.PhaseResult{
		Success: len(issues) == 0,
		Issues:  nonNil(issues),
		Details: viewports,
	}, nil
}

// ScreenshotPath returns <dir>/screenshots/<host>-<viewport>-<timestamp>.png.
func ScreenshotPath(dir, pageURL, viewport string, at time.Time) string {
	name := fmt.Sprintf("%s-%s-%s.png",
		urlutil.Hostname(pageURL),
		urlutil.SlugString(viewport),
		at.UTC().Format("20060102T150405.000Z"))
	return filepath.Join(dir, "screenshots", name)
}

func layoutIssues(vp config.Viewport, layout inspect.Layout) []result.Issue {
	where := fmt.Sprintf("%s (%dx%d)", vp.Name, vp.Width, vp.Height)
	var issues []result.Issue

	if layout.HasHorizontalOverflow {
		issues = append(issues, result.Issue{
			Type: "Horizontal Overflow",
			Description: fmt.Sprintf("Page is %.0fpx wide but the %s viewport is %.0fpx",
				layout.DocumentWidth, where, layout.ViewportWidth),
			Severity:   result.SeverityError,
			Location:   where,
			Suggestion: "Use fluid widths and max-width: 100% on media so content fits narrow screens",
		})
	}

	if len(layout.OverflowingElements) > 0 {
		elements := make([]result.Element, 0, len(layout.OverflowingElements))
		for _, o := range layout.OverflowingElements {
			elements = append(elements, result.Element{
				Selector: o.Selector,
				HTML:     o.HTML,
				Detail:   fmt.Sprintf("extends %.0fpx past the viewport", o.Amount),
			})
		}
		issues = append(issues, result.Issue{
			Type:        "Elements Overflow Viewport",
			Description: fmt.Sprintf("%d elements extend past the edge of the %s viewport", len(elements), where),
			Severity:    result.SeverityWarning,
			Location:    where,
			Suggestion:  "Constrain fixed widths and absolute offsets with media queries",
			Elements:    result.LimitElements(elements),
		})
	}

	if len(layout.SmallText) > 0 {
		elements := make([]result.Element, 0, len(layout.SmallText))
		for _, t := range layout.SmallText {
			elements = append(elements, result.Element{
				Selector: t.Selector,
				Detail:   fmt.Sprintf("%.1fpx: %q", t.FontSize, t.Text),
			})
		}
		issues = append(issues, result.Issue{
			Type:        "Text Too Small",
			Description: fmt.Sprintf("%d text elements render below %dpx at %s", len(elements), minFontSize, where),
			Severity:    result.SeverityWarning,
			Location:    where,
			Suggestion:  fmt.Sprintf("Use a base font size of at least %dpx on small screens", minFontSize),
			Elements:    result.LimitElements(elements),
		})
	}

	if len(layout.OverlappingElements) > 0 {
		elements := make([]result.Element, 0, len(layout.OverlappingElements))
		for _, o := range layout.OverlappingElements {
			elements = append(elements, result.Element{
				Selector: o.Selector,
				Detail:   "covered by " + o.CoveredBy,
			})
		}
		issues = append(issues, result.Issue{
			Type:        "Overlapping Elements",
			Description: fmt.Sprintf("%d interactive elements are covered by other elements at %s", len(elements), where),
			Severity:    result.SeverityWarning,
			Location:    where,
			Suggestion:  "Check z-index, positioning and spacing of interactive elements",
			Elements:    result.LimitElements(elements),
		})
	}

	return issues
}
