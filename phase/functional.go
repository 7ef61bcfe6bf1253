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

const (
	navLinkSample = 3
	inputSample   = 5
)

// Functional exercises the interactive surface of the page without leaving it.
type Functional struct {
	cfg    config.Config
	logger *slog.Logger
}

// NewFunctional creates the functional phase.
func NewFunctional(cfg config.Config, logger *slog.Logger) *Functional {
	return &Functional{cfg: cfg, logger: orDiscard(logger)}
}

// Name implements Phase.
func (f *Functional) Name() string { return result.PhaseFunctional }

// Run checks navigation, buttons, forms, links and inputs in that order.
// A check that fails internally contributes no issues.
func (f *Functional) Run(ctx context.Context, s browser.Session, _ string) (result.PhaseResult, error) {
	var issues []result.Issue
	issues = append(issues, f.checkNavigation(ctx, s)...)
	issues = append(issues, f.checkButtons(ctx, s)...)

	doc := f.snapshot(ctx, s)
	issues = append(issues, checkForms(doc, f.cfg.Selectors.Forms)...)
	issues = append(issues, checkLinks(doc, f.cfg.Selectors.Links)...)

	issues = append(issues, f.checkInputs(ctx, s)...)

	return result.PhaseResult{
		Success: !result.HasErrors(issues),
		Issues:  nonNil(issues),
	}, nil
}

func (f *Functional) controls(ctx context.Context, s browser.Session, selector string, limit int, scope string) ([]inspect.Control, error) {
	var controls []inspect.Control
	err := evaluate(ctx, s, f.cfg.ElementTimeoutDuration(), inspect.Controls, &controls, selector, limit, scope, f.cfg.Selectors.Forms)
	return controls, err
}

func (f *Functional) checkNavigation(ctx context.Context, s browser.Session) []result.Issue {
	selector := f.cfg.Selectors.Navigation

	var count int
	if err := evaluate(ctx, s, f.cfg.ElementTimeoutDuration(), inspect.Count, &count, selector); err != nil {
		f.logger.Warn("navigation check failed", "error", err)
		return nil
	}
	if count == 0 {
		return []result.Issue{{
			Type:        "Missing Navigation",
			Description: "No navigation landmark found on the page",
			Severity:    result.SeverityWarning,
			Location:    selector,
			Suggestion:  `Wrap the main site links in a <nav> element or give their container role="navigation"`,
		}}
	}

	links, err := f.controls(ctx, s, "a[href]", navLinkSample, selector)
	if err != nil {
		f.logger.Warn("navigation link check failed", "error", err)
		return nil
	}

	var issues []result.Issue
	for _, link := range links {
		if link.Clickable {
			continue
		}
		issues = append(issues, result.Issue{
			Type:        "Navigation Link Not Clickable",
			Description: fmt.Sprintf("Navigation link %q is hidden, zero-sized or covered by another element", link.Text),
			Severity:    result.SeverityError,
			Location:    link.Selector,
			Suggestion:  "Make sure navigation links are visible and not overlapped at their centre",
			Elements:    []result.Element{{Selector: link.Selector, HTML: link.HTML}},
		})
	}
	return issues
}

func (f *Functional) checkButtons(ctx context.Context, s browser.Session) []result.Issue {
	buttons, err := f.controls(ctx, s, f.cfg.Selectors.Buttons, 0, "")
	if err != nil {
		f.logger.Warn("button check failed", "error", err)
		return nil
	}

	var issues []result.Issue
	for _, b := range buttons {
		evidence := []result.Element{{Selector: b.Selector, HTML: b.HTML}}
		if !b.Clickable {
			issues = append(issues, result.Issue{
				Type:        "Button Not Clickable",
				Description: fmt.Sprintf("Button %s is hidden, zero-sized or covered by another element", b.Selector),
				Severity:    result.SeverityError,
				Location:    b.Selector,
				Suggestion:  "Check the button's visibility, size and stacking order",
				Elements:    evidence,
			})
		}
		if b.Text == "" {
			issues = append(issues, result.Issue{
				Type:        "Button Missing Text",
				Description: fmt.Sprintf("Button %s has no accessible text", b.Selector),
				Severity:    result.SeverityWarning,
				Location:    b.Selector,
				Suggestion:  "Add visible text or an aria-label describing the action",
				Elements:    evidence,
			})
		}
	}
	return issues
}

func (f *Functional) checkInputs(ctx context.Context, s browser.Session) []result.Issue {
	inputs, err := f.controls(ctx, s, f.cfg.Selectors.Inputs, inputSample, "")
	if err != nil {
		f.logger.Warn("input check failed", "error", err)
		return nil
	}

	var issues []result.Issue
	for _, in := range inputs {
		evidence := []result.Element{{Selector: in.Selector, HTML: in.HTML}}
		if !in.Clickable {
			issues = append(issues, result.Issue{
				Type:        "Input Not Clickable",
				Description: fmt.Sprintf("Input %s is hidden, zero-sized or covered by another element", in.Selector),
				Severity:    result.SeverityError,
				Location:    in.Selector,
				Suggestion:  "Check the input's visibility, size and stacking order",
				Elements:    evidence,
			})
		}
		// Required fields inside a form are covered by checkForms.
		if in.Required && in.InForm {
			continue
		}
		if !in.HasLabel && in.Placeholder == "" {
			issues = append(issues, result.Issue{
				Type:        "Input Missing Label",
				Description: fmt.Sprintf("Input %s has neither a label nor a placeholder", in.Selector),
				Severity:    result.SeverityWarning,
				Location:    in.Selector,
				Suggestion:  `Add a <label for="..."> matching the input's id`,
				Elements:    evidence,
			})
		}
	}
	return issues
}
