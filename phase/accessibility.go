package phase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/lukemcguire/webprobe/browser"
	"github.com/lukemcguire/webprobe/config"
	"github.com/lukemcguire/webprobe/inspect"
	"github.com/lukemcguire/webprobe/result"
	"github.com/lukemcguire/webprobe/urlutil"
)

// WCAGReference is suggested when a rule has no help URL.
const WCAGReference = "https://www.w3.org/WAI/WCAG21/quickref/"

// ErrEngineUnavailable is reported when axe-core cannot be loaded into the page.
var ErrEngineUnavailable = errors.New("accessibility engine unavailable")

// AccessibilityDetails is stored in the accessibility PhaseResult.Details.
type AccessibilityDetails struct {
	Violations int  `json:"violations"`
	Incomplete int  `json:"incomplete"`
	Injected   bool `json:"injected"`
}

// Accessibility audits the page with the axe-core rule engine.
type Accessibility struct {
	cfg    config.Config
	logger *slog.Logger
}

// NewAccessibility creates the accessibility phase.
func NewAccessibility(cfg config.Config, logger *slog.Logger) *Accessibility {
	return &Accessibility{cfg: cfg, logger: orDiscard(logger)}
}

// Name implements Phase.
func (a *Accessibility) Name() string { return result.PhaseAccessibility }

// Run audits the page. Engine failures are reported in PhaseResult.Error
// without issues. Success depends on violations only.
func (a *Accessibility) Run(ctx context.Context, s browser.Session, _ string) (result.PhaseResult, error) {
	injected, err := a.ensureEngine(ctx, s)
	if err != nil {
		a.logger.Warn("accessibility engine injection failed", "error", err)
		return engineFailure(err), nil
	}

	var audit inspect.AxeResults
	if err := evaluate(ctx, s, a.cfg.NavigationTimeoutDuration(), inspect.AxeRun, &audit); err != nil {
		a.logger.Warn("accessibility audit failed", "error", err)
		return engineFailure(fmt.Errorf("run audit: %w", err)), nil
	}

	issues := RuleIssues(audit.Violations, result.SeverityError)
	if a.cfg.IncludeWarnings {
		issues = append(issues, RuleIssues(audit.Incomplete, result.SeverityWarning)...)
	}

	return result.PhaseResult{
		Success: len(audit.Violations) == 0,
		Issues:  nonNil(issues),
		Metrics: map[string]float64{
			"violations": float64(len(audit.Violations)),
			"incomplete": float64(len(audit.Incomplete)),
		},
		Details: AccessibilityDetails{
			Violations: len(audit.Violations),
			Incomplete: len(audit.Incomplete),
			Injected:   injected,
		},
	}, nil
}

// ensureEngine injects axe-core unless the page already has it.
func (a *Accessibility) ensureEngine(ctx context.Context, s browser.Session) (bool, error) {
	timeout := a.cfg.ElementTimeoutDuration()

	present, err := a.enginePresent(ctx, s)
	if err != nil {
		return false, err
	}
	if present {
		return false, nil
	}

	src := a.cfg.AxeSource
	if src == "" {
		src = config.DefaultAxeSource
	}
	if urlutil.IsHTTPScheme(src) {
		err = evaluate(ctx, s, a.cfg.NavigationTimeoutDuration(), inspect.AxeLoad, nil, src)
	} else {
		var source []byte
		source, err = os.ReadFile(src) //nolint:gosec // path comes from the user's own config
		if err == nil {
			err = evaluate(ctx, s, timeout, inspect.AxeInline, nil, string(source))
		}
	}
	if err != nil {
		return false, fmt.Errorf("%w: inject %s: %w", ErrEngineUnavailable, src, err)
	}

	present, err = a.enginePresent(ctx, s)
	if err != nil {
		return false, err
	}
	if !present {
		return false, fmt.Errorf("%w: not defined after loading %s", ErrEngineUnavailable, src)
	}
	a.logger.Debug("accessibility engine injected", "source", src)
	return true, nil
}

func (a *Accessibility) enginePresent(ctx context.Context, s browser.Session) (bool, error) {
	var present bool
	if err := evaluate(ctx, s, a.cfg.ElementTimeoutDuration(), inspect.AxePresent, &present); err != nil {
		return false, fmt.Errorf("%w: %w", ErrEngineUnavailable, err)
	}
	return present, nil
}

func engineFailure(err error) result.PhaseResult {
	return result.PhaseResult{
		Success: false,
		Issues:  []result.Issue{},
		Error:   err.Error(),
	}
}

// RuleIssues maps axe-core rule outcomes to issues of the given severity.
func RuleIssues(rules []inspect.AxeRule, severity result.Severity) []result.Issue {
	issues := make([]result.Issue, 0, len(rules))
	for _, rule := range rules {
		description := rule.Help
		if description == "" {
			description = rule.Description
		}
		suggestion := "See: " + WCAGReference
		if rule.HelpURL != "" {
			suggestion = "See: " + rule.HelpURL
		}

		elements := make([]result.Element, 0, min(len(rule.Nodes), result.MaxElements))
		for _, node := range rule.Nodes {
			elements = append(elements, result.Element{Selector: node.Target, HTML: node.HTML})
		}

		issues = append(issues, result.Issue{
			Type:        fmt.Sprintf("Accessibility %s: %s", severity, rule.ID),
			Description: description,
			Severity:    severity,
			Location:    fmt.Sprintf("%d elements affected", len(rule.Nodes)),
			Suggestion:  suggestion,
			Elements:    result.LimitElements(elements),
		})
	}
	return issues
}
