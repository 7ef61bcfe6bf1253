// Package result defines the unified issue taxonomy shared by every test
// phase, the per-run summary model, and the writers that turn a run into
// console, JSON, CSV and HTML reports.
package result

import "time"

// Severity classifies an Issue. Errors mark a phase failure condition,
// warnings are advisory.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// MaxElements bounds the evidence attached to a single Issue.
const MaxElements = 10

// Phase names in execution order.
const (
	PhaseFunctional    = "functional"
	PhaseResponsive    = "responsive"
	PhasePerformance   = "performance"
	PhaseAccessibility = "accessibility"
)

// PhaseOrder is the fixed sequence in which phases run and issues are reported.
var PhaseOrder = []string{PhaseFunctional, PhaseResponsive, PhasePerformance, PhaseAccessibility}

// Element describes one DOM element supporting an Issue.
type Element struct {
	Selector string `json:"selector,omitempty"` // CSS selector or short identifier
	HTML     string `json:"html,omitempty"`     // Outer HTML snippet
	Detail   string `json:"detail,omitempty"`   // Measured values, e.g. "overflows right by 40px"
}

// Issue is a normalized finding produced by any phase.
type Issue struct {
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Severity    Severity  `json:"severity"`
	Location    string    `json:"location,omitempty"`
	Suggestion  string    `json:"suggestion,omitempty"`
	Elements    []Element `json:"elements,omitempty"`
}

// PhaseResult is the outcome of one phase invocation.
type PhaseResult struct {
	Success bool               `json:"success"`
	Issues  []Issue            `json:"issues"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
	Details any                `json:"details,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// TestSummary counts phase outcomes for a run.
type TestSummary struct {
	TotalPages  int `json:"totalPages"`
	TotalTests  int `json:"totalTests"`
	PassedTests int `json:"passedTests"`
	FailedTests int `json:"failedTests"`
}

// RunResult is the complete output of one page run.
type RunResult struct {
	URL         string                 `json:"url"`
	Timestamp   time.Time              `json:"timestamp"`
	Success     bool                   `json:"success"`
	Error       string                 `json:"error,omitempty"`
	Summary     TestSummary            `json:"summary"`
	Performance Scores                 `json:"performance"`
	Issues      []Issue                `json:"issues"`
	Details     map[string]PhaseResult `json:"details,omitempty"`
	Duration    time.Duration          `json:"-"`
}

// NewSummary derives the summary from the phase results of a single page.
// Every phase in PhaseOrder counts as one test; a missing phase counts as failed.
func NewSummary(details map[string]PhaseResult) TestSummary {
	summary := TestSummary{TotalPages: 1, TotalTests: len(PhaseOrder)}
	for _, name := range PhaseOrder {
		if pr, ok := details[name]; ok && pr.Success {
			summary.PassedTests++
		} else {
			summary.FailedTests++
		}
	}
	return summary
}

// CollectIssues concatenates phase issues in PhaseOrder.
func CollectIssues(details map[string]PhaseResult) []Issue {
	issues := []Issue{}
	for _, name := range PhaseOrder {
		issues = append(issues, details[name].Issues...)
	}
	return issues
}

// HasErrors reports whether any issue carries error severity.
func HasErrors(issues []Issue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

// CountBySeverity returns the number of issues with the given severity.
func CountBySeverity(issues []Issue, sev Severity) int {
	n := 0
	for _, issue := range issues {
		if issue.Severity == sev {
			n++
		}
	}
	return n
}

// LimitElements truncates elements to MaxElements.
func LimitElements(elements []Element) []Element {
	if len(elements) > MaxElements {
		return elements[:MaxElements]
	}
	return elements
}
