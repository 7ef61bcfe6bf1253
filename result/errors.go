package result

import (
	"context"
	"errors"
	"net"
)

// Terminal run errors. Phase failures never surface as Go errors; they are
// folded into PhaseResult instead.
var (
	ErrValidation = errors.New("invalid URL")
	ErrNavigation = errors.New("navigation failed")
	ErrSession    = errors.New("browser session failed")
	ErrRobots     = errors.New("disallowed by robots.txt")
)

// ErrorCategory represents the classification of a terminal run error.
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryNavigation ErrorCategory = "navigation"
	CategorySession    ErrorCategory = "session"
	CategoryRobots     ErrorCategory = "robots"
	CategoryTimeout    ErrorCategory = "timeout"
	CategoryNetwork    ErrorCategory = "network"
	CategoryUnknown    ErrorCategory = "unknown"
)

// ClassifyError determines the category of a run error.
func ClassifyError(err error) ErrorCategory {
	if err == nil {
		return CategoryUnknown
	}

	// Timeouts first: a navigation that timed out is reported as a timeout.
	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTimeout
	}

	switch {
	case errors.Is(err, ErrValidation):
		return CategoryValidation
	case errors.Is(err, ErrRobots):
		return CategoryRobots
	case errors.Is(err, ErrSession):
		return CategorySession
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return CategoryNetwork
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return CategoryTimeout
		}
		return CategoryNetwork
	}

	if errors.Is(err, ErrNavigation) {
		return CategoryNavigation
	}
	return CategoryUnknown
}

// FormatCategory returns a human-readable label for an error category.
func FormatCategory(cat ErrorCategory) string {
	switch cat {
	case CategoryValidation:
		return "Invalid URL"
	case CategoryNavigation:
		return "Navigation Failed"
	case CategorySession:
		return "Browser Unavailable"
	case CategoryRobots:
		return "Blocked by robots.txt"
	case CategoryTimeout:
		return "Timed Out"
	case CategoryNetwork:
		return "Network Error"
	default:
		return "Unexpected Error"
	}
}
