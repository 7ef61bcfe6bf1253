package browser

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

// RetryPolicy configures retry behavior for failed navigations.
type RetryPolicy struct {
	MaxRetries int           // Maximum number of retries (0 = single attempt)
	BaseDelay  time.Duration // Initial backoff delay
	MaxDelay   time.Duration // Maximum backoff cap
}

// DefaultRetryPolicy returns a policy that never retries: a navigation
// failure is terminal on the first attempt unless the caller opts in.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries: 0,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
	}
}

// NavigateWithRetry wraps Session.NavigateTo with exponential backoff.
// It retries on transient failures (driver errors, no response, 5xx, 429)
// but not on permanent ones (4xx except 429). It returns the last
// navigation outcome, the number of attempts made, and the last error.
func NavigateWithRetry(ctx context.Context, s Session, url string, policy RetryPolicy) (Navigation, int, error) {
	backoff := policy.BaseDelay
	var nav Navigation
	var err error
	attempts := 0

	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nav, attempts, fmt.Errorf("navigation retry cancelled: %w", ctx.Err())
			case <-time.After(backoff):
				backoff = min(backoff*2, policy.MaxDelay)
			}
		}

		attempts++
		nav, err = s.NavigateTo(ctx, url)
		if err == nil && nav.Succeeded {
			return nav, attempts, nil
		}
		if !shouldRetry(nav, err) {
			break
		}
	}

	return nav, attempts, err
}

// shouldRetry determines if a failed navigation should be retried.
func shouldRetry(nav Navigation, err error) bool {
	if err != nil {
		return isRetryableError(err)
	}

	switch status := nav.StatusCode; {
	case status == 0:
		return true
	case status == http.StatusTooManyRequests:
		return true
	case status >= 500:
		return true
	default:
		return false
	}
}

// isRetryableError reports whether a driver error looks transient.
func isRetryableError(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary || dnsErr.IsTimeout
	}

	// Chrome reports network failures as net::ERR_* text.
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"err_connection_refused",
		"err_connection_reset",
		"err_connection_closed",
		"err_timed_out",
		"err_network_changed",
		"err_empty_response",
		"timeout",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
