package result

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCategory
	}{
		{
			name: "nil error",
			err:  nil,
			want: CategoryUnknown,
		},
		{
			name: "validation",
			err:  fmt.Errorf("%w: ftp://example.com", ErrValidation),
			want: CategoryValidation,
		},
		{
			name: "navigation status",
			err:  fmt.Errorf("%w: HTTP 404", ErrNavigation),
			want: CategoryNavigation,
		},
		{
			name: "navigation timeout",
			err:  fmt.Errorf("%w: %w", ErrNavigation, context.DeadlineExceeded),
			want: CategoryTimeout,
		},
		{
			name: "session",
			err:  fmt.Errorf("%w: exec: chrome not found", ErrSession),
			want: CategorySession,
		},
		{
			name: "robots",
			err:  fmt.Errorf("%w: /private", ErrRobots),
			want: CategoryRobots,
		},
		{
			name: "unrelated",
			err:  errors.New("boom"),
			want: CategoryUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyError(tt.err)
			if got != tt.want {
				t.Errorf("ClassifyError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyError_DNSFailure(t *testing.T) {
	dnsErr := &net.DNSError{
		Err:  "no such host",
		Name: "example.invalid",
	}

	got := ClassifyError(fmt.Errorf("%w: %w", ErrNavigation, dnsErr))
	if got != CategoryNetwork {
		t.Errorf("ClassifyError(DNSError) = %v, want %v", got, CategoryNetwork)
	}
}

func TestFormatCategory(t *testing.T) {
	tests := []struct {
		cat  ErrorCategory
		want string
	}{
		{CategoryValidation, "Invalid URL"},
		{CategoryNavigation, "Navigation Failed"},
		{CategorySession, "Browser Unavailable"},
		{CategoryRobots, "Blocked by robots.txt"},
		{CategoryTimeout, "Timed Out"},
		{CategoryNetwork, "Network Error"},
		{CategoryUnknown, "Unexpected Error"},
	}

	for _, tt := range tests {
		t.Run(string(tt.cat), func(t *testing.T) {
			got := FormatCategory(tt.cat)
			if got != tt.want {
				t.Errorf("FormatCategory(%v) = %v, want %v", tt.cat, got, tt.want)
			}
		})
	}
}
