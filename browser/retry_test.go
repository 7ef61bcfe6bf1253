package browser

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"
)

// seqSession answers NavigateTo from a fixed sequence of outcomes.
type seqSession struct {
	statuses []int
	errs     []error
	calls    int
}

func (s *seqSession) Initialize(context.Context) error { return nil }
func (s *seqSession) NavigateTo(context.Context, string) (Navigation, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return Navigation{}, s.errs[i]
	}
	status := 200
	if i < len(s.statuses) {
		status = s.statuses[i]
	}
	return NewNavigation(status), nil
}
func (s *seqSession) SetViewport(context.Context, int, int) error { return nil }
func (s *seqSession) TakeScreenshot(context.Context, string) error { return nil }
func (s *seqSession) Evaluate(context.Context, Script, any, ...any) error { return nil }
func (s *seqSession) DisableCache(context.Context) error { return nil }
func (s *seqSession) Reload(context.Context) error { return nil }
func (s *seqSession) Close() error { return nil }

func fastPolicy(retries int) RetryPolicy {
	return RetryPolicy{MaxRetries: retries, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestNavigateWithRetry(t *testing.T) {
	tests := []struct {
		name         string
		statuses     []int
		errs         []error
		retries      int
		wantAttempts int
		wantOK       bool
		wantErr      bool
	}{
		{
			name:         "success first try",
			statuses:     []int{200},
			retries:      2,
			wantAttempts: 1,
			wantOK:       true,
		},
		{
			name:         "404 is not retried",
			statuses:     []int{404, 200},
			retries:      2,
			wantAttempts: 1,
			wantOK:       false,
		},
		{
			name:         "503 then success",
			statuses:     []int{503, 200},
			retries:      2,
			wantAttempts: 2,
			wantOK:       true,
		},
		{
			name:         "429 exhausts retries",
			statuses:     []int{429, 429, 429, 429},
			retries:      2,
			wantAttempts: 3,
			wantOK:       false,
		},
		{
			name:         "no retries by default",
			statuses:     []int{500, 200},
			retries:      0,
			wantAttempts: 1,
			wantOK:       false,
		},
		{
			name:         "connection refused retried",
			errs:         []error{errors.New("page load error net::ERR_CONNECTION_REFUSED"), nil},
			statuses:     []int{0, 200},
			retries:      1,
			wantAttempts: 2,
			wantOK:       true,
		},
		{
			name:         "unknown driver error not retried",
			errs:         []error{errors.New("invalid target")},
			retries:      3,
			wantAttempts: 1,
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &seqSession{statuses: tt.statuses, errs: tt.errs}
			nav, attempts, err := NavigateWithRetry(context.Background(), s, "https://example.com", fastPolicy(tt.retries))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if attempts != tt.wantAttempts {
				t.Errorf("attempts = %d, want %d", attempts, tt.wantAttempts)
			}
			if nav.Succeeded != tt.wantOK {
				t.Errorf("Succeeded = %v, want %v", nav.Succeeded, tt.wantOK)
			}
		})
	}
}

func TestNavigateWithRetry_ContextCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := &seqSession{statuses: []int{503, 503, 503}}
	policy := RetryPolicy{MaxRetries: 2, BaseDelay: time.Hour, MaxDelay: time.Hour}

	cancel()
	_, attempts, err := NavigateWithRetry(ctx, s, "https://example.com", policy)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"deadline", context.DeadlineExceeded, true},
		{"cancelled", context.Canceled, false},
		{"op error", &net.OpError{Op: "dial", Err: errors.New("refused")}, true},
		{"permanent dns", &net.DNSError{Err: "no such host", Name: "x.invalid", IsNotFound: true}, false},
		{"temporary dns", &net.DNSError{Err: "server misbehaving", Name: "x", IsTemporary: true}, true},
		{"chrome timeout", errors.New("net::ERR_TIMED_OUT"), true},
		{"name not resolved", errors.New("net::ERR_NAME_NOT_RESOLVED"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableError(tt.err); got != tt.want {
				t.Errorf("isRetryableError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestNewNavigation(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{0, false},
		{200, true},
		{304, true},
		{399, true},
		{400, false},
		{404, false},
		{500, false},
	}
	for _, tt := range tests {
		if got := NewNavigation(tt.status).Succeeded; got != tt.want {
			t.Errorf("NewNavigation(%d).Succeeded = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestBuildExpression(t *testing.T) {
	script := Script{Name: "probe", Source: "  function(sel, n) { return sel + n; }\n"}

	got, err := BuildExpression(script, "a[href]", 3)
	if err != nil {
		t.Fatalf("BuildExpression() error: %v", err)
	}
	want := `(function(sel, n) { return sel + n; })("a[href]", 3)`
	if got != want {
		t.Errorf("BuildExpression() = %q, want %q", got, want)
	}

	got, err = BuildExpression(script)
	if err != nil {
		t.Fatalf("BuildExpression() error: %v", err)
	}
	if got != "(function(sel, n) { return sel + n; })()" {
		t.Errorf("BuildExpression() without args = %q", got)
	}

	if _, err := BuildExpression(script, make(chan int)); err == nil {
		t.Error("expected error for unencodable argument")
	}
}

func TestChromeCloseBeforeInitialize(t *testing.T) {
	c := NewChrome(ChromeOptions{})
	if err := c.Close(); err != nil {
		t.Fatalf("Close() before Initialize: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close(): %v", err)
	}
	if err := c.SetViewport(context.Background(), 100, 100); !errors.Is(err, errNotInitialized) {
		t.Errorf("SetViewport after Close = %v, want errNotInitialized", err)
	}
}
