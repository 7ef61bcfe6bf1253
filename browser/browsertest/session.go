// Package browsertest provides a scriptable in-memory browser.Session for tests.
package browsertest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/lukemcguire/webprobe/browser"
)

// Handler answers one in-page script. args arrive JSON-decoded, exactly as
// the page would see them; the return value is JSON-encoded on the way back.
type Handler func(s *Session, args []any) (any, error)

// Session is a fake browser.Session. The zero value answers every
// navigation with 200 and every unknown script with an error.
type Session struct {
	mu sync.Mutex

	InitErr       error
	NavStatus     int // 0 means 200
	NavErr        error
	ViewportErr   error
	ScreenshotErr error
	CacheErr      error
	ReloadErr     error

	handlers    map[string]Handler
	calls       []string
	screenshots []string
	width       int
	height      int
	closeCount  int
}

// New returns an empty fake session.
func New() *Session {
	return &Session{handlers: make(map[string]Handler)}
}

// Factory returns a browser.Factory that always hands out s.
func (s *Session) Factory() browser.Factory {
	return func() browser.Session { return s }
}

// On registers h as the answer for the script named name.
func (s *Session) On(name string, h Handler) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handlers == nil {
		s.handlers = make(map[string]Handler)
	}
	s.handlers[name] = h
	return s
}

// Return registers a fixed answer for the script named name.
func (s *Session) Return(name string, value any) *Session {
	return s.On(name, func(*Session, []any) (any, error) { return value, nil })
}

// Fail registers a failing answer for the script named name.
func (s *Session) Fail(name string, err error) *Session {
	return s.On(name, func(*Session, []any) (any, error) { return nil, err })
}

// Calls returns the operations invoked so far, e.g. "navigate", "eval:links".
func (s *Session) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// CallCount returns how many times op was recorded.
func (s *Session) CallCount(op string) int {
	n := 0
	for _, c := range s.Calls() {
		if c == op {
			n++
		}
	}
	return n
}

// Screenshots returns the screenshot paths requested so far.
func (s *Session) Screenshots() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.screenshots...)
}

// Viewport returns the current viewport size.
func (s *Session) Viewport() (width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// CloseCount returns how many times Close was called.
func (s *Session) CloseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeCount
}

func (s *Session) record(op string) {
	s.mu.Lock()
	s.calls = append(s.calls, op)
	s.mu.Unlock()
}

// Initialize implements browser.Session.
func (s *Session) Initialize(ctx context.Context) error {
	s.record("initialize")
	if s.InitErr != nil {
		return s.InitErr
	}
	return ctx.Err()
}

// NavigateTo implements browser.Session.
func (s *Session) NavigateTo(ctx context.Context, url string) (browser.Navigation, error) {
	s.record("navigate")
	if err := ctx.Err(); err != nil {
		return browser.Navigation{}, err
	}
	if s.NavErr != nil {
		return browser.Navigation{}, s.NavErr
	}
	status := s.NavStatus
	if status == 0 {
		status = 200
	}
	return browser.NewNavigation(status), nil
}

// SetViewport implements browser.Session.
func (s *Session) SetViewport(_ context.Context, width, height int) error {
	s.record("viewport")
	if s.ViewportErr != nil {
		return s.ViewportErr
	}
	s.mu.Lock()
	s.width, s.height = width, height
	s.mu.Unlock()
	return nil
}

// TakeScreenshot implements browser.Session. No file is written.
func (s *Session) TakeScreenshot(_ context.Context, path string) error {
	s.record("screenshot")
	if s.ScreenshotErr != nil {
		return s.ScreenshotErr
	}
	s.mu.Lock()
	s.screenshots = append(s.screenshots, path)
	s.mu.Unlock()
	return nil
}

// Evaluate implements browser.Session by dispatching on the script name.
func (s *Session) Evaluate(ctx context.Context, script browser.Script, out any, args ...any) error {
	s.record("eval:" + script.Name)
	if err := ctx.Err(); err != nil {
		return &browser.EvalError{Script: script.Name, Err: err}
	}

	s.mu.Lock()
	h, ok := s.handlers[script.Name]
	s.mu.Unlock()
	if !ok {
		return &browser.EvalError{Script: script.Name, Err: fmt.Errorf("no handler registered")}
	}

	decodedArgs, err := roundTrip(args)
	if err != nil {
		return &browser.EvalError{Script: script.Name, Err: err}
	}
	argList, _ := decodedArgs.([]any)

	value, err := h(s, argList)
	if err != nil {
		return &browser.EvalError{Script: script.Name, Err: err}
	}
	if out == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return &browser.EvalError{Script: script.Name, Err: err}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &browser.EvalError{Script: script.Name, Err: err}
	}
	return nil
}

// DisableCache implements browser.Session.
func (s *Session) DisableCache(context.Context) error {
	s.record("disable-cache")
	return s.CacheErr
}

// Reload implements browser.Session.
func (s *Session) Reload(ctx context.Context) error {
	s.record("reload")
	if s.ReloadErr != nil {
		return s.ReloadErr
	}
	return ctx.Err()
}

// Close implements browser.Session.
func (s *Session) Close() error {
	s.mu.Lock()
	s.closeCount++
	s.calls = append(s.calls, "close")
	s.mu.Unlock()
	return nil
}

func roundTrip(v any) (any, error) {
	if v == nil {
		return []any{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
