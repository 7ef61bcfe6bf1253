// Package browser defines the contract the test pipeline needs from a
// browser driver and provides a Chrome implementation of it.
package browser

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoResponse is returned when navigation completes without a main-document response.
var ErrNoResponse = errors.New("no response")

// Navigation reports the outcome of loading a URL.
type Navigation struct {
	StatusCode int
	Succeeded  bool // false if there was no response or StatusCode >= 400
}

// NewNavigation builds a Navigation from a main-document status code.
// A zero status means the driver saw no response.
func NewNavigation(statusCode int) Navigation {
	return Navigation{
		StatusCode: statusCode,
		Succeeded:  statusCode > 0 && statusCode < 400,
	}
}

// Script is an in-page inspection function. Source must be a JavaScript
// function expression; it is invoked with the JSON-encoded arguments passed
// to Evaluate and must return a JSON-serializable value (or a promise of one).
type Script struct {
	Name   string
	Source string
}

// Session is one live browser page, owned by the orchestrator for the
// duration of a run. Phases borrow it and never close it.
type Session interface {
	// Initialize starts the underlying browser.
	Initialize(ctx context.Context) error
	// NavigateTo loads url in the page.
	NavigateTo(ctx context.Context, url string) (Navigation, error)
	// SetViewport resizes the page viewport.
	SetViewport(ctx context.Context, width, height int) error
	// TakeScreenshot captures the current viewport as PNG to path.
	TakeScreenshot(ctx context.Context, path string) error
	// Evaluate runs script against the live DOM and decodes its result into out.
	Evaluate(ctx context.Context, script Script, out any, args ...any) error
	// DisableCache turns off the HTTP cache for subsequent loads.
	DisableCache(ctx context.Context) error
	// Reload reloads the current page and waits for the load event.
	Reload(ctx context.Context) error
	// Close releases the browser. It is idempotent and safe to call even
	// if Initialize never completed.
	Close() error
}

// Factory creates a fresh, uninitialized Session for one run.
type Factory func() Session

// EvalError wraps a failure inside an in-page script.
type EvalError struct {
	Script string
	Err    error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("evaluate %s: %v", e.Script, e.Err)
}

func (e *EvalError) Unwrap() error { return e.Err }
