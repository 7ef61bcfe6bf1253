package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"golang.org/x/sync/errgroup"
)

var errNotInitialized = errors.New("browser session not initialized")

// ChromeOptions configures a Chrome session.
type ChromeOptions struct {
	Headless          bool
	UserAgent         string
	ExecPath          string        // empty means look up Chrome on PATH
	NoSandbox         bool          // required when running as root in containers
	NavigationTimeout time.Duration // per-navigation timeout (default 30s)
}

// Chrome is a Session backed by a local Chrome/Chromium driven over the
// DevTools protocol.
type Chrome struct {
	opts ChromeOptions

	mu          sync.Mutex
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	closed      bool
}

// NewChrome creates an uninitialized Chrome session.
func NewChrome(opts ChromeOptions) *Chrome {
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = 30 * time.Second
	}
	return &Chrome{opts: opts}
}

// ChromeFactory returns a Factory producing Chrome sessions with opts.
func ChromeFactory(opts ChromeOptions) Factory {
	return func() Session { return NewChrome(opts) }
}

// Initialize launches the browser and opens the page.
func (c *Chrome) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errors.New("browser session already closed")
	}
	if c.tabCtx != nil {
		return nil
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", c.opts.Headless),
		chromedp.WindowSize(1920, 1080),
	)
	if c.opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(c.opts.UserAgent))
	}
	if c.opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(c.opts.ExecPath))
	}
	if c.opts.NoSandbox {
		allocOpts = append(allocOpts, chromedp.NoSandbox)
	}

	// The browser must outlive any deadline on ctx; it is torn down by Close.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	// The first Run allocates the browser.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return fmt.Errorf("start chrome: %w", err)
	}

	c.allocCancel = allocCancel
	c.tabCtx = tabCtx
	c.tabCancel = tabCancel
	return nil
}

// opContext derives a context from the tab that also honors ctx's
// cancellation and deadline.
func (c *Chrome) opContext(ctx context.Context) (context.Context, context.CancelFunc, error) {
	c.mu.Lock()
	tab := c.tabCtx
	closed := c.closed
	c.mu.Unlock()

	if closed || tab == nil {
		return nil, nil, errNotInitialized
	}

	opCtx, cancel := context.WithCancel(tab)
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		opCtx, cancelDeadline = context.WithDeadline(opCtx, deadline)
		prev := cancel
		cancel = func() { cancelDeadline(); prev() }
	}
	stop := context.AfterFunc(ctx, cancel)
	return opCtx, func() { stop(); cancel() }, nil
}

// NavigateTo loads url and reports the main-document status.
func (c *Chrome) NavigateTo(ctx context.Context, url string) (Navigation, error) {
	opCtx, cancel, err := c.opContext(ctx)
	if err != nil {
		return Navigation{}, err
	}
	defer cancel()

	navCtx, cancelNav := context.WithTimeout(opCtx, c.opts.NavigationTimeout)
	defer cancelNav()

	resp, err := chromedp.RunResponse(navCtx, chromedp.Navigate(url))
	if err != nil {
		return Navigation{}, fmt.Errorf("navigate to %s: %w", url, err)
	}
	if resp == nil {
		return NewNavigation(0), nil
	}
	return NewNavigation(int(resp.Status)), nil
}

// SetViewport emulates a viewport of the given size.
func (c *Chrome) SetViewport(ctx context.Context, width, height int) error {
	opCtx, cancel, err := c.opContext(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	if err := chromedp.Run(opCtx, chromedp.EmulateViewport(int64(width), int64(height))); err != nil {
		return fmt.Errorf("set viewport %dx%d: %w", width, height, err)
	}
	return nil
}

// TakeScreenshot writes a PNG of the current viewport to path.
func (c *Chrome) TakeScreenshot(ctx context.Context, path string) error {
	opCtx, cancel, err := c.opContext(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	var buf []byte
	if err := chromedp.Run(opCtx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return fmt.Errorf("capture screenshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create screenshot dir: %w", err)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil { //nolint:gosec // screenshots are meant to be shared
		return fmt.Errorf("write screenshot: %w", err)
	}
	return nil
}

// Evaluate invokes script with args in the page and decodes the result into out.
// A nil out discards the result.
func (c *Chrome) Evaluate(ctx context.Context, script Script, out any, args ...any) error {
	expr, err := BuildExpression(script, args...)
	if err != nil {
		return &EvalError{Script: script.Name, Err: err}
	}

	opCtx, cancel, err := c.opContext(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	if out == nil {
		var discard any
		out = &discard
	}
	awaitPromise := func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
		return p.WithAwaitPromise(true)
	}
	if err := chromedp.Run(opCtx, chromedp.Evaluate(expr, out, awaitPromise)); err != nil {
		return &EvalError{Script: script.Name, Err: err}
	}
	return nil
}

// DisableCache turns off the browser HTTP cache.
func (c *Chrome) DisableCache(ctx context.Context) error {
	opCtx, cancel, err := c.opContext(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	if err := chromedp.Run(opCtx, network.Enable(), network.SetCacheDisabled(true)); err != nil {
		return fmt.Errorf("disable cache: %w", err)
	}
	return nil
}

// Reload reloads the page bypassing the cache and blocks until the load
// event fires or ctx expires.
func (c *Chrome) Reload(ctx context.Context) error {
	opCtx, cancel, err := c.opContext(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	loaded := make(chan struct{})
	var once sync.Once
	listenCtx, stopListening := context.WithCancel(opCtx)
	defer stopListening()
	chromedp.ListenTarget(listenCtx, func(ev any) {
		if _, ok := ev.(*page.EventLoadEventFired); ok {
			once.Do(func() { close(loaded) })
		}
	})

	g, groupCtx := errgroup.WithContext(opCtx)
	g.Go(func() error {
		if err := chromedp.Run(groupCtx, page.Reload().WithIgnoreCache(true)); err != nil {
			return fmt.Errorf("reload: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		select {
		case <-loaded:
			return nil
		case <-groupCtx.Done():
			return fmt.Errorf("wait for load event: %w", groupCtx.Err())
		}
	})
	return g.Wait()
}

// Close shuts the browser down. Safe to call multiple times and before Initialize.
func (c *Chrome) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	var errs []error
	if c.tabCtx != nil {
		if err := chromedp.Cancel(c.tabCtx); err != nil && !errors.Is(err, context.Canceled) {
			errs = append(errs, fmt.Errorf("close tab: %w", err))
		}
		c.tabCancel()
		c.tabCtx = nil
	}
	if c.allocCancel != nil {
		c.allocCancel()
		c.allocCancel = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close chrome: %w", errors.Join(errs...))
	}
	return nil
}

// BuildExpression renders a call of script with JSON-encoded args.
func BuildExpression(script Script, args ...any) (string, error) {
	encoded := make([]string, 0, len(args))
	for i, arg := range args {
		b, err := json.Marshal(arg)
		if err != nil {
			return "", fmt.Errorf("encode argument %d: %w", i, err)
		}
		encoded = append(encoded, string(b))
	}
	return fmt.Sprintf("(%s)(%s)", strings.TrimSpace(script.Source), strings.Join(encoded, ", ")), nil
}
