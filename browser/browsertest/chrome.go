package browsertest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/lukemcguire/webprobe/browser"
)

var chromeNames = []string{
	"headless-shell",
	"headless_shell",
	"chromium",
	"chromium-browser",
	"google-chrome",
	"google-chrome-stable",
}

// ChromePath returns the first Chrome binary found on PATH, or "".
func ChromePath() string {
	for _, name := range chromeNames {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}

// ServePage starts a real headless Chrome, serves markup from an httptest
// server and navigates to it. The test is skipped when -short is set or
// no Chrome binary is installed. Browser and server are torn down on cleanup.
func ServePage(t testing.TB, markup string) *browser.Chrome {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	path := ChromePath()
	if path == "" {
		t.Skip("no Chrome binary on PATH")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(markup))
	}))
	t.Cleanup(srv.Close)

	c := browser.NewChrome(browser.ChromeOptions{
		Headless:          true,
		ExecPath:          path,
		NoSandbox:         os.Geteuid() == 0,
		NavigationTimeout: 20 * time.Second,
	})
	t.Cleanup(func() { _ = c.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := c.Initialize(ctx); err != nil {
		t.Skipf("chrome did not start: %v", err)
	}
	nav, err := c.NavigateTo(ctx, srv.URL)
	if err != nil {
		t.Fatalf("navigate to test page: %v", err)
	}
	if !nav.Succeeded {
		t.Fatalf("test page returned HTTP %d", nav.StatusCode)
	}
	return c
}
