package tester

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

const (
	robotsCacheTTL  = time.Hour
	robotsMaxBytes  = 512 * 1024
	robotsFetchTime = 5 * time.Second
)

// robotsEntry is a cached robots.txt. A nil group means allow everything.
type robotsEntry struct {
	data      *robotstxt.RobotsData
	fetchedAt time.Time
}

// RobotsChecker answers whether a page may be tested under the host's
// robots.txt. Rules are cached per scheme and host; any failure to fetch or
// parse them allows the page.
type RobotsChecker struct {
	client *http.Client
	ttl    time.Duration
	now    func() time.Time

	mu    sync.Mutex
	cache map[string]robotsEntry
}

// NewRobotsChecker creates a checker using client, or a short-timeout
// client when client is nil.
func NewRobotsChecker(client *http.Client) *RobotsChecker {
	if client == nil {
		client = &http.Client{Timeout: robotsFetchTime}
	}
	return &RobotsChecker{
		client: client,
		ttl:    robotsCacheTTL,
		now:    time.Now,
		cache:  make(map[string]robotsEntry),
	}
}

// Allowed reports whether userAgent may fetch pageURL. The returned error
// describes why rules could not be loaded; allowed is true in that case.
func (r *RobotsChecker) Allowed(ctx context.Context, pageURL *url.URL, userAgent string) (bool, error) {
	if pageURL.Host == "" {
		return true, nil
	}
	origin := pageURL.Scheme + "://" + pageURL.Host

	data, err := r.rules(ctx, origin)
	if data == nil {
		return true, err
	}

	path := pageURL.EscapedPath()
	if path == "" {
		path = "/"
	}
	if pageURL.RawQuery != "" {
		path += "?" + pageURL.RawQuery
	}
	return data.TestAgent(path, userAgent), err
}

func (r *RobotsChecker) rules(ctx context.Context, origin string) (*robotstxt.RobotsData, error) {
	r.mu.Lock()
	entry, ok := r.cache[origin]
	r.mu.Unlock()
	if ok && r.now().Sub(entry.fetchedAt) < r.ttl {
		return entry.data, nil
	}

	data, err := r.fetch(ctx, origin)
	r.mu.Lock()
	r.cache[origin] = robotsEntry{data: data, fetchedAt: r.now()}
	r.mu.Unlock()
	return data, err
}

func (r *RobotsChecker) fetch(ctx context.Context, origin string) (*robotstxt.RobotsData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return nil, fmt.Errorf("build robots.txt request for %s: %w", origin, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt for %s: %w", origin, err)
	}
	defer resp.Body.Close()

	// Missing or broken robots.txt means no restrictions.
	if resp.StatusCode == http.StatusNotFound || resp.StatusCode >= 500 {
		return nil, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, robotsMaxBytes))
	if err != nil {
		return nil, fmt.Errorf("read robots.txt for %s: %w", origin, err)
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt for %s: %w", origin, err)
	}
	return data, nil
}

// ClearCache drops all cached rules.
func (r *RobotsChecker) ClearCache() {
	r.mu.Lock()
	r.cache = make(map[string]robotsEntry)
	r.mu.Unlock()
}
