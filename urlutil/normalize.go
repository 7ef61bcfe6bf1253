package urlutil

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Normalize takes a raw URL string and returns a normalized version.
// Normalization includes:
// - Lowercasing the scheme and host
// - Stripping fragments (#section)
// - Stripping trailing slashes (except for root path "/")
// - Preserving query parameters
//
// Returns an error if the input is empty or cannot be parsed as a valid URL.
func Normalize(rawURL string) (string, error) {
	// Empty input never names a page
	if rawURL == "" {
		return "", errors.New("cannot normalize empty URL")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("normalize URL %q: %w", rawURL, err)
	}

	// A dedup key is only meaningful for absolute URLs
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", errors.New("URL must have both scheme and host")
	}

	// Scheme and host are case-insensitive
	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)

	// Fragments address the same document
	parsed.Fragment = ""

	// "/a/" and "/a" are the same page; the root path keeps its slash
	if parsed.Path != "/" && strings.HasSuffix(parsed.Path, "/") {
		parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	}

	return parsed.String(), nil
}

// Validate checks that rawURL is a well-formed absolute http(s) URL and
// returns it parsed. Other schemes (file, ftp, data) are rejected: the
// phases and the robots gate only make sense for pages served over HTTP.
// Fragments and paths are left untouched; the browser navigates to exactly
// what the caller asked for.
func Validate(rawURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return nil, errors.New("URL is empty")
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse URL %q: %w", trimmed, err)
	}
	if !parsed.IsAbs() || parsed.Host == "" {
		return nil, fmt.Errorf("URL %q must be absolute", trimmed)
	}
	if !IsHTTPScheme(trimmed) {
		return nil, fmt.Errorf("URL %q must start with http:// or https://", trimmed)
	}
	return parsed, nil
}
