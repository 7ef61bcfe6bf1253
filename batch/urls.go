// Package batch runs the test pipeline over a list of URLs, one page at a
// time, pacing page loads and skipping pages already tested.
package batch

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lukemcguire/webprobe/urlutil"
)

// Entry is one line of a batch file.
type Entry struct {
	Line int
	URL  string // as written, trimmed
	Key  string // normalized form used for de-duplication; empty if URL is invalid
}

// LoadFile reads a batch file. See ParseURLs.
func LoadFile(path string) ([]Entry, error) {
	f, err := os.Open(path) //nolint:gosec // path is a user-supplied batch file
	if err != nil {
		return nil, fmt.Errorf("open batch file: %w", err)
	}
	defer f.Close()
	return ParseURLs(f)
}

// ParseURLs reads one URL per line. Blank lines and lines starting with #
// are skipped. Invalid URLs are kept so the run reports them; their Key is empty.
func ParseURLs(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		entry := Entry{Line: line, URL: text}
		if _, err := urlutil.Validate(text); err == nil {
			if key, err := urlutil.Normalize(text); err == nil {
				entry.Key = key
			}
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read batch file line %d: %w", line+1, err)
	}
	return entries, nil
}
