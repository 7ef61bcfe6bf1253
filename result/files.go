package result

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/lukemcguire/webprobe/urlutil"
)

// Report formats.
const (
	FormatConsole = "console"
	FormatHTML    = "html"
	FormatJSON    = "json"
	FormatCSV     = "csv"
)

var fileWriters = map[string]func(io.Writer, *RunResult) error{
	FormatHTML: WriteHTML,
	FormatJSON: WriteJSON,
	FormatCSV:  WriteCSV,
}

// ReportBaseName returns the file name stem for a run's reports:
// host slug plus timestamp, unique per URL and run.
func ReportBaseName(res *RunResult) string {
	return fmt.Sprintf("%s-%s", urlutil.Slug(res.URL), res.Timestamp.UTC().Format("20060102T150405.000Z"))
}

// WriteReports writes one file per enabled file format into dir and returns
// the written paths. The console format is ignored here; callers render it.
func WriteReports(dir string, formats []string, res *RunResult) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}

	base := ReportBaseName(res)
	var paths []string
	var errs []error
	for _, format := range formats {
		write, ok := fileWriters[format]
		if !ok {
			continue
		}
		path := filepath.Join(dir, base+"."+format)
		if err := writeFile(path, write, res); err != nil {
			errs = append(errs, err)
			continue
		}
		paths = append(paths, path)
	}

	if len(errs) > 0 {
		return paths, fmt.Errorf("write reports: %w", errors.Join(errs...))
	}
	return paths, nil
}

func writeFile(path string, write func(io.Writer, *RunResult) error, res *RunResult) (err error) {
	f, err := os.Create(path) //nolint:gosec // report path is built from a sanitized slug
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()

	if err := write(f, res); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
