package result

import (
	"fmt"
	"io"
)

// PrintResults writes issue details and a summary to w as plain text.
func PrintResults(w io.Writer, res *RunResult) {
	writef := func(format string, a ...any) { _, _ = fmt.Fprintf(w, format, a...) }

	writef("URL: %s\n", res.URL)
	if res.Error != "" {
		writef("Run failed: %s\n", res.Error)
		return
	}

	if len(res.Issues) == 0 {
		writef("No issues found!\n")
	} else {
		writef("Issues:\n")
		for i, issue := range res.Issues {
			writef("  [%s] %s\n", issue.Severity, issue.Type)
			writef("  %s\n", issue.Description)
			if issue.Location != "" {
				writef("  Location: %s\n", issue.Location)
			}
			if issue.Suggestion != "" {
				writef("  Suggestion: %s\n", issue.Suggestion)
			}
			if i < len(res.Issues)-1 {
				writef("\n")
			}
		}
	}

	writef("Scores: performance %.2f, accessibility %.2f, best-practices %.2f, seo %.2f\n",
		res.Performance.Performance, res.Performance.Accessibility,
		res.Performance.BestPractices, res.Performance.SEO)
	writef("Passed %d of %d tests, found %d issues\n",
		res.Summary.PassedTests, res.Summary.TotalTests, len(res.Issues))
}
