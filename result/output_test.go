package result

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func sampleResult() *RunResult {
	details := map[string]PhaseResult{
		PhaseFunctional: {
			Success: false,
			Issues: []Issue{
				{Type: "Form Missing Submit", Description: "Form has no submit button", Severity: SeverityError, Location: "form#signup"},
			},
		},
		PhaseResponsive:  {Success: true, Issues: []Issue{}},
		PhasePerformance: {Success: true, Issues: []Issue{}},
		PhaseAccessibility: {
			Success: true,
			Issues: []Issue{
				{
					Type:        "Accessibility warning: color-contrast",
					Description: "Elements must have sufficient color contrast",
					Severity:    SeverityWarning,
					Elements:    []Element{{HTML: "<p class=\"note\">x</p>"}},
				},
			},
		},
	}
	issues := CollectIssues(details)
	return &RunResult{
		URL:         "https://example.com/?q=a&b=c",
		Timestamp:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Success:     len(issues) == 0,
		Summary:     NewSummary(details),
		Performance: Scores{Performance: 0.75, Accessibility: 0.9, BestPractices: 0.85, SEO: 0.85},
		Issues:      issues,
		Details:     details,
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleResult()); err != nil {
		t.Fatalf("WriteJSON returned error: %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}

	for _, key := range []string{"url", "timestamp", "summary", "performance", "issues", "details"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("Expected %q field in JSON output", key)
		}
	}

	perf, ok := raw["performance"].(map[string]interface{})
	if !ok {
		t.Fatalf("performance is %T, want object", raw["performance"])
	}
	if _, ok := perf["best-practices"]; !ok {
		t.Error("Expected 'best-practices' key in performance scores")
	}

	details, ok := raw["details"].(map[string]interface{})
	if !ok {
		t.Fatalf("details is %T, want object", raw["details"])
	}
	for _, phase := range PhaseOrder {
		if _, ok := details[phase]; !ok {
			t.Errorf("Expected %q in details", phase)
		}
	}

	summary := raw["summary"].(map[string]interface{})
	if summary["totalTests"] != float64(4) {
		t.Errorf("totalTests = %v, want 4", summary["totalTests"])
	}

	// URLs are not HTML-escaped
	if !strings.Contains(buf.String(), "https://example.com/?q=a&b=c") {
		t.Error("URLs should not be HTML-escaped")
	}
}

func TestWriteJSON_TerminalErrorOmitsDetails(t *testing.T) {
	res := &RunResult{
		URL:     "https://example.com",
		Error:   "navigation failed: HTTP 404",
		Summary: NewSummary(nil),
		Issues:  []Issue{},
	}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, res); err != nil {
		t.Fatalf("WriteJSON returned error: %v", err)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if _, ok := raw["details"]; ok {
		t.Error("details should be omitted for a terminal error")
	}
	if raw["error"] != "navigation failed: HTTP 404" {
		t.Errorf("error = %v", raw["error"])
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleResult()); err != nil {
		t.Fatalf("WriteCSV returned error: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV output: %v", err)
	}

	if len(records) != 3 { // header + 2 issues
		t.Fatalf("Expected 3 records, got %d", len(records))
	}
	if records[0][0] != "url" || records[0][3] != "severity" {
		t.Errorf("unexpected header %v", records[0])
	}
	if records[1][1] != PhaseFunctional || records[1][2] != "Form Missing Submit" {
		t.Errorf("row 1 = %v", records[1])
	}
	if records[2][1] != PhaseAccessibility || records[2][7] != "1" {
		t.Errorf("row 2 = %v", records[2])
	}
}

func TestPrintResults(t *testing.T) {
	var buf bytes.Buffer
	PrintResults(&buf, sampleResult())
	got := buf.String()

	for _, want := range []string{
		"URL: https://example.com/?q=a&b=c",
		"[error] Form Missing Submit",
		"Location: form#signup",
		"Passed 3 of 4 tests, found 2 issues",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q\n%s", want, got)
		}
	}
}

func TestPrintResults_NoIssues(t *testing.T) {
	var buf bytes.Buffer
	PrintResults(&buf, &RunResult{URL: "https://example.com", Summary: TestSummary{TotalTests: 4, PassedTests: 4}})
	if !strings.Contains(buf.String(), "No issues found!") {
		t.Errorf("got %q", buf.String())
	}
}

func TestPrintResults_RunError(t *testing.T) {
	var buf bytes.Buffer
	PrintResults(&buf, &RunResult{URL: "https://example.com", Error: "navigation failed: HTTP 500"})
	want := "URL: https://example.com\nRun failed: navigation failed: HTTP 500\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHTML(&buf, sampleResult()); err != nil {
		t.Fatalf("WriteHTML returned error: %v", err)
	}
	got := buf.String()
	if !strings.Contains(got, "<!doctype html>") {
		t.Error("output should contain doctype")
	}
	if !strings.Contains(got, "Form Missing Submit") {
		t.Error("output should list issues")
	}
	// html/template escapes the snippet
	if strings.Contains(got, `<p class="note">x</p>`) {
		t.Error("element HTML must be escaped")
	}
}

func TestWriteReports(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	res := sampleResult()

	paths, err := WriteReports(dir, []string{FormatConsole, FormatJSON, FormatHTML, FormatCSV}, res)
	if err != nil {
		t.Fatalf("WriteReports returned error: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("expected 3 files, got %d: %v", len(paths), paths)
	}
	for _, p := range paths {
		if !strings.HasPrefix(filepath.Base(p), "example-com-20260102T030405.000Z.") {
			t.Errorf("unexpected file name %s", p)
		}
		if _, err := os.Stat(p); err != nil {
			t.Errorf("stat %s: %v", p, err)
		}
	}
}
