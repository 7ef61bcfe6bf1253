package result

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// WriteJSON writes the run result as indented JSON to the writer.
func WriteJSON(w io.Writer, res *RunResult) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("write json output: %w", err)
	}
	return nil
}

// WriteCSV writes the run's issues as CSV to the writer.
// Always includes a header row, even if there are no issues.
// Column order: url, phase, type, severity, description, location, suggestion, elements
func WriteCSV(w io.Writer, res *RunResult) error {
	cw := csv.NewWriter(w)

	header := []string{"url", "phase", "type", "severity", "description", "location", "suggestion", "elements"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, phase := range PhaseOrder {
		for _, issue := range res.Details[phase].Issues {
			record := []string{
				res.URL,
				phase,
				issue.Type,
				string(issue.Severity),
				issue.Description,
				issue.Location,
				issue.Suggestion,
				strconv.Itoa(len(issue.Elements)),
			}
			if err := cw.Write(record); err != nil {
				return fmt.Errorf("write csv record for %s: %w", issue.Type, err)
			}
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv output: %w", err)
	}
	return nil
}
