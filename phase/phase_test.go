package phase

import (
	"errors"
	"testing"

	"github.com/lukemcguire/webprobe/result"
)

func TestAllRunsInFixedOrder(t *testing.T) {
	phases := All(testConfig(), nil)
	if len(phases) != len(result.PhaseOrder) {
		t.Fatalf("got %d phases, want %d", len(phases), len(result.PhaseOrder))
	}
	for i, p := range phases {
		if p.Name() != result.PhaseOrder[i] {
			t.Errorf("phase %d = %s, want %s", i, p.Name(), result.PhaseOrder[i])
		}
	}
}

func TestFailed(t *testing.T) {
	pr := Failed(result.PhasePerformance, errors.New("reload page: timeout"))
	if pr.Success {
		t.Error("Success = true")
	}
	if len(pr.Issues) != 1 {
		t.Fatalf("got %d issues, want 1", len(pr.Issues))
	}
	issue := pr.Issues[0]
	if issue.Type != "Performance Test Error" {
		t.Errorf("Type = %q", issue.Type)
	}
	if issue.Severity != result.SeverityError || issue.Description != "reload page: timeout" {
		t.Errorf("issue = %+v", issue)
	}
	if pr.Error != "reload page: timeout" {
		t.Errorf("Error = %q", pr.Error)
	}
}

func TestTitle(t *testing.T) {
	tests := map[string]string{
		"functional":    "Functional",
		"accessibility": "Accessibility",
		"":              "",
	}
	for in, want := range tests {
		if got := Title(in); got != want {
			t.Errorf("Title(%q) = %q, want %q", in, got, want)
		}
	}
}
