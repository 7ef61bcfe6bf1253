package phase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/lukemcguire/webprobe/browser/browsertest"
	"github.com/lukemcguire/webprobe/result"
)

func TestFunctional_InBrowser_FormWithoutSubmit(t *testing.T) {
	c := browsertest.ServePage(t, `<!doctype html>
<html><body>
  <nav><a href="/">Home</a></nav>
  <form id="signup"><input type="email" id="email" required></form>
</body></html>`)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	res, err := NewFunctional(testConfig(), nil).Run(ctx, c, "")
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	want := []string{"Form Missing Submit", "Input Missing Label"}
	got := issueTypes(res.Issues)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("issue types = %v, want %v", got, want)
	}
	if res.Success {
		t.Error("Success = true, want false")
	}
}

func TestResponsive_InBrowser_FixedWidthLayout(t *testing.T) {
	c := browsertest.ServePage(t, `<!doctype html>
<html><body><div style="width:1200px;height:40px">fixed</div></body></html>`)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	res, err := NewResponsive(testConfig(), nil).Run(ctx, c, "")
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	horizontal := make(map[string]int)
	for _, issue := range res.Issues {
		if issue.Type == "Horizontal Overflow" {
			if issue.Severity != result.SeverityError {
				t.Errorf("Horizontal Overflow severity = %s", issue.Severity)
			}
			name, _, _ := strings.Cut(issue.Location, " ")
			horizontal[name]++
		}
	}
	want := map[string]int{"Mobile": 1, "Tablet": 1}
	for _, vp := range []string{"Desktop", "Laptop", "Tablet", "Mobile"} {
		if horizontal[vp] != want[vp] {
			t.Errorf("%s horizontal overflow issues = %d, want %d", vp, horizontal[vp], want[vp])
		}
	}
	if res.Success {
		t.Error("Success = true, want false")
	}
}
