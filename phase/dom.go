package phase

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/lukemcguire/webprobe/browser"
	"github.com/lukemcguire/webprobe/inspect"
	"github.com/lukemcguire/webprobe/result"
)

const (
	submitSelector   = `button[type="submit"], input[type="submit"], input[type="image"], button:not([type])`
	requiredSelector = "input[required], select[required], textarea[required]"
	snippetLength    = 200
)

var voidHref = regexp.MustCompile(`^javascript:\s*(void\s*\(?\s*0\s*\)?)?\s*;?$`)

// snapshot parses the live DOM serialization. It returns nil when the page
// cannot be read, which makes the form and link checks report nothing.
func (f *Functional) snapshot(ctx context.Context, s browser.Session) *goquery.Document {
	var markup string
	if err := evaluate(ctx, s, f.cfg.ElementTimeoutDuration(), inspect.Document, &markup); err != nil {
		f.logger.Warn("read document failed", "error", err)
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		f.logger.Warn("parse document failed", "error", err)
		return nil
	}
	return doc
}

func checkForms(doc *goquery.Document, selector string) []result.Issue {
	if doc == nil || selector == "" {
		return nil
	}

	labelled := make(map[string]bool)
	doc.Find("label[for]").Each(func(_ int, label *goquery.Selection) {
		if id, ok := label.Attr("for"); ok && id != "" {
			labelled[id] = true
		}
	})

	var issues []result.Issue
	doc.Find(selector).Each(func(i int, form *goquery.Selection) {
		where := describe(form, i)
		if form.Find(submitSelector).Length() == 0 {
			issues = append(issues, result.Issue{
				Type:        "Form Missing Submit",
				Description: fmt.Sprintf("Form %s has no submit control", where),
				Severity:    result.SeverityError,
				Location:    where,
				Suggestion:  `Add a <button type="submit"> so the form can be submitted without scripts`,
				Elements:    []result.Element{{Selector: where, HTML: snippet(form)}},
			})
		}

		form.Find(requiredSelector).Each(func(j int, input *goquery.Selection) {
			id, _ := input.Attr("id")
			if id != "" && labelled[id] {
				return
			}
			field := describe(input, j)
			issues = append(issues, result.Issue{
				Type:        "Input Missing Label",
				Description: fmt.Sprintf("Required field %s in form %s has no associated label", field, where),
				Severity:    result.SeverityWarning,
				Location:    field,
				Suggestion:  `Give the field an id and add <label for="id">`,
				Elements:    []result.Element{{Selector: field, HTML: snippet(input)}},
			})
		})
	})
	return issues
}

type hrefKind int

const (
	hrefNormal hrefKind = iota
	hrefEmpty
	hrefScript
)

func classifyHref(href string) hrefKind {
	h := strings.ToLower(strings.TrimSpace(href))
	switch {
	case h == "" || h == "#":
		return hrefEmpty
	case voidHref.MatchString(h):
		return hrefEmpty
	case strings.HasPrefix(h, "javascript:"):
		return hrefScript
	default:
		return hrefNormal
	}
}

func checkLinks(doc *goquery.Document, selector string) []result.Issue {
	if doc == nil || selector == "" {
		return nil
	}

	var empty, script []result.Element
	var missingText []result.Issue
	doc.Find(selector).Each(func(i int, link *goquery.Selection) {
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		where := describe(link, i)
		evidence := result.Element{Selector: where, HTML: snippet(link)}

		switch classifyHref(href) {
		case hrefEmpty:
			empty = append(empty, evidence)
		case hrefScript:
			script = append(script, evidence)
		}

		if accessibleText(link) == "" {
			missingText = append(missingText, result.Issue{
				Type:        "Link Missing Text",
				Description: fmt.Sprintf("Link %s to %q has no accessible text", where, href),
				Severity:    result.SeverityWarning,
				Location:    where,
				Suggestion:  "Add link text, an aria-label, or alt text on a linked image",
				Elements:    []result.Element{evidence},
			})
		}
	})

	var issues []result.Issue
	if len(empty) > 0 {
		issues = append(issues, result.Issue{
			Type:        "Empty Links",
			Description: fmt.Sprintf("%d links have an empty or placeholder href", len(empty)),
			Severity:    result.SeverityWarning,
			Suggestion:  "Point links at a real destination or use a <button> for in-page actions",
			Elements:    result.LimitElements(empty),
		})
	}
	if len(script) > 0 {
		issues = append(issues, result.Issue{
			Type:        "JavaScript Links",
			Description: fmt.Sprintf("%d links use a javascript: href", len(script)),
			Severity:    result.SeverityWarning,
			Suggestion:  "Attach behaviour with event listeners and keep href a real URL",
			Elements:    result.LimitElements(script),
		})
	}
	return append(issues, missingText...)
}

func accessibleText(sel *goquery.Selection) string {
	if t := strings.TrimSpace(sel.Text()); t != "" {
		return t
	}
	for _, attr := range []string{"aria-label", "title"} {
		if v, ok := sel.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	alt := ""
	sel.Find("img[alt]").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		alt = strings.TrimSpace(img.AttrOr("alt", ""))
		return alt == ""
	})
	return alt
}

// describe returns a short identifier for the first node of sel.
func describe(sel *goquery.Selection, index int) string {
	tag := goquery.NodeName(sel)
	if id, ok := sel.Attr("id"); ok && id != "" {
		return tag + "#" + id
	}
	if name, ok := sel.Attr("name"); ok && name != "" {
		return fmt.Sprintf("%s[name=%q]", tag, name)
	}
	return fmt.Sprintf("%s:nth(%d)", tag, index+1)
}

// snippet renders the opening of an element's outer HTML.
func snippet(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, sel.Get(0)); err != nil {
		return ""
	}
	out := buf.String()
	if len(out) <= snippetLength {
		return out
	}
	cut := snippetLength
	for cut > 0 && !utf8.RuneStart(out[cut]) {
		cut--
	}
	return out[:cut]
}
