// Package inspect holds the scripts evaluated inside the page and the Go
// shapes of what they return. Every script is a pure query over the live
// DOM: it takes JSON arguments, returns JSON, and keeps no state in the page
// except the accessibility engine it may inject.
package inspect

import (
	"embed"
	"strings"

	"github.com/lukemcguire/webprobe/browser"
)

//go:embed js/*.js
var sources embed.FS

func mustLoad(name string) browser.Script {
	data, err := sources.ReadFile("js/" + name + ".js")
	if err != nil {
		panic("inspect: missing script " + name)
	}
	return browser.Script{Name: strings.ReplaceAll(name, "_", "-"), Source: string(data)}
}

// Scripts. Arguments are listed in call order.
var (
	// Count(selector) int
	Count = mustLoad("count")
	// Controls(selector, limit, scope, forms) []Control; limit 0 means all,
	// empty scope means document, forms marks controls inside a matching form.
	Controls = mustLoad("controls")
	// Document() string: serialized documentElement.
	Document = mustLoad("document")
	// TimingsScript() Timings
	TimingsScript = mustLoad("timings")
	// Resources() []Resource
	Resources = mustLoad("resources")
	// LayoutScript(minSize, tolerance, minFontSize, limit) Layout
	LayoutScript = mustLoad("layout")
	// AxePresent() bool
	AxePresent = mustLoad("axe_present")
	// AxeLoad(src) bool: injects a script tag and resolves once it loads.
	AxeLoad = mustLoad("axe_load")
	// AxeInline(source) bool
	AxeInline = mustLoad("axe_inline")
	// AxeRun() AxeResults
	AxeRun = mustLoad("axe_run")
)

// Control is an interactive element as seen by the functional checks.
type Control struct {
	Selector    string `json:"selector"`
	HTML        string `json:"html"`
	ID          string `json:"id"`
	Text        string `json:"text"`
	Placeholder string `json:"placeholder"`
	HasLabel    bool   `json:"hasLabel"`
	Required    bool   `json:"required"`
	InForm      bool   `json:"inForm"`
	Clickable   bool   `json:"clickable"`
}

// Timings are navigation and paint marks in milliseconds from the page's time origin.
type Timings struct {
	NavigationStart      float64 `json:"navigationStart"`
	DOMContentLoaded     float64 `json:"domContentLoaded"`
	FirstPaint           float64 `json:"firstPaint"`
	FirstContentfulPaint float64 `json:"firstContentfulPaint"`
	LoadEventEnd         float64 `json:"loadEventEnd"`
}

// Resource is one resource timing entry.
type Resource struct {
	Name          string  `json:"name"`
	Duration      float64 `json:"duration"`
	TransferSize  int64   `json:"transferSize"`
	InitiatorType string  `json:"initiatorType"`
}

// Overflow is an element extending past the viewport.
type Overflow struct {
	Selector string  `json:"selector"`
	HTML     string  `json:"html"`
	Right    float64 `json:"right"`
	Bottom   float64 `json:"bottom"`
	Amount   float64 `json:"amount"`
}

// SmallText is a text element rendered below the minimum font size.
type SmallText struct {
	Selector string  `json:"selector"`
	Text     string  `json:"text"`
	FontSize float64 `json:"fontSize"`
}

// Overlap is an interactive element whose centre is covered by another element.
type Overlap struct {
	Selector  string `json:"selector"`
	CoveredBy string `json:"coveredBy"`
}

// Layout is the result of one responsive inspection.
type Layout struct {
	ViewportWidth         float64     `json:"viewportWidth"`
	ViewportHeight        float64     `json:"viewportHeight"`
	DocumentWidth         float64     `json:"documentWidth"`
	HasHorizontalOverflow bool        `json:"hasHorizontalOverflow"`
	OverflowingElements   []Overflow  `json:"overflowingElements"`
	SmallText             []SmallText `json:"smallText"`
	OverlappingElements   []Overlap   `json:"overlappingElements"`
}

// AxeNode is one DOM node affected by an accessibility rule.
type AxeNode struct {
	HTML   string `json:"html"`
	Target string `json:"target"`
}

// AxeRule is one rule outcome reported by axe-core.
type AxeRule struct {
	ID          string    `json:"id"`
	Impact      string    `json:"impact"`
	Description string    `json:"description"`
	Help        string    `json:"help"`
	HelpURL     string    `json:"helpUrl"`
	Nodes       []AxeNode `json:"nodes"`
}

// AxeResults holds the rule outcomes the accessibility phase consumes.
type AxeResults struct {
	Violations []AxeRule `json:"violations"`
	Incomplete []AxeRule `json:"incomplete"`
}
