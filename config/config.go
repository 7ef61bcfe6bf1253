// Package config holds the run configuration. A Config is built once per
// invocation (defaults overlaid with an optional YAML file and CLI flags) and
// passed by value to every component; nothing reads configuration globally.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/lukemcguire/webprobe/result"
)

// DefaultAxeSource is the axe-core build injected when no local copy is configured.
const DefaultAxeSource = "https://cdnjs.cloudflare.com/ajax/libs/axe-core/4.10.2/axe.min.js"

// DefaultUserAgent identifies webprobe to robots.txt.
const DefaultUserAgent = "webprobe/1.0 (+https://github.com/lukemcguire/webprobe)"

// Viewport is one screen size the responsive phase renders the page at.
type Viewport struct {
	Name   string `json:"name" yaml:"name" jsonschema:"required"`
	Width  int    `json:"width" yaml:"width" jsonschema:"required,minimum=1"`
	Height int    `json:"height" yaml:"height" jsonschema:"required,minimum=1"`
}

// Selectors are the CSS selectors the functional phase inspects.
type Selectors struct {
	Navigation string `json:"navigation,omitempty" yaml:"navigation,omitempty"`
	Buttons    string `json:"buttons,omitempty" yaml:"buttons,omitempty"`
	Forms      string `json:"forms,omitempty" yaml:"forms,omitempty"`
	Links      string `json:"links,omitempty" yaml:"links,omitempty"`
	Images     string `json:"images,omitempty" yaml:"images,omitempty"`
	Inputs     string `json:"inputs,omitempty" yaml:"inputs,omitempty"`
}

// Budgets are the performance limits that raise warnings when exceeded.
type Budgets struct {
	LoadTime             float64 `json:"loadTime,omitempty" yaml:"loadTime,omitempty" jsonschema:"minimum=0"`                         // ms
	FirstContentfulPaint float64 `json:"firstContentfulPaint,omitempty" yaml:"firstContentfulPaint,omitempty" jsonschema:"minimum=0"` // ms
	TotalSize            int64   `json:"totalSize,omitempty" yaml:"totalSize,omitempty" jsonschema:"minimum=0"`                       // bytes
	Resources            int     `json:"resources,omitempty" yaml:"resources,omitempty" jsonschema:"minimum=0"`
}

// Config holds the complete run configuration. Durations are milliseconds
// so the YAML file and the JSON Schema stay plain numbers.
type Config struct {
	Viewports          []Viewport    `json:"viewports,omitempty" yaml:"viewports,omitempty" jsonschema:"minItems=1"`
	NavigationTimeout  int           `json:"navigationTimeout,omitempty" yaml:"navigationTimeout,omitempty" jsonschema:"minimum=1"`
	ElementTimeout     int           `json:"elementTimeout,omitempty" yaml:"elementTimeout,omitempty" jsonschema:"minimum=1"`
	PerformanceTimeout int           `json:"performanceTimeout,omitempty" yaml:"performanceTimeout,omitempty" jsonschema:"minimum=1"`
	SettleDelay        int           `json:"settleDelay,omitempty" yaml:"settleDelay,omitempty" jsonschema:"minimum=0"`
	Thresholds         result.Scores `json:"thresholds,omitempty" yaml:"thresholds,omitempty"`
	Budgets            Budgets       `json:"budgets,omitempty" yaml:"budgets,omitempty"`
	Selectors          Selectors     `json:"selectors,omitempty" yaml:"selectors,omitempty"`
	OutputDir          string        `json:"outputDir,omitempty" yaml:"outputDir,omitempty"`
	Formats            []string      `json:"formats,omitempty" yaml:"formats,omitempty"`
	Screenshots        bool          `json:"screenshots,omitempty" yaml:"screenshots,omitempty"`
	IncludeWarnings    bool          `json:"includeWarnings,omitempty" yaml:"includeWarnings,omitempty"`
	AxeSource          string        `json:"axeSource,omitempty" yaml:"axeSource,omitempty"`
	Headless           bool          `json:"headless,omitempty" yaml:"headless,omitempty"`
	RespectRobots      bool          `json:"respectRobots,omitempty" yaml:"respectRobots,omitempty"`
	UserAgent          string        `json:"userAgent,omitempty" yaml:"userAgent,omitempty"`
	Retries            int           `json:"retries,omitempty" yaml:"retries,omitempty" jsonschema:"minimum=0,maximum=10"`
	RetryDelay         int           `json:"retryDelay,omitempty" yaml:"retryDelay,omitempty" jsonschema:"minimum=0"`
	BatchRate          float64       `json:"batchRate,omitempty" yaml:"batchRate,omitempty" jsonschema:"minimum=0"` // page loads per second
}

// DefaultViewports returns the four preset viewports.
func DefaultViewports() []Viewport {
	return []Viewport{
		{Name: "Desktop", Width: 1920, Height: 1080},
		{Name: "Laptop", Width: 1366, Height: 768},
		{Name: "Tablet", Width: 768, Height: 1024},
		{Name: "Mobile", Width: 375, Height: 667},
	}
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Viewports:          DefaultViewports(),
		NavigationTimeout:  30000,
		ElementTimeout:     5000,
		PerformanceTimeout: 60000,
		SettleDelay:        1000,
		Thresholds: result.Scores{
			Performance:   0.7,
			Accessibility: 0.9,
			BestPractices: 0.9,
			SEO:           0.8,
		},
		Budgets: Budgets{
			LoadTime:             3000,
			FirstContentfulPaint: 2000,
			TotalSize:            3 * 1024 * 1024,
			Resources:            80,
		},
		Selectors: Selectors{
			Navigation: "nav, [role='navigation']",
			Buttons:    "button, [role='button'], input[type='button'], input[type='submit']",
			Forms:      "form",
			Links:      "a[href]",
			Images:     "img",
			Inputs:     "input:not([type='hidden']), textarea, select",
		},
		OutputDir:       "reports",
		Formats:         []string{result.FormatConsole, result.FormatHTML, result.FormatJSON},
		Screenshots:     false,
		IncludeWarnings: true,
		AxeSource:       DefaultAxeSource,
		Headless:        true,
		UserAgent:       DefaultUserAgent,
		Retries:         0,
		RetryDelay:      1000,
		BatchRate:       0.5,
	}
}

// NavigationTimeoutDuration returns the per-navigation timeout.
func (c Config) NavigationTimeoutDuration() time.Duration {
	return time.Duration(c.NavigationTimeout) * time.Millisecond
}

// ElementTimeoutDuration returns the timeout bounding each in-page evaluation.
func (c Config) ElementTimeoutDuration() time.Duration {
	return time.Duration(c.ElementTimeout) * time.Millisecond
}

// PerformanceTimeoutDuration returns the performance measurement window.
func (c Config) PerformanceTimeoutDuration() time.Duration {
	return time.Duration(c.PerformanceTimeout) * time.Millisecond
}

// SettleDelayDuration returns the wait after a viewport resize.
func (c Config) SettleDelayDuration() time.Duration {
	return time.Duration(c.SettleDelay) * time.Millisecond
}

// RetryDelayDuration returns the base backoff between navigation attempts.
func (c Config) RetryDelayDuration() time.Duration {
	return time.Duration(c.RetryDelay) * time.Millisecond
}

// HasFormat reports whether the given report format is enabled.
func (c Config) HasFormat(format string) bool {
	for _, f := range c.Formats {
		if f == format {
			return true
		}
	}
	return false
}

// Validate checks semantic constraints the schema cannot express.
func (c Config) Validate() error {
	var errs []error
	if len(c.Viewports) == 0 {
		errs = append(errs, errors.New("at least one viewport is required"))
	}
	seen := make(map[string]bool, len(c.Viewports))
	for i, vp := range c.Viewports {
		if vp.Name == "" {
			errs = append(errs, fmt.Errorf("viewport %d: name is required", i))
		}
		if vp.Width <= 0 || vp.Height <= 0 {
			errs = append(errs, fmt.Errorf("viewport %q: width and height must be positive", vp.Name))
		}
		if seen[vp.Name] {
			errs = append(errs, fmt.Errorf("viewport %q: duplicate name", vp.Name))
		}
		seen[vp.Name] = true
	}
	if c.NavigationTimeout <= 0 || c.ElementTimeout <= 0 || c.PerformanceTimeout <= 0 {
		errs = append(errs, errors.New("timeouts must be positive"))
	}
	for _, cat := range result.ScoreCategories {
		if v := c.Thresholds.Get(cat); v < 0 || v > 1 {
			errs = append(errs, fmt.Errorf("threshold %s = %v: must be within [0,1]", cat, v))
		}
	}
	for _, f := range c.Formats {
		switch f {
		case result.FormatConsole, result.FormatHTML, result.FormatJSON, result.FormatCSV:
		default:
			errs = append(errs, fmt.Errorf("unknown report format %q", f))
		}
	}
	if c.Retries < 0 {
		errs = append(errs, errors.New("retries must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
