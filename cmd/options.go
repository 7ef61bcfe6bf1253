package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/lukemcguire/webprobe/browser"
	"github.com/lukemcguire/webprobe/config"
)

// LogFileName is the log file written inside the output directory when --log is set.
const LogFileName = "webprobe.log"

// options holds the flags shared by the single-page and batch commands.
type options struct {
	configPath      string
	outputDir       string
	formats         []string
	screenshots     bool
	headless        bool
	respectRobots   bool
	includeWarnings bool
	userAgent       string
	axeSource       string
	retries         int
	retryDelay      time.Duration
	timeout         time.Duration
	noTUI           bool
	log             bool
}

func (o *options) addFlags(cmd *cobra.Command) {
	defaults := config.Default()
	flags := cmd.PersistentFlags()
	flags.StringVarP(&o.configPath, "config", "c", "", "YAML configuration file")
	flags.StringVarP(&o.outputDir, "output", "o", defaults.OutputDir, "directory for reports, screenshots and logs")
	flags.StringSliceVarP(&o.formats, "format", "f", defaults.Formats, "report formats (console, html, json, csv)")
	flags.BoolVar(&o.screenshots, "screenshots", defaults.Screenshots, "capture a screenshot per viewport")
	flags.BoolVar(&o.headless, "headless", defaults.Headless, "run the browser without a window")
	flags.BoolVar(&o.respectRobots, "respect-robots", defaults.RespectRobots, "skip pages disallowed by robots.txt")
	flags.BoolVar(&o.includeWarnings, "include-warnings", defaults.IncludeWarnings, "report incomplete accessibility checks as warnings")
	flags.StringVar(&o.userAgent, "user-agent", defaults.UserAgent, "browser and robots.txt user agent")
	flags.StringVar(&o.axeSource, "axe-source", defaults.AxeSource, "axe-core URL or local file injected for the accessibility audit")
	flags.IntVar(&o.retries, "retries", defaults.Retries, "retries for transient navigation failures")
	flags.DurationVar(&o.retryDelay, "retry-delay", defaults.RetryDelayDuration(), "base delay between navigation retries")
	flags.DurationVar(&o.timeout, "timeout", defaults.NavigationTimeoutDuration(), "navigation timeout")
	flags.BoolVar(&o.noTUI, "no-tui", false, "print plain text instead of the interactive progress view")
	flags.BoolVar(&o.log, "log", false, "write a debug log to the output directory")
}

// loadConfig builds the run configuration: defaults, then the config file,
// then every flag the user set explicitly.
func (o *options) loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.OutputDir = o.outputDir
	}
	if flags.Changed("format") {
		cfg.Formats = o.formats
	}
	if flags.Changed("screenshots") {
		cfg.Screenshots = o.screenshots
	}
	if flags.Changed("headless") {
		cfg.Headless = o.headless
	}
	if flags.Changed("respect-robots") {
		cfg.RespectRobots = o.respectRobots
	}
	if flags.Changed("include-warnings") {
		cfg.IncludeWarnings = o.includeWarnings
	}
	if flags.Changed("user-agent") {
		cfg.UserAgent = o.userAgent
	}
	if flags.Changed("axe-source") {
		cfg.AxeSource = o.axeSource
	}
	if flags.Changed("retries") {
		cfg.Retries = o.retries
	}
	if flags.Changed("retry-delay") {
		cfg.RetryDelay = int(o.retryDelay.Milliseconds())
	}
	if flags.Changed("timeout") {
		cfg.NavigationTimeout = int(o.timeout.Milliseconds())
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newLogger returns a debug-level text logger writing to the output
// directory, or a discarding logger when logging is off. The returned
// close function is never nil.
func (o *options) newLogger(cfg config.Config) (*slog.Logger, func() error, error) {
	if !o.log {
		return slog.New(slog.DiscardHandler), func() error { return nil }, nil
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(cfg.OutputDir, LogFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec // path is under the output dir
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, f.Close, nil
}

func browserFactory(cfg config.Config) browser.Factory {
	return browser.ChromeFactory(browser.ChromeOptions{
		Headless:          cfg.Headless,
		UserAgent:         cfg.UserAgent,
		NavigationTimeout: cfg.NavigationTimeoutDuration(),
	})
}
