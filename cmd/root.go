// Package cmd implements the webprobe command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/lukemcguire/webprobe/browser"
	"github.com/lukemcguire/webprobe/config"
	"github.com/lukemcguire/webprobe/result"
	"github.com/lukemcguire/webprobe/tester"
	"github.com/lukemcguire/webprobe/tui"
)

// ErrIssuesFound is returned when every run completed but at least one
// page has issues. It maps to exit status 1 like a terminal failure.
var ErrIssuesFound = errors.New("issues found")

// progressBuffer holds every event of one run, so the tester never blocks
// on a UI that has already quit.
const progressBuffer = 16

// app carries the dependencies commands share; tests replace them.
type app struct {
	opts        options
	factory     func(config.Config) browser.Factory
	interactive func(io.Writer) bool
}

func defaultApp() *app {
	return &app{
		factory:     browserFactory,
		interactive: isTerminal,
	}
}

// NewRootCmd builds the webprobe command tree.
func NewRootCmd(version string) *cobra.Command {
	return defaultApp().rootCmd(version)
}

func (a *app) rootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "webprobe <url>",
		Short: "Automated QA checks for a web page",
		Long: `webprobe loads a page in a real browser and runs four test phases against it:
functional, responsive, performance and accessibility. Findings are printed
and written as HTML, JSON or CSV reports.

Examples:
  # Test one page with the interactive progress view
  webprobe https://example.com

  # Plain output, JSON and CSV reports, screenshots per viewport
  webprobe https://example.com --no-tui -f console,json,csv --screenshots

  # Test every URL listed in a file
  webprobe batch urls.txt --state .webprobe-state`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSingle(cmd, args[0])
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	a.opts.addFlags(rootCmd)

	rootCmd.AddCommand(
		a.batchCmd(),
		newSchemaCmd(),
		newVersionCmd(version),
	)
	return rootCmd
}

func (a *app) runSingle(cmd *cobra.Command, rawURL string) error {
	cfg, err := a.opts.loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, closeLog, err := a.opts.newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	var res *result.RunResult
	var runErr error
	if !a.opts.noTUI && cfg.HasFormat(result.FormatConsole) && a.interactive(out) {
		m, err := a.runInteractive(ctx, cfg, rawURL, logger)
		if err != nil {
			return err
		}
		res, runErr = m.Result(), m.Err()
	} else {
		t := tester.New(cfg, a.factory(cfg), nil, logger)
		res, runErr = t.Run(ctx, rawURL)
		if cfg.HasFormat(result.FormatConsole) {
			result.PrintResults(out, res)
		}
	}

	if err := writeReports(out, cfg, res, logger); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	if !res.Success {
		return ErrIssuesFound
	}
	return nil
}

// runInteractive runs the tester behind the Bubble Tea progress view and
// returns the final model once the run is done.
func (a *app) runInteractive(ctx context.Context, cfg config.Config, rawURL string, logger *slog.Logger) (tui.Model, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan tester.Event, progressBuffer)
	t := tester.New(cfg, a.factory(cfg), events, logger)
	run := func(ctx context.Context) (*result.RunResult, error) {
		defer close(events)
		return t.Run(ctx, rawURL)
	}

	model := tui.NewModel(ctx, cancel, rawURL, run, events)
	finalModel, err := tea.NewProgram(model).Run()
	if err != nil {
		return tui.Model{}, fmt.Errorf("run terminal UI: %w", err)
	}

	m, ok := finalModel.(tui.Model)
	if !ok || m.Result() == nil {
		return tui.Model{}, errors.New("interrupted")
	}
	return m, nil
}

func writeReports(out io.Writer, cfg config.Config, res *result.RunResult, logger *slog.Logger) error {
	paths, err := result.WriteReports(cfg.OutputDir, cfg.Formats, res)
	for _, p := range paths {
		logger.Debug("report written", "path", p)
		_, _ = fmt.Fprintf(out, "Report: %s\n", p)
	}
	return err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
