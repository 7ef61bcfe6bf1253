package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lukemcguire/webprobe/batch"
	"github.com/lukemcguire/webprobe/config"
	"github.com/lukemcguire/webprobe/result"
	"github.com/lukemcguire/webprobe/tester"
	"github.com/lukemcguire/webprobe/tui"
)

func (a *app) batchCmd() *cobra.Command {
	var (
		statePath string
		rate      float64
	)

	cmd := &cobra.Command{
		Use:   "batch <file>",
		Short: "Test every URL listed in a file, one page at a time",
		Long: `Reads one URL per line (blank lines and lines starting with # are skipped)
and tests each page in order. Duplicate URLs are tested once. With --state,
pages already tested by an earlier invocation are skipped, so an interrupted
batch can be resumed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("rate") {
				cfg.BatchRate = rate
			}

			entries, err := batch.LoadFile(args[0])
			if err != nil {
				return err
			}

			logger, closeLog, err := a.opts.newLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = closeLog() }()

			seen, err := batch.OpenSeenSet(statePath)
			if err != nil {
				return err
			}
			defer func() {
				if err := seen.Close(); err != nil {
					logger.Warn("close batch state", "error", err)
				}
			}()
			if seen.Resumed() {
				logger.Info("resuming batch", "state", statePath)
			}

			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			runner := batch.NewRunner(
				tester.New(cfg, a.factory(cfg), nil, logger),
				batch.NewPacer(cfg.BatchRate, batch.DefaultTargetDuration),
				seen,
				logger,
			)
			runner.OnResult = func(entry batch.Entry, res *result.RunResult, runErr error) {
				_, _ = fmt.Fprintln(out, tui.RenderBatchLine(entry.URL, res, runErr))
				if res == nil {
					return
				}
				if err := writeReports(out, cfg, res, logger); err != nil {
					logger.Warn("write reports", "url", entry.URL, "error", err)
				}
			}

			summary, err := runner.Run(ctx, entries)
			_, _ = fmt.Fprintln(out, tui.RenderBatchSummary(summary))
			if err != nil {
				return err
			}
			if !summary.OK() {
				return ErrIssuesFound
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&statePath, "state", "", "file remembering tested pages across invocations")
	cmd.Flags().Float64Var(&rate, "rate", config.Default().BatchRate, "maximum page loads per second")
	return cmd
}
