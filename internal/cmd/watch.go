package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/resgen/internal/errors"
	"github.com/felixgeelhaar/resgen/internal/metrics"
	"github.com/felixgeelhaar/resgen/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [platform...]",
	Short: "Regenerate resources when source artwork changes",
	Long: `Generate once, then watch the resource directory and regenerate whenever
icon or splash source artwork is created, changed or removed. Changes are
debounced so a burst of saves triggers a single run.

Press Ctrl+C to stop.`,
	RunE: runWatch,
}

func init() {
	addGenerateFlags(watchCmd.Flags())
	watchCmd.Flags().Duration("debounce", watch.DefaultDebounce, "quiet period before regenerating")
	watchCmd.Flags().String("metrics-file", "", "write prometheus metrics to this file after each run")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return fmt.Errorf("failed to create command context: %w", err)
	}

	opts, err := generateOptions(cmd, cc, args)
	if err != nil {
		return err
	}
	debounce, err := cmd.Flags().GetDuration("debounce")
	if err != nil {
		return err
	}

	reg, m := metrics.NewRegistry()
	p, err := newPipeline(cmd, cc, m)
	if err != nil {
		return err
	}

	generate := func(ctx context.Context, _ []string) error {
		report, runErr := p.Run(ctx, opts)
		if err := writeMetrics(cmd, cc, reg); err != nil {
			cc.Logger.WithError(err).Warn("failed to write metrics")
		}
		if report != nil {
			if err := renderReport(cc, report); err != nil {
				return err
			}
		}
		return runErr
	}

	ctx := cmd.Context()
	if err := generate(ctx, nil); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		// Keep watching; the next change may fix the artwork.
		cc.Logger.LogError("initial generation failed", err)
	}

	root := opts.ResourceRoot()
	if err := os.MkdirAll(root, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeDirectoryFailed, "failed to create resource directory", err)
	}

	w, err := watch.New(root, cc.Logger)
	if err != nil {
		return err
	}
	defer w.Close()
	w.Debounce = debounce

	cc.Logger.Info("watching for source changes", "dir", root)
	return w.Run(ctx, generate)
}
