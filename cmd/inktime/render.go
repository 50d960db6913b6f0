package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/inktime/inktime/internal/db"
	"github.com/inktime/inktime/internal/runner"
	"github.com/inktime/inktime/internal/runs"
)

// renderCmd is the cron entry point. Exit 0 covers both a completed render
// and the benign "another instance is running" skip; 1 is everything fatal.
var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "run one guarded render of the daily photo",
	RunE:  doRender,
}

func doRender(cmd *cobra.Command, _ []string) error {
	// SIGINT/SIGTERM cancel the context; the runner's deferred lock release
	// still fires because we return instead of dying on the signal.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []runner.Option{runner.WithLogger(slog.Default())}
	if d, err := db.Open(cfg.DBPath()); err == nil {
		defer d.Close()
		opts = append(opts, runner.WithHistory(runs.NewStore(d)))
	} else {
		// History is optional; the render itself must not depend on it.
		slog.Warn("run history unavailable", "db", cfg.DBPath(), "err", err)
	}

	res, err := runner.New(cfg, opts...).Run(ctx)
	if err != nil {
		return err
	}
	if res.Skipped {
		slog.Info("render skipped, another instance is active")
		return nil
	}
	slog.Info("render complete", "run", res.RunID)
	return nil
}
