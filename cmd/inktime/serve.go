package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/inktime/inktime/internal/api"
	"github.com/inktime/inktime/internal/db"
	"github.com/inktime/inktime/internal/photos"
	"github.com/inktime/inktime/internal/runner"
	"github.com/inktime/inktime/internal/runs"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "serve the photo review API and device download endpoints",
	RunE:  doServe,
}

func doServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := db.Open(cfg.DBPath())
	if err != nil {
		return err
	}
	defer d.Close()

	hist := runs.NewStore(d)
	srv := api.New(cfg, api.Options{
		Photos: photos.NewStore(d),
		Runs:   hist,
		Runner: runner.New(cfg, runner.WithHistory(hist), runner.WithLogger(slog.Default())),
		Log:    slog.Default(),
	})

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("inktime listening", "addr", cfg.Server.Addr)
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down")
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutCtx)
	})
	return g.Wait()
}
