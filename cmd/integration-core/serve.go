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

	"github.com/opencomply/integration-core/internal/config"
	"github.com/opencomply/integration-core/internal/health"
	"github.com/opencomply/integration-core/internal/logging"
	"github.com/opencomply/integration-core/internal/metrics"
	"github.com/opencomply/integration-core/internal/webhook"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook ingress and metrics endpoints.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if _, err := logging.BootstrapFromEnv(logging.BootstrapOptions{Command: "serve", Writer: os.Stderr}); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg, err := buildRegistry(ctx, cfg)
	if err != nil {
		return err
	}
	defer reg.Drain()

	checker := &health.Checker{
		Registry: reg,
		Interval: cfg.HealthCheckInterval,
		Timeout:  cfg.AttemptTimeout,
	}
	go checker.Run(ctx)

	_, metricsErrCh := metrics.StartServer(ctx, cfg.MetricsAddr)

	srv := webhook.NewServer(reg, cfg.WebhookMaxBody)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", cfg.HTTPAddr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-metricsErrCh:
		return err
	}
}
