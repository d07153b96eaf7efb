package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/allisson/kvcrypt/internal/app"
	"github.com/allisson/kvcrypt/internal/config"
)

// RunRewriteStale re-encrypts stale records under the active provider and key.
// This is the rewrite step of the key rotation workflow: run it after
// promoting a new key (or provider) on every server sharing the backend.
//
// When a kind is given only that kind is rewritten; otherwise every configured
// encrypted kind is processed. While the pass runs, the Prometheus metrics
// endpoint is served if metrics are enabled so progress is observable.
func RunRewriteStale(ctx context.Context, kind string) error {
	cfg := config.Load()
	container := app.NewContainer(cfg)
	logger := container.Logger()
	defer closeContainer(container, logger)

	recordUseCase, err := container.RecordUseCase()
	if err != nil {
		return fmt.Errorf("failed to create record use case: %w", err)
	}

	// Serve the metrics endpoint for the duration of the pass.
	var metricsServer *http.Server
	if cfg.MetricsEnabled {
		provider, err := container.MetricsProvider()
		if err != nil {
			return fmt.Errorf("failed to create metrics provider: %w", err)
		}

		mux := http.NewServeMux()
		mux.Handle("/metrics", provider.Handler())
		metricsServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server error", slog.Any("error", err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		}()
	}

	kinds := cfg.EncryptedKindList()
	if kind != "" {
		kinds = []string{kind}
	}

	for _, k := range kinds {
		logger.Info("rewriting stale records", slog.String("kind", k))

		report, err := recordUseCase.RewriteStale(ctx, k)
		if err != nil {
			return fmt.Errorf("failed to rewrite stale records for kind %s: %w", k, err)
		}

		logger.Info("rewrite pass completed",
			slog.String("kind", k),
			slog.Int64("scanned", report.Scanned),
			slog.Int64("rewritten", report.Rewritten),
			slog.Int64("failed", report.Failed),
		)
	}

	return nil
}
