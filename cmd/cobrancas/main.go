package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"cobrancas/internal/backend"
	"cobrancas/internal/cli"
	apphttp "cobrancas/internal/http"
	"cobrancas/internal/services"
)

func main() {
	cfg, logger := cli.Bootstrap()

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("Invalid timezone", "error", err)
		os.Exit(1)
	}

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", "error", err)
			}
		}()
	}

	coord := services.NewCoordinator(result.Store, nil)
	refresher := services.NewRefresher(coord, services.RefresherConfig{Interval: cfg.RefreshInterval})
	if err := refresher.Start(ctx); err != nil {
		logger.Error("Failed to start refresher", "error", err)
		os.Exit(1)
	}

	srv := apphttp.NewServer(":"+cfg.Port, coord, apphttp.Options{
		Location:       loc,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:         logger,
	})
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	go func() {
		<-ctx.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := refresher.Stop(shutdownCtx); err != nil {
			logger.Error("Refresher stop error", "error", err)
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("Starting cobrancas server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"timezone", loc.String(),
		"refresh_interval", cfg.RefreshInterval)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully", "requests", srv.Metrics().TotalRequests)
}
