package main

import (
	"os"
	"time"

	"cobrancas/internal/amqp"
	"cobrancas/internal/backend"
	"cobrancas/internal/cli"
	"cobrancas/internal/services"
	"cobrancas/internal/storage"
	"cobrancas/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap()
	logger.Info("Starting due-worker")

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
		defer result.Cleanup()
	}

	// Sent reminders are remembered in SQLite, whatever backend holds the ledger.
	reminderRepo, ok := result.Store.(*storage.SQLiteRepository)
	if !ok {
		reminderRepo, err = storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer reminderRepo.Close()
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	coord := services.NewCoordinator(result.Store, nil)
	dueWorker := worker.NewDueWorker(coord, amqpClient, reminderRepo)

	scan := func() {
		today := time.Now().In(loc)
		if _, err := dueWorker.RunOnce(ctx, today); err != nil {
			logger.Error("Due scan failed", "error", err)
		}
		if n, err := reminderRepo.CleanupReminders(ctx, today.Add(-cfg.ReminderRetention)); err != nil {
			logger.Error("Reminder cleanup failed", "error", err)
		} else if n > 0 {
			logger.Info("Cleaned up old reminders", "count", n)
		}
	}

	// Scan once on startup so a restart does not wait a full interval.
	scan()

	ticker := time.NewTicker(cfg.DueCheckInterval)
	defer ticker.Stop()

	logger.Info("Due-worker running", "interval", cfg.DueCheckInterval, "timezone", loc.String())
	for {
		select {
		case <-ctx.Done():
			logger.Info("Due-worker stopped")
			return
		case <-ticker.C:
			scan()
		}
	}
}

