package main

import (
	"context"
	"errors"
	"io"
	"os"

	"cobrancas/internal/amqp"
	"cobrancas/internal/cli"
	"cobrancas/internal/worker"
)

func main() {
	cfg, logger := cli.Bootstrap()
	logger.Info("Starting reminder-worker")

	var outbox io.Writer = os.Stdout
	if cfg.ReminderOutbox != "" {
		f, err := os.OpenFile(cfg.ReminderOutbox, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			logger.Error("Failed to open reminder outbox", "error", err, "path", cfg.ReminderOutbox)
			os.Exit(1)
		}
		defer f.Close()
		outbox = f
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	handler := worker.NewReminderHandler(outbox)

	logger.Info("Consuming due reminders", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	if err := amqpClient.ConsumeDueReminders(ctx, handler.HandleDueReminder); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Reminder-worker stopped")
}
