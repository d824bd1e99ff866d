package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cobrancas/internal/amqp"
	"cobrancas/internal/core"
	"cobrancas/internal/services"
)

// Publisher delivers due reminder messages, normally over AMQP.
type Publisher interface {
	PublishDueReminder(ctx context.Context, msg *amqp.DueReminderMessage) error
}

// ReminderLog remembers which (agreement, due date) pairs were already
// announced so each installment is reminded once.
type ReminderLog interface {
	// RecordReminder reports false when the pair was already recorded.
	RecordReminder(ctx context.Context, id string, due core.Date) (bool, error)
	ForgetReminder(ctx context.Context, id string, due core.Date) error
}

// Refresher yields the current agreement collection.
type Refresher interface {
	Refresh(ctx context.Context) ([]core.Agreement, error)
}

// DueWorker scans the ledger for overdue and due-today installments and
// publishes one reminder per installment.
type DueWorker struct {
	source    Refresher
	publisher Publisher
	reminders ReminderLog
}

func NewDueWorker(source Refresher, publisher Publisher, reminders ReminderLog) *DueWorker {
	return &DueWorker{source: source, publisher: publisher, reminders: reminders}
}

// RunResult summarizes one scan.
type RunResult struct {
	Due       int
	Published int
	Skipped   int
	Failed    int
}

// RunOnce refreshes the agreements and publishes reminders for the due list
// as of today. A failed refresh publishes nothing.
func (w *DueWorker) RunOnce(ctx context.Context, today time.Time) (RunResult, error) {
	agreements, err := w.source.Refresh(ctx)
	if err != nil {
		return RunResult{}, fmt.Errorf("refresh agreements: %w", err)
	}

	items := services.BuildDueList(agreements, today)
	res := RunResult{Due: len(items)}

	for _, item := range items {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		due := item.Schedule.NextDueDate

		fresh, err := w.reminders.RecordReminder(ctx, item.ID, due)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to record reminder", "id", item.ID, "due_date", due.String(), "error", err)
			res.Failed++
			continue
		}
		if !fresh {
			res.Skipped++
			continue
		}

		if err := w.publisher.PublishDueReminder(ctx, NewDueReminderMessage(item)); err != nil {
			slog.ErrorContext(ctx, "Failed to publish due reminder", "id", item.ID, "due_date", due.String(), "error", err)
			if ferr := w.reminders.ForgetReminder(ctx, item.ID, due); ferr != nil {
				slog.ErrorContext(ctx, "Failed to forget reminder", "id", item.ID, "error", ferr)
			}
			res.Failed++
			continue
		}
		res.Published++
	}

	slog.InfoContext(ctx, "Due scan complete",
		"due", res.Due,
		"published", res.Published,
		"skipped", res.Skipped,
		"failed", res.Failed,
		"today", core.DateOf(today).String())

	return res, nil
}

// NewDueReminderMessage builds the message announcing item.
func NewDueReminderMessage(item services.DueItem) *amqp.DueReminderMessage {
	return &amqp.DueReminderMessage{
		AgreementID: item.ID,
		ClientName:  item.ClientName,
		Phone:       item.Phone,
		Installment: item.InstallmentLabel(),
		AmountCents: item.InstallmentAmount.Cents,
		DueDate:     item.Schedule.NextDueDate.String(),
		Status:      string(item.Schedule.Status),
		Text:        services.ReminderText(item),
		Timestamp:   time.Now(),
	}
}

// MemoryReminderLog is a ReminderLog kept in process memory.
type MemoryReminderLog struct {
	mu   sync.Mutex
	sent map[string]struct{}
}

func NewMemoryReminderLog() *MemoryReminderLog {
	return &MemoryReminderLog{sent: map[string]struct{}{}}
}

func (l *MemoryReminderLog) RecordReminder(_ context.Context, id string, due core.Date) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := id + "@" + due.String()
	if _, ok := l.sent[key]; ok {
		return false, nil
	}
	l.sent[key] = struct{}{}
	return true, nil
}

func (l *MemoryReminderLog) ForgetReminder(_ context.Context, id string, due core.Date) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.sent, id+"@"+due.String())
	return nil
}
