package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"cobrancas/internal/amqp"
)

// ReminderHandler delivers consumed due reminders to an outbox, one
// tab-separated line per reminder: due date, phone, client, text.
type ReminderHandler struct {
	mu     sync.Mutex
	outbox io.Writer
}

func NewReminderHandler(outbox io.Writer) *ReminderHandler {
	return &ReminderHandler{outbox: outbox}
}

// HandleDueReminder processes a single due reminder message from AMQP
func (h *ReminderHandler) HandleDueReminder(ctx context.Context, msg *amqp.DueReminderMessage) error {
	if strings.TrimSpace(msg.AgreementID) == "" {
		return errors.New("due reminder without agreement id")
	}

	slog.InfoContext(ctx, "Processing due reminder",
		"agreement_id", msg.AgreementID,
		"client", msg.ClientName,
		"installment", msg.Installment,
		"due_date", msg.DueDate,
		"status", msg.Status)

	line := strings.Join([]string{msg.DueDate, msg.Phone, msg.ClientName, msg.Text}, "\t")
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, err := fmt.Fprintln(h.outbox, line); err != nil {
		return fmt.Errorf("write reminder: %w", err)
	}
	return nil
}
