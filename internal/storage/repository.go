package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"cobrancas/internal/core"
	"cobrancas/internal/ledger"
	"cobrancas/internal/normalize"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

var _ ledger.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ListAgreements implements ledger.AgreementLister. Rows are returned in the
// canonical record shape, oldest first.
func (r *SQLiteRepository) ListAgreements(ctx context.Context) ([]core.RawRecord, error) {
	rows, err := r.queries.ListAgreements(ctx)
	if err != nil {
		return nil, fmt.Errorf("list agreements: %w", err)
	}
	out := make([]core.RawRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, normalize.Canonical(toCore(row)))
	}
	return out, nil
}

// CreateAgreement implements ledger.AgreementCreator
func (r *SQLiteRepository) CreateAgreement(ctx context.Context, n core.NewAgreement) (string, error) {
	if err := n.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	id := uuid.NewString()
	err := r.queries.CreateAgreement(ctx, CreateAgreementParams{
		ID:                     id,
		ClientName:             n.ClientName,
		Description:            n.Description,
		Phone:                  n.Phone,
		StartDate:              n.StartDate.String(),
		Frequency:              string(n.Frequency),
		InstallmentsPaid:       int64(n.InstallmentsPaid),
		TotalInstallments:      int64(n.TotalInstallments),
		InstallmentAmountCents: n.InstallmentAmount.Cents,
	})
	if err != nil {
		return "", fmt.Errorf("create agreement: %w", err)
	}

	slog.InfoContext(ctx, "Agreement saved to SQLite",
		"id", id,
		"client", n.ClientName,
		"amount_cents", n.InstallmentAmount.Cents,
		"installments", n.TotalInstallments)

	return id, nil
}

// MarkPaid implements ledger.PaymentMarker
func (r *SQLiteRepository) MarkPaid(ctx context.Context, id string) error {
	affected, err := r.queries.IncrementInstallmentsPaid(ctx, id)
	if err != nil {
		return fmt.Errorf("increment installments paid: %w", err)
	}
	if affected > 0 {
		return nil
	}

	// Nothing updated: either the agreement is unknown or already settled.
	if _, err := r.queries.GetAgreementProgress(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.ErrNotFound
		}
		return fmt.Errorf("get agreement %s: %w", id, err)
	}
	return ledger.ErrAlreadySettled
}

// RecordReminder marks the reminder for agreement id and due date as sent.
// It reports false when that reminder had already been recorded.
func (r *SQLiteRepository) RecordReminder(ctx context.Context, id string, due core.Date) (bool, error) {
	n, err := r.queries.InsertReminder(ctx, InsertReminderParams{AgreementID: id, DueDate: due.String()})
	if err != nil {
		return false, fmt.Errorf("record reminder: %w", err)
	}
	return n > 0, nil
}

// ForgetReminder removes a recorded reminder so it can be sent again.
func (r *SQLiteRepository) ForgetReminder(ctx context.Context, id string, due core.Date) error {
	if err := r.queries.DeleteReminder(ctx, DeleteReminderParams{AgreementID: id, DueDate: due.String()}); err != nil {
		return fmt.Errorf("forget reminder: %w", err)
	}
	return nil
}

// CleanupReminders removes reminders recorded before cutoff.
func (r *SQLiteRepository) CleanupReminders(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := r.queries.CleanupReminders(ctx, cutoff.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return 0, fmt.Errorf("cleanup reminders: %w", err)
	}
	return n, nil
}

func toCore(row Agreement) core.Agreement {
	a := core.Agreement{
		ID:                row.ID,
		ClientName:        row.ClientName,
		Description:       row.Description,
		Phone:             row.Phone,
		Frequency:         core.Frequency(row.Frequency),
		InstallmentsPaid:  int(row.InstallmentsPaid),
		TotalInstallments: int(row.TotalInstallments),
		InstallmentAmount: core.Money{Cents: row.InstallmentAmountCents},
	}
	if t, err := time.Parse("2006-01-02", row.StartDate); err == nil {
		a.StartDate = core.DateOf(t)
	}
	return a
}
