package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

type Agreement struct {
	ID                     string
	ClientName             string
	Description            string
	Phone                  string
	StartDate              string
	Frequency              string
	InstallmentsPaid       int64
	TotalInstallments      int64
	InstallmentAmountCents int64
}

const createAgreement = `
INSERT INTO agreements (
    id, client_name, description, phone, start_date, frequency,
    installments_paid, total_installments, installment_amount_cents
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type CreateAgreementParams struct {
	ID                     string
	ClientName             string
	Description            string
	Phone                  string
	StartDate              string
	Frequency              string
	InstallmentsPaid       int64
	TotalInstallments      int64
	InstallmentAmountCents int64
}

func (q *Queries) CreateAgreement(ctx context.Context, arg CreateAgreementParams) error {
	_, err := q.db.ExecContext(ctx, createAgreement,
		arg.ID,
		arg.ClientName,
		arg.Description,
		arg.Phone,
		arg.StartDate,
		arg.Frequency,
		arg.InstallmentsPaid,
		arg.TotalInstallments,
		arg.InstallmentAmountCents,
	)
	return err
}

const listAgreements = `
SELECT id, client_name, description, phone, start_date, frequency,
       installments_paid, total_installments, installment_amount_cents
FROM agreements
ORDER BY created_at, rowid
`

func (q *Queries) ListAgreements(ctx context.Context) ([]Agreement, error) {
	rows, err := q.db.QueryContext(ctx, listAgreements)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Agreement
	for rows.Next() {
		var i Agreement
		if err := rows.Scan(
			&i.ID,
			&i.ClientName,
			&i.Description,
			&i.Phone,
			&i.StartDate,
			&i.Frequency,
			&i.InstallmentsPaid,
			&i.TotalInstallments,
			&i.InstallmentAmountCents,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getAgreementProgress = `
SELECT installments_paid, total_installments FROM agreements WHERE id = ?
`

type GetAgreementProgressRow struct {
	InstallmentsPaid  int64
	TotalInstallments int64
}

func (q *Queries) GetAgreementProgress(ctx context.Context, id string) (GetAgreementProgressRow, error) {
	row := q.db.QueryRowContext(ctx, getAgreementProgress, id)
	var i GetAgreementProgressRow
	err := row.Scan(&i.InstallmentsPaid, &i.TotalInstallments)
	return i, err
}

const incrementInstallmentsPaid = `
UPDATE agreements
SET installments_paid = installments_paid + 1, updated_at = CURRENT_TIMESTAMP
WHERE id = ? AND installments_paid < total_installments
`

func (q *Queries) IncrementInstallmentsPaid(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, incrementInstallmentsPaid, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const insertReminder = `
INSERT OR IGNORE INTO reminders_sent (agreement_id, due_date) VALUES (?, ?)
`

type InsertReminderParams struct {
	AgreementID string
	DueDate     string
}

func (q *Queries) InsertReminder(ctx context.Context, arg InsertReminderParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, insertReminder, arg.AgreementID, arg.DueDate)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteReminder = `
DELETE FROM reminders_sent WHERE agreement_id = ? AND due_date = ?
`

type DeleteReminderParams struct {
	AgreementID string
	DueDate     string
}

func (q *Queries) DeleteReminder(ctx context.Context, arg DeleteReminderParams) error {
	_, err := q.db.ExecContext(ctx, deleteReminder, arg.AgreementID, arg.DueDate)
	return err
}

const cleanupReminders = `
DELETE FROM reminders_sent WHERE sent_at < ?
`

func (q *Queries) CleanupReminders(ctx context.Context, before string) (int64, error) {
	result, err := q.db.ExecContext(ctx, cleanupReminders, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
