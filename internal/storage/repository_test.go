package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"cobrancas/internal/core"
	"cobrancas/internal/ledger"
	"cobrancas/internal/normalize"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepository_CreateAndList(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	n := core.NewAgreement{
		ClientName:        "Ana",
		Phone:             "119999",
		Description:       "Site",
		InstallmentAmount: core.Money{Cents: 15050},
		StartDate:         core.NewDate(2024, 1, 31),
		Frequency:         core.Weekly,
		InstallmentsPaid:  1,
		TotalInstallments: 4,
	}
	id, err := repo.CreateAgreement(ctx, n)
	if err != nil {
		t.Fatalf("CreateAgreement() error = %v", err)
	}
	if id == "" {
		t.Fatal("expected generated id")
	}

	raws, err := repo.ListAgreements(ctx)
	if err != nil {
		t.Fatalf("ListAgreements() error = %v", err)
	}
	if len(raws) != 1 {
		t.Fatalf("expected 1 agreement, got %d", len(raws))
	}

	got := normalize.Normalize(raws[0])
	want := core.Agreement{
		ID:                id,
		ClientName:        "Ana",
		Description:       "Site",
		StartDate:         core.NewDate(2024, 1, 31),
		Frequency:         core.Weekly,
		InstallmentsPaid:  1,
		TotalInstallments: 4,
		InstallmentAmount: core.Money{Cents: 15050},
		Phone:             "119999",
	}
	if got != want {
		t.Fatalf("round trip = %+v, want %+v", got, want)
	}
}

func TestSQLiteRepository_CreateValidates(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.CreateAgreement(context.Background(), core.NewAgreement{}); !errors.Is(err, core.ErrEmptyClientName) {
		t.Fatalf("CreateAgreement() error = %v", err)
	}
}

func TestSQLiteRepository_MarkPaid(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.CreateAgreement(ctx, core.NewAgreement{
		ClientName:        "Bia",
		InstallmentAmount: core.Money{Cents: 100},
		StartDate:         core.NewDate(2024, 3, 1),
		Frequency:         core.Monthly,
		TotalInstallments: 2,
	})
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 2; i++ {
		if err := repo.MarkPaid(ctx, id); err != nil {
			t.Fatalf("MarkPaid() #%d error = %v", i+1, err)
		}
	}
	if err := repo.MarkPaid(ctx, id); !errors.Is(err, ledger.ErrAlreadySettled) {
		t.Fatalf("MarkPaid() on settled agreement error = %v", err)
	}
	if err := repo.MarkPaid(ctx, "missing"); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("MarkPaid() on missing agreement error = %v", err)
	}

	raws, _ := repo.ListAgreements(ctx)
	if a := normalize.Normalize(raws[0]); a.InstallmentsPaid != 2 || !a.IsExhausted() {
		t.Fatalf("agreement after payments = %+v", a)
	}
}

func TestSQLiteRepository_Reminders(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	due := core.NewDate(2024, 3, 15)

	first, err := repo.RecordReminder(ctx, "a", due)
	if err != nil || !first {
		t.Fatalf("RecordReminder() = %v, %v", first, err)
	}
	again, err := repo.RecordReminder(ctx, "a", due)
	if err != nil || again {
		t.Fatalf("duplicate RecordReminder() = %v, %v", again, err)
	}
	other, err := repo.RecordReminder(ctx, "a", core.NewDate(2024, 4, 15))
	if err != nil || !other {
		t.Fatalf("RecordReminder() for next due date = %v, %v", other, err)
	}

	if err := repo.ForgetReminder(ctx, "a", due); err != nil {
		t.Fatal(err)
	}
	if ok, _ := repo.RecordReminder(ctx, "a", due); !ok {
		t.Fatal("forgotten reminder should be recordable again")
	}

	n, err := repo.CleanupReminders(ctx, time.Now().Add(time.Hour))
	if err != nil || n != 2 {
		t.Fatalf("CleanupReminders() = %d, %v", n, err)
	}
}
