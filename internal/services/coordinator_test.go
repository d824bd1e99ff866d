package services

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cobrancas/internal/core"
	"cobrancas/internal/ledger"
)

// fakeStore is an in-process ledger.Store whose failures can be toggled.
type fakeStore struct {
	mu      sync.Mutex
	records []core.RawRecord
	listErr error
	lists   atomic.Int32
	gate    chan struct{} // when set, ListAgreements blocks until it is closed
}

func (s *fakeStore) ListAgreements(ctx context.Context) ([]core.RawRecord, error) {
	s.lists.Add(1)
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]core.RawRecord, len(s.records))
	for i, r := range s.records {
		cp := core.RawRecord{}
		for k, v := range r {
			cp[k] = v
		}
		out[i] = cp
	}
	return out, nil
}

func (s *fakeStore) CreateAgreement(_ context.Context, n core.NewAgreement) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := strconv.Itoa(len(s.records) + 1)
	s.records = append(s.records, core.RawRecord{
		"id_cliente":     id,
		"nome_cliente":   n.ClientName,
		"data_inicio":    n.StartDate.String(),
		"frequencia":     n.Frequency.Label(),
		"parcelas_pagas": n.InstallmentsPaid,
		"total_parcelas": n.TotalInstallments,
		"valor_parcela":  n.InstallmentAmount.String(),
	})
	return id, nil
}

func (s *fakeStore) MarkPaid(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r["id_cliente"] == id {
			r["parcelas_pagas"] = r["parcelas_pagas"].(int) + 1
			return nil
		}
	}
	return ledger.ErrNotFound
}

func (s *fakeStore) setListErr(err error) {
	s.mu.Lock()
	s.listErr = err
	s.mu.Unlock()
}

var fixedNow = func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) }

func TestCoordinator_RefreshReplacesSnapshot(t *testing.T) {
	store := &fakeStore{records: []core.RawRecord{
		{"id_cliente": 7, "nome": "Ana", "vencimento": "2024-01-15", "parcela_atual": "2", "totalParcelas": "12"},
	}}
	c := NewCoordinator(store, fixedNow)

	got, err := c.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "7" || got[0].InstallmentsPaid != 2 {
		t.Fatalf("Refresh() = %+v", got)
	}

	due := c.DueList(c.Today())
	if len(due) != 1 || due[0].Schedule.Status != DueToday {
		t.Fatalf("DueList() = %+v", due)
	}
}

func TestCoordinator_RefreshFailureKeepsStaleSnapshot(t *testing.T) {
	store := &fakeStore{records: []core.RawRecord{{"id": "a", "nome": "Ana"}}}
	c := NewCoordinator(store, fixedNow)

	if _, err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("first Refresh() error = %v", err)
	}

	boom := errors.New("connection refused")
	store.setListErr(boom)

	got, err := c.Refresh(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Refresh() error = %v, want %v", err, boom)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("stale snapshot lost: %+v", got)
	}
	if snap := c.Snapshot(); !errors.Is(snap.Err, boom) {
		t.Errorf("Snapshot().Err = %v, want %v", snap.Err, boom)
	}

	store.setListErr(nil)
	if _, err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() after recovery error = %v", err)
	}
	if snap := c.Snapshot(); snap.Err != nil {
		t.Errorf("Snapshot().Err should clear after success, got %v", snap.Err)
	}
}

func TestCoordinator_AddAgreementRefetches(t *testing.T) {
	store := &fakeStore{}
	c := NewCoordinator(store, fixedNow)

	id, err := c.AddAgreement(context.Background(), core.NewAgreement{
		ClientName:        "  Bia ",
		InstallmentAmount: core.Money{Cents: 5000},
		StartDate:         core.NewDate(2024, 3, 15),
		Frequency:         core.Weekly,
		TotalInstallments: 4,
	})
	if err != nil {
		t.Fatalf("AddAgreement() error = %v", err)
	}

	snap := c.Snapshot()
	if len(snap.Agreements) != 1 || snap.Agreements[0].ID != id || snap.Agreements[0].ClientName != "Bia" {
		t.Fatalf("snapshot after add = %+v", snap.Agreements)
	}
	if got := c.DueList(c.Today()); len(got) != 1 {
		t.Fatalf("DueList() after add = %+v", got)
	}
}

func TestCoordinator_AddAgreementValidates(t *testing.T) {
	store := &fakeStore{}
	c := NewCoordinator(store, fixedNow)

	_, err := c.AddAgreement(context.Background(), core.NewAgreement{ClientName: " "})
	if !errors.Is(err, core.ErrEmptyClientName) {
		t.Fatalf("AddAgreement() error = %v, want ErrEmptyClientName", err)
	}
	if store.lists.Load() != 0 {
		t.Errorf("invalid create should not refetch")
	}
}

func TestCoordinator_MarkPaid(t *testing.T) {
	store := &fakeStore{records: []core.RawRecord{
		{"id_cliente": "1", "nome_cliente": "Ana", "data_inicio": "2024-01-15", "parcelas_pagas": 2, "total_parcelas": 3},
	}}
	c := NewCoordinator(store, fixedNow)
	ctx := context.Background()

	if _, err := c.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	if err := c.MarkPaid(ctx, "1"); err != nil {
		t.Fatalf("MarkPaid() error = %v", err)
	}

	all := c.All(c.Today())
	if len(all) != 1 || all[0].Schedule.Status != Exhausted {
		t.Fatalf("All() after mark paid = %+v", all)
	}
	if due := c.DueList(c.Today()); len(due) != 0 {
		t.Errorf("exhausted agreement still on due list: %+v", due)
	}

	if err := c.MarkPaid(ctx, "missing"); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("MarkPaid(missing) error = %v, want ErrNotFound", err)
	}
	if err := c.MarkPaid(ctx, ""); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("MarkPaid(empty) error = %v, want ErrNotFound", err)
	}
}

func TestCoordinator_ConcurrentRefreshesShareFetch(t *testing.T) {
	store := &fakeStore{
		records: []core.RawRecord{{"id": "a"}},
		gate:    make(chan struct{}),
	}
	c := NewCoordinator(store, fixedNow)

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Refresh(context.Background())
			errs <- err
		}()
	}

	// Give every caller time to join the in-flight fetch before releasing it.
	deadline := time.Now().Add(time.Second)
	for store.lists.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(store.gate)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("Refresh() error = %v", err)
		}
	}
	if n := store.lists.Load(); n >= callers {
		t.Errorf("expected concurrent refreshes to be deduplicated, got %d fetches", n)
	}
	if got := c.Snapshot().Agreements; len(got) != 1 {
		t.Errorf("snapshot = %+v", got)
	}
}

func TestCoordinator_CancelledCallerDoesNotFailJoinedRefresh(t *testing.T) {
	store := &fakeStore{
		records: []core.RawRecord{{"id": "a"}},
		gate:    make(chan struct{}),
	}
	c := NewCoordinator(store, fixedNow)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := c.Refresh(ctx)
		first <- err
	}()

	deadline := time.Now().Add(time.Second)
	for store.lists.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	second := make(chan error, 1)
	go func() {
		_, err := c.Refresh(context.Background())
		second <- err
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	if err := <-first; !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled Refresh() error = %v, want context.Canceled", err)
	}

	close(store.gate)
	if err := <-second; err != nil {
		t.Fatalf("joined Refresh() error = %v", err)
	}
	if n := store.lists.Load(); n != 1 {
		t.Errorf("expected one shared fetch, got %d", n)
	}
	if got := c.Snapshot().Agreements; len(got) != 1 {
		t.Errorf("snapshot = %+v", got)
	}
}

func TestCoordinator_SnapshotIsACopy(t *testing.T) {
	store := &fakeStore{records: []core.RawRecord{{"id": "a", "nome": "Ana"}}}
	c := NewCoordinator(store, fixedNow)
	if _, err := c.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}

	snap := c.Snapshot()
	snap.Agreements[0].ClientName = "changed"

	if got := c.Snapshot().Agreements[0].ClientName; got != "Ana" {
		t.Errorf("snapshot mutated through copy: %q", got)
	}
}
