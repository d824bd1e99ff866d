package memory

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/goccy/go-json"

	"cobrancas/internal/core"
	"cobrancas/internal/ledger"
	"cobrancas/internal/normalize"
)

// SeedFile is the file NewFromFiles reads agreement records from.
const SeedFile = "agreements.json"

var _ ledger.Store = (*Store)(nil)

// Store keeps agreement records in process memory, exactly as they were
// written, historical field names included.
type Store struct {
	mu     sync.Mutex
	items  []core.RawRecord
	nextID int
}

func New(records []core.RawRecord) *Store {
	s := &Store{}
	for _, r := range records {
		s.items = append(s.items, clone(r))
	}
	s.nextID = len(s.items) + 1
	return s
}

// NewFromFiles seeds the store from base/agreements.json. A missing or
// malformed file yields an empty store.
func NewFromFiles(base string) *Store {
	path := filepath.Join(base, SeedFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return New(nil)
	}
	var records []core.RawRecord
	if err := json.Unmarshal(data, &records); err != nil {
		slog.Warn("Ignoring malformed seed file", "path", path, "error", err)
		return New(nil)
	}
	return New(records)
}

// ListAgreements returns copies of every stored record.
func (s *Store) ListAgreements(_ context.Context) ([]core.RawRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.RawRecord, len(s.items))
	for i, r := range s.items {
		out[i] = clone(r)
	}
	return out, nil
}

// CreateAgreement stores the agreement and returns a synthetic identifier.
func (s *Store) CreateAgreement(_ context.Context, n core.NewAgreement) (string, error) {
	if err := n.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := "mem:" + strconv.Itoa(s.nextID)
	s.nextID++
	s.items = append(s.items, normalize.Record(id, n))
	return id, nil
}

// MarkPaid increments the paid count of agreement id.
func (s *Store) MarkPaid(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := ledger.IndexOf(s.items, id)
	if i < 0 {
		return ledger.ErrNotFound
	}
	_, _, err := ledger.IncrementPaid(s.items[i])
	return err
}

func clone(r core.RawRecord) core.RawRecord {
	out := make(core.RawRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
