package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"cobrancas/internal/core"
	"cobrancas/internal/ledger"
	"cobrancas/internal/normalize"
)

// fetchTimeout bounds one shared ledger read.
const fetchTimeout = 30 * time.Second

// Snapshot is the last agreement collection fetched from the ledger.
// A failed refresh keeps the previous Agreements and records Err.
type Snapshot struct {
	Agreements []core.Agreement
	FetchedAt  time.Time
	Err        error
}

// Coordinator owns the in-memory agreement collection and keeps it in step
// with a ledger store. Every successful mutation is followed by a full
// refetch; the collection is always replaced wholesale.
type Coordinator struct {
	store ledger.Store
	now   func() time.Time
	group singleflight.Group

	mu       sync.RWMutex
	snapshot Snapshot
	epoch    uint64 // bumped after each successful mutation
	issued   uint64 // last fetch sequence handed out
	applied  uint64 // sequence of the fetch that produced snapshot
}

// NewCoordinator creates a coordinator backed by store. now defaults to time.Now.
func NewCoordinator(store ledger.Store, now func() time.Time) *Coordinator {
	if now == nil {
		now = time.Now
	}
	return &Coordinator{store: store, now: now}
}

// Today returns the coordinator's current time.
func (c *Coordinator) Today() time.Time {
	return c.now()
}

// Snapshot returns a copy of the current snapshot.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.snapshot
	s.Agreements = append([]core.Agreement(nil), c.snapshot.Agreements...)
	return s
}

// Refresh refetches every agreement from the ledger. Concurrent calls made
// between the same pair of mutations share one fetch. On failure the
// previous collection is returned together with the error.
func (c *Coordinator) Refresh(ctx context.Context) ([]core.Agreement, error) {
	c.mu.RLock()
	key := "refresh-" + strconv.FormatUint(c.epoch, 10)
	c.mu.RUnlock()

	// The shared fetch outlives any single caller; each caller only stops
	// waiting on its own cancellation.
	ch := c.group.DoChan(key, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		return nil, c.fetch(fetchCtx)
	})

	var err error
	select {
	case res := <-ch:
		if res.Shared {
			slog.DebugContext(ctx, "Joined in-flight refresh", "key", key)
		}
		err = res.Err
	case <-ctx.Done():
		err = ctx.Err()
	}
	snap := c.Snapshot()
	return snap.Agreements, err
}

func (c *Coordinator) fetch(ctx context.Context) error {
	c.mu.Lock()
	c.issued++
	seq := c.issued
	c.mu.Unlock()

	raws, err := c.store.ListAgreements(ctx)
	fetchedAt := c.now()
	if err != nil {
		err = fmt.Errorf("list agreements: %w", err)
		c.mu.Lock()
		if seq > c.applied {
			c.snapshot.Err = err
		}
		c.mu.Unlock()
		slog.ErrorContext(ctx, "Failed to refresh agreements", "error", err)
		return err
	}

	agreements := normalize.NormalizeAll(raws)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq <= c.applied {
		slog.DebugContext(ctx, "Discarding stale refresh result", "seq", seq, "applied", c.applied)
		return nil
	}
	c.applied = seq
	c.snapshot = Snapshot{Agreements: agreements, FetchedAt: fetchedAt}
	slog.InfoContext(ctx, "Refreshed agreements", "count", len(agreements), "seq", seq)
	return nil
}

// AddAgreement registers a new agreement and refreshes the collection.
// A refresh failure after a successful create is recorded in the snapshot,
// not returned.
func (c *Coordinator) AddAgreement(ctx context.Context, n core.NewAgreement) (string, error) {
	n.ClientName = strings.TrimSpace(n.ClientName)
	if err := n.Validate(); err != nil {
		return "", fmt.Errorf("validate agreement: %w", err)
	}
	id, err := c.store.CreateAgreement(ctx, n)
	if err != nil {
		return "", fmt.Errorf("create agreement: %w", err)
	}
	slog.InfoContext(ctx, "Created agreement",
		"id", id,
		"client", n.ClientName,
		"installments", n.TotalInstallments,
		"amount_cents", n.InstallmentAmount.Cents)
	c.afterMutation(ctx)
	return id, nil
}

// MarkPaid settles the next installment of agreement id and refreshes the collection.
func (c *Coordinator) MarkPaid(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("mark paid: %w", ledger.ErrNotFound)
	}
	if err := c.store.MarkPaid(ctx, id); err != nil {
		return fmt.Errorf("mark paid %s: %w", id, err)
	}
	slog.InfoContext(ctx, "Marked installment paid", "id", id)
	c.afterMutation(ctx)
	return nil
}

func (c *Coordinator) afterMutation(ctx context.Context) {
	c.mu.Lock()
	c.epoch++
	c.mu.Unlock()
	if _, err := c.Refresh(ctx); err != nil {
		slog.WarnContext(ctx, "Refresh after mutation failed, keeping previous snapshot", "error", err)
	}
}

// DueList builds the worklist from the current snapshot.
func (c *Coordinator) DueList(today time.Time) []DueItem {
	return BuildDueList(c.Snapshot().Agreements, today)
}

// All annotates every agreement in the current snapshot with its schedule.
func (c *Coordinator) All(today time.Time) []DueItem {
	return EvaluateAll(c.Snapshot().Agreements, today)
}
