package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// RefresherConfig holds configuration for the periodic refresher
type RefresherConfig struct {
	// Interval is how often the ledger is refetched (default: 15m)
	Interval time.Duration
}

// DefaultRefresherConfig returns sensible defaults
func DefaultRefresherConfig() RefresherConfig {
	return RefresherConfig{Interval: 15 * time.Minute}
}

// Refresher periodically refreshes a Coordinator so the due list follows
// changes made to the ledger by other clients.
type Refresher struct {
	coordinator *Coordinator
	config      RefresherConfig

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewRefresher creates a new refresher
func NewRefresher(coordinator *Coordinator, config RefresherConfig) *Refresher {
	if config.Interval <= 0 {
		config.Interval = DefaultRefresherConfig().Interval
	}
	return &Refresher{coordinator: coordinator, config: config}
}

// Start begins the refresh loop. Returns an error if already running.
func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("refresher is already running")
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	stopCh, doneCh := r.stopCh, r.doneCh
	r.mu.Unlock()

	go r.runLoop(ctx, stopCh, doneCh)

	slog.InfoContext(ctx, "Refresher started", "interval", r.config.Interval)
	return nil
}

// Stop gracefully stops the refresher and waits for the loop to exit.
func (r *Refresher) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	stopCh, doneCh := r.stopCh, r.doneCh
	r.running = false
	r.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Refresher stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Refresher stop timed out")
		return ctx.Err()
	}
}

// IsRunning returns whether the refresher is currently running
func (r *Refresher) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Refresher) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	// Refresh immediately on startup
	r.refresh(ctx)

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

func (r *Refresher) refresh(ctx context.Context) {
	if _, err := r.coordinator.Refresh(ctx); err != nil {
		slog.WarnContext(ctx, "Periodic refresh failed", "error", err)
	}
}
