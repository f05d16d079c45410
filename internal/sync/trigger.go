package sync

import (
	"context"
	"log/slog"
	gosync "sync"
	"time"

	"repwise/repwise-app/internal/domain"
	"repwise/repwise-app/internal/localdb"
)

// DefaultDebounce is how long the trigger waits after the last local change
// before starting an automatic sync. Every further change restarts the wait,
// so a burst of edits becomes one sync.
const DefaultDebounce = 3 * time.Second

// Trigger subscribes to the store's change notifications and schedules
// debounced background syncs. Manual syncs bypass the debounce entirely.
type Trigger struct {
	engine   *Engine
	debounce time.Duration
	logger   *slog.Logger
	onResult func(*domain.SyncResult)

	mu          gosync.Mutex
	timer       *time.Timer
	unsubscribe func()
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewTrigger creates a trigger over the engine. onResult, when non-nil, is
// called with every background sync outcome; debounce <= 0 falls back to
// DefaultDebounce.
func NewTrigger(engine *Engine, debounce time.Duration, onResult func(*domain.SyncResult)) *Trigger {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Trigger{
		engine:   engine,
		debounce: debounce,
		logger:   slog.Default(),
		onResult: onResult,
	}
}

// Start begins watching the synced tables. Stop releases the subscription.
func (t *Trigger) Start(hub *localdb.Hub) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.unsubscribe != nil {
		return
	}
	t.ctx, t.cancel = context.WithCancel(context.Background())
	t.unsubscribe = hub.Subscribe(domain.SyncedTables, func(string) {
		t.schedule()
	})
}

// Stop cancels any pending debounce and drops the subscription. An in-flight
// sync cycle finishes on its own.
func (t *Trigger) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.unsubscribe == nil {
		return
	}
	t.unsubscribe()
	t.unsubscribe = nil
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.cancel()
}

// SyncNow runs a sync cycle immediately, cancelling any pending debounced
// run; the manual cycle covers whatever the pending one would have.
func (t *Trigger) SyncNow(ctx context.Context) *domain.SyncResult {
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()
	return t.engine.Sync(ctx)
}

// schedule restarts the debounce window.
func (t *Trigger) schedule() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.unsubscribe == nil {
		return
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	ctx := t.ctx
	t.timer = time.AfterFunc(t.debounce, func() {
		t.mu.Lock()
		t.timer = nil
		t.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		result := t.engine.Sync(ctx)
		if !result.Success {
			t.logger.Warn("background sync failed", "errors", result.Errors)
		}
		if t.onResult != nil {
			t.onResult(result)
		}
	})
}
