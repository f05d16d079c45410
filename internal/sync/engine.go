package sync

import (
	"context"
	"fmt"
	"log/slog"
	gosync "sync"

	"repwise/repwise-app/internal/domain"
	"repwise/repwise-app/internal/localdb"
	"repwise/repwise-app/internal/repository"
)

// MigrationActivationVersion is the local schema version this engine requires
// before it will talk to the server. A store file ahead of the running build
// (opened by a newer app version, then this one) must not sync rows the
// running build does not understand.
const MigrationActivationVersion = 2

// Engine runs one pull-apply-push cycle against the backend. Sync never
// panics the caller's flow: every failure lands in the SyncResult and the
// local store keeps the unsynced rows for the next attempt.
type Engine struct {
	store  *localdb.Store
	state  repository.SyncStateRepository
	client RPCClient
	logger *slog.Logger
	mu     gosync.Mutex // One sync cycle at a time
}

// NewEngine creates a sync engine over the local store.
func NewEngine(store *localdb.Store, state repository.SyncStateRepository, client RPCClient) *Engine {
	return &Engine{
		store:  store,
		state:  state,
		client: client,
		logger: slog.Default(),
	}
}

// Sync runs pull, apply, then push. Concurrent calls serialize; the second
// caller runs a fresh cycle after the first completes. The returned result is
// always non-nil and carries every error as a message — unsynced local rows
// stay on the device untouched, so a failed sync loses nothing.
func (e *Engine) Sync(ctx context.Context) *domain.SyncResult {
	e.mu.Lock()
	defer e.mu.Unlock()

	result := &domain.SyncResult{}

	version, err := e.store.SchemaVersion()
	if err != nil {
		return e.fail(result, fmt.Errorf("failed to read schema version: %w", err))
	}
	if version != MigrationActivationVersion {
		return e.fail(result, fmt.Errorf("local schema version %d does not match activation version %d; update the app before syncing", version, MigrationActivationVersion))
	}

	sourceID, err := e.state.SourceID(ctx)
	if err != nil {
		return e.fail(result, fmt.Errorf("failed to resolve source ID: %w", err))
	}

	// --- Pull ---
	watermark, err := e.state.LastPulledAt(ctx)
	if err != nil {
		return e.fail(result, fmt.Errorf("failed to read watermark: %w", err))
	}

	pull, err := e.client.Pull(ctx, watermark, sourceID)
	if err != nil {
		return e.fail(result, fmt.Errorf("pull failed: %w", err))
	}

	if !pull.Changes.IsEmpty() {
		if err := e.state.ApplyPull(ctx, pull.Changes); err != nil {
			return e.fail(result, fmt.Errorf("failed to apply pulled changes: %w", err))
		}
		result.PulledRecords = pull.Changes.RecordCount()
	}

	// The watermark only advances after the pulled delta is durably applied.
	if err := e.state.SetLastPulledAt(ctx, pull.Timestamp); err != nil {
		return e.fail(result, fmt.Errorf("failed to advance watermark: %w", err))
	}
	result.Timestamp = pull.Timestamp

	// --- Push ---
	unsynced, err := e.state.CollectUnsynced(ctx)
	if err != nil {
		return e.fail(result, fmt.Errorf("failed to collect unsynced rows: %w", err))
	}

	if !unsynced.IsEmpty() {
		if err := e.client.Push(ctx, unsynced, pull.Timestamp, sourceID); err != nil {
			// The pull half still succeeded; report the partial result.
			return e.fail(result, fmt.Errorf("push failed: %w", err))
		}
		if err := e.state.MarkSynced(ctx, unsynced); err != nil {
			// Server has the rows; they stay unsynced locally and the next
			// push repeats them. Pushes are idempotent by row ID, so the
			// retry is harmless.
			return e.fail(result, fmt.Errorf("failed to settle pushed rows: %w", err))
		}
		result.PushedRecords = unsynced.RecordCount()
	}

	result.Success = true
	e.logger.Info("sync completed", "pulled", result.PulledRecords, "pushed", result.PushedRecords)
	return result
}

// fail records one sync failure. What lands in the result is a classified
// Database error whose user-facing message asserts the data is safe locally;
// the raw cause stays in the log.
func (e *Engine) fail(result *domain.SyncResult, err error) *domain.SyncResult {
	derr := domain.NewDatabaseError(
		"Sync failed. Your data is safe locally and will sync on the next attempt.",
		err.Error(), err)
	e.logger.Warn("sync failed, local changes are kept on device", "error", derr.Internal)
	result.Success = false
	result.Errors = append(result.Errors, derr.Message)
	return result
}
