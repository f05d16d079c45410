package sync

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repwise/repwise-app/internal/domain"
	"repwise/repwise-app/internal/localdb"
	"repwise/repwise-app/internal/repository"
	"repwise/repwise-app/internal/repository/sqlite"
)

// fakeRPC is a scriptable transport standing in for the HTTP client.
type fakeRPC struct {
	pullResponse *PullResponse
	pullErr      error
	pushErr      error

	pullCalls  int
	pushCalls  int
	pushedSets []domain.ChangeSet
	lastSource string
}

func (f *fakeRPC) Pull(ctx context.Context, lastPulledAt int64, sourceID string) (*PullResponse, error) {
	f.pullCalls++
	f.lastSource = sourceID
	if f.pullErr != nil {
		return nil, f.pullErr
	}
	if f.pullResponse != nil {
		return f.pullResponse, nil
	}
	return &PullResponse{Changes: domain.ChangeSet{}, Timestamp: 1000}, nil
}

func (f *fakeRPC) Push(ctx context.Context, changes domain.ChangeSet, lastPulledAt int64, sourceID string) error {
	f.pushCalls++
	f.pushedSets = append(f.pushedSets, changes)
	return f.pushErr
}

type engineFixture struct {
	store  *localdb.Store
	state  repository.SyncStateRepository
	rpc    *fakeRPC
	engine *Engine
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	store, err := localdb.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	rpc := &fakeRPC{}
	state := sqlite.NewSyncStateRepository(store)
	return &engineFixture{
		store:  store,
		state:  state,
		rpc:    rpc,
		engine: NewEngine(store, state, rpc),
	}
}

func (f *engineFixture) insertLocalPlan(t *testing.T, id string) {
	t.Helper()
	err := f.store.Batch(context.Background(), localdb.WriteOp{
		Table: domain.TableWorkoutPlans,
		Query: "INSERT INTO workout_plans (id, user_id, name, created_at, updated_at) VALUES (?, ?, ?, 10, 10)",
		Args:  []any{id, "u1", "Local Plan"},
	})
	require.NoError(t, err)
}

func (f *engineFixture) planStatus(t *testing.T, id string) string {
	t.Helper()
	var status string
	err := f.store.DB().QueryRow("SELECT _status FROM workout_plans WHERE id = ?", id).Scan(&status)
	require.NoError(t, err)
	return status
}

func TestSync_EmptyOnBothSides(t *testing.T) {
	f := newEngineFixture(t)

	result := f.engine.Sync(context.Background())
	require.True(t, result.Success, "errors: %v", result.Errors)
	assert.Zero(t, result.PulledRecords)
	assert.Zero(t, result.PushedRecords)
	assert.Equal(t, int64(1000), result.Timestamp)

	// Nothing to push means no push round trip at all.
	assert.Equal(t, 1, f.rpc.pullCalls)
	assert.Zero(t, f.rpc.pushCalls)
}

func TestSync_PushesLocalCreatesAndSettlesThem(t *testing.T) {
	f := newEngineFixture(t)
	f.insertLocalPlan(t, "p1")

	result := f.engine.Sync(context.Background())
	require.True(t, result.Success, "errors: %v", result.Errors)
	assert.Equal(t, 1, result.PushedRecords)

	require.Len(t, f.rpc.pushedSets, 1)
	tc := f.rpc.pushedSets[0][domain.TableWorkoutPlans]
	require.Len(t, tc.Created, 1)
	assert.Equal(t, "p1", tc.Created[0]["id"])

	// The acked row settles to synced and stops being a push candidate.
	assert.Equal(t, domain.RecordSynced, f.planStatus(t, "p1"))
	again := f.engine.Sync(context.Background())
	require.True(t, again.Success)
	assert.Zero(t, again.PushedRecords)
}

func TestSync_AppliesPulledChangesAndAdvancesWatermark(t *testing.T) {
	f := newEngineFixture(t)
	f.rpc.pullResponse = &PullResponse{
		Changes: domain.ChangeSet{
			domain.TableWorkoutPlans: {
				Updated: []domain.RawRecord{{
					"id": "remote-plan", "user_id": "u1", "name": "From Server",
					"is_active": 0, "created_at": int64(5), "updated_at": int64(5),
				}},
			},
		},
		Timestamp: 2222,
	}

	result := f.engine.Sync(context.Background())
	require.True(t, result.Success, "errors: %v", result.Errors)
	assert.Equal(t, 1, result.PulledRecords)
	assert.Equal(t, int64(2222), result.Timestamp)

	assert.Equal(t, domain.RecordSynced, f.planStatus(t, "remote-plan"))

	watermark, err := f.state.LastPulledAt(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2222), watermark)
}

func TestSync_PulledDeleteRemovesRowPhysically(t *testing.T) {
	f := newEngineFixture(t)
	f.insertLocalPlan(t, "p1")
	require.True(t, f.engine.Sync(context.Background()).Success)

	f.rpc.pullResponse = &PullResponse{
		Changes: domain.ChangeSet{
			domain.TableWorkoutPlans: {Deleted: []string{"p1"}},
		},
		Timestamp: 3000,
	}
	result := f.engine.Sync(context.Background())
	require.True(t, result.Success, "errors: %v", result.Errors)

	var n int
	require.NoError(t, f.store.DB().QueryRow("SELECT COUNT(*) FROM workout_plans WHERE id = 'p1'").Scan(&n))
	assert.Zero(t, n, "pull-applied tombstones delete physically")
}

func TestSync_PullFailureLeavesWatermarkAndLocalRows(t *testing.T) {
	f := newEngineFixture(t)
	f.insertLocalPlan(t, "p1")
	f.rpc.pullErr = errors.New("network down")

	result := f.engine.Sync(context.Background())
	require.False(t, result.Success)
	require.NotEmpty(t, result.Errors)
	assert.Zero(t, result.Timestamp)
	assert.Zero(t, f.rpc.pushCalls)

	// The local delta survives for the next attempt.
	assert.Equal(t, domain.RecordCreated, f.planStatus(t, "p1"))
	watermark, err := f.state.LastPulledAt(context.Background())
	require.NoError(t, err)
	assert.Zero(t, watermark)
}

func TestSync_FailureMessagesAreUserFacing(t *testing.T) {
	f := newEngineFixture(t)
	f.rpc.pullErr = errors.New("network down")

	result := f.engine.Sync(context.Background())
	require.False(t, result.Success)
	require.NotEmpty(t, result.Errors)

	// What the UI shows must reassure, never expose the raw cause.
	assert.Contains(t, result.Errors[0], "safe locally")
	assert.NotContains(t, result.Errors[0], "network down")
}

func TestSync_EchoedPullDoesNotRollBackLocalEdit(t *testing.T) {
	f := newEngineFixture(t)
	f.insertLocalPlan(t, "p1")
	require.True(t, f.engine.Sync(context.Background()).Success)

	// Edit the row after the push settled it.
	err := f.store.Batch(context.Background(), localdb.WriteOp{
		Table: domain.TableWorkoutPlans,
		Query: "UPDATE workout_plans SET name = 'Edited After Push', updated_at = 20, _status = 'updated' WHERE id = ?",
		Args:  []any{"p1"},
	})
	require.NoError(t, err)

	// The server echoes the previously pushed version back.
	f.rpc.pullResponse = &PullResponse{
		Changes: domain.ChangeSet{
			domain.TableWorkoutPlans: {
				Updated: []domain.RawRecord{{
					"id": "p1", "user_id": "u1", "name": "Local Plan",
					"is_active": 0, "created_at": int64(10), "updated_at": int64(10),
				}},
			},
		},
		Timestamp: 4000,
	}
	result := f.engine.Sync(context.Background())
	require.True(t, result.Success, "errors: %v", result.Errors)

	// The newer local edit survives and was pushed, not rolled back.
	var name string
	require.NoError(t, f.store.DB().QueryRow("SELECT name FROM workout_plans WHERE id = 'p1'").Scan(&name))
	assert.Equal(t, "Edited After Push", name)
	assert.Equal(t, 1, result.PushedRecords)
	assert.Equal(t, domain.RecordSynced, f.planStatus(t, "p1"))
}

func TestSync_PushFailureKeepsRowsUnsynced(t *testing.T) {
	f := newEngineFixture(t)
	f.insertLocalPlan(t, "p1")
	f.rpc.pushErr = errors.New("server exploded")

	result := f.engine.Sync(context.Background())
	require.False(t, result.Success)

	// The pull half still completed; the row stays dirty for a retry.
	assert.Equal(t, int64(1000), result.Timestamp)
	assert.Equal(t, domain.RecordCreated, f.planStatus(t, "p1"))

	f.rpc.pushErr = nil
	retry := f.engine.Sync(context.Background())
	require.True(t, retry.Success, "errors: %v", retry.Errors)
	assert.Equal(t, 1, retry.PushedRecords)
}

func TestSync_TombstoneForNeverSyncedRowStillPushes(t *testing.T) {
	f := newEngineFixture(t)
	f.insertLocalPlan(t, "p1")

	// Soft-delete before the row ever reached the server.
	err := f.store.Batch(context.Background(), localdb.WriteOp{
		Table: domain.TableWorkoutPlans,
		Query: "UPDATE workout_plans SET _status = 'deleted' WHERE id = ?",
		Args:  []any{"p1"},
	})
	require.NoError(t, err)

	result := f.engine.Sync(context.Background())
	require.True(t, result.Success, "errors: %v", result.Errors)

	require.Len(t, f.rpc.pushedSets, 1)
	tc := f.rpc.pushedSets[0][domain.TableWorkoutPlans]
	assert.Empty(t, tc.Created)
	assert.Equal(t, []string{"p1"}, tc.Deleted)

	// The acked tombstone is purged locally.
	var n int
	require.NoError(t, f.store.DB().QueryRow("SELECT COUNT(*) FROM workout_plans").Scan(&n))
	assert.Zero(t, n)
}

func TestSync_SourceIDIsStableAcrossCycles(t *testing.T) {
	f := newEngineFixture(t)

	require.True(t, f.engine.Sync(context.Background()).Success)
	first := f.rpc.lastSource
	require.NotEmpty(t, first)

	require.True(t, f.engine.Sync(context.Background()).Success)
	assert.Equal(t, first, f.rpc.lastSource)
}
