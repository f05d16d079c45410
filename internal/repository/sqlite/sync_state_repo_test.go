package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repwise/repwise-app/internal/domain"
	"repwise/repwise-app/internal/localdb"
	"repwise/repwise-app/internal/repository"
)

func openTestStore(t *testing.T) *localdb.Store {
	t.Helper()
	store, err := localdb.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testPlan(id string) *domain.WorkoutPlan {
	now := time.UnixMilli(1000).UTC()
	return &domain.WorkoutPlan{
		ID:        id,
		UserID:    "u1",
		Name:      "Test Plan",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func planStatus(t *testing.T, store *localdb.Store, id string) string {
	t.Helper()
	var status string
	err := store.DB().QueryRow("SELECT _status FROM workout_plans WHERE id = ?", id).Scan(&status)
	require.NoError(t, err)
	return status
}

func TestPlanRepository_SoftDeleteHidesFromReads(t *testing.T) {
	store := openTestStore(t)
	repo := NewPlanRepository(store)
	ctx := context.Background()

	require.NoError(t, store.Batch(ctx, repo.PrepareCreate(testPlan("p1"))))
	require.NoError(t, store.Batch(ctx, repo.PrepareSoftDelete("p1")))

	_, err := repo.Find(ctx, "p1")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	plans, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, plans)

	// The tombstone row itself survives for the sync engine.
	assert.Equal(t, domain.RecordDeleted, planStatus(t, store, "p1"))
}

func TestPlanRepository_UpdatePreservesCreatedStatus(t *testing.T) {
	store := openTestStore(t)
	repo := NewPlanRepository(store)
	ctx := context.Background()

	plan := testPlan("p1")
	require.NoError(t, store.Batch(ctx, repo.PrepareCreate(plan)))

	// Editing a never-pushed row keeps it a 'created' delta.
	plan.Name = "Renamed"
	require.NoError(t, store.Batch(ctx, repo.PrepareUpdate(plan)))
	assert.Equal(t, domain.RecordCreated, planStatus(t, store, "p1"))
}

func TestPlanRepository_UpdateDoesNotResurrectTombstone(t *testing.T) {
	store := openTestStore(t)
	repo := NewPlanRepository(store)
	ctx := context.Background()

	plan := testPlan("p1")
	require.NoError(t, store.Batch(ctx, repo.PrepareCreate(plan)))
	require.NoError(t, store.Batch(ctx, repo.PrepareSoftDelete("p1")))

	require.NoError(t, store.Batch(ctx, repo.PrepareUpdate(plan)))
	assert.Equal(t, domain.RecordDeleted, planStatus(t, store, "p1"))
}

func TestSyncState_WatermarkRoundTrip(t *testing.T) {
	store := openTestStore(t)
	state := NewSyncStateRepository(store)
	ctx := context.Background()

	ts, err := state.LastPulledAt(ctx)
	require.NoError(t, err)
	assert.Zero(t, ts, "fresh store starts at watermark zero")

	require.NoError(t, state.SetLastPulledAt(ctx, 4242))
	ts, err = state.LastPulledAt(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4242), ts)
}

func TestSyncState_CollectUnsyncedClassifiesByStatus(t *testing.T) {
	store := openTestStore(t)
	state := NewSyncStateRepository(store)
	repo := NewPlanRepository(store)
	ctx := context.Background()

	created := testPlan("p-created")
	require.NoError(t, store.Batch(ctx, repo.PrepareCreate(created)))

	// A synced row that was then edited counts as updated.
	updated := testPlan("p-updated")
	require.NoError(t, store.Batch(ctx, repo.PrepareCreate(updated)))
	_, err := store.DB().Exec("UPDATE workout_plans SET _status = 'synced' WHERE id = 'p-updated'")
	require.NoError(t, err)
	updated.Name = "Edited"
	require.NoError(t, store.Batch(ctx, repo.PrepareUpdate(updated)))

	deleted := testPlan("p-deleted")
	require.NoError(t, store.Batch(ctx, repo.PrepareCreate(deleted)))
	require.NoError(t, store.Batch(ctx, repo.PrepareSoftDelete("p-deleted")))

	changes, err := state.CollectUnsynced(ctx)
	require.NoError(t, err)

	tc := changes[domain.TableWorkoutPlans]
	require.Len(t, tc.Created, 1)
	assert.Equal(t, "p-created", tc.Created[0]["id"])
	require.Len(t, tc.Updated, 1)
	assert.Equal(t, "p-updated", tc.Updated[0]["id"])
	assert.Equal(t, []string{"p-deleted"}, tc.Deleted)

	// The _status marker never crosses the wire.
	_, hasStatus := tc.Created[0]["_status"]
	assert.False(t, hasStatus)
}

func TestSyncState_MarkSyncedSkipsRowsEditedMidPush(t *testing.T) {
	store := openTestStore(t)
	state := NewSyncStateRepository(store)
	repo := NewPlanRepository(store)
	ctx := context.Background()

	require.NoError(t, store.Batch(ctx, repo.PrepareCreate(testPlan("p1"))))
	collected, err := state.CollectUnsynced(ctx)
	require.NoError(t, err)

	// The user edits the row while the push is in flight.
	time.Sleep(2 * time.Millisecond) // Ensure a later updated_at
	edited := testPlan("p1")
	edited.Name = "Edited Mid Push"
	require.NoError(t, store.Batch(ctx, repo.PrepareUpdate(edited)))

	require.NoError(t, state.MarkSynced(ctx, collected))

	// The guard on updated_at keeps the re-edited row dirty.
	assert.Equal(t, domain.RecordCreated, planStatus(t, store, "p1"))
}

func TestSyncState_ApplyPullUpsertsAsSynced(t *testing.T) {
	store := openTestStore(t)
	state := NewSyncStateRepository(store)
	ctx := context.Background()

	changes := domain.ChangeSet{
		domain.TableWorkoutPlans: {
			Created: []domain.RawRecord{{
				"id": "remote", "user_id": "u1", "name": "Remote Plan",
				"is_active": 1, "created_at": int64(1), "updated_at": int64(1),
			}},
		},
	}
	require.NoError(t, state.ApplyPull(ctx, changes))
	assert.Equal(t, domain.RecordSynced, planStatus(t, store, "remote"))

	// Re-applying the same record is an idempotent upsert, not a conflict.
	require.NoError(t, state.ApplyPull(ctx, changes))
	var n int
	require.NoError(t, store.DB().QueryRow("SELECT COUNT(*) FROM workout_plans").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestSyncState_ApplyPullKeepsNewerLocalEdit(t *testing.T) {
	store := openTestStore(t)
	state := NewSyncStateRepository(store)
	ctx := context.Background()

	// A dirty row edited after the last push, newer than anything pulled.
	_, err := store.DB().Exec(`
		INSERT INTO workout_plans (id, user_id, name, is_active, created_at, updated_at, _status)
		VALUES ('p1', 'u1', 'New Name', 0, 10, 20, 'updated')
	`)
	require.NoError(t, err)

	stale := domain.ChangeSet{
		domain.TableWorkoutPlans: {
			Updated: []domain.RawRecord{{
				"id": "p1", "user_id": "u1", "name": "Old Name",
				"is_active": 0, "created_at": int64(10), "updated_at": int64(10),
			}},
		},
	}
	require.NoError(t, state.ApplyPull(ctx, stale))

	var name, status string
	require.NoError(t, store.DB().QueryRow(
		"SELECT name, _status FROM workout_plans WHERE id = 'p1'").Scan(&name, &status))
	assert.Equal(t, "New Name", name, "stale pulled row must not roll back the local edit")
	assert.Equal(t, domain.RecordUpdated, status, "the edit stays dirty and pushes next cycle")

	// A genuinely newer remote version still wins over the dirty row.
	newer := domain.ChangeSet{
		domain.TableWorkoutPlans: {
			Updated: []domain.RawRecord{{
				"id": "p1", "user_id": "u1", "name": "Newer Remote",
				"is_active": 0, "created_at": int64(10), "updated_at": int64(30),
			}},
		},
	}
	require.NoError(t, state.ApplyPull(ctx, newer))
	require.NoError(t, store.DB().QueryRow(
		"SELECT name, _status FROM workout_plans WHERE id = 'p1'").Scan(&name, &status))
	assert.Equal(t, "Newer Remote", name)
	assert.Equal(t, domain.RecordSynced, status)
}

func TestSyncState_ApplyPullParentFirstAcrossTables(t *testing.T) {
	store := openTestStore(t)
	state := NewSyncStateRepository(store)
	ctx := context.Background()

	// Child listed before parent in the map; apply order must still be
	// parent-first per SyncedTables.
	changes := domain.ChangeSet{
		domain.TablePlanDays: {
			Created: []domain.RawRecord{{
				"id": "d1", "plan_id": "p1", "name": "Day 1", "order_index": 0,
				"created_at": int64(1), "updated_at": int64(1),
			}},
		},
		domain.TableWorkoutPlans: {
			Created: []domain.RawRecord{{
				"id": "p1", "user_id": "u1", "name": "Plan", "is_active": 0,
				"created_at": int64(1), "updated_at": int64(1),
			}},
		},
	}
	require.NoError(t, state.ApplyPull(ctx, changes))

	dayRepo := NewPlanDayRepository(store)
	day, err := dayRepo.Find(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "p1", day.PlanID)
}
