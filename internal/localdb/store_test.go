package localdb

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func insertPlanOp(id, userID, name string) WriteOp {
	return WriteOp{
		Table: "workout_plans",
		Query: "INSERT INTO workout_plans (id, user_id, name, created_at, updated_at) VALUES (?, ?, ?, 0, 0)",
		Args:  []any{id, userID, name},
	}
}

func countRows(t *testing.T, store *Store, table string) int {
	t.Helper()
	var n int
	err := store.DB().QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n)
	require.NoError(t, err)
	return n
}

func TestOpen_MigratesToCurrentVersion(t *testing.T) {
	store := openTestStore(t)

	version, err := store.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, currentSchemaVersion, version)
}

func TestOpen_ReopenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Batch(context.Background(), insertPlanOp("p1", "u1", "Push Pull Legs")))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, 1, countRows(t, reopened, "workout_plans"))
}

func TestBatch_AllOrNothing(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Batch(ctx, insertPlanOp("p1", "u1", "A")))

	// Second op violates the primary key; the first must roll back with it.
	err := store.Batch(ctx,
		insertPlanOp("p2", "u1", "B"),
		insertPlanOp("p1", "u1", "dup"),
	)
	require.Error(t, err)

	assert.Equal(t, 1, countRows(t, store, "workout_plans"))
}

func TestBatch_EmptyIsNoOp(t *testing.T) {
	store := openTestStore(t)

	notified := 0
	unsub := store.Hub().Subscribe(nil, func(string) { notified++ })
	defer unsub()

	require.NoError(t, store.Batch(context.Background()))
	assert.Zero(t, notified)
}

func TestBatch_OneNotificationPerTable(t *testing.T) {
	store := openTestStore(t)

	var mu sync.Mutex
	counts := map[string]int{}
	unsub := store.Hub().Subscribe(nil, func(table string) {
		mu.Lock()
		counts[table]++
		mu.Unlock()
	})
	defer unsub()

	dayOp := WriteOp{
		Table: "plan_days",
		Query: "INSERT INTO plan_days (id, plan_id, name, created_at, updated_at) VALUES (?, ?, ?, 0, 0)",
		Args:  []any{"d1", "p1", "Day 1"},
	}
	err := store.Batch(context.Background(),
		insertPlanOp("p1", "u1", "A"),
		insertPlanOp("p2", "u1", "B"),
		insertPlanOp("p3", "u1", "C"),
		dayOp,
	)
	require.NoError(t, err)

	// Three plan inserts collapse into one notification.
	assert.Equal(t, map[string]int{"workout_plans": 1, "plan_days": 1}, counts)
}

func TestBatch_NoNotificationOnFailure(t *testing.T) {
	store := openTestStore(t)

	notified := 0
	unsub := store.Hub().Subscribe([]string{"workout_plans"}, func(string) { notified++ })
	defer unsub()

	require.NoError(t, store.Batch(context.Background(), insertPlanOp("p1", "u1", "A")))
	require.Error(t, store.Batch(context.Background(), insertPlanOp("p1", "u1", "dup")))

	assert.Equal(t, 1, notified)
}

func TestHub_SubscribeFiltersTables(t *testing.T) {
	hub := NewHub()

	var got []string
	unsub := hub.Subscribe([]string{"workouts"}, func(table string) {
		got = append(got, table)
	})
	defer unsub()

	hub.Notify("workout_plans", "workouts", "plan_days")
	assert.Equal(t, []string{"workouts"}, got)
}

func TestHub_UnsubscribeStopsDelivery(t *testing.T) {
	hub := NewHub()

	calls := 0
	unsub := hub.Subscribe(nil, func(string) { calls++ })

	hub.Notify("workouts")
	unsub()
	hub.Notify("workouts")

	assert.Equal(t, 1, calls)
}

func TestWrite_SerializesConcurrentBatches(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	const writers = 8
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			op := insertPlanOp(fmt.Sprintf("p%d", i), "u1", fmt.Sprintf("Plan %d", i))
			assert.NoError(t, store.Batch(ctx, op))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, writers, countRows(t, store, "workout_plans"))
}

func TestWrite_SubscriberSeesOwnWriteOnCallback(t *testing.T) {
	store := openTestStore(t)

	seen := -1
	unsub := store.Hub().Subscribe([]string{"workout_plans"}, func(string) {
		seen = countRows(t, store, "workout_plans")
	})
	defer unsub()

	require.NoError(t, store.Batch(context.Background(), insertPlanOp("p1", "u1", "A")))
	assert.Equal(t, 1, seen)
}
