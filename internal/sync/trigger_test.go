package sync

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repwise/repwise-app/internal/domain"
	"repwise/repwise-app/internal/localdb"
	"repwise/repwise-app/internal/repository/sqlite"
)

func newTriggerFixture(t *testing.T, debounce time.Duration, onResult func(*domain.SyncResult)) (*localdb.Store, *fakeRPC, *Trigger) {
	t.Helper()
	store, err := localdb.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	rpc := &fakeRPC{}
	engine := NewEngine(store, sqlite.NewSyncStateRepository(store), rpc)
	trigger := NewTrigger(engine, debounce, onResult)
	t.Cleanup(trigger.Stop)
	return store, rpc, trigger
}

func insertPlan(t *testing.T, store *localdb.Store, id string) {
	t.Helper()
	err := store.Batch(context.Background(), localdb.WriteOp{
		Table: domain.TableWorkoutPlans,
		Query: "INSERT INTO workout_plans (id, user_id, name, created_at, updated_at) VALUES (?, ?, ?, 10, 10)",
		Args:  []any{id, "u1", "Plan"},
	})
	require.NoError(t, err)
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestTrigger_DebouncesBurstIntoOneSync(t *testing.T) {
	results := make(chan *domain.SyncResult, 4)
	store, rpc, trigger := newTriggerFixture(t, 50*time.Millisecond, func(r *domain.SyncResult) {
		results <- r
	})
	trigger.Start(store.Hub())

	// A burst of writes inside the window coalesces into a single cycle.
	insertPlan(t, store, "p1")
	insertPlan(t, store, "p2")
	insertPlan(t, store, "p3")

	select {
	case r := <-results:
		require.True(t, r.Success, "errors: %v", r.Errors)
		assert.Equal(t, 3, r.PushedRecords)
	case <-time.After(2 * time.Second):
		t.Fatal("debounced sync never fired")
	}
	assert.Equal(t, 1, rpc.pushCalls)
}

func TestTrigger_EachChangeRestartsTheWindow(t *testing.T) {
	store, rpc, trigger := newTriggerFixture(t, 80*time.Millisecond, nil)
	trigger.Start(store.Hub())

	insertPlan(t, store, "p1")
	time.Sleep(40 * time.Millisecond)
	// Still inside the window; this write restarts it.
	insertPlan(t, store, "p2")
	time.Sleep(40 * time.Millisecond)
	assert.Zero(t, rpc.pullCalls, "sync must not fire while changes keep arriving")

	waitFor(t, 2*time.Second, func() bool { return rpc.pushCalls >= 1 })
	assert.Equal(t, 1, rpc.pushCalls)
}

func TestTrigger_SyncNowBypassesDebounce(t *testing.T) {
	store, rpc, trigger := newTriggerFixture(t, time.Hour, nil)
	trigger.Start(store.Hub())

	insertPlan(t, store, "p1")

	result := trigger.SyncNow(context.Background())
	require.True(t, result.Success, "errors: %v", result.Errors)
	assert.Equal(t, 1, result.PushedRecords)
	assert.Equal(t, 1, rpc.pushCalls)

	// The pending hour-long debounce was cancelled by the manual run.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, rpc.pullCalls)
}

func TestTrigger_StopCancelsPendingRun(t *testing.T) {
	store, rpc, trigger := newTriggerFixture(t, 50*time.Millisecond, nil)
	trigger.Start(store.Hub())

	insertPlan(t, store, "p1")
	trigger.Stop()

	time.Sleep(150 * time.Millisecond)
	assert.Zero(t, rpc.pullCalls)
}

func TestTrigger_IgnoresUnsyncedTables(t *testing.T) {
	store, rpc, trigger := newTriggerFixture(t, 30*time.Millisecond, nil)
	trigger.Start(store.Hub())

	// The catalog is not a synced table; seeding it must not schedule a sync.
	err := store.Batch(context.Background(), localdb.WriteOp{
		Table: "exercises",
		Query: "INSERT INTO exercises (id, name) VALUES (?, ?)",
		Args:  []any{"e1", "Bench"},
	})
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, rpc.pullCalls)
}
