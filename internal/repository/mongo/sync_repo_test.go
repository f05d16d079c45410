package mongo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"repwise/repwise-app/internal/domain"
)

func pushedPlan(id string, updatedAt int64) domain.RawRecord {
	return domain.RawRecord{
		"id": id, "user_id": "u1", "name": "Plan",
		"is_active": 1, "created_at": int64(1), "updated_at": updatedAt,
	}
}

func emptyCursor(table string) bson.D {
	return mtest.CreateCursorResponse(0, "testdb."+table, mtest.FirstBatch)
}

func TestApplyPush_UpsertIsGuardedByUpdatedAt(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("guarded upsert", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := NewMongoSyncRepository(mt.DB)

		changes := domain.ChangeSet{
			domain.TableWorkoutPlans: {Created: []domain.RawRecord{pushedPlan("p1", 10)}},
		}
		require.NoError(mt, repo.ApplyPush(context.Background(), "u1", "device-a", changes))

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "update", evt.CommandName)

		update := evt.Command.Lookup("updates").Array().Index(0).Value().Document()
		assert.True(mt, update.Lookup("upsert").Boolean())

		filter := update.Lookup("q").Document()
		assert.Equal(mt, "p1", filter.Lookup("_id").StringValue())
		assert.Equal(mt, "u1", filter.Lookup("user_id").StringValue())

		// Only a stored row at most as new as the push may be replaced.
		lte := filter.Lookup("$or").Array().Index(0).Value().Document().
			Lookup("updated_at").Document().Lookup("$lte")
		assert.Equal(mt, int64(10), lte.Int64())

		// The pushing device is recorded on the stored row.
		doc := update.Lookup("u").Document().Lookup("$set").Document()
		assert.Equal(mt, "device-a", doc.Lookup("source_id").StringValue())
	})
}

func TestApplyPush_RetryAfterLostAckIsIdempotent(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("double push", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(), mtest.CreateSuccessResponse())
		repo := NewMongoSyncRepository(mt.DB)

		changes := domain.ChangeSet{
			domain.TableWorkoutPlans: {Created: []domain.RawRecord{pushedPlan("p1", 10)}},
		}
		// A device retrying an acked-but-lost push resends the same set; both
		// merges must succeed and target the same row.
		require.NoError(mt, repo.ApplyPush(context.Background(), "u1", "device-a", changes))
		require.NoError(mt, repo.ApplyPush(context.Background(), "u1", "device-a", changes))

		first := mt.GetStartedEvent()
		second := mt.GetStartedEvent()
		require.NotNil(mt, second)
		assert.Equal(mt, first.Command.Lookup("updates").String(),
			second.Command.Lookup("updates").String())
	})
}

func TestApplyPush_OlderThanStoredRowIsDropped(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("lost race", func(mt *mtest.T) {
		// The guard filter misses the newer stored row, so the upsert trips
		// the _id unique index instead. That is a lost race, not an error.
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index: 0, Code: 11000, Message: "E11000 duplicate key error",
		}))
		repo := NewMongoSyncRepository(mt.DB)

		changes := domain.ChangeSet{
			domain.TableWorkoutPlans: {Updated: []domain.RawRecord{pushedPlan("p1", 5)}},
		}
		require.NoError(mt, repo.ApplyPush(context.Background(), "u1", "device-a", changes))
	})
}

func TestChangesSince_ExcludesPushingDevice(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("feed filter", func(mt *mtest.T) {
		responses := []bson.D{
			mtest.CreateCursorResponse(0, "testdb."+domain.TableWorkoutPlans, mtest.FirstBatch,
				bson.D{
					{Key: "_id", Value: "from-other"}, {Key: "user_id", Value: "u1"},
					{Key: "name", Value: "From Other Device"},
					{Key: "source_id", Value: "device-b"}, {Key: "deleted", Value: false},
					{Key: "server_updated_at", Value: int64(50)}, {Key: "updated_at", Value: int64(50)},
				},
				bson.D{
					{Key: "_id", Value: "gone"}, {Key: "user_id", Value: "u1"},
					{Key: "source_id", Value: "device-b"}, {Key: "deleted", Value: true},
					{Key: "server_updated_at", Value: int64(60)},
				},
			),
		}
		for _, table := range domain.SyncedTables[1:] {
			responses = append(responses, emptyCursor(table))
		}
		mt.AddMockResponses(responses...)
		repo := NewMongoSyncRepository(mt.DB)

		changes, now, err := repo.ChangesSince(context.Background(), "u1", 0, "device-a")
		require.NoError(mt, err)
		assert.Positive(mt, now)

		tc := changes[domain.TableWorkoutPlans]
		require.Len(mt, tc.Updated, 1)
		assert.Equal(mt, "From Other Device", tc.Updated[0]["name"])
		assert.Equal(mt, []string{"gone"}, tc.Deleted)

		// Server-only bookkeeping never reaches the wire.
		_, hasSource := tc.Updated[0]["source_id"]
		assert.False(mt, hasSource)
		_, hasFeedCursor := tc.Updated[0]["server_updated_at"]
		assert.False(mt, hasFeedCursor)

		// The asking device's own pushes are filtered out server-side.
		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "find", evt.CommandName)
		filter := evt.Command.Lookup("filter").Document()
		assert.Equal(mt, "device-a",
			filter.Lookup("source_id").Document().Lookup("$ne").StringValue())
	})
}
