package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"repwise/repwise-app/internal/domain"
	"repwise/repwise-app/internal/repository"
)

// mongoSyncRepository implements repository.ServerSyncRepository. One
// collection per synced table; documents keep the client's snake_case wire
// fields, keyed by the client-generated row UUID as _id, plus user_id, a
// server_updated_at feed cursor and a deleted tombstone flag.
type mongoSyncRepository struct {
	db *mongo.Database
}

// NewMongoSyncRepository creates a new instance of mongoSyncRepository.
func NewMongoSyncRepository(db *mongo.Database) repository.ServerSyncRepository {
	return &mongoSyncRepository{db: db}
}

// ApplyPush merges one device's delta. Upserts are idempotent by row ID and
// resolved last-write-wins on the client's updated_at: a pushed row older
// than the stored one is dropped silently. Deletes always win. Each stored
// row remembers the pushing device's sourceID so ChangesSince can keep a
// device's own writes out of its pull feed.
func (r *mongoSyncRepository) ApplyPush(ctx context.Context, userID, sourceID string, changes domain.ChangeSet) error {
	now := time.Now().UnixMilli()

	for _, table := range domain.SyncedTables {
		tc, ok := changes[table]
		if !ok || tc.IsEmpty() {
			continue
		}
		coll := r.db.Collection(table)

		for _, record := range append(append([]domain.RawRecord{}, tc.Created...), tc.Updated...) {
			if err := r.upsertRecord(ctx, coll, userID, sourceID, table, record, now); err != nil {
				return err
			}
		}

		for _, id := range tc.Deleted {
			filter := bson.M{"_id": id, "user_id": userID}
			update := bson.M{"$set": bson.M{
				"deleted":           true,
				"source_id":         sourceID,
				"server_updated_at": now,
			}}
			// Upsert so a delete of a row the server never saw still leaves
			// a tombstone for the user's other devices.
			if _, err := coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
				return fmt.Errorf("failed to apply delete %s/%s: %w", table, id, err)
			}
		}
	}
	return nil
}

func (r *mongoSyncRepository) upsertRecord(ctx context.Context, coll *mongo.Collection, userID, sourceID, table string, record domain.RawRecord, now int64) error {
	id, _ := record["id"].(string)
	if id == "" {
		return fmt.Errorf("pushed %s record without an id", table)
	}

	doc := bson.M{}
	for k, v := range record {
		if k == "id" {
			continue
		}
		doc[k] = v
	}
	doc["user_id"] = userID
	doc["source_id"] = sourceID
	doc["deleted"] = false
	doc["server_updated_at"] = now

	// Match only when the stored row is not newer; a duplicate-key error on
	// the upsert means a newer version exists and this write lost the race.
	filter := upsertFilter(id, userID, asInt64(record["updated_at"]))
	_, err := coll.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil // Stored row is newer, last write wins
		}
		return fmt.Errorf("failed to upsert %s/%s: %w", table, id, err)
	}
	return nil
}

// ChangesSince returns everything of the user's that changed server-side in
// the window (since, now], plus the new watermark. Tombstoned rows come back
// as bare deleted IDs. Rows last written by sourceID are excluded: a device
// never needs its own pushes echoed back, and the echo would race any edit
// made on the device between the push and the next pull.
func (r *mongoSyncRepository) ChangesSince(ctx context.Context, userID string, since int64, sourceID string) (domain.ChangeSet, int64, error) {
	// Capture the watermark before reading so a write landing mid-query is
	// never lost; it simply falls into the next window.
	now := time.Now().UnixMilli()
	changes := domain.ChangeSet{}

	for _, table := range domain.SyncedTables {
		coll := r.db.Collection(table)
		filter := changesFilter(userID, since, now, sourceID)

		cursor, err := coll.Find(ctx, filter)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to query %s changes: %w", table, err)
		}

		var tc domain.TableChanges
		for cursor.Next(ctx) {
			var doc bson.M
			if err := cursor.Decode(&doc); err != nil {
				cursor.Close(ctx)
				return nil, 0, fmt.Errorf("failed to decode %s change: %w", table, err)
			}
			id, _ := doc["_id"].(string)
			if deleted, _ := doc["deleted"].(bool); deleted {
				tc.Deleted = append(tc.Deleted, id)
				continue
			}
			tc.Updated = append(tc.Updated, wireRecord(id, doc))
		}
		if err := cursor.Err(); err != nil {
			cursor.Close(ctx)
			return nil, 0, fmt.Errorf("failed to iterate %s changes: %w", table, err)
		}
		cursor.Close(ctx)

		if !tc.IsEmpty() {
			changes[table] = tc
		}
	}
	return changes, now, nil
}

// upsertFilter guards the push upsert: the stored row must not carry a newer
// updated_at. Rows missing the field entirely (legacy tombstones) also match.
func upsertFilter(id, userID string, updatedAt int64) bson.M {
	return bson.M{
		"_id":     id,
		"user_id": userID,
		"$or": []bson.M{
			{"updated_at": bson.M{"$lte": updatedAt}},
			{"updated_at": bson.M{"$exists": false}},
		},
	}
}

// changesFilter selects the user's rows in the (since, now] window, skipping
// rows the asking device pushed itself.
func changesFilter(userID string, since, now int64, sourceID string) bson.M {
	return bson.M{
		"user_id":           userID,
		"server_updated_at": bson.M{"$gt": since, "$lte": now},
		"source_id":         bson.M{"$ne": sourceID},
	}
}

// wireRecord strips server-only fields and restores the client's id column.
// user_id stays: it doubles as a wire column on the tables that carry one,
// and clients ignore it elsewhere.
func wireRecord(id string, doc bson.M) domain.RawRecord {
	record := domain.RawRecord{"id": id}
	for k, v := range doc {
		switch k {
		case "_id", "deleted", "source_id", "server_updated_at":
			continue
		}
		record[k] = v
	}
	return record
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

// EnsureSyncIndexes creates the per-table feed indexes. Call once at startup.
func EnsureSyncIndexes(ctx context.Context, db *mongo.Database) {
	for _, table := range domain.SyncedTables {
		_, err := db.Collection(table).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "server_updated_at", Value: 1},
			},
		})
		if err != nil {
			// Index creation failure is not fatal at startup; the change
			// feed degrades to a collection scan until the next restart.
			_ = err
		}
	}
}
