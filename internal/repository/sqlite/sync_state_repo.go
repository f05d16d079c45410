package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"repwise/repwise-app/internal/domain"
	"repwise/repwise-app/internal/localdb"
	"repwise/repwise-app/internal/repository"
)

// Sync state keys in the sync_state table.
const (
	stateLastPulledAt = "last_pulled_at"
	stateSourceID     = "source_id"
)

// syncColumns lists each synced table's wire columns. The _status marker is
// local bookkeeping and never crosses the wire.
var syncColumns = map[string][]string{
	domain.TableWorkoutPlans:     {"id", "user_id", "name", "is_active", "cover_image_url", "created_at", "updated_at"},
	domain.TablePlanDays:         {"id", "plan_id", "name", "day_of_week", "order_index", "created_at", "updated_at"},
	domain.TablePlanDayExercises: {"id", "plan_day_id", "exercise_id", "order_index", "target_sets", "target_reps", "rest_timer_seconds", "notes", "created_at", "updated_at"},
	domain.TableWorkouts:         {"id", "user_id", "plan_id", "plan_day_id", "started_at", "completed_at", "duration_seconds", "created_at", "updated_at"},
	domain.TableWorkoutExercises: {"id", "workout_id", "exercise_id", "order_index", "notes", "created_at", "updated_at"},
	domain.TableExerciseSets:     {"id", "workout_exercise_id", "set_index", "weight_kg", "reps", "rpe", "rir", "rest_seconds", "is_warmup", "is_failure", "created_at", "updated_at"},
}

// sqliteSyncStateRepository implements repository.SyncStateRepository.
type sqliteSyncStateRepository struct {
	store *localdb.Store
}

// NewSyncStateRepository creates a new sync state repository.
func NewSyncStateRepository(store *localdb.Store) repository.SyncStateRepository {
	return &sqliteSyncStateRepository{store: store}
}

// LastPulledAt returns the pull watermark, zero before the first sync.
func (r *sqliteSyncStateRepository) LastPulledAt(ctx context.Context) (int64, error) {
	var value string
	err := r.store.DB().QueryRowContext(ctx,
		"SELECT value FROM sync_state WHERE key = ?", stateLastPulledAt).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var ts int64
	if _, err := fmt.Sscanf(value, "%d", &ts); err != nil {
		return 0, fmt.Errorf("corrupt watermark %q: %w", value, err)
	}
	return ts, nil
}

// SetLastPulledAt advances the pull watermark.
func (r *sqliteSyncStateRepository) SetLastPulledAt(ctx context.Context, ts int64) error {
	_, err := r.store.DB().ExecContext(ctx,
		"INSERT INTO sync_state (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		stateLastPulledAt, fmt.Sprintf("%d", ts))
	return err
}

// SourceID returns this installation's stable identifier, generating and
// persisting one on first call.
func (r *sqliteSyncStateRepository) SourceID(ctx context.Context) (string, error) {
	var id string
	err := r.store.DB().QueryRowContext(ctx,
		"SELECT value FROM sync_state WHERE key = ?", stateSourceID).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	id = uuid.New().String()
	_, err = r.store.DB().ExecContext(ctx,
		"INSERT INTO sync_state (key, value) VALUES (?, ?)", stateSourceID, id)
	if err != nil {
		return "", err
	}
	return id, nil
}

// CollectUnsynced builds the push payload: every row whose _status is not
// 'synced', tombstones included. This is the one read that must see deleted
// rows, so it queries a superset of the default filter.
func (r *sqliteSyncStateRepository) CollectUnsynced(ctx context.Context) (domain.ChangeSet, error) {
	changes := domain.ChangeSet{}
	for _, table := range domain.SyncedTables {
		cols := syncColumns[table]
		query := fmt.Sprintf("SELECT %s, _status FROM %s WHERE _status != 'synced'",
			strings.Join(cols, ", "), table)

		rows, err := r.store.DB().QueryContext(ctx, query)
		if err != nil {
			return nil, err
		}

		tc := domain.TableChanges{}
		for rows.Next() {
			values := make([]any, len(cols)+1)
			ptrs := make([]any, len(values))
			for i := range values {
				ptrs[i] = &values[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				rows.Close()
				return nil, err
			}

			record := domain.RawRecord{}
			for i, col := range cols {
				record[col] = values[i]
			}
			status, _ := values[len(cols)].(string)
			switch status {
			case domain.RecordCreated:
				tc.Created = append(tc.Created, record)
			case domain.RecordUpdated:
				tc.Updated = append(tc.Updated, record)
			case domain.RecordDeleted:
				if id, ok := record["id"].(string); ok {
					tc.Deleted = append(tc.Deleted, id)
				}
			}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()

		if !tc.IsEmpty() {
			changes[table] = tc
		}
	}
	return changes, nil
}

// ApplyPull merges a server change set into the store in one write scope:
// created and updated rows are upserted as synced, deleted rows removed
// physically (the server tombstone is authoritative). A pulled row never
// clobbers a local unsynced edit with a newer updated_at; that edit wins
// locally and goes out on the next push.
func (r *sqliteSyncStateRepository) ApplyPull(ctx context.Context, changes domain.ChangeSet) error {
	touched := make([]string, 0, len(changes))
	for _, table := range domain.SyncedTables {
		if tc, ok := changes[table]; ok && !tc.IsEmpty() {
			touched = append(touched, table)
		}
	}
	if len(touched) == 0 {
		return nil
	}

	return r.store.Write(ctx, touched, func(tx *sql.Tx) error {
		// Parent-first order so creates never reference missing parents.
		for _, table := range domain.SyncedTables {
			tc, ok := changes[table]
			if !ok {
				continue
			}
			for _, record := range tc.Created {
				if err := upsertRecord(ctx, tx, table, record); err != nil {
					return err
				}
			}
			for _, record := range tc.Updated {
				if err := upsertRecord(ctx, tx, table, record); err != nil {
					return err
				}
			}
			for _, id := range tc.Deleted {
				if _, err := tx.ExecContext(ctx,
					fmt.Sprintf("DELETE FROM %s WHERE id = ?", table), id); err != nil {
					return fmt.Errorf("apply delete on %s: %w", table, err)
				}
			}
		}
		return nil
	})
}

func upsertRecord(ctx context.Context, tx *sql.Tx, table string, record domain.RawRecord) error {
	cols, ok := syncColumns[table]
	if !ok {
		return fmt.Errorf("unknown synced table %q", table)
	}

	names := make([]string, 0, len(cols)+1)
	args := make([]any, 0, len(cols)+1)
	assigns := make([]string, 0, len(cols))
	for _, col := range cols {
		names = append(names, col)
		args = append(args, record[col])
		if col != "id" && col != "created_at" {
			assigns = append(assigns, fmt.Sprintf("%s = excluded.%s", col, col))
		}
	}
	names = append(names, "_status")
	args = append(args, domain.RecordSynced)
	assigns = append(assigns, "_status = excluded._status")

	// The conflict guard keeps dirty local rows with a newer updated_at
	// intact: overwriting them would roll back an edit made after the last
	// push and drop it from every future push payload.
	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(id) DO UPDATE SET %s WHERE %s._status = 'synced' OR excluded.updated_at >= %s.updated_at",
		table,
		strings.Join(names, ", "),
		strings.TrimSuffix(strings.Repeat("?,", len(names)), ","),
		strings.Join(assigns, ", "),
		table, table)
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("apply upsert on %s: %w", table, err)
	}
	return nil
}

// MarkSynced settles a pushed change set after the server ack. Rows edited
// again while the push was in flight keep their dirty status: the guard on
// updated_at only settles rows unchanged since collection.
func (r *sqliteSyncStateRepository) MarkSynced(ctx context.Context, changes domain.ChangeSet) error {
	touched := make([]string, 0, len(changes))
	for table, tc := range changes {
		if !tc.IsEmpty() {
			touched = append(touched, table)
		}
	}
	if len(touched) == 0 {
		return nil
	}

	return r.store.Write(ctx, touched, func(tx *sql.Tx) error {
		for table, tc := range changes {
			for _, record := range append(append([]domain.RawRecord{}, tc.Created...), tc.Updated...) {
				_, err := tx.ExecContext(ctx,
					fmt.Sprintf("UPDATE %s SET _status = 'synced' WHERE id = ? AND updated_at = ?", table),
					record["id"], record["updated_at"])
				if err != nil {
					return err
				}
			}
			for _, id := range tc.Deleted {
				_, err := tx.ExecContext(ctx,
					fmt.Sprintf("DELETE FROM %s WHERE id = ? AND _status = 'deleted'", table), id)
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
}
