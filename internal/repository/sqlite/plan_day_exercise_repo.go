package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"repwise/repwise-app/internal/domain"
	"repwise/repwise-app/internal/localdb"
	"repwise/repwise-app/internal/repository"
)

const dayExerciseColumns = "id, plan_day_id, exercise_id, order_index, target_sets, target_reps, rest_timer_seconds, notes, created_at, updated_at"

// sqlitePlanDayExerciseRepository implements repository.PlanDayExerciseRepository.
type sqlitePlanDayExerciseRepository struct {
	store *localdb.Store
}

// NewPlanDayExerciseRepository creates a new day exercise repository.
func NewPlanDayExerciseRepository(store *localdb.Store) repository.PlanDayExerciseRepository {
	return &sqlitePlanDayExerciseRepository{store: store}
}

func scanDayExercise(row interface{ Scan(...any) error }) (*domain.PlanDayExercise, error) {
	var e domain.PlanDayExercise
	var rest sql.NullInt64
	var notes sql.NullString
	var created, updated int64
	err := row.Scan(&e.ID, &e.PlanDayID, &e.ExerciseID, &e.OrderIndex,
		&e.TargetSets, &e.TargetReps, &rest, &notes, &created, &updated)
	if err != nil {
		return nil, err
	}
	e.RestTimerSeconds = intPtr(rest)
	e.Notes = notes.String
	e.CreatedAt = fromMillis(created)
	e.UpdatedAt = fromMillis(updated)
	return &e, nil
}

// Find retrieves a single non-deleted entry by ID.
func (r *sqlitePlanDayExerciseRepository) Find(ctx context.Context, id string) (*domain.PlanDayExercise, error) {
	row := r.store.DB().QueryRowContext(ctx,
		"SELECT "+dayExerciseColumns+" FROM plan_day_exercises WHERE id = ? AND "+notDeleted, id)
	ex, err := scanDayExercise(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return ex, nil
}

// ListByDay retrieves a day's exercises in list order.
func (r *sqlitePlanDayExerciseRepository) ListByDay(ctx context.Context, dayID string) ([]domain.PlanDayExercise, error) {
	rows, err := r.store.DB().QueryContext(ctx,
		"SELECT "+dayExerciseColumns+" FROM plan_day_exercises WHERE plan_day_id = ? AND "+notDeleted+" ORDER BY order_index", dayID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exercises := []domain.PlanDayExercise{}
	for rows.Next() {
		e, err := scanDayExercise(rows)
		if err != nil {
			return nil, err
		}
		exercises = append(exercises, *e)
	}
	return exercises, rows.Err()
}

// PrepareCreate builds the insert op for a new locally-created entry.
func (r *sqlitePlanDayExerciseRepository) PrepareCreate(ex *domain.PlanDayExercise) localdb.WriteOp {
	return localdb.WriteOp{
		Table: domain.TablePlanDayExercises,
		Query: `INSERT INTO plan_day_exercises
			(id, plan_day_id, exercise_id, order_index, target_sets, target_reps, rest_timer_seconds, notes, _status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'created', ?, ?)`,
		Args: []any{ex.ID, ex.PlanDayID, ex.ExerciseID, ex.OrderIndex, ex.TargetSets, ex.TargetReps,
			nullInt(ex.RestTimerSeconds), nullString(ex.Notes), millis(ex.CreatedAt), millis(ex.UpdatedAt)},
	}
}

// PrepareUpdate builds the update op for the entry's mutable fields.
func (r *sqlitePlanDayExerciseRepository) PrepareUpdate(ex *domain.PlanDayExercise) localdb.WriteOp {
	return localdb.WriteOp{
		Table: domain.TablePlanDayExercises,
		Query: `UPDATE plan_day_exercises SET order_index = ?, target_sets = ?, target_reps = ?,
			rest_timer_seconds = ?, notes = ?, updated_at = ?, _status = ` + statusOnUpdate + ` WHERE id = ?`,
		Args: []any{ex.OrderIndex, ex.TargetSets, ex.TargetReps, nullInt(ex.RestTimerSeconds),
			nullString(ex.Notes), nowMillis(), ex.ID},
	}
}

// PrepareSoftDelete builds the tombstone op.
func (r *sqlitePlanDayExerciseRepository) PrepareSoftDelete(id string) localdb.WriteOp {
	return localdb.WriteOp{
		Table: domain.TablePlanDayExercises,
		Query: "UPDATE plan_day_exercises SET _status = 'deleted', updated_at = ? WHERE id = ?",
		Args:  []any{nowMillis(), id},
	}
}
