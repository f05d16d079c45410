package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"repwise/repwise-app/internal/domain"
	"repwise/repwise-app/internal/localdb"
	"repwise/repwise-app/internal/repository"
)

const exerciseSetColumns = "id, workout_exercise_id, set_index, weight_kg, reps, rpe, rir, rest_seconds, is_warmup, is_failure, created_at, updated_at"

type sqliteExerciseSetRepository struct {
	store *localdb.Store
}

// NewExerciseSetRepository creates a new performed-set repository.
func NewExerciseSetRepository(store *localdb.Store) repository.ExerciseSetRepository {
	return &sqliteExerciseSetRepository{store: store}
}

func scanExerciseSet(row interface{ Scan(...any) error }) (*domain.ExerciseSet, error) {
	var s domain.ExerciseSet
	var rpe sql.NullFloat64
	var rir, rest sql.NullInt64
	var warmup, failure int64
	var created, updated int64
	err := row.Scan(&s.ID, &s.WorkoutExerciseID, &s.SetIndex, &s.WeightKg, &s.Reps,
		&rpe, &rir, &rest, &warmup, &failure, &created, &updated)
	if err != nil {
		return nil, err
	}
	s.RPE = floatPtr(rpe)
	s.RIR = intPtr(rir)
	s.RestSeconds = intPtr(rest)
	s.IsWarmup = warmup != 0
	s.IsFailure = failure != 0
	s.CreatedAt = fromMillis(created)
	s.UpdatedAt = fromMillis(updated)
	return &s, nil
}

func (r *sqliteExerciseSetRepository) Find(ctx context.Context, id string) (*domain.ExerciseSet, error) {
	row := r.store.DB().QueryRowContext(ctx,
		"SELECT "+exerciseSetColumns+" FROM exercise_sets WHERE id = ? AND "+notDeleted, id)
	s, err := scanExerciseSet(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return s, nil
}

func (r *sqliteExerciseSetRepository) ListByWorkoutExercise(ctx context.Context, workoutExerciseID string) ([]domain.ExerciseSet, error) {
	rows, err := r.store.DB().QueryContext(ctx,
		"SELECT "+exerciseSetColumns+" FROM exercise_sets WHERE workout_exercise_id = ? AND "+notDeleted+" ORDER BY set_index", workoutExerciseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sets := []domain.ExerciseSet{}
	for rows.Next() {
		s, err := scanExerciseSet(rows)
		if err != nil {
			return nil, err
		}
		sets = append(sets, *s)
	}
	return sets, rows.Err()
}

func (r *sqliteExerciseSetRepository) PrepareCreate(set *domain.ExerciseSet) localdb.WriteOp {
	return localdb.WriteOp{
		Table: domain.TableExerciseSets,
		Query: `INSERT INTO exercise_sets
			(id, workout_exercise_id, set_index, weight_kg, reps, rpe, rir, rest_seconds, is_warmup, is_failure, _status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'created', ?, ?)`,
		Args: []any{set.ID, set.WorkoutExerciseID, set.SetIndex, set.WeightKg, set.Reps,
			nullFloat(set.RPE), nullInt(set.RIR), nullInt(set.RestSeconds),
			boolInt(set.IsWarmup), boolInt(set.IsFailure), millis(set.CreatedAt), millis(set.UpdatedAt)},
	}
}

func (r *sqliteExerciseSetRepository) PrepareUpdate(set *domain.ExerciseSet) localdb.WriteOp {
	return localdb.WriteOp{
		Table: domain.TableExerciseSets,
		Query: `UPDATE exercise_sets SET set_index = ?, weight_kg = ?, reps = ?, rpe = ?, rir = ?,
			rest_seconds = ?, is_warmup = ?, is_failure = ?, updated_at = ?, _status = ` + statusOnUpdate + ` WHERE id = ?`,
		Args: []any{set.SetIndex, set.WeightKg, set.Reps, nullFloat(set.RPE), nullInt(set.RIR),
			nullInt(set.RestSeconds), boolInt(set.IsWarmup), boolInt(set.IsFailure), nowMillis(), set.ID},
	}
}

func (r *sqliteExerciseSetRepository) PrepareSoftDelete(id string) localdb.WriteOp {
	return localdb.WriteOp{
		Table: domain.TableExerciseSets,
		Query: "UPDATE exercise_sets SET _status = 'deleted', updated_at = ? WHERE id = ?",
		Args:  []any{nowMillis(), id},
	}
}
