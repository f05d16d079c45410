package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"repwise/repwise-app/internal/domain"
	"repwise/repwise-app/internal/localdb"
	"repwise/repwise-app/internal/repository"
)

const workoutExerciseColumns = "id, workout_id, exercise_id, order_index, notes, created_at, updated_at"

type sqliteWorkoutExerciseRepository struct {
	store *localdb.Store
}

// NewWorkoutExerciseRepository creates a new performed-exercise repository.
func NewWorkoutExerciseRepository(store *localdb.Store) repository.WorkoutExerciseRepository {
	return &sqliteWorkoutExerciseRepository{store: store}
}

func scanWorkoutExercise(row interface{ Scan(...any) error }) (*domain.WorkoutExercise, error) {
	var we domain.WorkoutExercise
	var notes sql.NullString
	var created, updated int64
	err := row.Scan(&we.ID, &we.WorkoutID, &we.ExerciseID, &we.OrderIndex, &notes, &created, &updated)
	if err != nil {
		return nil, err
	}
	we.Notes = notes.String
	we.CreatedAt = fromMillis(created)
	we.UpdatedAt = fromMillis(updated)
	return &we, nil
}

func (r *sqliteWorkoutExerciseRepository) Find(ctx context.Context, id string) (*domain.WorkoutExercise, error) {
	row := r.store.DB().QueryRowContext(ctx,
		"SELECT "+workoutExerciseColumns+" FROM workout_exercises WHERE id = ? AND "+notDeleted, id)
	we, err := scanWorkoutExercise(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return we, nil
}

func (r *sqliteWorkoutExerciseRepository) ListByWorkout(ctx context.Context, workoutID string) ([]domain.WorkoutExercise, error) {
	rows, err := r.store.DB().QueryContext(ctx,
		"SELECT "+workoutExerciseColumns+" FROM workout_exercises WHERE workout_id = ? AND "+notDeleted+" ORDER BY order_index", workoutID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.WorkoutExercise{}
	for rows.Next() {
		we, err := scanWorkoutExercise(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *we)
	}
	return out, rows.Err()
}

func (r *sqliteWorkoutExerciseRepository) PrepareCreate(we *domain.WorkoutExercise) localdb.WriteOp {
	return localdb.WriteOp{
		Table: domain.TableWorkoutExercises,
		Query: `INSERT INTO workout_exercises (id, workout_id, exercise_id, order_index, notes, _status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, 'created', ?, ?)`,
		Args: []any{we.ID, we.WorkoutID, we.ExerciseID, we.OrderIndex, nullString(we.Notes),
			millis(we.CreatedAt), millis(we.UpdatedAt)},
	}
}

func (r *sqliteWorkoutExerciseRepository) PrepareUpdate(we *domain.WorkoutExercise) localdb.WriteOp {
	return localdb.WriteOp{
		Table: domain.TableWorkoutExercises,
		Query: `UPDATE workout_exercises SET order_index = ?, notes = ?,
			updated_at = ?, _status = ` + statusOnUpdate + ` WHERE id = ?`,
		Args: []any{we.OrderIndex, nullString(we.Notes), nowMillis(), we.ID},
	}
}

func (r *sqliteWorkoutExerciseRepository) PrepareSoftDelete(id string) localdb.WriteOp {
	return localdb.WriteOp{
		Table: domain.TableWorkoutExercises,
		Query: "UPDATE workout_exercises SET _status = 'deleted', updated_at = ? WHERE id = ?",
		Args:  []any{nowMillis(), id},
	}
}
