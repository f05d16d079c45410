package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"repwise/repwise-app/internal/domain"
	"repwise/repwise-app/internal/localdb"
	"repwise/repwise-app/internal/repository"
)

const workoutColumns = "id, user_id, plan_id, plan_day_id, started_at, completed_at, duration_seconds, created_at, updated_at"

// sqliteWorkoutRepository implements repository.WorkoutRepository.
type sqliteWorkoutRepository struct {
	store *localdb.Store
}

// NewWorkoutRepository creates a new workout session repository.
func NewWorkoutRepository(store *localdb.Store) repository.WorkoutRepository {
	return &sqliteWorkoutRepository{store: store}
}

func scanWorkout(row interface{ Scan(...any) error }) (*domain.Workout, error) {
	var w domain.Workout
	var planID, dayID sql.NullString
	var started int64
	var completed, duration sql.NullInt64
	var created, updated int64
	err := row.Scan(&w.ID, &w.UserID, &planID, &dayID, &started, &completed, &duration, &created, &updated)
	if err != nil {
		return nil, err
	}
	w.PlanID = planID.String
	w.PlanDayID = dayID.String
	w.StartedAt = fromMillis(started)
	w.CompletedAt = timePtr(completed)
	w.DurationSeconds = intPtr(duration)
	w.CreatedAt = fromMillis(created)
	w.UpdatedAt = fromMillis(updated)
	return &w, nil
}

// Find retrieves a single non-deleted workout by ID.
func (r *sqliteWorkoutRepository) Find(ctx context.Context, id string) (*domain.Workout, error) {
	row := r.store.DB().QueryRowContext(ctx,
		"SELECT "+workoutColumns+" FROM workouts WHERE id = ? AND "+notDeleted, id)
	w, err := scanWorkout(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return w, nil
}

// ListByUser retrieves a user's workout history, newest first.
func (r *sqliteWorkoutRepository) ListByUser(ctx context.Context, userID string) ([]domain.Workout, error) {
	rows, err := r.store.DB().QueryContext(ctx,
		"SELECT "+workoutColumns+" FROM workouts WHERE user_id = ? AND "+notDeleted+" ORDER BY started_at DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	workouts := []domain.Workout{}
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, err
		}
		workouts = append(workouts, *w)
	}
	return workouts, rows.Err()
}

// LastCompletedForPlanDay returns when the day was last performed, or nil.
// Feeds the "last performed" display on plan day reads.
func (r *sqliteWorkoutRepository) LastCompletedForPlanDay(ctx context.Context, planDayID string) (*time.Time, error) {
	var completed sql.NullInt64
	err := r.store.DB().QueryRowContext(ctx,
		`SELECT MAX(completed_at) FROM workouts
		 WHERE plan_day_id = ? AND completed_at IS NOT NULL AND `+notDeleted, planDayID).Scan(&completed)
	if err != nil {
		return nil, err
	}
	return timePtr(completed), nil
}

// PrepareCreate builds the insert op for a newly started session.
func (r *sqliteWorkoutRepository) PrepareCreate(w *domain.Workout) localdb.WriteOp {
	return localdb.WriteOp{
		Table: domain.TableWorkouts,
		Query: `INSERT INTO workouts (id, user_id, plan_id, plan_day_id, started_at, completed_at, duration_seconds, _status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, 'created', ?, ?)`,
		Args: []any{w.ID, w.UserID, nullString(w.PlanID), nullString(w.PlanDayID), millis(w.StartedAt),
			nullMillis(w.CompletedAt), nullInt(w.DurationSeconds), millis(w.CreatedAt), millis(w.UpdatedAt)},
	}
}

// PrepareUpdate builds the update op for the session's mutable fields.
func (r *sqliteWorkoutRepository) PrepareUpdate(w *domain.Workout) localdb.WriteOp {
	return localdb.WriteOp{
		Table: domain.TableWorkouts,
		Query: `UPDATE workouts SET completed_at = ?, duration_seconds = ?,
			updated_at = ?, _status = ` + statusOnUpdate + ` WHERE id = ?`,
		Args: []any{nullMillis(w.CompletedAt), nullInt(w.DurationSeconds), nowMillis(), w.ID},
	}
}

// PrepareSoftDelete builds the tombstone op.
func (r *sqliteWorkoutRepository) PrepareSoftDelete(id string) localdb.WriteOp {
	return localdb.WriteOp{
		Table: domain.TableWorkouts,
		Query: "UPDATE workouts SET _status = 'deleted', updated_at = ? WHERE id = ?",
		Args:  []any{nowMillis(), id},
	}
}
