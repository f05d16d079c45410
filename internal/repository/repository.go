package repository

import (
	"context"
	"time"

	"repwise/repwise-app/internal/domain"
	"repwise/repwise-app/internal/localdb"
)

// Error constants for the repository layer.
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
)

// RepositoryError helps distinguish repository errors.
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// Mutations follow the prepare-then-batch discipline: repositories hand out
// prepared localdb.WriteOps and the service layer commits them through a
// single trailing Batch call. Reads exclude soft-deleted rows.

// PlanRepository gives access to workout plan rows.
type PlanRepository interface {
	Find(ctx context.Context, id string) (*domain.WorkoutPlan, error)
	ListByUser(ctx context.Context, userID string) ([]domain.WorkoutPlan, error)
	ListActiveByUser(ctx context.Context, userID string) ([]domain.WorkoutPlan, error)
	PrepareCreate(plan *domain.WorkoutPlan) localdb.WriteOp
	PrepareUpdate(plan *domain.WorkoutPlan) localdb.WriteOp
	PrepareSoftDelete(id string) localdb.WriteOp
}

// PlanDayRepository gives access to plan day rows.
type PlanDayRepository interface {
	Find(ctx context.Context, id string) (*domain.PlanDay, error)
	ListByPlan(ctx context.Context, planID string) ([]domain.PlanDay, error)
	CountByPlan(ctx context.Context, planID string) (int, error)
	PrepareCreate(day *domain.PlanDay) localdb.WriteOp
	PrepareUpdate(day *domain.PlanDay) localdb.WriteOp
	PrepareSoftDelete(id string) localdb.WriteOp
}

// PlanDayExerciseRepository gives access to the exercise entries of plan days.
type PlanDayExerciseRepository interface {
	Find(ctx context.Context, id string) (*domain.PlanDayExercise, error)
	ListByDay(ctx context.Context, dayID string) ([]domain.PlanDayExercise, error)
	PrepareCreate(ex *domain.PlanDayExercise) localdb.WriteOp
	PrepareUpdate(ex *domain.PlanDayExercise) localdb.WriteOp
	PrepareSoftDelete(id string) localdb.WriteOp
}

// WorkoutRepository gives access to logged workout sessions.
type WorkoutRepository interface {
	Find(ctx context.Context, id string) (*domain.Workout, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Workout, error)
	LastCompletedForPlanDay(ctx context.Context, planDayID string) (*time.Time, error)
	PrepareCreate(w *domain.Workout) localdb.WriteOp
	PrepareUpdate(w *domain.Workout) localdb.WriteOp
	PrepareSoftDelete(id string) localdb.WriteOp
}

// WorkoutExerciseRepository gives access to performed exercises.
type WorkoutExerciseRepository interface {
	Find(ctx context.Context, id string) (*domain.WorkoutExercise, error)
	ListByWorkout(ctx context.Context, workoutID string) ([]domain.WorkoutExercise, error)
	PrepareCreate(we *domain.WorkoutExercise) localdb.WriteOp
	PrepareUpdate(we *domain.WorkoutExercise) localdb.WriteOp
	PrepareSoftDelete(id string) localdb.WriteOp
}

// ExerciseSetRepository gives access to performed sets.
type ExerciseSetRepository interface {
	Find(ctx context.Context, id string) (*domain.ExerciseSet, error)
	ListByWorkoutExercise(ctx context.Context, workoutExerciseID string) ([]domain.ExerciseSet, error)
	PrepareCreate(set *domain.ExerciseSet) localdb.WriteOp
	PrepareUpdate(set *domain.ExerciseSet) localdb.WriteOp
	PrepareSoftDelete(id string) localdb.WriteOp
}

// CatalogRepository is the read-only exercise catalog. Seed runs once at
// first launch; nothing else ever writes the catalog.
type CatalogRepository interface {
	Find(ctx context.Context, id string) (*domain.Exercise, error)
	FindMany(ctx context.Context, ids []string) (map[string]domain.Exercise, error)
	Search(ctx context.Context, nameQuery, muscle string, limit int) ([]domain.Exercise, error)
	Count(ctx context.Context) (int, error)
	Seed(ctx context.Context, exercises []domain.Exercise) error
}

// SyncStateRepository persists the sync engine's local state and moves
// change sets in and out of the store.
type SyncStateRepository interface {
	LastPulledAt(ctx context.Context) (int64, error)
	SetLastPulledAt(ctx context.Context, ts int64) error
	SourceID(ctx context.Context) (string, error)

	// CollectUnsynced reads every row whose _status is not 'synced',
	// including tombstones, as a push payload.
	CollectUnsynced(ctx context.Context) (domain.ChangeSet, error)
	// ApplyPull merges a server change set in one write scope: creates and
	// updates are upserted as synced rows, deletions removed physically.
	// An unsynced local row with a newer updated_at is left untouched.
	ApplyPull(ctx context.Context, changes domain.ChangeSet) error
	// MarkSynced settles a pushed change set: rows unchanged since
	// collection become 'synced', acked tombstones are purged.
	MarkSynced(ctx context.Context, changes domain.ChangeSet) error
}

// UserRepository is implemented server-side (mongo) for auth.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (string, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// ServerSyncRepository is the server-side store the sync API reconciles
// against: idempotent upserts keyed by client-generated row IDs with
// last-write-wins on updated_at, plus an incremental change feed. sourceID
// identifies the calling device; its own pushes are excluded from its feed.
type ServerSyncRepository interface {
	ApplyPush(ctx context.Context, userID, sourceID string, changes domain.ChangeSet) error
	ChangesSince(ctx context.Context, userID string, since int64, sourceID string) (domain.ChangeSet, int64, error)
}
