package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"repwise/repwise-app/internal/domain"
	"repwise/repwise-app/internal/localdb"
	"repwise/repwise-app/internal/repository"
)

// SetInput carries one performed set's measurements into LogSet.
type SetInput struct {
	WeightKg    float64
	Reps        int
	RPE         *float64
	RIR         *int
	RestSeconds *int
	IsWarmup    bool
	IsFailure   bool
}

// WorkoutService logs training sessions against the local store. Like the
// plan service, reads come in one-shot and observed forms and mutations
// commit through single batches.
type WorkoutService interface {
	StartWorkout(ctx context.Context, planID, planDayID string) (*domain.Workout, error)
	AddWorkoutExercise(ctx context.Context, workoutID, exerciseID string) (*domain.WorkoutExercise, error)
	LogSet(ctx context.Context, workoutExerciseID string, input SetInput) (*domain.ExerciseSet, error)
	CompleteWorkout(ctx context.Context, workoutID string) (*domain.Workout, error)
	DeleteWorkout(ctx context.Context, workoutID string) error

	GetHistory(ctx context.Context) ([]domain.Workout, error)
	ObserveHistory(ctx context.Context) (<-chan []domain.Workout, func(), error)
	GetWorkoutDetail(ctx context.Context, workoutID string) (*domain.WorkoutDetail, error)
	ObserveWorkoutDetail(ctx context.Context, workoutID string) (<-chan *domain.WorkoutDetail, func(), error)
}

// workoutService implements the WorkoutService interface.
type workoutService struct {
	session     SessionProvider
	store       *localdb.Store
	workoutRepo repository.WorkoutRepository
	weRepo      repository.WorkoutExerciseRepository
	setRepo     repository.ExerciseSetRepository
	dayRepo     repository.PlanDayRepository
	planRepo    repository.PlanRepository
}

// NewWorkoutService creates a new instance of workoutService.
func NewWorkoutService(
	session SessionProvider,
	store *localdb.Store,
	workoutRepo repository.WorkoutRepository,
	weRepo repository.WorkoutExerciseRepository,
	setRepo repository.ExerciseSetRepository,
	dayRepo repository.PlanDayRepository,
	planRepo repository.PlanRepository,
) WorkoutService {
	return &workoutService{
		session:     session,
		store:       store,
		workoutRepo: workoutRepo,
		weRepo:      weRepo,
		setRepo:     setRepo,
		dayRepo:     dayRepo,
		planRepo:    planRepo,
	}
}

// resolveWorkoutOwnership fetches a workout and verifies the session owns it.
func (s *workoutService) resolveWorkoutOwnership(ctx context.Context, workoutID, userID, action string) (*domain.Workout, error) {
	w, err := s.workoutRepo.Find(ctx, workoutID)
	if err != nil {
		return nil, saveErr(err, "failed to resolve workout %s while attempting to %s", workoutID, action)
	}
	if err := ValidateOwnership(w.UserID, userID, action); err != nil {
		return nil, err
	}
	return w, nil
}

// StartWorkout opens a session, optionally recording plan/day lineage. When
// a day is given it must belong to a plan the session's user owns.
func (s *workoutService) StartWorkout(ctx context.Context, planID, planDayID string) (*domain.Workout, error) {
	user, err := RequireCurrentUser(s.session, "start a workout")
	if err != nil {
		return nil, err
	}

	if planDayID != "" {
		day, err := s.dayRepo.Find(ctx, planDayID)
		if err != nil {
			return nil, saveErr(err, "failed to resolve day %s for workout lineage", planDayID)
		}
		plan, err := s.planRepo.Find(ctx, day.PlanID)
		if err != nil {
			return nil, saveErr(err, "failed to resolve plan %s for workout lineage", day.PlanID)
		}
		if err := ValidateOwnership(plan.UserID, user.ID, "start a workout"); err != nil {
			return nil, err
		}
		planID = plan.ID
	}

	now := time.Now().UTC()
	w := &domain.Workout{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		PlanID:    planID,
		PlanDayID: planDayID,
		StartedAt: now,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Batch(ctx, s.workoutRepo.PrepareCreate(w)); err != nil {
		return nil, saveErr(err, "failed to start workout for user %s", user.ID)
	}
	return w, nil
}

// AddWorkoutExercise appends one performed exercise to an open session.
func (s *workoutService) AddWorkoutExercise(ctx context.Context, workoutID, exerciseID string) (*domain.WorkoutExercise, error) {
	user, err := RequireCurrentUser(s.session, "log an exercise")
	if err != nil {
		return nil, err
	}
	if _, err := s.resolveWorkoutOwnership(ctx, workoutID, user.ID, "log an exercise"); err != nil {
		return nil, err
	}

	existing, err := s.weRepo.ListByWorkout(ctx, workoutID)
	if err != nil {
		return nil, saveErr(err, "failed to list exercises of workout %s", workoutID)
	}

	now := time.Now().UTC()
	we := &domain.WorkoutExercise{
		ID:         uuid.New().String(),
		WorkoutID:  workoutID,
		ExerciseID: exerciseID,
		OrderIndex: len(existing),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.Batch(ctx, s.weRepo.PrepareCreate(we)); err != nil {
		return nil, saveErr(err, "failed to add exercise %s to workout %s", exerciseID, workoutID)
	}
	return we, nil
}

// LogSet records one performed set under a workout exercise.
func (s *workoutService) LogSet(ctx context.Context, workoutExerciseID string, input SetInput) (*domain.ExerciseSet, error) {
	user, err := RequireCurrentUser(s.session, "log a set")
	if err != nil {
		return nil, err
	}
	if input.Reps < 0 || input.WeightKg < 0 {
		return nil, domain.NewValidationError("Weight and reps can't be negative.",
			fmt.Sprintf("invalid set input weight=%f reps=%d", input.WeightKg, input.Reps))
	}

	we, err := s.weRepo.Find(ctx, workoutExerciseID)
	if err != nil {
		return nil, saveErr(err, "failed to resolve workout exercise %s", workoutExerciseID)
	}
	if _, err := s.resolveWorkoutOwnership(ctx, we.WorkoutID, user.ID, "log a set"); err != nil {
		return nil, err
	}

	sets, err := s.setRepo.ListByWorkoutExercise(ctx, workoutExerciseID)
	if err != nil {
		return nil, saveErr(err, "failed to list sets of workout exercise %s", workoutExerciseID)
	}

	now := time.Now().UTC()
	set := &domain.ExerciseSet{
		ID:                uuid.New().String(),
		WorkoutExerciseID: workoutExerciseID,
		SetIndex:          len(sets),
		WeightKg:          input.WeightKg,
		Reps:              input.Reps,
		RPE:               input.RPE,
		RIR:               input.RIR,
		RestSeconds:       input.RestSeconds,
		IsWarmup:          input.IsWarmup,
		IsFailure:         input.IsFailure,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.store.Batch(ctx, s.setRepo.PrepareCreate(set)); err != nil {
		return nil, saveErr(err, "failed to log set on workout exercise %s", workoutExerciseID)
	}
	return set, nil
}

// CompleteWorkout stamps the session finished and derives its duration.
// Completing an already-completed workout is a no-op.
func (s *workoutService) CompleteWorkout(ctx context.Context, workoutID string) (*domain.Workout, error) {
	user, err := RequireCurrentUser(s.session, "complete a workout")
	if err != nil {
		return nil, err
	}
	w, err := s.resolveWorkoutOwnership(ctx, workoutID, user.ID, "complete a workout")
	if err != nil {
		return nil, err
	}
	if w.CompletedAt != nil {
		return w, nil
	}

	now := time.Now().UTC()
	duration := int(now.Sub(w.StartedAt).Seconds())
	w.CompletedAt = &now
	w.DurationSeconds = &duration
	if err := s.store.Batch(ctx, s.workoutRepo.PrepareUpdate(w)); err != nil {
		return nil, saveErr(err, "failed to complete workout %s", workoutID)
	}
	return w, nil
}

// DeleteWorkout soft-deletes a session and its children in one batch.
func (s *workoutService) DeleteWorkout(ctx context.Context, workoutID string) error {
	user, err := RequireCurrentUser(s.session, "delete a workout")
	if err != nil {
		return err
	}
	if _, err := s.resolveWorkoutOwnership(ctx, workoutID, user.ID, "delete a workout"); err != nil {
		return err
	}

	exercises, err := s.weRepo.ListByWorkout(ctx, workoutID)
	if err != nil {
		return saveErr(err, "failed to list exercises of workout %s", workoutID)
	}

	ops := []localdb.WriteOp{s.workoutRepo.PrepareSoftDelete(workoutID)}
	for _, we := range exercises {
		ops = append(ops, s.weRepo.PrepareSoftDelete(we.ID))
		sets, err := s.setRepo.ListByWorkoutExercise(ctx, we.ID)
		if err != nil {
			return saveErr(err, "failed to list sets of workout exercise %s", we.ID)
		}
		for _, set := range sets {
			ops = append(ops, s.setRepo.PrepareSoftDelete(set.ID))
		}
	}

	if err := s.store.Batch(ctx, ops...); err != nil {
		return saveErr(err, "failed to delete workout %s", workoutID)
	}
	return nil
}

// GetHistory returns the user's sessions, newest first.
func (s *workoutService) GetHistory(ctx context.Context) ([]domain.Workout, error) {
	user, err := RequireCurrentUser(s.session, "load workout history")
	if err != nil {
		return nil, err
	}
	workouts, err := s.workoutRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, loadErr(err, "failed to list workouts for user %s", user.ID)
	}
	return workouts, nil
}

// ObserveHistory streams the user's session list.
func (s *workoutService) ObserveHistory(ctx context.Context) (<-chan []domain.Workout, func(), error) {
	user, err := RequireCurrentUser(s.session, "observe workout history")
	if err != nil {
		return nil, nil, err
	}
	return observe(ctx, s.store.Hub(), []string{domain.TableWorkouts},
		func(ctx context.Context) ([]domain.Workout, error) {
			workouts, err := s.workoutRepo.ListByUser(ctx, user.ID)
			if err != nil {
				return nil, loadErr(err, "failed to list workouts for user %s", user.ID)
			}
			return workouts, nil
		})
}

func (s *workoutService) fetchWorkoutDetail(ctx context.Context, workoutID string) (*domain.WorkoutDetail, error) {
	w, err := s.workoutRepo.Find(ctx, workoutID)
	if err != nil {
		return nil, loadErr(err, "failed to resolve workout %s", workoutID)
	}
	exercises, err := s.weRepo.ListByWorkout(ctx, workoutID)
	if err != nil {
		return nil, loadErr(err, "failed to list exercises of workout %s", workoutID)
	}

	detail := &domain.WorkoutDetail{Workout: *w}
	for _, we := range exercises {
		sets, err := s.setRepo.ListByWorkoutExercise(ctx, we.ID)
		if err != nil {
			return nil, loadErr(err, "failed to list sets of workout exercise %s", we.ID)
		}
		detail.Exercises = append(detail.Exercises, domain.WorkoutExerciseDetail{
			Exercise: we,
			Sets:     sets,
		})
	}
	return detail, nil
}

// GetWorkoutDetail returns one session with exercises and sets.
func (s *workoutService) GetWorkoutDetail(ctx context.Context, workoutID string) (*domain.WorkoutDetail, error) {
	user, err := RequireCurrentUser(s.session, "load a workout")
	if err != nil {
		return nil, err
	}
	if _, err := s.resolveWorkoutOwnership(ctx, workoutID, user.ID, "load a workout"); err != nil {
		return nil, err
	}
	return s.fetchWorkoutDetail(ctx, workoutID)
}

// ObserveWorkoutDetail streams one session's detail across all three tables.
func (s *workoutService) ObserveWorkoutDetail(ctx context.Context, workoutID string) (<-chan *domain.WorkoutDetail, func(), error) {
	user, err := RequireCurrentUser(s.session, "observe a workout")
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.resolveWorkoutOwnership(ctx, workoutID, user.ID, "observe a workout"); err != nil {
		return nil, nil, err
	}
	tables := []string{domain.TableWorkouts, domain.TableWorkoutExercises, domain.TableExerciseSets}
	return observe(ctx, s.store.Hub(), tables,
		func(ctx context.Context) (*domain.WorkoutDetail, error) {
			return s.fetchWorkoutDetail(ctx, workoutID)
		})
}
