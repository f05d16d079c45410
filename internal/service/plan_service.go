package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"repwise/repwise-app/internal/domain"
	"repwise/repwise-app/internal/localdb"
	"repwise/repwise-app/internal/repository"
)

// PlanService is the UI-facing surface for workout plans, their days and
// their exercise lists. Every read is exposed twice: a one-shot call for
// imperative flows and an Observe variant that re-emits on any underlying
// row change. Every mutation validates ownership first and commits through
// a single store batch.
type PlanService interface {
	// Plans
	CreatePlan(ctx context.Context, name string) (*domain.WorkoutPlan, error)
	GetPlans(ctx context.Context) ([]domain.WorkoutPlan, error)
	ObservePlans(ctx context.Context) (<-chan []domain.WorkoutPlan, func(), error)
	RenamePlan(ctx context.Context, planID, name string) (*domain.WorkoutPlan, error)
	SetActivePlan(ctx context.Context, planID string) error
	DeletePlan(ctx context.Context, planID string) error

	// Days
	CreatePlanDay(ctx context.Context, planID, name string, dayOfWeek *int) (*domain.PlanDay, error)
	GetPlanDays(ctx context.Context, planID string) ([]domain.PlanDay, error)
	ObservePlanDays(ctx context.Context, planID string) (<-chan []domain.PlanDay, func(), error)
	RenamePlanDay(ctx context.Context, dayID, name string) error
	ReorderPlanDays(ctx context.Context, planID string, orderedDayIDs []string) error
	DeletePlanDay(ctx context.Context, dayID string) error

	// Day detail (exercises + dominant muscle + last performed)
	GetPlanDayDetail(ctx context.Context, dayID string) (*domain.PlanDayDetail, error)
	ObservePlanDayDetail(ctx context.Context, dayID string) (<-chan *domain.PlanDayDetail, func(), error)

	// Day exercises
	AddExerciseToDay(ctx context.Context, dayID, exerciseID string) (*domain.PlanDayExercise, error)
	RemoveExerciseFromDay(ctx context.Context, entryID string) error
	ReorderDayExercises(ctx context.Context, dayID string, orderedEntryIDs []string) error
	UpdateDayExercise(ctx context.Context, entryID string, targetSets, targetReps int, restTimerSeconds *int, notes string) error

	// Batched edit-session save
	SavePlanDayEdits(ctx context.Context, edits domain.PlanDayEdits) error
}

// planService implements the PlanService interface.
type planService struct {
	session   SessionProvider
	store     *localdb.Store
	planRepo  repository.PlanRepository
	dayRepo   repository.PlanDayRepository
	dayExRepo repository.PlanDayExerciseRepository
	catalog   repository.CatalogRepository
	workouts  repository.WorkoutRepository
}

// NewPlanService creates a new instance of planService.
func NewPlanService(
	session SessionProvider,
	store *localdb.Store,
	planRepo repository.PlanRepository,
	dayRepo repository.PlanDayRepository,
	dayExRepo repository.PlanDayExerciseRepository,
	catalog repository.CatalogRepository,
	workouts repository.WorkoutRepository,
) PlanService {
	return &planService{
		session:   session,
		store:     store,
		planRepo:  planRepo,
		dayRepo:   dayRepo,
		dayExRepo: dayExRepo,
		catalog:   catalog,
		workouts:  workouts,
	}
}

// === Validation helpers ===

func validatePlanName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", domain.NewValidationError("Plan name can't be empty.", "plan name empty after trim")
	}
	if len(trimmed) > domain.MaxPlanNameLen {
		return "", domain.NewValidationError(
			fmt.Sprintf("Plan name can't be longer than %d characters.", domain.MaxPlanNameLen),
			fmt.Sprintf("plan name length %d exceeds max %d", len(trimmed), domain.MaxPlanNameLen))
	}
	return trimmed, nil
}

func validateDayName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", domain.NewValidationError("Day name can't be empty.", "day name empty after trim")
	}
	if len(trimmed) > domain.MaxDayNameLen {
		return "", domain.NewValidationError(
			fmt.Sprintf("Day name can't be longer than %d characters.", domain.MaxDayNameLen),
			fmt.Sprintf("day name length %d exceeds max %d", len(trimmed), domain.MaxDayNameLen))
	}
	return trimmed, nil
}

// resolvePlanOwnership fetches a plan and verifies the session owns it.
func (s *planService) resolvePlanOwnership(ctx context.Context, planID, userID, action string) (*domain.WorkoutPlan, error) {
	plan, err := s.planRepo.Find(ctx, planID)
	if err != nil {
		return nil, saveErr(err, "failed to resolve plan %s while attempting to %s", planID, action)
	}
	if err := ValidateOwnership(plan.UserID, userID, action); err != nil {
		return nil, err
	}
	return plan, nil
}

// resolveDayOwnership walks PlanDay -> WorkoutPlan and verifies ownership.
func (s *planService) resolveDayOwnership(ctx context.Context, dayID, userID, action string) (*domain.PlanDay, *domain.WorkoutPlan, error) {
	day, err := s.dayRepo.Find(ctx, dayID)
	if err != nil {
		return nil, nil, saveErr(err, "failed to resolve plan day %s while attempting to %s", dayID, action)
	}
	plan, err := s.resolvePlanOwnership(ctx, day.PlanID, userID, action)
	if err != nil {
		return nil, nil, err
	}
	return day, plan, nil
}

// === Plans ===

// CreatePlan creates a plan for the session's user. The first plan a user
// creates becomes active immediately.
func (s *planService) CreatePlan(ctx context.Context, name string) (*domain.WorkoutPlan, error) {
	user, err := RequireCurrentUser(s.session, "create a plan")
	if err != nil {
		return nil, err
	}
	trimmed, err := validatePlanName(name)
	if err != nil {
		return nil, err
	}

	existing, err := s.planRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, saveErr(err, "failed to list plans for user %s", user.ID)
	}

	now := time.Now().UTC()
	plan := &domain.WorkoutPlan{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Name:      trimmed,
		IsActive:  len(existing) == 0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Batch(ctx, s.planRepo.PrepareCreate(plan)); err != nil {
		return nil, saveErr(err, "failed to create plan for user %s", user.ID)
	}
	return plan, nil
}

// GetPlans returns the session user's plans.
func (s *planService) GetPlans(ctx context.Context) ([]domain.WorkoutPlan, error) {
	user, err := RequireCurrentUser(s.session, "list plans")
	if err != nil {
		return nil, err
	}
	plans, err := s.planRepo.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, loadErr(err, "failed to list plans for user %s", user.ID)
	}
	return plans, nil
}

// ObservePlans streams the plan list, re-emitting on every plan change.
func (s *planService) ObservePlans(ctx context.Context) (<-chan []domain.WorkoutPlan, func(), error) {
	user, err := RequireCurrentUser(s.session, "observe plans")
	if err != nil {
		return nil, nil, err
	}
	return observe(ctx, s.store.Hub(), []string{domain.TableWorkoutPlans},
		func(ctx context.Context) ([]domain.WorkoutPlan, error) {
			plans, err := s.planRepo.ListByUser(ctx, user.ID)
			if err != nil {
				return nil, loadErr(err, "failed to list plans for user %s", user.ID)
			}
			return plans, nil
		})
}

// RenamePlan updates a plan's name.
func (s *planService) RenamePlan(ctx context.Context, planID, name string) (*domain.WorkoutPlan, error) {
	user, err := RequireCurrentUser(s.session, "rename a plan")
	if err != nil {
		return nil, err
	}
	trimmed, err := validatePlanName(name)
	if err != nil {
		return nil, err
	}
	plan, err := s.resolvePlanOwnership(ctx, planID, user.ID, "rename a plan")
	if err != nil {
		return nil, err
	}
	if plan.Name == trimmed {
		return plan, nil // Avoid a redundant emission
	}

	plan.Name = trimmed
	if err := s.store.Batch(ctx, s.planRepo.PrepareUpdate(plan)); err != nil {
		return nil, saveErr(err, "failed to rename plan %s", planID)
	}
	return plan, nil
}

// SetActivePlan activates a plan and deactivates every other active plan
// owned by the same user, in the same batch as the activation itself.
func (s *planService) SetActivePlan(ctx context.Context, planID string) error {
	user, err := RequireCurrentUser(s.session, "activate a plan")
	if err != nil {
		return err
	}
	plan, err := s.resolvePlanOwnership(ctx, planID, user.ID, "activate a plan")
	if err != nil {
		return err
	}

	active, err := s.planRepo.ListActiveByUser(ctx, user.ID)
	if err != nil {
		return saveErr(err, "failed to list active plans for user %s", user.ID)
	}

	ops := []localdb.WriteOp{}
	for i := range active {
		if active[i].ID == planID {
			continue
		}
		sibling := active[i]
		sibling.IsActive = false
		ops = append(ops, s.planRepo.PrepareUpdate(&sibling))
	}
	if !plan.IsActive {
		plan.IsActive = true
		ops = append(ops, s.planRepo.PrepareUpdate(plan))
	}

	if err := s.store.Batch(ctx, ops...); err != nil {
		return saveErr(err, "failed to activate plan %s", planID)
	}
	return nil
}

// DeletePlan soft-deletes a plan along with its days and their exercises,
// all in one batch, so sync propagates the whole subtree as tombstones.
func (s *planService) DeletePlan(ctx context.Context, planID string) error {
	user, err := RequireCurrentUser(s.session, "delete a plan")
	if err != nil {
		return err
	}
	if _, err := s.resolvePlanOwnership(ctx, planID, user.ID, "delete a plan"); err != nil {
		return err
	}

	days, err := s.dayRepo.ListByPlan(ctx, planID)
	if err != nil {
		return saveErr(err, "failed to list days of plan %s", planID)
	}

	ops := []localdb.WriteOp{s.planRepo.PrepareSoftDelete(planID)}
	for _, day := range days {
		ops = append(ops, s.dayRepo.PrepareSoftDelete(day.ID))
		exercises, err := s.dayExRepo.ListByDay(ctx, day.ID)
		if err != nil {
			return saveErr(err, "failed to list exercises of day %s", day.ID)
		}
		for _, ex := range exercises {
			ops = append(ops, s.dayExRepo.PrepareSoftDelete(ex.ID))
		}
	}

	if err := s.store.Batch(ctx, ops...); err != nil {
		return saveErr(err, "failed to delete plan %s", planID)
	}
	return nil
}

// === Days ===

// CreatePlanDay appends a day to a plan, enforcing the day count ceiling.
func (s *planService) CreatePlanDay(ctx context.Context, planID, name string, dayOfWeek *int) (*domain.PlanDay, error) {
	user, err := RequireCurrentUser(s.session, "add a day")
	if err != nil {
		return nil, err
	}
	trimmed, err := validateDayName(name)
	if err != nil {
		return nil, err
	}
	if _, err := s.resolvePlanOwnership(ctx, planID, user.ID, "add a day"); err != nil {
		return nil, err
	}

	count, err := s.dayRepo.CountByPlan(ctx, planID)
	if err != nil {
		return nil, saveErr(err, "failed to count days of plan %s", planID)
	}
	if count >= domain.MaxDaysPerPlan {
		return nil, domain.NewValidationError(
			fmt.Sprintf("A plan can have at most %d days.", domain.MaxDaysPerPlan),
			fmt.Sprintf("plan %s already has %d of %d days", planID, count, domain.MaxDaysPerPlan))
	}

	now := time.Now().UTC()
	day := &domain.PlanDay{
		ID:         uuid.New().String(),
		PlanID:     planID,
		Name:       trimmed,
		DayOfWeek:  dayOfWeek,
		OrderIndex: count,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.Batch(ctx, s.dayRepo.PrepareCreate(day)); err != nil {
		return nil, saveErr(err, "failed to create day in plan %s", planID)
	}
	return day, nil
}

// GetPlanDays returns a plan's days in list order.
func (s *planService) GetPlanDays(ctx context.Context, planID string) ([]domain.PlanDay, error) {
	user, err := RequireCurrentUser(s.session, "list days")
	if err != nil {
		return nil, err
	}
	if _, err := s.resolvePlanOwnership(ctx, planID, user.ID, "list days"); err != nil {
		return nil, err
	}
	days, err := s.dayRepo.ListByPlan(ctx, planID)
	if err != nil {
		return nil, loadErr(err, "failed to list days of plan %s", planID)
	}
	return days, nil
}

// ObservePlanDays streams a plan's day list.
func (s *planService) ObservePlanDays(ctx context.Context, planID string) (<-chan []domain.PlanDay, func(), error) {
	user, err := RequireCurrentUser(s.session, "observe days")
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.resolvePlanOwnership(ctx, planID, user.ID, "observe days"); err != nil {
		return nil, nil, err
	}
	return observe(ctx, s.store.Hub(), []string{domain.TablePlanDays},
		func(ctx context.Context) ([]domain.PlanDay, error) {
			days, err := s.dayRepo.ListByPlan(ctx, planID)
			if err != nil {
				return nil, loadErr(err, "failed to list days of plan %s", planID)
			}
			return days, nil
		})
}

// RenamePlanDay updates a day's name. Renaming to the current name is a
// no-op so observers don't get a redundant emission.
func (s *planService) RenamePlanDay(ctx context.Context, dayID, name string) error {
	user, err := RequireCurrentUser(s.session, "rename a day")
	if err != nil {
		return err
	}
	trimmed, err := validateDayName(name)
	if err != nil {
		return err
	}
	day, _, err := s.resolveDayOwnership(ctx, dayID, user.ID, "rename a day")
	if err != nil {
		return err
	}
	if day.Name == trimmed {
		return nil
	}

	day.Name = trimmed
	if err := s.store.Batch(ctx, s.dayRepo.PrepareUpdate(day)); err != nil {
		return saveErr(err, "failed to rename day %s", dayID)
	}
	return nil
}

// ReorderPlanDays reassigns order_index densely (0..N-1) from the caller's
// list order. Days absent from the list keep their rows but the caller is
// expected to pass the complete list.
func (s *planService) ReorderPlanDays(ctx context.Context, planID string, orderedDayIDs []string) error {
	user, err := RequireCurrentUser(s.session, "reorder days")
	if err != nil {
		return err
	}
	if _, err := s.resolvePlanOwnership(ctx, planID, user.ID, "reorder days"); err != nil {
		return err
	}

	ops := []localdb.WriteOp{}
	for i, dayID := range orderedDayIDs {
		day, err := s.dayRepo.Find(ctx, dayID)
		if err != nil {
			return saveErr(err, "failed to resolve day %s during reorder", dayID)
		}
		if day.PlanID != planID {
			return domain.NewValidationError("Unable to reorder days.",
				fmt.Sprintf("day %s belongs to plan %s, not %s", dayID, day.PlanID, planID))
		}
		if day.OrderIndex == i {
			continue
		}
		day.OrderIndex = i
		ops = append(ops, s.dayRepo.PrepareUpdate(day))
	}

	if err := s.store.Batch(ctx, ops...); err != nil {
		return saveErr(err, "failed to reorder days of plan %s", planID)
	}
	return nil
}

// DeletePlanDay soft-deletes a day and its exercises in one batch.
func (s *planService) DeletePlanDay(ctx context.Context, dayID string) error {
	user, err := RequireCurrentUser(s.session, "delete a day")
	if err != nil {
		return err
	}
	if _, _, err := s.resolveDayOwnership(ctx, dayID, user.ID, "delete a day"); err != nil {
		return err
	}

	exercises, err := s.dayExRepo.ListByDay(ctx, dayID)
	if err != nil {
		return saveErr(err, "failed to list exercises of day %s", dayID)
	}

	ops := []localdb.WriteOp{s.dayRepo.PrepareSoftDelete(dayID)}
	for _, ex := range exercises {
		ops = append(ops, s.dayExRepo.PrepareSoftDelete(ex.ID))
	}
	if err := s.store.Batch(ctx, ops...); err != nil {
		return saveErr(err, "failed to delete day %s", dayID)
	}
	return nil
}

// === Day detail ===

func (s *planService) fetchDayDetail(ctx context.Context, dayID string) (*domain.PlanDayDetail, error) {
	day, err := s.dayRepo.Find(ctx, dayID)
	if err != nil {
		return nil, loadErr(err, "failed to resolve day %s", dayID)
	}
	exercises, err := s.dayExRepo.ListByDay(ctx, dayID)
	if err != nil {
		return nil, loadErr(err, "failed to list exercises of day %s", dayID)
	}

	dominant, err := s.dominantMuscleGroup(ctx, exercises)
	if err != nil {
		return nil, err
	}
	lastPerformed, err := s.workouts.LastCompletedForPlanDay(ctx, dayID)
	if err != nil {
		return nil, loadErr(err, "failed to resolve last workout for day %s", dayID)
	}

	return &domain.PlanDayDetail{
		Day:                 *day,
		Exercises:           exercises,
		DominantMuscleGroup: dominant,
		LastPerformedAt:     lastPerformed,
	}, nil
}

// dominantMuscleGroup tallies the primary target muscle of each exercise in
// the day and returns the most frequent one, first-seen order breaking ties.
func (s *planService) dominantMuscleGroup(ctx context.Context, exercises []domain.PlanDayExercise) (string, error) {
	if len(exercises) == 0 {
		return "", nil
	}
	ids := make([]string, len(exercises))
	for i, ex := range exercises {
		ids[i] = ex.ExerciseID
	}
	catalog, err := s.catalog.FindMany(ctx, ids)
	if err != nil {
		return "", loadErr(err, "failed to resolve catalog entries for dominant muscle")
	}

	counts := map[string]int{}
	order := []string{}
	for _, ex := range exercises {
		entry, ok := catalog[ex.ExerciseID]
		if !ok {
			continue
		}
		muscle := entry.PrimaryMuscle()
		if muscle == "" {
			continue
		}
		if _, seen := counts[muscle]; !seen {
			order = append(order, muscle)
		}
		counts[muscle]++
	}

	best := ""
	bestCount := 0
	for _, muscle := range order {
		if counts[muscle] > bestCount {
			best = muscle
			bestCount = counts[muscle]
		}
	}
	return best, nil
}

// GetPlanDayDetail returns one day with its exercises and derived data.
func (s *planService) GetPlanDayDetail(ctx context.Context, dayID string) (*domain.PlanDayDetail, error) {
	user, err := RequireCurrentUser(s.session, "load a day")
	if err != nil {
		return nil, err
	}
	if _, _, err := s.resolveDayOwnership(ctx, dayID, user.ID, "load a day"); err != nil {
		return nil, err
	}
	return s.fetchDayDetail(ctx, dayID)
}

// ObservePlanDayDetail streams the day detail, re-emitting when the day, its
// exercise list, or the workout history feeding "last performed" changes.
func (s *planService) ObservePlanDayDetail(ctx context.Context, dayID string) (<-chan *domain.PlanDayDetail, func(), error) {
	user, err := RequireCurrentUser(s.session, "observe a day")
	if err != nil {
		return nil, nil, err
	}
	if _, _, err := s.resolveDayOwnership(ctx, dayID, user.ID, "observe a day"); err != nil {
		return nil, nil, err
	}
	tables := []string{domain.TablePlanDays, domain.TablePlanDayExercises, domain.TableWorkouts}
	return observe(ctx, s.store.Hub(), tables,
		func(ctx context.Context) (*domain.PlanDayDetail, error) {
			return s.fetchDayDetail(ctx, dayID)
		})
}

// === Day exercises ===

// AddExerciseToDay appends one catalog exercise to a day with default
// targets, enforcing the per-day ceiling and duplicate prevention.
func (s *planService) AddExerciseToDay(ctx context.Context, dayID, exerciseID string) (*domain.PlanDayExercise, error) {
	user, err := RequireCurrentUser(s.session, "add an exercise")
	if err != nil {
		return nil, err
	}
	if _, _, err := s.resolveDayOwnership(ctx, dayID, user.ID, "add an exercise"); err != nil {
		return nil, err
	}

	current, err := s.dayExRepo.ListByDay(ctx, dayID)
	if err != nil {
		return nil, saveErr(err, "failed to list exercises of day %s", dayID)
	}
	if len(current) >= domain.MaxExercisesPerDay {
		return nil, domain.NewValidationError(
			"This day already has the maximum number of exercises.",
			fmt.Sprintf("day %s has %d of %d exercises", dayID, len(current), domain.MaxExercisesPerDay))
	}
	for _, ex := range current {
		if ex.ExerciseID == exerciseID {
			return nil, domain.NewValidationError(
				"That exercise is already in this day.",
				fmt.Sprintf("exercise %s already present in day %s", exerciseID, dayID))
		}
	}

	now := time.Now().UTC()
	entry := &domain.PlanDayExercise{
		ID:         uuid.New().String(),
		PlanDayID:  dayID,
		ExerciseID: exerciseID,
		OrderIndex: len(current),
		TargetSets: domain.DefaultTargetSets,
		TargetReps: domain.DefaultTargetReps,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.Batch(ctx, s.dayExRepo.PrepareCreate(entry)); err != nil {
		return nil, saveErr(err, "failed to add exercise %s to day %s", exerciseID, dayID)
	}
	return entry, nil
}

// RemoveExerciseFromDay soft-deletes one day exercise entry.
func (s *planService) RemoveExerciseFromDay(ctx context.Context, entryID string) error {
	user, err := RequireCurrentUser(s.session, "remove an exercise")
	if err != nil {
		return err
	}
	entry, err := s.dayExRepo.Find(ctx, entryID)
	if err != nil {
		return saveErr(err, "failed to resolve day exercise %s", entryID)
	}
	if _, _, err := s.resolveDayOwnership(ctx, entry.PlanDayID, user.ID, "remove an exercise"); err != nil {
		return err
	}

	if err := s.store.Batch(ctx, s.dayExRepo.PrepareSoftDelete(entryID)); err != nil {
		return saveErr(err, "failed to remove day exercise %s", entryID)
	}
	return nil
}

// ReorderDayExercises reassigns order_index densely from the caller's order.
func (s *planService) ReorderDayExercises(ctx context.Context, dayID string, orderedEntryIDs []string) error {
	user, err := RequireCurrentUser(s.session, "reorder exercises")
	if err != nil {
		return err
	}
	if _, _, err := s.resolveDayOwnership(ctx, dayID, user.ID, "reorder exercises"); err != nil {
		return err
	}

	ops := []localdb.WriteOp{}
	for i, entryID := range orderedEntryIDs {
		entry, err := s.dayExRepo.Find(ctx, entryID)
		if err != nil {
			return saveErr(err, "failed to resolve day exercise %s during reorder", entryID)
		}
		if entry.PlanDayID != dayID {
			return domain.NewValidationError("Unable to reorder exercises.",
				fmt.Sprintf("day exercise %s belongs to day %s, not %s", entryID, entry.PlanDayID, dayID))
		}
		if entry.OrderIndex == i {
			continue
		}
		entry.OrderIndex = i
		ops = append(ops, s.dayExRepo.PrepareUpdate(entry))
	}

	if err := s.store.Batch(ctx, ops...); err != nil {
		return saveErr(err, "failed to reorder exercises of day %s", dayID)
	}
	return nil
}

// UpdateDayExercise adjusts one entry's targets and notes.
func (s *planService) UpdateDayExercise(ctx context.Context, entryID string, targetSets, targetReps int, restTimerSeconds *int, notes string) error {
	user, err := RequireCurrentUser(s.session, "update an exercise")
	if err != nil {
		return err
	}
	if targetSets <= 0 || targetReps <= 0 {
		return domain.NewValidationError("Sets and reps must be at least 1.",
			fmt.Sprintf("invalid targets sets=%d reps=%d for day exercise %s", targetSets, targetReps, entryID))
	}

	entry, err := s.dayExRepo.Find(ctx, entryID)
	if err != nil {
		return saveErr(err, "failed to resolve day exercise %s", entryID)
	}
	if _, _, err := s.resolveDayOwnership(ctx, entry.PlanDayID, user.ID, "update an exercise"); err != nil {
		return err
	}

	entry.TargetSets = targetSets
	entry.TargetReps = targetReps
	entry.RestTimerSeconds = restTimerSeconds
	entry.Notes = notes
	if err := s.store.Batch(ctx, s.dayExRepo.PrepareUpdate(entry)); err != nil {
		return saveErr(err, "failed to update day exercise %s", entryID)
	}
	return nil
}

// === Batched edit-session save ===

// SavePlanDayEdits commits an entire offline edit draft in one atomic pass:
// optional rename, removals, additions and reorders become a single ordered
// operation list and one trailing batch. Limit and duplicate checks run
// against the remaining set — current exercises minus the ones removed in
// this same call — so removing A while re-adding A succeeds.
func (s *planService) SavePlanDayEdits(ctx context.Context, edits domain.PlanDayEdits) error {
	// 1. Ownership, before any other validation.
	user, err := RequireCurrentUser(s.session, "save day edits")
	if err != nil {
		return err
	}
	day, _, err := s.resolveDayOwnership(ctx, edits.DayID, user.ID, "save day edits")
	if err != nil {
		return err
	}

	ops := []localdb.WriteOp{}

	// 2. Name update. Skipped entirely when unchanged after trimming.
	if edits.Name != nil {
		trimmed, err := validateDayName(*edits.Name)
		if err != nil {
			return err
		}
		if trimmed != day.Name {
			renamed := *day
			renamed.Name = trimmed
			ops = append(ops, s.dayRepo.PrepareUpdate(&renamed))
		}
	}

	// 3. Deletions. A vanished id is a Database failure, not silently
	// ignored.
	removed := make(map[string]struct{}, len(edits.RemovedExerciseIDs))
	for _, entryID := range edits.RemovedExerciseIDs {
		entry, err := s.dayExRepo.Find(ctx, entryID)
		if err != nil {
			return saveErr(err, "failed to resolve day exercise %s marked for removal", entryID)
		}
		if entry.PlanDayID != edits.DayID {
			return saveErr(repository.ErrNotFound,
				"day exercise %s marked for removal belongs to day %s, not %s", entryID, entry.PlanDayID, edits.DayID)
		}
		removed[entryID] = struct{}{}
		ops = append(ops, s.dayExRepo.PrepareSoftDelete(entryID))
	}

	// 4. Additions, checked against the remaining set: persisted exercises
	// minus this call's in-flight deletions.
	if len(edits.AddedExercises) > 0 {
		current, err := s.dayExRepo.ListByDay(ctx, edits.DayID)
		if err != nil {
			return saveErr(err, "failed to list exercises of day %s", edits.DayID)
		}
		remaining := map[string]struct{}{}
		remainingCount := 0
		for _, ex := range current {
			if _, gone := removed[ex.ID]; gone {
				continue
			}
			remaining[ex.ExerciseID] = struct{}{}
			remainingCount++
		}

		if remainingCount+len(edits.AddedExercises) > domain.MaxExercisesPerDay {
			available := domain.MaxExercisesPerDay - remainingCount
			if available < 0 {
				available = 0
			}
			return domain.NewValidationError(
				fmt.Sprintf("You can only add %d more exercise(s) to this day.", available),
				fmt.Sprintf("day %s: %d remaining + %d additions exceeds max %d",
					edits.DayID, remainingCount, len(edits.AddedExercises), domain.MaxExercisesPerDay))
		}

		now := time.Now().UTC()
		for _, add := range edits.AddedExercises {
			if _, dup := remaining[add.ExerciseID]; dup {
				return domain.NewValidationError(
					"That exercise is already in this day.",
					fmt.Sprintf("exercise %s duplicates a remaining exercise in day %s", add.ExerciseID, edits.DayID))
			}
			remaining[add.ExerciseID] = struct{}{} // adds can't duplicate each other either

			entry := &domain.PlanDayExercise{
				ID:         uuid.New().String(),
				PlanDayID:  edits.DayID,
				ExerciseID: add.ExerciseID,
				OrderIndex: add.OrderIndex,
				TargetSets: domain.DefaultTargetSets,
				TargetReps: domain.DefaultTargetReps,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			ops = append(ops, s.dayExRepo.PrepareCreate(entry))
		}
	}

	// 5. Reorders. Membership never changes here, so no limit or duplicate
	// checks apply.
	for _, reorder := range edits.ReorderedExercises {
		entry, err := s.dayExRepo.Find(ctx, reorder.ID)
		if err != nil {
			return saveErr(err, "failed to resolve day exercise %s during reorder", reorder.ID)
		}
		if entry.OrderIndex == reorder.OrderIndex {
			continue
		}
		entry.OrderIndex = reorder.OrderIndex
		ops = append(ops, s.dayExRepo.PrepareUpdate(entry))
	}

	// 6. Commit. An empty operation list is a no-op success.
	if len(ops) == 0 {
		return nil
	}
	if err := s.store.Batch(ctx, ops...); err != nil {
		return saveErr(err, "failed to commit edit batch for day %s", edits.DayID)
	}
	return nil
}
