package domain

import "time"

// Limits enforced by the service layer. The storage schema does not know about
// these; every write path that could violate them must check first.
const (
	MaxDaysPerPlan     = 7
	MaxExercisesPerDay = 12
	MaxPlanNameLen     = 50
	MaxDayNameLen      = 30

	DefaultTargetSets = 3
	DefaultTargetReps = 10
)

// WorkoutPlan is a reusable named workout template owned by one user.
// At most one plan per user is active at any time; activating a plan
// deactivates its siblings in the same batch.
type WorkoutPlan struct {
	ID            string    `bson:"_id" json:"id"`
	UserID        string    `bson:"userId" json:"userId"` // Owner
	Name          string    `bson:"name" json:"name"`
	IsActive      bool      `bson:"isActive" json:"isActive"`
	CoverImageURL string    `bson:"coverImageUrl,omitempty" json:"coverImageUrl,omitempty"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt" json:"updatedAt"`
}

// PlanDay is one day slot within a plan, holding an ordered exercise list.
// OrderIndex is dense and zero-based within the plan.
type PlanDay struct {
	ID         string    `bson:"_id" json:"id"`
	PlanID     string    `bson:"planId" json:"planId"`
	Name       string    `bson:"name" json:"name"`
	DayOfWeek  *int      `bson:"dayOfWeek,omitempty" json:"dayOfWeek,omitempty"` // 1 (Mon) - 7 (Sun), optional
	OrderIndex int       `bson:"orderIndex" json:"orderIndex"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt" json:"updatedAt"`
}

// PlanDayExercise is one exercise entry within a PlanDay. ExerciseID points
// into the read-only catalog. An exercise may appear at most once per day.
type PlanDayExercise struct {
	ID               string    `bson:"_id" json:"id"`
	PlanDayID        string    `bson:"planDayId" json:"planDayId"`
	ExerciseID       string    `bson:"exerciseId" json:"exerciseId"`
	OrderIndex       int       `bson:"orderIndex" json:"orderIndex"`
	TargetSets       int       `bson:"targetSets" json:"targetSets"`
	TargetReps       int       `bson:"targetReps" json:"targetReps"`
	RestTimerSeconds *int      `bson:"restTimerSeconds,omitempty" json:"restTimerSeconds,omitempty"`
	Notes            string    `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt        time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time `bson:"updatedAt" json:"updatedAt"`
}

// PlanDayDetail is the payload shape shared by the one-shot and observed
// reads of a single day: the day itself, its exercises in order, and the
// muscle group that dominates the day's exercise list.
type PlanDayDetail struct {
	Day                 PlanDay           `json:"day"`
	Exercises           []PlanDayExercise `json:"exercises"`
	DominantMuscleGroup string            `json:"dominantMuscleGroup,omitempty"`
	LastPerformedAt     *time.Time        `json:"lastPerformedAt,omitempty"`
}

// NewDayExercise describes one exercise being added to a day.
type NewDayExercise struct {
	ExerciseID string `json:"exerciseId"`
	OrderIndex int    `json:"orderIndex"`
}

// ExerciseReorder assigns a new position to an already-persisted day exercise.
type ExerciseReorder struct {
	ID         string `json:"id"`
	OrderIndex int    `json:"orderIndex"`
}

// PlanDayEdits is the input of the batched edit-session save: everything a
// user changed while editing one day's exercise list offline. All four change
// classes commit as a single batch or not at all.
type PlanDayEdits struct {
	DayID              string            `json:"dayId"`
	Name               *string           `json:"name,omitempty"`
	RemovedExerciseIDs []string          `json:"removedExerciseIds"`
	AddedExercises     []NewDayExercise  `json:"addedExercises"`
	ReorderedExercises []ExerciseReorder `json:"reorderedExercises"`
}

// IsEmpty reports whether the edits contain no changes at all.
func (e PlanDayEdits) IsEmpty() bool {
	return e.Name == nil &&
		len(e.RemovedExerciseIDs) == 0 &&
		len(e.AddedExercises) == 0 &&
		len(e.ReorderedExercises) == 0
}
