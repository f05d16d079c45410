package domain

import "time"

// Workout is one logged training session. PlanID/PlanDayID record lineage
// when the session was started from a plan day; ad-hoc sessions leave them
// empty.
type Workout struct {
	ID              string     `bson:"_id" json:"id"`
	UserID          string     `bson:"userId" json:"userId"`
	PlanID          string     `bson:"planId,omitempty" json:"planId,omitempty"`
	PlanDayID       string     `bson:"planDayId,omitempty" json:"planDayId,omitempty"`
	StartedAt       time.Time  `bson:"startedAt" json:"startedAt"`
	CompletedAt     *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	DurationSeconds *int       `bson:"durationSeconds,omitempty" json:"durationSeconds,omitempty"`
	CreatedAt       time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// WorkoutExercise is one exercise performed within a workout, in order.
type WorkoutExercise struct {
	ID         string    `bson:"_id" json:"id"`
	WorkoutID  string    `bson:"workoutId" json:"workoutId"`
	ExerciseID string    `bson:"exerciseId" json:"exerciseId"`
	OrderIndex int       `bson:"orderIndex" json:"orderIndex"`
	Notes      string    `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt" json:"updatedAt"`
}

// ExerciseSet records one actually performed set.
type ExerciseSet struct {
	ID                string    `bson:"_id" json:"id"`
	WorkoutExerciseID string    `bson:"workoutExerciseId" json:"workoutExerciseId"`
	SetIndex          int       `bson:"setIndex" json:"setIndex"`
	WeightKg          float64   `bson:"weightKg" json:"weightKg"`
	Reps              int       `bson:"reps" json:"reps"`
	RPE               *float64  `bson:"rpe,omitempty" json:"rpe,omitempty"` // Rating of perceived exertion, 1-10
	RIR               *int      `bson:"rir,omitempty" json:"rir,omitempty"` // Reps in reserve
	RestSeconds       *int      `bson:"restSeconds,omitempty" json:"restSeconds,omitempty"`
	IsWarmup          bool      `bson:"isWarmup" json:"isWarmup"`
	IsFailure         bool      `bson:"isFailure" json:"isFailure"`
	CreatedAt         time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time `bson:"updatedAt" json:"updatedAt"`
}

// WorkoutDetail bundles a workout with its performed exercises and sets,
// the shape returned by both history read forms.
type WorkoutDetail struct {
	Workout   Workout                 `json:"workout"`
	Exercises []WorkoutExerciseDetail `json:"exercises"`
}

// WorkoutExerciseDetail pairs a performed exercise with its sets in order.
type WorkoutExerciseDetail struct {
	Exercise WorkoutExercise `json:"exercise"`
	Sets     []ExerciseSet   `json:"sets"`
}
