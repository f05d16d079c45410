package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repwise/repwise-app/internal/domain"
)

func TestStartWorkout_RecordsPlanLineage(t *testing.T) {
	f := newPlanFixture(t)
	ctx := context.Background()

	planID, dayID := f.newDay(t)
	w, err := f.workouts.StartWorkout(ctx, "", dayID)
	require.NoError(t, err)

	// Lineage is resolved from the day even when the plan ID is omitted.
	assert.Equal(t, planID, w.PlanID)
	assert.Equal(t, dayID, w.PlanDayID)
	assert.Nil(t, w.CompletedAt)
}

func TestStartWorkout_FreestyleWithoutPlan(t *testing.T) {
	f := newPlanFixture(t)

	w, err := f.workouts.StartWorkout(context.Background(), "", "")
	require.NoError(t, err)
	assert.Empty(t, w.PlanID)
	assert.Empty(t, w.PlanDayID)
}

func TestLogSet_AppendsWithDenseSetIndexes(t *testing.T) {
	f := newPlanFixture(t)
	f.seedCatalog(t, benchPress())
	ctx := context.Background()

	w, err := f.workouts.StartWorkout(ctx, "", "")
	require.NoError(t, err)
	we, err := f.workouts.AddWorkoutExercise(ctx, w.ID, "ex-bench")
	require.NoError(t, err)

	first, err := f.workouts.LogSet(ctx, we.ID, SetInput{WeightKg: 100, Reps: 5})
	require.NoError(t, err)
	second, err := f.workouts.LogSet(ctx, we.ID, SetInput{WeightKg: 102.5, Reps: 3})
	require.NoError(t, err)

	assert.Equal(t, 0, first.SetIndex)
	assert.Equal(t, 1, second.SetIndex)
}

func TestLogSet_RejectsNegativeInput(t *testing.T) {
	f := newPlanFixture(t)

	_, err := f.workouts.LogSet(context.Background(), "whatever", SetInput{WeightKg: -1, Reps: 5})
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.ErrorKindValidation))
}

func TestCompleteWorkout_SetsDurationAndIsIdempotent(t *testing.T) {
	f := newPlanFixture(t)
	ctx := context.Background()

	w, err := f.workouts.StartWorkout(ctx, "", "")
	require.NoError(t, err)

	done, err := f.workouts.CompleteWorkout(ctx, w.ID)
	require.NoError(t, err)
	require.NotNil(t, done.CompletedAt)
	require.NotNil(t, done.DurationSeconds)

	// Completing again changes nothing.
	again, err := f.workouts.CompleteWorkout(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, done.CompletedAt, again.CompletedAt)
}

func TestDeleteWorkout_RemovesSessionFromHistory(t *testing.T) {
	f := newPlanFixture(t)
	f.seedCatalog(t, benchPress())
	ctx := context.Background()

	w, err := f.workouts.StartWorkout(ctx, "", "")
	require.NoError(t, err)
	we, err := f.workouts.AddWorkoutExercise(ctx, w.ID, "ex-bench")
	require.NoError(t, err)
	_, err = f.workouts.LogSet(ctx, we.ID, SetInput{WeightKg: 60, Reps: 10})
	require.NoError(t, err)

	require.NoError(t, f.workouts.DeleteWorkout(ctx, w.ID))

	history, err := f.workouts.GetHistory(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)

	_, err = f.workouts.GetWorkoutDetail(ctx, w.ID)
	require.Error(t, err)
}

func TestGetWorkoutDetail_GroupsSetsUnderExercises(t *testing.T) {
	f := newPlanFixture(t)
	f.seedCatalog(t, benchPress(), squat())
	ctx := context.Background()

	w, err := f.workouts.StartWorkout(ctx, "", "")
	require.NoError(t, err)
	bench, err := f.workouts.AddWorkoutExercise(ctx, w.ID, "ex-bench")
	require.NoError(t, err)
	sq, err := f.workouts.AddWorkoutExercise(ctx, w.ID, "ex-squat")
	require.NoError(t, err)

	_, err = f.workouts.LogSet(ctx, bench.ID, SetInput{WeightKg: 100, Reps: 5})
	require.NoError(t, err)
	_, err = f.workouts.LogSet(ctx, sq.ID, SetInput{WeightKg: 140, Reps: 5})
	require.NoError(t, err)
	_, err = f.workouts.LogSet(ctx, sq.ID, SetInput{WeightKg: 140, Reps: 4, IsFailure: true})
	require.NoError(t, err)

	detail, err := f.workouts.GetWorkoutDetail(ctx, w.ID)
	require.NoError(t, err)
	require.Len(t, detail.Exercises, 2)
	assert.Len(t, detail.Exercises[0].Sets, 1)
	assert.Len(t, detail.Exercises[1].Sets, 2)
	assert.True(t, detail.Exercises[1].Sets[1].IsFailure)
}

func TestSearchExercises_FiltersByNameAndMuscle(t *testing.T) {
	f := newPlanFixture(t)
	f.seedCatalog(t,
		domain.Exercise{ID: "e1", Name: "Bench Press", TargetMuscles: []string{"chest"}},
		domain.Exercise{ID: "e2", Name: "Incline Bench Press", TargetMuscles: []string{"chest"}},
		domain.Exercise{ID: "e3", Name: "Barbell Row", TargetMuscles: []string{"back"}},
	)
	ctx := context.Background()

	byName, err := f.catalog.SearchExercises(ctx, "bench", "", 0)
	require.NoError(t, err)
	assert.Len(t, byName, 2)

	byMuscle, err := f.catalog.SearchExercises(ctx, "", "back", 0)
	require.NoError(t, err)
	require.Len(t, byMuscle, 1)
	assert.Equal(t, "Barbell Row", byMuscle[0].Name)
}

func TestSeedIfEmpty_SecondSeedIsNoOp(t *testing.T) {
	f := newPlanFixture(t)
	ctx := context.Background()

	f.seedCatalog(t, benchPress())
	// A second launch with a different bundle must not duplicate or replace.
	require.NoError(t, f.catalog.SeedIfEmpty(ctx, []domain.Exercise{squat()}))

	_, err := f.catalog.GetExercise(ctx, "ex-bench")
	require.NoError(t, err)
	_, err = f.catalog.GetExercise(ctx, "ex-squat")
	require.Error(t, err)
}
