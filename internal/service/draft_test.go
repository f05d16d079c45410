package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repwise/repwise-app/internal/domain"
)

func editDay() (*domain.PlanDay, []domain.PlanDayExercise) {
	day := &domain.PlanDay{ID: "day-1", Name: "Push Day"}
	exercises := []domain.PlanDayExercise{
		{ID: "e1", PlanDayID: "day-1", ExerciseID: "ex-bench", OrderIndex: 0},
		{ID: "e2", PlanDayID: "day-1", ExerciseID: "ex-ohp", OrderIndex: 1},
	}
	return day, exercises
}

func TestDayEditSession_NoEditsProduceEmptySave(t *testing.T) {
	s := NewDayEditSession(editDay())

	edits := s.Edits()
	assert.True(t, edits.IsEmpty())
}

func TestDayEditSession_RenameOnlyWhenChanged(t *testing.T) {
	s := NewDayEditSession(editDay())

	// Same name after trimming stays a no-op.
	s.Rename("  Push Day ")
	assert.Nil(t, s.Edits().Name)

	s.Rename("Chest Day")
	edits := s.Edits()
	require.NotNil(t, edits.Name)
	assert.Equal(t, "Chest Day", *edits.Name)
}

func TestDayEditSession_AddThenRemoveDraftElidesCompletely(t *testing.T) {
	s := NewDayEditSession(editDay())

	ref := s.Add("ex-squat")
	require.True(t, ref.IsDraft())
	s.Remove(ref)

	edits := s.Edits()
	assert.True(t, edits.IsEmpty(), "a dead draft add must never reach the save")
	assert.Len(t, s.Items(), 2)
}

func TestDayEditSession_RemovePersistedRecordsDeletion(t *testing.T) {
	s := NewDayEditSession(editDay())

	items := s.Items()
	s.Remove(items[0].Ref)

	edits := s.Edits()
	assert.Equal(t, []string{"e1"}, edits.RemovedExerciseIDs)
	// The surviving persisted item moved from index 1 to 0.
	require.Len(t, edits.ReorderedExercises, 1)
	assert.Equal(t, "e2", edits.ReorderedExercises[0].ID)
	assert.Equal(t, 0, edits.ReorderedExercises[0].OrderIndex)
}

func TestDayEditSession_AddAssignsVisualOrderIndexes(t *testing.T) {
	s := NewDayEditSession(editDay())

	s.Add("ex-squat")
	s.Move(2, 0) // New draft to the top

	edits := s.Edits()
	require.Len(t, edits.AddedExercises, 1)
	assert.Equal(t, "ex-squat", edits.AddedExercises[0].ExerciseID)
	assert.Equal(t, 0, edits.AddedExercises[0].OrderIndex)

	// Both persisted items shifted down by one.
	require.Len(t, edits.ReorderedExercises, 2)
	assert.Equal(t, "e1", edits.ReorderedExercises[0].ID)
	assert.Equal(t, 1, edits.ReorderedExercises[0].OrderIndex)
	assert.Equal(t, "e2", edits.ReorderedExercises[1].ID)
	assert.Equal(t, 2, edits.ReorderedExercises[1].OrderIndex)
}

func TestDayEditSession_MoveIgnoresOutOfRange(t *testing.T) {
	s := NewDayEditSession(editDay())

	s.Move(-1, 0)
	s.Move(0, 5)
	s.Move(1, 1)

	assert.True(t, s.Edits().IsEmpty())
}

func TestDayEditSession_UnmovedPersistedItemsGetNoReorderEntry(t *testing.T) {
	s := NewDayEditSession(editDay())

	s.Add("ex-squat") // Appends at the end, indexes 0 and 1 untouched

	edits := s.Edits()
	assert.Empty(t, edits.ReorderedExercises)
	require.Len(t, edits.AddedExercises, 1)
	assert.Equal(t, 2, edits.AddedExercises[0].OrderIndex)
}
