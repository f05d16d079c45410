package service

import (
	"strings"

	"repwise/repwise-app/internal/domain"
)

// DraftRef identifies one exercise row inside an edit session: either a row
// already persisted in the store or a draft added during this session. A
// tagged struct instead of prefixed string IDs, so nothing ever has to sniff
// "temp_" out of an identifier.
type DraftRef struct {
	persistedID string
	draftSeq    int
	isDraft     bool
}

// IsDraft reports whether the ref points at a not-yet-persisted addition.
func (r DraftRef) IsDraft() bool {
	return r.isDraft
}

// PersistedID returns the store row ID, empty for drafts.
func (r DraftRef) PersistedID() string {
	if r.isDraft {
		return ""
	}
	return r.persistedID
}

type draftItem struct {
	ref        DraftRef
	exerciseID string
}

// DayEditSession accumulates one day's offline edits — rename, additions,
// removals, moves — entirely in memory. Nothing touches the store until the
// session's Edits() output is handed to PlanService.SavePlanDayEdits, which
// commits everything in one batch. Adding and then removing the same draft
// item within the session elides it completely; the save never sees it.
type DayEditSession struct {
	dayID         string
	originalName  string
	name          string
	items         []draftItem
	removed       []string
	originalIndex map[string]int
	nextDraftSeq  int
}

// NewDayEditSession opens an edit session over a day's current state.
func NewDayEditSession(day *domain.PlanDay, exercises []domain.PlanDayExercise) *DayEditSession {
	s := &DayEditSession{
		dayID:         day.ID,
		originalName:  day.Name,
		name:          day.Name,
		originalIndex: make(map[string]int, len(exercises)),
	}
	for i, ex := range exercises {
		s.items = append(s.items, draftItem{
			ref:        DraftRef{persistedID: ex.ID},
			exerciseID: ex.ExerciseID,
		})
		s.originalIndex[ex.ID] = i
	}
	return s
}

// Rename stages a new day name.
func (s *DayEditSession) Rename(name string) {
	s.name = name
}

// Add stages a new exercise at the end of the list and returns its ref.
func (s *DayEditSession) Add(exerciseID string) DraftRef {
	ref := DraftRef{draftSeq: s.nextDraftSeq, isDraft: true}
	s.nextDraftSeq++
	s.items = append(s.items, draftItem{ref: ref, exerciseID: exerciseID})
	return ref
}

// Remove stages the removal of an item. Removing a draft item simply drops
// the staged addition; removing a persisted item records a deletion.
func (s *DayEditSession) Remove(ref DraftRef) {
	for i, item := range s.items {
		if item.ref != ref {
			continue
		}
		s.items = append(s.items[:i], s.items[i+1:]...)
		if !ref.isDraft {
			s.removed = append(s.removed, ref.persistedID)
		}
		return
	}
}

// Move repositions the item at index from to index to, shifting the rest.
// Out-of-range indexes are ignored.
func (s *DayEditSession) Move(from, to int) {
	if from < 0 || from >= len(s.items) || to < 0 || to >= len(s.items) || from == to {
		return
	}
	item := s.items[from]
	s.items = append(s.items[:from], s.items[from+1:]...)
	rest := append([]draftItem{}, s.items[to:]...)
	s.items = append(append(s.items[:to:to], item), rest...)
}

// Items returns the current visual list as (ref, exerciseID) pairs.
func (s *DayEditSession) Items() []struct {
	Ref        DraftRef
	ExerciseID string
} {
	out := make([]struct {
		Ref        DraftRef
		ExerciseID string
	}, len(s.items))
	for i, item := range s.items {
		out[i].Ref = item.ref
		out[i].ExerciseID = item.exerciseID
	}
	return out
}

// Edits flattens the session into the atomic save input. Order indexes are
// assigned densely from the current visual order; persisted items only get
// a reorder entry when their position actually changed.
func (s *DayEditSession) Edits() domain.PlanDayEdits {
	edits := domain.PlanDayEdits{
		DayID:              s.dayID,
		RemovedExerciseIDs: append([]string{}, s.removed...),
	}

	if strings.TrimSpace(s.name) != s.originalName {
		name := s.name
		edits.Name = &name
	}

	for i, item := range s.items {
		if item.ref.isDraft {
			edits.AddedExercises = append(edits.AddedExercises, domain.NewDayExercise{
				ExerciseID: item.exerciseID,
				OrderIndex: i,
			})
			continue
		}
		if orig, ok := s.originalIndex[item.ref.persistedID]; ok && orig != i {
			edits.ReorderedExercises = append(edits.ReorderedExercises, domain.ExerciseReorder{
				ID:         item.ref.persistedID,
				OrderIndex: i,
			})
		}
	}
	return edits
}
