package domain

// Table names shared by the local store schema, the sync wire format and the
// server collections.
const (
	TableWorkoutPlans     = "workout_plans"
	TablePlanDays         = "plan_days"
	TablePlanDayExercises = "plan_day_exercises"
	TableWorkouts         = "workouts"
	TableWorkoutExercises = "workout_exercises"
	TableExerciseSets     = "exercise_sets"
)

// SyncedTables lists every table the sync engine reconciles, in parent-first
// order so pulled creates can be applied without dangling references.
var SyncedTables = []string{
	TableWorkoutPlans,
	TablePlanDays,
	TablePlanDayExercises,
	TableWorkouts,
	TableWorkoutExercises,
	TableExerciseSets,
}

// Record status values tracked per row in the local store's _status column.
// They drive both default-query filtering (deleted rows are invisible) and
// push payload collection (everything not synced is an unsynced delta).
const (
	RecordSynced  = "synced"
	RecordCreated = "created"
	RecordUpdated = "updated"
	RecordDeleted = "deleted"
)

// RawRecord is one row on the sync wire: snake_case column names to values,
// timestamps as unix milliseconds.
type RawRecord map[string]any

// TableChanges carries one table's delta: full rows for creates and updates,
// bare IDs for deletions (tombstones).
type TableChanges struct {
	Created []RawRecord `json:"created"`
	Updated []RawRecord `json:"updated"`
	Deleted []string    `json:"deleted"`
}

// IsEmpty reports whether the table delta carries nothing.
func (tc TableChanges) IsEmpty() bool {
	return len(tc.Created) == 0 && len(tc.Updated) == 0 && len(tc.Deleted) == 0
}

// ChangeSet maps table name to its delta.
type ChangeSet map[string]TableChanges

// IsEmpty reports whether no table carries any change.
func (cs ChangeSet) IsEmpty() bool {
	for _, tc := range cs {
		if !tc.IsEmpty() {
			return false
		}
	}
	return true
}

// RecordCount totals rows across all tables and change classes.
func (cs ChangeSet) RecordCount() int {
	n := 0
	for _, tc := range cs {
		n += len(tc.Created) + len(tc.Updated) + len(tc.Deleted)
	}
	return n
}

// SyncResult summarizes one sync invocation. Errors holds user-facing
// messages only; raw causes never reach the UI.
type SyncResult struct {
	Success       bool     `json:"success"`
	Timestamp     int64    `json:"timestamp"` // New watermark (unix ms), 0 when the pull failed
	PulledRecords int      `json:"pulledRecords"`
	PushedRecords int      `json:"pushedRecords"`
	Errors        []string `json:"errors,omitempty"`
}
