package localdb

// currentSchemaVersion is the schema this build writes. The sync engine
// declares the version at which server-driven migrations activate; see
// sync.MigrationActivationVersion.
const currentSchemaVersion = 2

// Synced tables carry a _status column: 'synced', 'created', 'updated' or
// 'deleted'. Deleted rows are tombstones kept for the sync engine; default
// queries filter them out. Timestamps are unix milliseconds.
const schemaV1 = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS workout_plans (
	id              TEXT PRIMARY KEY,
	user_id         TEXT NOT NULL,
	name            TEXT NOT NULL,
	is_active       INTEGER NOT NULL DEFAULT 0,
	cover_image_url TEXT,
	_status         TEXT NOT NULL DEFAULT 'created',
	created_at      INTEGER NOT NULL,
	updated_at      INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS plan_days (
	id          TEXT PRIMARY KEY,
	plan_id     TEXT NOT NULL,
	name        TEXT NOT NULL,
	day_of_week INTEGER,
	order_index INTEGER NOT NULL DEFAULT 0,
	_status     TEXT NOT NULL DEFAULT 'created',
	created_at  INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS plan_day_exercises (
	id                 TEXT PRIMARY KEY,
	plan_day_id        TEXT NOT NULL,
	exercise_id        TEXT NOT NULL,
	order_index        INTEGER NOT NULL DEFAULT 0,
	target_sets        INTEGER NOT NULL,
	target_reps        INTEGER NOT NULL,
	rest_timer_seconds INTEGER,
	notes              TEXT,
	_status            TEXT NOT NULL DEFAULT 'created',
	created_at         INTEGER NOT NULL,
	updated_at         INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS workouts (
	id               TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL,
	plan_id          TEXT,
	plan_day_id      TEXT,
	started_at       INTEGER NOT NULL,
	completed_at     INTEGER,
	duration_seconds INTEGER,
	_status          TEXT NOT NULL DEFAULT 'created',
	created_at       INTEGER NOT NULL,
	updated_at       INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS workout_exercises (
	id          TEXT PRIMARY KEY,
	workout_id  TEXT NOT NULL,
	exercise_id TEXT NOT NULL,
	order_index INTEGER NOT NULL DEFAULT 0,
	notes       TEXT,
	_status     TEXT NOT NULL DEFAULT 'created',
	created_at  INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS exercise_sets (
	id                  TEXT PRIMARY KEY,
	workout_exercise_id TEXT NOT NULL,
	set_index           INTEGER NOT NULL DEFAULT 0,
	weight_kg           REAL NOT NULL DEFAULT 0,
	reps                INTEGER NOT NULL DEFAULT 0,
	rpe                 REAL,
	rir                 INTEGER,
	rest_seconds        INTEGER,
	is_warmup           INTEGER NOT NULL DEFAULT 0,
	is_failure          INTEGER NOT NULL DEFAULT 0,
	_status             TEXT NOT NULL DEFAULT 'created',
	created_at          INTEGER NOT NULL,
	updated_at          INTEGER NOT NULL
);

-- Read-only catalog, seeded once, never synced. List columns hold JSON.
CREATE TABLE IF NOT EXISTS exercises (
	id                TEXT PRIMARY KEY,
	name              TEXT NOT NULL,
	body_parts        TEXT,
	target_muscles    TEXT,
	secondary_muscles TEXT,
	equipments        TEXT,
	instructions      TEXT,
	media_url         TEXT
);

CREATE TABLE IF NOT EXISTS sync_state (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Schema v2 - query indexes.
const schemaV2 = `
CREATE INDEX IF NOT EXISTS idx_workout_plans_user ON workout_plans(user_id, _status);
CREATE INDEX IF NOT EXISTS idx_plan_days_plan ON plan_days(plan_id, _status, order_index);
CREATE INDEX IF NOT EXISTS idx_plan_day_exercises_day ON plan_day_exercises(plan_day_id, _status, order_index);
CREATE INDEX IF NOT EXISTS idx_workouts_user ON workouts(user_id, _status, started_at);
CREATE INDEX IF NOT EXISTS idx_workouts_plan_day ON workouts(plan_day_id, _status);
CREATE INDEX IF NOT EXISTS idx_workout_exercises_workout ON workout_exercises(workout_id, _status, order_index);
CREATE INDEX IF NOT EXISTS idx_exercise_sets_exercise ON exercise_sets(workout_exercise_id, _status, set_index);
CREATE INDEX IF NOT EXISTS idx_exercises_name ON exercises(name);
`
