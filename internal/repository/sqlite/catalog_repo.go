package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"repwise/repwise-app/internal/domain"
	"repwise/repwise-app/internal/localdb"
	"repwise/repwise-app/internal/repository"
)

const exerciseColumns = "id, name, body_parts, target_muscles, secondary_muscles, equipments, instructions, media_url"

// sqliteCatalogRepository implements repository.CatalogRepository. The
// catalog has no _status column: it is never synced and never soft-deleted.
type sqliteCatalogRepository struct {
	store *localdb.Store
}

// NewCatalogRepository creates a new exercise catalog repository.
func NewCatalogRepository(store *localdb.Store) repository.CatalogRepository {
	return &sqliteCatalogRepository{store: store}
}

func scanExercise(row interface{ Scan(...any) error }) (*domain.Exercise, error) {
	var e domain.Exercise
	var bodyParts, targets, secondaries, equipments, instructions, media sql.NullString
	err := row.Scan(&e.ID, &e.Name, &bodyParts, &targets, &secondaries, &equipments, &instructions, &media)
	if err != nil {
		return nil, err
	}
	e.BodyParts = fromJSONList(bodyParts)
	e.TargetMuscles = fromJSONList(targets)
	e.SecondaryMuscles = fromJSONList(secondaries)
	e.Equipments = fromJSONList(equipments)
	e.Instructions = fromJSONList(instructions)
	e.MediaURL = media.String
	return &e, nil
}

// Find retrieves one catalog entry.
func (r *sqliteCatalogRepository) Find(ctx context.Context, id string) (*domain.Exercise, error) {
	row := r.store.DB().QueryRowContext(ctx,
		"SELECT "+exerciseColumns+" FROM exercises WHERE id = ?", id)
	e, err := scanExercise(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// FindMany retrieves a batch of catalog entries keyed by ID. Missing IDs are
// simply absent from the result, not an error.
func (r *sqliteCatalogRepository) FindMany(ctx context.Context, ids []string) (map[string]domain.Exercise, error) {
	result := make(map[string]domain.Exercise, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.store.DB().QueryContext(ctx,
		"SELECT "+exerciseColumns+" FROM exercises WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanExercise(rows)
		if err != nil {
			return nil, err
		}
		result[e.ID] = *e
	}
	return result, rows.Err()
}

// Search filters the catalog by name substring and/or target muscle.
func (r *sqliteCatalogRepository) Search(ctx context.Context, nameQuery, muscle string, limit int) ([]domain.Exercise, error) {
	query := "SELECT " + exerciseColumns + " FROM exercises WHERE 1=1"
	args := []any{}
	if nameQuery != "" {
		query += " AND name LIKE ?"
		args = append(args, "%"+nameQuery+"%")
	}
	if muscle != "" {
		// List columns hold JSON arrays; substring match is good enough for
		// an on-device filter.
		query += " AND target_muscles LIKE ?"
		args = append(args, "%"+muscle+"%")
	}
	query += " ORDER BY name"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.store.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exercises := []domain.Exercise{}
	for rows.Next() {
		e, err := scanExercise(rows)
		if err != nil {
			return nil, err
		}
		exercises = append(exercises, *e)
	}
	return exercises, rows.Err()
}

// Count reports the number of seeded entries; zero means first launch.
func (r *sqliteCatalogRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.store.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM exercises").Scan(&n)
	return n, err
}

// Seed inserts the static dataset in one write scope. Existing entries are
// replaced so a re-seed after an interrupted first launch is safe.
func (r *sqliteCatalogRepository) Seed(ctx context.Context, exercises []domain.Exercise) error {
	return r.store.Write(ctx, []string{"exercises"}, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO exercises
			(id, name, body_parts, target_muscles, secondary_muscles, equipments, instructions, media_url)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i := range exercises {
			e := &exercises[i]
			_, err := stmt.ExecContext(ctx, e.ID, e.Name,
				toJSONList(e.BodyParts), toJSONList(e.TargetMuscles), toJSONList(e.SecondaryMuscles),
				toJSONList(e.Equipments), toJSONList(e.Instructions), nullString(e.MediaURL))
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func toJSONList(items []string) any {
	if len(items) == 0 {
		return nil
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil
	}
	return string(b)
}

func fromJSONList(v sql.NullString) []string {
	if !v.Valid || v.String == "" {
		return nil
	}
	var items []string
	if err := json.Unmarshal([]byte(v.String), &items); err != nil {
		return nil
	}
	return items
}
