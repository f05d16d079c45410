package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"repwise/repwise-app/internal/domain"
	"repwise/repwise-app/internal/localdb"
	"repwise/repwise-app/internal/repository"
)

const planColumns = "id, user_id, name, is_active, cover_image_url, created_at, updated_at"

// sqlitePlanRepository implements repository.PlanRepository.
type sqlitePlanRepository struct {
	store *localdb.Store
}

// NewPlanRepository creates a new workout plan repository.
func NewPlanRepository(store *localdb.Store) repository.PlanRepository {
	return &sqlitePlanRepository{store: store}
}

func scanPlan(row interface{ Scan(...any) error }) (*domain.WorkoutPlan, error) {
	var p domain.WorkoutPlan
	var active int64
	var cover sql.NullString
	var created, updated int64
	if err := row.Scan(&p.ID, &p.UserID, &p.Name, &active, &cover, &created, &updated); err != nil {
		return nil, err
	}
	p.IsActive = active != 0
	p.CoverImageURL = cover.String
	p.CreatedAt = fromMillis(created)
	p.UpdatedAt = fromMillis(updated)
	return &p, nil
}

// Find retrieves a single non-deleted plan by ID.
func (r *sqlitePlanRepository) Find(ctx context.Context, id string) (*domain.WorkoutPlan, error) {
	row := r.store.DB().QueryRowContext(ctx,
		"SELECT "+planColumns+" FROM workout_plans WHERE id = ? AND "+notDeleted, id)
	plan, err := scanPlan(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return plan, nil
}

// ListByUser retrieves all of a user's plans, newest first.
func (r *sqlitePlanRepository) ListByUser(ctx context.Context, userID string) ([]domain.WorkoutPlan, error) {
	return r.list(ctx,
		"SELECT "+planColumns+" FROM workout_plans WHERE user_id = ? AND "+notDeleted+" ORDER BY created_at DESC", userID)
}

// ListActiveByUser retrieves the user's active plans. The single-active
// invariant makes this zero or one row, but the service rechecks.
func (r *sqlitePlanRepository) ListActiveByUser(ctx context.Context, userID string) ([]domain.WorkoutPlan, error) {
	return r.list(ctx,
		"SELECT "+planColumns+" FROM workout_plans WHERE user_id = ? AND is_active = 1 AND "+notDeleted, userID)
}

func (r *sqlitePlanRepository) list(ctx context.Context, query string, args ...any) ([]domain.WorkoutPlan, error) {
	rows, err := r.store.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := []domain.WorkoutPlan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

// PrepareCreate builds the insert op for a new locally-created plan.
func (r *sqlitePlanRepository) PrepareCreate(plan *domain.WorkoutPlan) localdb.WriteOp {
	return localdb.WriteOp{
		Table: domain.TableWorkoutPlans,
		Query: `INSERT INTO workout_plans (id, user_id, name, is_active, cover_image_url, _status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, 'created', ?, ?)`,
		Args: []any{plan.ID, plan.UserID, plan.Name, boolInt(plan.IsActive), nullString(plan.CoverImageURL),
			millis(plan.CreatedAt), millis(plan.UpdatedAt)},
	}
}

// PrepareUpdate builds the update op for the plan's mutable fields.
func (r *sqlitePlanRepository) PrepareUpdate(plan *domain.WorkoutPlan) localdb.WriteOp {
	return localdb.WriteOp{
		Table: domain.TableWorkoutPlans,
		Query: `UPDATE workout_plans SET name = ?, is_active = ?, cover_image_url = ?,
			updated_at = ?, _status = ` + statusOnUpdate + ` WHERE id = ?`,
		Args: []any{plan.Name, boolInt(plan.IsActive), nullString(plan.CoverImageURL), nowMillis(), plan.ID},
	}
}

// PrepareSoftDelete builds the tombstone op.
func (r *sqlitePlanRepository) PrepareSoftDelete(id string) localdb.WriteOp {
	return localdb.WriteOp{
		Table: domain.TableWorkoutPlans,
		Query: "UPDATE workout_plans SET _status = 'deleted', updated_at = ? WHERE id = ?",
		Args:  []any{nowMillis(), id},
	}
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
