package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"repwise/repwise-app/internal/domain"
	"repwise/repwise-app/internal/localdb"
	"repwise/repwise-app/internal/repository"
)

const planDayColumns = "id, plan_id, name, day_of_week, order_index, created_at, updated_at"

// sqlitePlanDayRepository implements repository.PlanDayRepository.
type sqlitePlanDayRepository struct {
	store *localdb.Store
}

// NewPlanDayRepository creates a new plan day repository.
func NewPlanDayRepository(store *localdb.Store) repository.PlanDayRepository {
	return &sqlitePlanDayRepository{store: store}
}

func scanPlanDay(row interface{ Scan(...any) error }) (*domain.PlanDay, error) {
	var d domain.PlanDay
	var dow sql.NullInt64
	var created, updated int64
	if err := row.Scan(&d.ID, &d.PlanID, &d.Name, &dow, &d.OrderIndex, &created, &updated); err != nil {
		return nil, err
	}
	d.DayOfWeek = intPtr(dow)
	d.CreatedAt = fromMillis(created)
	d.UpdatedAt = fromMillis(updated)
	return &d, nil
}

// Find retrieves a single non-deleted day by ID.
func (r *sqlitePlanDayRepository) Find(ctx context.Context, id string) (*domain.PlanDay, error) {
	row := r.store.DB().QueryRowContext(ctx,
		"SELECT "+planDayColumns+" FROM plan_days WHERE id = ? AND "+notDeleted, id)
	day, err := scanPlanDay(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return day, nil
}

// ListByPlan retrieves a plan's days in list order.
func (r *sqlitePlanDayRepository) ListByPlan(ctx context.Context, planID string) ([]domain.PlanDay, error) {
	rows, err := r.store.DB().QueryContext(ctx,
		"SELECT "+planDayColumns+" FROM plan_days WHERE plan_id = ? AND "+notDeleted+" ORDER BY order_index", planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	days := []domain.PlanDay{}
	for rows.Next() {
		d, err := scanPlanDay(rows)
		if err != nil {
			return nil, err
		}
		days = append(days, *d)
	}
	return days, rows.Err()
}

// CountByPlan counts a plan's non-deleted days, for the ceiling check.
func (r *sqlitePlanDayRepository) CountByPlan(ctx context.Context, planID string) (int, error) {
	var n int
	err := r.store.DB().QueryRowContext(ctx,
		"SELECT COUNT(*) FROM plan_days WHERE plan_id = ? AND "+notDeleted, planID).Scan(&n)
	return n, err
}

// PrepareCreate builds the insert op for a new locally-created day.
func (r *sqlitePlanDayRepository) PrepareCreate(day *domain.PlanDay) localdb.WriteOp {
	return localdb.WriteOp{
		Table: domain.TablePlanDays,
		Query: `INSERT INTO plan_days (id, plan_id, name, day_of_week, order_index, _status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, 'created', ?, ?)`,
		Args: []any{day.ID, day.PlanID, day.Name, nullInt(day.DayOfWeek), day.OrderIndex,
			millis(day.CreatedAt), millis(day.UpdatedAt)},
	}
}

// PrepareUpdate builds the update op for the day's mutable fields.
func (r *sqlitePlanDayRepository) PrepareUpdate(day *domain.PlanDay) localdb.WriteOp {
	return localdb.WriteOp{
		Table: domain.TablePlanDays,
		Query: `UPDATE plan_days SET name = ?, day_of_week = ?, order_index = ?,
			updated_at = ?, _status = ` + statusOnUpdate + ` WHERE id = ?`,
		Args: []any{day.Name, nullInt(day.DayOfWeek), day.OrderIndex, nowMillis(), day.ID},
	}
}

// PrepareSoftDelete builds the tombstone op.
func (r *sqlitePlanDayRepository) PrepareSoftDelete(id string) localdb.WriteOp {
	return localdb.WriteOp{
		Table: domain.TablePlanDays,
		Query: "UPDATE plan_days SET _status = 'deleted', updated_at = ? WHERE id = ?",
		Args:  []any{nowMillis(), id},
	}
}
