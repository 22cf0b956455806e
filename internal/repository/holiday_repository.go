package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nanoufn/bolsa-api/internal/models"
)

// HolidayRepository provides persistence for user-declared holidays.
type HolidayRepository struct {
	db *sqlx.DB
}

// NewHolidayRepository creates a new holiday repository.
func NewHolidayRepository(db *sqlx.DB) *HolidayRepository {
	return &HolidayRepository{db: db}
}

// ListByUser returns the user's custom holidays ordered by date.
func (r *HolidayRepository) ListByUser(ctx context.Context, userID string) ([]models.CustomHoliday, error) {
	const query = `SELECT id, user_id, date, name, created_at FROM custom_holidays WHERE user_id = $1 ORDER BY date ASC`
	var rows []models.CustomHoliday
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("list custom holidays: %w", err)
	}
	return rows, nil
}

// FindByID loads a custom holiday by id.
func (r *HolidayRepository) FindByID(ctx context.Context, id string) (*models.CustomHoliday, error) {
	const query = `SELECT id, user_id, date, name, created_at FROM custom_holidays WHERE id = $1`
	var row models.CustomHoliday
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	return &row, nil
}

// Create stores a new custom holiday.
func (r *HolidayRepository) Create(ctx context.Context, holiday *models.CustomHoliday) error {
	if holiday.ID == "" {
		holiday.ID = uuid.NewString()
	}
	holiday.CreatedAt = time.Now().UTC()

	const query = `INSERT INTO custom_holidays (id, user_id, date, name, created_at) VALUES (:id, :user_id, :date, :name, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, holiday); err != nil {
		return fmt.Errorf("create custom holiday: %w", err)
	}
	return nil
}

// Delete removes a custom holiday by id.
func (r *HolidayRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM custom_holidays WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete custom holiday: %w", err)
	}
	return nil
}
