package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nanoufn/bolsa-api/internal/models"
)

// WeeklySlotRepository provides persistence for recurring weekly slots.
type WeeklySlotRepository struct {
	db *sqlx.DB
}

// NewWeeklySlotRepository creates a new weekly slot repository.
func NewWeeklySlotRepository(db *sqlx.DB) *WeeklySlotRepository {
	return &WeeklySlotRepository{db: db}
}

const weeklySlotColumns = `id, user_id, weekday, start_time, end_time, description, start_date, end_date, created_at, updated_at`

// ListByUser returns the user's slots ordered by weekday then start time.
func (r *WeeklySlotRepository) ListByUser(ctx context.Context, userID string) ([]models.WeeklySlot, error) {
	query := fmt.Sprintf(`SELECT %s FROM weekly_slots WHERE user_id = $1 ORDER BY weekday ASC, start_time ASC`, weeklySlotColumns)
	var slots []models.WeeklySlot
	if err := r.db.SelectContext(ctx, &slots, query, userID); err != nil {
		return nil, fmt.Errorf("list weekly slots: %w", err)
	}
	return slots, nil
}

// FindByID loads a slot by id.
func (r *WeeklySlotRepository) FindByID(ctx context.Context, id string) (*models.WeeklySlot, error) {
	query := fmt.Sprintf(`SELECT %s FROM weekly_slots WHERE id = $1`, weeklySlotColumns)
	var slot models.WeeklySlot
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		return nil, err
	}
	return &slot, nil
}

// Create stores a new slot record.
func (r *WeeklySlotRepository) Create(ctx context.Context, slot *models.WeeklySlot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	slot.CreatedAt = now
	slot.UpdatedAt = now

	const query = `INSERT INTO weekly_slots (id, user_id, weekday, start_time, end_time, description, start_date, end_date, created_at, updated_at) VALUES (:id, :user_id, :weekday, :start_time, :end_time, :description, :start_date, :end_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("create weekly slot: %w", err)
	}
	return nil
}

// Update modifies a slot record.
func (r *WeeklySlotRepository) Update(ctx context.Context, slot *models.WeeklySlot) error {
	slot.UpdatedAt = time.Now().UTC()
	const query = `UPDATE weekly_slots SET weekday = :weekday, start_time = :start_time, end_time = :end_time, description = :description, start_date = :start_date, end_date = :end_date, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("update weekly slot: %w", err)
	}
	return nil
}

// Delete removes a slot by id.
func (r *WeeklySlotRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM weekly_slots WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete weekly slot: %w", err)
	}
	return nil
}
