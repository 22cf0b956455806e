package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nanoufn/bolsa-api/internal/models"
)

// DefaultActivityRepository provides persistence for filler activities.
type DefaultActivityRepository struct {
	db *sqlx.DB
}

// NewDefaultActivityRepository creates a new default activity repository.
func NewDefaultActivityRepository(db *sqlx.DB) *DefaultActivityRepository {
	return &DefaultActivityRepository{db: db}
}

// ListByUser returns the user's activities ordered by description for a
// deterministic rotation.
func (r *DefaultActivityRepository) ListByUser(ctx context.Context, userID string) ([]models.DefaultActivity, error) {
	const query = `SELECT id, user_id, description, color, created_at, updated_at FROM default_activities WHERE user_id = $1 ORDER BY description ASC`
	var activities []models.DefaultActivity
	if err := r.db.SelectContext(ctx, &activities, query, userID); err != nil {
		return nil, fmt.Errorf("list default activities: %w", err)
	}
	return activities, nil
}

// FindByID loads an activity by id.
func (r *DefaultActivityRepository) FindByID(ctx context.Context, id string) (*models.DefaultActivity, error) {
	const query = `SELECT id, user_id, description, color, created_at, updated_at FROM default_activities WHERE id = $1`
	var activity models.DefaultActivity
	if err := r.db.GetContext(ctx, &activity, query, id); err != nil {
		return nil, err
	}
	return &activity, nil
}

// Create stores a new activity record.
func (r *DefaultActivityRepository) Create(ctx context.Context, activity *models.DefaultActivity) error {
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	activity.CreatedAt = now
	activity.UpdatedAt = now

	const query = `INSERT INTO default_activities (id, user_id, description, color, created_at, updated_at) VALUES (:id, :user_id, :description, :color, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, activity); err != nil {
		return fmt.Errorf("create default activity: %w", err)
	}
	return nil
}

// Update modifies an activity record.
func (r *DefaultActivityRepository) Update(ctx context.Context, activity *models.DefaultActivity) error {
	activity.UpdatedAt = time.Now().UTC()
	const query = `UPDATE default_activities SET description = :description, color = :color, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, activity); err != nil {
		return fmt.Errorf("update default activity: %w", err)
	}
	return nil
}

// Delete removes an activity by id.
func (r *DefaultActivityRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM default_activities WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete default activity: %w", err)
	}
	return nil
}
