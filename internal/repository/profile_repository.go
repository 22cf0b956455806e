package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nanoufn/bolsa-api/internal/models"
)

// ProfileRepository provides persistence for the scholarship profile.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository creates a new profile repository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// FindByUser loads the user's profile row.
func (r *ProfileRepository) FindByUser(ctx context.Context, userID string) (*models.Profile, error) {
	const query = `SELECT id, user_id, scholar, advisor, lab, grant_name, weekly_workload_hours, created_at, updated_at FROM profiles WHERE user_id = $1`
	var profile models.Profile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Upsert stores or replaces the user's single profile row.
func (r *ProfileRepository) Upsert(ctx context.Context, profile *models.Profile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	const query = `INSERT INTO profiles (id, user_id, scholar, advisor, lab, grant_name, weekly_workload_hours, created_at, updated_at)
VALUES (:id, :user_id, :scholar, :advisor, :lab, :grant_name, :weekly_workload_hours, :created_at, :updated_at)
ON CONFLICT (user_id) DO UPDATE SET scholar = EXCLUDED.scholar, advisor = EXCLUDED.advisor, lab = EXCLUDED.lab, grant_name = EXCLUDED.grant_name, weekly_workload_hours = EXCLUDED.weekly_workload_hours, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}
