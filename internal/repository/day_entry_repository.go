package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nanoufn/bolsa-api/internal/models"
)

// DayEntryRepository provides persistence for logged time blocks.
type DayEntryRepository struct {
	db *sqlx.DB
}

// NewDayEntryRepository creates a new day entry repository.
func NewDayEntryRepository(db *sqlx.DB) *DayEntryRepository {
	return &DayEntryRepository{db: db}
}

const dayEntryColumns = `id, user_id, date, start_time, end_time, description, hours, color, created_at, updated_at`

// ListByRange returns the user's entries with date in [start, end), ordered
// by date then start time.
func (r *DayEntryRepository) ListByRange(ctx context.Context, userID string, start, end time.Time) ([]models.DayEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM day_entries WHERE user_id = $1 AND date >= $2 AND date < $3 ORDER BY date ASC, start_time ASC`, dayEntryColumns)
	var entries []models.DayEntry
	if err := r.db.SelectContext(ctx, &entries, query, userID, start, end); err != nil {
		return nil, fmt.Errorf("list day entries: %w", err)
	}
	return entries, nil
}

// FindByID loads an entry by id.
func (r *DayEntryRepository) FindByID(ctx context.Context, id string) (*models.DayEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM day_entries WHERE id = $1`, dayEntryColumns)
	var entry models.DayEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Create stores a new entry record.
func (r *DayEntryRepository) Create(ctx context.Context, entry *models.DayEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	const query = `INSERT INTO day_entries (id, user_id, date, start_time, end_time, description, hours, color, created_at, updated_at) VALUES (:id, :user_id, :date, :start_time, :end_time, :description, :hours, :color, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create day entry: %w", err)
	}
	return nil
}

// Update modifies an entry record.
func (r *DayEntryRepository) Update(ctx context.Context, entry *models.DayEntry) error {
	entry.UpdatedAt = time.Now().UTC()
	const query = `UPDATE day_entries SET date = :date, start_time = :start_time, end_time = :end_time, description = :description, hours = :hours, color = :color, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("update day entry: %w", err)
	}
	return nil
}

// UpdateTimes reconciles the timing of an existing entry with a recurring
// slot definition, leaving date and description untouched.
func (r *DayEntryRepository) UpdateTimes(ctx context.Context, id, startTime, endTime string, hours float64, color models.EntryColor) error {
	const query = `UPDATE day_entries SET start_time = $1, end_time = $2, hours = $3, color = $4, updated_at = NOW() WHERE id = $5`
	if _, err := r.db.ExecContext(ctx, query, startTime, endTime, hours, color, id); err != nil {
		return fmt.Errorf("update day entry times: %w", err)
	}
	return nil
}

// Delete removes an entry by id.
func (r *DayEntryRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM day_entries WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete day entry: %w", err)
	}
	return nil
}
