package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nanoufn/bolsa-api/internal/models"
)

// ReportJobRepository provides persistence for async report jobs.
type ReportJobRepository struct {
	db *sqlx.DB
}

// NewReportJobRepository creates a new report job repository.
func NewReportJobRepository(db *sqlx.DB) *ReportJobRepository {
	return &ReportJobRepository{db: db}
}

// Create stores a new queued job.
func (r *ReportJobRepository) Create(ctx context.Context, job *models.ReportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ReportStatusQueued
	}
	job.CreatedAt = time.Now().UTC()

	const query = `INSERT INTO report_jobs (id, user_id, params, status, created_at) VALUES (:id, :user_id, :params, :status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create report job: %w", err)
	}
	return nil
}

// FindByID loads a job by id.
func (r *ReportJobRepository) FindByID(ctx context.Context, id string) (*models.ReportJob, error) {
	const query = `SELECT id, user_id, params, status, result_path, created_at, finished_at, error_message FROM report_jobs WHERE id = $1`
	var job models.ReportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// MarkProcessing transitions a job to PROCESSING.
func (r *ReportJobRepository) MarkProcessing(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE report_jobs SET status = $1 WHERE id = $2`, models.ReportStatusProcessing, id); err != nil {
		return fmt.Errorf("mark report job processing: %w", err)
	}
	return nil
}

// MarkFinished records the stored file path for a completed job.
func (r *ReportJobRepository) MarkFinished(ctx context.Context, id, resultPath string, finishedAt time.Time) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE report_jobs SET status = $1, result_path = $2, finished_at = $3 WHERE id = $4`, models.ReportStatusFinished, resultPath, finishedAt, id); err != nil {
		return fmt.Errorf("mark report job finished: %w", err)
	}
	return nil
}

// MarkFailed records the failure reason.
func (r *ReportJobRepository) MarkFailed(ctx context.Context, id, message string, finishedAt time.Time) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE report_jobs SET status = $1, error_message = $2, finished_at = $3 WHERE id = $4`, models.ReportStatusFailed, message, finishedAt, id); err != nil {
		return fmt.Errorf("mark report job failed: %w", err)
	}
	return nil
}
