package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/carelink/family-contact-api/internal/models"
)

// ExportJobRepository handles persistence of contact-log export jobs.
type ExportJobRepository struct {
	db *sqlx.DB
}

// NewExportJobRepository constructs the repository.
func NewExportJobRepository(db *sqlx.DB) *ExportJobRepository {
	return &ExportJobRepository{db: db}
}

// Create persists a queued export job.
func (r *ExportJobRepository) Create(ctx context.Context, job *models.ExportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	if job.Status == "" {
		job.Status = models.ExportStatusQueued
	}
	const query = `INSERT INTO export_jobs (id, params, status, file_path, created_by, created_at, finished_at, error_message)
        VALUES (:id, :params, :status, :file_path, :created_by, :created_at, :finished_at, :error_message)`
	if _, err := r.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("create export job: %w", err)
	}
	return nil
}

// FindByID returns an export job by its ID.
func (r *ExportJobRepository) FindByID(ctx context.Context, id string) (*models.ExportJob, error) {
	const query = `SELECT id, params, status, file_path, created_by, created_at, finished_at, error_message
        FROM export_jobs WHERE id = $1`
	var job models.ExportJob
	if err := r.db.GetContext(ctx, &job, query, id); err != nil {
		return nil, err
	}
	return &job, nil
}

// MarkProcessing flips a queued job to processing.
func (r *ExportJobRepository) MarkProcessing(ctx context.Context, id string) error {
	return r.setStatus(ctx, id, models.ExportStatusProcessing, nil, nil)
}

// MarkFinished records the generated file path.
func (r *ExportJobRepository) MarkFinished(ctx context.Context, id, filePath string) error {
	return r.setStatus(ctx, id, models.ExportStatusFinished, &filePath, nil)
}

// MarkFailed records the failure message.
func (r *ExportJobRepository) MarkFailed(ctx context.Context, id, message string) error {
	return r.setStatus(ctx, id, models.ExportStatusFailed, nil, &message)
}

func (r *ExportJobRepository) setStatus(ctx context.Context, id string, status models.ExportStatus, filePath, message *string) error {
	now := time.Now().UTC()
	var finishedAt *time.Time
	if status == models.ExportStatusFinished || status == models.ExportStatusFailed {
		finishedAt = &now
	}
	const query = `UPDATE export_jobs SET status = $2, file_path = COALESCE($3, file_path),
        error_message = $4, finished_at = $5 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status, filePath, message, finishedAt)
	if err != nil {
		return fmt.Errorf("update export job status: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
