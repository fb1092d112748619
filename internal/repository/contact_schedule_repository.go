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

// ContactScheduleRepository handles persistence of contact schedules and owns
// the counter updates cascaded from session transitions.
type ContactScheduleRepository struct {
	db *sqlx.DB
}

// NewContactScheduleRepository constructs the repository.
func NewContactScheduleRepository(db *sqlx.DB) *ContactScheduleRepository {
	return &ContactScheduleRepository{db: db}
}

const contactScheduleColumns = `id, child_id, family_member_id, organization_id, reference_number, contact_type,
        frequency, supervision_required, duration_minutes, status, start_date, last_contact_date,
        next_contact_date, next_review_date, scheduled_count, completed_count, cancelled_count,
        venue, notes, created_by, version, created_at, updated_at`

// Create persists a new contact schedule.
func (r *ContactScheduleRepository) Create(ctx context.Context, schedule *models.ContactSchedule) error {
	now := time.Now().UTC()
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	if schedule.CreatedAt.IsZero() {
		schedule.CreatedAt = now
	}
	schedule.UpdatedAt = now
	if schedule.Version == 0 {
		schedule.Version = 1
	}
	const query = `INSERT INTO contact_schedules (id, child_id, family_member_id, organization_id,
        reference_number, contact_type, frequency, supervision_required, duration_minutes, status,
        start_date, last_contact_date, next_contact_date, next_review_date, scheduled_count,
        completed_count, cancelled_count, venue, notes, created_by, version, created_at, updated_at)
        VALUES (:id, :child_id, :family_member_id, :organization_id, :reference_number, :contact_type,
        :frequency, :supervision_required, :duration_minutes, :status, :start_date, :last_contact_date,
        :next_contact_date, :next_review_date, :scheduled_count, :completed_count, :cancelled_count,
        :venue, :notes, :created_by, :version, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("create contact schedule: %w", err)
	}
	return nil
}

// FindByID returns a contact schedule by its ID.
func (r *ContactScheduleRepository) FindByID(ctx context.Context, id string) (*models.ContactSchedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM contact_schedules WHERE id = $1`, contactScheduleColumns)
	var schedule models.ContactSchedule
	if err := r.db.GetContext(ctx, &schedule, query, id); err != nil {
		return nil, err
	}
	return &schedule, nil
}

// ListActiveByChild returns the child's schedules currently in force.
func (r *ContactScheduleRepository) ListActiveByChild(ctx context.Context, childID string) ([]models.ContactSchedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM contact_schedules WHERE child_id = $1 AND status = $2 ORDER BY start_date ASC`, contactScheduleColumns)
	var schedules []models.ContactSchedule
	if err := r.db.SelectContext(ctx, &schedules, query, childID, models.ScheduleStatusActive); err != nil {
		return nil, fmt.Errorf("list active schedules: %w", err)
	}
	return schedules, nil
}

// ListDueForReview returns active schedules whose review date has been
// reached. The boundary instant counts as due.
func (r *ContactScheduleRepository) ListDueForReview(ctx context.Context, organizationID string, now time.Time) ([]models.ContactSchedule, error) {
	query := fmt.Sprintf(`SELECT %s FROM contact_schedules
        WHERE organization_id = $1 AND status = $2 AND next_review_date <= $3
        ORDER BY next_review_date ASC`, contactScheduleColumns)
	var schedules []models.ContactSchedule
	if err := r.db.SelectContext(ctx, &schedules, query, organizationID, models.ScheduleStatusActive, now); err != nil {
		return nil, fmt.Errorf("list schedules due for review: %w", err)
	}
	return schedules, nil
}

// Suspend marks the schedule suspended, appending the reason to its notes.
func (r *ContactScheduleRepository) Suspend(ctx context.Context, id, noteLine string) error {
	const query = `UPDATE contact_schedules SET status = $2,
        notes = COALESCE(notes || E'\n', '') || $3,
        version = version + 1, updated_at = $4
        WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, models.ScheduleStatusSuspended, noteLine, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("suspend contact schedule: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateReviewDate stamps the outcome of an explicit schedule review.
func (r *ContactScheduleRepository) UpdateReviewDate(ctx context.Context, id string, nextReview time.Time) error {
	const query = `UPDATE contact_schedules SET next_review_date = $2, version = version + 1, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, nextReview, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update schedule review date: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// RecordSessionScheduled increments the scheduled counter within the caller's
// transaction. Returns false when the schedule row no longer exists.
func (r *ContactScheduleRepository) RecordSessionScheduled(ctx context.Context, ext sqlx.ExtContext, id string) (bool, error) {
	const query = `UPDATE contact_schedules SET scheduled_count = scheduled_count + 1, version = version + 1, updated_at = $2 WHERE id = $1`
	result, err := ext.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("record session scheduled: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("record session scheduled: %w", err)
	}
	return affected > 0, nil
}

// RecordSessionCompleted increments the completed counter, stamps the last
// contact date and recomputes the next one from the schedule's frequency, all
// within the caller's transaction. Returns false when the schedule row no
// longer exists.
func (r *ContactScheduleRepository) RecordSessionCompleted(ctx context.Context, ext sqlx.ExtContext, id string, sessionDate time.Time) (bool, error) {
	var frequency models.ContactFrequency
	if err := sqlx.GetContext(ctx, ext, &frequency, `SELECT frequency FROM contact_schedules WHERE id = $1 FOR UPDATE`, id); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("load schedule frequency: %w", err)
	}
	nextContact := frequency.NextContactDate(sessionDate)
	const query = `UPDATE contact_schedules SET completed_count = completed_count + 1,
        last_contact_date = $2, next_contact_date = $3, version = version + 1, updated_at = $4
        WHERE id = $1`
	if _, err := ext.ExecContext(ctx, query, id, sessionDate, nextContact, time.Now().UTC()); err != nil {
		return false, fmt.Errorf("record session completed: %w", err)
	}
	return true, nil
}

// RecordSessionCancelled increments the cancelled counter within the caller's
// transaction. Returns false when the schedule row no longer exists.
func (r *ContactScheduleRepository) RecordSessionCancelled(ctx context.Context, ext sqlx.ExtContext, id string) (bool, error) {
	const query = `UPDATE contact_schedules SET cancelled_count = cancelled_count + 1, version = version + 1, updated_at = $2 WHERE id = $1`
	result, err := ext.ExecContext(ctx, query, id, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("record session cancelled: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("record session cancelled: %w", err)
	}
	return affected > 0, nil
}

// CountActive returns the number of active schedules for an organization.
func (r *ContactScheduleRepository) CountActive(ctx context.Context, organizationID string) (int, error) {
	const query = `SELECT COUNT(*) FROM contact_schedules WHERE organization_id = $1 AND status = $2`
	var total int
	if err := r.db.GetContext(ctx, &total, query, organizationID, models.ScheduleStatusActive); err != nil {
		return 0, fmt.Errorf("count active schedules: %w", err)
	}
	return total, nil
}

// CountDueForReview returns how many active schedules have reached review.
func (r *ContactScheduleRepository) CountDueForReview(ctx context.Context, organizationID string, now time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM contact_schedules WHERE organization_id = $1 AND status = $2 AND next_review_date <= $3`
	var total int
	if err := r.db.GetContext(ctx, &total, query, organizationID, models.ScheduleStatusActive, now); err != nil {
		return 0, fmt.Errorf("count schedules due for review: %w", err)
	}
	return total, nil
}
