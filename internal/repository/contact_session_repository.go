package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/carelink/family-contact-api/internal/models"
)

// ContactSessionRepository handles persistence of contact sessions. Session
// transitions and their schedule counter cascades are written in a single
// transaction so a concurrent reader never observes a half-applied pair.
type ContactSessionRepository struct {
	db        *sqlx.DB
	schedules *ContactScheduleRepository
}

// NewContactSessionRepository constructs the repository.
func NewContactSessionRepository(db *sqlx.DB, schedules *ContactScheduleRepository) *ContactSessionRepository {
	return &ContactSessionRepository{db: db, schedules: schedules}
}

const contactSessionColumns = `id, child_id, family_member_id, contact_schedule_id, organization_id,
        reference_number, status, session_date, planned_start_time, planned_end_time, actual_start_time,
        actual_end_time, duration_minutes, child_attended, family_member_attended, interaction_quality,
        assessment, completed_date, cancellation_date, cancelled_by, cancellation_reason, rescheduled,
        rescheduled_date, venue, created_by, version, created_at, updated_at`

// Create inserts the session and, when a schedule is linked, increments its
// scheduled counter in the same transaction. The returned flag reports
// whether the cascade was applied.
func (r *ContactSessionRepository) Create(ctx context.Context, session *models.ContactSession) (bool, error) {
	now := time.Now().UTC()
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	if session.Version == 0 {
		session.Version = 1
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin create session: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()

	const query = `INSERT INTO contact_sessions (id, child_id, family_member_id, contact_schedule_id,
        organization_id, reference_number, status, session_date, planned_start_time, planned_end_time,
        actual_start_time, actual_end_time, duration_minutes, child_attended, family_member_attended,
        interaction_quality, assessment, completed_date, cancellation_date, cancelled_by,
        cancellation_reason, rescheduled, rescheduled_date, venue, created_by, version, created_at, updated_at)
        VALUES (:id, :child_id, :family_member_id, :contact_schedule_id, :organization_id,
        :reference_number, :status, :session_date, :planned_start_time, :planned_end_time,
        :actual_start_time, :actual_end_time, :duration_minutes, :child_attended, :family_member_attended,
        :interaction_quality, :assessment, :completed_date, :cancellation_date, :cancelled_by,
        :cancellation_reason, :rescheduled, :rescheduled_date, :venue, :created_by, :version,
        :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, session); err != nil {
		return false, fmt.Errorf("create contact session: %w", err)
	}

	cascaded := false
	if session.ContactScheduleID != nil {
		cascaded, err = r.schedules.RecordSessionScheduled(ctx, tx, *session.ContactScheduleID)
		if err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit create session: %w", err)
	}
	commit = true
	return cascaded, nil
}

// FindByID returns a contact session by its ID.
func (r *ContactSessionRepository) FindByID(ctx context.Context, id string) (*models.ContactSession, error) {
	query := fmt.Sprintf(`SELECT %s FROM contact_sessions WHERE id = $1`, contactSessionColumns)
	var session models.ContactSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// Complete writes the completed session row and cascades the completed
// counter plus next-contact recomputation into the linked schedule, all in
// one transaction. The returned flag reports whether the cascade was applied;
// a vanished schedule is skipped, never fatal.
func (r *ContactSessionRepository) Complete(ctx context.Context, session *models.ContactSession) (bool, error) {
	session.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin complete session: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()

	const query = `UPDATE contact_sessions SET status = :status, actual_start_time = :actual_start_time,
        actual_end_time = :actual_end_time, duration_minutes = :duration_minutes,
        child_attended = :child_attended, family_member_attended = :family_member_attended,
        interaction_quality = :interaction_quality, assessment = :assessment,
        completed_date = :completed_date, version = :version, updated_at = :updated_at
        WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, query, session); err != nil {
		return false, fmt.Errorf("complete contact session: %w", err)
	}

	cascaded := false
	if session.ContactScheduleID != nil {
		cascaded, err = r.schedules.RecordSessionCompleted(ctx, tx, *session.ContactScheduleID, session.SessionDate)
		if err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit complete session: %w", err)
	}
	commit = true
	return cascaded, nil
}

// Cancel writes the cancelled session row and cascades the cancelled counter
// into the linked schedule in one transaction.
func (r *ContactSessionRepository) Cancel(ctx context.Context, session *models.ContactSession) (bool, error) {
	session.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin cancel session: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()

	const query = `UPDATE contact_sessions SET status = :status, cancellation_date = :cancellation_date,
        cancelled_by = :cancelled_by, cancellation_reason = :cancellation_reason,
        rescheduled = :rescheduled, rescheduled_date = :rescheduled_date, version = :version,
        updated_at = :updated_at
        WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, query, session); err != nil {
		return false, fmt.Errorf("cancel contact session: %w", err)
	}

	cascaded := false
	if session.ContactScheduleID != nil {
		cascaded, err = r.schedules.RecordSessionCancelled(ctx, tx, *session.ContactScheduleID)
		if err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit cancel session: %w", err)
	}
	commit = true
	return cascaded, nil
}

// List returns sessions filtered by the provided criteria. Date bounds are
// inclusive.
func (r *ContactSessionRepository) List(ctx context.Context, filter models.ContactSessionFilter) ([]models.ContactSession, int, error) {
	var conditions []string
	var args []interface{}

	if filter.ChildID != "" {
		conditions = append(conditions, fmt.Sprintf("child_id = $%d", len(args)+1))
		args = append(args, filter.ChildID)
	}
	if filter.FamilyMemberID != "" {
		conditions = append(conditions, fmt.Sprintf("family_member_id = $%d", len(args)+1))
		args = append(args, filter.FamilyMemberID)
	}
	if filter.OrganizationID != "" {
		conditions = append(conditions, fmt.Sprintf("organization_id = $%d", len(args)+1))
		args = append(args, filter.OrganizationID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("session_date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("session_date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM contact_sessions%s ORDER BY session_date DESC LIMIT %d OFFSET %d`,
		contactSessionColumns, clause, size, offset)

	var sessions []models.ContactSession
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list contact sessions: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM contact_sessions" + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count contact sessions: %w", err)
	}
	return sessions, total, nil
}

// ListForExport returns a child's sessions across a date range ordered
// chronologically, without pagination. Used by the contact-log exporter.
func (r *ContactSessionRepository) ListForExport(ctx context.Context, childID string, from, to *time.Time) ([]models.ContactSession, error) {
	conditions := []string{"child_id = $1"}
	args := []interface{}{childID}
	if from != nil {
		conditions = append(conditions, fmt.Sprintf("session_date >= $%d", len(args)+1))
		args = append(args, *from)
	}
	if to != nil {
		conditions = append(conditions, fmt.Sprintf("session_date <= $%d", len(args)+1))
		args = append(args, *to)
	}
	query := fmt.Sprintf(`SELECT %s FROM contact_sessions WHERE %s ORDER BY session_date ASC`,
		contactSessionColumns, strings.Join(conditions, " AND "))
	var sessions []models.ContactSession
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, fmt.Errorf("list sessions for export: %w", err)
	}
	return sessions, nil
}

// CountUpcoming returns the number of sessions still in scheduled state.
func (r *ContactSessionRepository) CountUpcoming(ctx context.Context, organizationID string) (int, error) {
	const query = `SELECT COUNT(*) FROM contact_sessions WHERE organization_id = $1 AND status = $2`
	var total int
	if err := r.db.GetContext(ctx, &total, query, organizationID, models.SessionStatusScheduled); err != nil {
		return 0, fmt.Errorf("count upcoming sessions: %w", err)
	}
	return total, nil
}
