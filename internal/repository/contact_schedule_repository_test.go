package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/carelink/family-contact-api/internal/models"
)

func newScheduleRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func scheduleRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "child_id", "family_member_id", "organization_id", "reference_number", "contact_type",
		"frequency", "supervision_required", "duration_minutes", "status", "start_date",
		"last_contact_date", "next_contact_date", "next_review_date", "scheduled_count",
		"completed_count", "cancelled_count", "venue", "notes", "created_by", "version",
		"created_at", "updated_at",
	})
}

func TestContactScheduleRepositoryCreateAndFind(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewContactScheduleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO contact_schedules")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	schedule := &models.ContactSchedule{
		ChildID:         "child-1",
		FamilyMemberID:  "fm-1",
		OrganizationID:  "org-1",
		ReferenceNumber: "CS-2025-0001",
		ContactType:     models.ContactTypeDirect,
		Frequency:       models.FrequencyWeekly,
		Status:          models.ScheduleStatusActive,
		StartDate:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		NextReviewDate:  time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		CreatedBy:       "worker-1",
	}
	require.NoError(t, repo.Create(context.Background(), schedule))
	require.NotEmpty(t, schedule.ID)
	require.Equal(t, 1, schedule.Version)

	rows := scheduleRows().AddRow(schedule.ID, "child-1", "fm-1", "org-1", "CS-2025-0001", "direct",
		"weekly", false, 60, "active", schedule.StartDate, nil, nil, schedule.NextReviewDate,
		0, 0, 0, nil, nil, "worker-1", 1, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM contact_schedules WHERE id = $1")).
		WithArgs(schedule.ID).
		WillReturnRows(rows)

	found, err := repo.FindByID(context.Background(), schedule.ID)
	require.NoError(t, err)
	require.Equal(t, models.FrequencyWeekly, found.Frequency)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContactScheduleRepositoryListDueForReviewBoundary(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewContactScheduleRepository(db)

	now := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	rows := scheduleRows().AddRow("sched-1", "child-1", "fm-1", "org-1", "CS-2025-0001", "direct",
		"weekly", false, 60, "active", now.AddDate(0, -6, 0), nil, nil, now,
		3, 2, 1, nil, nil, "worker-1", 4, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("next_review_date <= $3")).
		WithArgs("org-1", models.ScheduleStatusActive, now).
		WillReturnRows(rows)

	due, err := repo.ListDueForReview(context.Background(), "org-1", now)
	require.NoError(t, err)
	require.Len(t, due, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContactScheduleRepositorySuspendMissingRow(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewContactScheduleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE contact_schedules SET status = $2")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Suspend(context.Background(), "missing", "[2025-01-01T00:00:00Z] suspended by worker-1: risk review")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
