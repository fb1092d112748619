package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/carelink/family-contact-api/internal/models"
)

func newSessionRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func newSessionRepo(db *sqlx.DB) *ContactSessionRepository {
	return NewContactSessionRepository(db, NewContactScheduleRepository(db))
}

func TestContactSessionRepositoryCreateCascadesScheduledCount(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := newSessionRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO contact_sessions")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE contact_schedules SET scheduled_count = scheduled_count + 1")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	scheduleID := "sched-1"
	session := &models.ContactSession{
		ChildID:           "child-1",
		FamilyMemberID:    "fm-1",
		ContactScheduleID: &scheduleID,
		OrganizationID:    "org-1",
		ReferenceNumber:   "CV-2025-0001",
		Status:            models.SessionStatusScheduled,
		SessionDate:       time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC),
		PlannedStartTime:  "10:00",
		PlannedEndTime:    "11:00",
		CreatedBy:         "worker-1",
	}
	cascaded, err := repo.Create(context.Background(), session)
	require.NoError(t, err)
	require.True(t, cascaded)
	require.NotEmpty(t, session.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContactSessionRepositoryCreateAdHocSkipsCascade(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := newSessionRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO contact_sessions")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	session := &models.ContactSession{
		ChildID:        "child-1",
		FamilyMemberID: "fm-1",
		OrganizationID: "org-1",
		Status:         models.SessionStatusScheduled,
		SessionDate:    time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		CreatedBy:      "worker-1",
	}
	cascaded, err := repo.Create(context.Background(), session)
	require.NoError(t, err)
	require.False(t, cascaded)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContactSessionRepositoryCompleteRecomputesNextContact(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := newSessionRepo(db)

	sessionDate := time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)
	wantNext := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE contact_sessions SET status =")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT frequency FROM contact_schedules WHERE id = $1 FOR UPDATE")).
		WithArgs("sched-1").
		WillReturnRows(sqlmock.NewRows([]string{"frequency"}).AddRow("weekly"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE contact_schedules SET completed_count = completed_count + 1")).
		WithArgs("sched-1", sessionDate, wantNext, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	scheduleID := "sched-1"
	session := &models.ContactSession{
		ID:                "sess-1",
		ContactScheduleID: &scheduleID,
		Status:            models.SessionStatusCompleted,
		SessionDate:       sessionDate,
		Version:           2,
	}
	cascaded, err := repo.Complete(context.Background(), session)
	require.NoError(t, err)
	require.True(t, cascaded)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContactSessionRepositoryCompleteSkipsVanishedSchedule(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := newSessionRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE contact_sessions SET status =")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT frequency FROM contact_schedules WHERE id = $1 FOR UPDATE")).
		WithArgs("gone").
		WillReturnRows(sqlmock.NewRows([]string{"frequency"}))
	mock.ExpectCommit()

	scheduleID := "gone"
	session := &models.ContactSession{
		ID:                "sess-1",
		ContactScheduleID: &scheduleID,
		Status:            models.SessionStatusCompleted,
		SessionDate:       time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Version:           2,
	}
	cascaded, err := repo.Complete(context.Background(), session)
	require.NoError(t, err)
	require.False(t, cascaded)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContactSessionRepositoryCancelCascadesCancelledCount(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := newSessionRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE contact_sessions SET status =")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE contact_schedules SET cancelled_count = cancelled_count + 1")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	scheduleID := "sched-1"
	reason := "family member unwell"
	session := &models.ContactSession{
		ID:                 "sess-1",
		ContactScheduleID:  &scheduleID,
		Status:             models.SessionStatusCancelled,
		SessionDate:        time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC),
		CancellationReason: &reason,
		Version:            2,
	}
	cascaded, err := repo.Cancel(context.Background(), session)
	require.NoError(t, err)
	require.True(t, cascaded)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContactSessionRepositoryListAppliesDateBounds(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := newSessionRepo(db)

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "child_id", "family_member_id", "organization_id", "reference_number", "status", "session_date", "planned_start_time", "planned_end_time", "created_by", "version", "created_at", "updated_at"}).
		AddRow("sess-1", "child-1", "fm-1", "org-1", "CV-2025-0001", "scheduled", from.AddDate(0, 0, 7), "10:00", "11:00", "worker-1", 1, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("session_date >= $2 AND session_date <= $3")).
		WithArgs("child-1", from, to).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM contact_sessions")).
		WithArgs("child-1", from, to).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	sessions, total, err := repo.List(context.Background(), models.ContactSessionFilter{
		ChildID:  "child-1",
		DateFrom: &from,
		DateTo:   &to,
	})
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}
