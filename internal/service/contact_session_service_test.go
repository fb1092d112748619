package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/carelink/family-contact-api/internal/models"
	appErrors "github.com/carelink/family-contact-api/pkg/errors"
)

type mockSessionRepo struct {
	sessions  map[string]models.ContactSession
	created   *models.ContactSession
	completed *models.ContactSession
	cancelled *models.ContactSession
	cascade   bool
}

func (m *mockSessionRepo) Create(ctx context.Context, session *models.ContactSession) (bool, error) {
	if m.sessions == nil {
		m.sessions = make(map[string]models.ContactSession)
	}
	if session.ID == "" {
		session.ID = "new-session"
	}
	session.Version = 1
	m.sessions[session.ID] = *session
	m.created = session
	return m.cascade, nil
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*models.ContactSession, error) {
	if session, ok := m.sessions[id]; ok {
		return &session, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSessionRepo) Complete(ctx context.Context, session *models.ContactSession) (bool, error) {
	m.sessions[session.ID] = *session
	m.completed = session
	return m.cascade, nil
}

func (m *mockSessionRepo) Cancel(ctx context.Context, session *models.ContactSession) (bool, error) {
	m.sessions[session.ID] = *session
	m.cancelled = session
	return m.cascade, nil
}

func (m *mockSessionRepo) List(ctx context.Context, filter models.ContactSessionFilter) ([]models.ContactSession, int, error) {
	var list []models.ContactSession
	for _, session := range m.sessions {
		list = append(list, session)
	}
	return list, len(list), nil
}

type mockScheduleReader struct {
	schedules map[string]*models.ContactSchedule
}

func (m *mockScheduleReader) FindByID(ctx context.Context, id string) (*models.ContactSchedule, error) {
	if schedule, ok := m.schedules[id]; ok {
		return schedule, nil
	}
	return nil, sql.ErrNoRows
}

func newSessionService(repo *mockSessionRepo, schedules *mockScheduleReader) *ContactSessionService {
	children := &mockChildReader{existing: map[string]bool{"child-1": true}}
	svc := NewContactSessionService(repo, schedules, children, &mockReferenceAllocator{}, validator.New(), zap.NewNop())
	svc.now = func() time.Time { return time.Date(2025, 1, 8, 16, 0, 0, 0, time.UTC) }
	return svc
}

func TestContactSessionServiceSchedule(t *testing.T) {
	repo := &mockSessionRepo{cascade: true}
	scheduleID := "cs-1"
	schedules := &mockScheduleReader{schedules: map[string]*models.ContactSchedule{
		"cs-1": {ID: "cs-1", Status: models.ScheduleStatusActive},
	}}
	svc := newSessionService(repo, schedules)

	session, err := svc.Schedule(context.Background(), ScheduleSessionRequest{
		ChildID:           "child-1",
		FamilyMemberID:    "fm-1",
		ContactScheduleID: &scheduleID,
		OrganizationID:    "org-1",
		SessionDate:       time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC),
		PlannedStartTime:  "14:00",
		PlannedEndTime:    "15:00",
		CreatedBy:         "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "CV-2025-0001", session.ReferenceNumber)
	assert.Equal(t, models.SessionStatusScheduled, session.Status)
	require.NotNil(t, repo.created)
}

func TestContactSessionServiceScheduleInactiveSchedule(t *testing.T) {
	scheduleID := "cs-1"
	schedules := &mockScheduleReader{schedules: map[string]*models.ContactSchedule{
		"cs-1": {ID: "cs-1", Status: models.ScheduleStatusSuspended},
	}}
	svc := newSessionService(&mockSessionRepo{}, schedules)

	_, err := svc.Schedule(context.Background(), ScheduleSessionRequest{
		ChildID:           "child-1",
		FamilyMemberID:    "fm-1",
		ContactScheduleID: &scheduleID,
		OrganizationID:    "org-1",
		SessionDate:       time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC),
		PlannedStartTime:  "14:00",
		PlannedEndTime:    "15:00",
		CreatedBy:         "user-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestContactSessionServiceScheduleRejectsBadClockTime(t *testing.T) {
	svc := newSessionService(&mockSessionRepo{}, &mockScheduleReader{})

	_, err := svc.Schedule(context.Background(), ScheduleSessionRequest{
		ChildID:          "child-1",
		FamilyMemberID:   "fm-1",
		OrganizationID:   "org-1",
		SessionDate:      time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC),
		PlannedStartTime: "2pm",
		PlannedEndTime:   "15:00",
		CreatedBy:        "user-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestContactSessionServiceComplete(t *testing.T) {
	scheduleID := "cs-1"
	repo := &mockSessionRepo{
		cascade: true,
		sessions: map[string]models.ContactSession{
			"sess-1": {ID: "sess-1", ContactScheduleID: &scheduleID, Status: models.SessionStatusScheduled, Version: 1},
		},
	}
	svc := newSessionService(repo, &mockScheduleReader{})

	quality := models.QualityPositive
	session, err := svc.Complete(context.Background(), "sess-1", CompleteSessionRequest{
		ActualStartTime:      "14:00",
		ActualEndTime:        "15:30",
		ChildAttended:        true,
		FamilyMemberAttended: true,
		InteractionQuality:   &quality,
	})
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusCompleted, session.Status)
	require.NotNil(t, session.DurationMinutes)
	assert.Equal(t, 90, *session.DurationMinutes)
	require.NotNil(t, session.CompletedDate)
	assert.Equal(t, 2, session.Version)
	require.NotNil(t, repo.completed)
}

func TestContactSessionServiceCompleteSpansMidnight(t *testing.T) {
	repo := &mockSessionRepo{sessions: map[string]models.ContactSession{
		"sess-1": {ID: "sess-1", Status: models.SessionStatusScheduled},
	}}
	svc := newSessionService(repo, &mockScheduleReader{})

	session, err := svc.Complete(context.Background(), "sess-1", CompleteSessionRequest{
		ActualStartTime: "23:30",
		ActualEndTime:   "00:15",
	})
	require.NoError(t, err)
	require.NotNil(t, session.DurationMinutes)
	assert.Equal(t, 45, *session.DurationMinutes)
}

func TestContactSessionServiceCompleteTerminal(t *testing.T) {
	for _, status := range []models.SessionStatus{models.SessionStatusCompleted, models.SessionStatusCancelled} {
		repo := &mockSessionRepo{sessions: map[string]models.ContactSession{
			"sess-1": {ID: "sess-1", Status: status},
		}}
		svc := newSessionService(repo, &mockScheduleReader{})

		_, err := svc.Complete(context.Background(), "sess-1", CompleteSessionRequest{
			ActualStartTime: "14:00",
			ActualEndTime:   "15:00",
		})
		require.Error(t, err, "status %s must be final", status)
		assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
	}
}

func TestContactSessionServiceCancel(t *testing.T) {
	scheduleID := "cs-1"
	repo := &mockSessionRepo{
		cascade: true,
		sessions: map[string]models.ContactSession{
			"sess-1": {ID: "sess-1", ContactScheduleID: &scheduleID, Status: models.SessionStatusScheduled, Version: 1},
		},
	}
	svc := newSessionService(repo, &mockScheduleReader{})

	session, err := svc.Cancel(context.Background(), "sess-1", CancelSessionRequest{
		Reason:      "family member unwell",
		Rescheduled: true,
		CancelledBy: "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusCancelled, session.Status)
	require.NotNil(t, session.CancellationReason)
	assert.Equal(t, "family member unwell", *session.CancellationReason)
	require.NotNil(t, session.CancellationDate)
	assert.Equal(t, 2, session.Version)
	require.NotNil(t, repo.cancelled)
}

func TestContactSessionServiceCancelTerminal(t *testing.T) {
	repo := &mockSessionRepo{sessions: map[string]models.ContactSession{
		"sess-1": {ID: "sess-1", Status: models.SessionStatusCompleted},
	}}
	svc := newSessionService(repo, &mockScheduleReader{})

	_, err := svc.Cancel(context.Background(), "sess-1", CancelSessionRequest{Reason: "late", CancelledBy: "user-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}
