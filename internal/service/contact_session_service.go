package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/carelink/family-contact-api/internal/models"
	"github.com/carelink/family-contact-api/internal/repository"
	appErrors "github.com/carelink/family-contact-api/pkg/errors"
)

type contactSessionRepository interface {
	Create(ctx context.Context, session *models.ContactSession) (bool, error)
	FindByID(ctx context.Context, id string) (*models.ContactSession, error)
	Complete(ctx context.Context, session *models.ContactSession) (bool, error)
	Cancel(ctx context.Context, session *models.ContactSession) (bool, error)
	List(ctx context.Context, filter models.ContactSessionFilter) ([]models.ContactSession, int, error)
}

type scheduleReader interface {
	FindByID(ctx context.Context, id string) (*models.ContactSchedule, error)
}

// ScheduleSessionRequest describes session creation payload.
type ScheduleSessionRequest struct {
	ChildID           string    `json:"child_id" validate:"required"`
	FamilyMemberID    string    `json:"family_member_id" validate:"required"`
	ContactScheduleID *string   `json:"contact_schedule_id,omitempty"`
	OrganizationID    string    `json:"organization_id" validate:"required"`
	SessionDate       time.Time `json:"session_date" validate:"required"`
	PlannedStartTime  string    `json:"planned_start_time" validate:"required"`
	PlannedEndTime    string    `json:"planned_end_time" validate:"required"`
	Venue             *string   `json:"venue,omitempty"`
	CreatedBy         string    `json:"-"`
}

// CompleteSessionRequest describes session completion payload.
type CompleteSessionRequest struct {
	ActualStartTime      string                     `json:"actual_start_time" validate:"required"`
	ActualEndTime        string                     `json:"actual_end_time" validate:"required"`
	ChildAttended        bool                       `json:"child_attended"`
	FamilyMemberAttended bool                       `json:"family_member_attended"`
	InteractionQuality   *models.InteractionQuality `json:"interaction_quality,omitempty"`
	Assessment           *string                    `json:"assessment,omitempty"`
}

// CancelSessionRequest describes session cancellation payload.
type CancelSessionRequest struct {
	Reason          string     `json:"reason" validate:"required"`
	Rescheduled     bool       `json:"rescheduled"`
	RescheduledDate *time.Time `json:"rescheduled_date,omitempty"`
	CancelledBy     string     `json:"-"`
}

// ContactSessionService drives the session lifecycle and the counter cascade
// into owning schedules.
type ContactSessionService struct {
	repo       contactSessionRepository
	schedules  scheduleReader
	children   childReader
	references referenceAllocator
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewContactSessionService constructs ContactSessionService.
func NewContactSessionService(repo contactSessionRepository, schedules scheduleReader, children childReader, references referenceAllocator, validate *validator.Validate, logger *zap.Logger) *ContactSessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactSessionService{repo: repo, schedules: schedules, children: children, references: references, validator: validate, logger: logger, now: time.Now}
}

// Schedule creates a session in the scheduled state. When the session is
// linked to a schedule the schedule's scheduled counter is incremented in the
// same transaction.
func (s *ContactSessionService) Schedule(ctx context.Context, req ScheduleSessionRequest) (*models.ContactSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	if _, err := parseClockTime(req.PlannedStartTime); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "planned_start_time must be HH:MM")
	}
	if _, err := parseClockTime(req.PlannedEndTime); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "planned_end_time must be HH:MM")
	}
	exists, err := s.children.Exists(ctx, req.ChildID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify child")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "child not found")
	}
	if req.ContactScheduleID != nil {
		schedule, err := s.schedules.FindByID(ctx, *req.ContactScheduleID)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "contact schedule not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
		}
		if !schedule.IsActive() {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "contact schedule is not active")
		}
	}
	now := s.now().UTC()
	reference, err := s.references.Next(ctx, req.OrganizationID, repository.RefPrefixSession, now.Year())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to allocate reference number")
	}
	session := &models.ContactSession{
		ChildID:           req.ChildID,
		FamilyMemberID:    req.FamilyMemberID,
		ContactScheduleID: req.ContactScheduleID,
		OrganizationID:    req.OrganizationID,
		ReferenceNumber:   reference,
		Status:            models.SessionStatusScheduled,
		SessionDate:       req.SessionDate,
		PlannedStartTime:  req.PlannedStartTime,
		PlannedEndTime:    req.PlannedEndTime,
		Venue:             req.Venue,
		CreatedBy:         req.CreatedBy,
	}
	cascaded, err := s.repo.Create(ctx, session)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to schedule session")
	}
	if session.ContactScheduleID != nil && !cascaded {
		s.logger.Sugar().Warnw("session created but owning schedule vanished, counters untouched",
			"session_id", session.ID, "schedule_id", *session.ContactScheduleID)
	}
	return session, nil
}

// Get loads a single session.
func (s *ContactSessionService) Get(ctx context.Context, id string) (*models.ContactSession, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return session, nil
}

// Complete records a session outcome. Completed and cancelled sessions are
// final and cannot be completed again. The owning schedule's completed
// counter and next contact date are updated in the same transaction.
func (s *ContactSessionService) Complete(ctx context.Context, id string, req CompleteSessionRequest) (*models.ContactSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid completion payload")
	}
	if req.InteractionQuality != nil && !req.InteractionQuality.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported interaction quality")
	}
	duration, err := sessionDuration(req.ActualStartTime, req.ActualEndTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "actual times must be HH:MM")
	}
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if session.IsTerminal() {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "session is already completed or cancelled")
	}
	now := s.now().UTC()
	session.Status = models.SessionStatusCompleted
	session.ActualStartTime = &req.ActualStartTime
	session.ActualEndTime = &req.ActualEndTime
	session.DurationMinutes = &duration
	session.ChildAttended = &req.ChildAttended
	session.FamilyMemberAttended = &req.FamilyMemberAttended
	session.InteractionQuality = req.InteractionQuality
	session.Assessment = req.Assessment
	session.CompletedDate = &now
	session.Version++
	cascaded, err := s.repo.Complete(ctx, session)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete session")
	}
	if session.ContactScheduleID != nil && !cascaded {
		s.logger.Sugar().Warnw("session completed but owning schedule vanished, counters untouched",
			"session_id", session.ID, "schedule_id", *session.ContactScheduleID)
	}
	return session, nil
}

// Cancel marks a session cancelled. Completed and cancelled sessions are
// final and cannot be cancelled again. The owning schedule's cancelled
// counter is incremented in the same transaction.
func (s *ContactSessionService) Cancel(ctx context.Context, id string, req CancelSessionRequest) (*models.ContactSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cancellation payload")
	}
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if session.IsTerminal() {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "session is already completed or cancelled")
	}
	now := s.now().UTC()
	session.Status = models.SessionStatusCancelled
	session.CancellationDate = &now
	session.CancelledBy = &req.CancelledBy
	session.CancellationReason = &req.Reason
	session.Rescheduled = &req.Rescheduled
	session.RescheduledDate = req.RescheduledDate
	session.Version++
	cascaded, err := s.repo.Cancel(ctx, session)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel session")
	}
	if session.ContactScheduleID != nil && !cascaded {
		s.logger.Sugar().Warnw("session cancelled but owning schedule vanished, counters untouched",
			"session_id", session.ID, "schedule_id", *session.ContactScheduleID)
	}
	return session, nil
}

// List returns sessions with pagination metadata.
func (s *ContactSessionService) List(ctx context.Context, filter models.ContactSessionFilter) ([]models.ContactSession, *models.Pagination, error) {
	sessions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return sessions, pagination, nil
}

func parseClockTime(value string) (time.Time, error) {
	return time.Parse("15:04", value)
}

// sessionDuration computes elapsed minutes between two HH:MM clock readings.
// An end reading before the start is taken to have crossed midnight.
func sessionDuration(start, end string) (int, error) {
	startAt, err := parseClockTime(start)
	if err != nil {
		return 0, err
	}
	endAt, err := parseClockTime(end)
	if err != nil {
		return 0, err
	}
	minutes := int(endAt.Sub(startAt).Minutes())
	if minutes < 0 {
		minutes += 24 * 60
	}
	return minutes, nil
}
