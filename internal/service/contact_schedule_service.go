package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/carelink/family-contact-api/internal/models"
	"github.com/carelink/family-contact-api/internal/repository"
	appErrors "github.com/carelink/family-contact-api/pkg/errors"
)

type contactScheduleRepository interface {
	Create(ctx context.Context, schedule *models.ContactSchedule) error
	FindByID(ctx context.Context, id string) (*models.ContactSchedule, error)
	ListActiveByChild(ctx context.Context, childID string) ([]models.ContactSchedule, error)
	ListDueForReview(ctx context.Context, organizationID string, now time.Time) ([]models.ContactSchedule, error)
	Suspend(ctx context.Context, id, noteLine string) error
	UpdateReviewDate(ctx context.Context, id string, nextReview time.Time) error
}

type familyMemberReader interface {
	FindByID(ctx context.Context, id string) (*models.FamilyMember, error)
}

// CreateContactScheduleRequest describes schedule creation payload.
type CreateContactScheduleRequest struct {
	ChildID             string                  `json:"child_id" validate:"required"`
	FamilyMemberID      string                  `json:"family_member_id" validate:"required"`
	OrganizationID      string                  `json:"organization_id" validate:"required"`
	ContactType         models.ContactType      `json:"contact_type" validate:"required"`
	Frequency           models.ContactFrequency `json:"frequency" validate:"required"`
	SupervisionRequired bool                    `json:"supervision_required"`
	DurationMinutes     int                     `json:"duration_minutes" validate:"required,gt=0"`
	StartDate           time.Time               `json:"start_date" validate:"required"`
	Venue               *string                 `json:"venue,omitempty"`
	Notes               *string                 `json:"notes,omitempty"`
	CreatedBy           string                  `json:"-"`
}

// SuspendScheduleRequest describes schedule suspension payload.
type SuspendScheduleRequest struct {
	Reason  string `json:"reason" validate:"required"`
	ActorID string `json:"-"`
}

// ContactScheduleService manages recurring contact arrangements.
type ContactScheduleService struct {
	repo       contactScheduleRepository
	members    familyMemberReader
	children   childReader
	references referenceAllocator
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewContactScheduleService constructs ContactScheduleService.
func NewContactScheduleService(repo contactScheduleRepository, members familyMemberReader, children childReader, references referenceAllocator, validate *validator.Validate, logger *zap.Logger) *ContactScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactScheduleService{repo: repo, members: members, children: children, references: references, validator: validate, logger: logger, now: time.Now}
}

// Create establishes a recurring contact schedule. The family member must
// currently be allowed contact; the first review falls six months after the
// start date. NextContactDate is seeded here by projecting one frequency
// interval from the start date, so a fresh schedule has a target before any
// session completes; afterwards it is recomputed only on session completion.
func (s *ContactScheduleService) Create(ctx context.Context, req CreateContactScheduleRequest) (*models.ContactSchedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	if !req.ContactType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported contact type")
	}
	if !req.Frequency.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported contact frequency")
	}
	exists, err := s.children.Exists(ctx, req.ChildID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify child")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "child not found")
	}
	member, err := s.members.FindByID(ctx, req.FamilyMemberID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "family member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load family member")
	}
	now := s.now().UTC()
	if !member.IsContactAllowed(now) {
		return nil, appErrors.Clone(appErrors.ErrContactNotAllowed, fmt.Sprintf("contact is not permitted with %s", member.FullName))
	}
	reference, err := s.references.Next(ctx, req.OrganizationID, repository.RefPrefixSchedule, now.Year())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to allocate reference number")
	}
	nextContact := req.Frequency.NextContactDate(req.StartDate)
	schedule := &models.ContactSchedule{
		ChildID:             req.ChildID,
		FamilyMemberID:      req.FamilyMemberID,
		OrganizationID:      req.OrganizationID,
		ReferenceNumber:     reference,
		ContactType:         req.ContactType,
		Frequency:           req.Frequency,
		SupervisionRequired: req.SupervisionRequired,
		DurationMinutes:     req.DurationMinutes,
		Status:              models.ScheduleStatusActive,
		StartDate:           req.StartDate,
		NextContactDate:     &nextContact,
		NextReviewDate:      req.StartDate.AddDate(0, models.ScheduleReviewIntervalMonths, 0),
		CreatedBy:           req.CreatedBy,
	}
	if err := s.repo.Create(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
	}
	return schedule, nil
}

// Get loads a single schedule.
func (s *ContactScheduleService) Get(ctx context.Context, id string) (*models.ContactSchedule, error) {
	schedule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	return schedule, nil
}

// ListActive returns the active schedules for a child.
func (s *ContactScheduleService) ListActive(ctx context.Context, childID string) ([]models.ContactSchedule, error) {
	schedules, err := s.repo.ListActiveByChild(ctx, childID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	return schedules, nil
}

// ListDueForReview returns active schedules whose review date has been reached.
func (s *ContactScheduleService) ListDueForReview(ctx context.Context, organizationID string) ([]models.ContactSchedule, error) {
	schedules, err := s.repo.ListDueForReview(ctx, organizationID, s.now().UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules due for review")
	}
	return schedules, nil
}

// Suspend pauses a schedule, appending the reason to its notes. Repeated
// suspension is permitted and simply appends another note line; only ended
// schedules are rejected.
func (s *ContactScheduleService) Suspend(ctx context.Context, id string, req SuspendScheduleRequest) (*models.ContactSchedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid suspension payload")
	}
	schedule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if schedule.Status == models.ScheduleStatusEnded {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "schedule has ended")
	}
	now := s.now().UTC()
	noteLine := fmt.Sprintf("[%s] suspended by %s: %s", now.Format(time.RFC3339), req.ActorID, req.Reason)
	if err := s.repo.Suspend(ctx, id, noteLine); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to suspend schedule")
	}
	return s.Get(ctx, id)
}

// MarkReviewed records a completed review and pushes the next review another
// interval out from the review moment.
func (s *ContactScheduleService) MarkReviewed(ctx context.Context, id string) (*models.ContactSchedule, error) {
	schedule, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if !schedule.IsActive() {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "schedule is not active")
	}
	next := s.now().UTC().AddDate(0, models.ScheduleReviewIntervalMonths, 0)
	if err := s.repo.UpdateReviewDate(ctx, id, next); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record review")
	}
	schedule.NextReviewDate = next
	schedule.Version++
	return schedule, nil
}
