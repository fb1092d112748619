package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/carelink/family-contact-api/internal/models"
	"github.com/carelink/family-contact-api/internal/repository"
	appErrors "github.com/carelink/family-contact-api/pkg/errors"
)

type riskAssessmentRepository interface {
	Create(ctx context.Context, assessment *models.ContactRiskAssessment) error
	FindByID(ctx context.Context, id string) (*models.ContactRiskAssessment, error)
	Approve(ctx context.Context, id, approvedBy string, approvedDate time.Time, comments *string) error
	FindCurrent(ctx context.Context, childID, familyMemberID string, now time.Time) (*models.ContactRiskAssessment, error)
	ListOverdue(ctx context.Context, organizationID string, now time.Time) ([]models.ContactRiskAssessment, error)
}

// CreateRiskAssessmentRequest describes assessment creation payload.
type CreateRiskAssessmentRequest struct {
	ChildID                 string           `json:"child_id" validate:"required"`
	FamilyMemberID          string           `json:"family_member_id" validate:"required"`
	OrganizationID          string           `json:"organization_id" validate:"required"`
	AssessmentDate          time.Time        `json:"assessment_date" validate:"required"`
	AssessedByName          string           `json:"assessed_by_name" validate:"required"`
	AssessedByRole          string           `json:"assessed_by_role" validate:"required"`
	OverallRiskLevel        models.RiskLevel `json:"overall_risk_level" validate:"required"`
	RiskSummary             string           `json:"risk_summary" validate:"required"`
	IdentifiedRisks         []string         `json:"identified_risks,omitempty"`
	MitigationStrategies    []string         `json:"mitigation_strategies,omitempty"`
	ContactRecommended      bool             `json:"contact_recommended"`
	RecommendationRationale *string          `json:"recommendation_rationale,omitempty"`
}

// ApproveRiskAssessmentRequest describes assessment approval payload.
type ApproveRiskAssessmentRequest struct {
	ApprovedByName string  `json:"approved_by_name" validate:"required"`
	Comments       *string `json:"comments,omitempty"`
}

// RiskAssessmentService manages contact risk determinations and their review
// cadence.
type RiskAssessmentService struct {
	repo       riskAssessmentRepository
	members    familyMemberReader
	children   childReader
	references referenceAllocator
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewRiskAssessmentService constructs RiskAssessmentService.
func NewRiskAssessmentService(repo riskAssessmentRepository, members familyMemberReader, children childReader, references referenceAllocator, validate *validator.Validate, logger *zap.Logger) *RiskAssessmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RiskAssessmentService{repo: repo, members: members, children: children, references: references, validator: validate, logger: logger, now: time.Now}
}

// Create records a new assessment awaiting approval. The review date is
// derived from the risk level: three months for critical and very high risk,
// six for high, twelve otherwise.
func (s *RiskAssessmentService) Create(ctx context.Context, req CreateRiskAssessmentRequest) (*models.ContactRiskAssessment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assessment payload")
	}
	if !req.OverallRiskLevel.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported risk level")
	}
	exists, err := s.children.Exists(ctx, req.ChildID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify child")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "child not found")
	}
	if _, err := s.members.FindByID(ctx, req.FamilyMemberID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "family member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load family member")
	}
	now := s.now().UTC()
	reference, err := s.references.Next(ctx, req.OrganizationID, repository.RefPrefixRiskAssessment, now.Year())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to allocate reference number")
	}
	months := req.OverallRiskLevel.ReviewMonths()
	assessment := &models.ContactRiskAssessment{
		ChildID:                 req.ChildID,
		FamilyMemberID:          req.FamilyMemberID,
		OrganizationID:          req.OrganizationID,
		ReferenceNumber:         reference,
		AssessmentDate:          req.AssessmentDate,
		AssessedByName:          req.AssessedByName,
		AssessedByRole:          req.AssessedByRole,
		OverallRiskLevel:        req.OverallRiskLevel,
		RiskSummary:             req.RiskSummary,
		IdentifiedRisks:         pq.StringArray(req.IdentifiedRisks),
		MitigationStrategies:    pq.StringArray(req.MitigationStrategies),
		ContactRecommended:      req.ContactRecommended,
		RecommendationRationale: req.RecommendationRationale,
		Status:                  models.AssessmentStatusPendingApproval,
		NextReviewDate:          req.AssessmentDate.AddDate(0, months, 0),
		ReviewFrequencyMonths:   months,
	}
	if assessment.IdentifiedRisks == nil {
		assessment.IdentifiedRisks = pq.StringArray{}
	}
	if assessment.MitigationStrategies == nil {
		assessment.MitigationStrategies = pq.StringArray{}
	}
	if err := s.repo.Create(ctx, assessment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assessment")
	}
	return assessment, nil
}

// Get loads a single assessment.
func (s *RiskAssessmentService) Get(ctx context.Context, id string) (*models.ContactRiskAssessment, error) {
	assessment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assessment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment")
	}
	return assessment, nil
}

// Approve moves a draft or pending assessment into force.
func (s *RiskAssessmentService) Approve(ctx context.Context, id string, req ApproveRiskAssessmentRequest) (*models.ContactRiskAssessment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid approval payload")
	}
	assessment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assessment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment")
	}
	if assessment.Status == models.AssessmentStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "assessment is already approved")
	}
	if assessment.Status == models.AssessmentStatusRejected {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "assessment was rejected")
	}
	now := s.now().UTC()
	if err := s.repo.Approve(ctx, id, req.ApprovedByName, now, req.Comments); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assessment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve assessment")
	}
	assessment.Status = models.AssessmentStatusApproved
	assessment.ApprovedByName = &req.ApprovedByName
	assessment.ApprovedDate = &now
	assessment.ApprovalComments = req.Comments
	assessment.Version++
	return assessment, nil
}

// GetCurrent resolves the assessment presently governing contact between a
// child and a family member: the latest approved assessment still inside its
// review window.
func (s *RiskAssessmentService) GetCurrent(ctx context.Context, childID, familyMemberID string) (*models.ContactRiskAssessment, error) {
	assessment, err := s.repo.FindCurrent(ctx, childID, familyMemberID, s.now().UTC())
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no current risk assessment")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve current assessment")
	}
	return assessment, nil
}

// ListOverdue returns approved assessments whose review date has passed.
func (s *RiskAssessmentService) ListOverdue(ctx context.Context, organizationID string) ([]models.ContactRiskAssessment, error) {
	assessments, err := s.repo.ListOverdue(ctx, organizationID, s.now().UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list overdue assessments")
	}
	return assessments, nil
}
