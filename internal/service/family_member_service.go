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

type familyMemberRepository interface {
	Create(ctx context.Context, member *models.FamilyMember) error
	FindByID(ctx context.Context, id string) (*models.FamilyMember, error)
	Update(ctx context.Context, member *models.FamilyMember) error
	List(ctx context.Context, filter models.FamilyMemberFilter) ([]models.FamilyMember, int, error)
	ListExpiredDBSChecks(ctx context.Context, organizationID string, now time.Time) ([]models.FamilyMember, error)
}

type childReader interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type referenceAllocator interface {
	Next(ctx context.Context, organizationID, prefix string, year int) (string, error)
}

// RegisterFamilyMemberRequest describes family member registration payload.
type RegisterFamilyMemberRequest struct {
	ChildID          string                    `json:"child_id" validate:"required"`
	OrganizationID   string                    `json:"organization_id" validate:"required"`
	FullName         string                    `json:"full_name" validate:"required"`
	Relationship     models.FamilyRelationship `json:"relationship" validate:"required"`
	RestrictionLevel models.ContactRestriction `json:"restriction_level"`
	Phone            *string                   `json:"phone,omitempty"`
	Email            *string                   `json:"email,omitempty" validate:"omitempty,email"`
	DBSCheckRequired bool                      `json:"dbs_check_required"`
	DBSCheckDate     *time.Time                `json:"dbs_check_date,omitempty"`
	DBSCheckExpiry   *time.Time                `json:"dbs_check_expiry,omitempty"`
	Notes            *string                   `json:"notes,omitempty"`
	CreatedBy        string                    `json:"-"`
}

// FamilyMemberService manages the registry of people approved for contact.
type FamilyMemberService struct {
	repo       familyMemberRepository
	children   childReader
	references referenceAllocator
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewFamilyMemberService constructs FamilyMemberService.
func NewFamilyMemberService(repo familyMemberRepository, children childReader, references referenceAllocator, validate *validator.Validate, logger *zap.Logger) *FamilyMemberService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FamilyMemberService{repo: repo, children: children, references: references, validator: validate, logger: logger, now: time.Now}
}

// Register adds a family member to a child's contact registry.
func (s *FamilyMemberService) Register(ctx context.Context, req RegisterFamilyMemberRequest) (*models.FamilyMember, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid family member payload")
	}
	if !req.Relationship.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported relationship")
	}
	exists, err := s.children.Exists(ctx, req.ChildID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify child")
	}
	if !exists {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "child not found")
	}
	now := s.now().UTC()
	reference, err := s.references.Next(ctx, req.OrganizationID, repository.RefPrefixFamilyMember, now.Year())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to allocate reference number")
	}
	restriction := req.RestrictionLevel
	if restriction == "" {
		restriction = models.RestrictionNone
	}
	member := &models.FamilyMember{
		ChildID:          req.ChildID,
		OrganizationID:   req.OrganizationID,
		ReferenceNumber:  reference,
		FullName:         req.FullName,
		Relationship:     req.Relationship,
		Status:           models.FamilyMemberStatusActive,
		RestrictionLevel: restriction,
		Phone:            req.Phone,
		Email:            req.Email,
		DBSCheckRequired: req.DBSCheckRequired,
		DBSCheckDate:     req.DBSCheckDate,
		DBSCheckExpiry:   req.DBSCheckExpiry,
		Notes:            req.Notes,
		CreatedBy:        req.CreatedBy,
	}
	if err := s.repo.Create(ctx, member); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to register family member")
	}
	return member, nil
}

// Get loads a single family member.
func (s *FamilyMemberService) Get(ctx context.Context, id string) (*models.FamilyMember, error) {
	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "family member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load family member")
	}
	return member, nil
}

// Update applies a partial update to a family member. Identity fields
// (child, organization, reference number) are never writable.
func (s *FamilyMemberService) Update(ctx context.Context, id string, patch models.FamilyMemberPatch) (*models.FamilyMember, error) {
	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "family member not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load family member")
	}
	if patch.Relationship != nil && !patch.Relationship.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported relationship")
	}
	patch.Apply(member)
	if err := s.repo.Update(ctx, member); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrConflict, "family member was modified concurrently")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update family member")
	}
	return member, nil
}

// List returns family members with pagination metadata.
func (s *FamilyMemberService) List(ctx context.Context, filter models.FamilyMemberFilter) ([]models.FamilyMember, *models.Pagination, error) {
	members, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list family members")
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
	return members, pagination, nil
}

// ListExpiredBackgroundChecks returns members whose required DBS check has
// lapsed or was never recorded.
func (s *FamilyMemberService) ListExpiredBackgroundChecks(ctx context.Context, organizationID string) ([]models.FamilyMember, error) {
	members, err := s.repo.ListExpiredDBSChecks(ctx, organizationID, s.now().UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list expired checks")
	}
	return members, nil
}
