package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/carelink/family-contact-api/internal/models"
	appErrors "github.com/carelink/family-contact-api/pkg/errors"
)

type mockFamilyMemberRepo struct {
	members map[string]models.FamilyMember
	created *models.FamilyMember
	updated *models.FamilyMember
	expired []models.FamilyMember
}

func (m *mockFamilyMemberRepo) Create(ctx context.Context, member *models.FamilyMember) error {
	if m.members == nil {
		m.members = make(map[string]models.FamilyMember)
	}
	if member.ID == "" {
		member.ID = "new-member"
	}
	member.Version = 1
	m.members[member.ID] = *member
	m.created = member
	return nil
}

func (m *mockFamilyMemberRepo) FindByID(ctx context.Context, id string) (*models.FamilyMember, error) {
	if member, ok := m.members[id]; ok {
		return &member, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockFamilyMemberRepo) Update(ctx context.Context, member *models.FamilyMember) error {
	m.members[member.ID] = *member
	m.updated = member
	return nil
}

func (m *mockFamilyMemberRepo) List(ctx context.Context, filter models.FamilyMemberFilter) ([]models.FamilyMember, int, error) {
	var list []models.FamilyMember
	for _, member := range m.members {
		list = append(list, member)
	}
	return list, len(list), nil
}

func (m *mockFamilyMemberRepo) ListExpiredDBSChecks(ctx context.Context, organizationID string, now time.Time) ([]models.FamilyMember, error) {
	return m.expired, nil
}

type mockChildReader struct {
	existing map[string]bool
}

func (m *mockChildReader) Exists(ctx context.Context, id string) (bool, error) {
	return m.existing[id], nil
}

type mockReferenceAllocator struct {
	counter int
}

func (m *mockReferenceAllocator) Next(ctx context.Context, organizationID, prefix string, year int) (string, error) {
	m.counter++
	return fmt.Sprintf("%s-%d-%04d", prefix, year, m.counter), nil
}

func TestFamilyMemberServiceRegister(t *testing.T) {
	repo := &mockFamilyMemberRepo{}
	children := &mockChildReader{existing: map[string]bool{"child-1": true}}
	svc := NewFamilyMemberService(repo, children, &mockReferenceAllocator{}, validator.New(), zap.NewNop())
	svc.now = func() time.Time { return time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC) }

	member, err := svc.Register(context.Background(), RegisterFamilyMemberRequest{
		ChildID:        "child-1",
		OrganizationID: "org-1",
		FullName:       "Sarah Connor",
		Relationship:   models.RelationshipParent,
		CreatedBy:      "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "FM-2025-0001", member.ReferenceNumber)
	assert.Equal(t, models.FamilyMemberStatusActive, member.Status)
	assert.Equal(t, models.RestrictionNone, member.RestrictionLevel)
	require.NotNil(t, repo.created)
}

func TestFamilyMemberServiceRegisterUnknownChild(t *testing.T) {
	svc := NewFamilyMemberService(&mockFamilyMemberRepo{}, &mockChildReader{}, &mockReferenceAllocator{}, validator.New(), zap.NewNop())

	_, err := svc.Register(context.Background(), RegisterFamilyMemberRequest{
		ChildID:        "missing",
		OrganizationID: "org-1",
		FullName:       "Sarah Connor",
		Relationship:   models.RelationshipParent,
		CreatedBy:      "user-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestFamilyMemberServiceRegisterInvalidRelationship(t *testing.T) {
	children := &mockChildReader{existing: map[string]bool{"child-1": true}}
	svc := NewFamilyMemberService(&mockFamilyMemberRepo{}, children, &mockReferenceAllocator{}, validator.New(), zap.NewNop())

	_, err := svc.Register(context.Background(), RegisterFamilyMemberRequest{
		ChildID:        "child-1",
		OrganizationID: "org-1",
		FullName:       "Sarah Connor",
		Relationship:   "cousin_twice_removed",
		CreatedBy:      "user-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestFamilyMemberServiceUpdatePreservesIdentity(t *testing.T) {
	repo := &mockFamilyMemberRepo{members: map[string]models.FamilyMember{
		"fm-1": {
			ID:              "fm-1",
			ChildID:         "child-1",
			OrganizationID:  "org-1",
			ReferenceNumber: "FM-2025-0001",
			FullName:        "Sarah Connor",
			Relationship:    models.RelationshipParent,
			Status:          models.FamilyMemberStatusActive,
			Version:         2,
		},
	}}
	svc := NewFamilyMemberService(repo, &mockChildReader{}, &mockReferenceAllocator{}, validator.New(), zap.NewNop())

	suspended := models.FamilyMemberStatusSuspended
	phone := "0161 000 0000"
	member, err := svc.Update(context.Background(), "fm-1", models.FamilyMemberPatch{Status: &suspended, Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, models.FamilyMemberStatusSuspended, member.Status)
	assert.Equal(t, "0161 000 0000", *member.Phone)
	assert.Equal(t, "FM-2025-0001", member.ReferenceNumber)
	assert.Equal(t, "child-1", member.ChildID)
}

func TestFamilyMemberServiceUpdateNotFound(t *testing.T) {
	svc := NewFamilyMemberService(&mockFamilyMemberRepo{}, &mockChildReader{}, &mockReferenceAllocator{}, validator.New(), zap.NewNop())

	_, err := svc.Update(context.Background(), "missing", models.FamilyMemberPatch{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestFamilyMemberServiceListExpiredBackgroundChecks(t *testing.T) {
	repo := &mockFamilyMemberRepo{expired: []models.FamilyMember{{ID: "fm-1"}, {ID: "fm-2"}}}
	svc := NewFamilyMemberService(repo, &mockChildReader{}, &mockReferenceAllocator{}, validator.New(), zap.NewNop())

	members, err := svc.ListExpiredBackgroundChecks(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Len(t, members, 2)
}
