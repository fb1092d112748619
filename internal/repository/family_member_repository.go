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

// FamilyMemberRepository handles persistence of family members.
type FamilyMemberRepository struct {
	db *sqlx.DB
}

// NewFamilyMemberRepository constructs the repository.
func NewFamilyMemberRepository(db *sqlx.DB) *FamilyMemberRepository {
	return &FamilyMemberRepository{db: db}
}

const familyMemberColumns = `id, child_id, organization_id, reference_number, full_name, relationship, status,
        restriction_level, phone, email, dbs_check_required, dbs_check_date, dbs_check_expiry, notes,
        created_by, version, created_at, updated_at`

// Create persists a new family member record.
func (r *FamilyMemberRepository) Create(ctx context.Context, member *models.FamilyMember) error {
	now := time.Now().UTC()
	if member.ID == "" {
		member.ID = uuid.NewString()
	}
	if member.CreatedAt.IsZero() {
		member.CreatedAt = now
	}
	member.UpdatedAt = now
	if member.Version == 0 {
		member.Version = 1
	}
	const query = `INSERT INTO family_members (id, child_id, organization_id, reference_number, full_name,
        relationship, status, restriction_level, phone, email, dbs_check_required, dbs_check_date,
        dbs_check_expiry, notes, created_by, version, created_at, updated_at)
        VALUES (:id, :child_id, :organization_id, :reference_number, :full_name, :relationship, :status,
        :restriction_level, :phone, :email, :dbs_check_required, :dbs_check_date, :dbs_check_expiry,
        :notes, :created_by, :version, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, member); err != nil {
		return fmt.Errorf("create family member: %w", err)
	}
	return nil
}

// FindByID returns a family member by its ID.
func (r *FamilyMemberRepository) FindByID(ctx context.Context, id string) (*models.FamilyMember, error) {
	query := fmt.Sprintf(`SELECT %s FROM family_members WHERE id = $1`, familyMemberColumns)
	var member models.FamilyMember
	if err := r.db.GetContext(ctx, &member, query, id); err != nil {
		return nil, err
	}
	return &member, nil
}

// Update persists mutated member fields and bumps the version counter.
func (r *FamilyMemberRepository) Update(ctx context.Context, member *models.FamilyMember) error {
	member.UpdatedAt = time.Now().UTC()
	member.Version++
	const query = `UPDATE family_members SET full_name = :full_name, relationship = :relationship,
        status = :status, restriction_level = :restriction_level, phone = :phone, email = :email,
        dbs_check_required = :dbs_check_required, dbs_check_date = :dbs_check_date,
        dbs_check_expiry = :dbs_check_expiry, notes = :notes, version = :version, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, member); err != nil {
		return fmt.Errorf("update family member: %w", err)
	}
	return nil
}

// List returns family members filtered by the provided criteria.
func (r *FamilyMemberRepository) List(ctx context.Context, filter models.FamilyMemberFilter) ([]models.FamilyMember, int, error) {
	var conditions []string
	var args []interface{}

	if filter.ChildID != "" {
		conditions = append(conditions, fmt.Sprintf("child_id = $%d", len(args)+1))
		args = append(args, filter.ChildID)
	}
	if filter.OrganizationID != "" {
		conditions = append(conditions, fmt.Sprintf("organization_id = $%d", len(args)+1))
		args = append(args, filter.OrganizationID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Relationship != nil {
		conditions = append(conditions, fmt.Sprintf("relationship = $%d", len(args)+1))
		args = append(args, *filter.Relationship)
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

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}
	allowedSorts := map[string]string{
		"full_name":  "full_name",
		"created_at": "created_at",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "full_name"
	}

	query := fmt.Sprintf(`SELECT %s FROM family_members%s ORDER BY %s %s LIMIT %d OFFSET %d`,
		familyMemberColumns, clause, orderBy, order, size, offset)

	var members []models.FamilyMember
	if err := r.db.SelectContext(ctx, &members, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list family members: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM family_members" + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count family members: %w", err)
	}
	return members, total, nil
}

// ListExpiredDBSChecks returns members requiring a background check whose
// validity window has lapsed or was never recorded.
func (r *FamilyMemberRepository) ListExpiredDBSChecks(ctx context.Context, organizationID string, now time.Time) ([]models.FamilyMember, error) {
	query := fmt.Sprintf(`SELECT %s FROM family_members
        WHERE organization_id = $1 AND dbs_check_required = TRUE
        AND (dbs_check_expiry IS NULL OR dbs_check_expiry <= $2)
        ORDER BY full_name ASC`, familyMemberColumns)
	var members []models.FamilyMember
	if err := r.db.SelectContext(ctx, &members, query, organizationID, now); err != nil {
		return nil, fmt.Errorf("list expired dbs checks: %w", err)
	}
	return members, nil
}

// CountByOrganization returns the total number of registered family members.
func (r *FamilyMemberRepository) CountByOrganization(ctx context.Context, organizationID string) (int, error) {
	const query = `SELECT COUNT(*) FROM family_members WHERE organization_id = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, query, organizationID); err != nil {
		return 0, fmt.Errorf("count family members: %w", err)
	}
	return total, nil
}
