package models

import "time"

// FamilyRelationship classifies how a family member relates to the child.
type FamilyRelationship string

const (
	RelationshipParent        FamilyRelationship = "parent"
	RelationshipSibling       FamilyRelationship = "sibling"
	RelationshipGrandparent   FamilyRelationship = "grandparent"
	RelationshipOtherRelative FamilyRelationship = "other_relative"
	RelationshipOther         FamilyRelationship = "other"
)

// Valid returns true when the relationship is a supported value.
func (r FamilyRelationship) Valid() bool {
	switch r {
	case RelationshipParent, RelationshipSibling, RelationshipGrandparent, RelationshipOtherRelative, RelationshipOther:
		return true
	default:
		return false
	}
}

// FamilyMemberStatus represents the lifecycle state of a registered family member.
type FamilyMemberStatus string

const (
	FamilyMemberStatusActive     FamilyMemberStatus = "active"
	FamilyMemberStatusSuspended  FamilyMemberStatus = "suspended"
	FamilyMemberStatusRestricted FamilyMemberStatus = "restricted"
	FamilyMemberStatusDeceased   FamilyMemberStatus = "deceased"
	FamilyMemberStatusNoContact  FamilyMemberStatus = "no_contact"
)

// ContactRestriction defines the restriction level applied to a family member.
type ContactRestriction string

const (
	RestrictionNone           ContactRestriction = "none"
	RestrictionSupervisedOnly ContactRestriction = "supervised_only"
	RestrictionNoContact      ContactRestriction = "no_contact"
)

// FamilyMember represents a person registered for contact with a looked-after child.
type FamilyMember struct {
	ID               string             `db:"id" json:"id"`
	ChildID          string             `db:"child_id" json:"child_id"`
	OrganizationID   string             `db:"organization_id" json:"organization_id"`
	ReferenceNumber  string             `db:"reference_number" json:"reference_number"`
	FullName         string             `db:"full_name" json:"full_name"`
	Relationship     FamilyRelationship `db:"relationship" json:"relationship"`
	Status           FamilyMemberStatus `db:"status" json:"status"`
	RestrictionLevel ContactRestriction `db:"restriction_level" json:"restriction_level"`
	Phone            *string            `db:"phone" json:"phone,omitempty"`
	Email            *string            `db:"email" json:"email,omitempty"`
	DBSCheckRequired bool               `db:"dbs_check_required" json:"dbs_check_required"`
	DBSCheckDate     *time.Time         `db:"dbs_check_date" json:"dbs_check_date,omitempty"`
	DBSCheckExpiry   *time.Time         `db:"dbs_check_expiry" json:"dbs_check_expiry,omitempty"`
	Notes            *string            `db:"notes" json:"notes,omitempty"`
	CreatedBy        string             `db:"created_by" json:"created_by"`
	Version          int                `db:"version" json:"version"`
	CreatedAt        time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time          `db:"updated_at" json:"updated_at"`
}

// DBSCheckValid reports whether the background check is currently inside its
// validity window. A required check with no recorded expiry is treated as invalid.
func (m *FamilyMember) DBSCheckValid(now time.Time) bool {
	if m.DBSCheckExpiry == nil {
		return false
	}
	if m.DBSCheckDate != nil && now.Before(*m.DBSCheckDate) {
		return false
	}
	return now.Before(*m.DBSCheckExpiry)
}

// IsContactAllowed reports whether contact may currently be scheduled with this
// member: status active, restriction level not forbidding contact, and the
// background check either not required or still valid.
func (m *FamilyMember) IsContactAllowed(now time.Time) bool {
	if m.Status != FamilyMemberStatusActive {
		return false
	}
	if m.RestrictionLevel == RestrictionNoContact {
		return false
	}
	if m.DBSCheckRequired && !m.DBSCheckValid(now) {
		return false
	}
	return true
}

// FamilyMemberPatch enumerates the fields a caller may update. Nil fields are
// left untouched.
type FamilyMemberPatch struct {
	FullName         *string             `json:"full_name,omitempty"`
	Relationship     *FamilyRelationship `json:"relationship,omitempty"`
	Status           *FamilyMemberStatus `json:"status,omitempty"`
	RestrictionLevel *ContactRestriction `json:"restriction_level,omitempty"`
	Phone            *string             `json:"phone,omitempty"`
	Email            *string             `json:"email,omitempty"`
	DBSCheckRequired *bool               `json:"dbs_check_required,omitempty"`
	DBSCheckDate     *time.Time          `json:"dbs_check_date,omitempty"`
	DBSCheckExpiry   *time.Time          `json:"dbs_check_expiry,omitempty"`
	Notes            *string             `json:"notes,omitempty"`
}

// Apply copies non-nil patch fields onto the member.
func (p FamilyMemberPatch) Apply(m *FamilyMember) {
	if p.FullName != nil {
		m.FullName = *p.FullName
	}
	if p.Relationship != nil {
		m.Relationship = *p.Relationship
	}
	if p.Status != nil {
		m.Status = *p.Status
	}
	if p.RestrictionLevel != nil {
		m.RestrictionLevel = *p.RestrictionLevel
	}
	if p.Phone != nil {
		m.Phone = p.Phone
	}
	if p.Email != nil {
		m.Email = p.Email
	}
	if p.DBSCheckRequired != nil {
		m.DBSCheckRequired = *p.DBSCheckRequired
	}
	if p.DBSCheckDate != nil {
		m.DBSCheckDate = p.DBSCheckDate
	}
	if p.DBSCheckExpiry != nil {
		m.DBSCheckExpiry = p.DBSCheckExpiry
	}
	if p.Notes != nil {
		m.Notes = p.Notes
	}
}

// FamilyMemberFilter captures filtering criteria for listing family members.
type FamilyMemberFilter struct {
	ChildID        string
	OrganizationID string
	Status         *FamilyMemberStatus
	Relationship   *FamilyRelationship
	Page           int
	PageSize       int
	SortBy         string
	SortOrder      string
}
