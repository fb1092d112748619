package models

import (
	"time"

	"github.com/lib/pq"
)

// RiskLevel grades the overall risk a family member poses to the child.
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelMedium   RiskLevel = "medium"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelVeryHigh RiskLevel = "very_high"
	RiskLevelCritical RiskLevel = "critical"
)

// Valid returns true when the level is a supported value.
func (l RiskLevel) Valid() bool {
	switch l {
	case RiskLevelLow, RiskLevelMedium, RiskLevelHigh, RiskLevelVeryHigh, RiskLevelCritical:
		return true
	default:
		return false
	}
}

// ReviewMonths returns how many months may elapse before an assessment at
// this level must be reviewed again.
func (l RiskLevel) ReviewMonths() int {
	switch l {
	case RiskLevelCritical, RiskLevelVeryHigh:
		return 3
	case RiskLevelHigh:
		return 6
	default:
		return 12
	}
}

// AssessmentStatus represents the approval state of a risk assessment.
type AssessmentStatus string

const (
	AssessmentStatusDraft           AssessmentStatus = "draft"
	AssessmentStatusPendingApproval AssessmentStatus = "pending_approval"
	AssessmentStatusApproved        AssessmentStatus = "approved"
	AssessmentStatusRejected        AssessmentStatus = "rejected"
)

// ContactRiskAssessment records the risk determination governing contact
// between a child and a family member. Only an approved assessment counts as
// current; overdue detection is a query-time predicate, never a stored state.
type ContactRiskAssessment struct {
	ID                      string           `db:"id" json:"id"`
	ChildID                 string           `db:"child_id" json:"child_id"`
	FamilyMemberID          string           `db:"family_member_id" json:"family_member_id"`
	OrganizationID          string           `db:"organization_id" json:"organization_id"`
	ReferenceNumber         string           `db:"reference_number" json:"reference_number"`
	AssessmentDate          time.Time        `db:"assessment_date" json:"assessment_date"`
	AssessedByName          string           `db:"assessed_by_name" json:"assessed_by_name"`
	AssessedByRole          string           `db:"assessed_by_role" json:"assessed_by_role"`
	OverallRiskLevel        RiskLevel        `db:"overall_risk_level" json:"overall_risk_level"`
	RiskSummary             string           `db:"risk_summary" json:"risk_summary"`
	IdentifiedRisks         pq.StringArray   `db:"identified_risks" json:"identified_risks"`
	MitigationStrategies    pq.StringArray   `db:"mitigation_strategies" json:"mitigation_strategies"`
	ContactRecommended      bool             `db:"contact_recommended" json:"contact_recommended"`
	RecommendationRationale *string          `db:"recommendation_rationale" json:"recommendation_rationale,omitempty"`
	Status                  AssessmentStatus `db:"status" json:"status"`
	ApprovedByName          *string          `db:"approved_by_name" json:"approved_by_name,omitempty"`
	ApprovedDate            *time.Time       `db:"approved_date" json:"approved_date,omitempty"`
	ApprovalComments        *string          `db:"approval_comments" json:"approval_comments,omitempty"`
	NextReviewDate          time.Time        `db:"next_review_date" json:"next_review_date"`
	ReviewFrequencyMonths   int              `db:"review_frequency_months" json:"review_frequency_months"`
	Version                 int              `db:"version" json:"version"`
	CreatedAt               time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time        `db:"updated_at" json:"updated_at"`
}

// IsCurrent reports whether the assessment is approved and still inside its
// review window.
func (a *ContactRiskAssessment) IsCurrent(now time.Time) bool {
	return a.Status == AssessmentStatusApproved && now.Before(a.NextReviewDate)
}

// IsReviewOverdue reports whether an approved assessment has passed its
// review date. The boundary instant counts as overdue.
func (a *ContactRiskAssessment) IsReviewOverdue(now time.Time) bool {
	return a.Status == AssessmentStatusApproved && !now.Before(a.NextReviewDate)
}
