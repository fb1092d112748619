package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/carelink/family-contact-api/internal/models"
)

// RiskAssessmentRepository handles persistence of contact risk assessments.
type RiskAssessmentRepository struct {
	db *sqlx.DB
}

// NewRiskAssessmentRepository constructs the repository.
func NewRiskAssessmentRepository(db *sqlx.DB) *RiskAssessmentRepository {
	return &RiskAssessmentRepository{db: db}
}

const riskAssessmentColumns = `id, child_id, family_member_id, organization_id, reference_number,
        assessment_date, assessed_by_name, assessed_by_role, overall_risk_level, risk_summary,
        identified_risks, mitigation_strategies, contact_recommended, recommendation_rationale,
        status, approved_by_name, approved_date, approval_comments, next_review_date,
        review_frequency_months, version, created_at, updated_at`

// Create persists a new risk assessment.
func (r *RiskAssessmentRepository) Create(ctx context.Context, assessment *models.ContactRiskAssessment) error {
	now := time.Now().UTC()
	if assessment.ID == "" {
		assessment.ID = uuid.NewString()
	}
	if assessment.CreatedAt.IsZero() {
		assessment.CreatedAt = now
	}
	assessment.UpdatedAt = now
	if assessment.Version == 0 {
		assessment.Version = 1
	}
	const query = `INSERT INTO contact_risk_assessments (id, child_id, family_member_id, organization_id,
        reference_number, assessment_date, assessed_by_name, assessed_by_role, overall_risk_level,
        risk_summary, identified_risks, mitigation_strategies, contact_recommended,
        recommendation_rationale, status, approved_by_name, approved_date, approval_comments,
        next_review_date, review_frequency_months, version, created_at, updated_at)
        VALUES (:id, :child_id, :family_member_id, :organization_id, :reference_number, :assessment_date,
        :assessed_by_name, :assessed_by_role, :overall_risk_level, :risk_summary, :identified_risks,
        :mitigation_strategies, :contact_recommended, :recommendation_rationale, :status,
        :approved_by_name, :approved_date, :approval_comments, :next_review_date,
        :review_frequency_months, :version, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assessment); err != nil {
		return fmt.Errorf("create risk assessment: %w", err)
	}
	return nil
}

// FindByID returns a risk assessment by its ID.
func (r *RiskAssessmentRepository) FindByID(ctx context.Context, id string) (*models.ContactRiskAssessment, error) {
	query := fmt.Sprintf(`SELECT %s FROM contact_risk_assessments WHERE id = $1`, riskAssessmentColumns)
	var assessment models.ContactRiskAssessment
	if err := r.db.GetContext(ctx, &assessment, query, id); err != nil {
		return nil, err
	}
	return &assessment, nil
}

// Approve stamps the approval outcome on an assessment.
func (r *RiskAssessmentRepository) Approve(ctx context.Context, id, approvedBy string, approvedDate time.Time, comments *string) error {
	const query = `UPDATE contact_risk_assessments SET status = $2, approved_by_name = $3,
        approved_date = $4, approval_comments = $5, version = version + 1, updated_at = $6
        WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, models.AssessmentStatusApproved, approvedBy, approvedDate, comments, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("approve risk assessment: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindCurrent returns the most recent approved assessment for the pair that
// is still inside its review window. sql.ErrNoRows when none qualifies.
func (r *RiskAssessmentRepository) FindCurrent(ctx context.Context, childID, familyMemberID string, now time.Time) (*models.ContactRiskAssessment, error) {
	query := fmt.Sprintf(`SELECT %s FROM contact_risk_assessments
        WHERE child_id = $1 AND family_member_id = $2 AND status = $3 AND next_review_date > $4
        ORDER BY assessment_date DESC LIMIT 1`, riskAssessmentColumns)
	var assessment models.ContactRiskAssessment
	if err := r.db.GetContext(ctx, &assessment, query, childID, familyMemberID, models.AssessmentStatusApproved, now); err != nil {
		return nil, err
	}
	return &assessment, nil
}

// ListOverdue returns approved assessments whose review date has been
// reached. The boundary instant counts as overdue.
func (r *RiskAssessmentRepository) ListOverdue(ctx context.Context, organizationID string, now time.Time) ([]models.ContactRiskAssessment, error) {
	query := fmt.Sprintf(`SELECT %s FROM contact_risk_assessments
        WHERE organization_id = $1 AND status = $2 AND next_review_date <= $3
        ORDER BY next_review_date ASC`, riskAssessmentColumns)
	var assessments []models.ContactRiskAssessment
	if err := r.db.SelectContext(ctx, &assessments, query, organizationID, models.AssessmentStatusApproved, now); err != nil {
		return nil, fmt.Errorf("list overdue risk assessments: %w", err)
	}
	return assessments, nil
}

// CountHighRisk returns how many assessments sit at high risk or above.
func (r *RiskAssessmentRepository) CountHighRisk(ctx context.Context, organizationID string) (int, error) {
	const query = `SELECT COUNT(*) FROM contact_risk_assessments
        WHERE organization_id = $1 AND overall_risk_level IN ($2, $3, $4)`
	var total int
	if err := r.db.GetContext(ctx, &total, query, organizationID, models.RiskLevelHigh, models.RiskLevelVeryHigh, models.RiskLevelCritical); err != nil {
		return 0, fmt.Errorf("count high risk assessments: %w", err)
	}
	return total, nil
}
