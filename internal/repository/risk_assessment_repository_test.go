package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/carelink/family-contact-api/internal/models"
)

func newRiskRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func riskAssessmentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "child_id", "family_member_id", "organization_id", "reference_number", "assessment_date",
		"assessed_by_name", "assessed_by_role", "overall_risk_level", "risk_summary", "identified_risks",
		"mitigation_strategies", "contact_recommended", "recommendation_rationale", "status",
		"approved_by_name", "approved_date", "approval_comments", "next_review_date",
		"review_frequency_months", "version", "created_at", "updated_at",
	})
}

func TestRiskAssessmentRepositoryFindCurrentReturnsLatestApproved(t *testing.T) {
	db, mock, cleanup := newRiskRepoMock(t)
	defer cleanup()
	repo := NewRiskAssessmentRepository(db)

	now := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	rows := riskAssessmentRows().AddRow("ra-2", "child-1", "fm-1", "org-1", "RA-2025-0002",
		time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), "Dr Enfield", "clinical psychologist",
		"medium", "supervised contact manageable", "{}", "{}", true, nil, "approved",
		"J Marsh", time.Date(2025, 1, 16, 0, 0, 0, 0, time.UTC), nil,
		time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), 12, 2, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY assessment_date DESC LIMIT 1")).
		WithArgs("child-1", "fm-1", models.AssessmentStatusApproved, now).
		WillReturnRows(rows)

	current, err := repo.FindCurrent(context.Background(), "child-1", "fm-1", now)
	require.NoError(t, err)
	require.Equal(t, "ra-2", current.ID)
	require.Equal(t, models.RiskLevelMedium, current.OverallRiskLevel)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRiskAssessmentRepositoryFindCurrentNone(t *testing.T) {
	db, mock, cleanup := newRiskRepoMock(t)
	defer cleanup()
	repo := NewRiskAssessmentRepository(db)

	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY assessment_date DESC LIMIT 1")).
		WithArgs("child-1", "fm-1", models.AssessmentStatusApproved, now).
		WillReturnRows(riskAssessmentRows())

	_, err := repo.FindCurrent(context.Background(), "child-1", "fm-1", now)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRiskAssessmentRepositoryApproveMissingRow(t *testing.T) {
	db, mock, cleanup := newRiskRepoMock(t)
	defer cleanup()
	repo := NewRiskAssessmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE contact_risk_assessments SET status = $2")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Approve(context.Background(), "missing", "J Marsh", time.Now().UTC(), nil)
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRiskAssessmentRepositoryCountHighRisk(t *testing.T) {
	db, mock, cleanup := newRiskRepoMock(t)
	defer cleanup()
	repo := NewRiskAssessmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("overall_risk_level IN ($2, $3, $4)")).
		WithArgs("org-1", models.RiskLevelHigh, models.RiskLevelVeryHigh, models.RiskLevelCritical).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	total, err := repo.CountHighRisk(context.Background(), "org-1")
	require.NoError(t, err)
	require.Equal(t, 4, total)
	require.NoError(t, mock.ExpectationsWereMet())
}
