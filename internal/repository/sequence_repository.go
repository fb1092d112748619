package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Reference number prefixes per entity.
const (
	RefPrefixFamilyMember   = "FM"
	RefPrefixSchedule       = "CS"
	RefPrefixSession        = "CV"
	RefPrefixRiskAssessment = "RA"
)

// SequenceRepository issues reference numbers like FM-2025-0001, scoped to
// organization, entity prefix and year.
type SequenceRepository struct {
	db *sqlx.DB
}

// NewSequenceRepository constructs the repository.
func NewSequenceRepository(db *sqlx.DB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

// Next increments and returns the formatted reference number for the scope.
func (r *SequenceRepository) Next(ctx context.Context, organizationID, prefix string, year int) (string, error) {
	const query = `INSERT INTO reference_sequences (organization_id, entity, year, counter)
        VALUES ($1, $2, $3, 1)
        ON CONFLICT (organization_id, entity, year)
        DO UPDATE SET counter = reference_sequences.counter + 1
        RETURNING counter`
	var counter int
	if err := r.db.GetContext(ctx, &counter, query, organizationID, prefix, year); err != nil {
		return "", fmt.Errorf("next reference for %s: %w", prefix, err)
	}
	return fmt.Sprintf("%s-%d-%04d", prefix, year, counter), nil
}
