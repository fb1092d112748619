package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carelink/family-contact-api/internal/models"
)

// ChildRepository reads from the record-keeping subsystem's children table.
// The contact engine only needs lookups, never writes.
type ChildRepository struct {
	db *sqlx.DB
}

// NewChildRepository constructs the repository.
func NewChildRepository(db *sqlx.DB) *ChildRepository {
	return &ChildRepository{db: db}
}

// FindByID returns a child by its ID.
func (r *ChildRepository) FindByID(ctx context.Context, id string) (*models.Child, error) {
	const query = `SELECT id, organization_id, full_name, date_of_birth, created_at, updated_at FROM children WHERE id = $1`
	var child models.Child
	if err := r.db.GetContext(ctx, &child, query, id); err != nil {
		return nil, err
	}
	return &child, nil
}

// Exists checks whether a child record is present.
func (r *ChildRepository) Exists(ctx context.Context, id string) (bool, error) {
	const query = `SELECT 1 FROM children WHERE id = $1 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, id); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check child exists: %w", err)
	}
	return true, nil
}
