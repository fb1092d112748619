package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func TestSequenceRepositoryNextFormatsReference(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewSequenceRepository(sqlx.NewDb(db, "sqlmock"))

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO reference_sequences")).
		WithArgs("org-1", RefPrefixFamilyMember, 2025).
		WillReturnRows(sqlmock.NewRows([]string{"counter"}).AddRow(1))

	ref, err := repo.Next(context.Background(), "org-1", RefPrefixFamilyMember, 2025)
	require.NoError(t, err)
	require.Equal(t, "FM-2025-0001", ref)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO reference_sequences")).
		WithArgs("org-1", RefPrefixSession, 2025).
		WillReturnRows(sqlmock.NewRows([]string{"counter"}).AddRow(427))

	ref, err = repo.Next(context.Background(), "org-1", RefPrefixSession, 2025)
	require.NoError(t, err)
	require.Equal(t, "CV-2025-0427", ref)
	require.NoError(t, mock.ExpectationsWereMet())
}
