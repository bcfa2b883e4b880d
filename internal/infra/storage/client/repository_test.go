package client

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/pkg/dbmetrics"
	"github.com/m04kA/SMC-RentalService/pkg/pgerrors"
)

func newRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(dbmetrics.Wrap(db, nil)), mock
}

func TestCreate_UniqueViolations(t *testing.T) {
	tests := []struct {
		name       string
		constraint string
		want       error
	}{
		{name: "license", constraint: "clients_license_number_key", want: ErrDuplicateLicense},
		{name: "identity", constraint: identityConstraint, want: ErrDuplicateIdentity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepo(t)
			mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO clients")).
				WillReturnError(&pq.Error{Code: pgerrors.CodeUniqueViolation, Constraint: tt.constraint})

			_, err := repo.Create(context.Background(), &domain.Client{FirstName: "Ada", LastName: "Lovelace", LicenseNumber: "L-1"})

			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGetByID(t *testing.T) {
	repo, mock := newRepo(t)
	birth := time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM clients WHERE id = $1")).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(3, "Ada", "Lovelace", birth, "L-1", nil, "ada@example.com", nil, now, now))

	c, err := repo.GetByID(context.Background(), 3)

	require.NoError(t, err)
	assert.Equal(t, "Lovelace", c.LastName)
	assert.Equal(t, birth, c.DateOfBirth)
	require.NotNil(t, c.Email)
	assert.Nil(t, c.Address)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	repo, mock := newRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM clients WHERE id = $1")).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM clients WHERE id = $1")).
		WithArgs(int64(2)).
		WillReturnError(&pq.Error{Code: pgerrors.CodeForeignKeyViolation})

	assert.ErrorIs(t, repo.Delete(context.Background(), 1), ErrClientNotFound)
	assert.ErrorIs(t, repo.Delete(context.Background(), 2), ErrClientInUse)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate(t *testing.T) {
	repo, mock := newRepo(t)
	birth := time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE clients SET first_name = $1, last_name = $2, date_of_birth = $3, license_number = $4, address = $5, email = $6, phone = $7, updated_at = NOW() WHERE id = $8 RETURNING created_at, updated_at")).
		WithArgs("Ada", "Byron", birth, "L-1", nil, nil, nil, int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	c, err := repo.Update(context.Background(), &domain.Client{
		ID: 3, FirstName: "Ada", LastName: "Byron", DateOfBirth: birth, LicenseNumber: "L-1",
	})

	require.NoError(t, err)
	assert.Equal(t, "Byron", c.LastName)
	assert.Equal(t, now, c.UpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_Errors(t *testing.T) {
	tests := []struct {
		name string
		rows *sqlmock.Rows
		err  error
		want error
	}{
		{name: "not found", rows: sqlmock.NewRows([]string{"created_at", "updated_at"}), want: ErrClientNotFound},
		{name: "license", err: &pq.Error{Code: pgerrors.CodeUniqueViolation, Constraint: "clients_license_number_key"}, want: ErrDuplicateLicense},
		{name: "identity", err: &pq.Error{Code: pgerrors.CodeUniqueViolation, Constraint: identityConstraint}, want: ErrDuplicateIdentity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepo(t)
			expect := mock.ExpectQuery(regexp.QuoteMeta("UPDATE clients"))
			if tt.err != nil {
				expect.WillReturnError(tt.err)
			} else {
				expect.WillReturnRows(tt.rows)
			}

			_, err := repo.Update(context.Background(), &domain.Client{ID: 3, FirstName: "Ada", LastName: "Lovelace", LicenseNumber: "L-1"})

			assert.ErrorIs(t, err, tt.want)
		})
	}
}
