package contract

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
	"github.com/m04kA/SMC-RentalService/pkg/ptr"
)

func newRepo(t *testing.T) (*Repository, *dbmetrics.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	wrapped := dbmetrics.Wrap(db, nil)
	return NewRepository(wrapped), wrapped, mock
}

var (
	jan10 = time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	jan15 = time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)
)

func TestCreate(t *testing.T) {
	repo, _, mock := newRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO contracts (client_id,vehicle_id,start_date,end_date,status) VALUES ($1,$2,$3,$4,$5) RETURNING id, created_at, updated_at")).
		WithArgs(int64(1), int64(2), jan10, jan15, domain.ContractPending).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(10, now, now))

	c, err := repo.Create(context.Background(), &domain.Contract{
		ClientID:  1,
		VehicleID: 2,
		StartDate: jan10,
		EndDate:   jan15,
		Status:    domain.ContractPending,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(10), c.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_MissingReference(t *testing.T) {
	repo, _, mock := newRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO contracts")).
		WillReturnError(&pq.Error{Code: pgerrors.CodeForeignKeyViolation})

	_, err := repo.Create(context.Background(), &domain.Contract{Status: domain.ContractPending})
	assert.ErrorIs(t, err, ErrReferenceNotFound)
}

func TestGetByID_ForUpdateOnlyInTransaction(t *testing.T) {
	repo, db, mock := newRepo(t)
	rows := func() *sqlmock.Rows {
		return sqlmock.NewRows(columnNames).AddRow(4, 1, 2, jan10, jan15, "ONGOING", jan10, jan10)
	}

	mock.ExpectQuery(`FROM contracts WHERE id = \$1$`).WithArgs(int64(4)).WillReturnRows(rows())
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM contracts WHERE id = \$1 FOR UPDATE`).WithArgs(int64(4)).WillReturnRows(rows())
	mock.ExpectCommit()

	c, err := repo.GetByID(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, domain.ContractOngoing, c.Status)

	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	_, err = repo.GetByID(dbmetrics.WithTx(context.Background(), tx), 4)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_NotFound(t *testing.T) {
	repo, _, mock := newRepo(t)

	mock.ExpectQuery("FROM contracts").WillReturnRows(sqlmock.NewRows(columnNames))

	_, err := repo.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrContractNotFound)
}

func TestHasOverlapping(t *testing.T) {
	repo, _, mock := newRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT COUNT(*) FROM contracts WHERE vehicle_id = $1 AND status IN ($2,$3,$4) AND start_date < $5 AND end_date > $6 AND id <> $7",
	)).
		WithArgs(int64(2), "PENDING", "ONGOING", "OVERDUE", jan15, jan10, int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT COUNT(*) FROM contracts WHERE vehicle_id = $1 AND status IN ($2,$3,$4) AND start_date < $5 AND end_date > $6",
	)).
		WithArgs(int64(2), "PENDING", "ONGOING", "OVERDUE", jan15, jan10).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	busy, err := repo.HasOverlapping(context.Background(), 2, jan10, jan15, ptr.Ptr(int64(10)))
	require.NoError(t, err)
	assert.False(t, busy)

	busy, err = repo.HasOverlapping(context.Background(), 2, jan10, jan15, nil)
	require.NoError(t, err)
	assert.True(t, busy)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListEndedBefore(t *testing.T) {
	repo, _, mock := newRepo(t)
	now := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM contracts WHERE status = $1 AND end_date < $2 AND id > $3 ORDER BY id ASC LIMIT 500")).
		WithArgs(domain.ContractOngoing, now, int64(0)).
		WillReturnRows(sqlmock.NewRows(columnNames).AddRow(1, 1, 2, jan10, jan15, "ONGOING", jan10, jan10))

	contracts, err := repo.ListEndedBefore(context.Background(), domain.ContractOngoing, now, 0, 500)

	require.NoError(t, err)
	require.Len(t, contracts, 1)
	assert.Equal(t, jan15, contracts[0].EndDate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListBlockingOverdue(t *testing.T) {
	repo, _, mock := newRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT o.id, o.client_id, o.vehicle_id, o.start_date, o.end_date, o.status, o.created_at, o.updated_at " +
			"FROM contracts o WHERE o.status = $1 AND EXISTS (SELECT 1 FROM contracts p WHERE p.vehicle_id = o.vehicle_id AND p.status = $2 AND o.end_date > p.start_date) " +
			"AND o.id > $3 ORDER BY o.id ASC LIMIT 100",
	)).
		WithArgs(domain.ContractOverdue, domain.ContractPending, int64(4)).
		WillReturnRows(sqlmock.NewRows(columnNames).AddRow(5, 1, 2, jan10, jan15, "OVERDUE", jan10, jan10))

	contracts, err := repo.ListBlockingOverdue(context.Background(), 4, 100)

	require.NoError(t, err)
	require.Len(t, contracts, 1)
	assert.Equal(t, domain.ContractOverdue, contracts[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_NotFound(t *testing.T) {
	repo, _, mock := newRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE contracts SET client_id = $1, vehicle_id = $2, start_date = $3, end_date = $4, updated_at = NOW() WHERE id = $5 RETURNING status, created_at, updated_at")).
		WillReturnRows(sqlmock.NewRows([]string{"status", "created_at", "updated_at"}))

	_, err := repo.Update(context.Background(), &domain.Contract{ID: 1, ClientID: 1, VehicleID: 2, StartDate: jan10, EndDate: jan15})
	assert.ErrorIs(t, err, ErrContractNotFound)
}

func TestUpdateStatus(t *testing.T) {
	repo, _, mock := newRepo(t)
	updatedAt := time.Date(2025, 1, 10, 9, 30, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE contracts SET status = $1, updated_at = NOW() WHERE id = $2 RETURNING updated_at")).
		WithArgs(domain.ContractCancelled, int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(updatedAt))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE contracts SET status = $1, updated_at = NOW() WHERE id = $2 RETURNING updated_at")).
		WithArgs(domain.ContractCancelled, int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}))

	got, err := repo.UpdateStatus(context.Background(), 3, domain.ContractCancelled)
	require.NoError(t, err)
	assert.Equal(t, updatedAt, got)

	_, err = repo.UpdateStatus(context.Background(), 4, domain.ContractCancelled)
	assert.ErrorIs(t, err, ErrContractNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
