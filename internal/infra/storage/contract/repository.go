package contract

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/pkg/dbmetrics"
	"github.com/m04kA/SMC-RentalService/pkg/pgerrors"
	"github.com/m04kA/SMC-RentalService/pkg/psqlbuilder"
)

var columnNames = []string{
	"id",
	"client_id",
	"vehicle_id",
	"start_date",
	"end_date",
	"status",
	"created_at",
	"updated_at",
}

// columns возвращает список колонок, при необходимости с алиасом таблицы
func columns(alias string) []string {
	if alias == "" {
		return columnNames
	}
	out := make([]string, len(columnNames))
	for i, c := range columnNames {
		out[i] = alias + "." + c
	}
	return out
}

// Repository репозиторий для работы с контрактами аренды
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория контрактов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новый контракт
// Проверка конфликтов и вставка должны выполняться в одной сериализуемой транзакции (txmanager.DoSerializable)
func (r *Repository) Create(ctx context.Context, contract *domain.Contract) (*domain.Contract, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("contracts").
		Columns("client_id", "vehicle_id", "start_date", "end_date", "status").
		Values(contract.ClientID, contract.VehicleID, contract.StartDate, contract.EndDate, contract.Status).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %w", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(&contract.ID, &contract.CreatedAt, &contract.UpdatedAt)
	if err != nil {
		if pgerrors.IsForeignKeyViolation(err) {
			return nil, ErrReferenceNotFound
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %w", ErrExecQuery, err)
	}

	return contract, nil
}

// GetByID получает контракт по ID
// Внутри транзакции строка блокируется FOR UPDATE (единственный писатель на контракт)
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Contract, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(columns("")...).
		From("contracts").
		Where(squirrel.Eq{"id": id})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %w", ErrBuildQuery, err)
	}

	contract, err := scanContract(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrContractNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan contract: %w", ErrScanRow, err)
	}

	return contract, nil
}

// List получает контракты с фильтрацией по клиенту, автомобилю и статусу
func (r *Repository) List(ctx context.Context, filter domain.ContractsFilter) ([]*domain.Contract, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(columns("")...).
		From("contracts").
		OrderBy("start_date ASC, id ASC")

	if filter.ClientID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"client_id": *filter.ClientID})
	}
	if filter.VehicleID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"vehicle_id": *filter.VehicleID})
	}
	if filter.Status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.Limit > 0 {
		selectBuilder = selectBuilder.Limit(filter.Limit)
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %w", ErrBuildQuery, err)
	}

	return r.query(ctx, executor, "List", query, args)
}

// Update перезаписывает клиента, автомобиль и интервал контракта. Статус не меняется.
func (r *Repository) Update(ctx context.Context, contract *domain.Contract) (*domain.Contract, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("contracts").
		Set("client_id", contract.ClientID).
		Set("vehicle_id", contract.VehicleID).
		Set("start_date", contract.StartDate).
		Set("end_date", contract.EndDate).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": contract.ID}).
		Suffix("RETURNING status, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Update - build update query: %w", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(&contract.Status, &contract.CreatedAt, &contract.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrContractNotFound
	}
	if err != nil {
		if pgerrors.IsForeignKeyViolation(err) {
			return nil, ErrReferenceNotFound
		}
		return nil, fmt.Errorf("%w: Update - execute update: %w", ErrExecQuery, err)
	}

	return contract, nil
}

// UpdateStatus сохраняет новый статус контракта и возвращает новое значение updated_at
// Допустимость перехода проверяется в сервисе, репозиторий статус не валидирует
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status domain.ContractStatus) (time.Time, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("contracts").
		Set("status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: UpdateStatus - build update query: %w", ErrBuildQuery, err)
	}

	var updatedAt time.Time
	err = executor.QueryRowContext(ctx, query, args...).Scan(&updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrContractNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: UpdateStatus - execute update: %w", ErrExecQuery, err)
	}

	return updatedAt, nil
}

// Delete физически удаляет контракт независимо от статуса
func (r *Repository) Delete(ctx context.Context, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("contracts").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Delete - build delete query: %w", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Delete - execute delete: %w", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Delete - get rows affected: %w", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrContractNotFound
	}

	return nil
}

// HasOverlapping проверяет наличие нетерминального контракта автомобиля, пересекающего [start, end)
// Интервалы [s1,e1) и [s2,e2) пересекаются, если s1 < e2 AND s2 < e1
func (r *Repository) HasOverlapping(ctx context.Context, vehicleID int64, start, end time.Time, excludeID *int64) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select("COUNT(*)").
		From("contracts").
		Where(squirrel.Eq{"vehicle_id": vehicleID}).
		Where(squirrel.Eq{"status": domain.StatusStrings(domain.NonTerminalStatuses)}).
		Where(squirrel.Lt{"start_date": end}).
		Where(squirrel.Gt{"end_date": start})

	if excludeID != nil {
		selectBuilder = selectBuilder.Where(squirrel.NotEq{"id": *excludeID})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: HasOverlapping - build select query: %w", ErrBuildQuery, err)
	}

	var count int64
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("%w: HasOverlapping - scan count: %w", ErrScanRow, err)
	}

	return count > 0, nil
}

// ListEndedBefore получает контракты в статусе status, у которых end_date строго раньше before.
// Страница начинается после afterID (курсор по id), так что проход листает всех кандидатов.
// Используется проходом старения планировщика (ONGOING -> OVERDUE)
func (r *Repository) ListEndedBefore(ctx context.Context, status domain.ContractStatus, before time.Time, afterID int64, limit uint64) ([]*domain.Contract, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(columns("")...).
		From("contracts").
		Where(squirrel.Eq{"status": status}).
		Where(squirrel.Lt{"end_date": before}).
		Where(squirrel.Gt{"id": afterID}).
		OrderBy("id ASC")

	if limit > 0 {
		selectBuilder = selectBuilder.Limit(limit)
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListEndedBefore - build select query: %w", ErrBuildQuery, err)
	}

	return r.query(ctx, executor, "ListEndedBefore", query, args)
}

// ListBlockingOverdue получает OVERDUE контракты, которые мешают начаться PENDING контракту
// на том же автомобиле (overdue.end_date > pending.start_date). Каждый контракт возвращается один раз,
// страница начинается после afterID.
func (r *Repository) ListBlockingOverdue(ctx context.Context, afterID int64, limit uint64) ([]*domain.Contract, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	pendingSQL, pendingArgs, err := squirrel.Select("1").
		From("contracts p").
		Where("p.vehicle_id = o.vehicle_id").
		Where(squirrel.Eq{"p.status": domain.ContractPending}).
		Where("o.end_date > p.start_date").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListBlockingOverdue - build subquery: %w", ErrBuildQuery, err)
	}

	selectBuilder := psqlbuilder.Select(columns("o")...).
		From("contracts o").
		Where(squirrel.Eq{"o.status": domain.ContractOverdue}).
		Where("EXISTS ("+pendingSQL+")", pendingArgs...).
		Where(squirrel.Gt{"o.id": afterID}).
		OrderBy("o.id ASC")

	if limit > 0 {
		selectBuilder = selectBuilder.Limit(limit)
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListBlockingOverdue - build select query: %w", ErrBuildQuery, err)
	}

	return r.query(ctx, executor, "ListBlockingOverdue", query, args)
}

func (r *Repository) query(ctx context.Context, executor DBExecutor, op, query string, args []interface{}) ([]*domain.Contract, error) {
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s - execute query: %w", ErrExecQuery, op, err)
	}
	defer rows.Close()

	contracts := make([]*domain.Contract, 0)
	for rows.Next() {
		contract, err := scanContract(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %s - scan row: %w", ErrScanRow, op, err)
		}
		contracts = append(contracts, contract)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s - rows error: %w", ErrScanRow, op, err)
	}

	return contracts, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanContract(row rowScanner) (*domain.Contract, error) {
	var c domain.Contract
	err := row.Scan(
		&c.ID,
		&c.ClientID,
		&c.VehicleID,
		&c.StartDate,
		&c.EndDate,
		&c.Status,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
