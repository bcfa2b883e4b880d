package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/pkg/dbmetrics"
	"github.com/m04kA/SMC-RentalService/pkg/psqlbuilder"
)

// Repository таблица outbox_events: события пишутся в той же транзакции, что и изменение данных,
// и доставляются диспетчером
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория outbox
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Enqueue сохраняет событие. Если ID пустой, генерируется новый uuid.
func (r *Repository) Enqueue(ctx context.Context, event *domain.Event) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	payload := event.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}

	query, args, err := psqlbuilder.Insert("outbox_events").
		Columns("id", "event_type", "aggregate_id", "payload").
		Values(event.ID, event.Type, event.AggregateID, payload).
		Suffix("RETURNING created_at, available_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Enqueue - build insert query: %w", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&event.CreatedAt, &event.AvailableAt); err != nil {
		return fmt.Errorf("%w: Enqueue - execute insert: %w", ErrExecQuery, err)
	}

	return nil
}

// FetchPending выбирает необработанные события, готовые к доставке
// В транзакции строки блокируются FOR UPDATE SKIP LOCKED, чтобы параллельные диспетчеры не брали одно событие
func (r *Repository) FetchPending(ctx context.Context, limit uint64, maxAttempts int) ([]*domain.Event, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(
		"id",
		"event_type",
		"aggregate_id",
		"payload",
		"attempts",
		"last_error",
		"created_at",
		"available_at",
	).
		From("outbox_events").
		Where(squirrel.Eq{"processed_at": nil}).
		Where("available_at <= NOW()").
		OrderBy("created_at ASC").
		Limit(limit)

	if maxAttempts > 0 {
		selectBuilder = selectBuilder.Where(squirrel.Lt{"attempts": maxAttempts})
	}
	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE SKIP LOCKED")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: FetchPending - build select query: %w", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: FetchPending - execute query: %w", ErrExecQuery, err)
	}
	defer rows.Close()

	events := make([]*domain.Event, 0)
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(
			&e.ID,
			&e.Type,
			&e.AggregateID,
			&e.Payload,
			&e.Attempts,
			&e.LastError,
			&e.CreatedAt,
			&e.AvailableAt,
		); err != nil {
			return nil, fmt.Errorf("%w: FetchPending - scan row: %w", ErrScanRow, err)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: FetchPending - rows error: %w", ErrScanRow, err)
	}

	return events, nil
}

// Lease скрывает событие от FetchPending до until, не меняя счётчик попыток
func (r *Repository) Lease(ctx context.Context, id uuid.UUID, until time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("outbox_events").
		Set("available_at", until).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"processed_at": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Lease - build update query: %w", ErrBuildQuery, err)
	}

	return r.execOne(ctx, executor, "Lease", query, args)
}

// MarkProcessed помечает событие доставленным
func (r *Repository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("outbox_events").
		Set("processed_at", squirrel.Expr("NOW()")).
		Set("attempts", squirrel.Expr("attempts + 1")).
		Set("last_error", nil).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: MarkProcessed - build update query: %w", ErrBuildQuery, err)
	}

	return r.execOne(ctx, executor, "MarkProcessed", query, args)
}

// MarkFailed увеличивает счётчик попыток и откладывает следующую доставку до retryAt
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, reason string, retryAt time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("outbox_events").
		Set("attempts", squirrel.Expr("attempts + 1")).
		Set("last_error", reason).
		Set("available_at", retryAt).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: MarkFailed - build update query: %w", ErrBuildQuery, err)
	}

	return r.execOne(ctx, executor, "MarkFailed", query, args)
}

func (r *Repository) execOne(ctx context.Context, executor DBExecutor, op, query string, args []interface{}) error {
	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s - execute update: %w", ErrExecQuery, op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %w", ErrExecQuery, op, err)
	}
	if rowsAffected == 0 {
		return ErrEventNotFound
	}

	return nil
}
