package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// EventRepository чтение и отметка событий outbox
type EventRepository interface {
	FetchPending(ctx context.Context, limit uint64, maxAttempts int) ([]*domain.Event, error)
	Lease(ctx context.Context, id uuid.UUID, until time.Time) error
	MarkProcessed(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string, retryAt time.Time) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider источник текущего времени
type TimeProvider interface {
	Now() time.Time
}

// MetricsRecorder учёт обработанных событий (*metrics.Metrics)
type MetricsRecorder interface {
	ObserveOutboxEvent(eventType, result string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
