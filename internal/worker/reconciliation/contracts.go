package reconciliation

import (
	"context"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	contractModels "github.com/m04kA/SMC-RentalService/internal/service/contracts/models"
)

// ContractRepository постраничные выборки кандидатов для проходов сверки (курсор afterID по id)
type ContractRepository interface {
	ListEndedBefore(ctx context.Context, status domain.ContractStatus, before time.Time, afterID int64, limit uint64) ([]*domain.Contract, error)
	ListBlockingOverdue(ctx context.Context, afterID int64, limit uint64) ([]*domain.Contract, error)
}

// ContractService смена статусов идёт только через сервис контрактов
type ContractService interface {
	MarkOverdue(ctx context.Context, id int64) (*contractModels.ContractResponse, error)
	Cancel(ctx context.Context, id int64) (*contractModels.ContractResponse, error)
}

// OutboxRepository запись событий в outbox в текущей транзакции
type OutboxRepository interface {
	Enqueue(ctx context.Context, event *domain.Event) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider источник текущего времени
type TimeProvider interface {
	Now() time.Time
}

// MetricsRecorder учёт проходов и запусков (*metrics.Metrics)
type MetricsRecorder interface {
	ObserveReconciliationItem(pass, result string)
	ObserveReconciliationRun(result string, seconds float64)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
