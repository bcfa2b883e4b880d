package contracts

import (
	"context"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// ContractRepository интерфейс репозитория контрактов
type ContractRepository interface {
	Create(ctx context.Context, contract *domain.Contract) (*domain.Contract, error)
	GetByID(ctx context.Context, id int64) (*domain.Contract, error)
	List(ctx context.Context, filter domain.ContractsFilter) ([]*domain.Contract, error)
	Update(ctx context.Context, contract *domain.Contract) (*domain.Contract, error)
	UpdateStatus(ctx context.Context, id int64, status domain.ContractStatus) (time.Time, error)
	Delete(ctx context.Context, id int64) error
}

// ClientRepository поиск клиента по ID
type ClientRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Client, error)
}

// VehicleRepository поиск автомобиля по ID (в транзакции строка блокируется)
type VehicleRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Vehicle, error)
}

// ConflictDetector проверка занятости автомобиля на интервале
type ConflictDetector interface {
	HasConflict(ctx context.Context, vehicleID int64, start, end time.Time, excludeContractID *int64) (bool, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
	DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider источник текущего времени
type TimeProvider interface {
	Now() time.Time
}

// MetricsRecorder учёт переходов статусов (*metrics.Metrics)
type MetricsRecorder interface {
	ObserveTransition(from, to string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальное время в UTC
type RealTimeProvider struct{}

func (RealTimeProvider) Now() time.Time {
	return time.Now().UTC()
}
