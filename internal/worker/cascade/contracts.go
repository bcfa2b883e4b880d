package cascade

import (
	"context"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	contractModels "github.com/m04kA/SMC-RentalService/internal/service/contracts/models"
)

// ContractRepository выборка контрактов автомобиля
type ContractRepository interface {
	List(ctx context.Context, filter domain.ContractsFilter) ([]*domain.Contract, error)
}

// ContractService отмена идёт только через сервис контрактов
type ContractService interface {
	Cancel(ctx context.Context, id int64) (*contractModels.ContractResponse, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
