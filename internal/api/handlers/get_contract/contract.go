package get_contract

import (
	"context"

	"github.com/m04kA/SMC-RentalService/internal/service/contracts/models"
)

type ContractService interface {
	GetByID(ctx context.Context, id int64) (*models.ContractResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
