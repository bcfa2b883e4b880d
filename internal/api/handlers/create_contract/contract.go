package create_contract

import (
	"context"

	"github.com/m04kA/SMC-RentalService/internal/service/contracts/models"
)

type ContractService interface {
	Create(ctx context.Context, req *models.CreateContractRequest) (*models.ContractResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
