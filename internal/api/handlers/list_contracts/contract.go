package list_contracts

import (
	"context"

	"github.com/m04kA/SMC-RentalService/internal/service/contracts/models"
)

type ContractService interface {
	List(ctx context.Context, req *models.ListContractsRequest) (*models.ContractListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
