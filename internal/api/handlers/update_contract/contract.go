package update_contract

import (
	"context"

	"github.com/m04kA/SMC-RentalService/internal/service/contracts/models"
)

type ContractService interface {
	Update(ctx context.Context, id int64, req *models.UpdateContractRequest) (*models.ContractResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
