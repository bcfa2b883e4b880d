package update_contract

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/service/contracts/models"
)

// UpdateContractRequest HTTP request model. Статус здесь не меняется.
type UpdateContractRequest struct {
	ClientID  int64  `json:"clientId"`
	VehicleID int64  `json:"vehicleId"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// ToServiceRequest конвертирует HTTP запрос в модель сервиса
func (r *UpdateContractRequest) ToServiceRequest() (*models.UpdateContractRequest, error) {
	start, err := time.Parse(time.RFC3339, r.StartDate)
	if err != nil {
		return nil, fmt.Errorf("startDate: %w", err)
	}
	end, err := time.Parse(time.RFC3339, r.EndDate)
	if err != nil {
		return nil, fmt.Errorf("endDate: %w", err)
	}

	return &models.UpdateContractRequest{
		ClientID:  r.ClientID,
		VehicleID: r.VehicleID,
		StartDate: start.UTC(),
		EndDate:   end.UTC(),
	}, nil
}
