package create_contract

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/service/contracts/models"
)

// CreateContractRequest HTTP request model
type CreateContractRequest struct {
	ClientID  int64  `json:"clientId"`
	VehicleID int64  `json:"vehicleId"`
	StartDate string `json:"startDate"` // "2025-01-10T09:00:00Z"
	EndDate   string `json:"endDate"`
}

// ToServiceRequest конвертирует HTTP запрос в модель сервиса
func (r *CreateContractRequest) ToServiceRequest() (*models.CreateContractRequest, error) {
	start, err := time.Parse(time.RFC3339, r.StartDate)
	if err != nil {
		return nil, fmt.Errorf("startDate: %w", err)
	}
	end, err := time.Parse(time.RFC3339, r.EndDate)
	if err != nil {
		return nil, fmt.Errorf("endDate: %w", err)
	}

	return &models.CreateContractRequest{
		ClientID:  r.ClientID,
		VehicleID: r.VehicleID,
		StartDate: start.UTC(),
		EndDate:   end.UTC(),
	}, nil
}
