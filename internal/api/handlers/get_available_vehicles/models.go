package get_available_vehicles

import (
	"net/http"

	"github.com/m04kA/SMC-RentalService/internal/api/handlers"
	"github.com/m04kA/SMC-RentalService/internal/service/vehicles/models"
)

// ToServiceRequest собирает запрос сервиса из query параметров start и end (RFC3339)
func ToServiceRequest(r *http.Request) (*models.AvailableVehiclesRequest, error) {
	start, err := handlers.ParseTime(r, "start")
	if err != nil {
		return nil, err
	}
	end, err := handlers.ParseTime(r, "end")
	if err != nil {
		return nil, err
	}
	return &models.AvailableVehiclesRequest{Start: start.UTC(), End: end.UTC()}, nil
}
