package get_available_vehicles

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-RentalService/internal/api/handlers"
	"github.com/m04kA/SMC-RentalService/internal/service/vehicles"
)

const (
	msgInvalidPeriod = "start и end обязательны в формате RFC3339"
	msgValidation    = "некорректный период"
)

type Handler struct {
	service VehicleService
	logger  Logger
}

func NewHandler(service VehicleService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/vehicles/available
// Query params: start, end (обязательные, RFC3339), интервал [start, end)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	req, err := ToServiceRequest(r)
	if err != nil {
		h.logger.Warn("GET /vehicles/available - Invalid period: %v", err)
		handlers.RespondBadRequest(w, msgInvalidPeriod)
		return
	}

	result, err := h.service.ListAvailable(r.Context(), req)
	if err != nil {
		if errors.Is(err, vehicles.ErrValidation) {
			h.logger.Warn("GET /vehicles/available - Validation failed: %v", err)
			handlers.RespondBadRequest(w, msgValidation+": "+err.Error())
			return
		}
		h.logger.Error("GET /vehicles/available - Failed to list available vehicles: %v", err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /vehicles/available - Vehicles retrieved successfully: total=%d", result.Total)
	handlers.RespondJSON(w, http.StatusOK, result)
}
