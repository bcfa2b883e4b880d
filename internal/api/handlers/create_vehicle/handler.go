package create_vehicle

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-RentalService/internal/api/handlers"
	"github.com/m04kA/SMC-RentalService/internal/service/vehicles"
	"github.com/m04kA/SMC-RentalService/internal/service/vehicles/models"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgValidation         = "некорректные данные автомобиля"
	msgAlreadyExists      = "автомобиль с таким номером уже существует"
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

// Handle POST /api/v1/vehicles
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req models.CreateVehicleRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /vehicles - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	vehicle, err := h.service.Create(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, vehicles.ErrValidation):
			h.logger.Warn("POST /vehicles - Validation failed: %v", err)
			handlers.RespondBadRequest(w, msgValidation+": "+err.Error())

		case errors.Is(err, vehicles.ErrAlreadyExists):
			h.logger.Warn("POST /vehicles - Duplicate plate: %s", req.RegistrationPlate)
			handlers.RespondConflict(w, msgAlreadyExists)

		default:
			h.logger.Error("POST /vehicles - Failed to create vehicle: plate=%s, error=%v", req.RegistrationPlate, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /vehicles - Vehicle created successfully: vehicle_id=%d", vehicle.ID)
	handlers.RespondJSON(w, http.StatusCreated, vehicle)
}
