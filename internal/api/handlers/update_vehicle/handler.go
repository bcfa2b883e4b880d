package update_vehicle

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-RentalService/internal/api/handlers"
	"github.com/m04kA/SMC-RentalService/internal/service/vehicles"
	"github.com/m04kA/SMC-RentalService/internal/service/vehicles/models"
)

const (
	msgInvalidVehicleID   = "некорректный ID автомобиля"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgValidation         = "некорректные данные автомобиля"
	msgNotFound           = "автомобиль не найден"
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

// Handle PUT /api/v1/vehicles/{vehicleId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vehicleID, err := handlers.ParseID(mux.Vars(r)["vehicleId"])
	if err != nil {
		h.logger.Warn("PUT /vehicles/{id} - Invalid vehicle ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidVehicleID)
		return
	}

	var req models.UpdateVehicleRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PUT /vehicles/{id} - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	vehicle, err := h.service.Update(r.Context(), vehicleID, &req)
	if err != nil {
		switch {
		case errors.Is(err, vehicles.ErrValidation):
			h.logger.Warn("PUT /vehicles/{id} - Validation failed: vehicle_id=%d, %v", vehicleID, err)
			handlers.RespondBadRequest(w, msgValidation+": "+err.Error())

		case errors.Is(err, vehicles.ErrNotFound):
			h.logger.Warn("PUT /vehicles/{id} - Vehicle not found: vehicle_id=%d", vehicleID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, vehicles.ErrAlreadyExists):
			h.logger.Warn("PUT /vehicles/{id} - Duplicate plate: %s", req.RegistrationPlate)
			handlers.RespondConflict(w, msgAlreadyExists)

		default:
			h.logger.Error("PUT /vehicles/{id} - Failed to update vehicle: vehicle_id=%d, error=%v", vehicleID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PUT /vehicles/{id} - Vehicle updated successfully: vehicle_id=%d", vehicleID)
	handlers.RespondJSON(w, http.StatusOK, vehicle)
}
