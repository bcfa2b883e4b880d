package change_vehicle_status

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-RentalService/internal/api/handlers"
	"github.com/m04kA/SMC-RentalService/internal/service/vehicles"
	"github.com/m04kA/SMC-RentalService/internal/service/vehicles/models"
)

const (
	msgInvalidVehicleID = "некорректный ID автомобиля"
	msgUnknownAction    = "неизвестное действие"
	msgNotFound         = "автомобиль не найден"
	msgUnavailable      = "автомобиль неисправен"
)

// ActionPattern шаблон переменной {action} для маршрута
const ActionPattern = "breakdown|repair|rent"

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

// Handle POST /api/v1/vehicles/{vehicleId}/{action}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	vehicleID, err := handlers.ParseID(vars["vehicleId"])
	if err != nil {
		h.logger.Warn("POST /vehicles/{id}/{action} - Invalid vehicle ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidVehicleID)
		return
	}

	var apply func(ctx context.Context, id int64) (*models.VehicleResponse, error)
	action := vars["action"]
	switch action {
	case "breakdown":
		apply = h.service.MarkBrokenDown
	case "repair":
		apply = h.service.MarkRepaired
	case "rent":
		apply = h.service.MarkRented
	default:
		h.logger.Warn("POST /vehicles/{id}/{action} - Unknown action: %s", action)
		handlers.RespondBadRequest(w, msgUnknownAction)
		return
	}

	vehicle, err := apply(r.Context(), vehicleID)
	if err != nil {
		switch {
		case errors.Is(err, vehicles.ErrNotFound):
			h.logger.Warn("POST /vehicles/{id}/%s - Vehicle not found: vehicle_id=%d", action, vehicleID)
			handlers.RespondNotFound(w, msgNotFound)
			return
		case errors.Is(err, vehicles.ErrUnavailable):
			h.logger.Warn("POST /vehicles/{id}/%s - Vehicle broken down: vehicle_id=%d", action, vehicleID)
			handlers.RespondConflict(w, msgUnavailable)
			return
		}
		h.logger.Error("POST /vehicles/{id}/%s - Failed to change status: vehicle_id=%d, error=%v", action, vehicleID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("POST /vehicles/{id}/%s - Status changed: vehicle_id=%d, status=%s", action, vehicleID, vehicle.Status)
	handlers.RespondJSON(w, http.StatusOK, vehicle)
}
