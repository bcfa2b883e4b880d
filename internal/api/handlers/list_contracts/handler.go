package list_contracts

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-RentalService/internal/api/handlers"
	"github.com/m04kA/SMC-RentalService/internal/service/contracts"
	"github.com/m04kA/SMC-RentalService/internal/service/contracts/models"
)

const (
	msgInvalidClientID  = "некорректный clientId"
	msgInvalidVehicleID = "некорректный vehicleId"
	msgInvalidStatus    = "некорректный статус контракта"
)

type Handler struct {
	service ContractService
	logger  Logger
}

func NewHandler(service ContractService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/contracts
// Query params: clientId, vehicleId, status (все необязательные)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	clientID, err := handlers.ParseOptionalID(r, "clientId")
	if err != nil {
		h.logger.Warn("GET /contracts - Invalid client ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidClientID)
		return
	}

	vehicleID, err := handlers.ParseOptionalID(r, "vehicleId")
	if err != nil {
		h.logger.Warn("GET /contracts - Invalid vehicle ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidVehicleID)
		return
	}

	result, err := h.service.List(r.Context(), &models.ListContractsRequest{
		ClientID:  clientID,
		VehicleID: vehicleID,
		Status:    handlers.ParseOptionalString(r, "status"),
	})
	if err != nil {
		if errors.Is(err, contracts.ErrValidation) {
			h.logger.Warn("GET /contracts - Invalid filter: %v", err)
			handlers.RespondBadRequest(w, msgInvalidStatus)
			return
		}
		h.logger.Error("GET /contracts - Failed to list contracts: %v", err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /contracts - Contracts retrieved successfully: total=%d", result.Total)
	handlers.RespondJSON(w, http.StatusOK, result)
}
