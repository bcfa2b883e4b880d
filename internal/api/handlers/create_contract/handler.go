package create_contract

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-RentalService/internal/api/handlers"
	"github.com/m04kA/SMC-RentalService/internal/service/contracts"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDate        = "некорректный формат даты, ожидается RFC3339 (2025-01-10T09:00:00Z)"
	msgValidation         = "некорректные данные контракта"
	msgNotFound           = "клиент или автомобиль не найден"
	msgConflict           = "автомобиль занят на выбранный период"
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

// Handle POST /api/v1/contracts
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req CreateContractRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /contracts - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	serviceReq, err := req.ToServiceRequest()
	if err != nil {
		h.logger.Warn("POST /contracts - Invalid date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	contract, err := h.service.Create(r.Context(), serviceReq)
	if err != nil {
		switch {
		case errors.Is(err, contracts.ErrValidation):
			h.logger.Warn("POST /contracts - Validation failed: %v", err)
			handlers.RespondBadRequest(w, msgValidation+": "+err.Error())

		case errors.Is(err, contracts.ErrNotFound):
			h.logger.Warn("POST /contracts - Reference not found: client_id=%d, vehicle_id=%d", req.ClientID, req.VehicleID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, contracts.ErrConflict):
			h.logger.Warn("POST /contracts - Vehicle busy: vehicle_id=%d, period=%s..%s", req.VehicleID, req.StartDate, req.EndDate)
			handlers.RespondConflict(w, msgConflict)

		default:
			h.logger.Error("POST /contracts - Failed to create contract: client_id=%d, vehicle_id=%d, error=%v",
				req.ClientID, req.VehicleID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /contracts - Contract created successfully: contract_id=%d, vehicle_id=%d", contract.ID, contract.VehicleID)
	handlers.RespondJSON(w, http.StatusCreated, contract)
}
