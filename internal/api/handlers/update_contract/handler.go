package update_contract

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-RentalService/internal/api/handlers"
	"github.com/m04kA/SMC-RentalService/internal/service/contracts"
)

const (
	msgInvalidContractID  = "некорректный ID контракта"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDate        = "некорректный формат даты, ожидается RFC3339"
	msgValidation         = "некорректные данные контракта"
	msgNotFound           = "контракт, клиент или автомобиль не найден"
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

// Handle PUT /api/v1/contracts/{contractId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	contractID, err := handlers.ParseID(mux.Vars(r)["contractId"])
	if err != nil {
		h.logger.Warn("PUT /contracts/{id} - Invalid contract ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidContractID)
		return
	}

	var req UpdateContractRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PUT /contracts/{id} - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	serviceReq, err := req.ToServiceRequest()
	if err != nil {
		h.logger.Warn("PUT /contracts/{id} - Invalid date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	contract, err := h.service.Update(r.Context(), contractID, serviceReq)
	if err != nil {
		switch {
		case errors.Is(err, contracts.ErrValidation):
			h.logger.Warn("PUT /contracts/{id} - Validation failed: contract_id=%d, %v", contractID, err)
			handlers.RespondBadRequest(w, msgValidation+": "+err.Error())

		case errors.Is(err, contracts.ErrNotFound):
			h.logger.Warn("PUT /contracts/{id} - Not found: contract_id=%d", contractID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, contracts.ErrConflict):
			h.logger.Warn("PUT /contracts/{id} - Vehicle busy: contract_id=%d, vehicle_id=%d", contractID, req.VehicleID)
			handlers.RespondConflict(w, msgConflict)

		default:
			h.logger.Error("PUT /contracts/{id} - Failed to update contract: contract_id=%d, error=%v", contractID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PUT /contracts/{id} - Contract updated successfully: contract_id=%d", contractID)
	handlers.RespondJSON(w, http.StatusOK, contract)
}
