package delete_contract

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-RentalService/internal/api/handlers"
	"github.com/m04kA/SMC-RentalService/internal/service/contracts"
)

const (
	msgInvalidContractID = "некорректный ID контракта"
	msgNotFound          = "контракт не найден"
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

// Handle DELETE /api/v1/contracts/{contractId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	contractID, err := handlers.ParseID(mux.Vars(r)["contractId"])
	if err != nil {
		h.logger.Warn("DELETE /contracts/{id} - Invalid contract ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidContractID)
		return
	}

	if err := h.service.Delete(r.Context(), contractID); err != nil {
		if errors.Is(err, contracts.ErrNotFound) {
			h.logger.Warn("DELETE /contracts/{id} - Contract not found: contract_id=%d", contractID)
			handlers.RespondNotFound(w, msgNotFound)
			return
		}
		h.logger.Error("DELETE /contracts/{id} - Failed to delete contract: contract_id=%d, error=%v", contractID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("DELETE /contracts/{id} - Contract deleted: contract_id=%d", contractID)
	handlers.RespondNoContent(w)
}
