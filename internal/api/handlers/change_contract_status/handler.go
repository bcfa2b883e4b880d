package change_contract_status

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-RentalService/internal/api/handlers"
	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/service/contracts"
)

const (
	msgInvalidContractID = "некорректный ID контракта"
	msgUnknownAction     = "неизвестное действие"
	msgNotFound          = "контракт не найден"
	msgInvalidTransition = "недопустимая смена статуса контракта"
)

// Actions соответствие действия в пути целевому статусу
var Actions = map[string]domain.ContractStatus{
	"approve":  domain.ContractOngoing,
	"complete": domain.ContractCompleted,
	"overdue":  domain.ContractOverdue,
	"cancel":   domain.ContractCancelled,
}

// ActionPattern шаблон переменной {action} для маршрута
const ActionPattern = "approve|complete|overdue|cancel"

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

// Handle POST /api/v1/contracts/{contractId}/{action}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	contractID, err := handlers.ParseID(vars["contractId"])
	if err != nil {
		h.logger.Warn("POST /contracts/{id}/{action} - Invalid contract ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidContractID)
		return
	}

	action := vars["action"]
	status, ok := Actions[action]
	if !ok {
		h.logger.Warn("POST /contracts/{id}/{action} - Unknown action: %s", action)
		handlers.RespondBadRequest(w, msgUnknownAction)
		return
	}

	contract, err := h.service.ChangeStatus(r.Context(), contractID, status)
	if err != nil {
		switch {
		case errors.Is(err, contracts.ErrNotFound):
			h.logger.Warn("POST /contracts/{id}/%s - Contract not found: contract_id=%d", action, contractID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, contracts.ErrInvalidTransition):
			h.logger.Warn("POST /contracts/{id}/%s - Invalid transition: contract_id=%d, %v", action, contractID, err)
			handlers.RespondUnprocessable(w, msgInvalidTransition+": "+err.Error())

		default:
			h.logger.Error("POST /contracts/{id}/%s - Failed to change status: contract_id=%d, error=%v", action, contractID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /contracts/{id}/%s - Status changed: contract_id=%d, status=%s", action, contractID, contract.Status)
	handlers.RespondJSON(w, http.StatusOK, contract)
}
