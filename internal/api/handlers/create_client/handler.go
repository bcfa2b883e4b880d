package create_client

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-RentalService/internal/api/handlers"
	"github.com/m04kA/SMC-RentalService/internal/service/clients"
	"github.com/m04kA/SMC-RentalService/internal/service/clients/models"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgValidation         = "некорректные данные клиента"
	msgAlreadyExists      = "клиент уже зарегистрирован"
)

type Handler struct {
	service ClientService
	logger  Logger
}

func NewHandler(service ClientService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/clients
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req models.CreateClientRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /clients - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	client, err := h.service.Create(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, clients.ErrValidation):
			h.logger.Warn("POST /clients - Validation failed: %v", err)
			handlers.RespondBadRequest(w, msgValidation+": "+err.Error())

		case errors.Is(err, clients.ErrAlreadyExists):
			h.logger.Warn("POST /clients - Client already exists: %v", err)
			handlers.RespondConflict(w, msgAlreadyExists)

		default:
			h.logger.Error("POST /clients - Failed to create client: error=%v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /clients - Client created successfully: client_id=%d", client.ID)
	handlers.RespondJSON(w, http.StatusCreated, client)
}
