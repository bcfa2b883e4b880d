// Package audit журнал автоматических изменений контрактов, сделанных сверкой
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// ErrInvalidPayload возвращается, если событие не удалось разобрать
var ErrInvalidPayload = errors.New("audit: invalid event payload")

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
}

// Handler пишет в лог события contract.overdue и contract.cancelled
type Handler struct {
	logger Logger
}

func NewHandler(logger Logger) *Handler {
	return &Handler{logger: logger}
}

// Handle обработчик событий contract.* для диспетчера outbox
func (h *Handler) Handle(ctx context.Context, event *domain.Event) error {
	var payload domain.ContractEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("%w: event %s: %w", ErrInvalidPayload, event.ID, err)
	}

	switch event.Type {
	case domain.EventContractOverdue:
		days, hours := Delay(payload.EndDate, payload.OccurredAt)
		h.logger.Warn("Audit: contract id=%d (vehicle id=%d, client id=%d) is overdue by %d days %d hours, run %s",
			payload.ContractID, payload.VehicleID, payload.ClientID, days, hours, payload.RunID)
	case domain.EventContractCancelled:
		h.logger.Info("Audit: contract id=%d (vehicle id=%d, client id=%d) cancelled %s -> %s, run %s",
			payload.ContractID, payload.VehicleID, payload.ClientID, payload.From, payload.To, payload.RunID)
	default:
		h.logger.Info("Audit: contract id=%d event %s", payload.ContractID, event.Type)
	}
	return nil
}

// Delay полные дни и оставшиеся часы между окончанием аренды и моментом события
func Delay(end, at time.Time) (days, hours int) {
	if !at.After(end) {
		return 0, 0
	}
	total := int(at.Sub(end).Hours())
	return total / 24, total % 24
}
