package cascade

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/service/contracts"
)

const defaultBatchSize = 100

// Handler отменяет PENDING контракты сломанного автомобиля.
// ONGOING и OVERDUE не трогаются. Повторная обработка того же события ничего не меняет.
type Handler struct {
	contractRepo    ContractRepository
	contractService ContractService
	logger          Logger
	batchSize       uint64
}

func NewHandler(contractRepo ContractRepository, contractService ContractService, logger Logger) *Handler {
	return &Handler{
		contractRepo:    contractRepo,
		contractService: contractService,
		logger:          logger,
		batchSize:       defaultBatchSize,
	}
}

// Handle обработчик события vehicle.broken_down для диспетчера outbox
func (h *Handler) Handle(ctx context.Context, event *domain.Event) error {
	var payload domain.VehicleEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("%w: event %s: %w", ErrInvalidPayload, event.ID, err)
	}
	if payload.VehicleID == 0 {
		payload.VehicleID = event.AggregateID
	}
	return h.HandleVehicleBrokenDown(ctx, payload.VehicleID)
}

// HandleVehicleBrokenDown отменяет все PENDING контракты автомобиля.
// Ошибка по одному контракту не останавливает обработку остальных.
func (h *Handler) HandleVehicleBrokenDown(ctx context.Context, vehicleID int64) error {
	h.logger.Info("HandleVehicleBrokenDown: vehicle id=%d", vehicleID)

	status := domain.ContractPending
	filter := domain.ContractsFilter{
		VehicleID: &vehicleID,
		Status:    &status,
		Limit:     h.batchSize,
	}

	var (
		cancelled int
		failed    = make(map[int64]struct{})
	)
	for {
		pending, err := h.contractRepo.List(ctx, filter)
		if err != nil {
			h.logger.Error("HandleVehicleBrokenDown: failed to list contracts of vehicle id=%d: %v", vehicleID, err)
			return fmt.Errorf("%w: vehicle %d: %w", ErrListContracts, vehicleID, err)
		}

		progress := false
		for _, c := range pending {
			if _, seen := failed[c.ID]; seen {
				continue
			}
			if _, err := h.contractService.Cancel(ctx, c.ID); err != nil {
				if errors.Is(err, contracts.ErrInvalidTransition) || errors.Is(err, contracts.ErrNotFound) {
					h.logger.Warn("HandleVehicleBrokenDown: contract id=%d skipped: %v", c.ID, err)
					continue
				}
				h.logger.Error("HandleVehicleBrokenDown: failed to cancel contract id=%d: %v", c.ID, err)
				failed[c.ID] = struct{}{}
				continue
			}
			cancelled++
			progress = true
		}

		// следующая страница нужна, только если выборка упёрлась в лимит и что-то отменилось
		if uint64(len(pending)) < h.batchSize || !progress {
			break
		}
	}

	h.logger.Info("HandleVehicleBrokenDown: vehicle id=%d, cancelled=%d, failed=%d", vehicleID, cancelled, len(failed))
	if len(failed) > 0 {
		return fmt.Errorf("%w: vehicle %d: %d failed", ErrIncomplete, vehicleID, len(failed))
	}
	return nil
}
