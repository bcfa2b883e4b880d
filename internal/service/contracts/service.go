package contracts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	clientRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/client"
	contractRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/contract"
	vehicleRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/vehicle"
	"github.com/m04kA/SMC-RentalService/internal/service/conflict"
	"github.com/m04kA/SMC-RentalService/internal/service/contracts/models"
	"github.com/m04kA/SMC-RentalService/internal/service/transition"
)

// Service жизненный цикл контрактов аренды.
// Единственная точка изменения контрактов: API, планировщик и обработчик поломок
// проходят через Create/Update/ChangeStatus/Delete.
type Service struct {
	contractRepo ContractRepository
	clientRepo   ClientRepository
	vehicleRepo  VehicleRepository
	detector     ConflictDetector
	txManager    TransactionManager
	timeProvider TimeProvider
	metrics      MetricsRecorder
	logger       Logger
}

// NewService создает новый экземпляр сервиса контрактов
func NewService(
	contractRepo ContractRepository,
	clientRepo ClientRepository,
	vehicleRepo VehicleRepository,
	detector ConflictDetector,
	txManager TransactionManager,
	timeProvider TimeProvider,
	metrics MetricsRecorder,
	logger Logger,
) *Service {
	return &Service{
		contractRepo: contractRepo,
		clientRepo:   clientRepo,
		vehicleRepo:  vehicleRepo,
		detector:     detector,
		txManager:    txManager,
		timeProvider: timeProvider,
		metrics:      metrics,
		logger:       logger,
	}
}

// Create создает контракт в статусе PENDING.
// Проверка клиента, автомобиля, конфликтов и вставка выполняются в одной SERIALIZABLE транзакции,
// строка автомобиля блокируется первой, поэтому параллельные создания на один автомобиль выстраиваются в очередь.
func (s *Service) Create(ctx context.Context, req *models.CreateContractRequest) (*models.ContractResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: empty request", ErrValidation)
	}
	s.logger.Info("Create: client=%d, vehicle=%d, period=%s..%s",
		req.ClientID, req.VehicleID, req.StartDate.Format(domain.DateTimeFormat), req.EndDate.Format(domain.DateTimeFormat))

	if err := validateInterval(req.ClientID, req.VehicleID, req.StartDate, req.EndDate, s.timeProvider.Now()); err != nil {
		s.logger.Warn("Create: validation failed: %v", err)
		return nil, err
	}

	var created *domain.Contract
	err := s.txManager.DoSerializable(ctx, func(ctx context.Context) error {
		if err := s.checkReferences(ctx, req.ClientID, req.VehicleID); err != nil {
			return err
		}
		if err := s.checkConflict(ctx, req.VehicleID, req.StartDate, req.EndDate, nil); err != nil {
			return err
		}

		contract, err := s.contractRepo.Create(ctx, &domain.Contract{
			ClientID:  req.ClientID,
			VehicleID: req.VehicleID,
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
			Status:    domain.ContractPending,
		})
		if err != nil {
			if errors.Is(err, contractRepo.ErrReferenceNotFound) {
				return fmt.Errorf("%w: client %d or vehicle %d", ErrNotFound, req.ClientID, req.VehicleID)
			}
			return fmt.Errorf("%w: Create - repository error: %w", ErrInternal, err)
		}
		created = contract
		return nil
	})
	if err != nil {
		return nil, s.fail("Create", err)
	}

	s.logger.Info("Create: contract id=%d created for vehicle=%d", created.ID, created.VehicleID)
	return models.FromDomainContract(created), nil
}

// Update перезаписывает клиента, автомобиль и интервал контракта с полной повторной валидацией.
// Сам контракт исключается из проверки конфликтов. Статус не меняется.
func (s *Service) Update(ctx context.Context, id int64, req *models.UpdateContractRequest) (*models.ContractResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: empty request", ErrValidation)
	}
	s.logger.Info("Update: contract id=%d, client=%d, vehicle=%d, period=%s..%s",
		id, req.ClientID, req.VehicleID, req.StartDate.Format(domain.DateTimeFormat), req.EndDate.Format(domain.DateTimeFormat))

	var updated *domain.Contract
	err := s.txManager.DoSerializable(ctx, func(ctx context.Context) error {
		existing, err := s.getContract(ctx, id)
		if err != nil {
			return err
		}

		if err := validateInterval(req.ClientID, req.VehicleID, req.StartDate, req.EndDate, s.timeProvider.Now()); err != nil {
			return err
		}
		if err := s.checkReferences(ctx, req.ClientID, req.VehicleID); err != nil {
			return err
		}
		if err := s.checkConflict(ctx, req.VehicleID, req.StartDate, req.EndDate, &existing.ID); err != nil {
			return err
		}

		existing.ClientID = req.ClientID
		existing.VehicleID = req.VehicleID
		existing.StartDate = req.StartDate
		existing.EndDate = req.EndDate

		contract, err := s.contractRepo.Update(ctx, existing)
		if err != nil {
			switch {
			case errors.Is(err, contractRepo.ErrContractNotFound):
				return fmt.Errorf("%w: contract %d", ErrNotFound, id)
			case errors.Is(err, contractRepo.ErrReferenceNotFound):
				return fmt.Errorf("%w: client %d or vehicle %d", ErrNotFound, req.ClientID, req.VehicleID)
			}
			return fmt.Errorf("%w: Update - repository error: %w", ErrInternal, err)
		}
		updated = contract
		return nil
	})
	if err != nil {
		return nil, s.fail("Update", err)
	}

	s.logger.Info("Update: contract id=%d updated", id)
	return models.FromDomainContract(updated), nil
}

// ChangeStatus единственный способ изменить статус контракта.
// Строка контракта блокируется, переход проверяется автоматом статусов, затем сохраняется.
// Безопасен для параллельного вызова из API, планировщика и обработчика поломок.
func (s *Service) ChangeStatus(ctx context.Context, id int64, requested domain.ContractStatus) (*models.ContractResponse, error) {
	s.logger.Info("ChangeStatus: contract id=%d -> %s", id, requested)

	if !requested.IsValid() {
		err := fmt.Errorf("%w: unknown status %q", ErrValidation, requested)
		s.logger.Warn("ChangeStatus: %v", err)
		return nil, err
	}

	var (
		changed *domain.Contract
		from    domain.ContractStatus
	)
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		contract, err := s.getContract(ctx, id)
		if err != nil {
			return err
		}

		if err := transition.ValidateTransition(contract.Status, requested); err != nil {
			if errors.Is(err, transition.ErrUnknownStatus) {
				return fmt.Errorf("%w: contract %d: %w", ErrValidation, id, err)
			}
			return fmt.Errorf("%w: contract %d: %w", ErrInvalidTransition, id, err)
		}

		updatedAt, err := s.contractRepo.UpdateStatus(ctx, id, requested)
		if err != nil {
			if errors.Is(err, contractRepo.ErrContractNotFound) {
				return fmt.Errorf("%w: contract %d", ErrNotFound, id)
			}
			return fmt.Errorf("%w: ChangeStatus - repository error: %w", ErrInternal, err)
		}

		from = contract.Status
		contract.Status = requested
		contract.UpdatedAt = updatedAt
		changed = contract
		return nil
	})
	if err != nil {
		return nil, s.fail("ChangeStatus", err)
	}

	if s.metrics != nil {
		s.metrics.ObserveTransition(string(from), string(requested))
	}
	s.logger.Info("ChangeStatus: contract id=%d %s -> %s", id, from, requested)
	return models.FromDomainContract(changed), nil
}

// Approve переводит контракт в ONGOING (начало аренды)
func (s *Service) Approve(ctx context.Context, id int64) (*models.ContractResponse, error) {
	return s.ChangeStatus(ctx, id, domain.ContractOngoing)
}

// Complete переводит контракт в COMPLETED (автомобиль возвращён)
func (s *Service) Complete(ctx context.Context, id int64) (*models.ContractResponse, error) {
	return s.ChangeStatus(ctx, id, domain.ContractCompleted)
}

// MarkOverdue переводит контракт в OVERDUE
func (s *Service) MarkOverdue(ctx context.Context, id int64) (*models.ContractResponse, error) {
	return s.ChangeStatus(ctx, id, domain.ContractOverdue)
}

// Cancel переводит контракт в CANCELLED
func (s *Service) Cancel(ctx context.Context, id int64) (*models.ContractResponse, error) {
	return s.ChangeStatus(ctx, id, domain.ContractCancelled)
}

// Delete физически удаляет контракт. Статус не проверяется.
func (s *Service) Delete(ctx context.Context, id int64) error {
	s.logger.Info("Delete: contract id=%d", id)

	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		if _, err := s.getContract(ctx, id); err != nil {
			return err
		}
		if err := s.contractRepo.Delete(ctx, id); err != nil {
			if errors.Is(err, contractRepo.ErrContractNotFound) {
				return fmt.Errorf("%w: contract %d", ErrNotFound, id)
			}
			return fmt.Errorf("%w: Delete - repository error: %w", ErrInternal, err)
		}
		return nil
	})
	if err != nil {
		return s.fail("Delete", err)
	}

	s.logger.Info("Delete: contract id=%d deleted", id)
	return nil
}

// GetByID получает контракт по ID
func (s *Service) GetByID(ctx context.Context, id int64) (*models.ContractResponse, error) {
	contract, err := s.getContract(ctx, id)
	if err != nil {
		return nil, s.fail("GetByID", err)
	}
	return models.FromDomainContract(contract), nil
}

// List получает контракты с опциональными фильтрами по клиенту, автомобилю и статусу
func (s *Service) List(ctx context.Context, req *models.ListContractsRequest) (*models.ContractListResponse, error) {
	if req == nil {
		req = &models.ListContractsRequest{}
	}

	filter, err := req.ToDomainFilter()
	if err != nil {
		s.logger.Warn("List: invalid filter: %v", err)
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	contracts, err := s.contractRepo.List(ctx, filter)
	if err != nil {
		return nil, s.fail("List", fmt.Errorf("%w: List - repository error: %w", ErrInternal, err))
	}

	return models.FromDomainContractList(contracts), nil
}

func (s *Service) getContract(ctx context.Context, id int64) (*domain.Contract, error) {
	contract, err := s.contractRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, contractRepo.ErrContractNotFound) {
			return nil, fmt.Errorf("%w: contract %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: get contract %d: %w", ErrInternal, id, err)
	}
	return contract, nil
}

// checkReferences проверяет существование клиента и автомобиля.
// Чтение автомобиля внутри транзакции блокирует его строку.
func (s *Service) checkReferences(ctx context.Context, clientID, vehicleID int64) error {
	if _, err := s.clientRepo.GetByID(ctx, clientID); err != nil {
		if errors.Is(err, clientRepo.ErrClientNotFound) {
			return fmt.Errorf("%w: client %d", ErrNotFound, clientID)
		}
		return fmt.Errorf("%w: get client %d: %w", ErrInternal, clientID, err)
	}

	if _, err := s.vehicleRepo.GetByID(ctx, vehicleID); err != nil {
		if errors.Is(err, vehicleRepo.ErrVehicleNotFound) {
			return fmt.Errorf("%w: vehicle %d", ErrNotFound, vehicleID)
		}
		return fmt.Errorf("%w: get vehicle %d: %w", ErrInternal, vehicleID, err)
	}

	return nil
}

func (s *Service) checkConflict(ctx context.Context, vehicleID int64, start, end time.Time, excludeID *int64) error {
	busy, err := s.detector.HasConflict(ctx, vehicleID, start, end, excludeID)
	if err != nil {
		switch {
		case errors.Is(err, conflict.ErrVehicleNotFound):
			return fmt.Errorf("%w: vehicle %d", ErrNotFound, vehicleID)
		case errors.Is(err, conflict.ErrInvalidInterval):
			return fmt.Errorf("%w: %w", ErrValidation, err)
		}
		return fmt.Errorf("%w: conflict check: %w", ErrInternal, err)
	}
	if busy {
		return fmt.Errorf("%w: vehicle %d is broken down or reserved between %s and %s",
			ErrConflict, vehicleID, start.Format(domain.DateTimeFormat), end.Format(domain.DateTimeFormat))
	}
	return nil
}

// fail логирует ошибку операции и гарантирует, что наружу уходит одна из ошибок пакета
func (s *Service) fail(op string, err error) error {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound),
		errors.Is(err, ErrConflict), errors.Is(err, ErrInvalidTransition):
		s.logger.Warn("%s: %v", op, err)
		return err
	case errors.Is(err, ErrInternal):
		s.logger.Error("%s: %v", op, err)
		return err
	default:
		s.logger.Error("%s: %v", op, err)
		return fmt.Errorf("%w: %s: %w", ErrInternal, op, err)
	}
}
