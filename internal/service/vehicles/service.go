package vehicles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	vehicleRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/vehicle"
	"github.com/m04kA/SMC-RentalService/internal/service/vehicles/models"
)

// Service сервис для работы с автопарком
type Service struct {
	vehicleRepo  VehicleRepository
	outboxRepo   OutboxRepository
	txManager    TransactionManager
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса автомобилей
func NewService(
	vehicleRepo VehicleRepository,
	outboxRepo OutboxRepository,
	txManager TransactionManager,
	timeProvider TimeProvider,
	logger Logger,
) *Service {
	return &Service{
		vehicleRepo:  vehicleRepo,
		outboxRepo:   outboxRepo,
		txManager:    txManager,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// Create добавляет автомобиль в парк в статусе available
func (s *Service) Create(ctx context.Context, req *models.CreateVehicleRequest) (*models.VehicleResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: empty request", ErrValidation)
	}
	s.logger.Info("Create: vehicle plate=%s, brand=%s, model=%s", req.RegistrationPlate, req.Brand, req.Model)

	vehicle, err := s.validate(req)
	if err != nil {
		s.logger.Warn("Create: validation failed: %v", err)
		return nil, err
	}

	created, err := s.vehicleRepo.Create(ctx, vehicle)
	if err != nil {
		if errors.Is(err, vehicleRepo.ErrDuplicatePlate) {
			s.logger.Warn("Create: plate %s already exists", vehicle.RegistrationPlate)
			return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, vehicle.RegistrationPlate)
		}
		s.logger.Error("Create: repository error: %v", err)
		return nil, fmt.Errorf("%w: Create - repository error: %w", ErrInternal, err)
	}

	s.logger.Info("Create: vehicle id=%d created", created.ID)
	return models.FromDomainVehicle(created), nil
}

// Update меняет описание автомобиля с теми же проверками, что и Create. Статус сохраняется.
func (s *Service) Update(ctx context.Context, id int64, req *models.UpdateVehicleRequest) (*models.VehicleResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: empty request", ErrValidation)
	}
	s.logger.Info("Update: vehicle id=%d, plate=%s", id, req.RegistrationPlate)

	vehicle, err := s.validate((*models.CreateVehicleRequest)(req))
	if err != nil {
		s.logger.Warn("Update: validation failed: %v", err)
		return nil, err
	}
	vehicle.ID = id

	updated, err := s.vehicleRepo.Update(ctx, vehicle)
	if err != nil {
		switch {
		case errors.Is(err, vehicleRepo.ErrVehicleNotFound):
			s.logger.Warn("Update: vehicle id=%d not found", id)
			return nil, ErrNotFound
		case errors.Is(err, vehicleRepo.ErrDuplicatePlate):
			s.logger.Warn("Update: plate %s already exists", vehicle.RegistrationPlate)
			return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, vehicle.RegistrationPlate)
		}
		s.logger.Error("Update: repository error for vehicle id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: Update - repository error: %w", ErrInternal, err)
	}

	s.logger.Info("Update: vehicle id=%d updated", id)
	return models.FromDomainVehicle(updated), nil
}

// GetByID получает автомобиль по ID
func (s *Service) GetByID(ctx context.Context, id int64) (*models.VehicleResponse, error) {
	vehicle, err := s.vehicleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, vehicleRepo.ErrVehicleNotFound) {
			s.logger.Warn("GetByID: vehicle id=%d not found", id)
			return nil, ErrNotFound
		}
		s.logger.Error("GetByID: repository error for vehicle id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %w", ErrInternal, err)
	}
	return models.FromDomainVehicle(vehicle), nil
}

// List получает автомобили с фильтрами по статусу и марке
func (s *Service) List(ctx context.Context, req *models.ListVehiclesRequest) (*models.VehicleListResponse, error) {
	filter := domain.VehiclesFilter{}
	if req != nil {
		if req.Status != nil {
			status, err := models.ToDomainVehicleStatus(*req.Status)
			if err != nil {
				s.logger.Warn("List: invalid status=%s", *req.Status)
				return nil, fmt.Errorf("%w: %w", ErrValidation, err)
			}
			filter.Status = &status
		}
		filter.Brand = req.Brand
	}

	vehicles, err := s.vehicleRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("List: repository error: %v", err)
		return nil, fmt.Errorf("%w: List - repository error: %w", ErrInternal, err)
	}
	return models.FromDomainVehicleList(vehicles), nil
}

// ListAvailable получает исправные автомобили без контрактов, пересекающих [start, end)
func (s *Service) ListAvailable(ctx context.Context, req *models.AvailableVehiclesRequest) (*models.VehicleListResponse, error) {
	if req == nil || req.Start.IsZero() || req.End.IsZero() {
		return nil, fmt.Errorf("%w: start and end are required", ErrValidation)
	}
	if !req.Start.Before(req.End) {
		return nil, fmt.Errorf("%w: end must be after start", ErrValidation)
	}
	s.logger.Info("ListAvailable: period=%s..%s", req.Start.Format(domain.DateTimeFormat), req.End.Format(domain.DateTimeFormat))

	vehicles, err := s.vehicleRepo.ListAvailable(ctx, req.Start, req.End)
	if err != nil {
		s.logger.Error("ListAvailable: repository error: %v", err)
		return nil, fmt.Errorf("%w: ListAvailable - repository error: %w", ErrInternal, err)
	}

	s.logger.Info("ListAvailable: %d vehicles available", len(vehicles))
	return models.FromDomainVehicleList(vehicles), nil
}

// MarkBrokenDown переводит автомобиль в broken_down и в той же транзакции пишет событие
// vehicle.broken_down в outbox. Обработчик события отменит PENDING контракты автомобиля.
// Повторный вызов для уже сломанного автомобиля ничего не меняет.
func (s *Service) MarkBrokenDown(ctx context.Context, id int64) (*models.VehicleResponse, error) {
	s.logger.Info("MarkBrokenDown: vehicle id=%d", id)

	var result *domain.Vehicle
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		vehicle, err := s.lockVehicle(ctx, id)
		if err != nil {
			return err
		}
		if vehicle.IsBrokenDown() {
			result = vehicle
			return nil
		}

		if err := s.vehicleRepo.UpdateStatus(ctx, id, domain.VehicleBrokenDown); err != nil {
			return fmt.Errorf("%w: MarkBrokenDown - update status: %w", ErrInternal, err)
		}

		now := s.timeProvider.Now()
		payload, err := json.Marshal(domain.VehicleEventPayload{VehicleID: id, OccurredAt: now})
		if err != nil {
			return fmt.Errorf("%w: MarkBrokenDown - marshal payload: %w", ErrInternal, err)
		}
		if err := s.outboxRepo.Enqueue(ctx, &domain.Event{
			Type:        domain.EventVehicleBrokenDown,
			AggregateID: id,
			Payload:     payload,
		}); err != nil {
			return fmt.Errorf("%w: MarkBrokenDown - enqueue event: %w", ErrInternal, err)
		}

		vehicle.Status = domain.VehicleBrokenDown
		result = vehicle
		return nil
	})
	if err != nil {
		return nil, s.fail("MarkBrokenDown", err)
	}

	s.logger.Info("MarkBrokenDown: vehicle id=%d is broken down", id)
	return models.FromDomainVehicle(result), nil
}

// MarkRepaired возвращает автомобиль в статус available (после ремонта или возврата)
func (s *Service) MarkRepaired(ctx context.Context, id int64) (*models.VehicleResponse, error) {
	return s.setStatus(ctx, "MarkRepaired", id, domain.VehicleAvailable)
}

// MarkRented помечает автомобиль выданным клиенту. Сломанный автомобиль выдать нельзя.
func (s *Service) MarkRented(ctx context.Context, id int64) (*models.VehicleResponse, error) {
	return s.setStatus(ctx, "MarkRented", id, domain.VehicleRented)
}

// Delete удаляет автомобиль без контрактов
func (s *Service) Delete(ctx context.Context, id int64) error {
	s.logger.Info("Delete: vehicle id=%d", id)

	if err := s.vehicleRepo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, vehicleRepo.ErrVehicleNotFound):
			s.logger.Warn("Delete: vehicle id=%d not found", id)
			return ErrNotFound
		case errors.Is(err, vehicleRepo.ErrVehicleInUse):
			s.logger.Warn("Delete: vehicle id=%d has contracts", id)
			return ErrInUse
		}
		s.logger.Error("Delete: repository error for vehicle id=%d: %v", id, err)
		return fmt.Errorf("%w: Delete - repository error: %w", ErrInternal, err)
	}
	return nil
}

func (s *Service) setStatus(ctx context.Context, op string, id int64, status domain.VehicleStatus) (*models.VehicleResponse, error) {
	s.logger.Info("%s: vehicle id=%d -> %s", op, id, status)

	var result *domain.Vehicle
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		vehicle, err := s.lockVehicle(ctx, id)
		if err != nil {
			return err
		}
		if status == domain.VehicleRented && vehicle.IsBrokenDown() {
			return fmt.Errorf("%w: vehicle %d", ErrUnavailable, id)
		}
		if vehicle.Status != status {
			if err := s.vehicleRepo.UpdateStatus(ctx, id, status); err != nil {
				return fmt.Errorf("%w: %s - update status: %w", ErrInternal, op, err)
			}
			vehicle.Status = status
		}
		result = vehicle
		return nil
	})
	if err != nil {
		return nil, s.fail(op, err)
	}
	return models.FromDomainVehicle(result), nil
}

func (s *Service) lockVehicle(ctx context.Context, id int64) (*domain.Vehicle, error) {
	vehicle, err := s.vehicleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, vehicleRepo.ErrVehicleNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: get vehicle %d: %w", ErrInternal, id, err)
	}
	return vehicle, nil
}

func (s *Service) fail(op string, err error) error {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnavailable) {
		s.logger.Warn("%s: %v", op, err)
		return err
	}
	s.logger.Error("%s: %v", op, err)
	if errors.Is(err, ErrInternal) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrInternal, op, err)
}

func (s *Service) validate(req *models.CreateVehicleRequest) (*domain.Vehicle, error) {
	plate := strings.TrimSpace(req.RegistrationPlate)
	brand := strings.TrimSpace(req.Brand)
	model := strings.TrimSpace(req.Model)

	if plate == "" {
		return nil, fmt.Errorf("%w: registrationPlate is required", ErrValidation)
	}
	if len(plate) > domain.MaxPlateLength {
		return nil, fmt.Errorf("%w: registrationPlate must be at most %d characters", ErrValidation, domain.MaxPlateLength)
	}
	if brand == "" {
		return nil, fmt.Errorf("%w: brand is required", ErrValidation)
	}
	if model == "" {
		return nil, fmt.Errorf("%w: model is required", ErrValidation)
	}
	if req.AcquisitionDate == "" {
		return nil, fmt.Errorf("%w: acquisitionDate is required", ErrValidation)
	}

	acquired, err := time.Parse(domain.DateFormat, req.AcquisitionDate)
	if err != nil {
		return nil, fmt.Errorf("%w: acquisitionDate must be YYYY-MM-DD", ErrValidation)
	}
	if acquired.After(s.timeProvider.Now()) {
		return nil, fmt.Errorf("%w: acquisitionDate must not be in the future", ErrValidation)
	}

	return &domain.Vehicle{
		RegistrationPlate: plate,
		Brand:             brand,
		Model:             model,
		Motorization:      req.Motorization,
		Color:             req.Color,
		AcquisitionDate:   acquired,
		Status:            domain.VehicleAvailable,
	}, nil
}
