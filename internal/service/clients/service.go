package clients

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	clientRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/client"
	"github.com/m04kA/SMC-RentalService/internal/service/clients/models"
)

// Service сервис для работы с клиентами
type Service struct {
	clientRepo   ClientRepository
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса клиентов
func NewService(clientRepo ClientRepository, timeProvider TimeProvider, logger Logger) *Service {
	return &Service{
		clientRepo:   clientRepo,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// Create регистрирует клиента не младше domain.MinClientAge лет
func (s *Service) Create(ctx context.Context, req *models.CreateClientRequest) (*models.ClientResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: empty request", ErrValidation)
	}
	s.logger.Info("Create: client lastName=%s, license=%s", req.LastName, req.LicenseNumber)

	client, err := s.validate(req)
	if err != nil {
		s.logger.Warn("Create: validation failed: %v", err)
		return nil, err
	}

	created, err := s.clientRepo.Create(ctx, client)
	if err != nil {
		switch {
		case errors.Is(err, clientRepo.ErrDuplicateLicense):
			s.logger.Warn("Create: license %s already registered", client.LicenseNumber)
			return nil, fmt.Errorf("%w: license number %s", ErrAlreadyExists, client.LicenseNumber)
		case errors.Is(err, clientRepo.ErrDuplicateIdentity):
			s.logger.Warn("Create: client %s %s born %s already registered",
				client.FirstName, client.LastName, client.DateOfBirth.Format(domain.DateFormat))
			return nil, fmt.Errorf("%w: same name and date of birth", ErrAlreadyExists)
		}
		s.logger.Error("Create: repository error: %v", err)
		return nil, fmt.Errorf("%w: Create - repository error: %w", ErrInternal, err)
	}

	s.logger.Info("Create: client id=%d created", created.ID)
	return models.FromDomainClient(created), nil
}

// Update перезаписывает данные клиента с теми же проверками и ограничениями уникальности, что и Create
func (s *Service) Update(ctx context.Context, id int64, req *models.UpdateClientRequest) (*models.ClientResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: empty request", ErrValidation)
	}
	s.logger.Info("Update: client id=%d, lastName=%s, license=%s", id, req.LastName, req.LicenseNumber)

	client, err := s.validate((*models.CreateClientRequest)(req))
	if err != nil {
		s.logger.Warn("Update: validation failed: %v", err)
		return nil, err
	}
	client.ID = id

	updated, err := s.clientRepo.Update(ctx, client)
	if err != nil {
		switch {
		case errors.Is(err, clientRepo.ErrClientNotFound):
			s.logger.Warn("Update: client id=%d not found", id)
			return nil, ErrNotFound
		case errors.Is(err, clientRepo.ErrDuplicateLicense):
			s.logger.Warn("Update: license %s already registered", client.LicenseNumber)
			return nil, fmt.Errorf("%w: license number %s", ErrAlreadyExists, client.LicenseNumber)
		case errors.Is(err, clientRepo.ErrDuplicateIdentity):
			s.logger.Warn("Update: client %s %s born %s already registered",
				client.FirstName, client.LastName, client.DateOfBirth.Format(domain.DateFormat))
			return nil, fmt.Errorf("%w: same name and date of birth", ErrAlreadyExists)
		}
		s.logger.Error("Update: repository error for client id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: Update - repository error: %w", ErrInternal, err)
	}

	s.logger.Info("Update: client id=%d updated", id)
	return models.FromDomainClient(updated), nil
}

// GetByID получает клиента по ID
func (s *Service) GetByID(ctx context.Context, id int64) (*models.ClientResponse, error) {
	client, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, clientRepo.ErrClientNotFound) {
			s.logger.Warn("GetByID: client id=%d not found", id)
			return nil, ErrNotFound
		}
		s.logger.Error("GetByID: repository error for client id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %w", ErrInternal, err)
	}
	return models.FromDomainClient(client), nil
}

// List получает клиентов, опционально по фамилии
func (s *Service) List(ctx context.Context, req *models.ListClientsRequest) (*models.ClientListResponse, error) {
	filter := domain.ClientsFilter{}
	if req != nil && req.LastName != nil {
		lastName := strings.TrimSpace(*req.LastName)
		if lastName != "" {
			filter.LastName = &lastName
		}
	}

	clients, err := s.clientRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("List: repository error: %v", err)
		return nil, fmt.Errorf("%w: List - repository error: %w", ErrInternal, err)
	}
	return models.FromDomainClientList(clients), nil
}

// Delete удаляет клиента без контрактов
func (s *Service) Delete(ctx context.Context, id int64) error {
	s.logger.Info("Delete: client id=%d", id)

	if err := s.clientRepo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, clientRepo.ErrClientNotFound):
			s.logger.Warn("Delete: client id=%d not found", id)
			return ErrNotFound
		case errors.Is(err, clientRepo.ErrClientInUse):
			s.logger.Warn("Delete: client id=%d has contracts", id)
			return ErrInUse
		}
		s.logger.Error("Delete: repository error for client id=%d: %v", id, err)
		return fmt.Errorf("%w: Delete - repository error: %w", ErrInternal, err)
	}
	return nil
}

func (s *Service) validate(req *models.CreateClientRequest) (*domain.Client, error) {
	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)
	license := strings.TrimSpace(req.LicenseNumber)

	if firstName == "" || lastName == "" {
		return nil, fmt.Errorf("%w: firstName and lastName are required", ErrValidation)
	}
	if len(firstName) > domain.MaxNameLength || len(lastName) > domain.MaxNameLength {
		return nil, fmt.Errorf("%w: names must be at most %d characters", ErrValidation, domain.MaxNameLength)
	}
	if license == "" {
		return nil, fmt.Errorf("%w: licenseNumber is required", ErrValidation)
	}
	if len(license) > domain.MaxLicenseNumberLength {
		return nil, fmt.Errorf("%w: licenseNumber must be at most %d characters", ErrValidation, domain.MaxLicenseNumberLength)
	}
	if req.DateOfBirth == "" {
		return nil, fmt.Errorf("%w: dateOfBirth is required", ErrValidation)
	}

	birth, err := time.Parse(domain.DateFormat, req.DateOfBirth)
	if err != nil {
		return nil, fmt.Errorf("%w: dateOfBirth must be YYYY-MM-DD", ErrValidation)
	}

	client := &domain.Client{
		FirstName:     firstName,
		LastName:      lastName,
		DateOfBirth:   birth,
		LicenseNumber: license,
		Address:       req.Address,
		Email:         req.Email,
		Phone:         req.Phone,
	}

	now := s.timeProvider.Now()
	if birth.After(now) {
		return nil, fmt.Errorf("%w: dateOfBirth must not be in the future", ErrValidation)
	}
	if client.AgeAt(now) < domain.MinClientAge {
		return nil, fmt.Errorf("%w: client must be at least %d years old", ErrValidation, domain.MinClientAge)
	}
	return client, nil
}
