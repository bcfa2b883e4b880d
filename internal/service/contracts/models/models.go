package models

import (
	"errors"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid contract status")
)

// Request модели

// CreateContractRequest запрос на создание контракта
type CreateContractRequest struct {
	ClientID  int64     `json:"clientId"`
	VehicleID int64     `json:"vehicleId"`
	StartDate time.Time `json:"startDate"` // RFC3339
	EndDate   time.Time `json:"endDate"`
}

// UpdateContractRequest запрос на изменение клиента, автомобиля и интервала контракта
type UpdateContractRequest struct {
	ClientID  int64     `json:"clientId"`
	VehicleID int64     `json:"vehicleId"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

// ListContractsRequest фильтр списка контрактов
type ListContractsRequest struct {
	ClientID  *int64  `json:"clientId,omitempty"`
	VehicleID *int64  `json:"vehicleId,omitempty"`
	Status    *string `json:"status,omitempty"`
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *ListContractsRequest) ToDomainFilter() (domain.ContractsFilter, error) {
	filter := domain.ContractsFilter{
		ClientID:  r.ClientID,
		VehicleID: r.VehicleID,
	}
	if r.Status != nil {
		status, err := ToDomainContractStatus(*r.Status)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}
	return filter, nil
}

// Response модели

// ContractResponse ответ с данными контракта
type ContractResponse struct {
	ID        int64     `json:"id"`
	ClientID  int64     `json:"clientId"`
	VehicleID int64     `json:"vehicleId"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ContractListResponse список контрактов
type ContractListResponse struct {
	Contracts []*ContractResponse `json:"contracts"`
	Total     int                 `json:"total"`
}

// FromDomainContract конвертирует domain.Contract в ContractResponse
func FromDomainContract(c *domain.Contract) *ContractResponse {
	if c == nil {
		return nil
	}
	return &ContractResponse{
		ID:        c.ID,
		ClientID:  c.ClientID,
		VehicleID: c.VehicleID,
		StartDate: c.StartDate,
		EndDate:   c.EndDate,
		Status:    string(c.Status),
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// FromDomainContractList конвертирует список контрактов
func FromDomainContractList(contracts []*domain.Contract) *ContractListResponse {
	resp := &ContractListResponse{
		Contracts: make([]*ContractResponse, 0, len(contracts)),
		Total:     len(contracts),
	}
	for _, c := range contracts {
		resp.Contracts = append(resp.Contracts, FromDomainContract(c))
	}
	return resp
}

// ToDomainContractStatus конвертирует строку в domain.ContractStatus (регистр важен: PENDING, ONGOING, ...)
func ToDomainContractStatus(status string) (domain.ContractStatus, error) {
	s := domain.ContractStatus(status)
	if !s.IsValid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}
