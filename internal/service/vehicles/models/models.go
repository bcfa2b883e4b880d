package models

import (
	"errors"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid vehicle status")
)

// CreateVehicleRequest запрос на добавление автомобиля в парк
type CreateVehicleRequest struct {
	RegistrationPlate string  `json:"registrationPlate"`
	Brand             string  `json:"brand"`
	Model             string  `json:"model"`
	Motorization      *string `json:"motorization,omitempty"`
	Color             *string `json:"color,omitempty"`
	AcquisitionDate   string  `json:"acquisitionDate"` // "2024-03-15"
}

// UpdateVehicleRequest запрос на изменение описания автомобиля; статус не меняется
type UpdateVehicleRequest CreateVehicleRequest

// ListVehiclesRequest фильтр списка автомобилей
type ListVehiclesRequest struct {
	Status *string `json:"status,omitempty"`
	Brand  *string `json:"brand,omitempty"`
}

// AvailableVehiclesRequest запрос свободных автомобилей на интервал [Start, End)
type AvailableVehiclesRequest struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// VehicleResponse ответ с данными автомобиля
type VehicleResponse struct {
	ID                int64     `json:"id"`
	RegistrationPlate string    `json:"registrationPlate"`
	Brand             string    `json:"brand"`
	Model             string    `json:"model"`
	Motorization      *string   `json:"motorization,omitempty"`
	Color             *string   `json:"color,omitempty"`
	AcquisitionDate   string    `json:"acquisitionDate"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// VehicleListResponse список автомобилей
type VehicleListResponse struct {
	Vehicles []*VehicleResponse `json:"vehicles"`
	Total    int                `json:"total"`
}

// FromDomainVehicle конвертирует domain.Vehicle в VehicleResponse
func FromDomainVehicle(v *domain.Vehicle) *VehicleResponse {
	if v == nil {
		return nil
	}
	return &VehicleResponse{
		ID:                v.ID,
		RegistrationPlate: v.RegistrationPlate,
		Brand:             v.Brand,
		Model:             v.Model,
		Motorization:      v.Motorization,
		Color:             v.Color,
		AcquisitionDate:   v.AcquisitionDate.Format(domain.DateFormat),
		Status:            string(v.Status),
		CreatedAt:         v.CreatedAt,
		UpdatedAt:         v.UpdatedAt,
	}
}

// FromDomainVehicleList конвертирует список автомобилей
func FromDomainVehicleList(vehicles []*domain.Vehicle) *VehicleListResponse {
	resp := &VehicleListResponse{
		Vehicles: make([]*VehicleResponse, 0, len(vehicles)),
		Total:    len(vehicles),
	}
	for _, v := range vehicles {
		resp.Vehicles = append(resp.Vehicles, FromDomainVehicle(v))
	}
	return resp
}

// ToDomainVehicleStatus конвертирует строку в domain.VehicleStatus
func ToDomainVehicleStatus(status string) (domain.VehicleStatus, error) {
	s := domain.VehicleStatus(status)
	if !s.IsValid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}
