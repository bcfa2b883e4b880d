package models

import (
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// CreateClientRequest запрос на регистрацию клиента
type CreateClientRequest struct {
	FirstName     string  `json:"firstName"`
	LastName      string  `json:"lastName"`
	DateOfBirth   string  `json:"dateOfBirth"` // "1990-05-20"
	LicenseNumber string  `json:"licenseNumber"`
	Address       *string `json:"address,omitempty"`
	Email         *string `json:"email,omitempty"`
	Phone         *string `json:"phone,omitempty"`
}

// UpdateClientRequest запрос на изменение данных клиента
type UpdateClientRequest CreateClientRequest

// ListClientsRequest фильтр списка клиентов
type ListClientsRequest struct {
	LastName *string `json:"lastName,omitempty"`
}

// ClientResponse ответ с данными клиента
type ClientResponse struct {
	ID            int64     `json:"id"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	DateOfBirth   string    `json:"dateOfBirth"`
	LicenseNumber string    `json:"licenseNumber"`
	Address       *string   `json:"address,omitempty"`
	Email         *string   `json:"email,omitempty"`
	Phone         *string   `json:"phone,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ClientListResponse список клиентов
type ClientListResponse struct {
	Clients []*ClientResponse `json:"clients"`
	Total   int               `json:"total"`
}

// FromDomainClient конвертирует domain.Client в ClientResponse
func FromDomainClient(c *domain.Client) *ClientResponse {
	if c == nil {
		return nil
	}
	return &ClientResponse{
		ID:            c.ID,
		FirstName:     c.FirstName,
		LastName:      c.LastName,
		DateOfBirth:   c.DateOfBirth.Format(domain.DateFormat),
		LicenseNumber: c.LicenseNumber,
		Address:       c.Address,
		Email:         c.Email,
		Phone:         c.Phone,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// FromDomainClientList конвертирует список клиентов
func FromDomainClientList(clients []*domain.Client) *ClientListResponse {
	resp := &ClientListResponse{
		Clients: make([]*ClientResponse, 0, len(clients)),
		Total:   len(clients),
	}
	for _, c := range clients {
		resp.Clients = append(resp.Clients, FromDomainClient(c))
	}
	return resp
}
