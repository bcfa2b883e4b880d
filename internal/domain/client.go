package domain

import "time"

// Client represents a person renting vehicles
type Client struct {
	ID            int64
	FirstName     string
	LastName      string
	DateOfBirth   time.Time
	LicenseNumber string
	Address       *string
	Email         *string
	Phone         *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AgeAt возвращает полное число лет клиента на момент now
func (c *Client) AgeAt(now time.Time) int {
	years := now.Year() - c.DateOfBirth.Year()
	if now.Month() < c.DateOfBirth.Month() ||
		(now.Month() == c.DateOfBirth.Month() && now.Day() < c.DateOfBirth.Day()) {
		years--
	}
	return years
}

// ClientsFilter фильтр для списка клиентов
type ClientsFilter struct {
	LastName *string
}
