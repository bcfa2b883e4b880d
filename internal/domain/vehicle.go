package domain

import "time"

// VehicleStatus represents the availability of a vehicle
type VehicleStatus string

const (
	VehicleAvailable  VehicleStatus = "available"
	VehicleRented     VehicleStatus = "rented"
	VehicleBrokenDown VehicleStatus = "broken_down"
)

// IsValid reports whether s is a known vehicle status
func (s VehicleStatus) IsValid() bool {
	switch s {
	case VehicleAvailable, VehicleRented, VehicleBrokenDown:
		return true
	}
	return false
}

// Vehicle represents a rentable vehicle of the fleet
type Vehicle struct {
	ID                int64
	RegistrationPlate string
	Brand             string
	Model             string
	Motorization      *string
	Color             *string
	AcquisitionDate   time.Time
	Status            VehicleStatus

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsBrokenDown returns true if the vehicle cannot be reserved at all
func (v *Vehicle) IsBrokenDown() bool {
	return v.Status == VehicleBrokenDown
}

// VehiclesFilter фильтр для списка автомобилей
type VehiclesFilter struct {
	Status *VehicleStatus
	Brand  *string
}
