package domain

import "time"

// ContractStatus represents the lifecycle status of a rental contract
type ContractStatus string

const (
	ContractPending   ContractStatus = "PENDING"
	ContractOngoing   ContractStatus = "ONGOING"
	ContractCompleted ContractStatus = "COMPLETED"
	ContractOverdue   ContractStatus = "OVERDUE"
	ContractCancelled ContractStatus = "CANCELLED"
)

// IsValid reports whether s is one of the five known statuses
func (s ContractStatus) IsValid() bool {
	switch s {
	case ContractPending, ContractOngoing, ContractCompleted, ContractOverdue, ContractCancelled:
		return true
	}
	return false
}

// IsTerminal returns true for statuses with no outgoing transitions
func (s ContractStatus) IsTerminal() bool {
	return s == ContractCompleted || s == ContractCancelled
}

// Contract represents a time-bounded claim of a vehicle by a client.
// The interval is half-open: [StartDate, EndDate).
type Contract struct {
	ID        int64
	ClientID  int64
	VehicleID int64
	StartDate time.Time
	EndDate   time.Time
	Status    ContractStatus

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Overlaps reports whether the contract interval intersects [start, end)
func (c *Contract) Overlaps(start, end time.Time) bool {
	return c.StartDate.Before(end) && start.Before(c.EndDate)
}

// HoldsVehicle returns true if the contract counts toward vehicle exclusivity
func (c *Contract) HoldsVehicle() bool {
	return !c.Status.IsTerminal()
}

// ContractsFilter фильтр для списка контрактов (все поля опциональны)
type ContractsFilter struct {
	ClientID  *int64
	VehicleID *int64
	Status    *ContractStatus
	Limit     uint64 // 0 = без ограничения
}
