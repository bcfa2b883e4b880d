package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType тип события в outbox
type EventType string

const (
	// EventVehicleBrokenDown автомобиль стал недоступен, aggregate = vehicle id
	EventVehicleBrokenDown EventType = "vehicle.broken_down"
	// EventContractOverdue контракт переведён в OVERDUE планировщиком, aggregate = contract id
	EventContractOverdue EventType = "contract.overdue"
	// EventContractCancelled контракт отменён планировщиком, aggregate = contract id
	EventContractCancelled EventType = "contract.cancelled"
)

// Event запись outbox. Доставка at-least-once, обработчики обязаны быть идемпотентными.
type Event struct {
	ID          uuid.UUID
	Type        EventType
	AggregateID int64
	Payload     []byte // JSON
	Attempts    int
	LastError   *string
	CreatedAt   time.Time
	AvailableAt time.Time
	ProcessedAt *time.Time
}

// ContractEventPayload полезная нагрузка событий contract.*
type ContractEventPayload struct {
	ContractID int64          `json:"contractId"`
	VehicleID  int64          `json:"vehicleId"`
	ClientID   int64          `json:"clientId"`
	From       ContractStatus `json:"from"`
	To         ContractStatus `json:"to"`
	EndDate    time.Time      `json:"endDate"`
	RunID      string         `json:"runId,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
}

// VehicleEventPayload полезная нагрузка события vehicle.broken_down
type VehicleEventPayload struct {
	VehicleID  int64     `json:"vehicleId"`
	OccurredAt time.Time `json:"occurredAt"`
}
