package conflict

import (
	"context"
	"errors"
	"fmt"
	"time"

	vehicleRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/vehicle"
)

// Detector проверяет, может ли автомобиль быть занят на интервале
type Detector struct {
	vehicleRepo  VehicleRepository
	contractRepo ContractRepository
}

// NewDetector создает детектор конфликтов
func NewDetector(vehicleRepo VehicleRepository, contractRepo ContractRepository) *Detector {
	return &Detector{
		vehicleRepo:  vehicleRepo,
		contractRepo: contractRepo,
	}
}

// HasConflict сообщает, занят ли автомобиль на полуоткрытом интервале [start, end).
// Сломанный автомобиль конфликтует с любым интервалом.
// Контракты COMPLETED и CANCELLED не учитываются, excludeContractID пропускается (проверка при обновлении).
// Существование автомобиля проверяет вызывающий код; если его нет, возвращается ErrVehicleNotFound.
func (d *Detector) HasConflict(ctx context.Context, vehicleID int64, start, end time.Time, excludeContractID *int64) (bool, error) {
	if !start.Before(end) {
		return false, ErrInvalidInterval
	}

	vehicle, err := d.vehicleRepo.GetByID(ctx, vehicleID)
	if err != nil {
		if errors.Is(err, vehicleRepo.ErrVehicleNotFound) {
			return false, ErrVehicleNotFound
		}
		return false, fmt.Errorf("%w: HasConflict - get vehicle %d: %w", ErrInternal, vehicleID, err)
	}

	if vehicle.IsBrokenDown() {
		return true, nil
	}

	overlapping, err := d.contractRepo.HasOverlapping(ctx, vehicleID, start, end, excludeContractID)
	if err != nil {
		return false, fmt.Errorf("%w: HasConflict - overlapping contracts for vehicle %d: %w", ErrInternal, vehicleID, err)
	}

	return overlapping, nil
}
