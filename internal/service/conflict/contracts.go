package conflict

import (
	"context"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// VehicleRepository чтение автомобиля (внутри транзакции строка блокируется FOR UPDATE)
type VehicleRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Vehicle, error)
}

// ContractRepository поиск пересекающихся контрактов
type ContractRepository interface {
	// HasOverlapping возвращает true, если у автомобиля есть контракт в нетерминальном статусе,
	// пересекающий [start, end). excludeID исключает контракт из проверки.
	HasOverlapping(ctx context.Context, vehicleID int64, start, end time.Time, excludeID *int64) (bool, error)
}
