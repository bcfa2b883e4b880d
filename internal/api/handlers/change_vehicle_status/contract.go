package change_vehicle_status

import (
	"context"

	"github.com/m04kA/SMC-RentalService/internal/service/vehicles/models"
)

type VehicleService interface {
	MarkBrokenDown(ctx context.Context, id int64) (*models.VehicleResponse, error)
	MarkRepaired(ctx context.Context, id int64) (*models.VehicleResponse, error)
	MarkRented(ctx context.Context, id int64) (*models.VehicleResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
