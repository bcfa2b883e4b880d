package vehicle

import "errors"

var (
	// ErrVehicleNotFound возвращается, когда автомобиль не найден
	ErrVehicleNotFound = errors.New("vehicle.repository: vehicle not found")

	// ErrDuplicatePlate возвращается при повторном номерном знаке
	ErrDuplicatePlate = errors.New("vehicle.repository: registration plate already exists")

	// ErrVehicleInUse возвращается при удалении автомобиля, на который ссылаются контракты
	ErrVehicleInUse = errors.New("vehicle.repository: vehicle is referenced by contracts")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("vehicle.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("vehicle.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("vehicle.repository: failed to scan row")
)
