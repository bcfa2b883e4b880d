package conflict

import "errors"

var (
	// ErrInvalidInterval возвращается, если start не раньше end
	ErrInvalidInterval = errors.New("conflict: start must be before end")

	// ErrVehicleNotFound возвращается, если автомобиль не найден
	ErrVehicleNotFound = errors.New("conflict: vehicle not found")

	// ErrInternal возвращается при ошибках хранилища
	ErrInternal = errors.New("conflict: internal error")
)
