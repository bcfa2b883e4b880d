package vehicles

import "errors"

var (
	// ErrValidation возвращается при некорректных входных данных
	ErrValidation = errors.New("vehicles: validation failed")

	// ErrNotFound возвращается, когда автомобиль не найден
	ErrNotFound = errors.New("vehicles: vehicle not found")

	// ErrAlreadyExists возвращается при повторном номерном знаке
	ErrAlreadyExists = errors.New("vehicles: registration plate already exists")

	// ErrUnavailable возвращается при попытке выдать сломанный автомобиль
	ErrUnavailable = errors.New("vehicles: vehicle is broken down")

	// ErrInUse возвращается при удалении автомобиля с контрактами
	ErrInUse = errors.New("vehicles: vehicle has contracts")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("vehicles: internal error")
)
