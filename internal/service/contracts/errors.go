package contracts

import "errors"

var (
	// ErrValidation возвращается при некорректных входных данных (пустые поля, end <= start, start в прошлом)
	ErrValidation = errors.New("contracts: validation failed")

	// ErrNotFound возвращается, если контракт, клиент или автомобиль не существует
	ErrNotFound = errors.New("contracts: not found")

	// ErrConflict возвращается, если автомобиль занят на интервале или сломан
	ErrConflict = errors.New("contracts: vehicle is not available for the requested interval")

	// ErrInvalidTransition возвращается, если смена статуса недопустима
	ErrInvalidTransition = errors.New("contracts: invalid status transition")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("contracts: internal error")
)
