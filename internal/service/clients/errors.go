package clients

import "errors"

var (
	// ErrValidation возвращается при некорректных входных данных
	ErrValidation = errors.New("clients: validation failed")

	// ErrNotFound возвращается, когда клиент не найден
	ErrNotFound = errors.New("clients: client not found")

	// ErrAlreadyExists возвращается при повторном удостоверении или совпадении имени и даты рождения
	ErrAlreadyExists = errors.New("clients: client already exists")

	// ErrInUse возвращается при удалении клиента с контрактами
	ErrInUse = errors.New("clients: client has contracts")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("clients: internal error")
)
