package cascade

import "errors"

var (
	// ErrInvalidPayload возвращается, если событие не удалось разобрать
	ErrInvalidPayload = errors.New("cascade: invalid event payload")

	// ErrIncomplete возвращается, если часть контрактов не удалось отменить (событие будет повторено)
	ErrIncomplete = errors.New("cascade: some contracts were not cancelled")

	// ErrListContracts возвращается при ошибке выборки контрактов
	ErrListContracts = errors.New("cascade: failed to list contracts")
)
