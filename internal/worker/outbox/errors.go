package outbox

import "errors"

var (
	// ErrFetch возвращается, если не удалось выбрать события
	ErrFetch = errors.New("outbox: failed to fetch events")

	// ErrMark возвращается, если не удалось отметить событие
	ErrMark = errors.New("outbox: failed to mark event")

	// ErrHandlerExists возвращается при повторной регистрации обработчика
	ErrHandlerExists = errors.New("outbox: handler already registered")
)
