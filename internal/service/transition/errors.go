package transition

import "errors"

var (
	// ErrInvalidTransition возвращается, когда переход из текущего статуса в запрошенный запрещён
	ErrInvalidTransition = errors.New("transition: invalid status transition")

	// ErrUnknownStatus возвращается для статуса вне множества ContractStatus
	ErrUnknownStatus = errors.New("transition: unknown contract status")
)
