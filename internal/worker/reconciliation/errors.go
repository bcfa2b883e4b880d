package reconciliation

import "errors"

var (
	// ErrPassFailed возвращается, если проход не смог получить кандидатов
	ErrPassFailed = errors.New("reconciliation: pass failed")

	// ErrInvalidSchedule возвращается при некорректном cron-выражении
	ErrInvalidSchedule = errors.New("reconciliation: invalid schedule")

	// ErrUnexpectedResult возвращается, если singleflight вернул значение неожиданного типа
	ErrUnexpectedResult = errors.New("reconciliation: unexpected run result")
)
