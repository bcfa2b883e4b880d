package contracts

import (
	"fmt"
	"time"
)

// validateInterval базовые проверки полей контракта: ссылки заданы, start < end, start не в прошлом
func validateInterval(clientID, vehicleID int64, start, end, now time.Time) error {
	if clientID <= 0 {
		return fmt.Errorf("%w: clientId is required", ErrValidation)
	}
	if vehicleID <= 0 {
		return fmt.Errorf("%w: vehicleId is required", ErrValidation)
	}
	if start.IsZero() {
		return fmt.Errorf("%w: startDate is required", ErrValidation)
	}
	if end.IsZero() {
		return fmt.Errorf("%w: endDate is required", ErrValidation)
	}
	if !start.Before(end) {
		return fmt.Errorf("%w: endDate must be after startDate", ErrValidation)
	}
	if start.Before(now) {
		return fmt.Errorf("%w: startDate must not be in the past", ErrValidation)
	}
	return nil
}
