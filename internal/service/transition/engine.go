package transition

import (
	"context"
	"errors"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// events граф переходов контракта. Событие называется по целевому статусу,
// Src перечисляет статусы, из которых в него можно попасть.
// COMPLETED и CANCELLED не являются источником ни одного события.
var events = fsm.Events{
	{Name: string(domain.ContractOngoing), Src: []string{string(domain.ContractPending)}, Dst: string(domain.ContractOngoing)},
	{Name: string(domain.ContractCompleted), Src: []string{string(domain.ContractOngoing)}, Dst: string(domain.ContractCompleted)},
	{Name: string(domain.ContractOverdue), Src: []string{string(domain.ContractOngoing)}, Dst: string(domain.ContractOverdue)},
	{
		Name: string(domain.ContractCancelled),
		Src:  []string{string(domain.ContractPending), string(domain.ContractOverdue)},
		Dst:  string(domain.ContractCancelled),
	},
}

// newMachine строит автомат в состоянии current. Автомат одноразовый и нигде не хранится.
func newMachine(current domain.ContractStatus) *fsm.FSM {
	return fsm.NewFSM(string(current), events, fsm.Callbacks{})
}

// ValidateTransition проверяет, что контракт можно перевести из current в requested.
// Чистая функция: результат зависит только от пары статусов.
func ValidateTransition(current, requested domain.ContractStatus) error {
	if !current.IsValid() {
		return fmt.Errorf("%w: current %q", ErrUnknownStatus, current)
	}
	if !requested.IsValid() {
		return fmt.Errorf("%w: requested %q", ErrUnknownStatus, requested)
	}
	if current == requested {
		return fmt.Errorf("%w: contract already has status %s", ErrInvalidTransition, current)
	}
	if current.IsTerminal() {
		return fmt.Errorf("%w: status %s is terminal", ErrInvalidTransition, current)
	}

	machine := newMachine(current)
	if err := machine.Event(context.Background(), string(requested)); err != nil {
		var invalid fsm.InvalidEventError
		if errors.As(err, &invalid) {
			return fmt.Errorf("%w: %s -> %s is not allowed", ErrInvalidTransition, current, requested)
		}
		return fmt.Errorf("%w: %s -> %s: %w", ErrInvalidTransition, current, requested, err)
	}

	if machine.Current() != string(requested) {
		return fmt.Errorf("%w: %s -> %s ended in %s", ErrInvalidTransition, current, requested, machine.Current())
	}
	return nil
}

// AllowedTargets возвращает статусы, достижимые из current за один переход
func AllowedTargets(current domain.ContractStatus) []domain.ContractStatus {
	if !current.IsValid() || current.IsTerminal() {
		return nil
	}

	targets := make([]domain.ContractStatus, 0, 2)
	machine := newMachine(current)
	for _, status := range []domain.ContractStatus{
		domain.ContractPending,
		domain.ContractOngoing,
		domain.ContractCompleted,
		domain.ContractOverdue,
		domain.ContractCancelled,
	} {
		if machine.Can(string(status)) {
			targets = append(targets, status)
		}
	}
	return targets
}
