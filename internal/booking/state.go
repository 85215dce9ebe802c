package booking

import (
	"slices"

	"github.com/Leganyst/travel-core/internal/model"
)

// State — состояние автомата бронирования. Помимо сохраняемых статусов
// включает промежуточное PaymentOk, которое живёт только в памяти.
type State string

const (
	StatePending             State = State(model.BookingStatusPending)
	StatePaymentFailed       State = State(model.BookingStatusPaymentFailed)
	StatePaymentOk           State = "PaymentOk"
	StateConfirmed           State = State(model.BookingStatusConfirmed)
	StatePendingConfirmation State = State(model.BookingStatusPendingConfirmation)
	StateCancelled           State = State(model.BookingStatusCancelled)
	StateError               State = State(model.BookingStatusError)
)

var transitions = map[State][]State{
	StatePending:             {StatePaymentFailed, StatePaymentOk, StateCancelled},
	StatePaymentOk:           {StateConfirmed, StatePendingConfirmation, StateError},
	StateConfirmed:           {StateCancelled},
	StatePendingConfirmation: {StateCancelled},
}

// CanTransition — допустим ли переход from -> to.
func CanTransition(from, to State) bool {
	return slices.Contains(transitions[from], to)
}

// IsTerminal — из состояния нет движения вперёд. Повторное бронирование создаёт новую запись.
func IsTerminal(s State) bool {
	return s == StatePaymentFailed || s == StateCancelled || s == StateError
}

// canPersist — допустима ли запись статуса to поверх from.
// PaymentOk не сохраняется, поэтому переход через него проверяется целиком.
func canPersist(from, to model.BookingStatus) bool {
	f, t := State(from), State(to)
	if CanTransition(f, t) {
		return true
	}
	return CanTransition(f, StatePaymentOk) && CanTransition(StatePaymentOk, t)
}
