package booking

import (
	"testing"

	"github.com/Leganyst/travel-core/internal/model"
)

func TestCanTransition(t *testing.T) {
	allowed := [][2]State{
		{StatePending, StatePaymentFailed},
		{StatePending, StatePaymentOk},
		{StatePending, StateCancelled},
		{StatePaymentOk, StateConfirmed},
		{StatePaymentOk, StatePendingConfirmation},
		{StatePaymentOk, StateError},
		{StateConfirmed, StateCancelled},
		{StatePendingConfirmation, StateCancelled},
	}
	for _, tr := range allowed {
		if !CanTransition(tr[0], tr[1]) {
			t.Fatalf("%s -> %s must be allowed", tr[0], tr[1])
		}
	}

	denied := [][2]State{
		{StatePending, StateConfirmed},
		{StatePaymentFailed, StatePaymentOk},
		{StateCancelled, StateConfirmed},
		{StateError, StateCancelled},
		{StateConfirmed, StatePendingConfirmation},
		{StatePaymentOk, StateCancelled},
	}
	for _, tr := range denied {
		if CanTransition(tr[0], tr[1]) {
			t.Fatalf("%s -> %s must be denied", tr[0], tr[1])
		}
	}
}

func TestCanPersist_ThroughPaymentOk(t *testing.T) {
	if !canPersist(model.BookingStatusPending, model.BookingStatusConfirmed) {
		t.Fatalf("Pending -> Confirmed goes through PaymentOk and must be persistable")
	}
	if canPersist(model.BookingStatusPaymentFailed, model.BookingStatusConfirmed) {
		t.Fatalf("PaymentFailed is terminal")
	}
	for _, s := range []State{StatePaymentFailed, StateCancelled, StateError} {
		if !IsTerminal(s) {
			t.Fatalf("%s must be terminal", s)
		}
	}
}
