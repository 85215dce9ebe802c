// Package gateway описывает внешних участников процесса бронирования:
// платёжный шлюз, подтверждение у поставщика, внешний календарь.
package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrDeclined — платёж отклонён (бизнес-исход, а не сбой транспорта).
// Шлюзы оборачивают его вместе с причиной отказа: fmt.Errorf("%w: %s", ErrDeclined, reason).
var ErrDeclined = errors.New("payment declined")

type ChargeRequest struct {
	BookingID      uuid.UUID
	IdempotencyKey string
	Amount         float64
}

type PaymentResult struct {
	TransactionID string
}

// PaymentGateway авторизует списание. Отказ приходит ошибкой с ErrDeclined,
// любая другая ошибка означает, что исход списания неизвестен.
type PaymentGateway interface {
	Charge(ctx context.Context, req ChargeRequest) (PaymentResult, error)
}

// ProviderOutcome — ответ поставщика: ровно один из Confirmed, PendingConfirmation, Rejected.
type ProviderOutcome interface {
	providerOutcome()
}

type Confirmed struct {
	Code string
}

type PendingConfirmation struct{}

type Rejected struct {
	Reason string
}

func (Confirmed) providerOutcome()           {}
func (PendingConfirmation) providerOutcome() {}
func (Rejected) providerOutcome()            {}

// ProviderGateway подтверждает бронирование у стороннего поставщика.
// Повторный вызов с тем же ключом не должен создавать второе бронирование.
type ProviderGateway interface {
	Confirm(ctx context.Context, providerRef, idempotencyKey string) (ProviderOutcome, error)
}

type CalendarEventRequest struct {
	BookingID uuid.UUID
	Title     string
	Start     time.Time
	End       time.Time
}

type CalendarResult struct {
	OK         bool
	ExternalID string
}

// CalendarGateway создаёт событие во внешнем календаре.
type CalendarGateway interface {
	Create(ctx context.Context, req CalendarEventRequest) (CalendarResult, error)
}
