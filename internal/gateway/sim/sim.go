// Package sim — имитации внешних шлюзов для локального запуска без реальных интеграций.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"

	"github.com/Leganyst/travel-core/internal/gateway"
)

// Payment одобряет любую положительную сумму не выше Limit (0 — без ограничения).
type Payment struct {
	Limit float64
	log   *slog.Logger
}

func NewPayment(log *slog.Logger, limit float64) *Payment {
	return &Payment{Limit: limit, log: log}
}

func (p *Payment) Charge(_ context.Context, req gateway.ChargeRequest) (gateway.PaymentResult, error) {
	if req.Amount <= 0 || (p.Limit > 0 && req.Amount > p.Limit) {
		p.log.Info("sim payment declined", "booking_id", req.BookingID, "amount", req.Amount)
		return gateway.PaymentResult{}, fmt.Errorf("%w: declined by simulator", gateway.ErrDeclined)
	}
	p.log.Info("sim payment charged", "booking_id", req.BookingID, "amount", req.Amount)
	return gateway.PaymentResult{TransactionID: "sim-" + uuid.NewString()}, nil
}

// Provider подтверждает бронирование либо оставляет его в ожидании, как прототип.
// Ответ запоминается по ключу идемпотентности: повтор возвращает тот же исход.
type Provider struct {
	mu   sync.Mutex
	rnd  *rand.Rand
	seen map[string]gateway.ProviderOutcome
	log  *slog.Logger
}

func NewProvider(log *slog.Logger, seed uint64) *Provider {
	return &Provider{
		rnd:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		seen: make(map[string]gateway.ProviderOutcome),
		log:  log,
	}
}

func (p *Provider) Confirm(_ context.Context, providerRef, key string) (gateway.ProviderOutcome, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if out, ok := p.seen[key]; ok {
		return out, nil
	}

	var out gateway.ProviderOutcome = gateway.PendingConfirmation{}
	if p.rnd.IntN(2) == 0 {
		out = gateway.Confirmed{Code: fmt.Sprintf("CONF-%d", 1000+p.rnd.IntN(9000))}
	}
	p.seen[key] = out
	p.log.Info("sim provider answered", "provider", providerRef, "idempotency_key", key, "outcome", fmt.Sprintf("%T", out))
	return out, nil
}

// Calendar всегда успешно создаёт событие.
type Calendar struct {
	log *slog.Logger
}

func NewCalendar(log *slog.Logger) *Calendar {
	return &Calendar{log: log}
}

func (c *Calendar) Create(_ context.Context, req gateway.CalendarEventRequest) (gateway.CalendarResult, error) {
	id := "ext_" + uuid.NewString()
	c.log.Info("sim calendar event created", "booking_id", req.BookingID, "external_id", id)
	return gateway.CalendarResult{OK: true, ExternalID: id}, nil
}
