package booking_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/Leganyst/travel-core/internal/booking"
	"github.com/Leganyst/travel-core/internal/db/dbtest"
	"github.com/Leganyst/travel-core/internal/gateway"
	"github.com/Leganyst/travel-core/internal/model"
	"github.com/Leganyst/travel-core/internal/observe"
	"github.com/Leganyst/travel-core/internal/repository"
)

type fakePayment struct {
	calls   atomic.Int32
	keys    []string
	decline bool
	err     error
}

func (p *fakePayment) Charge(_ context.Context, req gateway.ChargeRequest) (gateway.PaymentResult, error) {
	p.calls.Add(1)
	p.keys = append(p.keys, req.IdempotencyKey)
	if p.err != nil {
		return gateway.PaymentResult{}, p.err
	}
	if p.decline {
		return gateway.PaymentResult{}, fmt.Errorf("%w: card declined", gateway.ErrDeclined)
	}
	return gateway.PaymentResult{TransactionID: "tx-1"}, nil
}

type fakeProvider struct {
	calls   atomic.Int32
	keys    []string
	outcome gateway.ProviderOutcome
	err     error
	// Блокироваться до отмены контекста (имитация зависшего поставщика).
	hang bool
	// Вызывается до ответа: позволяет вклиниться между оплатой и подтверждением.
	before func()
}

func (p *fakeProvider) Confirm(ctx context.Context, _ string, key string) (gateway.ProviderOutcome, error) {
	p.calls.Add(1)
	p.keys = append(p.keys, key)
	if p.before != nil {
		p.before()
	}
	if p.hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if p.err != nil {
		return nil, p.err
	}
	if p.outcome == nil {
		return gateway.Confirmed{Code: "CONF-1234"}, nil
	}
	return p.outcome, nil
}

type fakeCalendar struct {
	calls  atomic.Int32
	fail   bool
	before func()
}

func (c *fakeCalendar) Create(context.Context, gateway.CalendarEventRequest) (gateway.CalendarResult, error) {
	c.calls.Add(1)
	if c.before != nil {
		c.before()
	}
	if c.fail {
		return gateway.CalendarResult{}, errors.New("calendar unavailable")
	}
	return gateway.CalendarResult{OK: true, ExternalID: "ext-1"}, nil
}

type env struct {
	db       *gorm.DB
	store    *repository.Store
	fixture  *dbtest.Fixture
	payment  *fakePayment
	provider *fakeProvider
	calendar *fakeCalendar
	mgr      *booking.Manager
}

func newEnv(t *testing.T) *env {
	t.Helper()

	db := dbtest.Open(t)
	e := &env{
		db:       db,
		store:    repository.NewStore(db),
		fixture:  dbtest.Seed(t, db, map[string]string{"Sydney Opera House": "landmark", "Mr. Wong": "restaurant"}),
		payment:  &fakePayment{},
		provider: &fakeProvider{},
		calendar: &fakeCalendar{},
	}
	e.build()
	return e
}

// build пересобирает менеджер поверх текущих фейков.
func (e *env) build() {
	e.mgr = booking.NewManager(e.store, booking.Gateways{
		Payment:  e.payment,
		Provider: e.provider,
		Calendar: e.calendar,
	}, booking.Timeouts{
		Payment:  time.Second,
		Provider: 50 * time.Millisecond,
		Calendar: time.Second,
	}, observe.Discard())
}

func (e *env) activity(t *testing.T, typ model.ActivityType, place string, hour int) model.Activity {
	t.Helper()
	return e.fixture.AddActivity(t, e.db, typ, place, hour)
}

func (e *env) input(a model.Activity) booking.CreateInput {
	return booking.CreateInput{ActivityID: a.ID, ProviderID: e.fixture.Provider.ID, Price: 100}
}
