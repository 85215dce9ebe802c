// Package booking ведёт бронирование через оплату, подтверждение у поставщика
// и синхронизацию с календарём.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/Leganyst/travel-core/internal/budget"
	"github.com/Leganyst/travel-core/internal/calendar"
	"github.com/Leganyst/travel-core/internal/gateway"
	"github.com/Leganyst/travel-core/internal/model"
	"github.com/Leganyst/travel-core/internal/observe"
	"github.com/Leganyst/travel-core/internal/repository"
)

const (
	// Сколько раз отмена перечитывает бронирование, проиграв гонку за версию.
	cancelAttempts = 3
	// Запас аренды списания сверх таймаутов оплаты и поставщика.
	chargeLeaseSlack = 30 * time.Second
)

type Gateways struct {
	Payment  gateway.PaymentGateway
	Provider gateway.ProviderGateway
	Calendar gateway.CalendarGateway
}

// Timeouts — предельное время одного вызова каждого шлюза.
type Timeouts struct {
	Payment  time.Duration
	Provider time.Duration
	Calendar time.Duration
}

type Manager struct {
	store    *repository.Store
	gw       Gateways
	timeouts Timeouts
	log      *slog.Logger
	now      func() time.Time
}

func NewManager(store *repository.Store, gw Gateways, timeouts Timeouts, log *slog.Logger) *Manager {
	return &Manager{
		store:    store,
		gw:       gw,
		timeouts: timeouts,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateBooking проводит бронирование: Pending -> оплата -> подтверждение -> календарь.
// Бизнес-исходы возвращаются в Result без ошибки. Ошибка означает сбой инфраструктуры
// или некорректный ввод; Result при этом тоже заполнен (Outcome Error).
func (m *Manager) CreateBooking(ctx context.Context, in CreateInput) (*Result, error) {
	ctx, span := observe.Tracer().Start(ctx, "booking.CreateBooking", trace.WithAttributes(
		attribute.String("activity_id", in.ActivityID.String()),
	))
	defer span.End()

	if in.Price <= 0 || math.IsNaN(in.Price) || math.IsInf(in.Price, 0) {
		return errorResult(uuid.Nil, ErrInvalidPrice), ErrInvalidPrice
	}

	// 1. Pending-запись фиксируется до любого внешнего вызова.
	b, itineraryID, providerRef, err := m.reserve(ctx, in)
	if err != nil {
		return errorResult(uuid.Nil, err), err
	}
	span.SetAttributes(attribute.String("booking_id", b.ID.String()))
	log := m.log.With("booking_id", b.ID, "itinerary_id", itineraryID)

	return m.proceed(ctx, log, b, itineraryID, providerRef)
}

// ResumeBooking продолжает бронирование, оставшееся в Pending после сбоя платёжного шлюза.
// Оплата повторяется с тем же ключом идемпотентности, поэтому повторного списания нет.
func (m *Manager) ResumeBooking(ctx context.Context, bookingID uuid.UUID) (*Result, error) {
	ctx, span := observe.Tracer().Start(ctx, "booking.ResumeBooking", trace.WithAttributes(
		attribute.String("booking_id", bookingID.String()),
	))
	defer span.End()

	b, err := m.store.Bookings.GetByID(ctx, bookingID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errorResult(bookingID, ErrBookingNotFound), ErrBookingNotFound
	}
	if err != nil {
		err = fmt.Errorf("load booking: %w", err)
		return errorResult(bookingID, err), err
	}
	if b.Status != model.BookingStatusPending {
		err := fmt.Errorf("%w: resume from %s", ErrInvalidTransition, b.Status)
		return errorResult(bookingID, err), err
	}

	itineraryID, err := m.store.Activities.ItineraryIDOf(ctx, b.ActivityID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errorResult(bookingID, ErrActivityNotFound), ErrActivityNotFound
	}
	if err != nil {
		err = fmt.Errorf("load activity: %w", err)
		return errorResult(bookingID, err), err
	}
	p, err := m.store.Providers.GetByID(ctx, b.ProviderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errorResult(bookingID, ErrProviderNotFound), ErrProviderNotFound
	}
	if err != nil {
		err = fmt.Errorf("load provider: %w", err)
		return errorResult(bookingID, err), err
	}

	log := m.log.With("booking_id", b.ID, "itinerary_id", itineraryID)

	// Списание ведёт только владелец аренды: повтор не пойдёт параллельно
	// с другим прогоном и не спишет деньги с уже отменённого бронирования.
	b, err = m.claimCharge(ctx, bookingID)
	if err != nil {
		log.InfoContext(ctx, "resume refused", "error", err)
		return errorResult(bookingID, err), err
	}
	log.InfoContext(ctx, "resuming pending booking")
	return m.proceed(ctx, log, b, itineraryID, providerRefOf(p))
}

func (m *Manager) chargeLease() time.Duration {
	return m.timeouts.Payment + m.timeouts.Provider + chargeLeaseSlack
}

// claimCharge берёт аренду списания Pending-бронирования.
func (m *Manager) claimCharge(ctx context.Context, bookingID uuid.UUID) (*model.Booking, error) {
	now := m.now()
	var b *model.Booking
	err := m.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		b, err = tx.Bookings.ClaimCharge(ctx, bookingID, now, now.Add(m.chargeLease()))
		return err
	})
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, repository.ErrChargeNotClaimed) {
		return nil, fmt.Errorf("claim charge: %w", err)
	}

	cur, gerr := m.store.Bookings.GetByID(ctx, bookingID)
	if gerr != nil {
		return nil, fmt.Errorf("reload booking: %w", gerr)
	}
	if cur.Status != model.BookingStatusPending {
		return nil, fmt.Errorf("%w: resume from %s", ErrInvalidTransition, cur.Status)
	}
	return nil, ErrBookingInProgress
}

// releaseCharge снимает аренду, чтобы повтор мог начаться сразу.
func (m *Manager) releaseCharge(ctx context.Context, log *slog.Logger, b *model.Booking) {
	if err := m.store.Bookings.ReleaseCharge(ctx, b.ID, b.Version); err != nil {
		log.WarnContext(ctx, "release charge lease", "error", err)
		return
	}
	b.ChargingUntil = nil
}

// proceed ведёт Pending-бронирование через оплату, подтверждение и календарь.
func (m *Manager) proceed(ctx context.Context, log *slog.Logger, b *model.Booking, itineraryID uuid.UUID, providerRef string) (*Result, error) {
	res := &Result{BookingID: b.ID}

	// 2. Бюджет: только рекомендация, бронирование продолжается в любом случае.
	res.Advisory, res.DailyAdvisory = m.adviseBudget(ctx, log, itineraryID, b.Price)

	// 3. Оплата. Отказ закрывает бронирование, сбой шлюза оставляет его в Pending:
	// списание могло пройти, и повтор должен идти с тем же ключом.
	pay, payErr := m.charge(ctx, b)
	switch {
	case errors.Is(payErr, gateway.ErrDeclined):
		reason := payErr.Error()
		log.InfoContext(ctx, "payment declined", "reason", reason)

		applied, err := m.persist(ctx, log, b, model.BookingStatusPaymentFailed, nil, reason)
		if err != nil {
			return failResult(res, err), err
		}
		if !applied {
			return superseded(res, b), nil
		}
		res.Outcome = OutcomePaymentFailed
		res.Message = reason
		return res, nil
	case payErr != nil:
		log.ErrorContext(ctx, "payment gateway failed, booking left pending", "error", payErr)
		m.releaseCharge(ctx, log, b)
		err := fmt.Errorf("%w: %w", ErrPaymentUnavailable, payErr)
		return failResult(res, err), err
	}
	m.recordCharge(ctx, log, b, itineraryID, pay)

	// 4. Подтверждение у поставщика с тем же ключом идемпотентности.
	to, code, outcome, reason := m.confirm(ctx, log, b, providerRef)
	applied, err := m.persist(ctx, log, b, to, code, reason)
	if err != nil {
		return failResult(res, err), err
	}
	if !applied {
		return superseded(res, b), nil
	}
	res.Outcome = outcome
	res.Message = reason
	if code != nil {
		res.ConfirmationCode = *code
	}

	// 5. Календарь только для подтверждённых. Сбой синхронизации статус не меняет.
	if b.Status == model.BookingStatusConfirmed {
		res.CalendarEvent = m.syncCalendar(ctx, log, b)
	}
	return res, nil
}

// superseded — итог прогона, чей переход опередила отмена или другой прогон.
// b уже перечитано; календарь синхронизирует тот, кто записал статус.
func superseded(res *Result, b *model.Booking) *Result {
	res.Outcome = outcomeOf(b.Status)
	if b.ConfirmationCode != nil {
		res.ConfirmationCode = *b.ConfirmationCode
	}
	if b.Status == model.BookingStatusCancelled {
		res.Message = "booking was cancelled concurrently"
	} else {
		res.Message = "booking was completed by a concurrent request"
	}
	return res
}

func outcomeOf(s model.BookingStatus) Outcome {
	switch s {
	case model.BookingStatusConfirmed:
		return OutcomeConfirmed
	case model.BookingStatusPendingConfirmation:
		return OutcomePendingConfirmation
	case model.BookingStatusPaymentFailed:
		return OutcomePaymentFailed
	case model.BookingStatusCancelled:
		return OutcomeCancelled
	default:
		return OutcomeError
	}
}

func providerRefOf(p *model.Provider) string {
	if p.ExternalRef != "" {
		return p.ExternalRef
	}
	return p.ID.String()
}

// reserve проверяет активность и поставщика и создаёт бронирование в Pending.
func (m *Manager) reserve(ctx context.Context, in CreateInput) (*model.Booking, uuid.UUID, string, error) {
	// Создающий вызов сразу владеет арендой списания.
	leaseUntil := m.now().Add(m.chargeLease())
	b := &model.Booking{
		ActivityID:     in.ActivityID,
		ProviderID:     in.ProviderID,
		Status:         model.BookingStatusPending,
		Price:          in.Price,
		IdempotencyKey: uuid.NewString(),
		ChargingUntil:  &leaseUntil,
	}

	var (
		itineraryID uuid.UUID
		providerRef string
	)
	err := m.store.Transaction(ctx, func(tx *repository.Store) error {
		// Блокировка строки активности: перепланирование не удалит её, пока бронирование создаётся.
		locked, err := tx.Activities.LockByIDs(ctx, []uuid.UUID{in.ActivityID})
		if err != nil {
			return fmt.Errorf("lock activity: %w", err)
		}
		if len(locked) == 0 {
			return ErrActivityNotFound
		}
		itineraryID, err = tx.Activities.ItineraryIDOf(ctx, in.ActivityID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrActivityNotFound
		}
		if err != nil {
			return fmt.Errorf("load activity: %w", err)
		}

		p, err := tx.Providers.GetByID(ctx, in.ProviderID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProviderNotFound
		}
		if err != nil {
			return fmt.Errorf("load provider: %w", err)
		}
		providerRef = providerRefOf(p)

		live, err := tx.Bookings.HasLiveForActivity(ctx, in.ActivityID)
		if err != nil {
			return fmt.Errorf("check live bookings: %w", err)
		}
		if live {
			return ErrActivityAlreadyBooked
		}

		if err := tx.Bookings.Create(ctx, b); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrActivityAlreadyBooked
			}
			return fmt.Errorf("create booking: %w", err)
		}
		return tx.Events.Append(ctx, &model.Event{
			EventType:   model.EventTypeBookingCreated,
			BookingID:   &b.ID,
			ItineraryID: &itineraryID,
			ToStatus:    b.Status.String(),
			Details:     fmt.Sprintf("price=%.2f provider=%s", b.Price, providerRef),
		})
	})
	if err != nil {
		return nil, uuid.Nil, "", err
	}

	m.log.InfoContext(ctx, "booking created",
		"booking_id", b.ID, "itinerary_id", itineraryID, "activity_id", b.ActivityID, "to", b.Status)
	return b, itineraryID, providerRef, nil
}

func (m *Manager) adviseBudget(ctx context.Context, log *slog.Logger, itineraryID uuid.UUID, price float64) (*budget.Advisory, *budget.Advisory) {
	total, daily, err := m.evaluateBudget(ctx, itineraryID, price)
	if err != nil {
		log.WarnContext(ctx, "budget advisory skipped", "error", err)
		return nil, nil
	}
	if total.Level != budget.LevelSufficient {
		log.InfoContext(ctx, "budget advisory", "level", total.Level, "percent", total.Percent)
	}
	if daily.Level != budget.LevelSufficient {
		log.InfoContext(ctx, "daily budget advisory", "level", daily.Level, "projected", daily.Projected)
	}
	return &total, &daily
}

// EvaluateBudget — рекомендация для предполагаемой траты без создания бронирования.
func (m *Manager) EvaluateBudget(ctx context.Context, itineraryID uuid.UUID, proposed float64) (budget.Advisory, budget.Advisory, error) {
	if proposed < 0 || math.IsNaN(proposed) || math.IsInf(proposed, 0) {
		return budget.Advisory{}, budget.Advisory{}, ErrInvalidPrice
	}
	if _, err := m.store.Itineraries.GetByID(ctx, itineraryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return budget.Advisory{}, budget.Advisory{}, ErrItineraryNotFound
		}
		return budget.Advisory{}, budget.Advisory{}, fmt.Errorf("load itinerary: %w", err)
	}
	return m.evaluateBudget(ctx, itineraryID, proposed)
}

func (m *Manager) evaluateBudget(ctx context.Context, itineraryID uuid.UUID, price float64) (budget.Advisory, budget.Advisory, error) {
	limits, err := m.store.Budgets.GetLimits(ctx, itineraryID)
	if err != nil {
		return budget.Advisory{}, budget.Advisory{}, fmt.Errorf("load budget limits: %w", err)
	}
	spent, err := m.store.Budgets.SumExpenses(ctx, itineraryID)
	if err != nil {
		return budget.Advisory{}, budget.Advisory{}, fmt.Errorf("sum expenses: %w", err)
	}
	from, to := budget.DayWindow(m.now())
	today, err := m.store.Budgets.SumExpensesBetween(ctx, itineraryID, from, to)
	if err != nil {
		return budget.Advisory{}, budget.Advisory{}, fmt.Errorf("sum daily expenses: %w", err)
	}

	total := budget.Evaluate(budget.Limits{Total: limits.TotalLimit, Daily: limits.DailyLimit}, spent, price)
	daily := budget.EvaluateDay(limits.DailyLimit, today, price)
	return total, daily, nil
}

func (m *Manager) charge(ctx context.Context, b *model.Booking) (gateway.PaymentResult, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeouts.Payment)
	defer cancel()
	ctx, span := observe.Tracer().Start(ctx, "gateway.Payment.Charge")
	defer span.End()

	return m.gw.Payment.Charge(ctx, gateway.ChargeRequest{
		BookingID:      b.ID,
		IdempotencyKey: b.IdempotencyKey,
		Amount:         b.Price,
	})
}

// recordCharge заносит оплату в расходы маршрута, не больше одного раза на бронирование.
// Ошибка не прерывает бронирование: деньги уже списаны, и бронирование должно дойти до подтверждения.
func (m *Manager) recordCharge(ctx context.Context, log *slog.Logger, b *model.Booking, itineraryID uuid.UUID, pay gateway.PaymentResult) {
	recorded, err := m.store.Budgets.RecordBookingExpense(ctx, &model.Expense{
		ItineraryID: itineraryID,
		BookingID:   &b.ID,
		Category:    "booking",
		Note:        pay.TransactionID,
		Amount:      b.Price,
		SpentAt:     m.now(),
	})
	if err != nil {
		log.ErrorContext(ctx, "record expense failed", "error", err, "transaction_id", pay.TransactionID)
		return
	}
	if !recorded {
		log.InfoContext(ctx, "charge already recorded", "transaction_id", pay.TransactionID)
	}
}

// confirm вызывает поставщика и переводит ответ в целевой статус.
// Таймаут даёт PendingConfirmation: поставщик мог успеть обработать запрос.
func (m *Manager) confirm(ctx context.Context, log *slog.Logger, b *model.Booking, providerRef string) (model.BookingStatus, *string, Outcome, string) {
	callCtx, cancel := context.WithTimeout(ctx, m.timeouts.Provider)
	defer cancel()
	callCtx, span := observe.Tracer().Start(callCtx, "gateway.Provider.Confirm")
	defer span.End()

	out, err := m.gw.Provider.Confirm(callCtx, providerRef, b.IdempotencyKey)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			log.WarnContext(ctx, "provider confirm timed out", "timeout", m.timeouts.Provider)
			return model.BookingStatusPendingConfirmation, nil, OutcomePendingConfirmation, "provider did not answer in time"
		}
		log.ErrorContext(ctx, "provider confirm failed", "error", err)
		return model.BookingStatusError, nil, OutcomeError, "provider confirmation failed"
	}

	switch o := out.(type) {
	case gateway.Confirmed:
		code := o.Code
		return model.BookingStatusConfirmed, &code, OutcomeConfirmed, ""
	case gateway.PendingConfirmation:
		return model.BookingStatusPendingConfirmation, nil, OutcomePendingConfirmation, ""
	case gateway.Rejected:
		log.InfoContext(ctx, "provider rejected booking", "reason", o.Reason)
		return model.BookingStatusError, nil, OutcomeRejected, o.Reason
	default:
		log.ErrorContext(ctx, "provider returned unknown outcome", "outcome", fmt.Sprintf("%T", out))
		return model.BookingStatusError, nil, OutcomeError, "unknown provider outcome"
	}
}

// persist переводит бронирование в to одной транзакцией вместе с записью аудита.
// Если отмена или другой прогон успели увести бронирование из Pending, b перечитывается
// и возвращается false без ошибки.
func (m *Manager) persist(ctx context.Context, log *slog.Logger, b *model.Booking, to model.BookingStatus, code *string, details string) (bool, error) {
	from := b.Status
	if !canPersist(from, to) {
		return false, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	var version int
	err := m.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		version, err = tx.Bookings.UpdateStatus(ctx, b.ID, repository.StatusUpdate{
			Status:           to,
			ConfirmationCode: code,
			ExpectedVersion:  b.Version,
		})
		if err != nil {
			return err
		}
		return tx.Events.Append(ctx, &model.Event{
			EventType:  model.EventTypeBookingStatusChanged,
			BookingID:  &b.ID,
			FromStatus: from.String(),
			ToStatus:   to.String(),
			Details:    details,
		})
	})
	if errors.Is(err, repository.ErrStaleBooking) {
		cur, gerr := m.store.Bookings.GetByID(ctx, b.ID)
		if gerr != nil {
			return false, fmt.Errorf("reload booking: %w", gerr)
		}
		*b = *cur
		if cur.Status != model.BookingStatusPending {
			log.InfoContext(ctx, "booking moved concurrently", "wanted", to, "status", cur.Status)
			return false, nil
		}
		return false, fmt.Errorf("persist %s: %w", to, err)
	}
	if err != nil {
		return false, fmt.Errorf("persist %s: %w", to, err)
	}

	b.Status = to
	b.Version = version
	if code != nil {
		b.ConfirmationCode = code
	}
	log.InfoContext(ctx, "booking transition", "from", from, "to", to)
	return true, nil
}

// syncCalendar создаёт событие календаря для подтверждённого бронирования.
// Возвращает nil, если событие не создавалось.
func (m *Manager) syncCalendar(ctx context.Context, log *slog.Logger, b *model.Booking) *model.CalendarEvent {
	act, err := m.store.Activities.GetByID(ctx, b.ActivityID)
	if err != nil {
		log.WarnContext(ctx, "calendar sync skipped: activity lookup failed", "activity_id", b.ActivityID, "error", err)
		return nil
	}
	tr, err := calendar.NewTimeRange(act.StartTime, act.EndTime)
	if err != nil {
		log.WarnContext(ctx, "calendar sync skipped: bad activity window", "activity_id", b.ActivityID, "error", err)
		return nil
	}

	title := "Activity"
	if act.Place != nil && act.Place.Name != "" {
		title = act.Place.Name
	} else if act.Name != "" {
		title = act.Name
	}

	ev := &model.CalendarEvent{
		BookingID:  b.ID,
		Title:      "Booking: " + title,
		StartTime:  tr.Start,
		EndTime:    tr.End,
		SyncStatus: model.SyncStatusPending,
	}
	// Вставка захватывает версию бронирования: отмена не может проскочить
	// между проверкой статуса и появлением события.
	var version int
	err = m.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		version, err = tx.Bookings.ClaimVersion(ctx, b.ID, b.Version, model.BookingStatusConfirmed)
		if err != nil {
			return err
		}
		return tx.CalendarEvents.Create(ctx, ev)
	})
	if err != nil {
		log.WarnContext(ctx, "calendar sync skipped: event not stored", "error", err)
		return nil
	}
	b.Version = version

	m.pushEvent(ctx, log, b.ID, ev)
	return ev
}

// pushEvent отправляет событие во внешний календарь. При неудаче событие остаётся Pending.
func (m *Manager) pushEvent(ctx context.Context, log *slog.Logger, bookingID uuid.UUID, ev *model.CalendarEvent) {
	callCtx, cancel := context.WithTimeout(ctx, m.timeouts.Calendar)
	defer cancel()
	callCtx, span := observe.Tracer().Start(callCtx, "gateway.Calendar.Create")
	defer span.End()

	res, err := m.gw.Calendar.Create(callCtx, gateway.CalendarEventRequest{
		BookingID: bookingID,
		Title:     ev.Title,
		Start:     ev.StartTime,
		End:       ev.EndTime,
	})
	if err != nil || !res.OK {
		log.WarnContext(ctx, "calendar sync failed, event left pending", "event_id", ev.ID, "error", err)
		return
	}

	at := m.now()
	var synced bool
	err = m.store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		synced, err = tx.CalendarEvents.MarkSynced(ctx, ev.ID, res.ExternalID, at)
		if err != nil || !synced {
			return err
		}
		return tx.Events.Append(ctx, &model.Event{
			EventType: model.EventTypeCalendarSynced,
			BookingID: &bookingID,
			Details:   res.ExternalID,
		})
	})
	if err != nil {
		log.ErrorContext(ctx, "calendar sync not recorded", "event_id", ev.ID, "error", err)
		return
	}

	cur, err := m.store.CalendarEvents.GetByID(ctx, ev.ID)
	if err != nil {
		log.WarnContext(ctx, "reload calendar event", "event_id", ev.ID, "error", err)
		return
	}
	*ev = *cur
	if !synced {
		log.InfoContext(ctx, "calendar event closed before sync was recorded", "event_id", ev.ID, "sync_status", ev.SyncStatus)
		return
	}
	log.InfoContext(ctx, "calendar event synced", "event_id", ev.ID, "sync_status", ev.SyncStatus)
}

// CancelBooking отменяет бронирование и помечает Failed все его события календаря
// одной транзакцией. Повторная отмена успешна и ничего не меняет.
func (m *Manager) CancelBooking(ctx context.Context, bookingID uuid.UUID) (*CancelResult, error) {
	ctx, span := observe.Tracer().Start(ctx, "booking.CancelBooking", trace.WithAttributes(
		attribute.String("booking_id", bookingID.String()),
	))
	defer span.End()
	log := m.log.With("booking_id", bookingID)

	for attempt := 1; ; attempt++ {
		res, from, err := m.cancelOnce(ctx, bookingID)
		if errors.Is(err, repository.ErrStaleBooking) && attempt < cancelAttempts {
			log.DebugContext(ctx, "cancel lost version race, retrying", "attempt", attempt)
			continue
		}
		if err != nil {
			log.ErrorContext(ctx, "cancel failed", "error", err)
			return &CancelResult{Status: CancelError, BookingID: bookingID, Message: "cancellation failed"},
				fmt.Errorf("cancel booking %s: %w", bookingID, err)
		}
		if res.Changed {
			log.InfoContext(ctx, "booking transition", "from", from, "to", model.BookingStatusCancelled)
		} else {
			log.InfoContext(ctx, "cancel outcome", "status", res.Status)
		}
		return res, nil
	}
}

func (m *Manager) cancelOnce(ctx context.Context, bookingID uuid.UUID) (*CancelResult, model.BookingStatus, error) {
	res := &CancelResult{BookingID: bookingID}
	var from model.BookingStatus

	err := m.store.Transaction(ctx, func(tx *repository.Store) error {
		b, err := tx.Bookings.GetByID(ctx, bookingID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			res.Status = CancelNotFound
			return nil
		}
		if err != nil {
			return fmt.Errorf("load booking: %w", err)
		}
		from = b.Status

		switch {
		case b.Status == model.BookingStatusCancelled:
			res.Status = CancelSuccess
			return nil
		case IsTerminal(State(b.Status)):
			res.Status = CancelNotCancellable
			res.Message = fmt.Sprintf("booking is already closed with status %s", b.Status)
			return nil
		case !canPersist(b.Status, model.BookingStatusCancelled):
			res.Status = CancelNotCancellable
			res.Message = fmt.Sprintf("booking in status %s cannot be cancelled", b.Status)
			return nil
		}

		at := m.now()
		if _, err := tx.Bookings.UpdateStatus(ctx, b.ID, repository.StatusUpdate{
			Status:          model.BookingStatusCancelled,
			CancelledAt:     &at,
			ExpectedVersion: b.Version,
		}); err != nil {
			return err
		}
		failed, err := tx.CalendarEvents.MarkFailedByBooking(ctx, b.ID)
		if err != nil {
			return fmt.Errorf("mark calendar events failed: %w", err)
		}
		if err := tx.Events.Append(ctx, &model.Event{
			EventType:  model.EventTypeBookingCancelled,
			BookingID:  &b.ID,
			FromStatus: b.Status.String(),
			ToStatus:   model.BookingStatusCancelled.String(),
			Details:    fmt.Sprintf("calendar_events_failed=%d", failed),
		}); err != nil {
			return err
		}

		res.Status = CancelSuccess
		res.Changed = true
		return nil
	})
	if err != nil {
		return nil, from, err
	}
	return res, from, nil
}

// RetryCalendarSync повторно отправляет событие, оставшееся в Pending.
// События в других статусах и события неподтверждённых бронирований возвращаются как есть.
func (m *Manager) RetryCalendarSync(ctx context.Context, eventID uuid.UUID) (*model.CalendarEvent, error) {
	ev, err := m.store.CalendarEvents.GetByID(ctx, eventID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load calendar event: %w", err)
	}
	log := m.log.With("booking_id", ev.BookingID, "event_id", ev.ID)

	if ev.SyncStatus != model.SyncStatusPending {
		return ev, nil
	}
	b, err := m.store.Bookings.GetByID(ctx, ev.BookingID)
	if err != nil {
		return nil, fmt.Errorf("load booking: %w", err)
	}
	if b.Status != model.BookingStatusConfirmed {
		log.InfoContext(ctx, "calendar retry skipped", "status", b.Status)
		return ev, nil
	}

	m.pushEvent(ctx, log, b.ID, ev)
	return ev, nil
}

func (m *Manager) GetBooking(ctx context.Context, id uuid.UUID) (*Details, error) {
	b, err := m.store.Bookings.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load booking: %w", err)
	}
	events, err := m.store.CalendarEvents.ListByBooking(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load calendar events: %w", err)
	}
	return &Details{Booking: *b, CalendarEvents: events}, nil
}

// ListItineraryBookings — бронирования маршрута постранично, новые сверху. page с 1.
func (m *Manager) ListItineraryBookings(ctx context.Context, itineraryID uuid.UUID, page, pageSize int) (calendar.Page[model.Booking], error) {
	bookings, err := m.store.Bookings.ListByItinerary(ctx, itineraryID)
	if err != nil {
		return calendar.Page[model.Booking]{}, fmt.Errorf("list bookings: %w", err)
	}
	return calendar.Paginate(bookings, page, pageSize), nil
}

func errorResult(id uuid.UUID, err error) *Result {
	return &Result{Outcome: OutcomeError, BookingID: id, Message: publicMessage(err)}
}

func failResult(res *Result, err error) *Result {
	res.Outcome = OutcomeError
	res.Message = publicMessage(err)
	return res
}

// publicMessage скрывает текст инфраструктурных ошибок от вызывающих.
func publicMessage(err error) string {
	for _, known := range []error{
		ErrActivityNotFound, ErrActivityAlreadyBooked, ErrProviderNotFound, ErrInvalidPrice, ErrInvalidTransition,
		ErrBookingNotFound, ErrPaymentUnavailable, ErrBookingInProgress,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return "internal error"
}
