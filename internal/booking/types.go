package booking

import (
	"errors"

	"github.com/google/uuid"

	"github.com/Leganyst/travel-core/internal/budget"
	"github.com/Leganyst/travel-core/internal/model"
)

var (
	ErrActivityNotFound      = errors.New("activity not found")
	ErrActivityAlreadyBooked = errors.New("activity already has a live booking")
	ErrProviderNotFound      = errors.New("provider not found")
	ErrInvalidPrice          = errors.New("price must be positive")
	ErrInvalidTransition     = errors.New("invalid booking transition")
	ErrBookingNotFound       = errors.New("booking not found")
	ErrEventNotFound         = errors.New("calendar event not found")
	ErrItineraryNotFound     = errors.New("itinerary not found")
	// Исход списания неизвестен; бронирование остаётся в Pending до ResumeBooking.
	ErrPaymentUnavailable = errors.New("payment gateway unavailable")
	// Оплату бронирования прямо сейчас ведёт другой вызов.
	ErrBookingInProgress = errors.New("booking is being processed")
)

// Outcome — итог CreateBooking. Закрытый набор строк для вызывающих.
type Outcome string

const (
	OutcomeConfirmed           Outcome = "Confirmed"
	OutcomePendingConfirmation Outcome = "PendingConfirmation"
	OutcomePaymentFailed       Outcome = "PaymentFailed"
	OutcomeRejected            Outcome = "Rejected"
	OutcomeCancelled           Outcome = "Cancelled"
	OutcomeError               Outcome = "Error"
)

type CreateInput struct {
	ActivityID uuid.UUID
	ProviderID uuid.UUID
	Price      float64
}

type Result struct {
	Outcome          Outcome
	BookingID        uuid.UUID
	ConfirmationCode string
	// Бюджетные рекомендации; nil, если посчитать не удалось.
	Advisory      *budget.Advisory
	DailyAdvisory *budget.Advisory
	// Событие календаря, если синхронизация запускалась.
	CalendarEvent *model.CalendarEvent
	Message       string
}

type CancelStatus string

const (
	CancelSuccess        CancelStatus = "Success"
	CancelNotCancellable CancelStatus = "NotCancellable"
	CancelNotFound       CancelStatus = "NotFound"
	CancelError          CancelStatus = "Error"
)

type CancelResult struct {
	Status    CancelStatus
	BookingID uuid.UUID
	// false — бронирование уже было отменено, ничего не изменилось.
	Changed bool
	Message string
}

// Details — бронирование вместе с его событиями календаря.
type Details struct {
	Booking        model.Booking
	CalendarEvents []model.CalendarEvent
}
