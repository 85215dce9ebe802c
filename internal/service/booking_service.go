package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"

	travelv1 "github.com/Leganyst/travel-core/internal/api/travel/v1"
	"github.com/Leganyst/travel-core/internal/booking"
	"github.com/Leganyst/travel-core/internal/budget"
	"github.com/Leganyst/travel-core/internal/calendar"
	"github.com/Leganyst/travel-core/internal/model"
)

// Bookings — операции жизненного цикла бронирования, которые обслуживает транспорт.
type Bookings interface {
	CreateBooking(ctx context.Context, in booking.CreateInput) (*booking.Result, error)
	ResumeBooking(ctx context.Context, bookingID uuid.UUID) (*booking.Result, error)
	CancelBooking(ctx context.Context, bookingID uuid.UUID) (*booking.CancelResult, error)
	GetBooking(ctx context.Context, id uuid.UUID) (*booking.Details, error)
	ListItineraryBookings(ctx context.Context, itineraryID uuid.UUID, page, pageSize int) (calendar.Page[model.Booking], error)
	RetryCalendarSync(ctx context.Context, eventID uuid.UUID) (*model.CalendarEvent, error)
	EvaluateBudget(ctx context.Context, itineraryID uuid.UUID, proposed float64) (budget.Advisory, budget.Advisory, error)
}

type BookingService struct {
	travelv1.UnimplementedBookingServiceServer

	bookings Bookings
	log      *slog.Logger
}

func NewBookingService(bookings Bookings, log *slog.Logger) *BookingService {
	return &BookingService{bookings: bookings, log: log}
}

func (s *BookingService) CreateBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	activityID, err := requireUUID(req, "activity_id")
	if err != nil {
		return nil, err
	}
	providerID, err := requireUUID(req, "provider_id")
	if err != nil {
		return nil, err
	}
	price, err := requireNumber(req, "price")
	if err != nil {
		return nil, err
	}

	res, err := s.bookings.CreateBooking(ctx, booking.CreateInput{
		ActivityID: activityID,
		ProviderID: providerID,
		Price:      price,
	})
	if err != nil {
		s.log.ErrorContext(ctx, "create booking failed", "activity_id", activityID, "error", err)
		return nil, statusError(err, presentBookingResult(res))
	}
	return newStruct(presentBookingResult(res))
}

func (s *BookingService) ResumeBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requireUUID(req, "booking_id")
	if err != nil {
		return nil, err
	}
	res, err := s.bookings.ResumeBooking(ctx, id)
	if err != nil {
		s.log.ErrorContext(ctx, "resume booking failed", "booking_id", id, "error", err)
		return nil, statusError(err, presentBookingResult(res))
	}
	return newStruct(presentBookingResult(res))
}

// CancelBooking возвращает закрытый статус отмены. NotFound и NotCancellable — ответ, а не ошибка.
func (s *BookingService) CancelBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requireUUID(req, "booking_id")
	if err != nil {
		return nil, err
	}
	res, err := s.bookings.CancelBooking(ctx, id)
	if err != nil {
		s.log.ErrorContext(ctx, "cancel booking failed", "booking_id", id, "error", err)
		return nil, statusError(err, presentCancelResult(res))
	}
	return newStruct(presentCancelResult(res))
}

func (s *BookingService) GetBooking(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requireUUID(req, "booking_id")
	if err != nil {
		return nil, err
	}
	d, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return nil, statusError(err, nil)
	}
	return newStruct(presentDetails(d))
}

func (s *BookingService) ListItineraryBookings(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requireUUID(req, "itinerary_id")
	if err != nil {
		return nil, err
	}
	page, err := s.bookings.ListItineraryBookings(ctx, id, intOr(req, "page", 1), intOr(req, "page_size", 20))
	if err != nil {
		s.log.ErrorContext(ctx, "list bookings failed", "itinerary_id", id, "error", err)
		return nil, statusError(err, nil)
	}
	return newStruct(presentBookingPage(page))
}

func (s *BookingService) RetryCalendarSync(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := requireUUID(req, "event_id")
	if err != nil {
		return nil, err
	}
	ev, err := s.bookings.RetryCalendarSync(ctx, id)
	if err != nil {
		s.log.ErrorContext(ctx, "calendar retry failed", "event_id", id, "error", err)
		return nil, statusError(err, nil)
	}
	return newStruct(map[string]any{"calendar_event": presentCalendarEvent(*ev)})
}
