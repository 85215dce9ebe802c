package service

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"gorm.io/gorm"

	"github.com/Leganyst/travel-core/internal/booking"
	"github.com/Leganyst/travel-core/internal/replan"
)

// codeOf сопоставляет ошибку доменного слоя с кодом gRPC.
func codeOf(err error) codes.Code {
	switch {
	case errors.Is(err, booking.ErrActivityNotFound),
		errors.Is(err, booking.ErrProviderNotFound),
		errors.Is(err, booking.ErrBookingNotFound),
		errors.Is(err, booking.ErrEventNotFound),
		errors.Is(err, booking.ErrItineraryNotFound),
		errors.Is(err, replan.ErrItineraryNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return codes.NotFound
	case errors.Is(err, booking.ErrActivityAlreadyBooked):
		return codes.AlreadyExists
	case errors.Is(err, booking.ErrInvalidPrice):
		return codes.InvalidArgument
	case errors.Is(err, booking.ErrInvalidTransition):
		return codes.FailedPrecondition
	case errors.Is(err, booking.ErrBookingInProgress):
		return codes.Aborted
	case errors.Is(err, booking.ErrPaymentUnavailable):
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

// statusError превращает ошибку в статус gRPC. Текст инфраструктурных ошибок наружу не уходит.
// result, если есть, прикладывается к статусу деталями: вызывающий видит закрытый статус операции.
func statusError(err error, result map[string]any) error {
	code := codeOf(err)
	msg := "internal error"
	if code != codes.Internal {
		msg = err.Error()
	}
	if m, ok := result["message"].(string); ok && m != "" {
		msg = m
	}

	st := status.New(code, msg)
	if result == nil {
		return st.Err()
	}
	detail, encErr := structpb.NewStruct(result)
	if encErr != nil {
		return st.Err()
	}
	if withDetail, detErr := st.WithDetails(detail); detErr == nil {
		st = withDetail
	}
	return st.Err()
}
