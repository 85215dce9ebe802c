package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	travelv1 "github.com/Leganyst/travel-core/internal/api/travel/v1"
	"github.com/Leganyst/travel-core/internal/booking"
	"github.com/Leganyst/travel-core/internal/db/dbtest"
	"github.com/Leganyst/travel-core/internal/gateway"
	"github.com/Leganyst/travel-core/internal/gateway/sim"
	"github.com/Leganyst/travel-core/internal/model"
	"github.com/Leganyst/travel-core/internal/observe"
	"github.com/Leganyst/travel-core/internal/planner"
	"github.com/Leganyst/travel-core/internal/replan"
	"github.com/Leganyst/travel-core/internal/repository"
)

// alwaysConfirm подтверждает любую заявку.
type alwaysConfirm struct{}

func (alwaysConfirm) Confirm(_ context.Context, _ string, key string) (gateway.ProviderOutcome, error) {
	return gateway.Confirmed{Code: "CONF-" + key[:8]}, nil
}

type grpcEnv struct {
	fixture  *dbtest.Fixture
	activity model.Activity
	bookings travelv1.BookingServiceClient
	replans  travelv1.ReplanServiceClient
	health   healthpb.HealthClient
}

func newGRPCEnv(t *testing.T) *grpcEnv {
	t.Helper()

	db := dbtest.Open(t)
	f := dbtest.Seed(t, db, map[string]string{
		"Bondi Beach":       "beach",
		"Australian Museum": "museum",
	})
	act := f.AddActivity(t, db, model.ActivityTypeVisitPOI, "Bondi Beach", 10)

	log := observe.Discard()
	store := repository.NewStore(db)
	mgr := booking.NewManager(store, booking.Gateways{
		Payment:  sim.NewPayment(log, 1000),
		Provider: alwaysConfirm{},
		Calendar: sim.NewCalendar(log),
	}, booking.Timeouts{Payment: time.Second, Provider: time.Second, Calendar: time.Second}, log)
	orch := replan.NewOrchestrator(store, mgr, planner.NewRegistryGenerator(store.Places), log)
	prefs := planner.NewPreferenceStore(store.Itineraries, store.Preferences)

	srv, _ := NewGRPCServer(log, NewBookingService(mgr, log), NewReplanService(orch, prefs, mgr, log))
	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &grpcEnv{
		fixture:  f,
		activity: act,
		bookings: travelv1.NewBookingServiceClient(conn),
		replans:  travelv1.NewReplanServiceClient(conn),
		health:   healthpb.NewHealthClient(conn),
	}
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func str(s *structpb.Struct, path ...string) string {
	for _, p := range path[:len(path)-1] {
		s = s.GetFields()[p].GetStructValue()
	}
	return s.GetFields()[path[len(path)-1]].GetStringValue()
}

func TestGRPC_BookingLifecycleAndReplan(t *testing.T) {
	ctx := context.Background()
	e := newGRPCEnv(t)

	created, err := e.bookings.CreateBooking(ctx, mustStruct(t, map[string]any{
		"activity_id": e.activity.ID.String(),
		"provider_id": e.fixture.Provider.ID.String(),
		"price":       120.5,
	}))
	require.NoError(t, err)
	assert.Equal(t, "Confirmed", str(created, "outcome"))
	assert.Equal(t, "Synced", str(created, "calendar_event", "sync_status"))
	assert.Equal(t, "Sufficient", str(created, "advisory", "level"))
	bookingID := str(created, "booking_id")

	// Повторное бронирование той же активности.
	_, err = e.bookings.CreateBooking(ctx, mustStruct(t, map[string]any{
		"activity_id": e.activity.ID.String(),
		"provider_id": e.fixture.Provider.ID.String(),
		"price":       10,
	}))
	st := status.Convert(err)
	assert.Equal(t, codes.AlreadyExists, st.Code())
	require.Len(t, st.Details(), 1)
	detail, ok := st.Details()[0].(*structpb.Struct)
	require.True(t, ok)
	assert.Equal(t, "Error", str(detail, "outcome"))

	got, err := e.bookings.GetBooking(ctx, mustStruct(t, map[string]any{"booking_id": bookingID}))
	require.NoError(t, err)
	assert.Equal(t, "Confirmed", str(got, "booking", "status"))
	assert.Len(t, got.GetFields()["calendar_events"].GetListValue().GetValues(), 1)

	list, err := e.bookings.ListItineraryBookings(ctx, mustStruct(t, map[string]any{
		"itinerary_id": e.fixture.Itinerary.ID.String(),
	}))
	require.NoError(t, err)
	assert.EqualValues(t, 1, list.GetFields()["total"].GetNumberValue())

	replanned, err := e.replans.ReplanForDisruption(ctx, mustStruct(t, map[string]any{
		"itinerary_id": e.fixture.Itinerary.ID.String(),
		"disruption":   map[string]any{"type": "weather", "detail": "heavy_rain"},
		"preferences":  map[string]any{"interests": []any{"museum"}},
	}))
	require.NoError(t, err)
	assert.Equal(t, "Replanned", str(replanned, "status"))
	cancelled := replanned.GetFields()["cancelled_bookings"].GetListValue().GetValues()
	require.Len(t, cancelled, 1)
	assert.Equal(t, bookingID, cancelled[0].GetStringValue())
	plan := replanned.GetFields()["new_plan"].GetListValue().GetValues()
	require.Len(t, plan, 1)
	assert.Equal(t, "Australian Museum", str(plan[0].GetStructValue(), "name"))

	// Отменённое бронирование продолжить нельзя.
	_, err = e.bookings.ResumeBooking(ctx, mustStruct(t, map[string]any{"booking_id": bookingID}))
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	// Отмена уже отменённого: успех без изменений.
	again, err := e.bookings.CancelBooking(ctx, mustStruct(t, map[string]any{"booking_id": bookingID}))
	require.NoError(t, err)
	assert.Equal(t, "Success", str(again, "status"))
	assert.False(t, again.GetFields()["changed"].GetBoolValue())

	advice, err := e.replans.EvaluateBudget(ctx, mustStruct(t, map[string]any{
		"itinerary_id": e.fixture.Itinerary.ID.String(),
		"proposed":     50,
	}))
	require.NoError(t, err)
	assert.Equal(t, "Sufficient", str(advice, "advisory", "level"))
	assert.InDelta(t, 170.5, advice.GetFields()["advisory"].GetStructValue().GetFields()["projected"].GetNumberValue(), 1e-9)
}

func TestGRPC_RequestValidationAndNotFound(t *testing.T) {
	ctx := context.Background()
	e := newGRPCEnv(t)

	cases := []struct {
		name string
		call func() error
		code codes.Code
	}{
		{"bad activity id", func() error {
			_, err := e.bookings.CreateBooking(ctx, mustStruct(t, map[string]any{
				"activity_id": "nope", "provider_id": uuid.NewString(), "price": 1,
			}))
			return err
		}, codes.InvalidArgument},
		{"missing price", func() error {
			_, err := e.bookings.CreateBooking(ctx, mustStruct(t, map[string]any{
				"activity_id": e.activity.ID.String(), "provider_id": e.fixture.Provider.ID.String(),
			}))
			return err
		}, codes.InvalidArgument},
		{"zero price", func() error {
			_, err := e.bookings.CreateBooking(ctx, mustStruct(t, map[string]any{
				"activity_id": e.activity.ID.String(), "provider_id": e.fixture.Provider.ID.String(), "price": 0,
			}))
			return err
		}, codes.InvalidArgument},
		{"unknown activity", func() error {
			_, err := e.bookings.CreateBooking(ctx, mustStruct(t, map[string]any{
				"activity_id": uuid.NewString(), "provider_id": e.fixture.Provider.ID.String(), "price": 5,
			}))
			return err
		}, codes.NotFound},
		{"unknown booking", func() error {
			_, err := e.bookings.GetBooking(ctx, mustStruct(t, map[string]any{"booking_id": uuid.NewString()}))
			return err
		}, codes.NotFound},
		{"resume unknown booking", func() error {
			_, err := e.bookings.ResumeBooking(ctx, mustStruct(t, map[string]any{"booking_id": uuid.NewString()}))
			return err
		}, codes.NotFound},
		{"unknown calendar event", func() error {
			_, err := e.bookings.RetryCalendarSync(ctx, mustStruct(t, map[string]any{"event_id": uuid.NewString()}))
			return err
		}, codes.NotFound},
		{"disruption required", func() error {
			_, err := e.replans.ReplanForDisruption(ctx, mustStruct(t, map[string]any{
				"itinerary_id": e.fixture.Itinerary.ID.String(),
			}))
			return err
		}, codes.InvalidArgument},
		{"unknown itinerary", func() error {
			_, err := e.replans.ReplanForDisruption(ctx, mustStruct(t, map[string]any{
				"itinerary_id": uuid.NewString(),
				"disruption":   map[string]any{"type": "weather", "detail": "heavy_rain"},
			}))
			return err
		}, codes.NotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, status.Code(tc.call()))
		})
	}

	// NotFound при отмене: закрытый статус в ответе, а не ошибка.
	res, err := e.bookings.CancelBooking(ctx, mustStruct(t, map[string]any{"booking_id": uuid.NewString()}))
	require.NoError(t, err)
	assert.Equal(t, "NotFound", str(res, "status"))
}

func TestGRPC_Health(t *testing.T) {
	e := newGRPCEnv(t)

	resp, err := e.health.Check(context.Background(), &healthpb.HealthCheckRequest{
		Service: travelv1.BookingService_ServiceDesc.ServiceName,
	})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestStatusError_HidesInfrastructureText(t *testing.T) {
	err := statusError(fmt.Errorf("load booking: %w", errors.New("pq: connection refused")), nil)
	st := status.Convert(err)
	assert.Equal(t, codes.Internal, st.Code())
	assert.Equal(t, "internal error", st.Message())

	err = statusError(fmt.Errorf("reserve: %w", booking.ErrActivityAlreadyBooked), nil)
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	err = statusError(booking.ErrInvalidTransition, nil)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	err = statusError(booking.ErrBookingInProgress, nil)
	assert.Equal(t, codes.Aborted, status.Code(err))

	err = statusError(fmt.Errorf("%w: %w", booking.ErrPaymentUnavailable, context.DeadlineExceeded),
		map[string]any{"outcome": "Error", "message": "payment gateway unavailable"})
	st = status.Convert(err)
	assert.Equal(t, codes.Unavailable, st.Code())
	assert.Equal(t, "payment gateway unavailable", st.Message())
}
