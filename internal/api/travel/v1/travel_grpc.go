// Package travelv1 описывает gRPC-сервисы travel.v1. Сообщения — google.protobuf.Struct,
// поля перечислены в комментариях к методам.
package travelv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	BookingService_CreateBooking_FullMethodName         = "/travel.v1.BookingService/CreateBooking"
	BookingService_ResumeBooking_FullMethodName         = "/travel.v1.BookingService/ResumeBooking"
	BookingService_CancelBooking_FullMethodName         = "/travel.v1.BookingService/CancelBooking"
	BookingService_GetBooking_FullMethodName            = "/travel.v1.BookingService/GetBooking"
	BookingService_ListItineraryBookings_FullMethodName = "/travel.v1.BookingService/ListItineraryBookings"
	BookingService_RetryCalendarSync_FullMethodName     = "/travel.v1.BookingService/RetryCalendarSync"

	ReplanService_ReplanForDisruption_FullMethodName = "/travel.v1.ReplanService/ReplanForDisruption"
	ReplanService_EvaluateBudget_FullMethodName      = "/travel.v1.ReplanService/EvaluateBudget"
)

// BookingServiceServer — серверная часть travel.v1.BookingService.
type BookingServiceServer interface {
	// {activity_id, provider_id, price} -> {outcome, booking_id, confirmation_code, advisory, daily_advisory, calendar_event, message}
	CreateBooking(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// {booking_id} -> ответ как у CreateBooking; только для Pending после сбоя оплаты
	ResumeBooking(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// {booking_id} -> {status, booking_id, changed, message}
	CancelBooking(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// {booking_id} -> {booking, calendar_events}
	GetBooking(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// {itinerary_id, page, page_size} -> {bookings, page, page_size, total, has_next, has_prev}
	ListItineraryBookings(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// {event_id} -> {calendar_event}
	RetryCalendarSync(context.Context, *structpb.Struct) (*structpb.Struct, error)
	mustEmbedUnimplementedBookingServiceServer()
}

// UnimplementedBookingServiceServer нужно встраивать для совместимости при добавлении методов.
type UnimplementedBookingServiceServer struct{}

func (UnimplementedBookingServiceServer) CreateBooking(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateBooking not implemented")
}
func (UnimplementedBookingServiceServer) ResumeBooking(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ResumeBooking not implemented")
}
func (UnimplementedBookingServiceServer) CancelBooking(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method CancelBooking not implemented")
}
func (UnimplementedBookingServiceServer) GetBooking(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method GetBooking not implemented")
}
func (UnimplementedBookingServiceServer) ListItineraryBookings(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ListItineraryBookings not implemented")
}
func (UnimplementedBookingServiceServer) RetryCalendarSync(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method RetryCalendarSync not implemented")
}
func (UnimplementedBookingServiceServer) mustEmbedUnimplementedBookingServiceServer() {}

func RegisterBookingServiceServer(s grpc.ServiceRegistrar, srv BookingServiceServer) {
	s.RegisterService(&BookingService_ServiceDesc, srv)
}

// ReplanServiceServer — серверная часть travel.v1.ReplanService.
type ReplanServiceServer interface {
	// {itinerary_id, disruption: {type, detail}, preferences: {user_id, interests, ...}}
	//   -> {status, itinerary, new_plan, affected, cancelled_bookings, alternatives, message}
	ReplanForDisruption(context.Context, *structpb.Struct) (*structpb.Struct, error)
	// {itinerary_id, proposed} -> {advisory, daily_advisory}
	EvaluateBudget(context.Context, *structpb.Struct) (*structpb.Struct, error)
	mustEmbedUnimplementedReplanServiceServer()
}

type UnimplementedReplanServiceServer struct{}

func (UnimplementedReplanServiceServer) ReplanForDisruption(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ReplanForDisruption not implemented")
}
func (UnimplementedReplanServiceServer) EvaluateBudget(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method EvaluateBudget not implemented")
}
func (UnimplementedReplanServiceServer) mustEmbedUnimplementedReplanServiceServer() {}

func RegisterReplanServiceServer(s grpc.ServiceRegistrar, srv ReplanServiceServer) {
	s.RegisterService(&ReplanService_ServiceDesc, srv)
}

// unaryHandler строит обработчик для метода с Struct на входе и выходе.
func unaryHandler[S any](fullMethod string, call func(S, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(S), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(S), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var BookingService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "travel.v1.BookingService",
	HandlerType: (*BookingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "CreateBooking",
			Handler:    unaryHandler(BookingService_CreateBooking_FullMethodName, BookingServiceServer.CreateBooking),
		},
		{
			MethodName: "ResumeBooking",
			Handler:    unaryHandler(BookingService_ResumeBooking_FullMethodName, BookingServiceServer.ResumeBooking),
		},
		{
			MethodName: "CancelBooking",
			Handler:    unaryHandler(BookingService_CancelBooking_FullMethodName, BookingServiceServer.CancelBooking),
		},
		{
			MethodName: "GetBooking",
			Handler:    unaryHandler(BookingService_GetBooking_FullMethodName, BookingServiceServer.GetBooking),
		},
		{
			MethodName: "ListItineraryBookings",
			Handler:    unaryHandler(BookingService_ListItineraryBookings_FullMethodName, BookingServiceServer.ListItineraryBookings),
		},
		{
			MethodName: "RetryCalendarSync",
			Handler:    unaryHandler(BookingService_RetryCalendarSync_FullMethodName, BookingServiceServer.RetryCalendarSync),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "travel/v1/travel.proto",
}

var ReplanService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "travel.v1.ReplanService",
	HandlerType: (*ReplanServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ReplanForDisruption",
			Handler:    unaryHandler(ReplanService_ReplanForDisruption_FullMethodName, ReplanServiceServer.ReplanForDisruption),
		},
		{
			MethodName: "EvaluateBudget",
			Handler:    unaryHandler(ReplanService_EvaluateBudget_FullMethodName, ReplanServiceServer.EvaluateBudget),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "travel/v1/travel.proto",
}

// BookingServiceClient — клиентская часть travel.v1.BookingService.
type BookingServiceClient interface {
	CreateBooking(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ResumeBooking(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	CancelBooking(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetBooking(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ListItineraryBookings(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	RetryCalendarSync(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type bookingServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewBookingServiceClient(cc grpc.ClientConnInterface) BookingServiceClient {
	return &bookingServiceClient{cc}
}

func (c *bookingServiceClient) CreateBooking(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, BookingService_CreateBooking_FullMethodName, in, opts)
}

func (c *bookingServiceClient) ResumeBooking(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, BookingService_ResumeBooking_FullMethodName, in, opts)
}

func (c *bookingServiceClient) CancelBooking(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, BookingService_CancelBooking_FullMethodName, in, opts)
}

func (c *bookingServiceClient) GetBooking(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, BookingService_GetBooking_FullMethodName, in, opts)
}

func (c *bookingServiceClient) ListItineraryBookings(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, BookingService_ListItineraryBookings_FullMethodName, in, opts)
}

func (c *bookingServiceClient) RetryCalendarSync(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, BookingService_RetryCalendarSync_FullMethodName, in, opts)
}

// ReplanServiceClient — клиентская часть travel.v1.ReplanService.
type ReplanServiceClient interface {
	ReplanForDisruption(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	EvaluateBudget(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type replanServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewReplanServiceClient(cc grpc.ClientConnInterface) ReplanServiceClient {
	return &replanServiceClient{cc}
}

func (c *replanServiceClient) ReplanForDisruption(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, ReplanService_ReplanForDisruption_FullMethodName, in, opts)
}

func (c *replanServiceClient) EvaluateBudget(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return invoke(ctx, c.cc, ReplanService_EvaluateBudget_FullMethodName, in, opts)
}

func invoke(ctx context.Context, cc grpc.ClientConnInterface, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
