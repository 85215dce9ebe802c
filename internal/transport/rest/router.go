// Package rest — REST-адаптер над gRPC-сервисами travel.v1 на fiber.
package rest

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	travelv1 "github.com/Leganyst/travel-core/internal/api/travel/v1"
	"github.com/Leganyst/travel-core/internal/observe"
	"github.com/Leganyst/travel-core/internal/planner"
)

// ApiResponse — общий конверт ответа.
type ApiResponse struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
	Data    any    `json:"data,omitempty"`
}

// PreferenceSaver сохраняет предпочтения пользователя.
type PreferenceSaver interface {
	Save(ctx context.Context, p planner.Preferences) error
}

type Handler struct {
	bookings travelv1.BookingServiceServer
	replans  travelv1.ReplanServiceServer
	prefs    PreferenceSaver
	log      *slog.Logger
}

type Config struct {
	AllowOrigins string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewApp собирает fiber-приложение со всеми маршрутами /api/v1.
func NewApp(
	cfg Config,
	bookings travelv1.BookingServiceServer,
	replans travelv1.ReplanServiceServer,
	prefs PreferenceSaver,
	log *slog.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(log),
	})
	app.Use(recover.New())
	if cfg.AllowOrigins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins: cfg.AllowOrigins,
			AllowMethods: "GET,POST,PUT,OPTIONS",
			AllowHeaders: "Origin, Content-Type, Accept",
		}))
	}
	app.Use(observeRequests(log))

	h := &Handler{bookings: bookings, replans: replans, prefs: prefs, log: log}
	h.Register(app)
	return app
}

func (h *Handler) Register(app *fiber.App) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(ApiResponse{Message: "ok", Status: fiber.StatusOK})
	})

	api := app.Group("/api/v1")

	/*=============================================================================
	| Bookings
	===============================================================================*/
	api.Post("/bookings", h.call(h.bookings.CreateBooking, nil))
	api.Get("/bookings/:booking_id", h.call(h.bookings.GetBooking, params("booking_id")))
	api.Post("/bookings/:booking_id/resume", h.call(h.bookings.ResumeBooking, params("booking_id")))
	api.Post("/bookings/:booking_id/cancel", h.call(h.bookings.CancelBooking, params("booking_id")))
	api.Get("/itineraries/:itinerary_id/bookings", h.call(h.bookings.ListItineraryBookings,
		params("itinerary_id").query("page", "page_size")))
	api.Post("/calendar-events/:event_id/retry", h.call(h.bookings.RetryCalendarSync, params("event_id")))

	/*=============================================================================
	| Replanning & budget
	===============================================================================*/
	api.Post("/itineraries/:itinerary_id/replan", h.call(h.replans.ReplanForDisruption, params("itinerary_id")))
	api.Get("/itineraries/:itinerary_id/budget", h.call(h.replans.EvaluateBudget,
		params("itinerary_id").query("proposed")))

	/*=============================================================================
	| Preferences
	===============================================================================*/
	api.Put("/users/:user_id/preferences", h.savePreferences)
}

type rpc func(context.Context, *structpb.Struct) (*structpb.Struct, error)

// call превращает HTTP-запрос в Struct: JSON-тело плюс параметры пути и числовые query-параметры.
func (h *Handler) call(fn rpc, in *inputs) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fields := map[string]any{}
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&fields); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
			}
		}
		if err := in.apply(c, fields); err != nil {
			return err
		}
		req, err := structpb.NewStruct(fields)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "unsupported request body")
		}

		resp, err := fn(c.UserContext(), req)
		if err != nil {
			return err
		}
		return c.JSON(ApiResponse{Message: "ok", Status: fiber.StatusOK, Data: resp.AsMap()})
	}
}

type savePreferencesRequest struct {
	Interests   []string       `json:"interests"`
	Constraints map[string]any `json:"constraints"`
	TravelPace  string         `json:"travel_pace"`
	TravelStyle string         `json:"travel_style"`
}

func (h *Handler) savePreferences(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("user_id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "user_id must be a uuid")
	}
	var req savePreferencesRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	prefs := planner.Preferences{
		UserID:      userID,
		Interests:   req.Interests,
		Constraints: req.Constraints,
		TravelPace:  req.TravelPace,
		TravelStyle: req.TravelStyle,
	}
	if err := h.prefs.Save(c.UserContext(), prefs); err != nil {
		return err
	}
	return c.JSON(ApiResponse{Message: "preferences saved", Status: fiber.StatusOK})
}

// observeRequests открывает span на запрос и пишет строку лога с итоговым статусом.
func observeRequests(log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, span := observe.Tracer().Start(c.UserContext(), c.Method()+" "+c.Path(),
			trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()
		c.SetUserContext(ctx)

		start := time.Now()
		err := c.Next()
		if err != nil {
			// Ответ пишет ErrorHandler; статус здесь нужен только для лога.
			if hErr := c.App().ErrorHandler(c, err); hErr != nil {
				return hErr
			}
		}

		code := c.Response().StatusCode()
		level := slog.LevelInfo
		if code >= fiber.StatusInternalServerError {
			level = slog.LevelError
			span.SetStatus(otelcodes.Error, strconv.Itoa(code))
		}
		log.LogAttrs(ctx, level, "http request",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Int("status", code),
			slog.Duration("duration", time.Since(start)),
		)
		return nil
	}
}

// errorHandler переводит ошибки fiber и статусы gRPC в HTTP-ответ.
func errorHandler(log *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(ApiResponse{Message: fe.Message, Status: fe.Code})
		}

		st, ok := status.FromError(err)
		if !ok {
			log.ErrorContext(c.UserContext(), "unhandled error", "error", err)
			return c.Status(fiber.StatusInternalServerError).
				JSON(ApiResponse{Message: "internal error", Status: fiber.StatusInternalServerError})
		}

		code := httpStatus(st.Code())
		resp := ApiResponse{Message: st.Message(), Status: code}
		for _, d := range st.Details() {
			if s, ok := d.(*structpb.Struct); ok {
				resp.Data = s.AsMap()
				break
			}
		}
		return c.Status(code).JSON(resp)
	}
}

func httpStatus(c codes.Code) int {
	switch c {
	case codes.OK:
		return fiber.StatusOK
	case codes.InvalidArgument:
		return fiber.StatusBadRequest
	case codes.NotFound:
		return fiber.StatusNotFound
	case codes.AlreadyExists, codes.FailedPrecondition, codes.Aborted:
		return fiber.StatusConflict
	case codes.Unimplemented:
		return fiber.StatusNotImplemented
	case codes.DeadlineExceeded:
		return fiber.StatusGatewayTimeout
	case codes.Unavailable:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
