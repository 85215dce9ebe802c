package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Leganyst/travel-core/internal/booking"
	"github.com/Leganyst/travel-core/internal/db/dbtest"
	"github.com/Leganyst/travel-core/internal/gateway/sim"
	"github.com/Leganyst/travel-core/internal/model"
	"github.com/Leganyst/travel-core/internal/observe"
	"github.com/Leganyst/travel-core/internal/planner"
	"github.com/Leganyst/travel-core/internal/replan"
	"github.com/Leganyst/travel-core/internal/repository"
	"github.com/Leganyst/travel-core/internal/service"
)

type restEnv struct {
	app      *fiber.App
	fixture  *dbtest.Fixture
	activity model.Activity
	prefs    *planner.PreferenceStore
}

func newRestEnv(t *testing.T, paymentLimit float64) *restEnv {
	t.Helper()

	db := dbtest.Open(t)
	f := dbtest.Seed(t, db, map[string]string{"Bondi Beach": "beach", "Australian Museum": "museum"})
	act := f.AddActivity(t, db, model.ActivityTypeVisitPOI, "Bondi Beach", 10)

	log := observe.Discard()
	store := repository.NewStore(db)
	mgr := booking.NewManager(store, booking.Gateways{
		Payment:  sim.NewPayment(log, paymentLimit),
		Provider: sim.NewProvider(log, 7),
		Calendar: sim.NewCalendar(log),
	}, booking.Timeouts{Payment: time.Second, Provider: time.Second, Calendar: time.Second}, log)
	prefs := planner.NewPreferenceStore(store.Itineraries, store.Preferences)
	orch := replan.NewOrchestrator(store, mgr, planner.NewRegistryGenerator(store.Places), log)

	app := NewApp(Config{}, service.NewBookingService(mgr, log), service.NewReplanService(orch, prefs, mgr, log), prefs, log)
	return &restEnv{app: app, fixture: f, activity: act, prefs: prefs}
}

func (e *restEnv) do(t *testing.T, method, path string, body any) (int, ApiResponse) {
	t.Helper()

	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out ApiResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func data(t *testing.T, r ApiResponse) map[string]any {
	t.Helper()
	m, ok := r.Data.(map[string]any)
	require.True(t, ok, "data is %T", r.Data)
	return m
}

func TestREST_PaymentDeclinedIsBusinessOutcome(t *testing.T) {
	e := newRestEnv(t, 10)

	code, resp := e.do(t, fiber.MethodPost, "/api/v1/bookings", map[string]any{
		"activity_id": e.activity.ID.String(),
		"provider_id": e.fixture.Provider.ID.String(),
		"price":       99,
	})
	require.Equal(t, fiber.StatusOK, code)
	d := data(t, resp)
	assert.Equal(t, "PaymentFailed", d["outcome"])

	code, resp = e.do(t, fiber.MethodGet, "/api/v1/bookings/"+d["booking_id"].(string), nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "PaymentFailed", data(t, resp)["booking"].(map[string]any)["status"])

	// Отменить неуспешную оплату нельзя.
	code, resp = e.do(t, fiber.MethodPost, "/api/v1/bookings/"+d["booking_id"].(string)+"/cancel", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "NotCancellable", data(t, resp)["status"])

	// Отказ окончателен: продолжить можно только Pending после сбоя шлюза.
	code, resp = e.do(t, fiber.MethodPost, "/api/v1/bookings/"+d["booking_id"].(string)+"/resume", nil)
	assert.Equal(t, fiber.StatusConflict, code)
	assert.Equal(t, "Error", data(t, resp)["outcome"])

	code, resp = e.do(t, fiber.MethodGet, "/api/v1/itineraries/"+e.fixture.Itinerary.ID.String()+"/bookings?page=1&page_size=5", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.EqualValues(t, 1, data(t, resp)["total"])
}

func TestREST_ErrorMapping(t *testing.T) {
	e := newRestEnv(t, 1000)

	code, resp := e.do(t, fiber.MethodPost, "/api/v1/bookings", map[string]any{
		"activity_id": uuid.NewString(),
		"provider_id": e.fixture.Provider.ID.String(),
		"price":       5,
	})
	assert.Equal(t, fiber.StatusNotFound, code)
	assert.Equal(t, "activity not found", resp.Message)
	assert.Equal(t, "Error", data(t, resp)["outcome"])

	code, _ = e.do(t, fiber.MethodGet, "/api/v1/bookings/not-a-uuid", nil)
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, _ = e.do(t, fiber.MethodGet, "/api/v1/bookings/"+uuid.NewString(), nil)
	assert.Equal(t, fiber.StatusNotFound, code)

	code, _ = e.do(t, fiber.MethodGet, "/api/v1/itineraries/"+e.fixture.Itinerary.ID.String()+"/budget?proposed=abc", nil)
	assert.Equal(t, fiber.StatusBadRequest, code)

	code, _ = e.do(t, fiber.MethodPost, "/api/v1/itineraries/"+e.fixture.Itinerary.ID.String()+"/replan",
		map[string]any{"disruption": map[string]any{"type": "weather"}})
	assert.Equal(t, fiber.StatusBadRequest, code)
}

func TestREST_ReplanUsesSavedPreferences(t *testing.T) {
	e := newRestEnv(t, 1000)
	userID := e.fixture.Itinerary.UserID

	code, _ := e.do(t, fiber.MethodPut, "/api/v1/users/"+userID.String()+"/preferences", map[string]any{
		"interests": []string{"museum"},
	})
	require.Equal(t, fiber.StatusOK, code)

	saved, err := e.prefs.ForUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, []string{"museum"}, saved.Interests)

	code, resp := e.do(t, fiber.MethodPost, "/api/v1/itineraries/"+e.fixture.Itinerary.ID.String()+"/replan",
		map[string]any{"disruption": map[string]any{"type": "weather", "detail": "heavy_rain"}})
	require.Equal(t, fiber.StatusOK, code)
	d := data(t, resp)
	assert.Equal(t, "Replanned", d["status"])
	plan := d["new_plan"].([]any)
	require.Len(t, plan, 1)
	assert.Equal(t, "Australian Museum", plan[0].(map[string]any)["name"])
	assert.EqualValues(t, 10, plan[0].(map[string]any)["score"])

	code, resp = e.do(t, fiber.MethodPost, "/api/v1/itineraries/"+e.fixture.Itinerary.ID.String()+"/replan",
		map[string]any{"disruption": map[string]any{"type": "weather", "detail": "clear_sky"}})
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "NoChange", data(t, resp)["status"])

	code, resp = e.do(t, fiber.MethodGet, "/api/v1/itineraries/"+e.fixture.Itinerary.ID.String()+"/budget?proposed=40", nil)
	require.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "Sufficient", data(t, resp)["advisory"].(map[string]any)["level"])
}

func TestREST_Healthz(t *testing.T) {
	e := newRestEnv(t, 1000)
	code, resp := e.do(t, fiber.MethodGet, "/healthz", nil)
	assert.Equal(t, fiber.StatusOK, code)
	assert.Equal(t, "ok", resp.Message)
}
