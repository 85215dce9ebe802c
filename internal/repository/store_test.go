package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Leganyst/travel-core/internal/db/dbtest"
	"github.com/Leganyst/travel-core/internal/model"
	"github.com/Leganyst/travel-core/internal/repository"
)

func newBooking(f *dbtest.Fixture, activityID uuid.UUID, status model.BookingStatus) *model.Booking {
	return &model.Booking{
		ActivityID:     activityID,
		ProviderID:     f.Provider.ID,
		Status:         status,
		Price:          120,
		IdempotencyKey: uuid.NewString(),
	}
}

func TestBookingRepository_UpdateStatusChecksVersion(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db, nil)
	act := f.AddActivity(t, db, model.ActivityTypeVisitPOI, "Opera House", 9)
	store := repository.NewStore(db)

	b := newBooking(f, act.ID, model.BookingStatusPending)
	require.NoError(t, store.Bookings.Create(ctx, b))
	require.Equal(t, 1, b.Version)

	code := "CONF-1234"
	v, err := store.Bookings.UpdateStatus(ctx, b.ID, repository.StatusUpdate{
		Status:           model.BookingStatusConfirmed,
		ConfirmationCode: &code,
		ExpectedVersion:  1,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	// Повторная запись со старой версией должна быть отвергнута.
	_, err = store.Bookings.UpdateStatus(ctx, b.ID, repository.StatusUpdate{
		Status:          model.BookingStatusError,
		ExpectedVersion: 1,
	})
	require.ErrorIs(t, err, repository.ErrStaleBooking)

	got, err := store.Bookings.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusConfirmed, got.Status)
	require.NotNil(t, got.ConfirmationCode)
	assert.Equal(t, code, *got.ConfirmationCode)
	assert.Equal(t, 2, got.Version)
}

func TestBookingRepository_OneLiveBookingPerActivity(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db, nil)
	act := f.AddActivity(t, db, model.ActivityTypeMeal, "Mr. Wong", 19)
	store := repository.NewStore(db)

	require.NoError(t, store.Bookings.Create(ctx, newBooking(f, act.ID, model.BookingStatusCancelled)))
	require.NoError(t, store.Bookings.Create(ctx, newBooking(f, act.ID, model.BookingStatusConfirmed)))

	live, err := store.Bookings.HasLiveForActivity(ctx, act.ID)
	require.NoError(t, err)
	assert.True(t, live)

	err = store.Bookings.Create(ctx, newBooking(f, act.ID, model.BookingStatusPending))
	assert.Error(t, err, "second live booking must violate the partial unique index")
}

func TestActivityRepository_ListWithBookings(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db, map[string]string{"Opera House": "landmark", "Mr. Wong": "restaurant"})
	meal := f.AddActivity(t, db, model.ActivityTypeMeal, "Mr. Wong", 19)
	poi := f.AddActivity(t, db, model.ActivityTypeVisitPOI, "Opera House", 9)
	store := repository.NewStore(db)

	b := newBooking(f, poi.ID, model.BookingStatusConfirmed)
	require.NoError(t, store.Bookings.Create(ctx, b))
	require.NoError(t, store.Bookings.Create(ctx, newBooking(f, meal.ID, model.BookingStatusCancelled)))

	rows, err := store.Activities.ListWithBookings(ctx, f.Itinerary.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, poi.ID, rows[0].ActivityID, "ordered by start time")
	require.NotNil(t, rows[0].BookingID)
	assert.Equal(t, b.ID, *rows[0].BookingID)
	require.NotNil(t, rows[0].BookingStatus)
	assert.Equal(t, model.BookingStatusConfirmed, *rows[0].BookingStatus)
	assert.Equal(t, "Opera House", rows[0].Title())

	assert.Equal(t, meal.ID, rows[1].ActivityID)
	assert.Nil(t, rows[1].BookingID, "cancelled bookings are not joined")

	itID, err := store.Activities.ItineraryIDOf(ctx, meal.ID)
	require.NoError(t, err)
	assert.Equal(t, f.Itinerary.ID, itID)
}

func TestBudgetRepository_Sums(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db, nil)
	store := repository.NewStore(db)

	limits, err := store.Budgets.GetLimits(ctx, f.Itinerary.ID)
	require.NoError(t, err)
	assert.Zero(t, limits.TotalLimit, "missing budget reads as zero limits")

	require.NoError(t, store.Budgets.SetLimits(ctx, &model.Budget{ItineraryID: f.Itinerary.ID, TotalLimit: 1000, DailyLimit: 200}))
	require.NoError(t, store.Budgets.SetLimits(ctx, &model.Budget{ItineraryID: f.Itinerary.ID, TotalLimit: 1500, DailyLimit: 250}))

	limits, err = store.Budgets.GetLimits(ctx, f.Itinerary.ID)
	require.NoError(t, err)
	assert.Equal(t, 1500.0, limits.TotalLimit)
	assert.Equal(t, 250.0, limits.DailyLimit)

	day := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	for _, e := range []model.Expense{
		{ItineraryID: f.Itinerary.ID, Category: "food", Amount: 40, SpentAt: day.Add(12 * time.Hour)},
		{ItineraryID: f.Itinerary.ID, Category: "tickets", Amount: 60, SpentAt: day.Add(15 * time.Hour)},
		{ItineraryID: f.Itinerary.ID, Category: "hotel", Amount: 300, SpentAt: day.Add(-time.Hour)},
	} {
		require.NoError(t, store.Budgets.AddExpense(ctx, &e))
	}

	total, err := store.Budgets.SumExpenses(ctx, f.Itinerary.ID)
	require.NoError(t, err)
	assert.Equal(t, 400.0, total)

	today, err := store.Budgets.SumExpensesBetween(ctx, f.Itinerary.ID, day, day.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 100.0, today)
}

func TestStore_TransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db, nil)
	act := f.AddActivity(t, db, model.ActivityTypeVisitPOI, "Zoo", 10)
	store := repository.NewStore(db)

	boom := errors.New("boom")
	err := store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Activities.DeleteByIDs(ctx, []uuid.UUID{act.ID}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = store.Activities.GetByID(ctx, act.ID)
	assert.NoError(t, err, "activity survives a rolled back delete")
}

func TestBookingRepository_ListLiveByActivities(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db, nil)
	poi := f.AddActivity(t, db, model.ActivityTypeVisitPOI, "Opera House", 9)
	meal := f.AddActivity(t, db, model.ActivityTypeMeal, "Mr. Wong", 13)
	other := f.AddActivity(t, db, model.ActivityTypeVisitPOI, "Bondi", 16)
	store := repository.NewStore(db)

	pending := newBooking(f, poi.ID, model.BookingStatusPending)
	require.NoError(t, store.Bookings.Create(ctx, pending))
	require.NoError(t, store.Bookings.Create(ctx, newBooking(f, meal.ID, model.BookingStatusCancelled)))
	require.NoError(t, store.Bookings.Create(ctx, newBooking(f, other.ID, model.BookingStatusConfirmed)))

	live, err := store.Bookings.ListLiveByActivities(ctx, []uuid.UUID{poi.ID, meal.ID})
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, pending.ID, live[0].ID)

	live, err = store.Bookings.ListLiveByActivities(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, live)
}

func TestActivityRepository_LockByIDs(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db, nil)
	act := f.AddActivity(t, db, model.ActivityTypeVisitPOI, "Opera House", 9)
	store := repository.NewStore(db)

	err := store.Transaction(ctx, func(tx *repository.Store) error {
		found, err := tx.Activities.LockByIDs(ctx, []uuid.UUID{act.ID, uuid.New()})
		if err != nil {
			return err
		}
		assert.Equal(t, []uuid.UUID{act.ID}, found, "missing ids are not returned")
		return nil
	})
	require.NoError(t, err)
}

func TestCalendarEventRepository_MarkSyncedOnlyPending(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db, nil)
	act := f.AddActivity(t, db, model.ActivityTypeVisitPOI, "Opera House", 9)
	store := repository.NewStore(db)

	b := newBooking(f, act.ID, model.BookingStatusConfirmed)
	require.NoError(t, store.Bookings.Create(ctx, b))
	ev := &model.CalendarEvent{
		BookingID:  b.ID,
		Title:      "Booking: Opera House",
		StartTime:  act.StartTime,
		EndTime:    act.EndTime,
		SyncStatus: model.SyncStatusPending,
	}
	require.NoError(t, store.CalendarEvents.Create(ctx, ev))

	_, err := store.CalendarEvents.MarkFailedByBooking(ctx, b.ID)
	require.NoError(t, err)

	synced, err := store.CalendarEvents.MarkSynced(ctx, ev.ID, "ext-1", time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, synced)

	got, err := store.CalendarEvents.GetByID(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SyncStatusFailed, got.SyncStatus)
	assert.Nil(t, got.ExternalID)
}

func TestBookingRepository_ClaimChargeLease(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db, nil)
	act := f.AddActivity(t, db, model.ActivityTypeVisitPOI, "Opera House", 9)
	store := repository.NewStore(db)

	b := newBooking(f, act.ID, model.BookingStatusPending)
	require.NoError(t, store.Bookings.Create(ctx, b))

	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	claimed, err := store.Bookings.ClaimCharge(ctx, b.ID, now, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, claimed.Version)
	require.NotNil(t, claimed.ChargingUntil)

	// Пока аренда действует, второй вызов её не получит.
	_, err = store.Bookings.ClaimCharge(ctx, b.ID, now.Add(30*time.Second), now.Add(2*time.Minute))
	require.ErrorIs(t, err, repository.ErrChargeNotClaimed)

	// Снятая аренда доступна сразу.
	require.NoError(t, store.Bookings.ReleaseCharge(ctx, b.ID, claimed.Version))
	again, err := store.Bookings.ClaimCharge(ctx, b.ID, now.Add(30*time.Second), now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 3, again.Version)

	// Истёкшая аренда тоже.
	_, err = store.Bookings.ClaimCharge(ctx, b.ID, now.Add(3*time.Minute), now.Add(4*time.Minute))
	require.NoError(t, err)

	_, err = store.Bookings.UpdateStatus(ctx, b.ID, repository.StatusUpdate{
		Status:          model.BookingStatusCancelled,
		ExpectedVersion: 4,
	})
	require.NoError(t, err)
	_, err = store.Bookings.ClaimCharge(ctx, b.ID, now.Add(time.Hour), now.Add(2*time.Hour))
	require.ErrorIs(t, err, repository.ErrChargeNotClaimed, "only pending bookings are charged")
}

func TestBudgetRepository_RecordBookingExpenseOnce(t *testing.T) {
	ctx := context.Background()
	db := dbtest.Open(t)
	f := dbtest.Seed(t, db, nil)
	act := f.AddActivity(t, db, model.ActivityTypeVisitPOI, "Opera House", 9)
	store := repository.NewStore(db)

	b := newBooking(f, act.ID, model.BookingStatusPending)
	require.NoError(t, store.Bookings.Create(ctx, b))

	for i, want := range []bool{true, false} {
		recorded, err := store.Budgets.RecordBookingExpense(ctx, &model.Expense{
			ItineraryID: f.Itinerary.ID,
			BookingID:   &b.ID,
			Category:    "booking",
			Amount:      b.Price,
			SpentAt:     f.Day.Date,
		})
		require.NoError(t, err)
		assert.Equal(t, want, recorded, "attempt %d", i+1)
	}

	spent, err := store.Budgets.SumExpenses(ctx, f.Itinerary.ID)
	require.NoError(t, err)
	assert.Equal(t, b.Price, spent)
}
