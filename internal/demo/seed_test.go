package demo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Leganyst/travel-core/internal/db/dbtest"
	"github.com/Leganyst/travel-core/internal/model"
	"github.com/Leganyst/travel-core/internal/observe"
	"github.com/Leganyst/travel-core/internal/repository"
)

func TestSeed(t *testing.T) {
	ctx := context.Background()
	store := repository.NewStore(dbtest.Open(t))

	res, err := Seed(ctx, store, time.Date(2026, 3, 14, 15, 30, 0, 0, time.UTC), observe.Discard())
	require.NoError(t, err)

	require.Len(t, res.Activities, 4)
	for i := 1; i < len(res.Activities); i++ {
		assert.True(t, res.Activities[i-1].StartTime.Before(res.Activities[i].StartTime), "activities ordered by start")
	}
	assert.Equal(t, model.ActivityTypeVisitPOI, res.Activities[0].Type)
	assert.Equal(t, time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC), res.Activities[0].StartTime.UTC())
	require.NotNil(t, res.Activities[0].Place)
	assert.Equal(t, "Bondi Beach", res.Activities[0].Place.Name)

	limits, err := store.Budgets.GetLimits(ctx, res.ItineraryID)
	require.NoError(t, err)
	assert.InDelta(t, 600, limits.TotalLimit, 1e-9)

	it, err := store.Itineraries.GetByID(ctx, res.ItineraryID)
	require.NoError(t, err)
	assert.Equal(t, res.UserID, it.UserID)

	museums, err := store.Places.FindByInterests(ctx, []string{"museum"})
	require.NoError(t, err)
	require.Len(t, museums, 1)
	assert.True(t, museums[0].Indoor)

	_, err = store.Providers.GetByID(ctx, res.ProviderID)
	require.NoError(t, err)
}
