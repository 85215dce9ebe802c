// Package demo заполняет пустую базу демонстрационным маршрутом по Сиднею.
package demo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/travel-core/internal/model"
	"github.com/Leganyst/travel-core/internal/repository"
)

// Result — идентификаторы созданных записей, нужны для ручных запросов к API.
type Result struct {
	ProviderID  uuid.UUID
	ItineraryID uuid.UUID
	UserID      uuid.UUID
	Activities  []model.Activity
}

var places = []model.Place{
	{Name: "Sydney Opera House", Category: "attraction", OpeningHours: "09:00-17:00", Indoor: true},
	{Name: "Bondi Beach", Category: "beach", OpeningHours: "00:00-24:00"},
	{Name: "Royal Botanic Garden", Category: "park", OpeningHours: "07:00-18:00"},
	{Name: "Australian Museum", Category: "museum", OpeningHours: "09:30-17:00", Indoor: true},
	{Name: "SEA LIFE Sydney Aquarium", Category: "aquarium", OpeningHours: "10:00-17:00", Indoor: true},
	{Name: "Doyle's Seafood", Category: "restaurant", OpeningHours: "12:00-21:00", Indoor: true},
}

// Seed создаёт поставщика, реестр мест, маршрут на день и бюджет.
// Все записи пишутся одной транзакцией.
func Seed(ctx context.Context, store *repository.Store, day time.Time, log *slog.Logger) (*Result, error) {
	res := &Result{UserID: uuid.New()}
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)

	err := store.Transaction(ctx, func(tx *repository.Store) error {
		provider := &model.Provider{DisplayName: "Harbour Tours", Description: "Экскурсии и столики в Сиднее", ExternalRef: "harbour"}
		if err := tx.Providers.Create(ctx, provider); err != nil {
			return fmt.Errorf("create provider: %w", err)
		}
		res.ProviderID = provider.ID

		byName := make(map[string]uuid.UUID, len(places))
		for _, p := range places {
			if err := tx.Places.Create(ctx, &p); err != nil {
				return fmt.Errorf("create place %q: %w", p.Name, err)
			}
			byName[p.Name] = p.ID
		}

		at := func(hour int) time.Time { return day.Add(time.Duration(hour) * time.Hour) }
		activity := func(typ model.ActivityType, place string, hour, hours int) model.Activity {
			id := byName[place]
			return model.Activity{Type: typ, PlaceID: &id, Name: place, StartTime: at(hour), EndTime: at(hour + hours)}
		}

		it := &model.Itinerary{
			UserID: res.UserID,
			Title:  "Sydney in a day",
			Days: []model.ItineraryDay{{
				DayNumber: 1,
				Date:      day,
				Activities: []model.Activity{
					activity(model.ActivityTypeVisitPOI, "Bondi Beach", 9, 2),
					activity(model.ActivityTypeMeal, "Doyle's Seafood", 12, 1),
					activity(model.ActivityTypeVisitPOI, "Royal Botanic Garden", 14, 2),
					activity(model.ActivityTypeIndoor, "Sydney Opera House", 19, 2),
				},
			}},
		}
		if err := tx.Itineraries.Create(ctx, it); err != nil {
			return fmt.Errorf("create itinerary: %w", err)
		}
		res.ItineraryID = it.ID

		return tx.Budgets.SetLimits(ctx, &model.Budget{ItineraryID: it.ID, TotalLimit: 600, DailyLimit: 250})
	})
	if err != nil {
		return nil, err
	}

	it, err := store.Itineraries.GetWithActivities(ctx, res.ItineraryID)
	if err != nil {
		return nil, fmt.Errorf("reload itinerary: %w", err)
	}
	for _, d := range it.Days {
		res.Activities = append(res.Activities, d.Activities...)
	}

	log.InfoContext(ctx, "demo itinerary seeded",
		"itinerary_id", res.ItineraryID,
		"user_id", res.UserID,
		"provider_id", res.ProviderID,
		"activities", len(res.Activities),
	)
	for _, a := range res.Activities {
		log.InfoContext(ctx, "demo activity", "activity_id", a.ID, "type", a.Type, "name", a.Name, "start", a.StartTime.Format(time.RFC3339))
	}
	return res, nil
}
