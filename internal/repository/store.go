package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store собирает репозитории над одним соединением или одной транзакцией.
type Store struct {
	db *gorm.DB

	Bookings       BookingRepository
	CalendarEvents CalendarEventRepository
	Activities     ActivityRepository
	Itineraries    ItineraryRepository
	Places         PlaceRepository
	Budgets        BudgetRepository
	Events         EventRepository
	Providers      ProviderRepository
	Preferences    PreferencesRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:             db,
		Bookings:       NewGormBookingRepository(db),
		CalendarEvents: NewGormCalendarEventRepository(db),
		Activities:     NewGormActivityRepository(db),
		Itineraries:    NewGormItineraryRepository(db),
		Places:         NewGormPlaceRepository(db),
		Budgets:        NewGormBudgetRepository(db),
		Events:         NewGormEventRepository(db),
		Providers:      NewGormProviderRepository(db),
		Preferences:    NewGormPreferencesRepository(db),
	}
}

// Transaction выполняет fn в одной транзакции. Репозитории, переданные в fn,
// работают поверх tx; внешний Store внутри fn использовать нельзя.
// Ошибка или паника в fn откатывает транзакцию.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
