package model

import "gorm.io/gorm"

// liveBookingIndex — не более одного живого бронирования на активность.
// Частичные индексы понимают и Postgres, и SQLite.
const liveBookingIndex = `CREATE UNIQUE INDEX IF NOT EXISTS ux_bookings_live_activity
	ON bookings (activity_id)
	WHERE status IN ('Pending', 'Confirmed', 'PendingConfirmation')`

// AutoMigrate выполняет миграцию всех сущностей ядра бронирований.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&Provider{},
		&Place{},
		&Itinerary{},
		&ItineraryDay{},
		&Activity{},
		&Booking{},
		&CalendarEvent{},
		&Budget{},
		&Expense{},
		&Preferences{},
		&Event{},
	); err != nil {
		return err
	}
	return db.Exec(liveBookingIndex).Error
}
