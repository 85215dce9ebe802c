package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Тип события аудита.
type EventType string

const (
	EventTypeBookingCreated       EventType = "booking_created"
	EventTypeBookingStatusChanged EventType = "booking_status_changed"
	EventTypeBookingCancelled     EventType = "booking_cancelled"
	EventTypeCalendarSynced       EventType = "calendar_synced"
	EventTypeItineraryReplanned   EventType = "itinerary_replanned"
)

// events — события аудита. Пишутся в той же транзакции, что и изменение, которое описывают.
type Event struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	EventType EventType `gorm:"type:varchar(64);not null;index"`

	CreatedAt time.Time `gorm:"not null;index"`

	BookingID   *uuid.UUID `gorm:"type:uuid;index"`
	ItineraryID *uuid.UUID `gorm:"type:uuid;index"`

	FromStatus string `gorm:"type:varchar(32)"`
	ToStatus   string `gorm:"type:varchar(32)"`
	Details    string `gorm:"type:text"`
}

func (e *Event) BeforeCreate(*gorm.DB) error {
	ensureID(&e.ID)
	return nil
}
