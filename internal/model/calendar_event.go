package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SyncStatus string

const (
	SyncStatusPending SyncStatus = "Pending"
	SyncStatusSynced  SyncStatus = "Synced"
	SyncStatusFailed  SyncStatus = "Failed"
)

// calendar_events — никогда не удаляются: при отмене бронирования помечаются Failed.
type CalendarEvent struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BookingID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	Title      string     `gorm:"type:varchar(255);not null"`
	StartTime  time.Time  `gorm:"not null"`
	EndTime    time.Time  `gorm:"not null"`
	SyncStatus SyncStatus `gorm:"type:varchar(16);not null;index"`
	ExternalID *string    `gorm:"type:varchar(255)"`
	LastSynced *time.Time
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`

	Booking *Booking `gorm:"foreignKey:BookingID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (e *CalendarEvent) BeforeCreate(*gorm.DB) error {
	ensureID(&e.ID)
	return nil
}
