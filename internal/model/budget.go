package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// budgets — лимиты по маршруту. Нулевой лимит означает «не задан».
type Budget struct {
	ItineraryID uuid.UUID `gorm:"type:uuid;primaryKey"`
	TotalLimit  float64   `gorm:"not null;default:0"`
	DailyLimit  float64   `gorm:"not null;default:0"`

	UpdatedAt time.Time `gorm:"not null"`
}

// expenses
//
// На одно бронирование не больше одного расхода каждой категории.
type Expense struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ItineraryID uuid.UUID  `gorm:"type:uuid;not null;index"`
	BookingID   *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_expenses_booking_category"`
	Category    string     `gorm:"type:varchar(64);not null;uniqueIndex:idx_expenses_booking_category"`
	Note        string     `gorm:"type:text"`
	Amount      float64    `gorm:"not null"`
	SpentAt     time.Time  `gorm:"not null;index"`

	CreatedAt time.Time `gorm:"not null"`
}

func (e *Expense) BeforeCreate(*gorm.DB) error {
	ensureID(&e.ID)
	return nil
}
