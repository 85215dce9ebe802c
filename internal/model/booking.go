package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingStatusPending             BookingStatus = "Pending"
	BookingStatusPaymentFailed       BookingStatus = "PaymentFailed"
	BookingStatusConfirmed           BookingStatus = "Confirmed"
	BookingStatusPendingConfirmation BookingStatus = "PendingConfirmation"
	BookingStatusCancelled           BookingStatus = "Cancelled"
	BookingStatusError               BookingStatus = "Error"
)

func (s BookingStatus) String() string { return string(s) }

func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusPending, BookingStatusPaymentFailed, BookingStatusConfirmed,
		BookingStatusPendingConfirmation, BookingStatusCancelled, BookingStatusError:
		return true
	default:
		return false
	}
}

// IsLive — бронирование занимает активность (на одну активность допускается одно живое).
func (s BookingStatus) IsLive() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed || s == BookingStatusPendingConfirmation
}

// bookings
//
// ActivityID намеренно без внешнего ключа: отменённые бронирования остаются
// в истории после удаления активности при перепланировании.
type Booking struct {
	ID               uuid.UUID     `gorm:"type:uuid;primaryKey"`
	ActivityID       uuid.UUID     `gorm:"type:uuid;not null;index"`
	ProviderID       uuid.UUID     `gorm:"type:uuid;not null;index"`
	Status           BookingStatus `gorm:"type:varchar(32);not null;index"`
	Price            float64       `gorm:"not null"`
	ConfirmationCode *string       `gorm:"type:varchar(64)"`
	IdempotencyKey   string        `gorm:"type:varchar(64);not null;uniqueIndex"`
	// Версия для оптимистической блокировки: каждая смена статуса идёт через WHERE version = ?.
	Version int `gorm:"not null;default:1"`
	// Аренда списания: пока срок не истёк, оплату этого бронирования ведёт один вызов.
	ChargingUntil *time.Time
	CancelledAt   *time.Time
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`

	Provider *Provider `gorm:"foreignKey:ProviderID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (b *Booking) BeforeCreate(*gorm.DB) error {
	ensureID(&b.ID)
	if b.Version == 0 {
		b.Version = 1
	}
	return nil
}
