package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ActivityType string

const (
	ActivityTypeVisitPOI ActivityType = "VisitPOI"
	ActivityTypeMeal     ActivityType = "Meal"
	ActivityTypeIndoor   ActivityType = "Indoor"
	ActivityTypeTransit  ActivityType = "Transit"
	ActivityTypeOther    ActivityType = "Other"
)

// itineraries
type Itinerary struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index"`
	Title  string    `gorm:"type:varchar(255);not null"`
	Status string    `gorm:"type:varchar(32);not null;default:'Planned'"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Days []ItineraryDay `gorm:"foreignKey:ItineraryID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (i *Itinerary) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}

// itinerary_days
type ItineraryDay struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	ItineraryID uuid.UUID `gorm:"type:uuid;not null;index"`
	DayNumber   int       `gorm:"not null"`
	Date        time.Time `gorm:"type:date"`

	Activities []Activity `gorm:"foreignKey:DayID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (d *ItineraryDay) BeforeCreate(*gorm.DB) error {
	ensureID(&d.ID)
	return nil
}

// activities
type Activity struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey"`
	DayID     uuid.UUID    `gorm:"type:uuid;not null;index"`
	Type      ActivityType `gorm:"type:varchar(32);not null;index"`
	PlaceID   *uuid.UUID   `gorm:"type:uuid;index"`
	Name      string       `gorm:"type:varchar(255)"`
	StartTime time.Time    `gorm:"not null;index"`
	EndTime   time.Time    `gorm:"not null"`
	// Оценка, с которой активность попала в план (0 для созданных вручную).
	Score int `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	Place *Place `gorm:"foreignKey:PlaceID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

func (a *Activity) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
