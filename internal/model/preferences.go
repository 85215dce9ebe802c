package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// preferences — сохранённые предпочтения пользователя (одна строка на пользователя).
type Preferences struct {
	UserID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	Interests   datatypes.JSON
	Constraints datatypes.JSON
	TravelPace  string `gorm:"type:varchar(16);not null;default:'normal'"`
	TravelStyle string `gorm:"type:varchar(16);not null;default:'Comfort'"`

	UpdatedAt time.Time `gorm:"not null"`
}
