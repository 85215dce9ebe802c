package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// places — реестр мест, по которому валидируются кандидаты планировщика.
type Place struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name         string    `gorm:"type:varchar(255);not null"`
	Category     string    `gorm:"type:varchar(64);not null;index"`
	OpeningHours string    `gorm:"type:varchar(64)"`
	Indoor       bool      `gorm:"not null;default:false"`
}

func (p *Place) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
