package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/travel-core/internal/model"
)

type PreferencesRepository interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Preferences, error)
	// Сохранить предпочтения, перезаписав предыдущие.
	Upsert(ctx context.Context, prefs *model.Preferences) error
}

type GormPreferencesRepository struct {
	db *gorm.DB
}

func NewGormPreferencesRepository(db *gorm.DB) *GormPreferencesRepository {
	return &GormPreferencesRepository{db: db}
}

func (r *GormPreferencesRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Preferences, error) {
	var p model.Preferences
	if err := r.db.WithContext(ctx).First(&p, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormPreferencesRepository) Upsert(ctx context.Context, prefs *model.Preferences) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(prefs).Error
}
