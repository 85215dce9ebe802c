package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/travel-core/internal/model"
)

type ItineraryRepository interface {
	// Создать маршрут вместе с днями и активностями.
	Create(ctx context.Context, itinerary *model.Itinerary) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Itinerary, error)
	// Маршрут с днями и активностями, упорядоченными по дню и времени начала.
	GetWithActivities(ctx context.Context, id uuid.UUID) (*model.Itinerary, error)
}

type GormItineraryRepository struct {
	db *gorm.DB
}

func NewGormItineraryRepository(db *gorm.DB) *GormItineraryRepository {
	return &GormItineraryRepository{db: db}
}

func (r *GormItineraryRepository) Create(ctx context.Context, itinerary *model.Itinerary) error {
	return r.db.WithContext(ctx).Create(itinerary).Error
}

func (r *GormItineraryRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Itinerary, error) {
	var it model.Itinerary
	if err := r.db.WithContext(ctx).First(&it, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *GormItineraryRepository) GetWithActivities(ctx context.Context, id uuid.UUID) (*model.Itinerary, error) {
	var it model.Itinerary
	err := r.db.WithContext(ctx).
		Preload("Days", func(db *gorm.DB) *gorm.DB { return db.Order("day_number") }).
		Preload("Days.Activities", func(db *gorm.DB) *gorm.DB { return db.Order("start_time") }).
		Preload("Days.Activities.Place").
		First(&it, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &it, nil
}
