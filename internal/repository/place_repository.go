package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/travel-core/internal/model"
)

// PlaceRepository — реестр мест, по которому проверяются кандидаты планировщика.
type PlaceRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Place, error)
	// Места, категория которых содержит хотя бы один из интересов. Пустой список — все места.
	FindByInterests(ctx context.Context, interests []string) ([]model.Place, error)
	Create(ctx context.Context, place *model.Place) error
}

type GormPlaceRepository struct {
	db *gorm.DB
}

func NewGormPlaceRepository(db *gorm.DB) *GormPlaceRepository {
	return &GormPlaceRepository{db: db}
}

func (r *GormPlaceRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Place, error) {
	var p model.Place
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormPlaceRepository) FindByInterests(ctx context.Context, interests []string) ([]model.Place, error) {
	q := r.db.WithContext(ctx).Model(&model.Place{})
	if len(interests) > 0 {
		cond := r.db.Where("1 = 0")
		for _, in := range interests {
			cond = cond.Or("LOWER(category) LIKE ?", "%"+strings.ToLower(in)+"%")
		}
		q = q.Where(cond)
	}

	var places []model.Place
	if err := q.Order("name").Find(&places).Error; err != nil {
		return nil, err
	}
	return places, nil
}

func (r *GormPlaceRepository) Create(ctx context.Context, place *model.Place) error {
	return r.db.WithContext(ctx).Create(place).Error
}
