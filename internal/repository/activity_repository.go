package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/travel-core/internal/model"
)

// ActivityView — активность маршрута вместе с названием места и живым бронированием (если есть).
type ActivityView struct {
	ActivityID    uuid.UUID
	DayID         uuid.UUID
	Type          model.ActivityType
	Name          string
	PlaceID       *uuid.UUID
	PlaceName     *string
	StartTime     time.Time
	EndTime       time.Time
	Score         int
	BookingID     *uuid.UUID
	BookingStatus *model.BookingStatus
}

// Title — подпись активности для пользователя и календаря.
func (v ActivityView) Title() string {
	if v.PlaceName != nil && *v.PlaceName != "" {
		return *v.PlaceName
	}
	if v.Name != "" {
		return v.Name
	}
	return "Activity"
}

type ActivityRepository interface {
	// Активность вместе с местом.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Activity, error)
	// Маршрут, которому принадлежит активность.
	ItineraryIDOf(ctx context.Context, activityID uuid.UUID) (uuid.UUID, error)
	// Все активности маршрута с живыми бронированиями, по времени начала.
	ListWithBookings(ctx context.Context, itineraryID uuid.UUID) ([]ActivityView, error)
	// Заблокировать строки активностей до конца транзакции. Возвращает id найденных.
	LockByIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) error
	CreateBatch(ctx context.Context, activities []model.Activity) error
}

type GormActivityRepository struct {
	db *gorm.DB
}

func NewGormActivityRepository(db *gorm.DB) *GormActivityRepository {
	return &GormActivityRepository{db: db}
}

func (r *GormActivityRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Activity, error) {
	var a model.Activity
	if err := r.db.WithContext(ctx).
		Preload("Place").
		First(&a, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *GormActivityRepository) ItineraryIDOf(ctx context.Context, activityID uuid.UUID) (uuid.UUID, error) {
	var day model.ItineraryDay
	err := r.db.WithContext(ctx).
		Model(&model.ItineraryDay{}).
		Joins("JOIN activities a ON a.day_id = itinerary_days.id").
		Where("a.id = ?", activityID).
		First(&day).Error
	if err != nil {
		return uuid.Nil, err
	}
	return day.ItineraryID, nil
}

func (r *GormActivityRepository) ListWithBookings(ctx context.Context, itineraryID uuid.UUID) ([]ActivityView, error) {
	var rows []ActivityView
	err := r.db.WithContext(ctx).
		Table("activities AS a").
		Select(`a.id AS activity_id, a.day_id, a.type, a.name, a.place_id,
			p.name AS place_name, a.start_time, a.end_time, a.score,
			b.id AS booking_id, b.status AS booking_status`).
		Joins("JOIN itinerary_days d ON d.id = a.day_id").
		Joins("LEFT JOIN places p ON p.id = a.place_id").
		Joins("LEFT JOIN bookings b ON b.activity_id = a.id AND b.status IN ?", []model.BookingStatus{
			model.BookingStatusPending,
			model.BookingStatusConfirmed,
			model.BookingStatusPendingConfirmation,
		}).
		Where("d.itinerary_id = ?", itineraryID).
		Order("a.start_time, a.id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// LockByIDs берёт FOR UPDATE на postgres. В sqlite блокировок строк нет,
// там запись и так сериализована одним соединением.
func (r *GormActivityRepository) LockByIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&model.Activity{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id").
		Pluck("id", &found).Error
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (r *GormActivityRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&model.Activity{}).Error
}

func (r *GormActivityRepository) CreateBatch(ctx context.Context, activities []model.Activity) error {
	if len(activities) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&activities).Error
}
