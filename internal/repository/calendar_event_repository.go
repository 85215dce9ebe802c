package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/travel-core/internal/model"
)

type CalendarEventRepository interface {
	Create(ctx context.Context, event *model.CalendarEvent) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.CalendarEvent, error)
	// Отметить событие синхронизированным с внешним календарём. false, если событие уже не Pending.
	MarkSynced(ctx context.Context, id uuid.UUID, externalID string, at time.Time) (bool, error)
	// Пометить Failed все события бронирования. Возвращает число изменённых строк.
	MarkFailedByBooking(ctx context.Context, bookingID uuid.UUID) (int64, error)
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]model.CalendarEvent, error)
}

type GormCalendarEventRepository struct {
	db *gorm.DB
}

func NewGormCalendarEventRepository(db *gorm.DB) *GormCalendarEventRepository {
	return &GormCalendarEventRepository{db: db}
}

func (r *GormCalendarEventRepository) Create(ctx context.Context, event *model.CalendarEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *GormCalendarEventRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.CalendarEvent, error) {
	var e model.CalendarEvent
	if err := r.db.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *GormCalendarEventRepository) MarkSynced(ctx context.Context, id uuid.UUID, externalID string, at time.Time) (bool, error) {
	// Отменённое бронирование могло успеть пометить событие Failed, его не трогаем.
	res := r.db.WithContext(ctx).
		Model(&model.CalendarEvent{}).
		Where("id = ? AND sync_status = ?", id, model.SyncStatusPending).
		Updates(map[string]any{
			"sync_status": model.SyncStatusSynced,
			"external_id": externalID,
			"last_synced": at,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *GormCalendarEventRepository) MarkFailedByBooking(ctx context.Context, bookingID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.CalendarEvent{}).
		Where("booking_id = ?", bookingID).
		Update("sync_status", model.SyncStatusFailed)
	return res.RowsAffected, res.Error
}

func (r *GormCalendarEventRepository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]model.CalendarEvent, error) {
	var events []model.CalendarEvent
	if err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
