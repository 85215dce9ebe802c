package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/travel-core/internal/model"
)

var (
	// ErrStaleBooking — строку бронирования успели изменить между чтением и записью.
	ErrStaleBooking = errors.New("booking was modified concurrently")
	// ErrChargeNotClaimed — бронирование не в Pending или его оплату уже ведёт другой вызов.
	ErrChargeNotClaimed = errors.New("booking charge not claimed")
)

// StatusUpdate — изменение статуса бронирования с проверкой версии.
type StatusUpdate struct {
	Status           model.BookingStatus
	ConfirmationCode *string
	CancelledAt      *time.Time
	// Версия, прочитанная вызывающим; запись проходит только если она не изменилась.
	ExpectedVersion int
}

type BookingRepository interface {
	// Создать новое бронирование.
	Create(ctx context.Context, booking *model.Booking) error
	// Получить бронирование по ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	// Есть ли у активности живое бронирование (Pending/Confirmed/PendingConfirmation).
	HasLiveForActivity(ctx context.Context, activityID uuid.UUID) (bool, error)
	// Живые бронирования указанных активностей.
	ListLiveByActivities(ctx context.Context, activityIDs []uuid.UUID) ([]model.Booking, error)
	// Обновить статус с оптимистической блокировкой. Возвращает новую версию.
	UpdateStatus(ctx context.Context, id uuid.UUID, upd StatusUpdate) (int, error)
	// Поднять версию без смены статуса, если статус всё ещё status. Блокирует строку до конца транзакции.
	ClaimVersion(ctx context.Context, id uuid.UUID, expectedVersion int, status model.BookingStatus) (int, error)
	// Взять аренду списания: статус Pending и нет действующей аренды на момент now.
	// Поднимает версию и возвращает бронирование после записи.
	ClaimCharge(ctx context.Context, id uuid.UUID, now, until time.Time) (*model.Booking, error)
	// Снять аренду, если бронирование всё ещё в Pending и версия не менялась.
	ReleaseCharge(ctx context.Context, id uuid.UUID, version int) error
	// Бронирования всех активностей маршрута, новые сверху.
	ListByItinerary(ctx context.Context, itineraryID uuid.UUID) ([]model.Booking, error)
}

// Реализация на GORM.
type GormBookingRepository struct {
	db *gorm.DB
}

func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

func (r *GormBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

func (r *GormBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	var b model.Booking
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

var liveStatuses = []model.BookingStatus{
	model.BookingStatusPending,
	model.BookingStatusConfirmed,
	model.BookingStatusPendingConfirmation,
}

func (r *GormBookingRepository) HasLiveForActivity(ctx context.Context, activityID uuid.UUID) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("activity_id = ?", activityID).
		Where("status IN ?", liveStatuses).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *GormBookingRepository) ListLiveByActivities(ctx context.Context, activityIDs []uuid.UUID) ([]model.Booking, error) {
	if len(activityIDs) == 0 {
		return nil, nil
	}
	var bookings []model.Booking
	err := r.db.WithContext(ctx).
		Where("activity_id IN ?", activityIDs).
		Where("status IN ?", liveStatuses).
		Order("created_at, id").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *GormBookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, upd StatusUpdate) (int, error) {
	update := map[string]any{
		"status":  upd.Status,
		"version": gorm.Expr("version + 1"),
	}
	if upd.ConfirmationCode != nil {
		update["confirmation_code"] = *upd.ConfirmationCode
	}
	if upd.CancelledAt != nil {
		update["cancelled_at"] = *upd.CancelledAt
	}

	res := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("id = ? AND version = ?", id, upd.ExpectedVersion).
		Updates(update)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrStaleBooking
	}
	return upd.ExpectedVersion + 1, nil
}

func (r *GormBookingRepository) ClaimVersion(
	ctx context.Context,
	id uuid.UUID,
	expectedVersion int,
	status model.BookingStatus,
) (int, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("id = ? AND version = ? AND status = ?", id, expectedVersion, status).
		Update("version", gorm.Expr("version + 1"))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, ErrStaleBooking
	}
	return expectedVersion + 1, nil
}

func (r *GormBookingRepository) ClaimCharge(ctx context.Context, id uuid.UUID, now, until time.Time) (*model.Booking, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("id = ? AND status = ?", id, model.BookingStatusPending).
		Where("(charging_until IS NULL OR charging_until <= ?)", now).
		Updates(map[string]any{
			"charging_until": until,
			"version":        gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrChargeNotClaimed
	}
	return r.GetByID(ctx, id)
}

func (r *GormBookingRepository) ReleaseCharge(ctx context.Context, id uuid.UUID, version int) error {
	return r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("id = ? AND version = ? AND status = ?", id, version, model.BookingStatusPending).
		Update("charging_until", nil).Error
}

func (r *GormBookingRepository) ListByItinerary(ctx context.Context, itineraryID uuid.UUID) ([]model.Booking, error) {
	var bookings []model.Booking

	// Активность могла быть удалена при перепланировании, поэтому
	// связь с маршрутом дополнительно восстанавливаем через расходы.
	err := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where(`activity_id IN (
			SELECT a.id FROM activities a
			JOIN itinerary_days d ON d.id = a.day_id
			WHERE d.itinerary_id = ?
		) OR id IN (
			SELECT e.booking_id FROM expenses e
			WHERE e.itinerary_id = ? AND e.booking_id IS NOT NULL
		)`, itineraryID, itineraryID).
		Order("created_at DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}
