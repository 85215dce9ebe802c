package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Leganyst/travel-core/internal/model"
)

type BudgetRepository interface {
	// Лимиты маршрута. Если бюджет не задан, возвращаются нулевые лимиты без ошибки.
	GetLimits(ctx context.Context, itineraryID uuid.UUID) (model.Budget, error)
	SetLimits(ctx context.Context, budget *model.Budget) error
	// Сумма всех расходов по маршруту.
	SumExpenses(ctx context.Context, itineraryID uuid.UUID) (float64, error)
	// Сумма расходов в полуинтервале [from, to).
	SumExpensesBetween(ctx context.Context, itineraryID uuid.UUID, from, to time.Time) (float64, error)
	AddExpense(ctx context.Context, expense *model.Expense) error
	// Записать расход бронирования, если такой категории по нему ещё нет.
	// false — расход уже был записан раньше.
	RecordBookingExpense(ctx context.Context, expense *model.Expense) (bool, error)
}

type GormBudgetRepository struct {
	db *gorm.DB
}

func NewGormBudgetRepository(db *gorm.DB) *GormBudgetRepository {
	return &GormBudgetRepository{db: db}
}

func (r *GormBudgetRepository) GetLimits(ctx context.Context, itineraryID uuid.UUID) (model.Budget, error) {
	var b model.Budget
	err := r.db.WithContext(ctx).First(&b, "itinerary_id = ?", itineraryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Budget{ItineraryID: itineraryID}, nil
	}
	if err != nil {
		return model.Budget{}, err
	}
	return b, nil
}

func (r *GormBudgetRepository) SetLimits(ctx context.Context, budget *model.Budget) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "itinerary_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"total_limit", "daily_limit", "updated_at"}),
		}).
		Create(budget).Error
}

func (r *GormBudgetRepository) SumExpenses(ctx context.Context, itineraryID uuid.UUID) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&model.Expense{}).
		Where("itinerary_id = ?", itineraryID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

func (r *GormBudgetRepository) SumExpensesBetween(ctx context.Context, itineraryID uuid.UUID, from, to time.Time) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&model.Expense{}).
		Where("itinerary_id = ?", itineraryID).
		Where("spent_at >= ? AND spent_at < ?", from, to).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}

func (r *GormBudgetRepository) AddExpense(ctx context.Context, expense *model.Expense) error {
	return r.db.WithContext(ctx).Create(expense).Error
}

func (r *GormBudgetRepository) RecordBookingExpense(ctx context.Context, expense *model.Expense) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "booking_id"}, {Name: "category"}},
			DoNothing: true,
		}).
		Create(expense)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
