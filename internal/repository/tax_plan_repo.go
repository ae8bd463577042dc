package repository

import (
	"context"
	"time"

	"occ-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaxPlanFilter struct {
	ClientID *uuid.UUID
	Year     int
}

// MonthlyAmount is a per-month sum; Month is formatted "2006-01".
type MonthlyAmount struct {
	Month  string
	Amount float64
}

type TaxPlanRepository interface {
	Create(ctx context.Context, plan *model.TaxPlan) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.TaxPlan, error)
	List(ctx context.Context, filter TaxPlanFilter, page Page) ([]model.TaxPlan, int64, error)
	Update(ctx context.Context, plan *model.TaxPlan) error
	Delete(ctx context.Context, id uuid.UUID) error

	AddRevenue(ctx context.Context, rev *model.PlanRevenue) error
	DeleteRevenue(ctx context.Context, planID, id uuid.UUID) (int64, error)
	AddExpense(ctx context.Context, exp *model.PlanExpense) error
	DeleteExpense(ctx context.Context, planID, id uuid.UUID) (int64, error)

	RevenueByMonth(ctx context.Context, planID uuid.UUID) ([]MonthlyAmount, error)
	ExpenseByMonth(ctx context.Context, planID uuid.UUID) ([]MonthlyAmount, error)
	CreditableExpenses(ctx context.Context, planID uuid.UUID) (float64, error)
}

type taxPlanRepository struct {
	db *gorm.DB
}

func NewTaxPlanRepository(db *gorm.DB) TaxPlanRepository {
	return &taxPlanRepository{db: db}
}

func (r *taxPlanRepository) Create(ctx context.Context, plan *model.TaxPlan) error {
	return GetDB(ctx, r.db).Omit("Client", "Revenues", "Expenses").Create(plan).Error
}

func (r *taxPlanRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.TaxPlan, error) {
	var plan model.TaxPlan
	err := GetDB(ctx, r.db).
		Preload("Client").
		Preload("Revenues", func(db *gorm.DB) *gorm.DB { return db.Order("date ASC") }).
		Preload("Expenses", func(db *gorm.DB) *gorm.DB { return db.Order("date ASC") }).
		First(&plan, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *taxPlanRepository) List(ctx context.Context, filter TaxPlanFilter, page Page) ([]model.TaxPlan, int64, error) {
	var plans []model.TaxPlan
	var total int64

	query := GetDB(ctx, r.db).Model(&model.TaxPlan{})
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.Year > 0 {
		query = query.Where("year = ?", filter.Year)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := page.apply(query.Preload("Client").Order("year DESC, created_at DESC")).Find(&plans).Error; err != nil {
		return nil, 0, err
	}
	return plans, total, nil
}

func (r *taxPlanRepository) Update(ctx context.Context, plan *model.TaxPlan) error {
	return GetDB(ctx, r.db).Omit("Client", "Revenues", "Expenses").Save(plan).Error
}

func (r *taxPlanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("plan_id = ?", id).Delete(&model.PlanRevenue{}).Error; err != nil {
		return err
	}
	if err := db.Where("plan_id = ?", id).Delete(&model.PlanExpense{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.TaxPlan{}).Error
}

func (r *taxPlanRepository) AddRevenue(ctx context.Context, rev *model.PlanRevenue) error {
	return GetDB(ctx, r.db).Create(rev).Error
}

func (r *taxPlanRepository) DeleteRevenue(ctx context.Context, planID, id uuid.UUID) (int64, error) {
	res := GetDB(ctx, r.db).Where("id = ? AND plan_id = ?", id, planID).Delete(&model.PlanRevenue{})
	return res.RowsAffected, res.Error
}

func (r *taxPlanRepository) AddExpense(ctx context.Context, exp *model.PlanExpense) error {
	return GetDB(ctx, r.db).Create(exp).Error
}

func (r *taxPlanRepository) DeleteExpense(ctx context.Context, planID, id uuid.UUID) (int64, error) {
	res := GetDB(ctx, r.db).Where("id = ? AND plan_id = ?", id, planID).Delete(&model.PlanExpense{})
	return res.RowsAffected, res.Error
}

func (r *taxPlanRepository) RevenueByMonth(ctx context.Context, planID uuid.UUID) ([]MonthlyAmount, error) {
	return r.byMonth(ctx, &model.PlanRevenue{}, planID)
}

func (r *taxPlanRepository) ExpenseByMonth(ctx context.Context, planID uuid.UUID) ([]MonthlyAmount, error) {
	return r.byMonth(ctx, &model.PlanExpense{}, planID)
}

func (r *taxPlanRepository) byMonth(ctx context.Context, table interface{}, planID uuid.UUID) ([]MonthlyAmount, error) {
	var rows []struct {
		Month  time.Time
		Amount float64
	}
	err := GetDB(ctx, r.db).Model(table).
		Select("date_trunc('month', date) AS month, COALESCE(SUM(amount), 0) AS amount").
		Where("plan_id = ?", planID).
		Group("month").
		Order("month ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]MonthlyAmount, 0, len(rows))
	for _, row := range rows {
		out = append(out, MonthlyAmount{Month: row.Month.Format("2006-01"), Amount: row.Amount})
	}
	return out, nil
}

func (r *taxPlanRepository) CreditableExpenses(ctx context.Context, planID uuid.UUID) (float64, error) {
	var total float64
	err := GetDB(ctx, r.db).Model(&model.PlanExpense{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("plan_id = ? AND creditable = ?", planID, true).
		Scan(&total).Error
	return total, err
}
