package repository

import (
	"context"

	"occ-api/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReportFilter struct {
	CompanyID *uuid.UUID
	Year      int
}

type TaxReportRepository interface {
	Create(ctx context.Context, report *model.TaxCalculationReport) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.TaxCalculationReport, error)
	List(ctx context.Context, filter ReportFilter, page Page) ([]model.TaxCalculationReport, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type taxReportRepository struct {
	db *gorm.DB
}

func NewTaxReportRepository(db *gorm.DB) TaxReportRepository {
	return &taxReportRepository{db: db}
}

func (r *taxReportRepository) Create(ctx context.Context, report *model.TaxCalculationReport) error {
	return GetDB(ctx, r.db).Omit("Company", "Creator").Create(report).Error
}

func (r *taxReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.TaxCalculationReport, error) {
	var report model.TaxCalculationReport
	err := GetDB(ctx, r.db).
		Preload("Company").
		Preload("Creator").
		First(&report, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// List omits the stored comparison snapshot; fetch a single report for it.
func (r *taxReportRepository) List(ctx context.Context, filter ReportFilter, page Page) ([]model.TaxCalculationReport, int64, error) {
	var reports []model.TaxCalculationReport
	var total int64

	query := GetDB(ctx, r.db).Model(&model.TaxCalculationReport{})
	if filter.CompanyID != nil {
		query = query.Where("company_id = ?", *filter.CompanyID)
	}
	if filter.Year > 0 {
		query = query.Where("year = ?", filter.Year)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := page.apply(query.
		Omit("result").
		Preload("Company").
		Preload("Creator").
		Order("created_at DESC")).
		Find(&reports).Error
	if err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

func (r *taxReportRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.TaxCalculationReport{}).Error
}
