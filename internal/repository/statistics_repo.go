package repository

import (
	"context"
	"fmt"
	"time"

	"occ-api/internal/model"

	"gorm.io/gorm"
)

type StatisticsRepository interface {
	Count(ctx context.Context, table interface{}) (int64, error)
	RegimeDistribution(ctx context.Context) ([]model.RegimeCount, error)
	AverageSavings(ctx context.Context) (float64, error)
	ReportsByMonth(ctx context.Context, since time.Time) ([]model.MonthlyReportCt, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

func (r *statisticsRepository) Count(ctx context.Context, table interface{}) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(table).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return n, nil
}

func (r *statisticsRepository) RegimeDistribution(ctx context.Context) ([]model.RegimeCount, error) {
	var rows []model.RegimeCount
	err := r.db.WithContext(ctx).Model(&model.TaxCalculationReport{}).
		Select("best_regime AS regime, COUNT(*) AS count").
		Group("best_regime").
		Order("count DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query regime distribution: %w", err)
	}
	return rows, nil
}

func (r *statisticsRepository) AverageSavings(ctx context.Context) (float64, error) {
	var avg float64
	err := r.db.WithContext(ctx).Model(&model.TaxCalculationReport{}).
		Select("COALESCE(AVG(savings), 0)").
		Scan(&avg).Error
	if err != nil {
		return 0, fmt.Errorf("failed to query average savings: %w", err)
	}
	return avg, nil
}

func (r *statisticsRepository) ReportsByMonth(ctx context.Context, since time.Time) ([]model.MonthlyReportCt, error) {
	var rows []model.MonthlyReportCt
	err := r.db.WithContext(ctx).Model(&model.TaxCalculationReport{}).
		Select("to_char(date_trunc('month', created_at), 'YYYY-MM') AS month, COUNT(*) AS count").
		Where("created_at >= ?", since).
		Group("month").
		Order("month ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query reports by month: %w", err)
	}
	return rows, nil
}
