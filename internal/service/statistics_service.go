package service

import (
	"context"
	"time"

	"occ-api/internal/model"
	"occ-api/internal/repository"
)

const dashboardMonths = 12

type StatisticsService interface {
	Dashboard(ctx context.Context) (*model.DashboardStats, error)
}

type statisticsService struct {
	repo repository.StatisticsRepository
	now  func() time.Time
}

func NewStatisticsService(repo repository.StatisticsRepository) StatisticsService {
	return &statisticsService{repo: repo, now: time.Now}
}

// Dashboard aggregates counts and report trends for the staff home page.
func (s *statisticsService) Dashboard(ctx context.Context) (*model.DashboardStats, error) {
	var (
		stats model.DashboardStats
		err   error
	)
	if stats.TotalClients, err = s.repo.Count(ctx, &model.Client{}); err != nil {
		return nil, err
	}
	if stats.TotalReports, err = s.repo.Count(ctx, &model.TaxCalculationReport{}); err != nil {
		return nil, err
	}
	if stats.TotalPosts, err = s.repo.Count(ctx, &model.Post{}); err != nil {
		return nil, err
	}
	if stats.RegimeShare, err = s.repo.RegimeDistribution(ctx); err != nil {
		return nil, err
	}
	if stats.AverageSavings, err = s.repo.AverageSavings(ctx); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(dashboardMonths - 1), 0)
	rows, err := s.repo.ReportsByMonth(ctx, first)
	if err != nil {
		return nil, err
	}
	stats.ReportsByMonth = fillMonths(first, rows)
	return &stats, nil
}

// fillMonths returns one entry per month starting at first, with zero for
// months that had no reports.
func fillMonths(first time.Time, rows []model.MonthlyReportCt) []model.MonthlyReportCt {
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Month] = r.Count
	}
	out := make([]model.MonthlyReportCt, dashboardMonths)
	for i := range out {
		month := first.AddDate(0, i, 0).Format("2006-01")
		out[i] = model.MonthlyReportCt{Month: month, Count: counts[month]}
	}
	return out
}
