package service

import (
	"context"
	"testing"
	"time"

	"occ-api/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardFillsTwelveMonths(t *testing.T) {
	repo := &mockStatsRepo{
		counts: map[string]int64{"clients": 4, "reports": 9, "posts": 2},
		months: []model.MonthlyReportCt{{Month: "2024-02", Count: 5}, {Month: "2024-06", Count: 4}},
	}
	svc := NewStatisticsService(repo).(*statisticsService)
	svc.now = func() time.Time { return time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC) }

	stats, err := svc.Dashboard(context.Background())
	require.NoError(t, err)

	assert.EqualValues(t, 4, stats.TotalClients)
	assert.EqualValues(t, 9, stats.TotalReports)
	assert.EqualValues(t, 2, stats.TotalPosts)
	assert.Equal(t, 1234.5, stats.AverageSavings)
	assert.Equal(t, time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC), repo.since)

	require.Len(t, stats.ReportsByMonth, 12)
	assert.Equal(t, "2023-07", stats.ReportsByMonth[0].Month)
	assert.Equal(t, "2024-06", stats.ReportsByMonth[11].Month)
	assert.EqualValues(t, 5, stats.ReportsByMonth[7].Count)
	assert.EqualValues(t, 4, stats.ReportsByMonth[11].Count)
	assert.EqualValues(t, 0, stats.ReportsByMonth[0].Count)
}
