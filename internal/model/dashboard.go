package model

// DashboardStats is the read model behind GET /api/statistics/dashboard.
type DashboardStats struct {
	TotalClients   int64             `json:"total_clients"`
	TotalReports   int64             `json:"total_reports"`
	TotalPosts     int64             `json:"total_posts"`
	RegimeShare    []RegimeCount     `json:"regime_distribution"`
	AverageSavings float64           `json:"average_savings"`
	ReportsByMonth []MonthlyReportCt `json:"reports_by_month"`
}

type RegimeCount struct {
	Regime string `json:"regime"`
	Count  int64  `json:"count"`
}

// MonthlyReportCt counts reports created in one calendar month ("2006-01").
type MonthlyReportCt struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}
