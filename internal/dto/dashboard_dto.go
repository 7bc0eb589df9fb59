package dto

import (
	"time"

	"github.com/finlens/finlens_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ComparisonResponse pairs a current-period figure with its comparator figure.
type ComparisonResponse struct {
	Current  decimal.Decimal `json:"current"`
	Previous decimal.Decimal `json:"previous"`
}

// MonthlyPointResponse is one entry of the year-scoped monthly series.
type MonthlyPointResponse struct {
	Name     string          `json:"name"`
	Revenue  decimal.Decimal `json:"revenue"`
	Expenses decimal.Decimal `json:"expenses"`
}

// DashboardMetricsResponse is the aggregated top-line view for one period.
// The figure fields are null when no provider is connected.
type DashboardMetricsResponse struct {
	Connected  bool                   `json:"connected"`
	Period     string                 `json:"period"`
	Revenue    *ComparisonResponse    `json:"revenue"`
	Expenses   *ComparisonResponse    `json:"expenses"`
	NetProfit  *ComparisonResponse    `json:"netProfit"`
	Series     []MonthlyPointResponse `json:"ytdSeries,omitempty"`
	LastSyncAt *time.Time             `json:"lastSyncAt"`
}

// ToDashboardMetricsResponse converts domain metrics to the API shape.
func ToDashboardMetricsResponse(metrics *domain.DashboardMetrics) DashboardMetricsResponse {
	response := DashboardMetricsResponse{
		Connected: metrics.Connected,
		Period:    metrics.Period,
	}
	if !metrics.Connected {
		return response
	}

	response.Revenue = &ComparisonResponse{Current: metrics.Revenue.Current, Previous: metrics.Revenue.Previous}
	response.Expenses = &ComparisonResponse{Current: metrics.Expenses.Current, Previous: metrics.Expenses.Previous}
	response.NetProfit = &ComparisonResponse{Current: metrics.NetProfit.Current, Previous: metrics.NetProfit.Previous}
	if !metrics.LastSyncAt.IsZero() {
		response.LastSyncAt = &metrics.LastSyncAt
	}
	for _, point := range metrics.Series {
		response.Series = append(response.Series, MonthlyPointResponse{
			Name:     point.Name,
			Revenue:  point.Revenue,
			Expenses: point.Expenses,
		})
	}
	return response
}

// CategoryTotalResponse is one expense account compared across two periods.
type CategoryTotalResponse struct {
	Name      string          `json:"name"`
	AccountID string          `json:"accountId"`
	Current   decimal.Decimal `json:"current"`
	Previous  decimal.Decimal `json:"previous"`
	Share     float64         `json:"share"`
}

// ExpenseCategoriesResponse is the expense-by-category view for one period.
type ExpenseCategoriesResponse struct {
	Connected  bool                    `json:"connected"`
	Period     string                  `json:"period"`
	Total      *ComparisonResponse     `json:"total"`
	Categories []CategoryTotalResponse `json:"categories"`
	LastSyncAt *time.Time              `json:"lastSyncAt"`
}

// ToExpenseCategoriesResponse converts a domain expense report to the API shape.
func ToExpenseCategoriesResponse(report *domain.ExpenseCategoryReport) ExpenseCategoriesResponse {
	response := ExpenseCategoriesResponse{
		Connected:  report.Connected,
		Period:     report.Period,
		Categories: []CategoryTotalResponse{},
	}
	if !report.Connected {
		return response
	}

	response.Total = &ComparisonResponse{Current: report.Total.Current, Previous: report.Total.Previous}
	if !report.LastSyncAt.IsZero() {
		response.LastSyncAt = &report.LastSyncAt
	}
	for _, category := range report.Categories {
		response.Categories = append(response.Categories, CategoryTotalResponse{
			Name:      category.Name,
			AccountID: category.AccountID,
			Current:   category.Current,
			Previous:  category.Previous,
			Share:     category.Share,
		})
	}
	return response
}
