package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Comparison pairs a current-period figure with its comparator-period figure.
type Comparison struct {
	Current  decimal.Decimal `json:"current"`
	Previous decimal.Decimal `json:"previous"`
}

// MonthlyPoint is one entry of the year-to-date monthly series.
type MonthlyPoint struct {
	Name     string          `json:"name"` // short month label, e.g. "Jan"
	Revenue  decimal.Decimal `json:"revenue"`
	Expenses decimal.Decimal `json:"expenses"`
}

// DashboardMetrics is the aggregated top-line view for one period.
type DashboardMetrics struct {
	Connected  bool           `json:"connected"`
	Period     string         `json:"period"`
	Revenue    Comparison     `json:"revenue"`
	Expenses   Comparison     `json:"expenses"`
	NetProfit  Comparison     `json:"netProfit"`
	Series     []MonthlyPoint `json:"ytdSeries,omitempty"`
	LastSyncAt time.Time      `json:"lastSyncAt"`
}

// CategoryTotal is one expense account compared across two periods.
// Share is Current divided by the grand total of the current period,
// zero when the grand total is zero.
type CategoryTotal struct {
	Name      string          `json:"name"`
	AccountID string          `json:"accountId"`
	Current   decimal.Decimal `json:"current"`
	Previous  decimal.Decimal `json:"previous"`
	Share     float64         `json:"share"`
}

// ExpenseCategoryReport is the expense-by-category view for one period.
type ExpenseCategoryReport struct {
	Connected  bool            `json:"connected"`
	Period     string          `json:"period"`
	Total      Comparison      `json:"total"`
	Categories []CategoryTotal `json:"categories"`
	LastSyncAt time.Time       `json:"lastSyncAt"`
}
