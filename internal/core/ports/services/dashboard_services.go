package services

import (
	"context"

	"github.com/finlens/finlens_backend/internal/core/domain"
	"github.com/finlens/finlens_backend/internal/utils/periods"
)

// DashboardSvcFacade produces the aggregated financial views backing the
// dashboard cards.
type DashboardSvcFacade interface {
	// Metrics returns current vs. prior revenue/expense/net-profit figures
	// for the period and, for year-scoped periods, the monthly series.
	// A missing provider connection yields a result with Connected=false and
	// zeroed figures, not an error.
	Metrics(ctx context.Context, userID string, period periods.Key) (*domain.DashboardMetrics, error)

	// ExpenseCategories returns the per-account expense breakdown for the
	// period, merged across the current and comparator periods.
	ExpenseCategories(ctx context.Context, userID string, period periods.Key) (*domain.ExpenseCategoryReport, error)
}
