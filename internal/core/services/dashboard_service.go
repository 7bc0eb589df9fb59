package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/finlens/finlens_backend/internal/adapters/books"
	"github.com/finlens/finlens_backend/internal/apperrors"
	"github.com/finlens/finlens_backend/internal/core/domain"
	portssvc "github.com/finlens/finlens_backend/internal/core/ports/services"
	"github.com/finlens/finlens_backend/internal/utils/periods"
	"github.com/finlens/finlens_backend/internal/utils/reporttree"
	"github.com/shopspring/decimal"
)

// dashboardService implements the DashboardSvcFacade interface
type dashboardService struct {
	BaseService
	connSvc portssvc.ConnectionSvcFacade
	books   books.Client
	now     func() time.Time
}

// DashboardServiceOption is a functional option for configuring the dashboard service
type DashboardServiceOption func(*dashboardService)

// WithDashboardClock overrides the service clock (tests).
func WithDashboardClock(now func() time.Time) DashboardServiceOption {
	return func(s *dashboardService) {
		s.now = now
	}
}

// NewDashboardService creates the dashboard aggregation service.
func NewDashboardService(connSvc portssvc.ConnectionSvcFacade, booksClient books.Client, options ...DashboardServiceOption) portssvc.DashboardSvcFacade {
	svc := &dashboardService{
		connSvc: connSvc,
		books:   booksClient,
		now:     time.Now,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

// Ensure dashboardService implements the DashboardSvcFacade interface
var _ portssvc.DashboardSvcFacade = (*dashboardService)(nil)

// Metrics returns current vs. prior top-line figures for the period. A
// missing provider connection yields Connected=false with zeroed figures.
func (s *dashboardService) Metrics(ctx context.Context, userID string, period periods.Key) (*domain.DashboardMetrics, error) {
	accessToken, realmID, err := s.connSvc.EnsureValidAccessToken(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotConnected) {
			return &domain.DashboardMetrics{Connected: false, Period: string(period)}, nil
		}
		return nil, err
	}

	pair := periods.Resolve(period, s.now())

	current, err := s.fetchTopLine(ctx, accessToken, realmID, pair.Start, pair.End)
	if err != nil {
		return nil, err
	}
	previous, err := s.fetchTopLine(ctx, accessToken, realmID, pair.PrevStart, pair.PrevEnd)
	if err != nil {
		return nil, err
	}

	metrics := &domain.DashboardMetrics{
		Connected:  true,
		Period:     string(period),
		Revenue:    domain.Comparison{Current: current.Revenue, Previous: previous.Revenue},
		Expenses:   domain.Comparison{Current: current.Expenses(), Previous: previous.Expenses()},
		NetProfit:  domain.Comparison{Current: current.NetIncome, Previous: previous.NetIncome},
		LastSyncAt: s.now(),
	}

	if period.YearScoped() {
		metrics.Series = s.monthlySeries(ctx, accessToken, realmID, pair)
	}

	return metrics, nil
}

// ExpenseCategories returns the per-account expense breakdown for the period,
// merged across the current and comparator periods.
func (s *dashboardService) ExpenseCategories(ctx context.Context, userID string, period periods.Key) (*domain.ExpenseCategoryReport, error) {
	accessToken, realmID, err := s.connSvc.EnsureValidAccessToken(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotConnected) {
			return &domain.ExpenseCategoryReport{Connected: false, Period: string(period)}, nil
		}
		return nil, err
	}

	pair := periods.Resolve(period, s.now())

	currentReport, err := s.books.ProfitAndLoss(ctx, accessToken, realmID, pair.Start, pair.End)
	if err != nil {
		return nil, fmt.Errorf("fetching current period report: %w", err)
	}
	previousReport, err := s.books.ProfitAndLoss(ctx, accessToken, realmID, pair.PrevStart, pair.PrevEnd)
	if err != nil {
		return nil, fmt.Errorf("fetching comparator period report: %w", err)
	}

	current := reporttree.AggregateExpenses(currentReport)
	previous := reporttree.AggregateExpenses(previousReport)

	report := &domain.ExpenseCategoryReport{
		Connected:  true,
		Period:     string(period),
		Total:      domain.Comparison{Current: current.GrandTotal, Previous: previous.GrandTotal},
		Categories: mergeCategories(current, previous),
		LastSyncAt: s.now(),
	}
	return report, nil
}

// fetchTopLine fetches one report and reads its summary figures.
func (s *dashboardService) fetchTopLine(ctx context.Context, accessToken, realmID string, start, end time.Time) (domain.TopLine, error) {
	report, err := s.books.ProfitAndLoss(ctx, accessToken, realmID, start, end)
	if err != nil {
		return domain.TopLine{}, fmt.Errorf("fetching report %s..%s: %w", periods.Format(start), periods.Format(end), err)
	}
	return reporttree.ExtractTopLine(report), nil
}

// monthlySeries fetches one report per elapsed month of the resolved year,
// concurrently. A month that fails to fetch is logged and skipped; the
// remaining points keep calendar order.
func (s *dashboardService) monthlySeries(ctx context.Context, accessToken, realmID string, pair periods.Pair) []domain.MonthlyPoint {
	type monthResult struct {
		month int
		point domain.MonthlyPoint
		err   error
	}

	year := pair.Start.Year()
	lastMonth := int(pair.End.Month())
	if pair.End.Year() > year {
		lastMonth = 12
	}

	results := make([]monthResult, lastMonth)
	var wg sync.WaitGroup
	for m := 1; m <= lastMonth; m++ {
		wg.Add(1)
		go func(m int) {
			defer wg.Done()
			start := time.Date(year, time.Month(m), 1, 0, 0, 0, 0, time.UTC)
			end := start.AddDate(0, 1, -1)
			top, err := s.fetchTopLine(ctx, accessToken, realmID, start, end)
			results[m-1] = monthResult{
				month: m,
				point: domain.MonthlyPoint{
					Name:     start.Format("Jan"),
					Revenue:  top.Revenue,
					Expenses: top.Expenses(),
				},
				err: err,
			}
		}(m)
	}
	wg.Wait()

	series := make([]domain.MonthlyPoint, 0, lastMonth)
	for _, r := range results {
		if r.err != nil {
			s.LogWarn(ctx, "Skipping month in dashboard series",
				slog.Int("month", r.month), slog.String("error", r.err.Error()))
			continue
		}
		series = append(series, r.point)
	}
	return series
}

// mergeCategories joins the two breakdowns on account identifier and sorts by
// current-period amount, descending.
func mergeCategories(current, previous domain.ExpenseBreakdown) []domain.CategoryTotal {
	merged := make(map[string]domain.CategoryTotal, len(current.Accounts))

	for id, account := range current.Accounts {
		share := 0.0
		if current.GrandTotal.IsPositive() {
			share, _ = account.Amount.Div(current.GrandTotal).Float64()
		}
		merged[id] = domain.CategoryTotal{
			Name:      account.Name,
			AccountID: id,
			Current:   account.Amount,
			Previous:  decimal.Zero,
			Share:     share,
		}
	}
	for id, account := range previous.Accounts {
		entry, ok := merged[id]
		if !ok {
			entry = domain.CategoryTotal{
				Name:      account.Name,
				AccountID: id,
				Current:   decimal.Zero,
			}
		}
		entry.Previous = account.Amount
		merged[id] = entry
	}

	categories := make([]domain.CategoryTotal, 0, len(merged))
	for _, entry := range merged {
		categories = append(categories, entry)
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].Current.Equal(categories[j].Current) {
			return categories[i].AccountID < categories[j].AccountID
		}
		return categories[i].Current.GreaterThan(categories[j].Current)
	})
	return categories
}
