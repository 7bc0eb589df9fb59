package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/finlens/finlens_backend/internal/apperrors"
	"github.com/finlens/finlens_backend/internal/core/domain"
	portssvc "github.com/finlens/finlens_backend/internal/core/ports/services"
	"github.com/finlens/finlens_backend/internal/core/services"
	"github.com/finlens/finlens_backend/internal/utils/periods"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock ConnectionSvcFacade ---
type MockConnectionSvc struct {
	mock.Mock
}

func (m *MockConnectionSvc) AuthorizationURL(state string) string {
	args := m.Called(state)
	return args.String(0)
}

func (m *MockConnectionSvc) CompleteAuthorization(ctx context.Context, userID, code, realmID string) error {
	args := m.Called(ctx, userID, code, realmID)
	return args.Error(0)
}

func (m *MockConnectionSvc) EnsureValidAccessToken(ctx context.Context, userID string) (string, string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockConnectionSvc) Disconnect(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockConnectionSvc) Status(ctx context.Context, userID string) (*domain.ProviderConnection, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProviderConnection), args.Error(1)
}

// --- Mock books.Client ---
type MockBooksClient struct {
	mock.Mock
}

func (m *MockBooksClient) ProfitAndLoss(ctx context.Context, accessToken, realmID string, start, end time.Time) (*domain.Report, error) {
	args := m.Called(ctx, accessToken, realmID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Report), args.Error(1)
}

// summaryReport builds a report whose top line reads the given revenue and
// net income out of the Income and Net Income summary rows.
func summaryReport(revenue, netIncome string) *domain.Report {
	return &domain.Report{
		Rows: domain.ReportRows{Row: []domain.ReportRow{
			{
				Type:    domain.RowTypeSection,
				Group:   "Income",
				Header:  &domain.RowHeader{ColData: []domain.ColData{{Value: "Income"}}},
				Summary: &domain.RowSummary{ColData: []domain.ColData{{Value: "Total Income"}, {Value: revenue}}},
			},
			{
				Type:    domain.RowTypeSection,
				Group:   "NetIncome",
				Header:  &domain.RowHeader{ColData: []domain.ColData{{Value: "Net Income"}}},
				Summary: &domain.RowSummary{ColData: []domain.ColData{{Value: "Net Income"}, {Value: netIncome}}},
			},
		}},
	}
}

// expenseReport builds a report with a single expense section of leaf rows.
func expenseReport(accounts ...[3]string) *domain.Report {
	rows := make([]domain.ReportRow, 0, len(accounts))
	for _, account := range accounts {
		rows = append(rows, domain.ReportRow{
			Type: domain.RowTypeData,
			ColData: []domain.ColData{
				{Value: account[1], ID: account[0]},
				{Value: account[2]},
			},
		})
	}
	return &domain.Report{
		Rows: domain.ReportRows{Row: []domain.ReportRow{{
			Type:   domain.RowTypeSection,
			Group:  "Expenses",
			Header: &domain.RowHeader{ColData: []domain.ColData{{Value: "Expenses"}}},
			Rows:   &domain.ReportRows{Row: rows},
		}}},
	}
}

// --- Test Suite ---
type DashboardServiceTestSuite struct {
	suite.Suite
	mockConn  *MockConnectionSvc
	mockBooks *MockBooksClient
	now       time.Time
}

func (suite *DashboardServiceTestSuite) SetupTest() {
	suite.mockConn = new(MockConnectionSvc)
	suite.mockBooks = new(MockBooksClient)
	suite.now = time.Date(2025, time.March, 20, 10, 0, 0, 0, time.UTC)
}

func (suite *DashboardServiceTestSuite) newService() portssvc.DashboardSvcFacade {
	return services.NewDashboardService(suite.mockConn, suite.mockBooks,
		services.WithDashboardClock(func() time.Time { return suite.now }))
}

// --- Test Cases ---

func (suite *DashboardServiceTestSuite) TestMetrics_Disconnected() {
	ctx := context.Background()
	suite.mockConn.On("EnsureValidAccessToken", ctx, "user-1").Return("", "", apperrors.ErrNotConnected).Once()

	metrics, err := suite.newService().Metrics(ctx, "user-1", periods.ThisMonth)

	suite.Require().NoError(err)
	suite.False(metrics.Connected)
	suite.True(metrics.Revenue.Current.IsZero())
	suite.mockBooks.AssertNotCalled(suite.T(), "ProfitAndLoss",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *DashboardServiceTestSuite) TestMetrics_ThisMonthDerivesExpenses() {
	ctx := context.Background()
	suite.mockConn.On("EnsureValidAccessToken", ctx, "user-1").Return("token", "realm-9", nil).Once()

	currentStart := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	currentEnd := time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC)
	prevStart := time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC)
	prevEnd := time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC)

	suite.mockBooks.On("ProfitAndLoss", ctx, "token", "realm-9", currentStart, currentEnd).
		Return(summaryReport("9150.00", "3250.00"), nil).Once()
	suite.mockBooks.On("ProfitAndLoss", ctx, "token", "realm-9", prevStart, prevEnd).
		Return(summaryReport("8000.00", "2000.00"), nil).Once()

	metrics, err := suite.newService().Metrics(ctx, "user-1", periods.ThisMonth)

	suite.Require().NoError(err)
	suite.True(metrics.Connected)
	suite.Equal("9150", metrics.Revenue.Current.String())
	suite.Equal("3250", metrics.NetProfit.Current.String())
	// Expenses reconcile as revenue minus net income.
	suite.Equal("5900", metrics.Expenses.Current.String())
	suite.Equal("6000", metrics.Expenses.Previous.String())
	suite.Empty(metrics.Series)
	suite.mockBooks.AssertExpectations(suite.T())
}

func (suite *DashboardServiceTestSuite) TestMetrics_YTDSeriesSkipsFailedMonth() {
	ctx := context.Background()
	suite.mockConn.On("EnsureValidAccessToken", ctx, "user-1").Return("token", "realm-9", nil).Once()

	// Period-level current and comparator windows.
	suite.mockBooks.On("ProfitAndLoss", ctx, "token", "realm-9",
		time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.March, 20, 0, 0, 0, 0, time.UTC)).
		Return(summaryReport("30000", "9000"), nil).Once()
	suite.mockBooks.On("ProfitAndLoss", ctx, "token", "realm-9",
		time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.March, 20, 0, 0, 0, 0, time.UTC)).
		Return(summaryReport("25000", "8000"), nil).Once()

	// Per-month series windows: February fails, the rest succeed.
	for month := 1; month <= 3; month++ {
		start := time.Date(2025, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, -1)
		if month == 2 {
			suite.mockBooks.On("ProfitAndLoss", ctx, "token", "realm-9", start, end).
				Return(nil, fmt.Errorf("provider timeout")).Once()
			continue
		}
		suite.mockBooks.On("ProfitAndLoss", ctx, "token", "realm-9", start, end).
			Return(summaryReport("10000", "3000"), nil).Once()
	}

	metrics, err := suite.newService().Metrics(ctx, "user-1", periods.YTD)

	suite.Require().NoError(err)
	suite.Require().Len(metrics.Series, 2)
	// Calendar order survives the skip.
	suite.Equal("Jan", metrics.Series[0].Name)
	suite.Equal("Mar", metrics.Series[1].Name)
	suite.Equal("7000", metrics.Series[0].Expenses.String())
	suite.mockBooks.AssertExpectations(suite.T())
}

func (suite *DashboardServiceTestSuite) TestExpenseCategories_MergesAndSorts() {
	ctx := context.Background()
	suite.mockConn.On("EnsureValidAccessToken", ctx, "user-1").Return("token", "realm-9", nil).Once()

	current := expenseReport(
		[3]string{"7", "Fuel", "500.00"},
		[3]string{"12", "Rent", "1500.00"},
	)
	previous := expenseReport(
		[3]string{"7", "Fuel", "400.00"},
		[3]string{"31", "Insurance", "200.00"},
	)

	suite.mockBooks.On("ProfitAndLoss", ctx, "token", "realm-9",
		mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).
		Return(current, nil).Once()
	suite.mockBooks.On("ProfitAndLoss", ctx, "token", "realm-9",
		mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).
		Return(previous, nil).Once()

	report, err := suite.newService().ExpenseCategories(ctx, "user-1", periods.ThisMonth)

	suite.Require().NoError(err)
	suite.Require().Len(report.Categories, 3)
	suite.Equal("2000", report.Total.Current.String())
	suite.Equal("600", report.Total.Previous.String())

	// Sorted by current amount descending; the prior-only account trails.
	suite.Equal("Rent", report.Categories[0].Name)
	suite.Equal("Fuel", report.Categories[1].Name)
	suite.Equal("Insurance", report.Categories[2].Name)
	suite.True(report.Categories[2].Current.IsZero())
	suite.Equal("200", report.Categories[2].Previous.String())

	suite.InDelta(0.75, report.Categories[0].Share, 0.0001)
	suite.InDelta(0.25, report.Categories[1].Share, 0.0001)
	suite.InDelta(0.0, report.Categories[2].Share, 0.0001)
}

func (suite *DashboardServiceTestSuite) TestExpenseCategories_Disconnected() {
	ctx := context.Background()
	suite.mockConn.On("EnsureValidAccessToken", ctx, "user-1").Return("", "", apperrors.ErrNotConnected).Once()

	report, err := suite.newService().ExpenseCategories(ctx, "user-1", periods.YTD)

	suite.Require().NoError(err)
	suite.False(report.Connected)
	suite.Empty(report.Categories)
}

func TestDashboardServiceTestSuite(t *testing.T) {
	suite.Run(t, new(DashboardServiceTestSuite))
}
