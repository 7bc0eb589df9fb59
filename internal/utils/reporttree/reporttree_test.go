package reporttree_test

import (
	"testing"

	"github.com/finlens/finlens_backend/internal/core/domain"
	"github.com/finlens/finlens_backend/internal/utils/reporttree"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func section(label string, children []domain.ReportRow, summary ...string) domain.ReportRow {
	row := domain.ReportRow{
		Type:   domain.RowTypeSection,
		Header: &domain.RowHeader{ColData: []domain.ColData{{Value: label}}},
		Rows:   &domain.ReportRows{Row: children},
	}
	if len(summary) == 2 {
		row.Summary = &domain.RowSummary{ColData: []domain.ColData{
			{Value: summary[0]}, {Value: summary[1]},
		}}
	}
	return row
}

func dataRow(id, label, amount string) domain.ReportRow {
	return domain.ReportRow{
		Type: domain.RowTypeData,
		ColData: []domain.ColData{
			{Value: label, ID: id},
			{Value: amount},
		},
	}
}

func TestAggregateExpensesNestedLeaf(t *testing.T) {
	// A single leaf nested two levels under an expense section, with a
	// summary row carrying the same amount, must be counted exactly once.
	report := &domain.Report{
		Rows: domain.ReportRows{Row: []domain.ReportRow{
			section("Operating Expenses", []domain.ReportRow{
				section("Vehicle", []domain.ReportRow{
					dataRow("7", "Fuel", "500.00"),
				}, "Total Vehicle", "500.00"),
			}, "Total Operating Expenses", "500.00"),
		}},
	}

	breakdown := reporttree.AggregateExpenses(report)

	require.Len(t, breakdown.Accounts, 1)
	fuel := breakdown.Accounts["7"]
	assert.Equal(t, "Fuel", fuel.Name)
	assert.True(t, fuel.Amount.Equal(decimal.RequireFromString("500")))
	assert.True(t, breakdown.GrandTotal.Equal(decimal.RequireFromString("500")))
}

func TestAggregateExpensesSumsDuplicateAccounts(t *testing.T) {
	// Some layouts render the same account under more than one section; the
	// amounts are summed and the grand total counts each account once.
	report := &domain.Report{
		Rows: domain.ReportRows{Row: []domain.ReportRow{
			section("Expenses", []domain.ReportRow{
				dataRow("12", "Rent", "1000.00"),
				dataRow("14", "Utilities", "250.00"),
			}),
			section("Cost of Goods Sold", []domain.ReportRow{
				dataRow("12", "Rent", "200.00"),
			}),
		}},
	}

	breakdown := reporttree.AggregateExpenses(report)

	require.Len(t, breakdown.Accounts, 2)
	assert.True(t, breakdown.Accounts["12"].Amount.Equal(decimal.RequireFromString("1200")))
	assert.True(t, breakdown.Accounts["14"].Amount.Equal(decimal.RequireFromString("250")))
	assert.True(t, breakdown.GrandTotal.Equal(decimal.RequireFromString("1450")))
}

func TestAggregateExpensesSkipsRowsWithoutAccountID(t *testing.T) {
	report := &domain.Report{
		Rows: domain.ReportRows{Row: []domain.ReportRow{
			section("Expenses", []domain.ReportRow{
				dataRow("51", "Insurance", "80.00"),
				dataRow("", "Synthetic subtotal", "80.00"),
				dataRow("abc", "Imported placeholder", "15.00"),
			}),
		}},
	}

	breakdown := reporttree.AggregateExpenses(report)

	require.Len(t, breakdown.Accounts, 1)
	assert.True(t, breakdown.GrandTotal.Equal(decimal.RequireFromString("80")))
}

func TestAggregateExpensesSkipsTotalLabelledRows(t *testing.T) {
	// A Total-labelled row is excluded even when an identifier-shaped value
	// is present.
	report := &domain.Report{
		Rows: domain.ReportRows{Row: []domain.ReportRow{
			section("Expenses", []domain.ReportRow{
				dataRow("7", "Fuel", "500.00"),
				dataRow("99", "Total Fuel", "500.00"),
				dataRow("98", "Subtotal Vehicle", "500.00"),
			}),
		}},
	}

	breakdown := reporttree.AggregateExpenses(report)

	require.Len(t, breakdown.Accounts, 1)
	assert.True(t, breakdown.GrandTotal.Equal(decimal.RequireFromString("500")))
}

func TestAggregateExpensesEmptyReport(t *testing.T) {
	breakdown := reporttree.AggregateExpenses(&domain.Report{})
	assert.True(t, breakdown.GrandTotal.IsZero())
	assert.Empty(t, breakdown.Accounts)

	breakdown = reporttree.AggregateExpenses(nil)
	assert.True(t, breakdown.GrandTotal.IsZero())
	assert.Empty(t, breakdown.Accounts)
}

func TestAggregateExpensesNegativeAmountsPassThrough(t *testing.T) {
	report := &domain.Report{
		Rows: domain.ReportRows{Row: []domain.ReportRow{
			section("Expenses", []domain.ReportRow{
				dataRow("31", "Refunds clearing", "-120.50"),
			}),
		}},
	}

	breakdown := reporttree.AggregateExpenses(report)
	assert.True(t, breakdown.Accounts["31"].Amount.Equal(decimal.RequireFromString("-120.5")))
}

func TestAggregateExpensesIdempotent(t *testing.T) {
	report := &domain.Report{
		Rows: domain.ReportRows{Row: []domain.ReportRow{
			section("Expenses", []domain.ReportRow{
				dataRow("7", "Fuel", "500.00"),
				dataRow("12", "Rent", "1,200.00"),
			}),
		}},
	}

	first := reporttree.AggregateExpenses(report)
	second := reporttree.AggregateExpenses(report)

	assert.True(t, first.GrandTotal.Equal(second.GrandTotal))
	assert.Equal(t, len(first.Accounts), len(second.Accounts))
	for id, account := range first.Accounts {
		assert.True(t, account.Amount.Equal(second.Accounts[id].Amount))
	}
}

func TestExtractTopLine(t *testing.T) {
	netIncome := domain.ReportRow{
		Type:    domain.RowTypeSection,
		Group:   "NetIncome",
		Summary: &domain.RowSummary{ColData: []domain.ColData{{Value: "Net Income"}, {Value: "3,250.00"}}},
	}
	report := &domain.Report{
		Rows: domain.ReportRows{Row: []domain.ReportRow{
			section("Income", []domain.ReportRow{
				dataRow("1", "Sales", "9000.00"),
			}, "Total Income", "9,000.00"),
			section("Other Income", []domain.ReportRow{
				dataRow("2", "Interest earned", "150.00"),
			}, "Total Other Income", "150.00"),
			section("Expenses", []domain.ReportRow{
				dataRow("7", "Fuel", "5900.00"),
			}, "Total Expenses", "5,900.00"),
			netIncome,
		}},
	}

	top := reporttree.ExtractTopLine(report)

	assert.True(t, top.Revenue.Equal(decimal.RequireFromString("9150")))
	assert.True(t, top.NetIncome.Equal(decimal.RequireFromString("3250")))

	// The top-line expense figure is derived arithmetically so it reconciles
	// exactly with the report's own net income.
	assert.True(t, top.Expenses().Equal(decimal.RequireFromString("5900")))
}

func TestExtractTopLineEmptyReport(t *testing.T) {
	top := reporttree.ExtractTopLine(&domain.Report{})
	assert.True(t, top.Revenue.IsZero())
	assert.True(t, top.NetIncome.IsZero())
	assert.True(t, top.Expenses().IsZero())
}

func TestClassifyNode(t *testing.T) {
	tests := []struct {
		name string
		row  domain.ReportRow
		want reporttree.NodeClass
	}{
		{"expense section", section("Expenses", nil), reporttree.NodeExpenseSection},
		{"cogs section", section("Cost of Goods Sold", nil), reporttree.NodeExpenseSection},
		{"operating expenses section", section("Operating Expenses", nil), reporttree.NodeExpenseSection},
		{"income section", section("Income", nil), reporttree.NodeIncomeSection},
		{"other income section", section("Other Income", nil), reporttree.NodeOtherIncomeSection},
		{"unrelated section", section("Assets", nil), reporttree.NodeOther},
		{"data row", dataRow("7", "Fuel", "1.00"), reporttree.NodeDataRow},
		{
			"net income summary",
			domain.ReportRow{
				Type:    domain.RowTypeSection,
				Summary: &domain.RowSummary{ColData: []domain.ColData{{Value: "Net Income"}, {Value: "1.00"}}},
			},
			reporttree.NodeNetIncomeSummary,
		},
		{"empty row", domain.ReportRow{}, reporttree.NodeOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, reporttree.ClassifyNode(tt.row))
		})
	}
}
