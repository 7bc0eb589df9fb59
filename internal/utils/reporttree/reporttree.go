// Package reporttree flattens the accounting provider's nested report
// documents into per-account and top-line totals. The provider renders the
// same logical report with varying section layouts, so section matching is
// label-based and kept behind ClassifyNode where it can be tested in isolation.
package reporttree

import (
	"regexp"
	"strings"

	"github.com/finlens/finlens_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// NodeClass is the semantic classification of one report row.
type NodeClass int

const (
	NodeOther NodeClass = iota
	NodeExpenseSection
	NodeIncomeSection
	NodeOtherIncomeSection
	NodeNetIncomeSummary
	NodeDataRow
)

var (
	// Section headers vary by provider layout; "Expenses", "Other Expenses"
	// and "Cost of Goods Sold" all hold expense leaves.
	expenseSectionPattern = regexp.MustCompile(`(?i)(expenses|cost of goods sold)`)
	otherIncomePattern    = regexp.MustCompile(`(?i)^other income$`)
	incomePattern         = regexp.MustCompile(`(?i)^income$`)
	netIncomePattern      = regexp.MustCompile(`(?i)^net (income|earnings)`)
	totalLabelPattern     = regexp.MustCompile(`(?i)^(total|subtotal)\b`)
	accountIDPattern      = regexp.MustCompile(`^[0-9]+$`)
)

// ClassifyNode determines what one report row represents. Summary and header
// rows are never classified as data, so subtotal figures cannot leak into
// leaf-account aggregation.
func ClassifyNode(row domain.ReportRow) NodeClass {
	if row.Type == domain.RowTypeSection || row.Rows != nil || row.Header != nil {
		label := headerLabel(row)
		switch {
		case otherIncomePattern.MatchString(label):
			return NodeOtherIncomeSection
		case incomePattern.MatchString(label):
			return NodeIncomeSection
		case expenseSectionPattern.MatchString(label):
			return NodeExpenseSection
		}
		if row.Summary != nil && netIncomePattern.MatchString(summaryLabel(row)) {
			return NodeNetIncomeSummary
		}
		return NodeOther
	}

	if row.Summary != nil && netIncomePattern.MatchString(summaryLabel(row)) {
		return NodeNetIncomeSummary
	}

	if row.Type == domain.RowTypeData && len(row.ColData) > 0 {
		return NodeDataRow
	}

	return NodeOther
}

// AggregateExpenses walks the report, collects every leaf data row beneath an
// expense-matching section and sums amounts per account identifier. Accounts
// appearing under more than one rendered section are summed, and the grand
// total is the sum over unique accounts rather than section subtotals.
func AggregateExpenses(report *domain.Report) domain.ExpenseBreakdown {
	breakdown := domain.ExpenseBreakdown{
		GrandTotal: decimal.Zero,
		Accounts:   make(map[string]domain.AccountTotal),
	}
	if report == nil {
		return breakdown
	}

	visitRows(report.Rows.Row, func(row domain.ReportRow) bool {
		if ClassifyNode(row) != NodeExpenseSection {
			return true // keep descending, expense sections may nest deeper
		}
		collectLeaves(row, &breakdown)
		return false // leaves below this section are already collected
	})

	for _, account := range breakdown.Accounts {
		breakdown.GrandTotal = breakdown.GrandTotal.Add(account.Amount)
	}
	return breakdown
}

// ExtractTopLine reads the report's own summary figures: revenue as the sum
// of the Income and Other Income section totals, and net income from the
// report's Net Income summary row. Neither is re-derived from leaves.
func ExtractTopLine(report *domain.Report) domain.TopLine {
	top := domain.TopLine{Revenue: decimal.Zero, NetIncome: decimal.Zero}
	if report == nil {
		return top
	}

	visitRows(report.Rows.Row, func(row domain.ReportRow) bool {
		switch ClassifyNode(row) {
		case NodeIncomeSection, NodeOtherIncomeSection:
			top.Revenue = top.Revenue.Add(summaryAmount(row))
			return false
		case NodeNetIncomeSummary:
			top.NetIncome = summaryAmount(row)
			return false
		}
		return true
	})
	return top
}

// visitRows runs fn over every row depth-first. Returning false from fn stops
// descent below that row.
func visitRows(rows []domain.ReportRow, fn func(domain.ReportRow) bool) {
	for _, row := range rows {
		if !fn(row) {
			continue
		}
		if row.Rows != nil {
			visitRows(row.Rows.Row, fn)
		}
	}
}

// collectLeaves accumulates every data row nested at any depth under section.
func collectLeaves(section domain.ReportRow, breakdown *domain.ExpenseBreakdown) {
	if section.Rows == nil {
		return
	}
	visitRows(section.Rows.Row, func(row domain.ReportRow) bool {
		if ClassifyNode(row) != NodeDataRow {
			return true
		}

		first := row.ColData[0]
		// Only rows carrying a genuine numeric account identifier are leaves;
		// synthetic subtotal rows sometimes render without one.
		if !accountIDPattern.MatchString(strings.TrimSpace(first.ID)) {
			return true
		}
		if totalLabelPattern.MatchString(strings.TrimSpace(first.Value)) {
			return true
		}

		amount := parseAmount(row.ColData[len(row.ColData)-1].Value)
		accountID := strings.TrimSpace(first.ID)
		existing, ok := breakdown.Accounts[accountID]
		if !ok {
			existing = domain.AccountTotal{
				AccountID: accountID,
				Name:      strings.TrimSpace(first.Value),
				Amount:    decimal.Zero,
			}
		}
		existing.Amount = existing.Amount.Add(amount)
		breakdown.Accounts[accountID] = existing
		return true
	})
}

func headerLabel(row domain.ReportRow) string {
	if row.Header == nil || len(row.Header.ColData) == 0 {
		return ""
	}
	return strings.TrimSpace(row.Header.ColData[0].Value)
}

func summaryLabel(row domain.ReportRow) string {
	if row.Summary == nil || len(row.Summary.ColData) == 0 {
		return ""
	}
	return strings.TrimSpace(row.Summary.ColData[0].Value)
}

// summaryAmount reads the numeric total of a section's trailing summary row.
func summaryAmount(row domain.ReportRow) decimal.Decimal {
	if row.Summary == nil || len(row.Summary.ColData) < 2 {
		return decimal.Zero
	}
	return parseAmount(row.Summary.ColData[len(row.Summary.ColData)-1].Value)
}

// parseAmount tolerates the provider's formatted values: thousands separators
// and empty cells for zero. Negative amounts pass through unmodified.
func parseAmount(raw string) decimal.Decimal {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" {
		return decimal.Zero
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return amount
}
