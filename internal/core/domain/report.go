package domain

import (
	"github.com/shopspring/decimal"
)

// The accounting provider renders financial reports as a tree of rows.
// Sections nest arbitrarily deep and carry an optional header and trailing
// summary; data rows carry ordered column values where the first column holds
// the display label and account identifier and the last column holds the
// amount for the reporting period.

// RowType discriminates the node kinds appearing in a report tree.
type RowType string

const (
	RowTypeSection RowType = "Section"
	RowTypeData    RowType = "Data"
)

// ColData is a single report cell. ID is the provider's opaque identifier
// for the underlying entity (an account, for first-column cells).
type ColData struct {
	Value string `json:"value"`
	ID    string `json:"id,omitempty"`
}

// RowHeader is the label row introducing a section.
type RowHeader struct {
	ColData []ColData `json:"ColData"`
}

// RowSummary is the trailing total row closing a section.
type RowSummary struct {
	ColData []ColData `json:"ColData"`
}

// ReportRows wraps the child rows of a report or section.
type ReportRows struct {
	Row []ReportRow `json:"Row"`
}

// ReportRow is one node of the report tree: a nested section or a leaf data row.
type ReportRow struct {
	Type    RowType     `json:"type,omitempty"`
	Group   string      `json:"group,omitempty"`
	Header  *RowHeader  `json:"Header,omitempty"`
	Rows    *ReportRows `json:"Rows,omitempty"`
	Summary *RowSummary `json:"Summary,omitempty"`
	ColData []ColData   `json:"ColData,omitempty"`
}

// ReportHeader carries report-level metadata from the provider.
type ReportHeader struct {
	ReportName  string `json:"ReportName"`
	StartPeriod string `json:"StartPeriod"`
	EndPeriod   string `json:"EndPeriod"`
	Currency    string `json:"Currency"`
	Time        string `json:"Time"`
}

// Report is a full provider report document.
type Report struct {
	Header ReportHeader `json:"Header"`
	Rows   ReportRows   `json:"Rows"`
}

// AccountTotal is one leaf ledger account with its summed amount.
type AccountTotal struct {
	AccountID string          `json:"accountId"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
}

// ExpenseBreakdown is the flattened expense view of a report: per-account
// totals keyed by account identifier plus the grand total over unique accounts.
type ExpenseBreakdown struct {
	GrandTotal decimal.Decimal
	Accounts   map[string]AccountTotal
}

// TopLine carries the report's own summary figures. Expenses are derived as
// Revenue minus NetIncome so the dashboard reconciles exactly with the
// report's net-income figure.
type TopLine struct {
	Revenue   decimal.Decimal
	NetIncome decimal.Decimal
}

// Expenses returns the derived top-line expense figure.
func (t TopLine) Expenses() decimal.Decimal {
	return t.Revenue.Sub(t.NetIncome)
}
