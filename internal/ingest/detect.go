package ingest

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DocKind sub-classifies an uploaded document after detection.
type DocKind string

const (
	// KindTransactions is tabular input with date and amount columns.
	KindTransactions DocKind = "transactions"
	// KindSummary is tabular input with month and department/expense/revenue columns.
	KindSummary DocKind = "summary"
	// KindText is free-form input with no recognizable table.
	KindText DocKind = "text"
)

// TransactionRow is one recognized transaction-level row.
type TransactionRow struct {
	Date        time.Time
	Amount      decimal.Decimal
	Description string
	RawVendor   string
}

// SummaryRow is one recognized summary-level row (month x department totals).
type SummaryRow struct {
	Month      time.Time
	Department string
	Expenses   decimal.Decimal
	Revenue    decimal.Decimal
}

// Parsed is the outcome of format detection over one document. Row shapes are
// resolved once here; downstream stages never re-inspect raw cells.
type Parsed struct {
	Kind         DocKind
	Transactions []TransactionRow
	Summaries    []SummaryRow
	Text         string
	TotalRows    int
	SkippedRows  int
}

// Column synonym sets, matched case-insensitively against header tokens.
var (
	dateHeaders       = []string{"date", "transaction date", "posting date", "posted date", "txn date"}
	amountHeaders     = []string{"amount", "transaction amount", "value", "debit/credit"}
	descHeaders       = []string{"description", "memo", "details", "narrative", "reference"}
	vendorHeaders     = []string{"vendor", "merchant", "payee", "name", "counterparty"}
	monthHeaders      = []string{"month", "period"}
	departmentHeaders = []string{"department", "dept", "team", "cost center"}
	expenseHeaders    = []string{"expenses", "expense", "spend", "cost", "costs"}
	revenueHeaders    = []string{"revenue", "income", "sales"}
)

type columnMap struct {
	date, amount, desc, vendor        int
	month, department, expense, revenue int
}

func newColumnMap() columnMap {
	return columnMap{date: -1, amount: -1, desc: -1, vendor: -1, month: -1, department: -1, expense: -1, revenue: -1}
}

func matchHeader(cell string, synonyms []string) bool {
	norm := strings.ToLower(strings.TrimSpace(cell))
	for _, s := range synonyms {
		if norm == s {
			return true
		}
	}
	return false
}

func mapColumns(header []string) columnMap {
	cm := newColumnMap()
	for i, cell := range header {
		switch {
		case cm.date == -1 && matchHeader(cell, dateHeaders):
			cm.date = i
		case cm.amount == -1 && matchHeader(cell, amountHeaders):
			cm.amount = i
		case cm.desc == -1 && matchHeader(cell, descHeaders):
			cm.desc = i
		case cm.vendor == -1 && matchHeader(cell, vendorHeaders):
			cm.vendor = i
		case cm.month == -1 && matchHeader(cell, monthHeaders):
			cm.month = i
		case cm.department == -1 && matchHeader(cell, departmentHeaders):
			cm.department = i
		case cm.expense == -1 && matchHeader(cell, expenseHeaders):
			cm.expense = i
		case cm.revenue == -1 && matchHeader(cell, revenueHeaders):
			cm.revenue = i
		}
	}
	return cm
}

// Detect classifies a byte buffer and extracts typed rows. Tabular input is
// sub-classified as transaction-level (date + amount columns) or
// summary-level (month + department/expense/revenue columns); anything else
// is returned as raw text. Rows missing a parsable date or amount are skipped
// and counted, never fatal on their own.
func Detect(data []byte, contentType, fileName string) (*Parsed, error) {
	records, tabular, err := readTable(data, contentType, fileName)
	if err != nil {
		return nil, err
	}
	if !tabular || len(records) == 0 {
		return &Parsed{Kind: KindText, Text: string(data)}, nil
	}

	header := records[0]
	cm := mapColumns(header)

	switch {
	case cm.date >= 0 && cm.amount >= 0:
		return parseTransactionRows(records[1:], cm)
	case cm.month >= 0 && (cm.department >= 0 || cm.expense >= 0 || cm.revenue >= 0):
		return parseSummaryRows(records[1:], cm)
	default:
		// A table we cannot identify columns for is treated as free text.
		return &Parsed{Kind: KindText, Text: string(data)}, nil
	}
}

func parseTransactionRows(rows [][]string, cm columnMap) (*Parsed, error) {
	p := &Parsed{Kind: KindTransactions, TotalRows: len(rows)}
	for _, row := range rows {
		if isBlankRow(row) {
			p.TotalRows--
			continue
		}
		date, ok := parseDateCell(cell(row, cm.date))
		if !ok {
			p.SkippedRows++
			continue
		}
		amount, ok := parseAmountCell(cell(row, cm.amount))
		if !ok {
			p.SkippedRows++
			continue
		}
		desc := cell(row, cm.desc)
		vendor := cell(row, cm.vendor)
		if vendor == "" {
			// Fall back to the description when no vendor column exists.
			vendor = desc
		}
		if strings.TrimSpace(vendor) == "" {
			p.SkippedRows++
			continue
		}
		p.Transactions = append(p.Transactions, TransactionRow{
			Date:        date,
			Amount:      amount,
			Description: strings.TrimSpace(desc),
			RawVendor:   strings.TrimSpace(vendor),
		})
	}
	return p, nil
}

func parseSummaryRows(rows [][]string, cm columnMap) (*Parsed, error) {
	p := &Parsed{Kind: KindSummary, TotalRows: len(rows)}
	for _, row := range rows {
		if isBlankRow(row) {
			p.TotalRows--
			continue
		}
		month, ok := parseMonthCell(cell(row, cm.month))
		if !ok {
			p.SkippedRows++
			continue
		}
		dept := strings.TrimSpace(cell(row, cm.department))
		if dept == "" {
			dept = "General"
		}
		expenses, _ := parseAmountCell(cell(row, cm.expense))
		revenue, _ := parseAmountCell(cell(row, cm.revenue))
		p.Summaries = append(p.Summaries, SummaryRow{
			Month:      month,
			Department: dept,
			Expenses:   expenses,
			Revenue:    revenue,
		})
	}
	return p, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"02 Jan 2006",
	"Jan 2, 2006",
	"2006/01/02",
}

func parseDateCell(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var monthLayouts = []string{
	"2006-01",
	"January 2006",
	"Jan 2006",
	"01/2006",
	"2006-01-02",
}

func parseMonthCell(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range monthLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// parseAmountCell parses "$1,234.56", "(45.00)" (negative), "-45.00" and plain
// decimal strings. The sign convention is preserved: positive is an inflow.
func parseAmountCell(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// wrapParse tags low-level reader failures as unreadable-document errors.
func wrapParse(err error) error {
	return fmt.Errorf("unreadable document: %w", err)
}
