package hledger

import (
	"github.com/shopspring/decimal"

	"github.com/calder-fi/hledger-engine/internal/ledger"
)

// ReportKind selects one of hledger's compound reports.
type ReportKind string

const (
	ReportIncomeStatement ReportKind = "is"
	ReportBalanceSheet    ReportKind = "bs"
	ReportCashFlow        ReportKind = "cf"
)

// Valid reports whether k names a known report.
func (k ReportKind) Valid() bool {
	switch k {
	case ReportIncomeStatement, ReportBalanceSheet, ReportCashFlow:
		return true
	}
	return false
}

// AccountBalance is one row of a balance listing.
type AccountBalance struct {
	Account string
	Amount  ledger.Amount
}

// JournalStats is the typed subset of `hledger stats` output.
type JournalStats struct {
	Transactions int
	Accounts     int
	Commodities  []string
	Begin        string
	End          string
}

// PeriodSummary aggregates one period's money flow. Income and Expenses are
// absolute values; Investments is the amount moved into investment accounts
// at cost.
type PeriodSummary struct {
	Income      decimal.Decimal
	Expenses    decimal.Decimal
	Investments decimal.Decimal
	Commodity   string
}

// Net is what was left over: income minus expenses minus money invested.
func (s PeriodSummary) Net() decimal.Decimal {
	return s.Income.Sub(s.Expenses).Sub(s.Investments)
}

// Position is one held security aggregated across investment accounts.
// MarketValue has an empty commodity when no price was available to value
// the position.
type Position struct {
	Commodity   string
	Quantity    decimal.Decimal
	CostBasis   ledger.Amount
	MarketValue ledger.Amount
}
