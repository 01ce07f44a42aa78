package ledger

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Status is a transaction or posting clearing status.
type Status string

const (
	StatusUnmarked Status = "Unmarked"
	StatusPending  Status = "Pending"
	StatusCleared  Status = "Cleared"
)

// Symbol returns the one-character journal marker for the status.
func (s Status) Symbol() string {
	switch s {
	case StatusCleared:
		return "*"
	case StatusPending:
		return "!"
	default:
		return ""
	}
}

// Valid reports whether s is one of the three known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusUnmarked, StatusPending, StatusCleared:
		return true
	}
	return false
}

// SourcePosition is a 1-based position in a journal file.
type SourcePosition struct {
	File   string
	Line   int
	Column int
}

// SourceSpan is the half-open line range [Start.Line, End.Line) a
// transaction occupies in its journal file. It is how edits locate the
// text to splice without re-parsing the whole file.
type SourceSpan struct {
	Start SourcePosition
	End   SourcePosition
}

// Posting is one account line inside a transaction. An empty Amounts slice
// means the amount is elided and left for hledger to infer.
type Posting struct {
	Account string
	Amounts []Amount
	Comment string
	Status  Status
}

// Transaction is a complete journal entry. Index is assigned by hledger and
// is only stable within a single load. Span is nil for transactions built
// in memory that have not been read back from a file; replace and delete
// operations require it.
type Transaction struct {
	Index       int
	Date        string
	Date2       string
	Description string
	Status      Status
	Code        string
	Comment     string
	Postings    []Posting
	Span        *SourceSpan
	Tags        []string
}

// TotalAmount sums the positive posting amounts per commodity and renders
// them for display. An amount bought at a cost (say 10 XDWD @@ €1185)
// contributes the absolute cost under the cost's commodity as well, so the
// total reflects the money that moved rather than just the security count.
func (t *Transaction) TotalAmount() string {
	totals := make(map[string]decimal.Decimal)
	styles := make(map[string]AmountStyle)
	var order []string

	add := func(commodity string, qty decimal.Decimal, style AmountStyle) {
		if _, seen := totals[commodity]; !seen {
			order = append(order, commodity)
			styles[commodity] = style
		}
		totals[commodity] = totals[commodity].Add(qty)
	}

	for _, posting := range t.Postings {
		for _, amount := range posting.Amounts {
			if !amount.Quantity.IsPositive() {
				continue
			}
			add(amount.Commodity, amount.Quantity, amount.Style)
			if amount.Cost != nil {
				add(amount.Cost.Commodity, amount.Cost.Quantity.Abs(), amount.Cost.Style)
			}
		}
	}

	if len(order) == 0 {
		return ""
	}

	parts := make([]string, len(order))
	for i, commodity := range order {
		a := Amount{Commodity: commodity, Quantity: totals[commodity], Style: styles[commodity]}
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ")
}
