package ledger

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Side says on which side of the magnitude a commodity is written.
type Side string

const (
	SideLeft  Side = "L"
	SideRight Side = "R"
)

// AmountStyle captures how an amount was written in the journal so it can
// be rendered back the same way.
type AmountStyle struct {
	CommoditySide   Side
	CommoditySpaced bool
	DecimalMark     string
	DigitGroupMark  string
	DigitGroupSizes []int
	Precision       int
}

// DefaultStyle returns the style used when nothing better is known:
// left-side commodity, no space, two decimal places.
func DefaultStyle() AmountStyle {
	return AmountStyle{
		CommoditySide: SideLeft,
		DecimalMark:   ".",
		Precision:     2,
	}
}

// Amount is a monetary quantity in one commodity. Cost, when set, is the
// total acquisition cost of the whole amount: unit-cost annotations are
// converted at decode time so callers never see a per-unit price.
type Amount struct {
	Commodity string
	Quantity  decimal.Decimal
	Style     AmountStyle
	Cost      *Amount
}

// String renders the amount as journal text: sign, then commodity and
// magnitude in the order the style dictates, with exactly Style.Precision
// digits after the decimal point.
func (a Amount) String() string {
	magnitude := a.Quantity.Abs().StringFixed(int32(a.Style.Precision))
	sign := ""
	if a.Quantity.IsNegative() {
		sign = "-"
	}

	space := ""
	if a.Style.CommoditySpaced {
		space = " "
	}

	if a.Style.CommoditySide == SideRight {
		return sign + magnitude + space + a.Commodity
	}
	return sign + a.Commodity + space + magnitude
}

// currencySymbols maps ISO 4217 codes to their conventional symbols.
var currencySymbols = map[string]string{
	"EUR": "€",
	"USD": "$",
	"GBP": "£",
}

// NormalizeCommodity converts well-known currency codes (EUR, USD, GBP) to
// their symbol for display. The result must never be written back to the
// journal or passed to hledger; it is a presentation aid only.
func NormalizeCommodity(commodity string) string {
	if symbol, ok := currencySymbols[commodity]; ok {
		return symbol
	}
	return commodity
}

// formatAmounts joins a posting's amounts for a single journal line.
func formatAmounts(amounts []Amount) string {
	parts := make([]string, len(amounts))
	for i, a := range amounts {
		parts[i] = a.String()
	}
	return strings.Join(parts, ", ")
}

// padRight and padLeft pad by rune count, not bytes, so currency symbols
// do not skew column alignment.
func padRight(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

func padLeft(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return strings.Repeat(" ", width-n) + s
	}
	return s
}
