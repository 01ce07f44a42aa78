package ledger

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// amountTokens is the decomposition of an amount string: a commodity on at
// most one side of a numeric core, e.g. "€1,200.00" or "500.00 EUR".
// Rest holds whatever the scan could not consume; non-empty means the
// string is not an amount.
type amountTokens struct {
	prefix       string
	number       string
	suffix       string
	prefixSpaced bool
	suffixSpaced bool
	rest         string
}

// Commodity runes are anything that cannot start a number: not a digit,
// not whitespace, not a sign or decimal point.
func isCommodityRune(r rune) bool {
	return !unicode.IsDigit(r) && !unicode.IsSpace(r) && r != '.' && r != '-'
}

func isNumberRune(r rune) bool {
	return unicode.IsDigit(r) || r == '.' || r == '-' || r == ','
}

func splitAmountString(s string) amountTokens {
	var tok amountTokens
	runes := []rune(s)

	i := 0
	for i < len(runes) && isCommodityRune(runes[i]) {
		i++
	}
	tok.prefix = string(runes[:i])

	start := i
	for i < len(runes) && unicode.IsSpace(runes[i]) {
		i++
	}
	tok.prefixSpaced = i > start

	start = i
	for i < len(runes) && isNumberRune(runes[i]) {
		i++
	}
	tok.number = string(runes[start:i])

	start = i
	for i < len(runes) && unicode.IsSpace(runes[i]) {
		i++
	}
	tok.suffixSpaced = i > start

	start = i
	for i < len(runes) && isCommodityRune(runes[i]) {
		i++
	}
	tok.suffix = string(runes[start:i])
	tok.rest = string(runes[i:])
	return tok
}

// ParseAmountLenient parses an amount cell from hledger CSV output.
// Accepted shapes: leading commodity ("€1,200.00"), trailing commodity
// ("500.00 EUR", "5 XDWD"), or a bare number. Empty cells, "0", and
// anything unparseable come back as zero with no commodity: a report must
// render with partial data rather than fail on one odd cell.
func ParseAmountLenient(s string) Amount {
	s = strings.TrimSpace(s)
	zero := Amount{Quantity: decimal.Zero, Style: DefaultStyle()}
	if s == "" || s == "0" {
		return zero
	}

	tok := splitAmountString(s)
	if tok.rest != "" || tok.number == "" {
		return zero
	}
	if tok.prefix != "" && tok.suffix != "" {
		return zero
	}

	qty, err := decimal.NewFromString(strings.ReplaceAll(tok.number, ",", ""))
	if err != nil {
		return zero
	}
	return newParsedAmount(qty, tok)
}

// ParseAmountStrict parses a budget-file amount. Unlike the CSV parser it
// refuses anything it cannot read exactly: a budget number silently turned
// into zero would be invisible data loss. A commodity is required and
// digit grouping is not accepted.
func ParseAmountStrict(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, errors.New("empty amount string")
	}

	tok := splitAmountString(s)
	switch {
	case tok.rest != "" || tok.number == "",
		strings.Contains(tok.number, ","),
		tok.prefix != "" && tok.suffix != "",
		tok.prefix == "" && tok.suffix == "":
		return Amount{}, fmt.Errorf("cannot parse amount: %s", s)
	}

	qty, err := decimal.NewFromString(tok.number)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount: %s", s)
	}
	return newParsedAmount(qty, tok), nil
}

func newParsedAmount(qty decimal.Decimal, tok amountTokens) Amount {
	style := DefaultStyle()
	if exp := int(qty.Exponent()); exp < 0 && -exp > style.Precision {
		style.Precision = -exp
	}

	commodity := tok.prefix
	style.CommoditySpaced = tok.prefixSpaced
	if tok.suffix != "" {
		commodity = tok.suffix
		style.CommoditySide = SideRight
		style.CommoditySpaced = tok.suffixSpaced
	}
	return Amount{Commodity: commodity, Quantity: qty, Style: style}
}
