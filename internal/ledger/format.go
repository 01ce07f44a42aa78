package ledger

import (
	"strings"
	"unicode/utf8"
)

// Journal column layout. Posting lines are indented four spaces; the
// account column grows with the longest account but never below these
// minimums, so short transactions still align with hand-written entries.
const (
	PostingIndent   = "    "
	MinAccountWidth = 40
	MinAmountWidth  = 12

	commentSeparator = "  ; "
)

// FormatPosting renders one posting line. A posting without amounts is just
// the indented account, leaving the amount for hledger to infer.
func FormatPosting(p Posting, accountWidth, amountWidth int) string {
	var line string
	if len(p.Amounts) == 0 {
		line = PostingIndent + p.Account
	} else {
		line = PostingIndent + padRight(p.Account, accountWidth) + "  " +
			padLeft(formatAmounts(p.Amounts), amountWidth)
	}
	if p.Comment != "" {
		line += commentSeparator + p.Comment
	}
	return line
}

// FormatTransaction renders a transaction as journal text, without a
// trailing newline. Header is DATE [STATUS] [(CODE)] DESCRIPTION, with an
// optional same-line comment; postings follow aligned to shared column
// widths.
func FormatTransaction(t *Transaction) string {
	header := t.Date
	if symbol := t.Status.Symbol(); symbol != "" {
		header += " " + symbol
	}
	if t.Code != "" {
		header += " (" + t.Code + ")"
	}
	header += " " + t.Description
	if t.Comment != "" {
		header += commentSeparator + t.Comment
	}

	accountWidth := MinAccountWidth
	amountWidth := MinAmountWidth
	for _, p := range t.Postings {
		if n := utf8.RuneCountInString(p.Account); n > accountWidth {
			accountWidth = n
		}
		if len(p.Amounts) == 0 {
			continue
		}
		if n := utf8.RuneCountInString(formatAmounts(p.Amounts)); n > amountWidth {
			amountWidth = n
		}
	}

	lines := make([]string, 0, len(t.Postings)+1)
	lines = append(lines, header)
	for _, p := range t.Postings {
		lines = append(lines, FormatPosting(p, accountWidth, amountWidth))
	}
	return strings.Join(lines, "\n")
}
