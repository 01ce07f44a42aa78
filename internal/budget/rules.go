package budget

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/calder-fi/hledger-engine/internal/ledger"
)

const (
	// Filename is the budget file kept next to the main journal.
	Filename = "budget.journal"

	// BalancingAccount is the synthetic account that absorbs the other side
	// of every budget posting. It is written on format and dropped on
	// parse; it never appears as a rule.
	BalancingAccount = "Assets:Budget"

	// periodicHeader opens the monthly budget block.
	periodicHeader = "~ monthly"

	// Budget postings are indented four spaces. The account column grows
	// with the longest account but never shrinks below the minimum, so
	// short accounts still line up.
	postingIndent    = "    "
	minAccountColumn = 40
	accountPadding   = 4
)

// Rule is one budget line: a monthly allowance for an account. Amounts are
// always positive.
type Rule struct {
	Account string
	Amount  ledger.Amount
}

// Row is one line of a budget-versus-actual report.
type Row struct {
	Account   string
	Commodity string
	Budget    decimal.Decimal
	Actual    decimal.Decimal
}

// Remaining is the budget left for the period; negative when overspent.
func (r Row) Remaining() decimal.Decimal {
	return r.Budget.Sub(r.Actual)
}

// UsedPct is how much of the budget the actual spending consumed, in
// percent. A zero budget reads as fully used once anything was spent.
func (r Row) UsedPct() float64 {
	if r.Budget.IsZero() {
		if r.Actual.IsZero() {
			return 0
		}
		return 100
	}
	return r.Actual.Div(r.Budget).Mul(decimal.NewFromInt(100)).InexactFloat64()
}

// ParseRules reads budget rules out of a budget file's text. Only the
// first "~ monthly" block is read; the block ends at the first line that
// is neither blank nor indented. Within the block, blank lines and the
// balancing account are skipped, indented lines that do not look like a
// posting are ignored, and a posting whose amount does not parse is an
// error naming the line.
func ParseRules(content string) ([]Rule, error) {
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}

	var rules []Rule
	inBlock := false
	for i, line := range strings.Split(content, "\n") {
		if !inBlock {
			if isPeriodicHeader(line) {
				inBlock = true
			}
			continue
		}
		if line != "" && line[0] != ' ' && line[0] != '\t' {
			break
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed == BalancingAccount {
			continue
		}
		account, amountText, ok := splitPosting(line)
		if !ok {
			continue
		}

		amount, err := ledger.ParseAmountStrict(amountText)
		if err != nil {
			return nil, fmt.Errorf("budget line %d: %w", i+1, err)
		}
		rules = append(rules, Rule{Account: account, Amount: amount})
	}
	return rules, nil
}

// isPeriodicHeader matches "~ monthly" with any whitespace after the tilde.
func isPeriodicHeader(line string) bool {
	if !strings.HasPrefix(line, "~") {
		return false
	}
	rest := line[1:]
	if rest == "" || (rest[0] != ' ' && rest[0] != '\t') {
		return false
	}
	return strings.TrimSpace(rest) == "monthly"
}

// splitPosting breaks a budget posting into account and amount. The line
// must be indented at least four spaces, and account and amount must be
// separated by two or more spaces so accounts may contain single spaces.
func splitPosting(line string) (account, amount string, ok bool) {
	if !strings.HasPrefix(line, postingIndent) {
		return "", "", false
	}
	body := strings.TrimSpace(line)
	gap := strings.Index(body, "  ")
	if gap < 0 {
		return "", "", false
	}
	account = strings.TrimSpace(body[:gap])
	amount = strings.TrimSpace(body[gap:])
	if account == "" || amount == "" {
		return "", "", false
	}
	return account, amount, true
}

// FormatRules renders rules as a periodic budget block: the "~ monthly"
// header, one aligned posting per rule, and the balancing account line.
// No rules renders to an empty string rather than an empty block.
func FormatRules(rules []Rule) string {
	if len(rules) == 0 {
		return ""
	}

	width := minAccountColumn
	for _, rule := range rules {
		if n := utf8.RuneCountInString(rule.Account) + accountPadding; n > width {
			width = n
		}
	}

	var b strings.Builder
	b.WriteString(periodicHeader + "\n")
	for _, rule := range rules {
		b.WriteString(postingIndent)
		b.WriteString(rule.Account)
		b.WriteString(strings.Repeat(" ", width-utf8.RuneCountInString(rule.Account)))
		b.WriteString(rule.Amount.String())
		b.WriteString("\n")
	}
	b.WriteString(postingIndent + BalancingAccount + "\n")
	return b.String()
}
