package hledger

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/calder-fi/hledger-engine/internal/budget"
	"github.com/calder-fi/hledger-engine/internal/ledger"
)

// investmentsQuery selects the account subtree holding securities.
const investmentsQuery = "^assets:investments"

// Client runs hledger against one journal file and decodes the results into
// model types. All reads go through the binary so the numbers always agree
// with what hledger itself would print.
type Client struct {
	journal string
	runner  Runner
}

// NewClient returns a client for the given journal file.
func NewClient(journal string, runner Runner) *Client {
	return &Client{journal: journal, runner: runner}
}

// JournalFile returns the path of the journal the client reads.
func (c *Client) JournalFile() string {
	return c.journal
}

func (c *Client) run(ctx context.Context, args ...string) ([]byte, error) {
	full := append([]string{"-f", c.journal}, args...)
	return c.runner.Run(ctx, full...)
}

// Check validates the journal and returns nil when hledger accepts it.
func (c *Client) Check(ctx context.Context) error {
	_, err := c.run(ctx, "check")
	return err
}

// Version returns the engine's version string, e.g. "1.40".
func (c *Client) Version(ctx context.Context) (string, error) {
	out, err := c.runner.Run(ctx, "--version")
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(string(out), "\n")
	line = strings.TrimSpace(strings.TrimPrefix(line, "hledger "))
	version, _, _ := strings.Cut(line, ",")
	return version, nil
}

// Transactions loads journal entries, newest first. A non-empty query is
// run through ExpandSearchQuery and passed to hledger as filter terms.
func (c *Client) Transactions(ctx context.Context, query string) ([]ledger.Transaction, error) {
	args := []string{"print", "-O", "json"}
	if query != "" {
		args = append(args, strings.Fields(ExpandSearchQuery(query))...)
	}

	out, err := c.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	txns, err := DecodeTransactions(out)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(txns)-1; i < j; i, j = i+1, j-1 {
		txns[i], txns[j] = txns[j], txns[i]
	}
	return txns, nil
}

// AccountNames lists every account used in the journal.
func (c *Client) AccountNames(ctx context.Context) ([]string, error) {
	return c.lines(ctx, "accounts")
}

// Descriptions lists every distinct transaction description.
func (c *Client) Descriptions(ctx context.Context) ([]string, error) {
	return c.lines(ctx, "descriptions")
}

func (c *Client) lines(ctx context.Context, args ...string) ([]string, error) {
	out, err := c.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	var lines []string
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

// AccountBalances lists flat per-account balances, optionally filtered by a
// search query and bounded by a period.
func (c *Client) AccountBalances(ctx context.Context, query string, period Period) ([]AccountBalance, error) {
	args := []string{"balance", "--flat", "--no-total", "-O", "csv"}
	args = append(args, period.Flags()...)
	if query != "" {
		args = append(args, strings.Fields(ExpandSearchQuery(query))...)
	}

	out, err := c.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	return parseBalanceCSV(out)
}

// ExpenseBreakdown returns the period's expense accounts sorted by amount,
// largest first.
func (c *Client) ExpenseBreakdown(ctx context.Context, period Period) ([]AccountBalance, error) {
	balances, err := c.AccountBalances(ctx, "^expenses", period)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(balances, func(i, j int) bool {
		return balances[i].Amount.Quantity.GreaterThan(balances[j].Amount.Quantity)
	})
	return balances, nil
}

// PeriodSummary aggregates income, expenses and investment contributions
// for the period. Income and expenses are reported as absolute values;
// investment contributions are valued at cost so transfers into securities
// count as the money spent on them.
func (c *Client) PeriodSummary(ctx context.Context, period Period) (*PeriodSummary, error) {
	income, incomeCommodity, err := c.sumBalances(ctx, "^income", period, false)
	if err != nil {
		return nil, err
	}
	expenses, expenseCommodity, err := c.sumBalances(ctx, "^expenses", period, false)
	if err != nil {
		return nil, err
	}
	invested, _, err := c.sumBalances(ctx, investmentsQuery, period, true)
	if err != nil {
		return nil, err
	}

	commodity := incomeCommodity
	if commodity == "" {
		commodity = expenseCommodity
	}
	return &PeriodSummary{
		Income:      income.Abs(),
		Expenses:    expenses,
		Investments: invested,
		Commodity:   commodity,
	}, nil
}

// sumBalances totals a balance listing into a single quantity. The
// commodity of the first row wins; mixed-commodity listings are summed
// naively, which is fine for the single-currency journals this targets.
func (c *Client) sumBalances(ctx context.Context, query string, period Period, atCost bool) (decimal.Decimal, string, error) {
	args := []string{"balance", query, "--flat", "--no-total", "-O", "csv"}
	if atCost {
		args = append(args, "--cost")
	}
	args = append(args, period.Flags()...)

	out, err := c.run(ctx, args...)
	if err != nil {
		return decimal.Zero, "", err
	}
	rows, err := parseBalanceCSV(out)
	if err != nil {
		return decimal.Zero, "", err
	}

	total := decimal.Zero
	commodity := ""
	for _, row := range rows {
		total = total.Add(row.Amount.Quantity)
		if commodity == "" {
			commodity = row.Amount.Commodity
		}
	}
	return total, commodity, nil
}

// Stats loads journal statistics.
func (c *Client) Stats(ctx context.Context) (*JournalStats, error) {
	out, err := c.run(ctx, "stats")
	if err != nil {
		return nil, err
	}
	stats := parseStats(out)
	return &stats, nil
}

// Report loads a compound report with monthly columns. A non-empty
// commodity adds -X so hledger converts every column into it.
func (c *Client) Report(ctx context.Context, kind ReportKind, period Period, commodity string) (*Report, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown report kind %q", kind)
	}
	args := []string{string(kind), "--monthly", "-O", "csv"}
	args = append(args, period.Flags()...)
	if commodity != "" {
		args = append(args, "-X", commodity)
	}

	out, err := c.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	return parseReportCSV(out)
}

// Positions aggregates investment holdings by security. Each security gets
// its total quantity, its cost basis, and, when a prices file is supplied,
// its current market value. Rows hledger could not convert to a price (the
// cell still carries the security's own commodity) leave the market value
// untouched.
func (c *Client) Positions(ctx context.Context, pricesFile string) ([]Position, error) {
	baseRows, err := c.investmentBalances(ctx)
	if err != nil {
		return nil, err
	}
	costRows, err := c.investmentBalances(ctx, "--cost")
	if err != nil {
		return nil, err
	}

	var marketRows []AccountBalance
	if pricesFile != "" {
		marketRows, err = c.investmentBalances(ctx, "--market", "-f", pricesFile)
		if err != nil {
			return nil, err
		}
	}

	costByAccount := balancesByAccount(costRows)
	marketByAccount := balancesByAccount(marketRows)

	positions := make(map[string]*Position)
	var order []string
	for _, row := range baseRows {
		security := row.Amount.Commodity
		if security == "" {
			continue
		}
		pos, ok := positions[security]
		if !ok {
			pos = &Position{Commodity: security}
			positions[security] = pos
			order = append(order, security)
		}
		pos.Quantity = pos.Quantity.Add(row.Amount.Quantity)

		if cost, ok := costByAccount[row.Account]; ok {
			addValue(&pos.CostBasis, cost)
		}
		if market, ok := marketByAccount[row.Account]; ok && market.Commodity != security {
			addValue(&pos.MarketValue, market)
		}
	}

	sort.Strings(order)
	result := make([]Position, 0, len(order))
	for _, security := range order {
		result = append(result, *positions[security])
	}
	return result, nil
}

func (c *Client) investmentBalances(ctx context.Context, extra ...string) ([]AccountBalance, error) {
	args := []string{"balance", investmentsQuery, "--flat", "--no-total", "-O", "csv"}
	args = append(args, extra...)

	out, err := c.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	return parseBalanceCSV(out)
}

func balancesByAccount(rows []AccountBalance) map[string]ledger.Amount {
	byAccount := make(map[string]ledger.Amount, len(rows))
	for _, row := range rows {
		byAccount[row.Account] = row.Amount
	}
	return byAccount
}

func addValue(total *ledger.Amount, amount ledger.Amount) {
	if total.Commodity == "" {
		total.Commodity = amount.Commodity
		total.Style = amount.Style
	}
	total.Quantity = total.Quantity.Add(amount.Quantity)
}

// BudgetVsActual joins budget rules with the period's actual spending. Each
// rule becomes one row, in rule order; accounts with no activity show an
// actual of zero.
func (c *Client) BudgetVsActual(ctx context.Context, rules []budget.Rule, period Period) ([]budget.Row, error) {
	if len(rules) == 0 {
		return nil, nil
	}

	balances, err := c.AccountBalances(ctx, "", period)
	if err != nil {
		return nil, err
	}
	actuals := make(map[string]decimal.Decimal, len(balances))
	for _, b := range balances {
		actuals[b.Account] = b.Amount.Quantity
	}

	rows := make([]budget.Row, 0, len(rules))
	for _, rule := range rules {
		rows = append(rows, budget.Row{
			Account:   rule.Account,
			Commodity: rule.Amount.Commodity,
			Budget:    rule.Amount.Quantity,
			Actual:    actuals[rule.Account].Abs(),
		})
	}
	return rows, nil
}

func parseBalanceCSV(data []byte) ([]AccountBalance, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse balance CSV: %w", err)
	}

	var balances []AccountBalance
	for i, record := range records {
		// The first record is the "account","balance" header.
		if i == 0 || len(record) < 2 || record[0] == "" || record[1] == "" {
			continue
		}
		balances = append(balances, AccountBalance{
			Account: record[0],
			Amount:  ledger.ParseAmountLenient(record[1]),
		})
	}
	return balances, nil
}
