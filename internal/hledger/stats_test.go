package hledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const statsOutput = `Main file            : /home/user/finance/test.journal
Included files       : 1
Txns span            : 2026-01-01 to 2026-02-02 (32 days)
Last txn             : 2026-02-01 (24 days ago)
Txns                 : 3 (0.1/day)
Txns last 30 days    : 0 (0.0/day)
Txns last 7 days     : 0 (0.0/day)
Payees/descriptions  : 3
Accounts             : 5 (depth 3)
Commodities          : 2 (€, XDWD)
Market prices        : 0 ()
`

func TestParseStats_FullOutput(t *testing.T) {
	stats := parseStats([]byte(statsOutput))

	assert.Equal(t, 3, stats.Transactions)
	assert.Equal(t, 5, stats.Accounts)
	assert.Equal(t, []string{"€", "XDWD"}, stats.Commodities)
	assert.Equal(t, "2026-01-01", stats.Begin)
	assert.Equal(t, "2026-02-02", stats.End)
}

func TestParseStats_TxnsLastDaysLinesIgnored(t *testing.T) {
	stats := parseStats([]byte("Txns last 30 days    : 99 (3.3/day)\nTxns                 : 7 (0.1/day)\n"))

	assert.Equal(t, 7, stats.Transactions)
}

func TestParseStats_EmptyCommodityList(t *testing.T) {
	stats := parseStats([]byte("Commodities          : 0 ()\n"))

	assert.Empty(t, stats.Commodities)
}

func TestParseStats_EmptyOutput(t *testing.T) {
	stats := parseStats(nil)

	assert.Equal(t, 0, stats.Transactions)
	assert.Equal(t, 0, stats.Accounts)
	assert.Empty(t, stats.Commodities)
	assert.Equal(t, "", stats.Begin)
}

func TestLeadingInt_Values(t *testing.T) {
	assert.Equal(t, 3, leadingInt("3 (0.1/day)"))
	assert.Equal(t, 120, leadingInt("120"))
	assert.Equal(t, 0, leadingInt("(none)"))
	assert.Equal(t, 0, leadingInt(""))
}
