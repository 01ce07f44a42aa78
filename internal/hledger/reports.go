package hledger

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/calder-fi/hledger-engine/internal/ledger"
)

// ReportRow is one line of a compound report. Amounts are kept as the
// display strings hledger printed; use ParseReportAmount when a number is
// needed.
type ReportRow struct {
	Label           string
	Amounts         []string
	IsSectionHeader bool
	IsTotal         bool
}

// Report is a parsed multi-period report such as an income statement.
type Report struct {
	Title         string
	PeriodHeaders []string
	Rows          []ReportRow
}

// parseReportCSV turns hledger's CSV report output into a Report. The CSV
// carries no row-type information, so rows are classified heuristically:
// the first row is the title, the second the period headers, a row whose
// label starts with "Total:" or "Net:" is a total, and a row whose cells
// are all empty or "0" is a section header. A real account whose balance is
// zero in every period is classified as a section header by that last rule;
// known limitation, kept because the alternative is guessing at account
// depth. All classification quirks live in this one function.
func parseReportCSV(data []byte) (*Report, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse report CSV: %w", err)
	}
	if len(records) < 2 {
		return &Report{}, nil
	}

	report := &Report{
		Title:         records[0][0],
		PeriodHeaders: records[1][1:],
	}

	for _, record := range records[2:] {
		if len(record) == 0 {
			continue
		}
		row := ReportRow{Label: record[0], Amounts: record[1:]}

		label := strings.ToLower(row.Label)
		row.IsTotal = strings.HasPrefix(label, "total:") || strings.HasPrefix(label, "net:")
		if !row.IsTotal {
			row.IsSectionHeader = allEmptyOrZero(row.Amounts)
		}
		report.Rows = append(report.Rows, row)
	}
	return report, nil
}

func allEmptyOrZero(cells []string) bool {
	for _, cell := range cells {
		if cell != "" && cell != "0" {
			return false
		}
	}
	return true
}

// ParseReportAmount converts a report cell like "€1,234.50" or "$-40.80"
// into a signed float for charting. Cells that do not contain a parseable
// amount come back as 0.
func ParseReportAmount(cell string) float64 {
	return ledger.ParseAmountLenient(cell).Quantity.InexactFloat64()
}
