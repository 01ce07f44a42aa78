package hledger

import (
	"strings"
	"unicode"
)

// parseStats picks the interesting lines out of `hledger stats` text
// output. Lines it does not recognise are ignored, so newer hledger
// versions adding lines cannot break it.
func parseStats(out []byte) JournalStats {
	var stats JournalStats
	for _, line := range strings.Split(string(out), "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "Txns":
			stats.Transactions = leadingInt(value)
		case "Accounts":
			stats.Accounts = leadingInt(value)
		case "Commodities":
			stats.Commodities = parenthesizedList(value)
		case "Txns span":
			// "2026-01-01 to 2026-02-02 (32 days)"
			fields := strings.Fields(value)
			if len(fields) >= 3 && fields[1] == "to" {
				stats.Begin = fields[0]
				stats.End = fields[2]
			}
		}
	}
	return stats
}

// leadingInt parses the integer a stats value starts with, e.g. 3 from
// "3 (0.1/day)".
func leadingInt(s string) int {
	n := 0
	seen := false
	for _, r := range s {
		if !unicode.IsDigit(r) {
			break
		}
		n = n*10 + int(r-'0')
		seen = true
	}
	if !seen {
		return 0
	}
	return n
}

// parenthesizedList splits the comma-separated list inside a stats value's
// parentheses, e.g. [€ XDWD] from "2 (€, XDWD)".
func parenthesizedList(s string) []string {
	open := strings.Index(s, "(")
	closing := strings.LastIndex(s, ")")
	if open < 0 || closing <= open {
		return nil
	}
	inner := strings.TrimSpace(s[open+1 : closing])
	if inner == "" {
		return nil
	}
	parts := strings.Split(inner, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}
