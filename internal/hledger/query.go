package hledger

import "strings"

// queryShorthands maps the short prefixes accepted in search input to the
// full hledger query prefixes.
var queryShorthands = map[string]string{
	"d":  "desc",
	"ac": "acct",
	"am": "amt",
}

// ExpandSearchQuery rewrites shorthand prefixes in a free-form search string
// into hledger query syntax: "d:" becomes "desc:", "ac:" becomes "acct:",
// "am:" becomes "amt:". Terms without a known shorthand pass through
// untouched, so full hledger query syntax keeps working.
func ExpandSearchQuery(query string) string {
	terms := strings.Fields(query)
	for i, term := range terms {
		prefix, rest, found := strings.Cut(term, ":")
		if !found {
			continue
		}
		if full, ok := queryShorthands[prefix]; ok {
			terms[i] = full + ":" + rest
		}
	}
	return strings.Join(terms, " ")
}
