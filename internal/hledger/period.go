package hledger

import "time"

const dateLayout = "2006-01-02"

// Period is a half-open date range [Begin, End) aligned to whole months,
// rendered as hledger -b/-e flags. The zero Period means "no date filter".
type Period struct {
	Begin time.Time
	End   time.Time
}

// IsZero reports whether the period carries no bounds.
func (p Period) IsZero() bool {
	return p.Begin.IsZero() && p.End.IsZero()
}

// Flags renders the period as command-line arguments. A zero period renders
// to nothing.
func (p Period) Flags() []string {
	var flags []string
	if !p.Begin.IsZero() {
		flags = append(flags, "-b", p.Begin.Format(dateLayout))
	}
	if !p.End.IsZero() {
		flags = append(flags, "-e", p.End.Format(dateLayout))
	}
	return flags
}

// Month returns the period covering the calendar month containing t.
func Month(t time.Time) Period {
	begin := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return Period{Begin: begin, End: begin.AddDate(0, 1, 0)}
}

// LastMonths returns the period covering the n calendar months ending with
// the month containing t. The end bound is the first day of the following
// month so the current month is included in full. n == 0 means year to
// date: from January 1st of t's year.
func LastMonths(t time.Time, n int) Period {
	end := time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, t.Location())
	if n <= 0 {
		return Period{
			Begin: time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location()),
			End:   end,
		}
	}
	begin := time.Date(t.Year(), t.Month()-time.Month(n-1), 1, 0, 0, 0, 0, t.Location())
	return Period{Begin: begin, End: end}
}
