package core

import "time"

// Month is a calendar month in "YYYY-MM" form. It is the shared time axis
// for the membership ledger and every month-filtered report.
type Month string

const monthLayout = "2006-01"

// ParseMonth validates a "YYYY-MM" string.
func ParseMonth(s string) (Month, error) {
	if _, err := time.Parse(monthLayout, s); err != nil {
		return "", ErrInvalidMonth
	}
	return Month(s), nil
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month(t.Format(monthLayout))
}

func (m Month) time() (time.Time, bool) {
	t, err := time.Parse(monthLayout, string(m))
	return t, err == nil
}

// Valid reports whether m is a well-formed month.
func (m Month) Valid() bool {
	_, ok := m.time()
	return ok
}

// Before compares months chronologically. Well-formed months compare
// correctly as strings, which is also why date prefixes work as month
// filters on record dates.
func (m Month) Before(other Month) bool { return m < other }

// MatchesDate reports whether a "YYYY-MM-DD" date falls in this month.
// An empty month matches everything (no filter).
func (m Month) MatchesDate(date string) bool {
	if m == "" {
		return true
	}
	return len(date) >= len(m) && Month(date[:len(m)]) == m
}

// MonthsInRange returns every month from start to end inclusive, in
// order. Empty or malformed endpoints, or a reversed range, yield nil:
// no fiscal year selected means no month axis, never an error. The
// result is computed fresh on every call; callers must re-derive it
// whenever the fiscal year's boundaries change.
func MonthsInRange(start, end Month) []Month {
	from, ok := start.time()
	if !ok {
		return nil
	}
	to, ok := end.time()
	if !ok || to.Before(from) {
		return nil
	}
	var months []Month
	for cur := from; !cur.After(to); cur = cur.AddDate(0, 1, 0) {
		months = append(months, MonthOf(cur))
	}
	return months
}
