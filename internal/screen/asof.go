package screen

import (
	"sort"
	"time"
)

// asOfFlag is a boolean fact that becomes effective on Date and stays in
// force until superseded by a later entry.
type asOfFlag struct {
	Date time.Time
	OK   bool
}

// asOfSeries answers "latest flag known on or before d" lookups over entries
// sorted ascending by date. This is the point-in-time join used to apply EPS
// filings to price dates without look-ahead.
type asOfSeries []asOfFlag

// Lookup returns the flag in force at d. Dates before the first entry yield
// false.
func (s asOfSeries) Lookup(d time.Time) bool {
	// First entry strictly after d; the one before it is in force.
	i := sort.Search(len(s), func(i int) bool { return s[i].Date.After(d) })
	if i == 0 {
		return false
	}
	return s[i-1].OK
}

// sortAsOf orders entries ascending by date. Duplicate dates keep their
// relative order; Lookup then sees the last one, matching "latest filing
// wins" semantics.
func sortAsOf(s asOfSeries) {
	sort.SliceStable(s, func(i, j int) bool { return s[i].Date.Before(s[j].Date) })
}
