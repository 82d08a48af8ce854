// Package calendar derives rebalance schedules from a trading-day calendar.
// The calendar itself is the set of dates present in the market proxy's own
// price series, not an external exchange calendar.
package calendar

import (
	"log/slog"
	"sort"
	"time"

	"canslim/internal/domain"
)

// Frequency selects how often the portfolio is rebalanced.
type Frequency string

const (
	Daily     Frequency = "daily"
	Weekly    Frequency = "weekly"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Yearly    Frequency = "yearly"
)

// ParseFrequency maps a frequency string to a Frequency. Unknown strings fall
// back to Quarterly with a logged warning rather than failing the run.
func ParseFrequency(s string) Frequency {
	switch Frequency(s) {
	case Daily, Weekly, Monthly, Quarterly, Yearly:
		return Frequency(s)
	default:
		slog.Warn("unknown rebalance frequency, falling back to quarterly", "frequency", s)
		return Quarterly
	}
}

// RebalanceDates returns the ordered, deduplicated rebalance dates within
// [start, end]: every trading day for Daily, otherwise the last trading day
// of each period bucket. An empty result means the range covers no trading
// days; callers must treat that as a hard stop.
func RebalanceDates(tradingDays []time.Time, freq Frequency, start, end time.Time) []time.Time {
	days := clipDays(tradingDays, start, end)
	if len(days) == 0 {
		return nil
	}
	if freq == Daily {
		return days
	}

	type bucket struct {
		year, sub int
	}
	key := func(d time.Time) bucket {
		switch freq {
		case Weekly:
			y, w := d.ISOWeek()
			return bucket{y, w}
		case Monthly:
			return bucket{d.Year(), int(d.Month())}
		case Yearly:
			return bucket{d.Year(), 0}
		default: // Quarterly
			return bucket{d.Year(), (int(d.Month()) - 1) / 3}
		}
	}

	// days are ascending, so the last write per bucket is the bucket max.
	last := make(map[bucket]time.Time)
	for _, d := range days {
		last[key(d)] = d
	}

	out := make([]time.Time, 0, len(last))
	for _, d := range last {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// FilingAlignedDates maps each reporting period end to the last trading day
// on or before it, for schedules that track earnings releases instead of
// calendar boundaries. A period end preceding every trading day falls back to
// the earliest trading day with a logged warning.
func FilingAlignedDates(tradingDays []time.Time, periodEnds []time.Time) []time.Time {
	days := clipDays(tradingDays, time.Time{}, time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC))
	if len(days) == 0 {
		return nil
	}

	seen := make(map[time.Time]bool)
	var out []time.Time
	for _, end := range periodEnds {
		end = domain.Day(end)
		// First trading day strictly after the period end; its predecessor is
		// the aligned date.
		i := sort.Search(len(days), func(i int) bool { return days[i].After(end) })
		var aligned time.Time
		if i == 0 {
			aligned = days[0]
			slog.Warn("no trading day on or before period end, using earliest available day",
				"periodEnd", end.Format("2006-01-02"), "fallback", aligned.Format("2006-01-02"))
		} else {
			aligned = days[i-1]
		}
		if !seen[aligned] {
			seen[aligned] = true
			out = append(out, aligned)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// clipDays normalizes, sorts, deduplicates, and clips the trading days to
// [start, end]. A zero start or end leaves that side unbounded.
func clipDays(tradingDays []time.Time, start, end time.Time) []time.Time {
	var days []time.Time
	seen := make(map[time.Time]bool, len(tradingDays))
	for _, d := range tradingDays {
		d = domain.Day(d)
		if !start.IsZero() && d.Before(domain.Day(start)) {
			continue
		}
		if !end.IsZero() && d.After(domain.Day(end)) {
			continue
		}
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}
