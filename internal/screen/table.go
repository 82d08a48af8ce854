// Package screen holds the in-memory daily price tables and computes the
// CANSLIM indicator columns on them: moving averages, 52-week-high and
// volume-surge flags, leadership (excess return), accumulation/distribution,
// EPS growth from filings, and the market-direction flag.
package screen

import (
	"sort"
	"time"

	"canslim/internal/domain"
)

// Row is one (symbol, date) bar extended with the derived indicator fields.
// Derived fields for a date depend only on data on or before that date.
type Row struct {
	domain.Bar

	Return  float64 // daily simple return, 0 on the first day of a series
	MAShort float64 // 50-day close average (market proxy rows only)
	MALong  float64 // 200-day close average (market proxy rows only)

	MarketBullish bool // market proxy trend flag, joined onto every row by date

	High52W float64 // trailing max close over the new-high lookback
	NewHigh bool

	VolAvg50    float64 // trailing 50-day mean volume
	VolumeSurge bool

	LeaderScore float64 // smoothed excess return over the market
	Leadership  bool    // instantaneous excess return above threshold

	ADRatio float64 // trailing mean accumulation/distribution value
	AccumOK bool

	EPSQuarterlyOK bool
	EPSAnnualOK    bool

	PassesAll       bool // all six stock screens
	PassesEitherEPS bool // screens with the two EPS checks relaxed to OR
}

type rowKey struct {
	symbol string
	date   time.Time
}

// Table is an immutable-shape collection of Rows indexed by symbol and date.
// Enrichment mutates indicator fields in place but never adds or removes rows,
// so pointers handed out by lookups stay valid.
type Table struct {
	series map[string][]Row // per symbol, ascending by date
	index  map[rowKey]*Row
	byDate map[time.Time][]*Row
	dates  []time.Time // unique, ascending
}

// NewTable builds a Table from raw bars, normalizing dates, sorting each
// symbol's series ascending, and dropping duplicate (symbol, date) rows.
func NewTable(bars []domain.Bar) *Table {
	series := make(map[string][]Row)
	for _, b := range bars {
		b.Date = domain.Day(b.Date)
		series[b.Symbol] = append(series[b.Symbol], Row{Bar: b})
	}

	t := &Table{
		series: series,
		index:  make(map[rowKey]*Row),
		byDate: make(map[time.Time][]*Row),
	}

	for sym, rows := range series {
		sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })

		deduped := rows[:0]
		var prev time.Time
		for i := range rows {
			if i > 0 && rows[i].Date.Equal(prev) {
				continue
			}
			prev = rows[i].Date
			deduped = append(deduped, rows[i])
		}
		series[sym] = deduped
	}

	for sym, rows := range series {
		for i := range rows {
			r := &rows[i]
			t.index[rowKey{sym, r.Date}] = r
			t.byDate[r.Date] = append(t.byDate[r.Date], r)
		}
	}

	t.dates = make([]time.Time, 0, len(t.byDate))
	for d := range t.byDate {
		t.dates = append(t.dates, d)
	}
	sort.Slice(t.dates, func(i, j int) bool { return t.dates[i].Before(t.dates[j]) })

	return t
}

// Symbols returns the sorted symbols present in the table.
func (t *Table) Symbols() []string {
	syms := make([]string, 0, len(t.series))
	for s := range t.series {
		syms = append(syms, s)
	}
	sort.Strings(syms)
	return syms
}

// Series returns the rows for one symbol, ascending by date. The returned
// slice is the table's backing storage; callers must not append to it.
func (t *Table) Series(symbol string) []Row {
	return t.series[symbol]
}

// Row returns the row for (symbol, date), if present.
func (t *Table) Row(symbol string, date time.Time) (*Row, bool) {
	r, ok := t.index[rowKey{symbol, domain.Day(date)}]
	return r, ok
}

// Price returns the close price for (symbol, date), if present.
func (t *Table) Price(symbol string, date time.Time) (float64, bool) {
	r, ok := t.Row(symbol, date)
	if !ok {
		return 0, false
	}
	return r.Close, true
}

// At returns all rows on the given date, in no particular symbol order.
func (t *Table) At(date time.Time) []*Row {
	return t.byDate[domain.Day(date)]
}

// Dates returns every distinct date in the table, ascending.
func (t *Table) Dates() []time.Time {
	return t.dates
}

// DatesBetween returns the table's dates within [start, end], ascending.
func (t *Table) DatesBetween(start, end time.Time) []time.Time {
	start, end = domain.Day(start), domain.Day(end)
	lo := sort.Search(len(t.dates), func(i int) bool { return !t.dates[i].Before(start) })
	hi := sort.Search(len(t.dates), func(i int) bool { return t.dates[i].After(end) })
	return t.dates[lo:hi]
}

// Len returns the total number of rows.
func (t *Table) Len() int {
	return len(t.index)
}
