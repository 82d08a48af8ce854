// Package domain defines the core value types shared across the canslim
// platform: daily OHLCV bars, financial filings, and date helpers.
package domain

import "time"

// Timeframe identifies the reporting period of a financial filing.
type Timeframe string

const (
	TimeframeQuarterly Timeframe = "quarterly"
	TimeframeAnnual    Timeframe = "annual"
)

// Bar is one day of OHLCV data for a single symbol. Date is normalized to
// midnight UTC; there is at most one Bar per (symbol, date).
type Bar struct {
	Symbol string
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// Financial is one EPS filing for a symbol and fiscal period. EndDate is the
// reporting period end; indicator joins use it as the earliest date on which
// the filing may influence a signal.
type Financial struct {
	Symbol       string
	Timeframe    Timeframe
	FiscalYear   int
	FiscalPeriod string // "Q1".."Q4" for quarterly, "FY" for annual
	EndDate      time.Time
	DilutedEPS   float64
}

// Day truncates t to midnight UTC. All date keys in the platform are
// normalized through Day so that time.Time values compare and hash equal.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD string into a normalized date.
func ParseDay(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
