package domain

import (
	"testing"
	"time"
)

func TestDayNormalizes(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("loading location: %v", err)
	}

	// Same calendar day in different zones and clock times must collapse to
	// one key.
	a := Day(time.Date(2024, 6, 15, 16, 0, 0, 0, loc))
	b := Day(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC))
	if !a.Equal(b) {
		t.Errorf("Day mismatch: %v vs %v", a, b)
	}
	if a != b {
		t.Errorf("Day values not comparable as map keys: %v vs %v", a, b)
	}
}

func TestParseDay(t *testing.T) {
	d, err := ParseDay("2024-03-31")
	if err != nil {
		t.Fatalf("ParseDay: %v", err)
	}
	want := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	if !d.Equal(want) {
		t.Errorf("ParseDay = %v, want %v", d, want)
	}

	if _, err := ParseDay("31/03/2024"); err == nil {
		t.Error("ParseDay accepted a non-ISO date")
	}
}

func TestTimeframeConstants(t *testing.T) {
	if TimeframeQuarterly != "quarterly" || TimeframeAnnual != "annual" {
		t.Error("Timeframe constants have unexpected values")
	}

	// Zero-value Bar should be inert.
	bar := Bar{}
	if bar.Symbol != "" || !bar.Date.IsZero() {
		t.Error("zero-value Bar is not empty")
	}
	if bar.Open != 0 || bar.High != 0 || bar.Low != 0 || bar.Close != 0 || bar.Volume != 0 {
		t.Error("zero-value Bar has nonzero OHLCV")
	}
}
