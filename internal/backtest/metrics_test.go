package backtest

import (
	"math"
	"testing"
	"time"
)

func pts(start time.Time, values ...float64) []ValuePoint {
	out := make([]ValuePoint, len(values))
	for i, v := range values {
		out[i] = ValuePoint{Date: start.AddDate(0, 0, i), Value: v}
	}
	return out
}

func TestTotalReturn(t *testing.T) {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	if got := TotalReturn(pts(start, 100, 110, 125)); math.Abs(got-0.25) > 1e-12 {
		t.Errorf("TotalReturn = %v, want 0.25", got)
	}
	if got := TotalReturn(pts(start, 100)); got != 0 {
		t.Errorf("single point TotalReturn = %v, want 0", got)
	}
	if got := TotalReturn(nil); got != 0 {
		t.Errorf("empty TotalReturn = %v, want 0", got)
	}
}

func TestAnnualizedReturn(t *testing.T) {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	series := []ValuePoint{
		{Date: start, Value: 100},
		{Date: start.AddDate(0, 0, 365), Value: 110},
	}
	if got := AnnualizedReturn(series); math.Abs(got-0.10) > 1e-9 {
		t.Errorf("AnnualizedReturn over one year = %v, want 0.10", got)
	}

	// Two years at 21% total is 10% a year.
	series[1].Date = start.AddDate(0, 0, 730)
	series[1].Value = 121
	if got := AnnualizedReturn(series); math.Abs(got-0.10) > 1e-9 {
		t.Errorf("AnnualizedReturn over two years = %v, want 0.10", got)
	}
}

func TestAnnualizedVolatility(t *testing.T) {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	// Daily returns 0.01 and 0.03: sample stddev is sqrt(2)/100.
	series := pts(start, 100, 101, 101*1.03)
	want := math.Sqrt2 / 100 * math.Sqrt(252)
	if got := AnnualizedVolatility(series); math.Abs(got-want) > 1e-9 {
		t.Errorf("AnnualizedVolatility = %v, want %v", got, want)
	}

	// A constant-return series has zero volatility.
	if got := AnnualizedVolatility(pts(start, 100, 110, 121)); math.Abs(got) > 1e-12 {
		t.Errorf("constant-return volatility = %v, want 0", got)
	}
}

func TestMaxDrawdown(t *testing.T) {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	if got := MaxDrawdown(pts(start, 100, 120, 90, 130)); math.Abs(got-(-0.25)) > 1e-12 {
		t.Errorf("MaxDrawdown = %v, want -0.25", got)
	}
	if got := MaxDrawdown(pts(start, 100, 105, 110)); got != 0 {
		t.Errorf("rising series MaxDrawdown = %v, want 0", got)
	}
}

func TestSharpeAndSortino(t *testing.T) {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	series := pts(start, 100, 102, 99, 104, 101)

	vol := AnnualizedVolatility(series)
	wantSharpe := (AnnualizedReturn(series) - 0.02) / vol
	if got := SharpeRatio(series, 0.02); math.Abs(got-wantSharpe) > 1e-12 {
		t.Errorf("SharpeRatio = %v, want %v", got, wantSharpe)
	}

	// Sortino uses only the two down days, so its denominator differs from
	// the full volatility.
	sortino := SortinoRatio(series, 0.02)
	if sortino == wantSharpe {
		t.Error("Sortino should not equal Sharpe on a series with down days")
	}

	// Zero volatility maps to zero ratios, not a division blowup.
	flat := pts(start, 100, 100, 100)
	if got := SharpeRatio(flat, 0.02); got != 0 {
		t.Errorf("flat SharpeRatio = %v, want 0", got)
	}
	// No down days means no downside deviation.
	up := pts(start, 100, 105, 111)
	if got := SortinoRatio(up, 0.02); got != 0 {
		t.Errorf("no-down-day SortinoRatio = %v, want 0", got)
	}
}

func TestSummarize(t *testing.T) {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	series := pts(start, 100, 102, 99, 104)

	m := Summarize(series, 0.01)
	if m.TotalReturn != TotalReturn(series) {
		t.Errorf("TotalReturn = %v, want %v", m.TotalReturn, TotalReturn(series))
	}
	if m.MaxDrawdown >= 0 {
		t.Errorf("MaxDrawdown = %v, want negative", m.MaxDrawdown)
	}

	if got := Summarize(nil, 0.01); got != (Metrics{}) {
		t.Errorf("Summarize(nil) = %+v, want zero metrics", got)
	}
	if got := Summarize(series[:1], 0.01); got != (Metrics{}) {
		t.Errorf("Summarize(one point) = %+v, want zero metrics", got)
	}
}
