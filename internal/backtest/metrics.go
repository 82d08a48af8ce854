package backtest

import (
	"log/slog"
	"math"
)

// tradingDaysPerYear annualizes daily return statistics.
const tradingDaysPerYear = 252

// Metrics summarizes a simulated value series.
type Metrics struct {
	TotalReturn          float64
	AnnualizedReturn     float64
	AnnualizedVolatility float64
	MaxDrawdown          float64
	SharpeRatio          float64
	SortinoRatio         float64
}

// Summarize computes all metrics for series against an annualized risk-free
// rate. A series with fewer than two points yields zero metrics.
func Summarize(series []ValuePoint, riskFree float64) Metrics {
	if len(series) < 2 {
		slog.Warn("value series too short for metrics", "points", len(series))
		return Metrics{}
	}
	return Metrics{
		TotalReturn:          TotalReturn(series),
		AnnualizedReturn:     AnnualizedReturn(series),
		AnnualizedVolatility: AnnualizedVolatility(series),
		MaxDrawdown:          MaxDrawdown(series),
		SharpeRatio:          SharpeRatio(series, riskFree),
		SortinoRatio:         SortinoRatio(series, riskFree),
	}
}

// TotalReturn is the fractional gain from the first to the last point.
func TotalReturn(series []ValuePoint) float64 {
	if len(series) < 2 || series[0].Value == 0 {
		return 0
	}
	return series[len(series)-1].Value/series[0].Value - 1
}

// AnnualizedReturn is the compound annual growth rate over the series' span
// in calendar days.
func AnnualizedReturn(series []ValuePoint) float64 {
	if len(series) < 2 || series[0].Value <= 0 {
		return 0
	}
	first, last := series[0], series[len(series)-1]
	days := last.Date.Sub(first.Date).Hours() / 24
	if days <= 0 || last.Value <= 0 {
		return 0
	}
	return math.Pow(last.Value/first.Value, 365/days) - 1
}

// AnnualizedVolatility is the sample standard deviation of daily returns
// scaled to one year.
func AnnualizedVolatility(series []ValuePoint) float64 {
	return stddev(dailyReturns(series)) * math.Sqrt(tradingDaysPerYear)
}

// MaxDrawdown is the largest peak-to-trough loss, as a negative fraction
// (0 for a series that never declines).
func MaxDrawdown(series []ValuePoint) float64 {
	peak := math.Inf(-1)
	worst := 0.0
	for _, p := range series {
		if p.Value > peak {
			peak = p.Value
		}
		if peak > 0 {
			if dd := p.Value/peak - 1; dd < worst {
				worst = dd
			}
		}
	}
	return worst
}

// SharpeRatio is the annualized excess return over riskFree divided by
// annualized volatility, or 0 when volatility is zero.
func SharpeRatio(series []ValuePoint, riskFree float64) float64 {
	vol := AnnualizedVolatility(series)
	if vol == 0 {
		return 0
	}
	return (AnnualizedReturn(series) - riskFree) / vol
}

// SortinoRatio is like Sharpe but divides by downside volatility, the
// annualized standard deviation of only the negative daily returns. With no
// down days it returns 0.
func SortinoRatio(series []ValuePoint, riskFree float64) float64 {
	var downside []float64
	for _, r := range dailyReturns(series) {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	vol := stddev(downside) * math.Sqrt(tradingDaysPerYear)
	if vol == 0 {
		return 0
	}
	return (AnnualizedReturn(series) - riskFree) / vol
}

// dailyReturns converts the value series into simple day-over-day returns.
// Days following a zero value are skipped.
func dailyReturns(series []ValuePoint) []float64 {
	if len(series) < 2 {
		return nil
	}
	out := make([]float64, 0, len(series)-1)
	for i := 1; i < len(series); i++ {
		prev := series[i-1].Value
		if prev == 0 {
			continue
		}
		out = append(out, series[i].Value/prev-1)
	}
	return out
}

// stddev is the sample standard deviation, 0 for fewer than two samples.
func stddev(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(n)

	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}
