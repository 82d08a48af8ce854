// Package backtest runs day-by-day portfolio simulations over enriched
// market data and summarizes the resulting value series.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"canslim/internal/domain"
	"canslim/internal/screen"
	"canslim/internal/strategy"
)

// weightSumTolerance absorbs floating-point drift when checking that target
// weights stay within a fully-invested portfolio.
const weightSumTolerance = 1e-6

// ValuePoint is one day of the simulated portfolio value series.
type ValuePoint struct {
	Date  time.Time
	Value float64
}

// Engine drives the simulation loop: it marks the portfolio to market every
// trading day and hands control to the strategy on rebalance dates.
type Engine struct {
	initialValue float64
}

// New creates an Engine starting each run at initialValue.
func New(initialValue float64) *Engine {
	return &Engine{initialValue: initialValue}
}

// Run simulates alloc over snap between the first rebalance date and the
// last one, clipped to the last date with market data. It returns one
// ValuePoint per trading day of the market proxy, in date order.
//
// Holdings are replaced wholesale at every rebalance. Any portfolio fraction
// the strategy leaves unallocated, or that cannot be invested for lack of a
// price, sits as cash at zero return. A held position with no price on a
// valuation day contributes zero to that day's value.
func (e *Engine) Run(ctx context.Context, alloc strategy.Allocator, snap *strategy.Snapshot, rebalanceDates []time.Time) ([]ValuePoint, error) {
	if len(rebalanceDates) == 0 {
		return nil, errors.New("backtest: no rebalance dates in range")
	}
	if snap.Proxies == nil || snap.Proxies.Len() == 0 {
		return nil, errors.New("backtest: proxy table is empty")
	}

	dates := append([]time.Time(nil), rebalanceDates...)
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	proxyDates := snap.Proxies.Dates()
	lastMarket := proxyDates[len(proxyDates)-1]
	start, end := dates[0], dates[len(dates)-1]
	if end.After(lastMarket) {
		slog.Warn("clipping backtest end to last available market date",
			"requested", end.Format("2006-01-02"),
			"clipped", lastMarket.Format("2006-01-02"))
		end = lastMarket
	}

	days := snap.Proxies.DatesBetween(start, end)
	if len(days) == 0 {
		return nil, fmt.Errorf("backtest: no trading days between %s and %s",
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	isRebalance := make(map[time.Time]bool, len(dates))
	for _, d := range dates {
		if !d.After(end) {
			isRebalance[domain.Day(d)] = true
		}
	}

	var (
		holdings = map[string]float64{}
		cash     = 0.0
		first    = true
		series   = make([]ValuePoint, 0, len(days))
	)
	for _, day := range days {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		value := cash + markToMarket(holdings, snap, day)

		if isRebalance[domain.Day(day)] {
			if first {
				value = e.initialValue
			}
			weights, err := alloc.Allocate(day, value, snap, first)
			if err != nil {
				return nil, fmt.Errorf("backtest: %s allocate on %s: %w",
					alloc.Name(), day.Format("2006-01-02"), err)
			}
			checkWeights(alloc.Name(), day, weights)
			holdings, cash = invest(weights, value, snap, day)
			first = false
		}

		series = append(series, ValuePoint{Date: day, Value: value})
	}
	return series, nil
}

// sortedKeys returns the map keys in lexical order so float accumulation
// over holdings and weights is reproducible across runs.
func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// markToMarket values the held shares at the day's closes. Positions without
// a price contribute zero.
func markToMarket(holdings map[string]float64, snap *strategy.Snapshot, date time.Time) float64 {
	total := 0.0
	for _, sym := range sortedKeys(holdings) {
		p, ok := snap.Price(sym, date)
		if !ok {
			slog.Warn("no price for held position, valuing at zero",
				"symbol", sym, "date", date.Format("2006-01-02"))
			continue
		}
		total += holdings[sym] * p
	}
	return total
}

// invest converts target weights into share counts at the day's closes and
// returns the new holdings plus the uninvested cash remainder. Negative
// weights become short positions; targets without a positive price are
// skipped and their weight stays in cash.
func invest(weights map[string]float64, value float64, snap *strategy.Snapshot, date time.Time) (map[string]float64, float64) {
	holdings := make(map[string]float64, len(weights))
	invested := 0.0
	for _, sym := range sortedKeys(weights) {
		w := weights[sym]
		if w == 0 {
			continue
		}
		p, ok := snap.Price(sym, date)
		if !ok || p <= 0 {
			slog.Warn("skipping unpriceable allocation target",
				"symbol", sym, "date", date.Format("2006-01-02"), "weight", w)
			continue
		}
		amount := w * value
		holdings[sym] = amount / p
		invested += amount
	}
	return holdings, value - invested
}

// checkWeights flags negative weights and over-allocation. Violations are
// logged and the run proceeds, so a misbehaving strategy is visible without
// aborting a long sweep.
func checkWeights(name string, date time.Time, weights map[string]float64) {
	sum := 0.0
	for _, sym := range sortedKeys(weights) {
		w := weights[sym]
		if w < 0 {
			slog.Error("negative target weight",
				"strategy", name, "symbol", sym, "weight", w,
				"date", date.Format("2006-01-02"))
		}
		sum += w
	}
	if sum > 1+weightSumTolerance {
		slog.Error("target weights exceed full allocation",
			"strategy", name, "sum", sum, "date", date.Format("2006-01-02"))
	}
}

// ProxySeries extracts one symbol's close series from a table as ValuePoints
// between start and end inclusive. It is used to turn the cash proxy into a
// benchmark series for risk-free rate estimation.
func ProxySeries(t *screen.Table, symbol string, start, end time.Time) []ValuePoint {
	var out []ValuePoint
	for _, r := range t.Series(symbol) {
		if r.Date.Before(start) || r.Date.After(end) {
			continue
		}
		out = append(out, ValuePoint{Date: r.Date, Value: r.Close})
	}
	return out
}
