package builtins

import (
	"log/slog"
	"time"

	"canslim/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Allocator = (*RiskSwitch)(nil)

// RiskSwitch is a binary market/cash switch: fully in the market proxy while
// the market trend flag is bullish, fully in the cash proxy otherwise.
type RiskSwitch struct{}

// NewRiskSwitch creates a RiskSwitch strategy.
func NewRiskSwitch() *RiskSwitch {
	return &RiskSwitch{}
}

// Name returns "risk-switch".
func (s *RiskSwitch) Name() string { return "risk-switch" }

// Allocate returns the market proxy at full weight on bullish dates and the
// cash proxy otherwise. A missing market row defaults to cash.
func (s *RiskSwitch) Allocate(date time.Time, _ float64, snap *strategy.Snapshot, _ bool) (map[string]float64, error) {
	r, ok := snap.Proxies.Row(snap.MarketProxy, date)
	if !ok {
		slog.Warn("no market data on rebalance date, defaulting to cash proxy",
			"strategy", s.Name(), "date", date.Format("2006-01-02"))
		return map[string]float64{snap.CashProxy: 1.0}, nil
	}
	if r.MarketBullish {
		return map[string]float64{snap.MarketProxy: 1.0}, nil
	}
	return map[string]float64{snap.CashProxy: 1.0}, nil
}
