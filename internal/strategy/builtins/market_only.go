// Package builtins provides the built-in allocation strategies that ship
// with the canslim platform.
package builtins

import (
	"time"

	"canslim/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Allocator = (*MarketOnly)(nil)

// MarketOnly always invests fully in the market proxy. It is the buy-and-hold
// baseline the other strategies are compared against.
type MarketOnly struct{}

// NewMarketOnly creates a MarketOnly strategy.
func NewMarketOnly() *MarketOnly {
	return &MarketOnly{}
}

// Name returns "market-only".
func (s *MarketOnly) Name() string { return "market-only" }

// Allocate puts the entire portfolio in the market proxy.
func (s *MarketOnly) Allocate(_ time.Time, _ float64, snap *strategy.Snapshot, _ bool) (map[string]float64, error) {
	return map[string]float64{snap.MarketProxy: 1.0}, nil
}
