// Package strategy defines the Allocator interface for rebalance-time
// allocation strategies, the read-only market Snapshot they consume, and a
// Registry for managing multiple implementations.
package strategy

import (
	"sort"
	"time"

	"canslim/internal/screen"
)

// Allocator is the interface that all allocation strategies must implement.
type Allocator interface {
	// Name returns the unique identifier for this strategy.
	Name() string

	// Allocate maps a rebalance date and the portfolio's pre-rebalance value
	// to target weights (symbol → fraction of portfolio value). Weights
	// should be non-negative and sum to at most 1; any unallocated fraction
	// is idle cash. first is true only on the run's first rebalance.
	//
	// Allocate must treat snap as read-only; diagnostics go through an
	// explicitly owned PickLog, never through snapshot mutation.
	Allocate(date time.Time, value float64, snap *Snapshot, first bool) (map[string]float64, error)
}

// Snapshot is the read-only data context handed to strategies: the enriched
// proxy and stock tables, the universe membership, and the proxy symbols.
type Snapshot struct {
	Proxies  *screen.Table
	Stocks   *screen.Table
	Universe *screen.Universe

	MarketProxy string
	CashProxy   string
}

// Price returns the close for (symbol, date) from whichever table holds the
// symbol, proxies first.
func (s *Snapshot) Price(symbol string, date time.Time) (float64, bool) {
	if p, ok := s.Proxies.Price(symbol, date); ok {
		return p, true
	}
	return s.Stocks.Price(symbol, date)
}

// MarketBullish reports the market proxy's trend flag at date. A missing
// market row reads as not bullish, which steers strategies to their
// defensive allocation.
func (s *Snapshot) MarketBullish(date time.Time) bool {
	r, ok := s.Proxies.Row(s.MarketProxy, date)
	return ok && r.MarketBullish
}

// Registry holds a named collection of allocators for lookup and enumeration.
type Registry struct {
	strategies map[string]Allocator
}

// NewRegistry creates an empty strategy Registry.
func NewRegistry() *Registry {
	return &Registry{
		strategies: make(map[string]Allocator),
	}
}

// Register adds a strategy to the registry, keyed by its Name().
func (r *Registry) Register(a Allocator) {
	r.strategies[a.Name()] = a
}

// Get retrieves a strategy by name. The second return value indicates whether
// the strategy was found.
func (r *Registry) Get(name string) (Allocator, bool) {
	a, ok := r.strategies[name]
	return a, ok
}

// List returns a sorted slice of all registered strategy names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
