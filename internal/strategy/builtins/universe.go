package builtins

import (
	"time"

	"canslim/internal/strategy"
)

// Compile-time interface checks.
var _ strategy.Allocator = (*UniverseEqual)(nil)
var _ strategy.Allocator = (*UniverseWeighted)(nil)

// UniverseEqual spreads the portfolio equally across every universe member
// with a price row on the rebalance date.
type UniverseEqual struct{}

// NewUniverseEqual creates a UniverseEqual strategy.
func NewUniverseEqual() *UniverseEqual {
	return &UniverseEqual{}
}

// Name returns "universe-equal".
func (s *UniverseEqual) Name() string { return "universe-equal" }

// Allocate equal-weights the priceable universe members, or holds the cash
// proxy when none exist.
func (s *UniverseEqual) Allocate(date time.Time, _ float64, snap *strategy.Snapshot, _ bool) (map[string]float64, error) {
	members := priceable(snap, date)
	if len(members) == 0 {
		return map[string]float64{snap.CashProxy: 1.0}, nil
	}

	weight := 1.0 / float64(len(members))
	alloc := make(map[string]float64, len(members))
	for _, sym := range members {
		alloc[sym] = weight
	}
	return alloc, nil
}

// UniverseWeighted weights universe members by their smoothed leadership
// score, falling back to equal weight when no member scores positive.
type UniverseWeighted struct{}

// NewUniverseWeighted creates a UniverseWeighted strategy.
func NewUniverseWeighted() *UniverseWeighted {
	return &UniverseWeighted{}
}

// Name returns "universe-weighted".
func (s *UniverseWeighted) Name() string { return "universe-weighted" }

// Allocate weights by positive leadership score.
func (s *UniverseWeighted) Allocate(date time.Time, value float64, snap *strategy.Snapshot, first bool) (map[string]float64, error) {
	members := priceable(snap, date)
	if len(members) == 0 {
		return map[string]float64{snap.CashProxy: 1.0}, nil
	}

	scores := make(map[string]float64, len(members))
	total := 0.0
	for _, sym := range members {
		r, ok := snap.Stocks.Row(sym, date)
		if !ok || r.LeaderScore <= 0 {
			continue
		}
		scores[sym] = r.LeaderScore
		total += r.LeaderScore
	}

	if total <= 0 {
		// Nothing is leading the market: fall back to equal weight.
		return NewUniverseEqual().Allocate(date, value, snap, first)
	}

	alloc := make(map[string]float64, len(scores))
	for sym, sc := range scores {
		alloc[sym] = sc / total
	}
	return alloc, nil
}

// priceable returns the universe members that have a stock price row on the
// given date. With no universe configured, every stock with a row qualifies.
func priceable(snap *strategy.Snapshot, date time.Time) []string {
	var out []string
	for _, r := range snap.Stocks.At(date) {
		if snap.Universe != nil && !snap.Universe.Contains(r.Symbol, date) {
			continue
		}
		out = append(out, r.Symbol)
	}
	return out
}
