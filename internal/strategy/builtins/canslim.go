package builtins

import (
	"sort"
	"time"

	"canslim/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Allocator = (*CANSLIMSelect)(nil)

// CANSLIMSelect holds the cash proxy while the market trend is bearish and
// otherwise splits the portfolio equally among the first maxPositions symbols
// (alphabetical) passing all six stock screens on the rebalance date. With no
// qualifying symbols it falls back to the cash proxy.
type CANSLIMSelect struct {
	maxPositions int
	picks        *strategy.PickLog
}

// NewCANSLIMSelect creates a CANSLIMSelect strategy holding up to
// maxPositions names. picks may be nil.
func NewCANSLIMSelect(maxPositions int, picks *strategy.PickLog) *CANSLIMSelect {
	if maxPositions < 1 {
		maxPositions = 6
	}
	return &CANSLIMSelect{maxPositions: maxPositions, picks: picks}
}

// Name returns "canslim".
func (s *CANSLIMSelect) Name() string { return "canslim" }

// Allocate implements the screen-then-equal-weight selection.
func (s *CANSLIMSelect) Allocate(date time.Time, _ float64, snap *strategy.Snapshot, _ bool) (map[string]float64, error) {
	if !snap.MarketBullish(date) {
		s.picks.Record(date, nil)
		return map[string]float64{snap.CashProxy: 1.0}, nil
	}

	var chosen []string
	for _, r := range snap.Stocks.At(date) {
		if r.PassesAll {
			chosen = append(chosen, r.Symbol)
		}
	}
	sort.Strings(chosen)
	if len(chosen) > s.maxPositions {
		chosen = chosen[:s.maxPositions]
	}

	s.picks.Record(date, chosen)

	if len(chosen) == 0 {
		return map[string]float64{snap.CashProxy: 1.0}, nil
	}

	weight := 1.0 / float64(len(chosen))
	alloc := make(map[string]float64, len(chosen))
	for _, sym := range chosen {
		alloc[sym] = weight
	}
	return alloc, nil
}
