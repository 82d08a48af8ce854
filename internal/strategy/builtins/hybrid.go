package builtins

import (
	"sort"
	"time"

	"canslim/internal/strategy"
)

// Compile-time interface check.
var _ strategy.Allocator = (*Hybrid)(nil)

// Hybrid is the factor-weighted variant: among universe members passing the
// relaxed screen (either EPS check instead of both), it scores each candidate
// by proximity to its 52-week high plus relative volume, keeps the top
// maxPositions scores, and allocates proportionally to score. Bearish dates
// and empty candidate sets fall back to the cash proxy.
type Hybrid struct {
	maxPositions int
	picks        *strategy.PickLog
}

// NewHybrid creates a Hybrid strategy holding up to maxPositions names.
// picks may be nil.
func NewHybrid(maxPositions int, picks *strategy.PickLog) *Hybrid {
	if maxPositions < 1 {
		maxPositions = 6
	}
	return &Hybrid{maxPositions: maxPositions, picks: picks}
}

// Name returns "hybrid".
func (s *Hybrid) Name() string { return "hybrid" }

// Allocate implements the scored selection.
func (s *Hybrid) Allocate(date time.Time, _ float64, snap *strategy.Snapshot, _ bool) (map[string]float64, error) {
	if !snap.MarketBullish(date) {
		s.picks.Record(date, nil)
		return map[string]float64{snap.CashProxy: 1.0}, nil
	}

	type scored struct {
		symbol string
		score  float64
	}
	var candidates []scored
	for _, r := range snap.Stocks.At(date) {
		if !r.PassesEitherEPS {
			continue
		}
		if snap.Universe != nil && !snap.Universe.Contains(r.Symbol, date) {
			continue
		}

		score := 0.0
		if r.High52W > 0 {
			score += r.Close / r.High52W
		}
		if r.VolAvg50 > 0 {
			score += float64(r.Volume) / r.VolAvg50
		}
		if score > 0 {
			candidates = append(candidates, scored{symbol: r.Symbol, score: score})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].symbol < candidates[j].symbol
	})
	if len(candidates) > s.maxPositions {
		candidates = candidates[:s.maxPositions]
	}

	symbols := make([]string, len(candidates))
	total := 0.0
	for i, c := range candidates {
		symbols[i] = c.symbol
		total += c.score
	}
	s.picks.Record(date, symbols)

	if len(candidates) == 0 || total <= 0 {
		return map[string]float64{snap.CashProxy: 1.0}, nil
	}

	alloc := make(map[string]float64, len(candidates))
	for _, c := range candidates {
		alloc[c.symbol] = c.score / total
	}
	return alloc, nil
}
