package builtins

import (
	"math"
	"testing"
	"time"

	"canslim/internal/domain"
	"canslim/internal/screen"
	"canslim/internal/strategy"
)

var rebDate = time.Date(2024, 3, 28, 0, 0, 0, 0, time.UTC)

// fixture builds a one-day snapshot with hand-set indicator flags.
func fixture(bullish bool, symbols ...string) *strategy.Snapshot {
	proxyBars := []domain.Bar{
		{Symbol: "SPY", Date: rebDate, Close: 475},
		{Symbol: "SHY", Date: rebDate, Close: 80},
	}
	proxies := screen.NewTable(proxyBars)
	proxies.Series("SPY")[0].MarketBullish = bullish

	var stockBars []domain.Bar
	for i, sym := range symbols {
		stockBars = append(stockBars, domain.Bar{
			Symbol: sym, Date: rebDate, Close: 100 + float64(i), Volume: 1000,
		})
	}
	stocks := screen.NewTable(stockBars)

	return &strategy.Snapshot{
		Proxies:     proxies,
		Stocks:      stocks,
		MarketProxy: "SPY",
		CashProxy:   "SHY",
	}
}

func allocate(t *testing.T, a strategy.Allocator, snap *strategy.Snapshot) map[string]float64 {
	t.Helper()
	weights, err := a.Allocate(rebDate, 100_000, snap, false)
	if err != nil {
		t.Fatalf("%s.Allocate: %v", a.Name(), err)
	}
	return weights
}

func TestMarketOnly(t *testing.T) {
	snap := fixture(false)
	weights := allocate(t, NewMarketOnly(), snap)
	if len(weights) != 1 || weights["SPY"] != 1.0 {
		t.Errorf("weights = %v, want SPY at 1.0", weights)
	}
}

func TestRiskSwitch(t *testing.T) {
	weights := allocate(t, NewRiskSwitch(), fixture(true))
	if weights["SPY"] != 1.0 {
		t.Errorf("bullish weights = %v, want SPY at 1.0", weights)
	}

	weights = allocate(t, NewRiskSwitch(), fixture(false))
	if weights["SHY"] != 1.0 {
		t.Errorf("bearish weights = %v, want SHY at 1.0", weights)
	}

	// A date with no market row defaults to cash.
	snap := fixture(true)
	w, err := NewRiskSwitch().Allocate(rebDate.AddDate(0, 0, 1), 100_000, snap, false)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if w["SHY"] != 1.0 {
		t.Errorf("missing-data weights = %v, want SHY at 1.0", w)
	}
}

func TestCANSLIMSelect(t *testing.T) {
	var picks strategy.PickLog
	snap := fixture(true, "GG", "AA", "CC", "BB", "DD", "EE", "FF", "HH")
	// All but HH pass every screen.
	for _, sym := range []string{"AA", "BB", "CC", "DD", "EE", "FF", "GG"} {
		snap.Stocks.Series(sym)[0].PassesAll = true
	}

	weights := allocate(t, NewCANSLIMSelect(6, &picks), snap)
	if len(weights) != 6 {
		t.Fatalf("weights = %v, want 6 positions", weights)
	}
	// Alphabetical top 6: AA..FF, equal weight.
	for _, sym := range []string{"AA", "BB", "CC", "DD", "EE", "FF"} {
		if math.Abs(weights[sym]-1.0/6) > 1e-12 {
			t.Errorf("weight[%s] = %v, want 1/6", sym, weights[sym])
		}
	}
	if _, ok := weights["GG"]; ok {
		t.Error("GG should be cut by the position limit")
	}

	got := picks.Picks()
	if len(got) != 1 || len(got[0].Symbols) != 6 {
		t.Errorf("pick log = %+v, want one entry with 6 symbols", got)
	}

	// Bearish market goes to cash regardless of candidates.
	bearish := fixture(false, "AA")
	bearish.Stocks.Series("AA")[0].PassesAll = true
	weights = allocate(t, NewCANSLIMSelect(6, nil), bearish)
	if weights["SHY"] != 1.0 {
		t.Errorf("bearish weights = %v, want SHY at 1.0", weights)
	}

	// No candidates goes to cash.
	weights = allocate(t, NewCANSLIMSelect(6, nil), fixture(true, "AA"))
	if weights["SHY"] != 1.0 {
		t.Errorf("no-candidate weights = %v, want SHY at 1.0", weights)
	}
}

func TestHybridScoresAndWeights(t *testing.T) {
	var picks strategy.PickLog
	snap := fixture(true, "AA", "BB", "CC")

	// AA: at its high with doubled volume → score 1 + 2 = 3.
	// BB: 10% below its high, average volume → score 0.9 + 1 = 1.9.
	// CC: passes nothing.
	aa := snap.Stocks.Series("AA")
	aa[0].PassesEitherEPS = true
	aa[0].High52W = aa[0].Close
	aa[0].VolAvg50 = 500

	bb := snap.Stocks.Series("BB")
	bb[0].PassesEitherEPS = true
	bb[0].High52W = bb[0].Close / 0.9
	bb[0].VolAvg50 = 1000

	weights := allocate(t, NewHybrid(6, &picks), snap)
	if len(weights) != 2 {
		t.Fatalf("weights = %v, want AA and BB", weights)
	}
	total := 3.0 + 1.9
	if math.Abs(weights["AA"]-3.0/total) > 1e-9 {
		t.Errorf("weight[AA] = %v, want %v", weights["AA"], 3.0/total)
	}
	if math.Abs(weights["BB"]-1.9/total) > 1e-9 {
		t.Errorf("weight[BB] = %v, want %v", weights["BB"], 1.9/total)
	}

	// Position limit keeps the higher score.
	weights = allocate(t, NewHybrid(1, nil), snap)
	if len(weights) != 1 || weights["AA"] != 1.0 {
		t.Errorf("limited weights = %v, want AA at 1.0", weights)
	}
}

func TestHybridRespectsUniverse(t *testing.T) {
	snap := fixture(true, "AA", "BB")
	for _, sym := range []string{"AA", "BB"} {
		r := snap.Stocks.Series(sym)
		r[0].PassesEitherEPS = true
		r[0].High52W = r[0].Close
		r[0].VolAvg50 = 1000
	}
	snap.Universe = screen.NewUniverse(map[time.Time][]string{
		rebDate.AddDate(0, -1, 0): {"BB"},
	})

	weights := allocate(t, NewHybrid(6, nil), snap)
	if len(weights) != 1 || weights["BB"] != 1.0 {
		t.Errorf("weights = %v, want only universe member BB", weights)
	}
}

func TestUniverseEqual(t *testing.T) {
	snap := fixture(true, "AA", "BB", "CC", "DD")
	snap.Universe = screen.NewUniverse(map[time.Time][]string{
		rebDate.AddDate(0, -1, 0): {"AA", "BB", "CC"},
	})

	weights := allocate(t, NewUniverseEqual(), snap)
	if len(weights) != 3 {
		t.Fatalf("weights = %v, want 3 members", weights)
	}
	for _, sym := range []string{"AA", "BB", "CC"} {
		if math.Abs(weights[sym]-1.0/3) > 1e-12 {
			t.Errorf("weight[%s] = %v, want 1/3", sym, weights[sym])
		}
	}

	// Empty universe as of the date falls back to cash.
	empty := fixture(true, "AA")
	empty.Universe = screen.NewUniverse(map[time.Time][]string{
		rebDate.AddDate(0, 1, 0): {"AA"}, // only a future snapshot
	})
	weights = allocate(t, NewUniverseEqual(), empty)
	if weights["SHY"] != 1.0 {
		t.Errorf("empty-universe weights = %v, want SHY at 1.0", weights)
	}
}

func TestUniverseWeighted(t *testing.T) {
	snap := fixture(true, "AA", "BB", "CC")
	snap.Stocks.Series("AA")[0].LeaderScore = 0.03
	snap.Stocks.Series("BB")[0].LeaderScore = 0.01
	// CC has a zero score and is excluded.

	weights := allocate(t, NewUniverseWeighted(), snap)
	if len(weights) != 2 {
		t.Fatalf("weights = %v, want AA and BB", weights)
	}
	if math.Abs(weights["AA"]-0.75) > 1e-9 || math.Abs(weights["BB"]-0.25) > 1e-9 {
		t.Errorf("weights = %v, want AA 0.75 / BB 0.25", weights)
	}

	// All-zero scores fall back to equal weight.
	flat := fixture(true, "AA", "BB")
	weights = allocate(t, NewUniverseWeighted(), flat)
	if math.Abs(weights["AA"]-0.5) > 1e-12 || math.Abs(weights["BB"]-0.5) > 1e-12 {
		t.Errorf("fallback weights = %v, want 0.5/0.5", weights)
	}
}
