package screen

import (
	"log/slog"
	"math"
	"sort"
	"time"

	"canslim/internal/domain"
)

// Config holds the thresholds for the indicator screens. Zero values are
// replaced with the defaults from DefaultConfig.
type Config struct {
	QuarterlyEPSGrowthMin float64 // C: year-over-year quarterly EPS growth
	AnnualEPSGrowthMin    float64 // A: year-over-year annual EPS growth
	NewHighLookbackDays   int     // N: trailing-max close window
	VolumeSurgeFactor     float64 // S: multiple of the 50-day volume average
	LeadershipMin         float64 // L: excess daily return threshold
	LeadershipSmoothDays  int     // smoothing window for the leadership score
	AccumulationLookback  int     // I: accumulation/distribution window
	AccumulationRatioMin  float64 // I: A/D ratio threshold
	StrictMarketTrend     bool    // M: additionally require close > 50-day MA
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		QuarterlyEPSGrowthMin: 0.25,
		AnnualEPSGrowthMin:    0.20,
		NewHighLookbackDays:   252,
		VolumeSurgeFactor:     1.25,
		LeadershipMin:         0.0,
		LeadershipSmoothDays:  20,
		AccumulationLookback:  50,
		AccumulationRatioMin:  1.25,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.QuarterlyEPSGrowthMin == 0 {
		c.QuarterlyEPSGrowthMin = def.QuarterlyEPSGrowthMin
	}
	if c.AnnualEPSGrowthMin == 0 {
		c.AnnualEPSGrowthMin = def.AnnualEPSGrowthMin
	}
	if c.NewHighLookbackDays == 0 {
		c.NewHighLookbackDays = def.NewHighLookbackDays
	}
	if c.VolumeSurgeFactor == 0 {
		c.VolumeSurgeFactor = def.VolumeSurgeFactor
	}
	if c.LeadershipSmoothDays == 0 {
		c.LeadershipSmoothDays = def.LeadershipSmoothDays
	}
	if c.AccumulationLookback == 0 {
		c.AccumulationLookback = def.AccumulationLookback
	}
	if c.AccumulationRatioMin == 0 {
		c.AccumulationRatioMin = def.AccumulationRatioMin
	}
	return c
}

// Enrich computes the indicator columns in place on the proxy and stock
// tables. The market trend flag is derived from marketSymbol's series in the
// proxies table and joined onto every row by date. Missing market data never
// fails the enrichment: affected screens default to false with a logged
// warning.
func Enrich(proxies, stocks *Table, fins []domain.Financial, marketSymbol string, cfg Config) {
	log := slog.Default().With("component", "screen")
	cfg = cfg.withDefaults()

	marketReturn, marketBull := enrichMarket(proxies, marketSymbol, cfg, log)

	qFlags, aFlags := epsFlags(fins, cfg)

	for _, sym := range stocks.Symbols() {
		enrichStock(stocks.Series(sym), sym, marketReturn, marketBull, qFlags[sym], aFlags[sym], cfg, log)
	}
}

// enrichMarket computes returns on every proxy series, the trend flag on the
// market series, and joins the flag onto the other proxies by date. It
// returns date-indexed market return and trend maps for the stock pass.
func enrichMarket(proxies *Table, marketSymbol string, cfg Config, log *slog.Logger) (map[time.Time]float64, map[time.Time]bool) {
	marketReturn := make(map[time.Time]float64)
	marketBull := make(map[time.Time]bool)

	market := proxies.Series(marketSymbol)
	if len(market) == 0 {
		log.Warn("market proxy series missing; trend and leadership screens default to false",
			"symbol", marketSymbol)
	}

	maShort := newRollingMean(50)
	maLong := newRollingMean(200)
	prevClose := 0.0
	for i := range market {
		r := &market[i]
		if i > 0 && prevClose != 0 {
			r.Return = r.Close/prevClose - 1
		}
		prevClose = r.Close

		r.MAShort = maShort.Push(r.Close)
		r.MALong = maLong.Push(r.Close)
		r.MarketBullish = r.MAShort > r.MALong
		if cfg.StrictMarketTrend {
			r.MarketBullish = r.MarketBullish && r.Close > r.MAShort
		}

		marketReturn[r.Date] = r.Return
		marketBull[r.Date] = r.MarketBullish
	}

	for _, sym := range proxies.Symbols() {
		if sym == marketSymbol {
			continue
		}
		rows := proxies.Series(sym)
		prevClose = 0.0
		for i := range rows {
			r := &rows[i]
			if i > 0 && prevClose != 0 {
				r.Return = r.Close/prevClose - 1
			}
			prevClose = r.Close
			r.MarketBullish = marketBull[r.Date]
		}
	}

	return marketReturn, marketBull
}

// enrichStock computes the per-symbol screens over one ascending series.
func enrichStock(rows []Row, sym string, marketReturn map[time.Time]float64, marketBull map[time.Time]bool, qFlags, aFlags asOfSeries, cfg Config, log *slog.Logger) {
	newHigh := newRollingMax(cfg.NewHighLookbackDays)
	volAvg := newRollingMean(50)
	leader := newRollingMean(cfg.LeadershipSmoothDays)
	accum := newRollingMean(cfg.AccumulationLookback)

	missingMarket := 0
	prevClose := 0.0
	for i := range rows {
		r := &rows[i]
		if i > 0 && prevClose != 0 {
			r.Return = r.Close/prevClose - 1
		}
		prevClose = r.Close

		r.High52W = newHigh.Push(r.Close)
		r.NewHigh = r.Close >= r.High52W

		r.VolAvg50 = volAvg.Push(float64(r.Volume))
		r.VolumeSurge = float64(r.Volume) >= cfg.VolumeSurgeFactor*r.VolAvg50

		excess := 0.0
		if mret, ok := marketReturn[r.Date]; ok {
			excess = r.Return - mret
			r.Leadership = excess > cfg.LeadershipMin
		} else {
			missingMarket++
			r.Leadership = false
		}
		r.LeaderScore = leader.Push(excess)

		adValue := 0.0
		if r.High != r.Low {
			adValue = (((r.Close - r.Low) - (r.High - r.Close)) / (r.High - r.Low)) * float64(r.Volume)
		}
		r.ADRatio = accum.Push(adValue)
		r.AccumOK = r.ADRatio >= cfg.AccumulationRatioMin

		r.EPSQuarterlyOK = qFlags.Lookup(r.Date)
		r.EPSAnnualOK = aFlags.Lookup(r.Date)

		r.MarketBullish = marketBull[r.Date]

		base := r.NewHigh && r.VolumeSurge && r.Leadership && r.AccumOK
		r.PassesAll = base && r.EPSQuarterlyOK && r.EPSAnnualOK
		r.PassesEitherEPS = base && (r.EPSQuarterlyOK || r.EPSAnnualOK)
	}

	if missingMarket > 0 {
		log.Warn("missing market return on some dates; leadership defaulted to false",
			"symbol", sym, "days", missingMarket)
	}
}

// epsFlags derives the quarterly and annual EPS-growth booleans from filings
// and arranges them per symbol as point-in-time series keyed by reporting end
// date. Growth compares each filing to the prior filing of the same group
// (same fiscal quarter for quarterly, prior fiscal year for annual); a filing
// with no prior, or a prior EPS of zero, fails the screen.
func epsFlags(fins []domain.Financial, cfg Config) (map[string]asOfSeries, map[string]asOfSeries) {
	type groupKey struct {
		symbol string
		period string // fiscal period for quarterly, "" for annual
	}

	quarterly := make(map[groupKey][]domain.Financial)
	annual := make(map[groupKey][]domain.Financial)
	for _, f := range fins {
		f.EndDate = domain.Day(f.EndDate)
		switch f.Timeframe {
		case domain.TimeframeQuarterly:
			k := groupKey{f.Symbol, f.FiscalPeriod}
			quarterly[k] = append(quarterly[k], f)
		case domain.TimeframeAnnual:
			k := groupKey{symbol: f.Symbol}
			annual[k] = append(annual[k], f)
		}
	}

	flagsFrom := func(groups map[groupKey][]domain.Financial, threshold float64) map[string]asOfSeries {
		keys := make([]groupKey, 0, len(groups))
		for k := range groups {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			if keys[i].symbol != keys[j].symbol {
				return keys[i].symbol < keys[j].symbol
			}
			return keys[i].period < keys[j].period
		})

		out := make(map[string]asOfSeries)
		seen := make(map[rowKey]bool)
		for _, k := range keys {
			group := groups[k]
			sort.Slice(group, func(i, j int) bool { return group[i].FiscalYear < group[j].FiscalYear })
			for i, f := range group {
				growth := math.NaN()
				if i > 0 {
					prev := group[i-1].DilutedEPS
					if prev != 0 {
						growth = (f.DilutedEPS - prev) / math.Abs(prev)
					}
				}
				// First filing per (symbol, end date) wins.
				id := rowKey{k.symbol, f.EndDate}
				if seen[id] {
					continue
				}
				seen[id] = true
				out[k.symbol] = append(out[k.symbol], asOfFlag{Date: f.EndDate, OK: growth >= threshold})
			}
		}
		for sym := range out {
			sortAsOf(out[sym])
		}
		return out
	}

	return flagsFrom(quarterly, cfg.QuarterlyEPSGrowthMin), flagsFrom(annual, cfg.AnnualEPSGrowthMin)
}
