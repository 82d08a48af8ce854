package backtest

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"canslim/internal/domain"
	"canslim/internal/screen"
	"canslim/internal/strategy"
)

// SweepGrid lists the screen threshold values to cross. Empty axes fall back
// to the base config's value for that threshold.
type SweepGrid struct {
	QuarterlyEPSGrowthMin []float64
	AnnualEPSGrowthMin    []float64
	LeadershipMin         []float64
}

// SweepInput bundles the shared, read-only inputs of a threshold sweep.
// Bars and financials are raw: each run builds and enriches its own tables,
// so concurrent runs never share mutable state.
type SweepInput struct {
	ProxyBars  []domain.Bar
	StockBars  []domain.Bar
	Financials []domain.Financial
	Universe   *screen.Universe

	MarketProxy string
	CashProxy   string

	BaseScreen     screen.Config
	RebalanceDates []time.Time
	InitialValue   float64

	// NewAllocator builds a fresh strategy for one run, reporting its
	// selections into picks.
	NewAllocator func(picks *strategy.PickLog) strategy.Allocator

	// Workers caps concurrency; 0 means GOMAXPROCS.
	Workers int
}

// SweepResult is the outcome of one grid cell.
type SweepResult struct {
	Screen      screen.Config
	FinalValue  float64
	TotalReturn float64
	AvgPicks    float64
}

// Sweep runs one backtest per grid cell across a worker pool and returns
// results in grid order. A failed cell is logged and reported with zero
// metrics; only context cancellation aborts the sweep.
func Sweep(ctx context.Context, in SweepInput, grid SweepGrid) ([]SweepResult, error) {
	configs := expandGrid(in.BaseScreen, grid)
	results := make([]SweepResult, len(configs))

	workers := in.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(configs) {
		workers = len(configs)
	}

	idxCh := make(chan int, len(configs))
	for i := range configs {
		idxCh <- i
	}
	close(idxCh)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idxCh {
				if ctx.Err() != nil {
					return
				}
				results[i] = runCell(ctx, in, configs[i])
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// runCell executes one backtest with the given screen thresholds.
func runCell(ctx context.Context, in SweepInput, cfg screen.Config) SweepResult {
	proxies := screen.NewTable(in.ProxyBars)
	stocks := screen.NewTable(in.StockBars)
	screen.Enrich(proxies, stocks, in.Financials, in.MarketProxy, cfg)

	snap := &strategy.Snapshot{
		Proxies:     proxies,
		Stocks:      stocks,
		Universe:    in.Universe,
		MarketProxy: in.MarketProxy,
		CashProxy:   in.CashProxy,
	}

	var picks strategy.PickLog
	series, err := New(in.InitialValue).Run(ctx, in.NewAllocator(&picks), snap, in.RebalanceDates)
	if err != nil {
		slog.Error("sweep cell failed",
			"quarterly_eps_growth_min", cfg.QuarterlyEPSGrowthMin,
			"annual_eps_growth_min", cfg.AnnualEPSGrowthMin,
			"leadership_min", cfg.LeadershipMin,
			"err", err)
		return SweepResult{Screen: cfg}
	}

	return SweepResult{
		Screen:      cfg,
		FinalValue:  series[len(series)-1].Value,
		TotalReturn: TotalReturn(series),
		AvgPicks:    picks.AvgNonzero(),
	}
}

// expandGrid crosses the grid axes over the base config. The result order is
// quarterly-major, then annual, then leadership.
func expandGrid(base screen.Config, grid SweepGrid) []screen.Config {
	quarterly := orDefault(grid.QuarterlyEPSGrowthMin, base.QuarterlyEPSGrowthMin)
	annual := orDefault(grid.AnnualEPSGrowthMin, base.AnnualEPSGrowthMin)
	leadership := orDefault(grid.LeadershipMin, base.LeadershipMin)

	out := make([]screen.Config, 0, len(quarterly)*len(annual)*len(leadership))
	for _, q := range quarterly {
		for _, a := range annual {
			for _, l := range leadership {
				cfg := base
				cfg.QuarterlyEPSGrowthMin = q
				cfg.AnnualEPSGrowthMin = a
				cfg.LeadershipMin = l
				out = append(out, cfg)
			}
		}
	}
	return out
}

func orDefault(axis []float64, fallback float64) []float64 {
	if len(axis) == 0 {
		return []float64{fallback}
	}
	return axis
}
