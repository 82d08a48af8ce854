// Package canslim is the embedding API for the platform: it wires the
// storage layer, the indicator screens, and the simulation engine into a
// single configured backtest run.
package canslim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"canslim/internal/backtest"
	"canslim/internal/calendar"
	"canslim/internal/config"
	"canslim/internal/domain"
	"canslim/internal/screen"
	"canslim/internal/store"
	"canslim/internal/strategy"
	"canslim/internal/strategy/builtins"
)

// Result bundles the outputs of one backtest run.
type Result struct {
	Strategy string
	Series   []backtest.ValuePoint
	Metrics  backtest.Metrics
	Picks    []strategy.Pick
	AvgPicks float64
	RiskFree float64
}

// Runner loads stored market data and runs configured backtests against it.
// Close must be called when the Runner is no longer needed.
type Runner struct {
	cfg      *config.Config
	bars     store.BarStore
	fins     store.FinancialStore
	universe store.UniverseStore
	sqlite   *store.SQLiteStore
	log      *slog.Logger
}

// NewRunner opens the stores under cfg.Storage.
func NewRunner(cfg *config.Config) (*Runner, error) {
	sqlite, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("opening financial store: %w", err)
	}
	return &Runner{
		cfg:      cfg,
		bars:     store.NewParquetStore(cfg.Storage.DataDir),
		fins:     sqlite,
		universe: store.NewFileUniverseStore(cfg.Storage.DataDir),
		sqlite:   sqlite,
		log:      slog.Default().With("component", "runner"),
	}, nil
}

// Close releases the underlying stores.
func (r *Runner) Close() error {
	return r.sqlite.Close()
}

// Run executes the backtest named by the configuration.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	data, err := r.loadData(ctx)
	if err != nil {
		return nil, err
	}

	screenCfg := toScreenConfig(r.cfg.Screen)
	screen.Enrich(data.proxies, data.stocks, data.fins, r.cfg.Backtest.MarketProxy, screenCfg)

	snap := &strategy.Snapshot{
		Proxies:     data.proxies,
		Stocks:      data.stocks,
		Universe:    data.universe,
		MarketProxy: r.cfg.Backtest.MarketProxy,
		CashProxy:   r.cfg.Backtest.CashProxy,
	}

	var picks strategy.PickLog
	alloc, err := buildAllocator(r.cfg.Backtest.Strategy, r.cfg.Backtest.MaxPositions, &picks)
	if err != nil {
		return nil, err
	}

	rebalance, err := r.rebalanceDates(data.proxies)
	if err != nil {
		return nil, err
	}

	series, err := backtest.New(r.cfg.Backtest.InitialValue).Run(ctx, alloc, snap, rebalance)
	if err != nil {
		return nil, err
	}

	riskFree := r.riskFreeRate(data.proxies, series)
	return &Result{
		Strategy: alloc.Name(),
		Series:   series,
		Metrics:  backtest.Summarize(series, riskFree),
		Picks:    picks.Picks(),
		AvgPicks: picks.AvgNonzero(),
		RiskFree: riskFree,
	}, nil
}

// Sweep crosses the given screen-threshold grid over the configured strategy
// and returns one result per cell.
func (r *Runner) Sweep(ctx context.Context, grid backtest.SweepGrid, workers int) ([]backtest.SweepResult, error) {
	data, err := r.loadData(ctx)
	if err != nil {
		return nil, err
	}

	proxies := data.proxies
	rebalance, err := r.rebalanceDates(proxies)
	if err != nil {
		return nil, err
	}

	name := r.cfg.Backtest.Strategy
	maxPositions := r.cfg.Backtest.MaxPositions
	if _, err := buildAllocator(name, maxPositions, nil); err != nil {
		return nil, err
	}

	in := backtest.SweepInput{
		ProxyBars:      data.proxyBars,
		StockBars:      data.stockBars,
		Financials:     data.fins,
		Universe:       data.universe,
		MarketProxy:    r.cfg.Backtest.MarketProxy,
		CashProxy:      r.cfg.Backtest.CashProxy,
		BaseScreen:     toScreenConfig(r.cfg.Screen),
		RebalanceDates: rebalance,
		InitialValue:   r.cfg.Backtest.InitialValue,
		NewAllocator: func(picks *strategy.PickLog) strategy.Allocator {
			alloc, _ := buildAllocator(name, maxPositions, picks)
			return alloc
		},
		Workers: workers,
	}
	return backtest.Sweep(ctx, in, grid)
}

// loadedData holds everything one run needs, both raw and in table form.
type loadedData struct {
	proxyBars []domain.Bar
	stockBars []domain.Bar
	proxies   *screen.Table
	stocks    *screen.Table
	fins      []domain.Financial
	universe  *screen.Universe
}

// loadData reads full bar history so trailing-window indicators have their
// lookback before the backtest start.
func (r *Runner) loadData(ctx context.Context) (*loadedData, error) {
	bt := r.cfg.Backtest
	end := time.Now().UTC()
	if bt.EndDate != "" {
		var err error
		if end, err = domain.ParseDay(bt.EndDate); err != nil {
			return nil, fmt.Errorf("parsing end date %q: %w", bt.EndDate, err)
		}
	}

	proxySet := map[string]struct{}{bt.MarketProxy: {}, bt.CashProxy: {}}
	var proxyBars []domain.Bar
	for sym := range proxySet {
		bars, err := r.bars.ReadBars(ctx, sym, time.Time{}, end)
		if err != nil {
			return nil, fmt.Errorf("reading %s bars: %w", sym, err)
		}
		if len(bars) == 0 {
			r.log.Warn("proxy has no bar data", "symbol", sym)
		}
		proxyBars = append(proxyBars, bars...)
	}

	symbols, err := r.bars.ListSymbols(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing symbols: %w", err)
	}
	var stockBars []domain.Bar
	for _, sym := range symbols {
		if _, isProxy := proxySet[sym]; isProxy {
			continue
		}
		bars, err := r.bars.ReadBars(ctx, sym, time.Time{}, end)
		if err != nil {
			return nil, fmt.Errorf("reading %s bars: %w", sym, err)
		}
		stockBars = append(stockBars, bars...)
	}

	fins, err := r.fins.ReadAllFinancials(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading financials: %w", err)
	}

	var universe *screen.Universe
	snapshots, err := r.universe.ReadUniverse(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading universe: %w", err)
	}
	if len(snapshots) > 0 {
		universe = screen.NewUniverse(snapshots)
	}

	return &loadedData{
		proxyBars: proxyBars,
		stockBars: stockBars,
		proxies:   screen.NewTable(proxyBars),
		stocks:    screen.NewTable(stockBars),
		fins:      fins,
		universe:  universe,
	}, nil
}

// rebalanceDates derives the schedule from the market proxy's trading days.
func (r *Runner) rebalanceDates(proxies *screen.Table) ([]time.Time, error) {
	bt := r.cfg.Backtest

	var tradingDays []time.Time
	for _, row := range proxies.Series(bt.MarketProxy) {
		tradingDays = append(tradingDays, row.Date)
	}
	if len(tradingDays) == 0 {
		return nil, fmt.Errorf("no trading days for market proxy %s", bt.MarketProxy)
	}

	start := tradingDays[0]
	if bt.StartDate != "" {
		var err error
		if start, err = domain.ParseDay(bt.StartDate); err != nil {
			return nil, fmt.Errorf("parsing start date %q: %w", bt.StartDate, err)
		}
	}
	end := tradingDays[len(tradingDays)-1]
	if bt.EndDate != "" {
		var err error
		if end, err = domain.ParseDay(bt.EndDate); err != nil {
			return nil, fmt.Errorf("parsing end date %q: %w", bt.EndDate, err)
		}
	}

	dates := calendar.RebalanceDates(tradingDays, calendar.ParseFrequency(bt.Frequency), start, end)
	if len(dates) == 0 {
		return nil, errors.New("no rebalance dates in the configured range")
	}
	return dates, nil
}

// riskFreeRate estimates the annualized risk-free rate from the cash proxy
// over the simulated window, 0 when the proxy has no data there.
func (r *Runner) riskFreeRate(proxies *screen.Table, series []backtest.ValuePoint) float64 {
	if len(series) < 2 {
		return 0
	}
	cash := backtest.ProxySeries(proxies, r.cfg.Backtest.CashProxy,
		series[0].Date, series[len(series)-1].Date)
	if len(cash) < 2 {
		r.log.Warn("cash proxy has no data in backtest window, assuming zero risk-free rate",
			"symbol", r.cfg.Backtest.CashProxy)
		return 0
	}
	return backtest.AnnualizedReturn(cash)
}

// buildAllocator resolves a strategy name through a registry of the built-in
// allocators. The screening strategies report their selections into picks.
func buildAllocator(name string, maxPositions int, picks *strategy.PickLog) (strategy.Allocator, error) {
	reg := strategy.NewRegistry()
	reg.Register(builtins.NewMarketOnly())
	reg.Register(builtins.NewRiskSwitch())
	reg.Register(builtins.NewCANSLIMSelect(maxPositions, picks))
	reg.Register(builtins.NewHybrid(maxPositions, picks))
	reg.Register(builtins.NewUniverseEqual())
	reg.Register(builtins.NewUniverseWeighted())

	alloc, ok := reg.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (available: %v)", name, reg.List())
	}
	return alloc, nil
}

// toScreenConfig maps the YAML thresholds onto the screen package's config.
func toScreenConfig(s config.ScreenConfig) screen.Config {
	return screen.Config{
		QuarterlyEPSGrowthMin: s.QuarterlyEPSGrowthMin,
		AnnualEPSGrowthMin:    s.AnnualEPSGrowthMin,
		NewHighLookbackDays:   s.NewHighLookbackDays,
		VolumeSurgeFactor:     s.VolumeSurgeFactor,
		LeadershipMin:         s.LeadershipMin,
		LeadershipSmoothDays:  s.LeadershipSmoothDays,
		AccumulationLookback:  s.AccumulationLookback,
		AccumulationRatioMin:  s.AccumulationRatioMin,
		StrictMarketTrend:     s.StrictMarketTrend,
	}
}
