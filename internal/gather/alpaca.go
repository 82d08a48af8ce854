package gather

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"canslim/internal/domain"
	"canslim/internal/store"
	"canslim/internal/util"
)

// Compile-time interface check.
var _ Gatherer = (*DailyBarGatherer)(nil)

// DailyBarOptions configures a DailyBarGatherer.
type DailyBarOptions struct {
	APIKey    string
	APISecret string
	DataURL   string // market-data API, empty for the default
	BaseURL   string // trading API, used for the calendar

	// Symbols is the explicit list to fetch: proxies plus the screening
	// candidates.
	Symbols []string

	// StartDate is the first day of history to request, as "2006-01-02".
	StartDate string

	BatchSize       int // symbols per API call
	RateLimitPerMin int // API calls per minute
}

// DailyBarGatherer fetches daily OHLCV bars for a configured symbol list via
// the Alpaca market-data API and persists them to a bar store. After a full
// pass it records which symbols returned data as a universe snapshot.
type DailyBarGatherer struct {
	client   *marketdata.Client
	bars     store.BarStore
	universe store.UniverseStore
	opts     DailyBarOptions
	limiter  *util.RateLimiter
	log      *slog.Logger
}

// NewDailyBarGatherer creates a DailyBarGatherer writing to the given stores.
// universe may be nil to skip snapshot recording.
func NewDailyBarGatherer(opts DailyBarOptions, bars store.BarStore, universe store.UniverseStore) *DailyBarGatherer {
	clientOpts := marketdata.ClientOpts{
		APIKey:    opts.APIKey,
		APISecret: opts.APISecret,
	}
	if opts.DataURL != "" {
		clientOpts.BaseURL = opts.DataURL
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 200
	}
	if opts.RateLimitPerMin <= 0 {
		opts.RateLimitPerMin = 200
	}

	return &DailyBarGatherer{
		client:   marketdata.NewClient(clientOpts),
		bars:     bars,
		universe: universe,
		opts:     opts,
		limiter:  util.NewRateLimiter(opts.RateLimitPerMin),
		log:      slog.Default().With("gatherer", "daily-bars"),
	}
}

// Name returns the gatherer identifier.
func (g *DailyBarGatherer) Name() string { return "daily-bars" }

// Run fetches bars for every configured symbol from the start date through
// the latest finished trading day, in batches. A failed batch is retried and
// then skipped; the pass continues so one bad batch cannot sink a backfill.
func (g *DailyBarGatherer) Run(ctx context.Context) error {
	if len(g.opts.Symbols) == 0 {
		return fmt.Errorf("no symbols configured")
	}
	start, err := time.Parse("2006-01-02", g.opts.StartDate)
	if err != nil {
		return fmt.Errorf("parsing start date %q: %w", g.opts.StartDate, err)
	}
	end, err := LatestFinishedTradingDay(g.opts.APIKey, g.opts.APISecret, g.opts.BaseURL)
	if err != nil {
		return fmt.Errorf("determining end date: %w", err)
	}

	symbols := normalizeSymbols(g.opts.Symbols)
	batches := batchSymbols(symbols, g.opts.BatchSize)
	runStart := time.Now()
	g.log.Info("starting daily bar gather",
		"symbols", len(symbols),
		"batches", len(batches),
		"start", start.Format("2006-01-02"),
		"end", end.Format("2006-01-02"))

	gathered := make(map[string]struct{}, len(symbols))
	for i, batch := range batches {
		if err := g.limiter.Wait(ctx); err != nil {
			return err
		}

		var bars []domain.Bar
		err := util.Retry(ctx, 3, time.Second, func() error {
			var fetchErr error
			bars, fetchErr = g.fetchBatch(batch, start, end)
			return fetchErr
		})
		if err != nil {
			g.log.Error("batch fetch failed",
				"batch", fmt.Sprintf("%d/%d", i+1, len(batches)), "err", err)
			continue
		}
		if len(bars) == 0 {
			g.log.Warn("batch returned no bars",
				"batch", fmt.Sprintf("%d/%d", i+1, len(batches)))
			continue
		}
		if err := g.bars.WriteBars(ctx, bars); err != nil {
			return fmt.Errorf("writing bars: %w", err)
		}
		for _, b := range bars {
			gathered[b.Symbol] = struct{}{}
		}

		g.log.Info("batch done",
			"batch", fmt.Sprintf("%d/%d", i+1, len(batches)),
			"bars", len(bars),
			"elapsed", time.Since(runStart).Round(time.Second))
	}

	if g.universe != nil && len(gathered) > 0 {
		members := make([]string, 0, len(gathered))
		for sym := range gathered {
			members = append(members, sym)
		}
		sort.Strings(members)
		if err := g.universe.WriteUniverse(ctx, end, members); err != nil {
			return fmt.Errorf("writing universe snapshot: %w", err)
		}
	}

	g.log.Info("complete",
		"symbols", len(gathered),
		"elapsed", time.Since(runStart).Round(time.Second))
	return nil
}

// fetchBatch fetches daily bars for one symbol batch in a single API call.
func (g *DailyBarGatherer) fetchBatch(symbols []string, start, end time.Time) ([]domain.Bar, error) {
	multiBars, err := g.client.GetMultiBars(symbols, marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     start,
		End:       end,
		Feed:      "sip",
	})
	if err != nil {
		return nil, fmt.Errorf("GetMultiBars: %w", err)
	}

	var bars []domain.Bar
	for symbol, alpacaBars := range multiBars {
		for _, ab := range alpacaBars {
			bars = append(bars, domain.Bar{
				Symbol: strings.ToUpper(symbol),
				Date:   domain.Day(ab.Timestamp.UTC()),
				Open:   ab.Open,
				High:   ab.High,
				Low:    ab.Low,
				Close:  ab.Close,
				Volume: int64(ab.Volume),
			})
		}
	}
	return bars, nil
}

// normalizeSymbols uppercases, trims, and dedups the configured list.
func normalizeSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		sym := strings.ToUpper(strings.TrimSpace(s))
		if sym == "" {
			continue
		}
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

func batchSymbols(symbols []string, size int) [][]string {
	var out [][]string
	for i := 0; i < len(symbols); i += size {
		end := min(i+size, len(symbols))
		out = append(out, symbols[i:end])
	}
	return out
}
