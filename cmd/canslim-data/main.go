// Command canslim-data populates the local data store: "bars" backfills
// daily bars from the Alpaca API, "financials" imports EPS filings from a
// CSV export.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"canslim/internal/config"
	"canslim/internal/gather"
	"canslim/internal/store"
	"canslim/internal/util"
)

func main() {
	cfgPath := flag.String("config", "config/canslim.yaml", "path to the YAML config")
	csvPath := flag.String("csv", "", "filings CSV path (financials mode)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] bars|financials\n", os.Args[0])
		os.Exit(2)
	}
	mode := flag.Arg(0)

	if p := os.Getenv("CANSLIM_CONFIG"); p != "" {
		*cfgPath = p
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	util.SetDefault(util.NewLogger(cfg.Logging.Level, cfg.Logging.Format))

	g, cleanup, err := buildGatherer(mode, cfg, *csvPath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer cleanup()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fmt.Printf("starting %s gatherer\n", g.Name())
	if err := g.Run(ctx); err != nil {
		log.Fatalf("gatherer error: %v", err)
	}
}

func buildGatherer(mode string, cfg *config.Config, csvPath string) (gather.Gatherer, func(), error) {
	switch mode {
	case "bars":
		g := gather.NewDailyBarGatherer(gather.DailyBarOptions{
			APIKey:          cfg.Alpaca.APIKey,
			APISecret:       cfg.Alpaca.APISecret,
			DataURL:         cfg.Alpaca.DataURL,
			BaseURL:         cfg.Alpaca.BaseURL,
			Symbols:         cfg.Gather.Symbols,
			StartDate:       cfg.Gather.StartDate,
			BatchSize:       cfg.Gather.BatchSize,
			RateLimitPerMin: cfg.Gather.RateLimitPerMin,
		},
			store.NewParquetStore(cfg.Storage.DataDir),
			store.NewFileUniverseStore(cfg.Storage.DataDir),
		)
		return g, func() {}, nil

	case "financials":
		if csvPath == "" {
			return nil, nil, fmt.Errorf("financials mode requires -csv")
		}
		sqlite, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening financial store: %w", err)
		}
		return gather.NewFinancialCSVGatherer(csvPath, sqlite), func() { sqlite.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown mode %q (want bars or financials)", mode)
	}
}
