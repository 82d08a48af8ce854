// Command canslim-grid sweeps the screen thresholds over a parameter grid,
// running one backtest per combination, and writes the results as CSV.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"canslim/internal/backtest"
	"canslim/internal/config"
	"canslim/internal/util"
	"canslim/pkg/canslim"
)

func main() {
	cfgPath := flag.String("config", "config/canslim.yaml", "path to the YAML config")
	quarterly := flag.String("quarterly", "", "comma-separated quarterly EPS growth thresholds")
	annual := flag.String("annual", "", "comma-separated annual EPS growth thresholds")
	leadership := flag.String("leadership", "", "comma-separated leadership thresholds")
	workers := flag.Int("workers", 0, "concurrent backtests (0 = GOMAXPROCS)")
	outPath := flag.String("out", "", "write results CSV here instead of stdout")
	flag.Parse()

	if p := os.Getenv("CANSLIM_CONFIG"); p != "" {
		*cfgPath = p
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	util.SetDefault(util.NewLogger(cfg.Logging.Level, cfg.Logging.Format))

	grid, err := parseGrid(*quarterly, *annual, *leadership)
	if err != nil {
		log.Fatalf("parsing grid: %v", err)
	}

	runner, err := canslim.NewRunner(cfg)
	if err != nil {
		log.Fatalf("opening stores: %v", err)
	}
	defer runner.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	results, err := runner.Sweep(ctx, grid, *workers)
	if err != nil {
		log.Fatalf("sweep failed: %v", err)
	}

	out := io.Writer(os.Stdout)
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			log.Fatalf("creating %s: %v", *outPath, err)
		}
		defer f.Close()
		out = f
	}
	if err := writeResultsCSV(out, results); err != nil {
		log.Fatalf("writing results: %v", err)
	}
	if *outPath != "" {
		fmt.Printf("%d results written to %s\n", len(results), *outPath)
	}
}

func parseGrid(quarterly, annual, leadership string) (backtest.SweepGrid, error) {
	var grid backtest.SweepGrid
	var err error
	if grid.QuarterlyEPSGrowthMin, err = parseFloats(quarterly); err != nil {
		return grid, fmt.Errorf("quarterly: %w", err)
	}
	if grid.AnnualEPSGrowthMin, err = parseFloats(annual); err != nil {
		return grid, fmt.Errorf("annual: %w", err)
	}
	if grid.LeadershipMin, err = parseFloats(leadership); err != nil {
		return grid, fmt.Errorf("leadership: %w", err)
	}
	return grid, nil
}

func parseFloats(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []float64
	for _, part := range strings.Split(s, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func writeResultsCSV(out io.Writer, results []backtest.SweepResult) error {
	w := csv.NewWriter(out)
	header := []string{
		"quarterly_eps_growth_min", "annual_eps_growth_min", "leadership_min",
		"final_value", "total_return", "avg_picks",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range results {
		record := []string{
			strconv.FormatFloat(r.Screen.QuarterlyEPSGrowthMin, 'f', -1, 64),
			strconv.FormatFloat(r.Screen.AnnualEPSGrowthMin, 'f', -1, 64),
			strconv.FormatFloat(r.Screen.LeadershipMin, 'f', -1, 64),
			strconv.FormatFloat(r.FinalValue, 'f', 2, 64),
			strconv.FormatFloat(r.TotalReturn, 'f', 6, 64),
			strconv.FormatFloat(r.AvgPicks, 'f', 2, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
