// Command canslim-backtest runs one configured strategy backtest over the
// local data store and prints the resulting performance metrics.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"canslim/internal/backtest"
	"canslim/internal/config"
	"canslim/internal/util"
	"canslim/pkg/canslim"
)

func main() {
	cfgPath := flag.String("config", "config/canslim.yaml", "path to the YAML config")
	strategyName := flag.String("strategy", "", "override the configured strategy")
	frequency := flag.String("frequency", "", "override the rebalance frequency")
	outPath := flag.String("out", "", "write the daily value series CSV here")
	flag.Parse()

	if p := os.Getenv("CANSLIM_CONFIG"); p != "" {
		*cfgPath = p
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *strategyName != "" {
		cfg.Backtest.Strategy = *strategyName
	}
	if *frequency != "" {
		cfg.Backtest.Frequency = *frequency
	}

	util.SetDefault(util.NewLogger(cfg.Logging.Level, cfg.Logging.Format))

	runner, err := canslim.NewRunner(cfg)
	if err != nil {
		log.Fatalf("opening stores: %v", err)
	}
	defer runner.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	res, err := runner.Run(ctx)
	if err != nil {
		log.Fatalf("backtest failed: %v", err)
	}

	printResult(res)

	if *outPath != "" {
		if err := writeSeriesCSV(*outPath, res.Series); err != nil {
			log.Fatalf("writing %s: %v", *outPath, err)
		}
		fmt.Printf("value series written to %s\n", *outPath)
	}
}

func printResult(res *canslim.Result) {
	m := res.Metrics
	first, last := res.Series[0], res.Series[len(res.Series)-1]

	fmt.Printf("strategy:              %s\n", res.Strategy)
	fmt.Printf("period:                %s .. %s (%d trading days)\n",
		first.Date.Format("2006-01-02"), last.Date.Format("2006-01-02"), len(res.Series))
	fmt.Printf("final value:           %.2f\n", last.Value)
	fmt.Printf("total return:          %.2f%%\n", m.TotalReturn*100)
	fmt.Printf("annualized return:     %.2f%%\n", m.AnnualizedReturn*100)
	fmt.Printf("annualized volatility: %.2f%%\n", m.AnnualizedVolatility*100)
	fmt.Printf("max drawdown:          %.2f%%\n", m.MaxDrawdown*100)
	fmt.Printf("sharpe ratio:          %.2f\n", m.SharpeRatio)
	fmt.Printf("sortino ratio:         %.2f\n", m.SortinoRatio)
	fmt.Printf("risk-free rate:        %.2f%%\n", res.RiskFree*100)
	if len(res.Picks) > 0 {
		fmt.Printf("avg picks/rebalance:   %.1f\n", res.AvgPicks)
	}
}

func writeSeriesCSV(path string, series []backtest.ValuePoint) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"date", "value"}); err != nil {
		return err
	}
	for _, p := range series {
		if err := w.Write([]string{
			p.Date.Format("2006-01-02"),
			strconv.FormatFloat(p.Value, 'f', 2, 64),
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
