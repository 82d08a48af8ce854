package gather

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"canslim/internal/domain"
	"canslim/internal/store"
)

// Compile-time interface check.
var _ Gatherer = (*FinancialCSVGatherer)(nil)

// FinancialCSVGatherer imports EPS filings from a CSV export into a
// financial store. The file must carry a header row naming at least the
// columns symbol, timeframe, fiscal_year, fiscal_period, end_date, and
// diluted_eps, in any order.
type FinancialCSVGatherer struct {
	path  string
	store store.FinancialStore
	log   *slog.Logger
}

// NewFinancialCSVGatherer creates a gatherer importing the CSV at path.
func NewFinancialCSVGatherer(path string, s store.FinancialStore) *FinancialCSVGatherer {
	return &FinancialCSVGatherer{
		path:  path,
		store: s,
		log:   slog.Default().With("gatherer", "financials-csv"),
	}
}

// Name returns the gatherer identifier.
func (g *FinancialCSVGatherer) Name() string { return "financials-csv" }

// Run parses the CSV and upserts all filings in one batch.
func (g *FinancialCSVGatherer) Run(ctx context.Context) error {
	fins, err := ReadFinancialsCSV(g.path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", g.path, err)
	}
	if len(fins) == 0 {
		g.log.Warn("no filings found", "path", g.path)
		return nil
	}
	if err := g.store.WriteFinancials(ctx, fins); err != nil {
		return fmt.Errorf("writing filings: %w", err)
	}
	g.log.Info("imported filings", "count", len(fins), "path", g.path)
	return nil
}

// ReadFinancialsCSV parses EPS filings from a headered CSV file. Rows with
// unparseable fields fail the whole read; a silent partial import would be
// worse than an error.
func ReadFinancialsCSV(path string) ([]domain.Financial, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseFinancialsCSV(f)
}

func parseFinancialsCSV(r io.Reader) ([]domain.Financial, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"symbol", "timeframe", "fiscal_year", "fiscal_period", "end_date", "diluted_eps"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	var fins []domain.Financial
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		fin, err := parseFinancialRecord(record, col)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		fins = append(fins, fin)
	}
	return fins, nil
}

func parseFinancialRecord(record []string, col map[string]int) (domain.Financial, error) {
	field := func(name string) string {
		return strings.TrimSpace(record[col[name]])
	}

	var tf domain.Timeframe
	switch strings.ToLower(field("timeframe")) {
	case "quarterly":
		tf = domain.TimeframeQuarterly
	case "annual":
		tf = domain.TimeframeAnnual
	default:
		return domain.Financial{}, fmt.Errorf("unknown timeframe %q", field("timeframe"))
	}

	year, err := strconv.Atoi(field("fiscal_year"))
	if err != nil {
		return domain.Financial{}, fmt.Errorf("fiscal_year: %w", err)
	}
	endDate, err := domain.ParseDay(field("end_date"))
	if err != nil {
		return domain.Financial{}, fmt.Errorf("end_date: %w", err)
	}
	eps, err := strconv.ParseFloat(field("diluted_eps"), 64)
	if err != nil {
		return domain.Financial{}, fmt.Errorf("diluted_eps: %w", err)
	}

	return domain.Financial{
		Symbol:       strings.ToUpper(field("symbol")),
		Timeframe:    tf,
		FiscalYear:   year,
		FiscalPeriod: strings.ToUpper(field("fiscal_period")),
		EndDate:      endDate,
		DilutedEPS:   eps,
	}, nil
}
