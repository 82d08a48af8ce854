// Package store defines storage interfaces for persisting and retrieving
// daily bars, financial filings, and universe membership, with Parquet,
// SQLite, and plain-text file implementations.
package store

import (
	"context"
	"time"

	"canslim/internal/domain"
)

// BarStore persists and retrieves daily OHLCV bar data.
type BarStore interface {
	// WriteBars persists a batch of bars, deduplicating by (symbol, date).
	WriteBars(ctx context.Context, bars []domain.Bar) error

	// ReadBars returns bars for the given symbol within [start, end], sorted
	// ascending by date.
	ReadBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)

	// ListSymbols returns all distinct symbols with bar data.
	ListSymbols(ctx context.Context) ([]string, error)
}

// FinancialStore persists and retrieves EPS filings.
type FinancialStore interface {
	// WriteFinancials upserts a batch of filings keyed by
	// (symbol, timeframe, fiscal year, fiscal period).
	WriteFinancials(ctx context.Context, fins []domain.Financial) error

	// ReadFinancials returns all filings for a symbol sorted by end date.
	ReadFinancials(ctx context.Context, symbol string) ([]domain.Financial, error)

	// ReadAllFinancials returns every stored filing.
	ReadAllFinancials(ctx context.Context) ([]domain.Financial, error)
}

// UniverseStore persists and retrieves per-date universe membership.
type UniverseStore interface {
	// WriteUniverse records the member symbols effective on the given date.
	WriteUniverse(ctx context.Context, date time.Time, symbols []string) error

	// ReadUniverse returns every stored snapshot as date → sorted members.
	ReadUniverse(ctx context.Context) (map[time.Time][]string, error)
}
