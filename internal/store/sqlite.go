package store

import (
	"context"
	"database/sql"
	"fmt"

	"canslim/internal/domain"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Compile-time interface check.
var _ FinancialStore = (*SQLiteStore)(nil)

// SQLiteStore implements FinancialStore backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

const financialsSchema = `
CREATE TABLE IF NOT EXISTS financials (
	symbol        TEXT    NOT NULL,
	timeframe     TEXT    NOT NULL,
	fiscal_year   INTEGER NOT NULL,
	fiscal_period TEXT    NOT NULL,
	end_date      TEXT    NOT NULL,
	diluted_eps   REAL    NOT NULL,
	PRIMARY KEY (symbol, timeframe, fiscal_year, fiscal_period)
);
CREATE INDEX IF NOT EXISTS idx_financials_symbol_end_date
	ON financials (symbol, end_date);
`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, runs the
// schema migration, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(financialsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating financials schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// WriteFinancials upserts filings in a single transaction.
func (s *SQLiteStore) WriteFinancials(ctx context.Context, fins []domain.Financial) error {
	if len(fins) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO financials (symbol, timeframe, fiscal_year, fiscal_period, end_date, diluted_eps)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (symbol, timeframe, fiscal_year, fiscal_period)
		DO UPDATE SET end_date = excluded.end_date, diluted_eps = excluded.diluted_eps`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, f := range fins {
		_, err := stmt.ExecContext(ctx,
			f.Symbol,
			string(f.Timeframe),
			f.FiscalYear,
			f.FiscalPeriod,
			domain.Day(f.EndDate).Format("2006-01-02"),
			f.DilutedEPS,
		)
		if err != nil {
			return fmt.Errorf("upserting filing %s %s %d %s: %w",
				f.Symbol, f.Timeframe, f.FiscalYear, f.FiscalPeriod, err)
		}
	}

	return tx.Commit()
}

// ReadFinancials returns all filings for a symbol sorted by end date.
func (s *SQLiteStore) ReadFinancials(ctx context.Context, symbol string) ([]domain.Financial, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, timeframe, fiscal_year, fiscal_period, end_date, diluted_eps
		FROM financials WHERE symbol = ? ORDER BY end_date`, symbol)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFinancials(rows)
}

// ReadAllFinancials returns every stored filing sorted by symbol and end date.
func (s *SQLiteStore) ReadAllFinancials(ctx context.Context) ([]domain.Financial, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol, timeframe, fiscal_year, fiscal_period, end_date, diluted_eps
		FROM financials ORDER BY symbol, end_date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFinancials(rows)
}

func scanFinancials(rows *sql.Rows) ([]domain.Financial, error) {
	var fins []domain.Financial
	for rows.Next() {
		var (
			f         domain.Financial
			timeframe string
			endDate   string
		)
		if err := rows.Scan(&f.Symbol, &timeframe, &f.FiscalYear, &f.FiscalPeriod, &endDate, &f.DilutedEPS); err != nil {
			return nil, err
		}
		f.Timeframe = domain.Timeframe(timeframe)
		d, err := domain.ParseDay(endDate)
		if err != nil {
			return nil, fmt.Errorf("parsing end_date %q: %w", endDate, err)
		}
		f.EndDate = d
		fins = append(fins, f)
	}
	return fins, rows.Err()
}
