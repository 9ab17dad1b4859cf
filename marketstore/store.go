// Package marketstore persists monthly closing prices and fx rates in a
// local SQLite database and serves them to the valuation engine.
package marketstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/linsean/famfolio"
	"github.com/linsean/famfolio/date"
)

const schema = `
CREATE TABLE IF NOT EXISTS monthly_prices (
	security TEXT NOT NULL,
	month    TEXT NOT NULL,
	price    TEXT NOT NULL,
	currency TEXT NOT NULL,
	PRIMARY KEY (security, month)
);
CREATE TABLE IF NOT EXISTS monthly_rates (
	base     TEXT NOT NULL,
	quote    TEXT NOT NULL,
	month    TEXT NOT NULL,
	rate     TEXT NOT NULL,
	fallback INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (base, quote, month)
);
`

// Store is a snapshot store of monthly market data. It implements the
// engine's PriceSource and RateSource. Amounts are stored as decimal
// strings, never as floats.
type Store struct {
	db       *sql.DB
	log      zerolog.Logger
	fallback map[string]decimal.Decimal // "USD/TWD" -> configured fallback rate
}

// Open opens (or creates) the store at path.
func Open(path string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("cannot create store directory: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("cannot open store %q: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot initialize store %q: %w", path, err)
	}
	return &Store{
		db:       db,
		log:      log.With().Str("component", "marketstore").Logger(),
		fallback: make(map[string]decimal.Decimal),
	}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// SetFallbackRate configures a default conversion factor to record when
// the fetcher has no market rate for a pair. Fallback rates are always
// stored flagged, so reports surface them.
func (s *Store) SetFallbackRate(base, quote string, rate decimal.Decimal) {
	s.fallback[base+"/"+quote] = rate
}

// SetPrice stores a security's monthly close in its native currency.
func (s *Store) SetPrice(ctx context.Context, security string, m date.Month, price famfolio.Money) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO monthly_prices (security, month, price, currency) VALUES (?, ?, ?, ?)`,
		security, m.String(), price.Amount().String(), price.Currency())
	if err != nil {
		return fmt.Errorf("cannot store price %s %s: %w", security, m, err)
	}
	return nil
}

// MonthlyPrice returns the stored close for a security and month.
func (s *Store) MonthlyPrice(ctx context.Context, security string, m date.Month) (famfolio.Money, bool, error) {
	var raw, currency string
	err := s.db.QueryRowContext(ctx,
		`SELECT price, currency FROM monthly_prices WHERE security = ? AND month = ?`,
		security, m.String()).Scan(&raw, &currency)
	if errors.Is(err, sql.ErrNoRows) {
		return famfolio.Money{}, false, nil
	}
	if err != nil {
		return famfolio.Money{}, false, fmt.Errorf("cannot read price %s %s: %w", security, m, err)
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return famfolio.Money{}, false, fmt.Errorf("corrupt price %s %s: %w", security, m, err)
	}
	return famfolio.M(value, currency), true, nil
}

// SetRate stores a monthly conversion factor for a pair.
func (s *Store) SetRate(ctx context.Context, base, quote string, m date.Month, rate decimal.Decimal, fallback bool) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO monthly_rates (base, quote, month, rate, fallback) VALUES (?, ?, ?, ?, ?)`,
		base, quote, m.String(), rate.String(), fallback)
	if err != nil {
		return fmt.Errorf("cannot store rate %s/%s %s: %w", base, quote, m, err)
	}
	return nil
}

// MonthlyRate returns the stored conversion factor for a pair and month,
// with its fallback flag intact.
func (s *Store) MonthlyRate(ctx context.Context, base, quote string, m date.Month) (famfolio.Rate, bool, error) {
	var raw string
	var fallback bool
	err := s.db.QueryRowContext(ctx,
		`SELECT rate, fallback FROM monthly_rates WHERE base = ? AND quote = ? AND month = ?`,
		base, quote, m.String()).Scan(&raw, &fallback)
	if errors.Is(err, sql.ErrNoRows) {
		return famfolio.Rate{}, false, nil
	}
	if err != nil {
		return famfolio.Rate{}, false, fmt.Errorf("cannot read rate %s/%s %s: %w", base, quote, m, err)
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return famfolio.Rate{}, false, fmt.Errorf("corrupt rate %s/%s %s: %w", base, quote, m, err)
	}
	return famfolio.Rate{Value: value, Fallback: fallback}, true, nil
}

// DeleteMonth drops every price and rate recorded for a month.
func (s *Store) DeleteMonth(ctx context.Context, m date.Month) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM monthly_prices WHERE month = ?`, m.String()); err != nil {
		return fmt.Errorf("cannot delete prices for %s: %w", m, err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM monthly_rates WHERE month = ?`, m.String()); err != nil {
		return fmt.Errorf("cannot delete rates for %s: %w", m, err)
	}
	return nil
}
