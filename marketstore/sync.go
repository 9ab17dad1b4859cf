package marketstore

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/linsean/famfolio"
	"github.com/linsean/famfolio/date"
)

// Fetcher pulls month-end market data from a remote quote service.
type Fetcher interface {
	MonthlyClose(ctx context.Context, symbol string, m date.Month) (price float64, currency string, err error)
	MonthlyFxClose(ctx context.Context, base, quote string, m date.Month) (float64, error)
}

// Ensure fills the store for every month of [from, through]: each listed
// security gets its monthly close, and each non-reporting transaction
// currency gets its conversion factor into the reporting currency. Months
// already stored are left alone. A failed price fetch is logged and left
// missing; a failed rate fetch falls back to the configured rate when one
// exists, stored flagged.
func (s *Store) Ensure(ctx context.Context, f Fetcher, securities map[string]string, reporting string, from, through date.Month) error {
	for m := range date.Months(from, through) {
		for security := range securities {
			if err := s.ensurePrice(ctx, f, security, m); err != nil {
				return err
			}
		}
		for _, currency := range securities {
			if currency == reporting {
				continue
			}
			if err := s.ensureRate(ctx, f, currency, reporting, m); err != nil {
				return err
			}
		}
	}
	return nil
}

// Refresh drops everything stored for a month and refetches it. Meant for
// the still-open current month, whose closes move until it ends.
func (s *Store) Refresh(ctx context.Context, f Fetcher, securities map[string]string, reporting string, m date.Month) error {
	s.log.Info().Stringer("month", m).Msg("refreshing month")
	if err := s.DeleteMonth(ctx, m); err != nil {
		return err
	}
	return s.Ensure(ctx, f, securities, reporting, m, m)
}

func (s *Store) ensurePrice(ctx context.Context, f Fetcher, security string, m date.Month) error {
	if _, ok, err := s.MonthlyPrice(ctx, security, m); err != nil {
		return err
	} else if ok {
		return nil
	}
	price, currency, err := f.MonthlyClose(ctx, security, m)
	if err != nil {
		s.log.Warn().Err(err).Str("security", security).Stringer("month", m).Msg("price fetch failed")
		return nil
	}
	return s.SetPrice(ctx, security, m, famfolio.M(price, currency))
}

func (s *Store) ensureRate(ctx context.Context, f Fetcher, base, quote string, m date.Month) error {
	if _, ok, err := s.MonthlyRate(ctx, base, quote, m); err != nil {
		return err
	} else if ok {
		return nil
	}
	rate, err := f.MonthlyFxClose(ctx, base, quote, m)
	if err != nil {
		fallback, ok := s.fallback[base+"/"+quote]
		if !ok {
			s.log.Warn().Err(err).Str("pair", base+"/"+quote).Stringer("month", m).Msg("rate fetch failed")
			return nil
		}
		s.log.Warn().Err(err).Str("pair", base+"/"+quote).Stringer("month", m).
			Str("fallback", fallback.String()).Msg("rate fetch failed, recording fallback")
		return s.SetRate(ctx, base, quote, m, fallback, true)
	}
	if rate == 0 {
		return fmt.Errorf("zero rate fetched for %s/%s in %s", base, quote, m)
	}
	return s.SetRate(ctx, base, quote, m, decimal.NewFromFloat(rate), false)
}
