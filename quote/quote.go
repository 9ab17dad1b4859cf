// Package quote fetches month-end closing prices for securities and
// currency pairs from a Yahoo-style chart endpoint.
package quote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/rs/zerolog"

	"github.com/linsean/famfolio/date"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// Client fetches monthly closes over HTTP. Responses are cached on disk
// with a daily expiry, so repeated report runs don't hammer the service.
type Client struct {
	http *http.Client
	base string
	log  zerolog.Logger
}

// New returns a client with the daily disk cache installed.
func New(log zerolog.Logger) *Client {
	return &Client{
		http: cached(log),
		base: defaultBaseURL,
		log:  log.With().Str("component", "quote").Logger(),
	}
}

// NewWithBase returns a client against a custom endpoint. Used in tests.
func NewWithBase(base string, log zerolog.Logger) *Client {
	return &Client{http: new(http.Client), base: base, log: log}
}

// FxSymbol builds the chart symbol for a currency pair, e.g. "USDTWD=X".
func FxSymbol(base, quote string) string { return base + quote + "=X" }

// MonthlyFxClose returns the month-end conversion factor for a currency
// pair: how many quote units one base unit bought at the last close.
func (c *Client) MonthlyFxClose(ctx context.Context, base, quote string, m date.Month) (float64, error) {
	rate, _, err := c.MonthlyClose(ctx, FxSymbol(base, quote), m)
	return rate, err
}

// MonthlyClose returns the last daily close of the month for a symbol,
// with the currency the service quotes it in. For months that haven't
// ended yet it returns the latest close so far.
func (c *Client) MonthlyClose(ctx context.Context, symbol string, m date.Month) (price float64, currency string, err error) {
	jobj, err := c.chart(ctx, symbol, m)
	if err != nil {
		return 0, "", err
	}

	currency, err = pathString(jobj, "$.chart.result[0].meta.currency")
	if err != nil {
		return 0, "", fmt.Errorf("cannot read currency for %q: %w", symbol, err)
	}

	closes, err := pathFloats(jobj, "$.chart.result[0].indicators.quote[0].close")
	if err != nil {
		return 0, "", fmt.Errorf("cannot read closes for %q: %w", symbol, err)
	}
	// Walk backwards: the service pads the series with nulls on non-trading
	// days, which decode to zero.
	for i := len(closes) - 1; i >= 0; i-- {
		if closes[i] != 0 {
			c.log.Debug().Str("symbol", symbol).Stringer("month", m).Float64("close", closes[i]).Msg("monthly close")
			return closes[i], currency, nil
		}
	}
	return 0, "", fmt.Errorf("no close for %q in %s", symbol, m)
}

func (c *Client) chart(ctx context.Context, symbol string, m date.Month) (any, error) {
	first, last := m.First(), m.Last()
	from := time.Date(first.Year(), first.Month().Mon(), first.Day(), 0, 0, 0, 0, time.UTC)
	to := time.Date(last.Year(), last.Month().Mon(), last.Day(), 23, 59, 59, 0, time.UTC)

	q := url.Values{}
	q.Set("period1", fmt.Sprint(from.Unix()))
	q.Set("period2", fmt.Sprint(to.Unix()))
	q.Set("interval", "1d")
	addr := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.base, url.PathEscape(symbol), q.Encode())

	var jobj any
	if err := c.jwget(ctx, addr, &jobj); err != nil {
		return nil, fmt.Errorf("cannot fetch chart for %q: %w", symbol, err)
	}
	if desc, err := pathString(jobj, "$.chart.error.description"); err == nil && desc != "" {
		return nil, fmt.Errorf("chart service rejected %q: %s", symbol, desc)
	}
	return jobj, nil
}

// pathString extracts a string at a jsonpath, unwrapping the
// single-element list the library sometimes returns.
func pathString(jobj any, path string) (string, error) {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return "", err
	}
	if jlist, ok := jval.([]any); ok && len(jlist) > 0 {
		jval = jlist[0]
	}
	s, ok := jval.(string)
	if !ok {
		return "", fmt.Errorf("%q is not a string: %v", path, jval)
	}
	return s, nil
}

// pathFloats extracts a numeric series at a jsonpath. JSON nulls become
// zeroes, callers must skip them.
func pathFloats(jobj any, path string) ([]float64, error) {
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		return nil, err
	}
	jlist, ok := jval.([]any)
	if !ok {
		return nil, fmt.Errorf("%q is not a list: %v", path, jval)
	}
	out := make([]float64, 0, len(jlist))
	for _, v := range jlist {
		f, _ := v.(float64)
		out = append(out, f)
	}
	return out, nil
}
