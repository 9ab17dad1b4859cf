// Package cmd implements the CLI application to manage the family ledger.
package cmd

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/linsean/famfolio"
	"github.com/linsean/famfolio/marketstore"
	"github.com/linsean/famfolio/quote"
)

// Register the subcommands. A main package calls Register() and then
// Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&importCmd{}, "ledger")
	c.Register(&fmtCmd{}, "ledger")

	c.Register(&positionsCmd{}, "reports")
	c.Register(&valuationCmd{}, "reports")
	c.Register(&gainsCmd{}, "reports")

	c.Register(&refreshCmd{}, "market data")
}

// As a CLI application it is short lived, so global flag variables are ok.
// Defaults come from the environment so a family ledger directory can pin
// its own settings; loadDefaults honors a .env file in the working
// directory before any FFO_ variable is read.

type appDefaults struct {
	ledger, store, currency, fxFallback, logLevel string
}

func loadDefaults() appDefaults {
	godotenv.Load()
	return appDefaults{
		ledger:     envOr("FFO_LEDGER", "transactions.jsonl"),
		store:      envOr("FFO_STORE", "market.db"),
		currency:   envOr("FFO_CURRENCY", "TWD"),
		fxFallback: envOr("FFO_FX_FALLBACK", ""),
		logLevel:   envOr("FFO_LOG", "warn"),
	}
}

// The flag variables depend on def, so def initializes first and the .env
// file is loaded before the defaults are computed.
var def = loadDefaults()

var (
	ledgerFile = flag.String("ledger-file", def.ledger, "Path to the ledger file (JSONL format)")
	storePath  = flag.String("store", def.store, "Path to the market data store")
	currency   = flag.String("currency", def.currency, "Reporting currency")
	fxFallback = flag.String("fx-fallback", def.fxFallback, "Fallback fx rates into the reporting currency, e.g. \"USD=30\"")
	logLevel   = flag.String("log-level", def.logLevel, "Log level (debug, info, warn, error)")
	skipBad    = flag.Bool("skip-invalid", false, "Skip invalid transactions with a warning instead of failing")
)

// folioOptions resolves the validation flags into engine options.
func folioOptions(tolerant bool) famfolio.FolioOptions {
	policy := famfolio.RejectBatch
	if *skipBad {
		policy = famfolio.SkipAndReport
	}
	return famfolio.FolioOptions{Policy: policy, TolerateOversell: tolerant}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Logger builds the application logger from the -log-level flag.
func Logger() zerolog.Logger {
	level, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		level = zerolog.WarnLevel
	}
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

// DecodeLedger reads the app ledger file. A missing file is an empty
// ledger, not an error, so reports on a fresh directory just say so.
func DecodeLedger() ([]famfolio.Transaction, error) {
	f, err := os.Open(*ledgerFile)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot open ledger %q: %w", *ledgerFile, err)
	}
	defer f.Close()
	return famfolio.DecodeTransactions(f)
}

// OpenStore opens the market data store and applies the configured
// fallback fx rates.
func OpenStore() (*marketstore.Store, error) {
	store, err := marketstore.Open(*storePath, Logger())
	if err != nil {
		return nil, err
	}
	for _, pair := range strings.Split(*fxFallback, ",") {
		if pair == "" {
			continue
		}
		base, raw, ok := strings.Cut(pair, "=")
		if !ok {
			store.Close()
			return nil, fmt.Errorf("invalid -fx-fallback entry %q, want BASE=RATE", pair)
		}
		rate, err := decimal.NewFromString(raw)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("invalid -fx-fallback rate %q: %w", raw, err)
		}
		store.SetFallbackRate(strings.ToUpper(strings.TrimSpace(base)), *currency, rate)
	}
	return store, nil
}

// NewFolio loads the ledger and wires it to the market store.
func NewFolio(store *marketstore.Store, opts famfolio.FolioOptions) (*famfolio.Folio, error) {
	txs, err := DecodeLedger()
	if err != nil {
		return nil, err
	}
	folio, skipped, err := famfolio.NewFolio(txs, store, store, *currency, opts)
	if err != nil {
		return nil, err
	}
	for _, s := range skipped {
		fmt.Fprintf(os.Stderr, "Warning: skipped %v\n", s)
	}
	return folio, nil
}

// Fetcher builds the remote quote client.
func Fetcher() *quote.Client { return quote.New(Logger()) }

// printMarkdown renders markdown for the terminal, falling back to the
// raw text when rendering fails.
func printMarkdown(md string) {
	out, err := glamour.Render(md, "auto")
	if err != nil {
		fmt.Println(md)
		return
	}
	fmt.Println(out)
}
