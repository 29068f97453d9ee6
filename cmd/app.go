// Package cmd implements the lv command line: valuation reports over a ledger
// of transactions.
package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/valuation"
	"github.com/etnz/valuation/common"
	"github.com/etnz/valuation/renderer"
	"github.com/etnz/valuation/store/sqlite"
	"github.com/google/subcommands"
)

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", "valuation.toml", "Path to the TOML configuration file")
var outputFormat = flag.String("format", "term", "Output format of reports: term, markdown or html")

// output receives the reports.
var output io.Writer = os.Stdout

// printMarkdown prints a markdown report in the selected output format.
func printMarkdown(md string) {
	switch *outputFormat {
	case "markdown":
		fmt.Fprint(output, md)
	case "html":
		html, err := renderer.HTML(md)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error rendering HTML: %v\n", err)
			fmt.Fprint(output, md)
			return
		}
		fmt.Fprint(output, html)
	default:
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
		if err != nil {
			fmt.Fprint(output, md)
			return
		}
		out, err := r.Render(md)
		if err != nil {
			fmt.Fprint(output, md)
			return
		}
		fmt.Fprint(output, out)
	}
}

// app is the storage and engine behind a command.
//
// With the "file" driver, transactions live in a JSONL ledger and prices in
// a market folder, and holdings are only kept in memory. With the "sqlite"
// driver, everything is in one database.
type app struct {
	cfg    *common.Config
	log    *common.Logger
	engine *valuation.Engine

	ledger *valuation.Ledger     // file driver
	market *valuation.MarketData // file driver
	store  *sqlite.Store         // sqlite driver
}

// openApp loads the configuration and opens the configured storage.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := common.LoadConfig(*configFile)
	if err != nil {
		return nil, err
	}
	method, err := valuation.ParseLotMethod(cfg.LotMethod)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: common.NewLogger(cfg.Logging.Level)}
	opts := valuation.Options{
		Currency: cfg.Currency,
		Method:   method,
		Debounce: cfg.Scheduler.GetDebounce(),
		Logger:   a.log,
	}

	switch cfg.Storage.Driver {
	case "sqlite":
		a.store, err = sqlite.Open(ctx, cfg.Storage.Path, a.log)
		if err != nil {
			return nil, err
		}
		a.engine = valuation.NewEngine(a.store, a.store, a.store, opts)
	default:
		a.ledger, err = decodeLedgerFile(cfg.Ledger.Path)
		if err != nil {
			return nil, err
		}
		a.market, err = valuation.DecodeMarketData(cfg.Market.Path)
		if err != nil {
			return nil, err
		}
		a.engine = valuation.NewEngine(a.ledger, a.market, valuation.NewHoldingCache(), opts)
	}
	a.log.Debug().Str("driver", cfg.Storage.Driver).Str("currency", cfg.Currency).Str("method", method.String()).Msg("storage opened")
	return a, nil
}

// Close releases the storage.
func (a *app) Close() error {
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

// portfolio returns p, or the configured default portfolio when empty.
func (a *app) portfolio(p string) string {
	if p != "" {
		return p
	}
	return a.cfg.Portfolio
}

// transactions returns the transaction store of the app.
func (a *app) transactions() valuation.TransactionStore {
	if a.store != nil {
		return a.store
	}
	return a.ledger
}

// pairs lists the (portfolio, asset) pairs of a portfolio, or of every
// portfolio when portfolio is empty.
func (a *app) pairs(ctx context.Context, portfolio string) ([]valuation.Pair, error) {
	var all []valuation.Pair
	if a.store != nil {
		var err error
		all, err = a.store.Pairs(ctx)
		if err != nil {
			return nil, err
		}
	} else {
		for _, p := range a.ledger.Portfolios() {
			for _, asset := range a.ledger.Assets(p) {
				all = append(all, valuation.Pair{Portfolio: p, Asset: asset})
			}
		}
	}
	if portfolio == "" {
		return all, nil
	}
	var pairs []valuation.Pair
	for _, p := range all {
		if p.Portfolio == portfolio {
			pairs = append(pairs, p)
		}
	}
	return pairs, nil
}

// addTransactions stores transactions, replacing those with the same id,
// and schedules the recompute of their holdings.
func (a *app) addTransactions(ctx context.Context, txs []valuation.Transaction) error {
	for _, tx := range txs {
		if a.store != nil {
			stored, err := a.store.AddTransaction(ctx, tx)
			if err != nil {
				return err
			}
			tx = stored
		} else {
			// sequenced in import order, after the transactions already stored.
			tx.Seq = 0
			a.ledger.Upsert(tx)
		}
		a.engine.TransactionChanged(valuation.Pair{Portfolio: tx.Portfolio, Asset: tx.Asset})
	}
	if a.ledger != nil {
		return encodeLedgerFile(a.cfg.Ledger.Path, a.ledger)
	}
	return nil
}

// flush runs every scheduled recompute without waiting for the debounce window.
func (a *app) flush(ctx context.Context) ([]valuation.Pair, error) {
	return a.engine.Scheduler().RunDue(ctx, time.Now().Add(a.cfg.Scheduler.GetDebounce()))
}

// importMarket adds prices to the storage. It returns the number of prices stored.
func (a *app) importMarket(ctx context.Context, m *valuation.MarketData) (int, error) {
	if a.store != nil {
		return a.store.ImportMarket(ctx, m)
	}
	n := 0
	for _, asset := range m.Assets() {
		if c := m.Currency(asset); c != "" {
			a.market.Declare(asset, c)
		}
		for day, price := range m.Prices(asset) {
			a.market.Append(asset, day, price)
			n++
		}
	}
	return n, valuation.EncodeMarketData(a.cfg.Market.Path, a.market, a.log)
}

// decodeLedgerFile reads a ledger file. A missing file is an empty ledger.
func decodeLedgerFile(filename string) (*valuation.Ledger, error) {
	f, err := os.Open(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return valuation.NewLedger(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot open ledger file %q: %w", filename, err)
	}
	defer f.Close()
	ledger, err := valuation.DecodeLedger(f)
	if err != nil {
		return nil, fmt.Errorf("cannot decode ledger file %q: %w", filename, err)
	}
	return ledger, nil
}

// encodeLedgerFile writes a ledger file in replay order.
func encodeLedgerFile(filename string, ledger *valuation.Ledger) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("error opening ledger file %q for writing: %w", filename, err)
	}
	if err := valuation.EncodeLedger(f, ledger); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// withApp opens the app, runs f and closes the app, reporting errors the
// same way for every command.
func withApp(ctx context.Context, f func(*app) error) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening storage: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()
	if err := f(a); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
