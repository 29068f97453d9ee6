package valuation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/etnz/valuation/common"
	"github.com/etnz/valuation/date"
	"github.com/etnz/valuation/tax"
	"github.com/shopspring/decimal"
)

// Options configures an Engine.
type Options struct {
	Currency string        // reporting currency of historical values
	Method   LotMethod     // lot consumption method
	Debounce time.Duration // recompute debounce window
	Logger   *common.Logger
}

// Engine answers valuation questions about the portfolios of a TransactionStore.
//
// Every answer is a full replay of the stored transactions.
type Engine struct {
	transactions TransactionStore
	prices       PriceSource
	holdings     HoldingStore
	opts         Options
	log          *common.Logger
	scheduler    *Scheduler
	today        func() date.Date
}

// NewEngine creates an Engine. holdings may be nil when computed holdings need not be persisted.
func NewEngine(transactions TransactionStore, prices PriceSource, holdings HoldingStore, opts Options) *Engine {
	e := &Engine{
		transactions: transactions,
		prices:       prices,
		holdings:     holdings,
		opts:         opts,
		log:          opts.Logger.OrSilent(),
		today:        date.Today,
	}
	e.scheduler = NewScheduler(opts.Debounce, func(ctx context.Context, p Pair) error {
		_, err := e.RecomputeHolding(ctx, p.Portfolio, p.Asset)
		return err
	}, e.log)
	return e
}

// Scheduler returns the scheduler that debounces recomputes for this engine.
func (e *Engine) Scheduler() *Scheduler { return e.scheduler }

// TransactionChanged must be called after any write to a transaction of pair.
// The holding is recomputed once the debounce window elapses.
func (e *Engine) TransactionChanged(pair Pair) { e.scheduler.Schedule(pair) }

// currentPrice returns today's price of asset, or nil when unknown or not
// quoted in currency.
func (e *Engine) currentPrice(ctx context.Context, lookup *Lookup, asset, currency string) *Money {
	if e.prices == nil {
		return nil
	}
	q, err := lookup.PriceAt(ctx, asset, e.today())
	if err != nil {
		e.log.Debug().Str("asset", asset).Err(err).Msg("no current price, using the last transaction price")
		return nil
	}
	if !q.Price.Compatible(M(0, currency)) {
		e.log.Warn().Str("asset", asset).Str("price_currency", q.Price.Currency()).Str("currency", currency).
			Msg("current price in another currency, using the last transaction price")
		return nil
	}
	return &q.Price
}

// txCurrency returns the first currency found in txs.
func txCurrency(txs []Transaction) string {
	for _, tx := range txs {
		if c := tx.Currency(); c != "" {
			return c
		}
	}
	return ""
}

// ComputeHolding replays the transactions of a pair without persisting the result.
func (e *Engine) ComputeHolding(ctx context.Context, portfolio, asset string) (HoldingCalculation, error) {
	txs, err := e.transactions.AssetTransactions(ctx, portfolio, asset)
	if err != nil {
		return HoldingCalculation{}, fmt.Errorf("cannot read transactions of %s/%s: %w", portfolio, asset, err)
	}
	lookup := NewLookup(e.prices)
	h, err := ComputeHolding(txs, HoldingOptions{Method: e.opts.Method, Price: e.currentPrice(ctx, lookup, asset, txCurrency(txs))})
	if err != nil {
		return HoldingCalculation{}, err
	}
	h.Portfolio, h.Asset = portfolio, asset
	for _, w := range h.Warnings {
		e.log.Warn().
			Str("portfolio", portfolio).
			Str("asset", asset).
			Str("kind", string(w.Kind)).
			Str("date", w.Date.String()).
			Str("tx", w.TxID).
			Msg(w.Message)
	}
	return h, nil
}

// RecomputeHolding replays the transactions of a pair and persists the
// result. A holding with nothing left is deleted instead of being saved.
func (e *Engine) RecomputeHolding(ctx context.Context, portfolio, asset string) (HoldingCalculation, error) {
	h, err := e.ComputeHolding(ctx, portfolio, asset)
	if err != nil {
		return HoldingCalculation{}, err
	}
	if e.holdings == nil {
		return h, nil
	}
	if h.Empty() {
		err = e.holdings.DeleteHolding(ctx, portfolio, asset)
		e.log.Debug().Str("portfolio", portfolio).Str("asset", asset).Msg("holding deleted")
	} else {
		err = e.holdings.SaveHolding(ctx, h)
		e.log.Debug().Str("portfolio", portfolio).Str("asset", asset).Str("quantity", h.Quantity.String()).Msg("holding saved")
	}
	if err != nil {
		return h, fmt.Errorf("cannot persist holding %s/%s: %w", portfolio, asset, err)
	}
	return h, nil
}

// Holdings computes the holdings of every asset in a portfolio, sorted by
// asset. Assets with nothing left are included only when all is true.
func (e *Engine) Holdings(ctx context.Context, portfolio string, all bool) ([]HoldingCalculation, error) {
	txs, err := e.transactions.PortfolioTransactions(ctx, portfolio)
	if err != nil {
		return nil, fmt.Errorf("cannot read transactions of %s: %w", portfolio, err)
	}
	byAsset := make(map[string][]Transaction)
	for _, tx := range txs {
		byAsset[tx.Asset] = append(byAsset[tx.Asset], tx)
	}
	lookup := NewLookup(e.prices)
	var holdings []HoldingCalculation
	var errs error
	for _, asset := range sortedKeys(keySet(byAsset)) {
		h, err := ComputeHolding(byAsset[asset], HoldingOptions{Method: e.opts.Method, Price: e.currentPrice(ctx, lookup, asset, txCurrency(byAsset[asset]))})
		if err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		if h.Empty() && !all {
			continue
		}
		holdings = append(holdings, h)
	}
	return holdings, errs
}

func keySet[V any](m map[string]V) map[string]struct{} {
	set := make(map[string]struct{}, len(m))
	for k := range m {
		set[k] = struct{}{}
	}
	return set
}

func (e *Engine) reconstructor() Reconstructor {
	return Reconstructor{Prices: e.prices, Currency: e.opts.Currency, Logger: e.log}
}

// HistoricalValues samples the value of a portfolio over a window ending today.
// Use AutoResolution for the window's default resolution.
func (e *Engine) HistoricalValues(ctx context.Context, portfolio string, window Window, resolution date.Period) ([]HistoricalValuePoint, error) {
	txs, err := e.transactions.PortfolioTransactions(ctx, portfolio)
	if err != nil {
		return nil, fmt.Errorf("cannot read transactions of %s: %w", portfolio, err)
	}
	return e.reconstructor().HistoricalValues(ctx, txs, window, resolution, e.today())
}

// ValueAtDate returns the value of a portfolio on a day, or nil if the portfolio has no transaction.
func (e *Engine) ValueAtDate(ctx context.Context, portfolio string, on date.Date) (*Money, error) {
	txs, err := e.transactions.PortfolioTransactions(ctx, portfolio)
	if err != nil {
		return nil, fmt.Errorf("cannot read transactions of %s: %w", portfolio, err)
	}
	return e.reconstructor().ValueAtDate(ctx, txs, on)
}

// PointAt returns the detailed value of a portfolio on a day. ok is false if
// the portfolio has no transaction.
func (e *Engine) PointAt(ctx context.Context, portfolio string, on date.Date) (p HistoricalValuePoint, ok bool, err error) {
	txs, err := e.transactions.PortfolioTransactions(ctx, portfolio)
	if err != nil {
		return p, false, fmt.Errorf("cannot read transactions of %s: %w", portfolio, err)
	}
	return e.reconstructor().PointAt(ctx, txs, on)
}

// ClassifyHoldingPeriod classifies a lot bought on purchase, on the reference day.
func (e *Engine) ClassifyHoldingPeriod(purchase, reference date.Date) (tax.HoldingPeriod, error) {
	return tax.Classify(purchase, reference)
}

// CheckDispositionStatus evaluates the sale of ESPP shares.
func (e *Engine) CheckDispositionStatus(grant, purchase, sell date.Date, bargainElement decimal.Decimal) (tax.DispositionStatus, error) {
	return tax.CheckDispositionStatus(grant, purchase, sell, bargainElement)
}
