// Package sqlite keeps transactions, computed holdings and prices in a single
// SQLite database file.
//
// Decimals are stored as TEXT so that no precision is lost, dates as
// YYYY-MM-DD TEXT. Transactions are stored in their JSONL representation next
// to the columns used to query them.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/etnz/valuation"
	"github.com/etnz/valuation/common"
	"github.com/etnz/valuation/date"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a transaction or a holding does not exist.
var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	id TEXT PRIMARY KEY,
	portfolio TEXT NOT NULL,
	asset TEXT NOT NULL,
	date TEXT NOT NULL,
	seq INTEGER NOT NULL,
	data TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS transactions_pair ON transactions(portfolio, asset, date, seq);

CREATE TABLE IF NOT EXISTS holdings (
	portfolio TEXT NOT NULL,
	asset TEXT NOT NULL,
	currency TEXT NOT NULL,
	quantity TEXT NOT NULL,
	cost_basis TEXT NOT NULL,
	average_cost TEXT NOT NULL,
	current_price TEXT NOT NULL,
	price_estimated INTEGER NOT NULL,
	realized_gain TEXT NOT NULL,
	income TEXT NOT NULL,
	last_updated TEXT NOT NULL,
	PRIMARY KEY (portfolio, asset)
);

CREATE TABLE IF NOT EXISTS lots (
	portfolio TEXT NOT NULL,
	asset TEXT NOT NULL,
	n INTEGER NOT NULL,
	lot_id TEXT NOT NULL,
	type TEXT NOT NULL,
	purchase_date TEXT NOT NULL,
	quantity TEXT NOT NULL,
	purchase_price TEXT NOT NULL,
	cost TEXT NOT NULL,
	sold TEXT NOT NULL,
	remaining TEXT NOT NULL,
	grant_date TEXT NOT NULL DEFAULT '',
	bargain_element TEXT NOT NULL DEFAULT '0',
	vesting_date TEXT NOT NULL DEFAULT '',
	vesting_price TEXT NOT NULL DEFAULT '0',
	PRIMARY KEY (portfolio, asset, n)
);

CREATE TABLE IF NOT EXISTS prices (
	asset TEXT NOT NULL,
	date TEXT NOT NULL,
	price TEXT NOT NULL,
	currency TEXT NOT NULL,
	PRIMARY KEY (asset, date)
);
`

// Store is a SQLite backed TransactionStore, HoldingStore and PriceSource.
type Store struct {
	db  *sql.DB
	log *common.Logger
	mu  sync.Mutex // serializes writes that read then write
}

var (
	_ valuation.TransactionStore = (*Store)(nil)
	_ valuation.HoldingStore     = (*Store)(nil)
	_ valuation.PriceSource      = (*Store)(nil)
)

// Open opens or creates the database at path and ensures its tables exist.
// path may be ":memory:".
func Open(ctx context.Context, path string, logger *common.Logger) (*Store, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", path, err)
	}
	// a single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, log: logger.OrSilent()}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	s.log.Debug().Str("path", path).Msg("database tables ensured")
	return s, nil
}

func ensureDir(path string) error {
	path = strings.TrimPrefix(path, "file:")
	if i := strings.Index(path, "?"); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create database folder %q: %w", dir, err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// AddTransaction inserts or replaces a transaction and returns it as stored.
//
// A transaction without ID gets a new one, a transaction without Seq is
// sequenced after every stored transaction.
func (s *Store) AddTransaction(ctx context.Context, tx valuation.Transaction) (valuation.Transaction, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if tx.Portfolio == "" {
		tx.Portfolio = valuation.DefaultPortfolio
	}
	if err := tx.Validate(); err != nil {
		return tx, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tx.Seq == 0 {
		var last sql.NullInt64
		err := s.db.QueryRowContext(ctx, "SELECT seq FROM transactions WHERE id=?", tx.ID).Scan(&last)
		if errors.Is(err, sql.ErrNoRows) {
			err = s.db.QueryRowContext(ctx, "SELECT MAX(seq) + 1 FROM transactions").Scan(&last)
		}
		if err != nil {
			return tx, fmt.Errorf("cannot sequence transaction %s: %w", tx.ID, err)
		}
		tx.Seq = max(last.Int64, 1)
	}
	data, err := json.Marshal(tx)
	if err != nil {
		return tx, err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO transactions(id, portfolio, asset, date, seq, data) VALUES(?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET portfolio=excluded.portfolio, asset=excluded.asset, date=excluded.date, seq=excluded.seq, data=excluded.data;`,
		tx.ID, tx.Portfolio, tx.Asset, tx.Date.String(), tx.Seq, string(data))
	if err != nil {
		return tx, fmt.Errorf("cannot save transaction %s: %w", tx.ID, err)
	}
	s.log.Debug().Str("id", tx.ID).Str("portfolio", tx.Portfolio).Str("asset", tx.Asset).Msg("transaction saved")
	return tx, nil
}

// DeleteTransaction removes a transaction and returns the pair it belonged to.
func (s *Store) DeleteTransaction(ctx context.Context, id string) (valuation.Pair, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var p valuation.Pair
	err := s.db.QueryRowContext(ctx, "SELECT portfolio, asset FROM transactions WHERE id=?", id).Scan(&p.Portfolio, &p.Asset)
	if errors.Is(err, sql.ErrNoRows) {
		return p, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return p, err
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM transactions WHERE id=?", id); err != nil {
		return p, fmt.Errorf("cannot delete transaction %s: %w", id, err)
	}
	return p, nil
}

// AssetTransactions implements valuation.TransactionStore.
func (s *Store) AssetTransactions(ctx context.Context, portfolio, asset string) ([]valuation.Transaction, error) {
	return s.queryTransactions(ctx, "SELECT data FROM transactions WHERE portfolio=? AND asset=? ORDER BY date, seq", portfolio, asset)
}

// PortfolioTransactions implements valuation.TransactionStore.
func (s *Store) PortfolioTransactions(ctx context.Context, portfolio string) ([]valuation.Transaction, error) {
	return s.queryTransactions(ctx, "SELECT data FROM transactions WHERE portfolio=? ORDER BY date, seq", portfolio)
}

// Pairs returns every (portfolio, asset) pair with at least one transaction.
func (s *Store) Pairs(ctx context.Context) ([]valuation.Pair, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT portfolio, asset FROM transactions ORDER BY portfolio, asset")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var pairs []valuation.Pair
	for rows.Next() {
		var p valuation.Pair
		if err := rows.Scan(&p.Portfolio, &p.Asset); err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

func (s *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]valuation.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []valuation.Transaction
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var tx valuation.Transaction
		if err := json.Unmarshal([]byte(data), &tx); err != nil {
			return nil, fmt.Errorf("cannot decode stored transaction %q: %w", data, err)
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// SaveHolding implements valuation.HoldingStore. It replaces the holding and all its lots.
func (s *Store) SaveHolding(ctx context.Context, h valuation.HoldingCalculation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO holdings(portfolio, asset, currency, quantity, cost_basis, average_cost,
			current_price, price_estimated, realized_gain, income, last_updated) VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(portfolio, asset) DO UPDATE SET currency=excluded.currency, quantity=excluded.quantity,
			cost_basis=excluded.cost_basis, average_cost=excluded.average_cost, current_price=excluded.current_price,
			price_estimated=excluded.price_estimated, realized_gain=excluded.realized_gain, income=excluded.income,
			last_updated=excluded.last_updated;`,
			h.Portfolio, h.Asset, h.Currency, h.Quantity.String(), text(h.CostBasis), text(h.AverageCost),
			text(h.CurrentPrice), h.PriceEstimated, text(h.RealizedGain), text(h.Income), dateText(h.LastUpdated))
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM lots WHERE portfolio=? AND asset=?", h.Portfolio, h.Asset); err != nil {
			return err
		}
		for n, lot := range h.Lots {
			_, err := tx.ExecContext(ctx, `INSERT INTO lots(portfolio, asset, n, lot_id, type, purchase_date, quantity,
				purchase_price, cost, sold, remaining, grant_date, bargain_element, vesting_date, vesting_price)
				VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				h.Portfolio, h.Asset, n, lot.ID, string(lot.Type), dateText(lot.PurchaseDate), lot.Quantity.String(),
				text(lot.PurchasePrice), text(lot.Cost), lot.Sold.String(), lot.Remaining.String(),
				dateText(lot.GrantDate), text(lot.BargainElement), dateText(lot.VestingDate), text(lot.VestingPrice))
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteHolding implements valuation.HoldingStore.
func (s *Store) DeleteHolding(ctx context.Context, portfolio, asset string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM lots WHERE portfolio=? AND asset=?", portfolio, asset); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, "DELETE FROM holdings WHERE portfolio=? AND asset=?", portfolio, asset)
		return err
	})
}

func (s *Store) inTx(ctx context.Context, f func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := f(tx); err != nil {
		return errors.Join(err, tx.Rollback())
	}
	return tx.Commit()
}

// Holding returns the persisted holding of a pair with its lots. Only the
// persisted fields are set.
func (s *Store) Holding(ctx context.Context, portfolio, asset string) (valuation.HoldingCalculation, error) {
	h := valuation.HoldingCalculation{Portfolio: portfolio, Asset: asset}
	var quantity, basis, avg, price, realized, income, updated string
	err := s.db.QueryRowContext(ctx, `SELECT currency, quantity, cost_basis, average_cost, current_price, price_estimated,
		realized_gain, income, last_updated FROM holdings WHERE portfolio=? AND asset=?`, portfolio, asset).
		Scan(&h.Currency, &quantity, &basis, &avg, &price, &h.PriceEstimated, &realized, &income, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return h, fmt.Errorf("holding %s/%s: %w", portfolio, asset, ErrNotFound)
	}
	if err != nil {
		return h, err
	}

	var r reader
	h.Quantity = r.quantity(quantity)
	h.CostBasis = r.money(basis, h.Currency)
	h.AverageCost = r.money(avg, h.Currency)
	h.CurrentPrice = r.money(price, h.Currency)
	h.RealizedGain = r.money(realized, h.Currency)
	h.Income = r.money(income, h.Currency)
	h.LastUpdated = r.date(updated)
	if r.err != nil {
		return h, fmt.Errorf("holding %s/%s: %w", portfolio, asset, r.err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT lot_id, type, purchase_date, quantity, purchase_price, cost, sold, remaining,
		grant_date, bargain_element, vesting_date, vesting_price FROM lots WHERE portfolio=? AND asset=? ORDER BY n`, portfolio, asset)
	if err != nil {
		return h, err
	}
	defer rows.Close()
	for rows.Next() {
		var lot valuation.Lot
		var typ, purchased, qty, pp, cost, sold, remaining, granted, bargain, vested, vp string
		if err := rows.Scan(&lot.ID, &typ, &purchased, &qty, &pp, &cost, &sold, &remaining, &granted, &bargain, &vested, &vp); err != nil {
			return h, err
		}
		lot.Type = valuation.LotType(typ)
		lot.PurchaseDate = r.date(purchased)
		lot.Quantity = r.quantity(qty)
		lot.PurchasePrice = r.money(pp, h.Currency)
		lot.Cost = r.money(cost, h.Currency)
		lot.Sold = r.quantity(sold)
		lot.Remaining = r.quantity(remaining)
		lot.GrantDate = r.date(granted)
		lot.BargainElement = r.money(bargain, h.Currency)
		lot.VestingDate = r.date(vested)
		lot.VestingPrice = r.money(vp, h.Currency)
		h.Lots = append(h.Lots, lot)
	}
	if r.err != nil {
		return h, fmt.Errorf("lots of %s/%s: %w", portfolio, asset, r.err)
	}
	return h, rows.Err()
}

// SavePrice records the price of an asset on a day, replacing any previous one.
func (s *Store) SavePrice(ctx context.Context, asset string, on date.Date, price valuation.Money) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO prices(asset, date, price, currency) VALUES(?, ?, ?, ?)
		ON CONFLICT(asset, date) DO UPDATE SET price=excluded.price, currency=excluded.currency;`,
		asset, on.String(), text(price), price.Currency())
	if err != nil {
		return fmt.Errorf("cannot save price of %s on %v: %w", asset, on, err)
	}
	return nil
}

// ImportMarket saves every price of a market data collection and returns how many were saved.
func (s *Store) ImportMarket(ctx context.Context, m *valuation.MarketData) (int, error) {
	n := 0
	for _, asset := range m.Assets() {
		for on, price := range m.Prices(asset) {
			if err := s.SavePrice(ctx, asset, on, price); err != nil {
				return n, err
			}
			n++
		}
	}
	s.log.Info().Int("prices", n).Msg("market data imported")
	return n, nil
}

// PriceSeries implements valuation.PriceSource.
func (s *Store) PriceSeries(ctx context.Context, asset string) ([]valuation.PricePoint, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT date, price, currency FROM prices WHERE asset=? ORDER BY date", asset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var r reader
	var points []valuation.PricePoint
	for rows.Next() {
		var on, price, cur string
		if err := rows.Scan(&on, &price, &cur); err != nil {
			return nil, err
		}
		points = append(points, valuation.PricePoint{Date: r.date(on), Price: r.money(price, cur)})
	}
	if r.err != nil {
		return nil, fmt.Errorf("prices of %s: %w", asset, r.err)
	}
	return points, rows.Err()
}

func text(m valuation.Money) string { return m.Decimal().String() }

func dateText(d date.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

// reader parses stored columns and keeps the first error.
type reader struct{ err error }

func (r *reader) dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil && r.err == nil {
		r.err = err
	}
	return d
}

func (r *reader) quantity(s string) valuation.Quantity { return valuation.Q(r.dec(s)) }

func (r *reader) money(s, cur string) valuation.Money { return valuation.M(r.dec(s), cur) }

func (r *reader) date(s string) date.Date {
	if s == "" {
		return date.Date{}
	}
	d, err := date.Parse(s)
	if err != nil && r.err == nil {
		r.err = err
	}
	return d
}
