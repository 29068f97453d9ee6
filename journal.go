package valuation

import (
	"fmt"

	"github.com/etnz/valuation/date"
)

// event represents a single, atomic change of the quantity held in an asset.
// It is the lowest-level fact the historical reconstruction replays.
type event interface {
	date() date.Date
}

// acquireShares adds a quantity of an asset.
type acquireShares struct {
	on       date.Date
	asset    string
	quantity Quantity
}

func (e acquireShares) date() date.Date { return e.on }

// disposeShares removes a quantity of an asset, never more than held.
type disposeShares struct {
	on       date.Date
	asset    string
	quantity Quantity
}

func (e disposeShares) date() date.Date { return e.on }

// splitShares multiplies the quantity held in an asset.
type splitShares struct {
	on    date.Date
	asset string
	ratio Quantity
}

func (e splitShares) date() date.Date { return e.on }

// Journal holds the quantity events of a set of transactions, in replay order.
type Journal struct {
	events   []event
	currency string    // currency of the first priced transaction
	oldest   date.Date // date of the earliest transaction
}

// NewJournal converts transactions into a Journal of quantity events.
// Transactions that do not move quantities produce no event.
func NewJournal(txs []Transaction) (*Journal, error) {
	sorted := make([]Transaction, len(txs))
	copy(sorted, txs)
	SortTransactions(sorted)

	j := &Journal{events: make([]event, 0, len(sorted))}
	for _, tx := range sorted {
		if err := tx.Validate(); err != nil {
			return nil, err
		}
		if j.oldest.IsZero() {
			j.oldest = tx.Date
		}
		if j.currency == "" {
			j.currency = tx.Currency()
		}
		switch tx.Type {
		case TxBuy, TxTransferIn, TxReinvestment, TxESPPPurchase, TxRSUVest:
			j.events = append(j.events, acquireShares{on: tx.Date, asset: tx.Asset, quantity: tx.Quantity})
		case TxSell, TxTransferOut:
			j.events = append(j.events, disposeShares{on: tx.Date, asset: tx.Asset, quantity: tx.Quantity})
		case TxSplit:
			j.events = append(j.events, splitShares{on: tx.Date, asset: tx.Asset, ratio: tx.Quantity})
		case TxFee, TxTax, TxDividend, TxInterest, TxSpinoff, TxMerger:
		default:
			return nil, fmt.Errorf("invalid %s transaction on %v: unhandled transaction type %q", tx.Type, tx.Date, tx.Type)
		}
	}
	return j, nil
}

// Empty reports whether the journal was built from no transaction at all.
func (j *Journal) Empty() bool { return j.oldest.IsZero() }

// Oldest returns the date of the earliest transaction.
func (j *Journal) Oldest() date.Date { return j.oldest }

// positions is the quantity held per asset.
type positions map[string]Quantity

func (p positions) apply(e event) {
	switch v := e.(type) {
	case acquireShares:
		p[v.asset] = p[v.asset].Add(v.quantity)
	case disposeShares:
		held := p[v.asset]
		p[v.asset] = held.Sub(held.Min(v.quantity))
	case splitShares:
		p[v.asset] = p[v.asset].Mul(v.ratio)
	}
}

// cursor replays a journal forward in time.
type cursor struct {
	journal *Journal
	next    int
	held    positions
}

func (j *Journal) cursor() *cursor {
	return &cursor{journal: j, held: make(positions)}
}

// advance applies all events dated on or before day. Days must not go backward.
func (c *cursor) advance(day date.Date) positions {
	for c.next < len(c.journal.events) {
		e := c.journal.events[c.next]
		if e.date().After(day) {
			break
		}
		c.held.apply(e)
		c.next++
	}
	return c.held
}

// Positions returns the quantities held on day.
func (j *Journal) Positions(day date.Date) map[string]Quantity {
	held := j.cursor().advance(day)
	out := make(map[string]Quantity, len(held))
	for asset, q := range held {
		if q.IsPositive() {
			out[asset] = q
		}
	}
	return out
}
