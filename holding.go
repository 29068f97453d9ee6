package valuation

import (
	"errors"
	"fmt"

	"github.com/etnz/valuation/date"
	"github.com/etnz/valuation/tax"
	"github.com/shopspring/decimal"
)

// WarningKind identifies a data-integrity problem met during replay.
type WarningKind string

const (
	// InsufficientQuantity is raised when a disposal exceeds the held quantity and is clamped.
	InsufficientQuantity WarningKind = "insufficient-quantity"
	// NegativeCostBasis is raised when a fee or tax would drive the cost basis below zero.
	NegativeCostBasis WarningKind = "negative-cost-basis"
)

// Warning is a non fatal problem found while replaying a transaction.
type Warning struct {
	Kind    WarningKind
	Date    date.Date
	TxID    string
	Message string
}

func (w Warning) String() string { return fmt.Sprintf("%v: %s: %s", w.Date, w.Kind, w.Message) }

// Disposal is the realized side of a sell or transfer_out.
type Disposal struct {
	TxID      string
	Type      TxType
	Date      date.Date
	Requested Quantity // quantity in the transaction
	Quantity  Quantity // quantity actually removed, after clamping
	Proceeds  Money
	CostBasis Money // aggregate cost basis removed from the holding
	Gain      Money // Proceeds - CostBasis
	Slices    []LotSlice
}

// HoldingOptions tunes ComputeHolding.
type HoldingOptions struct {
	Method LotMethod
	// Price is the current unit price. When nil, the last known transaction
	// price is used and the result is flagged PriceEstimated.
	Price *Money
}

// HoldingCalculation is the state of one (portfolio, asset) pair derived by replaying its transactions.
type HoldingCalculation struct {
	Portfolio             string
	Asset                 string
	Currency              string
	Quantity              Quantity
	CostBasis             Money
	AverageCost           Money
	CurrentPrice          Money
	PriceEstimated        bool
	CurrentValue          Money
	UnrealizedGain        Money
	UnrealizedGainPercent Percent
	RealizedGain          Money
	Income                Money // dividends and interest
	Lots                  []Lot
	Disposals             []Disposal
	Warnings              []Warning
	LastUpdated           date.Date // date of the last replayed transaction
}

// Empty reports whether nothing is held: such a holding must not be persisted.
func (h HoldingCalculation) Empty() bool { return !h.Quantity.IsPositive() }

// OpenLots returns the lots with a remaining quantity.
func (h HoldingCalculation) OpenLots() []Lot {
	var open []Lot
	for _, lot := range h.Lots {
		if lot.Remaining.IsPositive() {
			open = append(open, lot)
		}
	}
	return open
}

// ErrMixedTransactions is returned when ComputeHolding receives transactions of several pairs.
var ErrMixedTransactions = errors.New("transactions must belong to a single (portfolio, asset) pair")

// holdingState is the running state of a replay.
type holdingState struct {
	calc      HoldingCalculation
	lots      lots
	lastPrice Money
	method    LotMethod
}

// ComputeHolding replays the transactions of a single (portfolio, asset)
// pair into a HoldingCalculation.
//
// The transactions are sorted in replay order first, the input slice is left
// untouched. Disposals larger than the holding are clamped and reported as
// warnings, they never make the quantity or the cost basis negative.
func ComputeHolding(txs []Transaction, opts HoldingOptions) (HoldingCalculation, error) {
	sorted := make([]Transaction, len(txs))
	copy(sorted, txs)
	SortTransactions(sorted)

	s := &holdingState{method: opts.Method}
	for i, tx := range sorted {
		if i == 0 {
			s.calc.Portfolio, s.calc.Asset = tx.Portfolio, tx.Asset
		} else if tx.Portfolio != s.calc.Portfolio || tx.Asset != s.calc.Asset {
			return HoldingCalculation{}, fmt.Errorf("%w: got %s/%s and %s/%s", ErrMixedTransactions, s.calc.Portfolio, s.calc.Asset, tx.Portfolio, tx.Asset)
		}
		if err := tx.Validate(); err != nil {
			return HoldingCalculation{}, err
		}
		if c := tx.Currency(); c != "" {
			if s.calc.Currency == "" {
				s.calc.Currency = c
			} else if c != s.calc.Currency {
				return HoldingCalculation{}, fmt.Errorf("invalid %s transaction on %v: currency %s does not match holding currency %s", tx.Type, tx.Date, c, s.calc.Currency)
			}
		}
		if err := s.apply(tx); err != nil {
			return HoldingCalculation{}, fmt.Errorf("invalid %s transaction on %v: %w", tx.Type, tx.Date, err)
		}
		s.calc.LastUpdated = tx.Date
	}

	if opts.Price != nil {
		if !opts.Price.Compatible(M(0, s.calc.Currency)) {
			return HoldingCalculation{}, fmt.Errorf("current price currency %s does not match holding currency %s", opts.Price.Currency(), s.calc.Currency)
		}
		s.calc.CurrentPrice = *opts.Price
	} else {
		s.calc.CurrentPrice = s.lastPrice
		s.calc.PriceEstimated = true
	}
	return s.finish(), nil
}

// apply replays a single transaction.
func (s *holdingState) apply(tx Transaction) error {
	c := &s.calc
	if p := tx.UnitPrice(); !p.IsZero() && tx.Type != TxSplit && tx.Type != TxFee && tx.Type != TxTax {
		s.lastPrice = p
	}

	switch tx.Type {
	case TxBuy, TxTransferIn, TxReinvestment, TxESPPPurchase, TxRSUVest:
		cost := acquisitionCost(tx)
		c.Quantity = c.Quantity.Add(tx.Quantity)
		c.CostBasis = c.CostBasis.Add(cost)
		s.lots = append(s.lots, newLot(tx, cost))

	case TxSell, TxTransferOut:
		s.dispose(tx)

	case TxSplit:
		c.Quantity = c.Quantity.Mul(tx.Quantity)
		s.lots.split(tx.Quantity)
		if !s.lastPrice.IsZero() {
			s.lastPrice = s.lastPrice.Div(tx.Quantity)
		}

	case TxFee, TxTax:
		basis := c.CostBasis.Sub(tx.Total())
		if basis.IsNegative() {
			c.Warnings = append(c.Warnings, Warning{
				Kind:    NegativeCostBasis,
				Date:    tx.Date,
				TxID:    tx.ID,
				Message: fmt.Sprintf("%s of %s exceeds cost basis %s, cost basis floored at zero", tx.Type, tx.Total(), c.CostBasis),
			})
		}
		c.CostBasis = basis.FloorZero()

	case TxDividend, TxInterest:
		c.Income = c.Income.Add(tx.Total())

	case TxSpinoff, TxMerger:
		// no effect on quantity or cost basis.

	default:
		return fmt.Errorf("unhandled transaction type %q", tx.Type)
	}
	return nil
}

// dispose removes quantity from the holding, clamped to what is held.
func (s *holdingState) dispose(tx Transaction) {
	c := &s.calc
	held := c.Quantity
	sold := tx.Quantity
	if sold.GreaterThan(held) {
		c.Warnings = append(c.Warnings, Warning{
			Kind:    InsufficientQuantity,
			Date:    tx.Date,
			TxID:    tx.ID,
			Message: fmt.Sprintf("%s of %s %s exceeds held quantity %s, clamped", tx.Type, tx.Quantity, tx.Asset, held),
		})
		sold = held
	}
	if !sold.IsPositive() {
		return
	}

	removed := c.CostBasis
	if sold.LessThan(held) {
		removed = c.CostBasis.Mul(sold).Div(held)
	}
	// proceeds follow the quantity actually sold.
	proceeds := tx.Total()
	if !sold.Equal(tx.Quantity) {
		proceeds = proceeds.Mul(sold).Div(tx.Quantity)
	}

	c.Quantity = held.Sub(sold)
	c.CostBasis = c.CostBasis.Sub(removed).FloorZero()

	matched := s.lots.consume(sold, s.method, tx.Date)
	for i := range matched {
		sl := &matched[i]
		sl.Proceeds = proceeds.Mul(sl.Quantity).Div(sold)
		sl.Gain = sl.Proceeds.Sub(sl.Cost)
	}
	gain := proceeds.Sub(removed)
	c.RealizedGain = c.RealizedGain.Add(gain)
	c.Disposals = append(c.Disposals, Disposal{
		TxID:      tx.ID,
		Type:      tx.Type,
		Date:      tx.Date,
		Requested: tx.Quantity,
		Quantity:  sold,
		Proceeds:  proceeds,
		CostBasis: removed,
		Gain:      gain,
		Slices:    matched,
	})
}

// finish computes the derived fields.
func (s *holdingState) finish() HoldingCalculation {
	c := s.calc
	cur := c.Currency
	c.CostBasis = c.CostBasis.In(cur)
	c.CurrentPrice = c.CurrentPrice.In(cur)
	c.RealizedGain = c.RealizedGain.In(cur)
	c.Income = c.Income.In(cur)
	c.Lots = []Lot(s.lots)

	c.AverageCost = M(0, cur)
	if c.Quantity.IsPositive() {
		c.AverageCost = c.CostBasis.Div(c.Quantity)
	}
	c.CurrentValue = c.CurrentPrice.Mul(c.Quantity)
	c.UnrealizedGain = c.CurrentValue.Sub(c.CostBasis)
	c.UnrealizedGainPercent = c.UnrealizedGain.Percent(c.CostBasis)
	return c
}

// acquisitionCost returns the cost basis added by an acquisition.
func acquisitionCost(tx Transaction) Money {
	cost := tx.Total()
	if cost.IsZero() && tx.RSU != nil && !tx.RSU.VestingPrice.IsZero() {
		cost = M(tx.RSU.VestingPrice, tx.Currency()).Mul(tx.Quantity)
	}
	return cost
}

// newLot creates the tax lot opened by an acquisition.
func newLot(tx Transaction, cost Money) Lot {
	price := tx.UnitPrice()
	if price.IsZero() {
		price = cost.Div(tx.Quantity)
	}
	lot := Lot{
		ID:            tx.ID,
		Type:          StandardLot,
		PurchaseDate:  tx.Date,
		Quantity:      tx.Quantity,
		PurchasePrice: price,
		Cost:          cost,
		Remaining:     tx.Quantity,
	}
	switch tx.Type {
	case TxESPPPurchase:
		lot.Type = ESPPLot
		lot.GrantDate = tx.ESPP.GrantDate
		lot.BargainElement = M(esppBargainElement(tx, price.Decimal()), price.Currency())
	case TxRSUVest:
		lot.Type = RSULot
		lot.VestingDate = tx.Date
		lot.VestingPrice = price
		if tx.RSU != nil {
			if !tx.RSU.VestingDate.IsZero() {
				lot.VestingDate = tx.RSU.VestingDate
			}
			if !tx.RSU.VestingPrice.IsZero() {
				lot.VestingPrice = M(tx.RSU.VestingPrice, price.Currency())
			}
		}
	}
	return lot
}

// esppBargainElement returns (market price - purchase price) * quantity.
// Without a market price it is derived from the plan discount.
func esppBargainElement(tx Transaction, purchasePrice decimal.Decimal) decimal.Decimal {
	market := tx.ESPP.MarketPrice
	if market.IsZero() && tx.ESPP.DiscountPercent.IsPositive() {
		hundred := decimal.NewFromInt(100)
		market = purchasePrice.Mul(hundred).Div(hundred.Sub(tx.ESPP.DiscountPercent))
	}
	if market.IsZero() {
		return decimal.Zero
	}
	return tax.BargainElement(market, purchasePrice, tx.Quantity.Decimal())
}
