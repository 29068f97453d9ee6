package valuation

import (
	"errors"
	"fmt"

	"github.com/etnz/valuation/date"
	"github.com/shopspring/decimal"
)

// TxType is a typed string for identifying transaction types.
type TxType string

// Transaction types. The set is closed: replay rejects any other value.
const (
	TxBuy          TxType = "buy"
	TxSell         TxType = "sell"
	TxTransferIn   TxType = "transfer_in"
	TxTransferOut  TxType = "transfer_out"
	TxSplit        TxType = "split"
	TxDividend     TxType = "dividend"
	TxInterest     TxType = "interest"
	TxFee          TxType = "fee"
	TxTax          TxType = "tax"
	TxSpinoff      TxType = "spinoff"
	TxMerger       TxType = "merger"
	TxReinvestment TxType = "reinvestment"
	TxESPPPurchase TxType = "espp_purchase"
	TxRSUVest      TxType = "rsu_vest"
)

// TxTypes lists all known transaction types.
var TxTypes = []TxType{
	TxBuy, TxSell, TxTransferIn, TxTransferOut, TxSplit, TxDividend, TxInterest,
	TxFee, TxTax, TxSpinoff, TxMerger, TxReinvestment, TxESPPPurchase, TxRSUVest,
}

// ParseTxType parses a transaction type.
func ParseTxType(s string) (TxType, error) {
	for _, t := range TxTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown transaction type: %q", s)
}

// IsAcquisition reports whether the type opens a tax lot.
func (t TxType) IsAcquisition() bool {
	switch t {
	case TxBuy, TxTransferIn, TxReinvestment, TxESPPPurchase, TxRSUVest:
		return true
	}
	return false
}

// IsDisposal reports whether the type removes shares from a holding.
func (t TxType) IsDisposal() bool {
	return t == TxSell || t == TxTransferOut
}

// ESPPDetails holds the metadata of an employee stock purchase.
type ESPPDetails struct {
	GrantDate       date.Date       `json:"grantDate"`                // offering (grant) date
	DiscountPercent decimal.Decimal `json:"discountPercent,omitzero"` // plan discount, 15 means 15%
	MarketPrice     decimal.Decimal `json:"marketPrice,omitzero"`     // fair market value per share on the purchase date
}

// RSUDetails holds the metadata of a restricted stock unit vest.
type RSUDetails struct {
	GrantDate      date.Date       `json:"grantDate,omitzero"`
	VestingDate    date.Date       `json:"vestingDate,omitzero"`    // defaults to the transaction date
	VestingPrice   decimal.Decimal `json:"vestingPrice,omitzero"`   // fair market value per share at vest
	SharesWithheld decimal.Decimal `json:"sharesWithheld,omitzero"` // withheld for taxes, already excluded from Quantity
}

// Transaction is an immutable record of a single ledger event on one asset.
//
// Quantity is always a magnitude, the direction comes from the Type. For a
// split, Quantity is the split ratio (2 for a 2-for-1 split).
type Transaction struct {
	ID        string
	Portfolio string
	Asset     string
	Type      TxType
	Date      date.Date
	Quantity  Quantity
	Price     Money // Price per unit.
	Amount    Money // Amount is the total amount of the transaction, fees included.
	Fees      Money
	Seq       int64 // Seq is the insertion sequence, it breaks same-day ties.
	Memo      string
	ESPP      *ESPPDetails
	RSU       *RSUDetails
}

// When returns the date of the transaction.
func (t Transaction) When() date.Date { return t.Date }

// What returns the type of the transaction.
func (t Transaction) What() TxType { return t.Type }

// Currency returns the currency of the transaction's monetary fields.
func (t Transaction) Currency() string {
	for _, m := range []Money{t.Amount, t.Price, t.Fees} {
		if c := m.Currency(); c != "" {
			return c
		}
	}
	return ""
}

// Total returns the total amount of the transaction.
//
// When Amount is missing it is derived from the unit price: quantity * price,
// plus fees for acquisitions and minus fees for disposals.
func (t Transaction) Total() Money {
	if !t.Amount.IsZero() || t.Price.IsZero() {
		return t.Amount.In(t.Currency())
	}
	total := t.Price.Mul(t.Quantity)
	switch {
	case t.Type.IsAcquisition():
		total = total.Add(t.Fees)
	case t.Type.IsDisposal():
		total = total.Sub(t.Fees)
	}
	return total.In(t.Currency())
}

// UnitPrice returns the price per unit, derived from the total when Price is missing.
func (t Transaction) UnitPrice() Money {
	if !t.Price.IsZero() {
		return t.Price.In(t.Currency())
	}
	if t.Quantity.IsZero() || t.Type == TxSplit {
		return M(0, t.Currency())
	}
	return t.Amount.Div(t.Quantity).In(t.Currency())
}

// Equal reports whether t and o record the same event. Amounts are compared
// by value, in the transaction's currency.
func (t Transaction) Equal(o Transaction) bool {
	return t.ID == o.ID && t.Portfolio == o.Portfolio && t.Asset == o.Asset &&
		t.Type == o.Type && t.Date == o.Date && t.Seq == o.Seq && t.Memo == o.Memo &&
		t.Currency() == o.Currency() && t.Quantity.Equal(o.Quantity) &&
		t.Price.Decimal().Equal(o.Price.Decimal()) &&
		t.Amount.Decimal().Equal(o.Amount.Decimal()) &&
		t.Fees.Decimal().Equal(o.Fees.Decimal()) &&
		equalESPP(t.ESPP, o.ESPP) && equalRSU(t.RSU, o.RSU)
}

func equalESPP(a, b *ESPPDetails) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.GrantDate == b.GrantDate && a.DiscountPercent.Equal(b.DiscountPercent) && a.MarketPrice.Equal(b.MarketPrice)
}

func equalRSU(a, b *RSUDetails) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.GrantDate == b.GrantDate && a.VestingDate == b.VestingDate &&
		a.VestingPrice.Equal(b.VestingPrice) && a.SharesWithheld.Equal(b.SharesWithheld)
}

// Validate checks the transaction's fields.
//
// It only rejects malformed records, a sell larger than the holding is valid
// here and clamped during replay.
func (t Transaction) Validate() error {
	err := t.validate()
	if err != nil {
		return fmt.Errorf("invalid %s transaction on %v: %w", t.Type, t.Date, err)
	}
	return nil
}

func (t Transaction) validate() error {
	if _, err := ParseTxType(string(t.Type)); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return errors.New("date is missing")
	}
	if t.Asset == "" {
		return errors.New("asset is missing")
	}
	if t.Quantity.IsNegative() {
		return fmt.Errorf("quantity must not be negative, got %s", t.Quantity)
	}
	for _, f := range []struct {
		name string
		m    Money
	}{{"price", t.Price}, {"amount", t.Amount}, {"fees", t.Fees}} {
		name, m := f.name, f.m
		if m.IsNegative() {
			return fmt.Errorf("%s must not be negative, got %s", name, m)
		}
		if !m.Compatible(M(0, t.Currency())) {
			return fmt.Errorf("%s currency %q does not match transaction currency %q", name, m.Currency(), t.Currency())
		}
	}

	switch t.Type {
	case TxBuy, TxTransferIn, TxReinvestment, TxRSUVest, TxSell, TxTransferOut:
		if !t.Quantity.IsPositive() {
			return fmt.Errorf("%s quantity must be positive, got %s", t.Type, t.Quantity)
		}
	case TxESPPPurchase:
		if !t.Quantity.IsPositive() {
			return fmt.Errorf("%s quantity must be positive, got %s", t.Type, t.Quantity)
		}
		if t.ESPP == nil || t.ESPP.GrantDate.IsZero() {
			return errors.New("espp grant date is missing")
		}
		if !t.ESPP.GrantDate.Before(t.Date) {
			return fmt.Errorf("espp grant date %v must be before purchase date %v", t.ESPP.GrantDate, t.Date)
		}
		if d := t.ESPP.DiscountPercent; d.IsNegative() || d.GreaterThanOrEqual(decimal.NewFromInt(100)) {
			return fmt.Errorf("espp discount must be within [0, 100), got %s", d)
		}
	case TxSplit:
		if !t.Quantity.IsPositive() {
			return fmt.Errorf("split ratio must be positive, got %s", t.Quantity)
		}
	case TxDividend, TxInterest, TxFee, TxTax, TxSpinoff, TxMerger:
	}
	return nil
}
