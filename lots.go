package valuation

import (
	"slices"

	"github.com/etnz/valuation/date"
	"github.com/etnz/valuation/tax"
)

// LotType is the origin of a tax lot.
type LotType string

const (
	StandardLot LotType = "standard"
	ESPPLot     LotType = "espp"
	RSULot      LotType = "rsu"
)

// Lot represents a single acquisition of an asset, used for holding periods
// and realized cost.
//
// Splits rescale Quantity, Sold, Remaining and PurchasePrice, never Cost.
type Lot struct {
	ID            string // ID of the acquiring transaction
	Type          LotType
	PurchaseDate  date.Date
	Quantity      Quantity
	PurchasePrice Money // per unit
	Cost          Money // total cost of the lot
	Sold          Quantity
	Remaining     Quantity

	// ESPP lots.
	GrantDate      date.Date
	BargainElement Money

	// RSU lots.
	VestingDate  date.Date
	VestingPrice Money
}

// HoldingPeriod classifies the lot on a given day.
func (l Lot) HoldingPeriod(on date.Date) (tax.HoldingPeriod, error) {
	return tax.Classify(l.PurchaseDate, on)
}

// LongTermDate is the first day the lot is long-term.
func (l Lot) LongTermDate() date.Date { return tax.LongTermDate(l.PurchaseDate) }

// RemainingCost returns the share of Cost still held.
func (l Lot) RemainingCost() Money {
	if l.Quantity.IsZero() {
		return l.Cost
	}
	return l.Cost.Mul(l.Remaining).Div(l.Quantity)
}

// LotSlice is the part of a lot consumed by a disposal.
type LotSlice struct {
	LotID         string
	LotType       LotType
	PurchaseDate  date.Date
	Quantity      Quantity
	Cost          Money // share of the lot cost
	Proceeds      Money // share of the disposal proceeds
	Gain          Money
	Term          tax.HoldingPeriod
	Disqualifying bool // ESPP lots only
}

type lots []Lot

// remaining returns the total quantity still held across lots.
func (l lots) remaining() Quantity {
	var total Quantity
	for _, lot := range l {
		total = total.Add(lot.Remaining)
	}
	return total
}

// order returns the indices of open lots in the order the method consumes them.
func (l lots) order(method LotMethod) []int {
	var idx []int
	for i, lot := range l {
		if lot.Remaining.IsPositive() {
			idx = append(idx, i)
		}
	}
	switch method {
	case LIFO:
		slices.Reverse(idx)
	case HIFO:
		slices.SortStableFunc(idx, func(a, b int) int {
			return l[b].PurchasePrice.Decimal().Cmp(l[a].PurchasePrice.Decimal())
		})
	}
	return idx
}

// consume marks quantity as sold using the lot method and returns the slices sold.
// quantity must not exceed l.remaining().
func (l lots) consume(quantity Quantity, method LotMethod, on date.Date) []LotSlice {
	var sold []LotSlice
	for _, i := range l.order(method) {
		if !quantity.IsPositive() {
			break
		}
		lot := &l[i]
		take := lot.Remaining.Min(quantity)
		cost := lot.Cost.Mul(take).Div(lot.Quantity)
		lot.Sold = lot.Sold.Add(take)
		lot.Remaining = lot.Quantity.Sub(lot.Sold)
		quantity = quantity.Sub(take)

		term, _ := lot.HoldingPeriod(on)
		s := LotSlice{
			LotID:        lot.ID,
			LotType:      lot.Type,
			PurchaseDate: lot.PurchaseDate,
			Quantity:     take,
			Cost:         cost,
			Term:         term,
		}
		if lot.Type == ESPPLot {
			s.Disqualifying, _ = tax.IsDisqualifyingDisposition(lot.GrantDate, lot.PurchaseDate, on)
		}
		sold = append(sold, s)
	}
	return sold
}

// split applies a split ratio to every lot.
func (l lots) split(ratio Quantity) {
	for i := range l {
		lot := &l[i]
		lot.Quantity = lot.Quantity.Mul(ratio)
		lot.Sold = lot.Sold.Mul(ratio)
		lot.Remaining = lot.Remaining.Mul(ratio)
		lot.PurchasePrice = lot.PurchasePrice.Div(ratio)
	}
}
