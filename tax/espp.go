package tax

import (
	"fmt"

	"github.com/etnz/valuation/date"
	"github.com/shopspring/decimal"
)

// ESPP holding requirements, in calendar years.
const (
	GrantHoldingYears    = 2
	PurchaseHoldingYears = 1
)

// Reason tells which ESPP holding requirement a sale failed, if any.
type Reason int

const (
	Qualifying Reason = iota
	GrantFailed
	PurchaseFailed
	BothFailed
)

func (r Reason) String() string {
	switch r {
	case Qualifying:
		return "qualifying"
	case GrantFailed:
		return "grant-requirement-failed"
	case PurchaseFailed:
		return "purchase-requirement-failed"
	case BothFailed:
		return "both-requirements-failed"
	default:
		return "unknown"
	}
}

// DispositionStatus is the detailed evaluation of an ESPP sale.
type DispositionStatus struct {
	GrantDate         date.Date
	PurchaseDate      date.Date
	SellDate          date.Date
	GrantThreshold    date.Date // grant anniversary, the sale must come after it
	PurchaseThreshold date.Date // purchase anniversary, the sale must come after it
	Reason            Reason
	BargainElement    decimal.Decimal
}

// Disqualifying reports whether the sale is a disqualifying disposition.
func (s DispositionStatus) Disqualifying() bool { return s.Reason != Qualifying }

// QualifyingDate is the first day a sale of that lot qualifies.
func (s DispositionStatus) QualifyingDate() date.Date {
	if s.GrantThreshold.After(s.PurchaseThreshold) {
		return s.GrantThreshold.Add(1)
	}
	return s.PurchaseThreshold.Add(1)
}

// Message explains the tax consequence of the sale.
func (s DispositionStatus) Message() string {
	bargain := s.BargainElement.StringFixed(2)
	switch s.Reason {
	case Qualifying:
		return fmt.Sprintf("Qualifying disposition: held more than %d years from grant and more than %d year from purchase. "+
			"Ordinary income is limited to the lesser of the actual gain and the offering discount; the rest is long-term capital gain.",
			GrantHoldingYears, PurchaseHoldingYears)
	case GrantFailed:
		return fmt.Sprintf("Disqualifying disposition: sold on or before %v (%d years from grant). "+
			"The bargain element of $%s is taxed as ordinary income.", s.GrantThreshold, GrantHoldingYears, bargain)
	case PurchaseFailed:
		return fmt.Sprintf("Disqualifying disposition: sold on or before %v (%d year from purchase). "+
			"The bargain element of $%s is taxed as ordinary income.", s.PurchaseThreshold, PurchaseHoldingYears, bargain)
	case BothFailed:
		return fmt.Sprintf("Disqualifying disposition: sold on or before %v (%d years from grant) and on or before %v (%d year from purchase). "+
			"The bargain element of $%s is taxed as ordinary income.",
			s.GrantThreshold, GrantHoldingYears, s.PurchaseThreshold, PurchaseHoldingYears, bargain)
	default:
		return "unknown disposition status"
	}
}

// CheckDispositionStatus evaluates an ESPP sale against both holding requirements.
//
// A sale qualifies only if it happens after the second anniversary of the
// grant and after the first anniversary of the purchase: a sale on the
// anniversary itself is still disqualifying. Years are added on the
// calendar, so a leap day moves the threshold date. A sale on the purchase
// day is always disqualifying.
func CheckDispositionStatus(grant, purchase, sell date.Date, bargainElement decimal.Decimal) (DispositionStatus, error) {
	if grant.IsZero() {
		return DispositionStatus{}, fmt.Errorf("grant date: %w", ErrInvalidDate)
	}
	if purchase.IsZero() {
		return DispositionStatus{}, fmt.Errorf("purchase date: %w", ErrInvalidDate)
	}
	if sell.IsZero() {
		return DispositionStatus{}, fmt.Errorf("sell date: %w", ErrInvalidDate)
	}
	if !grant.Before(purchase) {
		return DispositionStatus{}, fmt.Errorf("grant date %v must be before purchase date %v: %w", grant, purchase, ErrInvalidGrantDate)
	}
	if sell.Before(purchase) {
		return DispositionStatus{}, fmt.Errorf("sell date %v is before purchase date %v: %w", sell, purchase, ErrInvalidSellDate)
	}

	s := DispositionStatus{
		GrantDate:         grant,
		PurchaseDate:      purchase,
		SellDate:          sell,
		GrantThreshold:    grant.AddYears(GrantHoldingYears),
		PurchaseThreshold: purchase.AddYears(PurchaseHoldingYears),
		BargainElement:    bargainElement,
	}
	grantOK := sell.After(s.GrantThreshold)
	purchaseOK := sell.After(s.PurchaseThreshold)
	switch {
	case !grantOK && !purchaseOK:
		s.Reason = BothFailed
	case !grantOK:
		s.Reason = GrantFailed
	case !purchaseOK:
		s.Reason = PurchaseFailed
	default:
		s.Reason = Qualifying
	}
	return s, nil
}

// IsDisqualifyingDisposition reports whether selling ESPP shares on sell is a disqualifying disposition.
func IsDisqualifyingDisposition(grant, purchase, sell date.Date) (bool, error) {
	s, err := CheckDispositionStatus(grant, purchase, sell, decimal.Zero)
	if err != nil {
		return false, err
	}
	return s.Disqualifying(), nil
}

// BargainElement returns the discount captured on an ESPP purchase:
// (market price - purchase price) * quantity, never negative.
func BargainElement(marketPrice, purchasePrice, quantity decimal.Decimal) decimal.Decimal {
	b := marketPrice.Sub(purchasePrice).Mul(quantity)
	if b.IsNegative() {
		return decimal.Zero
	}
	return b
}

// CheckDispositionStatusString is CheckDispositionStatus on dates in their textual form.
func CheckDispositionStatusString(grant, purchase, sell string, bargainElement decimal.Decimal) (DispositionStatus, error) {
	g, err := parse("grant", grant)
	if err != nil {
		return DispositionStatus{}, err
	}
	p, err := parse("purchase", purchase)
	if err != nil {
		return DispositionStatus{}, err
	}
	s, err := parse("sell", sell)
	if err != nil {
		return DispositionStatus{}, err
	}
	return CheckDispositionStatus(g, p, s, bargainElement)
}
