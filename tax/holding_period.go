// Package tax classifies tax lots by holding period and evaluates the ESPP
// qualifying-disposition rules.
//
// All functions are pure: they only look at calendar dates. Days are counted
// calendar-exact, a year is never assumed to be 365 days long.
package tax

import (
	"errors"
	"fmt"

	"github.com/etnz/valuation/date"
)

var (
	// ErrInvalidDate is returned when a date is missing or cannot be parsed.
	ErrInvalidDate = errors.New("invalid date")
	// ErrInvalidDateRange is returned when a reference date comes before the purchase date.
	ErrInvalidDateRange = errors.New("invalid date range")
	// ErrInvalidGrantDate is returned when an ESPP grant date is not strictly before the purchase date.
	ErrInvalidGrantDate = errors.New("invalid grant date")
	// ErrInvalidSellDate is returned when an ESPP sell date is before the purchase date.
	// It also matches ErrInvalidDateRange.
	ErrInvalidSellDate = fmt.Errorf("invalid sell date: %w", ErrInvalidDateRange)
)

// LongTermDays is the number of days a lot must be held before it stops
// being short-term. A lot held exactly this many days is still short-term.
const LongTermDays = 365

// HoldingPeriod is the tax character of a lot.
type HoldingPeriod int

const (
	Short HoldingPeriod = iota
	Long
)

func (p HoldingPeriod) String() string {
	switch p {
	case Short:
		return "short"
	case Long:
		return "long"
	default:
		return "unknown"
	}
}

// ParseHoldingPeriod parses "short" or "long".
func ParseHoldingPeriod(s string) (HoldingPeriod, error) {
	switch s {
	case "short":
		return Short, nil
	case "long":
		return Long, nil
	default:
		return Short, fmt.Errorf("unknown holding period: %q", s)
	}
}

// DaysHeld returns the exact number of calendar days between purchase and reference.
func DaysHeld(purchase, reference date.Date) (int, error) {
	if purchase.IsZero() {
		return 0, fmt.Errorf("purchase date: %w", ErrInvalidDate)
	}
	if reference.IsZero() {
		return 0, fmt.Errorf("reference date: %w", ErrInvalidDate)
	}
	if reference.Before(purchase) {
		return 0, fmt.Errorf("reference date %v is before purchase date %v: %w", reference, purchase, ErrInvalidDateRange)
	}
	return reference.DaysSince(purchase), nil
}

// Classify returns Short when the lot was held 365 days or less on the
// reference date, and Long otherwise.
//
// Leap years do not move the boundary, they only change which calendar
// day is 365 days after the purchase.
func Classify(purchase, reference date.Date) (HoldingPeriod, error) {
	days, err := DaysHeld(purchase, reference)
	if err != nil {
		return Short, err
	}
	if days > LongTermDays {
		return Long, nil
	}
	return Short, nil
}

// ClassifyString is Classify on dates in their textual form.
func ClassifyString(purchase, reference string) (HoldingPeriod, error) {
	p, err := parse("purchase", purchase)
	if err != nil {
		return Short, err
	}
	r, err := parse("reference", reference)
	if err != nil {
		return Short, err
	}
	return Classify(p, r)
}

// LongTermDate returns the first day on which a lot bought on purchase is long-term.
func LongTermDate(purchase date.Date) date.Date {
	return purchase.Add(LongTermDays + 1)
}

// DaysUntilLongTerm returns how many days remain, on the given day, before a
// lot bought on purchase becomes long-term. It is zero once the lot is long-term.
func DaysUntilLongTerm(purchase, on date.Date) int {
	n := LongTermDate(purchase).DaysSince(on)
	if n < 0 {
		return 0
	}
	return n
}

func parse(name, s string) (date.Date, error) {
	d, err := date.Parse(s)
	if err != nil {
		return date.Date{}, fmt.Errorf("%s date %q: %w", name, s, ErrInvalidDate)
	}
	return d, nil
}
