package date

import (
	"fmt"
	"iter"
	"time"
)

// Range represents a range of dates, boundaries included.
type Range struct{ From, To Date }

// NewRange return a well known period
func NewRange(d Date, period Period) Range {
	return Range{From: d.StartOf(period), To: d.EndOf(period)}
}

// Contains return true date is included in the range (boundaries included)
func (r Range) Contains(date Date) bool { return !date.Before(r.From) && !date.After(r.To) }

// Days returns the number of days in the range, boundaries included.
func (r Range) Days() int { return r.To.DaysSince(r.From) + 1 }

// Points returns an iterator over the sample dates of the range at the given
// resolution: From, then one step of resolution after another. To is always
// the last point yielded, even when it does not fall on a step.
func (r Range) Points(resolution Period) iter.Seq[Date] {
	return func(yield func(Date) bool) {
		if r.To.Before(r.From) {
			return
		}
		for i := 0; ; i++ {
			on := step(r.From, resolution, i)
			if !on.Before(r.To) {
				break
			}
			if !yield(on) {
				return
			}
		}
		yield(r.To)
	}
}

// step returns the i-th sample after from. Months are always computed from
// the origin so that clamping on short months does not drift.
func step(from Date, resolution Period, i int) Date {
	switch resolution {
	case Daily:
		return from.Add(i)
	case Weekly:
		return from.Add(7 * i)
	case Monthly:
		return from.AddMonths(i)
	case Quarterly:
		return from.AddMonths(3 * i)
	case Yearly:
		return from.AddYears(i)
	default:
		panic("unknown period")
	}
}

// return the period of this range if it's a standard one.
func (r Range) Period() (p Period, ok bool) {
	switch {
	case r.From == r.To:
		return Daily, true
	case r.From.Weekday() == time.Monday && r.From.EndOf(Weekly) == r.To:
		return Weekly, true
	case r.From.Day() == 1 && r.From.EndOf(Monthly) == r.To:
		return Monthly, true
	case r.From.StartOf(Quarterly) == r.From && r.From.EndOf(Quarterly) == r.To:
		return Quarterly, true
	case r.From.StartOf(Yearly) == r.From && r.From.EndOf(Yearly) == r.To:
		return Yearly, true
	default:
		return Daily, false
	}
}

// Identifier compute a unique identifier for the Range.
// If the period is defined, use a short insighful name
func (r Range) Identifier() string {
	p, ok := r.Period()
	if !ok {
		return fmt.Sprintf("%s_%s", r.From, r.To)
	}

	switch p {
	case Daily:
		return r.From.String()
	case Weekly:
		_, week := r.From.ISOWeek()
		return fmt.Sprintf("%d-W%02d", r.From.Year(), week)
	case Monthly:
		return r.From.Format("2006-01")
	case Quarterly:
		return fmt.Sprintf("%d-Q%d", r.From.Year(), (r.From.Month()-1)/3+1)
	case Yearly:
		return r.From.Format("2006")
	default:
		panic("unknown period")
	}
}

// Name the period range
func (r Range) Name() string {
	p, ok := r.Period()
	if ok {
		return p.String()
	}
	return "special"
}
