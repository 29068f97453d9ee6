package valuation

import (
	"context"
	"fmt"
	"slices"

	"github.com/etnz/valuation/common"
	"github.com/etnz/valuation/date"
)

// Window is the span of a historical valuation, ending today.
type Window string

const (
	Today   Window = "today"
	Week    Window = "week"
	Month   Window = "month"
	Quarter Window = "quarter"
	Year    Window = "year"
	All     Window = "all"
)

// Windows lists all known windows.
var Windows = []Window{Today, Week, Month, Quarter, Year, All}

// ParseWindow parses a window name.
func ParseWindow(s string) (Window, error) {
	for _, w := range Windows {
		if string(w) == s {
			return w, nil
		}
	}
	return "", fmt.Errorf("unknown period %q, want one of %v", s, Windows)
}

// DefaultResolution returns the sampling resolution of the window: daily up
// to a quarter, weekly for a year, monthly for all.
func (w Window) DefaultResolution() date.Period {
	switch w {
	case Year:
		return date.Weekly
	case All:
		return date.Monthly
	default:
		return date.Daily
	}
}

// Range returns the dates covered by the window. oldest is the earliest
// transaction date: the range never starts before it.
func (w Window) Range(today, oldest date.Date) date.Range {
	var from date.Date
	switch w {
	case Today:
		from = today
	case Week:
		from = today.Add(-7)
	case Month:
		from = today.AddMonths(-1)
	case Quarter:
		from = today.AddMonths(-3)
	case Year:
		from = today.AddYears(-1)
	default:
		from = oldest
	}
	if from.Before(oldest) {
		from = oldest
	}
	return date.Range{From: from, To: today}
}

// AutoResolution asks HistoricalValues to use the window's default resolution.
const AutoResolution date.Period = -1

// AssetValue is the contribution of one asset to a HistoricalValuePoint.
type AssetValue struct {
	Asset    string
	Quantity Quantity
	Quote    Quote
	Value    Money
	Err      error // set when the asset could not be valued, Value is then zero
}

// HistoricalValuePoint is the value of a portfolio on a sampled day.
type HistoricalValuePoint struct {
	Date                  date.Date
	TotalValue            Money
	Change                Money // TotalValue minus the previous point's, zero for the first point
	HasInterpolatedPrices bool  // some price was not recorded on Date, or is missing
	Degraded              bool  // some asset could not be valued and is left out of TotalValue
	Assets                []AssetValue
}

// Reconstructor computes the value of a set of transactions in the past.
type Reconstructor struct {
	Prices   PriceSource
	Currency string // reporting currency, defaults to the transactions' currency
	Logger   *common.Logger
}

// HistoricalValues samples the value of txs over a window ending today.
//
// A price that cannot be found for an asset on a day does not fail the call:
// the asset is left out of that point, which is marked Degraded and
// HasInterpolatedPrices. Points before the earliest transaction are never
// produced, and an empty transaction set yields an empty series.
func (r Reconstructor) HistoricalValues(ctx context.Context, txs []Transaction, window Window, resolution date.Period, today date.Date) ([]HistoricalValuePoint, error) {
	j, err := NewJournal(txs)
	if err != nil {
		return nil, err
	}
	if j.Empty() {
		return nil, nil
	}
	if resolution == AutoResolution {
		resolution = window.DefaultResolution()
	}
	if !resolution.Valid() {
		return nil, fmt.Errorf("invalid resolution %d", int(resolution))
	}

	run := r.newRun(j)
	c := j.cursor()
	var points []HistoricalValuePoint
	for on := range window.Range(today, j.Oldest()).Points(resolution) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := run.value(ctx, on, c.advance(on))
		if n := len(points); n > 0 {
			p.Change = p.TotalValue.Sub(points[n-1].TotalValue)
		}
		points = append(points, p)
	}
	return points, nil
}

// ValueAtDate returns the value of txs on a day.
//
// It returns nil when txs is empty, and zero for a day before the first transaction.
func (r Reconstructor) ValueAtDate(ctx context.Context, txs []Transaction, on date.Date) (*Money, error) {
	p, ok, err := r.PointAt(ctx, txs, on)
	if err != nil || !ok {
		return nil, err
	}
	return &p.TotalValue, nil
}

// PointAt returns the detailed value of txs on a day. It reports false when txs is empty.
func (r Reconstructor) PointAt(ctx context.Context, txs []Transaction, on date.Date) (HistoricalValuePoint, bool, error) {
	j, err := NewJournal(txs)
	if err != nil {
		return HistoricalValuePoint{}, false, err
	}
	if j.Empty() {
		return HistoricalValuePoint{}, false, nil
	}
	run := r.newRun(j)
	return run.value(ctx, on, j.cursor().advance(on)), true, nil
}

// run holds the state of a single reconstruction.
type run struct {
	lookup   *Lookup
	currency string // set by the first priced quote when unknown, then fixed for the run
	log      *common.Logger
}

func (r Reconstructor) newRun(j *Journal) *run {
	cur := r.Currency
	if cur == "" {
		cur = j.currency
	}
	return &run{
		lookup:   NewLookup(r.Prices),
		currency: cur,
		log:      r.Logger.OrSilent(),
	}
}

// value values the positions held on a day.
func (r *run) value(ctx context.Context, on date.Date, held positions) HistoricalValuePoint {
	p := HistoricalValuePoint{Date: on, TotalValue: M(0, r.currency), Change: M(0, r.currency)}

	assets := make([]string, 0, len(held))
	for asset, q := range held {
		if q.IsPositive() {
			assets = append(assets, asset)
		}
	}
	slices.Sort(assets)

	for _, asset := range assets {
		av := AssetValue{Asset: asset, Quantity: held[asset], Value: M(0, r.currency)}
		q, err := r.lookup.PriceAt(ctx, asset, on)
		if err == nil && r.currency == "" && q.Price.Currency() != "" {
			r.currency = q.Price.Currency()
			p.TotalValue, p.Change = p.TotalValue.In(r.currency), p.Change.In(r.currency)
		}
		switch {
		case err != nil:
			av.Err = err
		case q.Price.IsNegative():
			av.Err = fmt.Errorf("%s on %v: negative price %s", asset, q.On, q.Price)
		case !q.Price.Compatible(M(0, r.currency)):
			av.Err = fmt.Errorf("%s on %v: price currency %s does not match %s", asset, q.On, q.Price.Currency(), r.currency)
		}
		av.Quote = q
		if av.Err != nil {
			r.log.Warn().Str("asset", asset).Str("date", on.String()).Err(av.Err).Msg("asset left out of valuation")
			p.Degraded = true
			p.HasInterpolatedPrices = true
			p.Assets = append(p.Assets, av)
			continue
		}
		if q.Interpolated() {
			p.HasInterpolatedPrices = true
		}
		av.Value = q.Price.Mul(av.Quantity)
		p.TotalValue = p.TotalValue.Add(av.Value)
		p.Assets = append(p.Assets, av)
	}
	return p
}
