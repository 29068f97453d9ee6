package valuation

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/etnz/valuation/date"
	"github.com/patrickmn/go-cache"
)

// PricePoint is a known price of an asset on a day.
type PricePoint struct {
	Date  date.Date
	Price Money
}

// PriceSource provides the historical price series of assets.
type PriceSource interface {
	// PriceSeries returns all known prices of an asset, in any order.
	PriceSeries(ctx context.Context, asset string) ([]PricePoint, error)
}

// PriceSourceFunc adapts a function to a PriceSource.
type PriceSourceFunc func(ctx context.Context, asset string) ([]PricePoint, error)

func (f PriceSourceFunc) PriceSeries(ctx context.Context, asset string) ([]PricePoint, error) {
	return f(ctx, asset)
}

// ErrNoPrice is returned when an asset has no price at all.
var ErrNoPrice = errors.New("no price")

// Match tells how a quote relates to the requested day.
type Match int

const (
	// Exact is a price recorded on the requested day.
	Exact Match = iota
	// Before is the latest price recorded before the requested day.
	Before
	// After is the earliest price recorded after the requested day, used
	// when nothing is known on or before it.
	After
)

func (m Match) String() string {
	switch m {
	case Exact:
		return "exact"
	case Before:
		return "before"
	case After:
		return "after"
	default:
		return "unknown"
	}
}

// Quote is the answer of a price lookup.
type Quote struct {
	Asset string
	Date  date.Date // requested day
	On    date.Date // day the price was recorded
	Price Money
	Match Match
}

// Interpolated reports whether the quote is not an exact match.
func (q Quote) Interpolated() bool { return q.Match != Exact }

// Lookup resolves prices from a PriceSource.
//
// A Lookup caches every series and quote it reads. Its lifetime is meant to
// be a single computation: create a new one for each run so that it sees the
// source's then-current data.
type Lookup struct {
	source PriceSource
	series *cache.Cache // asset -> *date.History[Money]
	quotes *cache.Cache // asset@day -> Quote
	reads  atomic.Int64 // number of series read from the source
}

// NewLookup returns a Lookup with empty caches.
func NewLookup(source PriceSource) *Lookup {
	return &Lookup{
		source: source,
		series: cache.New(cache.NoExpiration, 0),
		quotes: cache.New(cache.NoExpiration, 0),
	}
}

// PriceAt returns the best known price of asset on day.
//
// It prefers a price recorded on the day, then the latest one before it,
// then the earliest one after it. The Match field tells which one was used.
func (l *Lookup) PriceAt(ctx context.Context, asset string, on date.Date) (Quote, error) {
	key := asset + "@" + on.String()
	if q, ok := l.quotes.Get(key); ok {
		return q.(Quote), nil
	}

	h, err := l.history(ctx, asset)
	if err != nil {
		return Quote{}, err
	}

	q := Quote{Asset: asset, Date: on}
	if price, day, ok := h.ValueAsOf(on); ok {
		q.Price, q.On, q.Match = price, day, Before
		if day == on {
			q.Match = Exact
		}
	} else if price, day, ok := h.ValueAfter(on); ok {
		q.Price, q.On, q.Match = price, day, After
	} else {
		return Quote{}, fmt.Errorf("%s on %v: %w", asset, on, ErrNoPrice)
	}
	l.quotes.Set(key, q, cache.NoExpiration)
	return q, nil
}

// history returns the cached price history of an asset. Failures are not cached.
func (l *Lookup) history(ctx context.Context, asset string) (*date.History[Money], error) {
	if h, ok := l.series.Get(asset); ok {
		return h.(*date.History[Money]), nil
	}
	if l.source == nil {
		return nil, fmt.Errorf("%s: %w", asset, ErrNoPrice)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	points, err := l.source.PriceSeries(ctx, asset)
	l.reads.Add(1)
	if err != nil {
		return nil, fmt.Errorf("cannot read price series of %s: %w", asset, err)
	}
	h := new(date.History[Money])
	for _, p := range points {
		h.Append(p.Date, p.Price)
	}
	l.series.Set(asset, h, cache.NoExpiration)
	return h, nil
}

// Reads returns how many series were read from the source.
func (l *Lookup) Reads() int { return int(l.reads.Load()) }
