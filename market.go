package valuation

import (
	"context"
	"iter"
	"sync"

	"github.com/etnz/valuation/date"
)

// MarketData holds the price history of a set of assets. It implements PriceSource.
type MarketData struct {
	mu         sync.RWMutex
	currencies map[string]string // asset currency
	prices     map[string]*date.History[Money]
}

// NewMarketData returns a new empty market data collection.
func NewMarketData() *MarketData {
	return &MarketData{
		currencies: make(map[string]string),
		prices:     make(map[string]*date.History[Money]),
	}
}

// Declare sets the currency of an asset's prices.
func (m *MarketData) Declare(asset, currency string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currencies[asset] = currency
}

// Currency returns the declared currency of an asset.
func (m *MarketData) Currency(asset string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currencies[asset]
}

// Has reports whether the asset has at least one price.
func (m *MarketData) Has(asset string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.prices[asset]
	return ok
}

// Append records the price of an asset on a day, replacing any previous one.
// A price without currency takes the declared currency of the asset.
func (m *MarketData) Append(asset string, on date.Date, price Money) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.prices[asset]
	if !ok {
		h = new(date.History[Money])
		m.prices[asset] = h
	}
	h.Append(on, price.In(m.currencies[asset]))
}

// Get returns the price recorded on a day.
func (m *MarketData) Get(asset string, on date.Date) (Money, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.prices[asset]
	if !ok {
		return Money{}, false
	}
	return h.Get(on)
}

// Assets returns the sorted list of assets with prices or a declared currency.
func (m *MarketData) Assets() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	set := make(map[string]struct{})
	for a := range m.prices {
		set[a] = struct{}{}
	}
	for a := range m.currencies {
		set[a] = struct{}{}
	}
	return sortedKeys(set)
}

// Prices iterates over the prices of an asset in chronological order.
func (m *MarketData) Prices(asset string) iter.Seq2[date.Date, Money] {
	return func(yield func(date.Date, Money) bool) {
		for _, p := range m.series(asset) {
			if !yield(p.Date, p.Price) {
				return
			}
		}
	}
}

func (m *MarketData) series(asset string) []PricePoint {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.prices[asset]
	if !ok {
		return nil
	}
	points := make([]PricePoint, 0, h.Len())
	for on, p := range h.Values() {
		points = append(points, PricePoint{Date: on, Price: p})
	}
	return points
}

// PriceSeries implements PriceSource.
func (m *MarketData) PriceSeries(_ context.Context, asset string) ([]PricePoint, error) {
	return m.series(asset), nil
}
