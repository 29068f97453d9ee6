package valuation

import (
	"context"
	"sync"
)

// TransactionStore provides the transactions to replay.
type TransactionStore interface {
	// AssetTransactions returns the transactions of an asset in a portfolio.
	AssetTransactions(ctx context.Context, portfolio, asset string) ([]Transaction, error)
	// PortfolioTransactions returns all the transactions of a portfolio.
	PortfolioTransactions(ctx context.Context, portfolio string) ([]Transaction, error)
}

// HoldingStore persists computed holdings.
type HoldingStore interface {
	SaveHolding(ctx context.Context, h HoldingCalculation) error
	DeleteHolding(ctx context.Context, portfolio, asset string) error
}

// HoldingCache is an in-memory HoldingStore.
type HoldingCache struct {
	mu       sync.RWMutex
	holdings map[Pair]HoldingCalculation
}

// NewHoldingCache returns an empty HoldingCache.
func NewHoldingCache() *HoldingCache {
	return &HoldingCache{holdings: make(map[Pair]HoldingCalculation)}
}

func (c *HoldingCache) SaveHolding(_ context.Context, h HoldingCalculation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.holdings[Pair{h.Portfolio, h.Asset}] = h
	return nil
}

func (c *HoldingCache) DeleteHolding(_ context.Context, portfolio, asset string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.holdings, Pair{portfolio, asset})
	return nil
}

// Holding returns the stored holding of a pair.
func (c *HoldingCache) Holding(pair Pair) (HoldingCalculation, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h, ok := c.holdings[pair]
	return h, ok
}

// Len returns the number of stored holdings.
func (c *HoldingCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.holdings)
}
