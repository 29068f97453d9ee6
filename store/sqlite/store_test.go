package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/etnz/valuation"
	"github.com/etnz/valuation/common"
	"github.com/etnz/valuation/date"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Test helpers ---

// newTestStore opens a store in a temp directory.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "db", "valuation.db"), common.NewLogger("error"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func usd(v string) valuation.Money { return valuation.M(v, "USD") }

func buy(on, asset, quantity, amount string) valuation.Transaction {
	return valuation.Transaction{
		Portfolio: "p",
		Asset:     asset,
		Type:      valuation.TxBuy,
		Date:      date.MustParse(on),
		Quantity:  valuation.Q(quantity),
		Amount:    usd(amount),
	}
}

func TestStore_Transactions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	late, err := s.AddTransaction(ctx, buy("2024-03-01", "AAPL", "1", "180"))
	require.NoError(t, err)
	assert.NotEmpty(t, late.ID)
	assert.Equal(t, int64(1), late.Seq)

	early, err := s.AddTransaction(ctx, buy("2024-01-02", "AAPL", "10", "1850.25"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), early.Seq)

	espp := buy("2024-06-30", "ACME", "12", "0")
	espp.Type = valuation.TxESPPPurchase
	espp.Price = usd("42.5")
	espp.ESPP = &valuation.ESPPDetails{GrantDate: date.MustParse("2024-01-01"), DiscountPercent: decimal.NewFromInt(15)}
	_, err = s.AddTransaction(ctx, espp)
	require.NoError(t, err)

	txs, err := s.AssetTransactions(ctx, "p", "AAPL")
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, early.ID, txs[0].ID, "replay order is by date")
	assert.True(t, txs[0].Equal(early), "stored %+v, want %+v", txs[0], early)

	all, err := s.PortfolioTransactions(ctx, "p")
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.NotNil(t, all[2].ESPP)
	assert.Equal(t, date.MustParse("2024-01-01"), all[2].ESPP.GrantDate)

	pairs, err := s.Pairs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []valuation.Pair{{Portfolio: "p", Asset: "AAPL"}, {Portfolio: "p", Asset: "ACME"}}, pairs)

	// replacing keeps the sequence.
	early.Quantity = valuation.Q(11)
	early.Seq = 0
	updated, err := s.AddTransaction(ctx, early)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Seq)

	pair, err := s.DeleteTransaction(ctx, late.ID)
	require.NoError(t, err)
	assert.Equal(t, valuation.Pair{Portfolio: "p", Asset: "AAPL"}, pair)
	_, err = s.DeleteTransaction(ctx, late.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.AddTransaction(ctx, valuation.Transaction{Type: valuation.TxBuy})
	assert.Error(t, err, "an invalid transaction is rejected")
}

func TestStore_Holdings(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	h, err := valuation.ComputeHolding([]valuation.Transaction{
		buy("2024-01-02", "AAPL", "10", "1000"),
		buy("2024-02-02", "AAPL", "10", "2000"),
	}, valuation.HoldingOptions{})
	require.NoError(t, err)
	require.NoError(t, s.SaveHolding(ctx, h))

	got, err := s.Holding(ctx, "p", "AAPL")
	require.NoError(t, err)
	assert.True(t, got.Quantity.Equal(valuation.Q(20)))
	assert.True(t, got.CostBasis.Equal(usd("3000")), "CostBasis = %v", got.CostBasis)
	assert.True(t, got.AverageCost.Equal(usd("150")))
	assert.True(t, got.PriceEstimated)
	assert.Equal(t, date.MustParse("2024-02-02"), got.LastUpdated)
	require.Len(t, got.Lots, 2)
	assert.True(t, got.Lots[1].PurchasePrice.Equal(usd("200")))
	assert.Equal(t, valuation.StandardLot, got.Lots[1].Type)

	// saving again replaces the lots.
	h.Lots = h.Lots[:1]
	require.NoError(t, s.SaveHolding(ctx, h))
	got, err = s.Holding(ctx, "p", "AAPL")
	require.NoError(t, err)
	assert.Len(t, got.Lots, 1)

	require.NoError(t, s.DeleteHolding(ctx, "p", "AAPL"))
	_, err = s.Holding(ctx, "p", "AAPL")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_Prices(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	m := valuation.NewMarketData()
	m.Declare("AAPL", "USD")
	m.Append("AAPL", date.MustParse("2024-01-03"), valuation.M("184.25", ""))
	m.Append("AAPL", date.MustParse("2024-01-02"), valuation.M("185.64", ""))
	n, err := s.ImportMarket(ctx, m)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// a day is replaced, not duplicated.
	require.NoError(t, s.SavePrice(ctx, "AAPL", date.MustParse("2024-01-03"), usd("184.3")))

	points, err := s.PriceSeries(ctx, "AAPL")
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, date.MustParse("2024-01-02"), points[0].Date)
	assert.True(t, points[1].Price.Equal(usd("184.3")), "price = %v", points[1].Price)

	none, err := s.PriceSeries(ctx, "MSFT")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestStore_Engine(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	_, err := s.AddTransaction(ctx, buy("2024-01-02", "AAPL", "10", "1000"))
	require.NoError(t, err)
	require.NoError(t, s.SavePrice(ctx, "AAPL", date.MustParse("2024-01-02"), usd("120")))

	e := valuation.NewEngine(s, s, s, valuation.Options{Debounce: time.Millisecond})
	h, err := e.RecomputeHolding(ctx, "p", "AAPL")
	require.NoError(t, err)
	assert.False(t, h.PriceEstimated)
	assert.True(t, h.CurrentValue.Equal(usd("1200")), "CurrentValue = %v", h.CurrentValue)

	stored, err := s.Holding(ctx, "p", "AAPL")
	require.NoError(t, err)
	assert.True(t, stored.CurrentPrice.Equal(usd("120")))

	v, err := e.ValueAtDate(ctx, "p", date.MustParse("2024-01-05"))
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.True(t, v.Equal(usd("1200")))
}
