package valuation

import (
	"context"
	"testing"
	"time"

	"github.com/etnz/valuation/date"
	"github.com/etnz/valuation/tax"
	"github.com/shopspring/decimal"
)

// newTestEngine returns an engine over a ledger and a market, with today fixed.
func newTestEngine(t *testing.T, txs ...Transaction) (*Engine, *Ledger, *HoldingCache) {
	t.Helper()
	l := NewLedger()
	l.Append(txs...)
	m := NewMarketData()
	m.Declare("AAPL", "USD")
	m.Append("AAPL", date.MustParse("2024-01-01"), M(100, ""))
	m.Append("AAPL", date.MustParse("2024-06-28"), M(150, ""))
	hc := NewHoldingCache()
	e := NewEngine(l, m, hc, Options{Method: FIFO, Debounce: time.Second})
	e.today = func() date.Date { return date.MustParse("2024-07-01") }
	return e, l, hc
}

func TestEngine_RecomputeHolding(t *testing.T) {
	ctx := context.Background()
	e, l, hc := newTestEngine(t, seq(txn(TxBuy, "2024-01-02", "AAPL", "10", "1000"), "b", 0))

	h, err := e.RecomputeHolding(ctx, "p", "AAPL")
	if err != nil {
		t.Fatalf("RecomputeHolding() error = %v", err)
	}
	// the market price of today, not the last transaction price.
	if h.PriceEstimated || !h.CurrentValue.Equal(USD(1500)) {
		t.Errorf("CurrentValue = %v (estimated %v), want 1500", h.CurrentValue, h.PriceEstimated)
	}
	if _, ok := hc.Holding(Pair{"p", "AAPL"}); !ok {
		t.Fatalf("holding was not saved")
	}

	l.Append(txn(TxSell, "2024-03-01", "AAPL", "10", "1200"))
	if _, err := e.RecomputeHolding(ctx, "p", "AAPL"); err != nil {
		t.Fatalf("RecomputeHolding() error = %v", err)
	}
	if hc.Len() != 0 {
		t.Errorf("an empty holding is still stored")
	}
}

func TestEngine_RecomputeHolding_ForeignPrice(t *testing.T) {
	ctx := context.Background()
	l := NewLedger()
	l.Append(txn(TxBuy, "2024-01-02", "SAP", "10", "1000"))
	m := NewMarketData()
	m.Declare("SAP", "EUR")
	m.Append("SAP", date.MustParse("2024-06-28"), M(180, ""))
	hc := NewHoldingCache()
	e := NewEngine(l, m, hc, Options{})
	e.today = func() date.Date { return date.MustParse("2024-07-01") }

	// a price quoted in EUR cannot value a USD holding: it is estimated instead.
	h, err := e.RecomputeHolding(ctx, "p", "SAP")
	if err != nil {
		t.Fatalf("RecomputeHolding() error = %v", err)
	}
	if !h.PriceEstimated || !h.CurrentPrice.Equal(USD(100)) || !h.Quantity.Equal(Q(10)) {
		t.Errorf("holding = %v %v (estimated %v), want 10 at an estimated $100", h.Quantity, h.CurrentPrice, h.PriceEstimated)
	}
	if _, ok := hc.Holding(Pair{"p", "SAP"}); !ok {
		t.Errorf("holding was not saved")
	}

	all, err := e.Holdings(ctx, "p", false)
	if err != nil || len(all) != 1 {
		t.Errorf("Holdings() = %v, %v, want SAP", all, err)
	}
}

func TestEngine_TransactionChanged(t *testing.T) {
	ctx := context.Background()
	e, l, hc := newTestEngine(t)
	aapl := Pair{"p", "AAPL"}

	// a burst of writes, then a single recompute.
	for _, q := range []string{"1", "2", "3"} {
		l.Append(txn(TxBuy, "2024-01-02", "AAPL", q, "100"))
		e.TransactionChanged(aapl)
	}
	if n := len(e.Scheduler().Pending()); n != 1 {
		t.Fatalf("Pending() has %d pairs, want 1", n)
	}
	ran, err := e.Scheduler().RunDue(ctx, time.Now().Add(time.Minute))
	if err != nil || len(ran) != 1 {
		t.Fatalf("RunDue() = %v, %v", ran, err)
	}
	h, ok := hc.Holding(aapl)
	if !ok || !h.Quantity.Equal(Q(6)) {
		t.Errorf("stored holding = %v, %v, want quantity 6", h.Quantity, ok)
	}
}

func TestEngine_Holdings(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t,
		txn(TxBuy, "2024-01-02", "AAPL", "10", "1000"),
		txn(TxBuy, "2024-01-02", "MSFT", "1", "300"),
		txn(TxSell, "2024-02-02", "MSFT", "1", "350"),
	)
	open, err := e.Holdings(ctx, "p", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(open) != 1 || open[0].Asset != "AAPL" {
		t.Errorf("Holdings(open) = %v, want AAPL only", open)
	}
	all, err := e.Holdings(ctx, "p", true)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || all[1].Asset != "MSFT" || !all[1].RealizedGain.Equal(USD(50)) {
		t.Errorf("Holdings(all) = %v, want AAPL and MSFT", all)
	}
	// MSFT has no market price: the last transaction price is used.
	if !all[1].PriceEstimated {
		t.Errorf("MSFT price should be estimated")
	}
}

func TestEngine_Values(t *testing.T) {
	ctx := context.Background()
	e, _, _ := newTestEngine(t, txn(TxBuy, "2024-06-27", "AAPL", "10", "1000"))

	points, err := e.HistoricalValues(ctx, "p", Week, AutoResolution)
	if err != nil {
		t.Fatal(err)
	}
	// the window is clamped to the first transaction.
	if len(points) != 5 || points[0].Date != date.MustParse("2024-06-27") {
		t.Fatalf("HistoricalValues() = %d points from %v, want 5 from 2024-06-27", len(points), points[0].Date)
	}
	if got := points[len(points)-1].TotalValue; !got.Equal(USD(1500)) {
		t.Errorf("last value = %v, want 1500", got)
	}

	v, err := e.ValueAtDate(ctx, "p", date.MustParse("2024-06-27"))
	if err != nil || v == nil || !v.Equal(USD(1000)) {
		t.Errorf("ValueAtDate() = %v, %v, want 1000", v, err)
	}
	v, err = e.ValueAtDate(ctx, "nobody", date.MustParse("2024-06-27"))
	if err != nil || v != nil {
		t.Errorf("ValueAtDate(nobody) = %v, %v, want nil", v, err)
	}

	p, ok, err := e.PointAt(ctx, "p", date.MustParse("2024-06-27"))
	if err != nil || !ok {
		t.Fatalf("PointAt() = %v, %v", ok, err)
	}
	if len(p.Assets) != 1 || p.Assets[0].Quote.Match != Before || !p.HasInterpolatedPrices {
		t.Errorf("PointAt() = %+v, want AAPL priced before the day", p)
	}
}

func TestEngine_Tax(t *testing.T) {
	e, _, _ := newTestEngine(t)
	p, err := e.ClassifyHoldingPeriod(date.MustParse("2024-01-01"), date.MustParse("2025-01-01"))
	if err != nil || p != tax.Long {
		t.Errorf("ClassifyHoldingPeriod() = %v, %v, want long", p, err)
	}
	s, err := e.CheckDispositionStatus(date.MustParse("2023-01-01"), date.MustParse("2023-07-01"), date.MustParse("2025-01-02"), decimal.Zero)
	if err != nil || s.Disqualifying() {
		t.Errorf("CheckDispositionStatus() = %v, %v, want qualifying", s.Reason, err)
	}
}
