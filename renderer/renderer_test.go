package renderer

import (
	"errors"
	"strings"
	"testing"

	"github.com/etnz/valuation"
	"github.com/etnz/valuation/date"
	"github.com/etnz/valuation/tax"
	"github.com/shopspring/decimal"
)

func tx(typ valuation.TxType, on, quantity, amount string) valuation.Transaction {
	return valuation.Transaction{
		ID:        on,
		Portfolio: "p",
		Asset:     "AAPL",
		Type:      typ,
		Date:      date.MustParse(on),
		Quantity:  valuation.Q(quantity),
		Amount:    valuation.M(amount, "USD"),
	}
}

// assertContains checks that every fragment appears in the rendered output.
func assertContains(t *testing.T, got string, fragments ...string) {
	t.Helper()
	for _, f := range fragments {
		if !strings.Contains(got, f) {
			t.Errorf("output does not contain %q:\n%s", f, got)
		}
	}
}

func holding(t *testing.T) valuation.HoldingCalculation {
	t.Helper()
	h, err := valuation.ComputeHolding([]valuation.Transaction{
		tx(valuation.TxBuy, "2024-01-02", "10", "1000"),
		tx(valuation.TxBuy, "2024-02-02", "10", "2000"),
		tx(valuation.TxSell, "2024-03-01", "5", "1000"),
	}, valuation.HoldingOptions{})
	if err != nil {
		t.Fatalf("ComputeHolding() error = %v", err)
	}
	return h
}

func TestHoldingMarkdown(t *testing.T) {
	got := HoldingMarkdown(holding(t))
	assertContains(t, got,
		"# AAPL in p",
		"$2,500.00",  // cost basis
		"~$200.00",   // estimated from the last sale
		"$3,000.00",  // current value
		"+$500.00",   // realized
		"## Open Lots",
		"5 / 10",
		"## Disposals",
		"short",
	)
	if strings.Contains(got, "## Warnings") {
		t.Errorf("HoldingMarkdown() renders an empty warning section:\n%s", got)
	}
}

func TestHoldingsMarkdown(t *testing.T) {
	assertContains(t, HoldingsMarkdown("p", nil), "# Holdings of p", "No holdings.")
	assertContains(t, HoldingsMarkdown("p", []valuation.HoldingCalculation{holding(t)}), "AAPL", "15", "+$500.00 (+20.00%)")
}

func TestLotsMarkdown(t *testing.T) {
	got := LotsMarkdown(holding(t), date.MustParse("2025-01-15"))
	assertContains(t, got, "# Lots of AAPL on 2025-01-15", "2024-01-02", "long", "2025-02-02", "short")

	assertContains(t, DisposalsMarkdown(valuation.HoldingCalculation{Asset: "MSFT"}), "No disposal.")
}

func TestHistoryMarkdown(t *testing.T) {
	usd := func(v string) valuation.Money { return valuation.M(v, "USD") }
	points := []valuation.HistoricalValuePoint{
		{Date: date.MustParse("2024-05-30"), TotalValue: usd("1000")},
		{Date: date.MustParse("2024-05-31"), TotalValue: usd("1100"), Change: usd("100"), HasInterpolatedPrices: true},
		{
			Date: date.MustParse("2024-06-01"), TotalValue: usd("550"), Change: usd("-550"),
			HasInterpolatedPrices: true, Degraded: true,
			Assets: []valuation.AssetValue{{Asset: "MSFT", Err: errors.New("feed down")}},
		},
	}
	got := HistoryMarkdown("p", valuation.Week, points)
	assertContains(t, got, "# History of p (week)", "$1,100.00", "+$100.00", "-$550.00", "## Missing Prices", "MSFT: feed down")

	assertContains(t, HistoryMarkdown("p", valuation.All, nil), "No transaction.")
}

func TestValueMarkdown(t *testing.T) {
	on := date.MustParse("2024-06-01")
	p := valuation.HistoricalValuePoint{
		Date:       on,
		TotalValue: valuation.M("1500", "USD"),
		Assets: []valuation.AssetValue{
			{
				Asset:    "AAPL",
				Quantity: valuation.Q(10),
				Quote:    valuation.Quote{Asset: "AAPL", Date: on, On: date.MustParse("2024-05-31"), Price: valuation.M("150", "USD"), Match: valuation.Before},
				Value:    valuation.M("1500", "USD"),
			},
			{Asset: "MSFT", Quantity: valuation.Q(1), Err: errors.New("no price")},
		},
	}
	assertContains(t, ValueMarkdown("p", p), "# Value of p on 2024-06-01", "2024-05-31 (before)", "no price", "**$1,500.00**")
}

func TestDispositionMarkdown(t *testing.T) {
	s, err := tax.CheckDispositionStatus(date.MustParse("2023-01-01"), date.MustParse("2023-07-01"), date.MustParse("2023-08-01"), decimal.RequireFromString("212.5"))
	if err != nil {
		t.Fatalf("CheckDispositionStatus() error = %v", err)
	}
	assertContains(t, DispositionMarkdown(s), "# ESPP sale on 2023-08-01", "**failed**", "$212.50", "A sale on or after 2025-01-02 would qualify.")
}

func TestTransaction(t *testing.T) {
	tests := []struct {
		tx   valuation.Transaction
		want string
	}{
		{tx(valuation.TxBuy, "2024-01-02", "10", "1000"), "Bought 10 of AAPL for $1,000.00"},
		{tx(valuation.TxSplit, "2024-01-02", "4", "0"), "Split AAPL by 4"},
		{tx(valuation.TxDividend, "2024-01-02", "0", "12.5"), "Dividend of $12.50 for AAPL"},
	}
	for _, tt := range tests {
		if got := Transaction(tt.tx); got != tt.want {
			t.Errorf("Transaction(%s) = %q, want %q", tt.tx.Type, got, tt.want)
		}
	}
	assertContains(t, TransactionsMarkdown("Ledger", []valuation.Transaction{tests[0].tx}), "# Ledger", "Bought 10 of AAPL")
}

func TestHTML(t *testing.T) {
	got, err := HTML(HoldingMarkdown(holding(t)))
	if err != nil {
		t.Fatalf("HTML() error = %v", err)
	}
	assertContains(t, got, "<h1>AAPL in p</h1>", "<table>", "<th")
}
