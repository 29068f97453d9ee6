package valuation

import (
	"context"
	"testing"

	"github.com/etnz/valuation/date"
	"github.com/google/go-cmp/cmp"
)

func ids(txs []Transaction) []string {
	var out []string
	for _, tx := range txs {
		out = append(out, tx.ID)
	}
	return out
}

func TestLedger_ReplayOrder(t *testing.T) {
	l := NewLedger()
	l.Append(
		seq(txn(TxSell, "2024-01-03", "AAPL", "1", "100"), "c", 0),
		seq(txn(TxBuy, "2024-01-02", "AAPL", "1", "100"), "a", 0),
		seq(txn(TxBuy, "2024-01-03", "AAPL", "1", "100"), "b", 0),
	)
	// same day: "c" was appended first so it has the lower Seq.
	if diff := cmp.Diff([]string{"a", "c", "b"}, ids(l.Collect())); diff != "" {
		t.Errorf("replay order mismatch (-want +got):\n%s", diff)
	}
	if tx, _ := l.Get("b"); tx.Seq != 3 {
		t.Errorf("Seq of b = %d, want 3", tx.Seq)
	}

	// an explicit Seq wins over insertion order.
	l.Append(seq(txn(TxBuy, "2024-01-03", "AAPL", "1", "100"), "d", 1))
	if diff := cmp.Diff([]string{"a", "d", "c", "b"}, ids(l.Collect())); diff != "" {
		t.Errorf("replay order mismatch (-want +got):\n%s", diff)
	}
	if got, want := l.OldestTransactionDate(), date.MustParse("2024-01-02"); got != want {
		t.Errorf("OldestTransactionDate() = %v, want %v", got, want)
	}
	if got, want := l.NewestTransactionDate(), date.MustParse("2024-01-03"); got != want {
		t.Errorf("NewestTransactionDate() = %v, want %v", got, want)
	}
}

func TestLedger_UpsertRemove(t *testing.T) {
	l := NewLedger()
	l.Append(seq(txn(TxBuy, "2024-01-02", "AAPL", "1", "100"), "a", 0))

	if l.Upsert(seq(txn(TxBuy, "2024-01-02", "AAPL", "2", "200"), "a", 0)) != true {
		t.Errorf("Upsert(existing) = false, want true")
	}
	tx, ok := l.Get("a")
	if !ok || !tx.Quantity.Equal(Q(2)) || tx.Seq != 1 {
		t.Errorf("Get(a) = %v %v, want quantity 2 and Seq 1", tx, ok)
	}
	if l.Upsert(seq(txn(TxSell, "2024-01-05", "AAPL", "1", "100"), "b", 0)) {
		t.Errorf("Upsert(new) = true, want false")
	}
	if l.Len() != 2 {
		t.Errorf("Len() = %d, want 2", l.Len())
	}
	if _, ok := l.Remove("a"); !ok {
		t.Errorf("Remove(a) not found")
	}
	if _, ok := l.Remove("a"); ok {
		t.Errorf("Remove(a) twice found it")
	}
	if _, ok := l.Get(""); ok {
		t.Errorf("Get(\"\") found a transaction")
	}
	if l.Len() != 1 {
		t.Errorf("Len() = %d, want 1", l.Len())
	}
}

func TestLedger_Filters(t *testing.T) {
	l := NewLedger()
	other := txn(TxBuy, "2024-01-04", "AAPL", "1", "100")
	other.Portfolio = "q"
	l.Append(
		seq(txn(TxBuy, "2024-01-02", "AAPL", "1", "100"), "a", 0),
		seq(txn(TxBuy, "2024-01-03", "MSFT", "1", "100"), "m", 0),
		seq(other, "q", 0),
		seq(txn(TxSell, "2024-02-01", "AAPL", "1", "100"), "s", 0),
	)

	if diff := cmp.Diff([]string{"p", "q"}, l.Portfolios()); diff != "" {
		t.Errorf("Portfolios() mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"AAPL", "MSFT"}, l.Assets("p")); diff != "" {
		t.Errorf("Assets(p) mismatch (-want +got):\n%s", diff)
	}

	got, err := l.AssetTransactions(context.Background(), "p", "AAPL")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a", "s"}, ids(got)); diff != "" {
		t.Errorf("AssetTransactions() mismatch (-want +got):\n%s", diff)
	}
	got = l.Collect(ByPortfolio("p"), OnOrBefore(date.MustParse("2024-01-31")))
	if diff := cmp.Diff([]string{"a", "m"}, ids(got)); diff != "" {
		t.Errorf("Collect() mismatch (-want +got):\n%s", diff)
	}

	// iteration can stop early.
	n := 0
	for range l.Transactions() {
		n++
		break
	}
	if n != 1 {
		t.Errorf("iteration did not stop")
	}
}

func TestSortTransactions_Stable(t *testing.T) {
	txs := []Transaction{
		seq(txn(TxBuy, "2024-01-02", "AAPL", "1", "100"), "x", 0),
		seq(txn(TxBuy, "2024-01-01", "AAPL", "1", "100"), "y", 0),
		seq(txn(TxBuy, "2024-01-02", "AAPL", "1", "100"), "z", 0),
	}
	SortTransactions(txs)
	if diff := cmp.Diff([]string{"y", "x", "z"}, ids(txs)); diff != "" {
		t.Errorf("SortTransactions() mismatch (-want +got):\n%s", diff)
	}
}
