package valuation

import (
	"context"
	"iter"
	"slices"
	"sort"
	"sync"

	"github.com/etnz/valuation/date"
)

// Ledger represents a list of transactions, for any number of portfolios and assets.
//
// In a Ledger transactions are always in replay order: by date, then by Seq,
// then by insertion order. Ledger is safe for concurrent use.
type Ledger struct {
	mu           sync.RWMutex
	transactions []Transaction
	seq          int64 // last assigned sequence
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{transactions: make([]Transaction, 0)}
}

// Append appends transactions to this ledger and maintains the replay order.
//
// Transactions without a Seq get the next one available.
func (l *Ledger) Append(txs ...Transaction) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, tx := range txs {
		l.transactions = append(l.transactions, l.sequence(tx))
	}
	l.stableSort()
}

// Upsert replaces the transaction with the same ID, or appends it.
// It reports whether a transaction was replaced.
func (l *Ledger) Upsert(tx Transaction) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.index(tx.ID)
	if i < 0 {
		l.transactions = append(l.transactions, l.sequence(tx))
		l.stableSort()
		return false
	}
	if tx.Seq == 0 {
		tx.Seq = l.transactions[i].Seq
	}
	l.transactions[i] = tx
	l.stableSort()
	return true
}

// Remove deletes the transaction with that ID and returns it.
func (l *Ledger) Remove(id string) (Transaction, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.index(id)
	if i < 0 {
		return Transaction{}, false
	}
	tx := l.transactions[i]
	l.transactions = slices.Delete(l.transactions, i, i+1)
	return tx, true
}

// Get returns the transaction with that ID.
func (l *Ledger) Get(id string) (Transaction, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i := l.index(id); i >= 0 {
		return l.transactions[i], true
	}
	return Transaction{}, false
}

func (l *Ledger) index(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(l.transactions, func(tx Transaction) bool { return tx.ID == id })
}

func (l *Ledger) sequence(tx Transaction) Transaction {
	if tx.Seq == 0 {
		l.seq++
		tx.Seq = l.seq
	} else if tx.Seq > l.seq {
		l.seq = tx.Seq
	}
	return tx
}

// Len returns the number of transactions.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.transactions)
}

// Transactions returns an iterator over the transactions accepted by all filters, in replay order.
func (l *Ledger) Transactions(filters ...func(Transaction) bool) iter.Seq2[int, Transaction] {
	l.mu.RLock()
	txs := slices.Clone(l.transactions)
	l.mu.RUnlock()
	return func(yield func(int, Transaction) bool) {
		for i, tx := range txs {
			if !accept(tx, filters) {
				continue
			}
			if !yield(i, tx) {
				return
			}
		}
	}
}

func accept(tx Transaction, filters []func(Transaction) bool) bool {
	for _, filter := range filters {
		if !filter(tx) {
			return false
		}
	}
	return true
}

// ByPortfolio filters transactions of a portfolio.
func ByPortfolio(portfolio string) func(Transaction) bool {
	return func(tx Transaction) bool { return tx.Portfolio == portfolio }
}

// ByAsset filters transactions on an asset.
func ByAsset(asset string) func(Transaction) bool {
	return func(tx Transaction) bool { return tx.Asset == asset }
}

// OnOrBefore filters transactions dated on or before a day.
func OnOrBefore(on date.Date) func(Transaction) bool {
	return func(tx Transaction) bool { return !tx.Date.After(on) }
}

// Collect returns the transactions accepted by all filters, in replay order.
func (l *Ledger) Collect(filters ...func(Transaction) bool) []Transaction {
	var txs []Transaction
	for _, tx := range l.Transactions(filters...) {
		txs = append(txs, tx)
	}
	return txs
}

// Portfolios returns the sorted list of portfolios in the ledger.
func (l *Ledger) Portfolios() []string {
	set := make(map[string]struct{})
	for _, tx := range l.Transactions() {
		set[tx.Portfolio] = struct{}{}
	}
	return sortedKeys(set)
}

// Assets returns the sorted list of assets traded in a portfolio.
func (l *Ledger) Assets(portfolio string) []string {
	set := make(map[string]struct{})
	for _, tx := range l.Transactions(ByPortfolio(portfolio)) {
		set[tx.Asset] = struct{}{}
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// OldestTransactionDate returns the date of the earliest transaction in the ledger,
// or the zero date if the ledger is empty.
func (l *Ledger) OldestTransactionDate() date.Date {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.transactions) == 0 {
		return date.Date{}
	}
	return l.transactions[0].Date
}

// NewestTransactionDate returns the date of the latest transaction in the ledger,
// or the zero date if the ledger is empty.
func (l *Ledger) NewestTransactionDate() date.Date {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.transactions) == 0 {
		return date.Date{}
	}
	return l.transactions[len(l.transactions)-1].Date
}

// AssetTransactions implements TransactionStore.
func (l *Ledger) AssetTransactions(_ context.Context, portfolio, asset string) ([]Transaction, error) {
	return l.Collect(ByPortfolio(portfolio), ByAsset(asset)), nil
}

// PortfolioTransactions implements TransactionStore.
func (l *Ledger) PortfolioTransactions(_ context.Context, portfolio string) ([]Transaction, error) {
	return l.Collect(ByPortfolio(portfolio)), nil
}

// stableSort sorts the ledger in replay order. The caller must hold the lock.
func (l *Ledger) stableSort() { SortTransactions(l.transactions) }

// SortTransactions sorts transactions in replay order: by date, then by Seq.
// The sort is stable, transactions with the same date and Seq keep their relative order.
func SortTransactions(txs []Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if c := txs[i].Date.Compare(txs[j].Date); c != 0 {
			return c < 0
		}
		return txs[i].Seq < txs[j].Seq
	})
}
