package valuation

import (
	"github.com/etnz/valuation/date"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// USD is a helper for test to create usd money from const
func USD[T int | string](v T) Money {
	switch x := any(v).(type) {
	case int:
		return M(x, "USD")
	default:
		return M(x.(string), "USD")
	}
}

// txn is a helper for test to create a transaction of the "p" portfolio,
// amount is in USD.
func txn(typ TxType, on, asset, quantity, amount string) Transaction {
	return Transaction{
		Portfolio: "p",
		Asset:     asset,
		Type:      typ,
		Date:      date.MustParse(on),
		Quantity:  Q(quantity),
		Amount:    USD(amount),
	}
}

// seq returns tx with its ID and Seq set.
func seq(tx Transaction, id string, n int64) Transaction {
	tx.ID, tx.Seq = id, n
	return tx
}

// cmpOptions compares the decimal based types by value.
var cmpOptions = cmp.Options{
	cmp.Comparer(func(a, b Quantity) bool { return a.Equal(b) }),
	cmp.Comparer(func(a, b Money) bool { return a.Equal(b) }),
	cmp.Comparer(func(a, b Percent) bool { return a.Equal(b) }),
	cmp.Comparer(func(a, b date.Date) bool { return a == b }),
	cmpopts.EquateErrors(),
}
