package valuation

import "github.com/shopspring/decimal"

// Percent is an exact percentage, 12.5 means 12.5%.
type Percent struct {
	value decimal.Decimal
}

func (p Percent) Decimal() decimal.Decimal { return p.value }
func (p Percent) Equal(q Percent) bool     { return p.value.Equal(q.value) }

func (p Percent) String() string {
	return p.value.StringFixed(2) + "%"
}

func (p Percent) SignedString() string {
	res := p.value.StringFixed(2)
	if res == "0.00" || res == "-0.00" {
		return "-"
	}
	if !p.value.IsNegative() {
		res = "+" + res
	}
	return res + "%"
}

func (p Percent) MarshalJSON() ([]byte, error) { return p.value.MarshalJSON() }
