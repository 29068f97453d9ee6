package valuation

import "fmt"

// LotMethod defines which open lots a sale consumes first.
//
// Whatever the method, the aggregate cost basis of a holding is reduced by
// the fraction of the quantity sold. The method only decides which lots
// are marked sold, and therefore the per-lot holding periods and the
// realized cost reported on disposals.
type LotMethod int

const (
	// FIFO (First-In, First-Out) consumes the oldest lots first.
	FIFO LotMethod = iota
	// LIFO (Last-In, First-Out) consumes the most recent lots first.
	LIFO
	// HIFO (Highest-In, First-Out) consumes the lots with the highest purchase price first.
	HIFO
)

func (m LotMethod) String() string {
	switch m {
	case FIFO:
		return "fifo"
	case LIFO:
		return "lifo"
	case HIFO:
		return "hifo"
	default:
		return "unknown"
	}
}

// ParseLotMethod parses a string into a LotMethod. The empty string is FIFO.
func ParseLotMethod(s string) (LotMethod, error) {
	switch s {
	case "fifo", "":
		return FIFO, nil
	case "lifo":
		return LIFO, nil
	case "hifo":
		return HIFO, nil
	default:
		return FIFO, fmt.Errorf("unknown lot method: %q", s)
	}
}
