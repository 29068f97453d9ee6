package valuation

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/etnz/valuation/date"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// DefaultPortfolio is the portfolio of ledger lines that do not name one.
const DefaultPortfolio = "default"

// amountCmd reads a single amount and its currency.
type amountCmd struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

func (a amountCmd) Money() Money { return M(a.Amount, a.Currency) }

func (a *amountCmd) unmarshal(data []byte) error { return json.Unmarshal(data, a) }

// jtx is the JSONL representation of a Transaction. All amounts share the
// same currency.
type jtx struct {
	ID        string          `json:"id"`
	Portfolio string          `json:"portfolio"`
	Asset     string          `json:"asset"`
	Type      TxType          `json:"type"`
	Date      date.Date       `json:"date"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Amount    decimal.Decimal `json:"amount"`
	Fees      decimal.Decimal `json:"fees"`
	Currency  string          `json:"currency"`
	Seq       int64           `json:"seq"`
	Memo      string          `json:"memo"`
	ESPP      *ESPPDetails    `json:"espp"`
	RSU       *RSUDetails     `json:"rsu"`
}

// MarshalJSON implements the json.Marshaler interface for Transaction.
// Zero fields are omitted.
func (t Transaction) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Optional("id", t.ID)
	w.Optional("portfolio", t.Portfolio)
	w.Append("asset", t.Asset)
	w.Append("type", t.Type)
	w.Append("date", t.Date)
	w.Optional("quantity", t.Quantity.Decimal())
	w.Optional("price", t.Price.Decimal())
	w.Optional("amount", t.Amount.Decimal())
	w.Optional("fees", t.Fees.Decimal())
	w.Optional("currency", t.Currency())
	w.Optional("seq", t.Seq)
	w.Optional("memo", t.Memo)
	w.Optional("espp", t.ESPP)
	w.Optional("rsu", t.RSU)
	return w.MarshalJSON()
}

// UnmarshalJSON implements the json.Unmarshaler interface for Transaction.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var j jtx
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	typ, err := ParseTxType(string(j.Type))
	if err != nil {
		return err
	}
	*t = Transaction{
		ID:        j.ID,
		Portfolio: j.Portfolio,
		Asset:     j.Asset,
		Type:      typ,
		Date:      j.Date,
		Quantity:  Q(j.Quantity),
		Price:     M(j.Price, j.Currency),
		Amount:    M(j.Amount, j.Currency),
		Fees:      M(j.Fees, j.Currency),
		Seq:       j.Seq,
		Memo:      j.Memo,
		ESPP:      j.ESPP,
		RSU:       j.RSU,
	}
	return nil
}

// DecodeLedger decodes transactions from a stream of JSONL data and returns
// a sorted Ledger.
//
// Lines without an id get a random one, lines without a portfolio belong to
// DefaultPortfolio, and lines without a seq are sequenced in reading order.
func DecodeLedger(r io.Reader) (*Ledger, error) {
	ledger := NewLedger()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for i := 1; scanner.Scan(); i++ {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue // Skip empty lines
		}
		var tx Transaction
		if err := json.Unmarshal(line, &tx); err != nil {
			return nil, fmt.Errorf("line %d: cannot decode transaction %q: %w", i, string(line), err)
		}
		if tx.ID == "" {
			tx.ID = uuid.NewString()
		}
		if tx.Portfolio == "" {
			tx.Portfolio = DefaultPortfolio
		}
		if err := tx.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", i, err)
		}
		ledger.Append(tx)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading from input: %w", err)
	}
	return ledger, nil
}

// EncodeTransaction marshals a single transaction to JSON and writes it to the
// writer, followed by a newline, in JSONL format.
func EncodeTransaction(w io.Writer, tx Transaction) error {
	data, err := json.Marshal(tx)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write transaction: %w", err)
	}
	return nil
}

// EncodeLedger persists the ledger to an io.Writer in JSONL format, in replay order.
func EncodeLedger(w io.Writer, ledger *Ledger) error {
	for _, tx := range ledger.Transactions() {
		if err := EncodeTransaction(w, tx); err != nil {
			return err
		}
	}
	return nil
}
