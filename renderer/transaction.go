package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/valuation"
	md "github.com/nao1215/markdown"
)

// Transaction renders a transaction to a one line description.
func Transaction(tx valuation.Transaction) string {
	switch tx.Type {
	case valuation.TxBuy:
		return fmt.Sprintf("Bought %s of %s for %s", tx.Quantity, tx.Asset, tx.Total())
	case valuation.TxSell:
		return fmt.Sprintf("Sold %s of %s for %s", tx.Quantity, tx.Asset, tx.Total())
	case valuation.TxTransferIn:
		return fmt.Sprintf("Transferred in %s of %s at a cost of %s", tx.Quantity, tx.Asset, tx.Total())
	case valuation.TxTransferOut:
		return fmt.Sprintf("Transferred out %s of %s", tx.Quantity, tx.Asset)
	case valuation.TxSplit:
		return fmt.Sprintf("Split %s by %s", tx.Asset, tx.Quantity)
	case valuation.TxDividend:
		return fmt.Sprintf("Dividend of %s for %s", tx.Total(), tx.Asset)
	case valuation.TxInterest:
		return fmt.Sprintf("Interest of %s for %s", tx.Total(), tx.Asset)
	case valuation.TxFee:
		return fmt.Sprintf("Fee of %s on %s", tx.Total(), tx.Asset)
	case valuation.TxTax:
		return fmt.Sprintf("Tax of %s on %s", tx.Total(), tx.Asset)
	case valuation.TxReinvestment:
		return fmt.Sprintf("Reinvested %s into %s of %s", tx.Total(), tx.Quantity, tx.Asset)
	case valuation.TxESPPPurchase:
		return fmt.Sprintf("Purchased %s of %s for %s through ESPP", tx.Quantity, tx.Asset, tx.Total())
	case valuation.TxRSUVest:
		return fmt.Sprintf("Vested %s of %s", tx.Quantity, tx.Asset)
	default:
		return fmt.Sprintf("%s on %s", tx.Type, tx.Asset)
	}
}

// TransactionsMarkdown renders a list of transactions in replay order.
func TransactionsMarkdown(title string, txs []valuation.Transaction) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1(title)
	if len(txs) == 0 {
		doc.PlainText("No transaction.")
		return doc.String()
	}
	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft, md.AlignLeft, md.AlignLeft},
		Header:    []string{"Date", "Portfolio", "Description", "ID"},
		Rows:      [][]string{},
	}
	for _, tx := range txs {
		table.Rows = append(table.Rows, []string{tx.Date.String(), tx.Portfolio, Transaction(tx), tx.ID})
	}
	doc.Table(table)
	return doc.String()
}
