package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/valuation"
	"github.com/etnz/valuation/date"
	md "github.com/nao1215/markdown"
)

// LotsMarkdown renders the open lots of a holding, classified on a given day.
func LotsMarkdown(h valuation.HoldingCalculation, on date.Date) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1(fmt.Sprintf("Lots of %s on %s", h.Asset, on))
	lots := h.OpenLots()
	if len(lots) == 0 {
		doc.PlainText("No open lot.")
		return doc.String()
	}
	doc.Table(lotsTable(lots, on))
	return doc.String()
}

func lotsTable(lots []valuation.Lot, on date.Date) md.TableSet {
	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignLeft,
			md.AlignLeft,
		},
		Header: []string{"Purchased", "Type", "Remaining", "Price", "Cost", "Term", "Long-Term On"},
		Rows:   [][]string{},
	}
	for _, lot := range lots {
		term := "-"
		if t, err := lot.HoldingPeriod(on); err == nil {
			term = t.String()
		}
		table.Rows = append(table.Rows, []string{
			lot.PurchaseDate.String(),
			string(lot.Type),
			fmt.Sprintf("%s / %s", lot.Remaining, lot.Quantity),
			lot.PurchasePrice.String(),
			lot.RemainingCost().String(),
			term,
			lot.LongTermDate().String(),
		})
	}
	return table
}

// DisposalsMarkdown renders the realized disposals of a holding, lot by lot.
func DisposalsMarkdown(h valuation.HoldingCalculation) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1(fmt.Sprintf("Disposals of %s", h.Asset))
	if len(h.Disposals) == 0 {
		doc.PlainText("No disposal.")
		return doc.String()
	}
	doc.Table(disposalsTable(h.Disposals))
	return doc.String()
}

func disposalsTable(disposals []valuation.Disposal) md.TableSet {
	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignLeft,
		},
		Header: []string{"Sold", "Lot", "Quantity", "Proceeds", "Cost", "Gain", "Term"},
		Rows:   [][]string{},
	}
	for _, d := range disposals {
		for _, s := range d.Slices {
			term := s.Term.String()
			if s.Disqualifying {
				term += ", disqualifying"
			}
			table.Rows = append(table.Rows, []string{
				d.Date.String(),
				s.PurchaseDate.String(),
				s.Quantity.String(),
				s.Proceeds.String(),
				s.Cost.String(),
				s.Gain.SignedString(),
				term,
			})
		}
		table.Rows = append(table.Rows, []string{
			md.Bold(d.Date.String()),
			md.Bold(string(d.Type)),
			md.Bold(d.Quantity.String()),
			md.Bold(d.Proceeds.String()),
			md.Bold(d.CostBasis.String()),
			md.Bold(d.Gain.SignedString()),
			"",
		})
	}
	return table
}
