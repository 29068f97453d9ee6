package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/valuation"
	md "github.com/nao1215/markdown"
)

// HoldingsMarkdown renders the holdings of a portfolio as a single table.
// Estimated prices are marked with a "~".
func HoldingsMarkdown(portfolio string, holdings []valuation.HoldingCalculation) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1(fmt.Sprintf("Holdings of %s", portfolio))

	if len(holdings) == 0 {
		doc.PlainText("No holdings.")
		return doc.String()
	}

	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
		},
		Header: []string{"Asset", "Quantity", "Avg. Cost", "Cost Basis", "Price", "Value", "Unrealized"},
		Rows:   [][]string{},
	}
	for _, h := range holdings {
		table.Rows = append(table.Rows, []string{
			h.Asset,
			h.Quantity.String(),
			h.AverageCost.String(),
			h.CostBasis.String(),
			price(h),
			h.CurrentValue.String(),
			fmt.Sprintf("%s (%s)", h.UnrealizedGain.SignedString(), h.UnrealizedGainPercent.SignedString()),
		})
	}
	doc.Table(table)
	return doc.String()
}

func price(h valuation.HoldingCalculation) string {
	if h.PriceEstimated {
		return "~" + h.CurrentPrice.String()
	}
	return h.CurrentPrice.String()
}

// HoldingMarkdown renders a single holding with its open lots, its disposals
// and its warnings.
func HoldingMarkdown(h valuation.HoldingCalculation) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1(fmt.Sprintf("%s in %s", h.Asset, h.Portfolio))

	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header:    []string{"", h.Currency},
		Rows: [][]string{
			{"Quantity", h.Quantity.String()},
			{"Cost Basis", h.CostBasis.String()},
			{"Average Cost", h.AverageCost.String()},
			{"Current Price", price(h)},
			{"Current Value", h.CurrentValue.String()},
			{"Unrealized Gain", fmt.Sprintf("%s (%s)", h.UnrealizedGain.SignedString(), h.UnrealizedGainPercent.SignedString())},
			{"Realized Gain", h.RealizedGain.SignedString()},
			{"Income", h.Income.String()},
			{md.Bold("Last Updated"), md.Bold(h.LastUpdated.String())},
		},
	}
	doc.Table(table)

	if lots := h.OpenLots(); len(lots) > 0 {
		doc.H2("Open Lots")
		doc.Table(lotsTable(lots, h.LastUpdated))
	}
	if len(h.Disposals) > 0 {
		doc.H2("Disposals")
		doc.Table(disposalsTable(h.Disposals))
	}
	if len(h.Warnings) > 0 {
		doc.H2("Warnings")
		warnings := make([]string, 0, len(h.Warnings))
		for _, w := range h.Warnings {
			warnings = append(warnings, w.String())
		}
		doc.OrderedList(warnings...)
	}
	return doc.String()
}
