package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/valuation"
	md "github.com/nao1215/markdown"
)

// HistoryMarkdown renders a value series. Points with interpolated prices are
// marked with a "~", degraded points with a "!".
func HistoryMarkdown(portfolio string, window valuation.Window, points []valuation.HistoricalValuePoint) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1(fmt.Sprintf("History of %s (%s)", portfolio, window))

	if len(points) == 0 {
		doc.PlainText("No transaction.")
		return doc.String()
	}

	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignLeft,
		},
		Header: []string{"Date", "Value", "Change", ""},
		Rows:   [][]string{},
	}
	var degraded []string
	for _, p := range points {
		flag := ""
		if p.HasInterpolatedPrices {
			flag = "~"
		}
		if p.Degraded {
			flag = "!"
			for _, a := range p.Assets {
				if a.Err != nil {
					degraded = append(degraded, fmt.Sprintf("%s: %s: %v", p.Date, a.Asset, a.Err))
				}
			}
		}
		table.Rows = append(table.Rows, []string{
			p.Date.String(),
			p.TotalValue.String(),
			p.Change.SignedString(),
			flag,
		})
	}
	doc.Table(table)

	if len(degraded) > 0 {
		doc.H2("Missing Prices")
		doc.OrderedList(degraded...)
	}
	return doc.String()
}

// ValueMarkdown renders the detailed value of a portfolio on a day.
func ValueMarkdown(portfolio string, p valuation.HistoricalValuePoint) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1(fmt.Sprintf("Value of %s on %s", portfolio, p.Date))

	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignLeft,
			md.AlignRight,
		},
		Header: []string{"Asset", "Quantity", "Price", "Priced On", "Value"},
		Rows:   [][]string{},
	}
	for _, a := range p.Assets {
		if a.Err != nil {
			table.Rows = append(table.Rows, []string{a.Asset, a.Quantity.String(), "-", a.Err.Error(), "-"})
			continue
		}
		table.Rows = append(table.Rows, []string{
			a.Asset,
			a.Quantity.String(),
			a.Quote.Price.String(),
			fmt.Sprintf("%s (%s)", a.Quote.On, a.Quote.Match),
			a.Value.String(),
		})
	}
	table.Rows = append(table.Rows, []string{md.Bold("Total"), "", "", "", md.Bold(p.TotalValue.String())})
	doc.Table(table)
	return doc.String()
}
