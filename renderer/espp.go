package renderer

import (
	"bytes"
	"fmt"

	"github.com/etnz/valuation/tax"
	md "github.com/nao1215/markdown"
)

// DispositionMarkdown renders the evaluation of an ESPP sale.
func DispositionMarkdown(s tax.DispositionStatus) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1(fmt.Sprintf("ESPP sale on %s", s.SellDate))

	check := func(ok bool) string {
		if ok {
			return "met"
		}
		return md.Bold("failed")
	}
	grantOK := s.Reason == tax.Qualifying || s.Reason == tax.PurchaseFailed
	purchaseOK := s.Reason == tax.Qualifying || s.Reason == tax.GrantFailed
	table := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignLeft, md.AlignLeft, md.AlignLeft},
		Header:    []string{"Requirement", "From", "Sell After", "Status"},
		Rows: [][]string{
			{fmt.Sprintf("%d years from grant", tax.GrantHoldingYears), s.GrantDate.String(), s.GrantThreshold.String(), check(grantOK)},
			{fmt.Sprintf("%d year from purchase", tax.PurchaseHoldingYears), s.PurchaseDate.String(), s.PurchaseThreshold.String(), check(purchaseOK)},
		},
	}
	doc.Table(table)
	doc.PlainText(s.Message())
	if s.Disqualifying() {
		doc.PlainText(fmt.Sprintf("A sale on or after %s would qualify.", s.QualifyingDate()))
	}
	return doc.String()
}
