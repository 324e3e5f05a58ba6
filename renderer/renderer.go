// Package renderer turns generated schedules and quotes into markdown
// reports.
package renderer

import (
	"bytes"
	"fmt"

	"github.com/genticani/loan"
	md "github.com/nao1215/markdown"
)

// ScheduleMarkdown renders the full repayment schedule as a markdown
// document.
func ScheduleMarkdown(m *loan.ScheduleModel) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Repayment Schedule")

	doc.Table(md.TableSet{
		Header: []string{
			md.Bold("Total Repayment"),
			md.Bold(m.TotalRepayment.String()),
		},
		Rows: [][]string{
			{"Principal", m.TotalPrincipal.String()},
			{"Interest", m.TotalInterest.String()},
			{"Fees", m.TotalFees.String()},
			{"Penalties", m.TotalPenalties.String()},
			{"Term in Days", fmt.Sprintf("%d", m.TermInDays)},
		},
	})

	if disbursements := m.Disbursements(); len(disbursements) > 0 {
		doc.H2("Disbursements")
		table := md.TableSet{
			Header: []string{"Date", "Amount", "Charges Due"},
		}
		for _, d := range disbursements {
			table.Rows = append(table.Rows, []string{
				d.Date.String(),
				d.Amount.String(),
				d.ChargesDue.String(),
			})
		}
		doc.Table(table)
	}

	if repayments := m.Repayments(); len(repayments) > 0 {
		doc.H2("Installments")
		table := md.TableSet{
			Header: []string{"#", "Due", "Principal", "Interest", "Fee", "Penalty", "Total", "Outstanding"},
		}
		for _, p := range repayments {
			number := fmt.Sprintf("%d", p.Number)
			if p.Recalculated {
				number += "*"
			}
			table.Rows = append(table.Rows, []string{
				number,
				p.Due.String(),
				p.Principal.String(),
				p.Interest.String(),
				p.Fee.String(),
				p.Penalty.String(),
				p.Total().String(),
				p.OutstandingAfter.String(),
			})
		}
		doc.Table(table)
		if hasRecalculated(repayments) {
			doc.PlainText("`*` installment produced by interest recalculation")
		}
	}

	return doc.String()
}

// QuoteMarkdown renders a prepayment quote as a markdown document.
func QuoteMarkdown(q *loan.Quote) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Prepayment Quote for %s", q.Date))
	doc.Table(md.TableSet{
		Header: []string{
			md.Bold("Total to Close"),
			md.Bold(q.Total().String()),
		},
		Rows: [][]string{
			{"Principal", q.Principal.String()},
			{"Interest", q.Interest.String()},
			{"Fees", q.Fee.String()},
			{"Penalties", q.Penalty.String()},
		},
	})

	return doc.String()
}

func hasRecalculated(repayments []*loan.RepaymentPeriod) bool {
	for _, p := range repayments {
		if p.Recalculated {
			return true
		}
	}
	return false
}
