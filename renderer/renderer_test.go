package renderer

import (
	"strings"
	"testing"
	"time"

	"github.com/genticani/loan"
)

func scheduleFixture() *loan.ScheduleModel {
	return &loan.ScheduleModel{
		Currency: "EUR",
		Periods: []loan.Period{
			&loan.DisbursementPeriod{
				Date:   loan.NewDate(2026, time.January, 1),
				Amount: loan.M(1200, "EUR"),
			},
			&loan.RepaymentPeriod{
				Number:           1,
				Start:            loan.NewDate(2026, time.January, 1),
				Due:              loan.NewDate(2026, time.February, 1),
				Principal:        loan.M(100, "EUR"),
				Interest:         loan.M(12, "EUR"),
				OutstandingAfter: loan.M(1100, "EUR"),
			},
			&loan.RepaymentPeriod{
				Number:           2,
				Start:            loan.NewDate(2026, time.February, 1),
				Due:              loan.NewDate(2026, time.February, 15),
				Principal:        loan.M(1100, "EUR"),
				Interest:         loan.M(5.5, "EUR"),
				OutstandingAfter: loan.M(0, "EUR"),
				Recalculated:     true,
			},
		},
		TermInDays:     45,
		TotalPrincipal: loan.M(1200, "EUR"),
		TotalInterest:  loan.M(17.5, "EUR"),
		TotalRepayment: loan.M(1217.5, "EUR"),
	}
}

func TestScheduleMarkdown(t *testing.T) {
	out := ScheduleMarkdown(scheduleFixture())

	for _, want := range []string{
		"# Repayment Schedule",
		"## Disbursements",
		"## Installments",
		"2026-01-01",
		"2026-02-01",
		"Term in Days",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output is missing %q:\n%s", want, out)
		}
	}

	// recalculated installments are starred and the legend explains the star
	if !strings.Contains(out, "2*") {
		t.Errorf("recalculated installment should be starred:\n%s", out)
	}
	if !strings.Contains(out, "interest recalculation") {
		t.Errorf("starred installments need their legend:\n%s", out)
	}
}

func TestScheduleMarkdownWithoutRecalculation(t *testing.T) {
	m := scheduleFixture()
	m.Periods = m.Periods[:2]

	out := ScheduleMarkdown(m)
	if strings.Contains(out, "interest recalculation") {
		t.Errorf("legend should only appear with starred installments:\n%s", out)
	}
}

func TestQuoteMarkdown(t *testing.T) {
	q := &loan.Quote{
		Date:      loan.NewDate(2026, time.January, 16),
		Principal: loan.M(12000, "EUR"),
		Interest:  loan.M(58.06, "EUR"),
	}
	out := QuoteMarkdown(q)

	if !strings.Contains(out, "# Prepayment Quote for 2026-01-16") {
		t.Errorf("missing title:\n%s", out)
	}
	if !strings.Contains(out, "Total to Close") {
		t.Errorf("missing the settlement total:\n%s", out)
	}
}
