package loan

import (
	"testing"
	"time"
)

func TestTransactionQueueTakeThrough(t *testing.T) {
	jan := NewDate(2026, time.January, 10)
	feb := NewDate(2026, time.February, 10)
	mar := NewDate(2026, time.March, 10)

	// deliberately out of order
	q := newTransactionQueue([]*Transaction{
		NewTransaction(mar, M(30, "EUR")),
		NewTransaction(jan, M(10, "EUR")),
		NewTransaction(feb, M(20, "EUR")),
	})

	taken := q.takeThrough(feb)
	if len(taken) != 2 {
		t.Fatalf("took %d details, want 2", len(taken))
	}
	if taken[0].Date != jan || taken[1].Date != feb {
		t.Errorf("details out of order: %v, %v", taken[0].Date, taken[1].Date)
	}
	if q.pendingEmpty() {
		t.Errorf("the March repayment should still be pending")
	}

	for _, det := range taken {
		q.markProcessed(det)
	}
	if len(q.processed) != 2 {
		t.Errorf("processed = %d, want 2", len(q.processed))
	}

	rest := q.takeThrough(mar)
	if len(rest) != 1 || !q.pendingEmpty() {
		t.Errorf("draining left %d pending", len(rest))
	}
}

func TestRescheduleNextInstallments(t *testing.T) {
	terms := twelveMonthLoan()
	terms.Principal = M(1200, "EUR")
	terms.Amortization = EqualPrincipal

	base, err := Generate(terms, nil, plainCalendar())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	installments := base.Installments()

	// the first installment was paid in full, then the loan is rebuilt from
	// mid March on
	txs := []*Transaction{NewTransaction(NewDate(2026, time.February, 1), M(112, "EUR"))}
	model, err := RescheduleNextInstallments(terms, nil, plainCalendar(), nil,
		installments, txs, NewDate(2026, time.March, 15))
	if err != nil {
		t.Fatalf("RescheduleNextInstallments: %v", err)
	}

	repayments := model.Repayments()
	if len(repayments) != 12 {
		t.Fatalf("got %d repayment periods, want 12", len(repayments))
	}
	// the two installments already due stand as booked
	if repayments[0].Due != NewDate(2026, time.February, 1) || repayments[1].Due != NewDate(2026, time.March, 1) {
		t.Errorf("retained dues = %v, %v", repayments[0].Due, repayments[1].Due)
	}
	if repayments[2].Number != 3 || repayments[2].Start != NewDate(2026, time.March, 1) {
		t.Errorf("regeneration should pick up at period 3 from 2026-03-01, got %d from %v",
			repayments[2].Number, repayments[2].Start)
	}
	if !model.TotalPrincipal.Equal(M(1200, "EUR")) {
		t.Errorf("total principal = %v, want 1200", model.TotalPrincipal)
	}

	// the replayed repayment settled the first installment
	booked := model.Installments()
	if !booked[0].FullyPaid() {
		t.Errorf("first installment should be settled by the replayed repayment")
	}
	if booked[1].FullyPaid() {
		t.Errorf("second installment was never paid")
	}
}

func TestRescheduleNextInstallmentsValidatesTerms(t *testing.T) {
	terms := twelveMonthLoan()
	terms.NumberOfRepayments = 0

	_, err := RescheduleNextInstallments(terms, nil, plainCalendar(), nil, nil, nil,
		NewDate(2026, time.March, 1))
	if err == nil {
		t.Fatalf("invalid terms should be rejected")
	}
}

func TestRescheduleNextInstallmentsKeepsTranches(t *testing.T) {
	terms := twelveMonthLoan()
	terms.Principal = Money{}
	terms.ApprovedPrincipal = M(15000, "EUR")
	terms.Tranches = []Tranche{
		{Date: NewDate(2026, time.January, 1), Amount: M(5000, "EUR")},
		{Date: NewDate(2026, time.February, 15), Amount: M(5000, "EUR")},
		{Date: NewDate(2026, time.April, 15), Amount: M(5000, "EUR")},
	}

	base, err := Generate(terms, nil, plainCalendar())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	model, err := RescheduleNextInstallments(terms, nil, plainCalendar(), nil,
		base.Installments(), nil, NewDate(2026, time.March, 15))
	if err != nil {
		t.Fatalf("RescheduleNextInstallments: %v", err)
	}

	// the two tranches paid out before the reschedule stand as lines, the
	// April one disburses in the rebuilt tail
	disbursements := model.Disbursements()
	if len(disbursements) != 3 {
		t.Fatalf("got %d disbursement lines, want 3", len(disbursements))
	}
	sum := M(0, "EUR")
	for _, d := range disbursements {
		sum = sum.Add(d.Amount)
	}
	if !sum.Equal(M(15000, "EUR")) {
		t.Errorf("disbursement lines sum to %v, want 15,000", sum)
	}
	if !model.TotalPrincipal.Equal(M(15000, "EUR")) {
		t.Errorf("total principal = %v, want 15,000", model.TotalPrincipal)
	}
	repayments := model.Repayments()
	if repayments[0].Due != NewDate(2026, time.February, 1) || repayments[1].Due != NewDate(2026, time.March, 1) {
		t.Errorf("retained dues = %v, %v", repayments[0].Due, repayments[1].Due)
	}
	if !repayments[len(repayments)-1].OutstandingAfter.IsZero() {
		t.Errorf("loan should still close")
	}
}
