package loan

import (
	"errors"
	"testing"
	"time"
)

// rescheduleFixture generates a 1,200 equal-principal loan and pays its first
// three installments in full.
func rescheduleFixture(t *testing.T) (*Terms, []*Installment) {
	t.Helper()
	terms := twelveMonthLoan()
	terms.Principal = M(1200, "EUR")
	terms.Amortization = EqualPrincipal

	model, err := Generate(terms, nil, plainCalendar())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	installments := model.Installments()
	alloc := StandardAllocator{}
	for _, in := range installments[:3] {
		alloc.Apply(NewTransaction(in.Due, in.TotalOutstanding()), installments)
	}
	return terms, installments
}

func TestRescheduleSpreadsOutstandingOverNewTerm(t *testing.T) {
	terms, installments := rescheduleFixture(t)

	model, err := Reschedule(terms, &RescheduleRequest{
		FromInstallment: 4,
		ExtraTerms:      3,
	}, installments, nil, plainCalendar())
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}

	repayments := model.Repayments()
	// 3 retained + (9 remaining + 3 extra) rebuilt
	if len(repayments) != 15 {
		t.Fatalf("got %d repayment periods, want 15", len(repayments))
	}
	for i, p := range repayments {
		if p.Number != i+1 {
			t.Fatalf("period %d numbered %d", i, p.Number)
		}
	}
	// retained rows stand untouched
	if !repayments[0].Principal.Equal(M(100, "EUR")) {
		t.Errorf("retained principal = %v, want 100", repayments[0].Principal)
	}
	// the outstanding 900 respreads over 12 periods
	if !repayments[3].Principal.Equal(M(75, "EUR")) {
		t.Errorf("rebuilt principal = %v, want 75", repayments[3].Principal)
	}
	if repayments[3].Start != NewDate(2026, time.April, 1) {
		t.Errorf("rebuilt schedule starts %v, want 2026-04-01", repayments[3].Start)
	}
	if !model.TotalPrincipal.Equal(M(1200, "EUR")) {
		t.Errorf("total principal = %v, want 1200", model.TotalPrincipal)
	}
	last := repayments[len(repayments)-1]
	if !last.OutstandingAfter.IsZero() {
		t.Errorf("rescheduled loan should still close, outstanding %v", last.OutstandingAfter)
	}
}

func TestRescheduleMovesFirstDueDate(t *testing.T) {
	terms, installments := rescheduleFixture(t)

	model, err := Reschedule(terms, &RescheduleRequest{
		FromInstallment: 4,
		AdjustedDueDate: NewDate(2026, time.June, 1),
	}, installments, nil, plainCalendar())
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	repayments := model.Repayments()
	if repayments[3].Due != NewDate(2026, time.June, 1) {
		t.Errorf("first rebuilt due date = %v, want the adjusted 2026-06-01", repayments[3].Due)
	}
	if repayments[4].Due != NewDate(2026, time.July, 1) {
		t.Errorf("later dates should step from the adjusted one, got %v", repayments[4].Due)
	}
}

func TestRescheduleGrantsGrace(t *testing.T) {
	terms, installments := rescheduleFixture(t)

	model, err := Reschedule(terms, &RescheduleRequest{
		FromInstallment:  4,
		GraceOnPrincipal: 2,
	}, installments, nil, plainCalendar())
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	repayments := model.Repayments()
	if !repayments[3].Principal.IsZero() || !repayments[4].Principal.IsZero() {
		t.Errorf("graced rebuilt periods = %v, %v, want zero principal",
			repayments[3].Principal, repayments[4].Principal)
	}
	if !model.TotalPrincipal.Equal(M(1200, "EUR")) {
		t.Errorf("total principal = %v, want 1200", model.TotalPrincipal)
	}
}

func TestRescheduleCarriesFlatInterest(t *testing.T) {
	terms := twelveMonthLoan()
	terms.Principal = M(1200, "EUR")
	terms.InterestMethod = FlatInterest
	terms.Amortization = EqualPrincipal

	model, err := Generate(terms, nil, plainCalendar())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	installments := model.Installments()

	// nothing paid: the rebuilt term keeps the 9 remaining periods' flat
	// interest, 12 each
	out, err := Reschedule(terms, &RescheduleRequest{FromInstallment: 4}, installments, nil, plainCalendar())
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	rebuilt := out.Repayments()[3:]
	carried := M(0, "EUR")
	for _, p := range rebuilt {
		carried = carried.Add(p.Interest)
	}
	if !carried.Equal(M(108, "EUR")) {
		t.Errorf("carried interest = %v, want 9 x 12 = 108", carried)
	}
}

func TestRescheduleRejectsBadRequests(t *testing.T) {
	terms, installments := rescheduleFixture(t)

	var confErr *ConfigurationError
	if _, err := Reschedule(terms, &RescheduleRequest{FromInstallment: 0}, installments, nil, plainCalendar()); !errors.As(err, &confErr) {
		t.Errorf("out-of-range installment: error = %v", err)
	}
	if _, err := Reschedule(terms, &RescheduleRequest{FromInstallment: 4, ExtraTerms: -1}, installments, nil, plainCalendar()); !errors.As(err, &confErr) {
		t.Errorf("negative extra terms: error = %v", err)
	}

	// settle everything; nothing remains to respread
	alloc := StandardAllocator{}
	for _, in := range installments {
		alloc.Apply(NewTransaction(in.Due, in.TotalOutstanding()), installments)
	}
	if _, err := Reschedule(terms, &RescheduleRequest{FromInstallment: 4}, installments, nil, plainCalendar()); !errors.As(err, &confErr) {
		t.Errorf("fully settled loan: error = %v", err)
	}
}
