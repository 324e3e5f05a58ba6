package loan

import (
	"errors"
	"testing"
	"time"
)

func TestPrepaymentAmountMidPeriod(t *testing.T) {
	terms := twelveMonthLoan()
	on := NewDate(2026, time.January, 16)

	q, err := PrepaymentAmount(terms, nil, plainCalendar(), nil, nil, on)
	if err != nil {
		t.Fatalf("PrepaymentAmount: %v", err)
	}
	if q.Date != on {
		t.Errorf("quote date = %v, want %v", q.Date, on)
	}
	if !q.Principal.Equal(M(12000, "EUR")) {
		t.Errorf("quote principal = %v, want the full 12,000", q.Principal)
	}
	// 15 of the notional 31 days of interest
	if got := q.Interest.Amount().String(); got != "58.06" {
		t.Errorf("quote interest = %s, want 58.06", got)
	}
	if got := q.Total().Amount().String(); got != "12058.06" {
		t.Errorf("quote total = %s, want 12058.06", got)
	}
}

func TestPrepaymentAmountNetsPriorRepayments(t *testing.T) {
	terms := twelveMonthLoan()
	on := NewDate(2026, time.January, 16)
	txs := []*Transaction{NewTransaction(NewDate(2026, time.January, 10), M(500, "EUR"))}

	q, err := PrepaymentAmount(terms, nil, plainCalendar(), nil, txs, on)
	if err != nil {
		t.Fatalf("PrepaymentAmount: %v", err)
	}
	if !q.Principal.Equal(M(11500, "EUR")) {
		t.Errorf("quote principal = %v, want 11,500 after the 500 repayment", q.Principal)
	}
	if got := q.Total().Amount().String(); got != "11558.06" {
		t.Errorf("quote total = %s, want 11558.06", got)
	}
}

func TestPrepaymentAmountRunsInterestToRestDate(t *testing.T) {
	terms := twelveMonthLoan()
	terms.Recalculation = Recalculation{Enabled: true, PreClosure: PreCloseTillRestDate}
	on := NewDate(2026, time.January, 16)

	q, err := PrepaymentAmount(terms, nil, plainCalendar(), nil, nil, on)
	if err != nil {
		t.Fatalf("PrepaymentAmount: %v", err)
	}
	// interest runs to the covering rest date, a full month here
	if got := q.Interest.Amount().String(); got != "120" {
		t.Errorf("quote interest = %s, want the full month's 120", got)
	}
	if !q.Principal.Equal(M(12000, "EUR")) {
		t.Errorf("quote principal = %v, want 12,000", q.Principal)
	}
}

func TestPrepaymentAmountRejectsPreDisbursementDate(t *testing.T) {
	terms := twelveMonthLoan()
	_, err := PrepaymentAmount(terms, nil, plainCalendar(), nil, nil, NewDate(2025, time.December, 1))
	var confErr *ConfigurationError
	if !errors.As(err, &confErr) {
		t.Fatalf("error = %v, want a *ConfigurationError", err)
	}
}
