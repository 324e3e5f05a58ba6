package loan

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func decliningTerms() *Terms {
	return &Terms{
		Context:              NewRoundingContext("EUR", RoundHalfEven),
		Principal:            M(12000, "EUR"),
		NumberOfRepayments:   12,
		Repayment:            Frequency{Monthly, 1},
		AnnualInterestRate:   decimal.NewFromInt(12),
		InterestMethod:       DecliningBalance,
		Amortization:         EqualInstallments,
		ExpectedDisbursement: NewDate(2026, time.January, 1),
	}
}

func TestDecliningInterestFullPeriod(t *testing.T) {
	terms := decliningTerms()
	start := NewDate(2026, time.January, 1)
	end := NewDate(2026, time.February, 1)

	got := decliningInterest(terms, M(12000, "EUR"), decimal.Decimal{}, nil, start, end, 31)
	if !terms.Context.Round(got).Equal(M(120, "EUR")) {
		t.Errorf("one full month on 12,000 at 1%% = %v, want EUR 120", got)
	}
}

func TestDecliningInterestSlicesAtBalanceChanges(t *testing.T) {
	terms := decliningTerms()
	start := NewDate(2026, time.January, 1)
	mid := NewDate(2026, time.January, 16)
	end := NewDate(2026, time.January, 31)

	// principal drops by 6,000 halfway: 15 days on 12,000 plus 15 days on 6,000
	principal := NewTimeline()
	principal.Add(mid, M(6000, "EUR"))
	merged := MergeTimelines(principal, nil, nil, nil)

	got := decliningInterest(terms, M(12000, "EUR"), decimal.Decimal{}, merged, start, end, 30)
	if !terms.Context.Round(got).Equal(M(90, "EUR")) {
		t.Errorf("sliced interest = %v, want EUR 90 (60 + 30)", got)
	}
}

func TestDecliningInterestFoldsEventsBeforeStart(t *testing.T) {
	terms := decliningTerms()
	start := NewDate(2026, time.February, 1)
	end := NewDate(2026, time.March, 1)

	// principal repaid before the period starts lowers the whole period's base
	principal := NewTimeline()
	principal.Add(NewDate(2026, time.January, 20), M(6000, "EUR"))
	merged := MergeTimelines(principal, nil, nil, nil)

	got := decliningInterest(terms, M(12000, "EUR"), decimal.Decimal{}, merged, start, end, 28)
	if !terms.Context.Round(got).Equal(M(60, "EUR")) {
		t.Errorf("interest on the reduced base = %v, want EUR 60", got)
	}
}

func TestFlatInterestSpread(t *testing.T) {
	terms := &Terms{
		Context:            NewRoundingContext("EUR", RoundHalfEven),
		NumberOfRepayments: 3,
		InterestMethod:     FlatInterest,
	}
	total := M(100, "EUR")

	p1 := flatInterest(terms, total, M(0, "EUR"), 1)
	p2 := flatInterest(terms, total, terms.Context.Round(p1), 2)
	// the last period absorbs the rounding drift
	cum := terms.Context.Round(p1).Add(terms.Context.Round(p2))
	p3 := flatInterest(terms, total, cum, 3)

	sum := terms.Context.Round(p1).Add(terms.Context.Round(p2)).Add(terms.Context.Round(p3))
	if !sum.Equal(total) {
		t.Errorf("flat periods sum to %v, want the full EUR 100", sum)
	}
	if !terms.Context.Round(p3).GreaterThan(terms.Context.Round(p1)) {
		t.Errorf("last period %v should carry the drift over %v", p3, p1)
	}
}

func TestSplitGraceOnInterestDefers(t *testing.T) {
	terms := decliningTerms()
	terms.GraceOnInterest = 1
	terms.beginRun()
	defer terms.endRun()
	terms.updateFixedEMI(M(12000, "EUR"), 1)

	pi := splitPrincipalInterest(strategyInput{
		terms:            terms,
		periodNumber:     1,
		balanceAsPerRest: M(12000, "EUR"),
		outstanding:      M(12000, "EUR"),
		start:            NewDate(2026, time.January, 1),
		end:              NewDate(2026, time.February, 1),
		daysInFullPeriod: 31,
	})
	if !pi.Interest.IsZero() {
		t.Errorf("graced period interest = %v, want zero", pi.Interest)
	}
	if !terms.Context.Round(pi.DueToGrace).Equal(M(120, "EUR")) {
		t.Errorf("deferred interest = %v, want EUR 120", pi.DueToGrace)
	}
	// the installment keeps its size, all of it going to principal
	if !terms.Context.Round(pi.Principal).Equal(terms.effectiveEMI()) {
		t.Errorf("graced period principal = %v, want the full EMI %v", pi.Principal, terms.effectiveEMI())
	}
}

func TestSplitGraceOnPrincipal(t *testing.T) {
	terms := decliningTerms()
	terms.GraceOnPrincipal = 2
	terms.beginRun()
	defer terms.endRun()

	pi := splitPrincipalInterest(strategyInput{
		terms:            terms,
		periodNumber:     1,
		balanceAsPerRest: M(12000, "EUR"),
		outstanding:      M(12000, "EUR"),
		start:            NewDate(2026, time.January, 1),
		end:              NewDate(2026, time.February, 1),
		daysInFullPeriod: 31,
	})
	if !pi.Principal.IsZero() {
		t.Errorf("graced period principal = %v, want zero", pi.Principal)
	}
	if !terms.Context.Round(pi.Interest).Equal(M(120, "EUR")) {
		t.Errorf("graced period interest = %v, want EUR 120", pi.Interest)
	}
}

func TestSplitEqualPrincipal(t *testing.T) {
	terms := decliningTerms()
	terms.Principal = M(1200, "EUR")
	terms.Amortization = EqualPrincipal
	terms.beginRun()
	defer terms.endRun()

	pi := splitPrincipalInterest(strategyInput{
		terms:            terms,
		periodNumber:     2,
		balanceAsPerRest: M(1100, "EUR"),
		outstanding:      M(1100, "EUR"),
		start:            NewDate(2026, time.February, 1),
		end:              NewDate(2026, time.March, 1),
		daysInFullPeriod: 28,
	})
	if !pi.Principal.Equal(M(100, "EUR")) {
		t.Errorf("equal-principal amount = %v, want EUR 100", pi.Principal)
	}
}

func TestSplitFinalPeriodRepaysOutstanding(t *testing.T) {
	terms := decliningTerms()
	terms.beginRun()
	defer terms.endRun()

	outstanding := M(1057.43, "EUR")
	pi := splitPrincipalInterest(strategyInput{
		terms:            terms,
		periodNumber:     12,
		balanceAsPerRest: outstanding,
		outstanding:      outstanding,
		start:            NewDate(2026, time.December, 1),
		end:              NewDate(2027, time.January, 1),
		daysInFullPeriod: 31,
	})
	if !pi.Principal.Equal(outstanding) {
		t.Errorf("final period principal = %v, want the outstanding %v", pi.Principal, outstanding)
	}
}

func TestSplitVariations(t *testing.T) {
	terms := decliningTerms()
	terms.beginRun()
	defer terms.endRun()
	terms.updateFixedEMI(M(12000, "EUR"), 1)

	in := strategyInput{
		terms:            terms,
		periodNumber:     2,
		balanceAsPerRest: M(12000, "EUR"),
		outstanding:      M(12000, "EUR"),
		start:            NewDate(2026, time.February, 1),
		end:              NewDate(2026, time.March, 1),
		daysInFullPeriod: 28,
	}

	in.variations = []TermVariation{{Kind: SkipPeriod, Installment: 2}}
	if pi := splitPrincipalInterest(in); !pi.Principal.IsZero() || !pi.Interest.IsZero() {
		t.Errorf("skipped period = %v / %v, want nothing due", pi.Principal, pi.Interest)
	}

	// doubling the rate doubles the interest
	in.variations = []TermVariation{{Kind: RateOverride, Installment: 2, Value: decimal.NewFromInt(24)}}
	if pi := splitPrincipalInterest(in); !terms.Context.Round(pi.Interest).Equal(M(240, "EUR")) {
		t.Errorf("rate-override interest = %v, want EUR 240", pi.Interest)
	}

	// a principal override swaps the interest-bearing base
	in.variations = []TermVariation{{Kind: PrincipalOverride, Installment: 2, Value: decimal.NewFromInt(6000)}}
	if pi := splitPrincipalInterest(in); !terms.Context.Round(pi.Interest).Equal(M(60, "EUR")) {
		t.Errorf("principal-override interest = %v, want EUR 60", pi.Interest)
	}
}
