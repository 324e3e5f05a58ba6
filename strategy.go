package loan

import "github.com/shopspring/decimal"

// PrincipalInterest is what an interest strategy hands back for one period:
// the principal and interest falling due, plus the running interest deferred
// by a payment grace.
type PrincipalInterest struct {
	Principal Money
	Interest  Money
	// DueToGrace carries the interest deferred so far; the generator settles
	// it in the final period.
	DueToGrace Money
}

// strategyInput is everything one period's split depends on. The merged
// timeline is a pure read: the strategy never consumes entries.
type strategyInput struct {
	terms        *Terms
	periodNumber int

	cumulativeInterest Money
	// totalInterestDue is the flat-method full-term interest.
	totalInterestDue Money
	dueToGrace       Money

	// balanceAsPerRest is the interest-bearing balance, which trails the
	// actual outstanding until repaid principal reaches its rest date.
	balanceAsPerRest Money
	// outstanding is the live balance; the final period repays exactly this.
	outstanding Money

	merged *MergedTimeline
	// start is where interest begins accruing, end is the due date.
	start, end       Date
	daysInFullPeriod int

	variations []TermVariation
}

// splitPrincipalInterest computes one period's principal and interest per the
// loan's interest method and amortization.
func splitPrincipalInterest(in strategyInput) PrincipalInterest {
	t := in.terms

	var rateOverride decimal.Decimal
	balance := in.balanceAsPerRest
	for _, v := range in.variations {
		switch v.Kind {
		case SkipPeriod:
			return PrincipalInterest{DueToGrace: in.dueToGrace}
		case RateOverride:
			rateOverride = v.Value
		case PrincipalOverride:
			balance = MoneyFromDecimal(v.Value, t.Context.Currency)
		}
	}

	var interest Money
	switch t.InterestMethod {
	case DecliningBalance:
		interest = decliningInterest(t, balance, rateOverride, in.merged, in.start, in.end, in.daysInFullPeriod)
	case FlatInterest:
		interest = flatInterest(t, in.totalInterestDue, in.cumulativeInterest, in.periodNumber)
	}

	dueToGrace := in.dueToGrace
	if in.periodNumber <= t.GraceOnInterest {
		dueToGrace = dueToGrace.Add(interest)
		interest = t.Context.Zero()
	}

	var principal Money
	switch {
	case in.periodNumber <= t.GraceOnPrincipal:
		principal = t.Context.Zero()
	case in.periodNumber >= t.NumberOfRepayments:
		principal = in.outstanding
	case t.InterestMethod == FlatInterest || t.Amortization == EqualPrincipal:
		if t.fixedPrincipal.IsZero() {
			t.updateFixedPrincipal(t.principalToBeScheduled(), 1)
		}
		principal = t.fixedPrincipal
	default:
		principal = t.effectiveEMI().Sub(interest)
	}

	return PrincipalInterest{Principal: principal, Interest: interest, DueToGrace: dueToGrace}
}

// decliningInterest accrues interest over (start, end], breaking the accrual
// at every merged timeline event so each slice runs on the balance in force
// during it. Slices weigh in as actual days over the full period's days.
func decliningInterest(t *Terms, balance Money, rateOverride decimal.Decimal,
	merged *MergedTimeline, start, end Date, daysInFullPeriod int) Money {

	rate := t.periodRate(rateOverride)
	if daysInFullPeriod <= 0 {
		daysInFullPeriod = DaysBetween(start, end)
	}
	if daysInFullPeriod <= 0 {
		return t.Context.Zero()
	}
	daysInFull := decimal.NewFromInt(int64(daysInFullPeriod))

	interest := t.Context.Zero()
	cursor := start
	slice := func(until Date) {
		days := DaysBetween(cursor, until)
		if days > 0 {
			fraction := decimal.NewFromInt(int64(days)).DivRound(daysInFull, 18)
			interest = interest.Add(balance.MulDec(rate).MulDec(fraction))
			cursor = until
		}
	}
	if merged != nil {
		for _, e := range merged.Events() {
			if !e.Date.After(start) {
				balance = balance.Add(e.Amount)
				continue
			}
			if e.Date.After(end) {
				break
			}
			slice(e.Date)
			balance = balance.Add(e.Amount)
		}
	}
	slice(end)
	return interest
}

// flatInterest spreads the full-term interest evenly over the non-grace
// periods, the final one absorbing the rounding drift. Graced periods charge
// nothing and defer nothing: the spread already recovers their share.
func flatInterest(t *Terms, totalInterestDue, cumulativeInterest Money, periodNumber int) Money {
	if periodNumber >= t.NumberOfRepayments {
		return totalInterestDue.Sub(cumulativeInterest)
	}
	if periodNumber <= t.GraceOnInterest {
		return t.Context.Zero()
	}
	periods := t.NumberOfRepayments - t.GraceOnInterest
	if periods < 1 {
		periods = 1
	}
	return totalInterestDue.DivInt(periods)
}
