package loan

import "github.com/shopspring/decimal"

// RescheduleRequest describes a manual restructure of a running loan:
// everything from a chosen installment onward is rebuilt, optionally with new
// grace, extra term, a new rate or a moved first due date.
type RescheduleRequest struct {
	// FromInstallment is the first installment number to rebuild.
	FromInstallment int `json:"fromInstallment"`

	GraceOnPrincipal int `json:"graceOnPrincipal,omitempty"`
	GraceOnInterest  int `json:"graceOnInterest,omitempty"`
	// ExtraTerms appends repayment periods to the remaining term.
	ExtraTerms int `json:"extraTerms,omitempty"`
	// NewInterestRate replaces the nominal rate from the reschedule point on;
	// zero leaves it unchanged.
	NewInterestRate decimal.Decimal `json:"newInterestRate,omitempty"`
	// AdjustedDueDate moves the first rebuilt due date; zero keeps the
	// natural step.
	AdjustedDueDate Date `json:"adjustedDueDate,omitempty"`
	// RecalculateInterest recomputes flat interest over the new term instead
	// of carrying the already-charged figure.
	RecalculateInterest bool `json:"recalculateInterest,omitempty"`
}

// Reschedule rebuilds a loan's schedule from an installment onward. The
// installments before it stand as booked; the outstanding principal of the
// whole loan respreads over the rebuilt term.
func Reschedule(t *Terms, req *RescheduleRequest, installments []*Installment,
	charges []Charge, cal Calendar) (*ScheduleModel, error) {

	if req.FromInstallment < 1 || req.FromInstallment > len(installments) {
		return nil, &ConfigurationError{Reason: "reschedule-from installment is out of range"}
	}
	if req.ExtraTerms < 0 {
		return nil, &ConfigurationError{Reason: "extra terms cannot be negative"}
	}
	ctx := t.Context

	retained := installments[:req.FromInstallment-1]
	rebuilt := installments[req.FromInstallment-1:]

	outstanding := ctx.Zero()
	for _, in := range installments {
		outstanding = outstanding.Add(in.PrincipalOutstanding())
	}
	if !outstanding.IsPositive() {
		return nil, &ConfigurationError{Reason: "nothing outstanding to reschedule"}
	}

	periodStart := t.ExpectedDisbursement
	if len(retained) > 0 {
		periodStart = retained[len(retained)-1].Due
	}

	rt := *t
	rt.Principal = outstanding
	rt.ApprovedPrincipal = Money{}
	rt.Tranches = nil
	rt.NumberOfRepayments = len(rebuilt) + req.ExtraTerms + req.GraceOnPrincipal
	rt.GraceOnPrincipal = req.GraceOnPrincipal
	rt.GraceOnInterest = req.GraceOnInterest
	rt.ExpectedDisbursement = periodStart
	rt.FirstRepayment = req.AdjustedDueDate
	rt.InterestChargedFrom = Date{}
	rt.FixedEMI = Money{}
	rt.EMISchedule = nil
	rt.Variations = nil
	rt.Recalculation = Recalculation{}
	rt.TotalInterestDue = Money{}
	if !req.NewInterestRate.IsZero() {
		rt.AnnualInterestRate = req.NewInterestRate
	}
	if t.InterestMethod == FlatInterest && !req.RecalculateInterest {
		carried := ctx.Zero()
		for _, in := range rebuilt {
			carried = carried.Add(in.InterestOutstanding())
		}
		rt.TotalInterestDue = carried
	}

	model, err := Generate(&rt, charges, cal)
	if err != nil {
		return nil, err
	}

	out := &ScheduleModel{Currency: ctx.Currency}
	out.TotalPrincipal = ctx.Zero()
	out.TotalInterest = ctx.Zero()
	out.TotalFees = ctx.Zero()
	out.TotalPenalties = ctx.Zero()
	out.TotalRepayment = ctx.Zero()

	out.Periods = append(out.Periods, &DisbursementPeriod{
		Date:   t.ExpectedDisbursement,
		Amount: t.principalToBeScheduled(),
	})
	for _, in := range retained {
		p := &RepaymentPeriod{
			Number:       in.Number,
			Start:        in.Start,
			Due:          in.Due,
			Principal:    in.Principal,
			Interest:     in.Interest,
			Fee:          in.Fee,
			Penalty:      in.Penalty,
			Recalculated: in.Recalculated,
		}
		out.Periods = append(out.Periods, p)
		out.TotalPrincipal = out.TotalPrincipal.Add(p.Principal)
		out.TotalInterest = out.TotalInterest.Add(p.Interest)
		out.TotalFees = out.TotalFees.Add(p.Fee)
		out.TotalPenalties = out.TotalPenalties.Add(p.Penalty)
		out.TotalRepayment = out.TotalRepayment.Add(p.Total())
		out.TermInDays += DaysBetween(p.Start, p.Due)
	}

	offset := len(retained)
	for _, p := range model.Repayments() {
		p.Number += offset
		// pure placeholder periods carry no fees either
		if p.Principal.IsZero() && p.Interest.IsZero() {
			p.Fee = ctx.Zero()
			p.Penalty = ctx.Zero()
		}
		out.Periods = append(out.Periods, p)
		out.TotalPrincipal = out.TotalPrincipal.Add(p.Principal)
		out.TotalInterest = out.TotalInterest.Add(p.Interest)
		out.TotalFees = out.TotalFees.Add(p.Fee)
		out.TotalPenalties = out.TotalPenalties.Add(p.Penalty)
		out.TotalRepayment = out.TotalRepayment.Add(p.Total())
		out.TermInDays += DaysBetween(p.Start, p.Due)
	}
	return out, nil
}
