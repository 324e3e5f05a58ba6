package loan

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Generate lays out the full repayment schedule for the given terms, charges
// and calendar.
func Generate(t *Terms, charges []Charge, cal Calendar) (*ScheduleModel, error) {
	return generateSchedule(t, charges, cal, nil)
}

// GenerateFrom runs generation seeded by a resume state: either a complete
// regeneration replaying repayments (and optionally truncated at a date), or
// a partial run continuing from a retained schedule prefix. The state is
// consumed; a second call with the same state fails.
func GenerateFrom(t *Terms, charges []Charge, cal Calendar, rs *ResumeState) (*ScheduleModel, error) {
	if rs == nil {
		return Generate(t, charges, cal)
	}
	if rs.consumed {
		return nil, &InconsistentStateError{Reason: "resume state already consumed"}
	}
	rs.consumed = true
	if err := rs.validate(t); err != nil {
		return nil, err
	}
	return generateSchedule(t, charges, cal, rs)
}

// scheduleRun is the working state of one generation pass.
type scheduleRun struct {
	t     *Terms
	cal   Calendar
	alloc Allocator

	active   []Charge
	deferred []Charge

	queue        *transactionQueue
	recalc       bool
	today        Date
	scheduleTill Date

	periods      []Period
	installments []*Installment

	periodNumber      int
	installmentNumber int
	periodStart       Date
	actualRepayment   Date
	interestStart     Date
	idealDisbursement Date
	firstRepayment    Date

	outstanding         Money
	balanceAsPerRest    Money
	principalToSchedule Money
	reducePrincipal     Money
	dueToGrace          Money
	totalFlatInterest   Money

	cumPrincipal   Money
	cumInterest    Money
	cumFees        Money
	cumPenalties   Money
	totalRepayment Money
	termInDays     int

	principalTL *Timeline
	lateTL      *Timeline
	compoundTL  *Timeline
	disburseTL  *Timeline

	lastRestDate           Date
	nextRepaymentAvailable bool
}

func generateSchedule(t *Terms, charges []Charge, cal Calendar, rs *ResumeState) (*ScheduleModel, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	t.beginRun()
	defer t.endRun()

	ctx := t.Context
	r := &scheduleRun{
		t:                      t,
		cal:                    cal,
		alloc:                  StandardAllocator{},
		today:                  t.today(),
		periodNumber:           1,
		installmentNumber:      1,
		nextRepaymentAvailable: true,
		principalTL:            NewTimeline(),
		lateTL:                 NewTimeline(),
		compoundTL:             NewTimeline(),
		disburseTL:             NewTimeline(),
		reducePrincipal:        ctx.Zero(),
		dueToGrace:             ctx.Zero(),
		cumPrincipal:           ctx.Zero(),
		cumInterest:            ctx.Zero(),
		cumFees:                ctx.Zero(),
		cumPenalties:           ctx.Zero(),
		totalRepayment:         ctx.Zero(),
	}
	r.active, r.deferred = partitionDeferredCharges(charges)
	r.firstRepayment = cal.NextRepaymentDate(t.ExpectedDisbursement, t, true)
	r.idealDisbursement = t.Repayment.Prev(r.firstRepayment)
	r.totalFlatInterest = t.totalInterestCharged()

	if rs != nil {
		r.queue = newTransactionQueue(rs.Transactions)
		r.alloc = rs.allocator()
		r.recalc = true
		r.scheduleTill = rs.ScheduleTill
		if !r.scheduleTill.IsZero() {
			r.today = r.scheduleTill
		}
	}

	first := true
	if rs != nil && rs.Partial {
		r.resumeFrom(rs)
		first = false
	} else {
		r.periodStart = t.ExpectedDisbursement
		r.actualRepayment = t.ExpectedDisbursement
		r.interestStart = t.ExpectedDisbursement
		r.initDisbursement(charges)
	}

	if t.Recalculation.Enabled {
		r.lastRestDate = cal.NextRestDate(r.today, t)
	}

	// a loan can stretch past its nominal term through reschedule-next
	// credits and truncation, but never unboundedly
	maxPeriods := t.NumberOfRepayments*4 + 400

	for r.outstanding.IsPositive() || !r.disburseTL.IsEmpty() {
		if r.installmentNumber > maxPeriods {
			return nil, &ConfigurationError{Reason: "schedule did not converge"}
		}

		r.actualRepayment = cal.NextRepaymentDate(r.actualRepayment, t, first)
		first = false
		due := cal.AdjustForNonWorkingDay(r.actualRepayment, t)
		if cal.ExtendTermForDailyRepayments(t) {
			r.actualRepayment = due
		}
		if !r.lateTL.IsEmpty() {
			r.ensureCompoundingDates(r.periodStart, due)
		}
		r.interestStart = r.interestStartFor(r.periodStart)
		daysInFull := DaysBetween(r.interestStart, due)
		if !r.scheduleTill.IsZero() && !due.Before(r.scheduleTill) {
			due = r.scheduleTill
			r.nextRepaymentAvailable = false
		}

		if t.MultiDisbursed() {
			if err := r.materializeTranches(due); err != nil {
				return nil, err
			}
			t.setEMIForDate(due)
		}

		var details []*RecalculationDetail
		if r.recalc {
			details = r.queue.takeThrough(due)
		}
		for _, det := range details {
			if det.Date.Before(due) {
				r.applyMidPeriodTransaction(det, due, daysInFull)
			}
		}
		if !r.outstanding.IsPositive() && r.disburseTL.IsEmpty() {
			// early payments closed the loan inside this period; the
			// remaining repayments still settle what the booked installments
			// owe
			for _, det := range details {
				if !det.Date.Before(due) {
					r.alloc.Apply(det.Transaction, r.installments)
					r.queue.markProcessed(det)
				}
			}
			continue
		}

		merged := MergeTimelines(r.principalTL, r.lateTL, r.disburseTL, r.compoundTL)
		pi := splitPrincipalInterest(strategyInput{
			terms:              t,
			periodNumber:       r.periodNumber,
			cumulativeInterest: r.cumInterest,
			totalInterestDue:   r.totalFlatInterest,
			dueToGrace:         r.dueToGrace,
			balanceAsPerRest:   r.balanceAsPerRest,
			outstanding:        r.outstanding,
			merged:             merged,
			start:              r.interestStart,
			end:                due,
			daysInFullPeriod:   daysInFull,
			variations:         applicableVariations(t.Variations, r.periodStart, due, r.periodNumber),
		})
		interest := ctx.Round(pi.Interest)
		r.dueToGrace = pi.DueToGrace

		if err := r.checkInstallmentCoversInterest(interest); err != nil {
			return nil, err
		}

		// net the standing prepayment credit against the scheduled principal
		principal := pi.Principal
		if r.reducePrincipal.IsPositive() {
			if principal.GreaterThan(r.reducePrincipal) {
				principal = principal.Sub(r.reducePrincipal)
				r.reducePrincipal = ctx.Zero()
			} else {
				r.reducePrincipal = r.reducePrincipal.Sub(principal)
				principal = ctx.Zero()
			}
		}
		r.outstanding = r.outstanding.Sub(principal)
		if r.outstanding.IsNegative() || !r.nextRepaymentAvailable {
			principal = principal.Add(r.outstanding)
			r.outstanding = ctx.Zero()
		}
		if !r.nextRepaymentAvailable {
			r.disburseTL.Clear()
		}
		principal = ctx.Round(principal)

		firstOfLoan := r.installmentNumber == 1
		fee := chargesDueWithin(r.periodStart, due, r.active, false,
			principal, interest, r.principalToSchedule, ctx.Zero(), firstOfLoan, ctx)
		penalty := chargesDueWithin(r.periodStart, due, r.active, true,
			principal, interest, r.principalToSchedule, ctx.Zero(), firstOfLoan, ctx)

		period := &RepaymentPeriod{
			Number:           r.installmentNumber,
			Start:            r.periodStart,
			Due:              due,
			Principal:        principal,
			Interest:         interest,
			Fee:              fee,
			Penalty:          penalty,
			OutstandingAfter: r.outstanding,
		}
		r.periods = append(r.periods, period)
		r.cumPrincipal = r.cumPrincipal.Add(principal)
		r.cumInterest = r.cumInterest.Add(interest)
		r.cumFees = r.cumFees.Add(fee)
		r.cumPenalties = r.cumPenalties.Add(penalty)
		r.totalRepayment = r.totalRepayment.Add(period.Total())
		r.termInDays += DaysBetween(r.periodStart, due)

		if r.recalc {
			inst := newInstallment(period)
			r.installments = append(r.installments, inst)
			for _, det := range details {
				if !det.Date.Before(due) {
					r.applyDueDateTransaction(det, period, due)
				}
			}
			r.updateLatePayments()
		}

		restDate := due
		if t.Recalculation.Enabled {
			restDate = cal.NextRestDate(due, t)
		}
		// the scheduled principal only: an early-payment credit already entered
		// the timeline when the transaction was applied
		r.principalTL.Add(restDate, principal)
		r.balanceAsPerRest = r.principalTL.ReduceThrough(due, r.balanceAsPerRest, false)
		r.balanceAsPerRest = r.disburseTL.ReduceThrough(due, r.balanceAsPerRest, true)

		r.periodStart = due
		r.periodNumber++
		r.installmentNumber++
	}

	r.settleGraceInterest()
	r.applyDeferredCharges()
	if r.recalc && !r.lateTL.IsEmpty() && r.periodStart.Before(r.today) {
		r.addInterestOnlyPeriods()
	}

	return &ScheduleModel{
		Currency:       ctx.Currency,
		Periods:        r.periods,
		TermInDays:     r.termInDays,
		TotalPrincipal: r.cumPrincipal,
		TotalInterest:  r.cumInterest,
		TotalFees:      r.cumFees,
		TotalPenalties: r.cumPenalties,
		TotalRepayment: r.totalRepayment,
		booked:         r.installments,
	}, nil
}

// initDisbursement seeds the schedule with the money going out: the single
// disbursement of a plain loan, or the tranches of a multi-disbursement one.
func (r *scheduleRun) initDisbursement(charges []Charge) {
	t := r.t
	ctx := t.Context
	r.principalToSchedule = t.principalToBeScheduled()
	fees := totalDisbursementCharges(charges, r.principalToSchedule, ctx)

	if !t.MultiDisbursed() {
		r.periods = append(r.periods, &DisbursementPeriod{
			Date: t.ExpectedDisbursement, Amount: t.Principal, ChargesDue: fees,
		})
		r.outstanding = t.Principal
	} else {
		r.outstanding = ctx.Zero()
		for _, tr := range t.Tranches {
			if r.recalc && !tr.Disbursed && tr.Date.Before(r.today) {
				// an undisbursed past tranche will not happen; leave it out
				continue
			}
			if tr.Date.After(t.ExpectedDisbursement) {
				r.disburseTL.Add(tr.Date, tr.Amount)
				continue
			}
			r.periods = append(r.periods, &DisbursementPeriod{
				Date: tr.Date, Amount: tr.Amount, ChargesDue: fees,
			})
			r.outstanding = r.outstanding.Add(tr.Amount)
			fees = ctx.Zero() // collected once, with the first tranche
		}
	}
	disbursementFees := totalDisbursementCharges(charges, r.principalToSchedule, ctx)
	r.cumFees = r.cumFees.Add(disbursementFees)
	r.totalRepayment = r.totalRepayment.Add(disbursementFees)
	r.balanceAsPerRest = r.outstanding
	t.updateFixedEMI(r.principalToSchedule, 1)
}

// resumeFrom restores the working state of a partial run and replays the rate
// variations already in force at the resume point.
func (r *scheduleRun) resumeFrom(rs *ResumeState) {
	t := r.t
	r.periodNumber = rs.PeriodNumber
	r.installmentNumber = rs.InstallmentNumber
	r.periodStart = rs.PeriodStart
	r.actualRepayment = rs.ActualRepaymentDate
	r.interestStart = rs.PeriodStart
	r.outstanding = rs.Outstanding
	r.balanceAsPerRest = rs.BalanceAsPerRest
	r.principalToSchedule = rs.PrincipalToSchedule
	r.reducePrincipal = rs.ReducePrincipal
	r.dueToGrace = rs.DueToGrace
	r.cumPrincipal = rs.CumulativePrincipal
	r.cumInterest = rs.CumulativeInterest
	r.cumFees = rs.CumulativeFees
	r.cumPenalties = rs.CumulativePenalties
	r.totalRepayment = rs.TotalRepayment
	r.termInDays = rs.TermInDays
	r.periods = append(r.periods, rs.Periods...)
	r.installments = append(r.installments, rs.Installments...)
	r.principalTL = rs.PrincipalMap.Clone()
	r.lateTL = rs.LatePaymentMap.Clone()
	r.compoundTL = rs.CompoundingMap.Clone()
	r.disburseTL = rs.DisbursementMap.Clone()

	for _, v := range t.Variations {
		if v.Kind == RateOverride && v.appliesAt(rs.PeriodStart, rs.PeriodNumber) {
			t.AnnualInterestRate = v.Value
		}
	}
	t.updateFixedEMI(r.principalToSchedule, 1)
}

// interestStartFor returns where interest starts accruing for a period
// beginning at periodStart. A first period cut short of a full cycle accrues
// from the notional cycle start, unless interest is explicitly charged from a
// configured date.
func (r *scheduleRun) interestStartFor(periodStart Date) Date {
	t := r.t
	if r.idealDisbursement.IsZero() || !periodStart.Before(r.idealDisbursement) {
		return periodStart
	}
	if !t.InterestChargedFrom.IsZero() &&
		(periodStart.Equal(t.ExpectedDisbursement) || t.FirstRepayment.Before(t.InterestChargedFrom)) {
		return t.InterestChargedFrom
	}
	return r.idealDisbursement
}

// materializeTranches turns pending tranches falling inside the period into
// disbursement lines and balance, enforcing the outstanding cap.
func (r *scheduleRun) materializeTranches(due Date) error {
	t := r.t
	for _, d := range r.disburseTL.Dates() {
		if !d.After(r.periodStart) || d.After(due) {
			continue
		}
		amount, _ := r.disburseTL.At(d)
		raised := r.outstanding.Add(amount)
		if t.MaxOutstandingBalance.IsPositive() && raised.GreaterThan(t.MaxOutstandingBalance) {
			return &OverLimitError{Limit: t.MaxOutstandingBalance, Attempted: raised, On: d}
		}
		r.periods = append(r.periods, &DisbursementPeriod{Date: d, Amount: amount})
		r.outstanding = raised
	}
	return nil
}

// applyMidPeriodTransaction processes a repayment landing strictly inside the
// current period: arrears first, then whatever remains prepays principal at
// the covering rest date. When pre-closure interest stops at the payment
// date, an interest-only boundary is cut there first so the payment can
// settle interest accrued to that day.
func (r *scheduleRun) applyMidPeriodTransaction(det *RecalculationDetail, due Date, daysInFull int) {
	t := r.t
	ctx := t.Context
	tx := det.Transaction

	if t.Recalculation.PreClosure == PreCloseTillDate &&
		tx.Date.After(r.periodStart) && r.outstanding.IsPositive() {
		r.emitInterimPeriod(tx.Date, due, daysInFull)
	}

	unprocessed := r.alloc.Apply(tx, r.installments)
	r.queue.markProcessed(det)
	if unprocessed.IsPositive() {
		restDate := r.cal.NextRestDate(tx.Date, t)
		credit := unprocessed
		r.outstanding = r.outstanding.Sub(unprocessed)
		if r.outstanding.IsNegative() {
			credit = credit.Add(r.outstanding)
			r.outstanding = ctx.Zero()
		}
		if !r.outstanding.IsPositive() && t.Recalculation.PreClosure != PreCloseTillDate {
			// a payoff under rest-date pre-closure still owes interest to the
			// rest date covering the payment
			if cut := minDate(restDate, due); cut.After(r.periodStart) {
				r.emitInterimPeriod(cut, due, daysInFull)
			}
		}
		r.principalTL.Add(restDate, credit)
		r.bookEarlyPrincipal(credit)
		r.reducePrincipal = r.reducePrincipal.Add(credit)
		r.applyEarlyPaymentStrategy()
	}
	r.updateLatePayments()
}

// bookEarlyPrincipal shows principal paid ahead of schedule on the last
// emitted installment, so the principal column still sums to what was
// disbursed.
func (r *scheduleRun) bookEarlyPrincipal(credit Money) {
	last := r.lastRepaymentPeriod()
	if last == nil {
		return
	}
	last.Principal = last.Principal.Add(credit)
	last.OutstandingAfter = r.outstanding
	r.cumPrincipal = r.cumPrincipal.Add(credit)
	r.totalRepayment = r.totalRepayment.Add(credit)
	if n := len(r.installments); n > 0 {
		in := r.installments[n-1]
		in.Principal = in.Principal.Add(credit)
		in.PrincipalPaid = in.PrincipalPaid.Add(credit)
	}
}

// emitInterimPeriod cuts an interest-only period running from the current
// period start to the payment date.
func (r *scheduleRun) emitInterimPeriod(cut, scheduledDue Date, daysInFull int) {
	t := r.t
	ctx := t.Context
	merged := MergeTimelines(r.principalTL, r.lateTL, r.disburseTL, r.compoundTL)
	pi := splitPrincipalInterest(strategyInput{
		terms:              t,
		periodNumber:       r.periodNumber,
		cumulativeInterest: r.cumInterest,
		totalInterestDue:   r.totalFlatInterest,
		dueToGrace:         r.dueToGrace,
		balanceAsPerRest:   r.balanceAsPerRest,
		outstanding:        r.outstanding,
		merged:             merged,
		start:              r.interestStart,
		end:                cut,
		daysInFullPeriod:   daysInFull,
		variations:         applicableVariations(t.Variations, r.periodStart, cut, r.periodNumber),
	})
	interest := ctx.Round(pi.Interest)
	r.dueToGrace = pi.DueToGrace

	period := &RepaymentPeriod{
		Number:           r.installmentNumber,
		Start:            r.periodStart,
		Due:              cut,
		Principal:        ctx.Zero(),
		Interest:         interest,
		Fee:              ctx.Zero(),
		Penalty:          ctx.Zero(),
		OutstandingAfter: r.outstanding,
		Recalculated:     true,
	}
	r.periods = append(r.periods, period)
	r.installments = append(r.installments, newInstallment(period))
	r.cumInterest = r.cumInterest.Add(interest)
	r.totalRepayment = r.totalRepayment.Add(interest)
	r.termInDays += DaysBetween(r.periodStart, cut)
	r.periodStart = cut
	r.interestStart = cut
	r.installmentNumber++
}

// applyDueDateTransaction processes a repayment landing exactly on the due
// date just emitted.
func (r *scheduleRun) applyDueDateTransaction(det *RecalculationDetail, period *RepaymentPeriod, due Date) {
	t := r.t
	ctx := t.Context
	tx := det.Transaction

	unprocessed := r.alloc.Apply(tx, r.installments)
	r.queue.markProcessed(det)
	if unprocessed.IsPositive() {
		restDate := due
		if t.Recalculation.Enabled {
			restDate = r.cal.NextRestDate(due, t)
		}
		credit := unprocessed
		r.outstanding = r.outstanding.Sub(unprocessed)
		if r.outstanding.IsNegative() {
			credit = credit.Add(r.outstanding)
			r.outstanding = ctx.Zero()
		}
		r.principalTL.Add(restDate, credit)
		r.bookEarlyPrincipal(credit)
		r.reducePrincipal = r.reducePrincipal.Add(credit)
		r.applyEarlyPaymentStrategy()
	}
	r.updateLatePayments()
}

// applyEarlyPaymentStrategy reacts to principal paid ahead of schedule.
func (r *scheduleRun) applyEarlyPaymentStrategy() {
	t := r.t
	switch t.RescheduleStrategy {
	case ReduceEMIAmount:
		t.updateFixedEMI(r.outstanding, r.periodNumber+1)
		if t.Amortization == EqualPrincipal {
			t.updateFixedPrincipal(r.outstanding, r.periodNumber+1)
		}
		r.reducePrincipal = t.Context.Zero()
	case ReduceNumberOfInstallments:
		// amounts hold; the loan simply closes earlier
		r.reducePrincipal = t.Context.Zero()
	case RescheduleNextRepayments:
		// the credit stays and nets against upcoming scheduled principal
	}
}

// checkInstallmentCoversInterest rejects a fixed installment smaller than the
// interest of a regular period.
func (r *scheduleRun) checkInstallmentCoversInterest(interest Money) error {
	t := r.t
	if t.InterestMethod != DecliningBalance || t.Amortization != EqualInstallments {
		return nil
	}
	if r.periodNumber <= t.GraceOnPrincipal || r.periodNumber >= t.NumberOfRepayments {
		return nil
	}
	emi := t.effectiveEMI()
	if emi.IsPositive() && interest.GreaterThanOrEqual(emi) {
		return &ConfigurationError{
			Reason: fmt.Sprintf("installment amount %s does not cover period interest %s", emi, interest),
		}
	}
	return nil
}

// updateLatePayments rebuilds the overdue-principal and compounded-arrears
// timelines from the booked installments.
func (r *scheduleRun) updateLatePayments() {
	t := r.t
	if !t.Recalculation.Enabled {
		return
	}
	r.lateTL.Clear()
	r.compoundTL.Clear()
	cm := t.Recalculation.Compounding
	for _, in := range r.installments {
		if !in.Due.Before(r.today) || in.FullyPaid() {
			continue
		}
		restDate := r.cal.NextRestDate(in.Due, t)
		if restDate.Before(r.lastRestDate) && in.PrincipalOutstanding().IsPositive() {
			r.lateTL.Add(restDate, in.PrincipalOutstanding())
		}
		if !cm.Enabled() {
			continue
		}
		arrears := t.Context.Zero()
		if cm.CompoundsInterest() {
			arrears = arrears.Add(in.InterestOutstanding())
		}
		if cm.CompoundsFee() {
			arrears = arrears.Add(in.FeeOutstanding()).Add(in.PenaltyOutstanding())
		}
		if arrears.IsPositive() {
			cd := r.cal.NextCompoundingDate(in.Due, t)
			if !cd.IsZero() && cd.Before(r.today) {
				r.compoundTL.Add(cd, arrears)
			}
		}
	}
}

// ensureCompoundingDates makes every compounding date inside (from, to] and
// not past today present in the compounding timeline, so the interest
// strategy breaks the accrual there.
func (r *scheduleRun) ensureCompoundingDates(from, to Date) {
	t := r.t
	if !t.Recalculation.Compounding.Enabled() {
		return
	}
	d := r.cal.NextCompoundingDate(from.Add(1), t)
	for !d.IsZero() && !d.After(to) && d.Before(r.today) {
		if _, ok := r.compoundTL.At(d); !ok {
			r.compoundTL.Add(d, t.Context.Zero())
		}
		next := r.cal.NextCompoundingDate(d.Add(1), t)
		if !next.After(d) {
			break
		}
		d = next
	}
}

// settleGraceInterest folds interest deferred by a payment grace into the
// final repayment period.
func (r *scheduleRun) settleGraceInterest() {
	if !r.dueToGrace.IsPositive() {
		return
	}
	last := r.lastRepaymentPeriod()
	if last == nil {
		return
	}
	ctx := r.t.Context
	interest := ctx.Round(r.dueToGrace)
	last.Interest = last.Interest.Add(interest)
	r.cumInterest = r.cumInterest.Add(interest)
	r.totalRepayment = r.totalRepayment.Add(interest)
	r.dueToGrace = ctx.Zero()
}

// applyDeferredCharges computes the dated charges based on the full-term
// interest, now that it is known, and books each into the period its due date
// falls in.
func (r *scheduleRun) applyDeferredCharges() {
	if len(r.deferred) == 0 {
		return
	}
	ctx := r.t.Context
	repayments := r.repaymentPeriods()
	if len(repayments) == 0 {
		return
	}
	for _, c := range r.deferred {
		target := repayments[len(repayments)-1]
		for i, p := range repayments {
			if c.dueInWindow(p.Start, p.Due, i == 0) {
				target = p
				break
			}
		}
		base := r.cumInterest
		if c.Calculation == PercentOfAmountAndInterest {
			base = base.Add(r.principalToSchedule)
		}
		amount := ctx.Round(c.percentOf(base))
		if c.Penalty {
			target.Penalty = target.Penalty.Add(amount)
			r.cumPenalties = r.cumPenalties.Add(amount)
		} else {
			target.Fee = target.Fee.Add(amount)
			r.cumFees = r.cumFees.Add(amount)
		}
		r.totalRepayment = r.totalRepayment.Add(amount)
	}
}

// addInterestOnlyPeriods carries a truncated, in-arrears schedule up to
// today: zero-principal periods charging interest on the overdue amounts,
// one per rest stretch.
func (r *scheduleRun) addInterestOnlyPeriods() {
	t := r.t
	ctx := t.Context
	for r.periodStart.Before(r.today) {
		end := r.cal.NextRestDate(r.periodStart.Add(1), t)
		if end.IsZero() || end.After(r.today) {
			end = r.today
		}
		merged := MergeTimelines(nil, r.lateTL, nil, r.compoundTL)
		interest := ctx.Round(decliningInterest(t, ctx.Zero(), decimal.Decimal{},
			merged, r.periodStart, end, DaysBetween(r.periodStart, end)))
		period := &RepaymentPeriod{
			Number:           r.installmentNumber,
			Start:            r.periodStart,
			Due:              end,
			Principal:        ctx.Zero(),
			Interest:         interest,
			Fee:              ctx.Zero(),
			Penalty:          ctx.Zero(),
			OutstandingAfter: r.outstanding,
			Recalculated:     true,
		}
		r.periods = append(r.periods, period)
		r.installments = append(r.installments, newInstallment(period))
		r.cumInterest = r.cumInterest.Add(interest)
		r.totalRepayment = r.totalRepayment.Add(interest)
		r.termInDays += DaysBetween(r.periodStart, end)
		r.periodStart = end
		r.installmentNumber++
	}
}

func (r *scheduleRun) repaymentPeriods() []*RepaymentPeriod {
	var out []*RepaymentPeriod
	for _, p := range r.periods {
		if rp, ok := p.(*RepaymentPeriod); ok {
			out = append(out, rp)
		}
	}
	return out
}

func (r *scheduleRun) lastRepaymentPeriod() *RepaymentPeriod {
	for i := len(r.periods) - 1; i >= 0; i-- {
		if rp, ok := r.periods[i].(*RepaymentPeriod); ok {
			return rp
		}
	}
	return nil
}

// applicableVariations filters the term variations active for one period.
func applicableVariations(all []TermVariation, from, due Date, periodNumber int) []TermVariation {
	var out []TermVariation
	for _, v := range all {
		if v.AppliesTo(from, due, periodNumber) {
			out = append(out, v)
		}
	}
	return out
}
