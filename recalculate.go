package loan

import "sort"

// RecalculationDetail pairs a repayment with the date the generator considers
// it on. Details move from the pending queue to the processed list as the
// generator consumes them; there is no processed flag to forget to set.
type RecalculationDetail struct {
	Date        Date
	Transaction *Transaction
}

// transactionQueue holds the repayments a recalculation run still has to work
// through, in date order.
type transactionQueue struct {
	pending   []*RecalculationDetail
	processed []*RecalculationDetail
}

func newTransactionQueue(txs []*Transaction) *transactionQueue {
	q := &transactionQueue{}
	for _, tx := range txs {
		q.pending = append(q.pending, &RecalculationDetail{Date: tx.Date, Transaction: tx})
	}
	sort.SliceStable(q.pending, func(i, j int) bool { return q.pending[i].Date.Before(q.pending[j].Date) })
	return q
}

// takeThrough removes and returns the pending details dated on or before d.
// The caller owns them until it hands each back via markProcessed.
func (q *transactionQueue) takeThrough(d Date) []*RecalculationDetail {
	var taken []*RecalculationDetail
	i := 0
	for ; i < len(q.pending); i++ {
		if q.pending[i].Date.After(d) {
			break
		}
		taken = append(taken, q.pending[i])
	}
	q.pending = q.pending[i:]
	return taken
}

func (q *transactionQueue) markProcessed(det *RecalculationDetail) {
	q.processed = append(q.processed, det)
}

func (q *transactionQueue) pendingEmpty() bool { return len(q.pending) == 0 }

// ResumeState is the snapshot a resumed generation run starts from. A state
// is consumed by exactly one GenerateFrom call; reusing one is an error
// because the run mutates the timelines and queue it carries.
//
// A state with Partial false only carries the repayments to replay and an
// optional truncation date: the schedule regenerates from the top. A partial
// state additionally carries the retained schedule prefix and every running
// total, so generation picks up mid-loan.
type ResumeState struct {
	Partial bool

	// Transactions replay against the booked installments during the run.
	Transactions []*Transaction
	// Allocator distributes the replayed repayments; nil means StandardAllocator.
	Allocator Allocator
	// ScheduleTill truncates generation at the given date when set.
	ScheduleTill Date

	PeriodNumber        int
	InstallmentNumber   int
	PeriodStart         Date
	ActualRepaymentDate Date

	Outstanding         Money
	BalanceAsPerRest    Money
	PrincipalToSchedule Money
	ReducePrincipal     Money
	DueToGrace          Money

	CumulativePrincipal Money
	CumulativeInterest  Money
	CumulativeFees      Money
	CumulativePenalties Money
	TotalRepayment      Money
	TermInDays          int

	Periods      []Period
	Installments []*Installment

	PrincipalMap    *Timeline
	LatePaymentMap  *Timeline
	CompoundingMap  *Timeline
	DisbursementMap *Timeline

	consumed bool
}

func (rs *ResumeState) allocator() Allocator {
	if rs.Allocator == nil {
		return StandardAllocator{}
	}
	return rs.Allocator
}

func (rs *ResumeState) validate(t *Terms) error {
	if !rs.Partial {
		return nil
	}
	if rs.PeriodNumber < 1 || rs.InstallmentNumber < 1 {
		return &InconsistentStateError{Reason: "period counters must start at 1"}
	}
	if rs.PeriodStart.IsZero() {
		return &InconsistentStateError{Reason: "period start date is missing"}
	}
	if rs.PeriodStart.Before(t.ExpectedDisbursement) {
		return &InconsistentStateError{Reason: "period start predates the disbursement"}
	}
	if rs.ActualRepaymentDate.IsZero() {
		return &InconsistentStateError{Reason: "actual repayment date is missing"}
	}
	if rs.Outstanding.IsNegative() {
		return &InconsistentStateError{Reason: "outstanding balance is negative"}
	}
	if rs.PrincipalMap == nil || rs.LatePaymentMap == nil || rs.CompoundingMap == nil || rs.DisbursementMap == nil {
		return &InconsistentStateError{Reason: "timeline maps are missing"}
	}
	return nil
}

// RescheduleNextInstallments rebuilds the schedule from rescheduleFrom
// onward: the installments already due before that date are retained as they
// stand, the repayments received so far replay against them, and the rest of
// the loan regenerates with the current terms.
func RescheduleNextInstallments(t *Terms, charges []Charge, cal Calendar, alloc Allocator,
	installments []*Installment, txs []*Transaction, rescheduleFrom Date) (*ScheduleModel, error) {

	if err := t.Validate(); err != nil {
		return nil, err
	}
	if alloc == nil {
		alloc = StandardAllocator{}
	}

	ctx := t.Context
	rs := &ResumeState{
		Partial:             true,
		Allocator:           alloc,
		PeriodNumber:        1,
		InstallmentNumber:   1,
		PeriodStart:         t.ExpectedDisbursement,
		ActualRepaymentDate: t.ExpectedDisbursement,
		PrincipalToSchedule: t.principalToBeScheduled(),
		Outstanding:         t.principalToBeScheduled(),
		BalanceAsPerRest:    t.principalToBeScheduled(),
		ReducePrincipal:     ctx.Zero(),
		DueToGrace:          ctx.Zero(),
		CumulativePrincipal: ctx.Zero(),
		CumulativeInterest:  ctx.Zero(),
		CumulativeFees:      ctx.Zero(),
		CumulativePenalties: ctx.Zero(),
		TotalRepayment:      ctx.Zero(),
		PrincipalMap:        NewTimeline(),
		LatePaymentMap:      NewTimeline(),
		CompoundingMap:      NewTimeline(),
		DisbursementMap:     NewTimeline(),
	}

	disbursementFees := totalDisbursementCharges(charges, rs.PrincipalToSchedule, ctx)
	if !t.MultiDisbursed() {
		rs.Periods = append(rs.Periods, &DisbursementPeriod{
			Date: t.ExpectedDisbursement, Amount: rs.PrincipalToSchedule, ChargesDue: disbursementFees,
		})
	} else {
		// tranches already paid out stand as disbursement lines; the rest
		// stay mapped for the resumed run to materialize
		rs.Outstanding = ctx.Zero()
		fees := disbursementFees
		for _, tr := range t.Tranches {
			if !tr.Date.Before(rescheduleFrom) {
				rs.DisbursementMap.Add(tr.Date, tr.Amount)
				continue
			}
			rs.Periods = append(rs.Periods, &DisbursementPeriod{
				Date: tr.Date, Amount: tr.Amount, ChargesDue: fees,
			})
			rs.Outstanding = rs.Outstanding.Add(tr.Amount)
			fees = ctx.Zero() // collected once, with the first tranche
		}
		rs.BalanceAsPerRest = rs.Outstanding
	}
	rs.CumulativeFees = rs.CumulativeFees.Add(disbursementFees)
	rs.TotalRepayment = rs.TotalRepayment.Add(disbursementFees)

	// retain the installments already due before the reschedule point
	var retained []*Installment
	for _, in := range installments {
		adjusted := cal.AdjustForNonWorkingDay(in.Due, t)
		if !adjusted.Before(rescheduleFrom) {
			break
		}
		keep := *in
		retained = append(retained, &keep)
		rs.Periods = append(rs.Periods, &RepaymentPeriod{
			Number:       in.Number,
			Start:        in.Start,
			Due:          in.Due,
			Principal:    in.Principal,
			Interest:     in.Interest,
			Fee:          in.Fee,
			Penalty:      in.Penalty,
			Recalculated: in.Recalculated,
		})
		rs.CumulativePrincipal = rs.CumulativePrincipal.Add(in.Principal)
		rs.CumulativeInterest = rs.CumulativeInterest.Add(in.Interest)
		rs.CumulativeFees = rs.CumulativeFees.Add(in.Fee)
		rs.CumulativePenalties = rs.CumulativePenalties.Add(in.Penalty)
		rs.TotalRepayment = rs.TotalRepayment.Add(in.Principal).Add(in.Interest).Add(in.Fee).Add(in.Penalty)
		rs.TermInDays += DaysBetween(in.Start, in.Due)

		restDate := in.Due
		if t.Recalculation.Enabled {
			restDate = cal.NextRestDate(in.Due, t)
		}
		rs.PrincipalMap.Add(restDate, in.Principal)
		rs.Outstanding = rs.Outstanding.Sub(in.Principal)

		rs.PeriodStart = in.Due
		rs.ActualRepaymentDate = in.Due
		rs.PeriodNumber = in.Number + 1
		rs.InstallmentNumber = in.Number + 1
	}
	rs.Installments = retained
	rs.BalanceAsPerRest = rs.PrincipalMap.ReduceThrough(rs.PeriodStart, rs.BalanceAsPerRest, false)

	// replay the repayments received before the reschedule point; anything
	// beyond what the retained installments owed prepays principal
	var later []*Transaction
	for _, tx := range txs {
		if !tx.Date.Before(rescheduleFrom) {
			later = append(later, tx)
			continue
		}
		unprocessed := alloc.Apply(tx, rs.Installments)
		if unprocessed.IsPositive() {
			restDate := tx.Date
			if t.Recalculation.Enabled {
				restDate = cal.NextRestDate(tx.Date, t)
			}
			rs.PrincipalMap.Add(restDate, unprocessed)
			rs.Outstanding = rs.Outstanding.Sub(unprocessed)
			if rs.Outstanding.IsNegative() {
				rs.Outstanding = ctx.Zero()
			}
			rs.ReducePrincipal = rs.ReducePrincipal.Add(unprocessed)
		}
	}
	rs.Transactions = later

	if rs.Outstanding.IsNegative() {
		rs.Outstanding = ctx.Zero()
	}
	return GenerateFrom(t, charges, cal, rs)
}
