package loan

// Quote is the amount settling a loan on a given date, broken down by
// component.
type Quote struct {
	Date      Date  `json:"date"`
	Principal Money `json:"principal"`
	Interest  Money `json:"interest"`
	Fee       Money `json:"fee"`
	Penalty   Money `json:"penalty"`
}

// Total returns the full settlement amount.
func (q *Quote) Total() Money {
	return q.Principal.Add(q.Interest).Add(q.Fee).Add(q.Penalty)
}

// PrepaymentAmount quotes what closes the loan on onDate. Interest runs to
// the payment date or to the rest date covering it, per the loan's
// pre-closure rule; the repayments received so far replay against the
// truncated schedule and whatever remains owed is the quote.
func PrepaymentAmount(t *Terms, charges []Charge, cal Calendar, alloc Allocator,
	txs []*Transaction, onDate Date) (*Quote, error) {

	if onDate.Before(t.ExpectedDisbursement) {
		return nil, &ConfigurationError{Reason: "prepayment date predates the disbursement"}
	}
	calculateTill := onDate
	if t.Recalculation.Enabled && t.Recalculation.PreClosure == PreCloseTillRestDate {
		calculateTill = cal.NextRestDate(onDate, t)
	}

	rs := &ResumeState{
		Transactions: txs,
		Allocator:    alloc,
		ScheduleTill: calculateTill,
	}
	model, err := GenerateFrom(t, charges, cal, rs)
	if err != nil {
		return nil, err
	}

	// the run replayed the repayments already, paid portions included
	installments := model.Installments()

	ctx := t.Context
	q := &Quote{
		Date:      onDate,
		Principal: ctx.Zero(),
		Interest:  ctx.Zero(),
		Fee:       ctx.Zero(),
		Penalty:   ctx.Zero(),
	}
	for _, in := range installments {
		if in.FullyPaid() {
			continue
		}
		q.Principal = q.Principal.Add(in.PrincipalOutstanding())
		q.Interest = q.Interest.Add(in.InterestOutstanding())
		q.Fee = q.Fee.Add(in.FeeOutstanding())
		q.Penalty = q.Penalty.Add(in.PenaltyOutstanding())
	}
	return q, nil
}
