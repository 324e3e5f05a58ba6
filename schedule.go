package loan

import "github.com/google/uuid"

// Period is one line of a generated schedule: either a disbursement or a
// repayment.
type Period interface {
	// When returns the date the period is keyed on: the disbursement date or
	// the (adjusted) due date.
	When() Date
}

// DisbursementPeriod records money going out, with the charges collected at
// that moment.
type DisbursementPeriod struct {
	Date       Date  `json:"date"`
	Amount     Money `json:"amount"`
	ChargesDue Money `json:"chargesDue,omitempty"`
}

// When implements Period.
func (p *DisbursementPeriod) When() Date { return p.Date }

// RepaymentPeriod is one installment falling due.
type RepaymentPeriod struct {
	Number    int   `json:"number"`
	Start     Date  `json:"start"`
	Due       Date  `json:"due"`
	Principal Money `json:"principal"`
	Interest  Money `json:"interest"`
	Fee       Money `json:"fee,omitempty"`
	Penalty   Money `json:"penalty,omitempty"`
	// OutstandingAfter is the loan balance once this period's principal is
	// paid.
	OutstandingAfter Money `json:"outstandingAfter"`
	// Recalculated marks periods synthesized during interest recalculation
	// rather than laid out by the plain contract.
	Recalculated bool `json:"recalculated,omitempty"`
}

// When implements Period.
func (p *RepaymentPeriod) When() Date { return p.Due }

// Total returns principal + interest + fee + penalty.
func (p *RepaymentPeriod) Total() Money {
	return p.Principal.Add(p.Interest).Add(p.Fee).Add(p.Penalty)
}

// ScheduleModel is the outcome of one generation run.
type ScheduleModel struct {
	Currency   string   `json:"currency"`
	Periods    []Period `json:"periods"`
	TermInDays int      `json:"termInDays"`

	TotalPrincipal Money `json:"totalPrincipal"`
	TotalInterest  Money `json:"totalInterest"`
	TotalFees      Money `json:"totalFees"`
	TotalPenalties Money `json:"totalPenalties"`
	// TotalRepayment is everything the borrower pays over the life of the
	// loan, disbursement-time charges included.
	TotalRepayment Money `json:"totalRepayment"`

	// booked carries the run's installments when repayments were replayed
	// during generation, with their paid portions filled in.
	booked []*Installment
}

// Repayments returns the repayment periods in schedule order.
func (m *ScheduleModel) Repayments() []*RepaymentPeriod {
	var out []*RepaymentPeriod
	for _, p := range m.Periods {
		if rp, ok := p.(*RepaymentPeriod); ok {
			out = append(out, rp)
		}
	}
	return out
}

// Disbursements returns the disbursement periods in schedule order.
func (m *ScheduleModel) Disbursements() []*DisbursementPeriod {
	var out []*DisbursementPeriod
	for _, p := range m.Periods {
		if dp, ok := p.(*DisbursementPeriod); ok {
			out = append(out, dp)
		}
	}
	return out
}

// Installments books the model's repayment periods for transaction
// allocation. A model produced by a replay run hands back the run's own
// installments, paid portions included.
func (m *ScheduleModel) Installments() []*Installment {
	if m.booked != nil {
		return m.booked
	}
	periods := m.Repayments()
	out := make([]*Installment, 0, len(periods))
	for _, p := range periods {
		out = append(out, newInstallment(p))
	}
	return out
}

// Installment is a booked repayment period tracking what has been paid
// against each component.
type Installment struct {
	Number    int
	Start     Date
	Due       Date
	Principal Money
	Interest  Money
	Fee       Money
	Penalty   Money

	PrincipalPaid Money
	InterestPaid  Money
	FeePaid       Money
	PenaltyPaid   Money

	Recalculated bool
}

func newInstallment(p *RepaymentPeriod) *Installment {
	return &Installment{
		Number:       p.Number,
		Start:        p.Start,
		Due:          p.Due,
		Principal:    p.Principal,
		Interest:     p.Interest,
		Fee:          p.Fee,
		Penalty:      p.Penalty,
		Recalculated: p.Recalculated,
	}
}

// PrincipalOutstanding returns the unpaid principal of the installment.
func (in *Installment) PrincipalOutstanding() Money { return in.Principal.Sub(in.PrincipalPaid) }

// InterestOutstanding returns the unpaid interest of the installment.
func (in *Installment) InterestOutstanding() Money { return in.Interest.Sub(in.InterestPaid) }

// FeeOutstanding returns the unpaid fees of the installment.
func (in *Installment) FeeOutstanding() Money { return in.Fee.Sub(in.FeePaid) }

// PenaltyOutstanding returns the unpaid penalties of the installment.
func (in *Installment) PenaltyOutstanding() Money { return in.Penalty.Sub(in.PenaltyPaid) }

// TotalOutstanding returns everything still owed on the installment.
func (in *Installment) TotalOutstanding() Money {
	return in.PrincipalOutstanding().Add(in.InterestOutstanding()).
		Add(in.FeeOutstanding()).Add(in.PenaltyOutstanding())
}

// FullyPaid reports whether nothing remains owed.
func (in *Installment) FullyPaid() bool { return in.TotalOutstanding().IsZero() }

// Overdue reports whether the installment fell due strictly before on and is
// not settled.
func (in *Installment) Overdue(on Date) bool {
	return in.Due.Before(on) && !in.FullyPaid()
}

// payPrincipal consumes up to the outstanding principal from amount and
// returns what is left of it.
func (in *Installment) payPrincipal(amount Money) Money {
	due := in.PrincipalOutstanding()
	if !due.IsPositive() || !amount.IsPositive() {
		return amount
	}
	paid := due
	if amount.LessThan(due) {
		paid = amount
	}
	in.PrincipalPaid = in.PrincipalPaid.Add(paid)
	return amount.Sub(paid)
}

func (in *Installment) payInterest(amount Money) Money {
	due := in.InterestOutstanding()
	if !due.IsPositive() || !amount.IsPositive() {
		return amount
	}
	paid := due
	if amount.LessThan(due) {
		paid = amount
	}
	in.InterestPaid = in.InterestPaid.Add(paid)
	return amount.Sub(paid)
}

func (in *Installment) payFee(amount Money) Money {
	due := in.FeeOutstanding()
	if !due.IsPositive() || !amount.IsPositive() {
		return amount
	}
	paid := due
	if amount.LessThan(due) {
		paid = amount
	}
	in.FeePaid = in.FeePaid.Add(paid)
	return amount.Sub(paid)
}

func (in *Installment) payPenalty(amount Money) Money {
	due := in.PenaltyOutstanding()
	if !due.IsPositive() || !amount.IsPositive() {
		return amount
	}
	paid := due
	if amount.LessThan(due) {
		paid = amount
	}
	in.PenaltyPaid = in.PenaltyPaid.Add(paid)
	return amount.Sub(paid)
}

// Transaction is a repayment received against the loan.
type Transaction struct {
	ID     uuid.UUID `json:"id"`
	Date   Date      `json:"date"`
	Amount Money     `json:"amount"`
}

// NewTransaction returns a repayment with a fresh identifier.
func NewTransaction(on Date, amount Money) *Transaction {
	return &Transaction{ID: uuid.New(), Date: on, Amount: amount}
}

// Allocator distributes a repayment across booked installments. Apply pays
// whatever the installments still owe and returns the unallocated remainder,
// which the generator treats as an early principal payment.
type Allocator interface {
	Apply(tx *Transaction, installments []*Installment) Money
}

// StandardAllocator pays installments oldest first, and within each one
// penalties, then fees, then interest, then principal.
type StandardAllocator struct{}

// Apply implements Allocator.
func (StandardAllocator) Apply(tx *Transaction, installments []*Installment) Money {
	remaining := tx.Amount
	for _, in := range installments {
		if !remaining.IsPositive() {
			break
		}
		if in.Due.After(tx.Date) && !in.Start.Before(tx.Date) {
			// not yet running; anything left is an advance
			continue
		}
		remaining = in.payPenalty(remaining)
		remaining = in.payFee(remaining)
		remaining = in.payInterest(remaining)
		remaining = in.payPrincipal(remaining)
	}
	return remaining
}
