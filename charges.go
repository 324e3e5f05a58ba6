package loan

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ChargeTime identifies when a charge falls due.
type ChargeTime int

const (
	// DisbursementCharge is collected when money goes out.
	DisbursementCharge ChargeTime = iota
	// InstallmentFeeCharge recurs on every repayment period.
	InstallmentFeeCharge
	// SpecifiedDueDateCharge falls due once, on its own date.
	SpecifiedDueDateCharge
	// OverdueInstallmentCharge is raised against an overdue installment with a
	// precomputed amount.
	OverdueInstallmentCharge
)

func (t ChargeTime) String() string {
	switch t {
	case DisbursementCharge:
		return "DISBURSEMENT"
	case InstallmentFeeCharge:
		return "INSTALMENT_FEE"
	case SpecifiedDueDateCharge:
		return "SPECIFIED_DUE_DATE"
	case OverdueInstallmentCharge:
		return "OVERDUE_INSTALLMENT"
	default:
		return "unknown"
	}
}

// ParseChargeTime parses a string into a ChargeTime.
func ParseChargeTime(s string) (ChargeTime, error) {
	switch s {
	case "DISBURSEMENT":
		return DisbursementCharge, nil
	case "INSTALMENT_FEE":
		return InstallmentFeeCharge, nil
	case "SPECIFIED_DUE_DATE":
		return SpecifiedDueDateCharge, nil
	case "OVERDUE_INSTALLMENT":
		return OverdueInstallmentCharge, nil
	default:
		return 0, fmt.Errorf("unknown charge time: %q", s)
	}
}

func (t ChargeTime) MarshalText() ([]byte, error) { return []byte(t.String()), nil }
func (t *ChargeTime) UnmarshalText(b []byte) error {
	v, err := ParseChargeTime(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ChargeCalculation identifies how a charge amount is computed.
type ChargeCalculation int

const (
	// FlatCharge is a fixed amount.
	FlatCharge ChargeCalculation = iota
	// PercentOfAmount is a percentage of principal.
	PercentOfAmount
	// PercentOfInterest is a percentage of interest.
	PercentOfInterest
	// PercentOfAmountAndInterest is a percentage of principal plus interest.
	PercentOfAmountAndInterest
)

func (c ChargeCalculation) String() string {
	switch c {
	case FlatCharge:
		return "FLAT"
	case PercentOfAmount:
		return "PERCENT_OF_AMOUNT"
	case PercentOfInterest:
		return "PERCENT_OF_INTEREST"
	case PercentOfAmountAndInterest:
		return "PERCENT_OF_AMOUNT_AND_INTEREST"
	default:
		return "unknown"
	}
}

// ParseChargeCalculation parses a string into a ChargeCalculation.
func ParseChargeCalculation(s string) (ChargeCalculation, error) {
	switch s {
	case "FLAT":
		return FlatCharge, nil
	case "PERCENT_OF_AMOUNT":
		return PercentOfAmount, nil
	case "PERCENT_OF_INTEREST":
		return PercentOfInterest, nil
	case "PERCENT_OF_AMOUNT_AND_INTEREST":
		return PercentOfAmountAndInterest, nil
	default:
		return 0, fmt.Errorf("unknown charge calculation: %q", s)
	}
}

func (c ChargeCalculation) MarshalText() ([]byte, error) { return []byte(c.String()), nil }
func (c *ChargeCalculation) UnmarshalText(b []byte) error {
	v, err := ParseChargeCalculation(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

func (c ChargeCalculation) percentageBased() bool { return c != FlatCharge }

// Charge is a fee or penalty attached to the loan.
type Charge struct {
	Name        string            `json:"name"`
	Time        ChargeTime        `json:"time"`
	Calculation ChargeCalculation `json:"calculation"`
	// Amount is the flat amount, or the percentage for percentage-based
	// calculations.
	Amount decimal.Decimal `json:"amount"`
	// DueDate applies to specified-due-date and overdue charges.
	DueDate Date `json:"dueDate,omitempty"`
	Penalty bool `json:"penalty,omitempty"`
	// ComputedAmount carries the externally computed amount of an overdue
	// installment charge.
	ComputedAmount Money `json:"computedAmount,omitempty"`
}

// dueInWindow reports whether the charge's due date falls in (from, to]. The
// first repayment period also collects charges dated on its start, i.e. the
// disbursement day.
func (c Charge) dueInWindow(from, to Date, firstPeriod bool) bool {
	if c.DueDate.IsZero() {
		return false
	}
	if firstPeriod && c.DueDate.Equal(from) {
		return true
	}
	return c.DueDate.After(from) && !c.DueDate.After(to)
}

// deferredToTotalInterest reports whether the charge needs the full-term
// interest figure, which only exists once the whole schedule is generated.
func (c Charge) deferredToTotalInterest() bool {
	return c.Time == SpecifiedDueDateCharge &&
		(c.Calculation == PercentOfInterest || c.Calculation == PercentOfAmountAndInterest)
}

func (c Charge) percentOf(base Money) Money {
	return base.MulDec(c.Amount.Div(decimal.NewFromInt(100)))
}

// partitionDeferredCharges splits the charges needing the full-term interest
// figure from the ones computable period by period.
func partitionDeferredCharges(charges []Charge) (active, deferred []Charge) {
	for _, c := range charges {
		if c.deferredToTotalInterest() {
			deferred = append(deferred, c)
		} else {
			active = append(active, c)
		}
	}
	return active, deferred
}

// totalDisbursementCharges sums the charges collected at disbursement time.
func totalDisbursementCharges(charges []Charge, principal Money, ctx RoundingContext) Money {
	sum := ctx.Zero()
	for _, c := range charges {
		if c.Time != DisbursementCharge {
			continue
		}
		if c.Calculation.percentageBased() {
			sum = sum.Add(c.percentOf(principal))
		} else {
			sum = sum.Add(MoneyFromDecimal(c.Amount, ctx.Currency))
		}
	}
	return ctx.Round(sum)
}

// chargesDueWithin accumulates the fee or penalty charges of one repayment
// period: recurring installment fees on the period's own principal and
// interest, dated charges whose due date lands in the window, and overdue
// charges with their precomputed amounts. principalToSchedule is the base of
// percent-of-amount dated charges; totalInterest is the base of deferred
// dated charges once known.
func chargesDueWithin(from, to Date, charges []Charge, penalties bool,
	periodPrincipal, periodInterest, principalToSchedule, totalInterest Money,
	firstPeriod bool, ctx RoundingContext) Money {

	sum := ctx.Zero()
	for _, c := range charges {
		if c.Penalty != penalties {
			continue
		}
		switch c.Time {
		case InstallmentFeeCharge:
			switch c.Calculation {
			case FlatCharge:
				sum = sum.Add(MoneyFromDecimal(c.Amount, ctx.Currency))
			case PercentOfAmount:
				sum = sum.Add(c.percentOf(periodPrincipal))
			case PercentOfInterest:
				sum = sum.Add(c.percentOf(periodInterest))
			case PercentOfAmountAndInterest:
				sum = sum.Add(c.percentOf(periodPrincipal.Add(periodInterest)))
			}
		case OverdueInstallmentCharge:
			if c.dueInWindow(from, to, firstPeriod) && c.Calculation.percentageBased() {
				sum = sum.Add(c.ComputedAmount)
			}
		case SpecifiedDueDateCharge:
			if !c.dueInWindow(from, to, firstPeriod) {
				continue
			}
			switch c.Calculation {
			case FlatCharge:
				sum = sum.Add(MoneyFromDecimal(c.Amount, ctx.Currency))
			case PercentOfAmount:
				sum = sum.Add(c.percentOf(principalToSchedule))
			case PercentOfInterest:
				sum = sum.Add(c.percentOf(totalInterest))
			case PercentOfAmountAndInterest:
				sum = sum.Add(c.percentOf(principalToSchedule.Add(totalInterest)))
			}
		}
	}
	return ctx.Round(sum)
}
