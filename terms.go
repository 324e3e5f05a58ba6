package loan

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// InterestMethod selects how interest accrues over the loan term.
type InterestMethod int

const (
	// DecliningBalance charges interest on the live outstanding balance.
	DecliningBalance InterestMethod = iota
	// FlatInterest spreads a precomputed full-term interest over the periods.
	FlatInterest
)

func (m InterestMethod) String() string {
	switch m {
	case DecliningBalance:
		return "DECLINING_BALANCE"
	case FlatInterest:
		return "FLAT"
	default:
		return "unknown"
	}
}

// ParseInterestMethod parses a string into an InterestMethod.
func ParseInterestMethod(s string) (InterestMethod, error) {
	switch s {
	case "DECLINING_BALANCE":
		return DecliningBalance, nil
	case "FLAT":
		return FlatInterest, nil
	default:
		return 0, fmt.Errorf("unknown interest method: %q", s)
	}
}

func (m InterestMethod) MarshalText() ([]byte, error) { return []byte(m.String()), nil }
func (m *InterestMethod) UnmarshalText(b []byte) error {
	v, err := ParseInterestMethod(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// AmortizationMethod selects how principal is apportioned across periods.
type AmortizationMethod int

const (
	// EqualInstallments keeps principal+interest constant (EMI); principal is
	// derived as EMI minus the period interest.
	EqualInstallments AmortizationMethod = iota
	// EqualPrincipal repays a fixed principal amount every period.
	EqualPrincipal
)

func (m AmortizationMethod) String() string {
	switch m {
	case EqualInstallments:
		return "EQUAL_INSTALLMENT"
	case EqualPrincipal:
		return "EQUAL_PRINCIPAL"
	default:
		return "unknown"
	}
}

// ParseAmortizationMethod parses a string into an AmortizationMethod.
func ParseAmortizationMethod(s string) (AmortizationMethod, error) {
	switch s {
	case "EQUAL_INSTALLMENT":
		return EqualInstallments, nil
	case "EQUAL_PRINCIPAL":
		return EqualPrincipal, nil
	default:
		return 0, fmt.Errorf("unknown amortization method: %q", s)
	}
}

func (m AmortizationMethod) MarshalText() ([]byte, error) { return []byte(m.String()), nil }
func (m *AmortizationMethod) UnmarshalText(b []byte) error {
	v, err := ParseAmortizationMethod(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// CompoundingMethod selects which unpaid components fold into the
// interest-bearing balance on compounding dates.
type CompoundingMethod int

const (
	CompoundNone CompoundingMethod = iota
	CompoundInterest
	CompoundFee
	CompoundInterestAndFee
)

func (m CompoundingMethod) String() string {
	switch m {
	case CompoundNone:
		return "NONE"
	case CompoundInterest:
		return "INTEREST"
	case CompoundFee:
		return "FEE"
	case CompoundInterestAndFee:
		return "INTEREST_AND_FEE"
	default:
		return "unknown"
	}
}

// ParseCompoundingMethod parses a string into a CompoundingMethod.
func ParseCompoundingMethod(s string) (CompoundingMethod, error) {
	switch s {
	case "NONE":
		return CompoundNone, nil
	case "INTEREST":
		return CompoundInterest, nil
	case "FEE":
		return CompoundFee, nil
	case "INTEREST_AND_FEE":
		return CompoundInterestAndFee, nil
	default:
		return 0, fmt.Errorf("unknown compounding method: %q", s)
	}
}

func (m CompoundingMethod) MarshalText() ([]byte, error) { return []byte(m.String()), nil }
func (m *CompoundingMethod) UnmarshalText(b []byte) error {
	v, err := ParseCompoundingMethod(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// CompoundsInterest reports whether unpaid interest compounds.
func (m CompoundingMethod) CompoundsInterest() bool {
	return m == CompoundInterest || m == CompoundInterestAndFee
}

// CompoundsFee reports whether unpaid fees and penalties compound.
func (m CompoundingMethod) CompoundsFee() bool {
	return m == CompoundFee || m == CompoundInterestAndFee
}

// Enabled reports whether any compounding is configured.
func (m CompoundingMethod) Enabled() bool { return m != CompoundNone }

// RescheduleStrategy selects what happens when a period accumulates more paid
// principal than scheduled.
type RescheduleStrategy int

const (
	// ReduceEMIAmount recomputes the installment over the unchanged remaining term.
	ReduceEMIAmount RescheduleStrategy = iota
	// ReduceNumberOfInstallments keeps the installment; the loan closes earlier.
	ReduceNumberOfInstallments
	// RescheduleNextRepayments nets a standing credit against upcoming principal.
	RescheduleNextRepayments
)

func (s RescheduleStrategy) String() string {
	switch s {
	case ReduceEMIAmount:
		return "REDUCE_EMI_AMOUNT"
	case ReduceNumberOfInstallments:
		return "REDUCE_NUMBER_OF_INSTALLMENTS"
	case RescheduleNextRepayments:
		return "RESCHEDULE_NEXT_REPAYMENTS"
	default:
		return "unknown"
	}
}

// ParseRescheduleStrategy parses a string into a RescheduleStrategy.
func ParseRescheduleStrategy(s string) (RescheduleStrategy, error) {
	switch s {
	case "REDUCE_EMI_AMOUNT":
		return ReduceEMIAmount, nil
	case "REDUCE_NUMBER_OF_INSTALLMENTS":
		return ReduceNumberOfInstallments, nil
	case "RESCHEDULE_NEXT_REPAYMENTS":
		return RescheduleNextRepayments, nil
	default:
		return 0, fmt.Errorf("unknown reschedule strategy: %q", s)
	}
}

func (s RescheduleStrategy) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
func (s *RescheduleStrategy) UnmarshalText(b []byte) error {
	v, err := ParseRescheduleStrategy(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// PreClosureInterestRule selects how far interest runs when a payment closes
// the loan before its natural end.
type PreClosureInterestRule int

const (
	// PreCloseTillRestDate charges interest up to the rest date covering the payment.
	PreCloseTillRestDate PreClosureInterestRule = iota
	// PreCloseTillDate charges interest only up to the payment date itself.
	PreCloseTillDate
)

func (r PreClosureInterestRule) String() string {
	switch r {
	case PreCloseTillRestDate:
		return "TILL_REST_FREQUENCY_DATE"
	case PreCloseTillDate:
		return "TILL_PRE_CLOSURE_DATE"
	default:
		return "unknown"
	}
}

// ParsePreClosureInterestRule parses a string into a PreClosureInterestRule.
func ParsePreClosureInterestRule(s string) (PreClosureInterestRule, error) {
	switch s {
	case "TILL_REST_FREQUENCY_DATE":
		return PreCloseTillRestDate, nil
	case "TILL_PRE_CLOSURE_DATE":
		return PreCloseTillDate, nil
	default:
		return 0, fmt.Errorf("unknown pre-closure interest rule: %q", s)
	}
}

func (r PreClosureInterestRule) MarshalText() ([]byte, error) { return []byte(r.String()), nil }
func (r *PreClosureInterestRule) UnmarshalText(b []byte) error {
	v, err := ParsePreClosureInterestRule(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// FrequencyUnit is the unit of a repayment, rest or compounding frequency.
type FrequencyUnit int

const (
	Daily FrequencyUnit = iota
	Weekly
	Monthly
	Yearly
)

func (u FrequencyUnit) String() string {
	switch u {
	case Daily:
		return "DAYS"
	case Weekly:
		return "WEEKS"
	case Monthly:
		return "MONTHS"
	case Yearly:
		return "YEARS"
	default:
		return "unknown"
	}
}

// ParseFrequencyUnit parses a string into a FrequencyUnit.
func ParseFrequencyUnit(s string) (FrequencyUnit, error) {
	switch s {
	case "DAYS":
		return Daily, nil
	case "WEEKS":
		return Weekly, nil
	case "MONTHS":
		return Monthly, nil
	case "YEARS":
		return Yearly, nil
	default:
		return 0, fmt.Errorf("unknown frequency unit: %q", s)
	}
}

func (u FrequencyUnit) MarshalText() ([]byte, error) { return []byte(u.String()), nil }
func (u *FrequencyUnit) UnmarshalText(b []byte) error {
	v, err := ParseFrequencyUnit(string(b))
	if err != nil {
		return err
	}
	*u = v
	return nil
}

// periodsPerYear returns how many unit-periods fit in one year.
func (u FrequencyUnit) periodsPerYear() int64 {
	switch u {
	case Daily:
		return 365
	case Weekly:
		return 52
	case Monthly:
		return 12
	case Yearly:
		return 1
	default:
		panic("unknown frequency unit")
	}
}

// Frequency is a repetition interval: a unit and a multiplier, e.g. every 2
// weeks. The zero value means "same as the repayment frequency" wherever a
// rest or compounding frequency is expected.
type Frequency struct {
	Unit  FrequencyUnit `json:"unit"`
	Every int           `json:"every"`
}

// IsZero reports whether the frequency is unset.
func (f Frequency) IsZero() bool { return f.Every == 0 }

// Next returns the date one interval after d.
func (f Frequency) Next(d Date) Date { return f.step(d, 1) }

// Prev returns the date one interval before d.
func (f Frequency) Prev(d Date) Date { return f.step(d, -1) }

func (f Frequency) step(d Date, dir int) Date {
	n := f.Every * dir
	switch f.Unit {
	case Daily:
		return d.Add(n)
	case Weekly:
		return d.Add(7 * n)
	case Monthly:
		return d.AddMonths(n)
	case Yearly:
		return d.AddYears(n)
	default:
		panic("unknown frequency unit")
	}
}

// Tranche is one partial disbursement of a multi-disbursement loan.
type Tranche struct {
	Date      Date  `json:"date"`
	Amount    Money `json:"amount"`
	Disbursed bool  `json:"disbursed,omitempty"`
}

// TermVariationKind identifies what a term variation overrides.
type TermVariationKind int

const (
	// RateOverride replaces the nominal interest rate inside the window.
	RateOverride TermVariationKind = iota
	// PrincipalOverride replaces the interest-bearing balance inside the window.
	PrincipalOverride
	// SkipPeriod suppresses the period entirely: nothing falls due.
	SkipPeriod
)

func (k TermVariationKind) String() string {
	switch k {
	case RateOverride:
		return "RATE"
	case PrincipalOverride:
		return "PRINCIPAL"
	case SkipPeriod:
		return "SKIP_PERIOD"
	default:
		return "unknown"
	}
}

// ParseTermVariationKind parses a string into a TermVariationKind.
func ParseTermVariationKind(s string) (TermVariationKind, error) {
	switch s {
	case "RATE":
		return RateOverride, nil
	case "PRINCIPAL":
		return PrincipalOverride, nil
	case "SKIP_PERIOD":
		return SkipPeriod, nil
	default:
		return 0, fmt.Errorf("unknown term variation kind: %q", s)
	}
}

func (k TermVariationKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }
func (k *TermVariationKind) UnmarshalText(b []byte) error {
	v, err := ParseTermVariationKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// TermVariation is a date-window-scoped override of rate, principal or period
// skip applied during generation.
type TermVariation struct {
	Kind  TermVariationKind `json:"kind"`
	From  Date              `json:"from,omitempty"`
	Until Date              `json:"until,omitempty"`
	// Installment bounds the variation to a single installment number when
	// non-zero (used when the window dates are open).
	Installment int             `json:"installment,omitempty"`
	Value       decimal.Decimal `json:"value,omitempty"`
}

// AppliesTo reports whether the variation is active for a period window.
func (v TermVariation) AppliesTo(from, due Date, installment int) bool {
	if v.Installment != 0 {
		return v.Installment == installment
	}
	if !v.From.IsZero() && due.Before(v.From) {
		return false
	}
	if !v.Until.IsZero() && from.After(v.Until) {
		return false
	}
	return true
}

// appliesAt reports whether the variation is already in force at a resume point.
func (v TermVariation) appliesAt(on Date, installment int) bool {
	if v.Installment != 0 {
		return v.Installment <= installment
	}
	return !v.From.IsZero() && !v.From.After(on)
}

// Recalculation holds the interest-recalculation settings of a loan.
type Recalculation struct {
	Enabled bool `json:"enabled"`
	// RestFrequency is the rest schedule; zero means same as repayment.
	RestFrequency Frequency `json:"restFrequency,omitempty"`
	// CompoundingFrequency is the compounding schedule; zero means same as repayment.
	CompoundingFrequency Frequency              `json:"compoundingFrequency,omitempty"`
	Compounding          CompoundingMethod      `json:"compounding"`
	PreClosure           PreClosureInterestRule `json:"preClosure"`
}

// EMIChange switches the fixed installment amount from a given date on
// (multi-tranche loans can carry one EMI per tranche).
type EMIChange struct {
	From   Date            `json:"from"`
	Amount decimal.Decimal `json:"amount"`
}

// Terms is the full configuration of one schedule generation run.
//
// A Terms value is owned by a single run: the generator updates the derived
// fixed EMI / fixed principal amounts and grows Principal on tranche
// disbursement, so concurrent runs must not share one Terms value.
type Terms struct {
	Context   RoundingContext `json:"context"`
	Principal Money           `json:"principal"`
	// ApprovedPrincipal is the sanctioned amount of a multi-tranche loan; the
	// schedule is first laid out over it before tranches materialize.
	ApprovedPrincipal  Money              `json:"approvedPrincipal,omitempty"`
	NumberOfRepayments int                `json:"numberOfRepayments"`
	Repayment          Frequency          `json:"repayment"`
	AnnualInterestRate decimal.Decimal    `json:"annualInterestRate"`
	InterestMethod     InterestMethod     `json:"interestMethod"`
	Amortization       AmortizationMethod `json:"amortization"`
	GraceOnPrincipal   int                `json:"graceOnPrincipal,omitempty"`
	GraceOnInterest    int                `json:"graceOnInterest,omitempty"`

	ExpectedDisbursement Date `json:"expectedDisbursement"`
	// FirstRepayment optionally pins the first due date; later dates step from it.
	FirstRepayment Date `json:"firstRepayment,omitempty"`
	// InterestChargedFrom optionally overrides the date interest starts accruing.
	InterestChargedFrom Date `json:"interestChargedFrom,omitempty"`

	// FixedEMI is a caller-imposed installment amount; zero means derived.
	FixedEMI    Money       `json:"fixedEMI,omitempty"`
	EMISchedule []EMIChange `json:"emiSchedule,omitempty"`

	Tranches              []Tranche `json:"tranches,omitempty"`
	MaxOutstandingBalance Money     `json:"maxOutstandingBalance,omitempty"`

	Recalculation      Recalculation      `json:"recalculation,omitempty"`
	RescheduleStrategy RescheduleStrategy `json:"rescheduleStrategy"`
	Variations         []TermVariation    `json:"variations,omitempty"`

	// TotalInterestDue overrides the flat-method full-term interest (used by
	// the reschedule processor to preserve already-charged interest).
	TotalInterestDue Money `json:"totalInterestDue,omitempty"`

	// AsOf is the "today" of the run; zero means the wall-clock date. Tests
	// pin it for determinism.
	AsOf Date `json:"asOf,omitempty"`

	// run-scoped derived state
	fixedEMI       Money // effective installment for the current stretch of periods
	actualFixedEMI Money // caller-provided EMI, never recomputed
	fixedPrincipal Money // equal-principal amount for the current stretch
	loanEndDate    Date
}

// MultiDisbursed reports whether the loan disburses in tranches.
func (t *Terms) MultiDisbursed() bool { return len(t.Tranches) > 0 }

// today returns the pinned as-of date, or the wall-clock date.
func (t *Terms) today() Date {
	if t.AsOf.IsZero() {
		return Today()
	}
	return t.AsOf
}

// principalToBeScheduled returns the amount the schedule is laid out over.
func (t *Terms) principalToBeScheduled() Money {
	if t.MultiDisbursed() && t.ApprovedPrincipal.IsPositive() {
		return t.ApprovedPrincipal
	}
	return t.Principal
}

// periodRate converts the nominal annual rate (percent) into the fraction
// accruing over one repayment period. A non-zero annualOverride replaces the
// configured rate (term variations).
func (t *Terms) periodRate(annualOverride decimal.Decimal) decimal.Decimal {
	annual := t.AnnualInterestRate
	if !annualOverride.IsZero() {
		annual = annualOverride
	}
	every := decimal.NewFromInt(int64(t.Repayment.Every))
	base := decimal.NewFromInt(t.Repayment.Unit.periodsPerYear())
	return annual.Div(decimal.NewFromInt(100)).Mul(every).DivRound(base, 18)
}

// pmt computes the annuity installment for balance over the remaining term
// starting at periodNumber.
func (t *Terms) pmt(balance Money, periodNumber int) Money {
	remaining := t.NumberOfRepayments - periodNumber + 1
	if remaining < 1 {
		remaining = 1
	}
	r := t.periodRate(decimal.Decimal{})
	if r.IsZero() {
		return balance.DivInt(remaining)
	}
	one := decimal.NewFromInt(1)
	pow := one.Add(r).Pow(decimal.NewFromInt(int64(remaining)))
	numerator := balance.Amount().Mul(pow).Mul(r)
	denominator := pow.Sub(one)
	return MoneyFromDecimal(numerator.DivRound(denominator, 18), balance.Currency())
}

// updateFixedEMI derives the installment amount from the outstanding balance
// when the caller did not impose one. Only declining-balance equal-installment
// loans carry an EMI.
func (t *Terms) updateFixedEMI(balance Money, periodNumber int) bool {
	if !t.actualFixedEMI.IsZero() || t.InterestMethod != DecliningBalance || t.Amortization != EqualInstallments {
		return false
	}
	if periodNumber < t.GraceOnPrincipal+1 {
		periodNumber = t.GraceOnPrincipal + 1
	}
	t.fixedEMI = t.Context.Round(t.pmt(balance, periodNumber))
	return true
}

// updateFixedPrincipal recomputes the equal-principal amount over the
// remaining term.
func (t *Terms) updateFixedPrincipal(balance Money, periodNumber int) {
	remaining := t.NumberOfRepayments - t.GraceOnPrincipal - periodNumber + 1
	if remaining < 1 {
		remaining = 1
	}
	t.fixedPrincipal = t.Context.Round(balance.DivInt(remaining))
}

// setEMIForDate switches the effective EMI to the last scheduled change at or
// before due (multi-tranche per-date EMI table).
func (t *Terms) setEMIForDate(due Date) {
	for _, c := range t.EMISchedule {
		if !c.From.After(due) {
			t.fixedEMI = MoneyFromDecimal(c.Amount, t.Context.Currency)
		}
	}
}

// effectiveEMI returns the installment amount in force, preferring the
// caller-imposed one.
func (t *Terms) effectiveEMI() Money {
	if !t.actualFixedEMI.IsZero() {
		return t.actualFixedEMI
	}
	return t.fixedEMI
}

// totalInterestCharged computes the full-term interest for flat-method loans:
// principal x period rate x number of repayments, unless a reschedule carried
// an explicit figure over.
func (t *Terms) totalInterestCharged() Money {
	if !t.TotalInterestDue.IsZero() {
		return t.TotalInterestDue
	}
	if t.InterestMethod != FlatInterest {
		return t.Context.Zero()
	}
	r := t.periodRate(decimal.Decimal{})
	n := decimal.NewFromInt(int64(t.NumberOfRepayments))
	return t.Context.Round(t.principalToBeScheduled().MulDec(r).MulDec(n))
}

// beginRun snapshots the caller-imposed amortization amounts for one
// generation run.
func (t *Terms) beginRun() {
	t.actualFixedEMI = t.FixedEMI
	t.fixedEMI = t.FixedEMI
	t.fixedPrincipal = Money{}
}

// endRun restores the caller-visible EMI after a run (strategies may have
// rewritten the derived one).
func (t *Terms) endRun() {
	t.fixedEMI = t.actualFixedEMI
}

// Validate rejects configurations the generator cannot honor.
func (t *Terms) Validate() error {
	if t.NumberOfRepayments < 1 {
		return &ConfigurationError{Reason: "number of repayments must be at least 1"}
	}
	if t.Repayment.Every < 1 {
		return &ConfigurationError{Reason: "repayment frequency multiplier must be at least 1"}
	}
	if !t.Principal.IsPositive() && !t.MultiDisbursed() {
		return &ConfigurationError{Reason: "principal must be positive"}
	}
	if t.ExpectedDisbursement.IsZero() {
		return &ConfigurationError{Reason: "expected disbursement date is required"}
	}
	if t.InterestMethod == FlatInterest && t.Amortization == EqualInstallments && !t.FixedEMI.IsZero() {
		return &ConfigurationError{Reason: "fixed EMI cannot be combined with flat interest"}
	}
	if t.GraceOnPrincipal >= t.NumberOfRepayments {
		return &ConfigurationError{Reason: "grace on principal must leave at least one repaying period"}
	}
	return nil
}
