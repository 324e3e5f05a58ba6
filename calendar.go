package loan

import (
	"fmt"
	"time"
)

// Calendar answers the date questions schedule generation asks: where the
// next due date falls, how a date moves off a non-working day, and where the
// recalculation rest and compounding schedules land. Implementations must be
// pure functions of their configuration so a run stays deterministic.
type Calendar interface {
	// NextRepaymentDate returns the raw due date following after. When first
	// is true the result is the first due date of the loan and after is the
	// disbursement date.
	NextRepaymentDate(after Date, t *Terms, first bool) Date

	// AdjustForNonWorkingDay moves a raw due date off holidays and
	// non-working weekdays according to policy.
	AdjustForNonWorkingDay(d Date, t *Terms) Date

	// NextRestDate returns the first rest-schedule date on or after the
	// given date.
	NextRestDate(onOrAfter Date, t *Terms) Date

	// NextCompoundingDate returns the first compounding-schedule date on or
	// after the given date, or the zero Date when compounding is off.
	NextCompoundingDate(onOrAfter Date, t *Terms) Date

	// ExtendTermForDailyRepayments reports whether daily loans absorb
	// non-working-day moves by shifting all later due dates too.
	ExtendTermForDailyRepayments(t *Terms) bool
}

// HolidayPolicy selects how a due date landing on a non-working day moves.
type HolidayPolicy int

const (
	// MoveToNextWorkingDay pushes the date forward to the next working day.
	MoveToNextWorkingDay HolidayPolicy = iota
	// MoveToPreviousWorkingDay pulls the date back to the last working day.
	MoveToPreviousWorkingDay
	// KeepScheduledDate leaves the date where it falls.
	KeepScheduledDate
)

func (p HolidayPolicy) String() string {
	switch p {
	case MoveToNextWorkingDay:
		return "NEXT_WORKING_DAY"
	case MoveToPreviousWorkingDay:
		return "PREVIOUS_WORKING_DAY"
	case KeepScheduledDate:
		return "KEEP_SCHEDULED_DATE"
	default:
		return "unknown"
	}
}

// ParseHolidayPolicy parses a string into a HolidayPolicy.
func ParseHolidayPolicy(s string) (HolidayPolicy, error) {
	switch s {
	case "NEXT_WORKING_DAY":
		return MoveToNextWorkingDay, nil
	case "PREVIOUS_WORKING_DAY":
		return MoveToPreviousWorkingDay, nil
	case "KEEP_SCHEDULED_DATE":
		return KeepScheduledDate, nil
	default:
		return 0, fmt.Errorf("unknown holiday policy: %q", s)
	}
}

// DefaultCalendar is the stock Calendar: due dates step by the repayment
// frequency from the disbursement (or pinned first repayment) date, rest and
// compounding schedules step by their own frequencies from the disbursement
// date, and non-working days move per Policy.
type DefaultCalendar struct {
	// NonWorking marks weekdays off, e.g. Saturday and Sunday.
	NonWorking map[time.Weekday]bool
	// Holidays marks individual dates off.
	Holidays map[Date]bool
	Policy   HolidayPolicy
	// ExtendDailyTerm makes daily loans push later due dates along with a
	// non-working-day move instead of shortening the moved period.
	ExtendDailyTerm bool
}

// WeekendCalendar returns a calendar treating Saturday and Sunday as
// non-working, moving dates forward.
func WeekendCalendar() *DefaultCalendar {
	return &DefaultCalendar{
		NonWorking: map[time.Weekday]bool{time.Saturday: true, time.Sunday: true},
		Policy:     MoveToNextWorkingDay,
	}
}

func (c *DefaultCalendar) working(d Date) bool {
	if c.NonWorking[d.Weekday()] {
		return false
	}
	return !c.Holidays[d]
}

// NextRepaymentDate implements Calendar.
func (c *DefaultCalendar) NextRepaymentDate(after Date, t *Terms, first bool) Date {
	if first && !t.FirstRepayment.IsZero() {
		return t.FirstRepayment
	}
	return t.Repayment.Next(after)
}

// AdjustForNonWorkingDay implements Calendar.
func (c *DefaultCalendar) AdjustForNonWorkingDay(d Date, t *Terms) Date {
	if c.working(d) || c.Policy == KeepScheduledDate {
		return d
	}
	step := 1
	if c.Policy == MoveToPreviousWorkingDay {
		step = -1
	}
	for i := 0; i < 366; i++ {
		d = d.Add(step)
		if c.working(d) {
			return d
		}
	}
	// every day of the year marked off; give the raw date back
	return d
}

// NextRestDate implements Calendar.
func (c *DefaultCalendar) NextRestDate(onOrAfter Date, t *Terms) Date {
	freq := t.Recalculation.RestFrequency
	if freq.IsZero() {
		freq = t.Repayment
	}
	return stepUntil(t.ExpectedDisbursement, onOrAfter, freq)
}

// NextCompoundingDate implements Calendar.
func (c *DefaultCalendar) NextCompoundingDate(onOrAfter Date, t *Terms) Date {
	if !t.Recalculation.Compounding.Enabled() {
		return Date{}
	}
	freq := t.Recalculation.CompoundingFrequency
	if freq.IsZero() {
		freq = t.Repayment
	}
	return stepUntil(t.ExpectedDisbursement, onOrAfter, freq)
}

// ExtendTermForDailyRepayments implements Calendar.
func (c *DefaultCalendar) ExtendTermForDailyRepayments(t *Terms) bool {
	return c.ExtendDailyTerm && t.Repayment.Unit == Daily && t.Repayment.Every == 1
}

// stepUntil walks a frequency forward from seed to the first date on or
// after the target.
func stepUntil(seed, onOrAfter Date, freq Frequency) Date {
	d := seed
	for d.Before(onOrAfter) {
		d = freq.Next(d)
	}
	return d
}
