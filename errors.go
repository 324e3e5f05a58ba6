package loan

import "fmt"

// ConfigurationError reports loan terms the generator cannot produce a
// schedule for, e.g. an imposed installment smaller than one period's
// interest.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid loan configuration: %s", e.Reason)
}

// OverLimitError reports a tranche disbursement that would push the
// outstanding balance past the configured cap.
type OverLimitError struct {
	Limit     Money
	Attempted Money
	On        Date
}

func (e *OverLimitError) Error() string {
	return fmt.Sprintf("disbursement on %s raises outstanding balance to %s, over the %s limit", e.On, e.Attempted, e.Limit)
}

// InconsistentStateError reports a resume snapshot whose fields contradict
// each other or the loan terms.
type InconsistentStateError struct {
	Reason string
}

func (e *InconsistentStateError) Error() string {
	return fmt.Sprintf("inconsistent resume state: %s", e.Reason)
}
