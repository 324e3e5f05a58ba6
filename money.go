package loan

import (
	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// RoundingMode selects how amounts are rounded to the currency scale.
type RoundingMode int

const (
	// RoundHalfEven is banker's rounding, the default for accounting paths.
	RoundHalfEven RoundingMode = iota
	// RoundHalfUp rounds .5 away from zero.
	RoundHalfUp
	// RoundDown truncates toward zero.
	RoundDown
	// RoundUp rounds away from zero.
	RoundUp
)

// RoundingContext carries the currency, scale and rounding mode used for one
// generation run. Arithmetic stays exact; rounding happens once per period
// when amounts are fixed into the schedule.
type RoundingContext struct {
	Currency string       `json:"currency"`
	Scale    int32        `json:"scale"`
	Mode     RoundingMode `json:"mode,omitempty"`
}

// NewRoundingContext builds a context for the given ISO currency code, taking
// the scale from the currency's minor unit.
func NewRoundingContext(currency string, mode RoundingMode) RoundingContext {
	// the Money constructor never returns a nil currency, unknown codes get
	// a 2-digit fallback
	cur := gomoney.New(0, currency).Currency()
	return RoundingContext{Currency: currency, Scale: int32(cur.Fraction), Mode: mode}
}

// Round rounds m to the context's scale using the context's mode.
func (c RoundingContext) Round(m Money) Money {
	var v decimal.Decimal
	switch c.Mode {
	case RoundHalfUp:
		v = m.value.Round(c.Scale)
	case RoundDown:
		v = m.value.RoundDown(c.Scale)
	case RoundUp:
		v = m.value.RoundUp(c.Scale)
	default:
		v = m.value.RoundBank(c.Scale)
	}
	return Money{value: v, cur: m.cur}
}

// Zero returns the zero amount in the context's currency.
func (c RoundingContext) Zero() Money { return Money{cur: c.Currency} }

// Money represents an exact monetary value in a currency.
//
// The amount is a fixed-point decimal; arithmetic never passes through binary
// floating point. The "" currency is weak: it adopts the other operand's
// currency, so the zero Money is a usable additive identity.
type Money struct {
	value decimal.Decimal
	cur   string
}

// M builds a Money from any numeric value and a currency code.
func M[T float32 | float64 | int | int32 | int64 | uint | uint32 | uint64 | decimal.Decimal](value T, currency string) Money {
	return Money{value: newDecimal(value), cur: currency}
}

// MoneyFromDecimal wraps an exact decimal amount with a currency tag.
func MoneyFromDecimal(value decimal.Decimal, currency string) Money {
	return Money{value: value, cur: currency}
}

func newDecimal(v any) decimal.Decimal {
	switch x := v.(type) {
	case decimal.Decimal:
		return x
	case float32:
		return decimal.NewFromFloat32(x)
	case float64:
		return decimal.NewFromFloat(x)
	case int:
		return decimal.NewFromInt(int64(x))
	case int32:
		return decimal.NewFromInt32(x)
	case int64:
		return decimal.NewFromInt(x)
	case uint:
		return decimal.NewFromUint64(uint64(x))
	case uint32:
		return decimal.NewFromInt(int64(x))
	case uint64:
		return decimal.NewFromUint64(x)
	}
	panic("unsupported numeric type")
}

// currency returns the full currency metadata for the money's code.
func (m Money) currency() gomoney.Currency {
	// to get a never-nil currency we go through the Money constructor
	return *gomoney.New(0, m.cur).Currency()
}

// String returns the amount formatted with the currency's symbol and scale.
func (m Money) String() string {
	cur := m.currency()
	dec := m.value.Shift(int32(cur.Fraction))
	return cur.Formatter().Format(dec.Round(0).IntPart())
}

// Amount returns the exact decimal value.
func (m Money) Amount() decimal.Decimal { return m.value }

// Currency returns the currency code.
func (m Money) Currency() string { return m.cur }

func (m Money) Equal(n Money) bool              { return m.value.Equal(n.value) && m.cur == n.cur }
func (m Money) IsZero() bool                    { return m.value.IsZero() }
func (m Money) IsPositive() bool                { return m.value.IsPositive() }
func (m Money) IsNegative() bool                { return m.value.IsNegative() }
func (m Money) LessThan(n Money) bool           { return m.value.LessThan(n.value) }
func (m Money) GreaterThan(n Money) bool        { return m.value.GreaterThan(n.value) }
func (m Money) GreaterThanOrEqual(n Money) bool { return m.value.GreaterThanOrEqual(n.value) }
func (m Money) Neg() Money                      { return Money{value: m.value.Neg(), cur: m.cur} }

// Zero returns the zero amount in m's currency.
func (m Money) Zero() Money { return Money{cur: m.cur} }

// binary operators

func (m Money) Add(n Money) Money { return Money{value: m.value.Add(n.value), cur: cur(m, n)} }
func (m Money) Sub(n Money) Money { return Money{value: m.value.Sub(n.value), cur: cur(m, n)} }

// MulDec scales the amount by an exact decimal factor.
func (m Money) MulDec(f decimal.Decimal) Money {
	return Money{value: m.value.Mul(f), cur: m.cur}
}

// DivDec divides the amount by an exact decimal divisor, keeping enough
// precision for later rounding (16 digits past the currency scale).
func (m Money) DivDec(f decimal.Decimal) Money {
	return Money{value: m.value.DivRound(f, 18), cur: m.cur}
}

// DivInt divides the amount by an integer count.
func (m Money) DivInt(n int) Money { return m.DivDec(decimal.NewFromInt(int64(n))) }

// cur makes the "" currency totally weak.
func cur(a, b Money) string {
	if a.cur == "" {
		return b.cur
	}
	if b.cur == "" {
		return a.cur
	}
	if a.cur != b.cur {
		panic("currency mismatch " + a.cur + "!=" + b.cur)
	}
	return a.cur
}

// MarshalJSON renders the amount with its currency.
func (m Money) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Optional("currency", m.cur)
	w.Append("amount", m.value)
	return w.MarshalJSON()
}

// UnmarshalJSON accepts {"currency":..., "amount":...} and a bare number.
func (m *Money) UnmarshalJSON(data []byte) error {
	var obj struct {
		Currency string          `json:"currency"`
		Amount   decimal.Decimal `json:"amount"`
	}
	if err := jsonUnmarshalStrictOrNumber(data, &obj.Amount, &obj); err != nil {
		return err
	}
	m.value = obj.Amount
	m.cur = obj.Currency
	return nil
}
