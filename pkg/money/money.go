// Package money implements the fixed-point numeric model spec.md §3 and
// §9 require: arbitrary-precision decimals with a declared (precision,
// scale), money values carrying an ISO currency, and the Int ⊑ Decimal
// ⊑ Money(same currency) promotion lattice with round-half-to-even.
// Floating point is never used for contract numerics — see spec.md §9.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Decimal is a fixed-point value with a declared precision (total
// significant digits) and scale (digits after the point).
type Decimal struct {
	Precision int
	Scale     int
	Value     decimal.Decimal
}

// NewDecimal builds a Decimal from a digit string, rejecting values
// whose digit count exceeds precision. If the string has more decimal
// places than scale, it is rounded half-to-even to scale places,
// matching spec.md §4.8.2's fact-coercion rule.
func NewDecimal(precision, scale int, literal string) (Decimal, error) {
	v, err := decimal.NewFromString(literal)
	if err != nil {
		return Decimal{}, fmt.Errorf("invalid decimal literal %q: %w", literal, err)
	}
	return NewDecimalFromValue(precision, scale, v)
}

// NewDecimalFromValue builds a Decimal from an already-parsed
// shopspring value, rounding to scale and validating precision.
func NewDecimalFromValue(precision, scale int, v decimal.Decimal) (Decimal, error) {
	rounded := v.RoundBank(int32(scale))
	if digitCount(rounded) > precision {
		return Decimal{}, fmt.Errorf("decimal %s exceeds precision %d", rounded.String(), precision)
	}
	return Decimal{Precision: precision, Scale: scale, Value: rounded}, nil
}

// digitCount returns the number of significant digits in v, ignoring
// sign and the decimal point.
func digitCount(v decimal.Decimal) int {
	s := v.Abs().String()
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits == 0 {
		return 1
	}
	return digits
}

// String renders the decimal at its declared scale, e.g. "3.14".
func (d Decimal) String() string {
	return d.Value.StringFixed(int32(d.Scale))
}

// Cmp orders two decimals numerically (scale/precision are irrelevant
// to ordering; only the value matters, per spec.md §4.5's promotion
// rule that mixed precision/scale decimals compare by value).
func (d Decimal) Cmp(other Decimal) int {
	return d.Value.Cmp(other.Value)
}

// Add returns d + other, with the result's scale/precision chosen to
// contain both exactly, per spec.md §4.5's numeric promotion rule.
func (d Decimal) Add(other Decimal) Decimal {
	scale := maxInt(d.Scale, other.Scale)
	sum := d.Value.Add(other.Value)
	return Decimal{Precision: containingPrecision(sum, scale), Scale: scale, Value: sum}
}

// Mul returns d * other (the "Products" rule of spec.md §4.5), with
// scale equal to the sum of operand scales, matching exact decimal
// multiplication semantics.
func (d Decimal) Mul(other Decimal) Decimal {
	scale := d.Scale + other.Scale
	product := d.Value.Mul(other.Value)
	return Decimal{Precision: containingPrecision(product, scale), Scale: scale, Value: product}
}

func containingPrecision(v decimal.Decimal, scale int) int {
	n := digitCount(v)
	if n < scale+1 {
		return scale + 1
	}
	return n
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// PromoteInt lifts an integer into a Decimal with scale 0, the Int ⊑
// Decimal step of the promotion lattice.
func PromoteInt(i int64) Decimal {
	v := decimal.NewFromInt(i)
	return Decimal{Precision: digitCount(v), Scale: 0, Value: v}
}

// Money is a Decimal amount tagged with an ISO-4217 currency code.
type Money struct {
	Currency string
	Amount   Decimal
}

// Cmp orders two Money values. It is the caller's responsibility to
// have already rejected mismatched currencies — see SameCurrency.
func (m Money) Cmp(other Money) (int, error) {
	if m.Currency != other.Currency {
		return 0, fmt.Errorf("currency mismatch: %s vs %s", m.Currency, other.Currency)
	}
	return m.Amount.Cmp(other.Amount), nil
}

// SameCurrency reports whether two Money values share a currency; the
// type checker (Pass 4) and evaluator both gate comparisons on this,
// per spec.md §4.5 "Money comparisons require identical currency."
func (m Money) SameCurrency(other Money) bool {
	return m.Currency == other.Currency
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Currency, m.Amount.String())
}
