// Package eval implements the Evaluator: contract deserialization,
// fact assembly, stratified rule evaluation, operation execution, and
// frozen-snapshot flow execution and action-space computation. See
// spec.md §4.8.
package eval

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/riverline-labs/tenor/pkg/ast"
	"github.com/riverline-labs/tenor/pkg/money"
)

// Value is a runtime fact/literal value. Exactly one of the typed
// fields is populated, tagged by Kind, following the same tagged-
// union-as-struct shape used throughout the AST layer.
type Value struct {
	Kind ast.BaseTypeKind

	Bool    bool
	Int     int64
	Decimal money.Decimal
	Money   money.Money
	Text    string
	Time    time.Time
	HasTime bool // set whenever Time is populated (Date, DateTime, Duration); formatting dispatches on Kind
	List    []Value
	Record  map[string]Value
	Variant string // TaggedUnion
	Payload *Value // TaggedUnion
}

func BoolValue(b bool) Value             { return Value{Kind: ast.TBool, Bool: b} }
func IntValue(n int64) Value             { return Value{Kind: ast.TInt, Int: n} }
func TextValue(s string) Value           { return Value{Kind: ast.TText, Text: s} }
func DecimalValue(d money.Decimal) Value { return Value{Kind: ast.TDecimal, Decimal: d} }
func MoneyValue(m money.Money) Value     { return Value{Kind: ast.TMoney, Money: m} }
func ListValue(vs []Value) Value         { return Value{Kind: ast.TList, List: vs} }

// MarshalJSON renders v as the plain JSON shape a Verdict/Action
// payload carries over the wire: a scalar or array/object of scalars,
// never the internal tagged-union representation.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ast.TBool:
		return json.Marshal(v.Bool)
	case ast.TInt:
		return json.Marshal(v.Int)
	case ast.TDecimal:
		return json.Marshal(v.Decimal.String())
	case ast.TMoney:
		return json.Marshal(v.Money.String())
	case ast.TText, ast.TEnum:
		return json.Marshal(v.Text)
	case ast.TDate:
		return json.Marshal(v.Time.Format("2006-01-02"))
	case ast.TDateTime:
		return json.Marshal(v.Time.Format(time.RFC3339))
	case ast.TDuration:
		return json.Marshal(v.Time.Sub(time.Unix(0, 0)).String())
	case ast.TList:
		return json.Marshal(v.List)
	case ast.TRecord:
		return json.Marshal(v.Record)
	case ast.TTaggedUnion:
		return json.Marshal(map[string]interface{}{"variant": v.Variant, "payload": v.Payload})
	default:
		return json.Marshal(nil)
	}
}

// Equal reports value equality, used for '=' and '≠'.
func (v Value) Equal(other Value) (bool, error) {
	if v.Kind != other.Kind {
		return false, fmt.Errorf("cannot compare %v with %v", v.Kind, other.Kind)
	}
	switch v.Kind {
	case ast.TBool:
		return v.Bool == other.Bool, nil
	case ast.TInt:
		return v.Int == other.Int, nil
	case ast.TDecimal:
		return v.Decimal.Cmp(other.Decimal) == 0, nil
	case ast.TMoney:
		c, err := v.Money.Cmp(other.Money)
		if err != nil {
			return false, err
		}
		return c == 0, nil
	case ast.TText, ast.TEnum:
		return v.Text == other.Text, nil
	case ast.TDate, ast.TDateTime:
		return v.Time.Equal(other.Time), nil
	default:
		return false, fmt.Errorf("type %v is not comparable by equality here", v.Kind)
	}
}

// Cmp orders two values, valid only for ordered types.
func (v Value) Cmp(other Value) (int, error) {
	// Int/Decimal/Money are promoted before Cmp is called by the
	// predicate evaluator; this method assumes matching Kind.
	switch v.Kind {
	case ast.TInt:
		switch {
		case v.Int < other.Int:
			return -1, nil
		case v.Int > other.Int:
			return 1, nil
		default:
			return 0, nil
		}
	case ast.TDecimal:
		return v.Decimal.Cmp(other.Decimal), nil
	case ast.TMoney:
		return v.Money.Cmp(other.Money)
	case ast.TText, ast.TEnum:
		switch {
		case v.Text < other.Text:
			return -1, nil
		case v.Text > other.Text:
			return 1, nil
		default:
			return 0, nil
		}
	case ast.TDate, ast.TDateTime, ast.TDuration:
		switch {
		case v.Time.Before(other.Time):
			return -1, nil
		case v.Time.After(other.Time):
			return 1, nil
		default:
			return 0, nil
		}
	default:
		return 0, fmt.Errorf("type %v is not ordered", v.Kind)
	}
}

// promoteNumeric lifts a (Int, Decimal) or (Decimal, Money) pair onto
// a common representation, per spec.md §4.5/§9's promotion lattice.
func promoteNumeric(a, b Value) (Value, Value, error) {
	if a.Kind == b.Kind {
		return a, b, nil
	}
	if a.Kind == ast.TInt && b.Kind == ast.TDecimal {
		return Value{Kind: ast.TDecimal, Decimal: money.PromoteInt(a.Int)}, b, nil
	}
	if a.Kind == ast.TDecimal && b.Kind == ast.TInt {
		return a, Value{Kind: ast.TDecimal, Decimal: money.PromoteInt(b.Int)}, nil
	}
	if a.Kind == ast.TMoney && (b.Kind == ast.TInt || b.Kind == ast.TDecimal) {
		var d money.Decimal
		if b.Kind == ast.TInt {
			d = money.PromoteInt(b.Int)
		} else {
			d = b.Decimal
		}
		return a, Value{Kind: ast.TMoney, Money: money.Money{Currency: a.Money.Currency, Amount: d}}, nil
	}
	if b.Kind == ast.TMoney && (a.Kind == ast.TInt || a.Kind == ast.TDecimal) {
		bb, aa, err := promoteNumeric(b, a)
		return aa, bb, err
	}
	return Value{}, Value{}, fmt.Errorf("cannot promote %v and %v to a common type", a.Kind, b.Kind)
}
