package eval

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/riverline-labs/tenor/pkg/ast"
	"github.com/riverline-labs/tenor/pkg/core"
	"github.com/riverline-labs/tenor/pkg/money"
)

// FactSet is the immutable result of §4.8.2's fact assembly: a typed,
// fully-coerced value for every declared Fact.
type FactSet map[string]Value

// AssembleFacts coerces an untyped id→value input map against the
// contract's Fact declarations. Callers should decode their input JSON
// with a json.Decoder in UseNumber mode so integer fields survive as
// json.Number rather than float64.
func AssembleFacts(c *Contract, input map[string]interface{}) (FactSet, error) {
	remaining := make(map[string]bool, len(input))
	for id := range input {
		remaining[id] = true
	}

	out := FactSet{}
	for _, rc := range c.Index.All(core.KindFact) {
		id := rc.ID
		delete(remaining, id)
		raw, present := input[id]
		if !present {
			if rc.Fact.Default != nil {
				v, err := coerceLiteralDefault(rc.Fact.Default, rc.Fact.Type)
				if err != nil {
					return nil, &EvalError{Kind: ErrBadContract, FactID: id, Detail: err.Error()}
				}
				out[id] = v
				continue
			}
			return nil, &EvalError{Kind: ErrMissingFact, FactID: id}
		}
		v, err := coerceValue(rc.Fact.Type, raw)
		if err != nil {
			return nil, &EvalError{Kind: ErrTypeMismatch, FactID: id, Detail: err.Error()}
		}
		out[id] = v
	}

	for id := range remaining {
		return nil, &EvalError{Kind: ErrUnknownFact, FactID: id}
	}
	return out, nil
}

func coerceLiteralDefault(l *ast.Literal, t ast.BaseType) (Value, error) {
	switch {
	case l.Bool != nil:
		return coerceValue(t, *l.Bool)
	case l.IsDecimal:
		return coerceValue(t, l.DecimalText)
	case l.Int != nil:
		return coerceValue(t, *l.Int)
	case l.Text != nil:
		return coerceValue(t, *l.Text)
	default:
		return Value{}, fmt.Errorf("default literal has no value")
	}
}

func coerceValue(t ast.BaseType, raw interface{}) (Value, error) {
	switch t.Kind {
	case ast.TBool:
		b, ok := raw.(bool)
		if !ok {
			return Value{}, fmt.Errorf("expected Bool, got %T", raw)
		}
		return BoolValue(b), nil

	case ast.TInt:
		n, err := asInt64(raw)
		if err != nil {
			return Value{}, err
		}
		if t.Min != nil && n < *t.Min {
			return Value{}, fmt.Errorf("%d is below minimum %d", n, *t.Min)
		}
		if t.Max != nil && n > *t.Max {
			return Value{}, fmt.Errorf("%d is above maximum %d", n, *t.Max)
		}
		return IntValue(n), nil

	case ast.TDecimal:
		s, ok := raw.(string)
		if !ok {
			return Value{}, fmt.Errorf("Decimal fact requires a string value, got %T", raw)
		}
		d, err := money.NewDecimal(t.Precision, t.Scale, s)
		if err != nil {
			return Value{}, err
		}
		return DecimalValue(d), nil

	case ast.TMoney:
		m, ok := raw.(map[string]interface{})
		if !ok {
			return Value{}, fmt.Errorf("Money fact requires an {amount, currency} object, got %T", raw)
		}
		amountRaw, ok := m["amount"]
		if !ok {
			return Value{}, fmt.Errorf("Money fact missing \"amount\"")
		}
		amountStr, ok := amountRaw.(string)
		if !ok {
			return Value{}, fmt.Errorf("Money amount requires a string value, got %T", amountRaw)
		}
		currency, _ := m["currency"].(string)
		if currency != t.Currency {
			return Value{}, fmt.Errorf("currency %q does not match declared currency %q", currency, t.Currency)
		}
		d, err := money.NewDecimal(18, moneyScaleOrDefault(t), amountStr)
		if err != nil {
			return Value{}, err
		}
		return MoneyValue(money.Money{Currency: currency, Amount: d}), nil

	case ast.TText:
		s, ok := raw.(string)
		if !ok {
			return Value{}, fmt.Errorf("expected Text, got %T", raw)
		}
		if t.MaxLen != nil && len(s) > *t.MaxLen {
			return Value{}, fmt.Errorf("text exceeds max length %d", *t.MaxLen)
		}
		return TextValue(s), nil

	case ast.TEnum:
		s, ok := raw.(string)
		if !ok {
			return Value{}, fmt.Errorf("expected Enum string, got %T", raw)
		}
		found := false
		for _, v := range t.Values {
			if v == s {
				found = true
				break
			}
		}
		if !found {
			return Value{}, fmt.Errorf("%q is not a member of the declared enum", s)
		}
		return Value{Kind: ast.TEnum, Text: s}, nil

	case ast.TDate:
		s, ok := raw.(string)
		if !ok {
			return Value{}, fmt.Errorf("expected an ISO-8601 Date string, got %T", raw)
		}
		tm, err := time.Parse("2006-01-02", s)
		if err != nil {
			return Value{}, fmt.Errorf("invalid Date %q: %w", s, err)
		}
		return Value{Kind: ast.TDate, Time: tm, HasTime: true}, nil

	case ast.TDateTime:
		s, ok := raw.(string)
		if !ok {
			return Value{}, fmt.Errorf("expected an ISO-8601 DateTime string, got %T", raw)
		}
		tm, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return Value{}, fmt.Errorf("invalid DateTime %q: %w", s, err)
		}
		return Value{Kind: ast.TDateTime, Time: tm, HasTime: true}, nil

	case ast.TDuration:
		s, ok := raw.(string)
		if !ok {
			return Value{}, fmt.Errorf("expected a Duration string, got %T", raw)
		}
		d, err := time.ParseDuration(s)
		if err != nil {
			return Value{}, fmt.Errorf("invalid Duration %q: %w", s, err)
		}
		return Value{Kind: ast.TDuration, Time: time.Unix(0, 0).Add(d), HasTime: true}, nil

	case ast.TList:
		arr, ok := raw.([]interface{})
		if !ok {
			return Value{}, fmt.Errorf("expected a List array, got %T", raw)
		}
		if t.ListMax != nil && len(arr) > *t.ListMax {
			return Value{}, fmt.Errorf("list exceeds max length %d", *t.ListMax)
		}
		elems := make([]Value, len(arr))
		for i, e := range arr {
			if t.Elem == nil {
				return Value{}, fmt.Errorf("list type has no declared element type")
			}
			v, err := coerceValue(*t.Elem, e)
			if err != nil {
				return Value{}, fmt.Errorf("list element %d: %w", i, err)
			}
			elems[i] = v
		}
		return ListValue(elems), nil

	case ast.TRecord:
		obj, err := toStringMap(raw)
		if err != nil {
			return Value{}, fmt.Errorf("expected a Record object: %w", err)
		}
		rec := make(map[string]Value, len(t.Fields))
		for name, ft := range t.Fields {
			fv, present := obj[name]
			if !present {
				return Value{}, fmt.Errorf("record missing declared field %q", name)
			}
			v, err := coerceValue(ft, fv)
			if err != nil {
				return Value{}, fmt.Errorf("record field %q: %w", name, err)
			}
			rec[name] = v
		}
		return Value{Kind: ast.TRecord, Record: rec}, nil

	case ast.TTaggedUnion:
		obj, err := toStringMap(raw)
		if err != nil {
			return Value{}, fmt.Errorf("expected a TaggedUnion object: %w", err)
		}
		variant, ok := obj["variant"].(string)
		if !ok {
			return Value{}, fmt.Errorf("tagged union value missing string \"variant\"")
		}
		payloadType, ok := t.Variants[variant]
		if !ok {
			return Value{}, fmt.Errorf("%q is not a declared variant", variant)
		}
		var payload *Value
		if raw, present := obj["payload"]; present {
			pv, err := coerceValue(payloadType, raw)
			if err != nil {
				return Value{}, fmt.Errorf("variant %q payload: %w", variant, err)
			}
			payload = &pv
		}
		return Value{Kind: ast.TTaggedUnion, Variant: variant, Payload: payload}, nil

	default:
		return Value{}, fmt.Errorf("unsupported fact type kind %v", t.Kind)
	}
}

// moneyScaleOrDefault returns the currency's minor-unit scale; the
// contract format carries only the currency code, so this defaults to
// 2 (the common case) when no finer declaration is available.
func moneyScaleOrDefault(t ast.BaseType) int {
	return 2
}

// toStringMap normalizes a Record/TaggedUnion fact value to
// map[string]interface{}, accepting not just the direct JSON-decoded
// shape but anything mapstructure can coerce (map[interface{}]interface{}
// from a YAML-sourced fact map, a Go struct a caller built fact input
// from directly, etc.), matching spec.md §4.8.2's "Record requires an
// object with all declared fields" without forcing every caller onto
// encoding/json's exact decoded shape.
func toStringMap(raw interface{}) (map[string]interface{}, error) {
	if m, ok := raw.(map[string]interface{}); ok {
		return m, nil
	}
	out := map[string]interface{}{}
	if err := mapstructure.Decode(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func asInt64(raw interface{}) (int64, error) {
	switch v := raw.(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("invalid Int %q: %w", v.String(), err)
		}
		return n, nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		if v != float64(int64(v)) {
			return 0, fmt.Errorf("%v is not an integer", v)
		}
		return int64(v), nil
	default:
		return 0, fmt.Errorf("expected Int, got %T", raw)
	}
}
