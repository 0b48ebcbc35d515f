package interchange

import "github.com/riverline-labs/tenor/pkg/ast"

// DecimalValue builds the structured decimal form spec.md §4.7
// requires: {"kind":"decimal_value","precision":P,"scale":S,"value":"STRING"}.
func DecimalValue(precision, scale int, value string) Obj {
	return O(
		F("kind", "decimal_value"),
		F("precision", precision),
		F("scale", scale),
		F("value", value),
	)
}

// MoneyValue builds {"kind":"money_value","amount":<decimal_value>,"currency":"ISO"}.
func MoneyValue(amount Obj, currency string) Obj {
	return O(
		F("kind", "money_value"),
		F("amount", amount),
		F("currency", currency),
	)
}

// BoolLiteral builds {"kind":"bool_literal","value":true|false}, used
// where a structured literal form is required by context (a produced
// verdict payload, a Literal node in a serialized predicate) rather
// than a bare JSON boolean.
func BoolLiteral(value bool) Obj {
	return O(F("kind", "bool_literal"), F("value", value))
}

// Provenance builds {"file":..., "line":...}.
func Provenance(file string, line int) Obj {
	return O(F("file", file), F("line", line))
}

// Literal serializes an ast.Literal to its canonical JSON form: a
// structured decimal_value for decimals, a bare string/int for
// Text/Int, and a structured bool_literal for Bool (context always
// requires the structured form for Bool per spec.md §4.7).
func Literal(l *ast.Literal) interface{} {
	switch {
	case l.Bool != nil:
		return BoolLiteral(*l.Bool)
	case l.IsDecimal:
		return DecimalValue(l.Precision, l.Scale, l.DecimalText)
	case l.Int != nil:
		return *l.Int
	case l.Text != nil:
		return *l.Text
	default:
		return nil
	}
}

// Type serializes a resolved BaseType to its canonical JSON shape.
func Type(t ast.BaseType) Obj {
	switch t.Kind {
	case ast.TBool:
		return O(F("kind", "Bool"))
	case ast.TInt:
		fields := Obj{F("kind", "Int")}
		if t.Min != nil {
			fields = append(fields, F("min", *t.Min))
		}
		if t.Max != nil {
			fields = append(fields, F("max", *t.Max))
		}
		return fields
	case ast.TDecimal:
		return O(F("kind", "Decimal"), F("precision", t.Precision), F("scale", t.Scale))
	case ast.TMoney:
		return O(F("kind", "Money"), F("currency", t.Currency))
	case ast.TText:
		fields := Obj{F("kind", "Text")}
		if t.MaxLen != nil {
			fields = append(fields, F("max_len", *t.MaxLen))
		}
		return fields
	case ast.TDate:
		return O(F("kind", "Date"))
	case ast.TDateTime:
		return O(F("kind", "DateTime"))
	case ast.TDuration:
		return O(F("kind", "Duration"))
	case ast.TEnum:
		return O(F("kind", "Enum"), F("values", t.Values))
	case ast.TList:
		var elem interface{}
		if t.Elem != nil {
			elem = Type(*t.Elem)
		}
		return O(F("kind", "List"), F("elem", elem))
	case ast.TRecord:
		fields := map[string]interface{}{}
		for k, ft := range t.Fields {
			fields[k] = Type(ft)
		}
		return O(F("kind", "Record"), F("fields", fieldMapObj(fields)))
	case ast.TTaggedUnion:
		variants := map[string]interface{}{}
		for k, vt := range t.Variants {
			variants[k] = Type(vt)
		}
		return O(F("kind", "TaggedUnion"), F("variants", fieldMapObj(variants)))
	case ast.TTypeRef:
		return O(F("kind", "TypeRef"), F("name", t.RefName))
	default:
		return O(F("kind", "Unknown"))
	}
}

// fieldMapObj turns a string-keyed map into an Obj so its keys sort
// lexicographically like every other object in the bundle.
func fieldMapObj(m map[string]interface{}) Obj {
	fields := make(Obj, 0, len(m))
	for k, v := range m {
		fields = append(fields, F(k, v))
	}
	return fields
}
