// Package interchange implements Pass 6, the canonical serializer:
// a single deterministic JSON value for an elaborated bundle (every
// object's keys lexicographically sorted, numeric values never
// emitted as bare JSON numbers where precision matters). The
// evaluator's decoder in pkg/eval reads this shape without sharing Go
// types with this package. See spec.md §4.7.
package interchange

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Field is one key/value pair of an Obj.
type Field struct {
	Key   string
	Value interface{}
}

// F constructs a Field. A nil Value is omitted entirely by Obj's
// MarshalJSON, so optional fields can be built unconditionally with
// F("field", maybeNilValue).
func F(key string, value interface{}) Field { return Field{Key: key, Value: value} }

// Obj is a JSON object whose keys are sorted lexicographically at
// marshal time regardless of construction order, satisfying spec.md
// §4.7's "every object's keys are lexicographically sorted" rule for
// every nesting level without hand-sorting at every call site.
type Obj []Field

// O constructs an Obj from a list of fields in any order.
func O(fields ...Field) Obj { return Obj(fields) }

// MarshalJSON implements json.Marshaler with sorted keys and omission
// of nil-valued fields.
func (o Obj) MarshalJSON() ([]byte, error) {
	sorted := make(Obj, 0, len(o))
	for _, f := range o {
		if f.Value == nil {
			continue
		}
		sorted = append(sorted, f)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range sorted {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
