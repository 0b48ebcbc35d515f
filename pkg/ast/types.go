// Package ast defines the polymorphic AST the lexer/parser produce
// (RawConstruct, one variant per construct kind) and the type and
// predicate-expression trees every later pass rewrites or consumes.
// See spec.md §3 (Core entities) and §9 ("Polymorphic AST").
package ast

import "github.com/riverline-labs/tenor/pkg/core"

// BaseTypeKind tags the BaseType sum type.
type BaseTypeKind int

const (
	TBool BaseTypeKind = iota
	TInt
	TDecimal
	TMoney
	TText
	TDate
	TDateTime
	TDuration
	TEnum
	TList
	TRecord
	TTaggedUnion
	TTypeRef // exists only before Pass 4; resolved thereafter
)

// BaseType is the compound/primitive type sum type of spec.md §3's
// data model table. Only the fields relevant to Kind are populated.
type BaseType struct {
	Kind BaseTypeKind

	// Int
	Min, Max *int64

	// Decimal
	Precision, Scale int

	// Money
	Currency string

	// Text
	MaxLen *int

	// Enum
	Values []string

	// List
	Elem    *BaseType
	ListMax *int

	// Record
	Fields map[string]BaseType

	// TaggedUnion: variant name -> payload type
	Variants map[string]BaseType

	// TypeRef
	RefName string
}

var baseTypeKindNames = [...]string{
	TBool: "Bool", TInt: "Int", TDecimal: "Decimal", TMoney: "Money",
	TText: "Text", TDate: "Date", TDateTime: "DateTime", TDuration: "Duration",
	TEnum: "Enum", TList: "List", TRecord: "Record", TTaggedUnion: "TaggedUnion",
	TTypeRef: "TypeRef",
}

// String returns the surface type name (e.g. "Decimal"), used in
// type-checker diagnostics.
func (k BaseTypeKind) String() string {
	if int(k) < 0 || int(k) >= len(baseTypeKindNames) {
		return "Unknown"
	}
	return baseTypeKindNames[k]
}

// IsOrdered reports whether < ≤ > ≥ are defined for this type, per
// spec.md §4.5.
func (t BaseType) IsOrdered() bool {
	switch t.Kind {
	case TInt, TDecimal, TMoney, TDate, TDateTime, TDuration, TText:
		return true
	default:
		return false
	}
}

// Equal reports structural type equality, used for TypeRef-resolved
// comparisons and for TaggedUnion variant payload checks.
func (t BaseType) Equal(other BaseType) bool {
	if t.Kind != other.Kind {
		return false
	}
	switch t.Kind {
	case TDecimal:
		return t.Precision == other.Precision && t.Scale == other.Scale
	case TMoney:
		return t.Currency == other.Currency
	case TEnum:
		if len(t.Values) != len(other.Values) {
			return false
		}
		for i, v := range t.Values {
			if other.Values[i] != v {
				return false
			}
		}
		return true
	case TList:
		if t.Elem == nil || other.Elem == nil {
			return t.Elem == other.Elem
		}
		return t.Elem.Equal(*other.Elem)
	case TRecord:
		if len(t.Fields) != len(other.Fields) {
			return false
		}
		for k, v := range t.Fields {
			ov, ok := other.Fields[k]
			if !ok || !v.Equal(ov) {
				return false
			}
		}
		return true
	case TTaggedUnion:
		if len(t.Variants) != len(other.Variants) {
			return false
		}
		for k, v := range t.Variants {
			ov, ok := other.Variants[k]
			if !ok || !v.Equal(ov) {
				return false
			}
		}
		return true
	case TTypeRef:
		return t.RefName == other.RefName
	default:
		return true
	}
}

// RawConstruct is the unified AST node the parser emits: one variant
// per construct kind, tagged by Kind, with a kind-specific payload and
// a Provenance. This is the "closed sum type" spec.md §9 calls for;
// Go expresses it as a single struct with kind-conditional fields
// rather than an interface hierarchy, so later passes can pattern
// match with an exhaustive switch on Kind and the compiler has no way
// to silently skip a variant the way an unchecked type-switch default
// branch would.
type RawConstruct struct {
	Kind core.ConstructKind
	ID   string // empty for Import and System, which are not id-bearing
	Prov core.Provenance

	Import    *ImportBody
	TypeDecl  *TypeDeclBody
	Fact      *FactBody
	Entity    *EntityBody
	Persona   *PersonaBody
	Source    *SourceBody
	Rule      *RuleBody
	Operation *OperationBody
	Flow      *FlowBody
	System    *SystemBody
}

// ImportBody is the payload of an Import construct.
type ImportBody struct {
	Path string
}

// TypeDeclBody is the payload of a TypeDecl construct: a named alias
// for a BaseType, possibly itself a TypeRef before Pass 4 resolves it.
type TypeDeclBody struct {
	Type BaseType
}

// FactBody is the payload of a Fact construct.
type FactBody struct {
	Type    BaseType
	Default *Literal
	Source  *SourceBinding
}

// SourceBinding names the external system/field a Fact is sourced
// from (documentation only; the evaluator never resolves it itself —
// facts arrive pre-assembled, per spec.md §7 "fact ground-property").
type SourceBinding struct {
	System string
	Field  string
}

// SourceBody is the payload of a Source construct (an external system
// declaration facts may bind to).
type SourceBody struct {
	Name string
}

// EntityBody is the payload of an Entity construct: a finite state
// machine.
type EntityBody struct {
	States      []string
	Initial     string
	InitialProv core.Provenance
	Transitions []Transition
	Parent      string // optional entity hierarchy parent ref, "" if none
}

// Transition is one declared (from, to) edge of an Entity.
type Transition struct {
	From, To string
}

// PersonaBody is the payload of a Persona construct (id-only; the
// struct exists for symmetry and future extension fields).
type PersonaBody struct{}

// RuleBody is the payload of a Rule construct: a stratified verdict
// producer.
type RuleBody struct {
	Stratum     int
	When        Expr
	ProduceType string
	Payload     Expr
}

// OperationBody is the payload of an Operation construct.
type OperationBody struct {
	AllowedPersonas []string
	Precondition    Expr
	Effects         []Effect
	ErrorContract   []string
}

// Effect is one (entity, from, to) transition an Operation performs.
type Effect struct {
	EntityID string
	From, To string
}

// FlowBody is the payload of a Flow construct: a DAG workflow.
type FlowBody struct {
	Entry    string
	Steps    map[string]FlowStep
	Snapshot string // "at_initiation" or "live"
}

// SystemBody is the payload of a System construct. Cross-contract
// composition is out of this module's scope per spec.md §9; the
// payload is retained only so System constructs pass through the
// pipeline without erroring on an unrecognized kind; having no id,
// they are skipped by Pass 2's index.
type SystemBody struct {
	Name string
}
