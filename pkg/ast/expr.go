package ast

import "github.com/riverline-labs/tenor/pkg/core"

// ExprKind tags the predicate-expression grammar of spec.md §4.1/§4.5:
// literals, fact references, quantifier-bound variables, field paths,
// the boolean connectives, quantifiers, comparisons, verdict_present,
// and the product operator allowed in Rule produce-payloads.
type ExprKind int

const (
	ExprLiteral ExprKind = iota
	ExprFactRef
	ExprVar
	ExprFieldPath
	ExprNot
	ExprAnd
	ExprOr
	ExprForAll
	ExprExists
	ExprCompare
	ExprVerdictPresent
	ExprProduct
)

// Literal is a syntax-level constant. Its surface kind is inferred
// from lexical form (spec.md §4.5): true/false -> Bool, an integer
// literal -> Int, a decimal literal -> Decimal, a quoted string ->
// Text by default, coercing to Enum/Date/DateTime/Money by context
// during type checking.
type Literal struct {
	Bool        *bool
	Int         *int64
	DecimalText string // present if this is a decimal literal
	Precision   int    // explicit precision carried by the decimal literal
	Scale       int    // explicit scale carried by the decimal literal
	Text        *string
	IsDecimal   bool
}

// Expr is the predicate expression tagged union. As with RawConstruct
// and FlowStep, every variant lives in one struct so a switch over
// Kind can be checked exhaustively; only the fields relevant to Kind
// are populated.
type Expr struct {
	Kind ExprKind
	Prov core.Provenance

	// Type is empty (Kind==0 zero value of BaseTypeKind looks like
	// TBool) until Pass 4 assigns it; pass4 always sets TypeSet=true
	// when it has computed a type, so "not yet type-checked" is
	// distinguishable from "type-checked as Bool".
	Type    BaseType
	TypeSet bool

	Literal *Literal
	FactRef string

	Var string // quantifier-bound variable reference, or the bound name itself at a ForAll/Exists node

	FieldBase *Expr
	FieldName string

	Operand *Expr // Not

	Left, Right *Expr // And, Or, Compare, Product

	CompareOp      string    // "=", "≠", "<", "≤", ">", "≥"
	ComparisonType *BaseType // the promoted type both sides were compared at, emitted by the serializer

	QuantVar    string
	QuantDomain *Expr
	QuantBody   *Expr

	VerdictType string // ExprVerdictPresent
}

// FactsReferenced walks the expression tree and collects every
// FactRef leaf, used for a Rule verdict's provenance.facts_used
// (spec.md §4.8.3).
func (e *Expr) FactsReferenced() []string {
	seen := map[string]bool{}
	var out []string
	var walk func(*Expr)
	walk = func(n *Expr) {
		if n == nil {
			return
		}
		if n.Kind == ExprFactRef {
			if !seen[n.FactRef] {
				seen[n.FactRef] = true
				out = append(out, n.FactRef)
			}
		}
		walk(n.Operand)
		walk(n.Left)
		walk(n.Right)
		walk(n.FieldBase)
		walk(n.QuantDomain)
		walk(n.QuantBody)
	}
	walk(e)
	return out
}

// VerdictsReferenced walks the expression tree and collects every
// verdict_present leaf's verdict type name, used both for a Rule's
// provenance.verdicts_used and for the stratification check of
// spec.md §4.5/§4.6.
func (e *Expr) VerdictsReferenced() []string {
	seen := map[string]bool{}
	var out []string
	var walk func(*Expr)
	walk = func(n *Expr) {
		if n == nil {
			return
		}
		if n.Kind == ExprVerdictPresent {
			if !seen[n.VerdictType] {
				seen[n.VerdictType] = true
				out = append(out, n.VerdictType)
			}
		}
		walk(n.Operand)
		walk(n.Left)
		walk(n.Right)
		walk(n.FieldBase)
		walk(n.QuantDomain)
		walk(n.QuantBody)
	}
	walk(e)
	return out
}
