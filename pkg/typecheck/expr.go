package typecheck

import (
	"time"

	"github.com/riverline-labs/tenor/pkg/ast"
	"github.com/riverline-labs/tenor/pkg/money"
)

// typeExpr type-checks e in place, setting e.Type/e.TypeSet on every
// node in the tree (including e itself), and rewriting an unshadowed
// ExprVar into ExprFactRef where it resolves against the Fact index.
func (c *Checker) typeExpr(rc ast.RawConstruct, e *ast.Expr) error {
	switch e.Kind {
	case ast.ExprLiteral:
		return c.typeLiteral(e)
	case ast.ExprVar:
		return c.typeVar(rc, e)
	case ast.ExprFactRef:
		t, ok := c.factType(e.FactRef)
		if !ok {
			return newTypeError(rc, *e, "reference to undeclared fact %q", e.FactRef)
		}
		e.Type, e.TypeSet = t, true
		return nil
	case ast.ExprFieldPath:
		if err := c.typeExpr(rc, e.FieldBase); err != nil {
			return err
		}
		base := e.FieldBase.Type
		if base.Kind != ast.TRecord {
			return newTypeError(rc, *e, "field path on non-record type %v", base.Kind)
		}
		ft, ok := base.Fields[e.FieldName]
		if !ok {
			return newTypeError(rc, *e, "record has no field %q", e.FieldName)
		}
		e.Type, e.TypeSet = ft, true
		return nil
	case ast.ExprNot:
		if err := c.typeExpr(rc, e.Operand); err != nil {
			return err
		}
		if e.Operand.Type.Kind != ast.TBool {
			return newTypeError(rc, *e, "'not' operand must be Bool, found %v", e.Operand.Type.Kind)
		}
		e.Type, e.TypeSet = ast.BaseType{Kind: ast.TBool}, true
		return nil
	case ast.ExprAnd, ast.ExprOr:
		if err := c.typeExpr(rc, e.Left); err != nil {
			return err
		}
		if err := c.typeExpr(rc, e.Right); err != nil {
			return err
		}
		if e.Left.Type.Kind != ast.TBool || e.Right.Type.Kind != ast.TBool {
			return newTypeError(rc, *e, "boolean connective operands must be Bool")
		}
		e.Type, e.TypeSet = ast.BaseType{Kind: ast.TBool}, true
		return nil
	case ast.ExprForAll, ast.ExprExists:
		if err := c.typeExpr(rc, e.QuantDomain); err != nil {
			return err
		}
		if e.QuantDomain.Type.Kind != ast.TList {
			return newTypeError(rc, *e, "quantifier domain must be List-typed, found %v", e.QuantDomain.Type.Kind)
		}
		elemType := ast.BaseType{Kind: ast.TText}
		if e.QuantDomain.Type.Elem != nil {
			elemType = *e.QuantDomain.Type.Elem
		}
		c.pushScope()
		c.bind(e.QuantVar, elemType)
		err := c.typeExpr(rc, e.QuantBody)
		c.popScope()
		if err != nil {
			return err
		}
		if e.QuantBody.Type.Kind != ast.TBool {
			return newTypeError(rc, *e, "quantifier body must be Bool, found %v", e.QuantBody.Type.Kind)
		}
		e.Type, e.TypeSet = ast.BaseType{Kind: ast.TBool}, true
		return nil
	case ast.ExprCompare:
		return c.typeCompare(rc, e)
	case ast.ExprVerdictPresent:
		if _, ok := c.idx.VerdictStrata[e.VerdictType]; !ok {
			return newTypeError(rc, *e, "verdict_present references undeclared verdict type %q", e.VerdictType)
		}
		e.Type, e.TypeSet = ast.BaseType{Kind: ast.TBool}, true
		return nil
	case ast.ExprProduct:
		if err := c.typeExpr(rc, e.Left); err != nil {
			return err
		}
		if err := c.typeExpr(rc, e.Right); err != nil {
			return err
		}
		left, err := toDecimal(e.Left.Type)
		if err != nil {
			return newTypeError(rc, *e, "product left operand: %v", err)
		}
		right, err := toDecimal(e.Right.Type)
		if err != nil {
			return newTypeError(rc, *e, "product right operand: %v", err)
		}
		e.Type = ast.BaseType{Kind: ast.TDecimal, Precision: left.Precision + right.Precision, Scale: left.Scale + right.Scale}
		e.TypeSet = true
		return nil
	default:
		return newTypeError(rc, *e, "unhandled expression kind %d", e.Kind)
	}
}

func (c *Checker) typeLiteral(e *ast.Expr) error {
	l := e.Literal
	switch {
	case l.Bool != nil:
		e.Type = ast.BaseType{Kind: ast.TBool}
	case l.IsDecimal:
		e.Type = ast.BaseType{Kind: ast.TDecimal, Precision: l.Precision, Scale: l.Scale}
	case l.Int != nil:
		e.Type = ast.BaseType{Kind: ast.TInt}
	default:
		e.Type = ast.BaseType{Kind: ast.TText}
	}
	e.TypeSet = true
	return nil
}

// coerceLiteralTo rewrites e's type from the lexically-inferred Text
// to want when e is a quoted-string literal being compared against an
// Enum/Date/DateTime-typed operand, validating enum membership or date
// format at the point of coercion. A no-op for any other operand shape.
func (c *Checker) coerceLiteralTo(rc ast.RawConstruct, e *ast.Expr, want ast.BaseType) error {
	if e.Kind != ast.ExprLiteral || e.Literal == nil || e.Literal.Text == nil {
		return nil
	}
	s := *e.Literal.Text
	switch want.Kind {
	case ast.TEnum:
		found := false
		for _, v := range want.Values {
			if v == s {
				found = true
				break
			}
		}
		if !found {
			return newTypeError(rc, *e, "%q is not a member of the declared enum", s)
		}
		e.Type, e.TypeSet = want, true
	case ast.TDate:
		if _, err := time.Parse("2006-01-02", s); err != nil {
			return newTypeError(rc, *e, "invalid Date literal %q: %v", s, err)
		}
		e.Type, e.TypeSet = want, true
	case ast.TDateTime:
		if _, err := time.Parse(time.RFC3339, s); err != nil {
			return newTypeError(rc, *e, "invalid DateTime literal %q: %v", s, err)
		}
		e.Type, e.TypeSet = want, true
	}
	return nil
}

// typeVar resolves a bare identifier: a quantifier-bound variable if
// one is in scope, otherwise a fact reference (rewriting e.Kind to
// ExprFactRef so downstream passes' FactsReferenced() tree walk finds
// it), otherwise an error.
func (c *Checker) typeVar(rc ast.RawConstruct, e *ast.Expr) error {
	if t, ok := c.lookupBound(e.Var); ok {
		e.Type, e.TypeSet = t, true
		return nil
	}
	t, ok := c.factType(e.Var)
	if !ok {
		return newTypeError(rc, *e, "reference to undeclared name %q", e.Var)
	}
	e.Kind = ast.ExprFactRef
	e.FactRef = e.Var
	e.Type, e.TypeSet = t, true
	return nil
}

func (c *Checker) typeCompare(rc ast.RawConstruct, e *ast.Expr) error {
	if err := c.typeExpr(rc, e.Left); err != nil {
		return err
	}
	if err := c.typeExpr(rc, e.Right); err != nil {
		return err
	}
	if err := c.coerceLiteralTo(rc, e.Left, e.Right.Type); err != nil {
		return err
	}
	if err := c.coerceLiteralTo(rc, e.Right, e.Left.Type); err != nil {
		return err
	}
	left, right := e.Left.Type, e.Right.Type

	if e.CompareOp == "=" || e.CompareOp == "≠" {
		promoted, ok := promote(left, right)
		if !ok {
			return newTypeError(rc, *e, "cannot compare %v with %v", left.Kind, right.Kind)
		}
		e.ComparisonType = &promoted
		e.Type, e.TypeSet = ast.BaseType{Kind: ast.TBool}, true
		return nil
	}

	if !left.IsOrdered() || !right.IsOrdered() {
		return newTypeError(rc, *e, "operator %s requires an ordered type, found %v and %v", e.CompareOp, left.Kind, right.Kind)
	}
	promoted, ok := promote(left, right)
	if !ok {
		return newTypeError(rc, *e, "cannot compare %v with %v", left.Kind, right.Kind)
	}
	if promoted.Kind == ast.TMoney && left.Kind == ast.TMoney && right.Kind == ast.TMoney && left.Currency != right.Currency {
		return newTypeError(rc, *e, "money comparison requires identical currency, found %s and %s", left.Currency, right.Currency)
	}
	e.ComparisonType = &promoted
	e.Type, e.TypeSet = ast.BaseType{Kind: ast.TBool}, true
	return nil
}

// promote implements the Int ⊑ Decimal ⊑ Money(same currency) lattice
// of spec.md §4.5/§9 for a pair of comparison operands, returning the
// type both sides are compared at.
func promote(a, b ast.BaseType) (ast.BaseType, bool) {
	if a.Equal(b) {
		return a, true
	}
	if a.Kind == ast.TMoney && b.Kind == ast.TMoney {
		if a.Currency != b.Currency {
			return ast.BaseType{}, false
		}
		return a, true
	}
	if a.Kind == ast.TMoney || b.Kind == ast.TMoney {
		moneyType, other := a, b
		if b.Kind == ast.TMoney {
			moneyType, other = b, a
		}
		if other.Kind != ast.TInt && other.Kind != ast.TDecimal {
			return ast.BaseType{}, false
		}
		return moneyType, true
	}
	if a.Kind == ast.TDecimal || b.Kind == ast.TDecimal {
		if a.Kind != ast.TInt && a.Kind != ast.TDecimal {
			return ast.BaseType{}, false
		}
		if b.Kind != ast.TInt && b.Kind != ast.TDecimal {
			return ast.BaseType{}, false
		}
		scale := a.Scale
		if b.Kind == ast.TDecimal && b.Scale > scale {
			scale = b.Scale
		}
		prec := a.Precision
		if b.Precision > prec {
			prec = b.Precision
		}
		return ast.BaseType{Kind: ast.TDecimal, Precision: prec, Scale: scale}, true
	}
	return ast.BaseType{}, false
}

func toDecimal(t ast.BaseType) (ast.BaseType, error) {
	switch t.Kind {
	case ast.TDecimal:
		return t, nil
	case ast.TInt:
		d := money.PromoteInt(0)
		return ast.BaseType{Kind: ast.TDecimal, Precision: d.Precision, Scale: 0}, nil
	default:
		return ast.BaseType{}, errKind(t.Kind)
	}
}

type errKind ast.BaseTypeKind

func (e errKind) Error() string { return "expected Int or Decimal" }
