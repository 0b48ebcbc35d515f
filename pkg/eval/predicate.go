package eval

import (
	"fmt"
	"time"

	"github.com/riverline-labs/tenor/pkg/ast"
	"github.com/riverline-labs/tenor/pkg/money"
)

// VerdictProvenance traces how a verdict was produced: the producing
// rule, its stratum, and the facts and prior verdicts its predicate
// actually touched. Field names and JSON shape follow the upstream
// riverline-labs/tenor Go SDK's VerdictProvenance.
type VerdictProvenance struct {
	Rule         string   `json:"rule"`
	Stratum      int      `json:"stratum"`
	FactsUsed    []string `json:"facts_used"`
	VerdictsUsed []string `json:"verdicts_used"`
}

// VerdictInstance is one produced verdict, carrying the provenance
// §4.8.3 requires.
type VerdictInstance struct {
	Type       string            `json:"verdict_type"`
	Payload    Value             `json:"payload"`
	Provenance VerdictProvenance `json:"provenance"`
}

// VerdictSummary is the compact verdict representation carried in an
// ActionSpace, matching the upstream SDK's VerdictSummary.
type VerdictSummary struct {
	VerdictType   string `json:"verdict_type"`
	Payload       Value  `json:"payload"`
	ProducingRule string `json:"producing_rule"`
	Stratum       int    `json:"stratum"`
}

func (v VerdictInstance) summary() VerdictSummary {
	return VerdictSummary{
		VerdictType:   v.Type,
		Payload:       v.Payload,
		ProducingRule: v.Provenance.Rule,
		Stratum:       v.Provenance.Stratum,
	}
}

// VerdictSet maps a produced verdict type to its (unique, per §4.3's
// RuleVerdicts invariant) producing instance.
type VerdictSet map[string]VerdictInstance

// Snapshot is the frozen (FactSet, VerdictSet) pair flow execution
// reads from once computed, per §4.8.5's central invariant.
type Snapshot struct {
	Facts    FactSet
	Verdicts VerdictSet
}

// evalScope threads the bound-variable environment through predicate
// evaluation; quantifiers push and pop entries here.
type evalScope struct {
	facts    FactSet
	verdicts VerdictSet
	bound    map[string]Value
}

func newScope(facts FactSet, verdicts VerdictSet) *evalScope {
	return &evalScope{facts: facts, verdicts: verdicts, bound: map[string]Value{}}
}

func (s *evalScope) withBound(name string, v Value) *evalScope {
	child := &evalScope{facts: s.facts, verdicts: s.verdicts, bound: make(map[string]Value, len(s.bound)+1)}
	for k, val := range s.bound {
		child.bound[k] = val
	}
	child.bound[name] = v
	return child
}

// EvalPredicate evaluates a type-checked Bool expression, returning the
// resulting Bool.
func EvalPredicate(e *ast.Expr, facts FactSet, verdicts VerdictSet) (bool, error) {
	v, err := evalExpr(e, newScope(facts, verdicts))
	if err != nil {
		return false, err
	}
	if v.Kind != ast.TBool {
		return false, fmt.Errorf("expression did not evaluate to Bool")
	}
	return v.Bool, nil
}

func evalExpr(e *ast.Expr, scope *evalScope) (Value, error) {
	switch e.Kind {
	case ast.ExprLiteral:
		return evalLiteral(e.Literal, e.Type)

	case ast.ExprFactRef:
		v, ok := scope.facts[e.FactRef]
		if !ok {
			return Value{}, fmt.Errorf("fact %q not present in fact set", e.FactRef)
		}
		return v, nil

	case ast.ExprVar:
		v, ok := scope.bound[e.Var]
		if !ok {
			return Value{}, fmt.Errorf("unbound variable %q", e.Var)
		}
		return v, nil

	case ast.ExprFieldPath:
		base, err := evalExpr(e.FieldBase, scope)
		if err != nil {
			return Value{}, err
		}
		if base.Kind != ast.TRecord {
			return Value{}, fmt.Errorf("field access on non-Record value")
		}
		v, ok := base.Record[e.FieldName]
		if !ok {
			return Value{}, fmt.Errorf("record has no field %q", e.FieldName)
		}
		return v, nil

	case ast.ExprNot:
		v, err := evalExpr(e.Operand, scope)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(!v.Bool), nil

	case ast.ExprAnd:
		l, err := evalExpr(e.Left, scope)
		if err != nil {
			return Value{}, err
		}
		if !l.Bool {
			return BoolValue(false), nil
		}
		r, err := evalExpr(e.Right, scope)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(r.Bool), nil

	case ast.ExprOr:
		l, err := evalExpr(e.Left, scope)
		if err != nil {
			return Value{}, err
		}
		if l.Bool {
			return BoolValue(true), nil
		}
		r, err := evalExpr(e.Right, scope)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(r.Bool), nil

	case ast.ExprForAll, ast.ExprExists:
		domain, err := evalExpr(e.QuantDomain, scope)
		if err != nil {
			return Value{}, err
		}
		if domain.Kind != ast.TList {
			return Value{}, fmt.Errorf("quantifier domain did not evaluate to a List")
		}
		wantAll := e.Kind == ast.ExprForAll
		for _, elem := range domain.List {
			child := scope.withBound(e.QuantVar, elem)
			v, err := evalExpr(e.QuantBody, child)
			if err != nil {
				return Value{}, err
			}
			if wantAll && !v.Bool {
				return BoolValue(false), nil
			}
			if !wantAll && v.Bool {
				return BoolValue(true), nil
			}
		}
		return BoolValue(wantAll), nil

	case ast.ExprCompare:
		return evalCompare(e, scope)

	case ast.ExprVerdictPresent:
		_, ok := scope.verdicts[e.VerdictType]
		return BoolValue(ok), nil

	case ast.ExprProduct:
		return evalProduct(e, scope)

	default:
		return Value{}, fmt.Errorf("unhandled expression kind %v", e.Kind)
	}
}

func evalLiteral(l *ast.Literal, t ast.BaseType) (Value, error) {
	switch {
	case l.Bool != nil:
		return BoolValue(*l.Bool), nil
	case l.IsDecimal:
		d, err := money.NewDecimal(l.Precision, l.Scale, l.DecimalText)
		if err != nil {
			return Value{}, fmt.Errorf("decimal literal %q: %w", l.DecimalText, err)
		}
		if t.Kind == ast.TMoney {
			return MoneyValue(money.Money{Currency: t.Currency, Amount: d}), nil
		}
		return DecimalValue(d), nil
	case l.Int != nil:
		return IntValue(*l.Int), nil
	case l.Text != nil:
		switch t.Kind {
		case ast.TEnum:
			return Value{Kind: ast.TEnum, Text: *l.Text}, nil
		case ast.TDate:
			tm, err := time.Parse("2006-01-02", *l.Text)
			if err != nil {
				return Value{}, fmt.Errorf("invalid Date literal %q: %w", *l.Text, err)
			}
			return Value{Kind: ast.TDate, Time: tm, HasTime: true}, nil
		case ast.TDateTime:
			tm, err := time.Parse(time.RFC3339, *l.Text)
			if err != nil {
				return Value{}, fmt.Errorf("invalid DateTime literal %q: %w", *l.Text, err)
			}
			return Value{Kind: ast.TDateTime, Time: tm, HasTime: true}, nil
		default:
			return TextValue(*l.Text), nil
		}
	default:
		return Value{}, fmt.Errorf("literal expression carries no value")
	}
}

func evalCompare(e *ast.Expr, scope *evalScope) (Value, error) {
	l, err := evalExpr(e.Left, scope)
	if err != nil {
		return Value{}, err
	}
	r, err := evalExpr(e.Right, scope)
	if err != nil {
		return Value{}, err
	}
	if isNumeric(l.Kind) && isNumeric(r.Kind) && l.Kind != r.Kind {
		l, r, err = promoteNumeric(l, r)
		if err != nil {
			return Value{}, err
		}
	}

	switch e.CompareOp {
	case "=":
		eq, err := l.Equal(r)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(eq), nil
	case "≠":
		eq, err := l.Equal(r)
		if err != nil {
			return Value{}, err
		}
		return BoolValue(!eq), nil
	case "<", "≤", ">", "≥":
		c, err := l.Cmp(r)
		if err != nil {
			return Value{}, err
		}
		switch e.CompareOp {
		case "<":
			return BoolValue(c < 0), nil
		case "≤":
			return BoolValue(c <= 0), nil
		case ">":
			return BoolValue(c > 0), nil
		default:
			return BoolValue(c >= 0), nil
		}
	default:
		return Value{}, fmt.Errorf("unknown comparison operator %q", e.CompareOp)
	}
}

func isNumeric(k ast.BaseTypeKind) bool {
	return k == ast.TInt || k == ast.TDecimal || k == ast.TMoney
}

func evalProduct(e *ast.Expr, scope *evalScope) (Value, error) {
	l, err := evalExpr(e.Left, scope)
	if err != nil {
		return Value{}, err
	}
	r, err := evalExpr(e.Right, scope)
	if err != nil {
		return Value{}, err
	}

	if l.Kind == ast.TMoney || r.Kind == ast.TMoney {
		m, d := l, r
		if r.Kind == ast.TMoney {
			m, d = r, l
		}
		if d.Kind == ast.TMoney {
			return Value{}, fmt.Errorf("cannot multiply two Money values")
		}
		factor := d.Decimal
		if d.Kind == ast.TInt {
			factor = money.PromoteInt(d.Int)
		}
		return MoneyValue(money.Money{Currency: m.Money.Currency, Amount: m.Money.Amount.Mul(factor)}), nil
	}

	ld, rd := l.Decimal, r.Decimal
	if l.Kind == ast.TInt {
		ld = money.PromoteInt(l.Int)
	}
	if r.Kind == ast.TInt {
		rd = money.PromoteInt(r.Int)
	}
	return DecimalValue(ld.Mul(rd)), nil
}
