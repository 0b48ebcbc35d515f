package typecheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverline-labs/tenor/pkg/ast"
	"github.com/riverline-labs/tenor/pkg/core"
	"github.com/riverline-labs/tenor/pkg/index"
	"github.com/riverline-labs/tenor/pkg/typeenv"
)

func build(t *testing.T, constructs []ast.RawConstruct) *index.Index {
	t.Helper()
	idx, err := index.Build(constructs)
	require.NoError(t, err)
	env, err := typeenv.Build(idx)
	require.NoError(t, err)
	err = New(idx, env).Check()
	require.NoError(t, err)
	return idx
}

func intLit(n int64) ast.Expr {
	return ast.Expr{Kind: ast.ExprLiteral, Literal: &ast.Literal{Int: &n}}
}

func TestCheckRuleCompareFactToLiteral(t *testing.T) {
	constructs := []ast.RawConstruct{
		{Kind: core.KindFact, ID: "amount", Fact: &ast.FactBody{Type: ast.BaseType{Kind: ast.TInt}}},
		{Kind: core.KindRule, ID: "r1", Rule: &ast.RuleBody{
			Stratum:     0,
			ProduceType: "HighValue",
			When: ast.Expr{
				Kind:      ast.ExprCompare,
				CompareOp: ">",
				Left:      ptr(ast.Expr{Kind: ast.ExprVar, Var: "amount"}),
				Right:     ptr(intLit(100)),
			},
		}},
	}
	idx, err := index.Build(constructs)
	require.NoError(t, err)
	env, err := typeenv.Build(idx)
	require.NoError(t, err)
	err = New(idx, env).Check()
	require.NoError(t, err)

	rc, _ := idx.Construct(core.KindRule, "r1")
	assert.Equal(t, ast.ExprFactRef, rc.Rule.When.Left.Kind)
	assert.Equal(t, "amount", rc.Rule.When.Left.FactRef)
	assert.Equal(t, ast.TBool, rc.Rule.When.Type.Kind)
}

func TestCheckRuleNonBoolWhenErrors(t *testing.T) {
	constructs := []ast.RawConstruct{
		{Kind: core.KindFact, ID: "amount", Fact: &ast.FactBody{Type: ast.BaseType{Kind: ast.TInt}}},
		{Kind: core.KindRule, ID: "r1", Rule: &ast.RuleBody{
			Stratum:     0,
			ProduceType: "V",
			When:        ast.Expr{Kind: ast.ExprVar, Var: "amount"},
		}},
	}
	idx, err := index.Build(constructs)
	require.NoError(t, err)
	env, err := typeenv.Build(idx)
	require.NoError(t, err)
	err = New(idx, env).Check()
	require.Error(t, err)
}

func TestCheckRuleForwardReferenceAcrossStrataErrors(t *testing.T) {
	constructs := []ast.RawConstruct{
		{Kind: core.KindRule, ID: "producer", Rule: &ast.RuleBody{
			Stratum: 2, ProduceType: "Other",
			When: ast.Expr{Kind: ast.ExprLiteral, Literal: &ast.Literal{Bool: boolPtr(true)}},
		}},
		{Kind: core.KindRule, ID: "consumer", Rule: &ast.RuleBody{
			Stratum: 1, ProduceType: "V",
			When: ast.Expr{Kind: ast.ExprVerdictPresent, VerdictType: "Other"},
		}},
	}
	idx, err := index.Build(constructs)
	require.NoError(t, err)
	env, err := typeenv.Build(idx)
	require.NoError(t, err)
	err = New(idx, env).Check()
	require.Error(t, err)
}

func TestCheckOperationPreconditionMustBeBool(t *testing.T) {
	constructs := []ast.RawConstruct{
		{Kind: core.KindOperation, ID: "op1", Operation: &ast.OperationBody{
			AllowedPersonas: []string{"manager"},
			Precondition:    intLit(5),
		}},
	}
	idx, err := index.Build(constructs)
	require.NoError(t, err)
	env, err := typeenv.Build(idx)
	require.NoError(t, err)
	err = New(idx, env).Check()
	require.Error(t, err)
}

func TestCheckFlowBranchBoolConditionPasses(t *testing.T) {
	constructs := []ast.RawConstruct{
		{Kind: core.KindFlow, ID: "f1", Flow: &ast.FlowBody{
			Entry: "s1",
			Steps: map[string]ast.FlowStep{
				"s1": {Kind: ast.StepBranch, ID: "s1", Branch: &ast.BranchStep{
					Condition: ast.Expr{Kind: ast.ExprLiteral, Literal: &ast.Literal{Bool: boolPtr(true)}},
					IfTrue:    ast.Target{IsTerminal: true, Outcome: "done"},
					IfFalse:   ast.Target{IsTerminal: true, Outcome: "rejected"},
				}},
			},
		}},
	}
	idx, err := index.Build(constructs)
	require.NoError(t, err)
	env, err := typeenv.Build(idx)
	require.NoError(t, err)
	err = New(idx, env).Check()
	require.NoError(t, err)
}

func TestPromoteIntAndDecimal(t *testing.T) {
	promoted, ok := promote(ast.BaseType{Kind: ast.TInt}, ast.BaseType{Kind: ast.TDecimal, Precision: 5, Scale: 2})
	require.True(t, ok)
	assert.Equal(t, ast.TDecimal, promoted.Kind)
}

func TestPromoteMoneyDifferentCurrencyFails(t *testing.T) {
	_, ok := promote(
		ast.BaseType{Kind: ast.TMoney, Currency: "USD"},
		ast.BaseType{Kind: ast.TMoney, Currency: "EUR"},
	)
	assert.False(t, ok)
}

func TestPromoteBoolAndIntFails(t *testing.T) {
	_, ok := promote(ast.BaseType{Kind: ast.TBool}, ast.BaseType{Kind: ast.TInt})
	assert.False(t, ok)
}

func TestResolveFactTypeRefRewritesToConcrete(t *testing.T) {
	constructs := []ast.RawConstruct{
		{Kind: core.KindTypeDecl, ID: "Percent", TypeDecl: &ast.TypeDeclBody{Type: ast.BaseType{Kind: ast.TInt}}},
		{Kind: core.KindFact, ID: "rate", Fact: &ast.FactBody{Type: ast.BaseType{Kind: ast.TTypeRef, RefName: "Percent"}}},
	}
	idx := build(t, constructs)
	rc, _ := idx.Construct(core.KindFact, "rate")
	assert.Equal(t, ast.TInt, rc.Fact.Type.Kind)
}

func textLit(s string) ast.Expr {
	return ast.Expr{Kind: ast.ExprLiteral, Literal: &ast.Literal{Text: &s}}
}

func TestCheckCompareEnumFactToStringLiteralCoerces(t *testing.T) {
	constructs := []ast.RawConstruct{
		{Kind: core.KindFact, ID: "status", Fact: &ast.FactBody{Type: ast.BaseType{Kind: ast.TEnum, Values: []string{"approved", "rejected"}}}},
		{Kind: core.KindRule, ID: "r1", Rule: &ast.RuleBody{
			Stratum: 0, ProduceType: "V",
			When: ast.Expr{
				Kind:      ast.ExprCompare,
				CompareOp: "=",
				Left:      ptr(ast.Expr{Kind: ast.ExprVar, Var: "status"}),
				Right:     ptr(textLit("approved")),
			},
		}},
	}
	idx := build(t, constructs)
	rc, _ := idx.Construct(core.KindRule, "r1")
	assert.Equal(t, ast.TEnum, rc.Rule.When.Right.Type.Kind)
	assert.Equal(t, ast.TBool, rc.Rule.When.Type.Kind)
}

func TestCheckCompareEnumLiteralNotAMemberErrors(t *testing.T) {
	constructs := []ast.RawConstruct{
		{Kind: core.KindFact, ID: "status", Fact: &ast.FactBody{Type: ast.BaseType{Kind: ast.TEnum, Values: []string{"approved", "rejected"}}}},
		{Kind: core.KindRule, ID: "r1", Rule: &ast.RuleBody{
			Stratum: 0, ProduceType: "V",
			When: ast.Expr{
				Kind:      ast.ExprCompare,
				CompareOp: "=",
				Left:      ptr(ast.Expr{Kind: ast.ExprVar, Var: "status"}),
				Right:     ptr(textLit("pending")),
			},
		}},
	}
	idx, err := index.Build(constructs)
	require.NoError(t, err)
	env, err := typeenv.Build(idx)
	require.NoError(t, err)
	err = New(idx, env).Check()
	require.Error(t, err)
}

func TestCheckCompareDateFactToStringLiteralCoerces(t *testing.T) {
	constructs := []ast.RawConstruct{
		{Kind: core.KindFact, ID: "submitted_at", Fact: &ast.FactBody{Type: ast.BaseType{Kind: ast.TDate}}},
		{Kind: core.KindRule, ID: "r1", Rule: &ast.RuleBody{
			Stratum: 0, ProduceType: "V",
			When: ast.Expr{
				Kind:      ast.ExprCompare,
				CompareOp: "<",
				Left:      ptr(ast.Expr{Kind: ast.ExprVar, Var: "submitted_at"}),
				Right:     ptr(textLit("2024-01-01")),
			},
		}},
	}
	idx := build(t, constructs)
	rc, _ := idx.Construct(core.KindRule, "r1")
	assert.Equal(t, ast.TDate, rc.Rule.When.Right.Type.Kind)
}

func TestCheckCompareDateLiteralInvalidFormatErrors(t *testing.T) {
	constructs := []ast.RawConstruct{
		{Kind: core.KindFact, ID: "submitted_at", Fact: &ast.FactBody{Type: ast.BaseType{Kind: ast.TDate}}},
		{Kind: core.KindRule, ID: "r1", Rule: &ast.RuleBody{
			Stratum: 0, ProduceType: "V",
			When: ast.Expr{
				Kind:      ast.ExprCompare,
				CompareOp: "<",
				Left:      ptr(ast.Expr{Kind: ast.ExprVar, Var: "submitted_at"}),
				Right:     ptr(textLit("not-a-date")),
			},
		}},
	}
	idx, err := index.Build(constructs)
	require.NoError(t, err)
	env, err := typeenv.Build(idx)
	require.NoError(t, err)
	err = New(idx, env).Check()
	require.Error(t, err)
}

func TestCheckCompareDateTimeFactToStringLiteralCoerces(t *testing.T) {
	constructs := []ast.RawConstruct{
		{Kind: core.KindFact, ID: "created_at", Fact: &ast.FactBody{Type: ast.BaseType{Kind: ast.TDateTime}}},
		{Kind: core.KindRule, ID: "r1", Rule: &ast.RuleBody{
			Stratum: 0, ProduceType: "V",
			When: ast.Expr{
				Kind:      ast.ExprCompare,
				CompareOp: "≥",
				Left:      ptr(ast.Expr{Kind: ast.ExprVar, Var: "created_at"}),
				Right:     ptr(textLit("2024-01-01T00:00:00Z")),
			},
		}},
	}
	idx := build(t, constructs)
	rc, _ := idx.Construct(core.KindRule, "r1")
	assert.Equal(t, ast.TDateTime, rc.Rule.When.Right.Type.Kind)
}

func ptr(e ast.Expr) *ast.Expr { return &e }
func boolPtr(b bool) *bool     { return &b }
