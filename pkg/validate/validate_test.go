package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverline-labs/tenor/pkg/ast"
	"github.com/riverline-labs/tenor/pkg/core"
	"github.com/riverline-labs/tenor/pkg/index"
)

func buildIndex(t *testing.T, constructs []ast.RawConstruct) *index.Index {
	t.Helper()
	idx, err := index.Build(constructs)
	require.NoError(t, err)
	return idx
}

func TestValidateEntityInitialStateMustBeDeclared(t *testing.T) {
	constructs := []ast.RawConstruct{
		{Kind: core.KindEntity, ID: "order", Entity: &ast.EntityBody{
			States: []string{"pending", "approved"}, Initial: "unknown",
		}},
	}
	_, err := New(buildIndex(t, constructs)).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "initial")
}

func TestValidateEntityTransitionReferencesDeclaredStates(t *testing.T) {
	constructs := []ast.RawConstruct{
		{Kind: core.KindEntity, ID: "order", Entity: &ast.EntityBody{
			States:      []string{"pending", "approved"},
			Initial:     "pending",
			Transitions: []ast.Transition{{From: "pending", To: "missing"}},
		}},
	}
	_, err := New(buildIndex(t, constructs)).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undeclared state")
}

func TestValidateEntityValidTransitionsPass(t *testing.T) {
	constructs := []ast.RawConstruct{
		{Kind: core.KindEntity, ID: "order", Entity: &ast.EntityBody{
			States:      []string{"pending", "approved"},
			Initial:     "pending",
			Transitions: []ast.Transition{{From: "pending", To: "approved"}},
		}},
	}
	_, err := New(buildIndex(t, constructs)).Validate()
	require.NoError(t, err)
}

func TestValidateEntityHierarchyCycleErrors(t *testing.T) {
	constructs := []ast.RawConstruct{
		{Kind: core.KindEntity, ID: "a", Entity: &ast.EntityBody{States: []string{"s"}, Initial: "s", Parent: "b"}},
		{Kind: core.KindEntity, ID: "b", Entity: &ast.EntityBody{States: []string{"s"}, Initial: "s", Parent: "a"}},
	}
	_, err := New(buildIndex(t, constructs)).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestValidateRuleNegativeStratumErrors(t *testing.T) {
	constructs := []ast.RawConstruct{
		{Kind: core.KindRule, ID: "r1", Rule: &ast.RuleBody{Stratum: -1}},
	}
	_, err := New(buildIndex(t, constructs)).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stratum")
}

func TestValidateRuleForwardVerdictReferenceErrors(t *testing.T) {
	constructs := []ast.RawConstruct{
		{Kind: core.KindRule, ID: "producer", Rule: &ast.RuleBody{Stratum: 1, ProduceType: "Other"}},
		{Kind: core.KindRule, ID: "consumer", Rule: &ast.RuleBody{
			Stratum: 0,
			When:    ast.Expr{Kind: ast.ExprVerdictPresent, VerdictType: "Other"},
		}},
	}
	_, err := New(buildIndex(t, constructs)).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forward reference")
}

func TestValidateOperationRequiresNonEmptyPersonas(t *testing.T) {
	constructs := []ast.RawConstruct{
		{Kind: core.KindOperation, ID: "op1", Operation: &ast.OperationBody{}},
	}
	_, err := New(buildIndex(t, constructs)).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "allowed_personas")
}

func TestValidateOperationUndeclaredPersonaErrors(t *testing.T) {
	constructs := []ast.RawConstruct{
		{Kind: core.KindOperation, ID: "op1", Operation: &ast.OperationBody{AllowedPersonas: []string{"manager"}}},
	}
	_, err := New(buildIndex(t, constructs)).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "undeclared persona")
}

func TestValidateOperationEffectMustBeDeclaredTransition(t *testing.T) {
	constructs := []ast.RawConstruct{
		{Kind: core.KindPersona, ID: "manager", Persona: &ast.PersonaBody{}},
		{Kind: core.KindEntity, ID: "order", Entity: &ast.EntityBody{
			States: []string{"pending", "approved"}, Initial: "pending",
			Transitions: []ast.Transition{{From: "pending", To: "approved"}},
		}},
		{Kind: core.KindOperation, ID: "op1", Operation: &ast.OperationBody{
			AllowedPersonas: []string{"manager"},
			Effects:         []ast.Effect{{EntityID: "order", From: "approved", To: "pending"}},
		}},
	}
	_, err := New(buildIndex(t, constructs)).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a declared transition")
}

func TestValidateOperationValidEffectPasses(t *testing.T) {
	constructs := []ast.RawConstruct{
		{Kind: core.KindPersona, ID: "manager", Persona: &ast.PersonaBody{}},
		{Kind: core.KindEntity, ID: "order", Entity: &ast.EntityBody{
			States: []string{"pending", "approved"}, Initial: "pending",
			Transitions: []ast.Transition{{From: "pending", To: "approved"}},
		}},
		{Kind: core.KindOperation, ID: "op1", Operation: &ast.OperationBody{
			AllowedPersonas: []string{"manager"},
			Effects:         []ast.Effect{{EntityID: "order", From: "pending", To: "approved"}},
		}},
	}
	_, err := New(buildIndex(t, constructs)).Validate()
	require.NoError(t, err)
}

func TestAdvisoryStringWithAndWithoutField(t *testing.T) {
	a := Advisory{Kind: "Flow", ID: "f1", Field: "outcomes", Prov: core.Provenance{File: "t.tenor", Line: 3}, Message: "not exhaustive"}
	assert.Equal(t, `Flow 'f1'.outcomes at t.tenor:3: not exhaustive`, a.String())

	b := Advisory{Kind: "Flow", ID: "f1", Prov: core.Provenance{File: "t.tenor", Line: 3}, Message: "not exhaustive"}
	assert.Equal(t, `Flow 'f1' at t.tenor:3: not exhaustive`, b.String())
}
