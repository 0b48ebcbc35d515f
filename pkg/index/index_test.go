package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverline-labs/tenor/pkg/ast"
	"github.com/riverline-labs/tenor/pkg/core"
)

func TestBuildIndexesByKindAndID(t *testing.T) {
	constructs := []ast.RawConstruct{
		{Kind: core.KindPersona, ID: "manager", Persona: &ast.PersonaBody{}},
		{Kind: core.KindEntity, ID: "order", Entity: &ast.EntityBody{}},
	}
	idx, err := Build(constructs)
	require.NoError(t, err)

	_, ok := idx.Lookup(core.KindPersona, "manager")
	assert.True(t, ok)
	_, ok = idx.Lookup(core.KindEntity, "order")
	assert.True(t, ok)
	_, ok = idx.Lookup(core.KindPersona, "clerk")
	assert.False(t, ok)
}

func TestBuildSkipsIDLessConstructs(t *testing.T) {
	constructs := []ast.RawConstruct{
		{Kind: core.KindSystem, System: &ast.SystemBody{Name: "Orders"}},
	}
	idx, err := Build(constructs)
	require.NoError(t, err)
	assert.Empty(t, idx.All(core.KindSystem))
}

func TestBuildDetectsDuplicateIDWithinKind(t *testing.T) {
	constructs := []ast.RawConstruct{
		{Kind: core.KindPersona, ID: "manager", Persona: &ast.PersonaBody{}},
		{Kind: core.KindPersona, ID: "manager", Persona: &ast.PersonaBody{}},
	}
	_, err := Build(constructs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestBuildAllowsSameIDAcrossKinds(t *testing.T) {
	constructs := []ast.RawConstruct{
		{Kind: core.KindPersona, ID: "order", Persona: &ast.PersonaBody{}},
		{Kind: core.KindEntity, ID: "order", Entity: &ast.EntityBody{}},
	}
	_, err := Build(constructs)
	require.NoError(t, err)
}

func TestBuildDerivesVerdictStrata(t *testing.T) {
	constructs := []ast.RawConstruct{
		{Kind: core.KindRule, ID: "r1", Rule: &ast.RuleBody{Stratum: 2, ProduceType: "HighValue"}},
	}
	idx, err := Build(constructs)
	require.NoError(t, err)
	assert.Equal(t, "r1", idx.RuleVerdicts["HighValue"])
	assert.Equal(t, 2, idx.VerdictStrata["HighValue"])
}

func TestConstructAndAll(t *testing.T) {
	constructs := []ast.RawConstruct{
		{Kind: core.KindPersona, ID: "manager", Persona: &ast.PersonaBody{}},
		{Kind: core.KindPersona, ID: "clerk", Persona: &ast.PersonaBody{}},
	}
	idx, err := Build(constructs)
	require.NoError(t, err)

	rc, ok := idx.Construct(core.KindPersona, "manager")
	require.True(t, ok)
	assert.Equal(t, "manager", rc.ID)

	all := idx.All(core.KindPersona)
	assert.Len(t, all, 2)
}
