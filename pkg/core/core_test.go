package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructKindStringAndParse(t *testing.T) {
	for _, k := range []ConstructKind{KindImport, KindTypeDecl, KindFact, KindEntity, KindPersona, KindSource, KindRule, KindOperation, KindFlow, KindSystem} {
		name := k.String()
		assert.NotEqual(t, "Unknown", name)
		parsed, err := ParseConstructKind(name)
		assert.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
}

func TestParseConstructKindUnknownErrors(t *testing.T) {
	_, err := ParseConstructKind("NotAKind")
	assert.Error(t, err)
}

func TestProvenanceStringAndZero(t *testing.T) {
	p := Provenance{File: "a.tenor", Line: 5}
	assert.Equal(t, "a.tenor:5", p.String())
	assert.False(t, p.Zero())
	assert.True(t, Provenance{}.Zero())
}

func TestSeverityStringAndParse(t *testing.T) {
	assert.Equal(t, "warning", SeverityWarning.String())
	assert.Equal(t, "info", SeverityInfo.String())
	assert.Equal(t, SeverityWarning, ParseSeverity("WARNING"))
	assert.Equal(t, SeverityInfo, ParseSeverity("bogus"))
}

func TestDFSStateDetectsSimpleCycle(t *testing.T) {
	dfs := NewDFSState()
	assert.True(t, dfs.Enter("a"))
	assert.True(t, dfs.Enter("b"))
	assert.False(t, dfs.Enter("a"))
	assert.Equal(t, []string{"a", "b", "a"}, dfs.Path("a"))
}

func TestDFSStateLeaveAllowsReentry(t *testing.T) {
	dfs := NewDFSState()
	assert.True(t, dfs.Enter("a"))
	dfs.Leave("a")
	assert.True(t, dfs.Enter("a"))
}

func TestDFSStateVisited(t *testing.T) {
	dfs := NewDFSState()
	assert.False(t, dfs.Visited("a"))
	dfs.MarkVisited("a")
	assert.True(t, dfs.Visited("a"))
}

func TestFormatCyclePath(t *testing.T) {
	assert.Equal(t, "a → b → a", FormatCyclePath([]string{"a", "b", "a"}))
}

func TestPassErrorString(t *testing.T) {
	e := &PassError{PassNum: 4, Kind: "Rule", ID: "r1", FieldName: "when", Prov: Provenance{File: "t.tenor", Line: 3}, Message: "boom"}
	assert.Equal(t, `pass 4: Rule 'r1'.when at t.tenor:3: boom`, e.Error())

	e2 := &PassError{PassNum: 4, Kind: "Rule", ID: "r1", Prov: Provenance{File: "t.tenor", Line: 3}, Message: "boom"}
	assert.Equal(t, `pass 4: Rule 'r1' at t.tenor:3: boom`, e2.Error())

	e3 := &PassError{PassNum: 1, Prov: Provenance{File: "t.tenor", Line: 1}, Message: "boom"}
	assert.Equal(t, `pass 1: boom at t.tenor:1`, e3.Error())
}

func TestToEnvelopeOmitsUnsetFields(t *testing.T) {
	e := &PassError{PassNum: 1, Prov: Provenance{File: "t.tenor", Line: 1}, Message: "boom"}
	env := ToEnvelope(e)
	assert.Nil(t, env.ConstructKind)
	assert.Nil(t, env.ConstructID)
	assert.Nil(t, env.Field)
	assert.Equal(t, 1, env.Pass)
}

func TestToEnvelopeSetsConstructFields(t *testing.T) {
	e := &PassError{PassNum: 4, Kind: "Rule", ID: "r1", FieldName: "when", Prov: Provenance{File: "t.tenor", Line: 3}, Message: "boom"}
	env := ToEnvelope(e)
	require := assert.New(t)
	require.NotNil(env.ConstructKind)
	require.Equal("Rule", *env.ConstructKind)
	require.NotNil(env.ConstructID)
	require.Equal("r1", *env.ConstructID)
	require.NotNil(env.Field)
	require.Equal("when", *env.Field)
}

var _ Diagnostic = &PassError{}
