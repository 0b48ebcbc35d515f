package interchange

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverline-labs/tenor/pkg/ast"
	"github.com/riverline-labs/tenor/pkg/core"
)

func TestObjMarshalSortsKeys(t *testing.T) {
	o := O(F("zebra", 1), F("alpha", 2), F("mike", 3))
	b, err := json.Marshal(o)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"mike":3,"zebra":1}`, string(b))
}

func TestObjMarshalOmitsNilFields(t *testing.T) {
	o := O(F("present", 1), F("absent", nil))
	b, err := json.Marshal(o)
	require.NoError(t, err)
	assert.Equal(t, `{"present":1}`, string(b))
}

func TestSerializeIsDeterministicAcrossConstructionOrder(t *testing.T) {
	personas := []ast.RawConstruct{
		{Kind: core.KindPersona, ID: "clerk", Persona: &ast.PersonaBody{}},
		{Kind: core.KindPersona, ID: "manager", Persona: &ast.PersonaBody{}},
	}
	reversed := []ast.RawConstruct{personas[1], personas[0]}

	b1, err := Serialize("bundle", personas)
	require.NoError(t, err)
	b2, err := Serialize("bundle", reversed)
	require.NoError(t, err)
	assert.JSONEq(t, string(b1), string(b2))
}

func TestSerializeDropsTypeDeclAndImport(t *testing.T) {
	constructs := []ast.RawConstruct{
		{Kind: core.KindTypeDecl, ID: "Percent", TypeDecl: &ast.TypeDeclBody{Type: ast.BaseType{Kind: ast.TInt}}},
		{Kind: core.KindImport, Import: &ast.ImportBody{Path: "x.tenor"}},
		{Kind: core.KindPersona, ID: "manager", Persona: &ast.PersonaBody{}},
	}
	b, err := Serialize("bundle", constructs)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &decoded))
	cs := decoded["constructs"].([]interface{})
	require.Len(t, cs, 1)
	assert.Equal(t, "Persona", cs[0].(map[string]interface{})["kind"])
}

func TestSerializeOrdersRulesByStratumThenID(t *testing.T) {
	constructs := []ast.RawConstruct{
		{Kind: core.KindRule, ID: "b", Rule: &ast.RuleBody{Stratum: 0, When: ast.Expr{Kind: ast.ExprLiteral, Literal: &ast.Literal{Bool: boolPtr(true)}}}},
		{Kind: core.KindRule, ID: "a", Rule: &ast.RuleBody{Stratum: 1, When: ast.Expr{Kind: ast.ExprLiteral, Literal: &ast.Literal{Bool: boolPtr(true)}}}},
		{Kind: core.KindRule, ID: "a", Rule: &ast.RuleBody{Stratum: 0, When: ast.Expr{Kind: ast.ExprLiteral, Literal: &ast.Literal{Bool: boolPtr(true)}}}},
	}
	ordered := orderConstructs(constructs)
	require.Len(t, ordered, 3)
	assert.Equal(t, "a", ordered[0].ID)
	assert.Equal(t, 0, ordered[0].Rule.Stratum)
	assert.Equal(t, "b", ordered[1].ID)
	assert.Equal(t, "a", ordered[2].ID)
	assert.Equal(t, 1, ordered[2].Rule.Stratum)
}

func TestSerializeBundleIDExcludesItself(t *testing.T) {
	b, err := Serialize("bundle", nil)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.NotEmpty(t, decoded["id"])
	assert.Equal(t, "Bundle", decoded["kind"])
	assert.Equal(t, TenorVersion, decoded["tenor_version"])
}

func TestDecimalValueStructuredForm(t *testing.T) {
	o := DecimalValue(10, 2, "12.34")
	b, err := json.Marshal(o)
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"decimal_value","precision":10,"scale":2,"value":"12.34"}`, string(b))
}

func TestTypeSerializesIntWithBounds(t *testing.T) {
	lo, hi := int64(0), int64(100)
	o := Type(ast.BaseType{Kind: ast.TInt, Min: &lo, Max: &hi})
	b, err := json.Marshal(o)
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"Int","min":0,"max":100}`, string(b))
}

func TestExprSerializesCompareWithComparisonType(t *testing.T) {
	ct := ast.BaseType{Kind: ast.TInt}
	e := ast.Expr{
		Kind:           ast.ExprCompare,
		CompareOp:      ">",
		Type:           ast.BaseType{Kind: ast.TBool},
		ComparisonType: &ct,
		Left:           &ast.Expr{Kind: ast.ExprLiteral, Literal: &ast.Literal{Int: int64Ptr(1)}, Type: ast.BaseType{Kind: ast.TInt}},
		Right:          &ast.Expr{Kind: ast.ExprLiteral, Literal: &ast.Literal{Int: int64Ptr(2)}, Type: ast.BaseType{Kind: ast.TInt}},
	}
	o := Expr(e)
	b, err := json.Marshal(o)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, "compare", decoded["kind"])
	assert.Equal(t, ">", decoded["op"])
	assert.NotNil(t, decoded["comparison_type"])
}

func boolPtr(b bool) *bool     { return &b }
func int64Ptr(i int64) *int64  { return &i }
