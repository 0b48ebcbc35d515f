package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaseTypeKindString(t *testing.T) {
	assert.Equal(t, "Decimal", TDecimal.String())
	assert.Equal(t, "Unknown", BaseTypeKind(999).String())
}

func TestBaseTypeIsOrdered(t *testing.T) {
	assert.True(t, BaseType{Kind: TInt}.IsOrdered())
	assert.True(t, BaseType{Kind: TMoney}.IsOrdered())
	assert.False(t, BaseType{Kind: TBool}.IsOrdered())
	assert.False(t, BaseType{Kind: TEnum}.IsOrdered())
}

func TestBaseTypeEqualDecimal(t *testing.T) {
	a := BaseType{Kind: TDecimal, Precision: 10, Scale: 2}
	b := BaseType{Kind: TDecimal, Precision: 10, Scale: 2}
	c := BaseType{Kind: TDecimal, Precision: 10, Scale: 3}
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestBaseTypeEqualEnum(t *testing.T) {
	a := BaseType{Kind: TEnum, Values: []string{"a", "b"}}
	b := BaseType{Kind: TEnum, Values: []string{"a", "b"}}
	c := BaseType{Kind: TEnum, Values: []string{"a", "c"}}
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestBaseTypeEqualList(t *testing.T) {
	elemInt := BaseType{Kind: TInt}
	elemText := BaseType{Kind: TText}
	a := BaseType{Kind: TList, Elem: &elemInt}
	b := BaseType{Kind: TList, Elem: &elemInt}
	c := BaseType{Kind: TList, Elem: &elemText}
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestBaseTypeEqualRecord(t *testing.T) {
	a := BaseType{Kind: TRecord, Fields: map[string]BaseType{"x": {Kind: TInt}}}
	b := BaseType{Kind: TRecord, Fields: map[string]BaseType{"x": {Kind: TInt}}}
	c := BaseType{Kind: TRecord, Fields: map[string]BaseType{"x": {Kind: TText}}}
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestBaseTypeEqualMismatchedKind(t *testing.T) {
	assert.False(t, BaseType{Kind: TInt}.Equal(BaseType{Kind: TText}))
}

func TestExprFactsReferenced(t *testing.T) {
	left := Expr{Kind: ExprFactRef, FactRef: "amount"}
	right := Expr{Kind: ExprFactRef, FactRef: "limit"}
	e := Expr{Kind: ExprAnd, Left: &left, Right: &right}
	facts := e.FactsReferenced()
	assert.ElementsMatch(t, []string{"amount", "limit"}, facts)
}

func TestExprFactsReferencedDeduplicates(t *testing.T) {
	left := Expr{Kind: ExprFactRef, FactRef: "amount"}
	right := Expr{Kind: ExprFactRef, FactRef: "amount"}
	e := Expr{Kind: ExprAnd, Left: &left, Right: &right}
	assert.Equal(t, []string{"amount"}, e.FactsReferenced())
}

func TestExprVerdictsReferenced(t *testing.T) {
	left := Expr{Kind: ExprVerdictPresent, VerdictType: "HighValue"}
	right := Expr{Kind: ExprVerdictPresent, VerdictType: "LowRisk"}
	e := Expr{Kind: ExprOr, Left: &left, Right: &right}
	verdicts := e.VerdictsReferenced()
	assert.ElementsMatch(t, []string{"HighValue", "LowRisk"}, verdicts)
}

func TestExprFactsReferencedWalksNestedForms(t *testing.T) {
	base := Expr{Kind: ExprFactRef, FactRef: "order"}
	fieldPath := Expr{Kind: ExprFieldPath, FieldBase: &base, FieldName: "status"}
	domain := Expr{Kind: ExprFactRef, FactRef: "items"}
	body := Expr{Kind: ExprFactRef, FactRef: "flag"}
	quant := Expr{Kind: ExprForAll, QuantDomain: &domain, QuantBody: &body}
	not := Expr{Kind: ExprNot, Operand: &fieldPath}
	top := Expr{Kind: ExprAnd, Left: &not, Right: &quant}

	facts := top.FactsReferenced()
	assert.ElementsMatch(t, []string{"order", "items", "flag"}, facts)
}
