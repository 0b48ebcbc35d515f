package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(t *testing.T, src string) []Kind {
	t.Helper()
	toks, err := New("test.tenor", src).Tokenize()
	require.NoError(t, err)
	var ks []Kind
	for _, tok := range toks {
		ks = append(ks, tok.Kind)
	}
	return ks
}

func TestTokenizePunctuation(t *testing.T) {
	got := kinds(t, `{}()[]:,.`)
	assert.Equal(t, []Kind{LBrace, RBrace, LParen, RParen, LBracket, RBracket, Colon, Comma, Dot, EOF}, got)
}

func TestTokenizeKeywordsAndIdents(t *testing.T) {
	toks, err := New("test.tenor", "fact amount entity order_status").Tokenize()
	require.NoError(t, err)
	require.Len(t, toks, 5)
	assert.Equal(t, Keyword, toks[0].Kind)
	assert.Equal(t, "fact", toks[0].Text)
	assert.Equal(t, Ident, toks[1].Kind)
	assert.Equal(t, Keyword, toks[2].Kind)
	assert.Equal(t, Ident, toks[3].Kind)
	assert.Equal(t, "order_status", toks[3].Text)
}

func TestTokenizeUnicodeAndASCIIOperatorsAgree(t *testing.T) {
	unicodeKinds := kinds(t, "∧ ∨ ¬ ∀ ∃ ∈ → ≠ ≤ ≥")
	asciiKinds := kinds(t, "and or not forall exists in -> != <= >=")
	assert.Equal(t, unicodeKinds, asciiKinds)
}

func TestTokenizeComparisonOperators(t *testing.T) {
	got := kinds(t, "= ≠ < ≤ > ≥")
	assert.Equal(t, []Kind{Eq, Neq, Lt, Leq, Gt, Geq, EOF}, got)
}

func TestTokenizeDecimalLiteral(t *testing.T) {
	toks, err := New("test.tenor", "100.00").Tokenize()
	require.NoError(t, err)
	require.Len(t, toks, 2)
	assert.Equal(t, DecimalLit, toks[0].Kind)
	assert.Equal(t, "100.00", toks[0].Text)
	assert.Equal(t, 2, toks[0].DecimalScale)
}

func TestTokenizeIntLiteral(t *testing.T) {
	toks, err := New("test.tenor", "42").Tokenize()
	require.NoError(t, err)
	assert.Equal(t, IntLit, toks[0].Kind)
	assert.Equal(t, "42", toks[0].Text)
}

func TestTokenizeNegativeNumber(t *testing.T) {
	toks, err := New("test.tenor", "-5 -3.14").Tokenize()
	require.NoError(t, err)
	assert.Equal(t, "-5", toks[0].Text)
	assert.Equal(t, IntLit, toks[0].Kind)
	assert.Equal(t, "-3.14", toks[1].Text)
	assert.Equal(t, DecimalLit, toks[1].Kind)
}

func TestTokenizeStringLiteralEscapes(t *testing.T) {
	toks, err := New("test.tenor", `"hello\nworld\t\"quoted\""`).Tokenize()
	require.NoError(t, err)
	assert.Equal(t, StringLit, toks[0].Kind)
	assert.Equal(t, "hello\nworld\t\"quoted\"", toks[0].Text)
}

func TestTokenizeLineComments(t *testing.T) {
	toks, err := New("test.tenor", "fact # this is a comment\n amount").Tokenize()
	require.NoError(t, err)
	require.Len(t, toks, 3)
	assert.Equal(t, Keyword, toks[0].Kind)
	assert.Equal(t, Ident, toks[1].Kind)
}

func TestTokenizeLineNumbersAdvance(t *testing.T) {
	toks, err := New("test.tenor", "fact\nentity\nrule").Tokenize()
	require.NoError(t, err)
	assert.Equal(t, 1, toks[0].Line)
	assert.Equal(t, 2, toks[1].Line)
	assert.Equal(t, 3, toks[2].Line)
}

func TestTokenizeUnterminatedStringErrors(t *testing.T) {
	_, err := New("test.tenor", `"unterminated`).Tokenize()
	require.Error(t, err)
}

func TestTokenizeIllegalCharacterErrors(t *testing.T) {
	_, err := New("test.tenor", "@").Tokenize()
	require.Error(t, err)
}

func TestTokenizeInvalidEscapeErrors(t *testing.T) {
	_, err := New("test.tenor", `"bad\qescape"`).Tokenize()
	require.Error(t, err)
}

func TestTokenizeArrowForms(t *testing.T) {
	got := kinds(t, "-> →")
	assert.Equal(t, []Kind{Arrow, Arrow, EOF}, got)
}

func TestTokenizeProductTimes(t *testing.T) {
	got := kinds(t, "×")
	assert.Equal(t, []Kind{Times, EOF}, got)
}
