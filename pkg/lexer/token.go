// Package lexer converts Tenor source text into a token stream (Pass 0a
// of spec.md §4.1). It accepts both the unicode logical operators
// (∧ ∨ ¬ ∀ ∃ ∈) and their ASCII equivalents (and/or/not/forall/
// exists/in), and both arrow forms (→ and ->).
package lexer

import "fmt"

// Kind tags a Token.
type Kind int

const (
	EOF Kind = iota
	Ident
	Keyword
	StringLit
	IntLit
	DecimalLit

	// punctuation
	LBrace // {
	RBrace // }
	LParen // (
	RParen // )
	LBracket
	RBracket
	Colon
	Comma
	Dot
	Arrow // -> or →

	// operators
	And    // and or ∧
	Or     // or or ∨
	Not    // not or ¬
	ForAll // forall or ∀
	Exists // exists or ∃
	In     // in or ∈
	Times  // × for Products

	// comparisons
	Eq  // =
	Neq // ≠ or !=
	Lt  // <
	Leq // ≤ or <=
	Gt  // >
	Geq // ≥ or >=
)

// keywords is the fixed set of lowercase keywords that begin a
// top-level construct, per spec.md §4.1.
var keywords = map[string]bool{
	"fact": true, "entity": true, "persona": true, "source": true,
	"rule": true, "operation": true, "flow": true, "type": true,
	"import": true, "system": true,
}

// Token is one lexical token with its source provenance (line number;
// byte offset carried for potential future tooling, not otherwise
// consumed by this module).
type Token struct {
	Kind   Kind
	Text   string // raw lexeme, or decoded string content for StringLit
	Line   int
	Offset int

	// DecimalLit carries explicit precision/scale as lexed, e.g.
	// "12.345" with scale 3; the integer-part digit count plus scale
	// gives a default precision, which the type checker may widen.
	DecimalScale int
}

func (t Token) String() string {
	return fmt.Sprintf("%v(%q)@%d", t.Kind, t.Text, t.Line)
}
