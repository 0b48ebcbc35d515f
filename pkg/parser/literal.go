package parser

import (
	"strings"

	"github.com/riverline-labs/tenor/pkg/ast"
	"github.com/riverline-labs/tenor/pkg/lexer"
)

// parseLiteral parses a single literal token (bool/int/decimal/string)
// into an ast.Literal. Surface kind is inferred purely from lexical
// form; context-dependent coercion (Enum/Date/DateTime/Money) happens
// in the type checker, per spec.md §4.5.
func (p *Parser) parseLiteral() (*ast.Literal, error) {
	t := p.cur()
	switch t.Kind {
	case lexer.Ident:
		if t.Text == "true" || t.Text == "false" {
			p.advance()
			b := t.Text == "true"
			return &ast.Literal{Bool: &b}, nil
		}
		return nil, newParseError(p.file, t.Line, "expected literal, found identifier %q", t.Text)
	case lexer.IntLit:
		p.advance()
		n, err := parseSignedIntLit(t.Text)
		if err != nil {
			return nil, newParseError(p.file, t.Line, "invalid integer literal: %v", err)
		}
		return &ast.Literal{Int: &n}, nil
	case lexer.DecimalLit:
		p.advance()
		intDigits := strings.TrimPrefix(strings.Split(t.Text, ".")[0], "-")
		precision := len(intDigits) + t.DecimalScale
		return &ast.Literal{
			DecimalText: t.Text,
			Precision:   precision,
			Scale:       t.DecimalScale,
			IsDecimal:   true,
		}, nil
	case lexer.StringLit:
		p.advance()
		s := t.Text
		return &ast.Literal{Text: &s}, nil
	default:
		return nil, newParseError(p.file, t.Line, "expected literal, found %q", t.Text)
	}
}
