package parser

import "github.com/riverline-labs/tenor/pkg/lexer"

// skipValue consumes one well-formed value of unspecified shape:
// a balanced {...} or [...] group, or a single token. Used for
// forward-compatible fields the parser does not yet interpret (e.g.
// documentation-only metadata on a construct).
func (p *Parser) skipValue() error {
	switch p.cur().Kind {
	case lexer.LBrace:
		return p.skipBalanced(lexer.LBrace, lexer.RBrace)
	case lexer.LBracket:
		return p.skipBalanced(lexer.LBracket, lexer.RBracket)
	case lexer.LParen:
		return p.skipBalanced(lexer.LParen, lexer.RParen)
	default:
		if p.atEOF() {
			return newParseError(p.file, p.cur().Line, "unexpected end of file")
		}
		p.advance()
		return nil
	}
}

func (p *Parser) skipBalanced(open, close lexer.Kind) error {
	depth := 0
	for {
		if p.atEOF() {
			return newParseError(p.file, p.cur().Line, "unexpected end of file, unbalanced group")
		}
		k := p.cur().Kind
		p.advance()
		if k == open {
			depth++
		} else if k == close {
			depth--
			if depth == 0 {
				return nil
			}
		}
	}
}
