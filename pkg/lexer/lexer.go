package lexer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/riverline-labs/tenor/pkg/core"
)

// LexError is a Pass 0 lexical error: an illegal character or an
// unterminated string, with the file and line it occurred at. The
// lexer does not attempt recovery — the first error stops the pass,
// per spec.md §4.1.
type LexError struct {
	core.PassError
}

func newLexError(file string, line int, format string, args ...interface{}) *LexError {
	return &LexError{core.PassError{
		PassNum: 0,
		Prov:    core.Provenance{File: file, Line: line},
		Message: fmt.Sprintf(format, args...),
	}}
}

// Lexer tokenizes one file's source text.
type Lexer struct {
	file string
	src  string
	pos  int
	line int
}

// New creates a Lexer over src, attributing tokens to file for
// provenance.
func New(file, src string) *Lexer {
	return &Lexer{file: file, src: src, line: 1}
}

// Tokenize consumes the entire source and returns every token,
// including a final EOF token.
func (l *Lexer) Tokenize() ([]Token, error) {
	var toks []Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == EOF {
			return toks, nil
		}
	}
}

func (l *Lexer) peekByte() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekRune() (rune, int) {
	if l.pos >= len(l.src) {
		return 0, 0
	}
	r, size := utf8.DecodeRuneInString(l.src[l.pos:])
	return r, size
}

func (l *Lexer) advanceRune() rune {
	r, size := l.peekRune()
	if r == '\n' {
		l.line++
	}
	l.pos += size
	return r
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		r, size := l.peekRune()
		if size == 0 {
			return
		}
		if r == '#' {
			for {
				r2, s2 := l.peekRune()
				if s2 == 0 || r2 == '\n' {
					break
				}
				l.advanceRune()
			}
			continue
		}
		if unicode.IsSpace(r) {
			l.advanceRune()
			continue
		}
		return
	}
}

func (l *Lexer) next() (Token, error) {
	l.skipWhitespaceAndComments()

	startLine := l.line
	startOff := l.pos
	r, size := l.peekRune()
	if size == 0 {
		return Token{Kind: EOF, Line: startLine, Offset: startOff}, nil
	}

	switch r {
	case '{':
		l.advanceRune()
		return Token{Kind: LBrace, Text: "{", Line: startLine, Offset: startOff}, nil
	case '}':
		l.advanceRune()
		return Token{Kind: RBrace, Text: "}", Line: startLine, Offset: startOff}, nil
	case '(':
		l.advanceRune()
		return Token{Kind: LParen, Text: "(", Line: startLine, Offset: startOff}, nil
	case ')':
		l.advanceRune()
		return Token{Kind: RParen, Text: ")", Line: startLine, Offset: startOff}, nil
	case '[':
		l.advanceRune()
		return Token{Kind: LBracket, Text: "[", Line: startLine, Offset: startOff}, nil
	case ']':
		l.advanceRune()
		return Token{Kind: RBracket, Text: "]", Line: startLine, Offset: startOff}, nil
	case ':':
		l.advanceRune()
		return Token{Kind: Colon, Text: ":", Line: startLine, Offset: startOff}, nil
	case ',':
		l.advanceRune()
		return Token{Kind: Comma, Text: ",", Line: startLine, Offset: startOff}, nil
	case '.':
		l.advanceRune()
		return Token{Kind: Dot, Text: ".", Line: startLine, Offset: startOff}, nil
	case '∧':
		l.advanceRune()
		return Token{Kind: And, Text: "∧", Line: startLine, Offset: startOff}, nil
	case '∨':
		l.advanceRune()
		return Token{Kind: Or, Text: "∨", Line: startLine, Offset: startOff}, nil
	case '¬':
		l.advanceRune()
		return Token{Kind: Not, Text: "¬", Line: startLine, Offset: startOff}, nil
	case '∀':
		l.advanceRune()
		return Token{Kind: ForAll, Text: "∀", Line: startLine, Offset: startOff}, nil
	case '∃':
		l.advanceRune()
		return Token{Kind: Exists, Text: "∃", Line: startLine, Offset: startOff}, nil
	case '∈':
		l.advanceRune()
		return Token{Kind: In, Text: "∈", Line: startLine, Offset: startOff}, nil
	case '×':
		l.advanceRune()
		return Token{Kind: Times, Text: "×", Line: startLine, Offset: startOff}, nil
	case '→':
		l.advanceRune()
		return Token{Kind: Arrow, Text: "→", Line: startLine, Offset: startOff}, nil
	case '≠':
		l.advanceRune()
		return Token{Kind: Neq, Text: "≠", Line: startLine, Offset: startOff}, nil
	case '≤':
		l.advanceRune()
		return Token{Kind: Leq, Text: "≤", Line: startLine, Offset: startOff}, nil
	case '≥':
		l.advanceRune()
		return Token{Kind: Geq, Text: "≥", Line: startLine, Offset: startOff}, nil
	case '=':
		l.advanceRune()
		return Token{Kind: Eq, Text: "=", Line: startLine, Offset: startOff}, nil
	case '<':
		l.advanceRune()
		if l.peekByte() == '=' {
			l.advanceRune()
			return Token{Kind: Leq, Text: "<=", Line: startLine, Offset: startOff}, nil
		}
		return Token{Kind: Lt, Text: "<", Line: startLine, Offset: startOff}, nil
	case '>':
		l.advanceRune()
		if l.peekByte() == '=' {
			l.advanceRune()
			return Token{Kind: Geq, Text: ">=", Line: startLine, Offset: startOff}, nil
		}
		return Token{Kind: Gt, Text: ">", Line: startLine, Offset: startOff}, nil
	case '!':
		l.advanceRune()
		if l.peekByte() == '=' {
			l.advanceRune()
			return Token{Kind: Neq, Text: "!=", Line: startLine, Offset: startOff}, nil
		}
		return Token{}, newLexError(l.file, startLine, "illegal character '!'")
	case '-':
		if l.pos+1 < len(l.src) && l.src[l.pos+1] >= '0' && l.src[l.pos+1] <= '9' {
			l.advanceRune()
			tok, err := l.lexNumber(startLine, startOff)
			if err != nil {
				return tok, err
			}
			tok.Text = "-" + tok.Text
			return tok, nil
		}
		l.advanceRune()
		if l.peekByte() == '>' {
			l.advanceRune()
			return Token{Kind: Arrow, Text: "->", Line: startLine, Offset: startOff}, nil
		}
		return Token{}, newLexError(l.file, startLine, "illegal character '-'")
	case '"':
		return l.lexString(startLine, startOff)
	}

	if unicode.IsDigit(r) {
		return l.lexNumber(startLine, startOff)
	}
	if isIdentStart(r) {
		return l.lexIdentOrKeyword(startLine, startOff)
	}

	l.advanceRune()
	return Token{}, newLexError(l.file, startLine, "illegal character %q", r)
}

func isIdentStart(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func isIdentCont(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func (l *Lexer) lexIdentOrKeyword(startLine, startOff int) (Token, error) {
	var sb strings.Builder
	for {
		r, size := l.peekRune()
		if size == 0 || !isIdentCont(r) {
			break
		}
		sb.WriteRune(r)
		l.advanceRune()
	}
	text := sb.String()

	switch text {
	case "and":
		return Token{Kind: And, Text: text, Line: startLine, Offset: startOff}, nil
	case "or":
		return Token{Kind: Or, Text: text, Line: startLine, Offset: startOff}, nil
	case "not":
		return Token{Kind: Not, Text: text, Line: startLine, Offset: startOff}, nil
	case "forall":
		return Token{Kind: ForAll, Text: text, Line: startLine, Offset: startOff}, nil
	case "exists":
		return Token{Kind: Exists, Text: text, Line: startLine, Offset: startOff}, nil
	case "in":
		return Token{Kind: In, Text: text, Line: startLine, Offset: startOff}, nil
	}

	if keywords[text] {
		return Token{Kind: Keyword, Text: text, Line: startLine, Offset: startOff}, nil
	}
	return Token{Kind: Ident, Text: text, Line: startLine, Offset: startOff}, nil
}

func (l *Lexer) lexNumber(startLine, startOff int) (Token, error) {
	var sb strings.Builder
	for {
		r, size := l.peekRune()
		if size == 0 || !unicode.IsDigit(r) {
			break
		}
		sb.WriteRune(r)
		l.advanceRune()
	}

	if l.peekByte() == '.' {
		// Lookahead: only consume '.' as a decimal point if followed
		// by a digit, so "3." followed by a field path dot isn't
		// misparsed.
		if l.pos+1 < len(l.src) && l.src[l.pos+1] >= '0' && l.src[l.pos+1] <= '9' {
			sb.WriteByte('.')
			l.advanceRune()
			scale := 0
			for {
				r, size := l.peekRune()
				if size == 0 || !unicode.IsDigit(r) {
					break
				}
				sb.WriteRune(r)
				l.advanceRune()
				scale++
			}
			return Token{Kind: DecimalLit, Text: sb.String(), Line: startLine, Offset: startOff, DecimalScale: scale}, nil
		}
	}

	return Token{Kind: IntLit, Text: sb.String(), Line: startLine, Offset: startOff}, nil
}

func (l *Lexer) lexString(startLine, startOff int) (Token, error) {
	l.advanceRune() // opening quote
	var sb strings.Builder
	for {
		r, size := l.peekRune()
		if size == 0 {
			return Token{}, newLexError(l.file, startLine, "unterminated string literal")
		}
		if r == '"' {
			l.advanceRune()
			return Token{Kind: StringLit, Text: sb.String(), Line: startLine, Offset: startOff}, nil
		}
		if r == '\n' {
			return Token{}, newLexError(l.file, startLine, "unterminated string literal")
		}
		if r == '\\' {
			l.advanceRune()
			esc, size := l.peekRune()
			if size == 0 {
				return Token{}, newLexError(l.file, startLine, "unterminated string literal")
			}
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			default:
				return Token{}, newLexError(l.file, startLine, "invalid escape sequence '\\%c'", esc)
			}
			l.advanceRune()
			continue
		}
		sb.WriteRune(r)
		l.advanceRune()
	}
}
