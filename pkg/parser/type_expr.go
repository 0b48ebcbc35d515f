package parser

import (
	"github.com/riverline-labs/tenor/pkg/ast"
	"github.com/riverline-labs/tenor/pkg/lexer"
)

// parseTypeExpr parses a BaseType expression appearing after a "type:"
// field, e.g. Bool, Int(0, 100), Decimal(10, 2), Money(USD), Text(255),
// Enum["a", "b"], List(Int), Record{...}, TaggedUnion{...}, or a bare
// identifier referring to another TypeDecl (TTypeRef, resolved later
// by the type environment builder).
func (p *Parser) parseTypeExpr() (ast.BaseType, error) {
	name, err := p.expectIdent("type name")
	if err != nil {
		return ast.BaseType{}, err
	}

	switch name {
	case "Bool":
		return ast.BaseType{Kind: ast.TBool}, nil
	case "Int":
		bt := ast.BaseType{Kind: ast.TInt}
		if p.cur().Kind == lexer.LParen {
			p.advance()
			lo, err := p.parseSignedInt()
			if err != nil {
				return ast.BaseType{}, err
			}
			if _, err := p.expect(lexer.Comma, "','"); err != nil {
				return ast.BaseType{}, err
			}
			hi, err := p.parseSignedInt()
			if err != nil {
				return ast.BaseType{}, err
			}
			if _, err := p.expect(lexer.RParen, "')'"); err != nil {
				return ast.BaseType{}, err
			}
			bt.Min, bt.Max = &lo, &hi
		}
		return bt, nil
	case "Decimal":
		bt := ast.BaseType{Kind: ast.TDecimal}
		if p.cur().Kind == lexer.LParen {
			p.advance()
			prec, err := p.parseSignedInt()
			if err != nil {
				return ast.BaseType{}, err
			}
			if _, err := p.expect(lexer.Comma, "','"); err != nil {
				return ast.BaseType{}, err
			}
			scale, err := p.parseSignedInt()
			if err != nil {
				return ast.BaseType{}, err
			}
			if _, err := p.expect(lexer.RParen, "')'"); err != nil {
				return ast.BaseType{}, err
			}
			bt.Precision, bt.Scale = int(prec), int(scale)
		}
		return bt, nil
	case "Money":
		bt := ast.BaseType{Kind: ast.TMoney}
		if p.cur().Kind == lexer.LParen {
			p.advance()
			cur, err := p.expectIdent("currency code")
			if err != nil {
				return ast.BaseType{}, err
			}
			if _, err := p.expect(lexer.RParen, "')'"); err != nil {
				return ast.BaseType{}, err
			}
			bt.Currency = cur
		}
		return bt, nil
	case "Text":
		bt := ast.BaseType{Kind: ast.TText}
		if p.cur().Kind == lexer.LParen {
			p.advance()
			n, err := p.parseSignedInt()
			if err != nil {
				return ast.BaseType{}, err
			}
			if _, err := p.expect(lexer.RParen, "')'"); err != nil {
				return ast.BaseType{}, err
			}
			ni := int(n)
			bt.MaxLen = &ni
		}
		return bt, nil
	case "Date":
		return ast.BaseType{Kind: ast.TDate}, nil
	case "DateTime":
		return ast.BaseType{Kind: ast.TDateTime}, nil
	case "Duration":
		return ast.BaseType{Kind: ast.TDuration}, nil
	case "Enum":
		values, err := p.parseStringList()
		if err != nil {
			return ast.BaseType{}, err
		}
		return ast.BaseType{Kind: ast.TEnum, Values: values}, nil
	case "List":
		if _, err := p.expect(lexer.LParen, "'('"); err != nil {
			return ast.BaseType{}, err
		}
		elem, err := p.parseTypeExpr()
		if err != nil {
			return ast.BaseType{}, err
		}
		if _, err := p.expect(lexer.RParen, "')'"); err != nil {
			return ast.BaseType{}, err
		}
		return ast.BaseType{Kind: ast.TList, Elem: &elem}, nil
	case "Record":
		fields, err := p.parseFieldTypeMap()
		if err != nil {
			return ast.BaseType{}, err
		}
		return ast.BaseType{Kind: ast.TRecord, Fields: fields}, nil
	case "TaggedUnion":
		variants, err := p.parseFieldTypeMap()
		if err != nil {
			return ast.BaseType{}, err
		}
		return ast.BaseType{Kind: ast.TTaggedUnion, Variants: variants}, nil
	default:
		return ast.BaseType{Kind: ast.TTypeRef, RefName: name}, nil
	}
}

func (p *Parser) parseFieldTypeMap() (map[string]ast.BaseType, error) {
	if _, err := p.expect(lexer.LBrace, "'{'"); err != nil {
		return nil, err
	}
	out := map[string]ast.BaseType{}
	for p.cur().Kind != lexer.RBrace {
		name, err := p.fieldName()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.Colon, "':'"); err != nil {
			return nil, err
		}
		t, err := p.parseTypeExpr()
		if err != nil {
			return nil, err
		}
		out[name] = t
		if p.cur().Kind == lexer.Comma {
			p.advance()
		}
	}
	p.advance()
	return out, nil
}

func (p *Parser) parseSignedInt() (int64, error) {
	t, err := p.expect(lexer.IntLit, "integer")
	if err != nil {
		return 0, err
	}
	n, perr := parseSignedIntLit(t.Text)
	if perr != nil {
		return 0, newParseError(p.file, t.Line, "invalid integer: %v", perr)
	}
	return n, nil
}
