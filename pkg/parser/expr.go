package parser

import (
	"github.com/riverline-labs/tenor/pkg/ast"
	"github.com/riverline-labs/tenor/pkg/core"
	"github.com/riverline-labs/tenor/pkg/lexer"
)

// parseExpr parses a predicate expression. Precedence, loosest to
// tightest: or, and, not, comparison, product, primary. Quantifiers
// and verdict_present are primaries.
func (p *Parser) parseExpr() (ast.Expr, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return ast.Expr{}, err
	}
	for p.cur().Kind == lexer.Or {
		prov := p.prov()
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return ast.Expr{}, err
		}
		l, r := left, right
		left = ast.Expr{Kind: ast.ExprOr, Prov: prov, Left: &l, Right: &r}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return ast.Expr{}, err
	}
	for p.cur().Kind == lexer.And {
		prov := p.prov()
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return ast.Expr{}, err
		}
		l, r := left, right
		left = ast.Expr{Kind: ast.ExprAnd, Prov: prov, Left: &l, Right: &r}
	}
	return left, nil
}

func (p *Parser) parseNot() (ast.Expr, error) {
	if p.cur().Kind == lexer.Not {
		prov := p.prov()
		p.advance()
		operand, err := p.parseNot()
		if err != nil {
			return ast.Expr{}, err
		}
		return ast.Expr{Kind: ast.ExprNot, Prov: prov, Operand: &operand}, nil
	}
	return p.parseComparison()
}

var compareOps = map[lexer.Kind]string{
	lexer.Eq:  "=",
	lexer.Neq: "≠",
	lexer.Lt:  "<",
	lexer.Leq: "≤",
	lexer.Gt:  ">",
	lexer.Geq: "≥",
}

func (p *Parser) parseComparison() (ast.Expr, error) {
	left, err := p.parseProduct()
	if err != nil {
		return ast.Expr{}, err
	}
	if op, ok := compareOps[p.cur().Kind]; ok {
		prov := p.prov()
		p.advance()
		right, err := p.parseProduct()
		if err != nil {
			return ast.Expr{}, err
		}
		l, r := left, right
		return ast.Expr{Kind: ast.ExprCompare, Prov: prov, CompareOp: op, Left: &l, Right: &r}, nil
	}
	return left, nil
}

func (p *Parser) parseProduct() (ast.Expr, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return ast.Expr{}, err
	}
	for p.cur().Kind == lexer.Times {
		prov := p.prov()
		p.advance()
		right, err := p.parsePrimary()
		if err != nil {
			return ast.Expr{}, err
		}
		l, r := left, right
		left = ast.Expr{Kind: ast.ExprProduct, Prov: prov, Left: &l, Right: &r}
	}
	return left, nil
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	prov := p.prov()
	t := p.cur()

	switch t.Kind {
	case lexer.LParen:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return ast.Expr{}, err
		}
		if _, err := p.expect(lexer.RParen, "')'"); err != nil {
			return ast.Expr{}, err
		}
		return e, nil
	case lexer.ForAll, lexer.Exists:
		return p.parseQuantifier()
	case lexer.IntLit, lexer.DecimalLit, lexer.StringLit:
		lit, err := p.parseLiteral()
		if err != nil {
			return ast.Expr{}, err
		}
		return ast.Expr{Kind: ast.ExprLiteral, Prov: prov, Literal: lit}, nil
	case lexer.Ident:
		return p.parseIdentExpr(prov)
	default:
		return ast.Expr{}, newParseError(p.file, t.Line, "expected expression, found %q", t.Text)
	}
}

func (p *Parser) parseQuantifier() (ast.Expr, error) {
	prov := p.prov()
	kind := ast.ExprForAll
	if p.cur().Kind == lexer.Exists {
		kind = ast.ExprExists
	}
	p.advance()

	v, err := p.expectIdent("quantifier variable")
	if err != nil {
		return ast.Expr{}, err
	}
	if _, err := p.expect(lexer.In, "'in'/'∈'"); err != nil {
		return ast.Expr{}, err
	}
	domain, err := p.parsePrimary()
	if err != nil {
		return ast.Expr{}, err
	}
	if _, err := p.expect(lexer.Comma, "','"); err != nil {
		return ast.Expr{}, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return ast.Expr{}, err
	}
	return ast.Expr{Kind: kind, Prov: prov, QuantVar: v, QuantDomain: &domain, QuantBody: &body}, nil
}

// parseIdentExpr disambiguates verdict_present(id), a fact reference,
// a plain bound variable, and a field-path chain (ident (. ident)*).
func (p *Parser) parseIdentExpr(prov core.Provenance) (ast.Expr, error) {
	name := p.cur().Text
	p.advance()

	if name == "verdict_present" && p.cur().Kind == lexer.LParen {
		p.advance()
		vt, err := p.expectIdent("verdict type")
		if err != nil {
			return ast.Expr{}, err
		}
		if _, err := p.expect(lexer.RParen, "')'"); err != nil {
			return ast.Expr{}, err
		}
		return ast.Expr{Kind: ast.ExprVerdictPresent, Prov: prov, VerdictType: vt}, nil
	}

	base := ast.Expr{Kind: ast.ExprVar, Prov: prov, Var: name}

	for p.cur().Kind == lexer.Dot {
		p.advance()
		field, err := p.expectIdent("field name")
		if err != nil {
			return ast.Expr{}, err
		}
		b := base
		base = ast.Expr{Kind: ast.ExprFieldPath, Prov: prov, FieldBase: &b, FieldName: field}
	}
	return base, nil
}

// parseIdentExpr always emits ExprVar for a bare identifier (besides
// the verdict_present(...) special form): fact ids and quantifier-
// bound variables share identifier syntax, and only the type checker
// (Pass 4), with the Fact index and quantifier scope in hand, can
// tell which is which. It rewrites an unshadowed ExprVar into
// ExprFactRef when the name resolves against the Fact index.
