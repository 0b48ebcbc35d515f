// Package parser assembles a token stream into []ast.RawConstruct
// (Pass 0b of spec.md §4.1). The grammar is LL(1)-parseable and
// keyword-initiated: every construct begins with a lowercase keyword
// followed by an identifier and a brace-delimited body of field
// entries, except import, which is followed by a quoted path and has
// no body. The parser does not attempt error recovery — the first
// error stops the pass.
package parser

import (
	"fmt"

	"github.com/riverline-labs/tenor/pkg/ast"
	"github.com/riverline-labs/tenor/pkg/core"
	"github.com/riverline-labs/tenor/pkg/lexer"
)

// ParseError is a Pass 0 syntax error: an unexpected token, naming
// what was expected.
type ParseError struct {
	core.PassError
}

func newParseError(file string, line int, format string, args ...interface{}) *ParseError {
	return &ParseError{core.PassError{
		PassNum: 0,
		Prov:    core.Provenance{File: file, Line: line},
		Message: fmt.Sprintf(format, args...),
	}}
}

// Parser consumes a token stream for one file.
type Parser struct {
	file string
	toks []lexer.Token
	pos  int
}

// Parse tokenizes and parses src, returning every top-level construct
// declared in the file in source order.
func Parse(file, src string) ([]ast.RawConstruct, error) {
	toks, err := lexer.New(file, src).Tokenize()
	if err != nil {
		return nil, err
	}
	p := &Parser{file: file, toks: toks}
	return p.parseFile()
}

func (p *Parser) cur() lexer.Token  { return p.toks[p.pos] }
func (p *Parser) atEOF() bool       { return p.cur().Kind == lexer.EOF }
func (p *Parser) prov() core.Provenance {
	return core.Provenance{File: p.file, Line: p.cur().Line}
}

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) expect(k lexer.Kind, what string) (lexer.Token, error) {
	if p.cur().Kind != k {
		return lexer.Token{}, newParseError(p.file, p.cur().Line, "expected %s, found %q", what, p.cur().Text)
	}
	return p.advance(), nil
}

func (p *Parser) expectKeyword(kw string) error {
	if p.cur().Kind != lexer.Keyword || p.cur().Text != kw {
		return newParseError(p.file, p.cur().Line, "expected keyword %q, found %q", kw, p.cur().Text)
	}
	p.advance()
	return nil
}

func (p *Parser) expectIdent(what string) (string, error) {
	t, err := p.expect(lexer.Ident, what)
	if err != nil {
		return "", err
	}
	return t.Text, nil
}

func (p *Parser) parseFile() ([]ast.RawConstruct, error) {
	var out []ast.RawConstruct
	for !p.atEOF() {
		c, err := p.parseConstruct()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (p *Parser) parseConstruct() (ast.RawConstruct, error) {
	if p.cur().Kind != lexer.Keyword {
		return ast.RawConstruct{}, newParseError(p.file, p.cur().Line, "expected top-level construct keyword, found %q", p.cur().Text)
	}
	prov := p.prov()
	kw := p.cur().Text
	p.advance()

	switch kw {
	case "import":
		return p.parseImport(prov)
	case "type":
		return p.parseTypeDecl(prov)
	case "fact":
		return p.parseFact(prov)
	case "entity":
		return p.parseEntity(prov)
	case "persona":
		return p.parsePersona(prov)
	case "source":
		return p.parseSource(prov)
	case "rule":
		return p.parseRule(prov)
	case "operation":
		return p.parseOperation(prov)
	case "flow":
		return p.parseFlow(prov)
	case "system":
		return p.parseSystem(prov)
	default:
		return ast.RawConstruct{}, newParseError(p.file, prov.Line, "unknown construct keyword %q", kw)
	}
}

// body runs fn once per "field: value"/"field: { ... }" entry inside
// a brace-delimited block, in source order, stopping at the closing
// brace.
func (p *Parser) body(fn func(field string, fieldLine int) error) error {
	if _, err := p.expect(lexer.LBrace, "'{'"); err != nil {
		return err
	}
	for p.cur().Kind != lexer.RBrace {
		if p.atEOF() {
			return newParseError(p.file, p.cur().Line, "unexpected end of file, expected '}'")
		}
		fieldLine := p.cur().Line
		field, err := p.fieldName()
		if err != nil {
			return err
		}
		if _, err := p.expect(lexer.Colon, "':'"); err != nil {
			return err
		}
		if err := fn(field, fieldLine); err != nil {
			return err
		}
	}
	p.advance() // '}'
	return nil
}

// fieldName accepts an identifier or keyword token as a field label
// (field names may collide with reserved keywords, e.g. "type:").
func (p *Parser) fieldName() (string, error) {
	t := p.cur()
	if t.Kind != lexer.Ident && t.Kind != lexer.Keyword {
		return "", newParseError(p.file, t.Line, "expected field name, found %q", t.Text)
	}
	p.advance()
	return t.Text, nil
}

func (p *Parser) parseString() (string, error) {
	t, err := p.expect(lexer.StringLit, "string literal")
	if err != nil {
		return "", err
	}
	return t.Text, nil
}

func (p *Parser) parseStringList() ([]string, error) {
	if _, err := p.expect(lexer.LBracket, "'['"); err != nil {
		return nil, err
	}
	var out []string
	for p.cur().Kind != lexer.RBracket {
		s, err := p.parseString()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
		if p.cur().Kind == lexer.Comma {
			p.advance()
		}
	}
	p.advance() // ']'
	return out, nil
}

func (p *Parser) parseImport(prov core.Provenance) (ast.RawConstruct, error) {
	path, err := p.parseString()
	if err != nil {
		return ast.RawConstruct{}, err
	}
	return ast.RawConstruct{Kind: core.KindImport, Prov: prov, Import: &ast.ImportBody{Path: path}}, nil
}

func (p *Parser) parseSystem(prov core.Provenance) (ast.RawConstruct, error) {
	name, err := p.expectIdent("system name")
	if err != nil {
		return ast.RawConstruct{}, err
	}
	body := &ast.SystemBody{Name: name}
	err = p.body(func(field string, _ int) error {
		if field == "name" {
			s, err := p.parseString()
			if err != nil {
				return err
			}
			body.Name = s
			return nil
		}
		return p.skipValue()
	})
	return ast.RawConstruct{Kind: core.KindSystem, Prov: prov, System: body}, err
}

func (p *Parser) parsePersona(prov core.Provenance) (ast.RawConstruct, error) {
	id, err := p.expectIdent("persona id")
	if err != nil {
		return ast.RawConstruct{}, err
	}
	err = p.body(func(field string, _ int) error { return p.skipValue() })
	return ast.RawConstruct{Kind: core.KindPersona, ID: id, Prov: prov, Persona: &ast.PersonaBody{}}, err
}

func (p *Parser) parseSource(prov core.Provenance) (ast.RawConstruct, error) {
	id, err := p.expectIdent("source id")
	if err != nil {
		return ast.RawConstruct{}, err
	}
	body := &ast.SourceBody{Name: id}
	err = p.body(func(field string, _ int) error { return p.skipValue() })
	return ast.RawConstruct{Kind: core.KindSource, ID: id, Prov: prov, Source: body}, err
}

func (p *Parser) parseTypeDecl(prov core.Provenance) (ast.RawConstruct, error) {
	id, err := p.expectIdent("type name")
	if err != nil {
		return ast.RawConstruct{}, err
	}
	var bt ast.BaseType
	err = p.body(func(field string, fieldLine int) error {
		switch field {
		case "type":
			t, err := p.parseTypeExpr()
			if err != nil {
				return err
			}
			bt = t
			return nil
		default:
			return p.skipValue()
		}
	})
	return ast.RawConstruct{Kind: core.KindTypeDecl, ID: id, Prov: prov, TypeDecl: &ast.TypeDeclBody{Type: bt}}, err
}

func (p *Parser) parseFact(prov core.Provenance) (ast.RawConstruct, error) {
	id, err := p.expectIdent("fact id")
	if err != nil {
		return ast.RawConstruct{}, err
	}
	body := &ast.FactBody{}
	err = p.body(func(field string, _ int) error {
		switch field {
		case "type":
			t, err := p.parseTypeExpr()
			if err != nil {
				return err
			}
			body.Type = t
			return nil
		case "default":
			lit, err := p.parseLiteral()
			if err != nil {
				return err
			}
			body.Default = lit
			return nil
		case "source":
			system, err := p.expectIdent("source system")
			if err != nil {
				return err
			}
			if _, err := p.expect(lexer.Dot, "'.'"); err != nil {
				return err
			}
			fieldName, err := p.expectIdent("source field")
			if err != nil {
				return err
			}
			body.Source = &ast.SourceBinding{System: system, Field: fieldName}
			return nil
		default:
			return p.skipValue()
		}
	})
	return ast.RawConstruct{Kind: core.KindFact, ID: id, Prov: prov, Fact: body}, err
}

func (p *Parser) parseEntity(prov core.Provenance) (ast.RawConstruct, error) {
	id, err := p.expectIdent("entity id")
	if err != nil {
		return ast.RawConstruct{}, err
	}
	body := &ast.EntityBody{}
	err = p.body(func(field string, fieldLine int) error {
		switch field {
		case "states":
			ss, err := p.parseStringList()
			if err != nil {
				return err
			}
			body.States = ss
			return nil
		case "initial":
			s, err := p.parseString()
			if err != nil {
				return err
			}
			body.Initial = s
			body.InitialProv = core.Provenance{File: p.file, Line: fieldLine}
			return nil
		case "transitions":
			ts, err := p.parseTransitions()
			if err != nil {
				return err
			}
			body.Transitions = ts
			return nil
		case "parent":
			s, err := p.expectIdent("parent entity id")
			if err != nil {
				return err
			}
			body.Parent = s
			return nil
		default:
			return p.skipValue()
		}
	})
	return ast.RawConstruct{Kind: core.KindEntity, ID: id, Prov: prov, Entity: body}, err
}

func (p *Parser) parseTransitions() ([]ast.Transition, error) {
	if _, err := p.expect(lexer.LBracket, "'['"); err != nil {
		return nil, err
	}
	var out []ast.Transition
	for p.cur().Kind != lexer.RBracket {
		if _, err := p.expect(lexer.LParen, "'('"); err != nil {
			return nil, err
		}
		from, err := p.parseString()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.Comma, "','"); err != nil {
			return nil, err
		}
		to, err := p.parseString()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RParen, "')'"); err != nil {
			return nil, err
		}
		out = append(out, ast.Transition{From: from, To: to})
		if p.cur().Kind == lexer.Comma {
			p.advance()
		}
	}
	p.advance() // ']'
	return out, nil
}

func (p *Parser) parseRule(prov core.Provenance) (ast.RawConstruct, error) {
	id, err := p.expectIdent("rule id")
	if err != nil {
		return ast.RawConstruct{}, err
	}
	body := &ast.RuleBody{}
	err = p.body(func(field string, _ int) error {
		switch field {
		case "stratum":
			t, err := p.expect(lexer.IntLit, "integer")
			if err != nil {
				return err
			}
			n, perr := parseIntLit(t.Text)
			if perr != nil {
				return newParseError(p.file, t.Line, "invalid stratum: %v", perr)
			}
			body.Stratum = int(n)
			return nil
		case "when":
			e, err := p.parseExpr()
			if err != nil {
				return err
			}
			body.When = e
			return nil
		case "produce":
			produceType, payload, err := p.parseProduce()
			if err != nil {
				return err
			}
			body.ProduceType = produceType
			body.Payload = payload
			return nil
		default:
			return p.skipValue()
		}
	})
	return ast.RawConstruct{Kind: core.KindRule, ID: id, Prov: prov, Rule: body}, err
}

// parseProduce parses "VerdictType" or "VerdictType(payload expr)".
func (p *Parser) parseProduce() (string, ast.Expr, error) {
	name, err := p.expectIdent("verdict type")
	if err != nil {
		return "", ast.Expr{}, err
	}
	if p.cur().Kind != lexer.LParen {
		return name, ast.Expr{}, nil
	}
	p.advance()
	e, err := p.parseExpr()
	if err != nil {
		return "", ast.Expr{}, err
	}
	if _, err := p.expect(lexer.RParen, "')'"); err != nil {
		return "", ast.Expr{}, err
	}
	return name, e, nil
}

func (p *Parser) parseOperation(prov core.Provenance) (ast.RawConstruct, error) {
	id, err := p.expectIdent("operation id")
	if err != nil {
		return ast.RawConstruct{}, err
	}
	body := &ast.OperationBody{}
	err = p.body(func(field string, _ int) error {
		switch field {
		case "allowed_personas":
			ss, err := p.parseStringList()
			if err != nil {
				return err
			}
			body.AllowedPersonas = ss
			return nil
		case "precondition":
			e, err := p.parseExpr()
			if err != nil {
				return err
			}
			body.Precondition = e
			return nil
		case "effects":
			ef, err := p.parseEffects()
			if err != nil {
				return err
			}
			body.Effects = ef
			return nil
		case "errors":
			ss, err := p.parseStringList()
			if err != nil {
				return err
			}
			body.ErrorContract = ss
			return nil
		default:
			return p.skipValue()
		}
	})
	return ast.RawConstruct{Kind: core.KindOperation, ID: id, Prov: prov, Operation: body}, err
}

func (p *Parser) parseEffects() ([]ast.Effect, error) {
	if _, err := p.expect(lexer.LBracket, "'['"); err != nil {
		return nil, err
	}
	var out []ast.Effect
	for p.cur().Kind != lexer.RBracket {
		if _, err := p.expect(lexer.LParen, "'('"); err != nil {
			return nil, err
		}
		entity, err := p.expectIdent("entity id")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.Comma, "','"); err != nil {
			return nil, err
		}
		from, err := p.parseString()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.Comma, "','"); err != nil {
			return nil, err
		}
		to, err := p.parseString()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RParen, "')'"); err != nil {
			return nil, err
		}
		out = append(out, ast.Effect{EntityID: entity, From: from, To: to})
		if p.cur().Kind == lexer.Comma {
			p.advance()
		}
	}
	p.advance()
	return out, nil
}

func (p *Parser) parseFlow(prov core.Provenance) (ast.RawConstruct, error) {
	id, err := p.expectIdent("flow id")
	if err != nil {
		return ast.RawConstruct{}, err
	}
	body := &ast.FlowBody{Snapshot: "at_initiation", Steps: map[string]ast.FlowStep{}}
	err = p.body(func(field string, _ int) error {
		switch field {
		case "entry":
			s, err := p.expectIdent("entry step id")
			if err != nil {
				return err
			}
			body.Entry = s
			return nil
		case "snapshot":
			s, err := p.parseString()
			if err != nil {
				return err
			}
			body.Snapshot = s
			return nil
		case "steps":
			return p.parseSteps(body)
		default:
			return p.skipValue()
		}
	})
	return ast.RawConstruct{Kind: core.KindFlow, ID: id, Prov: prov, Flow: body}, err
}

func (p *Parser) parseSteps(flow *ast.FlowBody) error {
	if _, err := p.expect(lexer.LBrace, "'{'"); err != nil {
		return err
	}
	for p.cur().Kind != lexer.RBrace {
		if p.atEOF() {
			return newParseError(p.file, p.cur().Line, "unexpected end of file, expected '}'")
		}
		stepID, err := p.fieldName()
		if err != nil {
			return err
		}
		if _, err := p.expect(lexer.Colon, "':'"); err != nil {
			return err
		}
		step, err := p.parseStep(stepID)
		if err != nil {
			return err
		}
		flow.Steps[stepID] = step
	}
	p.advance()
	return nil
}

func (p *Parser) parseStep(id string) (ast.FlowStep, error) {
	kwTok := p.cur()
	if kwTok.Kind != lexer.Ident && kwTok.Kind != lexer.Keyword {
		return ast.FlowStep{}, newParseError(p.file, kwTok.Line, "expected step kind, found %q", kwTok.Text)
	}
	kind := kwTok.Text
	p.advance()

	switch kind {
	case "operation_step":
		return p.parseOperationStep(id)
	case "branch_step":
		return p.parseBranchStep(id)
	case "handoff_step":
		return p.parseHandoffStep(id)
	case "subflow_step":
		return p.parseSubFlowStep(id)
	case "parallel_step":
		return p.parseParallelStep(id)
	default:
		return ast.FlowStep{}, newParseError(p.file, kwTok.Line, "unknown step kind %q", kind)
	}
}

func (p *Parser) parseTarget() (ast.Target, error) {
	if p.cur().Kind == lexer.StringLit {
		t, _ := p.parseString()
		return ast.Target{IsTerminal: true, Outcome: t}, nil
	}
	s, err := p.expectIdent("step id or terminal outcome")
	if err != nil {
		return ast.Target{}, err
	}
	return ast.Target{StepID: s}, nil
}

func (p *Parser) parseOperationStep(id string) (ast.FlowStep, error) {
	op := &ast.OperationStep{Outcomes: map[string]ast.Target{}}
	err := p.body(func(field string, _ int) error {
		switch field {
		case "op":
			s, err := p.expectIdent("operation id")
			if err != nil {
				return err
			}
			op.Op = s
			return nil
		case "persona":
			s, err := p.expectIdent("persona id")
			if err != nil {
				return err
			}
			op.Persona = s
			return nil
		case "outcomes":
			return p.parseOutcomeMap(op.Outcomes)
		case "on_failure":
			fh, err := p.parseFailureHandler()
			if err != nil {
				return err
			}
			op.OnFailure = fh
			return nil
		default:
			return p.skipValue()
		}
	})
	return ast.FlowStep{Kind: ast.StepOperation, ID: id, Operation: op}, err
}

func (p *Parser) parseOutcomeMap(into map[string]ast.Target) error {
	if _, err := p.expect(lexer.LBrace, "'{'"); err != nil {
		return err
	}
	for p.cur().Kind != lexer.RBrace {
		label, err := p.fieldName()
		if err != nil {
			return err
		}
		if _, err := p.expect(lexer.Colon, "':'"); err != nil {
			return err
		}
		target, err := p.parseTarget()
		if err != nil {
			return err
		}
		into[label] = target
	}
	p.advance()
	return nil
}

func (p *Parser) parseFailureHandler() (ast.FailureHandler, error) {
	kwTok := p.cur()
	if kwTok.Kind != lexer.Ident {
		return ast.FailureHandler{}, newParseError(p.file, kwTok.Line, "expected failure handler kind, found %q", kwTok.Text)
	}
	kind := kwTok.Text
	p.advance()

	switch kind {
	case "terminate":
		if _, err := p.expect(lexer.LParen, "'('"); err != nil {
			return ast.FailureHandler{}, err
		}
		outcome, err := p.parseString()
		if err != nil {
			return ast.FailureHandler{}, err
		}
		if _, err := p.expect(lexer.RParen, "')'"); err != nil {
			return ast.FailureHandler{}, err
		}
		return ast.FailureHandler{Kind: ast.FailureTerminate, Outcome: outcome}, nil
	case "compensate":
		if _, err := p.expect(lexer.LBracket, "'['"); err != nil {
			return ast.FailureHandler{}, err
		}
		var steps []ast.OperationStep
		for p.cur().Kind != lexer.RBracket {
			if p.cur().Kind != lexer.Ident || p.cur().Text != "operation_step" {
				return ast.FailureHandler{}, newParseError(p.file, p.cur().Line, "expected \"operation_step\", found %q", p.cur().Text)
			}
			p.advance()
			fs, err := p.parseOperationStep("")
			if err != nil {
				return ast.FailureHandler{}, err
			}
			steps = append(steps, *fs.Operation)
			if p.cur().Kind == lexer.Comma {
				p.advance()
			}
		}
		p.advance()
		outcome := ""
		if p.cur().Kind == lexer.Comma {
			p.advance()
		}
		if p.cur().Kind == lexer.StringLit {
			outcome, _ = p.parseString()
		}
		return ast.FailureHandler{Kind: ast.FailureCompensate, Compensation: steps, Outcome: outcome}, nil
	case "escalate":
		if _, err := p.expect(lexer.LParen, "'('"); err != nil {
			return ast.FailureHandler{}, err
		}
		flowID, err := p.expectIdent("handler flow id")
		if err != nil {
			return ast.FailureHandler{}, err
		}
		if _, err := p.expect(lexer.RParen, "')'"); err != nil {
			return ast.FailureHandler{}, err
		}
		return ast.FailureHandler{Kind: ast.FailureEscalate, HandlerFlowID: flowID}, nil
	default:
		return ast.FailureHandler{}, newParseError(p.file, kwTok.Line, "unknown failure handler kind %q", kind)
	}
}

func (p *Parser) parseBranchStep(id string) (ast.FlowStep, error) {
	b := &ast.BranchStep{}
	err := p.body(func(field string, _ int) error {
		switch field {
		case "condition":
			e, err := p.parseExpr()
			if err != nil {
				return err
			}
			b.Condition = e
			return nil
		case "persona":
			s, err := p.expectIdent("persona id")
			if err != nil {
				return err
			}
			b.Persona = s
			return nil
		case "if_true":
			t, err := p.parseTarget()
			if err != nil {
				return err
			}
			b.IfTrue = t
			return nil
		case "if_false":
			t, err := p.parseTarget()
			if err != nil {
				return err
			}
			b.IfFalse = t
			return nil
		default:
			return p.skipValue()
		}
	})
	return ast.FlowStep{Kind: ast.StepBranch, ID: id, Branch: b}, err
}

func (p *Parser) parseHandoffStep(id string) (ast.FlowStep, error) {
	h := &ast.HandoffStep{}
	err := p.body(func(field string, _ int) error {
		switch field {
		case "from_persona":
			s, err := p.expectIdent("persona id")
			if err != nil {
				return err
			}
			h.FromPersona = s
			return nil
		case "to_persona":
			s, err := p.expectIdent("persona id")
			if err != nil {
				return err
			}
			h.ToPersona = s
			return nil
		case "next":
			t, err := p.parseTarget()
			if err != nil {
				return err
			}
			h.Next = t
			return nil
		default:
			return p.skipValue()
		}
	})
	return ast.FlowStep{Kind: ast.StepHandoff, ID: id, Handoff: h}, err
}

func (p *Parser) parseSubFlowStep(id string) (ast.FlowStep, error) {
	s := &ast.SubFlowStep{}
	err := p.body(func(field string, _ int) error {
		switch field {
		case "flow":
			v, err := p.expectIdent("flow id")
			if err != nil {
				return err
			}
			s.FlowID = v
			return nil
		case "persona":
			v, err := p.expectIdent("persona id")
			if err != nil {
				return err
			}
			s.Persona = v
			return nil
		case "on_success":
			t, err := p.parseTarget()
			if err != nil {
				return err
			}
			s.OnSuccess = t
			return nil
		case "on_failure":
			t, err := p.parseTarget()
			if err != nil {
				return err
			}
			s.OnFailure = t
			return nil
		default:
			return p.skipValue()
		}
	})
	return ast.FlowStep{Kind: ast.StepSubFlow, ID: id, SubFlow: s}, err
}

func (p *Parser) parseParallelStep(id string) (ast.FlowStep, error) {
	ps := &ast.ParallelStep{}
	err := p.body(func(field string, _ int) error {
		switch field {
		case "branches":
			if _, err := p.expect(lexer.LBracket, "'['"); err != nil {
				return err
			}
			for p.cur().Kind != lexer.RBracket {
				s, err := p.expectIdent("branch entry step id")
				if err != nil {
					return err
				}
				ps.Branches = append(ps.Branches, ast.ParallelBranch{EntryStepID: s})
				if p.cur().Kind == lexer.Comma {
					p.advance()
				}
			}
			p.advance()
			return nil
		case "on_all_success":
			t, err := p.parseTarget()
			if err != nil {
				return err
			}
			ps.OnAllSuccess = t
			return nil
		case "on_failure":
			t, err := p.parseTarget()
			if err != nil {
				return err
			}
			ps.OnFailure = t
			return nil
		default:
			return p.skipValue()
		}
	})
	return ast.FlowStep{Kind: ast.StepParallel, ID: id, Parallel: ps}, err
}

func parseIntLit(text string) (int64, error) {
	var n int64
	for _, c := range text {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("invalid digit %q", c)
		}
		n = n*10 + int64(c-'0')
	}
	return n, nil
}

func parseSignedIntLit(text string) (int64, error) {
	if len(text) > 0 && text[0] == '-' {
		n, err := parseIntLit(text[1:])
		if err != nil {
			return 0, err
		}
		return -n, nil
	}
	return parseIntLit(text)
}
