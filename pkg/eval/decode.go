package eval

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/riverline-labs/tenor/pkg/ast"
	"github.com/riverline-labs/tenor/pkg/core"
	"github.com/riverline-labs/tenor/pkg/interchange"
)

// DecodeBundle is the inverse of interchange.Serialize: it turns a
// canonical JSON bundle back into the construct list the rest of the
// toolchain already knows how to index and evaluate. This is how a
// standalone evaluator process consumes a bundle produced (and
// persisted, or shipped over the wire) by a separate elaboration run,
// per spec.md §4.8.1's "Evaluator operates on an elaborated contract".
func DecodeBundle(data []byte, logger hclog.Logger) ([]ast.RawConstruct, string, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, "", &EvalError{Kind: ErrBadContract, Detail: fmt.Sprintf("not a JSON object: %v", err)}
	}

	var kind string
	if err := decodeField(raw, "kind", &kind); err != nil || kind != "Bundle" {
		return nil, "", &EvalError{Kind: ErrBadContract, Detail: fmt.Sprintf("expected kind \"Bundle\", got %q", kind)}
	}

	var version string
	_ = decodeField(raw, "tenor_version", &version)
	if err := checkVersion(version, logger); err != nil {
		return nil, "", err
	}

	var tenorName string
	_ = decodeField(raw, "tenor", &tenorName)

	var rawConstructs []json.RawMessage
	if err := decodeField(raw, "constructs", &rawConstructs); err != nil {
		return nil, "", &EvalError{Kind: ErrBadContract, Detail: "missing \"constructs\" array"}
	}

	out := make([]ast.RawConstruct, 0, len(rawConstructs))
	for _, rc := range rawConstructs {
		c, err := decodeConstruct(rc)
		if err != nil {
			return nil, "", err
		}
		out = append(out, c)
	}
	return out, tenorName, nil
}

// checkVersion compares against interchange.TenorVersion: a major
// mismatch is fatal, a minor mismatch is tolerated (this evaluator is
// forward-compatible within a major version) but logged, since a bundle
// produced by a newer minor version may carry constructs this evaluator
// predates.
func checkVersion(got string, logger hclog.Logger) error {
	if got == "" {
		return &EvalError{Kind: ErrBadContract, Detail: "missing tenor_version"}
	}
	wantMajor := strings.SplitN(interchange.TenorVersion, ".", 2)[0]
	gotMajor := strings.SplitN(got, ".", 2)[0]
	if gotMajor != wantMajor {
		return &EvalError{Kind: ErrBadContract, Detail: fmt.Sprintf("incompatible tenor_version %q (this evaluator supports %s.x)", got, wantMajor)}
	}
	if got != interchange.TenorVersion {
		logger.Warn("bundle tenor_version differs from evaluator version", "bundle_version", got, "evaluator_version", interchange.TenorVersion)
	}
	return nil
}

func decodeField(obj map[string]json.RawMessage, key string, v interface{}) error {
	raw, ok := obj[key]
	if !ok {
		return fmt.Errorf("missing field %q", key)
	}
	return json.Unmarshal(raw, v)
}

func decodeObj(raw json.RawMessage) (map[string]json.RawMessage, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeConstruct(raw json.RawMessage) (ast.RawConstruct, error) {
	m, err := decodeObj(raw)
	if err != nil {
		return ast.RawConstruct{}, &EvalError{Kind: ErrBadContract, Detail: fmt.Sprintf("construct is not an object: %v", err)}
	}

	var kindStr, id string
	_ = decodeField(m, "kind", &kindStr)
	_ = decodeField(m, "id", &id)
	kind, err := core.ParseConstructKind(kindStr)
	if err != nil {
		return ast.RawConstruct{}, &EvalError{Kind: ErrBadContract, Detail: err.Error()}
	}

	var prov core.Provenance
	if provRaw, ok := m["provenance"]; ok {
		var p struct {
			File string `json:"file"`
			Line int    `json:"line"`
		}
		if err := json.Unmarshal(provRaw, &p); err == nil {
			prov = core.Provenance{File: p.File, Line: p.Line}
		}
	}

	c := ast.RawConstruct{Kind: kind, ID: id, Prov: prov}

	switch kind {
	case core.KindPersona:
		c.Persona = &ast.PersonaBody{}
	case core.KindSource:
		var name string
		_ = decodeField(m, "name", &name)
		c.Source = &ast.SourceBody{Name: name}
	case core.KindFact:
		body, err := decodeFactBody(m)
		if err != nil {
			return ast.RawConstruct{}, err
		}
		c.Fact = body
	case core.KindEntity:
		body, err := decodeEntityBody(m)
		if err != nil {
			return ast.RawConstruct{}, err
		}
		c.Entity = body
	case core.KindRule:
		body, err := decodeRuleBody(m)
		if err != nil {
			return ast.RawConstruct{}, err
		}
		c.Rule = body
	case core.KindOperation:
		body, err := decodeOperationBody(m)
		if err != nil {
			return ast.RawConstruct{}, err
		}
		c.Operation = body
	case core.KindFlow:
		body, err := decodeFlowBody(m)
		if err != nil {
			return ast.RawConstruct{}, err
		}
		c.Flow = body
	case core.KindSystem:
		var name string
		_ = decodeField(m, "name", &name)
		c.System = &ast.SystemBody{Name: name}
	}

	return c, nil
}

func decodeFactBody(m map[string]json.RawMessage) (*ast.FactBody, error) {
	var typeRaw json.RawMessage
	_ = decodeField(m, "type", &typeRaw)
	t, err := decodeType(typeRaw)
	if err != nil {
		return nil, err
	}
	body := &ast.FactBody{Type: t}
	if defRaw, ok := m["default"]; ok {
		lit, err := decodeLiteral(defRaw)
		if err != nil {
			return nil, err
		}
		body.Default = lit
	}
	if srcRaw, ok := m["source"]; ok {
		var s struct {
			System string `json:"system"`
			Field  string `json:"field"`
		}
		if err := json.Unmarshal(srcRaw, &s); err == nil {
			body.Source = &ast.SourceBinding{System: s.System, Field: s.Field}
		}
	}
	return body, nil
}

func decodeEntityBody(m map[string]json.RawMessage) (*ast.EntityBody, error) {
	body := &ast.EntityBody{}
	_ = decodeField(m, "states", &body.States)
	_ = decodeField(m, "initial", &body.Initial)
	_ = decodeField(m, "parent", &body.Parent)
	var transitions []struct {
		From string `json:"from"`
		To   string `json:"to"`
	}
	_ = decodeField(m, "transitions", &transitions)
	for _, t := range transitions {
		body.Transitions = append(body.Transitions, ast.Transition{From: t.From, To: t.To})
	}
	return body, nil
}

func decodeRuleBody(m map[string]json.RawMessage) (*ast.RuleBody, error) {
	body := &ast.RuleBody{}
	_ = decodeField(m, "stratum", &body.Stratum)
	var whenRaw json.RawMessage
	_ = decodeField(m, "when", &whenRaw)
	when, err := decodeExpr(whenRaw)
	if err != nil {
		return nil, err
	}
	body.When = when

	var produceRaw map[string]json.RawMessage
	if err := decodeField(m, "produce", &produceRaw); err == nil {
		_ = decodeField(produceRaw, "type", &body.ProduceType)
		var payloadRaw json.RawMessage
		_ = decodeField(produceRaw, "payload", &payloadRaw)
		payload, err := decodeExpr(payloadRaw)
		if err != nil {
			return nil, err
		}
		body.Payload = payload
	}
	return body, nil
}

func decodeOperationBody(m map[string]json.RawMessage) (*ast.OperationBody, error) {
	body := &ast.OperationBody{}
	_ = decodeField(m, "allowed_personas", &body.AllowedPersonas)
	_ = decodeField(m, "errors", &body.ErrorContract)

	var precondRaw json.RawMessage
	_ = decodeField(m, "precondition", &precondRaw)
	precond, err := decodeExpr(precondRaw)
	if err != nil {
		return nil, err
	}
	body.Precondition = precond

	var effects []struct {
		Entity string `json:"entity"`
		From   string `json:"from"`
		To     string `json:"to"`
	}
	_ = decodeField(m, "effects", &effects)
	for _, e := range effects {
		body.Effects = append(body.Effects, ast.Effect{EntityID: e.Entity, From: e.From, To: e.To})
	}
	return body, nil
}

func decodeFlowBody(m map[string]json.RawMessage) (*ast.FlowBody, error) {
	body := &ast.FlowBody{Steps: map[string]ast.FlowStep{}}
	_ = decodeField(m, "entry", &body.Entry)
	_ = decodeField(m, "snapshot", &body.Snapshot)

	var stepsRaw map[string]json.RawMessage
	_ = decodeField(m, "steps", &stepsRaw)
	for id, raw := range stepsRaw {
		step, err := decodeStep(id, raw)
		if err != nil {
			return nil, err
		}
		body.Steps[id] = step
	}
	return body, nil
}

func decodeTarget(raw json.RawMessage) (ast.Target, error) {
	var t struct {
		Terminal bool   `json:"terminal"`
		Outcome  string `json:"outcome"`
		Step     string `json:"step"`
	}
	if err := json.Unmarshal(raw, &t); err != nil {
		return ast.Target{}, &EvalError{Kind: ErrBadContract, Detail: fmt.Sprintf("bad target: %v", err)}
	}
	if t.Terminal {
		return ast.Target{IsTerminal: true, Outcome: t.Outcome}, nil
	}
	return ast.Target{StepID: t.Step}, nil
}

var failureHandlerKindByName = map[string]ast.FailureHandlerKind{
	"terminate":  ast.FailureTerminate,
	"compensate": ast.FailureCompensate,
	"escalate":   ast.FailureEscalate,
}

func decodeFailureHandler(raw json.RawMessage) (ast.FailureHandler, error) {
	m, err := decodeObj(raw)
	if err != nil {
		return ast.FailureHandler{}, &EvalError{Kind: ErrBadContract, Detail: fmt.Sprintf("bad on_failure: %v", err)}
	}
	var kindStr string
	_ = decodeField(m, "kind", &kindStr)
	fh := ast.FailureHandler{Kind: failureHandlerKindByName[kindStr]}
	switch fh.Kind {
	case ast.FailureTerminate:
		_ = decodeField(m, "outcome", &fh.Outcome)
	case ast.FailureCompensate:
		_ = decodeField(m, "outcome", &fh.Outcome)
		var compRaw []json.RawMessage
		_ = decodeField(m, "compensation", &compRaw)
		for _, cr := range compRaw {
			step, err := decodeStep("", cr)
			if err != nil {
				return ast.FailureHandler{}, err
			}
			if step.Operation != nil {
				fh.Compensation = append(fh.Compensation, *step.Operation)
			}
		}
	case ast.FailureEscalate:
		_ = decodeField(m, "handler_flow", &fh.HandlerFlowID)
	}
	return fh, nil
}

func decodeStep(id string, raw json.RawMessage) (ast.FlowStep, error) {
	m, err := decodeObj(raw)
	if err != nil {
		return ast.FlowStep{}, &EvalError{Kind: ErrBadContract, Detail: fmt.Sprintf("bad step %q: %v", id, err)}
	}
	var kindStr string
	_ = decodeField(m, "kind", &kindStr)

	step := ast.FlowStep{ID: id}
	switch kindStr {
	case "operation_step":
		step.Kind = ast.StepOperation
		op := &ast.OperationStep{Outcomes: map[string]ast.Target{}}
		_ = decodeField(m, "op", &op.Op)
		_ = decodeField(m, "persona", &op.Persona)
		var outcomesRaw map[string]json.RawMessage
		_ = decodeField(m, "outcomes", &outcomesRaw)
		for label, tRaw := range outcomesRaw {
			t, err := decodeTarget(tRaw)
			if err != nil {
				return ast.FlowStep{}, err
			}
			op.Outcomes[label] = t
		}
		if fhRaw, ok := m["on_failure"]; ok {
			fh, err := decodeFailureHandler(fhRaw)
			if err != nil {
				return ast.FlowStep{}, err
			}
			op.OnFailure = fh
		}
		step.Operation = op
	case "branch_step":
		step.Kind = ast.StepBranch
		b := &ast.BranchStep{}
		var condRaw json.RawMessage
		_ = decodeField(m, "condition", &condRaw)
		cond, err := decodeExpr(condRaw)
		if err != nil {
			return ast.FlowStep{}, err
		}
		b.Condition = cond
		_ = decodeField(m, "persona", &b.Persona)
		if tRaw, ok := m["if_true"]; ok {
			t, err := decodeTarget(tRaw)
			if err != nil {
				return ast.FlowStep{}, err
			}
			b.IfTrue = t
		}
		if tRaw, ok := m["if_false"]; ok {
			t, err := decodeTarget(tRaw)
			if err != nil {
				return ast.FlowStep{}, err
			}
			b.IfFalse = t
		}
		step.Branch = b
	case "handoff_step":
		step.Kind = ast.StepHandoff
		h := &ast.HandoffStep{}
		_ = decodeField(m, "from_persona", &h.FromPersona)
		_ = decodeField(m, "to_persona", &h.ToPersona)
		if tRaw, ok := m["next"]; ok {
			t, err := decodeTarget(tRaw)
			if err != nil {
				return ast.FlowStep{}, err
			}
			h.Next = t
		}
		step.Handoff = h
	case "subflow_step":
		step.Kind = ast.StepSubFlow
		sf := &ast.SubFlowStep{}
		_ = decodeField(m, "flow", &sf.FlowID)
		_ = decodeField(m, "persona", &sf.Persona)
		if tRaw, ok := m["on_success"]; ok {
			t, err := decodeTarget(tRaw)
			if err != nil {
				return ast.FlowStep{}, err
			}
			sf.OnSuccess = t
		}
		if tRaw, ok := m["on_failure"]; ok {
			t, err := decodeTarget(tRaw)
			if err != nil {
				return ast.FlowStep{}, err
			}
			sf.OnFailure = t
		}
		step.SubFlow = sf
	case "parallel_step":
		step.Kind = ast.StepParallel
		p := &ast.ParallelStep{}
		var branches []string
		_ = decodeField(m, "branches", &branches)
		for _, b := range branches {
			p.Branches = append(p.Branches, ast.ParallelBranch{EntryStepID: b})
		}
		if tRaw, ok := m["on_all_success"]; ok {
			t, err := decodeTarget(tRaw)
			if err != nil {
				return ast.FlowStep{}, err
			}
			p.OnAllSuccess = t
		}
		if tRaw, ok := m["on_failure"]; ok {
			t, err := decodeTarget(tRaw)
			if err != nil {
				return ast.FlowStep{}, err
			}
			p.OnFailure = t
		}
		step.Parallel = p
	default:
		return ast.FlowStep{}, &EvalError{Kind: ErrBadContract, Detail: fmt.Sprintf("unknown step kind %q", kindStr)}
	}
	return step, nil
}

func decodeType(raw json.RawMessage) (ast.BaseType, error) {
	m, err := decodeObj(raw)
	if err != nil {
		return ast.BaseType{}, &EvalError{Kind: ErrBadContract, Detail: fmt.Sprintf("bad type: %v", err)}
	}
	var kindStr string
	_ = decodeField(m, "kind", &kindStr)
	switch kindStr {
	case "Bool":
		return ast.BaseType{Kind: ast.TBool}, nil
	case "Int":
		t := ast.BaseType{Kind: ast.TInt}
		if raw, ok := m["min"]; ok {
			var v int64
			_ = json.Unmarshal(raw, &v)
			t.Min = &v
		}
		if raw, ok := m["max"]; ok {
			var v int64
			_ = json.Unmarshal(raw, &v)
			t.Max = &v
		}
		return t, nil
	case "Decimal":
		t := ast.BaseType{Kind: ast.TDecimal}
		_ = decodeField(m, "precision", &t.Precision)
		_ = decodeField(m, "scale", &t.Scale)
		return t, nil
	case "Money":
		t := ast.BaseType{Kind: ast.TMoney}
		_ = decodeField(m, "currency", &t.Currency)
		return t, nil
	case "Text":
		t := ast.BaseType{Kind: ast.TText}
		if raw, ok := m["max_len"]; ok {
			var v int
			_ = json.Unmarshal(raw, &v)
			t.MaxLen = &v
		}
		return t, nil
	case "Date":
		return ast.BaseType{Kind: ast.TDate}, nil
	case "DateTime":
		return ast.BaseType{Kind: ast.TDateTime}, nil
	case "Duration":
		return ast.BaseType{Kind: ast.TDuration}, nil
	case "Enum":
		t := ast.BaseType{Kind: ast.TEnum}
		_ = decodeField(m, "values", &t.Values)
		return t, nil
	case "List":
		t := ast.BaseType{Kind: ast.TList}
		if raw, ok := m["elem"]; ok && string(raw) != "null" {
			elem, err := decodeType(raw)
			if err != nil {
				return ast.BaseType{}, err
			}
			t.Elem = &elem
		}
		return t, nil
	case "Record":
		t := ast.BaseType{Kind: ast.TRecord, Fields: map[string]ast.BaseType{}}
		var fieldsRaw map[string]json.RawMessage
		_ = decodeField(m, "fields", &fieldsRaw)
		for name, fr := range fieldsRaw {
			ft, err := decodeType(fr)
			if err != nil {
				return ast.BaseType{}, err
			}
			t.Fields[name] = ft
		}
		return t, nil
	case "TaggedUnion":
		t := ast.BaseType{Kind: ast.TTaggedUnion, Variants: map[string]ast.BaseType{}}
		var variantsRaw map[string]json.RawMessage
		_ = decodeField(m, "variants", &variantsRaw)
		for name, vr := range variantsRaw {
			vt, err := decodeType(vr)
			if err != nil {
				return ast.BaseType{}, err
			}
			t.Variants[name] = vt
		}
		return t, nil
	case "TypeRef":
		t := ast.BaseType{Kind: ast.TTypeRef}
		_ = decodeField(m, "name", &t.RefName)
		return t, nil
	default:
		return ast.BaseType{}, &EvalError{Kind: ErrBadContract, Detail: fmt.Sprintf("unknown type kind %q", kindStr)}
	}
}

// decodeLiteral inverts interchange.Literal: a structured decimal_value
// or bool_literal object, or a bare JSON string/number.
func decodeLiteral(raw json.RawMessage) (*ast.Literal, error) {
	trimmed := strings.TrimSpace(string(raw))
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '{' {
		m, err := decodeObj(raw)
		if err != nil {
			return nil, &EvalError{Kind: ErrBadContract, Detail: fmt.Sprintf("bad literal: %v", err)}
		}
		var kindStr string
		_ = decodeField(m, "kind", &kindStr)
		switch kindStr {
		case "bool_literal":
			var v bool
			_ = decodeField(m, "value", &v)
			return &ast.Literal{Bool: &v}, nil
		case "decimal_value":
			var precision, scale int
			var value string
			_ = decodeField(m, "precision", &precision)
			_ = decodeField(m, "scale", &scale)
			_ = decodeField(m, "value", &value)
			return &ast.Literal{IsDecimal: true, Precision: precision, Scale: scale, DecimalText: value}, nil
		default:
			return nil, &EvalError{Kind: ErrBadContract, Detail: fmt.Sprintf("unknown literal kind %q", kindStr)}
		}
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, &EvalError{Kind: ErrBadContract, Detail: fmt.Sprintf("bad string literal: %v", err)}
		}
		return &ast.Literal{Text: &s}, nil
	}
	n, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return nil, &EvalError{Kind: ErrBadContract, Detail: fmt.Sprintf("bad int literal %q", trimmed)}
	}
	return &ast.Literal{Int: &n}, nil
}

var exprKindByName = map[string]ast.ExprKind{
	"literal":         ast.ExprLiteral,
	"fact_ref":        ast.ExprFactRef,
	"var":             ast.ExprVar,
	"field_path":      ast.ExprFieldPath,
	"not":             ast.ExprNot,
	"and":             ast.ExprAnd,
	"or":              ast.ExprOr,
	"forall":          ast.ExprForAll,
	"exists":          ast.ExprExists,
	"compare":         ast.ExprCompare,
	"verdict_present": ast.ExprVerdictPresent,
	"product":         ast.ExprProduct,
}

func decodeExpr(raw json.RawMessage) (ast.Expr, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return ast.Expr{}, nil
	}
	m, err := decodeObj(raw)
	if err != nil {
		return ast.Expr{}, &EvalError{Kind: ErrBadContract, Detail: fmt.Sprintf("bad expr: %v", err)}
	}
	var kindStr string
	_ = decodeField(m, "kind", &kindStr)
	kind, ok := exprKindByName[kindStr]
	if !ok {
		return ast.Expr{}, &EvalError{Kind: ErrBadContract, Detail: fmt.Sprintf("unknown expr kind %q", kindStr)}
	}
	e := ast.Expr{Kind: kind}
	if typeRaw, ok := m["type"]; ok {
		t, err := decodeType(typeRaw)
		if err == nil {
			e.Type = t
			e.TypeSet = true
		}
	}

	switch kind {
	case ast.ExprLiteral:
		var valueRaw json.RawMessage
		_ = decodeField(m, "value", &valueRaw)
		lit, err := decodeLiteral(valueRaw)
		if err != nil {
			return ast.Expr{}, err
		}
		e.Literal = lit
	case ast.ExprFactRef:
		_ = decodeField(m, "fact", &e.FactRef)
	case ast.ExprVar:
		_ = decodeField(m, "var", &e.Var)
	case ast.ExprFieldPath:
		base, err := decodeChildExpr(m, "base")
		if err != nil {
			return ast.Expr{}, err
		}
		e.FieldBase = base
		_ = decodeField(m, "field", &e.FieldName)
	case ast.ExprNot:
		operand, err := decodeChildExpr(m, "operand")
		if err != nil {
			return ast.Expr{}, err
		}
		e.Operand = operand
	case ast.ExprAnd, ast.ExprOr, ast.ExprProduct:
		left, err := decodeChildExpr(m, "left")
		if err != nil {
			return ast.Expr{}, err
		}
		right, err := decodeChildExpr(m, "right")
		if err != nil {
			return ast.Expr{}, err
		}
		e.Left, e.Right = left, right
	case ast.ExprForAll, ast.ExprExists:
		_ = decodeField(m, "var", &e.QuantVar)
		domain, err := decodeChildExpr(m, "domain")
		if err != nil {
			return ast.Expr{}, err
		}
		body, err := decodeChildExpr(m, "body")
		if err != nil {
			return ast.Expr{}, err
		}
		e.QuantDomain, e.QuantBody = domain, body
	case ast.ExprCompare:
		_ = decodeField(m, "op", &e.CompareOp)
		left, err := decodeChildExpr(m, "left")
		if err != nil {
			return ast.Expr{}, err
		}
		right, err := decodeChildExpr(m, "right")
		if err != nil {
			return ast.Expr{}, err
		}
		e.Left, e.Right = left, right
		if ctRaw, ok := m["comparison_type"]; ok {
			ct, err := decodeType(ctRaw)
			if err != nil {
				return ast.Expr{}, err
			}
			e.ComparisonType = &ct
		}
	case ast.ExprVerdictPresent:
		_ = decodeField(m, "verdict_type", &e.VerdictType)
	}

	return e, nil
}

func decodeChildExpr(m map[string]json.RawMessage, key string) (*ast.Expr, error) {
	raw, ok := m[key]
	if !ok {
		return nil, nil
	}
	e, err := decodeExpr(raw)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
