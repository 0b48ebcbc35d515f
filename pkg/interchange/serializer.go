package interchange

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/riverline-labs/tenor/pkg/ast"
	"github.com/riverline-labs/tenor/pkg/core"
)

// TenorVersion is the interchange format version this serializer
// emits and this evaluator accepts.
const TenorVersion = "1.0"

// kindOrder is the construct ordering spec.md §4.7 requires:
// Personas, Sources, Facts, Entities, Rules (by stratum then id),
// Operations, Flows, Systems.
var kindOrder = []core.ConstructKind{
	core.KindPersona, core.KindSource, core.KindFact, core.KindEntity,
	core.KindRule, core.KindOperation, core.KindFlow, core.KindSystem,
}

// Serialize emits the canonical JSON bundle for a fully elaborated
// construct list: TypeDecl constructs are resolved and do not appear
// in the output (they exist only to be inlined into BaseType fields
// elsewhere), everything else is ordered and serialized per §4.7.
func Serialize(tenorName string, constructs []ast.RawConstruct) ([]byte, error) {
	ordered := orderConstructs(constructs)
	constructObjs := make([]interface{}, len(ordered))
	for i, c := range ordered {
		constructObjs[i] = serializeConstruct(c)
	}

	withoutID := O(
		F("kind", "Bundle"),
		F("tenor", tenorName),
		F("tenor_version", TenorVersion),
		F("constructs", constructObjs),
	)
	idBytes, err := json.Marshal(withoutID)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(idBytes)
	id := hex.EncodeToString(sum[:])

	full := O(
		F("kind", "Bundle"),
		F("id", id),
		F("tenor", tenorName),
		F("tenor_version", TenorVersion),
		F("constructs", constructObjs),
	)
	return json.Marshal(full)
}

// orderConstructs drops TypeDecl and Import constructs (interchange-
// irrelevant after elaboration) and sorts the remainder by kind, then
// by stratum-then-id for Rules, then by id for everything else.
func orderConstructs(constructs []ast.RawConstruct) []ast.RawConstruct {
	byKind := map[core.ConstructKind][]ast.RawConstruct{}
	for _, c := range constructs {
		if c.Kind == core.KindTypeDecl || c.Kind == core.KindImport {
			continue
		}
		byKind[c.Kind] = append(byKind[c.Kind], c)
	}

	var out []ast.RawConstruct
	for _, k := range kindOrder {
		group := byKind[k]
		if k == core.KindRule {
			sort.Slice(group, func(i, j int) bool {
				if group[i].Rule.Stratum != group[j].Rule.Stratum {
					return group[i].Rule.Stratum < group[j].Rule.Stratum
				}
				return group[i].ID < group[j].ID
			})
		} else {
			sort.Slice(group, func(i, j int) bool { return group[i].ID < group[j].ID })
		}
		out = append(out, group...)
	}
	return out
}

func serializeConstruct(c ast.RawConstruct) Obj {
	fields := Obj{
		F("kind", c.Kind.String()),
		F("id", c.ID),
		F("provenance", Provenance(c.Prov.File, c.Prov.Line)),
	}

	switch c.Kind {
	case core.KindPersona:
		// id-only construct; no further fields.
	case core.KindSource:
		fields = append(fields, F("name", c.Source.Name))
	case core.KindFact:
		fields = append(fields, F("type", Type(c.Fact.Type)))
		if c.Fact.Default != nil {
			fields = append(fields, F("default", Literal(c.Fact.Default)))
		}
		if c.Fact.Source != nil {
			fields = append(fields, F("source", O(
				F("system", c.Fact.Source.System),
				F("field", c.Fact.Source.Field),
			)))
		}
	case core.KindEntity:
		fields = append(fields, F("states", c.Entity.States), F("initial", c.Entity.Initial))
		if c.Entity.Parent != "" {
			fields = append(fields, F("parent", c.Entity.Parent))
		}
		transitions := make([]interface{}, len(c.Entity.Transitions))
		for i, t := range c.Entity.Transitions {
			transitions[i] = O(F("from", t.From), F("to", t.To))
		}
		fields = append(fields, F("transitions", transitions))
	case core.KindRule:
		fields = append(fields,
			F("stratum", c.Rule.Stratum),
			F("when", Expr(c.Rule.When)),
			F("produce", O(F("type", c.Rule.ProduceType), F("payload", Expr(c.Rule.Payload)))),
		)
	case core.KindOperation:
		fields = append(fields,
			F("allowed_personas", c.Operation.AllowedPersonas),
			F("precondition", Expr(c.Operation.Precondition)),
		)
		effects := make([]interface{}, len(c.Operation.Effects))
		for i, e := range c.Operation.Effects {
			effects[i] = O(F("entity", e.EntityID), F("from", e.From), F("to", e.To))
		}
		fields = append(fields, F("effects", effects))
		if len(c.Operation.ErrorContract) > 0 {
			fields = append(fields, F("errors", c.Operation.ErrorContract))
		}
	case core.KindFlow:
		fields = append(fields,
			F("entry", c.Flow.Entry),
			F("snapshot", c.Flow.Snapshot),
			F("steps", serializeSteps(c.Flow.Steps)),
		)
	case core.KindSystem:
		fields = append(fields, F("name", c.System.Name))
	}

	return fields
}

func serializeSteps(steps map[string]ast.FlowStep) Obj {
	out := make(Obj, 0, len(steps))
	for id, s := range steps {
		out = append(out, F(id, serializeStep(s)))
	}
	return out
}

func serializeTarget(t ast.Target) interface{} {
	if t.IsTerminal {
		return O(F("terminal", true), F("outcome", t.Outcome))
	}
	return O(F("terminal", false), F("step", t.StepID))
}

func serializeStep(s ast.FlowStep) Obj {
	switch s.Kind {
	case ast.StepOperation:
		outcomes := make(Obj, 0, len(s.Operation.Outcomes))
		for label, t := range s.Operation.Outcomes {
			outcomes = append(outcomes, F(label, serializeTarget(t)))
		}
		return O(
			F("kind", "operation_step"),
			F("op", s.Operation.Op),
			F("persona", s.Operation.Persona),
			F("outcomes", outcomes),
			F("on_failure", serializeFailureHandler(s.Operation.OnFailure)),
		)
	case ast.StepBranch:
		return O(
			F("kind", "branch_step"),
			F("condition", Expr(s.Branch.Condition)),
			F("persona", s.Branch.Persona),
			F("if_true", serializeTarget(s.Branch.IfTrue)),
			F("if_false", serializeTarget(s.Branch.IfFalse)),
		)
	case ast.StepHandoff:
		return O(
			F("kind", "handoff_step"),
			F("from_persona", s.Handoff.FromPersona),
			F("to_persona", s.Handoff.ToPersona),
			F("next", serializeTarget(s.Handoff.Next)),
		)
	case ast.StepSubFlow:
		return O(
			F("kind", "subflow_step"),
			F("flow", s.SubFlow.FlowID),
			F("persona", s.SubFlow.Persona),
			F("on_success", serializeTarget(s.SubFlow.OnSuccess)),
			F("on_failure", serializeTarget(s.SubFlow.OnFailure)),
		)
	case ast.StepParallel:
		branches := make([]interface{}, len(s.Parallel.Branches))
		for i, b := range s.Parallel.Branches {
			branches[i] = b.EntryStepID
		}
		return O(
			F("kind", "parallel_step"),
			F("branches", branches),
			F("on_all_success", serializeTarget(s.Parallel.OnAllSuccess)),
			F("on_failure", serializeTarget(s.Parallel.OnFailure)),
		)
	default:
		return O()
	}
}

var failureHandlerKindNames = map[ast.FailureHandlerKind]string{
	ast.FailureTerminate:  "terminate",
	ast.FailureCompensate: "compensate",
	ast.FailureEscalate:   "escalate",
}

func serializeFailureHandler(fh ast.FailureHandler) Obj {
	fields := Obj{F("kind", failureHandlerKindNames[fh.Kind])}
	switch fh.Kind {
	case ast.FailureTerminate:
		fields = append(fields, F("outcome", fh.Outcome))
	case ast.FailureCompensate:
		steps := make([]interface{}, len(fh.Compensation))
		for i, op := range fh.Compensation {
			steps[i] = serializeStep(ast.FlowStep{Kind: ast.StepOperation, Operation: &op})
		}
		fields = append(fields, F("compensation", steps), F("outcome", fh.Outcome))
	case ast.FailureEscalate:
		fields = append(fields, F("handler_flow", fh.HandlerFlowID))
	}
	return fields
}
