package eval

import (
	"encoding/json"
	"fmt"

	"github.com/riverline-labs/tenor/pkg/ast"
)

// EntityTransition is one (entity, from, to) edge a flow (or branch)
// actually applied. InstanceID is set only when the transition was
// produced through ExecuteFlowWithBindings against a multi-instance
// entity; it is empty for the single-instance path.
type EntityTransition struct {
	Entity     string `json:"entity_id"`
	InstanceID string `json:"instance_id,omitempty"`
	From       string `json:"from_state"`
	To         string `json:"to_state"`
}

// StepRecord is one entry of a flow's execution trace.
type StepRecord struct {
	StepID           string             `json:"step_id"`
	StepKind         string             `json:"step_type"`
	Outcome          string             `json:"result"`
	WouldTransitions []EntityTransition `json:"-"`
}

// FlowResult is §4.8.5's trace output: the outcome, the path of steps
// taken, the cumulative entity transitions, and the verdict set the
// flow's frozen Snapshot carried. Field naming and the simulation/
// persona fields follow the upstream riverline-labs/tenor Go SDK's
// FlowResult wire shape.
type FlowResult struct {
	Simulation       bool               `json:"simulation"`
	FlowID           string             `json:"flow_id"`
	Persona          string             `json:"persona"`
	Outcome          string             `json:"outcome"`
	Path             []StepRecord       `json:"path"`
	WouldTransition  []EntityTransition `json:"would_transition"`
	Verdicts         VerdictSet         `json:"-"`
	InstanceBindings InstanceBindings   `json:"-"`
}

// verdictList renders Verdicts as the upstream SDK's []Verdict wire
// shape for JSON output; VerdictSet itself stays a map internally
// since evaluation looks verdicts up by type throughout §4.8.3-§4.8.6.
func (r FlowResult) verdictList() []Verdict {
	out := make([]Verdict, 0, len(r.Verdicts))
	for _, v := range r.Verdicts {
		out = append(out, Verdict{Type: v.Type, Payload: v.Payload, Provenance: v.Provenance})
	}
	return out
}

// Verdict is one produced verdict in wire form, matching the upstream
// SDK's Verdict type. VerdictInstance is the internal representation
// this is derived from.
type Verdict struct {
	Type       string            `json:"type"`
	Payload    Value             `json:"payload"`
	Provenance VerdictProvenance `json:"provenance"`
}

// MarshalJSON renders FlowResult with its verdict set and path as the
// upstream SDK's array/object shapes instead of Go's internal map and
// WouldTransitions-bearing step representation.
func (r FlowResult) MarshalJSON() ([]byte, error) {
	type stepWire struct {
		StepID   string `json:"step_id"`
		StepKind string `json:"step_type"`
		Outcome  string `json:"result"`
	}
	path := make([]stepWire, len(r.Path))
	for i, s := range r.Path {
		path[i] = stepWire{StepID: s.StepID, StepKind: s.StepKind, Outcome: s.Outcome}
	}
	return json.Marshal(struct {
		Simulation       bool               `json:"simulation"`
		FlowID           string             `json:"flow_id"`
		Persona          string             `json:"persona"`
		Outcome          string             `json:"outcome"`
		Path             []stepWire         `json:"path"`
		WouldTransition  []EntityTransition `json:"would_transition"`
		Verdicts         []Verdict          `json:"verdicts"`
		InstanceBindings InstanceBindings   `json:"instance_bindings,omitempty"`
	}{
		Simulation:       r.Simulation,
		FlowID:           r.FlowID,
		Persona:          r.Persona,
		Outcome:          r.Outcome,
		Path:             path,
		WouldTransition:  r.WouldTransition,
		Verdicts:         r.verdictList(),
		InstanceBindings: r.InstanceBindings,
	})
}

// successOutcome is the conventional outcome label this evaluator
// treats as "the operation/flow succeeded" when routing SubFlowStep
// and step outcomes that don't name a domain-specific label; anything
// else is treated as a non-success outcome for routing purposes.
const successOutcome = "success"

// maxFlowSteps bounds the walk as a last-resort guard; the validator
// (pkg/validate) already guarantees the step and subflow graphs are
// acyclic, so this should never trigger on a validated bundle.
const maxFlowSteps = 10000

// maxFlowDepth bounds SubFlowStep/Escalate recursion for the same
// reason; pkg/validate's cross-flow subflow graph check guarantees
// this terminates on any validated bundle.
const maxFlowDepth = 1000

// ExecuteFlow runs §4.8.5 in simulation mode: compute the Verdict Set
// once at entry, walk the step DAG, and return the full trace with no
// side effects committed anywhere outside the returned EntityStateMap.
func ExecuteFlow(c *Contract, flowID, persona string, states EntityStateMap, input map[string]interface{}) (FlowResult, EntityStateMap, error) {
	rc, ok := c.flow(flowID)
	if !ok {
		return FlowResult{}, nil, &EvalError{Kind: ErrUnknownFlow, FlowID: flowID}
	}
	snap, err := ComputeSnapshot(c, input)
	if err != nil {
		return FlowResult{}, nil, err
	}
	working := states.Clone()
	result, err := runFlow(c, flowID, rc.Flow, rc.Flow.Entry, working, snap, 0)
	if err != nil {
		return FlowResult{}, nil, err
	}
	result.Simulation = true
	result.Persona = persona
	return result, working, nil
}

// ExecuteFlowWithBindings is the multi-instance counterpart of
// ExecuteFlow: states is resolved against a per-entity instance
// chosen by bindings, the flow runs exactly as in the single-instance
// path, and the resulting single-instance state changes are written
// back into the returned EntityStateMapNested at the bound instance.
// Every EntityTransition in the result carries the instance id it was
// applied against.
func ExecuteFlowWithBindings(c *Contract, flowID, persona string, states EntityStateMapNested, bindings InstanceBindings, input map[string]interface{}) (FlowResult, EntityStateMapNested, error) {
	flat := states.Flatten(bindings)
	result, final, err := ExecuteFlow(c, flowID, persona, flat, input)
	if err != nil {
		return FlowResult{}, nil, err
	}

	for i, tr := range result.WouldTransition {
		result.WouldTransition[i].InstanceID = bindings[tr.Entity]
	}
	for i, step := range result.Path {
		for j, tr := range step.WouldTransitions {
			result.Path[i].WouldTransitions[j].InstanceID = bindings[tr.Entity]
		}
	}
	result.InstanceBindings = bindings
	return result, states.WithUpdated(bindings, final), nil
}

func runFlow(c *Contract, flowID string, body *ast.FlowBody, entryStepID string, states EntityStateMap, snap Snapshot, depth int) (FlowResult, error) {
	if depth > maxFlowDepth {
		return FlowResult{}, fmt.Errorf("flow %q: exceeded subflow/escalation recursion depth", flowID)
	}
	result := FlowResult{FlowID: flowID, Verdicts: snap.Verdicts}
	stepID := entryStepID
	for i := 0; i < maxFlowSteps; i++ {
		step, ok := body.Steps[stepID]
		if !ok {
			return FlowResult{}, fmt.Errorf("flow %q: step %q not found", flowID, stepID)
		}
		record, target, terminalResult, err := execStep(c, flowID, body, step, states, snap, depth)
		if err != nil {
			return FlowResult{}, err
		}
		result.Path = append(result.Path, record)
		result.WouldTransition = append(result.WouldTransition, record.WouldTransitions...)
		c.log().Debug("flow step executed", "flow", flowID, "step", record.StepID, "kind", record.StepKind, "outcome", record.Outcome)

		if terminalResult != nil {
			// Escalation: the handler flow's own outcome/path is
			// folded into this flow's result as its terminal outcome.
			result.Outcome = terminalResult.Outcome
			result.Path = append(result.Path, terminalResult.Path...)
			result.WouldTransition = append(result.WouldTransition, terminalResult.WouldTransition...)
			return result, nil
		}
		if target.IsTerminal {
			result.Outcome = target.Outcome
			return result, nil
		}
		stepID = target.StepID
	}
	return FlowResult{}, fmt.Errorf("flow %q: exceeded step limit, possible undetected cycle", flowID)
}

// execStep runs one step and returns its trace record plus either a
// target edge to follow, or (for Escalate) a fully-resolved
// terminalResult to fold into the caller's result directly.
func execStep(c *Contract, flowID string, body *ast.FlowBody, step ast.FlowStep, states EntityStateMap, snap Snapshot, depth int) (StepRecord, ast.Target, *FlowResult, error) {
	switch step.Kind {
	case ast.StepOperation:
		rec, target, term, err := execOperationStep(c, step, states, snap, depth)
		return rec, target, term, err
	case ast.StepBranch:
		rec, target, err := execBranchStep(step, snap)
		return rec, target, nil, err
	case ast.StepHandoff:
		h := step.Handoff
		return StepRecord{StepID: step.ID, StepKind: "handoff_step", Outcome: "handoff"}, h.Next, nil, nil
	case ast.StepSubFlow:
		rec, target, err := execSubFlowStep(c, step, states, snap, depth)
		return rec, target, nil, err
	case ast.StepParallel:
		rec, target, err := execParallelStep(c, flowID, body, step, states, snap, depth)
		return rec, target, nil, err
	default:
		return StepRecord{}, ast.Target{}, nil, fmt.Errorf("unhandled flow step kind %v", step.Kind)
	}
}

func execOperationStep(c *Contract, step ast.FlowStep, states EntityStateMap, snap Snapshot, depth int) (StepRecord, ast.Target, *FlowResult, error) {
	op := step.Operation
	res, err := ExecuteOperation(c, op.Op, op.Persona, states, snap)
	if err != nil {
		return applyFailure(c, step.ID, op.OnFailure, states, snap, depth, err)
	}

	transitions := diffStates(res.Before, res.After)
	for k, v := range res.After {
		states[k] = v
	}

	label := successOutcome
	target, ok := op.Outcomes[label]
	if !ok {
		label, target, ok = lowestOutcomeLabel(op.Outcomes)
	}
	if !ok {
		return StepRecord{}, ast.Target{}, nil, fmt.Errorf("operation step %q declares no outcomes", step.ID)
	}
	return StepRecord{StepID: step.ID, StepKind: "operation_step", Outcome: label, WouldTransitions: transitions}, target, nil, nil
}

// lowestOutcomeLabel picks the lexicographically smallest outcome label
// when a step declares no "success" outcome, so routing among multiple
// non-success outcomes is a pure function of the bundle rather than
// Go's randomized map iteration order.
func lowestOutcomeLabel(outcomes map[string]ast.Target) (string, ast.Target, bool) {
	var best string
	found := false
	for l := range outcomes {
		if !found || l < best {
			best = l
			found = true
		}
	}
	if !found {
		return "", ast.Target{}, false
	}
	return best, outcomes[best], true
}

// applyFailure implements an OperationStep's on_failure clause once
// ExecuteOperation has reported an error.
func applyFailure(c *Contract, stepID string, fh ast.FailureHandler, states EntityStateMap, snap Snapshot, depth int, cause error) (StepRecord, ast.Target, *FlowResult, error) {
	switch fh.Kind {
	case ast.FailureTerminate:
		return StepRecord{StepID: stepID, StepKind: "operation_step", Outcome: "failed: " + cause.Error()},
			ast.Target{IsTerminal: true, Outcome: fh.Outcome}, nil, nil

	case ast.FailureCompensate:
		var transitions []EntityTransition
		for _, comp := range fh.Compensation {
			res, err := ExecuteOperation(c, comp.Op, comp.Persona, states, snap)
			if err != nil {
				return StepRecord{}, ast.Target{}, nil, fmt.Errorf("compensation operation %q failed: %w", comp.Op, err)
			}
			transitions = append(transitions, diffStates(res.Before, res.After)...)
			for k, v := range res.After {
				states[k] = v
			}
		}
		return StepRecord{StepID: stepID, StepKind: "operation_step", Outcome: "compensated", WouldTransitions: transitions},
			ast.Target{IsTerminal: true, Outcome: fh.Outcome}, nil, nil

	case ast.FailureEscalate:
		rc, ok := c.flow(fh.HandlerFlowID)
		if !ok {
			return StepRecord{}, ast.Target{}, nil, &EvalError{Kind: ErrUnknownFlow, FlowID: fh.HandlerFlowID}
		}
		handlerResult, err := runFlow(c, fh.HandlerFlowID, rc.Flow, rc.Flow.Entry, states, snap, depth+1)
		if err != nil {
			return StepRecord{}, ast.Target{}, nil, err
		}
		rec := StepRecord{StepID: stepID, StepKind: "operation_step", Outcome: "escalated: " + cause.Error()}
		return rec, ast.Target{}, &handlerResult, nil

	default:
		return StepRecord{}, ast.Target{}, nil, fmt.Errorf("unknown failure handler kind")
	}
}

func execBranchStep(step ast.FlowStep, snap Snapshot) (StepRecord, ast.Target, error) {
	b := step.Branch
	ok, err := EvalPredicate(&b.Condition, snap.Facts, snap.Verdicts)
	if err != nil {
		return StepRecord{}, ast.Target{}, err
	}
	if ok {
		return StepRecord{StepID: step.ID, StepKind: "branch_step", Outcome: "true"}, b.IfTrue, nil
	}
	return StepRecord{StepID: step.ID, StepKind: "branch_step", Outcome: "false"}, b.IfFalse, nil
}

func execSubFlowStep(c *Contract, step ast.FlowStep, states EntityStateMap, snap Snapshot, depth int) (StepRecord, ast.Target, error) {
	sf := step.SubFlow
	rc, ok := c.flow(sf.FlowID)
	if !ok {
		return StepRecord{}, ast.Target{}, &EvalError{Kind: ErrUnknownFlow, FlowID: sf.FlowID}
	}
	// Re-snapshotted at subflow entry: facts never change within an
	// evaluation, so re-running rule evaluation over the same FactSet
	// yields an equivalent VerdictSet, per §4.8.5.
	verdicts, err := EvaluateRules(c, snap.Facts)
	if err != nil {
		return StepRecord{}, ast.Target{}, err
	}
	freshSnap := Snapshot{Facts: snap.Facts, Verdicts: verdicts}

	sub, err := runFlow(c, sf.FlowID, rc.Flow, rc.Flow.Entry, states, freshSnap, depth+1)
	if err != nil {
		return StepRecord{}, ast.Target{}, err
	}

	record := StepRecord{StepID: step.ID, StepKind: "subflow_step", Outcome: sub.Outcome, WouldTransitions: sub.WouldTransition}
	if sub.Outcome == successOutcome {
		return record, sf.OnSuccess, nil
	}
	return record, sf.OnFailure, nil
}

func execParallelStep(c *Contract, flowID string, body *ast.FlowBody, step ast.FlowStep, states EntityStateMap, snap Snapshot, depth int) (StepRecord, ast.Target, error) {
	p := step.Parallel
	allSucceeded := true
	var transitions []EntityTransition

	// Branches affect disjoint entity sets by construction (validated
	// in pkg/validate), so running them sequentially against
	// independent clones and merging afterward is observationally
	// equivalent to true concurrency: no early cancellation on any
	// branch failing, per §4.8.5.
	for _, br := range p.Branches {
		branchStates := states.Clone()
		sub, err := runFlow(c, flowID, body, br.EntryStepID, branchStates, snap, depth)
		if err != nil {
			return StepRecord{}, ast.Target{}, fmt.Errorf("parallel branch %q: %w", br.EntryStepID, err)
		}
		if sub.Outcome != successOutcome {
			allSucceeded = false
		}
		transitions = append(transitions, sub.WouldTransition...)
		for k, v := range branchStates {
			states[k] = v
		}
	}

	record := StepRecord{StepID: step.ID, StepKind: "parallel_step", WouldTransitions: transitions}
	if allSucceeded {
		record.Outcome = successOutcome
		return record, p.OnAllSuccess, nil
	}
	record.Outcome = "branch failed"
	return record, p.OnFailure, nil
}

func diffStates(before, after EntityStateMap) []EntityTransition {
	var out []EntityTransition
	for id, to := range after {
		from := before[id]
		if from != to {
			out = append(out, EntityTransition{Entity: id, From: from, To: to})
		}
	}
	return out
}
