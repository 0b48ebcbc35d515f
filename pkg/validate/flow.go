package validate

import (
	"github.com/riverline-labs/tenor/pkg/ast"
	"github.com/riverline-labs/tenor/pkg/core"
)

// checkFlow validates one Flow's entry resolution, step-graph
// acyclicity, on_failure presence on every OperationStep, and
// ParallelStep branch entity-disjointness. Outcome-map exhaustiveness
// (every outcome the target Operation can produce has an entry in
// `outcomes`) is recorded as an Advisory rather than a ValidationError,
// per spec.md §4.6's "currently a known limitation."
func (v *Validator) checkFlow(rc ast.RawConstruct) error {
	flow := rc.Flow
	if _, ok := flow.Steps[flow.Entry]; !ok {
		return newValidationError("Flow", rc.ID, "entry", rc.Prov, "entry %q does not resolve to a declared step", flow.Entry)
	}

	for stepID, step := range flow.Steps {
		for _, target := range stepTargets(step) {
			if !target.IsTerminal {
				if _, ok := flow.Steps[target.StepID]; !ok {
					return newValidationError("Flow", rc.ID, "steps", rc.Prov,
						"step %q targets undeclared step %q", stepID, target.StepID)
				}
			}
		}
		if step.Kind == ast.StepOperation {
			if isUnsetFailureHandler(step.Operation.OnFailure) {
				return newValidationError("Flow", rc.ID, "on_failure", rc.Prov,
					"operation step %q has no on_failure handler", stepID)
			}
			v.checkOutcomeExhaustiveness(rc.ID, stepID, step.Operation)
		}
	}

	if err := v.checkStepGraphAcyclic(rc.ID, flow); err != nil {
		return err
	}

	for stepID, step := range flow.Steps {
		if step.Kind != ast.StepSubFlow {
			continue
		}
		if _, ok := v.idx.Lookup(core.KindFlow, step.SubFlow.FlowID); !ok {
			return newValidationError("Flow", rc.ID, "steps", rc.Prov,
				"subflow step %q references undeclared flow %q", stepID, step.SubFlow.FlowID)
		}
	}

	return v.checkParallelDisjointness(rc.ID, flow)
}

// checkOutcomeExhaustiveness records an Advisory (not an error) when
// an OperationStep's outcome map does not cover every outcome the
// referenced Operation's error contract declares.
func (v *Validator) checkOutcomeExhaustiveness(flowID, stepID string, op *ast.OperationStep) {
	opRC, ok := v.idx.Construct(core.KindOperation, op.Op)
	if !ok {
		return
	}
	covered := map[string]bool{"success": true}
	for label := range op.Outcomes {
		covered[label] = true
	}
	for _, outcome := range opRC.Operation.ErrorContract {
		if !covered[outcome] {
			v.advise("Flow", flowID, "outcomes", opRC.Prov,
				"operation step %q does not route outcome %q declared by operation %q", stepID, outcome, op.Op)
		}
	}
}

// isUnsetFailureHandler reports whether an OperationStep declared no
// on_failure clause at all (the parser leaves it at its zero value:
// Kind==FailureTerminate with an empty Outcome, no compensation steps,
// no escalation target). An explicit Terminate("") with that exact
// shape is indistinguishable from "unset," which spec.md §4.6 treats
// as a validation error either way — a Terminate handler must name an
// outcome.
func isUnsetFailureHandler(fh ast.FailureHandler) bool {
	return fh.Kind == ast.FailureTerminate && fh.Outcome == "" &&
		len(fh.Compensation) == 0 && fh.HandlerFlowID == ""
}

func stepTargets(step ast.FlowStep) []ast.Target {
	switch step.Kind {
	case ast.StepOperation:
		out := make([]ast.Target, 0, len(step.Operation.Outcomes))
		for _, t := range step.Operation.Outcomes {
			out = append(out, t)
		}
		// an Escalate handler's flow id is a cross-flow reference, not a
		// step target within this flow's graph.
		return out
	case ast.StepBranch:
		return []ast.Target{step.Branch.IfTrue, step.Branch.IfFalse}
	case ast.StepHandoff:
		return []ast.Target{step.Handoff.Next}
	case ast.StepSubFlow:
		return []ast.Target{step.SubFlow.OnSuccess, step.SubFlow.OnFailure}
	case ast.StepParallel:
		out := []ast.Target{step.Parallel.OnAllSuccess, step.Parallel.OnFailure}
		for _, b := range step.Parallel.Branches {
			out = append(out, ast.Target{StepID: b.EntryStepID})
		}
		return out
	default:
		return nil
	}
}

// checkStepGraphAcyclic runs DFS cycle detection over the flow's step
// graph, treating terminal targets as sinks.
func (v *Validator) checkStepGraphAcyclic(flowID string, flow *ast.FlowBody) error {
	dfs := core.NewDFSState()

	var walk func(id string) error
	walk = func(id string) error {
		if dfs.Visited(id) {
			return nil
		}
		if !dfs.Enter(id) {
			return newValidationError("Flow", flowID, "steps", core.Provenance{},
				"step graph cycle: %s", core.FormatCyclePath(dfs.Path(id)))
		}
		defer dfs.Leave(id)
		for _, target := range stepTargets(flow.Steps[id]) {
			if target.IsTerminal {
				continue
			}
			if err := walk(target.StepID); err != nil {
				return err
			}
		}
		dfs.MarkVisited(id)
		return nil
	}

	return walk(flow.Entry)
}

// checkSubFlowGraphAcyclic verifies the cross-flow reference graph
// (Flow -> SubFlowStep -> Flow) has no cycle.
func (v *Validator) checkSubFlowGraphAcyclic() error {
	flows := v.idx.Constructs[core.KindFlow]
	dfs := core.NewDFSState()

	var walk func(flowID string) error
	walk = func(flowID string) error {
		if dfs.Visited(flowID) {
			return nil
		}
		if !dfs.Enter(flowID) {
			return newValidationError("Flow", flowID, "steps", core.Provenance{},
				"subflow reference cycle: %s", core.FormatCyclePath(dfs.Path(flowID)))
		}
		defer dfs.Leave(flowID)
		rc, ok := flows[flowID]
		if ok {
			for _, step := range rc.Flow.Steps {
				if step.Kind == ast.StepSubFlow {
					if err := walk(step.SubFlow.FlowID); err != nil {
						return err
					}
				}
			}
		}
		dfs.MarkVisited(flowID)
		return nil
	}

	for id := range flows {
		if err := walk(id); err != nil {
			return err
		}
	}
	return nil
}

// checkParallelDisjointness verifies that for every ParallelStep, the
// entities affected by its branches (transitively through SubFlowStep)
// are pairwise disjoint.
func (v *Validator) checkParallelDisjointness(flowID string, flow *ast.FlowBody) error {
	for stepID, step := range flow.Steps {
		if step.Kind != ast.StepParallel {
			continue
		}
		var branchSets []map[string]bool
		for _, b := range step.Parallel.Branches {
			visited := map[string]bool{}
			set := v.branchEntities(flow, b.EntryStepID, visited)
			branchSets = append(branchSets, set)
		}
		for i := 0; i < len(branchSets); i++ {
			for j := i + 1; j < len(branchSets); j++ {
				for entity := range branchSets[i] {
					if branchSets[j][entity] {
						return newValidationError("Flow", flowID, "steps", core.Provenance{},
							"parallel step %q branches affect overlapping entity %q", stepID, entity)
					}
				}
			}
		}
	}
	return nil
}

// branchEntities collects the union of entity ids affected directly
// by every OperationStep reachable from startStepID within this flow,
// plus (recursively) every entity affected by any SubFlowStep it
// invokes.
func (v *Validator) branchEntities(flow *ast.FlowBody, startStepID string, visited map[string]bool) map[string]bool {
	out := map[string]bool{}
	var walk func(stepID string)
	walk = func(stepID string) {
		if visited[stepID] {
			return
		}
		visited[stepID] = true
		step, ok := flow.Steps[stepID]
		if !ok {
			return
		}
		switch step.Kind {
		case ast.StepOperation:
			if opRC, ok := v.idx.Construct(core.KindOperation, step.Operation.Op); ok {
				for _, eff := range opRC.Operation.Effects {
					out[eff.EntityID] = true
				}
			}
			for _, t := range step.Operation.Outcomes {
				if !t.IsTerminal {
					walk(t.StepID)
				}
			}
		case ast.StepSubFlow:
			if subRC, ok := v.idx.Construct(core.KindFlow, step.SubFlow.FlowID); ok {
				subVisited := map[string]bool{}
				for entity := range v.branchEntities(subRC.Flow, subRC.Flow.Entry, subVisited) {
					out[entity] = true
				}
			}
			if !step.SubFlow.OnSuccess.IsTerminal {
				walk(step.SubFlow.OnSuccess.StepID)
			}
			if !step.SubFlow.OnFailure.IsTerminal {
				walk(step.SubFlow.OnFailure.StepID)
			}
		case ast.StepBranch:
			if !step.Branch.IfTrue.IsTerminal {
				walk(step.Branch.IfTrue.StepID)
			}
			if !step.Branch.IfFalse.IsTerminal {
				walk(step.Branch.IfFalse.StepID)
			}
		case ast.StepHandoff:
			if !step.Handoff.Next.IsTerminal {
				walk(step.Handoff.Next.StepID)
			}
		case ast.StepParallel:
			for _, b := range step.Parallel.Branches {
				walk(b.EntryStepID)
			}
			if !step.Parallel.OnAllSuccess.IsTerminal {
				walk(step.Parallel.OnAllSuccess.StepID)
			}
			if !step.Parallel.OnFailure.IsTerminal {
				walk(step.Parallel.OnFailure.StepID)
			}
		}
	}
	walk(startStepID)
	return out
}

// checkStratificationConsistency recomputes verdict_strata by
// scanning rules and reverifies no rule references a verdict of >= its
// own stratum, guarding against index/typecheck divergence.
func (v *Validator) checkStratificationConsistency() error {
	strata := map[string]int{}
	for _, rc := range v.idx.Constructs[core.KindRule] {
		strata[rc.Rule.ProduceType] = rc.Rule.Stratum
	}
	for id, rc := range v.idx.Constructs[core.KindRule] {
		for _, verdictType := range rc.Rule.When.VerdictsReferenced() {
			if producer, ok := strata[verdictType]; ok && producer >= rc.Rule.Stratum {
				return newValidationError("Rule", id, "when", rc.Prov,
					"stratification inconsistency: verdict_present(%s) at stratum %d >= rule's stratum %d", verdictType, producer, rc.Rule.Stratum)
			}
		}
	}
	return nil
}
