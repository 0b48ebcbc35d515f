package eval

import (
	"fmt"
	"sort"

	"github.com/riverline-labs/tenor/pkg/ast"
	"github.com/riverline-labs/tenor/pkg/core"
)

// BlockedReasonKind tags why a flow is currently unavailable to a
// persona, per §4.8.6. Values and JSON shape follow the upstream
// riverline-labs/tenor Go SDK's BlockedReason.Type.
type BlockedReasonKind string

const (
	BlockedPersonaNotAuthorized   BlockedReasonKind = "PersonaNotAuthorized"
	BlockedPreconditionNotMet     BlockedReasonKind = "PreconditionNotMet"
	BlockedEntityNotInSourceState BlockedReasonKind = "EntityNotInSourceState"
	// BlockedMissingFacts is never produced by ComputeActionSpace: fact
	// assembly (§4.8.2) is strict and fails the whole call before any
	// Snapshot exists to gate individual flows on. It is kept in the
	// tagged union for callers that assemble a partial FactSet
	// themselves and want to report per-flow missing-fact blocking.
	BlockedMissingFacts BlockedReasonKind = "MissingFacts"
)

// BlockedReason carries the kind-specific detail for a blocked action.
type BlockedReason struct {
	Kind            BlockedReasonKind `json:"type"`
	MissingVerdicts []string          `json:"missing_verdicts,omitempty"` // BlockedPreconditionNotMet
	EntityID        string            `json:"entity_id,omitempty"`        // BlockedEntityNotInSourceState
	ActualState     string            `json:"current_state,omitempty"`    // BlockedEntityNotInSourceState
	ExpectedState   string            `json:"required_state,omitempty"`   // BlockedEntityNotInSourceState
	MissingFacts    []string          `json:"fact_ids,omitempty"`         // BlockedMissingFacts
}

// EntitySummary describes one entity's current state and the states it
// could move to from here, matching the upstream SDK's EntitySummary.
type EntitySummary struct {
	EntityID            string   `json:"entity_id"`
	CurrentState        string   `json:"current_state"`
	PossibleTransitions []string `json:"possible_transitions"`
}

// Action is one flow a persona may initiate right now.
type Action struct {
	FlowID           string              `json:"flow_id"`
	PersonaID        string              `json:"persona_id"`
	EntryOperationID string              `json:"entry_operation_id"`
	EnablingVerdicts []VerdictSummary    `json:"enabling_verdicts"`
	AffectedEntities []EntitySummary     `json:"affected_entities"`
	Description      string              `json:"description"`
	InstanceBindings map[string][]string `json:"instance_bindings,omitempty"`
}

// BlockedAction is a flow currently unavailable to a persona, with the
// reason it is blocked.
type BlockedAction struct {
	FlowID           string              `json:"flow_id"`
	Reason           BlockedReason       `json:"reason"`
	InstanceBindings map[string][]string `json:"instance_bindings,omitempty"`
}

// ActionSpace is the full §4.8.6 result for a single (FactSet,
// EntityStateMap, persona): every flow available, plus every flow
// blocked with its reason. Field naming follows the upstream SDK's
// ActionSpace.
type ActionSpace struct {
	PersonaID       string           `json:"persona_id"`
	Actions         []Action         `json:"actions"`
	CurrentVerdicts []VerdictSummary `json:"current_verdicts"`
	BlockedActions  []BlockedAction  `json:"blocked_actions"`
}

// ComputeActionSpace evaluates every Flow's entry point against the
// current Snapshot and EntityStateMap for one persona.
func ComputeActionSpace(c *Contract, personaID string, states EntityStateMap, input map[string]interface{}) (ActionSpace, error) {
	if !c.persona(personaID) {
		return ActionSpace{}, &EvalError{Kind: ErrUnknownPersona, PersonaID: personaID}
	}
	snap, err := ComputeSnapshot(c, input)
	if err != nil {
		return ActionSpace{}, err
	}

	flows := c.Index.All(core.KindFlow)
	sort.Slice(flows, func(i, j int) bool { return flows[i].ID < flows[j].ID })

	space := ActionSpace{PersonaID: personaID, CurrentVerdicts: verdictSummaries(snap.Verdicts)}
	for _, rc := range flows {
		flowID := rc.ID
		entryOp, ok := resolveEntryOperation(c, rc.Flow, snap)
		if !ok {
			// No OperationStep reachable through deterministic Branch/
			// Handoff/SubFlow prefixes; not an actionable entry point.
			continue
		}
		op, ok := c.operation(entryOp.Op)
		if !ok {
			continue
		}

		if blocked, reason := blockedReasonFor(op.Operation, personaID, states, snap); blocked {
			space.BlockedActions = append(space.BlockedActions, BlockedAction{FlowID: flowID, Reason: reason})
			continue
		}
		space.Actions = append(space.Actions, Action{
			FlowID:           flowID,
			PersonaID:        personaID,
			EntryOperationID: entryOp.Op,
			EnablingVerdicts: enablingVerdictsFor(op.Operation, snap),
			AffectedEntities: affectedEntitiesFor(c, op.Operation, states),
			Description:      describeAction(entryOp.Op, op.Operation),
		})
	}
	return space, nil
}

// ComputeActionSpaceNested is the multi-instance counterpart of
// ComputeActionSpace: states is resolved against a per-entity instance
// chosen by bindings, exactly as ExecuteFlowWithBindings does for flow
// execution.
func ComputeActionSpaceNested(c *Contract, personaID string, states EntityStateMapNested, bindings InstanceBindings, input map[string]interface{}) (ActionSpace, error) {
	return ComputeActionSpace(c, personaID, states.Flatten(bindings), input)
}

// verdictSummaries renders a VerdictSet as the sorted-by-type
// []VerdictSummary an ActionSpace carries.
func verdictSummaries(vs VerdictSet) []VerdictSummary {
	types := make([]string, 0, len(vs))
	for t := range vs {
		types = append(types, t)
	}
	sort.Strings(types)
	out := make([]VerdictSummary, 0, len(types))
	for _, t := range types {
		out = append(out, vs[t].summary())
	}
	return out
}

// enablingVerdictsFor returns the summaries of every verdict an
// operation's precondition actually references and that is present in
// snap, in the order the precondition's VerdictsReferenced returns.
func enablingVerdictsFor(op *ast.OperationBody, snap Snapshot) []VerdictSummary {
	var out []VerdictSummary
	for _, vt := range op.Precondition.VerdictsReferenced() {
		if vi, ok := snap.Verdicts[vt]; ok {
			out = append(out, vi.summary())
		}
	}
	return out
}

// affectedEntitiesFor summarizes every entity an operation's effects
// touch, at the state the persona's current EntityStateMap shows.
func affectedEntitiesFor(c *Contract, op *ast.OperationBody, states EntityStateMap) []EntitySummary {
	out := make([]EntitySummary, 0, len(op.Effects))
	for _, eff := range op.Effects {
		out = append(out, entitySummaryFor(c, eff.EntityID, states))
	}
	return out
}

func entitySummaryFor(c *Contract, entityID string, states EntityStateMap) EntitySummary {
	current := states[entityID]
	var possible []string
	if rc, ok := c.entity(entityID); ok {
		for _, tr := range rc.Entity.Transitions {
			if tr.From == current {
				possible = append(possible, tr.To)
			}
		}
	}
	return EntitySummary{EntityID: entityID, CurrentState: current, PossibleTransitions: possible}
}

// describeAction renders a short human-readable sentence for an
// available action, the upstream SDK's Action.Description field.
func describeAction(entryOpID string, op *ast.OperationBody) string {
	if len(op.Effects) == 0 {
		return fmt.Sprintf("invoke %s", entryOpID)
	}
	eff := op.Effects[0]
	return fmt.Sprintf("invoke %s, transitioning %s from %q to %q", entryOpID, eff.EntityID, eff.From, eff.To)
}

// resolveEntryOperation walks Flow.Entry through Branch/Handoff/SubFlow
// prefixes (each deterministic given a frozen Snapshot) until it finds
// the OperationStep that actually gates the flow, per §4.8.6. A
// ParallelStep's first branch is followed by convention, since every
// branch must independently satisfy its own entry conditions.
func resolveEntryOperation(c *Contract, body *ast.FlowBody, snap Snapshot) (*ast.OperationStep, bool) {
	stepID := body.Entry
	for i := 0; i < maxFlowSteps; i++ {
		step, ok := body.Steps[stepID]
		if !ok {
			return nil, false
		}
		switch step.Kind {
		case ast.StepOperation:
			return step.Operation, true
		case ast.StepBranch:
			ok, err := EvalPredicate(&step.Branch.Condition, snap.Facts, snap.Verdicts)
			if err != nil {
				return nil, false
			}
			target := step.Branch.IfFalse
			if ok {
				target = step.Branch.IfTrue
			}
			if target.IsTerminal {
				return nil, false
			}
			stepID = target.StepID
		case ast.StepHandoff:
			if step.Handoff.Next.IsTerminal {
				return nil, false
			}
			stepID = step.Handoff.Next.StepID
		case ast.StepSubFlow:
			rc, ok := c.flow(step.SubFlow.FlowID)
			if !ok {
				return nil, false
			}
			return resolveEntryOperation(c, rc.Flow, snap)
		case ast.StepParallel:
			if len(step.Parallel.Branches) == 0 {
				return nil, false
			}
			stepID = step.Parallel.Branches[0].EntryStepID
		default:
			return nil, false
		}
	}
	return nil, false
}

func blockedReasonFor(op *ast.OperationBody, personaID string, states EntityStateMap, snap Snapshot) (bool, BlockedReason) {
	authorized := false
	for _, p := range op.AllowedPersonas {
		if p == personaID {
			authorized = true
			break
		}
	}
	if !authorized {
		return true, BlockedReason{Kind: BlockedPersonaNotAuthorized}
	}

	for _, eff := range op.Effects {
		current := states[eff.EntityID]
		if current != eff.From {
			return true, BlockedReason{
				Kind:          BlockedEntityNotInSourceState,
				EntityID:      eff.EntityID,
				ActualState:   current,
				ExpectedState: eff.From,
			}
		}
	}

	ok, err := EvalPredicate(&op.Precondition, snap.Facts, snap.Verdicts)
	if err != nil || !ok {
		return true, BlockedReason{Kind: BlockedPreconditionNotMet, MissingVerdicts: missingVerdicts(&op.Precondition, snap.Verdicts)}
	}

	return false, BlockedReason{}
}
