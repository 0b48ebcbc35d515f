// Package validate implements Pass 5, the structural validator:
// construct-level invariants checkable purely from the Index and the
// typed AST. First error stops the pass; no accumulation. See
// spec.md §4.6.
package validate

import (
	"fmt"

	"github.com/riverline-labs/tenor/pkg/ast"
	"github.com/riverline-labs/tenor/pkg/core"
	"github.com/riverline-labs/tenor/pkg/index"
)

// ValidationError is a Pass 5 error.
type ValidationError struct {
	core.PassError
}

func newValidationError(kind, id, field string, prov core.Provenance, format string, args ...interface{}) *ValidationError {
	return &ValidationError{core.PassError{
		PassNum:   5,
		Kind:      kind,
		ID:        id,
		FieldName: field,
		Prov:      prov,
		Message:   fmt.Sprintf(format, args...),
	}}
}

// Advisory is a non-fatal Pass 5 finding: it does not stop the pass
// and is not part of the bundle, but callers (the CLI, tests) may
// want to surface it. Currently used only for outcome-map
// exhaustiveness (spec.md §4.6's "currently a known limitation").
type Advisory struct {
	Kind, ID, Field string
	Prov            core.Provenance
	Message         string
}

func (a Advisory) String() string {
	if a.Field != "" {
		return fmt.Sprintf("%s '%s'.%s at %s: %s", a.Kind, a.ID, a.Field, a.Prov.String(), a.Message)
	}
	return fmt.Sprintf("%s '%s' at %s: %s", a.Kind, a.ID, a.Prov.String(), a.Message)
}

// Validator runs Pass 5 against an Index.
type Validator struct {
	idx       *index.Index
	advisories []Advisory
}

// New creates a Validator.
func New(idx *index.Index) *Validator {
	return &Validator{idx: idx}
}

// Validate runs every per-kind check in turn, stopping at the first
// error. Returns any advisories accumulated before that point (or, on
// success, every advisory found).
func (v *Validator) Validate() ([]Advisory, error) {
	for _, rc := range v.idx.All(core.KindEntity) {
		if err := v.checkEntity(rc); err != nil {
			return v.advisories, err
		}
	}
	if err := v.checkEntityHierarchyAcyclic(); err != nil {
		return v.advisories, err
	}
	for _, rc := range v.idx.All(core.KindRule) {
		if err := v.checkRule(rc); err != nil {
			return v.advisories, err
		}
	}
	for _, rc := range v.idx.All(core.KindOperation) {
		if err := v.checkOperation(rc); err != nil {
			return v.advisories, err
		}
	}
	for _, rc := range v.idx.All(core.KindFlow) {
		if err := v.checkFlow(rc); err != nil {
			return v.advisories, err
		}
	}
	if err := v.checkSubFlowGraphAcyclic(); err != nil {
		return v.advisories, err
	}
	if err := v.checkStratificationConsistency(); err != nil {
		return v.advisories, err
	}
	return v.advisories, nil
}

func (v *Validator) advise(kind, id, field string, prov core.Provenance, format string, args ...interface{}) {
	v.advisories = append(v.advisories, Advisory{
		Kind: kind, ID: id, Field: field, Prov: prov,
		Message: fmt.Sprintf(format, args...),
	})
}

func (v *Validator) checkEntity(rc ast.RawConstruct) error {
	e := rc.Entity
	states := map[string]bool{}
	for _, s := range e.States {
		states[s] = true
	}
	if !states[e.Initial] {
		return newValidationError("Entity", rc.ID, "initial", e.InitialProv,
			"initial state %q is not one of the declared states", e.Initial)
	}
	for _, t := range e.Transitions {
		if !states[t.From] {
			return newValidationError("Entity", rc.ID, "transitions", rc.Prov,
				"transition references undeclared state %q", t.From)
		}
		if !states[t.To] {
			return newValidationError("Entity", rc.ID, "transitions", rc.Prov,
				"transition references undeclared state %q", t.To)
		}
	}
	return nil
}

func (v *Validator) checkEntityHierarchyAcyclic() error {
	dfs := core.NewDFSState()
	entities := v.idx.Constructs[core.KindEntity]

	var walk func(id string) error
	walk = func(id string) error {
		if dfs.Visited(id) {
			return nil
		}
		rc, ok := entities[id]
		if !ok || rc.Entity.Parent == "" {
			dfs.MarkVisited(id)
			return nil
		}
		if !dfs.Enter(id) {
			return newValidationError("Entity", id, "parent", rc.Prov,
				"entity hierarchy cycle: %s", core.FormatCyclePath(dfs.Path(id)))
		}
		defer dfs.Leave(id)
		if err := walk(rc.Entity.Parent); err != nil {
			return err
		}
		dfs.MarkVisited(id)
		return nil
	}

	for id := range entities {
		if err := walk(id); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) checkRule(rc ast.RawConstruct) error {
	r := rc.Rule
	if r.Stratum < 0 {
		return newValidationError("Rule", rc.ID, "stratum", rc.Prov, "stratum must be >= 0, found %d", r.Stratum)
	}
	for _, verdictType := range r.When.VerdictsReferenced() {
		producerStratum, ok := v.idx.VerdictStrata[verdictType]
		if ok && producerStratum >= r.Stratum {
			return newValidationError("Rule", rc.ID, "when", rc.Prov,
				"forward reference: verdict_present(%s) at stratum %d >= this rule's stratum %d", verdictType, producerStratum, r.Stratum)
		}
	}
	return nil
}

func (v *Validator) checkOperation(rc ast.RawConstruct) error {
	op := rc.Operation
	if len(op.AllowedPersonas) == 0 {
		return newValidationError("Operation", rc.ID, "allowed_personas", rc.Prov, "allowed_personas must be non-empty")
	}
	for _, p := range op.AllowedPersonas {
		if _, ok := v.idx.Lookup(core.KindPersona, p); !ok {
			return newValidationError("Operation", rc.ID, "allowed_personas", rc.Prov, "references undeclared persona %q", p)
		}
	}
	for _, eff := range op.Effects {
		entityRC, ok := v.idx.Construct(core.KindEntity, eff.EntityID)
		if !ok {
			return newValidationError("Operation", rc.ID, "effects", rc.Prov, "references undeclared entity %q", eff.EntityID)
		}
		if !hasTransition(entityRC.Entity, eff.From, eff.To) {
			return newValidationError("Operation", rc.ID, "effects", rc.Prov,
				"effect (%s, %s -> %s) is not a declared transition of entity %s", eff.EntityID, eff.From, eff.To, eff.EntityID)
		}
	}
	return nil
}

func hasTransition(e *ast.EntityBody, from, to string) bool {
	for _, t := range e.Transitions {
		if t.From == from && t.To == to {
			return true
		}
	}
	return false
}
