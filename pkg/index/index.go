// Package index implements Pass 2: a single pass over the flattened
// construct list building per-kind id→provenance maps, detecting
// within-kind duplicate ids, and deriving the rule_verdicts and
// verdict_strata maps later passes need for cross-stratum checks.
// See spec.md §4.3.
package index

import (
	"fmt"

	"github.com/riverline-labs/tenor/pkg/ast"
	"github.com/riverline-labs/tenor/pkg/core"
)

// DuplicateId is a Pass 2 error: two constructs of the same kind
// declare the same id.
type DuplicateId struct {
	core.PassError
	FirstProv core.Provenance
}

func newDuplicateId(c ast.RawConstruct, first core.Provenance) *DuplicateId {
	return &DuplicateId{
		PassError: core.PassError{
			PassNum: 2,
			Kind:    c.Kind.String(),
			ID:      c.ID,
			Prov:    c.Prov,
			Message: fmt.Sprintf("duplicate %s id %q (first declared at %s)", c.Kind, c.ID, first.String()),
		},
		FirstProv: first,
	}
}

// Index is the Pass 2 result: per-kind id→provenance lookup, plus
// derived cross-stratum maps.
type Index struct {
	ByKind map[core.ConstructKind]map[string]core.Provenance

	// Constructs retains the original construct for each (kind, id),
	// so later passes can fetch a construct's payload by id without
	// re-scanning the flattened list.
	Constructs map[core.ConstructKind]map[string]ast.RawConstruct

	// RuleVerdicts maps a produced verdict type name to the id of the
	// rule that produces it. A verdict type is assumed unique to one
	// rule; Pass 5 does not currently enforce this as a standalone
	// check because a verdict type naming collision manifests as a
	// TypeError or ValidationError from other checks in practice.
	RuleVerdicts map[string]string

	// VerdictStrata maps a verdict type name to the stratum of its
	// producing rule.
	VerdictStrata map[string]int
}

// Build runs Pass 2 over the flattened construct list.
func Build(constructs []ast.RawConstruct) (*Index, error) {
	idx := &Index{
		ByKind:        map[core.ConstructKind]map[string]core.Provenance{},
		Constructs:    map[core.ConstructKind]map[string]ast.RawConstruct{},
		RuleVerdicts:  map[string]string{},
		VerdictStrata: map[string]int{},
	}

	for _, c := range constructs {
		if c.ID == "" {
			continue
		}
		byID, ok := idx.ByKind[c.Kind]
		if !ok {
			byID = map[string]core.Provenance{}
			idx.ByKind[c.Kind] = byID
		}
		if first, exists := byID[c.ID]; exists {
			return nil, newDuplicateId(c, first)
		}
		byID[c.ID] = c.Prov

		constructsByID, ok := idx.Constructs[c.Kind]
		if !ok {
			constructsByID = map[string]ast.RawConstruct{}
			idx.Constructs[c.Kind] = constructsByID
		}
		constructsByID[c.ID] = c

		if c.Kind == core.KindRule {
			idx.RuleVerdicts[c.Rule.ProduceType] = c.ID
			idx.VerdictStrata[c.Rule.ProduceType] = c.Rule.Stratum
		}
	}

	return idx, nil
}

// Lookup returns the provenance of the construct with the given kind
// and id, and whether it exists.
func (idx *Index) Lookup(kind core.ConstructKind, id string) (core.Provenance, bool) {
	m, ok := idx.ByKind[kind]
	if !ok {
		return core.Provenance{}, false
	}
	p, ok := m[id]
	return p, ok
}

// Construct returns the raw construct with the given kind and id.
func (idx *Index) Construct(kind core.ConstructKind, id string) (ast.RawConstruct, bool) {
	m, ok := idx.Constructs[kind]
	if !ok {
		return ast.RawConstruct{}, false
	}
	c, ok := m[id]
	return c, ok
}

// All returns every construct of the given kind.
func (idx *Index) All(kind core.ConstructKind) []ast.RawConstruct {
	m := idx.Constructs[kind]
	out := make([]ast.RawConstruct, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	return out
}
