// Package typecheck implements Pass 4: rewrite TypeRef nodes in
// construct fields to concrete types, then type-check every predicate
// expression (rule bodies, operation preconditions, flow branch
// conditions). See spec.md §4.5.
package typecheck

import (
	"fmt"

	"github.com/riverline-labs/tenor/pkg/ast"
	"github.com/riverline-labs/tenor/pkg/core"
	"github.com/riverline-labs/tenor/pkg/index"
	"github.com/riverline-labs/tenor/pkg/typeenv"
)

// TypeError is a Pass 4 error: an expression's expected and actual
// types disagree.
type TypeError struct {
	core.PassError
}

func newTypeError(c ast.RawConstruct, e ast.Expr, format string, args ...interface{}) *TypeError {
	return &TypeError{core.PassError{
		PassNum: 4,
		Kind:    c.Kind.String(),
		ID:      c.ID,
		Prov:    e.Prov,
		Message: fmt.Sprintf(format, args...),
	}}
}

// Checker runs Pass 4 against an Index and a resolved TypeEnv.
type Checker struct {
	idx *index.Index
	env typeenv.TypeEnv

	// scope is the quantifier-bound variable stack: name -> type, used
	// to distinguish a bound variable from a free fact reference.
	scope []map[string]ast.BaseType
}

// New creates a Checker.
func New(idx *index.Index, env typeenv.TypeEnv) *Checker {
	return &Checker{idx: idx, env: env}
}

// Check rewrites TypeRefs and type-checks every predicate expression
// reachable from Fact, Rule, Operation, and Flow constructs.
func (c *Checker) Check() error {
	if err := c.resolveFactTypes(); err != nil {
		return err
	}
	if err := c.resolveTypeDeclFields(); err != nil {
		return err
	}

	for _, rc := range c.idx.All(core.KindRule) {
		if err := c.checkRule(rc); err != nil {
			return err
		}
	}
	for _, rc := range c.idx.All(core.KindOperation) {
		if err := c.checkOperation(rc); err != nil {
			return err
		}
	}
	for _, rc := range c.idx.All(core.KindFlow) {
		if err := c.checkFlow(rc); err != nil {
			return err
		}
	}
	return nil
}

func (c *Checker) resolveFactTypes() error {
	for id, rc := range c.idx.Constructs[core.KindFact] {
		resolved, err := c.env.Resolve(rc.Fact.Type)
		if err != nil {
			return &TypeError{core.PassError{
				PassNum: 4, Kind: "Fact", ID: id, Prov: rc.Prov,
				Message: err.Error(),
			}}
		}
		rc.Fact.Type = resolved
		c.idx.Constructs[core.KindFact][id] = rc
	}
	return nil
}

func (c *Checker) resolveTypeDeclFields() error {
	for id, rc := range c.idx.Constructs[core.KindTypeDecl] {
		resolved, err := c.env.Resolve(rc.TypeDecl.Type)
		if err != nil {
			return &TypeError{core.PassError{
				PassNum: 4, Kind: "TypeDecl", ID: id, Prov: rc.Prov,
				Message: err.Error(),
			}}
		}
		rc.TypeDecl.Type = resolved
		c.idx.Constructs[core.KindTypeDecl][id] = rc
	}
	return nil
}

func (c *Checker) factType(id string) (ast.BaseType, bool) {
	rc, ok := c.idx.Construct(core.KindFact, id)
	if !ok {
		return ast.BaseType{}, false
	}
	return rc.Fact.Type, true
}

func (c *Checker) pushScope() { c.scope = append(c.scope, map[string]ast.BaseType{}) }
func (c *Checker) popScope()  { c.scope = c.scope[:len(c.scope)-1] }
func (c *Checker) bind(name string, t ast.BaseType) {
	c.scope[len(c.scope)-1][name] = t
}
func (c *Checker) lookupBound(name string) (ast.BaseType, bool) {
	for i := len(c.scope) - 1; i >= 0; i-- {
		if t, ok := c.scope[i][name]; ok {
			return t, true
		}
	}
	return ast.BaseType{}, false
}

func (c *Checker) checkRule(rc ast.RawConstruct) error {
	rule := rc.Rule
	c.pushScope()
	err := c.typeExpr(rc, &rule.When)
	c.popScope()
	if err != nil {
		return err
	}
	if rule.When.Type.Kind != ast.TBool {
		return newTypeError(rc, rule.When, "rule 'when' predicate must be Bool, found %v", rule.When.Type.Kind)
	}

	verdictRC, ok := c.idx.Construct(core.KindTypeDecl, rule.ProduceType)
	if ok {
		c.pushScope()
		err := c.typeExpr(rc, &rule.Payload)
		c.popScope()
		if err != nil {
			return err
		}
		expected, rerr := c.env.Resolve(verdictRC.TypeDecl.Type)
		if rerr == nil && !rule.Payload.Type.Equal(expected) {
			return newTypeError(rc, rule.Payload, "verdict %s payload type mismatch: expected %v, found %v",
				rule.ProduceType, expected.Kind, rule.Payload.Type.Kind)
		}
	}

	for _, v := range rule.When.VerdictsReferenced() {
		producingStratum, ok := c.idx.VerdictStrata[v]
		if ok && producingStratum >= rule.Stratum {
			return newTypeError(rc, rule.When, "verdict_present(%s) references stratum %d from stratum %d rule; must be strictly lower", v, producingStratum, rule.Stratum)
		}
	}

	return nil
}

func (c *Checker) checkOperation(rc ast.RawConstruct) error {
	op := rc.Operation
	c.pushScope()
	err := c.typeExpr(rc, &op.Precondition)
	c.popScope()
	if err != nil {
		return err
	}
	if op.Precondition.Type.Kind != ast.TBool {
		return newTypeError(rc, op.Precondition, "operation precondition must be Bool, found %v", op.Precondition.Type.Kind)
	}
	return nil
}

func (c *Checker) checkFlow(rc ast.RawConstruct) error {
	flow := rc.Flow
	for id, step := range flow.Steps {
		if step.Kind != ast.StepBranch {
			continue
		}
		c.pushScope()
		err := c.typeExpr(rc, &step.Branch.Condition)
		c.popScope()
		if err != nil {
			return err
		}
		if step.Branch.Condition.Type.Kind != ast.TBool {
			return newTypeError(rc, step.Branch.Condition, "branch step %s condition must be Bool, found %v", id, step.Branch.Condition.Type.Kind)
		}
		flow.Steps[id] = step
	}
	return nil
}
