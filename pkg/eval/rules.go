package eval

import (
	"sort"

	"github.com/riverline-labs/tenor/pkg/ast"
)

// EvaluateRules computes the Verdict Set as a fixed point over strata
// 0..max_stratum, per §4.8.3.
func EvaluateRules(c *Contract, facts FactSet) (VerdictSet, error) {
	verdicts := VerdictSet{}
	rules := c.rules()
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })

	for s := 0; s <= c.maxStratum(); s++ {
		for _, rc := range rules {
			if rc.Rule.Stratum != s {
				continue
			}
			ok, err := EvalPredicate(&rc.Rule.When, facts, verdicts)
			if err != nil {
				return nil, &EvalError{Kind: ErrTypeMismatch, RuleID: rc.ID, Detail: err.Error()}
			}
			if !ok {
				continue
			}
			payload, err := evalExpr(&rc.Rule.Payload, newScope(facts, verdicts))
			if err != nil {
				return nil, &EvalError{Kind: ErrTypeMismatch, RuleID: rc.ID, Detail: err.Error()}
			}
			verdicts[rc.Rule.ProduceType] = VerdictInstance{
				Type:    rc.Rule.ProduceType,
				Payload: payload,
				Provenance: VerdictProvenance{
					Rule:         rc.ID,
					Stratum:      s,
					FactsUsed:    rc.Rule.When.FactsReferenced(),
					VerdictsUsed: rc.Rule.When.VerdictsReferenced(),
				},
			}
			c.log().Debug("rule fired", "rule", rc.ID, "stratum", s, "produces", rc.Rule.ProduceType)
		}
	}
	return verdicts, nil
}

// ComputeSnapshot runs fact assembly and rule evaluation together,
// producing the frozen (FactSet, VerdictSet) pair a flow or operation
// invocation reads from.
func ComputeSnapshot(c *Contract, input map[string]interface{}) (Snapshot, error) {
	facts, err := AssembleFacts(c, input)
	if err != nil {
		return Snapshot{}, err
	}
	verdicts, err := EvaluateRules(c, facts)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Facts: facts, Verdicts: verdicts}, nil
}

// missingVerdicts inspects a predicate's verdict_present leaves and
// returns those not currently satisfied in verdicts, the "optionally
// with the set of missing verdicts" hint §4.8.4/§4.8.6 call for.
func missingVerdicts(e *ast.Expr, verdicts VerdictSet) []string {
	var missing []string
	for _, v := range e.VerdictsReferenced() {
		if _, ok := verdicts[v]; !ok {
			missing = append(missing, v)
		}
	}
	return missing
}
