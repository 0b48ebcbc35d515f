package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverline-labs/tenor/pkg/ast"
	"github.com/riverline-labs/tenor/pkg/core"
)

func TestParseImport(t *testing.T) {
	cs, err := Parse("t.tenor", `import "shared.tenor"`)
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Equal(t, core.KindImport, cs[0].Kind)
	assert.Equal(t, "shared.tenor", cs[0].Import.Path)
}

func TestParsePersona(t *testing.T) {
	cs, err := Parse("t.tenor", `persona manager {}`)
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Equal(t, core.KindPersona, cs[0].Kind)
	assert.Equal(t, "manager", cs[0].ID)
}

func TestParseSystemHasNoID(t *testing.T) {
	cs, err := Parse("t.tenor", `system order_system { name: "Orders" }`)
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Equal(t, core.KindSystem, cs[0].Kind)
	assert.Empty(t, cs[0].ID)
	assert.Equal(t, "Orders", cs[0].System.Name)
}

func TestParseFactWithTypeAndSource(t *testing.T) {
	cs, err := Parse("t.tenor", `
fact amount {
  type: Decimal(10, 2)
  source: billing.total
}`)
	require.NoError(t, err)
	require.Len(t, cs, 1)
	f := cs[0].Fact
	require.NotNil(t, f)
	assert.Equal(t, ast.TDecimal, f.Type.Kind)
	assert.Equal(t, 10, f.Type.Precision)
	assert.Equal(t, 2, f.Type.Scale)
	require.NotNil(t, f.Source)
	assert.Equal(t, "billing", f.Source.System)
	assert.Equal(t, "total", f.Source.Field)
}

func TestParseEntityStatesAndTransitions(t *testing.T) {
	cs, err := Parse("t.tenor", `
entity order {
  states: ["pending", "approved", "rejected"]
  initial: "pending"
  transitions: [("pending", "approved"), ("pending", "rejected")]
}`)
	require.NoError(t, err)
	e := cs[0].Entity
	require.NotNil(t, e)
	assert.Equal(t, []string{"pending", "approved", "rejected"}, e.States)
	assert.Equal(t, "pending", e.Initial)
	require.Len(t, e.Transitions, 2)
	assert.Equal(t, ast.Transition{From: "pending", To: "approved"}, e.Transitions[0])
}

func TestParseRuleWithStratumAndProducePayload(t *testing.T) {
	cs, err := Parse("t.tenor", `
rule high_value_rule {
  stratum: 1
  when: amount > 100.00
  produce: HighValue
}`)
	require.NoError(t, err)
	r := cs[0].Rule
	require.NotNil(t, r)
	assert.Equal(t, 1, r.Stratum)
	assert.Equal(t, ast.ExprCompare, r.When.Kind)
	assert.Equal(t, ">", r.When.CompareOp)
	assert.Equal(t, "HighValue", r.ProduceType)
}

func TestParseOperationEffectsAndPersonas(t *testing.T) {
	cs, err := Parse("t.tenor", `
operation approve {
  allowed_personas: ["manager", "clerk"]
  precondition: verdict_present(HighValue)
  effects: [(order, "pending", "approved")]
}`)
	require.NoError(t, err)
	op := cs[0].Operation
	require.NotNil(t, op)
	assert.Equal(t, []string{"manager", "clerk"}, op.AllowedPersonas)
	assert.Equal(t, ast.ExprVerdictPresent, op.Precondition.Kind)
	assert.Equal(t, "HighValue", op.Precondition.VerdictType)
	require.Len(t, op.Effects, 1)
	assert.Equal(t, ast.Effect{EntityID: "order", From: "pending", To: "approved"}, op.Effects[0])
}

func TestParseFlowWithOperationStep(t *testing.T) {
	cs, err := Parse("t.tenor", `
flow approval_flow {
  entry: step1
  snapshot: "at_initiation"
  steps: {
    step1: operation_step {
      op: approve
      persona: manager
      outcomes: {
        success: "done"
      }
      on_failure: terminate("rejected")
    }
  }
}`)
	require.NoError(t, err)
	f := cs[0].Flow
	require.NotNil(t, f)
	assert.Equal(t, "step1", f.Entry)
	assert.Equal(t, "at_initiation", f.Snapshot)
	require.Contains(t, f.Steps, "step1")
	step := f.Steps["step1"]
	assert.Equal(t, ast.StepOperation, step.Kind)
	assert.Equal(t, "approve", step.Operation.Op)
	assert.Equal(t, ast.Target{IsTerminal: true, Outcome: "done"}, step.Operation.Outcomes["success"])
	assert.Equal(t, ast.FailureTerminate, step.Operation.OnFailure.Kind)
	assert.Equal(t, "rejected", step.Operation.OnFailure.Outcome)
}

func TestParseExprPrecedence(t *testing.T) {
	cs, err := Parse("t.tenor", `
rule r {
  stratum: 0
  when: a = 1 and b = 2 or not c = 3
  produce: V
}`)
	require.NoError(t, err)
	when := cs[0].Rule.When
	assert.Equal(t, ast.ExprOr, when.Kind)
}

func TestParseQuantifiers(t *testing.T) {
	cs, err := Parse("t.tenor", `
rule r {
  stratum: 0
  when: forall x in items, x = 1
  produce: V
}`)
	require.NoError(t, err)
	when := cs[0].Rule.When
	assert.Equal(t, ast.ExprForAll, when.Kind)
	assert.Equal(t, "x", when.QuantVar)
}

func TestParseTypeDeclVariants(t *testing.T) {
	cs, err := Parse("t.tenor", `type Percent { type: Int(0, 100) }`)
	require.NoError(t, err)
	bt := cs[0].TypeDecl.Type
	assert.Equal(t, ast.TInt, bt.Kind)
	require.NotNil(t, bt.Min)
	require.NotNil(t, bt.Max)
	assert.Equal(t, int64(0), *bt.Min)
	assert.Equal(t, int64(100), *bt.Max)
}

func TestParseTypeDeclTypeRef(t *testing.T) {
	cs, err := Parse("t.tenor", `type Alias { type: SomeOtherType }`)
	require.NoError(t, err)
	bt := cs[0].TypeDecl.Type
	assert.Equal(t, ast.TTypeRef, bt.Kind)
	assert.Equal(t, "SomeOtherType", bt.RefName)
}

func TestParseUnknownConstructKeywordErrors(t *testing.T) {
	_, err := Parse("t.tenor", `foo bar {}`)
	require.Error(t, err)
}

func TestParseUnexpectedTokenErrors(t *testing.T) {
	_, err := Parse("t.tenor", `persona manager { `)
	require.Error(t, err)
}

func TestParseSkipsUnknownFields(t *testing.T) {
	cs, err := Parse("t.tenor", `persona manager { unknown_field: "whatever" }`)
	require.NoError(t, err)
	assert.Equal(t, "manager", cs[0].ID)
}

func TestParseMultipleConstructsInOrder(t *testing.T) {
	cs, err := Parse("t.tenor", `
persona manager {}
persona clerk {}
entity order { states: ["a"] initial: "a" }
`)
	require.NoError(t, err)
	require.Len(t, cs, 3)
	assert.Equal(t, "manager", cs[0].ID)
	assert.Equal(t, "clerk", cs[1].ID)
	assert.Equal(t, "order", cs[2].ID)
}
