package eval

import (
	"github.com/hashicorp/go-hclog"

	"github.com/riverline-labs/tenor/pkg/ast"
	"github.com/riverline-labs/tenor/pkg/core"
	"github.com/riverline-labs/tenor/pkg/index"
)

// Contract is a deserialized, indexed bundle ready for evaluation:
// the result of §4.8.1's "parse into strongly-typed runtime structures,
// rebuild the per-kind index" step.
type Contract struct {
	Name   string
	Index  *index.Index
	logger hclog.Logger
}

// Option configures a Contract.
type Option func(*Contract)

// WithLogger attaches a structured logger; the default is a no-op.
// Rule firings, operation invocations, and flow step transitions are
// logged at debug level when one is attached.
func WithLogger(l hclog.Logger) Option {
	return func(c *Contract) { c.logger = l }
}

// NewContract wraps an already-built index (the in-process path: an
// elaborate.Elaborate caller handing its Pass 2 result straight to the
// evaluator without a JSON round trip).
func NewContract(name string, idx *index.Index, opts ...Option) *Contract {
	c := &Contract{Name: name, Index: idx, logger: hclog.NewNullLogger()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// LoadContract runs §4.8.1 over a serialized bundle: decode, version
// check, re-index.
func LoadContract(bundleJSON []byte, opts ...Option) (*Contract, error) {
	pre := &Contract{logger: hclog.NewNullLogger()}
	for _, o := range opts {
		o(pre)
	}
	constructs, name, err := DecodeBundle(bundleJSON, pre.log())
	if err != nil {
		return nil, err
	}
	idx, err := index.Build(constructs)
	if err != nil {
		return nil, &EvalError{Kind: ErrBadContract, Detail: err.Error()}
	}
	return NewContract(name, idx, opts...), nil
}

func (c *Contract) log() hclog.Logger {
	if c.logger == nil {
		return hclog.NewNullLogger()
	}
	return c.logger
}

func (c *Contract) fact(id string) (ast.RawConstruct, bool) {
	return c.Index.Construct(core.KindFact, id)
}

func (c *Contract) operation(id string) (ast.RawConstruct, bool) {
	return c.Index.Construct(core.KindOperation, id)
}

func (c *Contract) flow(id string) (ast.RawConstruct, bool) {
	return c.Index.Construct(core.KindFlow, id)
}

func (c *Contract) entity(id string) (ast.RawConstruct, bool) {
	return c.Index.Construct(core.KindEntity, id)
}

func (c *Contract) persona(id string) bool {
	_, ok := c.Index.Lookup(core.KindPersona, id)
	return ok
}

func (c *Contract) rules() []ast.RawConstruct {
	return c.Index.All(core.KindRule)
}

func (c *Contract) maxStratum() int {
	max := 0
	for _, rc := range c.rules() {
		if rc.Rule.Stratum > max {
			max = rc.Rule.Stratum
		}
	}
	return max
}
