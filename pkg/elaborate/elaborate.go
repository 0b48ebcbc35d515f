// Package elaborate wires Passes 0 through 6 into a single entry
// point: parse, bundle, index, resolve types, type-check, validate,
// serialize. See spec.md §4 for the per-pass breakdown this mirrors.
package elaborate

import (
	"github.com/hashicorp/go-hclog"

	"github.com/riverline-labs/tenor/pkg/ast"
	"github.com/riverline-labs/tenor/pkg/bundle"
	"github.com/riverline-labs/tenor/pkg/core"
	"github.com/riverline-labs/tenor/pkg/eval"
	"github.com/riverline-labs/tenor/pkg/index"
	"github.com/riverline-labs/tenor/pkg/interchange"
	"github.com/riverline-labs/tenor/pkg/schema"
	"github.com/riverline-labs/tenor/pkg/typecheck"
	"github.com/riverline-labs/tenor/pkg/typeenv"
	"github.com/riverline-labs/tenor/pkg/validate"
)

// Result is the full output of a successful elaboration: the
// canonical bundle bytes, the advisories Pass 5 accumulated, and the
// in-process index, so a caller can hand the index straight to
// pkg/eval without a JSON round trip.
type Result struct {
	Name       string
	BundleJSON []byte
	Advisories []validate.Advisory
	Index      *index.Index
}

// Option configures an Elaborator.
type Option func(*Elaborator)

// WithLogger attaches a structured logger, threaded into the bundle
// assembler and the resulting eval.Contract alike.
func WithLogger(l hclog.Logger) Option {
	return func(e *Elaborator) { e.logger = l }
}

// WithSchemaValidate enables a Draft 2020-12 JSON Schema check of the
// serialized bundle (§6, defense-in-depth ahead of pkg/eval's own
// decoding) before Elaborate returns. Off by default since it is a
// redundant, optional check against an already-internally-consistent
// Result.
func WithSchemaValidate(on bool) Option {
	return func(e *Elaborator) { e.schemaValidate = on }
}

// WithSourceProvider overrides the default DiskSourceProvider, mainly
// for tests that want to elaborate from an in-memory file set.
func WithSourceProvider(p bundle.SourceProvider) Option {
	return func(e *Elaborator) { e.provider = p }
}

// Elaborator runs Pass 0 through Pass 6 over a root source file.
type Elaborator struct {
	logger         hclog.Logger
	schemaValidate bool
	provider       bundle.SourceProvider
}

// New creates an Elaborator with the given options applied over the
// defaults: a null logger, schema validation off, disk-backed source
// resolution.
func New(opts ...Option) *Elaborator {
	e := &Elaborator{logger: hclog.NewNullLogger(), provider: bundle.DiskSourceProvider{}}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Elaborate runs the full pipeline against rootPath: Pass 1's bundle
// assembler invokes Pass 0's parser per file, so there is no separate
// Pass 0 entry point here. The tenor name is the bundle id's
// human-readable component (the system's declared name if one System
// construct exists, "bundle" otherwise); see pkg/interchange for how
// it folds into the content hash.
func (e *Elaborator) Elaborate(rootPath string) (*Result, error) {
	constructs, err := bundle.New(e.provider, bundle.WithLogger(e.logger)).Assemble(rootPath)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("pass 1 complete", "constructs", len(constructs))

	idx, err := index.Build(constructs)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("pass 2 complete", "facts", len(idx.All(core.KindFact)), "rules", len(idx.All(core.KindRule)))

	env, err := typeenv.Build(idx)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("pass 3 complete", "type_decls", len(env))

	if err := typecheck.New(idx, env).Check(); err != nil {
		return nil, err
	}
	e.logger.Debug("pass 4 complete")

	advisories, err := validate.New(idx).Validate()
	if err != nil {
		return nil, err
	}
	e.logger.Debug("pass 5 complete", "advisories", len(advisories))

	tenorName := bundleName(constructs)
	flattened := flattenConstructs(idx, constructs)
	bundleJSON, err := interchange.Serialize(tenorName, flattened)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("pass 6 complete", "bytes", len(bundleJSON))

	if e.schemaValidate {
		if err := schema.Validate(bundleJSON); err != nil {
			return nil, err
		}
	}

	return &Result{Name: tenorName, BundleJSON: bundleJSON, Advisories: advisories, Index: idx}, nil
}

// ElaborateToContract runs Elaborate and hands the resulting index
// straight to pkg/eval, skipping the JSON round trip LoadContract
// would otherwise require.
func (e *Elaborator) ElaborateToContract(rootPath string, opts ...eval.Option) (*Result, *eval.Contract, error) {
	res, err := e.Elaborate(rootPath)
	if err != nil {
		return nil, nil, err
	}
	opts = append([]eval.Option{eval.WithLogger(e.logger)}, opts...)
	contract := eval.NewContract(res.Name, res.Index, opts...)
	return res, contract, nil
}

// bundleName picks a human-readable name for the bundle: the one
// declared System construct's name if exactly one exists, "bundle"
// otherwise (no System, or more than one, which Pass 5 permits: the
// spec ties at most informational significance to the name). System
// constructs carry their name in the body, not the id (the grammar has
// no "system <name> { id: ... }" form), so this reads rc.System.Name
// rather than rc.ID; the index drops unidentified constructs, so
// System constructs are found by scanning the flattened list directly.
func bundleName(constructs []ast.RawConstruct) string {
	var name string
	count := 0
	for _, c := range constructs {
		if c.Kind == core.KindSystem {
			count++
			name = c.System.Name
		}
	}
	if count == 1 {
		return name
	}
	return "bundle"
}

// flattenConstructs rebuilds the construct list from the index rather
// than reusing Pass 1's original slice: Pass 4 rewrites Fact and
// TypeDecl bodies in place by writing back into idx.Constructs, so
// that map is the post-rewrite source of truth for every construct kind
// the index carries. System constructs are the one exception: they have
// no id (see bundleName), so Pass 2 never admits them into the index at
// all. They pass through Pass 3-5 untouched, so the original Pass 1
// slice is pulled back in for those alone. interchange.Serialize
// re-derives its own canonical ordering, so the order assembled here is
// immaterial.
func flattenConstructs(idx *index.Index, original []ast.RawConstruct) []ast.RawConstruct {
	var out []ast.RawConstruct
	for _, byID := range idx.Constructs {
		for _, rc := range byID {
			out = append(out, rc)
		}
	}
	for _, c := range original {
		if c.Kind == core.KindSystem {
			out = append(out, c)
		}
	}
	return out
}
