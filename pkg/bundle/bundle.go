// Package bundle implements Pass 1, the bundle assembler: given a root
// source file path, it recursively loads every file reachable by
// import directives, flattens their constructs into one ordered list,
// and detects import cycles and cross-file duplicate ids. See
// spec.md §4.2.
package bundle

import (
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/riverline-labs/tenor/pkg/ast"
	"github.com/riverline-labs/tenor/pkg/core"
	"github.com/riverline-labs/tenor/pkg/parser"
)

// BundleError is a Pass 1 error: an import cycle, a missing file, or
// a cross-file duplicate id.
type BundleError struct {
	core.PassError
}

func newBundleError(prov core.Provenance, format string, args ...interface{}) *BundleError {
	return &BundleError{core.PassError{
		PassNum: 1,
		Prov:    prov,
		Message: fmt.Sprintf(format, args...),
	}}
}

func newBundleErrorConstruct(prov core.Provenance, kind, id string, format string, args ...interface{}) *BundleError {
	return &BundleError{core.PassError{
		PassNum: 1,
		Kind:    kind,
		ID:      id,
		Prov:    prov,
		Message: fmt.Sprintf(format, args...),
	}}
}

// SourceProvider abstracts where source text comes from, so the
// assembler is testable without touching a filesystem.
type SourceProvider interface {
	// ReadFile returns the contents of path, resolved relative to
	// fromFile if fromFile is non-empty (import paths are relative to
	// the importing file).
	ReadFile(fromFile, path string) (resolvedPath, contents string, err error)
}

// DiskSourceProvider reads source files from the local filesystem.
type DiskSourceProvider struct{}

// Assembler runs Pass 1 over a SourceProvider.
type Assembler struct {
	provider SourceProvider
	logger   hclog.Logger
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithLogger attaches a structured logger; the default is a no-op.
func WithLogger(l hclog.Logger) Option {
	return func(a *Assembler) { a.logger = l }
}

// New creates an Assembler over provider.
func New(provider SourceProvider, opts ...Option) *Assembler {
	a := &Assembler{provider: provider, logger: hclog.NewNullLogger()}
	for _, o := range opts {
		o(a)
	}
	return a
}

// fileNode is one loaded file's parsed constructs, kept so imports
// can be flattened import-before-importer.
type fileNode struct {
	path       string
	constructs []ast.RawConstruct
}

// Assemble loads rootPath and every file it transitively imports,
// returning the flattened construct list (imported constructs before
// the constructs of the importing file). It computes no bundle
// identifier; pkg/interchange derives the bundle id at serialization.
func (a *Assembler) Assemble(rootPath string) ([]ast.RawConstruct, error) {
	dfs := core.NewDFSState()
	var order []fileNode

	var load func(fromFile, path string) error
	load = func(fromFile, path string) error {
		resolved, src, err := a.provider.ReadFile(fromFile, path)
		if err != nil {
			return newBundleError(core.Provenance{File: path, Line: 0}, "cannot load %q: %v", path, err)
		}

		if dfs.Visited(resolved) {
			return nil
		}
		if !dfs.Enter(resolved) {
			return nil // shouldn't happen: Visited check above guards re-entry
		}
		defer dfs.Leave(resolved)

		a.logger.Trace("parsing file", "path", resolved)
		constructs, err := parser.Parse(resolved, src)
		if err != nil {
			return err
		}

		for _, c := range constructs {
			if c.Kind != core.KindImport {
				continue
			}
			importPath := c.Import.Path
			importResolved, _, rerr := a.provider.ReadFile(resolved, importPath)
			if rerr != nil {
				return newBundleError(c.Prov, "cannot resolve import %q: %v", importPath, rerr)
			}
			if dfs.OnStack(importResolved) {
				path := dfs.Path(importResolved)
				return newBundleError(c.Prov, "import cycle: %s", core.FormatCyclePath(path))
			}
			if err := load(resolved, importPath); err != nil {
				return err
			}
		}

		dfs.MarkVisited(resolved)
		order = append(order, fileNode{path: resolved, constructs: constructs})
		return nil
	}

	if err := load("", rootPath); err != nil {
		return nil, err
	}

	var flattened []ast.RawConstruct
	for _, fn := range order {
		for _, c := range fn.constructs {
			if c.Kind == core.KindImport {
				continue
			}
			flattened = append(flattened, c)
		}
	}

	if err := detectCrossFileDuplicates(flattened); err != nil {
		return nil, err
	}

	return flattened, nil
}

// detectCrossFileDuplicates scans the flattened list in reverse: the
// first construct encountered in reverse order (i.e., last in forward
// order) is reported as the duplicate, the second as "first declared",
// per spec.md §4.2.
func detectCrossFileDuplicates(constructs []ast.RawConstruct) error {
	type key struct {
		kind core.ConstructKind
		id   string
	}
	seen := map[key]ast.RawConstruct{}

	for i := len(constructs) - 1; i >= 0; i-- {
		c := constructs[i]
		if c.ID == "" {
			continue
		}
		k := key{kind: c.Kind, id: c.ID}
		if first, ok := seen[k]; ok {
			return newBundleErrorConstruct(c.Prov, c.Kind.String(), c.ID,
				"duplicate %s id %q (first declared at %s)", c.Kind, c.ID, first.Prov.String())
		}
		seen[k] = c
	}
	return nil
}
