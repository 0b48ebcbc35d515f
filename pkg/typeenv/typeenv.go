// Package typeenv implements Pass 3: resolve TypeDecl constructs into
// a mapping from type name to concrete BaseType, detecting alias
// cycles by depth-first resolution with an in-progress stack. See
// spec.md §4.4.
package typeenv

import (
	"fmt"

	"github.com/riverline-labs/tenor/pkg/ast"
	"github.com/riverline-labs/tenor/pkg/core"
	"github.com/riverline-labs/tenor/pkg/index"
)

// TypeEnvCycle is a Pass 3 error: a TypeDecl alias chain refers back
// to itself. Build also returns it, with an "undeclared type" message,
// when a TypeDecl refers to a type name that is not declared; there is
// no separate error type for that case.
type TypeEnvCycle struct {
	core.PassError
}

func newCycleError(c ast.RawConstruct, path []string) *TypeEnvCycle {
	return &TypeEnvCycle{core.PassError{
		PassNum: 3,
		Kind:    core.KindTypeDecl.String(),
		ID:      c.ID,
		Prov:    c.Prov,
		Message: fmt.Sprintf("type alias cycle: %s", core.FormatCyclePath(path)),
	}}
}

// TypeEnv maps a TypeDecl name to its fully resolved BaseType (every
// TTypeRef within it, transitively, replaced by a concrete type).
type TypeEnv map[string]ast.BaseType

// Build resolves every TypeDecl construct in idx into a TypeEnv.
func Build(idx *index.Index) (TypeEnv, error) {
	decls := idx.Constructs[core.KindTypeDecl]
	env := TypeEnv{}
	dfs := core.NewDFSState()

	var resolve func(name string) (ast.BaseType, error)
	resolve = func(name string) (ast.BaseType, error) {
		if resolved, ok := env[name]; ok {
			return resolved, nil
		}
		c, ok := decls[name]
		if !ok {
			return ast.BaseType{}, fmt.Errorf("undeclared type %q", name)
		}
		if !dfs.Enter(name) {
			return ast.BaseType{}, newCycleError(c, dfs.Path(name))
		}
		defer dfs.Leave(name)

		resolved, err := resolveType(c.TypeDecl.Type, resolve)
		if err != nil {
			if _, isCycle := err.(*TypeEnvCycle); isCycle {
				return ast.BaseType{}, err
			}
			return ast.BaseType{}, &TypeEnvCycle{core.PassError{
				PassNum: 3,
				Kind:    core.KindTypeDecl.String(),
				ID:      name,
				Prov:    c.Prov,
				Message: err.Error(),
			}}
		}
		env[name] = resolved
		dfs.MarkVisited(name)
		return resolved, nil
	}

	for name := range decls {
		if _, err := resolve(name); err != nil {
			return nil, err
		}
	}
	return env, nil
}

// resolveType recursively replaces every TTypeRef reachable within t
// with its resolution from resolve.
func resolveType(t ast.BaseType, resolve func(string) (ast.BaseType, error)) (ast.BaseType, error) {
	switch t.Kind {
	case ast.TTypeRef:
		return resolve(t.RefName)
	case ast.TList:
		if t.Elem == nil {
			return t, nil
		}
		elem, err := resolveType(*t.Elem, resolve)
		if err != nil {
			return ast.BaseType{}, err
		}
		t.Elem = &elem
		return t, nil
	case ast.TRecord:
		fields := make(map[string]ast.BaseType, len(t.Fields))
		for k, ft := range t.Fields {
			rft, err := resolveType(ft, resolve)
			if err != nil {
				return ast.BaseType{}, err
			}
			fields[k] = rft
		}
		t.Fields = fields
		return t, nil
	case ast.TTaggedUnion:
		variants := make(map[string]ast.BaseType, len(t.Variants))
		for k, vt := range t.Variants {
			rvt, err := resolveType(vt, resolve)
			if err != nil {
				return ast.BaseType{}, err
			}
			variants[k] = rvt
		}
		t.Variants = variants
		return t, nil
	default:
		return t, nil
	}
}

// Resolve looks up a possibly-TypeRef BaseType against env, returning
// the type unchanged if it is not a TypeRef (already concrete).
func (env TypeEnv) Resolve(t ast.BaseType) (ast.BaseType, error) {
	if t.Kind != ast.TTypeRef {
		return resolveType(t, func(name string) (ast.BaseType, error) {
			resolved, ok := env[name]
			if !ok {
				return ast.BaseType{}, fmt.Errorf("undeclared type %q", name)
			}
			return resolved, nil
		})
	}
	resolved, ok := env[t.RefName]
	if !ok {
		return ast.BaseType{}, fmt.Errorf("undeclared type %q", t.RefName)
	}
	return resolved, nil
}
