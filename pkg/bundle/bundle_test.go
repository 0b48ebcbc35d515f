package bundle

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverline-labs/tenor/pkg/core"
)

type memProvider map[string]string

func (m memProvider) ReadFile(fromFile, path string) (string, string, error) {
	src, ok := m[path]
	if !ok {
		return "", "", fmt.Errorf("no such file %q", path)
	}
	return path, src, nil
}

func TestAssembleFlattensImportsBeforeImporter(t *testing.T) {
	provider := memProvider{
		"main.tenor": `
import "shared.tenor"
persona clerk {}
`,
		"shared.tenor": `persona manager {}`,
	}
	constructs, err := New(provider).Assemble("main.tenor")
	require.NoError(t, err)
	require.Len(t, constructs, 2)
	assert.Equal(t, "manager", constructs[0].ID)
	assert.Equal(t, "clerk", constructs[1].ID)
}

func TestAssembleDropsImportConstructs(t *testing.T) {
	provider := memProvider{
		"main.tenor": `
import "shared.tenor"
persona clerk {}
`,
		"shared.tenor": `persona manager {}`,
	}
	constructs, err := New(provider).Assemble("main.tenor")
	require.NoError(t, err)
	for _, c := range constructs {
		assert.NotEqual(t, core.KindImport, c.Kind)
	}
}

func TestAssembleDiamondImportLoadsOnce(t *testing.T) {
	provider := memProvider{
		"main.tenor": `
import "a.tenor"
import "b.tenor"
persona clerk {}
`,
		"a.tenor": `import "shared.tenor"
persona a_persona {}`,
		"b.tenor": `import "shared.tenor"
persona b_persona {}`,
		"shared.tenor": `persona manager {}`,
	}
	constructs, err := New(provider).Assemble("main.tenor")
	require.NoError(t, err)
	count := 0
	for _, c := range constructs {
		if c.ID == "manager" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestAssembleImportCycleErrors(t *testing.T) {
	provider := memProvider{
		"a.tenor": `import "b.tenor"`,
		"b.tenor": `import "a.tenor"`,
	}
	_, err := New(provider).Assemble("a.tenor")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestAssembleCrossFileDuplicateIDErrors(t *testing.T) {
	provider := memProvider{
		"main.tenor": `
import "shared.tenor"
persona manager {}
`,
		"shared.tenor": `persona manager {}`,
	}
	_, err := New(provider).Assemble("main.tenor")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestAssembleMissingFileErrors(t *testing.T) {
	provider := memProvider{}
	_, err := New(provider).Assemble("missing.tenor")
	require.Error(t, err)
}

func TestAssembleMissingImportErrors(t *testing.T) {
	provider := memProvider{
		"main.tenor": `import "missing.tenor"`,
	}
	_, err := New(provider).Assemble("main.tenor")
	require.Error(t, err)
}

var _ SourceProvider = memProvider{}
var _ SourceProvider = DiskSourceProvider{}
