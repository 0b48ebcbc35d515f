package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverline-labs/tenor/pkg/core"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "1.0", cfg.TenorVersion)
	assert.Equal(t, []string{"."}, cfg.ImportRoots)
	assert.Equal(t, "warning", cfg.MinSeverity)
	assert.True(t, cfg.ValidateSchema())
}

func TestLoadConfigParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".tenor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
version: 1
tenor_version: "1.0"
import_roots: ["lib", "vendor"]
min_severity: info
schema_validate: false
`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"lib", "vendor"}, cfg.ImportRoots)
	assert.Equal(t, "info", cfg.MinSeverity)
	require.NotNil(t, cfg.SchemaValidate)
	assert.False(t, cfg.ValidateSchema())
}

func TestLoadConfigMissingFileErrors(t *testing.T) {
	_, err := LoadConfig("/nonexistent/.tenor.yaml")
	require.Error(t, err)
}

func TestFindConfigSearchesParents(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".tenor.yaml"), []byte("version: 1\n"), 0644))

	found, err := FindConfig(nested)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, ".tenor.yaml"), found)
}

func TestFindConfigReturnsEmptyWhenNoneFound(t *testing.T) {
	root := t.TempDir()
	found, err := FindConfig(root)
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestMergeConfigsOverridesNonZeroFields(t *testing.T) {
	base := DefaultConfig()
	override := &Config{MinSeverity: "info"}
	merged := MergeConfigs(base, override)
	assert.Equal(t, "info", merged.MinSeverity)
	assert.Equal(t, base.TenorVersion, merged.TenorVersion)
}

func TestLoadConfigWithDefaultsNoFileReturnsDefault(t *testing.T) {
	root := t.TempDir()
	cfg, err := LoadConfigWithDefaults(root)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigWithDefaultsMergesFound(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".tenor.yaml"), []byte("min_severity: info\n"), 0644))
	cfg, err := LoadConfigWithDefaults(root)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.MinSeverity)
	assert.Equal(t, []string{"."}, cfg.ImportRoots)
}

func TestMinSeverityLevel(t *testing.T) {
	cfg := &Config{MinSeverity: "warning"}
	assert.Equal(t, core.SeverityWarning, cfg.MinSeverityLevel())

	cfg = &Config{MinSeverity: "info"}
	assert.Equal(t, core.SeverityInfo, cfg.MinSeverityLevel())
}

func TestValidateSchemaDefaultsToTrueWhenUnset(t *testing.T) {
	cfg := &Config{}
	assert.True(t, cfg.ValidateSchema())
}

func TestValidateSchemaRespectsExplicitFalse(t *testing.T) {
	f := false
	cfg := &Config{SchemaValidate: &f}
	assert.False(t, cfg.ValidateSchema())
}
