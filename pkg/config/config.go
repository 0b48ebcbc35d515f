// Package config loads the .tenor.yaml project file: the tenor
// version, import search roots, a minimum advisory severity, and the
// schema-validation switch. Of these, only the schema-validation switch
// is read elsewhere in this module (by cmd/tenor's elaborate command);
// imports are not searched through the roots and advisories are not
// filtered by the severity. The discovery and merge shape
// follows the teacher's .glint.yaml handling file for file (search
// upward, struct-tagged YAML, defaults-then-override merge).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/riverline-labs/tenor/pkg/core"
)

// Config is the parsed .tenor.yaml contents.
type Config struct {
	Version        int      `yaml:"version"`
	TenorVersion   string   `yaml:"tenor_version"`
	ImportRoots    []string `yaml:"import_roots"`
	MinSeverity    string   `yaml:"min_severity"`
	SchemaValidate *bool    `yaml:"schema_validate,omitempty"`
}

// DefaultConfig returns the configuration used when no .tenor.yaml is
// found: tenor_version "1.0", import_roots ["."], min_severity
// "warning", and schema_validate unset (so ValidateSchema reports true).
func DefaultConfig() *Config {
	return &Config{
		Version:      1,
		TenorVersion: "1.0",
		ImportRoots:  []string{"."},
		MinSeverity:  "warning",
	}
}

// LoadConfig reads and parses a .tenor.yaml file from an explicit path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// FindConfig searches for .tenor.yaml in startDir and its parents,
// returning "" if none is found anywhere up to the filesystem root.
func FindConfig(startDir string) (string, error) {
	dir := startDir
	for {
		path := filepath.Join(dir, ".tenor.yaml")
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}

		path = filepath.Join(dir, "tenor.yaml")
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// LoadConfigWithDefaults loads the project config (if any) merged over
// the defaults.
func LoadConfigWithDefaults(projectRoot string) (*Config, error) {
	cfg := DefaultConfig()

	path, err := FindConfig(projectRoot)
	if err != nil {
		return nil, err
	}

	if path != "" {
		projectCfg, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = MergeConfigs(cfg, projectCfg)
	}

	return cfg, nil
}

// MergeConfigs merges override onto base, override's non-zero fields
// taking precedence.
func MergeConfigs(base, override *Config) *Config {
	result := *base
	if override.Version != 0 {
		result.Version = override.Version
	}
	if override.TenorVersion != "" {
		result.TenorVersion = override.TenorVersion
	}
	if len(override.ImportRoots) > 0 {
		result.ImportRoots = override.ImportRoots
	}
	if override.MinSeverity != "" {
		result.MinSeverity = override.MinSeverity
	}
	if override.SchemaValidate != nil {
		result.SchemaValidate = override.SchemaValidate
	}
	return &result
}

// MinSeverityLevel returns the configured minimum advisory severity.
func (c *Config) MinSeverityLevel() core.Severity {
	return core.ParseSeverity(c.MinSeverity)
}

// ValidateSchema reports whether bundle JSON Schema validation is
// enabled; on by default, matching spec.md §6's "every consumer
// validates bundles against it."
func (c *Config) ValidateSchema() bool {
	if c.SchemaValidate == nil {
		return true
	}
	return *c.SchemaValidate
}
