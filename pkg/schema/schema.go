// Package schema validates a serialized interchange bundle against
// the Draft 2020-12 JSON Schema for the Tenor wire format, as an
// optional defense-in-depth check ahead of pkg/eval's own contract
// deserialization (§4.8.1). Enabled by Config.SchemaValidate.
package schema

import (
	_ "embed"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed bundle.schema.json
var bundleSchemaJSON []byte

var compiled *jsonschema.Schema

func compile() (*jsonschema.Schema, error) {
	if compiled != nil {
		return compiled, nil
	}
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource("bundle.schema.json", bytesReader(bundleSchemaJSON)); err != nil {
		return nil, fmt.Errorf("loading embedded bundle schema: %w", err)
	}
	sch, err := c.Compile("bundle.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compiling embedded bundle schema: %w", err)
	}
	compiled = sch
	return sch, nil
}

// Validate checks bundleJSON against the bundle schema, returning a
// descriptive error on the first violation jsonschema reports.
func Validate(bundleJSON []byte) error {
	sch, err := compile()
	if err != nil {
		return err
	}
	var doc interface{}
	if err := unmarshal(bundleJSON, &doc); err != nil {
		return fmt.Errorf("bundle is not valid JSON: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("bundle failed schema validation: %w", err)
	}
	return nil
}
