package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func minimalBundle() []byte {
	return []byte(`{
  "kind": "Bundle",
  "id": "abc123",
  "tenor": "bundle",
  "tenor_version": "1.0",
  "constructs": [
    {"kind": "Persona", "id": "manager", "provenance": {"file": "t.tenor", "line": 1}}
  ]
}`)
}

func TestValidateAcceptsWellFormedBundle(t *testing.T) {
	err := Validate(minimalBundle())
	require.NoError(t, err)
}

func TestValidateRejectsMalformedJSON(t *testing.T) {
	err := Validate([]byte(`{not json`))
	require.Error(t, err)
}

func TestValidateRejectsMissingRequiredField(t *testing.T) {
	err := Validate([]byte(`{"kind": "Bundle"}`))
	require.Error(t, err)
}

func TestValidateRejectsWrongKind(t *testing.T) {
	err := Validate([]byte(`{
  "kind": "NotABundle",
  "id": "abc",
  "tenor": "bundle",
  "tenor_version": "1.0",
  "constructs": []
}`))
	require.Error(t, err)
}

func TestValidateAllowsEmptyIDConstruct(t *testing.T) {
	err := Validate([]byte(`{
  "kind": "Bundle",
  "id": "abc",
  "tenor": "bundle",
  "tenor_version": "1.0",
  "constructs": [
    {"kind": "System", "id": "", "provenance": {"file": "t.tenor", "line": 1}, "name": "Orders"}
  ]
}`))
	assert.NoError(t, err)
}
