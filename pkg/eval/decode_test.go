package eval

import (
	"bytes"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riverline-labs/tenor/pkg/interchange"
)

func TestCheckVersionMajorMismatchErrors(t *testing.T) {
	err := checkVersion("2.0", hclog.NewNullLogger())
	require.Error(t, err)
}

func TestCheckVersionMissingErrors(t *testing.T) {
	err := checkVersion("", hclog.NewNullLogger())
	require.Error(t, err)
}

func TestCheckVersionExactMatchNoWarning(t *testing.T) {
	var buf bytes.Buffer
	logger := hclog.New(&hclog.LoggerOptions{Name: "test", Level: hclog.Warn, Output: &buf})
	err := checkVersion(interchange.TenorVersion, logger)
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

func TestCheckVersionMinorMismatchWarns(t *testing.T) {
	var buf bytes.Buffer
	logger := hclog.New(&hclog.LoggerOptions{Name: "test", Level: hclog.Warn, Output: &buf})
	err := checkVersion("1.99", logger)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "tenor_version")
}

func TestDecodeBundleRejectsNonBundle(t *testing.T) {
	_, _, err := DecodeBundle([]byte(`{"kind":"NotABundle"}`), nil)
	require.Error(t, err)
}

func TestDecodeBundleRejectsBadJSON(t *testing.T) {
	_, _, err := DecodeBundle([]byte(`not json`), nil)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "not a JSON object"))
}
