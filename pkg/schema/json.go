package schema

import (
	"bytes"
	"encoding/json"
	"io"
)

func bytesReader(b []byte) io.Reader {
	return bytes.NewReader(b)
}

// unmarshal decodes using json.Number for numeric values, matching
// what santhosh-tekuri/jsonschema expects when validating documents
// that may carry integer literals alongside our structured
// decimal/money forms.
func unmarshal(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}
