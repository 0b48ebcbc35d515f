// Package core holds the small set of types shared by every elaborator
// pass and by the evaluator: source provenance, construct-kind tagging,
// the common diagnostic interface, and advisory severities.
package core

import "fmt"

// Provenance is the source location attached to every construct and to
// every diagnostic raised against it. It is present on every construct
// per the data model invariant in spec.md §3.
type Provenance struct {
	File string `json:"file"`
	Line int    `json:"line"`
}

// String renders "file:line" for use in log lines and error messages.
func (p Provenance) String() string {
	return fmt.Sprintf("%s:%d", p.File, p.Line)
}

// Zero reports whether this is the unset Provenance value.
func (p Provenance) Zero() bool {
	return p.File == "" && p.Line == 0
}
