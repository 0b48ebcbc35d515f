package core

import "fmt"

// Diagnostic is the interface every elaborator pass error satisfies.
// Its shape mirrors the error envelope specified in spec.md §6: a pass
// number, the offending construct's kind/id/field (any of which may be
// absent), and the provenance naming the source location.
type Diagnostic interface {
	error
	Pass() int
	ConstructKind() string
	ConstructID() string
	Field() string
	Provenance() Provenance
}

// PassError is the common base every pass-specific error type embeds.
// It is deliberately a plain struct (no interface satisfaction tricks)
// so pass packages can build one with a literal and override nothing.
type PassError struct {
	PassNum  int
	Kind     string // construct kind name, "" if not construct-scoped
	ID       string // construct id, "" if not construct-scoped
	FieldName string // field name, "" if not field-scoped
	Prov     Provenance
	Message  string
}

func (e *PassError) Error() string {
	loc := e.Prov.String()
	if e.ID != "" {
		if e.FieldName != "" {
			return fmt.Sprintf("pass %d: %s '%s'.%s at %s: %s", e.PassNum, e.Kind, e.ID, e.FieldName, loc, e.Message)
		}
		return fmt.Sprintf("pass %d: %s '%s' at %s: %s", e.PassNum, e.Kind, e.ID, loc, e.Message)
	}
	return fmt.Sprintf("pass %d: %s at %s", e.PassNum, e.Message, loc)
}

func (e *PassError) Pass() int               { return e.PassNum }
func (e *PassError) ConstructKind() string    { return e.Kind }
func (e *PassError) ConstructID() string      { return e.ID }
func (e *PassError) Field() string            { return e.FieldName }
func (e *PassError) Provenance() Provenance   { return e.Prov }

// Envelope is the JSON-serializable form of a Diagnostic, exactly the
// shape spec.md §6 specifies for elaborator errors.
type Envelope struct {
	Pass          int     `json:"pass"`
	ConstructKind *string `json:"construct_kind"`
	ConstructID   *string `json:"construct_id"`
	Field         *string `json:"field"`
	File          string  `json:"file"`
	Line          int     `json:"line"`
	Message       string  `json:"message"`
}

// ToEnvelope converts any Diagnostic to its wire envelope, using nil
// (not empty string) for unset construct-scoping fields.
func ToEnvelope(d Diagnostic) Envelope {
	env := Envelope{
		Pass:    d.Pass(),
		File:    d.Provenance().File,
		Line:    d.Provenance().Line,
		Message: d.Error(),
	}
	if k := d.ConstructKind(); k != "" {
		env.ConstructKind = &k
	}
	if id := d.ConstructID(); id != "" {
		env.ConstructID = &id
	}
	if f := d.Field(); f != "" {
		env.Field = &f
	}
	return env
}
