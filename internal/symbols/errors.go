package symbols

import (
	"fmt"
	"strings"

	"quill/internal/diag"
	"quill/internal/source"
)

type ErrorKind uint8

const (
	ErrNotFound ErrorKind = iota
	ErrDuplicate
	ErrAmbiguous
	ErrNotAvailable
)

// Error is a resolution failure. Errors are accumulated, never fatal.
type Error struct {
	Kind ErrorKind
	Name string
	Span source.Span
	// Prev is the earlier declaration for ErrDuplicate.
	Prev source.Span
	// Candidates are the competing namespaces for ErrAmbiguous.
	Candidates []string
}

func (e Error) Error() string {
	switch e.Kind {
	case ErrDuplicate:
		return fmt.Sprintf("duplicate declaration of `%s`", e.Name)
	case ErrAmbiguous:
		return fmt.Sprintf("`%s` is ambiguous, found in %s", e.Name, strings.Join(e.Candidates, " and "))
	case ErrNotAvailable:
		return fmt.Sprintf("namespace `%s` not found", e.Name)
	default:
		return fmt.Sprintf("`%s` not found", e.Name)
	}
}

func (e Error) code() diag.Code {
	switch e.Kind {
	case ErrDuplicate:
		return diag.ResDuplicate
	case ErrAmbiguous:
		return diag.ResAmbiguous
	case ErrNotAvailable:
		return diag.ResNotAvailable
	default:
		return diag.ResNotFound
	}
}

func (e Error) ToDiagnostic() diag.Diagnostic {
	d := diag.Diagnostic{Severity: diag.SevError, Code: e.code(), Message: e.Error(), Primary: e.Span}
	if e.Kind == ErrDuplicate {
		d = d.WithNote(e.Prev, "previously declared here")
	}
	return d
}
