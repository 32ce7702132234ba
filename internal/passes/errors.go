package passes

import (
	"fmt"

	"quill/internal/diag"
	"quill/internal/source"
)

// Error is a semantic-pass error. Code selects the kind.
type Error struct {
	Code diag.Code
	Span source.Span
	Msg  string
}

func (e Error) Error() string { return e.Msg }

func (e Error) ToDiagnostic() diag.Diagnostic {
	return diag.Diagnostic{Severity: diag.SevError, Code: e.Code, Message: e.Msg, Primary: e.Span}
}

func errorf(code diag.Code, sp source.Span, format string, args ...any) Error {
	return Error{Code: code, Span: sp, Msg: fmt.Sprintf(format, args...)}
}
