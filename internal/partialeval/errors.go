package partialeval

import (
	"fmt"

	"quill/internal/capability"
	"quill/internal/diag"
	"quill/internal/source"
)

// ErrorKind classifies evaluation failures.
type ErrorKind uint8

const (
	// UnsupportedDynamicConstruct: the program needs a capability the
	// target lacks, or a construct the evaluator cannot emit.
	UnsupportedDynamicConstruct ErrorKind = iota
	ValueNotStatic
	LoopLimitExceeded
	// EvaluationFailed: a `fail` or an arithmetic fault was reached.
	EvaluationFailed
	UnsupportedLiteral
	Unimplemented
	MissingEntryPoint
)

var kindCodes = [...]diag.Code{
	UnsupportedDynamicConstruct: diag.PEUnsupportedDynamic,
	ValueNotStatic:              diag.PEValueNotStatic,
	LoopLimitExceeded:           diag.PELoopLimitExceeded,
	EvaluationFailed:            diag.PEEvaluationFailed,
	UnsupportedLiteral:          diag.PEUnsupportedLiteral,
	Unimplemented:               diag.PEUnimplemented,
	MissingEntryPoint:           diag.PEMissingEntryPoint,
}

func (k ErrorKind) Code() diag.Code { return kindCodes[k] }

type Error struct {
	Kind ErrorKind
	Span source.Span
	Msg  string
	// Capability is what the target would need, for
	// UnsupportedDynamicConstruct.
	Capability capability.Flags
	// Within names the library callable the error was raised in when Span
	// points at the user call that reached it.
	Within string

	anchored bool
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) ToDiagnostic() diag.Diagnostic {
	d := diag.Diagnostic{Severity: diag.SevError, Code: e.Kind.Code(), Message: e.Msg, Primary: e.Span}
	if e.Within != "" {
		d.Notes = append(d.Notes, diag.Note{Span: e.Span, Msg: "raised while evaluating " + e.Within})
	}
	if e.Capability != capability.None {
		d.Notes = append(d.Notes, diag.Note{Span: e.Span, Msg: "requires target capability " + e.Capability.String()})
	}
	return d
}

func errorf(kind ErrorKind, sp source.Span, format string, args ...any) *Error {
	return &Error{Kind: kind, Span: sp, Msg: fmt.Sprintf(format, args...)}
}

func unsupported(sp source.Span, need capability.Flags, format string, args ...any) *Error {
	e := errorf(UnsupportedDynamicConstruct, sp, format, args...)
	e.Capability = need
	return e
}
