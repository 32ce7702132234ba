package sema

import (
	"fmt"

	"quill/internal/diag"
	"quill/internal/source"
	"quill/internal/types"
)

type ErrorKind uint8

const (
	ErrMismatch ErrorKind = iota
	ErrCallableKindMismatch
	ErrFunctorMismatch
	ErrMissingClass
	ErrMissingField
	ErrNotIndexable
	ErrNotIterable
	ErrAmbiguous
	ErrTupleArity
)

// Error is one type error. Expected/Actual are fully substituted.
type Error struct {
	Kind     ErrorKind
	Span     source.Span
	Expected types.Ty
	Actual   types.Ty
	// Class names the missing class for ErrMissingClass and ErrAmbiguous.
	Class string
}

func (e Error) Error() string {
	switch e.Kind {
	case ErrCallableKindMismatch:
		return fmt.Sprintf("expected %s, found %s", e.Expected, e.Actual)
	case ErrFunctorMismatch:
		return fmt.Sprintf("functors of %s do not satisfy %s", e.Actual, e.Expected)
	case ErrMissingClass:
		return fmt.Sprintf("type %s does not support %s", e.Actual, e.Class)
	case ErrMissingField:
		return fmt.Sprintf("type %s is not a newtype and cannot be unwrapped", e.Actual)
	case ErrNotIndexable:
		return fmt.Sprintf("type %s cannot be indexed", e.Actual)
	case ErrNotIterable:
		return fmt.Sprintf("type %s is not iterable", e.Actual)
	case ErrAmbiguous:
		if e.Class != "" {
			return "insufficient type information to satisfy " + e.Class
		}
		return "insufficient type information to infer type"
	case ErrTupleArity:
		return fmt.Sprintf("tuple arity mismatch: expected %s, found %s", e.Expected, e.Actual)
	default:
		return fmt.Sprintf("type mismatch: expected %s, found %s", e.Expected, e.Actual)
	}
}

func (e Error) code() diag.Code {
	switch e.Kind {
	case ErrCallableKindMismatch:
		return diag.TyCallableKindMismatch
	case ErrFunctorMismatch:
		return diag.TyFunctorMismatch
	case ErrMissingClass:
		return diag.TyMissingClass
	case ErrMissingField:
		return diag.TyMissingField
	case ErrNotIndexable:
		return diag.TyNotIndexable
	case ErrNotIterable:
		return diag.TyNotIterable
	case ErrAmbiguous:
		return diag.TyAmbiguous
	case ErrTupleArity:
		return diag.TyTupleArity
	default:
		return diag.TyMismatch
	}
}

func (e Error) ToDiagnostic() diag.Diagnostic {
	return diag.Diagnostic{Severity: diag.SevError, Code: e.code(), Message: e.Error(), Primary: e.Span}
}
