package partialeval

import (
	"fmt"
	"math/big"
	"strings"

	"quill/internal/ast"
	"quill/internal/fir"
	"quill/internal/rir"
)

// Value is a hybrid value: either known to the evaluator or held in a
// runtime variable. User-defined types are represented by the value they
// wrap.
type Value interface{ isValue() }

type (
	VInt    int64
	VBigInt struct{ V *big.Int }
	VDouble float64
	VBool   bool
	VString string
	VPauli  ast.Pauli
	// VResultLit is a Zero or One literal.
	VResultLit ast.Result
	// VResult is the outcome of a measurement into result slot ID.
	VResult struct{ ID uint32 }
	VQubit  struct{ ID uint32 }
	VRange  struct {
		Start, Step, End int64
		HasStart, HasEnd bool
	}
	VArray    []Value
	VTuple    []Value
	VCallable struct {
		Item fir.ItemID
		Adj  bool
		Ctls int
	}
	// VVar is a value only known at run time.
	VVar struct{ Var rir.Variable }
	// VSlot is a mutable local backed by memory; reads load it.
	VSlot struct{ Var rir.Variable }
)

func (VInt) isValue()       {}
func (VBigInt) isValue()    {}
func (VDouble) isValue()    {}
func (VBool) isValue()      {}
func (VString) isValue()    {}
func (VPauli) isValue()     {}
func (VResultLit) isValue() {}
func (VResult) isValue()    {}
func (VQubit) isValue()     {}
func (VRange) isValue()     {}
func (VArray) isValue()     {}
func (VTuple) isValue()     {}
func (VCallable) isValue()  {}
func (VVar) isValue()       {}
func (VSlot) isValue()      {}

var unit = VTuple{}

// Format renders a value for traces and messages.
func Format(v Value) string {
	switch v := v.(type) {
	case VInt:
		return fmt.Sprint(int64(v))
	case VBigInt:
		return v.V.String() + "L"
	case VDouble:
		return fmt.Sprint(float64(v))
	case VBool:
		return fmt.Sprint(bool(v))
	case VString:
		return fmt.Sprintf("%q", string(v))
	case VPauli:
		return ast.Pauli(v).String()
	case VResultLit:
		if ast.Result(v) == ast.ResultOne {
			return "One"
		}
		return "Zero"
	case VResult:
		return fmt.Sprintf("Result(%d)", v.ID)
	case VQubit:
		return fmt.Sprintf("Qubit(%d)", v.ID)
	case VRange:
		return fmt.Sprintf("%d..%d..%d", v.Start, v.Step, v.End)
	case VArray:
		return "[" + formatList(v) + "]"
	case VTuple:
		return "(" + formatList(v) + ")"
	case VCallable:
		s := v.Item.String()
		if v.Adj {
			s = "Adjoint " + s
		}
		return strings.Repeat("Controlled ", v.Ctls) + s
	case VVar:
		return fmt.Sprintf("%%%d", v.Var.ID)
	case VSlot:
		return fmt.Sprintf("*%%%d", v.Var.ID)
	}
	return "?"
}

func formatList(vs []Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = Format(v)
	}
	return strings.Join(parts, ", ")
}

// operand converts a scalar value. Aggregates and values without a
// runtime representation report false.
func operand(v Value) (rir.Operand, bool) {
	switch v := v.(type) {
	case VBool:
		return rir.Bool(bool(v)), true
	case VInt:
		return rir.Int(int64(v)), true
	case VDouble:
		return rir.Double(float64(v)), true
	case VQubit:
		return rir.Qubit(v.ID), true
	case VResult:
		return rir.Result(v.ID), true
	case VVar:
		return rir.Var(v.Var), true
	}
	return rir.Operand{}, false
}

func isDynamic(v Value) bool {
	_, ok := v.(VVar)
	return ok
}

// equal compares two values known to the evaluator.
func equal(a, b Value) bool {
	switch a := a.(type) {
	case VBigInt:
		b, ok := b.(VBigInt)
		return ok && a.V.Cmp(b.V) == 0
	case VArray:
		b, ok := b.(VArray)
		return ok && equalList(a, b)
	case VTuple:
		b, ok := b.(VTuple)
		return ok && equalList(a, b)
	}
	return a == b
}

func equalList(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
