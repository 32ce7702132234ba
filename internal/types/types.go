// Package types is the type language shared by the checker and every IR:
// primitives, arrays, tuples, arrows with functor sets, generic parameters,
// user-defined types and inference variables.
package types

import (
	"fmt"
	"strings"

	"quill/internal/ids"
)

// Ty is a closed sum type; the variants are the types declared below.
type Ty interface {
	isTy()
	String() string
}

type Prim uint8

const (
	PrimBigInt Prim = iota
	PrimBool
	PrimDouble
	PrimInt
	PrimPauli
	PrimQubit
	PrimRange
	PrimResult
	PrimString
)

var primNames = [...]string{
	PrimBigInt: "BigInt", PrimBool: "Bool", PrimDouble: "Double", PrimInt: "Int",
	PrimPauli: "Pauli", PrimQubit: "Qubit", PrimRange: "Range", PrimResult: "Result",
	PrimString: "String",
}

func (p Prim) String() string { return primNames[p] }

// LookupPrim maps a source type name to a primitive.
func LookupPrim(name string) (Prim, bool) {
	for i, n := range primNames {
		if n == name {
			return Prim(i), true
		}
	}
	return 0, false
}

type CallableKind uint8

const (
	Function CallableKind = iota
	Operation
)

func (k CallableKind) String() string {
	if k == Operation {
		return "operation"
	}
	return "function"
}

type (
	Array struct{ Item Ty }
	Arrow struct {
		Kind     CallableKind
		Input    Ty
		Output   Ty
		Functors FunctorSet
	}
	// Infer is an inference variable owned by the checker.
	Infer uint32
	// Param is a generic parameter of the enclosing callable.
	Param struct {
		Name  string
		Index int
	}
	Tuple struct{ Items []Ty }
	Udt   struct {
		Name string
		ID   ids.ItemID
	}
	Err struct{}
)

func (Prim) isTy()   {}
func (*Array) isTy() {}
func (*Arrow) isTy() {}
func (Infer) isTy()  {}
func (Param) isTy()  {}
func (*Tuple) isTy() {}
func (*Udt) isTy()   {}
func (Err) isTy()    {}

// Unit is the empty tuple.
var Unit Ty = &Tuple{}

func IsUnit(t Ty) bool {
	tup, ok := t.(*Tuple)
	return ok && len(tup.Items) == 0
}

func (a *Array) String() string { return a.Item.String() + "[]" }

func (a *Arrow) String() string {
	arrow := "->"
	if a.Kind == Operation {
		arrow = "=>"
	}
	s := fmt.Sprintf("(%s %s %s", a.Input, arrow, a.Output)
	if a.Functors != Empty {
		s += " is " + a.Functors.String()
	}
	return s + ")"
}

func (i Infer) String() string { return fmt.Sprintf("?%d", uint32(i)) }
func (p Param) String() string { return p.Name }

func (t *Tuple) String() string {
	if len(t.Items) == 0 {
		return "Unit"
	}
	parts := make([]string, len(t.Items))
	for i, item := range t.Items {
		parts[i] = item.String()
	}
	if len(parts) == 1 {
		return "(" + parts[0] + ",)"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (u *Udt) String() string { return u.Name }
func (Err) String() string    { return "?" }

// Equal compares types structurally. Inference variables compare by id.
func Equal(a, b Ty) bool {
	switch a := a.(type) {
	case Prim:
		b, ok := b.(Prim)
		return ok && a == b
	case *Array:
		b, ok := b.(*Array)
		return ok && Equal(a.Item, b.Item)
	case *Arrow:
		b, ok := b.(*Arrow)
		return ok && a.Kind == b.Kind && a.Functors == b.Functors && Equal(a.Input, b.Input) && Equal(a.Output, b.Output)
	case Infer:
		b, ok := b.(Infer)
		return ok && a == b
	case Param:
		b, ok := b.(Param)
		return ok && a.Index == b.Index
	case *Tuple:
		b, ok := b.(*Tuple)
		if !ok || len(a.Items) != len(b.Items) {
			return false
		}
		for i := range a.Items {
			if !Equal(a.Items[i], b.Items[i]) {
				return false
			}
		}
		return true
	case *Udt:
		b, ok := b.(*Udt)
		return ok && a.ID == b.ID
	case Err:
		_, ok := b.(Err)
		return ok
	}
	return false
}

// Map rebuilds t bottom-up, replacing leaves with f. f is called for every
// Infer and Param leaf; returning nil keeps the leaf.
func Map(t Ty, f func(Ty) Ty) Ty {
	switch t := t.(type) {
	case *Array:
		return &Array{Item: Map(t.Item, f)}
	case *Arrow:
		return &Arrow{Kind: t.Kind, Input: Map(t.Input, f), Output: Map(t.Output, f), Functors: t.Functors}
	case *Tuple:
		if len(t.Items) == 0 {
			return t
		}
		items := make([]Ty, len(t.Items))
		for i, item := range t.Items {
			items[i] = Map(item, f)
		}
		return &Tuple{Items: items}
	case Infer, Param:
		if r := f(t); r != nil {
			return r
		}
		return t
	}
	return t
}

// Instantiate replaces generic parameters with args by index.
func Instantiate(t Ty, args []Ty) Ty {
	if len(args) == 0 {
		return t
	}
	return Map(t, func(leaf Ty) Ty {
		if p, ok := leaf.(Param); ok && p.Index < len(args) {
			return args[p.Index]
		}
		return nil
	})
}

// Contains reports whether pred holds for t or any nested type.
func Contains(t Ty, pred func(Ty) bool) bool {
	if pred(t) {
		return true
	}
	switch t := t.(type) {
	case *Array:
		return Contains(t.Item, pred)
	case *Arrow:
		return Contains(t.Input, pred) || Contains(t.Output, pred)
	case *Tuple:
		for _, item := range t.Items {
			if Contains(item, pred) {
				return true
			}
		}
	}
	return false
}

// HasErr reports whether the error type occurs in t.
func HasErr(t Ty) bool {
	return Contains(t, func(t Ty) bool { _, ok := t.(Err); return ok })
}

// HasInfer reports whether an unsolved inference variable occurs in t.
func HasInfer(t Ty) bool {
	return Contains(t, func(t Ty) bool { _, ok := t.(Infer); return ok })
}

// ControlledInput builds the input of a controlled specialization.
func ControlledInput(input Ty) Ty {
	return &Tuple{Items: []Ty{&Array{Item: PrimQubit}, input}}
}
