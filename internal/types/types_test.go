package types_test

import (
	"testing"

	"quill/internal/ids"
	"quill/internal/types"
)

func TestString(t *testing.T) {
	arrow := &types.Arrow{
		Kind:     types.Operation,
		Input:    &types.Tuple{Items: []types.Ty{types.PrimQubit, &types.Array{Item: types.PrimInt}}},
		Output:   types.Unit,
		Functors: types.CtlAdj,
	}
	if got, want := arrow.String(), "((Qubit, Int[]) => Unit is Adj + Ctl)"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestFunctorLattice(t *testing.T) {
	if !types.CtlAdj.Contains(types.Adj) || types.Adj.Contains(types.Ctl) {
		t.Fatal("containment wrong")
	}
	if types.Adj.Union(types.Ctl) != types.CtlAdj || types.CtlAdj.Intersect(types.Ctl) != types.Ctl {
		t.Fatal("lattice ops wrong")
	}
	if !types.Empty.Union(types.Empty).Contains(types.Empty) {
		t.Fatal("empty set must contain itself")
	}
}

func TestSchemeInstantiate(t *testing.T) {
	s := &types.Scheme{
		Params: []string{"'T"},
		Ty: &types.Arrow{
			Input:  &types.Array{Item: types.Param{Name: "'T", Index: 0}},
			Output: types.Param{Name: "'T", Index: 0},
		},
	}
	got := s.Instantiate([]types.Ty{types.PrimDouble})
	want := &types.Arrow{Input: &types.Array{Item: types.PrimDouble}, Output: types.PrimDouble}
	if !types.Equal(got, want) {
		t.Fatalf("got %s, want %s", got, want)
	}
	if types.HasInfer(got) || types.HasErr(got) {
		t.Fatal("no inference variables expected")
	}
}

func TestUdtConstructor(t *testing.T) {
	def := &types.UdtDef{Name: "Pair", ID: ids.ItemID{Package: 1, Item: 3}, Base: &types.Tuple{Items: []types.Ty{types.PrimInt, types.PrimDouble}}}
	ctor := def.Constructor()
	if ctor.Kind != types.Function || ctor.Output.String() != "Pair" {
		t.Fatalf("ctor = %s", ctor)
	}
}
