package rca_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"quill/internal/ast"
	"quill/internal/capability"
	"quill/internal/fir"
	"quill/internal/rca"
	"quill/internal/testkit"
)

func analyze(t *testing.T, src string) (*rca.Analysis, *fir.Package) {
	t.Helper()
	store, pkg := testkit.FIR(t, "namespace Test { "+src+" }")
	a := rca.Analyze(store)
	a.Record(pkg)
	return a, pkg
}

func summary(t *testing.T, a *rca.Analysis, pkg *fir.Package, name string) *rca.ApplicationGeneratorSet {
	t.Helper()
	for _, item := range pkg.SortedItems() {
		if item.Name() == name {
			set, ok := a.Spec(rca.SpecKey{Item: fir.ItemID{Package: pkg.ID, Item: item.ID}, Spec: ast.SpecBody})
			if !ok {
				t.Fatalf("%s has no body summary", name)
			}
			return set
		}
	}
	t.Fatalf("callable %q not found", name)
	return nil
}

func TestSummaries(t *testing.T) {
	a, pkg := analyze(t, `
function Add(a : Int, b : Int) : Int { a + b }
operation Measure(q : Qubit) : Result { M(q) }
function IsOne(r : Result) : Bool { r == One }
operation Apply(q : Qubit) : Unit { H(q); }
`)
	dynInt := rca.ComputeKind{Flags: rca.UseOfDynamicInt, Value: rca.Dynamic}
	tests := []struct {
		name string
		want *rca.ApplicationGeneratorSet
	}{
		{"Add", &rca.ApplicationGeneratorSet{
			Inherent:                 rca.Classical,
			DynamicParamApplications: []rca.ComputeKind{dynInt, dynInt},
		}},
		{"Measure", &rca.ApplicationGeneratorSet{
			Inherent:                 rca.ComputeKind{Quantum: true, Value: rca.Dynamic},
			DynamicParamApplications: []rca.ComputeKind{{Quantum: true, Value: rca.Dynamic}},
		}},
		{"IsOne", &rca.ApplicationGeneratorSet{
			Inherent:                 rca.Classical,
			DynamicParamApplications: []rca.ComputeKind{{Flags: rca.UseOfDynamicBool, Value: rca.Dynamic}},
		}},
		{"Apply", &rca.ApplicationGeneratorSet{
			Inherent:                 rca.ComputeKind{Quantum: true},
			DynamicParamApplications: []rca.ComputeKind{{Quantum: true}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, summary(t, a, pkg, tt.name)); diff != "" {
				t.Fatalf("summary mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRecursiveCallablesReachFixpoint(t *testing.T) {
	a, pkg := analyze(t, `
function Fact(n : Int) : Int {
    if n <= 1 { 1 } else { n * Fact(n - 1) }
}
function Even(n : Int) : Bool { if n == 0 { true } else { Odd(n - 1) } }
function Odd(n : Int) : Bool { if n == 0 { false } else { Even(n - 1) } }
`)
	fact := summary(t, a, pkg, "Fact")
	if fact.Inherent != rca.Classical {
		t.Fatalf("Fact inherent = %v, want Classical", fact.Inherent)
	}
	wantFlags := rca.UseOfDynamicInt | rca.UseOfDynamicBool | rca.ForwardBranchingOnDynamicValue
	if got := fact.DynamicParamApplications[0]; got.Flags != wantFlags || !got.IsDynamic() {
		t.Fatalf("Fact with dynamic n = %v, want dynamic with %v", got, wantFlags)
	}
	for _, name := range []string{"Even", "Odd"} {
		got := summary(t, a, pkg, name).DynamicParamApplications[0]
		if !got.IsDynamic() || got.Flags&rca.ForwardBranchingOnDynamicValue == 0 {
			t.Fatalf("%s with dynamic n = %v, want dynamic branching", name, got)
		}
	}
}

func TestClassicalEntryRecordsClassical(t *testing.T) {
	a, pkg := analyze(t, `
@EntryPoint()
operation Main() : Unit {
    let x = 2 + 2;
    let y = x * 3;
}
`)
	if len(a.Records()) == 0 {
		t.Fatal("nothing recorded")
	}
	for key, r := range a.Records() {
		if key.Package == pkg.ID && r.Kind != rca.Classical {
			t.Fatalf("expression %d at %v = %v, want Classical", key.Expr, r.Span, r.Kind)
		}
	}
}

func TestCheckCapabilities(t *testing.T) {
	const branch = `
@EntryPoint()
operation Main() : Unit {
    use q = Qubit();
    if M(q) == One { X(q); }
}`
	const double = `
@EntryPoint()
operation Main() : Unit {
    use q = Qubit();
    let r = M(q);
    mutable d = 0.0;
    if r == One { set d = 1.0; }
    let e = d * 2.0;
}`
	const loop = `
@EntryPoint()
operation Main() : Unit {
    use q = Qubit();
    mutable again = true;
    while again { set again = M(q) == Zero; }
}`
	const callee = `
@EntryPoint()
operation Main() : Unit {
    use q = Qubit();
    Flip(M(q) == One, q);
    Flip(true, q);
}
operation Flip(b : Bool, q : Qubit) : Unit {
    if b { X(q); }
}`
	tests := []struct {
		name    string
		src     string
		profile capability.Profile
		want    []rca.RuntimeFeatureFlags
	}{
		{"classical on base", `@EntryPoint() operation Main() : Int { let x = 2 + 2; x }`, capability.Base, nil},
		{"branch on base", branch, capability.Base, []rca.RuntimeFeatureFlags{rca.ForwardBranchingOnDynamicValue, rca.UseOfDynamicBool}},
		{"branch on adaptive", branch, capability.AdaptiveRI, nil},
		{"double on adaptive", double, capability.AdaptiveRI, []rca.RuntimeFeatureFlags{rca.UseOfDynamicDouble}},
		{"double on adaptive_rif", double, capability.AdaptiveRIF, nil},
		{"loop on adaptive", loop, capability.AdaptiveRI, []rca.RuntimeFeatureFlags{rca.LoopWithDynamicCondition}},
		{"loop on unrestricted", loop, capability.Unrestricted, nil},
		{"dynamic argument on base", callee, capability.Base, []rca.RuntimeFeatureFlags{rca.UseOfDynamicBool, rca.ForwardBranchingOnDynamicValue}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := analyze(t, tt.src)
			var got []rca.RuntimeFeatureFlags
			for _, err := range a.CheckCapabilities(tt.profile.Flags) {
				got = append(got, err.Features)
				if err.Missing&tt.profile.Flags != 0 {
					t.Errorf("%v reports capabilities the target has: %v", err.Span, err.Missing)
				}
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("features mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFeatureCapabilities(t *testing.T) {
	tests := []struct {
		flags rca.RuntimeFeatureFlags
		want  capability.Flags
	}{
		{0, capability.None},
		{rca.UseOfDynamicBool, capability.Adaptive},
		{rca.UseOfDynamicInt, capability.Adaptive | capability.IntegerComputations},
		{rca.UseOfDynamicDouble, capability.Adaptive | capability.FloatingPointComputations},
		{rca.LoopWithDynamicCondition, capability.Adaptive | capability.BackwardsBranching},
		{rca.CallToDynamicCallee, capability.Adaptive | capability.HigherLevelConstructs},
	}
	for _, tt := range tests {
		if got := tt.flags.Capabilities(); got != tt.want {
			t.Errorf("%v capabilities = %v, want %v", tt.flags, got, tt.want)
		}
	}
}

func TestApplyJoinsDynamicParams(t *testing.T) {
	set := rca.ApplicationGeneratorSet{
		Inherent: rca.ComputeKind{Quantum: true},
		DynamicParamApplications: []rca.ComputeKind{
			{Flags: rca.UseOfDynamicInt, Value: rca.Dynamic},
			{Flags: rca.UseOfDynamicDouble},
		},
	}
	if got := set.Apply([]bool{false, false}); got != set.Inherent {
		t.Fatalf("static application = %v", got)
	}
	want := rca.ComputeKind{Quantum: true, Flags: rca.UseOfDynamicInt | rca.UseOfDynamicDouble, Value: rca.Dynamic}
	if got := set.Apply([]bool{true, true}); got != want {
		t.Fatalf("dynamic application = %v, want %v", got, want)
	}
}
