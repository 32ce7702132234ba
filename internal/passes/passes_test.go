package passes_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"quill/internal/diag"
	"quill/internal/frontend"
	"quill/internal/hir"
	"quill/internal/passes"
	"quill/internal/sema"
	"quill/internal/testkit"
	"quill/internal/types"
)

func lower(t *testing.T, src string) *frontend.Unit {
	t.Helper()
	unit, errs := testkit.Lower(t, src)
	for _, err := range errs {
		t.Errorf("%s: %s", err.Code.ID(), err.Msg)
	}
	if t.Failed() {
		t.FailNow()
	}
	return unit
}

func dump(unit *frontend.Unit) string {
	var sb strings.Builder
	hir.Dump(&sb, unit.HIR, testkit.Names(unit))
	return sb.String()
}

func body(t *testing.T, unit *frontend.Unit, name string) *hir.Block {
	t.Helper()
	decl := testkit.Callable(t, unit.HIR, name)
	impl, ok := decl.Body.Body.(*hir.SpecImpl)
	if !ok {
		t.Fatalf("%s has no body block", name)
	}
	return impl.Block
}

func TestAdjointReversesQuantumStatements(t *testing.T) {
	unit := lower(t, `
namespace Test {
    operation Foo(q : Qubit) : Unit is Adj {
        let pair = (q, q);
        H(q);
        S(q);
    }
}
`)
	want := `operation Foo(q) : Unit is Adj {
    body ... {
        let pair = (q, q);
        Std.Intrinsic.H(q);
        Std.Intrinsic.S(q);
    }
    adjoint ... {
        let pair = (q, q);
        Adjoint Std.Intrinsic.S(q);
        Adjoint Std.Intrinsic.H(q);
    }
}
`
	if diff := cmp.Diff(want, dump(unit)); diff != "" {
		t.Fatalf("dump (-want +got):\n%s", diff)
	}
}

func TestControlledDistributesOverCalls(t *testing.T) {
	unit := lower(t, `
namespace Test {
    operation Foo(q : Qubit) : Unit is Ctl {
        H(q);
    }
}
`)
	want := `operation Foo(q) : Unit is Ctl {
    body ... {
        Std.Intrinsic.H(q);
    }
    controlled (ctls, ...) {
        Controlled Std.Intrinsic.H(ctls, q);
    }
}
`
	if diff := cmp.Diff(want, dump(unit)); diff != "" {
		t.Fatalf("dump (-want +got):\n%s", diff)
	}
}

func TestControlledAdjointFromAdjoint(t *testing.T) {
	unit := lower(t, `
namespace Test {
    operation Foo(q : Qubit) : Unit is Adj + Ctl {
        H(q);
        S(q);
    }
}
`)
	got := dump(unit)
	for _, want := range []string{
		"Controlled Adjoint Std.Intrinsic.S(ctls, q);\n        Controlled Adjoint Std.Intrinsic.H(ctls, q);",
		"Adjoint Std.Intrinsic.S(q);\n        Adjoint Std.Intrinsic.H(q);",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in\n%s", want, got)
		}
	}
	decl := testkit.Callable(t, unit.HIR, "Foo")
	for i, spec := range []*hir.SpecDecl{decl.Adj, decl.Ctl, decl.CtlAdj} {
		if _, ok := spec.Body.(*hir.SpecImpl); !ok {
			t.Errorf("spec %d not generated: %T", i, spec.Body)
		}
	}
}

func TestFunctorsPropagateToCallees(t *testing.T) {
	unit := lower(t, `
namespace Test {
    operation Inner(q : Qubit) : Unit { X(q); }
    operation Middle(q : Qubit) : Unit { Inner(q); }
    operation Outer(q : Qubit) : Unit is Adj { Middle(q); }
    operation Sibling(q : Qubit) : Unit { X(q); }
}
`)
	for _, name := range []string{"Inner", "Middle"} {
		decl := testkit.Callable(t, unit.HIR, name)
		if !decl.Functors.Contains(types.Adj) {
			t.Errorf("%s functors = %s, want Adj", name, decl.Functors)
		}
		if decl.Adj == nil {
			t.Errorf("%s has no adjoint", name)
		} else if _, ok := decl.Adj.Body.(*hir.SpecImpl); !ok {
			t.Errorf("%s adjoint not generated", name)
		}
	}
	sibling := testkit.Callable(t, unit.HIR, "Sibling")
	if sibling.Functors != types.Empty || sibling.Adj != nil {
		t.Errorf("unrelated operation grew functors: %s", sibling.Functors)
	}
	if got := dump(unit); !strings.Contains(got, "Adjoint Test.Middle(q);") {
		t.Errorf("outer adjoint does not call Adjoint Middle:\n%s", got)
	}
}

func TestConjugateInversion(t *testing.T) {
	unit := lower(t, `
namespace Test {
    operation Foo(q : Qubit) : Unit {
        within { H(q); } apply { X(q); }
    }
}
`)
	got := dump(unit)
	if strings.Contains(got, "within") {
		t.Fatalf("conjugate survived:\n%s", got)
	}
	for _, want := range []string{
		"{ Std.Intrinsic.H(q); };",
		"let __apply_res = { Std.Intrinsic.X(q); };",
		"{ Adjoint Std.Intrinsic.H(q); };",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in\n%s", want, got)
		}
	}
}

func TestLoopsBecomeWhile(t *testing.T) {
	unit := lower(t, `
namespace Test {
    operation Foo(qs : Qubit[]) : Unit {
        for q in qs { H(q); }
        for i in 0..2 { X(qs[i]); }
        for j in 4..-2..0 { X(qs[j]); }
        repeat { H(qs[0]); } until M(qs[0]) == Zero fixup { X(qs[0]); }
    }
}
`)
	whiles := 0
	hir.Inspect(body(t, unit, "Foo"), func(n any) bool {
		if e, ok := n.(*hir.Expr); ok {
			switch e.Kind.(type) {
			case *hir.ExprFor, *hir.ExprRepeat:
				t.Errorf("loop survived: %T", e.Kind)
			case *hir.ExprWhile:
				whiles++
			}
		}
		return true
	})
	if whiles != 4 {
		t.Fatalf("while loops = %d, want 4", whiles)
	}
	got := dump(unit)
	for _, want := range []string{
		"let __len = Std.Core.Length(__array);",
		"while __idx < __len",
		"while __idx <= __end",
		"while __idx >= __end",
		"mutable __continue = true;",
		"set __continue = not Std.Intrinsic.M(qs[0]) == Zero;",
		"if __continue { Std.Intrinsic.X(qs[0]); }",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in\n%s", want, got)
		}
	}
}

func TestQubitsReleasedInReverse(t *testing.T) {
	unit := lower(t, `
namespace Test {
    operation Foo() : Result {
        use q = Qubit();
        use (a, bs) = (Qubit(), Qubit[2]);
        H(q);
        M(q)
    }
}
`)
	want := `let q = Std.Intrinsic.__quantum__rt__qubit_allocate();
let __alloc_0 = Std.Intrinsic.__quantum__rt__qubit_allocate();
let __alloc_1 = Std.Intrinsic.AllocateQubitArray(2);
let (a, bs) = (__alloc_0, __alloc_1);
Std.Intrinsic.H(q);
let __res = Std.Intrinsic.M(q);
Std.Intrinsic.ReleaseQubitArray(__alloc_1);
Std.Intrinsic.__quantum__rt__qubit_release(__alloc_0);
Std.Intrinsic.__quantum__rt__qubit_release(q);
__res
`
	got := hir.BlockString(body(t, unit, "Foo"), testkit.Names(unit))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("body (-want +got):\n%s", diff)
	}
}

func TestQubitsReleasedBeforeReturn(t *testing.T) {
	unit := lower(t, `
namespace Test {
    operation Early(flag : Bool) : Int {
        use q = Qubit();
        if flag {
            return 1;
        }
        2
    }
}
`)
	got := hir.BlockString(body(t, unit, "Early"), testkit.Names(unit))
	if n := strings.Count(got, "__quantum__rt__qubit_release(q)"); n != 2 {
		t.Fatalf("releases = %d, want 2:\n%s", n, got)
	}
	ret := strings.Index(got, "let __ret = 1;")
	rel := strings.Index(got, "__quantum__rt__qubit_release(q)")
	exit := strings.Index(got, "return __ret")
	if ret < 0 || !(ret < rel && rel < exit) {
		t.Fatalf("return does not release first:\n%s", got)
	}
}

func TestErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want diag.Code
	}{
		{"while in adjoint", `operation Foo(q : Qubit) : Unit is Adj { mutable i = 0; while i < 3 { X(q); set i += 1; } }`, diag.PassSpecNotInvertible},
		{"bound result in adjoint", `operation Foo(q : Qubit) : Unit is Adj { let r = M(q); }`, diag.PassSpecNotInvertible},
		{"callee lacks adjoint", `operation Foo(q : Qubit) : Unit is Adj { Reset(q); }`, diag.PassMissingFunctor},
		{"apply assigns within var", `operation Foo(q : Qubit) : Unit { mutable theta = 1.0; within { Rx(theta, q); } apply { set theta = 2.0; } }`, diag.PassApplyAssignsWithinVar},
		{"qubit in function", `function F() : Unit { use q = Qubit(); }`, diag.PassQubitInFunction},
		{"operation in function", `function F(q : Qubit) : Unit { H(q); }`, diag.PassOperationInFunction},
		{"functor on function", `function F() : Unit is Adj {}`, diag.PassFunctorOnFunction},
		{"entry point params", `@EntryPoint() operation Main(n : Int) : Unit {}`, diag.PassEntryPointParams},
		{"nested too deep", `operation A() : Unit { operation B() : Unit { operation C() : Unit {} } }`, diag.PassNestedCallable},
		{"bad measurement", `@Measurement() operation Bad(q : Qubit) : Unit { body intrinsic; }`, diag.PassBadMeasurement},
		{"assign immutable", `operation Foo() : Unit { let x = 1; set x = 2; }`, diag.PassMutability},
		{"assign parameter", `function F(x : Int) : Unit { set x += 1; }`, diag.PassMutability},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, errs := testkit.Lower(t, "namespace Test { "+tc.src+" }")
			var codes []string
			for _, err := range errs {
				if err.Code == tc.want {
					return
				}
				codes = append(codes, err.Code.ID())
			}
			t.Fatalf("want %s, got %v", tc.want.ID(), codes)
		})
	}
}

func TestPassesKeepTypes(t *testing.T) {
	unit := lower(t, `
namespace Test {
    operation Foo(qs : Qubit[]) : Int {
        mutable n = 0;
        for q in qs { H(q); set n += 1; }
        within { X(qs[0]); } apply { set n += 1; }
        use extra = Qubit[n];
        if n > 3 {
            return n;
        }
        Length(extra)
    }
}
`)
	if errs := sema.Recheck(unit.HIR, unit.Globals); len(errs) != 0 {
		t.Fatalf("recheck after passes: %v", errs)
	}
}

func TestLookupCoreWithoutCore(t *testing.T) {
	deps := frontend.NewDeps()
	if _, err := passes.LookupCore(deps.Table, deps.Globals); err == nil {
		t.Fatal("LookupCore on an empty table succeeded")
	}
}
