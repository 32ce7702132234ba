package sema_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"quill/internal/diag"
	"quill/internal/frontend"
	"quill/internal/hir"
	"quill/internal/sema"
	"quill/internal/testkit"
)

// localTypes maps every bound local name in callable name to its type.
func localTypes(t *testing.T, pkg *hir.Package, name string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	hir.Inspect(testkit.Callable(t, pkg, name), func(n any) bool {
		if p, ok := n.(*hir.Pat); ok {
			if b, ok := p.Kind.(*hir.PatBind); ok {
				out[b.Name.Name] = p.Ty.String()
			}
		}
		return true
	})
	return out
}

func TestInference(t *testing.T) {
	unit := testkit.Compile(t, `
namespace Test {
    newtype Pair = (First : Int, Second : Double);

    function Id<'T>(x : 'T) : 'T { x }

    operation Main() : Result {
        let a = 1 + 2;
        let b = 1.5 * 2.0;
        let big = 10L;
        let xs = [a, a, a];
        let sub = xs[0..1];
        let (c, d) = (true, "s");
        let r = 0..2..10;
        let p = Pair(1, 2.0);
        let inner = p!;
        let same = Id(b);
        let op = Adjoint H;
        let ctl = Controlled X;
        mutable acc = [];
        for i in xs {
            set acc += [i];
        }
        use q = Qubit();
        let m = M(q);
        m
    }
}
`)
	got := localTypes(t, unit.HIR, "Main")
	want := map[string]string{
		"a":     "Int",
		"b":     "Double",
		"big":   "BigInt",
		"xs":    "Int[]",
		"sub":   "Int[]",
		"c":     "Bool",
		"d":     "String",
		"r":     "Range",
		"p":     "Pair",
		"inner": "(Int, Double)",
		"same":  "Double",
		"op":    "(Qubit => Unit is Adj + Ctl)",
		"ctl":   "((Qubit[], Qubit) => Unit is Adj + Ctl)",
		"acc":   "Int[]",
		"i":     "Int",
		"q":     "Qubit",
		"m":     "Result",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("local types (-want +got):\n%s", diff)
	}
}

func TestGenericInstantiationRecorded(t *testing.T) {
	unit := testkit.Compile(t, `
namespace Test {
    function Main() : Int {
        Length([1.0, 2.0])
    }
}
`)
	var generics []string
	hir.Inspect(testkit.Callable(t, unit.HIR, "Main"), func(n any) bool {
		if e, ok := n.(*hir.Expr); ok {
			if v, ok := e.Kind.(*hir.ExprVar); ok {
				for _, g := range v.Generics {
					generics = append(generics, g.String())
				}
			}
		}
		return true
	})
	if diff := cmp.Diff([]string{"Double"}, generics); diff != "" {
		t.Fatalf("generics (-want +got):\n%s", diff)
	}
}

func TestDivergingDefaultsToUnit(t *testing.T) {
	unit := testkit.Compile(t, `
namespace Test {
    function Pick(b : Bool) : Int {
        if b {
            return 1;
        }
        fail "no";
    }
}
`)
	testkit.Callable(t, unit.HIR, "Pick")
}

func TestErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		want diag.Code
	}{
		{"mismatch", `let x : Int = 1; let y = x + 1.0;`, diag.TyMismatch},
		{"missing class", `let x = true + false;`, diag.TyMissingClass},
		{"not iterable", `for x in 3 { }`, diag.TyNotIterable},
		{"not indexable", `let x = 3; let y = x[0];`, diag.TyNotIndexable},
		{"functor mismatch", `let f = Adjoint M;`, diag.TyFunctorMismatch},
		{"missing field", `let x = 3!;`, diag.TyMissingField},
		{"tuple arity", `let (a, b) = (1, 2, 3);`, diag.TyTupleArity},
		{"hole", `let x = _;`, diag.TyAmbiguous},
		{"ambiguous empty array", `let x = [];`, diag.TyAmbiguous},
		{"equality on qubits", `use q = Qubit(); let b = q == q;`, diag.TyMissingClass},
		{"callable kind", `let f : (Qubit -> Unit) = H;`, diag.TyCallableKindMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := testkit.Build(t, "namespace Test { operation Main() : Unit { "+tc.body+" } }")
			found := false
			for _, code := range res.Codes() {
				if code == tc.want {
					found = true
				}
			}
			if !found {
				t.Fatalf("want %s, got %v", tc.want.ID(), res.Codes())
			}
		})
	}
}

func TestNoFollowOnErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
		want []diag.Code
		msg  string
	}{
		{"unresolved callee", `let x = Missing(1);`, []diag.Code{diag.ResNotFound}, ""},
		{"unresolved array", `let xs = Missing(); let y = xs[0]; for z in xs { }`, []diag.Code{diag.ResNotFound}, ""},
		{"literal plus double", `let x = 1 + 2.0;`, []diag.Code{diag.TyMismatch}, "expected Int, found Double"},
		{"double plus literal", `let x = 2.0 * 1;`, []diag.Code{diag.TyMismatch}, "expected Double, found Int"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := testkit.Build(t, "namespace Test { operation Main() : Unit { "+tc.body+" } }")
			if diff := cmp.Diff(tc.want, res.Codes()); diff != "" {
				t.Fatalf("codes (-want +got):\n%s", diff)
			}
			if tc.msg != "" && res.Diags[0].Message != "type mismatch: "+tc.msg {
				t.Fatalf("message = %q", res.Diags[0].Message)
			}
		})
	}
}

func TestRecheckRoundTrip(t *testing.T) {
	res := testkit.Build(t, `
namespace Test {
    newtype Angle = Double;

    operation Prep(qs : Qubit[], theta : Angle) : Unit is Adj + Ctl {
        for q in qs {
            Ry(theta!, q);
        }
    }

    operation Main() : (Result, Int) {
        use qs = Qubit[3];
        Prep(qs, Angle(0.5));
        Adjoint Prep(qs, Angle(0.5));
        mutable n = 0;
        while n < 3 {
            set n += 1;
        }
        let r = M(qs[0]);
        (r, n > 2 ? n | -n)
    }
}
`)
	if res.Stage != frontend.StageNone {
		t.Fatalf("compile failed at %s: %v", res.Stage, res.Codes())
	}
	_, deps := testkit.Core(t)
	globals := deps.Globals.Clone()
	globals.AddPackage(testkit.UserPackage, res.Unit.HIR)
	if errs := sema.Recheck(res.Unit.HIR, globals); len(errs) != 0 {
		t.Fatalf("recheck: %v", errs)
	}
	if err := testkit.CheckSpanInvariants(res.Unit.HIR, res.File); err != nil {
		t.Fatal(err)
	}
}
