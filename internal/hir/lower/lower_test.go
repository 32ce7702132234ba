package lower_test

import (
	"strings"
	"testing"

	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/hir"
	"quill/internal/testkit"
)

func render(t *testing.T, src, name string) string {
	t.Helper()
	unit := testkit.Compile(t, src)
	names := func(id hir.ItemID) string {
		g, _ := unit.Resolver.Table().Item(id)
		return g.Name
	}
	var sb strings.Builder
	p := hir.NewPrinter(&sb, names)
	for _, item := range unit.HIR.Callables() {
		if item.Name() == name {
			p.PrintItem(item)
		}
	}
	return sb.String()
}

func TestSugar(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{
			name: "ternary becomes if",
			body: `let x = true ? 1 | 2;`,
			want: `let x = if true 1 else 2;`,
		},
		{
			name: "elif chain nests",
			body: `let a = 1; if a == 1 { X(q); } elif a == 2 { Y(q); } else { Z(q); }`,
			want: `if a == 1 { X(q); } else if a == 2 { Y(q); } else { Z(q); }`,
		},
		{
			name: "parens dropped",
			body: `let x = ((1 + 2)) * 3;`,
			want: `let x = 1 + 2 * 3;`,
		},
		{
			name: "scoped use becomes block",
			body: `use a = Qubit() { H(a); }`,
			want: `{ use a = Qubit(); H(a); }`,
		},
		{
			name: "copy update",
			body: `mutable arr = [1, 2]; set arr w/= 0 <- 5; let b = arr w/ 1 <- 7;`,
			want: `let b = arr w/ 1 <- 7;`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src := "namespace Test { operation Main(q : Qubit) : Unit { " + tc.body + " } }"
			got := render(t, src, "Main")
			if !strings.Contains(got, tc.want) {
				t.Fatalf("want %q in\n%s", tc.want, got)
			}
		})
	}
}

func TestImpliedSpecializations(t *testing.T) {
	unit := testkit.Compile(t, `
namespace Test {
    operation A(q : Qubit) : Unit is Adj + Ctl {
        H(q);
    }

    operation B(q : Qubit) : Unit is Ctl {
        body ... { X(q); }
        controlled (cs, ...) { Controlled X(cs, q); }
    }
}
`)
	a := testkit.Callable(t, unit.HIR, "A")
	for _, s := range []ast.Spec{ast.SpecAdj, ast.SpecCtl, ast.SpecCtlAdj} {
		gen, ok := a.Spec(s).Body.(*hir.SpecGen)
		if !ok || gen.Gen != ast.GenAuto {
			t.Errorf("A %s: want auto, got %#v", s, a.Spec(s))
		}
	}
	b := testkit.Callable(t, unit.HIR, "B")
	impl, ok := b.Ctl.Body.(*hir.SpecImpl)
	if !ok || impl.Input == nil {
		t.Fatalf("B controlled: %#v", b.Ctl)
	}
	if b.Adj != nil || b.CtlAdj != nil {
		t.Fatal("B must not get adjoint specializations")
	}
}

func TestSpecializationErrors(t *testing.T) {
	res := testkit.Build(t, `
namespace Test {
    operation A(q : Qubit) : Unit is Adj {
        body ... { H(q); }
        adjoint self;
        adjoint self;
    }

    @Unknown()
    operation B() : Unit {}
}
`)
	codes := res.Codes()
	want := map[diag.Code]bool{diag.PassBadSpecialization: false, diag.SynBadAttribute: false}
	for _, c := range codes {
		if _, ok := want[c]; ok {
			want[c] = true
		}
	}
	for c, seen := range want {
		if !seen {
			t.Errorf("missing %s in %v", c.ID(), codes)
		}
	}
}
