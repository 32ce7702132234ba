package hir_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"quill/internal/hir"
	"quill/internal/testkit"
)

func bodyBlock(t *testing.T, d *hir.CallableDecl) *hir.Block {
	t.Helper()
	impl, ok := d.Body.Body.(*hir.SpecImpl)
	if !ok {
		t.Fatalf("%s has no body block", d.Name.Name)
	}
	return impl.Block
}

func TestClonerRemapsInnerLocals(t *testing.T) {
	unit := testkit.Compile(t, `
namespace Test {
    function F(n : Int) : Int {
        let a = n + 1;
        let b = a * 2;
        b
    }
}
`)
	decl := testkit.Callable(t, unit.HIR, "F")
	orig := bodyBlock(t, decl)
	cloned := hir.NewCloner(unit.Assigner).Block(orig)

	if got, want := hir.BlockString(cloned, nil), hir.BlockString(orig, nil); got != want {
		t.Fatalf("clone renders differently:\n%s\nvs\n%s", got, want)
	}

	origIDs := make(map[hir.NodeID]bool)
	hir.Inspect(orig, func(n any) bool {
		switch n := n.(type) {
		case *hir.Expr:
			origIDs[n.ID] = true
		case *hir.Pat:
			origIDs[n.ID] = true
		}
		return true
	})
	paramRefs := 0
	hir.Inspect(cloned, func(n any) bool {
		switch n := n.(type) {
		case *hir.Expr:
			if origIDs[n.ID] {
				t.Errorf("expr id %d reused", n.ID)
			}
			if v, ok := n.Kind.(*hir.ExprVar); ok {
				if local, ok := v.Res.(hir.ResLocal); ok && local.Node == decl.Input.ID {
					paramRefs++
				} else if ok && origIDs[local.Node] {
					t.Errorf("reference to original binding %d survived", local.Node)
				}
			}
		case *hir.Pat:
			if origIDs[n.ID] {
				t.Errorf("pat id %d reused", n.ID)
			}
		}
		return true
	})
	if paramRefs != 1 {
		t.Fatalf("parameter references = %d, want 1", paramRefs)
	}
}

func TestDumpCallable(t *testing.T) {
	unit := testkit.Compile(t, `
namespace Test {
    operation Flip(q : Qubit) : Unit is Adj {
        X(q);
    }
}
`)
	var sb strings.Builder
	names := func(id hir.ItemID) string { return unit.Resolver.Table().QualifiedName(id) }
	hir.Dump(&sb, unit.HIR, names)
	want := `operation Flip(q) : Unit is Adj {
    body ... {
        Std.Intrinsic.X(q);
    }
    adjoint auto;
}
`
	if diff := cmp.Diff(want, sb.String()); diff != "" {
		t.Fatalf("dump (-want +got):\n%s", diff)
	}
}

func TestEntryPoint(t *testing.T) {
	unit := testkit.Compile(t, `
namespace Test {
    function Helper() : Unit {}

    @EntryPoint()
    operation Main() : Unit {}
}
`)
	entry := unit.HIR.EntryPoint()
	if entry == nil || entry.Name() != "Main" || !entry.HasAttr(hir.AttrEntryPoint) {
		t.Fatalf("entry = %+v", entry)
	}
}
