package lower_test

import (
	"fmt"
	"strings"
	"testing"

	"quill/internal/driver"
	"quill/internal/fir"
	"quill/internal/fir/lower"
	"quill/internal/ids"
	"quill/internal/testkit"
)

func callable(t *testing.T, pkg *fir.Package, name string) *fir.CallableDecl {
	t.Helper()
	for _, item := range pkg.SortedItems() {
		if c, ok := item.Kind.(*fir.ItemCallable); ok && item.Name() == name {
			return c.Decl
		}
	}
	t.Fatalf("callable %q not found", name)
	return nil
}

func TestSelfSpecializationsReuseBody(t *testing.T) {
	core, err := driver.FrozenCore()
	if err != nil {
		t.Fatal(err)
	}
	pkg, ok := core.Store.Get(ids.CorePackage)
	if !ok {
		t.Fatal("core package missing from store")
	}
	h := callable(t, pkg, "H")
	if h.Adj == nil || h.Adj.Block != h.Body.Block {
		t.Fatalf("H adjoint = %+v, want the body block %d", h.Adj, h.Body.Block)
	}
	if h.CtlAdj == nil || h.Ctl == nil || h.CtlAdj.Block != h.Ctl.Block || h.CtlAdj.Input != h.Ctl.Input {
		t.Fatalf("H controlled adjoint = %+v, want controlled %+v", h.CtlAdj, h.Ctl)
	}
}

func TestLocalsAreDensePerCallable(t *testing.T) {
	_, pkg := testkit.FIR(t, `
namespace Test {
    function F(a : Int, b : Int) : Int {
        let c = a + b;
        c
    }
    function G(x : Int) : Int { x }
}
`)
	f := callable(t, pkg, "F")
	if f.Locals != 3 {
		t.Fatalf("F locals = %d, want 3", f.Locals)
	}
	g := callable(t, pkg, "G")
	if g.Locals != 1 {
		t.Fatalf("G locals = %d, want 1", g.Locals)
	}
	bound := make(map[fir.LocalVarID]string)
	pkg.Pats.Each(func(_ fir.PatID, p *fir.Pat) {
		if b, ok := p.Kind.(*fir.PatBind); ok {
			bound[b.Local] = b.Name
		}
	})
	for _, id := range pkg.BlockExprs(f.Body.Block) {
		pkg.WalkExprs(id, func(_ fir.ExprID, e *fir.Expr) bool {
			if v, ok := e.Kind.(*fir.ExprVar); ok {
				if local, ok := v.Res.(fir.ResLocal); ok && bound[local.Local] == "" {
					t.Errorf("reference to unbound local %d", local.Local)
				}
			}
			return true
		})
	}
}

func TestIDsMatchArenaSlots(t *testing.T) {
	_, pkg := testkit.FIR(t, `
namespace Test {
    operation Main() : Result {
        use q = Qubit();
        H(q);
        M(q)
    }
}
`)
	pkg.Exprs.Each(func(id fir.ExprID, e *fir.Expr) {
		if e.ID != id {
			t.Errorf("expr %d stores id %d", id, e.ID)
		}
	})
	pkg.Blocks.Each(func(id fir.BlockID, b *fir.Block) {
		if b.ID != id {
			t.Errorf("block %d stores id %d", id, b.ID)
		}
	})
	if pkg.EntryPoint() != nil {
		t.Fatal("no entry point was declared")
	}
}

func TestSugarPanics(t *testing.T) {
	unit := testkit.Compile(t, `
namespace Test {
    function Sum(xs : Int[]) : Int {
        mutable s = 0;
        for x in xs { set s += x; }
        s
    }
}
`)
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("lowering a for loop did not panic")
		}
		if msg := fmt.Sprint(r); !strings.Contains(msg, "survived the passes") {
			t.Fatalf("panic = %v", msg)
		}
	}()
	lower.Package(unit.HIR)
}

func TestFrozenStore(t *testing.T) {
	core, err := driver.FrozenCore()
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if recover() == nil {
			t.Fatal("insert into frozen store did not panic")
		}
	}()
	core.Store.Insert(fir.NewPackage(7))
}

func TestStoreLayering(t *testing.T) {
	store, pkg := testkit.FIR(t, `namespace Test { function F() : Unit {} }`)
	if _, ok := store.Get(ids.CorePackage); !ok {
		t.Fatal("core not visible through the layered store")
	}
	if got, ok := store.Get(pkg.ID); !ok || got != pkg {
		t.Fatal("user package not found")
	}
	if ids := store.IDs(); len(ids) != 2 || ids[0] != 0 || ids[1] != pkg.ID {
		t.Fatalf("ids = %v", ids)
	}
}
