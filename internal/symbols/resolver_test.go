package symbols_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/ids"
	"quill/internal/parser"
	"quill/internal/source"
	"quill/internal/symbols"
)

func parse(t *testing.T, src string) *ast.Package {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.qs", []byte(src))
	bag := diag.NewBag(0)
	pkg := parser.ParseFile(fs.Get(id), ids.NewAssigner(), parser.Options{Reporter: diag.BagReporter{Bag: bag}})
	if bag.HasErrors() {
		t.Fatalf("parse: %+v", bag.Items())
	}
	return pkg
}

func coreTable() *symbols.GlobalTable {
	table := symbols.NewGlobalTable()
	for i, name := range []string{"H", "X", "M"} {
		table.Insert(symbols.GlobalItem{
			ID:        ids.ItemID{Package: ids.CorePackage, Item: ids.LocalItemID(i + 1)},
			Namespace: "Std.Intrinsic",
			Name:      name,
		})
	}
	table.Insert(symbols.GlobalItem{
		ID:        ids.ItemID{Package: ids.CorePackage, Item: 10},
		Namespace: "Std.Core",
		Name:      "Length",
	})
	table.DeclareNamespace("Std.Math")
	return table
}

// pathNames collects name -> resolution for every path in the package.
func pathNames(pkg *ast.Package, names symbols.Names) map[string][]symbols.Res {
	out := make(map[string][]symbols.Res)
	var visitExpr func(e *ast.Expr)
	var visitBlock func(b *ast.Block)
	visitBlock = func(b *ast.Block) {
		for _, s := range b.Stmts {
			switch k := s.Kind.(type) {
			case *ast.StmtSemi:
				visitExpr(k.Expr)
			case *ast.StmtExpr:
				visitExpr(k.Expr)
			case *ast.StmtLocal:
				visitExpr(k.Expr)
			}
		}
	}
	visitExpr = func(e *ast.Expr) {
		switch k := e.Kind.(type) {
		case *ast.ExprPath:
			out[k.Path.Name.Name] = append(out[k.Path.Name.Name], names[k.Path.ID])
		case *ast.ExprCall:
			visitExpr(k.Callee)
			visitExpr(k.Arg)
		case *ast.ExprParen:
			visitExpr(k.Inner)
		case *ast.ExprTuple:
			for _, item := range k.Items {
				visitExpr(item)
			}
		case *ast.ExprBinOp:
			visitExpr(k.Lhs)
			visitExpr(k.Rhs)
		case *ast.ExprBlock:
			visitBlock(k.Block)
		case *ast.ExprUnOp:
			visitExpr(k.Operand)
		}
	}
	for _, ns := range pkg.Namespaces {
		for _, item := range ns.Items {
			if c, ok := item.Kind.(*ast.ItemCallable); ok {
				if b, ok := c.Decl.Body.(*ast.BodyBlock); ok {
					visitBlock(b.Block)
				}
			}
		}
	}
	return out
}

func TestResolveLocalsAndGlobals(t *testing.T) {
	pkg := parse(t, `
namespace Test {
    open Std.Intrinsic;
    operation Apply(q : Qubit) : Unit {
        H(q);
        let x = 1;
        { let x = x + 1; X(q); }
        Helper();
    }
    operation Helper() : Unit {}
}`)
	r := symbols.Resolve(coreTable(), pkg, symbols.Options{Package: 1})
	if len(r.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", r.Errors)
	}
	got := pathNames(pkg, r.Names)
	if diff := cmp.Diff([]symbols.Res{symbols.ResItem{ID: ids.ItemID{Package: 0, Item: 1}}}, got["H"]); diff != "" {
		t.Fatalf("H (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]symbols.Res{symbols.ResItem{ID: ids.ItemID{Package: 1, Item: 2}}}, got["Helper"]); diff != "" {
		t.Fatalf("Helper (-want +got):\n%s", diff)
	}
	if len(got["q"]) != 2 || got["q"][0] != got["q"][1] {
		t.Fatalf("q should resolve to the parameter twice: %v", got["q"])
	}
	if _, ok := got["x"][0].(symbols.ResLocal); !ok {
		t.Fatalf("inner x initializer should see outer x, got %v", got["x"])
	}
}

func TestResolveIdempotent(t *testing.T) {
	pkg := parse(t, `
namespace Test {
    open Std.Intrinsic;
    operation Main() : Unit {
        use q = Qubit();
        mutable n = 0;
        for i in 0..3 { set n += i; H(q); }
        let r = M(q);
    }
}`)
	table := coreTable()
	first := symbols.Resolve(table, pkg, symbols.Options{Package: 1})
	second := symbols.Resolve(table, pkg, symbols.Options{Package: 1})
	if diff := cmp.Diff(first.Names, second.Names); diff != "" {
		t.Fatalf("re-resolution changed names (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(first.DeclItems, second.DeclItems); diff != "" {
		t.Fatalf("item ids changed:\n%s", diff)
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []symbols.ErrorKind
	}{
		{
			name: "not found",
			src:  `namespace T { function F() : Unit { G(); } }`,
			want: []symbols.ErrorKind{symbols.ErrNotFound},
		},
		{
			name: "duplicate local",
			src:  `namespace T { function F() : Unit { let a = 1; let a = 2; } }`,
			want: []symbols.ErrorKind{symbols.ErrDuplicate},
		},
		{
			name: "shadowing allowed",
			src:  `namespace T { function F() : Unit { let a = 1; { let a = 2; } } }`,
		},
		{
			name: "duplicate item",
			src:  `namespace T { function F() : Unit {} function F() : Unit {} }`,
			want: []symbols.ErrorKind{symbols.ErrDuplicate},
		},
		{
			name: "missing namespace",
			src:  `namespace T { open Nowhere; }`,
			want: []symbols.ErrorKind{symbols.ErrNotAvailable},
		},
		{
			name: "ambiguous",
			src: `
namespace A { function F() : Unit {} }
namespace B { function F() : Unit {} }
namespace T { open A; open B; function G() : Unit { F(); } }`,
			want: []symbols.ErrorKind{symbols.ErrAmbiguous},
		},
		{
			name: "locals do not cross callables",
			src:  `namespace T { function F() : Unit { let a = 1; function G() : Int { a } } }`,
			want: []symbols.ErrorKind{symbols.ErrNotFound},
		},
		{
			name: "all errors collected",
			src:  `namespace T { function F() : Unit { A(); B(); let c = 1; let c = 2; } }`,
			want: []symbols.ErrorKind{symbols.ErrNotFound, symbols.ErrNotFound, symbols.ErrDuplicate},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := symbols.Resolve(coreTable(), parse(t, tt.src), symbols.Options{Package: 1})
			var got []symbols.ErrorKind
			for _, e := range r.Errors {
				got = append(got, e.Kind)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("errors (-want +got):\n%s\n%v", diff, r.Errors)
			}
		})
	}
}

func TestResolveAliasAndQualified(t *testing.T) {
	pkg := parse(t, `
namespace Test {
    open Std.Intrinsic as I;
    operation Main(q : Qubit) : Unit {
        I.H(q);
        Std.Intrinsic.X(q);
    }
}`)
	r := symbols.Resolve(coreTable(), pkg, symbols.Options{Package: 1})
	if len(r.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", r.Errors)
	}
	got := pathNames(pkg, r.Names)
	if got["H"][0] != (symbols.ResItem{ID: ids.ItemID{Item: 1}}) || got["X"][0] != (symbols.ResItem{ID: ids.ItemID{Item: 2}}) {
		t.Fatalf("got %v", got)
	}
}

func TestResolveTypes(t *testing.T) {
	pkg := parse(t, `
namespace Test {
    newtype Pair = (Int, Double);
    function Swap<'T>(p : Pair, x : 'T, u : Unit) : 'T { x }
}`)
	r := symbols.Resolve(coreTable(), pkg, symbols.Options{Package: 1})
	if len(r.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", r.Errors)
	}
	kinds := map[string]int{}
	for _, res := range r.Names {
		switch res.(type) {
		case symbols.ResPrimTy:
			kinds["prim"]++
		case symbols.ResItem:
			kinds["item"]++
		case symbols.ResParam:
			kinds["param"]++
		case symbols.ResUnitTy:
			kinds["unit"]++
		}
	}
	want := map[string]int{"prim": 2, "item": 1, "param": 2, "unit": 1}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Fatalf("type resolutions (-want +got):\n%s", diff)
	}
}

func TestResolveFragmentsKeepTopScope(t *testing.T) {
	r := symbols.NewResolver(coreTable(), symbols.Options{Package: 1})
	assigner := ids.NewAssigner()
	fs := source.NewFileSet()
	parseFragment := func(src string) *ast.Package {
		id := fs.AddVirtual("line.qs", []byte(src))
		return parser.ParseFragment(fs.Get(id), assigner, parser.Options{})
	}
	r.ResolveFragment(parseFragment(`let a = 1;`))
	r.ResolveFragment(parseFragment(`let b = a + 1;`))
	if len(r.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", r.Errors)
	}
	r.ResolveFragment(parseFragment(`let c = missing;`))
	if len(r.Errors) != 1 || r.Errors[0].Kind != symbols.ErrNotFound {
		t.Fatalf("errors: %v", r.Errors)
	}
}
