package parser_test

import (
	"testing"

	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/ids"
	"quill/internal/parser"
	"quill/internal/source"
)

func parseFile(t *testing.T, src string) (*ast.Package, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.qs", []byte(src))
	bag := diag.NewBag(0)
	pkg := parser.ParseFile(fs.Get(id), ids.NewAssigner(), parser.Options{Reporter: diag.BagReporter{Bag: bag}})
	return pkg, bag
}

func parseExpr(t *testing.T, src string) *ast.Expr {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("expr.qs", []byte(src))
	bag := diag.NewBag(0)
	e := parser.ParseExpr(fs.Get(id), ids.NewAssigner(), parser.Options{Reporter: diag.BagReporter{Bag: bag}})
	if bag.HasErrors() {
		t.Fatalf("parse %q: %+v", src, bag.Items())
	}
	return e
}

const program = `
namespace Test {
    open Std.Intrinsic;
    open Std.Core as Core;

    newtype Pair = (First : Int, Double);

    @EntryPoint()
    operation Main() : Result {
        use (a, qs) = (Qubit(), Qubit[2]);
        mutable count = 0;
        for i in 0..2..10 {
            set count += i;
        }
        within { H(a); } apply { X(qs[0]); }
        let r = M(a);
        if r == One { X(a); } elif count > 3 { Y(a); } else { Z(a); }
        return r;
    }

    operation Flip(q : Qubit) : Unit is Adj + Ctl {
        body ... { X(q); }
        adjoint self;
        controlled (cs, ...) { Controlled X(cs, q); }
        controlled adjoint auto;
    }

    function Apply<'T>(f : ('T -> Unit), x : 'T) : Unit {
        f(x);
    }
}
`

func TestParseProgram(t *testing.T) {
	pkg, bag := parseFile(t, program)
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %+v", bag.Items())
	}
	if len(pkg.Namespaces) != 1 {
		t.Fatalf("namespaces = %d", len(pkg.Namespaces))
	}
	ns := pkg.Namespaces[0]
	if got := ast.JoinIdents(ns.Name); got != "Test" {
		t.Fatalf("namespace name = %q", got)
	}
	if len(ns.Items) != 6 {
		t.Fatalf("items = %d", len(ns.Items))
	}
	open := ns.Items[1].Kind.(*ast.ItemOpen)
	if open.Alias == nil || open.Alias.Name != "Core" {
		t.Fatal("alias not parsed")
	}
	main := ns.Items[3].Kind.(*ast.ItemCallable).Decl
	if main.Kind != ast.Operation || len(ns.Items[3].Attrs) != 1 {
		t.Fatal("entry point not parsed")
	}
	body := main.Body.(*ast.BodyBlock).Block
	if len(body.Stmts) != 7 {
		t.Fatalf("main statements = %d", len(body.Stmts))
	}
	if _, ok := body.Stmts[0].Kind.(*ast.StmtQubit); !ok {
		t.Fatalf("first statement is %T", body.Stmts[0].Kind)
	}

	flip := ns.Items[4].Kind.(*ast.ItemCallable).Decl
	specs := flip.Body.(*ast.BodySpecs).Specs
	if len(specs) != 4 {
		t.Fatalf("specs = %d", len(specs))
	}
	if gen := specs[1].Body.(*ast.SpecBodyGen).Gen; gen != ast.GenSelf {
		t.Fatalf("adjoint gen = %v", gen)
	}
	if specs[3].Spec != ast.SpecCtlAdj {
		t.Fatalf("last spec = %v", specs[3].Spec)
	}
	ctl := specs[2].Body.(*ast.SpecBodyImpl)
	if _, ok := ctl.Input.Kind.(*ast.PatTuple); !ok {
		t.Fatal("controlled input must be a tuple pattern")
	}

	apply := ns.Items[5].Kind.(*ast.ItemCallable).Decl
	if len(apply.Generics) != 1 || apply.Generics[0].Name != "'T" {
		t.Fatalf("generics = %+v", apply.Generics)
	}
}

func TestPrecedence(t *testing.T) {
	e := parseExpr(t, "1 + 2 * 3 == 7 and not false")
	and := e.Kind.(*ast.ExprBinOp)
	if and.Op != ast.OpAndL {
		t.Fatalf("top op = %v", and.Op)
	}
	eq := and.Lhs.Kind.(*ast.ExprBinOp)
	add := eq.Lhs.Kind.(*ast.ExprBinOp)
	if eq.Op != ast.OpEq || add.Op != ast.OpAdd {
		t.Fatal("arithmetic must bind tighter than comparison")
	}
	if add.Rhs.Kind.(*ast.ExprBinOp).Op != ast.OpMul {
		t.Fatal("* must bind tighter than +")
	}
}

func TestExponentIsRightAssociative(t *testing.T) {
	e := parseExpr(t, "2 ^ 3 ^ 2")
	top := e.Kind.(*ast.ExprBinOp)
	if _, ok := top.Rhs.Kind.(*ast.ExprBinOp); !ok {
		t.Fatal("expected 2 ^ (3 ^ 2)")
	}
}

func TestFunctorBindsBeforeCall(t *testing.T) {
	e := parseExpr(t, "Controlled Adjoint Op(ctls, q)")
	call := e.Kind.(*ast.ExprCall)
	ctl := call.Callee.Kind.(*ast.ExprUnOp)
	adj := ctl.Operand.Kind.(*ast.ExprUnOp)
	if ctl.Op != ast.OpFunctorCtl || adj.Op != ast.OpFunctorAdj {
		t.Fatal("functor nesting wrong")
	}
	if _, ok := call.Arg.Kind.(*ast.ExprTuple); !ok {
		t.Fatal("argument must be a tuple")
	}
}

func TestRangeAndTernaryAndUpdate(t *testing.T) {
	r := parseExpr(t, "0..n - 1").Kind.(*ast.ExprRange)
	if r.Step != nil || r.End.Kind.(*ast.ExprBinOp).Op != ast.OpSub {
		t.Fatal("range end must include arithmetic")
	}
	tern := parseExpr(t, "c ? 1 | 2").Kind.(*ast.ExprTernary)
	if tern.IfFalse == nil {
		t.Fatal("ternary false branch missing")
	}
	up := parseExpr(t, "arr w/ 0 <- 5").Kind.(*ast.ExprUpdate)
	if up.Value.Kind.(*ast.ExprLit).Lit.(*ast.LitInt).Value != 5 {
		t.Fatal("update value wrong")
	}
	rep := parseExpr(t, "[0, size = 3]").Kind.(*ast.ExprArrayRepeat)
	if rep.Size == nil {
		t.Fatal("array repeat size missing")
	}
}

func TestLiterals(t *testing.T) {
	if v := parseExpr(t, "0x1F").Kind.(*ast.ExprLit).Lit.(*ast.LitInt).Value; v != 31 {
		t.Fatalf("hex = %d", v)
	}
	if v := parseExpr(t, "007").Kind.(*ast.ExprLit).Lit.(*ast.LitInt).Value; v != 7 {
		t.Fatalf("leading zeros = %d", v)
	}
	if v := parseExpr(t, "10L").Kind.(*ast.ExprLit).Lit.(*ast.LitBigInt).Value; v.Int64() != 10 {
		t.Fatalf("bigint = %v", v)
	}
	if _, ok := parseExpr(t, "()").Kind.(*ast.ExprTuple); !ok {
		t.Fatal("unit must be an empty tuple")
	}
}

func TestErrorsAreReportedAndRecovered(t *testing.T) {
	_, bag := parseFile(t, `namespace N {
        function F() : Int { let x = ; 1 }
        function G() : Int { 2 }
    }`)
	if !bag.HasErrors() {
		t.Fatal("expected a syntax error")
	}
	for _, d := range bag.Items() {
		if d.Code != diag.SynExpectExpression {
			t.Fatalf("unexpected diagnostic %s: %s", d.Code, d.Message)
		}
	}
}

func TestParseFragmentMixesItemsAndStatements(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("frag.qs", []byte("operation Foo() : Unit {} let x = 1; Foo();"))
	bag := diag.NewBag(0)
	pkg := parser.ParseFragment(fs.Get(id), ids.NewAssigner(), parser.Options{Reporter: diag.BagReporter{Bag: bag}})
	if bag.HasErrors() || len(pkg.Stmts) != 3 {
		t.Fatalf("stmts = %d, diags = %+v", len(pkg.Stmts), bag.Items())
	}
	if _, ok := pkg.Stmts[0].Kind.(*ast.StmtItem); !ok {
		t.Fatal("first fragment statement must be an item")
	}
}
