package passes

import (
	"strconv"

	"quill/internal/ast"
	"quill/internal/hir"
	"quill/internal/source"
	"quill/internal/types"
)

// ReplaceQubits turns `use`/`borrow` statements into runtime allocation
// calls and inserts the matching releases at the end of the owning block
// and before every `return`. Qubits allocated by top-level statements stay
// live until the program ends.
func ReplaceQubits(pkg *hir.Package, b *builder) {
	for _, item := range pkg.Callables() {
		decl := item.Kind.(*hir.ItemCallable).Decl
		for _, spec := range []*hir.SpecDecl{decl.Body, decl.Adj, decl.Ctl, decl.CtlAdj} {
			if spec == nil {
				continue
			}
			if impl, ok := spec.Body.(*hir.SpecImpl); ok {
				r := &qubitReplacer{builder: b}
				r.block(impl.Block, true)
			}
		}
	}
	if len(pkg.Stmts) > 0 {
		top := &hir.Block{Stmts: pkg.Stmts, Ty: types.Unit}
		r := &qubitReplacer{builder: b}
		r.block(top, false)
		pkg.Stmts = top.Stmts
	}
}

// live is one allocation that must be released.
type live struct {
	pat   *hir.Pat
	array bool
}

type qubitReplacer struct {
	*builder
	scopes [][]live
	fresh  int
}

func (r *qubitReplacer) block(blk *hir.Block, release bool) {
	r.scopes = append(r.scopes, nil)
	defer func() { r.scopes = r.scopes[:len(r.scopes)-1] }()

	stmts := make([]*hir.Stmt, 0, len(blk.Stmts))
	diverges := false
	for _, s := range blk.Stmts {
		if q, ok := s.Kind.(*hir.StmtQubit); ok {
			stmts = append(stmts, r.allocate(s.Span, q)...)
			continue
		}
		diverges = endsInReturn(s)
		r.visit(s)
		stmts = append(stmts, s)
	}

	scope := r.scopes[len(r.scopes)-1]
	if !release || len(scope) == 0 || diverges {
		blk.Stmts = stmts
		return
	}
	releases := r.releases(blk.Span, scope)
	if n := len(stmts); n > 0 {
		if last, ok := stmts[n-1].Kind.(*hir.StmtExpr); ok {
			if types.IsUnit(last.Expr.Ty) {
				stmts[n-1] = r.semi(last.Expr)
				stmts = append(stmts, releases...)
			} else {
				// { ...; e }  =>  { ...; let res = e; release...; res }
				res := r.bind(last.Expr.Span, "__res", last.Expr.Ty)
				stmts[n-1] = r.let(ast.Immutable, res, last.Expr)
				stmts = append(stmts, releases...)
				stmts = append(stmts, r.trailing(r.use(last.Expr.Span, res)))
			}
			blk.Stmts = stmts
			return
		}
	}
	blk.Stmts = append(stmts, releases...)
}

// visit handles nested blocks and returns inside a statement.
func (r *qubitReplacer) visit(node any) {
	hir.Inspect(node, func(n any) bool {
		switch n := n.(type) {
		case *hir.Block:
			r.block(n, true)
			return false
		case *hir.Expr:
			ret, ok := n.Kind.(*hir.ExprReturn)
			if !ok {
				return true
			}
			r.visit(ret.Value)
			r.returning(n, ret)
			return false
		}
		return true
	})
}

// returning rewrites `return e` into `{ let ret = e; release...; return ret }`
// when any enclosing scope owns qubits.
func (r *qubitReplacer) returning(e *hir.Expr, ret *hir.ExprReturn) {
	var all []*hir.Stmt
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if len(r.scopes[i]) > 0 {
			all = append(all, r.releases(e.Span, r.scopes[i])...)
		}
	}
	if len(all) == 0 {
		return
	}
	val := r.bind(ret.Value.Span, "__ret", ret.Value.Ty)
	stmts := []*hir.Stmt{r.let(ast.Immutable, val, ret.Value)}
	stmts = append(stmts, all...)
	stmts = append(stmts, r.trailing(r.expr(e.Span, e.Ty, &hir.ExprReturn{Value: r.use(e.Span, val)})))
	e.Kind = &hir.ExprBlock{Block: r.builder.block(e.Span, e.Ty, stmts...)}
}

func endsInReturn(s *hir.Stmt) bool {
	var e *hir.Expr
	switch k := s.Kind.(type) {
	case *hir.StmtSemi:
		e = k.Expr
	case *hir.StmtExpr:
		e = k.Expr
	default:
		return false
	}
	_, ok := e.Kind.(*hir.ExprReturn)
	return ok
}

// releases frees scope in reverse allocation order.
func (r *qubitReplacer) releases(sp source.Span, scope []live) []*hir.Stmt {
	out := make([]*hir.Stmt, 0, len(scope))
	for i := len(scope) - 1; i >= 0; i-- {
		l := scope[i]
		fn := r.core.Release
		if l.array {
			fn = r.core.ReleaseArray
		}
		out = append(out, r.semi(r.call(sp, r.item(sp, fn), r.use(sp, l.pat))))
	}
	return out
}

func (r *qubitReplacer) own(p *hir.Pat, array bool) {
	r.scopes[len(r.scopes)-1] = append(r.scopes[len(r.scopes)-1], live{pat: p, array: array})
}

func (r *qubitReplacer) allocate(sp source.Span, q *hir.StmtQubit) []*hir.Stmt {
	if _, ok := q.Pat.Kind.(*hir.PatBind); ok {
		switch k := q.Init.Kind.(type) {
		case *hir.QubitSingle:
			r.own(q.Pat, false)
			return []*hir.Stmt{r.let(ast.Immutable, q.Pat, r.allocCall(q.Init.Span, nil))}
		case *hir.QubitArray:
			r.own(q.Pat, true)
			return []*hir.Stmt{r.let(ast.Immutable, q.Pat, r.allocCall(q.Init.Span, k.Size))}
		}
	}
	// use (a, b) = (Qubit(), Qubit[2])  =>  fresh temporaries, then destructure
	var stmts []*hir.Stmt
	value := r.allocInit(q.Init, &stmts)
	return append(stmts, r.let(ast.Immutable, q.Pat, value))
}

func (r *qubitReplacer) allocInit(init *hir.QubitInit, stmts *[]*hir.Stmt) *hir.Expr {
	sp := init.Span
	switch k := init.Kind.(type) {
	case *hir.QubitTuple:
		items := make([]*hir.Expr, len(k.Items))
		for i, item := range k.Items {
			items[i] = r.allocInit(item, stmts)
		}
		return r.tuple(sp, items...)
	case *hir.QubitArray:
		tmp := r.temp(sp, init.Ty)
		*stmts = append(*stmts, r.let(ast.Immutable, tmp, r.allocCall(sp, k.Size)))
		r.own(tmp, true)
		return r.use(sp, tmp)
	default:
		tmp := r.temp(sp, types.PrimQubit)
		*stmts = append(*stmts, r.let(ast.Immutable, tmp, r.allocCall(sp, nil)))
		r.own(tmp, false)
		return r.use(sp, tmp)
	}
}

func (r *qubitReplacer) temp(sp source.Span, ty types.Ty) *hir.Pat {
	name := "__alloc_" + strconv.Itoa(r.fresh)
	r.fresh++
	return r.bind(sp, name, ty)
}

// allocCall allocates one qubit, or an array of size qubits.
func (r *qubitReplacer) allocCall(sp source.Span, size *hir.Expr) *hir.Expr {
	if size != nil {
		return r.call(sp, r.item(sp, r.core.AllocateArray), size)
	}
	return r.call(sp, r.item(sp, r.core.Allocate))
}
