package passes

import (
	"quill/internal/ast"
	"quill/internal/hir"
	"quill/internal/ids"
	"quill/internal/source"
	"quill/internal/types"
)

// builder makes synthesized HIR nodes with fresh ids.
type builder struct {
	ids  *ids.Assigner
	core *Core
}

func (b *builder) expr(sp source.Span, ty types.Ty, kind hir.ExprKind) *hir.Expr {
	return &hir.Expr{ID: b.ids.Next(), Span: sp, Ty: ty, Kind: kind}
}

func (b *builder) stmt(sp source.Span, kind hir.StmtKind) *hir.Stmt {
	return &hir.Stmt{ID: b.ids.Next(), Span: sp, Kind: kind}
}

func (b *builder) semi(e *hir.Expr) *hir.Stmt {
	return b.stmt(e.Span, &hir.StmtSemi{Expr: e})
}

func (b *builder) trailing(e *hir.Expr) *hir.Stmt {
	return b.stmt(e.Span, &hir.StmtExpr{Expr: e})
}

func (b *builder) bind(sp source.Span, name string, ty types.Ty) *hir.Pat {
	return &hir.Pat{ID: b.ids.Next(), Span: sp, Ty: ty, Kind: &hir.PatBind{Name: &hir.Ident{ID: b.ids.Next(), Span: sp, Name: name}}}
}

func (b *builder) let(mut ast.Mutability, p *hir.Pat, e *hir.Expr) *hir.Stmt {
	return b.stmt(e.Span, &hir.StmtLocal{Mutability: mut, Pat: p, Expr: e})
}

// use refers to the binding p.
func (b *builder) use(sp source.Span, p *hir.Pat) *hir.Expr {
	return b.expr(sp, p.Ty, &hir.ExprVar{Res: hir.ResLocal{Node: p.ID}})
}

func (b *builder) item(sp source.Span, it CoreItem, generics ...types.Ty) *hir.Expr {
	return b.expr(sp, it.Scheme.Instantiate(generics), &hir.ExprVar{Res: hir.ResItem{ID: it.ID}, Generics: generics})
}

// call applies callee to args; several args are passed as a tuple.
func (b *builder) call(sp source.Span, callee *hir.Expr, args ...*hir.Expr) *hir.Expr {
	var arg *hir.Expr
	if len(args) == 1 {
		arg = args[0]
	} else {
		arg = b.tuple(sp, args...)
	}
	out := types.Ty(types.Err{})
	if arrow, ok := callee.Ty.(*types.Arrow); ok {
		out = arrow.Output
	}
	return b.expr(sp, out, &hir.ExprCall{Callee: callee, Arg: arg})
}

func (b *builder) tuple(sp source.Span, items ...*hir.Expr) *hir.Expr {
	tys := make([]types.Ty, len(items))
	for i, item := range items {
		tys[i] = item.Ty
	}
	return b.expr(sp, &types.Tuple{Items: tys}, &hir.ExprTuple{Items: items})
}

func (b *builder) intLit(sp source.Span, v int64) *hir.Expr {
	return b.expr(sp, types.PrimInt, &hir.ExprLit{Lit: &ast.LitInt{Value: v}})
}

func (b *builder) boolLit(sp source.Span, v bool) *hir.Expr {
	return b.expr(sp, types.PrimBool, &hir.ExprLit{Lit: &ast.LitBool{Value: v}})
}

func (b *builder) binOp(sp source.Span, op hir.BinOp, lhs, rhs *hir.Expr) *hir.Expr {
	ty := lhs.Ty
	switch op {
	case ast.OpEq, ast.OpNeq, ast.OpLt, ast.OpLte, ast.OpGt, ast.OpGte, ast.OpAndL, ast.OpOrL:
		ty = types.PrimBool
	}
	return b.expr(sp, ty, &hir.ExprBinOp{Op: op, Lhs: lhs, Rhs: rhs})
}

func (b *builder) not(sp source.Span, e *hir.Expr) *hir.Expr {
	return b.expr(sp, types.PrimBool, &hir.ExprUnOp{Op: ast.OpNotL, Operand: e})
}

func (b *builder) assign(sp source.Span, lhs, rhs *hir.Expr) *hir.Expr {
	return b.expr(sp, types.Unit, &hir.ExprAssign{Lhs: lhs, Rhs: rhs})
}

func (b *builder) block(sp source.Span, ty types.Ty, stmts ...*hir.Stmt) *hir.Block {
	return &hir.Block{ID: b.ids.Next(), Span: sp, Ty: ty, Stmts: stmts}
}

func (b *builder) blockExpr(blk *hir.Block) *hir.Expr {
	return b.expr(blk.Span, blk.Ty, &hir.ExprBlock{Block: blk})
}

// adjoint wraps callee in Adjoint, cancelling an existing Adjoint.
func (b *builder) adjoint(callee *hir.Expr) *hir.Expr {
	if un, ok := callee.Kind.(*hir.ExprUnOp); ok && un.Op == ast.OpFunctorAdj {
		return un.Operand
	}
	return b.expr(callee.Span, callee.Ty, &hir.ExprUnOp{Op: ast.OpFunctorAdj, Operand: callee})
}

// controlled wraps callee in Controlled.
func (b *builder) controlled(callee *hir.Expr) *hir.Expr {
	ty := types.Ty(types.Err{})
	if arrow, ok := callee.Ty.(*types.Arrow); ok {
		ty = &types.Arrow{Kind: arrow.Kind, Input: types.ControlledInput(arrow.Input), Output: arrow.Output, Functors: arrow.Functors}
	}
	return b.expr(callee.Span, ty, &hir.ExprUnOp{Op: ast.OpFunctorCtl, Operand: callee})
}

// isOperationCall reports whether e calls an operation.
func isOperationCall(e *hir.Expr) bool {
	call, ok := e.Kind.(*hir.ExprCall)
	if !ok {
		return false
	}
	arrow, ok := call.Callee.Ty.(*types.Arrow)
	return ok && arrow.Kind == types.Operation
}

// hasOperationCall reports whether any operation is called inside node.
func hasOperationCall(node any) bool {
	found := false
	hir.Inspect(node, func(n any) bool {
		if found {
			return false
		}
		if e, ok := n.(*hir.Expr); ok && isOperationCall(e) {
			found = true
		}
		return !found
	})
	return found
}

// callee returns the item a callee expression ultimately refers to,
// looking through functor applications.
func calleeItem(e *hir.Expr) (hir.ItemID, bool) {
	switch k := e.Kind.(type) {
	case *hir.ExprVar:
		if r, ok := k.Res.(hir.ResItem); ok {
			return r.ID, true
		}
	case *hir.ExprUnOp:
		if k.Op == ast.OpFunctorAdj || k.Op == ast.OpFunctorCtl {
			return calleeItem(k.Operand)
		}
	}
	return hir.ItemID{}, false
}
