package passes

import (
	"quill/internal/ast"
	"quill/internal/hir"
	"quill/internal/source"
	"quill/internal/types"
)

// UnifyLoops rewrites for-loops and repeat-until loops into while loops, the
// single loop form later stages handle.
func UnifyLoops(pkg *hir.Package, b *builder) {
	forEachBlock(pkg, func(blk *hir.Block) {
		hir.Inspect(blk, func(n any) bool {
			e, ok := n.(*hir.Expr)
			if !ok {
				return true
			}
			switch k := e.Kind.(type) {
			case *hir.ExprFor:
				if types.Equal(k.Iterable.Ty, types.PrimRange) {
					e.Kind = &hir.ExprBlock{Block: forRange(b, e.Span, k)}
				} else {
					e.Kind = &hir.ExprBlock{Block: forArray(b, e.Span, k)}
				}
			case *hir.ExprRepeat:
				e.Kind = &hir.ExprBlock{Block: repeatUntil(b, e.Span, k)}
			}
			return true
		})
	})
}

func (b *builder) while(sp source.Span, cond *hir.Expr, body *hir.Block) *hir.Stmt {
	return b.semi(b.expr(sp, types.Unit, &hir.ExprWhile{Cond: cond, Body: body}))
}

func (b *builder) addAssign(sp source.Span, lhs, rhs *hir.Expr) *hir.Stmt {
	return b.semi(b.expr(sp, types.Unit, &hir.ExprAssignOp{Op: ast.OpAdd, Lhs: lhs, Rhs: rhs}))
}

// forRange:
//
//	{ mutable idx = start; let step = s; let end = e;
//	  while (step > 0 and idx <= end) or (step < 0 and idx >= end) {
//	      let x = idx; { body } set idx += step; } }
func forRange(b *builder, sp source.Span, loop *hir.ExprFor) *hir.Block {
	var stmts []*hir.Stmt
	var start, step, end *hir.Expr
	if r, ok := loop.Iterable.Kind.(*hir.ExprRange); ok && r.Start != nil && r.End != nil {
		start, step, end = r.Start, r.Step, r.End
	} else {
		rng := b.bind(sp, "__range", types.PrimRange)
		stmts = append(stmts, b.let(ast.Immutable, rng, loop.Iterable))
		start = b.call(sp, b.item(sp, b.core.RangeStart), b.use(sp, rng))
		step = b.call(sp, b.item(sp, b.core.RangeStep), b.use(sp, rng))
		end = b.call(sp, b.item(sp, b.core.RangeEnd), b.use(sp, rng))
	}
	if step == nil {
		step = b.intLit(sp, 1)
	}

	idx := b.bind(sp, "__idx", types.PrimInt)
	stepVar := b.bind(sp, "__step", types.PrimInt)
	endVar := b.bind(sp, "__end", types.PrimInt)
	stmts = append(stmts,
		b.let(ast.Mutable, idx, start),
		b.let(ast.Immutable, stepVar, step),
		b.let(ast.Immutable, endVar, end),
	)

	var cond *hir.Expr
	up := b.binOp(sp, ast.OpLte, b.use(sp, idx), b.use(sp, endVar))
	down := b.binOp(sp, ast.OpGte, b.use(sp, idx), b.use(sp, endVar))
	switch sign := literalSign(step); {
	case sign > 0:
		cond = up
	case sign < 0:
		cond = down
	default:
		zero := func() *hir.Expr { return b.intLit(sp, 0) }
		cond = b.binOp(sp, ast.OpOrL,
			b.binOp(sp, ast.OpAndL, b.binOp(sp, ast.OpGt, b.use(sp, stepVar), zero()), up),
			b.binOp(sp, ast.OpAndL, b.binOp(sp, ast.OpLt, b.use(sp, stepVar), zero()), down))
	}

	body := b.block(loop.Body.Span, types.Unit,
		b.let(ast.Immutable, loop.Pat, b.use(sp, idx)),
		b.semi(b.blockExpr(loop.Body)),
		b.addAssign(sp, b.use(sp, idx), b.use(sp, stepVar)),
	)
	stmts = append(stmts, b.while(sp, cond, body))
	return b.block(sp, types.Unit, stmts...)
}

func literalSign(e *hir.Expr) int {
	switch k := e.Kind.(type) {
	case *hir.ExprLit:
		if i, ok := k.Lit.(*ast.LitInt); ok {
			switch {
			case i.Value > 0:
				return 1
			case i.Value < 0:
				return -1
			}
		}
	case *hir.ExprUnOp:
		if k.Op == ast.OpNeg {
			return -literalSign(k.Operand)
		}
	}
	return 0
}

// forArray:
//
//	{ let arr = a; let len = Length(arr); mutable idx = 0;
//	  while idx < len { let x = arr[idx]; { body } set idx += 1; } }
func forArray(b *builder, sp source.Span, loop *hir.ExprFor) *hir.Block {
	arrTy, ok := loop.Iterable.Ty.(*types.Array)
	if !ok {
		arrTy = &types.Array{Item: types.Err{}}
	}
	arr := b.bind(sp, "__array", arrTy)
	length := b.bind(sp, "__len", types.PrimInt)
	idx := b.bind(sp, "__idx", types.PrimInt)
	elem := b.expr(sp, arrTy.Item, &hir.ExprIndex{Array: b.use(sp, arr), Index: b.use(sp, idx)})
	body := b.block(loop.Body.Span, types.Unit,
		b.let(ast.Immutable, loop.Pat, elem),
		b.semi(b.blockExpr(loop.Body)),
		b.addAssign(sp, b.use(sp, idx), b.intLit(sp, 1)),
	)
	return b.block(sp, types.Unit,
		b.let(ast.Immutable, arr, loop.Iterable),
		b.let(ast.Immutable, length, b.call(sp, b.item(sp, b.core.Length, arrTy.Item), b.use(sp, arr))),
		b.let(ast.Mutable, idx, b.intLit(sp, 0)),
		b.while(sp, b.binOp(sp, ast.OpLt, b.use(sp, idx), b.use(sp, length)), body),
	)
}

// repeatUntil:
//
//	{ mutable more = true;
//	  while more { body...; set more = not cond; if more { fixup } } }
func repeatUntil(b *builder, sp source.Span, loop *hir.ExprRepeat) *hir.Block {
	more := b.bind(sp, "__continue", types.PrimBool)
	stmts := append([]*hir.Stmt(nil), loop.Body.Stmts...)
	if n := len(stmts); n > 0 {
		// a trailing expression becomes a statement inside the loop
		if last, ok := stmts[n-1].Kind.(*hir.StmtExpr); ok {
			stmts[n-1] = b.semi(last.Expr)
		}
	}
	stmts = append(stmts, b.semi(b.assign(sp, b.use(sp, more), b.not(sp, loop.Until))))
	if loop.Fixup != nil {
		fix := b.expr(sp, types.Unit, &hir.ExprIf{Cond: b.use(sp, more), Body: b.blockExpr(loop.Fixup)})
		stmts = append(stmts, b.semi(fix))
	}
	return b.block(sp, types.Unit,
		b.let(ast.Mutable, more, b.boolLit(sp, true)),
		b.while(sp, b.use(sp, more), b.block(loop.Body.Span, types.Unit, stmts...)),
	)
}
