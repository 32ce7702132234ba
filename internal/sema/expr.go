package sema

import (
	"quill/internal/ast"
	"quill/internal/symbols"
	"quill/internal/types"
)

func (tc *Checker) inferBlock(b *ast.Block) types.Ty {
	ty := types.Unit
	for i, s := range b.Stmts {
		st := tc.inferStmt(s)
		if i == len(b.Stmts)-1 {
			ty = st
		} else if _, ok := s.Kind.(*ast.StmtExpr); ok {
			tc.in.unify(types.Unit, st, s.Span)
		}
	}
	tc.record(b.ID, b.Span, ty)
	return ty
}

// inferStmt returns the statement's value type: the expression type for a
// trailing expression, Unit otherwise.
func (tc *Checker) inferStmt(s *ast.Stmt) types.Ty {
	switch k := s.Kind.(type) {
	case *ast.StmtExpr:
		return tc.inferExpr(k.Expr)
	case *ast.StmtSemi:
		ty := tc.inferExpr(k.Expr)
		if isDiverging(k.Expr) {
			return ty
		}
	case *ast.StmtLocal:
		ty := tc.inferExpr(k.Expr)
		tc.bindPat(k.Pat, ty)
	case *ast.StmtQubit:
		ty := tc.inferQubitInit(k.Init)
		tc.bindPat(k.Pat, ty)
		if k.Block != nil {
			return tc.inferBlock(k.Block)
		}
	case *ast.StmtEmpty, *ast.StmtItem, *ast.StmtErr:
	}
	return types.Unit
}

// isDiverging reports whether a statement never completes normally, so the
// enclosing block takes whatever type the context expects.
func isDiverging(e *ast.Expr) bool {
	switch e.Kind.(type) {
	case *ast.ExprReturn, *ast.ExprFail:
		return true
	}
	return false
}

func (tc *Checker) inferQubitInit(q *ast.QubitInit) types.Ty {
	var ty types.Ty
	switch k := q.Kind.(type) {
	case *ast.QubitSingle:
		ty = types.PrimQubit
	case *ast.QubitArray:
		tc.expect(k.Size, types.PrimInt)
		ty = &types.Array{Item: types.PrimQubit}
	case *ast.QubitParen:
		ty = tc.inferQubitInit(k.Inner)
	case *ast.QubitTuple:
		items := make([]types.Ty, len(k.Items))
		for i, item := range k.Items {
			items[i] = tc.inferQubitInit(item)
		}
		ty = &types.Tuple{Items: items}
	}
	return tc.record(q.ID, q.Span, ty)
}

// bindPat types a binding pattern against the value type and declares its
// locals.
func (tc *Checker) bindPat(p *ast.Pat, value types.Ty) {
	switch k := p.Kind.(type) {
	case *ast.PatBind:
		ty := value
		if k.Ty != nil {
			ty = tc.convertTy(k.Ty, tc.in)
			tc.in.unify(ty, value, p.Span)
		}
		tc.record(p.ID, p.Span, ty)
		tc.locals[p.ID] = ty
		tc.pendingLocals = append(tc.pendingLocals, p.ID)
	case *ast.PatDiscard:
		ty := value
		if k.Ty != nil {
			ty = tc.convertTy(k.Ty, tc.in)
			tc.in.unify(ty, value, p.Span)
		}
		tc.record(p.ID, p.Span, ty)
	case *ast.PatElided:
		ty := tc.input
		if ty == nil {
			ty = types.Err{}
		}
		tc.record(p.ID, p.Span, ty)
	case *ast.PatParen:
		tc.bindPat(k.Inner, value)
		tc.record(p.ID, p.Span, value)
	case *ast.PatTuple:
		items := make([]types.Ty, len(k.Items))
		for i := range items {
			items[i] = tc.in.fresh()
		}
		tup := &types.Tuple{Items: items}
		tc.in.unify(tup, value, p.Span)
		for i, item := range k.Items {
			tc.bindPat(item, items[i])
		}
		tc.record(p.ID, p.Span, tup)
	}
}

func (tc *Checker) expect(e *ast.Expr, want types.Ty) {
	tc.in.unify(want, tc.inferExpr(e), e.Span)
}

func (tc *Checker) inferExpr(e *ast.Expr) types.Ty {
	return tc.record(e.ID, e.Span, tc.inferExprKind(e))
}

func (tc *Checker) inferExprKind(e *ast.Expr) types.Ty {
	in := tc.in
	switch k := e.Kind.(type) {
	case *ast.ExprArray:
		item := types.Ty(in.fresh())
		for _, el := range k.Items {
			in.unify(item, tc.inferExpr(el), el.Span)
		}
		return &types.Array{Item: item}
	case *ast.ExprArrayRepeat:
		item := tc.inferExpr(k.Value)
		tc.expect(k.Size, types.PrimInt)
		return &types.Array{Item: item}
	case *ast.ExprAssign:
		lhs := tc.inferAssignee(k.Lhs)
		in.unify(lhs, tc.inferExpr(k.Rhs), k.Rhs.Span)
		return types.Unit
	case *ast.ExprAssignOp:
		lhs := tc.inferExpr(k.Lhs)
		rhs := tc.inferExpr(k.Rhs)
		tc.inferBinOp(k.Op, lhs, rhs, e)
		return types.Unit
	case *ast.ExprAssignUpdate:
		container := tc.inferExpr(k.Record)
		index := tc.inferExpr(k.Index)
		value := tc.inferExpr(k.Value)
		in.addClass(classHasIndex, e.Span, container, index, value)
		return types.Unit
	case *ast.ExprBinOp:
		return tc.inferBinOp(k.Op, tc.inferExpr(k.Lhs), tc.inferExpr(k.Rhs), e)
	case *ast.ExprBlock:
		return tc.inferBlock(k.Block)
	case *ast.ExprCall:
		callee := tc.inferExpr(k.Callee)
		arg := tc.inferExpr(k.Arg)
		out := in.fresh()
		in.addClass(classCall, e.Span, callee, arg, out)
		return out
	case *ast.ExprConjugate:
		in.unify(types.Unit, tc.inferBlock(k.Within), k.Within.Span)
		return tc.inferBlock(k.Apply)
	case *ast.ExprFail:
		tc.expect(k.Msg, types.PrimString)
		return in.freshDiverging()
	case *ast.ExprFor:
		container := tc.inferExpr(k.Iterable)
		item := in.fresh()
		in.addClass(classIterable, k.Iterable.Span, container, item)
		tc.bindPat(k.Pat, item)
		in.unify(types.Unit, tc.inferBlock(k.Body), k.Body.Span)
		return types.Unit
	case *ast.ExprHole:
		tc.report(Error{Kind: ErrAmbiguous, Span: e.Span})
		return types.Err{}
	case *ast.ExprIf:
		tc.expect(k.Cond, types.PrimBool)
		body := tc.inferBlock(k.Body)
		if k.Otherwise == nil {
			in.unify(types.Unit, body, k.Body.Span)
			return types.Unit
		}
		in.unify(body, tc.inferExpr(k.Otherwise), k.Otherwise.Span)
		return body
	case *ast.ExprIndex:
		container := tc.inferExpr(k.Array)
		index := tc.inferExpr(k.Index)
		item := in.fresh()
		in.addClass(classHasIndex, e.Span, container, index, item)
		return item
	case *ast.ExprLit:
		return tc.inferLit(k.Lit, e)
	case *ast.ExprParen:
		return tc.inferExpr(k.Inner)
	case *ast.ExprPath:
		return tc.inferPath(e, k.Path)
	case *ast.ExprRange:
		for _, part := range []*ast.Expr{k.Start, k.Step, k.End} {
			if part != nil {
				tc.expect(part, types.PrimInt)
			}
		}
		return types.PrimRange
	case *ast.ExprRepeat:
		tc.inferBlock(k.Body)
		tc.expect(k.Until, types.PrimBool)
		if k.Fixup != nil {
			in.unify(types.Unit, tc.inferBlock(k.Fixup), k.Fixup.Span)
		}
		return types.Unit
	case *ast.ExprReturn:
		value := tc.inferExpr(k.Value)
		in.unify(tc.output, value, k.Value.Span)
		return in.freshDiverging()
	case *ast.ExprTernary:
		tc.expect(k.Cond, types.PrimBool)
		ty := tc.inferExpr(k.IfTrue)
		in.unify(ty, tc.inferExpr(k.IfFalse), k.IfFalse.Span)
		return ty
	case *ast.ExprTuple:
		items := make([]types.Ty, len(k.Items))
		for i, item := range k.Items {
			items[i] = tc.inferExpr(item)
		}
		return &types.Tuple{Items: items}
	case *ast.ExprUnOp:
		return tc.inferUnOp(k, e)
	case *ast.ExprUpdate:
		container := tc.inferExpr(k.Record)
		index := tc.inferExpr(k.Index)
		value := tc.inferExpr(k.Value)
		in.addClass(classHasIndex, e.Span, container, index, value)
		return container
	case *ast.ExprWhile:
		tc.expect(k.Cond, types.PrimBool)
		in.unify(types.Unit, tc.inferBlock(k.Body), k.Body.Span)
		return types.Unit
	case *ast.ExprErr:
		return types.Err{}
	}
	return types.Err{}
}

// inferAssignee types the left side of `set`: paths, tuples of paths and
// discards.
func (tc *Checker) inferAssignee(e *ast.Expr) types.Ty {
	switch k := e.Kind.(type) {
	case *ast.ExprHole:
		return tc.record(e.ID, e.Span, tc.in.fresh())
	case *ast.ExprTuple:
		items := make([]types.Ty, len(k.Items))
		for i, item := range k.Items {
			items[i] = tc.inferAssignee(item)
		}
		return tc.record(e.ID, e.Span, &types.Tuple{Items: items})
	case *ast.ExprParen:
		return tc.record(e.ID, e.Span, tc.inferAssignee(k.Inner))
	}
	return tc.inferExpr(e)
}

func (tc *Checker) inferLit(l ast.Lit, e *ast.Expr) types.Ty {
	switch l.(type) {
	case *ast.LitBigInt:
		return types.PrimBigInt
	case *ast.LitBool:
		return types.PrimBool
	case *ast.LitDouble:
		return types.PrimDouble
	case *ast.LitInt:
		v := tc.in.fresh()
		tc.in.addClass(classIntLiteral, e.Span, v)
		return v
	case *ast.LitPauli:
		return types.PrimPauli
	case *ast.LitResult:
		return types.PrimResult
	case *ast.LitString:
		return types.PrimString
	}
	return types.Err{}
}

func (tc *Checker) inferPath(e *ast.Expr, path *ast.Path) types.Ty {
	switch res := tc.names[path.ID].(type) {
	case symbols.ResLocal:
		if ty, ok := tc.locals[res.Node]; ok {
			return ty
		}
	case symbols.ResItem:
		scheme, ok := tc.globals.Term(res.ID)
		if !ok {
			return types.Err{}
		}
		if len(scheme.Params) == 0 {
			return scheme.Ty
		}
		args := make([]types.Ty, len(scheme.Params))
		for i := range args {
			args[i] = tc.in.fresh()
		}
		tc.table.Generics[e.ID] = args
		tc.pendingGenerics = append(tc.pendingGenerics, e.ID)
		return scheme.Instantiate(args)
	}
	return types.Err{}
}

func (tc *Checker) inferBinOp(op ast.BinOp, lhs, rhs types.Ty, e *ast.Expr) types.Ty {
	in := tc.in
	switch op {
	case ast.OpAdd:
		in.unifyOperands(lhs, rhs, e.Span)
		in.addClass(classAdd, e.Span, lhs)
		return lhs
	case ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod:
		in.unifyOperands(lhs, rhs, e.Span)
		in.addClass(classNum, e.Span, lhs)
		return lhs
	case ast.OpExp:
		in.addClass(classExp, e.Span, lhs, rhs)
		return lhs
	case ast.OpEq, ast.OpNeq:
		in.unifyOperands(lhs, rhs, e.Span)
		in.addClass(classEq, e.Span, lhs)
		return types.PrimBool
	case ast.OpLt, ast.OpLte, ast.OpGt, ast.OpGte:
		in.unifyOperands(lhs, rhs, e.Span)
		in.addClass(classNum, e.Span, lhs)
		return types.PrimBool
	case ast.OpAndL, ast.OpOrL:
		in.unify(types.PrimBool, lhs, e.Span)
		in.unify(types.PrimBool, rhs, e.Span)
		return types.PrimBool
	case ast.OpAndB, ast.OpOrB, ast.OpXorB:
		in.unifyOperands(lhs, rhs, e.Span)
		in.addClass(classIntegral, e.Span, lhs)
		return lhs
	case ast.OpShl, ast.OpShr:
		in.addClass(classIntegral, e.Span, lhs)
		in.unify(types.PrimInt, rhs, e.Span)
		return lhs
	}
	return types.Err{}
}

func (tc *Checker) inferUnOp(k *ast.ExprUnOp, e *ast.Expr) types.Ty {
	in := tc.in
	operand := tc.inferExpr(k.Operand)
	switch k.Op {
	case ast.OpNeg, ast.OpPos:
		in.addClass(classNum, e.Span, operand)
		return operand
	case ast.OpNotB:
		in.addClass(classIntegral, e.Span, operand)
		return operand
	case ast.OpNotL:
		in.unify(types.PrimBool, operand, e.Span)
		return types.PrimBool
	case ast.OpUnwrap:
		base := in.fresh()
		in.addClass(classUnwrap, e.Span, operand, base)
		return base
	case ast.OpFunctorAdj:
		in.addClass(classAdj, e.Span, operand)
		return operand
	case ast.OpFunctorCtl:
		out := in.fresh()
		in.addClass(classCtl, e.Span, operand, out)
		return out
	}
	return types.Err{}
}
