package sema

import (
	"quill/internal/ast"
	"quill/internal/hir"
	"quill/internal/ids"
	"quill/internal/types"
)

// Recheck re-derives the type of every HIR expression from its operands and
// compares it with the type stored by lowering. A well-typed package yields
// no errors; anything else means lowering or a pass broke typing.
func Recheck(pkg *hir.Package, globals *Globals) []Error {
	rc := &rechecker{globals: globals, locals: make(map[ids.NodeID]types.Ty)}
	for _, item := range pkg.SortedItems() {
		if c, ok := item.Kind.(*hir.ItemCallable); ok {
			hir.Inspect(c.Decl, rc.visit)
		}
	}
	for _, s := range pkg.Stmts {
		hir.Inspect(s, rc.visit)
	}
	return rc.errs
}

type rechecker struct {
	globals *Globals
	locals  map[ids.NodeID]types.Ty
	errs    []Error
}

func (rc *rechecker) visit(n any) bool {
	switch n := n.(type) {
	case *hir.Pat:
		if _, ok := n.Kind.(*hir.PatBind); ok {
			rc.locals[n.ID] = n.Ty
		}
	case *hir.Expr:
		got := rc.synth(n)
		if got != nil && !types.Equal(n.Ty, got) && !types.HasErr(got) {
			rc.errs = append(rc.errs, Error{Kind: ErrMismatch, Span: n.Span, Expected: n.Ty, Actual: got})
		}
	}
	return true
}

// synth computes the type of e from its children's stored types. It returns
// nil when the expression's type is not determined structurally.
func (rc *rechecker) synth(e *hir.Expr) types.Ty {
	switch k := e.Kind.(type) {
	case *hir.ExprArray:
		if len(k.Items) == 0 {
			return nil
		}
		return &types.Array{Item: k.Items[0].Ty}
	case *hir.ExprArrayRepeat:
		return &types.Array{Item: k.Value.Ty}
	case *hir.ExprAssign, *hir.ExprAssignOp, *hir.ExprAssignIndex, *hir.ExprFor, *hir.ExprRepeat, *hir.ExprWhile:
		return types.Unit
	case *hir.ExprBinOp:
		switch k.Op {
		case ast.OpEq, ast.OpNeq, ast.OpLt, ast.OpLte, ast.OpGt, ast.OpGte, ast.OpAndL, ast.OpOrL:
			return types.PrimBool
		}
		return k.Lhs.Ty
	case *hir.ExprBlock:
		return k.Block.Ty
	case *hir.ExprCall:
		if arrow, ok := k.Callee.Ty.(*types.Arrow); ok {
			return arrow.Output
		}
		return nil
	case *hir.ExprConjugate:
		return k.Apply.Ty
	case *hir.ExprIf:
		if k.Otherwise == nil {
			return types.Unit
		}
		return k.Body.Ty
	case *hir.ExprIndex:
		arr, ok := k.Array.Ty.(*types.Array)
		if !ok {
			return nil
		}
		if types.Equal(k.Index.Ty, types.PrimRange) {
			return arr
		}
		return arr.Item
	case *hir.ExprLit:
		return litTy(k.Lit, e.Ty)
	case *hir.ExprRange:
		return types.PrimRange
	case *hir.ExprTuple:
		items := make([]types.Ty, len(k.Items))
		for i, item := range k.Items {
			items[i] = item.Ty
		}
		return &types.Tuple{Items: items}
	case *hir.ExprUnOp:
		switch k.Op {
		case ast.OpNotL:
			return types.PrimBool
		case ast.OpUnwrap:
			if u, ok := k.Operand.Ty.(*types.Udt); ok {
				if def, ok := rc.globals.Udts[u.ID]; ok {
					return def.Base
				}
			}
			return nil
		case ast.OpFunctorCtl:
			arrow, ok := k.Operand.Ty.(*types.Arrow)
			if !ok {
				return nil
			}
			return &types.Arrow{Kind: arrow.Kind, Input: types.ControlledInput(arrow.Input), Output: arrow.Output, Functors: arrow.Functors}
		}
		return k.Operand.Ty
	case *hir.ExprUpdateIndex:
		return k.Array.Ty
	case *hir.ExprVar:
		switch r := k.Res.(type) {
		case hir.ResLocal:
			return rc.locals[r.Node]
		case hir.ResItem:
			scheme, ok := rc.globals.Term(r.ID)
			if !ok {
				return nil
			}
			return scheme.Instantiate(k.Generics)
		}
	}
	// fail, return, holes and errors take whatever the context wanted
	return nil
}

func litTy(l hir.Lit, stored types.Ty) types.Ty {
	switch l.(type) {
	case *ast.LitBigInt:
		return types.PrimBigInt
	case *ast.LitBool:
		return types.PrimBool
	case *ast.LitDouble:
		return types.PrimDouble
	case *ast.LitInt:
		if types.Equal(stored, types.PrimBigInt) {
			return types.PrimBigInt
		}
		return types.PrimInt
	case *ast.LitPauli:
		return types.PrimPauli
	case *ast.LitResult:
		return types.PrimResult
	case *ast.LitString:
		return types.PrimString
	}
	return nil
}
