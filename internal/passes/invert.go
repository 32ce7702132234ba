package passes

import (
	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/hir"
	"quill/internal/types"
)

// inverter builds the adjoint of a block: classical statements keep their
// order and run first, quantum statements run reversed with every operation
// call adjointed.
type inverter struct {
	*builder
	errs []Error
}

func (inv *inverter) fail(code diag.Code, n *hir.Expr, what string) {
	inv.errs = append(inv.errs, errorf(code, n.Span, "cannot generate adjoint: %s", what))
}

// block inverts b in place; b must be a private copy.
func (inv *inverter) block(b *hir.Block) {
	var classical, quantum []*hir.Stmt
	for _, s := range b.Stmts {
		if !hasOperationCall(s) {
			classical = append(classical, s)
			continue
		}
		if _, ok := s.Kind.(*hir.StmtQubit); ok {
			// allocation scopes the rest of the block and must stay first
			classical = append(classical, s)
			continue
		}
		inv.stmt(s)
		quantum = append(quantum, s)
	}
	for i, j := 0, len(quantum)-1; i < j; i, j = i+1, j-1 {
		quantum[i], quantum[j] = quantum[j], quantum[i]
	}
	b.Stmts = append(classical, quantum...)
}

func (inv *inverter) stmt(s *hir.Stmt) {
	switch k := s.Kind.(type) {
	case *hir.StmtExpr:
		inv.expr(k.Expr)
	case *hir.StmtSemi:
		inv.expr(k.Expr)
	case *hir.StmtLocal:
		inv.errs = append(inv.errs, errorf(diag.PassSpecNotInvertible, s.Span, "cannot generate adjoint: binding the result of an operation call"))
	case *hir.StmtItem, *hir.StmtQubit:
	}
}

func (inv *inverter) expr(e *hir.Expr) {
	switch k := e.Kind.(type) {
	case *hir.ExprCall:
		if hasOperationCall(k.Arg) {
			inv.fail(diag.PassSpecNotInvertible, e, "operation call in an argument")
			return
		}
		if !isOperationCall(e) {
			return
		}
		if arrow, ok := k.Callee.Ty.(*types.Arrow); ok && !arrow.Functors.Contains(types.Adj) {
			if _, isItem := calleeItem(k.Callee); !isItem {
				inv.fail(diag.PassMissingFunctor, e, "callee does not support Adjoint")
			}
		}
		k.Callee = inv.adjoint(k.Callee)
	case *hir.ExprBlock:
		inv.block(k.Block)
	case *hir.ExprIf:
		if hasOperationCall(k.Cond) {
			inv.fail(diag.PassSpecNotInvertible, e, "operation call in a condition")
			return
		}
		inv.expr(k.Body)
		if k.Otherwise != nil {
			inv.expr(k.Otherwise)
		}
	case *hir.ExprFor:
		if hasOperationCall(k.Iterable) {
			inv.fail(diag.PassSpecNotInvertible, e, "operation call in a loop iterable")
			return
		}
		k.Iterable = inv.reversed(k.Iterable)
		inv.block(k.Body)
	case *hir.ExprConjugate:
		// Adjoint (within U apply W) = within U apply Adjoint W
		inv.block(k.Apply)
	case *hir.ExprWhile:
		inv.fail(diag.PassSpecNotInvertible, e, "while loops are not invertible")
	case *hir.ExprRepeat:
		inv.fail(diag.PassSpecNotInvertible, e, "repeat loops are not invertible")
	case *hir.ExprReturn:
		inv.fail(diag.PassSpecNotInvertible, e, "return is not invertible")
	case *hir.ExprAssign, *hir.ExprAssignOp, *hir.ExprAssignIndex:
		inv.fail(diag.PassSpecNotInvertible, e, "assigning the result of an operation call")
	default:
		inv.fail(diag.PassSpecNotInvertible, e, "operation call in an expression")
	}
}

// reversed iterates the same elements backwards.
func (inv *inverter) reversed(iter *hir.Expr) *hir.Expr {
	if types.Equal(iter.Ty, types.PrimRange) {
		return inv.call(iter.Span, inv.item(iter.Span, inv.core.RangeReverse), iter)
	}
	arr, ok := iter.Ty.(*types.Array)
	if !ok {
		return iter
	}
	return inv.call(iter.Span, inv.item(iter.Span, inv.core.Reversed, arr.Item), iter)
}

// distributor builds a controlled specialization: every operation call is
// controlled on the register, except inside within-blocks.
type distributor struct {
	*builder
	ctls *hir.Pat
	errs []Error
}

func (d *distributor) block(b *hir.Block) {
	hir.Inspect(b, func(n any) bool {
		e, ok := n.(*hir.Expr)
		if !ok {
			return true
		}
		if conj, ok := e.Kind.(*hir.ExprConjugate); ok {
			// within stays uncontrolled
			d.block(conj.Apply)
			return false
		}
		if isOperationCall(e) {
			d.call(e)
		}
		return true
	})
}

func (d *distributor) call(e *hir.Expr) {
	call := e.Kind.(*hir.ExprCall)
	arrow := call.Callee.Ty.(*types.Arrow)
	if !arrow.Functors.Contains(types.Ctl) {
		if _, ok := calleeItem(call.Callee); !ok {
			d.errs = append(d.errs, errorf(diag.PassMissingFunctor, e.Span, "cannot generate controlled: callee does not support Controlled"))
			return
		}
	}
	call.Callee = d.controlled(call.Callee)
	call.Arg = d.tuple(call.Arg.Span, d.use(call.Arg.Span, d.ctls), call.Arg)
}

// functorsOf is the functor set required by a specialization kind.
func functorsOf(s ast.Spec) types.FunctorSet {
	switch s {
	case ast.SpecAdj:
		return types.Adj
	case ast.SpecCtl:
		return types.Ctl
	case ast.SpecCtlAdj:
		return types.CtlAdj
	}
	return types.Empty
}
