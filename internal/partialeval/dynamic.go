package partialeval

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"quill/internal/capability"
	"quill/internal/fir"
	"quill/internal/rir"
	"quill/internal/types"
)

func (e *evaluator) dynamicIf(s *Scope, x *fir.Expr, k *fir.ExprIf, cond VVar) (Value, *Error) {
	if err := e.require(capability.Adaptive, "branching on a measurement result"); err != nil {
		return nil, err
	}
	e.trace("pe.branch", fmt.Sprint(cond.Var))
	regions := []fir.ExprID{k.Body}
	if k.Otherwise != 0 {
		regions = append(regions, k.Otherwise)
	}
	if err := e.slots(s, regions, nil); err != nil {
		return nil, err
	}

	then, cont := e.prog.NewBlock(), e.prog.NewBlock()
	els := cont
	if k.Otherwise != 0 {
		els = e.prog.NewBlock()
	}
	from := e.stack.current()
	e.emit(rir.Branch(rir.Var(cond.Var), then, els))

	s.dyn++
	defer func() { s.dyn-- }()
	tv, thenEnd, err := e.region(then, k.Body, cont)
	if err != nil {
		return nil, err
	}
	var ev Value = unit
	elseEnd := from
	if k.Otherwise != 0 {
		if ev, elseEnd, err = e.region(els, k.Otherwise, cont); err != nil {
			return nil, err
		}
	}
	e.stack.resume(cont)
	if types.IsUnit(x.Ty) {
		return unit, nil
	}
	return e.merge(tv, thenEnd, ev, elseEnd)
}

// region evaluates one arm into block b and jumps to cont, returning the
// arm's value and the block it ended in.
func (e *evaluator) region(b rir.BlockID, body fir.ExprID, cont rir.BlockID) (Value, rir.BlockID, *Error) {
	e.stack.pushBlock(b)
	v, err := e.expr(body)
	if err != nil {
		e.stack.popBlock()
		return nil, 0, err
	}
	e.emit(rir.Jump(cont))
	return v, e.stack.popBlock(), nil
}

// merge joins the values two arms produced with phis in the current block.
func (e *evaluator) merge(a Value, aFrom rir.BlockID, b Value, bFrom rir.BlockID) (Value, *Error) {
	if equal(a, b) {
		return a, nil
	}
	switch av := a.(type) {
	case VTuple:
		bv, ok := b.(VTuple)
		if ok && len(av) == len(bv) {
			out := make(VTuple, len(av))
			for i := range av {
				v, err := e.merge(av[i], aFrom, bv[i], bFrom)
				if err != nil {
					return nil, err
				}
				out[i] = v
			}
			return out, nil
		}
	case VArray:
		bv, ok := b.(VArray)
		if ok && len(av) == len(bv) {
			out := make(VArray, len(av))
			for i := range av {
				v, err := e.merge(av[i], aFrom, bv[i], bFrom)
				if err != nil {
					return nil, err
				}
				out[i] = v
			}
			return out, nil
		}
	}
	ao, aok := operand(a)
	bo, bok := operand(b)
	if !aok || !bok || ao.Ty() != bo.Ty() || ao.Ty() == rir.TyQubit {
		return nil, unsupported(e.span, capability.HigherLevelConstructs, "branches produce %s and %s, which cannot be merged at run time", Format(a), Format(b))
	}
	dst := e.prog.NewVariable(ao.Ty())
	e.emit(rir.Phi(dst, rir.PhiArg{Value: ao, Block: aFrom}, rir.PhiArg{Value: bo, Block: bFrom}))
	return VVar{Var: dst}, nil
}

func (e *evaluator) dynamicLoop(s *Scope, k *fir.ExprWhile, cond VVar) (Value, *Error) {
	if err := e.require(capability.Adaptive|capability.BackwardsBranching, "looping on a measurement result"); err != nil {
		return nil, err
	}
	if err := e.slots(s, []fir.ExprID{k.Cond}, []fir.BlockID{k.Body}); err != nil {
		return nil, err
	}
	e.trace("pe.loop", fmt.Sprint(cond.Var))
	body, header, exit := e.prog.NewBlock(), e.prog.NewBlock(), e.prog.NewBlock()
	e.emit(rir.Branch(rir.Var(cond.Var), body, exit))

	s.dyn++
	defer func() { s.dyn-- }()
	e.stack.pushBlock(body)
	if _, err := e.block(k.Body); err != nil {
		e.stack.popBlock()
		return nil, err
	}
	e.emit(rir.Jump(header))
	e.stack.resume(header)
	again, err := e.expr(k.Cond)
	if err != nil {
		e.stack.popBlock()
		return nil, err
	}
	op, ok := operand(again)
	if !ok || op.Ty() != rir.TyBoolean {
		panic(errors.Errorf("partial evaluation: loop condition is %s", Format(again)))
	}
	e.emit(rir.Branch(op, body, exit))
	e.stack.popBlock()
	e.stack.resume(exit)
	return unit, nil
}

// slots moves locals the regions assign into memory so every path sees
// the latest store.
func (e *evaluator) slots(s *Scope, exprs []fir.ExprID, blocks []fir.BlockID) *Error {
	sc := scanner{pkg: s.pkg, assigned: make(map[fir.LocalVarID]bool), declared: make(map[fir.LocalVarID]bool)}
	for _, id := range exprs {
		sc.expr(id)
	}
	for _, id := range blocks {
		sc.block(id)
	}
	locals := make([]fir.LocalVarID, 0, len(sc.assigned))
	for l := range sc.assigned {
		if !sc.declared[l] {
			locals = append(locals, l)
		}
	}
	sort.Slice(locals, func(i, j int) bool { return locals[i] < locals[j] })
	for _, l := range locals {
		v, ok := s.locals[l]
		if !ok {
			continue
		}
		if _, ok := v.(VSlot); ok {
			continue
		}
		op, ok := operand(v)
		if !ok || op.Ty() == rir.TyQubit {
			return unsupported(e.span, capability.HigherLevelConstructs, "a mutable holding %s is assigned under a dynamic condition", Format(v))
		}
		slot := e.prog.NewVariable(op.Ty())
		e.emit(rir.Alloca(slot))
		e.emit(rir.Store(op, slot))
		s.locals[l] = VSlot{Var: slot}
	}
	return nil
}

// scanner collects the locals a region assigns and the ones it declares.
type scanner struct {
	pkg      *fir.Package
	assigned map[fir.LocalVarID]bool
	declared map[fir.LocalVarID]bool
}

func (sc *scanner) block(id fir.BlockID) {
	for _, sid := range sc.pkg.Block(id).Stmts {
		switch k := sc.pkg.Stmt(sid).Kind.(type) {
		case *fir.StmtExpr:
			sc.expr(k.Expr)
		case *fir.StmtSemi:
			sc.expr(k.Expr)
		case *fir.StmtLocal:
			sc.pat(k.Pat)
			sc.expr(k.Expr)
		}
	}
}

func (sc *scanner) pat(id fir.PatID) {
	switch k := sc.pkg.Pat(id).Kind.(type) {
	case *fir.PatBind:
		sc.declared[k.Local] = true
	case *fir.PatTuple:
		for _, item := range k.Items {
			sc.pat(item)
		}
	}
}

// target marks the locals an assignment writes.
func (sc *scanner) target(id fir.ExprID) {
	switch k := sc.pkg.Expr(id).Kind.(type) {
	case *fir.ExprVar:
		if r, ok := k.Res.(fir.ResLocal); ok {
			sc.assigned[r.Local] = true
		}
	case *fir.ExprTuple:
		for _, item := range k.Items {
			sc.target(item)
		}
	}
}

func (sc *scanner) expr(id fir.ExprID) {
	if id == 0 {
		return
	}
	switch k := sc.pkg.Expr(id).Kind.(type) {
	case *fir.ExprArray:
		sc.exprs(k.Items...)
	case *fir.ExprArrayRepeat:
		sc.exprs(k.Value, k.Size)
	case *fir.ExprAssign:
		sc.target(k.Lhs)
		sc.expr(k.Rhs)
	case *fir.ExprAssignOp:
		sc.target(k.Lhs)
		sc.expr(k.Rhs)
	case *fir.ExprAssignIndex:
		sc.target(k.Array)
		sc.exprs(k.Index, k.Value)
	case *fir.ExprBinOp:
		sc.exprs(k.Lhs, k.Rhs)
	case *fir.ExprBlock:
		sc.block(k.Block)
	case *fir.ExprCall:
		sc.exprs(k.Callee, k.Arg)
	case *fir.ExprFail:
		sc.expr(k.Msg)
	case *fir.ExprIf:
		sc.exprs(k.Cond, k.Body, k.Otherwise)
	case *fir.ExprIndex:
		sc.exprs(k.Array, k.Index)
	case *fir.ExprRange:
		sc.exprs(k.Start, k.Step, k.End)
	case *fir.ExprReturn:
		sc.expr(k.Value)
	case *fir.ExprTuple:
		sc.exprs(k.Items...)
	case *fir.ExprUnOp:
		sc.expr(k.Operand)
	case *fir.ExprUpdateIndex:
		sc.exprs(k.Array, k.Index, k.Value)
	case *fir.ExprWhile:
		sc.expr(k.Cond)
		sc.block(k.Body)
	}
}

func (sc *scanner) exprs(ids ...fir.ExprID) {
	for _, id := range ids {
		sc.expr(id)
	}
}
