// Package partialeval turns a FIR program into a static RIR program. It
// interprets everything the compiler can know, emitting instructions only
// for quantum operations and for classical computation on values that
// depend on measurements.
package partialeval

import (
	"context"
	"fmt"
	"math/big"

	"github.com/pkg/errors"

	"quill/internal/ast"
	"quill/internal/capability"
	"quill/internal/fir"
	"quill/internal/rca"
	"quill/internal/rir"
	"quill/internal/source"
	"quill/internal/trace"
)

// DefaultLoopLimit caps the iterations of a statically unrolled loop.
const DefaultLoopLimit = 100000

type Options struct {
	Capabilities capability.Flags
	// LoopLimit of zero means DefaultLoopLimit.
	LoopLimit int
	// TopLevel evaluates the top-level statements even when the package
	// has an entry point.
	TopLevel bool
}

type evaluator struct {
	ctx      context.Context
	tracer   trace.Tracer
	store    *fir.PackageStore
	analysis *rca.Analysis
	opts     Options

	// user is the package being compiled; errors raised in other packages
	// are reported at the call that entered them
	user       fir.PackageID
	prog       *rir.Program
	stack      Context
	qubits     qubits
	results    uint32
	intrinsics map[string]rir.CallableID
	// nesting of calls RCA found fully classical; nothing may be emitted
	classical int
	span      source.Span
	spans     spanStack
}

// Evaluate runs the entry point of pkg, or its top-level statements when
// it has none, and returns the program that remains for run time.
// analysis may be nil, which disables the classical fast path.
func Evaluate(ctx context.Context, store *fir.PackageStore, pkg *fir.Package, analysis *rca.Analysis, opts Options) (*rir.Program, *Error) {
	if opts.LoopLimit <= 0 {
		opts.LoopLimit = DefaultLoopLimit
	}
	e := &evaluator{
		ctx:        ctx,
		tracer:     trace.FromContext(ctx),
		store:      store,
		analysis:   analysis,
		opts:       opts,
		user:       pkg.ID,
		prog:       rir.NewProgram(),
		intrinsics: make(map[string]rir.CallableID),
	}
	e.prog.Config.Capabilities = opts.Capabilities

	entry := pkg.EntryPoint()
	if opts.TopLevel {
		entry = nil
	}
	if entry == nil && len(pkg.Top) == 0 {
		return nil, errorf(MissingEntryPoint, source.Span{}, "no entry point and no top-level statements to evaluate")
	}
	name := "main"
	if entry != nil {
		name, e.span = entry.Name(), entry.Span
	}
	body := e.prog.NewBlock()
	e.prog.EntryPoint = e.prog.AddCallable(rir.Callable{Name: name, Output: rir.TyVoid, Body: body})
	e.stack.pushBlock(body)
	e.emit(rir.Call(e.declare("__quantum__rt__initialize", []rir.Ty{rir.TyPointer}, rir.TyVoid, rir.CallableRegular), rir.NullPointer()))

	var result Value
	var err *Error
	if entry != nil {
		ref := VCallable{Item: fir.ItemID{Package: pkg.ID, Item: entry.ID}}
		result, err = e.call(nil, ref, unit)
	} else {
		result, err = e.top(pkg)
	}
	if err != nil {
		return nil, err
	}
	if err := e.output(result); err != nil {
		return nil, err
	}
	e.emit(rir.Return())
	e.stack.popBlock()
	e.prog.NumQubits = int(e.qubits.next)
	e.prog.NumResults = int(e.results)
	return e.prog, nil
}

func (e *evaluator) top(pkg *fir.Package) (Value, *Error) {
	s := newScope(pkg, "top")
	e.stack.push(s)
	defer e.stack.pop()
	var out Value = unit
	for i, sid := range pkg.Top {
		v, err := e.stmt(s, pkg.Stmt(sid))
		if err != nil {
			return nil, err
		}
		out = unit
		if i == len(pkg.Top)-1 {
			out = v
		}
	}
	return out, nil
}

// emit appends to the active block.
func (e *evaluator) emit(in rir.Instr) {
	if e.classical > 0 {
		panic(errors.Errorf("partial evaluation: %s emitted inside a classical call at %v", in.Kind, e.span))
	}
	if !e.span.Empty() {
		in.Dbg = e.prog.Dbg(e.span)
	}
	e.prog.Append(e.stack.current(), in)
}

// require fails unless the target has every capability in need.
func (e *evaluator) require(need capability.Flags, what string) *Error {
	if missing := need &^ e.opts.Capabilities; missing != 0 {
		return unsupported(e.span, missing, "%s is not supported by the target", what)
	}
	return nil
}

func (e *evaluator) block(id fir.BlockID) (Value, *Error) {
	s := e.stack.scope()
	b := s.pkg.Block(id)
	var out Value = unit
	for i, sid := range b.Stmts {
		v, err := e.stmt(s, s.pkg.Stmt(sid))
		if err != nil {
			return nil, err
		}
		if s.returning {
			return unit, nil
		}
		out = unit
		if i == len(b.Stmts)-1 {
			out = v
		}
	}
	return out, nil
}

// stmt returns the value of an expression statement.
func (e *evaluator) stmt(s *Scope, st *fir.Stmt) (Value, *Error) {
	switch k := st.Kind.(type) {
	case *fir.StmtExpr:
		return e.expr(k.Expr)
	case *fir.StmtSemi:
		_, err := e.expr(k.Expr)
		return unit, err
	case *fir.StmtLocal:
		v, err := e.expr(k.Expr)
		if err != nil || s.returning {
			return unit, err
		}
		bind(s, k.Pat, v)
	}
	return unit, nil
}

func bind(s *Scope, id fir.PatID, v Value) {
	switch k := s.pkg.Pat(id).Kind.(type) {
	case *fir.PatBind:
		s.locals[k.Local] = v
	case *fir.PatTuple:
		tup, ok := v.(VTuple)
		if !ok || len(tup) != len(k.Items) {
			panic(errors.Errorf("partial evaluation: cannot bind %s to a %d-tuple pattern", Format(v), len(k.Items)))
		}
		for i, item := range k.Items {
			bind(s, item, tup[i])
		}
	}
}

func (e *evaluator) expr(id fir.ExprID) (Value, *Error) {
	s := e.stack.scope()
	if s.returning {
		return unit, nil
	}
	x := s.pkg.Expr(id)
	prev := e.span
	e.span = x.Span
	v, err := e.exprKind(s, x)
	e.span = prev
	return v, err
}

func (e *evaluator) exprs(ids []fir.ExprID) ([]Value, *Error) {
	out := make([]Value, len(ids))
	for i, id := range ids {
		v, err := e.expr(id)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *evaluator) exprKind(s *Scope, x *fir.Expr) (Value, *Error) {
	switch k := x.Kind.(type) {
	case *fir.ExprArray:
		items, err := e.exprs(k.Items)
		return VArray(items), err
	case *fir.ExprArrayRepeat:
		vals, err := e.exprs([]fir.ExprID{k.Value, k.Size})
		if err != nil {
			return nil, err
		}
		n, err := e.staticInt(vals[1], "array size")
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, errorf(EvaluationFailed, x.Span, "array size %d is negative", n)
		}
		out := make(VArray, n)
		for i := range out {
			out[i] = vals[0]
		}
		return out, nil
	case *fir.ExprAssign:
		v, err := e.expr(k.Rhs)
		if err != nil {
			return nil, err
		}
		return unit, e.assign(s, k.Lhs, v)
	case *fir.ExprAssignOp:
		vals, err := e.exprs([]fir.ExprID{k.Lhs, k.Rhs})
		if err != nil {
			return nil, err
		}
		v, err := e.binop(k.Op, vals[0], vals[1])
		if err != nil {
			return nil, err
		}
		return unit, e.assign(s, k.Lhs, v)
	case *fir.ExprAssignIndex:
		vals, err := e.exprs([]fir.ExprID{k.Array, k.Index, k.Value})
		if err != nil {
			return nil, err
		}
		v, err := e.update(vals[0], vals[1], vals[2])
		if err != nil {
			return nil, err
		}
		return unit, e.assign(s, k.Array, v)
	case *fir.ExprBinOp:
		return e.binopExpr(k)
	case *fir.ExprBlock:
		return e.block(k.Block)
	case *fir.ExprCall:
		vals, err := e.exprs([]fir.ExprID{k.Callee, k.Arg})
		if err != nil {
			return nil, err
		}
		return e.call(x, vals[0], vals[1])
	case *fir.ExprFail:
		msg, err := e.expr(k.Msg)
		if err != nil {
			return nil, err
		}
		if s.dyn > 0 {
			return nil, unsupported(x.Span, capability.HigherLevelConstructs, "fail within a dynamic branch is not supported")
		}
		text, ok := msg.(VString)
		if !ok {
			text = VString(Format(msg))
		}
		return nil, errorf(EvaluationFailed, x.Span, "program failed: %s", string(text))
	case *fir.ExprHole:
		return nil, errorf(Unimplemented, x.Span, "holes cannot be evaluated")
	case *fir.ExprIf:
		return e.ifExpr(s, x, k)
	case *fir.ExprIndex:
		vals, err := e.exprs([]fir.ExprID{k.Array, k.Index})
		if err != nil {
			return nil, err
		}
		return e.index(vals[0], vals[1])
	case *fir.ExprLit:
		return e.lit(k.Lit)
	case *fir.ExprRange:
		return e.rangeExpr(k)
	case *fir.ExprReturn:
		v, err := e.expr(k.Value)
		if err != nil {
			return nil, err
		}
		if s.dyn > 0 {
			return nil, unsupported(x.Span, capability.HigherLevelConstructs, "return within a dynamic branch is not supported")
		}
		s.returning, s.ret = true, v
		return unit, nil
	case *fir.ExprTuple:
		items, err := e.exprs(k.Items)
		return VTuple(items), err
	case *fir.ExprUnOp:
		v, err := e.expr(k.Operand)
		if err != nil {
			return nil, err
		}
		return e.unop(k.Op, v)
	case *fir.ExprUpdateIndex:
		vals, err := e.exprs([]fir.ExprID{k.Array, k.Index, k.Value})
		if err != nil {
			return nil, err
		}
		return e.update(vals[0], vals[1], vals[2])
	case *fir.ExprVar:
		switch r := k.Res.(type) {
		case fir.ResLocal:
			return e.load(s, r.Local)
		case fir.ResItem:
			return VCallable{Item: r.ID}, nil
		}
	case *fir.ExprWhile:
		return e.while(s, k)
	}
	panic(errors.Errorf("partial evaluation: unexpected %T at %v", x.Kind, x.Span))
}

// load reads a local, going through memory for slots.
// An unbound local is one whose binding statement never ran, such as one
// from a failed interactive fragment.
func (e *evaluator) load(s *Scope, l fir.LocalVarID) (Value, *Error) {
	v, ok := s.locals[l]
	if !ok {
		return nil, errorf(EvaluationFailed, e.span, "variable is used but its binding was never evaluated")
	}
	slot, ok := v.(VSlot)
	if !ok {
		return v, nil
	}
	dst := e.prog.NewVariable(slot.Var.Ty)
	e.emit(rir.Load(slot.Var, dst))
	return VVar{Var: dst}, nil
}

func (e *evaluator) assign(s *Scope, lhs fir.ExprID, v Value) *Error {
	x := s.pkg.Expr(lhs)
	switch k := x.Kind.(type) {
	case *fir.ExprHole:
		return nil
	case *fir.ExprTuple:
		tup, ok := v.(VTuple)
		if !ok || len(tup) != len(k.Items) {
			panic(errors.Errorf("partial evaluation: cannot assign %s to a %d-tuple", Format(v), len(k.Items)))
		}
		for i, item := range k.Items {
			if err := e.assign(s, item, tup[i]); err != nil {
				return err
			}
		}
		return nil
	case *fir.ExprVar:
		r, ok := k.Res.(fir.ResLocal)
		if !ok {
			break
		}
		if slot, ok := s.locals[r.Local].(VSlot); ok {
			op, ok := operand(v)
			if !ok || op.Ty() != slot.Var.Ty {
				return unsupported(x.Span, capability.HigherLevelConstructs, "cannot store %s in a runtime variable", Format(v))
			}
			e.emit(rir.Store(op, slot.Var))
			return nil
		}
		s.locals[r.Local] = v
		return nil
	}
	panic(errors.Errorf("partial evaluation: cannot assign to %T at %v", x.Kind, x.Span))
}

func (e *evaluator) staticInt(v Value, what string) (int64, *Error) {
	switch v := v.(type) {
	case VInt:
		return int64(v), nil
	case VVar:
		return 0, errorf(ValueNotStatic, e.span, "%s must be known at compile time", what)
	}
	panic(errors.Errorf("partial evaluation: %s is %s, not an Int", what, Format(v)))
}

func (e *evaluator) lit(l fir.Lit) (Value, *Error) {
	switch l := l.(type) {
	case *ast.LitBigInt:
		return VBigInt{V: new(big.Int).Set(l.Value)}, nil
	case *ast.LitBool:
		return VBool(l.Value), nil
	case *ast.LitDouble:
		return VDouble(l.Value), nil
	case *ast.LitInt:
		return VInt(l.Value), nil
	case *ast.LitPauli:
		return VPauli(l.Value), nil
	case *ast.LitResult:
		return VResultLit(l.Value), nil
	case *ast.LitString:
		return VString(l.Value), nil
	}
	return nil, errorf(UnsupportedLiteral, e.span, "literal %T cannot be evaluated", l)
}

func (e *evaluator) rangeExpr(k *fir.ExprRange) (Value, *Error) {
	r := VRange{Step: 1}
	part := func(id fir.ExprID, dst *int64, what string) *Error {
		if id == 0 {
			return nil
		}
		v, err := e.expr(id)
		if err != nil {
			return err
		}
		n, err := e.staticInt(v, what)
		*dst = n
		return err
	}
	if err := part(k.Start, &r.Start, "range start"); err != nil {
		return nil, err
	}
	if err := part(k.Step, &r.Step, "range step"); err != nil {
		return nil, err
	}
	if err := part(k.End, &r.End, "range end"); err != nil {
		return nil, err
	}
	r.HasStart, r.HasEnd = k.Start != 0, k.End != 0
	return r, nil
}

func (e *evaluator) ifExpr(s *Scope, x *fir.Expr, k *fir.ExprIf) (Value, *Error) {
	cond, err := e.expr(k.Cond)
	if err != nil {
		return nil, err
	}
	switch c := cond.(type) {
	case VBool:
		if c {
			return e.expr(k.Body)
		}
		if k.Otherwise != 0 {
			return e.expr(k.Otherwise)
		}
		return unit, nil
	case VVar:
		return e.dynamicIf(s, x, k, c)
	}
	panic(errors.Errorf("partial evaluation: condition is %s", Format(cond)))
}

func (e *evaluator) while(s *Scope, k *fir.ExprWhile) (Value, *Error) {
	for i := 0; ; i++ {
		if err := e.ctx.Err(); err != nil {
			return nil, errorf(EvaluationFailed, e.span, "evaluation cancelled: %v", err)
		}
		cond, err := e.expr(k.Cond)
		if err != nil || s.returning {
			return unit, err
		}
		switch c := cond.(type) {
		case VBool:
			if !c {
				return unit, nil
			}
		case VVar:
			return e.dynamicLoop(s, k, c)
		}
		if i >= e.opts.LoopLimit {
			return nil, errorf(LoopLimitExceeded, e.span, "loop did not finish within %d iterations", e.opts.LoopLimit)
		}
		if _, err := e.block(k.Body); err != nil || s.returning {
			return unit, err
		}
	}
}

func (e *evaluator) trace(name, detail string) {
	trace.Point(e.tracer, trace.ScopeNode, name, detail, e.spans.current(e.ctx))
}

// enter opens a callable span; the evaluator stack keeps callables nested
// even though e.ctx never changes.
func (e *evaluator) enter(c VCallable) *trace.Span {
	if !e.tracer.Level().ShouldEmit(trace.ScopeCallable) {
		return nil
	}
	span := trace.Begin(e.tracer, trace.ScopeCallable, e.describe(c), e.spans.current(e.ctx))
	e.spans = append(e.spans, span.ID())
	return span
}

func (e *evaluator) leave(span *trace.Span, err *Error) {
	if span == nil {
		return
	}
	e.spans = e.spans[:len(e.spans)-1]
	detail := ""
	if err != nil {
		detail = err.Kind.Code().ID()
	}
	span.End(detail)
}

type spanStack []uint64

func (st spanStack) current(ctx context.Context) uint64 {
	if len(st) > 0 {
		return st[len(st)-1]
	}
	return trace.CurrentSpan(ctx).SpanID
}

func (e *evaluator) describe(c VCallable) string {
	_, item, ok := e.store.Item(c.Item)
	if !ok {
		return Format(c)
	}
	return fmt.Sprintf("%s.%s", item.Namespace, item.Name())
}
