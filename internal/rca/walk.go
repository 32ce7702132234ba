package rca

import (
	"quill/internal/ast"
	"quill/internal/fir"
	"quill/internal/types"
)

type calleeRef struct {
	item fir.ItemID
	adj  bool
	ctls int
}

type local struct {
	value  ValueKind
	callee *calleeRef
}

// call is a callee specialization reached while recording.
type call struct {
	key  SpecKey
	mask []bool
}

type walker struct {
	a    *Analysis
	pkg  *fir.Package
	self SpecKey

	env   map[fir.LocalVarID]local
	kinds map[fir.ExprID]ComputeKind
	// depth of branches on dynamic conditions
	dyn int
	ret ValueKind

	record bool
	calls  []call
}

func newWalker(a *Analysis, pkg *fir.Package, self SpecKey, record bool) *walker {
	return &walker{
		a:      a,
		pkg:    pkg,
		self:   self,
		env:    make(map[fir.LocalVarID]local),
		kinds:  make(map[fir.ExprID]ComputeKind),
		record: record,
	}
}

func (w *walker) bindAll(id fir.PatID, v ValueKind) {
	switch k := w.pkg.Pat(id).Kind.(type) {
	case *fir.PatBind:
		w.env[k.Local] = local{value: v}
	case *fir.PatTuple:
		for _, item := range k.Items {
			w.bindAll(item, v)
		}
	}
}

// bind binds a pattern to an already walked initializer, splitting tuple
// literals item by item.
func (w *walker) bind(id fir.PatID, init fir.ExprID) {
	switch k := w.pkg.Pat(id).Kind.(type) {
	case *fir.PatBind:
		l := local{value: w.kinds[init].Value}
		if l.value == Static {
			if ref, ok := w.callee(init); ok {
				l.callee = &ref
			}
		}
		w.env[k.Local] = l
	case *fir.PatTuple:
		if tup, ok := w.pkg.Expr(init).Kind.(*fir.ExprTuple); ok && len(tup.Items) == len(k.Items) {
			for i, item := range k.Items {
				w.bind(item, tup.Items[i])
			}
			return
		}
		w.bindAll(id, w.kinds[init].Value)
	}
}

func (w *walker) block(id fir.BlockID) ComputeKind {
	b := w.pkg.Block(id)
	out := Classical
	for i, sid := range b.Stmts {
		var k ComputeKind
		switch s := w.pkg.Stmt(sid).Kind.(type) {
		case *fir.StmtExpr:
			k = w.expr(s.Expr)
			if i != len(b.Stmts)-1 {
				k = k.effects()
			}
		case *fir.StmtSemi:
			k = w.expr(s.Expr).effects()
		case *fir.StmtLocal:
			k = w.expr(s.Expr).effects()
			w.bind(s.Pat, s.Expr)
		}
		out = out.Join(k)
	}
	if types.IsUnit(b.Ty) {
		out.Value = Static
	}
	return out
}

// Stmts walks top-level statements.
func (w *walker) stmts(list []fir.StmtID) ComputeKind {
	out := Classical
	for _, sid := range list {
		switch s := w.pkg.Stmt(sid).Kind.(type) {
		case *fir.StmtExpr:
			out = out.Join(w.expr(s.Expr))
		case *fir.StmtSemi:
			out = out.Join(w.expr(s.Expr).effects())
		case *fir.StmtLocal:
			out = out.Join(w.expr(s.Expr).effects())
			w.bind(s.Pat, s.Expr)
		}
	}
	return out
}

func (w *walker) join(list []fir.ExprID) ComputeKind {
	out := Classical
	for _, id := range list {
		out = out.Join(w.expr(id))
	}
	return out
}

func (w *walker) expr(id fir.ExprID) ComputeKind {
	e := w.pkg.Expr(id)
	var k ComputeKind
	var own RuntimeFeatureFlags
	switch x := e.Kind.(type) {
	case *fir.ExprArray:
		k = w.join(x.Items)
	case *fir.ExprArrayRepeat:
		value, size := w.expr(x.Value), w.expr(x.Size)
		k = value.Join(size)
		if size.IsDynamic() {
			own |= UseOfDynamicallySizedArray
		}
	case *fir.ExprAssign:
		rhs := w.expr(x.Rhs)
		w.assign(x.Lhs, rhs.Value)
		k = rhs.effects()
	case *fir.ExprAssignOp:
		lhs, rhs := w.expr(x.Lhs), w.expr(x.Rhs)
		k = lhs.Join(rhs)
		if k.IsDynamic() {
			own |= dynamicUse(w.pkg.Expr(x.Lhs).Ty)
		}
		w.assign(x.Lhs, k.Value)
		k = k.effects()
	case *fir.ExprAssignIndex:
		arr, idx, value := w.expr(x.Array), w.expr(x.Index), w.expr(x.Value)
		if idx.IsDynamic() {
			own |= dynamicUse(w.pkg.Expr(x.Array).Ty)
		}
		w.assign(x.Array, max(idx.Value, value.Value))
		k = arr.Join(idx).Join(value).effects()
	case *fir.ExprBinOp:
		k = w.expr(x.Lhs).Join(w.expr(x.Rhs))
		if k.IsDynamic() {
			own |= dynamicUse(e.Ty)
		}
	case *fir.ExprBlock:
		k = w.block(x.Block)
	case *fir.ExprCall:
		k, own = w.call(e, x)
	case *fir.ExprFail:
		k = w.expr(x.Msg).effects()
	case *fir.ExprHole, *fir.ExprLit:
	case *fir.ExprIf:
		cond := w.expr(x.Cond)
		dynamic := cond.IsDynamic()
		if dynamic {
			own |= ForwardBranchingOnDynamicValue
			w.dyn++
		}
		k = cond.Join(w.expr(x.Body))
		if x.Otherwise != 0 {
			k = k.Join(w.expr(x.Otherwise))
		}
		if dynamic {
			w.dyn--
			if !types.IsUnit(e.Ty) {
				own |= dynamicUse(e.Ty)
			}
		}
	case *fir.ExprIndex:
		arr, idx := w.expr(x.Array), w.expr(x.Index)
		k = arr.Join(idx)
		if idx.IsDynamic() {
			own |= dynamicUse(e.Ty)
			if types.Equal(w.pkg.Expr(x.Index).Ty, types.PrimRange) {
				own |= UseOfDynamicallySizedArray
			}
		}
	case *fir.ExprRange:
		for _, part := range []fir.ExprID{x.Start, x.Step, x.End} {
			if part != 0 {
				k = k.Join(w.expr(part))
			}
		}
		if k.IsDynamic() {
			own |= UseOfDynamicRange
		}
	case *fir.ExprReturn:
		value := w.expr(x.Value)
		w.ret = max(w.ret, value.Value)
		if w.dyn > 0 {
			own |= ReturnWithinDynamicScope
		}
		k = value.effects()
	case *fir.ExprTuple:
		k = w.join(x.Items)
	case *fir.ExprUnOp:
		k = w.expr(x.Operand)
		switch x.Op {
		case ast.OpFunctorAdj, ast.OpFunctorCtl, ast.OpUnwrap, ast.OpPos:
		default:
			if k.IsDynamic() {
				own |= dynamicUse(e.Ty)
			}
		}
	case *fir.ExprUpdateIndex:
		arr, idx, value := w.expr(x.Array), w.expr(x.Index), w.expr(x.Value)
		k = arr.Join(idx).Join(value)
		if idx.IsDynamic() {
			own |= dynamicUse(e.Ty)
		}
	case *fir.ExprVar:
		if r, ok := x.Res.(fir.ResLocal); ok {
			k.Value = w.env[r.Local].value
		}
	case *fir.ExprWhile:
		k, own = w.loop(x)
	}
	if types.IsUnit(e.Ty) {
		k.Value = Static
	}
	k.Flags |= own
	w.kinds[id] = k
	if w.record {
		w.note(id, e, k, own)
	}
	return k
}

// loop iterates the body until the environment stops changing.
func (w *walker) loop(x *fir.ExprWhile) (ComputeKind, RuntimeFeatureFlags) {
	var k ComputeKind
	var dynamic bool
	for {
		before := w.snapshot()
		cond := w.expr(x.Cond)
		dynamic = dynamic || cond.IsDynamic()
		if dynamic {
			w.dyn++
		}
		k = k.Join(cond).Join(w.block(x.Body))
		if dynamic {
			w.dyn--
		}
		if w.same(before) {
			break
		}
	}
	var own RuntimeFeatureFlags
	if dynamic {
		own = LoopWithDynamicCondition
	}
	return k.effects(), own
}

func (w *walker) snapshot() map[fir.LocalVarID]ValueKind {
	out := make(map[fir.LocalVarID]ValueKind, len(w.env))
	for id, l := range w.env {
		out[id] = l.value
	}
	return out
}

func (w *walker) same(before map[fir.LocalVarID]ValueKind) bool {
	for id, l := range w.env {
		if v, ok := before[id]; !ok || v != l.value {
			return false
		}
	}
	return true
}

// assign joins v into the locals written through lhs. Writes under a
// dynamic condition make the target dynamic.
func (w *walker) assign(lhs fir.ExprID, v ValueKind) {
	if w.dyn > 0 {
		v = Dynamic
	}
	switch x := w.pkg.Expr(lhs).Kind.(type) {
	case *fir.ExprVar:
		if r, ok := x.Res.(fir.ResLocal); ok {
			l := w.env[r.Local]
			w.env[r.Local] = local{value: max(l.value, v)}
		}
	case *fir.ExprTuple:
		for _, item := range x.Items {
			w.assign(item, v)
		}
	}
}

// callee resolves the callable an expression statically refers to.
func (w *walker) callee(id fir.ExprID) (calleeRef, bool) {
	switch x := w.pkg.Expr(id).Kind.(type) {
	case *fir.ExprVar:
		switch r := x.Res.(type) {
		case fir.ResItem:
			return calleeRef{item: r.ID}, true
		case fir.ResLocal:
			if l := w.env[r.Local]; l.callee != nil {
				return *l.callee, true
			}
		}
	case *fir.ExprUnOp:
		ref, ok := w.callee(x.Operand)
		switch x.Op {
		case ast.OpFunctorAdj:
			ref.adj = !ref.adj
		case ast.OpFunctorCtl:
			ref.ctls++
		default:
			return calleeRef{}, false
		}
		return ref, ok
	}
	return calleeRef{}, false
}

func (w *walker) call(e *fir.Expr, x *fir.ExprCall) (ComputeKind, RuntimeFeatureFlags) {
	calleeKind, arg := w.expr(x.Callee), w.expr(x.Arg)
	k := calleeKind.Join(arg).effects()
	var own RuntimeFeatureFlags

	ref, ok := w.callee(x.Callee)
	var decl *fir.CallableDecl
	var declPkg *fir.Package
	if ok {
		pkg, item, found := w.a.store.Item(ref.item)
		switch {
		case !found:
			ok = false
		case isUdt(item):
			k.Value = arg.Value
			return k, 0
		default:
			var isCallable bool
			declPkg, decl, isCallable = w.a.store.Callable(ref.item)
			ok = isCallable && pkg != nil
		}
	}
	if !ok {
		k.Quantum = true
		if calleeKind.IsDynamic() {
			own |= CallToDynamicCallee
		}
		if calleeKind.IsDynamic() || arg.IsDynamic() {
			k.Value = Dynamic
			own |= dynamicUse(e.Ty)
		}
		return k, own
	}

	key := SpecKey{Item: ref.item, Spec: specOf(ref.adj, ref.ctls > 0)}
	set := w.a.use(key, w.self)
	if set == nil {
		key.Spec = ast.SpecBody
		set = w.a.use(key, w.self)
	}
	mask := w.mask(x.Arg, ref.ctls, len(params(declPkg, decl.Input)))
	applied := Classical
	if set != nil {
		applied = set.Apply(mask)
	}
	k = k.Join(applied)
	measures := decl.CallKind == fir.CallMeasurement
	if set != nil && decl.Kind == types.Operation && set.Inherent.Value == Dynamic {
		measures = true
	}
	if measures {
		k.Quantum, k.Value = true, Dynamic
		if w.dyn > 0 {
			own |= MeasurementWithinDynamicScope
		}
	}
	if w.record {
		spec := decl.Spec(key.Spec == ast.SpecAdj || key.Spec == ast.SpecCtlAdj, key.Spec == ast.SpecCtl || key.Spec == ast.SpecCtlAdj)
		if ref.item.Package == w.a.recorded && spec != nil && !spec.Intrinsic {
			w.calls = append(w.calls, call{key: key, mask: mask})
		} else {
			own |= applied.Flags
		}
	}
	return k, own
}

func isUdt(item *fir.Item) bool {
	_, ok := item.Kind.(*fir.ItemTy)
	return ok
}

// mask reports which parameters receive a dynamic argument. Control
// registers are peeled off and treated as static.
func (w *walker) mask(arg fir.ExprID, ctls, n int) []bool {
	for range ctls {
		tup, ok := w.pkg.Expr(arg).Kind.(*fir.ExprTuple)
		if !ok || len(tup.Items) != 2 {
			break
		}
		arg = tup.Items[1]
	}
	out := make([]bool, n)
	if tup, ok := w.pkg.Expr(arg).Kind.(*fir.ExprTuple); ok && len(tup.Items) == n && n != 1 {
		for i, item := range tup.Items {
			out[i] = w.kinds[item].IsDynamic()
		}
		return out
	}
	dynamic := w.kinds[arg].IsDynamic()
	for i := range out {
		out[i] = dynamic
	}
	return out
}

func (w *walker) note(id fir.ExprID, e *fir.Expr, k ComputeKind, own RuntimeFeatureFlags) {
	key := ExprKey{Package: w.pkg.ID, Expr: id}
	if r, ok := w.a.exprs[key]; ok {
		r.Kind = r.Kind.Join(k)
		r.Own |= own
		return
	}
	w.a.exprs[key] = &ExprRecord{Kind: k, Own: own, Span: e.Span}
}
