// Package rca is the runtime capability analysis. It computes, for every
// callable specialization in a package store, what running it needs from
// the target when its arguments are or are not known at compile time, and
// classifies each expression reachable from an entry point.
package rca

import (
	"quill/internal/ast"
	"quill/internal/fir"
	"quill/internal/source"
	"quill/internal/types"
)

// SpecKey names one specialization of a global callable.
type SpecKey struct {
	Item fir.ItemID
	Spec ast.Spec
}

func specOf(adj, ctl bool) ast.Spec {
	switch {
	case adj && ctl:
		return ast.SpecCtlAdj
	case adj:
		return ast.SpecAdj
	case ctl:
		return ast.SpecCtl
	}
	return ast.SpecBody
}

// ExprKey names an expression of a package.
type ExprKey struct {
	Package fir.PackageID
	Expr    fir.ExprID
}

// ExprRecord is what the analysis learnt about one expression, joined over
// every context the expression was reached in.
type ExprRecord struct {
	Kind ComputeKind
	// Own are the features the expression itself introduces, without the
	// ones inherited from its operands.
	Own  RuntimeFeatureFlags
	Span source.Span
}

// Analysis holds callable summaries and, after Record, per-expression
// kinds of the recorded package.
type Analysis struct {
	store *fir.PackageStore
	specs map[SpecKey]*ApplicationGeneratorSet
	// callee -> callers still to revisit when the callee summary grows
	users map[SpecKey]map[SpecKey]struct{}

	recorded fir.PackageID
	exprs    map[ExprKey]*ExprRecord
}

// Analyze summarizes every callable specialization of the store. Cycles in
// the call graph start from the optimistic Classical summary and are
// iterated until no summary changes.
func Analyze(store *fir.PackageStore) *Analysis {
	a := &Analysis{
		store: store,
		specs: make(map[SpecKey]*ApplicationGeneratorSet),
		users: make(map[SpecKey]map[SpecKey]struct{}),
		exprs: make(map[ExprKey]*ExprRecord),
	}
	var work []SpecKey
	for _, pid := range store.IDs() {
		pkg, _ := store.Get(pid)
		for _, item := range pkg.SortedItems() {
			c, ok := item.Kind.(*fir.ItemCallable)
			if !ok {
				continue
			}
			id := fir.ItemID{Package: pid, Item: item.ID}
			for _, s := range []ast.Spec{ast.SpecBody, ast.SpecAdj, ast.SpecCtl, ast.SpecCtlAdj} {
				spec := c.Decl.Spec(s == ast.SpecAdj || s == ast.SpecCtlAdj, s == ast.SpecCtl || s == ast.SpecCtlAdj)
				if spec == nil {
					continue
				}
				key := SpecKey{Item: id, Spec: s}
				if spec.Intrinsic {
					a.specs[key] = intrinsic(pkg, c.Decl)
					continue
				}
				a.specs[key] = &ApplicationGeneratorSet{
					Inherent:                 ComputeKind{Quantum: c.Decl.Kind == types.Operation},
					DynamicParamApplications: make([]ComputeKind, len(params(pkg, c.Decl.Input))),
				}
				work = append(work, key)
			}
		}
	}

	queued := make(map[SpecKey]bool, len(work))
	for _, key := range work {
		queued[key] = true
	}
	for len(work) > 0 {
		key := work[0]
		work = work[1:]
		queued[key] = false
		next := a.summarize(key)
		old := a.specs[key]
		next = join(old, next)
		if next.equal(old) {
			continue
		}
		a.specs[key] = next
		for user := range a.users[key] {
			if !queued[user] {
				queued[user] = true
				work = append(work, user)
			}
		}
	}
	return a
}

// Spec returns the summary of a specialization.
func (a *Analysis) Spec(key SpecKey) (*ApplicationGeneratorSet, bool) {
	s, ok := a.specs[key]
	return s, ok
}

// Expr returns the recorded kind of an expression.
func (a *Analysis) Expr(pkg fir.PackageID, id fir.ExprID) (ComputeKind, bool) {
	r, ok := a.exprs[ExprKey{Package: pkg, Expr: id}]
	if !ok {
		return Classical, false
	}
	return r.Kind, true
}

// Records returns every recorded expression.
func (a *Analysis) Records() map[ExprKey]*ExprRecord { return a.exprs }

func join(a, b *ApplicationGeneratorSet) *ApplicationGeneratorSet {
	out := &ApplicationGeneratorSet{
		Inherent:                 a.Inherent.Join(b.Inherent),
		DynamicParamApplications: make([]ComputeKind, len(a.DynamicParamApplications)),
	}
	for i := range out.DynamicParamApplications {
		out.DynamicParamApplications[i] = a.DynamicParamApplications[i]
		if i < len(b.DynamicParamApplications) {
			out.DynamicParamApplications[i] = out.DynamicParamApplications[i].Join(b.DynamicParamApplications[i])
		}
	}
	return out
}

// intrinsic summarizes a callable the target implements.
func intrinsic(pkg *fir.Package, d *fir.CallableDecl) *ApplicationGeneratorSet {
	inherent := ComputeKind{Quantum: d.Kind == types.Operation}
	if d.CallKind == fir.CallMeasurement {
		inherent.Value = Dynamic
	}
	app := ComputeKind{Quantum: inherent.Quantum}
	if !types.IsUnit(d.Output) {
		app.Value = Dynamic
		app.Flags = dynamicUse(d.Output)
	}
	set := &ApplicationGeneratorSet{
		Inherent:                 inherent,
		DynamicParamApplications: make([]ComputeKind, len(params(pkg, d.Input))),
	}
	for i := range set.DynamicParamApplications {
		set.DynamicParamApplications[i] = app
	}
	return set
}

func params(pkg *fir.Package, input fir.PatID) []fir.PatID {
	p := pkg.Pat(input)
	if p == nil {
		return nil
	}
	if t, ok := p.Kind.(*fir.PatTuple); ok {
		return t.Items
	}
	return []fir.PatID{input}
}

// summarize analyses one specialization once per parameter.
func (a *Analysis) summarize(key SpecKey) *ApplicationGeneratorSet {
	pkg, decl, _ := a.store.Callable(key.Item)
	n := len(params(pkg, decl.Input))
	out := &ApplicationGeneratorSet{DynamicParamApplications: make([]ComputeKind, n)}
	mask := make([]bool, n)
	out.Inherent = a.run(key, mask, false)
	for i := range mask {
		mask[i] = true
		// only what the dynamic parameter adds
		app := a.run(key, mask, false)
		app.Flags &^= out.Inherent.Flags
		out.DynamicParamApplications[i] = app
		mask[i] = false
	}
	return out
}

// run walks a specialization with the given parameter dynamism.
func (a *Analysis) run(key SpecKey, mask []bool, record bool) ComputeKind {
	pkg, decl, _ := a.store.Callable(key.Item)
	spec := decl.Spec(key.Spec == ast.SpecAdj || key.Spec == ast.SpecCtlAdj, key.Spec == ast.SpecCtl || key.Spec == ast.SpecCtlAdj)
	w := newWalker(a, pkg, key, record)
	for i, p := range params(pkg, decl.Input) {
		v := Static
		if i < len(mask) && mask[i] {
			v = Dynamic
		}
		w.bindAll(p, v)
	}
	if spec.Input != 0 {
		w.bindAll(spec.Input, Static)
	}
	k := w.block(spec.Block)
	k.Value = max(k.Value, w.ret)
	if types.IsUnit(decl.Output) {
		k.Value = Static
	}
	if decl.Kind == types.Operation {
		k.Quantum = true
	}
	return k
}

// use registers that caller reads the summary of callee.
func (a *Analysis) use(callee, caller SpecKey) *ApplicationGeneratorSet {
	users, ok := a.users[callee]
	if !ok {
		users = make(map[SpecKey]struct{})
		a.users[callee] = users
	}
	users[caller] = struct{}{}
	return a.specs[callee]
}
