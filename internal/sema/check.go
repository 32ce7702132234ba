// Package sema infers and checks the type of every expression and pattern.
// Signatures of all items are collected first; each callable body is then
// inferred on its own with a fresh substitution and deferred class
// constraints.
package sema

import (
	"sort"

	"golang.org/x/exp/maps"

	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/ids"
	"quill/internal/source"
	"quill/internal/symbols"
	"quill/internal/types"
)

type Options struct {
	Reporter diag.Reporter
	Package  ids.PackageID
}

// Result stores the artefacts produced by the checker.
type Result struct {
	Table   *Table
	Globals *Globals
	Errors  []Error
}

// Checker keeps its state across incremental fragments.
type Checker struct {
	opts     Options
	names    symbols.Names
	resolver *symbols.Resolver
	globals  *Globals
	table    *Table
	errs     []Error
	checked  map[ids.LocalItemID]bool
	// locals survive between fragments with their final types
	locals map[ids.NodeID]types.Ty
	spans  map[ids.NodeID]source.Span

	// per body
	in              *inferrer
	output          types.Ty
	input           types.Ty
	pending         []ids.NodeID
	pendingGenerics []ids.NodeID
	pendingLocals   []ids.NodeID
}

// Check type-checks a resolved package against deps.
func Check(deps *Globals, r *symbols.Resolver, pkg *ast.Package, opts Options) *Result {
	tc := NewChecker(deps, r, opts)
	tc.CheckFragment(pkg)
	return &Result{Table: tc.table, Globals: tc.globals, Errors: tc.errs}
}

func NewChecker(deps *Globals, r *symbols.Resolver, opts Options) *Checker {
	if opts.Reporter == nil {
		opts.Reporter = diag.NopReporter{}
	}
	return &Checker{
		opts:     opts,
		names:    r.Names,
		resolver: r,
		globals:  deps.Clone(),
		table:    newTable(),
		checked:  make(map[ids.LocalItemID]bool),
		locals:   make(map[ids.NodeID]types.Ty),
		spans:    make(map[ids.NodeID]source.Span),
	}
}

func (tc *Checker) Table() *Table     { return tc.table }
func (tc *Checker) Globals() *Globals { return tc.globals }
func (tc *Checker) Errors() []Error   { return tc.errs }

// CheckFragment collects signatures of newly resolved items, checks their
// bodies and then the fragment's top-level statements.
func (tc *Checker) CheckFragment(pkg *ast.Package) {
	fresh := tc.uncheckedItems()
	tc.collectSignatures(fresh)
	for _, info := range fresh {
		if c, ok := info.AST.Kind.(*ast.ItemCallable); ok {
			tc.checkCallable(info.ID, c.Decl)
		}
		tc.checked[info.ID] = true
	}
	if len(pkg.Stmts) > 0 {
		tc.beginBody(nil)
		tc.output = tc.in.fresh()
		for i, s := range pkg.Stmts {
			ty := tc.inferStmt(s)
			if i == len(pkg.Stmts)-1 {
				tc.in.unify(tc.output, ty, s.Span)
			}
		}
		tc.endBody()
	}
}

func (tc *Checker) uncheckedItems() []*symbols.ItemInfo {
	keys := maps.Keys(tc.resolver.Items)
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	var out []*symbols.ItemInfo
	for _, k := range keys {
		if !tc.checked[k] {
			out = append(out, tc.resolver.Items[k])
		}
	}
	return out
}

func (tc *Checker) itemID(local ids.LocalItemID) ids.ItemID {
	return ids.ItemID{Package: tc.opts.Package, Item: local}
}

func (tc *Checker) report(e Error) {
	tc.errs = append(tc.errs, e)
	d := e.ToDiagnostic()
	tc.opts.Reporter.Report(d.Code, d.Severity, d.Primary, d.Message, d.Notes)
}

// collectSignatures records arrows for callables and definitions for
// newtypes without looking at bodies. Newtype names are known before any
// type is converted so definitions may reference each other.
func (tc *Checker) collectSignatures(items []*symbols.ItemInfo) {
	for _, info := range items {
		if ty, ok := info.AST.Kind.(*ast.ItemTy); ok {
			def := &types.UdtDef{Name: ty.Name.Name, ID: tc.itemID(info.ID), Base: types.Err{}}
			tc.table.Udts[info.ID] = def
			tc.globals.Udts[def.ID] = def
		}
	}
	for _, info := range items {
		switch k := info.AST.Kind.(type) {
		case *ast.ItemTy:
			def := tc.table.Udts[info.ID]
			def.Base = tc.tyDefBase(k.Def, nil, def)
		case *ast.ItemCallable:
			scheme := tc.signature(k.Decl)
			tc.table.Callables[info.ID] = scheme
			tc.globals.Callables[tc.itemID(info.ID)] = scheme
		}
	}
}

func (tc *Checker) tyDefBase(def *ast.TyDef, path []int, udt *types.UdtDef) types.Ty {
	switch k := def.Kind.(type) {
	case *ast.TyDefField:
		ty := tc.convertTy(k.Ty, nil)
		if k.Name != nil {
			udt.Fields = append(udt.Fields, types.UdtField{Name: k.Name.Name, Path: append([]int(nil), path...), Ty: ty})
		}
		return ty
	case *ast.TyDefParen:
		return tc.tyDefBase(k.Inner, path, udt)
	case *ast.TyDefTuple:
		items := make([]types.Ty, len(k.Items))
		for i, item := range k.Items {
			items[i] = tc.tyDefBase(item, append(path, i), udt)
		}
		return &types.Tuple{Items: items}
	}
	return types.Err{}
}

func (tc *Checker) signature(decl *ast.CallableDecl) *types.Scheme {
	params := make([]string, len(decl.Generics))
	for i, g := range decl.Generics {
		params[i] = g.Name
	}
	arrow := &types.Arrow{
		Kind:   types.CallableKind(decl.Kind),
		Input:  tc.signaturePat(decl.Input),
		Output: tc.convertTy(decl.Output, nil),
	}
	if decl.Functors != nil && decl.Kind == ast.Operation {
		arrow.Functors = EvalFunctors(decl.Functors)
	}
	return &types.Scheme{Params: params, Ty: arrow}
}

// signaturePat types a parameter pattern from its annotations only.
func (tc *Checker) signaturePat(p *ast.Pat) types.Ty {
	switch k := p.Kind.(type) {
	case *ast.PatBind:
		if k.Ty == nil {
			tc.report(Error{Kind: ErrAmbiguous, Span: p.Span})
			return types.Err{}
		}
		return tc.convertTy(k.Ty, nil)
	case *ast.PatDiscard:
		if k.Ty == nil {
			tc.report(Error{Kind: ErrAmbiguous, Span: p.Span})
			return types.Err{}
		}
		return tc.convertTy(k.Ty, nil)
	case *ast.PatParen:
		return tc.signaturePat(k.Inner)
	case *ast.PatTuple:
		items := make([]types.Ty, len(k.Items))
		for i, item := range k.Items {
			items[i] = tc.signaturePat(item)
		}
		return &types.Tuple{Items: items}
	}
	return types.Err{}
}

// EvalFunctors folds a functor expression into a set.
func EvalFunctors(f *ast.FunctorExpr) types.FunctorSet {
	switch k := f.Kind.(type) {
	case *ast.FunctorLit:
		if k.Functor == ast.FunctorAdj {
			return types.Adj
		}
		return types.Ctl
	case *ast.FunctorBinOp:
		if k.Op == ast.SetIntersect {
			return EvalFunctors(k.Lhs).Intersect(EvalFunctors(k.Rhs))
		}
		return EvalFunctors(k.Lhs).Union(EvalFunctors(k.Rhs))
	case *ast.FunctorParen:
		return EvalFunctors(k.Inner)
	}
	return types.Empty
}

// convertTy turns a syntactic type into a semantic one. Holes become fresh
// inference variables when in is non-nil.
func (tc *Checker) convertTy(ty *ast.Ty, in *inferrer) types.Ty {
	if ty == nil {
		return types.Unit
	}
	switch k := ty.Kind.(type) {
	case *ast.TyArray:
		return &types.Array{Item: tc.convertTy(k.Item, in)}
	case *ast.TyArrow:
		arrow := &types.Arrow{Kind: types.CallableKind(k.Kind), Input: tc.convertTy(k.Input, in), Output: tc.convertTy(k.Output, in)}
		if k.Functors != nil {
			arrow.Functors = EvalFunctors(k.Functors)
		}
		return arrow
	case *ast.TyHole:
		if in != nil {
			return in.fresh()
		}
		tc.report(Error{Kind: ErrAmbiguous, Span: ty.Span})
		return types.Err{}
	case *ast.TyParen:
		return tc.convertTy(k.Inner, in)
	case *ast.TyPath:
		switch res := tc.names[k.Path.ID].(type) {
		case symbols.ResPrimTy:
			return res.Prim
		case symbols.ResUnitTy:
			return types.Unit
		case symbols.ResItem:
			if def, ok := tc.globals.Udts[res.ID]; ok {
				return &types.Udt{Name: def.Name, ID: def.ID}
			}
			tc.report(Error{Kind: ErrMismatch, Span: ty.Span, Expected: types.Err{}, Actual: types.Err{}})
		}
		return types.Err{}
	case *ast.TyParam:
		if res, ok := tc.names[k.Name.ID].(symbols.ResParam); ok {
			return types.Param{Name: res.Name, Index: res.Index}
		}
		return types.Err{}
	case *ast.TyTuple:
		items := make([]types.Ty, len(k.Items))
		for i, item := range k.Items {
			items[i] = tc.convertTy(item, in)
		}
		return &types.Tuple{Items: items}
	}
	return types.Err{}
}

func (tc *Checker) udtBase(t types.Ty) (types.Ty, bool) {
	u, ok := t.(*types.Udt)
	if !ok {
		return nil, false
	}
	def, ok := tc.globals.Udts[u.ID]
	if !ok {
		return types.Err{}, true
	}
	return def.Base, true
}

func (tc *Checker) beginBody(input types.Ty) {
	tc.in = newInferrer(tc.udtBase)
	tc.input = input
}

// endBody solves remaining constraints and writes final types into the
// table. Unsolved variables become errors.
func (tc *Checker) endBody() {
	tc.in.finish()
	for _, e := range tc.in.errs {
		tc.report(e)
	}
	reported := len(tc.in.errs) > 0
	finalize := func(m map[ids.NodeID]types.Ty, nodes []ids.NodeID) {
		for _, id := range nodes {
			ty := tc.in.substitute(m[id])
			if types.HasInfer(ty) {
				if !reported {
					tc.report(Error{Kind: ErrAmbiguous, Span: tc.spans[id]})
					reported = true
				}
				ty = eraseInfer(ty)
			}
			m[id] = ty
		}
	}
	finalize(tc.table.Terms, tc.pending)
	for _, id := range tc.pendingGenerics {
		args := tc.table.Generics[id]
		for i, a := range args {
			args[i] = eraseInfer(tc.in.substitute(a))
		}
	}
	for _, id := range tc.pendingLocals {
		tc.locals[id] = tc.table.Terms[id]
	}
	tc.pending, tc.pendingGenerics, tc.pendingLocals = nil, nil, nil
	tc.in = nil
}

func (tc *Checker) record(id ids.NodeID, span source.Span, ty types.Ty) types.Ty {
	tc.table.Terms[id] = ty
	tc.spans[id] = span
	tc.pending = append(tc.pending, id)
	return ty
}

func (tc *Checker) checkCallable(id ids.LocalItemID, decl *ast.CallableDecl) {
	scheme := tc.table.Callables[id]
	arrow := scheme.Ty
	tc.beginBody(arrow.Input)
	tc.output = arrow.Output
	tc.bindSignaturePat(decl.Input, arrow.Input)
	switch body := decl.Body.(type) {
	case *ast.BodyBlock:
		ty := tc.inferBlock(body.Block)
		tc.in.unify(arrow.Output, ty, blockEnd(body.Block))
	case *ast.BodySpecs:
		for _, spec := range body.Specs {
			impl, ok := spec.Body.(*ast.SpecBodyImpl)
			if !ok {
				continue
			}
			if impl.Input != nil {
				tc.bindPat(impl.Input, types.ControlledInput(arrow.Input))
			}
			ty := tc.inferBlock(impl.Block)
			tc.in.unify(arrow.Output, ty, blockEnd(impl.Block))
		}
	}
	tc.endBody()
}

func blockEnd(b *ast.Block) source.Span {
	if n := len(b.Stmts); n > 0 {
		return b.Stmts[n-1].Span
	}
	return b.Span
}

// bindSignaturePat records parameter types that were fixed by collection.
func (tc *Checker) bindSignaturePat(p *ast.Pat, ty types.Ty) {
	tc.record(p.ID, p.Span, ty)
	switch k := p.Kind.(type) {
	case *ast.PatBind:
		tc.pendingLocals = append(tc.pendingLocals, p.ID)
		tc.locals[p.ID] = ty
	case *ast.PatParen:
		tc.bindSignaturePat(k.Inner, ty)
	case *ast.PatTuple:
		tup, ok := ty.(*types.Tuple)
		for i, item := range k.Items {
			if ok && i < len(tup.Items) {
				tc.bindSignaturePat(item, tup.Items[i])
			} else {
				tc.bindSignaturePat(item, types.Err{})
			}
		}
	}
}

func eraseInfer(t types.Ty) types.Ty {
	return types.Map(t, func(leaf types.Ty) types.Ty {
		if _, ok := leaf.(types.Infer); ok {
			return types.Err{}
		}
		return nil
	})
}
