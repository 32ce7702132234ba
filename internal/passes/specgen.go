package passes

import (
	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/hir"
	"quill/internal/source"
	"quill/internal/types"
)

// GenerateSpecs fills in generated specializations. Functor requirements
// propagate first: an operation whose adjoint or controlled body is
// generated needs the same functor from every operation it calls, and
// same-package callees without it acquire it along with an auto
// specialization.
func GenerateSpecs(pkg *hir.Package, b *builder) []Error {
	var errs []Error
	changed := propagateFunctors(pkg, b)
	if len(changed) > 0 {
		retypeReferences(pkg, changed)
	}
	for _, item := range pkg.Callables() {
		decl := item.Kind.(*hir.ItemCallable).Decl
		if decl.Kind != types.Operation {
			continue
		}
		errs = append(errs, missingFunctors(pkg, decl)...)
		errs = append(errs, generate(decl, b)...)
	}
	return errs
}

// needs returns the functors a generated spec of d requires from callees.
func needs(d *hir.CallableDecl) types.FunctorSet {
	var out types.FunctorSet
	for _, s := range []ast.Spec{ast.SpecAdj, ast.SpecCtl, ast.SpecCtlAdj} {
		spec := d.Spec(s)
		if spec == nil {
			continue
		}
		gen, ok := spec.Body.(*hir.SpecGen)
		if !ok || gen.Gen == ast.GenIntrinsic || gen.Gen == ast.GenSelf {
			continue
		}
		out = out.Union(functorsOf(s))
	}
	return out
}

// generatedNeed narrows set to the functors whose specializations d will
// generate from its body; explicit ones place no demand on callees.
func generatedNeed(d *hir.CallableDecl, set types.FunctorSet) types.FunctorSet {
	var out types.FunctorSet
	for _, f := range []types.FunctorSet{types.Adj, types.Ctl} {
		if !set.Contains(f) {
			continue
		}
		s := ast.SpecAdj
		if f == types.Ctl {
			s = ast.SpecCtl
		}
		spec := d.Spec(s)
		if spec == nil {
			out = out.Union(f)
			continue
		}
		if g, ok := spec.Body.(*hir.SpecGen); ok && g.Gen != ast.GenSelf && g.Gen != ast.GenIntrinsic {
			out = out.Union(f)
		}
	}
	return out
}

// outerCalls lists the operation calls of b that are not inside a
// within-block; within-blocks are neither inverted nor controlled.
func outerCalls(b *hir.Block) []*hir.Expr {
	var out []*hir.Expr
	var walk func(node any)
	walk = func(node any) {
		hir.Inspect(node, func(n any) bool {
			e, ok := n.(*hir.Expr)
			if !ok {
				return true
			}
			if conj, ok := e.Kind.(*hir.ExprConjugate); ok {
				walk(conj.Apply)
				return false
			}
			if isOperationCall(e) {
				out = append(out, e)
			}
			return true
		})
	}
	walk(b)
	return out
}

// bodyCallees lists the same-package operations d's body calls outside
// within-blocks.
func bodyCallees(pkg *hir.Package, d *hir.CallableDecl) []hir.LocalItemID {
	impl, ok := d.Body.Body.(*hir.SpecImpl)
	if !ok {
		return nil
	}
	var out []hir.LocalItemID
	for _, e := range outerCalls(impl.Block) {
		if id, ok := calleeItem(e.Kind.(*hir.ExprCall).Callee); ok && id.Package == pkg.ID {
			out = append(out, id.Item)
		}
	}
	return out
}

// propagateFunctors runs a worklist over the package call graph and
// returns the operations whose functor set grew.
func propagateFunctors(pkg *hir.Package, b *builder) map[hir.LocalItemID]types.FunctorSet {
	decls := make(map[hir.LocalItemID]*hir.CallableDecl)
	for _, item := range pkg.Callables() {
		decls[item.ID] = item.Kind.(*hir.ItemCallable).Decl
	}
	need := make(map[hir.LocalItemID]types.FunctorSet)
	var work []hir.LocalItemID
	for _, item := range pkg.Callables() {
		if n := needs(decls[item.ID]); n != types.Empty {
			need[item.ID] = n
			work = append(work, item.ID)
		}
	}
	grown := make(map[hir.LocalItemID]types.FunctorSet)
	for len(work) > 0 {
		id := work[len(work)-1]
		work = work[:len(work)-1]
		callees := bodyCallees(pkg, decls[id])
		push := func(callee hir.LocalItemID, req types.FunctorSet) {
			d, ok := decls[callee]
			if !ok || d.Kind != types.Operation || d.IsIntrinsic() {
				return
			}
			if req == types.Empty || need[callee].Contains(req) {
				return
			}
			need[callee] = need[callee].Union(req)
			if !d.Functors.Contains(req) {
				grown[callee] = grown[callee].Union(req)
			}
			work = append(work, callee)
		}
		req := generatedNeed(decls[id], need[id])
		for _, callee := range callees {
			push(callee, req)
		}
	}
	for id, add := range grown {
		d := decls[id]
		d.Functors = d.Functors.Union(add)
		for _, s := range []ast.Spec{ast.SpecAdj, ast.SpecCtl, ast.SpecCtlAdj} {
			if d.Functors.Contains(functorsOf(s)) && d.Spec(s) == nil {
				d.SetSpec(s, &hir.SpecDecl{ID: b.ids.Next(), Span: d.Name.Span, Body: &hir.SpecGen{Gen: ast.GenAuto}})
			}
		}
	}
	return grown
}

// retypeReferences updates the arrow type of every reference to an
// operation whose functors grew, and of functor applications over them.
func retypeReferences(pkg *hir.Package, changed map[hir.LocalItemID]types.FunctorSet) {
	visit := func(n any) bool {
		e, ok := n.(*hir.Expr)
		if !ok {
			return true
		}
		switch k := e.Kind.(type) {
		case *hir.ExprVar:
			if r, ok := k.Res.(hir.ResItem); ok && r.ID.Package == pkg.ID {
				if add, ok := changed[r.ID.Item]; ok {
					e.Ty = withFunctors(e.Ty, add)
				}
			}
		}
		return true
	}
	for _, item := range pkg.Callables() {
		hir.Inspect(item.Kind.(*hir.ItemCallable).Decl, visit)
	}
	for _, s := range pkg.Stmts {
		hir.Inspect(s, visit)
	}
	// functor applications were visited before their operands; fix them up
	fix := func(n any) bool {
		if e, ok := n.(*hir.Expr); ok {
			fixFunctorApp(e)
		}
		return true
	}
	for _, item := range pkg.Callables() {
		hir.Inspect(item.Kind.(*hir.ItemCallable).Decl, fix)
	}
	for _, s := range pkg.Stmts {
		hir.Inspect(s, fix)
	}
}

func fixFunctorApp(e *hir.Expr) types.Ty {
	un, ok := e.Kind.(*hir.ExprUnOp)
	if !ok || (un.Op != ast.OpFunctorAdj && un.Op != ast.OpFunctorCtl) {
		return e.Ty
	}
	inner := fixFunctorApp(un.Operand)
	arrow, ok := inner.(*types.Arrow)
	if !ok {
		return e.Ty
	}
	if un.Op == ast.OpFunctorAdj {
		e.Ty = arrow
	} else {
		e.Ty = &types.Arrow{Kind: arrow.Kind, Input: types.ControlledInput(arrow.Input), Output: arrow.Output, Functors: arrow.Functors}
	}
	return e.Ty
}

func withFunctors(t types.Ty, add types.FunctorSet) types.Ty {
	arrow, ok := t.(*types.Arrow)
	if !ok {
		return t
	}
	return &types.Arrow{Kind: arrow.Kind, Input: arrow.Input, Output: arrow.Output, Functors: arrow.Functors.Union(add)}
}

// missingFunctors reports calls from generated specializations to
// operations of other packages that lack the needed functor.
func missingFunctors(pkg *hir.Package, d *hir.CallableDecl) []Error {
	req := needs(d)
	impl, ok := d.Body.Body.(*hir.SpecImpl)
	if req == types.Empty || !ok {
		return nil
	}
	var errs []Error
	for _, e := range outerCalls(impl.Block) {
		errs = append(errs, missingFunctor(pkg, e, req)...)
	}
	return errs
}

func missingFunctor(pkg *hir.Package, e *hir.Expr, req types.FunctorSet) []Error {
	call := e.Kind.(*hir.ExprCall)
	id, ok := calleeItem(call.Callee)
	if !ok || id.Package == pkg.ID {
		return nil
	}
	arrow := call.Callee.Ty.(*types.Arrow)
	if arrow.Functors.Contains(req) {
		return nil
	}
	return []Error{errorf(diag.PassMissingFunctor, e.Span, "callee of type %s does not support %s", arrow, req)}
}

// generate resolves the auto, invert and distribute directives of d.
func generate(d *hir.CallableDecl, b *builder) []Error {
	body, ok := d.Body.Body.(*hir.SpecImpl)
	if !ok {
		// intrinsic bodies keep their directives; the target provides them
		return nil
	}
	var errs []Error
	gen := func(s ast.Spec) (ast.SpecGen, bool) {
		spec := d.Spec(s)
		if spec == nil {
			return 0, false
		}
		g, ok := spec.Body.(*hir.SpecGen)
		if !ok {
			return 0, false
		}
		return g.Gen, true
	}
	impl := func(s ast.Spec) *hir.SpecImpl {
		spec := d.Spec(s)
		if spec == nil {
			return nil
		}
		i, _ := spec.Body.(*hir.SpecImpl)
		return i
	}
	bad := func(s ast.Spec, g ast.SpecGen) {
		errs = append(errs, errorf(diag.PassBadSpecialization, d.Spec(s).Span, "`%s %s` is not allowed on `%s`", s, g, d.Name.Name))
	}

	adjGen, adjGenerated := gen(ast.SpecAdj)
	if adjGenerated {
		switch adjGen {
		case ast.GenAuto, ast.GenInvert:
			blk, e := invertBlock(b, body.Block)
			errs = append(errs, e...)
			d.Adj.Body = &hir.SpecImpl{Block: blk}
		case ast.GenSelf, ast.GenIntrinsic:
		default:
			bad(ast.SpecAdj, adjGen)
		}
	}
	ctlExplicit := impl(ast.SpecCtl) != nil
	if g, ok := gen(ast.SpecCtl); ok {
		switch g {
		case ast.GenAuto, ast.GenDistribute:
			spec, e := distributeBlock(b, body.Block, d.Input.Span)
			errs = append(errs, e...)
			d.Ctl.Body = spec
		case ast.GenIntrinsic:
		default:
			bad(ast.SpecCtl, g)
		}
	}
	if g, ok := gen(ast.SpecCtlAdj); ok {
		switch {
		case g == ast.GenSelf:
		case g == ast.GenAuto && adjGenerated && adjGen == ast.GenSelf:
			d.CtlAdj.Body = &hir.SpecGen{Gen: ast.GenSelf}
		case g == ast.GenInvert || (g == ast.GenAuto && ctlExplicit && adjGenerated):
			ctl := impl(ast.SpecCtl)
			if ctl == nil {
				bad(ast.SpecCtlAdj, g)
				break
			}
			blk, e := invertBlock(b, ctl.Block)
			errs = append(errs, e...)
			d.CtlAdj.Body = &hir.SpecImpl{Input: ctl.Input, Block: blk}
		case g == ast.GenAuto || g == ast.GenDistribute:
			adj := impl(ast.SpecAdj)
			if adj == nil {
				bad(ast.SpecCtlAdj, g)
				break
			}
			spec, e := distributeBlock(b, adj.Block, d.Input.Span)
			errs = append(errs, e...)
			d.CtlAdj.Body = spec
		case g == ast.GenIntrinsic:
		default:
			bad(ast.SpecCtlAdj, g)
		}
	}
	return errs
}

func invertBlock(b *builder, src *hir.Block) (*hir.Block, []Error) {
	blk := hir.NewCloner(b.ids).Block(src)
	inv := &inverter{builder: b}
	inv.block(blk)
	return blk, inv.errs
}

func distributeBlock(b *builder, src *hir.Block, sp source.Span) (*hir.SpecImpl, []Error) {
	blk := hir.NewCloner(b.ids).Block(src)
	ctls := b.bind(sp, "ctls", &types.Array{Item: types.PrimQubit})
	d := &distributor{builder: b, ctls: ctls}
	d.block(blk)
	return &hir.SpecImpl{Input: ctls, Block: blk}, d.errs
}
