package passes

import (
	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/hir"
)

// InvertConjugates rewrites `within { U } apply { W }` into
// `{ U; let r = { W }; Adjoint U; r }`.
func InvertConjugates(pkg *hir.Package, b *builder) []Error {
	var errs []Error
	forEachBlock(pkg, func(blk *hir.Block) {
		errs = append(errs, conjugates(b, blk)...)
	})
	return errs
}

// forEachBlock applies f to every specialization body and to the
// package's top-level statements.
func forEachBlock(pkg *hir.Package, f func(*hir.Block)) {
	for _, item := range pkg.Callables() {
		decl := item.Kind.(*hir.ItemCallable).Decl
		for _, spec := range []*hir.SpecDecl{decl.Body, decl.Adj, decl.Ctl, decl.CtlAdj} {
			if spec == nil {
				continue
			}
			if impl, ok := spec.Body.(*hir.SpecImpl); ok {
				f(impl.Block)
			}
		}
	}
	if len(pkg.Stmts) > 0 {
		top := &hir.Block{Stmts: pkg.Stmts}
		f(top)
		pkg.Stmts = top.Stmts
	}
}

func conjugates(b *builder, root *hir.Block) []Error {
	var errs []Error
	hir.Inspect(root, func(n any) bool {
		e, ok := n.(*hir.Expr)
		if !ok {
			return true
		}
		conj, ok := e.Kind.(*hir.ExprConjugate)
		if !ok {
			return true
		}
		// inner conjugations first so the copy of within is already plain
		errs = append(errs, conjugates(b, conj.Within)...)
		errs = append(errs, conjugates(b, conj.Apply)...)
		if err, bad := applyAssignsWithinVar(conj); bad {
			errs = append(errs, err)
			return false
		}
		undo, invErrs := invertBlock(b, conj.Within)
		errs = append(errs, invErrs...)

		sp := e.Span
		result := b.bind(sp, "__apply_res", conj.Apply.Ty)
		block := b.block(sp, e.Ty,
			b.semi(b.blockExpr(conj.Within)),
			b.let(ast.Immutable, result, b.blockExpr(conj.Apply)),
			b.semi(b.blockExpr(undo)),
			b.trailing(b.use(sp, result)),
		)
		e.Kind = &hir.ExprBlock{Block: block}
		return false
	})
	return errs
}

// applyAssignsWithinVar rejects apply blocks that assign a local the
// within block reads: the undo would see a different value.
func applyAssignsWithinVar(conj *hir.ExprConjugate) (Error, bool) {
	used := make(map[hir.NodeID]bool)
	hir.Inspect(conj.Within, func(n any) bool {
		if e, ok := n.(*hir.Expr); ok {
			if v, ok := e.Kind.(*hir.ExprVar); ok {
				if local, ok := v.Res.(hir.ResLocal); ok {
					used[local.Node] = true
				}
			}
		}
		return true
	})
	var found *hir.Expr
	hir.Inspect(conj.Apply, func(n any) bool {
		e, ok := n.(*hir.Expr)
		if !ok || found != nil {
			return found == nil
		}
		var lhs *hir.Expr
		switch k := e.Kind.(type) {
		case *hir.ExprAssign:
			lhs = k.Lhs
		case *hir.ExprAssignOp:
			lhs = k.Lhs
		case *hir.ExprAssignIndex:
			lhs = k.Array
		}
		if lhs == nil {
			return true
		}
		hir.Inspect(lhs, func(n any) bool {
			if v, ok := n.(*hir.Expr); ok {
				if ref, ok := v.Kind.(*hir.ExprVar); ok {
					if local, ok := ref.Res.(hir.ResLocal); ok && used[local.Node] {
						found = v
					}
				}
			}
			return true
		})
		return found == nil
	})
	if found == nil {
		return Error{}, false
	}
	return errorf(diag.PassApplyAssignsWithinVar, found.Span, "apply block assigns a variable used in the within block"), true
}
