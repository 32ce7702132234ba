// Package passes holds the semantic passes run over HIR between lowering
// and FIR: validation (callable limits, mutability) followed by the
// rewrites that leave only constructs FIR has a form for.
package passes

import (
	"quill/internal/hir"
	"quill/internal/ids"
)

// Runner applies the passes in their fixed order. One Runner serves a
// package, or a whole incremental session when used through Fragment.
type Runner struct {
	b  *builder
	bc *BorrowChecker
}

func NewRunner(assigner *ids.Assigner, core *Core) *Runner {
	return &Runner{b: &builder{ids: assigner, core: core}, bc: NewBorrowChecker()}
}

// Run is NewRunner(...).Package(pkg).
func Run(pkg *hir.Package, assigner *ids.Assigner, core *Core) []Error {
	return NewRunner(assigner, core).Package(pkg)
}

// Package runs every pass over pkg. Validation errors stop the pipeline
// before any rewrite.
func (r *Runner) Package(pkg *hir.Package) []Error {
	errs := CheckCallableLimits(pkg)
	errs = append(errs, CheckPackage(pkg)...)
	if len(errs) > 0 {
		return errs
	}
	return r.rewrite(pkg)
}

// Fragment runs the passes over items and statements added by one
// incremental input and returns the rewritten statements. Mutability of
// bindings from earlier fragments is remembered.
func (r *Runner) Fragment(pkg *hir.Package, items []hir.LocalItemID, stmts []*hir.Stmt) ([]*hir.Stmt, []Error) {
	view := &hir.Package{ID: pkg.ID, Items: make(map[hir.LocalItemID]*hir.Item, len(items)), Stmts: stmts}
	for _, id := range items {
		if item, ok := pkg.Items[id]; ok {
			view.Items[id] = item
		}
	}
	errs := CheckCallableLimits(view)
	for _, item := range view.Callables() {
		r.bc.CheckCallable(item.Kind.(*hir.ItemCallable).Decl)
	}
	r.bc.CheckStmts(stmts)
	errs = append(errs, r.bc.Errors()...)
	if len(errs) > 0 {
		return stmts, errs
	}
	errs = r.rewrite(view)
	return view.Stmts, errs
}

func (r *Runner) rewrite(pkg *hir.Package) []Error {
	errs := GenerateSpecs(pkg, r.b)
	errs = append(errs, InvertConjugates(pkg, r.b)...)
	if len(errs) > 0 {
		return errs
	}
	UnifyLoops(pkg, r.b)
	ReplaceQubits(pkg, r.b)
	return nil
}
