package passes

import (
	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/hir"
)

// BorrowChecker verifies that only mutable bindings are assigned. It is
// flow-insensitive: a binding is mutable iff it was declared `mutable`.
// The same checker is kept for a whole incremental session so bindings of
// earlier fragments keep their mutability.
type BorrowChecker struct {
	mutable map[hir.NodeID]bool
	names   map[hir.NodeID]string
	errs    []Error
}

func NewBorrowChecker() *BorrowChecker {
	return &BorrowChecker{mutable: make(map[hir.NodeID]bool), names: make(map[hir.NodeID]string)}
}

// CheckPackage checks every callable and top-level statement of pkg with a
// fresh checker.
func CheckPackage(pkg *hir.Package) []Error {
	bc := NewBorrowChecker()
	for _, item := range pkg.SortedItems() {
		if c, ok := item.Kind.(*hir.ItemCallable); ok {
			bc.CheckCallable(c.Decl)
		}
	}
	bc.CheckStmts(pkg.Stmts)
	return bc.Errors()
}

// Errors returns and clears the errors found so far.
func (bc *BorrowChecker) Errors() []Error {
	errs := bc.errs
	bc.errs = nil
	return errs
}

func (bc *BorrowChecker) CheckCallable(decl *hir.CallableDecl) {
	hir.Inspect(decl, bc.visit)
}

// CheckStmts checks fragment statements; their bindings stay known.
func (bc *BorrowChecker) CheckStmts(stmts []*hir.Stmt) {
	for _, s := range stmts {
		hir.Inspect(s, bc.visit)
	}
}

func (bc *BorrowChecker) declare(p *hir.Pat, mut bool) {
	hir.Inspect(p, func(n any) bool {
		pat := n.(*hir.Pat)
		if b, ok := pat.Kind.(*hir.PatBind); ok {
			bc.mutable[pat.ID] = mut
			bc.names[pat.ID] = b.Name.Name
		}
		return true
	})
}

func (bc *BorrowChecker) visit(n any) bool {
	switch n := n.(type) {
	case *hir.Pat:
		if _, seen := bc.mutable[n.ID]; !seen {
			bc.declare(n, false)
		}
	case *hir.Stmt:
		if local, ok := n.Kind.(*hir.StmtLocal); ok {
			bc.declare(local.Pat, local.Mutability == ast.Mutable)
		}
	case *hir.Expr:
		switch k := n.Kind.(type) {
		case *hir.ExprAssign:
			bc.assignee(k.Lhs)
		case *hir.ExprAssignOp:
			bc.assignee(k.Lhs)
		case *hir.ExprAssignIndex:
			bc.assignee(k.Array)
		}
	}
	return true
}

func (bc *BorrowChecker) assignee(e *hir.Expr) {
	switch k := e.Kind.(type) {
	case *hir.ExprVar:
		local, ok := k.Res.(hir.ResLocal)
		if !ok {
			bc.errs = append(bc.errs, errorf(diag.PassMutability, e.Span, "cannot assign to a global item"))
			return
		}
		if !bc.mutable[local.Node] {
			bc.errs = append(bc.errs, errorf(diag.PassMutability, e.Span, "cannot assign to immutable binding `%s`", bc.names[local.Node]))
		}
	case *hir.ExprTuple:
		for _, item := range k.Items {
			bc.assignee(item)
		}
	case *hir.ExprHole:
	default:
		bc.errs = append(bc.errs, errorf(diag.PassMutability, e.Span, "invalid assignment target"))
	}
}
