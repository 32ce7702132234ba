// Package lower turns a resolved and type-checked AST into HIR. It discharges
// surface sugar: parentheses, elif chains, the conditional operator, scoped
// qubit allocation, body shorthand and implied auto specializations.
package lower

import (
	"fmt"
	"sort"

	"golang.org/x/exp/maps"

	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/hir"
	"quill/internal/ids"
	"quill/internal/sema"
	"quill/internal/source"
	"quill/internal/symbols"
	"quill/internal/types"
)

type Error struct {
	Code diag.Code
	Span source.Span
	Msg  string
}

func (e Error) Error() string { return e.Msg }

func (e Error) ToDiagnostic() diag.Diagnostic {
	return diag.Diagnostic{Severity: diag.SevError, Code: e.Code, Message: e.Msg, Primary: e.Span}
}

// Lowerer keeps the package under construction; fragments are appended.
type Lowerer struct {
	ids      *ids.Assigner
	pkg      *hir.Package
	resolver *symbols.Resolver
	table    *sema.Table
	lowered  map[ids.LocalItemID]bool
	Errors   []Error
}

// New prepares a lowerer. Synthesized nodes take ids from assigner, which
// must be the one the parser used.
func New(pkgID ids.PackageID, assigner *ids.Assigner, r *symbols.Resolver, table *sema.Table) *Lowerer {
	return &Lowerer{
		ids:      assigner,
		pkg:      hir.NewPackage(pkgID),
		resolver: r,
		table:    table,
		lowered:  make(map[ids.LocalItemID]bool),
	}
}

func (l *Lowerer) Package() *hir.Package { return l.pkg }

// Package lowers a whole package in one go.
func Package(pkgID ids.PackageID, assigner *ids.Assigner, r *symbols.Resolver, table *sema.Table, pkg *ast.Package) (*hir.Package, []Error) {
	l := New(pkgID, assigner, r, table)
	l.LowerFragment(pkg)
	return l.pkg, l.Errors
}

// Skip marks every item resolved so far as handled, so the items of input
// that failed to check are never lowered.
func (l *Lowerer) Skip() {
	for id := range l.resolver.Items {
		l.lowered[id] = true
	}
}

// LowerFragment lowers newly resolved items and returns the HIR of the
// fragment's top-level statements, which are also appended to the package.
func (l *Lowerer) LowerFragment(pkg *ast.Package) []*hir.Stmt {
	keys := maps.Keys(l.resolver.Items)
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, id := range keys {
		if l.lowered[id] {
			continue
		}
		l.lowered[id] = true
		if item := l.lowerItem(l.resolver.Items[id]); item != nil {
			l.pkg.Items[id] = item
		}
	}
	var stmts []*hir.Stmt
	for _, s := range pkg.Stmts {
		stmts = append(stmts, l.lowerStmt(s)...)
	}
	l.pkg.Stmts = append(l.pkg.Stmts, stmts...)
	return stmts
}

func (l *Lowerer) errorf(code diag.Code, sp source.Span, format string, args ...any) {
	l.Errors = append(l.Errors, Error{Code: code, Span: sp, Msg: fmt.Sprintf(format, args...)})
}

func (l *Lowerer) ty(id ids.NodeID) types.Ty {
	if ty, ok := l.table.Terms[id]; ok {
		return ty
	}
	return types.Err{}
}

func (l *Lowerer) lowerItem(info *symbols.ItemInfo) *hir.Item {
	item := &hir.Item{ID: info.ID, Span: info.AST.Span, Namespace: info.Namespace, Parent: info.Parent}
	for _, a := range info.AST.Attrs {
		attr, ok := hir.LookupAttr(a.Name.Name)
		if !ok {
			l.errorf(diag.SynBadAttribute, a.Span, "unknown attribute `%s`", a.Name.Name)
			continue
		}
		item.Attrs = append(item.Attrs, attr)
	}
	switch k := info.AST.Kind.(type) {
	case *ast.ItemCallable:
		item.Kind = &hir.ItemCallable{Decl: l.lowerCallable(info.ID, k.Decl)}
	case *ast.ItemTy:
		item.Kind = &hir.ItemTy{Name: ident(k.Name), Def: l.table.Udts[info.ID]}
	default:
		return nil
	}
	return item
}

func ident(id *ast.Ident) *hir.Ident {
	return &hir.Ident{ID: id.ID, Span: id.Span, Name: id.Name}
}

func (l *Lowerer) lowerCallable(id ids.LocalItemID, decl *ast.CallableDecl) *hir.CallableDecl {
	scheme := l.table.Callables[id]
	out := &hir.CallableDecl{
		ID:       decl.ID,
		Span:     decl.Span,
		Kind:     scheme.Ty.Kind,
		Name:     ident(decl.Name),
		Generics: scheme.Params,
		Input:    l.lowerPat(decl.Input),
		Output:   scheme.Ty.Output,
		Functors: scheme.Ty.Functors,
	}
	if decl.Kind == ast.Function && decl.Functors != nil {
		// kept so callable limits can reject it
		out.Functors = sema.EvalFunctors(decl.Functors)
	}
	switch body := decl.Body.(type) {
	case *ast.BodyBlock:
		out.Body = &hir.SpecDecl{ID: l.ids.Next(), Span: body.Block.Span, Body: &hir.SpecImpl{Block: l.lowerBlock(body.Block)}}
	case *ast.BodySpecs:
		for _, spec := range body.Specs {
			if out.Spec(spec.Spec) != nil {
				l.errorf(diag.PassBadSpecialization, spec.Span, "duplicate %s specialization", spec.Spec)
				continue
			}
			out.SetSpec(spec.Spec, l.lowerSpec(spec))
		}
		if out.Body == nil {
			l.errorf(diag.PassBadSpecialization, decl.Name.Span, "callable `%s` has no body specialization", decl.Name.Name)
			out.Body = &hir.SpecDecl{ID: l.ids.Next(), Span: decl.Span, Body: &hir.SpecGen{Gen: ast.GenIntrinsic}}
		}
	}
	// declared functors imply auto specializations
	auto := func(s ast.Spec) {
		if out.Spec(s) == nil {
			out.SetSpec(s, &hir.SpecDecl{ID: l.ids.Next(), Span: decl.Name.Span, Body: &hir.SpecGen{Gen: ast.GenAuto}})
		}
	}
	if out.Functors.Contains(types.Adj) {
		auto(ast.SpecAdj)
	}
	if out.Functors.Contains(types.Ctl) {
		auto(ast.SpecCtl)
	}
	if out.Functors.Contains(types.CtlAdj) {
		auto(ast.SpecCtlAdj)
	}
	return out
}

func (l *Lowerer) lowerSpec(spec *ast.SpecDecl) *hir.SpecDecl {
	out := &hir.SpecDecl{ID: spec.ID, Span: spec.Span}
	switch body := spec.Body.(type) {
	case *ast.SpecBodyGen:
		out.Body = &hir.SpecGen{Gen: body.Gen}
	case *ast.SpecBodyImpl:
		impl := &hir.SpecImpl{Block: l.lowerBlock(body.Block)}
		if body.Input != nil {
			impl.Input = l.controlPat(body.Input)
		}
		out.Body = impl
	}
	return out
}

// controlPat extracts the control register from `(cs, ...)`.
func (l *Lowerer) controlPat(p *ast.Pat) *hir.Pat {
	switch k := p.Kind.(type) {
	case *ast.PatParen:
		return l.controlPat(k.Inner)
	case *ast.PatTuple:
		if len(k.Items) == 2 {
			if _, ok := k.Items[1].Kind.(*ast.PatElided); ok {
				return l.lowerPat(k.Items[0])
			}
		}
	case *ast.PatElided:
		return nil
	}
	l.errorf(diag.PassBadSpecialization, p.Span, "controlled specialization input must be `(ctls, ...)`")
	return l.lowerPat(p)
}

func (l *Lowerer) lowerPat(p *ast.Pat) *hir.Pat {
	switch k := p.Kind.(type) {
	case *ast.PatBind:
		return &hir.Pat{ID: p.ID, Span: p.Span, Ty: l.ty(p.ID), Kind: &hir.PatBind{Name: ident(k.Name)}}
	case *ast.PatDiscard, *ast.PatElided:
		return &hir.Pat{ID: p.ID, Span: p.Span, Ty: l.ty(p.ID), Kind: &hir.PatDiscard{}}
	case *ast.PatParen:
		return l.lowerPat(k.Inner)
	case *ast.PatTuple:
		items := make([]*hir.Pat, len(k.Items))
		for i, item := range k.Items {
			items[i] = l.lowerPat(item)
		}
		return &hir.Pat{ID: p.ID, Span: p.Span, Ty: l.ty(p.ID), Kind: &hir.PatTuple{Items: items}}
	}
	return &hir.Pat{ID: p.ID, Span: p.Span, Ty: types.Err{}, Kind: &hir.PatDiscard{}}
}

func (l *Lowerer) lowerBlock(b *ast.Block) *hir.Block {
	out := &hir.Block{ID: b.ID, Span: b.Span, Ty: l.ty(b.ID)}
	for _, s := range b.Stmts {
		out.Stmts = append(out.Stmts, l.lowerStmt(s)...)
	}
	return out
}

func (l *Lowerer) lowerStmt(s *ast.Stmt) []*hir.Stmt {
	mk := func(kind hir.StmtKind) []*hir.Stmt {
		return []*hir.Stmt{{ID: s.ID, Span: s.Span, Kind: kind}}
	}
	switch k := s.Kind.(type) {
	case *ast.StmtEmpty, *ast.StmtErr:
		return nil
	case *ast.StmtExpr:
		return mk(&hir.StmtExpr{Expr: l.lowerExpr(k.Expr)})
	case *ast.StmtSemi:
		return mk(&hir.StmtSemi{Expr: l.lowerExpr(k.Expr)})
	case *ast.StmtItem:
		id, ok := l.resolver.DeclItems[k.Item.ID]
		if !ok {
			return nil
		}
		return mk(&hir.StmtItem{Item: id})
	case *ast.StmtLocal:
		return mk(&hir.StmtLocal{Mutability: k.Mutability, Pat: l.lowerPat(k.Pat), Expr: l.lowerExpr(k.Expr)})
	case *ast.StmtQubit:
		alloc := &hir.StmtQubit{Source: k.Source, Pat: l.lowerPat(k.Pat), Init: l.lowerQubitInit(k.Init)}
		if k.Block == nil {
			return mk(alloc)
		}
		// use q = Qubit() { ... }  =>  { use q = Qubit(); ... }
		inner := l.lowerBlock(k.Block)
		inner.Stmts = append([]*hir.Stmt{{ID: s.ID, Span: s.Span, Kind: alloc}}, inner.Stmts...)
		expr := &hir.Expr{ID: l.ids.Next(), Span: s.Span, Ty: inner.Ty, Kind: &hir.ExprBlock{Block: inner}}
		return []*hir.Stmt{{ID: l.ids.Next(), Span: s.Span, Kind: &hir.StmtExpr{Expr: expr}}}
	}
	return nil
}

func (l *Lowerer) lowerQubitInit(q *ast.QubitInit) *hir.QubitInit {
	out := &hir.QubitInit{ID: q.ID, Span: q.Span, Ty: l.ty(q.ID)}
	switch k := q.Kind.(type) {
	case *ast.QubitSingle:
		out.Kind = &hir.QubitSingle{}
	case *ast.QubitArray:
		out.Kind = &hir.QubitArray{Size: l.lowerExpr(k.Size)}
	case *ast.QubitParen:
		return l.lowerQubitInit(k.Inner)
	case *ast.QubitTuple:
		items := make([]*hir.QubitInit, len(k.Items))
		for i, item := range k.Items {
			items[i] = l.lowerQubitInit(item)
		}
		out.Kind = &hir.QubitTuple{Items: items}
	}
	return out
}

func (l *Lowerer) lowerExprs(es []*ast.Expr) []*hir.Expr {
	out := make([]*hir.Expr, len(es))
	for i, e := range es {
		out[i] = l.lowerExpr(e)
	}
	return out
}

func (l *Lowerer) optExpr(e *ast.Expr) *hir.Expr {
	if e == nil {
		return nil
	}
	return l.lowerExpr(e)
}

func (l *Lowerer) blockExpr(b *ast.Block) *hir.Expr {
	block := l.lowerBlock(b)
	return &hir.Expr{ID: l.ids.Next(), Span: b.Span, Ty: block.Ty, Kind: &hir.ExprBlock{Block: block}}
}

func (l *Lowerer) lowerExpr(e *ast.Expr) *hir.Expr {
	if paren, ok := e.Kind.(*ast.ExprParen); ok {
		return l.lowerExpr(paren.Inner)
	}
	out := &hir.Expr{ID: e.ID, Span: e.Span, Ty: l.ty(e.ID)}
	switch k := e.Kind.(type) {
	case *ast.ExprArray:
		out.Kind = &hir.ExprArray{Items: l.lowerExprs(k.Items)}
	case *ast.ExprArrayRepeat:
		out.Kind = &hir.ExprArrayRepeat{Value: l.lowerExpr(k.Value), Size: l.lowerExpr(k.Size)}
	case *ast.ExprAssign:
		out.Kind = &hir.ExprAssign{Lhs: l.lowerExpr(k.Lhs), Rhs: l.lowerExpr(k.Rhs)}
	case *ast.ExprAssignOp:
		out.Kind = &hir.ExprAssignOp{Op: k.Op, Lhs: l.lowerExpr(k.Lhs), Rhs: l.lowerExpr(k.Rhs)}
	case *ast.ExprAssignUpdate:
		out.Kind = &hir.ExprAssignIndex{Array: l.lowerExpr(k.Record), Index: l.lowerExpr(k.Index), Value: l.lowerExpr(k.Value)}
	case *ast.ExprBinOp:
		out.Kind = &hir.ExprBinOp{Op: k.Op, Lhs: l.lowerExpr(k.Lhs), Rhs: l.lowerExpr(k.Rhs)}
	case *ast.ExprBlock:
		block := l.lowerBlock(k.Block)
		out.Kind = &hir.ExprBlock{Block: block}
	case *ast.ExprCall:
		out.Kind = &hir.ExprCall{Callee: l.lowerExpr(k.Callee), Arg: l.lowerExpr(k.Arg)}
	case *ast.ExprConjugate:
		out.Kind = &hir.ExprConjugate{Within: l.lowerBlock(k.Within), Apply: l.lowerBlock(k.Apply)}
	case *ast.ExprFail:
		out.Kind = &hir.ExprFail{Msg: l.lowerExpr(k.Msg)}
	case *ast.ExprFor:
		out.Kind = &hir.ExprFor{Pat: l.lowerPat(k.Pat), Iterable: l.lowerExpr(k.Iterable), Body: l.lowerBlock(k.Body)}
	case *ast.ExprHole:
		out.Kind = &hir.ExprHole{}
	case *ast.ExprIf:
		out.Kind = &hir.ExprIf{Cond: l.lowerExpr(k.Cond), Body: l.blockExpr(k.Body), Otherwise: l.optExpr(k.Otherwise)}
	case *ast.ExprIndex:
		out.Kind = &hir.ExprIndex{Array: l.lowerExpr(k.Array), Index: l.lowerExpr(k.Index)}
	case *ast.ExprLit:
		out.Kind = &hir.ExprLit{Lit: k.Lit}
	case *ast.ExprPath:
		out.Kind = &hir.ExprVar{Res: l.res(k.Path.ID), Generics: l.table.Generics[e.ID]}
	case *ast.ExprRange:
		out.Kind = &hir.ExprRange{Start: l.optExpr(k.Start), Step: l.optExpr(k.Step), End: l.optExpr(k.End)}
	case *ast.ExprRepeat:
		var fixup *hir.Block
		if k.Fixup != nil {
			fixup = l.lowerBlock(k.Fixup)
		}
		out.Kind = &hir.ExprRepeat{Body: l.lowerBlock(k.Body), Until: l.lowerExpr(k.Until), Fixup: fixup}
	case *ast.ExprReturn:
		out.Kind = &hir.ExprReturn{Value: l.lowerExpr(k.Value)}
	case *ast.ExprTernary:
		out.Kind = &hir.ExprIf{Cond: l.lowerExpr(k.Cond), Body: l.lowerExpr(k.IfTrue), Otherwise: l.lowerExpr(k.IfFalse)}
	case *ast.ExprTuple:
		out.Kind = &hir.ExprTuple{Items: l.lowerExprs(k.Items)}
	case *ast.ExprUnOp:
		out.Kind = &hir.ExprUnOp{Op: k.Op, Operand: l.lowerExpr(k.Operand)}
	case *ast.ExprUpdate:
		out.Kind = &hir.ExprUpdateIndex{Array: l.lowerExpr(k.Record), Index: l.lowerExpr(k.Index), Value: l.lowerExpr(k.Value)}
	case *ast.ExprWhile:
		out.Kind = &hir.ExprWhile{Cond: l.lowerExpr(k.Cond), Body: l.lowerBlock(k.Body)}
	default:
		out.Kind = &hir.ExprErr{}
	}
	return out
}

func (l *Lowerer) res(path ids.NodeID) hir.Res {
	switch r := l.resolver.Names[path].(type) {
	case symbols.ResLocal:
		return hir.ResLocal{Node: r.Node}
	case symbols.ResItem:
		return hir.ResItem{ID: r.ID}
	}
	return hir.ResErr{}
}
