// Package lower turns HIR that went through the semantic passes into FIR.
package lower

import (
	"github.com/pkg/errors"

	"quill/internal/ast"
	"quill/internal/fir"
	"quill/internal/hir"
)

// Lowerer keeps the local numbering of the top-level statements so an
// incremental session can lower fragment after fragment into one package.
type Lowerer struct {
	pkg *fir.Package

	// current callable, or top-level scope
	locals    map[hir.NodeID]fir.LocalVarID
	nextLocal fir.LocalVarID

	top     map[hir.NodeID]fir.LocalVarID
	topNext fir.LocalVarID
}

func New(id fir.PackageID) *Lowerer {
	return &Lowerer{pkg: fir.NewPackage(id), top: make(map[hir.NodeID]fir.LocalVarID)}
}

func (l *Lowerer) Package() *fir.Package { return l.pkg }

// Package lowers a whole HIR package.
func Package(pkg *hir.Package) *fir.Package {
	l := New(pkg.ID)
	l.Items(pkg, nil)
	l.Stmts(pkg.Stmts)
	return l.pkg
}

// Items lowers the listed items of pkg; nil lowers all of them.
func (l *Lowerer) Items(pkg *hir.Package, items []hir.LocalItemID) {
	list := pkg.SortedItems()
	if items != nil {
		list = list[:0:0]
		for _, id := range items {
			if item, ok := pkg.Items[id]; ok {
				list = append(list, item)
			}
		}
	}
	for _, item := range list {
		l.pkg.Items[item.ID] = l.item(item)
	}
}

// Stmts lowers top-level statements and appends them to the package.
func (l *Lowerer) Stmts(stmts []*hir.Stmt) []fir.StmtID {
	l.locals, l.nextLocal = l.top, l.topNext
	out := make([]fir.StmtID, 0, len(stmts))
	for _, s := range stmts {
		out = append(out, l.stmt(s))
	}
	l.topNext = l.nextLocal
	l.pkg.Top = append(l.pkg.Top, out...)
	l.pkg.TopLocals = int(l.topNext)
	return out
}

func (l *Lowerer) item(item *hir.Item) *fir.Item {
	out := &fir.Item{ID: item.ID, Span: item.Span, Namespace: item.Namespace, EntryPoint: item.HasAttr(hir.AttrEntryPoint)}
	switch k := item.Kind.(type) {
	case *hir.ItemCallable:
		decl := l.callable(k.Decl)
		switch {
		case item.HasAttr(hir.AttrMeasurement):
			decl.CallKind = fir.CallMeasurement
		case item.HasAttr(hir.AttrReset):
			decl.CallKind = fir.CallReset
		}
		out.Kind = &fir.ItemCallable{Decl: decl}
	case *hir.ItemTy:
		out.Kind = &fir.ItemTy{Def: k.Def}
	}
	return out
}

func (l *Lowerer) callable(d *hir.CallableDecl) *fir.CallableDecl {
	l.locals, l.nextLocal = make(map[hir.NodeID]fir.LocalVarID), 0
	out := &fir.CallableDecl{
		Span:     d.Span,
		Kind:     d.Kind,
		Name:     d.Name.Name,
		Generics: d.Generics,
		Input:    l.pat(d.Input),
		Output:   d.Output,
		Functors: d.Functors,
	}
	out.Body = l.spec(d.Body)
	if d.Adj != nil {
		if isSelf(d.Adj) {
			body := out.Body
			out.Adj = &body
		} else {
			spec := l.spec(d.Adj)
			out.Adj = &spec
		}
	}
	if d.Ctl != nil {
		spec := l.spec(d.Ctl)
		out.Ctl = &spec
	}
	if d.CtlAdj != nil {
		switch {
		case isSelf(d.CtlAdj) && out.Ctl != nil:
			ctl := *out.Ctl
			out.CtlAdj = &ctl
		case isSelf(d.CtlAdj):
			out.CtlAdj = &fir.SpecDecl{Intrinsic: true}
		default:
			spec := l.spec(d.CtlAdj)
			out.CtlAdj = &spec
		}
	}
	out.Locals = int(l.nextLocal)
	return out
}

func isSelf(s *hir.SpecDecl) bool {
	gen, ok := s.Body.(*hir.SpecGen)
	return ok && gen.Gen == ast.GenSelf
}

func (l *Lowerer) spec(s *hir.SpecDecl) fir.SpecDecl {
	impl, ok := s.Body.(*hir.SpecImpl)
	if !ok {
		// generated specializations left after the passes belong to intrinsics
		return fir.SpecDecl{Intrinsic: true}
	}
	var input fir.PatID
	if impl.Input != nil {
		input = l.pat(impl.Input)
	}
	return fir.SpecDecl{Input: input, Block: l.block(impl.Block)}
}

func (l *Lowerer) local(id hir.NodeID) fir.LocalVarID {
	l.nextLocal++
	l.locals[id] = l.nextLocal
	return l.nextLocal
}

func (l *Lowerer) pat(p *hir.Pat) fir.PatID {
	out := fir.Pat{Span: p.Span, Ty: p.Ty}
	switch k := p.Kind.(type) {
	case *hir.PatBind:
		out.Kind = &fir.PatBind{Local: l.local(p.ID), Name: k.Name.Name}
	case *hir.PatDiscard:
		out.Kind = &fir.PatDiscard{}
	case *hir.PatTuple:
		items := make([]fir.PatID, len(k.Items))
		for i, item := range k.Items {
			items[i] = l.pat(item)
		}
		out.Kind = &fir.PatTuple{Items: items}
	}
	id := l.pkg.Pats.Allocate(out)
	l.pkg.Pat(id).ID = id
	return id
}

func (l *Lowerer) block(b *hir.Block) fir.BlockID {
	stmts := make([]fir.StmtID, 0, len(b.Stmts))
	for _, s := range b.Stmts {
		if _, ok := s.Kind.(*hir.StmtItem); ok {
			continue
		}
		stmts = append(stmts, l.stmt(s))
	}
	id := l.pkg.Blocks.Allocate(fir.Block{Span: b.Span, Ty: b.Ty, Stmts: stmts})
	l.pkg.Block(id).ID = id
	return id
}

func (l *Lowerer) stmt(s *hir.Stmt) fir.StmtID {
	out := fir.Stmt{Span: s.Span}
	switch k := s.Kind.(type) {
	case *hir.StmtExpr:
		out.Kind = &fir.StmtExpr{Expr: l.expr(k.Expr)}
	case *hir.StmtSemi:
		out.Kind = &fir.StmtSemi{Expr: l.expr(k.Expr)}
	case *hir.StmtItem:
		out.Kind = &fir.StmtItem{Item: k.Item}
	case *hir.StmtLocal:
		// the initializer cannot see the binding
		init := l.expr(k.Expr)
		out.Kind = &fir.StmtLocal{Mutability: k.Mutability, Pat: l.pat(k.Pat), Expr: init}
	case *hir.StmtQubit:
		panic(errors.Errorf("fir lowering: qubit allocation at %v survived the passes", s.Span))
	}
	id := l.pkg.Stmts.Allocate(out)
	l.pkg.Stmt(id).ID = id
	return id
}

func (l *Lowerer) opt(e *hir.Expr) fir.ExprID {
	if e == nil {
		return 0
	}
	return l.expr(e)
}

func (l *Lowerer) exprs(in []*hir.Expr) []fir.ExprID {
	out := make([]fir.ExprID, len(in))
	for i, e := range in {
		out[i] = l.expr(e)
	}
	return out
}

func (l *Lowerer) expr(e *hir.Expr) fir.ExprID {
	var kind fir.ExprKind
	switch k := e.Kind.(type) {
	case *hir.ExprArray:
		kind = &fir.ExprArray{Items: l.exprs(k.Items)}
	case *hir.ExprArrayRepeat:
		kind = &fir.ExprArrayRepeat{Value: l.expr(k.Value), Size: l.expr(k.Size)}
	case *hir.ExprAssign:
		kind = &fir.ExprAssign{Lhs: l.expr(k.Lhs), Rhs: l.expr(k.Rhs)}
	case *hir.ExprAssignOp:
		kind = &fir.ExprAssignOp{Op: k.Op, Lhs: l.expr(k.Lhs), Rhs: l.expr(k.Rhs)}
	case *hir.ExprAssignIndex:
		kind = &fir.ExprAssignIndex{Array: l.expr(k.Array), Index: l.expr(k.Index), Value: l.expr(k.Value)}
	case *hir.ExprBinOp:
		kind = &fir.ExprBinOp{Op: k.Op, Lhs: l.expr(k.Lhs), Rhs: l.expr(k.Rhs)}
	case *hir.ExprBlock:
		kind = &fir.ExprBlock{Block: l.block(k.Block)}
	case *hir.ExprCall:
		kind = &fir.ExprCall{Callee: l.expr(k.Callee), Arg: l.expr(k.Arg)}
	case *hir.ExprFail:
		kind = &fir.ExprFail{Msg: l.expr(k.Msg)}
	case *hir.ExprHole:
		kind = &fir.ExprHole{}
	case *hir.ExprIf:
		kind = &fir.ExprIf{Cond: l.expr(k.Cond), Body: l.expr(k.Body), Otherwise: l.opt(k.Otherwise)}
	case *hir.ExprIndex:
		kind = &fir.ExprIndex{Array: l.expr(k.Array), Index: l.expr(k.Index)}
	case *hir.ExprLit:
		kind = &fir.ExprLit{Lit: k.Lit}
	case *hir.ExprRange:
		kind = &fir.ExprRange{Start: l.opt(k.Start), Step: l.opt(k.Step), End: l.opt(k.End)}
	case *hir.ExprReturn:
		kind = &fir.ExprReturn{Value: l.expr(k.Value)}
	case *hir.ExprTuple:
		kind = &fir.ExprTuple{Items: l.exprs(k.Items)}
	case *hir.ExprUnOp:
		kind = &fir.ExprUnOp{Op: k.Op, Operand: l.expr(k.Operand)}
	case *hir.ExprUpdateIndex:
		kind = &fir.ExprUpdateIndex{Array: l.expr(k.Array), Index: l.expr(k.Index), Value: l.expr(k.Value)}
	case *hir.ExprVar:
		kind = &fir.ExprVar{Res: l.res(e, k)}
	case *hir.ExprWhile:
		kind = &fir.ExprWhile{Cond: l.expr(k.Cond), Body: l.block(k.Body)}
	case *hir.ExprFor, *hir.ExprRepeat, *hir.ExprConjugate:
		panic(errors.Errorf("fir lowering: %T at %v survived the passes", k, e.Span))
	default:
		panic(errors.Errorf("fir lowering: unexpected %T at %v", k, e.Span))
	}
	id := l.pkg.Exprs.Allocate(fir.Expr{Span: e.Span, Ty: e.Ty, Kind: kind})
	l.pkg.Expr(id).ID = id
	return id
}

func (l *Lowerer) res(e *hir.Expr, v *hir.ExprVar) fir.Res {
	switch r := v.Res.(type) {
	case hir.ResLocal:
		local, ok := l.locals[r.Node]
		if !ok {
			panic(errors.Errorf("fir lowering: local %d used at %v before its binding", r.Node, e.Span))
		}
		return fir.ResLocal{Local: local}
	case hir.ResItem:
		return fir.ResItem{ID: r.ID, Generics: v.Generics}
	}
	panic(errors.Errorf("fir lowering: unresolved name at %v", e.Span))
}
