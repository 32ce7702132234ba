package symbols

import (
	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/ids"
	"quill/internal/source"
	"quill/internal/types"
)

// Prelude namespaces are implicitly opened everywhere.
var Prelude = []string{"Std.Core", "Std.Intrinsic"}

// ItemInfo describes a declared item of the package being resolved.
type ItemInfo struct {
	ID        ids.LocalItemID
	Namespace string
	// Parent is the enclosing callable of a nested item, zero otherwise.
	Parent ids.LocalItemID
	AST    *ast.Item
}

type Options struct {
	Package  ids.PackageID
	Reporter diag.Reporter
}

// Resolver walks an AST package with an explicit scope stack.
type Resolver struct {
	pkg      ids.PackageID
	table    *GlobalTable
	reporter diag.Reporter
	stack    []*Scope
	// locals remembers where each binding was declared for duplicate notes
	localSpans map[ids.NodeID]source.Span
	itemIDs    ids.ItemAssigner
	parent     ids.LocalItemID

	Names Names
	// DeclItems maps an ast.Item node to its item id.
	DeclItems map[ids.NodeID]ids.LocalItemID
	Items     map[ids.LocalItemID]*ItemInfo
	Errors    []Error
}

// NewResolver prepares a resolver over table. The table is modified as the
// package's own items are collected; pass a Clone to keep the original.
func NewResolver(table *GlobalTable, opts Options) *Resolver {
	if opts.Reporter == nil {
		opts.Reporter = diag.NopReporter{}
	}
	return &Resolver{
		pkg:        opts.Package,
		table:      table,
		reporter:   opts.Reporter,
		stack:      []*Scope{newScope(ScopeTop)},
		localSpans: make(map[ids.NodeID]source.Span),
		Names:      make(Names),
		DeclItems:  make(map[ids.NodeID]ids.LocalItemID),
		Items:      make(map[ids.LocalItemID]*ItemInfo),
	}
}

// Table exposes the global table including the collected items.
func (r *Resolver) Table() *GlobalTable { return r.table }

// Resolve collects the package's items into a copy of deps and resolves
// every name. Re-resolving the same AST yields the same Names.
func Resolve(deps *GlobalTable, pkg *ast.Package, opts Options) *Resolver {
	r := NewResolver(deps.Clone(), opts)
	r.ResolveFragment(pkg)
	return r
}

// ResolveFragment resolves an additional piece of input. Top-level
// statements and items stay visible to later fragments.
func (r *Resolver) ResolveFragment(pkg *ast.Package) {
	r.collect(pkg)
	for _, ns := range pkg.Namespaces {
		r.resolveNamespace(ns)
	}
	r.hoistItems(pkg.Stmts)
	for _, s := range pkg.Stmts {
		r.resolveStmt(s)
	}
}

func (r *Resolver) report(e Error) {
	r.Errors = append(r.Errors, e)
	d := e.ToDiagnostic()
	r.reporter.Report(d.Code, d.Severity, d.Primary, d.Message, d.Notes)
}

func (r *Resolver) push(kind ScopeKind) *Scope {
	s := newScope(kind)
	r.stack = append(r.stack, s)
	return s
}

func (r *Resolver) pop() {
	r.stack = r.stack[:len(r.stack)-1]
}

func (r *Resolver) top() *Scope { return r.stack[len(r.stack)-1] }

// collect assigns ids to namespace-level items and inserts them into the
// global table before any body is resolved.
func (r *Resolver) collect(pkg *ast.Package) {
	for _, ns := range pkg.Namespaces {
		name := ast.JoinIdents(ns.Name)
		r.table.DeclareNamespace(name)
		for _, item := range ns.Items {
			r.declareItem(item, name, 0)
		}
	}
}

func (r *Resolver) declareItem(item *ast.Item, ns string, parent ids.LocalItemID) (ids.LocalItemID, *ast.Ident) {
	var name *ast.Ident
	kind := ItemCallable
	switch k := item.Kind.(type) {
	case *ast.ItemCallable:
		name = k.Decl.Name
	case *ast.ItemTy:
		name, kind = k.Name, ItemTy
	default:
		return 0, nil
	}
	id := r.itemIDs.Next()
	r.DeclItems[item.ID] = id
	r.Items[id] = &ItemInfo{ID: id, Namespace: ns, Parent: parent, AST: item}
	if parent != 0 {
		return id, name
	}
	g := GlobalItem{ID: ids.ItemID{Package: r.pkg, Item: id}, Kind: kind, Namespace: ns, Name: name.Name, Span: name.Span}
	if prev, ok := r.table.Insert(g); !ok {
		r.report(Error{Kind: ErrDuplicate, Name: name.Name, Span: name.Span, Prev: prev.Span})
	}
	return id, name
}

func (r *Resolver) resolveNamespace(ns *ast.Namespace) {
	scope := r.push(ScopeNamespace)
	scope.Namespace = ast.JoinIdents(ns.Name)
	for _, item := range ns.Items {
		if open, ok := item.Kind.(*ast.ItemOpen); ok {
			r.resolveOpen(scope, open)
		}
	}
	for _, item := range ns.Items {
		r.resolveItem(item)
	}
	r.pop()
}

func (r *Resolver) resolveOpen(scope *Scope, open *ast.ItemOpen) {
	name := ast.JoinIdents(open.Namespace)
	if !r.table.HasNamespace(name) {
		sp := open.Namespace[0].Span.Cover(open.Namespace[len(open.Namespace)-1].Span)
		r.report(Error{Kind: ErrNotAvailable, Name: name, Span: sp})
		return
	}
	alias := ""
	if open.Alias != nil {
		alias = open.Alias.Name
	}
	scope.Opens[alias] = append(scope.Opens[alias], name)
}

func (r *Resolver) resolveItem(item *ast.Item) {
	switch k := item.Kind.(type) {
	case *ast.ItemOpen:
		if r.top().Kind != ScopeNamespace {
			r.resolveOpen(r.top(), k)
		}
	case *ast.ItemCallable:
		saved := r.parent
		r.parent = r.DeclItems[item.ID]
		r.resolveCallable(k.Decl)
		r.parent = saved
	case *ast.ItemTy:
		r.resolveTyDef(k.Def)
	case *ast.ItemErr:
	}
}

func (r *Resolver) resolveCallable(decl *ast.CallableDecl) {
	scope := r.push(ScopeCallable)
	for i, g := range decl.Generics {
		scope.TyParams[g.Name] = i
	}
	r.bindPat(decl.Input)
	r.resolveTy(decl.Output)
	switch body := decl.Body.(type) {
	case *ast.BodyBlock:
		r.resolveBlock(body.Block)
	case *ast.BodySpecs:
		for _, spec := range body.Specs {
			impl, ok := spec.Body.(*ast.SpecBodyImpl)
			if !ok {
				continue
			}
			r.push(ScopeBlock)
			if impl.Input != nil {
				r.bindPat(impl.Input)
			}
			r.resolveBlock(impl.Block)
			r.pop()
		}
	}
	r.pop()
}

func (r *Resolver) resolveTyDef(def *ast.TyDef) {
	switch k := def.Kind.(type) {
	case *ast.TyDefField:
		r.resolveTy(k.Ty)
	case *ast.TyDefParen:
		r.resolveTyDef(k.Inner)
	case *ast.TyDefTuple:
		for _, item := range k.Items {
			r.resolveTyDef(item)
		}
	}
}

func (r *Resolver) resolveTy(ty *ast.Ty) {
	if ty == nil {
		return
	}
	switch k := ty.Kind.(type) {
	case *ast.TyArray:
		r.resolveTy(k.Item)
	case *ast.TyArrow:
		r.resolveTy(k.Input)
		r.resolveTy(k.Output)
	case *ast.TyHole, *ast.TyErr:
	case *ast.TyParen:
		r.resolveTy(k.Inner)
	case *ast.TyPath:
		r.Names[k.Path.ID] = r.resolveTyPath(k.Path)
	case *ast.TyParam:
		r.Names[k.Name.ID] = r.resolveTyParam(k.Name)
	case *ast.TyTuple:
		for _, item := range k.Items {
			r.resolveTy(item)
		}
	}
}

func (r *Resolver) resolveTyParam(name *ast.Ident) Res {
	for i := len(r.stack) - 1; i >= 0; i-- {
		s := r.stack[i]
		if idx, ok := s.TyParams[name.Name]; ok {
			return ResParam{Name: name.Name, Index: idx}
		}
		if s.Kind == ScopeCallable {
			break
		}
	}
	r.report(Error{Kind: ErrNotFound, Name: name.Name, Span: name.Span})
	return ResErr{}
}

func (r *Resolver) resolveTyPath(path *ast.Path) Res {
	if len(path.Namespace) == 0 {
		if path.Name.Name == "Unit" {
			return ResUnitTy{}
		}
		if prim, ok := types.LookupPrim(path.Name.Name); ok {
			return ResPrimTy{Prim: prim}
		}
	}
	return r.resolveGlobal(path, r.table.Ty)
}

// bindPat declares every binding of p in the current scope.
func (r *Resolver) bindPat(p *ast.Pat) {
	if p == nil {
		return
	}
	switch k := p.Kind.(type) {
	case *ast.PatBind:
		r.resolveTy(k.Ty)
		r.declareLocal(k.Name, p.ID)
	case *ast.PatDiscard:
		r.resolveTy(k.Ty)
	case *ast.PatElided:
	case *ast.PatParen:
		r.bindPat(k.Inner)
	case *ast.PatTuple:
		for _, item := range k.Items {
			r.bindPat(item)
		}
	}
}

func (r *Resolver) declareLocal(name *ast.Ident, node ids.NodeID) {
	scope := r.top()
	if prev, ok := scope.Locals[name.Name]; ok {
		r.report(Error{Kind: ErrDuplicate, Name: name.Name, Span: name.Span, Prev: r.localSpans[prev]})
	}
	scope.Locals[name.Name] = node
	r.localSpans[node] = name.Span
}

// hoistItems makes callables declared in a block visible to the whole block.
func (r *Resolver) hoistItems(stmts []*ast.Stmt) {
	scope := r.top()
	for _, s := range stmts {
		item, ok := s.Kind.(*ast.StmtItem)
		if !ok {
			continue
		}
		if open, ok := item.Item.Kind.(*ast.ItemOpen); ok {
			r.resolveOpen(scope, open)
			continue
		}
		ns := r.currentNamespace()
		id, name := r.declareItem(item.Item, ns, r.parent)
		if name == nil {
			continue
		}
		if prev, dup := scope.Items[name.Name]; dup {
			r.report(Error{Kind: ErrDuplicate, Name: name.Name, Span: name.Span, Prev: r.Items[prev].AST.Span})
		}
		scope.Items[name.Name] = id
	}
}

func (r *Resolver) currentNamespace() string {
	for i := len(r.stack) - 1; i >= 0; i-- {
		if r.stack[i].Kind == ScopeNamespace {
			return r.stack[i].Namespace
		}
	}
	return ""
}

func (r *Resolver) resolveBlock(b *ast.Block) {
	r.push(ScopeBlock)
	r.resolveStmts(b.Stmts)
	r.pop()
}

// resolveStmts resolves statements into the current scope.
func (r *Resolver) resolveStmts(stmts []*ast.Stmt) {
	r.hoistItems(stmts)
	for _, s := range stmts {
		r.resolveStmt(s)
	}
}

func (r *Resolver) resolveStmt(s *ast.Stmt) {
	switch k := s.Kind.(type) {
	case *ast.StmtEmpty, *ast.StmtErr:
	case *ast.StmtExpr:
		r.resolveExpr(k.Expr)
	case *ast.StmtSemi:
		r.resolveExpr(k.Expr)
	case *ast.StmtItem:
		if _, ok := k.Item.Kind.(*ast.ItemOpen); ok {
			return
		}
		r.resolveItem(k.Item)
	case *ast.StmtLocal:
		r.resolveExpr(k.Expr)
		r.bindPat(k.Pat)
	case *ast.StmtQubit:
		r.resolveQubitInit(k.Init)
		if k.Block == nil {
			r.bindPat(k.Pat)
			return
		}
		r.push(ScopeBlock)
		r.bindPat(k.Pat)
		r.resolveBlock(k.Block)
		r.pop()
	}
}

func (r *Resolver) resolveQubitInit(q *ast.QubitInit) {
	switch k := q.Kind.(type) {
	case *ast.QubitSingle:
	case *ast.QubitArray:
		r.resolveExpr(k.Size)
	case *ast.QubitParen:
		r.resolveQubitInit(k.Inner)
	case *ast.QubitTuple:
		for _, item := range k.Items {
			r.resolveQubitInit(item)
		}
	}
}

func (r *Resolver) resolveExprs(es []*ast.Expr) {
	for _, e := range es {
		if e != nil {
			r.resolveExpr(e)
		}
	}
}

func (r *Resolver) resolveExpr(e *ast.Expr) {
	switch k := e.Kind.(type) {
	case *ast.ExprArray:
		r.resolveExprs(k.Items)
	case *ast.ExprArrayRepeat:
		r.resolveExprs([]*ast.Expr{k.Value, k.Size})
	case *ast.ExprAssign:
		r.resolveExprs([]*ast.Expr{k.Lhs, k.Rhs})
	case *ast.ExprAssignOp:
		r.resolveExprs([]*ast.Expr{k.Lhs, k.Rhs})
	case *ast.ExprAssignUpdate:
		r.resolveExprs([]*ast.Expr{k.Record, k.Index, k.Value})
	case *ast.ExprBinOp:
		r.resolveExprs([]*ast.Expr{k.Lhs, k.Rhs})
	case *ast.ExprBlock:
		r.resolveBlock(k.Block)
	case *ast.ExprCall:
		r.resolveExprs([]*ast.Expr{k.Callee, k.Arg})
	case *ast.ExprConjugate:
		// bindings of the within block are visible in the apply block
		r.push(ScopeBlock)
		r.resolveStmts(k.Within.Stmts)
		r.resolveBlock(k.Apply)
		r.pop()
	case *ast.ExprFail:
		r.resolveExpr(k.Msg)
	case *ast.ExprFor:
		r.resolveExpr(k.Iterable)
		r.push(ScopeBlock)
		r.bindPat(k.Pat)
		r.resolveBlock(k.Body)
		r.pop()
	case *ast.ExprHole, *ast.ExprLit, *ast.ExprErr:
	case *ast.ExprIf:
		r.resolveExpr(k.Cond)
		r.resolveBlock(k.Body)
		if k.Otherwise != nil {
			r.resolveExpr(k.Otherwise)
		}
	case *ast.ExprIndex:
		r.resolveExprs([]*ast.Expr{k.Array, k.Index})
	case *ast.ExprParen:
		r.resolveExpr(k.Inner)
	case *ast.ExprPath:
		r.Names[k.Path.ID] = r.resolveTermPath(k.Path)
	case *ast.ExprRange:
		r.resolveExprs([]*ast.Expr{k.Start, k.Step, k.End})
	case *ast.ExprRepeat:
		// the until condition and fixup see the body's bindings
		r.push(ScopeBlock)
		r.resolveStmts(k.Body.Stmts)
		r.resolveExpr(k.Until)
		if k.Fixup != nil {
			r.resolveBlock(k.Fixup)
		}
		r.pop()
	case *ast.ExprReturn:
		r.resolveExpr(k.Value)
	case *ast.ExprTernary:
		r.resolveExprs([]*ast.Expr{k.Cond, k.IfTrue, k.IfFalse})
	case *ast.ExprTuple:
		r.resolveExprs(k.Items)
	case *ast.ExprUnOp:
		r.resolveExpr(k.Operand)
	case *ast.ExprUpdate:
		r.resolveExprs([]*ast.Expr{k.Record, k.Index, k.Value})
	case *ast.ExprWhile:
		r.resolveExpr(k.Cond)
		r.resolveBlock(k.Body)
	}
}

// resolveTermPath looks a value name up: locals innermost first (not across
// a callable boundary), block items, then globals.
func (r *Resolver) resolveTermPath(path *ast.Path) Res {
	if len(path.Namespace) == 0 {
		name := path.Name.Name
		crossed := false
		for i := len(r.stack) - 1; i >= 0; i-- {
			s := r.stack[i]
			if !crossed {
				if node, ok := s.Locals[name]; ok {
					return ResLocal{Node: node}
				}
			}
			if id, ok := s.Items[name]; ok {
				return ResItem{ID: ids.ItemID{Package: r.pkg, Item: id}}
			}
			if s.Kind == ScopeCallable {
				crossed = true
			}
		}
	}
	return r.resolveGlobal(path, r.table.Term)
}

type lookupFn func(ns, name string) (GlobalItem, bool)

func (r *Resolver) resolveGlobal(path *ast.Path, lookup lookupFn) Res {
	name := path.Name.Name
	var candidates []string
	if len(path.Namespace) == 0 {
		if g, ok := lookup(r.currentNamespace(), name); ok {
			return ResItem{ID: g.ID}
		}
		candidates = r.opened("")
		if res, ok := r.pick(path, candidates, lookup); ok {
			return res
		}
		if res, ok := r.pick(path, Prelude, lookup); ok {
			return res
		}
	} else {
		qual := path.QualifiedNamespace()
		candidates = append(candidates, r.opened(qual)...)
		candidates = append(candidates, qual)
		for _, open := range r.opened("") {
			candidates = append(candidates, open+"."+qual)
		}
		if res, ok := r.pick(path, candidates, lookup); ok {
			return res
		}
	}
	r.report(Error{Kind: ErrNotFound, Name: pathString(path), Span: path.Span})
	return ResErr{}
}

// pick resolves name in the candidate namespaces. Finding it in two distinct
// namespaces is an ambiguity error.
func (r *Resolver) pick(path *ast.Path, namespaces []string, lookup lookupFn) (Res, bool) {
	var found []GlobalItem
	for _, ns := range namespaces {
		g, ok := lookup(ns, path.Name.Name)
		if !ok {
			continue
		}
		dup := false
		for _, f := range found {
			dup = dup || f.ID == g.ID
		}
		if !dup {
			found = append(found, g)
		}
	}
	switch len(found) {
	case 0:
		return nil, false
	case 1:
		return ResItem{ID: found[0].ID}, true
	}
	names := make([]string, len(found))
	for i, g := range found {
		names[i] = g.Namespace
	}
	r.report(Error{Kind: ErrAmbiguous, Name: path.Name.Name, Span: path.Span, Candidates: names})
	return ResErr{}, true
}

// opened returns the namespaces opened under alias in every enclosing scope.
func (r *Resolver) opened(alias string) []string {
	var out []string
	for i := len(r.stack) - 1; i >= 0; i-- {
		out = append(out, r.stack[i].Opens[alias]...)
	}
	return out
}

func pathString(path *ast.Path) string {
	if len(path.Namespace) == 0 {
		return path.Name.Name
	}
	return path.QualifiedNamespace() + "." + path.Name.Name
}
