// Package hir is the resolved, typed high-level IR. Every identifier
// carries its resolution and every expression and pattern carries its type.
// The semantic passes rewrite it in place; afterwards it is immutable and
// lowered to FIR.
package hir

import (
	"sort"

	"golang.org/x/exp/maps"

	"quill/internal/ast"
	"quill/internal/ids"
	"quill/internal/source"
	"quill/internal/types"
)

type (
	NodeID      = ids.NodeID
	PackageID   = ids.PackageID
	LocalItemID = ids.LocalItemID
	ItemID      = ids.ItemID
)

type (
	BinOp  = ast.BinOp
	UnOp   = ast.UnOp
	Lit    = ast.Lit
	Pauli  = ast.Pauli
	Result = ast.Result
)

type Package struct {
	ID    PackageID
	Items map[LocalItemID]*Item
	// Stmts are top-level statements of incremental fragments.
	Stmts []*Stmt
}

func NewPackage(id PackageID) *Package {
	return &Package{ID: id, Items: make(map[LocalItemID]*Item)}
}

// SortedItems returns items ordered by id.
func (p *Package) SortedItems() []*Item {
	keys := maps.Keys(p.Items)
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	out := make([]*Item, len(keys))
	for i, k := range keys {
		out[i] = p.Items[k]
	}
	return out
}

// Callables returns the callable declarations in id order.
func (p *Package) Callables() []*Item {
	var out []*Item
	for _, item := range p.SortedItems() {
		if _, ok := item.Kind.(*ItemCallable); ok {
			out = append(out, item)
		}
	}
	return out
}

// EntryPoint returns the callable marked @EntryPoint(), if any.
func (p *Package) EntryPoint() *Item {
	for _, item := range p.Callables() {
		if item.HasAttr(AttrEntryPoint) {
			return item
		}
	}
	return nil
}

type Attr uint8

const (
	AttrEntryPoint Attr = iota
	AttrMeasurement
	AttrReset
)

func (a Attr) String() string {
	switch a {
	case AttrMeasurement:
		return "Measurement"
	case AttrReset:
		return "Reset"
	default:
		return "EntryPoint"
	}
}

// LookupAttr maps an attribute name to its kind.
func LookupAttr(name string) (Attr, bool) {
	switch name {
	case "EntryPoint":
		return AttrEntryPoint, true
	case "Measurement":
		return AttrMeasurement, true
	case "Reset":
		return AttrReset, true
	}
	return 0, false
}

type Item struct {
	ID        LocalItemID
	Span      source.Span
	Namespace string
	// Parent is the enclosing callable for nested items.
	Parent LocalItemID
	Attrs  []Attr
	Kind   ItemKind
}

func (i *Item) HasAttr(a Attr) bool {
	for _, have := range i.Attrs {
		if have == a {
			return true
		}
	}
	return false
}

// Name returns the declared name of the item.
func (i *Item) Name() string {
	switch k := i.Kind.(type) {
	case *ItemCallable:
		return k.Decl.Name.Name
	case *ItemTy:
		return k.Name.Name
	}
	return ""
}

type ItemKind interface{ itemKind() }

type (
	ItemCallable struct{ Decl *CallableDecl }
	ItemTy       struct {
		Name *Ident
		Def  *types.UdtDef
	}
)

func (*ItemCallable) itemKind() {}
func (*ItemTy) itemKind()       {}

type Ident struct {
	ID   NodeID
	Span source.Span
	Name string
}

type CallableDecl struct {
	ID       NodeID
	Span     source.Span
	Kind     types.CallableKind
	Name     *Ident
	Generics []string
	Input    *Pat
	Output   types.Ty
	Functors types.FunctorSet
	Body     *SpecDecl
	Adj      *SpecDecl
	Ctl      *SpecDecl
	CtlAdj   *SpecDecl
}

// Arrow is the callable's type.
func (d *CallableDecl) Arrow() *types.Arrow {
	return &types.Arrow{Kind: d.Kind, Input: d.Input.Ty, Output: d.Output, Functors: d.Functors}
}

// Scheme is the callable's generic signature.
func (d *CallableDecl) Scheme() *types.Scheme {
	return &types.Scheme{Params: d.Generics, Ty: d.Arrow()}
}

// Spec returns the specialization slot for s.
func (d *CallableDecl) Spec(s ast.Spec) *SpecDecl {
	switch s {
	case ast.SpecAdj:
		return d.Adj
	case ast.SpecCtl:
		return d.Ctl
	case ast.SpecCtlAdj:
		return d.CtlAdj
	default:
		return d.Body
	}
}

// SetSpec stores a specialization into its slot.
func (d *CallableDecl) SetSpec(s ast.Spec, decl *SpecDecl) {
	switch s {
	case ast.SpecAdj:
		d.Adj = decl
	case ast.SpecCtl:
		d.Ctl = decl
	case ast.SpecCtlAdj:
		d.CtlAdj = decl
	default:
		d.Body = decl
	}
}

// IsIntrinsic reports whether the body is provided by the target.
func (d *CallableDecl) IsIntrinsic() bool {
	gen, ok := d.Body.Body.(*SpecGen)
	return ok && gen.Gen == ast.GenIntrinsic
}

type SpecDecl struct {
	ID   NodeID
	Span source.Span
	Body SpecBody
}

type SpecBody interface{ specBody() }

type (
	SpecGen  struct{ Gen ast.SpecGen }
	SpecImpl struct {
		Input *Pat // control register pattern for controlled specializations
		Block *Block
	}
)

func (*SpecGen) specBody()  {}
func (*SpecImpl) specBody() {}

type Block struct {
	ID    NodeID
	Span  source.Span
	Ty    types.Ty
	Stmts []*Stmt
}

type Stmt struct {
	ID   NodeID
	Span source.Span
	Kind StmtKind
}

type StmtKind interface{ stmtKind() }

type (
	StmtExpr  struct{ Expr *Expr }
	StmtSemi  struct{ Expr *Expr }
	StmtItem  struct{ Item LocalItemID }
	StmtLocal struct {
		Mutability ast.Mutability
		Pat        *Pat
		Expr       *Expr
	}
	StmtQubit struct {
		Source ast.QubitSource
		Pat    *Pat
		Init   *QubitInit
		Block  *Block
	}
)

func (*StmtExpr) stmtKind()  {}
func (*StmtSemi) stmtKind()  {}
func (*StmtItem) stmtKind()  {}
func (*StmtLocal) stmtKind() {}
func (*StmtQubit) stmtKind() {}

type QubitInit struct {
	ID   NodeID
	Span source.Span
	Ty   types.Ty
	Kind QubitInitKind
}

type QubitInitKind interface{ qubitInitKind() }

type (
	QubitSingle struct{}
	QubitArray  struct{ Size *Expr }
	QubitTuple  struct{ Items []*QubitInit }
)

func (*QubitSingle) qubitInitKind() {}
func (*QubitArray) qubitInitKind()  {}
func (*QubitTuple) qubitInitKind()  {}

type Pat struct {
	ID   NodeID
	Span source.Span
	Ty   types.Ty
	Kind PatKind
}

type PatKind interface{ patKind() }

type (
	PatBind    struct{ Name *Ident }
	PatDiscard struct{}
	PatTuple   struct{ Items []*Pat }
)

func (*PatBind) patKind()    {}
func (*PatDiscard) patKind() {}
func (*PatTuple) patKind()   {}

// Res is what an identifier resolved to.
type Res interface{ isRes() }

type (
	ResErr   struct{}
	ResLocal struct{ Node NodeID }
	ResItem  struct{ ID ItemID }
)

func (ResErr) isRes()   {}
func (ResLocal) isRes() {}
func (ResItem) isRes()  {}

type Expr struct {
	ID   NodeID
	Span source.Span
	Ty   types.Ty
	Kind ExprKind
}

type ExprKind interface{ exprKind() }

type (
	ExprArray       struct{ Items []*Expr }
	ExprArrayRepeat struct{ Value, Size *Expr }
	ExprAssign      struct{ Lhs, Rhs *Expr }
	ExprAssignOp    struct {
		Op       BinOp
		Lhs, Rhs *Expr
	}
	ExprAssignIndex struct{ Array, Index, Value *Expr }
	ExprBinOp       struct {
		Op       BinOp
		Lhs, Rhs *Expr
	}
	ExprBlock     struct{ Block *Block }
	ExprCall      struct{ Callee, Arg *Expr }
	ExprConjugate struct{ Within, Apply *Block }
	ExprFail      struct{ Msg *Expr }
	ExprFor       struct {
		Pat      *Pat
		Iterable *Expr
		Body     *Block
	}
	ExprHole struct{}
	ExprIf   struct {
		Cond      *Expr
		Body      *Expr
		Otherwise *Expr
	}
	ExprIndex  struct{ Array, Index *Expr }
	ExprLit    struct{ Lit Lit }
	ExprRange  struct{ Start, Step, End *Expr }
	ExprRepeat struct {
		Body  *Block
		Until *Expr
		Fixup *Block
	}
	ExprReturn struct{ Value *Expr }
	ExprTuple  struct{ Items []*Expr }
	ExprUnOp   struct {
		Op      UnOp
		Operand *Expr
	}
	ExprUpdateIndex struct{ Array, Index, Value *Expr }
	ExprVar         struct {
		Res      Res
		Generics []types.Ty
	}
	ExprWhile struct {
		Cond *Expr
		Body *Block
	}
	ExprErr struct{}
)

func (*ExprArray) exprKind()       {}
func (*ExprArrayRepeat) exprKind() {}
func (*ExprAssign) exprKind()      {}
func (*ExprAssignOp) exprKind()    {}
func (*ExprAssignIndex) exprKind() {}
func (*ExprBinOp) exprKind()       {}
func (*ExprBlock) exprKind()       {}
func (*ExprCall) exprKind()        {}
func (*ExprConjugate) exprKind()   {}
func (*ExprFail) exprKind()        {}
func (*ExprFor) exprKind()         {}
func (*ExprHole) exprKind()        {}
func (*ExprIf) exprKind()          {}
func (*ExprIndex) exprKind()       {}
func (*ExprLit) exprKind()         {}
func (*ExprRange) exprKind()       {}
func (*ExprRepeat) exprKind()      {}
func (*ExprReturn) exprKind()      {}
func (*ExprTuple) exprKind()       {}
func (*ExprUnOp) exprKind()        {}
func (*ExprUpdateIndex) exprKind() {}
func (*ExprVar) exprKind()         {}
func (*ExprWhile) exprKind()       {}
func (*ExprErr) exprKind()         {}
