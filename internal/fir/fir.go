// Package fir is the flattened IR the analyses and the partial evaluator
// consume. Nodes live in per-package arenas and refer to each other by
// dense ids; locals are numbered per callable. Only constructs the
// semantic passes leave behind have a FIR form.
package fir

import (
	"sort"

	"golang.org/x/exp/maps"

	"quill/internal/arena"
	"quill/internal/ast"
	"quill/internal/ids"
	"quill/internal/source"
	"quill/internal/types"
)

type (
	BlockID    uint32
	StmtID     uint32
	ExprID     uint32
	PatID      uint32
	LocalVarID uint32
)

type (
	PackageID   = ids.PackageID
	LocalItemID = ids.LocalItemID
	ItemID      = ids.ItemID
	Lit         = ast.Lit
)

// Package owns every node of one compiled package.
type Package struct {
	ID     PackageID
	Items  map[LocalItemID]*Item
	Blocks *arena.Arena[BlockID, Block]
	Stmts  *arena.Arena[StmtID, Stmt]
	Exprs  *arena.Arena[ExprID, Expr]
	Pats   *arena.Arena[PatID, Pat]
	// Top holds top-level statements of incremental fragments in order.
	Top []StmtID
	// TopLocals counts the locals of Top.
	TopLocals int
}

func NewPackage(id PackageID) *Package {
	return &Package{
		ID:     id,
		Items:  make(map[LocalItemID]*Item),
		Blocks: arena.New[BlockID, Block](64),
		Stmts:  arena.New[StmtID, Stmt](256),
		Exprs:  arena.New[ExprID, Expr](1024),
		Pats:   arena.New[PatID, Pat](256),
	}
}

func (p *Package) Block(id BlockID) *Block { return p.Blocks.Get(id) }
func (p *Package) Stmt(id StmtID) *Stmt    { return p.Stmts.Get(id) }
func (p *Package) Expr(id ExprID) *Expr    { return p.Exprs.Get(id) }
func (p *Package) Pat(id PatID) *Pat       { return p.Pats.Get(id) }

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

// EntryPoint returns the callable marked as entry point, if any.
func (p *Package) EntryPoint() *Item {
	for _, item := range p.SortedItems() {
		if _, ok := item.Kind.(*ItemCallable); ok && item.EntryPoint {
			return item
		}
	}
	return nil
}

type Item struct {
	ID         LocalItemID
	Span       source.Span
	Namespace  string
	EntryPoint bool
	Kind       ItemKind
}

// Name returns the declared name of the item.
func (i *Item) Name() string {
	switch k := i.Kind.(type) {
	case *ItemCallable:
		return k.Decl.Name
	case *ItemTy:
		return k.Def.Name
	}
	return ""
}

type ItemKind interface{ itemKind() }

type (
	ItemCallable struct{ Decl *CallableDecl }
	ItemTy       struct{ Def *types.UdtDef }
)

func (*ItemCallable) itemKind() {}
func (*ItemTy) itemKind()       {}

// CallKind tells the backend how a callable without a body behaves.
type CallKind uint8

const (
	CallRegular CallKind = iota
	CallMeasurement
	CallReset
)

type CallableDecl struct {
	Span     source.Span
	Kind     types.CallableKind
	Name     string
	Generics []string
	Input    PatID
	Output   types.Ty
	Functors types.FunctorSet
	CallKind CallKind
	Body     SpecDecl
	// Adj, Ctl and CtlAdj are nil when the callable lacks the functor.
	// `self` specializations are already resolved to the body they reuse.
	Adj    *SpecDecl
	Ctl    *SpecDecl
	CtlAdj *SpecDecl
	// Locals counts the LocalVarIDs used by all specializations.
	Locals int
}

// Spec selects the specialization for a functor application.
func (d *CallableDecl) Spec(adj, ctl bool) *SpecDecl {
	switch {
	case adj && ctl:
		return d.CtlAdj
	case adj:
		return d.Adj
	case ctl:
		return d.Ctl
	}
	return &d.Body
}

// IsIntrinsic reports whether the target provides the body.
func (d *CallableDecl) IsIntrinsic() bool { return d.Body.Intrinsic }

type SpecDecl struct {
	Intrinsic bool
	// Input binds the control register; zero for body and adjoint.
	Input PatID
	Block BlockID
}

type Block struct {
	ID    BlockID
	Span  source.Span
	Ty    types.Ty
	Stmts []StmtID
}

type Stmt struct {
	ID   StmtID
	Span source.Span
	Kind StmtKind
}

type StmtKind interface{ stmtKind() }

type (
	StmtExpr  struct{ Expr ExprID }
	StmtSemi  struct{ Expr ExprID }
	StmtItem  struct{ Item LocalItemID }
	StmtLocal struct {
		Mutability ast.Mutability
		Pat        PatID
		Expr       ExprID
	}
)

func (*StmtExpr) stmtKind()  {}
func (*StmtSemi) stmtKind()  {}
func (*StmtItem) stmtKind()  {}
func (*StmtLocal) stmtKind() {}

type Pat struct {
	ID   PatID
	Span source.Span
	Ty   types.Ty
	Kind PatKind
}

type PatKind interface{ patKind() }

type (
	PatBind struct {
		Local LocalVarID
		Name  string
	}
	PatDiscard struct{}
	PatTuple   struct{ Items []PatID }
)

func (*PatBind) patKind()    {}
func (*PatDiscard) patKind() {}
func (*PatTuple) patKind()   {}

type Res interface{ isRes() }

type (
	ResLocal struct{ Local LocalVarID }
	ResItem  struct {
		ID       ItemID
		Generics []types.Ty
	}
)

func (ResLocal) isRes() {}
func (ResItem) isRes()  {}

type Expr struct {
	ID   ExprID
	Span source.Span
	Ty   types.Ty
	Kind ExprKind
}

type ExprKind interface{ exprKind() }

type (
	ExprArray       struct{ Items []ExprID }
	ExprArrayRepeat struct{ Value, Size ExprID }
	ExprAssign      struct{ Lhs, Rhs ExprID }
	ExprAssignOp    struct {
		Op       ast.BinOp
		Lhs, Rhs ExprID
	}
	ExprAssignIndex struct{ Array, Index, Value ExprID }
	ExprBinOp       struct {
		Op       ast.BinOp
		Lhs, Rhs ExprID
	}
	ExprBlock struct{ Block BlockID }
	ExprCall  struct{ Callee, Arg ExprID }
	ExprFail  struct{ Msg ExprID }
	ExprHole  struct{}
	ExprIf    struct {
		Cond      ExprID
		Body      ExprID
		Otherwise ExprID // zero when absent
	}
	ExprIndex struct{ Array, Index ExprID }
	ExprLit   struct{ Lit Lit }
	// ExprRange parts are zero when omitted.
	ExprRange       struct{ Start, Step, End ExprID }
	ExprReturn      struct{ Value ExprID }
	ExprTuple       struct{ Items []ExprID }
	ExprUnOp        struct {
		Op      ast.UnOp
		Operand ExprID
	}
	ExprUpdateIndex struct{ Array, Index, Value ExprID }
	ExprVar         struct{ Res Res }
	ExprWhile       struct {
		Cond ExprID
		Body BlockID
	}
)

func (*ExprArray) exprKind()       {}
func (*ExprArrayRepeat) exprKind() {}
func (*ExprAssign) exprKind()      {}
func (*ExprAssignOp) exprKind()    {}
func (*ExprAssignIndex) exprKind() {}
func (*ExprBinOp) exprKind()       {}
func (*ExprBlock) exprKind()       {}
func (*ExprCall) exprKind()        {}
func (*ExprFail) exprKind()        {}
func (*ExprHole) exprKind()        {}
func (*ExprIf) exprKind()          {}
func (*ExprIndex) exprKind()       {}
func (*ExprLit) exprKind()         {}
func (*ExprRange) exprKind()       {}
func (*ExprReturn) exprKind()      {}
func (*ExprTuple) exprKind()       {}
func (*ExprUnOp) exprKind()        {}
func (*ExprUpdateIndex) exprKind() {}
func (*ExprVar) exprKind()         {}
func (*ExprWhile) exprKind()       {}
