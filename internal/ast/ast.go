// Package ast is the syntax tree produced by the parser. Every node carries
// a package-unique NodeID; later phases key their side tables by it.
// Kind fields are closed sum types: each variant implements the marker
// method of its interface and consumers switch over all variants.
package ast

import (
	"math/big"

	"quill/internal/ids"
	"quill/internal/source"
)

type NodeID = ids.NodeID

// Package is one compilation unit: namespaces for whole-file compiles, or
// top-level statements for incremental fragments.
type Package struct {
	ID         NodeID
	Namespaces []*Namespace
	Stmts      []*Stmt
}

type Ident struct {
	ID   NodeID
	Span source.Span
	Name string
}

// Path is a possibly namespace-qualified name: A.B.C has Namespace [A, B]
// and Name C.
type Path struct {
	ID        NodeID
	Span      source.Span
	Namespace []*Ident
	Name      *Ident
}

// QualifiedNamespace joins namespace segments with dots.
func (p *Path) QualifiedNamespace() string {
	return JoinIdents(p.Namespace)
}

func JoinIdents(parts []*Ident) string {
	out := ""
	for i, id := range parts {
		if i > 0 {
			out += "."
		}
		out += id.Name
	}
	return out
}

type Namespace struct {
	ID    NodeID
	Span  source.Span
	Name  []*Ident
	Items []*Item
}

type Attr struct {
	ID   NodeID
	Span source.Span
	Name *Ident
	Arg  *Expr
}

type Item struct {
	ID    NodeID
	Span  source.Span
	Attrs []*Attr
	Kind  ItemKind
}

type ItemKind interface{ itemKind() }

type (
	ItemOpen struct {
		Namespace []*Ident
		Alias     *Ident
	}
	ItemCallable struct{ Decl *CallableDecl }
	ItemTy       struct {
		Name *Ident
		Def  *TyDef
	}
	ItemErr struct{}
)

func (*ItemOpen) itemKind()     {}
func (*ItemCallable) itemKind() {}
func (*ItemTy) itemKind()       {}
func (*ItemErr) itemKind()      {}

type CallableKind uint8

const (
	Function CallableKind = iota
	Operation
)

func (k CallableKind) String() string {
	if k == Operation {
		return "operation"
	}
	return "function"
}

type CallableDecl struct {
	ID       NodeID
	Span     source.Span
	Kind     CallableKind
	Name     *Ident
	Generics []*Ident
	Input    *Pat
	Output   *Ty
	Functors *FunctorExpr
	Body     CallableBody
}

// CallableBody is either a plain block or a list of specializations.
type CallableBody interface{ callableBody() }

type (
	BodyBlock struct{ Block *Block }
	BodySpecs struct{ Specs []*SpecDecl }
)

func (*BodyBlock) callableBody() {}
func (*BodySpecs) callableBody() {}

type Spec uint8

const (
	SpecBody Spec = iota
	SpecAdj
	SpecCtl
	SpecCtlAdj
)

func (s Spec) String() string {
	switch s {
	case SpecAdj:
		return "adjoint"
	case SpecCtl:
		return "controlled"
	case SpecCtlAdj:
		return "controlled adjoint"
	default:
		return "body"
	}
}

type SpecDecl struct {
	ID   NodeID
	Span source.Span
	Spec Spec
	Body SpecDef
}

// SpecDef is either a generator directive or an explicit implementation.
type SpecDef interface{ specDef() }

type SpecGen uint8

const (
	GenAuto SpecGen = iota
	GenDistribute
	GenIntrinsic
	GenInvert
	GenSelf
)

func (g SpecGen) String() string {
	switch g {
	case GenDistribute:
		return "distribute"
	case GenIntrinsic:
		return "intrinsic"
	case GenInvert:
		return "invert"
	case GenSelf:
		return "self"
	default:
		return "auto"
	}
}

type (
	SpecBodyGen  struct{ Gen SpecGen }
	SpecBodyImpl struct {
		Input *Pat // (cs, ...) for controlled specializations, nil otherwise
		Block *Block
	}
)

func (*SpecBodyGen) specDef()  {}
func (*SpecBodyImpl) specDef() {}

type FunctorExpr struct {
	ID   NodeID
	Span source.Span
	Kind FunctorExprKind
}

type FunctorExprKind interface{ functorExprKind() }

type Functor uint8

const (
	FunctorAdj Functor = iota
	FunctorCtl
)

type SetOp uint8

const (
	SetUnion SetOp = iota
	SetIntersect
)

type (
	FunctorLit   struct{ Functor Functor }
	FunctorBinOp struct {
		Op       SetOp
		Lhs, Rhs *FunctorExpr
	}
	FunctorParen struct{ Inner *FunctorExpr }
)

func (*FunctorLit) functorExprKind()   {}
func (*FunctorBinOp) functorExprKind() {}
func (*FunctorParen) functorExprKind() {}

type Ty struct {
	ID   NodeID
	Span source.Span
	Kind TyKind
}

type TyKind interface{ tyKind() }

type (
	TyArray struct{ Item *Ty }
	TyArrow struct {
		Kind     CallableKind
		Input    *Ty
		Output   *Ty
		Functors *FunctorExpr
	}
	TyHole  struct{}
	TyParen struct{ Inner *Ty }
	TyPath  struct{ Path *Path }
	TyParam struct{ Name *Ident }
	TyTuple struct{ Items []*Ty }
	TyErr   struct{}
)

func (*TyArray) tyKind() {}
func (*TyArrow) tyKind() {}
func (*TyHole) tyKind()  {}
func (*TyParen) tyKind() {}
func (*TyPath) tyKind()  {}
func (*TyParam) tyKind() {}
func (*TyTuple) tyKind() {}
func (*TyErr) tyKind()   {}

// TyDef is the right-hand side of a newtype declaration.
type TyDef struct {
	ID   NodeID
	Span source.Span
	Kind TyDefKind
}

type TyDefKind interface{ tyDefKind() }

type (
	TyDefField struct {
		Name *Ident // optional
		Ty   *Ty
	}
	TyDefParen struct{ Inner *TyDef }
	TyDefTuple struct{ Items []*TyDef }
)

func (*TyDefField) tyDefKind() {}
func (*TyDefParen) tyDefKind() {}
func (*TyDefTuple) tyDefKind() {}

type Block struct {
	ID    NodeID
	Span  source.Span
	Stmts []*Stmt
}

type Stmt struct {
	ID   NodeID
	Span source.Span
	Kind StmtKind
}

type StmtKind interface{ stmtKind() }

type Mutability uint8

const (
	Immutable Mutability = iota
	Mutable
)

type QubitSource uint8

const (
	QubitFresh QubitSource = iota // use
	QubitDirty                    // borrow
)

type (
	StmtEmpty struct{}
	// StmtExpr is an expression without a trailing semicolon (block value).
	StmtExpr  struct{ Expr *Expr }
	StmtSemi  struct{ Expr *Expr }
	StmtItem  struct{ Item *Item }
	StmtLocal struct {
		Mutability Mutability
		Pat        *Pat
		Expr       *Expr
	}
	StmtQubit struct {
		Source QubitSource
		Pat    *Pat
		Init   *QubitInit
		Block  *Block // scoped form, nil otherwise
	}
	StmtErr struct{}
)

func (*StmtEmpty) stmtKind() {}
func (*StmtExpr) stmtKind()  {}
func (*StmtSemi) stmtKind()  {}
func (*StmtItem) stmtKind()  {}
func (*StmtLocal) stmtKind() {}
func (*StmtQubit) stmtKind() {}
func (*StmtErr) stmtKind()   {}

type QubitInit struct {
	ID   NodeID
	Span source.Span
	Kind QubitInitKind
}

type QubitInitKind interface{ qubitInitKind() }

type (
	QubitSingle struct{}
	QubitArray  struct{ Size *Expr }
	QubitParen  struct{ Inner *QubitInit }
	QubitTuple  struct{ Items []*QubitInit }
)

func (*QubitSingle) qubitInitKind() {}
func (*QubitArray) qubitInitKind()  {}
func (*QubitParen) qubitInitKind()  {}
func (*QubitTuple) qubitInitKind()  {}

type Pat struct {
	ID   NodeID
	Span source.Span
	Kind PatKind
}

type PatKind interface{ patKind() }

type (
	PatBind struct {
		Name *Ident
		Ty   *Ty // optional annotation
	}
	PatDiscard struct{ Ty *Ty }
	// PatElided is the `...` in controlled specialization inputs.
	PatElided struct{}
	PatParen  struct{ Inner *Pat }
	PatTuple  struct{ Items []*Pat }
)

func (*PatBind) patKind()    {}
func (*PatDiscard) patKind() {}
func (*PatElided) patKind()  {}
func (*PatParen) patKind()   {}
func (*PatTuple) patKind()   {}

type Expr struct {
	ID   NodeID
	Span source.Span
	Kind ExprKind
}

type ExprKind interface{ exprKind() }

type BinOp uint8

const (
	OpAdd BinOp = iota
	OpAndB
	OpAndL
	OpDiv
	OpEq
	OpExp
	OpGt
	OpGte
	OpLt
	OpLte
	OpMod
	OpMul
	OpNeq
	OpOrB
	OpOrL
	OpShl
	OpShr
	OpSub
	OpXorB
)

var binOpText = [...]string{
	OpAdd: "+", OpAndB: "&&&", OpAndL: "and", OpDiv: "/", OpEq: "==", OpExp: "^", OpGt: ">",
	OpGte: ">=", OpLt: "<", OpLte: "<=", OpMod: "%", OpMul: "*", OpNeq: "!=", OpOrB: "|||",
	OpOrL: "or", OpShl: "<<<", OpShr: ">>>", OpSub: "-", OpXorB: "^^^",
}

func (op BinOp) String() string { return binOpText[op] }

type UnOp uint8

const (
	OpNeg UnOp = iota
	OpNotB
	OpNotL
	OpPos
	OpUnwrap
	OpFunctorAdj
	OpFunctorCtl
)

func (op UnOp) String() string {
	switch op {
	case OpNeg:
		return "-"
	case OpNotB:
		return "~~~"
	case OpNotL:
		return "not "
	case OpPos:
		return "+"
	case OpUnwrap:
		return "!"
	case OpFunctorAdj:
		return "Adjoint "
	default:
		return "Controlled "
	}
}

type (
	ExprArray       struct{ Items []*Expr }
	ExprArrayRepeat struct{ Value, Size *Expr }
	ExprAssign      struct{ Lhs, Rhs *Expr }
	ExprAssignOp    struct {
		Op       BinOp
		Lhs, Rhs *Expr
	}
	// ExprAssignUpdate is `set a w/= i <- v`.
	ExprAssignUpdate struct{ Record, Index, Value *Expr }
	ExprBinOp        struct {
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
		Body      *Block
		Otherwise *Expr // nil, ExprIf (elif) or ExprBlock (else)
	}
	ExprIndex struct{ Array, Index *Expr }
	ExprLit   struct{ Lit Lit }
	ExprParen struct{ Inner *Expr }
	ExprPath  struct{ Path *Path }
	ExprRange struct{ Start, Step, End *Expr }
	ExprRepeat struct {
		Body  *Block
		Until *Expr
		Fixup *Block
	}
	ExprReturn  struct{ Value *Expr }
	ExprTernary struct{ Cond, IfTrue, IfFalse *Expr }
	ExprTuple   struct{ Items []*Expr }
	ExprUnOp    struct {
		Op      UnOp
		Operand *Expr
	}
	// ExprUpdate is `a w/ i <- v`.
	ExprUpdate struct{ Record, Index, Value *Expr }
	ExprWhile  struct {
		Cond *Expr
		Body *Block
	}
	ExprErr struct{}
)

func (*ExprArray) exprKind()        {}
func (*ExprArrayRepeat) exprKind()  {}
func (*ExprAssign) exprKind()       {}
func (*ExprAssignOp) exprKind()     {}
func (*ExprAssignUpdate) exprKind() {}
func (*ExprBinOp) exprKind()        {}
func (*ExprBlock) exprKind()        {}
func (*ExprCall) exprKind()         {}
func (*ExprConjugate) exprKind()    {}
func (*ExprFail) exprKind()         {}
func (*ExprFor) exprKind()          {}
func (*ExprHole) exprKind()         {}
func (*ExprIf) exprKind()           {}
func (*ExprIndex) exprKind()        {}
func (*ExprLit) exprKind()          {}
func (*ExprParen) exprKind()        {}
func (*ExprPath) exprKind()         {}
func (*ExprRange) exprKind()        {}
func (*ExprRepeat) exprKind()       {}
func (*ExprReturn) exprKind()       {}
func (*ExprTernary) exprKind()      {}
func (*ExprTuple) exprKind()        {}
func (*ExprUnOp) exprKind()         {}
func (*ExprUpdate) exprKind()       {}
func (*ExprWhile) exprKind()        {}
func (*ExprErr) exprKind()          {}

type Lit interface{ lit() }

type Pauli uint8

const (
	PauliI Pauli = iota
	PauliX
	PauliZ
	PauliY
)

func (p Pauli) String() string {
	return [...]string{"PauliI", "PauliX", "PauliZ", "PauliY"}[p]
}

type Result uint8

const (
	ResultZero Result = iota
	ResultOne
)

type (
	LitBigInt struct{ Value *big.Int }
	LitBool   struct{ Value bool }
	LitDouble struct{ Value float64 }
	LitInt    struct{ Value int64 }
	LitPauli  struct{ Value Pauli }
	LitResult struct{ Value Result }
	LitString struct{ Value string }
)

func (*LitBigInt) lit() {}
func (*LitBool) lit()   {}
func (*LitDouble) lit() {}
func (*LitInt) lit()    {}
func (*LitPauli) lit()  {}
func (*LitResult) lit() {}
func (*LitString) lit() {}
