package hir

import (
	"quill/internal/ids"
	"quill/internal/types"
)

// Cloner deep-copies HIR subtrees. Every copied node gets a fresh id and
// references to locals bound inside the copied subtree are redirected to the
// copies. Locals bound outside keep pointing at the original binding.
type Cloner struct {
	ids    *ids.Assigner
	locals map[NodeID]NodeID
}

func NewCloner(assigner *ids.Assigner) *Cloner {
	return &Cloner{ids: assigner, locals: make(map[NodeID]NodeID)}
}

// Remap makes references to from resolve to to in later clones.
func (c *Cloner) Remap(from, to NodeID) { c.locals[from] = to }

func (c *Cloner) Block(b *Block) *Block {
	if b == nil {
		return nil
	}
	out := &Block{ID: c.ids.Next(), Span: b.Span, Ty: b.Ty, Stmts: make([]*Stmt, len(b.Stmts))}
	for i, s := range b.Stmts {
		out.Stmts[i] = c.Stmt(s)
	}
	return out
}

func (c *Cloner) Stmt(s *Stmt) *Stmt {
	out := &Stmt{ID: c.ids.Next(), Span: s.Span}
	switch k := s.Kind.(type) {
	case *StmtExpr:
		out.Kind = &StmtExpr{Expr: c.Expr(k.Expr)}
	case *StmtSemi:
		out.Kind = &StmtSemi{Expr: c.Expr(k.Expr)}
	case *StmtItem:
		out.Kind = &StmtItem{Item: k.Item}
	case *StmtLocal:
		// the initializer cannot see the new binding
		init := c.Expr(k.Expr)
		out.Kind = &StmtLocal{Mutability: k.Mutability, Pat: c.Pat(k.Pat), Expr: init}
	case *StmtQubit:
		init := c.qubitInit(k.Init)
		out.Kind = &StmtQubit{Source: k.Source, Pat: c.Pat(k.Pat), Init: init, Block: c.Block(k.Block)}
	}
	return out
}

func (c *Cloner) qubitInit(q *QubitInit) *QubitInit {
	out := &QubitInit{ID: c.ids.Next(), Span: q.Span, Ty: q.Ty}
	switch k := q.Kind.(type) {
	case *QubitSingle:
		out.Kind = &QubitSingle{}
	case *QubitArray:
		out.Kind = &QubitArray{Size: c.Expr(k.Size)}
	case *QubitTuple:
		items := make([]*QubitInit, len(k.Items))
		for i, item := range k.Items {
			items[i] = c.qubitInit(item)
		}
		out.Kind = &QubitTuple{Items: items}
	}
	return out
}

// Pat copies a pattern and registers its bindings.
func (c *Cloner) Pat(p *Pat) *Pat {
	if p == nil {
		return nil
	}
	out := &Pat{ID: c.ids.Next(), Span: p.Span, Ty: p.Ty}
	switch k := p.Kind.(type) {
	case *PatBind:
		c.locals[p.ID] = out.ID
		out.Kind = &PatBind{Name: &Ident{ID: c.ids.Next(), Span: k.Name.Span, Name: k.Name.Name}}
	case *PatDiscard:
		out.Kind = &PatDiscard{}
	case *PatTuple:
		items := make([]*Pat, len(k.Items))
		for i, item := range k.Items {
			items[i] = c.Pat(item)
		}
		out.Kind = &PatTuple{Items: items}
	}
	return out
}

func (c *Cloner) exprs(in []*Expr) []*Expr {
	out := make([]*Expr, len(in))
	for i, e := range in {
		out[i] = c.Expr(e)
	}
	return out
}

func (c *Cloner) Expr(e *Expr) *Expr {
	if e == nil {
		return nil
	}
	out := &Expr{ID: c.ids.Next(), Span: e.Span, Ty: e.Ty}
	switch k := e.Kind.(type) {
	case *ExprArray:
		out.Kind = &ExprArray{Items: c.exprs(k.Items)}
	case *ExprArrayRepeat:
		out.Kind = &ExprArrayRepeat{Value: c.Expr(k.Value), Size: c.Expr(k.Size)}
	case *ExprAssign:
		out.Kind = &ExprAssign{Lhs: c.Expr(k.Lhs), Rhs: c.Expr(k.Rhs)}
	case *ExprAssignOp:
		out.Kind = &ExprAssignOp{Op: k.Op, Lhs: c.Expr(k.Lhs), Rhs: c.Expr(k.Rhs)}
	case *ExprAssignIndex:
		out.Kind = &ExprAssignIndex{Array: c.Expr(k.Array), Index: c.Expr(k.Index), Value: c.Expr(k.Value)}
	case *ExprBinOp:
		out.Kind = &ExprBinOp{Op: k.Op, Lhs: c.Expr(k.Lhs), Rhs: c.Expr(k.Rhs)}
	case *ExprBlock:
		out.Kind = &ExprBlock{Block: c.Block(k.Block)}
	case *ExprCall:
		out.Kind = &ExprCall{Callee: c.Expr(k.Callee), Arg: c.Expr(k.Arg)}
	case *ExprConjugate:
		out.Kind = &ExprConjugate{Within: c.Block(k.Within), Apply: c.Block(k.Apply)}
	case *ExprFail:
		out.Kind = &ExprFail{Msg: c.Expr(k.Msg)}
	case *ExprFor:
		iter := c.Expr(k.Iterable)
		out.Kind = &ExprFor{Pat: c.Pat(k.Pat), Iterable: iter, Body: c.Block(k.Body)}
	case *ExprHole:
		out.Kind = &ExprHole{}
	case *ExprIf:
		out.Kind = &ExprIf{Cond: c.Expr(k.Cond), Body: c.Expr(k.Body), Otherwise: c.Expr(k.Otherwise)}
	case *ExprIndex:
		out.Kind = &ExprIndex{Array: c.Expr(k.Array), Index: c.Expr(k.Index)}
	case *ExprLit:
		out.Kind = &ExprLit{Lit: k.Lit}
	case *ExprRange:
		out.Kind = &ExprRange{Start: c.Expr(k.Start), Step: c.Expr(k.Step), End: c.Expr(k.End)}
	case *ExprRepeat:
		out.Kind = &ExprRepeat{Body: c.Block(k.Body), Until: c.Expr(k.Until), Fixup: c.Block(k.Fixup)}
	case *ExprReturn:
		out.Kind = &ExprReturn{Value: c.Expr(k.Value)}
	case *ExprTuple:
		out.Kind = &ExprTuple{Items: c.exprs(k.Items)}
	case *ExprUnOp:
		out.Kind = &ExprUnOp{Op: k.Op, Operand: c.Expr(k.Operand)}
	case *ExprUpdateIndex:
		out.Kind = &ExprUpdateIndex{Array: c.Expr(k.Array), Index: c.Expr(k.Index), Value: c.Expr(k.Value)}
	case *ExprVar:
		out.Kind = &ExprVar{Res: c.res(k.Res), Generics: append([]types.Ty(nil), k.Generics...)}
	case *ExprWhile:
		out.Kind = &ExprWhile{Cond: c.Expr(k.Cond), Body: c.Block(k.Body)}
	case *ExprErr:
		out.Kind = &ExprErr{}
	}
	return out
}

func (c *Cloner) res(r Res) Res {
	if local, ok := r.(ResLocal); ok {
		if to, ok := c.locals[local.Node]; ok {
			return ResLocal{Node: to}
		}
	}
	return r
}
