package fir

// ExprChildren returns the direct sub-expressions of e, looking into
// nested blocks through their statements.
func (p *Package) ExprChildren(e *Expr) []ExprID {
	var out []ExprID
	add := func(ids ...ExprID) {
		for _, id := range ids {
			if id != 0 {
				out = append(out, id)
			}
		}
	}
	switch k := e.Kind.(type) {
	case *ExprArray:
		add(k.Items...)
	case *ExprArrayRepeat:
		add(k.Value, k.Size)
	case *ExprAssign:
		add(k.Lhs, k.Rhs)
	case *ExprAssignOp:
		add(k.Lhs, k.Rhs)
	case *ExprAssignIndex:
		add(k.Array, k.Index, k.Value)
	case *ExprBinOp:
		add(k.Lhs, k.Rhs)
	case *ExprBlock:
		add(p.BlockExprs(k.Block)...)
	case *ExprCall:
		add(k.Callee, k.Arg)
	case *ExprFail:
		add(k.Msg)
	case *ExprIf:
		add(k.Cond, k.Body, k.Otherwise)
	case *ExprIndex:
		add(k.Array, k.Index)
	case *ExprRange:
		add(k.Start, k.Step, k.End)
	case *ExprReturn:
		add(k.Value)
	case *ExprTuple:
		add(k.Items...)
	case *ExprUnOp:
		add(k.Operand)
	case *ExprUpdateIndex:
		add(k.Array, k.Index, k.Value)
	case *ExprWhile:
		add(k.Cond)
		add(p.BlockExprs(k.Body)...)
	}
	return out
}

// BlockExprs returns the top-level expression of each statement of b.
func (p *Package) BlockExprs(id BlockID) []ExprID {
	b := p.Block(id)
	if b == nil {
		return nil
	}
	out := make([]ExprID, 0, len(b.Stmts))
	for _, s := range b.Stmts {
		switch k := p.Stmt(s).Kind.(type) {
		case *StmtExpr:
			out = append(out, k.Expr)
		case *StmtSemi:
			out = append(out, k.Expr)
		case *StmtLocal:
			out = append(out, k.Expr)
		}
	}
	return out
}

// WalkExprs visits e and every expression below it in preorder until f
// returns false for a node.
func (p *Package) WalkExprs(id ExprID, f func(ExprID, *Expr) bool) {
	e := p.Expr(id)
	if e == nil || !f(id, e) {
		return
	}
	for _, child := range p.ExprChildren(e) {
		p.WalkExprs(child, f)
	}
}
