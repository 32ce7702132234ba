package hir

// Inspect traverses a HIR subtree in depth-first order, calling f for every
// *Block, *Stmt, *Expr, *Pat and *QubitInit. If f returns false the node's
// children are skipped. Nested items referenced by StmtItem are not entered.
func Inspect(node any, f func(any) bool) {
	switch n := node.(type) {
	case *Block:
		if n == nil || !f(n) {
			return
		}
		for _, s := range n.Stmts {
			Inspect(s, f)
		}
	case *Stmt:
		if n == nil || !f(n) {
			return
		}
		switch k := n.Kind.(type) {
		case *StmtExpr:
			Inspect(k.Expr, f)
		case *StmtSemi:
			Inspect(k.Expr, f)
		case *StmtItem:
		case *StmtLocal:
			Inspect(k.Pat, f)
			Inspect(k.Expr, f)
		case *StmtQubit:
			Inspect(k.Pat, f)
			Inspect(k.Init, f)
			Inspect(k.Block, f)
		}
	case *QubitInit:
		if n == nil || !f(n) {
			return
		}
		switch k := n.Kind.(type) {
		case *QubitSingle:
		case *QubitArray:
			Inspect(k.Size, f)
		case *QubitTuple:
			for _, item := range k.Items {
				Inspect(item, f)
			}
		}
	case *Pat:
		if n == nil || !f(n) {
			return
		}
		if tup, ok := n.Kind.(*PatTuple); ok {
			for _, item := range tup.Items {
				Inspect(item, f)
			}
		}
	case *Expr:
		if n == nil || !f(n) {
			return
		}
		inspectExpr(n, f)
	case *SpecDecl:
		if n == nil {
			return
		}
		if impl, ok := n.Body.(*SpecImpl); ok {
			Inspect(impl.Input, f)
			Inspect(impl.Block, f)
		}
	case *CallableDecl:
		if n == nil {
			return
		}
		Inspect(n.Input, f)
		for _, spec := range []*SpecDecl{n.Body, n.Adj, n.Ctl, n.CtlAdj} {
			Inspect(spec, f)
		}
	}
}

func inspectExpr(e *Expr, f func(any) bool) {
	switch k := e.Kind.(type) {
	case *ExprArray:
		for _, item := range k.Items {
			Inspect(item, f)
		}
	case *ExprArrayRepeat:
		Inspect(k.Value, f)
		Inspect(k.Size, f)
	case *ExprAssign:
		Inspect(k.Lhs, f)
		Inspect(k.Rhs, f)
	case *ExprAssignOp:
		Inspect(k.Lhs, f)
		Inspect(k.Rhs, f)
	case *ExprAssignIndex:
		Inspect(k.Array, f)
		Inspect(k.Index, f)
		Inspect(k.Value, f)
	case *ExprBinOp:
		Inspect(k.Lhs, f)
		Inspect(k.Rhs, f)
	case *ExprBlock:
		Inspect(k.Block, f)
	case *ExprCall:
		Inspect(k.Callee, f)
		Inspect(k.Arg, f)
	case *ExprConjugate:
		Inspect(k.Within, f)
		Inspect(k.Apply, f)
	case *ExprFail:
		Inspect(k.Msg, f)
	case *ExprFor:
		Inspect(k.Pat, f)
		Inspect(k.Iterable, f)
		Inspect(k.Body, f)
	case *ExprHole:
	case *ExprIf:
		Inspect(k.Cond, f)
		Inspect(k.Body, f)
		if k.Otherwise != nil {
			Inspect(k.Otherwise, f)
		}
	case *ExprIndex:
		Inspect(k.Array, f)
		Inspect(k.Index, f)
	case *ExprLit:
	case *ExprRange:
		for _, part := range []*Expr{k.Start, k.Step, k.End} {
			if part != nil {
				Inspect(part, f)
			}
		}
	case *ExprRepeat:
		Inspect(k.Body, f)
		Inspect(k.Until, f)
		if k.Fixup != nil {
			Inspect(k.Fixup, f)
		}
	case *ExprReturn:
		Inspect(k.Value, f)
	case *ExprTuple:
		for _, item := range k.Items {
			Inspect(item, f)
		}
	case *ExprUnOp:
		Inspect(k.Operand, f)
	case *ExprUpdateIndex:
		Inspect(k.Array, f)
		Inspect(k.Index, f)
		Inspect(k.Value, f)
	case *ExprVar:
	case *ExprWhile:
		Inspect(k.Cond, f)
		Inspect(k.Body, f)
	case *ExprErr:
	}
}
