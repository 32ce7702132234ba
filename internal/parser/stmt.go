package parser

import (
	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/source"
	"quill/internal/token"
)

func (p *Parser) parseBlock() *ast.Block {
	start := p.lx.Peek().Span
	block := &ast.Block{ID: p.next()}
	if !p.expect(token.LBrace, diag.SynUnexpectedToken) {
		block.Span = start
		return block
	}
	for !p.atAny(token.RBrace, token.EOF) && !p.enough() {
		before := p.lx.Peek().Span
		block.Stmts = append(block.Stmts, p.parseStmt())
		if p.lx.Peek().Span == before {
			p.advance()
		}
	}
	p.expect(token.RBrace, diag.SynUnclosedDelim)
	block.Span = p.spanFrom(start)
	return block
}

func (p *Parser) parseStmt() *ast.Stmt {
	start := p.lx.Peek().Span
	stmt := &ast.Stmt{ID: p.next()}
	switch p.lx.Peek().Kind {
	case token.Semi:
		p.advance()
		stmt.Kind = &ast.StmtEmpty{}
	case token.At, token.KwFunction, token.KwOperation, token.KwNewtype, token.KwOpen:
		stmt.Kind = &ast.StmtItem{Item: p.parseItem()}
	case token.KwLet, token.KwMutable:
		mut := ast.Immutable
		if p.advance().Kind == token.KwMutable {
			mut = ast.Mutable
		}
		pat := p.parsePat()
		p.expect(token.Eq, diag.SynUnexpectedToken)
		init := p.parseExpr()
		p.expect(token.Semi, diag.SynExpectSemicolon)
		stmt.Kind = &ast.StmtLocal{Mutability: mut, Pat: pat, Expr: init}
	case token.KwUse, token.KwBorrow:
		src := ast.QubitFresh
		if p.advance().Kind == token.KwBorrow {
			src = ast.QubitDirty
		}
		q := &ast.StmtQubit{Source: src, Pat: p.parsePat()}
		p.expect(token.Eq, diag.SynUnexpectedToken)
		q.Init = p.parseQubitInit()
		if p.at(token.LBrace) {
			q.Block = p.parseBlock()
		} else {
			p.expect(token.Semi, diag.SynExpectSemicolon)
		}
		stmt.Kind = q
	case token.KwSet:
		p.advance()
		e := p.parseSetTail(start)
		p.expect(token.Semi, diag.SynExpectSemicolon)
		stmt.Kind = &ast.StmtSemi{Expr: e}
	default:
		e := p.parseExpr()
		if _, isErr := e.Kind.(*ast.ExprErr); isErr {
			p.resyncStmt()
			stmt.Kind = &ast.StmtErr{}
			break
		}
		if p.eat(token.Semi) {
			stmt.Kind = &ast.StmtSemi{Expr: e}
		} else if isBlockLike(e) || p.at(token.RBrace) || p.at(token.EOF) {
			stmt.Kind = &ast.StmtExpr{Expr: e}
		} else {
			p.err(diag.SynExpectSemicolon, "expected ';', got "+p.describe())
			stmt.Kind = &ast.StmtSemi{Expr: e}
		}
	}
	stmt.Span = p.spanFrom(start)
	return stmt
}

// parseSetTail parses what follows `set`: lhs = e, lhs op= e, lhs w/= i <- v.
func (p *Parser) parseSetTail(start source.Span) *ast.Expr {
	lhs := p.parseExprPrec(precRange + 1)
	tok := p.lx.Peek()
	switch {
	case tok.Kind == token.Eq:
		p.advance()
		rhs := p.parseExpr()
		return &ast.Expr{ID: p.next(), Span: p.spanFrom(start), Kind: &ast.ExprAssign{Lhs: lhs, Rhs: rhs}}
	case tok.Kind == token.WSlashEq:
		p.advance()
		idx := p.parseExprPrec(precRange)
		p.expect(token.LArrow, diag.SynUnexpectedToken)
		val := p.parseExpr()
		return &ast.Expr{ID: p.next(), Span: p.spanFrom(start), Kind: &ast.ExprAssignUpdate{Record: lhs, Index: idx, Value: val}}
	case tok.Kind.IsAssignOp():
		p.advance()
		rhs := p.parseExpr()
		return &ast.Expr{ID: p.next(), Span: p.spanFrom(start), Kind: &ast.ExprAssignOp{Op: assignOps[tok.Kind], Lhs: lhs, Rhs: rhs}}
	}
	p.err(diag.SynUnexpectedToken, "expected assignment operator, got "+p.describe())
	return &ast.Expr{ID: p.next(), Span: p.spanFrom(start), Kind: &ast.ExprErr{}}
}

var assignOps = map[token.Kind]ast.BinOp{
	token.PlusEq: ast.OpAdd, token.MinusEq: ast.OpSub, token.StarEq: ast.OpMul,
	token.SlashEq: ast.OpDiv, token.PercentEq: ast.OpMod, token.CaretEq: ast.OpExp,
	token.AmpAmpAmpEq: ast.OpAndB, token.BarBarBarEq: ast.OpOrB, token.CaretCaretCaretEq: ast.OpXorB,
	token.LtLtLtEq: ast.OpShl, token.GtGtGtEq: ast.OpShr, token.AndEq: ast.OpAndL, token.OrEq: ast.OpOrL,
}

func isBlockLike(e *ast.Expr) bool {
	switch e.Kind.(type) {
	case *ast.ExprBlock, *ast.ExprIf, *ast.ExprFor, *ast.ExprWhile, *ast.ExprRepeat, *ast.ExprConjugate:
		return true
	}
	return false
}
