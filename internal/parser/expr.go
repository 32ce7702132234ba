package parser

import (
	"math/big"
	"strconv"
	"strings"

	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/source"
	"quill/internal/token"
)

// Precedence levels, loosest first.
const (
	precLowest  = iota
	precTernary // c ? a | b, a w/ i <- v
	precRange   // a..b, a..s..b
	precOrL     // or
	precAndL    // and
	precEq      // == !=
	precCmp     // < <= > >=
	precOrB     // |||
	precXorB    // ^^^
	precAndB    // &&&
	precShift   // <<< >>>
	precAdd     // + -
	precMul     // * / %
	precExp     // ^ (right associative)
	precPrefix
)

type binInfo struct {
	op    ast.BinOp
	prec  int
	right bool
}

var binOps = map[token.Kind]binInfo{
	token.KwOr:            {ast.OpOrL, precOrL, false},
	token.KwAnd:           {ast.OpAndL, precAndL, false},
	token.EqEq:            {ast.OpEq, precEq, false},
	token.Ne:              {ast.OpNeq, precEq, false},
	token.Lt:              {ast.OpLt, precCmp, false},
	token.Le:              {ast.OpLte, precCmp, false},
	token.Gt:              {ast.OpGt, precCmp, false},
	token.Ge:              {ast.OpGte, precCmp, false},
	token.BarBarBar:       {ast.OpOrB, precOrB, false},
	token.CaretCaretCaret: {ast.OpXorB, precXorB, false},
	token.AmpAmpAmp:       {ast.OpAndB, precAndB, false},
	token.LtLtLt:          {ast.OpShl, precShift, false},
	token.GtGtGt:          {ast.OpShr, precShift, false},
	token.Plus:            {ast.OpAdd, precAdd, false},
	token.Minus:           {ast.OpSub, precAdd, false},
	token.Star:            {ast.OpMul, precMul, false},
	token.Slash:           {ast.OpDiv, precMul, false},
	token.Percent:         {ast.OpMod, precMul, false},
	token.Caret:           {ast.OpExp, precExp, true},
}

func (p *Parser) parseExpr() *ast.Expr {
	return p.parseExprPrec(precLowest)
}

func (p *Parser) mk(start source.Span, kind ast.ExprKind) *ast.Expr {
	return &ast.Expr{ID: p.next(), Span: p.spanFrom(start), Kind: kind}
}

// parseExprPrec is a Pratt loop over binary, range, ternary and update operators.
func (p *Parser) parseExprPrec(minPrec int) *ast.Expr {
	start := p.lx.Peek().Span
	lhs := p.parsePrefix()
	for {
		tok := p.lx.Peek()
		switch {
		case tok.Kind == token.Question && minPrec <= precTernary:
			p.advance()
			ifTrue := p.parseExprPrec(precTernary + 1)
			p.expect(token.Bar, diag.SynUnexpectedToken)
			ifFalse := p.parseExprPrec(precTernary)
			lhs = p.mk(start, &ast.ExprTernary{Cond: lhs, IfTrue: ifTrue, IfFalse: ifFalse})
		case tok.Kind == token.WSlash && minPrec <= precTernary:
			p.advance()
			idx := p.parseExprPrec(precRange)
			p.expect(token.LArrow, diag.SynUnexpectedToken)
			val := p.parseExprPrec(precTernary + 1)
			lhs = p.mk(start, &ast.ExprUpdate{Record: lhs, Index: idx, Value: val})
		case tok.Kind == token.DotDot && minPrec <= precRange:
			p.advance()
			second := p.parseExprPrec(precRange + 1)
			if p.eat(token.DotDot) {
				end := p.parseExprPrec(precRange + 1)
				lhs = p.mk(start, &ast.ExprRange{Start: lhs, Step: second, End: end})
			} else {
				lhs = p.mk(start, &ast.ExprRange{Start: lhs, End: second})
			}
		default:
			info, ok := binOps[tok.Kind]
			if !ok || info.prec < minPrec {
				return lhs
			}
			p.advance()
			next := info.prec + 1
			if info.right {
				next = info.prec
			}
			rhs := p.parseExprPrec(next)
			lhs = p.mk(start, &ast.ExprBinOp{Op: info.op, Lhs: lhs, Rhs: rhs})
		}
	}
}

func (p *Parser) parsePrefix() *ast.Expr {
	tok := p.lx.Peek()
	var op ast.UnOp
	switch {
	case tok.Kind == token.Minus:
		op = ast.OpNeg
	case tok.Kind == token.Plus:
		op = ast.OpPos
	case tok.Kind == token.KwNot:
		op = ast.OpNotL
	case tok.Kind == token.TildeTildeTilde:
		op = ast.OpNotB
	case p.atIdent("Adjoint") || p.atIdent("Controlled"):
		return p.parsePostfix(p.parseFunctorApp())
	default:
		return p.parsePostfix(p.parsePrimary())
	}
	p.advance()
	operand := p.parseExprPrec(precPrefix)
	return p.mk(tok.Span, &ast.ExprUnOp{Op: op, Operand: operand})
}

// parseFunctorApp parses `Adjoint f` / `Controlled f`, binding tighter than call.
func (p *Parser) parseFunctorApp() *ast.Expr {
	tok := p.advance()
	op := ast.OpFunctorAdj
	if tok.Text == "Controlled" {
		op = ast.OpFunctorCtl
	}
	var operand *ast.Expr
	if p.atIdent("Adjoint") || p.atIdent("Controlled") {
		operand = p.parseFunctorApp()
	} else {
		operand = p.parsePostfixNoCall(p.parsePrimary())
	}
	return p.mk(tok.Span, &ast.ExprUnOp{Op: op, Operand: operand})
}

func (p *Parser) parsePostfix(e *ast.Expr) *ast.Expr {
	for {
		switch p.lx.Peek().Kind {
		case token.LParen:
			arg := p.parseParenOrTuple()
			e = p.mk(e.Span, &ast.ExprCall{Callee: e, Arg: arg})
		case token.LBracket:
			p.advance()
			idx := p.parseExpr()
			p.expect(token.RBracket, diag.SynUnclosedDelim)
			e = p.mk(e.Span, &ast.ExprIndex{Array: e, Index: idx})
		case token.Bang:
			if p.lx.PeekN(1).Kind == token.Eq {
				return e
			}
			p.advance()
			e = p.mk(e.Span, &ast.ExprUnOp{Op: ast.OpUnwrap, Operand: e})
		default:
			return e
		}
	}
}

func (p *Parser) parsePostfixNoCall(e *ast.Expr) *ast.Expr {
	for {
		switch p.lx.Peek().Kind {
		case token.LBracket:
			p.advance()
			idx := p.parseExpr()
			p.expect(token.RBracket, diag.SynUnclosedDelim)
			e = p.mk(e.Span, &ast.ExprIndex{Array: e, Index: idx})
		case token.Bang:
			p.advance()
			e = p.mk(e.Span, &ast.ExprUnOp{Op: ast.OpUnwrap, Operand: e})
		default:
			return e
		}
	}
}

// parseParenOrTuple: () is unit, (e) is parenthesised, (e,) and (a, b) are tuples.
func (p *Parser) parseParenOrTuple() *ast.Expr {
	start := p.advance().Span // (
	var items []*ast.Expr
	trailingComma := false
	for !p.atAny(token.RParen, token.EOF) {
		if p.at(token.Underscore) {
			tok := p.advance()
			items = append(items, &ast.Expr{ID: p.next(), Span: tok.Span, Kind: &ast.ExprHole{}})
		} else {
			items = append(items, p.parseExpr())
		}
		trailingComma = p.eat(token.Comma)
		if !trailingComma {
			break
		}
	}
	p.expect(token.RParen, diag.SynUnclosedDelim)
	if len(items) == 1 && !trailingComma {
		return p.mk(start, &ast.ExprParen{Inner: items[0]})
	}
	return p.mk(start, &ast.ExprTuple{Items: items})
}

func (p *Parser) parsePrimary() *ast.Expr {
	tok := p.lx.Peek()
	switch tok.Kind {
	case token.IntLit:
		p.advance()
		v, err := parseIntLit(tok.Text)
		if err != nil {
			p.report(diag.LexBadNumber, tok.Span, "integer literal out of range")
		}
		return p.mk(tok.Span, &ast.ExprLit{Lit: &ast.LitInt{Value: v}})
	case token.BigIntLit:
		p.advance()
		v, ok := new(big.Int).SetString(strings.TrimSuffix(tok.Text, "L"), 0)
		if !ok {
			p.report(diag.LexBadNumber, tok.Span, "malformed big integer literal")
			v = new(big.Int)
		}
		return p.mk(tok.Span, &ast.ExprLit{Lit: &ast.LitBigInt{Value: v}})
	case token.DoubleLit:
		p.advance()
		v, err := strconv.ParseFloat(strings.ReplaceAll(tok.Text, "_", ""), 64)
		if err != nil {
			p.report(diag.LexBadNumber, tok.Span, "malformed double literal")
		}
		return p.mk(tok.Span, &ast.ExprLit{Lit: &ast.LitDouble{Value: v}})
	case token.StringLit:
		p.advance()
		s, err := strconv.Unquote(tok.Text)
		if err != nil {
			s = strings.Trim(tok.Text, `"`)
		}
		return p.mk(tok.Span, &ast.ExprLit{Lit: &ast.LitString{Value: s}})
	case token.KwTrue, token.KwFalse:
		p.advance()
		return p.mk(tok.Span, &ast.ExprLit{Lit: &ast.LitBool{Value: tok.Kind == token.KwTrue}})
	case token.KwZero, token.KwOne:
		p.advance()
		r := ast.ResultZero
		if tok.Kind == token.KwOne {
			r = ast.ResultOne
		}
		return p.mk(tok.Span, &ast.ExprLit{Lit: &ast.LitResult{Value: r}})
	case token.KwPauliI, token.KwPauliX, token.KwPauliY, token.KwPauliZ:
		p.advance()
		pauli := map[token.Kind]ast.Pauli{
			token.KwPauliI: ast.PauliI, token.KwPauliX: ast.PauliX,
			token.KwPauliY: ast.PauliY, token.KwPauliZ: ast.PauliZ,
		}[tok.Kind]
		return p.mk(tok.Span, &ast.ExprLit{Lit: &ast.LitPauli{Value: pauli}})
	case token.Ident:
		path := p.pathFromIdents(p.parseDottedIdents())
		return p.mk(tok.Span, &ast.ExprPath{Path: path})
	case token.Underscore:
		p.advance()
		return p.mk(tok.Span, &ast.ExprHole{})
	case token.LParen:
		return p.parseParenOrTuple()
	case token.LBracket:
		return p.parseArray()
	case token.LBrace:
		block := p.parseBlock()
		return p.mk(tok.Span, &ast.ExprBlock{Block: block})
	case token.KwIf:
		return p.parseIf()
	case token.KwFor:
		p.advance()
		pat := p.parsePat()
		p.expect(token.KwIn, diag.SynUnexpectedToken)
		iter := p.parseExpr()
		body := p.parseBlock()
		return p.mk(tok.Span, &ast.ExprFor{Pat: pat, Iterable: iter, Body: body})
	case token.KwWhile:
		p.advance()
		cond := p.parseExpr()
		body := p.parseBlock()
		return p.mk(tok.Span, &ast.ExprWhile{Cond: cond, Body: body})
	case token.KwRepeat:
		p.advance()
		body := p.parseBlock()
		p.expect(token.KwUntil, diag.SynUnexpectedToken)
		until := p.parseExpr()
		rep := &ast.ExprRepeat{Body: body, Until: until}
		if p.eat(token.KwFixup) {
			rep.Fixup = p.parseBlock()
		} else {
			p.eat(token.Semi)
		}
		return p.mk(tok.Span, rep)
	case token.KwWithin:
		p.advance()
		within := p.parseBlock()
		p.expect(token.KwApply, diag.SynUnexpectedToken)
		apply := p.parseBlock()
		return p.mk(tok.Span, &ast.ExprConjugate{Within: within, Apply: apply})
	case token.KwReturn:
		p.advance()
		val := p.parseExpr()
		return p.mk(tok.Span, &ast.ExprReturn{Value: val})
	case token.KwFail:
		p.advance()
		msg := p.parseExpr()
		return p.mk(tok.Span, &ast.ExprFail{Msg: msg})
	}
	p.err(diag.SynExpectExpression, "expected expression, got "+p.describe())
	return &ast.Expr{ID: p.next(), Span: p.diagSpan(), Kind: &ast.ExprErr{}}
}

// parseArray: [], [a, b], [v, size = n].
func (p *Parser) parseArray() *ast.Expr {
	start := p.advance().Span // [
	var items []*ast.Expr
	for !p.atAny(token.RBracket, token.EOF) {
		if len(items) == 1 && p.atIdent("size") && p.lx.PeekN(1).Kind == token.Eq {
			p.advance()
			p.advance()
			size := p.parseExpr()
			p.expect(token.RBracket, diag.SynUnclosedDelim)
			return p.mk(start, &ast.ExprArrayRepeat{Value: items[0], Size: size})
		}
		items = append(items, p.parseExpr())
		if !p.eat(token.Comma) {
			break
		}
	}
	p.expect(token.RBracket, diag.SynUnclosedDelim)
	return p.mk(start, &ast.ExprArray{Items: items})
}

func (p *Parser) parseIf() *ast.Expr {
	start := p.advance().Span // if / elif
	cond := p.parseExpr()
	body := p.parseBlock()
	node := &ast.ExprIf{Cond: cond, Body: body}
	switch {
	case p.at(token.KwElif):
		node.Otherwise = p.parseIf()
	case p.at(token.KwElse):
		elseStart := p.advance().Span
		block := p.parseBlock()
		node.Otherwise = p.mk(elseStart, &ast.ExprBlock{Block: block})
	}
	return p.mk(start, node)
}

func (p *Parser) report(code diag.Code, sp source.Span, msg string) {
	p.errors++
	diag.Error(p.opts.Reporter, code, sp, msg)
}

// parseIntLit accepts decimal (leading zeros allowed) and 0x/0o/0b forms.
func parseIntLit(text string) (int64, error) {
	if len(text) > 1 && text[0] == '0' && strings.ContainsAny(text[1:2], "xXoObB") {
		u, err := strconv.ParseUint(text, 0, 64)
		return int64(u), err
	}
	return strconv.ParseInt(strings.ReplaceAll(text, "_", ""), 10, 64)
}
