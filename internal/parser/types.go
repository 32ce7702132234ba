package parser

import (
	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/token"
)

// parseTy parses a type with array suffixes.
func (p *Parser) parseTy() *ast.Ty {
	start := p.lx.Peek().Span
	ty := p.parseTyBase()
	for p.at(token.LBracket) && p.lx.PeekN(1).Kind == token.RBracket {
		p.advance()
		p.advance()
		ty = &ast.Ty{ID: p.next(), Span: p.spanFrom(start), Kind: &ast.TyArray{Item: ty}}
	}
	return ty
}

func (p *Parser) parseTyBase() *ast.Ty {
	tok := p.lx.Peek()
	switch tok.Kind {
	case token.Underscore:
		p.advance()
		return &ast.Ty{ID: p.next(), Span: tok.Span, Kind: &ast.TyHole{}}
	case token.TyParam:
		p.advance()
		name := &ast.Ident{ID: p.next(), Span: tok.Span, Name: tok.Text}
		return &ast.Ty{ID: p.next(), Span: tok.Span, Kind: &ast.TyParam{Name: name}}
	case token.Ident:
		path := p.pathFromIdents(p.parseDottedIdents())
		return &ast.Ty{ID: p.next(), Span: path.Span, Kind: &ast.TyPath{Path: path}}
	case token.LParen:
		return p.parseTyParen()
	}
	p.err(diag.SynExpectType, "expected type, got "+p.describe())
	return &ast.Ty{ID: p.next(), Span: p.diagSpan(), Kind: &ast.TyErr{}}
}

// parseTyParen handles (), (T), (T,), (T, U) and arrows (In -> Out), (In => Out is Adj).
func (p *Parser) parseTyParen() *ast.Ty {
	start := p.advance().Span // (
	var items []*ast.Ty
	trailingComma := false
	for !p.atAny(token.RParen, token.EOF) {
		item := p.parseTy()
		if p.atAny(token.Arrow, token.FatArrow) && len(items) == 0 {
			arrow := &ast.TyArrow{Kind: ast.Function, Input: item}
			if p.advance().Kind == token.FatArrow {
				arrow.Kind = ast.Operation
			}
			arrow.Output = p.parseTy()
			if p.eat(token.KwIs) {
				arrow.Functors = p.parseFunctorExpr()
			}
			p.expect(token.RParen, diag.SynUnclosedDelim)
			return &ast.Ty{ID: p.next(), Span: p.spanFrom(start), Kind: arrow}
		}
		items = append(items, item)
		trailingComma = p.eat(token.Comma)
		if !trailingComma {
			break
		}
	}
	p.expect(token.RParen, diag.SynUnclosedDelim)
	if len(items) == 1 && !trailingComma {
		return &ast.Ty{ID: p.next(), Span: p.spanFrom(start), Kind: &ast.TyParen{Inner: items[0]}}
	}
	return &ast.Ty{ID: p.next(), Span: p.spanFrom(start), Kind: &ast.TyTuple{Items: items}}
}

// parsePat parses binding patterns: x, x : T, _, _ : T, (a, b), ...
func (p *Parser) parsePat() *ast.Pat {
	tok := p.lx.Peek()
	switch tok.Kind {
	case token.DotDotDot:
		p.advance()
		return &ast.Pat{ID: p.next(), Span: tok.Span, Kind: &ast.PatElided{}}
	case token.Underscore:
		p.advance()
		pat := &ast.PatDiscard{}
		if p.eat(token.Colon) {
			pat.Ty = p.parseTy()
		}
		return &ast.Pat{ID: p.next(), Span: p.spanFrom(tok.Span), Kind: pat}
	case token.Ident:
		pat := &ast.PatBind{Name: p.parseIdent()}
		if p.eat(token.Colon) {
			pat.Ty = p.parseTy()
		}
		return &ast.Pat{ID: p.next(), Span: p.spanFrom(tok.Span), Kind: pat}
	case token.LParen:
		p.advance()
		var items []*ast.Pat
		trailingComma := false
		for !p.atAny(token.RParen, token.EOF) {
			items = append(items, p.parsePat())
			trailingComma = p.eat(token.Comma)
			if !trailingComma {
				break
			}
		}
		p.expect(token.RParen, diag.SynUnclosedDelim)
		if len(items) == 1 && !trailingComma {
			return &ast.Pat{ID: p.next(), Span: p.spanFrom(tok.Span), Kind: &ast.PatParen{Inner: items[0]}}
		}
		return &ast.Pat{ID: p.next(), Span: p.spanFrom(tok.Span), Kind: &ast.PatTuple{Items: items}}
	}
	p.err(diag.SynExpectIdentifier, "expected pattern, got "+p.describe())
	return &ast.Pat{ID: p.next(), Span: p.diagSpan(), Kind: &ast.PatDiscard{}}
}

// parseQubitInit: Qubit(), Qubit[n], (init, init).
func (p *Parser) parseQubitInit() *ast.QubitInit {
	tok := p.lx.Peek()
	if tok.Kind == token.LParen {
		p.advance()
		var items []*ast.QubitInit
		trailingComma := false
		for !p.atAny(token.RParen, token.EOF) {
			items = append(items, p.parseQubitInit())
			trailingComma = p.eat(token.Comma)
			if !trailingComma {
				break
			}
		}
		p.expect(token.RParen, diag.SynUnclosedDelim)
		if len(items) == 1 && !trailingComma {
			return &ast.QubitInit{ID: p.next(), Span: p.spanFrom(tok.Span), Kind: &ast.QubitParen{Inner: items[0]}}
		}
		return &ast.QubitInit{ID: p.next(), Span: p.spanFrom(tok.Span), Kind: &ast.QubitTuple{Items: items}}
	}
	if !p.atIdent("Qubit") {
		p.err(diag.SynUnexpectedToken, "expected 'Qubit()' or 'Qubit[n]', got "+p.describe())
		return &ast.QubitInit{ID: p.next(), Span: tok.Span, Kind: &ast.QubitSingle{}}
	}
	p.advance()
	if p.eat(token.LBracket) {
		size := p.parseExpr()
		p.expect(token.RBracket, diag.SynUnclosedDelim)
		return &ast.QubitInit{ID: p.next(), Span: p.spanFrom(tok.Span), Kind: &ast.QubitArray{Size: size}}
	}
	p.expect(token.LParen, diag.SynUnexpectedToken)
	p.expect(token.RParen, diag.SynUnclosedDelim)
	return &ast.QubitInit{ID: p.next(), Span: p.spanFrom(tok.Span), Kind: &ast.QubitSingle{}}
}
