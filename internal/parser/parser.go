package parser

import (
	"slices"

	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/ids"
	"quill/internal/lexer"
	"quill/internal/source"
	"quill/internal/token"
)

type Options struct {
	MaxErrors uint
	Reporter  diag.Reporter
}

// Parser: состояние парсера на один файл
type Parser struct {
	lx       *lexer.Lexer
	ids      *ids.Assigner
	opts     Options
	errors   uint
	lastSpan source.Span
}

func newParser(file *source.File, assigner *ids.Assigner, opts Options) *Parser {
	if opts.Reporter == nil {
		opts.Reporter = diag.NopReporter{}
	}
	lx := lexer.New(file, lexer.Options{Reporter: opts.Reporter})
	return &Parser{lx: lx, ids: assigner, opts: opts, lastSpan: lx.EmptySpan()}
}

// ParseFile parses a source file made of namespaces.
func ParseFile(file *source.File, assigner *ids.Assigner, opts Options) *ast.Package {
	p := newParser(file, assigner, opts)
	pkg := &ast.Package{ID: p.next()}
	for !p.at(token.EOF) && !p.enough() {
		if p.at(token.KwNamespace) {
			pkg.Namespaces = append(pkg.Namespaces, p.parseNamespace())
			continue
		}
		p.err(diag.SynUnexpectedToken, "expected namespace, got "+p.describe())
		p.resyncTop()
	}
	return pkg
}

// ParseFragment parses interactive input: namespaces, top-level items and
// statements may be mixed.
func ParseFragment(file *source.File, assigner *ids.Assigner, opts Options) *ast.Package {
	p := newParser(file, assigner, opts)
	pkg := &ast.Package{ID: p.next()}
	for !p.at(token.EOF) && !p.enough() {
		if p.at(token.KwNamespace) {
			pkg.Namespaces = append(pkg.Namespaces, p.parseNamespace())
			continue
		}
		before := p.lx.Peek().Span
		stmt := p.parseStmt()
		pkg.Stmts = append(pkg.Stmts, stmt)
		if p.lx.Peek().Span == before {
			p.advance()
		}
	}
	return pkg
}

// ParseExpr parses a single expression; used by tests and the CLI.
func ParseExpr(file *source.File, assigner *ids.Assigner, opts Options) *ast.Expr {
	p := newParser(file, assigner, opts)
	e := p.parseExpr()
	if !p.at(token.EOF) {
		p.err(diag.SynUnexpectedToken, "unexpected "+p.describe()+" after expression")
	}
	return e
}

func (p *Parser) next() ids.NodeID { return p.ids.Next() }

func (p *Parser) at(k token.Kind) bool {
	return p.lx.Peek().Kind == k
}

func (p *Parser) atAny(kinds ...token.Kind) bool {
	return slices.Contains(kinds, p.lx.Peek().Kind)
}

func (p *Parser) atIdent(text string) bool {
	tok := p.lx.Peek()
	return tok.Kind == token.Ident && tok.Text == text
}

func (p *Parser) enough() bool {
	return p.opts.MaxErrors != 0 && p.errors >= p.opts.MaxErrors
}

func (p *Parser) advance() token.Token {
	tok := p.lx.Next()
	if tok.Kind != token.EOF {
		p.lastSpan = tok.Span
	}
	return tok
}

func (p *Parser) eat(k token.Kind) bool {
	if p.at(k) {
		p.advance()
		return true
	}
	return false
}

// expect: ожидаем конкретный токен. Если нет, репортим и возвращаем false.
func (p *Parser) expect(k token.Kind, code diag.Code) bool {
	if p.at(k) {
		p.advance()
		return true
	}
	p.err(code, "expected '"+k.String()+"', got "+p.describe())
	return false
}

func (p *Parser) describe() string {
	tok := p.lx.Peek()
	if tok.Kind == token.EOF {
		return "end of file"
	}
	return "'" + tok.Text + "'"
}

func (p *Parser) diagSpan() source.Span {
	tok := p.lx.Peek()
	if tok.Kind == token.EOF {
		return source.Span{File: p.lastSpan.File, Start: p.lastSpan.End, End: p.lastSpan.End}
	}
	return tok.Span
}

func (p *Parser) err(code diag.Code, msg string) {
	p.errors++
	diag.Error(p.opts.Reporter, code, p.diagSpan(), msg)
}

// spanFrom covers everything from start to the last consumed token.
func (p *Parser) spanFrom(start source.Span) source.Span {
	return start.Cover(p.lastSpan)
}

func (p *Parser) resyncTop() {
	for !p.atAny(token.EOF, token.KwNamespace) {
		if p.eat(token.Semi) {
			return
		}
		if p.at(token.RBrace) {
			p.advance()
			return
		}
		p.advance()
	}
}

// resyncStmt skips to the end of the current statement.
func (p *Parser) resyncStmt() {
	depth := 0
	for !p.at(token.EOF) {
		switch p.lx.Peek().Kind {
		case token.LBrace:
			depth++
		case token.RBrace:
			if depth == 0 {
				return
			}
			depth--
		case token.Semi:
			if depth == 0 {
				p.advance()
				return
			}
		}
		p.advance()
	}
}

func (p *Parser) parseIdent() *ast.Ident {
	tok := p.lx.Peek()
	if tok.Kind == token.Ident {
		p.advance()
		return &ast.Ident{ID: p.next(), Span: tok.Span, Name: tok.Text}
	}
	p.err(diag.SynExpectIdentifier, "expected identifier, got "+p.describe())
	return &ast.Ident{ID: p.next(), Span: p.diagSpan(), Name: ""}
}

// parseDottedIdents parses A.B.C.
func (p *Parser) parseDottedIdents() []*ast.Ident {
	parts := []*ast.Ident{p.parseIdent()}
	for p.at(token.Dot) && p.lx.PeekN(1).Kind == token.Ident {
		p.advance()
		parts = append(parts, p.parseIdent())
	}
	return parts
}

func (p *Parser) pathFromIdents(parts []*ast.Ident) *ast.Path {
	last := parts[len(parts)-1]
	return &ast.Path{
		ID:        p.next(),
		Span:      parts[0].Span.Cover(last.Span),
		Namespace: parts[:len(parts)-1],
		Name:      last,
	}
}

func (p *Parser) parseNamespace() *ast.Namespace {
	start := p.advance().Span // namespace
	ns := &ast.Namespace{ID: p.next(), Name: p.parseDottedIdents()}
	if !p.expect(token.LBrace, diag.SynUnexpectedToken) {
		p.resyncTop()
		ns.Span = p.spanFrom(start)
		return ns
	}
	for !p.atAny(token.RBrace, token.EOF) && !p.enough() {
		before := p.lx.Peek().Span
		if item := p.parseItem(); item != nil {
			ns.Items = append(ns.Items, item)
		}
		if p.lx.Peek().Span == before {
			p.advance()
		}
	}
	p.expect(token.RBrace, diag.SynUnclosedDelim)
	ns.Span = p.spanFrom(start)
	return ns
}

// isItemStart reports whether the next tokens begin an item.
func (p *Parser) isItemStart() bool {
	return p.atAny(token.At, token.KwFunction, token.KwOperation, token.KwNewtype, token.KwOpen)
}

func (p *Parser) parseItem() *ast.Item {
	start := p.lx.Peek().Span
	item := &ast.Item{ID: p.next()}
	for p.at(token.At) {
		item.Attrs = append(item.Attrs, p.parseAttr())
	}
	switch p.lx.Peek().Kind {
	case token.KwOpen:
		p.advance()
		open := &ast.ItemOpen{Namespace: p.parseDottedIdents()}
		if p.eat(token.KwAs) {
			open.Alias = p.parseIdent()
		}
		p.expect(token.Semi, diag.SynExpectSemicolon)
		item.Kind = open
	case token.KwFunction, token.KwOperation:
		item.Kind = &ast.ItemCallable{Decl: p.parseCallable()}
	case token.KwNewtype:
		p.advance()
		ty := &ast.ItemTy{Name: p.parseIdent()}
		p.expect(token.Eq, diag.SynUnexpectedToken)
		ty.Def = p.parseTyDef()
		p.expect(token.Semi, diag.SynExpectSemicolon)
		item.Kind = ty
	default:
		p.err(diag.SynUnexpectedToken, "expected item, got "+p.describe())
		p.resyncStmt()
		item.Kind = &ast.ItemErr{}
	}
	item.Span = p.spanFrom(start)
	return item
}

func (p *Parser) parseAttr() *ast.Attr {
	start := p.advance().Span // @
	attr := &ast.Attr{ID: p.next(), Name: p.parseIdent()}
	if p.at(token.LParen) {
		arg := p.parseParenOrTuple()
		attr.Arg = arg
	} else {
		p.err(diag.SynBadAttribute, "expected '(' after attribute name")
	}
	attr.Span = p.spanFrom(start)
	return attr
}

func (p *Parser) parseCallable() *ast.CallableDecl {
	kw := p.advance()
	decl := &ast.CallableDecl{ID: p.next(), Kind: ast.Function}
	if kw.Kind == token.KwOperation {
		decl.Kind = ast.Operation
	}
	decl.Name = p.parseIdent()
	if p.eat(token.Lt) {
		for !p.atAny(token.Gt, token.EOF) {
			tok := p.lx.Peek()
			if tok.Kind != token.TyParam {
				p.err(diag.SynExpectType, "expected type parameter, got "+p.describe())
				break
			}
			p.advance()
			decl.Generics = append(decl.Generics, &ast.Ident{ID: p.next(), Span: tok.Span, Name: tok.Text})
			if !p.eat(token.Comma) {
				break
			}
		}
		p.expect(token.Gt, diag.SynUnclosedDelim)
	}
	if !p.at(token.LParen) {
		p.err(diag.SynUnexpectedToken, "expected '(' to start parameters")
	}
	decl.Input = p.parsePat()
	p.expect(token.Colon, diag.SynExpectType)
	decl.Output = p.parseTy()
	if p.eat(token.KwIs) {
		decl.Functors = p.parseFunctorExpr()
	}
	decl.Body = p.parseCallableBody()
	decl.Span = p.spanFrom(kw.Span)
	return decl
}

func (p *Parser) parseCallableBody() ast.CallableBody {
	if !p.at(token.LBrace) {
		p.err(diag.SynUnexpectedToken, "expected callable body, got "+p.describe())
		return &ast.BodyBlock{Block: &ast.Block{ID: p.next(), Span: p.diagSpan()}}
	}
	next := p.lx.PeekN(1).Kind
	if next != token.KwBody && next != token.KwAdjoint && next != token.KwControlled {
		return &ast.BodyBlock{Block: p.parseBlock()}
	}
	p.advance() // {
	specs := &ast.BodySpecs{}
	for p.atAny(token.KwBody, token.KwAdjoint, token.KwControlled) {
		specs.Specs = append(specs.Specs, p.parseSpecDecl())
	}
	p.expect(token.RBrace, diag.SynUnclosedDelim)
	return specs
}

func (p *Parser) parseSpecDecl() *ast.SpecDecl {
	start := p.lx.Peek().Span
	decl := &ast.SpecDecl{ID: p.next()}
	switch p.advance().Kind {
	case token.KwBody:
		decl.Spec = ast.SpecBody
	case token.KwAdjoint:
		decl.Spec = ast.SpecAdj
	case token.KwControlled:
		decl.Spec = ast.SpecCtl
		if p.eat(token.KwAdjoint) {
			decl.Spec = ast.SpecCtlAdj
		}
	}
	gen := ast.GenAuto
	isGen := true
	switch p.lx.Peek().Kind {
	case token.KwAuto:
	case token.KwDistribute:
		gen = ast.GenDistribute
	case token.KwIntrinsic:
		gen = ast.GenIntrinsic
	case token.KwInvert:
		gen = ast.GenInvert
	case token.KwSelf:
		gen = ast.GenSelf
	default:
		isGen = false
	}
	if isGen {
		p.advance()
		p.expect(token.Semi, diag.SynExpectSemicolon)
		decl.Body = &ast.SpecBodyGen{Gen: gen}
	} else {
		impl := &ast.SpecBodyImpl{}
		if p.atAny(token.LParen, token.DotDotDot) {
			impl.Input = p.parsePat()
		}
		impl.Block = p.parseBlock()
		decl.Body = impl
	}
	decl.Span = p.spanFrom(start)
	return decl
}

// parseFunctorExpr: Adj, Ctl, Adj + Ctl, Adj * Ctl, (…).
func (p *Parser) parseFunctorExpr() *ast.FunctorExpr {
	lhs := p.parseFunctorTerm()
	for p.atAny(token.Plus, token.Star) {
		op := ast.SetUnion
		if p.advance().Kind == token.Star {
			op = ast.SetIntersect
		}
		rhs := p.parseFunctorTerm()
		lhs = &ast.FunctorExpr{ID: p.next(), Span: lhs.Span.Cover(rhs.Span), Kind: &ast.FunctorBinOp{Op: op, Lhs: lhs, Rhs: rhs}}
	}
	return lhs
}

func (p *Parser) parseFunctorTerm() *ast.FunctorExpr {
	tok := p.lx.Peek()
	switch tok.Kind {
	case token.KwAdj:
		p.advance()
		return &ast.FunctorExpr{ID: p.next(), Span: tok.Span, Kind: &ast.FunctorLit{Functor: ast.FunctorAdj}}
	case token.KwCtl:
		p.advance()
		return &ast.FunctorExpr{ID: p.next(), Span: tok.Span, Kind: &ast.FunctorLit{Functor: ast.FunctorCtl}}
	case token.LParen:
		p.advance()
		inner := p.parseFunctorExpr()
		p.expect(token.RParen, diag.SynUnclosedDelim)
		return &ast.FunctorExpr{ID: p.next(), Span: p.spanFrom(tok.Span), Kind: &ast.FunctorParen{Inner: inner}}
	}
	p.err(diag.SynUnexpectedToken, "expected functor 'Adj' or 'Ctl', got "+p.describe())
	return &ast.FunctorExpr{ID: p.next(), Span: tok.Span, Kind: &ast.FunctorLit{Functor: ast.FunctorAdj}}
}

func (p *Parser) parseTyDef() *ast.TyDef {
	start := p.lx.Peek().Span
	if p.at(token.LParen) {
		p.advance()
		var items []*ast.TyDef
		trailingComma := false
		for !p.atAny(token.RParen, token.EOF) {
			items = append(items, p.parseTyDef())
			trailingComma = p.eat(token.Comma)
			if !trailingComma {
				break
			}
		}
		p.expect(token.RParen, diag.SynUnclosedDelim)
		if len(items) == 1 && !trailingComma {
			return &ast.TyDef{ID: p.next(), Span: p.spanFrom(start), Kind: &ast.TyDefParen{Inner: items[0]}}
		}
		return &ast.TyDef{ID: p.next(), Span: p.spanFrom(start), Kind: &ast.TyDefTuple{Items: items}}
	}
	field := &ast.TyDefField{}
	if p.at(token.Ident) && p.lx.PeekN(1).Kind == token.Colon {
		field.Name = p.parseIdent()
		p.advance()
	}
	field.Ty = p.parseTy()
	return &ast.TyDef{ID: p.next(), Span: p.spanFrom(start), Kind: field}
}
