package lexer

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"quill/internal/diag"
	"quill/internal/source"
	"quill/internal/token"
)

// Options configure a Lexer.
type Options struct {
	Reporter diag.Reporter
}

type Lexer struct {
	file   *source.File
	cursor Cursor
	opts   Options
	look   []token.Token // lookahead buffer
}

func New(file *source.File, opts Options) *Lexer {
	if opts.Reporter == nil {
		opts.Reporter = diag.NopReporter{}
	}
	return &Lexer{file: file, cursor: NewCursor(file), opts: opts}
}

// Next returns the next significant token. After EOF it keeps returning EOF.
func (lx *Lexer) Next() token.Token {
	if len(lx.look) > 0 {
		tok := lx.look[0]
		lx.look = lx.look[1:]
		return tok
	}
	return lx.scan()
}

// Peek returns the next token without consuming it.
func (lx *Lexer) Peek() token.Token {
	return lx.PeekN(0)
}

// PeekN looks n tokens ahead (0 is the next token).
func (lx *Lexer) PeekN(n int) token.Token {
	for len(lx.look) <= n {
		lx.look = append(lx.look, lx.scan())
	}
	return lx.look[n]
}

// EmptySpan is a zero-length span at the current position.
func (lx *Lexer) EmptySpan() source.Span {
	return source.Span{File: lx.file.ID, Start: lx.cursor.Off, End: lx.cursor.Off}
}

// Tokenize scans the whole file; handy for tests and `--emit tokens`.
func Tokenize(file *source.File, opts Options) []token.Token {
	lx := New(file, opts)
	var out []token.Token
	for {
		tok := lx.Next()
		out = append(out, tok)
		if tok.Kind == token.EOF {
			return out
		}
	}
}

func (lx *Lexer) scan() token.Token {
	lx.skipTrivia()
	if lx.cursor.EOF() {
		return token.Token{Kind: token.EOF, Span: lx.EmptySpan()}
	}
	start := lx.cursor.Off
	ch := lx.cursor.Peek()
	switch {
	case ch == '_' && !isIdentContinue(lx.cursor.PeekAt(1)):
		lx.cursor.Bump()
		return lx.tok(token.Underscore, start)
	case isIdentStart(ch) || ch >= utf8.RuneSelf:
		return lx.scanIdent()
	case ch == '\'' && isIdentStart(lx.cursor.PeekAt(1)):
		lx.cursor.Bump()
		for isIdentContinue(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
		return lx.tok(token.TyParam, start)
	case isDec(ch):
		return lx.scanNumber()
	case ch == '.' && isDec(lx.cursor.PeekAt(1)) && lx.cursor.PeekAt(2) != '.':
		return lx.scanNumber()
	case ch == '"':
		return lx.scanString()
	}
	return lx.scanOperator()
}

func (lx *Lexer) tok(kind token.Kind, start uint32) token.Token {
	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: kind, Span: sp, Text: string(lx.file.Content[sp.Start:sp.End])}
}

func (lx *Lexer) report(code diag.Code, sp source.Span, msg string) {
	diag.Error(lx.opts.Reporter, code, sp, msg)
}

func (lx *Lexer) skipTrivia() {
	for !lx.cursor.EOF() {
		ch := lx.cursor.Peek()
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			lx.cursor.Bump()
		case ch == '/' && lx.cursor.PeekAt(1) == '/':
			for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
				lx.cursor.Bump()
			}
		default:
			return
		}
	}
}

func (lx *Lexer) scanIdent() token.Token {
	start := lx.cursor.Off
	for !lx.cursor.EOF() {
		ch := lx.cursor.Peek()
		if ch < utf8.RuneSelf {
			if !isIdentContinue(ch) {
				break
			}
			lx.cursor.Bump()
			continue
		}
		r, size := utf8.DecodeRune(lx.file.Content[lx.cursor.Off:])
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && (lx.cursor.Off == start || !unicode.Is(unicode.Mn, r)) {
			if lx.cursor.Off == start {
				lx.cursor.Off += uint32(size)
				lx.report(diag.LexUnknownChar, lx.cursor.SpanFrom(start), "unknown character")
				return lx.tok(token.Invalid, start)
			}
			break
		}
		lx.cursor.Off += uint32(size)
	}
	tok := lx.tok(token.Ident, start)
	tok.Text = norm.NFC.String(tok.Text)
	if tok.Text == "w" && lx.cursor.Peek() == '/' {
		lx.cursor.Bump()
		kind := token.WSlash
		if lx.cursor.Eat('=') {
			kind = token.WSlashEq
		}
		return lx.tok(kind, start)
	}
	if kw, ok := token.LookupKeyword(tok.Text); ok {
		if (kw == token.KwAnd || kw == token.KwOr) && lx.cursor.Peek() == '=' && lx.cursor.PeekAt(1) != '=' {
			lx.cursor.Bump()
			if kw == token.KwAnd {
				return lx.tok(token.AndEq, start)
			}
			return lx.tok(token.OrEq, start)
		}
		tok.Kind = kw
	}
	return tok
}

func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Off
	if lx.cursor.Peek() == '0' && (lx.cursor.PeekAt(1) == 'x' || lx.cursor.PeekAt(1) == 'b' || lx.cursor.PeekAt(1) == 'o') {
		base := lx.cursor.PeekAt(1)
		lx.cursor.Bump()
		lx.cursor.Bump()
		digits := 0
		for isBaseDigit(lx.cursor.Peek(), base) || lx.cursor.Peek() == '_' {
			lx.cursor.Bump()
			digits++
		}
		if digits == 0 {
			lx.report(diag.LexBadNumber, lx.cursor.SpanFrom(start), "expected digits after base prefix")
		}
		if lx.cursor.Eat('L') {
			return lx.tok(token.BigIntLit, start)
		}
		return lx.tok(token.IntLit, start)
	}
	kind := token.IntLit
	for isDec(lx.cursor.Peek()) || lx.cursor.Peek() == '_' {
		lx.cursor.Bump()
	}
	if lx.cursor.Peek() == '.' && lx.cursor.PeekAt(1) != '.' {
		kind = token.DoubleLit
		lx.cursor.Bump()
		for isDec(lx.cursor.Peek()) || lx.cursor.Peek() == '_' {
			lx.cursor.Bump()
		}
	}
	if c := lx.cursor.Peek(); c == 'e' || c == 'E' {
		next := lx.cursor.PeekAt(1)
		if isDec(next) || ((next == '+' || next == '-') && isDec(lx.cursor.PeekAt(2))) {
			kind = token.DoubleLit
			lx.cursor.Bump()
			if next == '+' || next == '-' {
				lx.cursor.Bump()
			}
			for isDec(lx.cursor.Peek()) {
				lx.cursor.Bump()
			}
		}
	}
	if kind == token.IntLit && lx.cursor.Eat('L') {
		kind = token.BigIntLit
	}
	if isIdentStart(lx.cursor.Peek()) {
		for isIdentContinue(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
		lx.report(diag.LexBadNumber, lx.cursor.SpanFrom(start), "malformed numeric literal")
		return lx.tok(token.Invalid, start)
	}
	return lx.tok(kind, start)
}

func (lx *Lexer) scanString() token.Token {
	start := lx.cursor.Off
	lx.cursor.Bump() // opening quote
	for {
		if lx.cursor.EOF() {
			lx.report(diag.LexUnterminatedStr, lx.cursor.SpanFrom(start), "unterminated string literal")
			return lx.tok(token.Invalid, start)
		}
		ch := lx.cursor.Bump()
		if ch == '\\' {
			lx.cursor.Bump()
			continue
		}
		if ch == '"' {
			break
		}
	}
	tok := lx.tok(token.StringLit, start)
	tok.Text = norm.NFC.String(tok.Text)
	return tok
}

type opEntry struct {
	text string
	kind token.Kind
}

// longest match first
var operators = []opEntry{
	{"&&&=", token.AmpAmpAmpEq}, {"|||=", token.BarBarBarEq}, {"^^^=", token.CaretCaretCaretEq},
	{"<<<=", token.LtLtLtEq}, {">>>=", token.GtGtGtEq},
	{"&&&", token.AmpAmpAmp}, {"|||", token.BarBarBar}, {"^^^", token.CaretCaretCaret},
	{"~~~", token.TildeTildeTilde}, {"<<<", token.LtLtLt}, {">>>", token.GtGtGt},
	{"...", token.DotDotDot},
	{"..", token.DotDot}, {"==", token.EqEq}, {"!=", token.Ne}, {"<=", token.Le}, {">=", token.Ge},
	{"->", token.Arrow}, {"=>", token.FatArrow}, {"<-", token.LArrow},
	{"+=", token.PlusEq}, {"-=", token.MinusEq}, {"*=", token.StarEq}, {"/=", token.SlashEq},
	{"%=", token.PercentEq}, {"^=", token.CaretEq},
	{"(", token.LParen}, {")", token.RParen}, {"[", token.LBracket}, {"]", token.RBracket},
	{"{", token.LBrace}, {"}", token.RBrace}, {",", token.Comma}, {";", token.Semi},
	{":", token.Colon}, {".", token.Dot}, {"@", token.At}, {"?", token.Question},
	{"|", token.Bar}, {"!", token.Bang}, {"=", token.Eq}, {"<", token.Lt}, {">", token.Gt},
	{"+", token.Plus}, {"-", token.Minus}, {"*", token.Star}, {"/", token.Slash},
	{"%", token.Percent}, {"^", token.Caret},
}

func (lx *Lexer) scanOperator() token.Token {
	start := lx.cursor.Off
	for _, op := range operators {
		if lx.cursor.EatString(op.text) {
			return lx.tok(op.kind, start)
		}
	}
	_, size := utf8.DecodeRune(lx.file.Content[lx.cursor.Off:])
	lx.cursor.Off += uint32(size)
	lx.report(diag.LexUnknownChar, lx.cursor.SpanFrom(start), "unknown character")
	return lx.tok(token.Invalid, start)
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentContinue(b byte) bool {
	return isIdentStart(b) || isDec(b)
}

func isDec(b byte) bool { return b >= '0' && b <= '9' }

func isBaseDigit(b, base byte) bool {
	switch base {
	case 'b':
		return b == '0' || b == '1'
	case 'o':
		return b >= '0' && b <= '7'
	default:
		return isDec(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
	}
}
