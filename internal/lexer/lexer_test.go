package lexer_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"quill/internal/diag"
	"quill/internal/lexer"
	"quill/internal/source"
	"quill/internal/token"
)

func lex(t *testing.T, src string) ([]token.Token, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.qs", []byte(src))
	bag := diag.NewBag(0)
	toks := lexer.Tokenize(fs.Get(id), lexer.Options{Reporter: diag.BagReporter{Bag: bag}})
	return toks, bag
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, 0, len(toks))
	for _, tok := range toks {
		out = append(out, tok.Kind)
	}
	return out
}

func TestTokenizeStatements(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []token.Kind
	}{
		{
			name: "use statement",
			src:  "use q = Qubit();",
			want: []token.Kind{token.KwUse, token.Ident, token.Eq, token.Ident, token.LParen, token.RParen, token.Semi, token.EOF},
		},
		{
			name: "copy update",
			src:  "set a w/= 0 <- 1L;",
			want: []token.Kind{token.KwSet, token.Ident, token.WSlashEq, token.IntLit, token.LArrow, token.BigIntLit, token.Semi, token.EOF},
		},
		{
			name: "range with step",
			src:  "0..2..10",
			want: []token.Kind{token.IntLit, token.DotDot, token.IntLit, token.DotDot, token.IntLit, token.EOF},
		},
		{
			name: "bitwise and compound",
			src:  "x ^^^= y &&& ~~~z <<< 2",
			want: []token.Kind{token.Ident, token.CaretCaretCaretEq, token.Ident, token.AmpAmpAmp, token.TildeTildeTilde, token.Ident, token.LtLtLt, token.IntLit, token.EOF},
		},
		{
			name: "generic and functors",
			src:  "operation F<'T>(x : 'T) : Unit is Adj + Ctl {} // trailing",
			want: []token.Kind{
				token.KwOperation, token.Ident, token.Lt, token.TyParam, token.Gt, token.LParen, token.Ident,
				token.Colon, token.TyParam, token.RParen, token.Colon, token.Ident, token.KwIs, token.KwAdj,
				token.Plus, token.KwCtl, token.LBrace, token.RBrace, token.EOF,
			},
		},
		{
			name: "doubles",
			src:  "1.5 2e3 .5 1.0e-2",
			want: []token.Kind{token.DoubleLit, token.DoubleLit, token.DoubleLit, token.DoubleLit, token.EOF},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, bag := lex(t, tt.src)
			if bag.HasErrors() {
				t.Fatalf("unexpected diagnostics: %+v", bag.Items())
			}
			if diff := cmp.Diff(tt.want, kinds(toks)); diff != "" {
				t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUnterminatedString(t *testing.T) {
	_, bag := lex(t, `fail "oops`)
	if diff := cmp.Diff([]diag.Code{diag.LexUnterminatedStr}, bag.Codes()); diff != "" {
		t.Fatalf("codes mismatch (-want +got):\n%s", diff)
	}
}

func TestIdentifiersAreNormalised(t *testing.T) {
	toks, _ := lex(t, "cafe\u0301")
	if toks[0].Kind != token.Ident || toks[0].Text != "caf\u00e9" {
		t.Fatalf("got %q (%v)", toks[0].Text, toks[0].Kind)
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("peek.qs", []byte("let x"))
	lx := lexer.New(fs.Get(id), lexer.Options{})
	if lx.PeekN(1).Kind != token.Ident || lx.Peek().Kind != token.KwLet {
		t.Fatal("lookahead mismatch")
	}
	if lx.Next().Kind != token.KwLet || lx.Next().Kind != token.Ident || lx.Next().Kind != token.EOF {
		t.Fatal("stream mismatch after peek")
	}
}
