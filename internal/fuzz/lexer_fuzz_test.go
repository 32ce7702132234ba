package fuzztests

import (
	"testing"

	"quill/internal/diag"
	"quill/internal/lexer"
	"quill/internal/source"
	"quill/internal/token"
)

func FuzzLexerTokens(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clip(input)
		fs := source.NewFileSet()
		file := fs.Get(fs.AddVirtual("fuzz.qs", input))
		bag := diag.NewBag(64)
		lx := lexer.New(file, lexer.Options{Reporter: diag.BagReporter{Bag: bag}})
		// every token consumes input, so more tokens than bytes means a stall
		for n := 0; ; n++ {
			if n > len(input)+1 {
				t.Fatalf("lexer produced more than %d tokens", n)
			}
			if lx.Next().Kind == token.EOF {
				break
			}
		}
	})
}
