package fuzztests

import (
	"context"
	"testing"
	"time"

	"quill/internal/diag"
	"quill/internal/driver"
	"quill/internal/ids"
	"quill/internal/parser"
	"quill/internal/source"
)

// compileTimeout bounds one input; longer runs point at a loop in error
// recovery or evaluation.
const compileTimeout = 5 * time.Second

func FuzzParser(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(_ *testing.T, input []byte) {
		input = clip(input)
		fs := source.NewFileSet()
		file := fs.Get(fs.AddVirtual("fuzz.qs", input))
		bag := diag.NewBag(128)
		_ = parser.ParseFile(file, ids.NewAssigner(), parser.Options{Reporter: diag.BagReporter{Bag: bag}, MaxErrors: 128})
	})
}

func FuzzCompile(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clip(input)
		ctx, cancel := context.WithTimeout(context.Background(), compileTimeout)
		defer cancel()

		opts := driver.DefaultOptions()
		opts.LoopLimit = 1000
		opts.MaxDiagnostics = 64
		done := make(chan error, 1)
		go func() {
			_, err := driver.Compile(ctx, []driver.Source{{Name: "fuzz.qs", Content: input}}, opts)
			done <- err
		}()
		select {
		case err := <-done:
			if err != nil {
				t.Fatalf("compile: %v", err)
			}
		case <-time.After(2 * compileTimeout):
			t.Fatalf("compile hung on %q", input)
		}
	})
}
