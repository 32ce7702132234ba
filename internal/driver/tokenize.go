package driver

import (
	"quill/internal/diag"
	"quill/internal/lexer"
	"quill/internal/source"
	"quill/internal/token"
)

// TokenizeResult holds the tokens of one file, EOF included.
type TokenizeResult struct {
	FileSet *source.FileSet
	File    *source.File
	Tokens  []token.Token
	Bag     *diag.Bag
}

// loadOne reads a single file into a fresh file set.
func loadOne(path string) (*source.FileSet, *source.File, error) {
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		return nil, nil, err
	}
	return fs, fs.Get(id), nil
}

// Tokenize lexes path. Lexical errors go to the bag; the token stream is
// always complete.
func Tokenize(path string, maxDiagnostics int) (*TokenizeResult, error) {
	fs, file, err := loadOne(path)
	if err != nil {
		return nil, err
	}
	res := &TokenizeResult{FileSet: fs, File: file, Bag: diag.NewBag(maxDiagnostics)}
	lx := lexer.New(file, lexer.Options{Reporter: diag.BagReporter{Bag: res.Bag}})
	for tok := lx.Next(); ; tok = lx.Next() {
		res.Tokens = append(res.Tokens, tok)
		if tok.Kind == token.EOF {
			return res, nil
		}
	}
}
