package driver

import (
	"fortio.org/safecast"

	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/ids"
	"quill/internal/parser"
	"quill/internal/source"
)

type ParseResult struct {
	FileSet *source.FileSet
	File    *source.File
	AST     *ast.Package
	Bag     *diag.Bag
}

// Parse parses path without resolving anything. Top-level statements are
// accepted the way a session fragment accepts them.
func Parse(path string, maxDiagnostics int) (*ParseResult, error) {
	fs, file, err := loadOne(path)
	if err != nil {
		return nil, err
	}
	maxErrors, err := safecast.Conv[uint](max(maxDiagnostics, 0))
	if err != nil {
		return nil, err
	}
	res := &ParseResult{FileSet: fs, File: file, Bag: diag.NewBag(maxDiagnostics)}
	res.AST = parser.ParseFragment(file, ids.NewAssigner(), parser.Options{
		Reporter:  diag.BagReporter{Bag: res.Bag},
		MaxErrors: maxErrors,
	})
	return res, nil
}
