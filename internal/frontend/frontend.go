// Package frontend turns source files into a typed HIR package: parse,
// resolve, type-check and lower. Resolution and type errors form one
// combined error set; lowering runs only when it is empty.
package frontend

import (
	"quill/internal/ast"
	"quill/internal/corelib"
	"quill/internal/diag"
	"quill/internal/hir"
	"quill/internal/hir/lower"
	"quill/internal/ids"
	"quill/internal/parser"
	"quill/internal/sema"
	"quill/internal/source"
	"quill/internal/symbols"
)

// Deps are the signatures a package compiles against.
type Deps struct {
	Table   *symbols.GlobalTable
	Globals *sema.Globals
}

func NewDeps() *Deps {
	return &Deps{Table: symbols.NewGlobalTable(), Globals: sema.NewGlobals()}
}

// Extend returns deps plus the items of pkg. The receiver is not modified.
func (d *Deps) Extend(pkg *hir.Package) *Deps {
	out := &Deps{Table: d.Table.Clone(), Globals: d.Globals.Clone()}
	out.Table.AddPackage(pkg.ID, pkg)
	out.Globals.AddPackage(pkg.ID, pkg)
	return out
}

// Unit is a compiled package with everything later stages may consult.
type Unit struct {
	AST      *ast.Package
	HIR      *hir.Package
	Assigner *ids.Assigner
	Resolver *symbols.Resolver
	Table    *sema.Table
	// Globals holds the signatures of deps plus this package.
	Globals *sema.Globals
}

type Options struct {
	Reporter  diag.Reporter
	MaxErrors uint
}

// Stage names the phase group that produced errors.
type Stage uint8

const (
	StageNone Stage = iota
	StageParse
	StageCheck
	StageLower
)

func (s Stage) String() string {
	switch s {
	case StageParse:
		return "parse"
	case StageCheck:
		return "check"
	case StageLower:
		return "lower"
	}
	return "ok"
}

// Parse parses files into one AST package sharing assigner.
func Parse(files []*source.File, assigner *ids.Assigner, opts Options) *ast.Package {
	merged := &ast.Package{ID: assigner.Next()}
	for _, f := range files {
		pkg := parser.ParseFile(f, assigner, parser.Options{MaxErrors: opts.MaxErrors, Reporter: opts.Reporter})
		merged.Namespaces = append(merged.Namespaces, pkg.Namespaces...)
	}
	return merged
}

// Compile runs the front end over files. The returned unit is partially
// filled when a stage fails.
func Compile(id ids.PackageID, files []*source.File, deps *Deps, opts Options) (*Unit, Stage) {
	bag := diag.NewBag(0)
	reporter := tee{bag: bag, next: opts.Reporter}
	opts.Reporter = reporter

	unit := &Unit{Assigner: ids.NewAssigner()}
	unit.AST = Parse(files, unit.Assigner, opts)
	if bag.HasErrors() {
		return unit, StageParse
	}

	unit.Resolver = symbols.Resolve(deps.Table, unit.AST, symbols.Options{Package: id, Reporter: reporter})
	res := sema.Check(deps.Globals, unit.Resolver, unit.AST, sema.Options{Package: id, Reporter: reporter})
	unit.Table = res.Table
	unit.Globals = res.Globals
	if bag.HasErrors() {
		return unit, StageCheck
	}

	pkg, errs := lower.Package(id, unit.Assigner, unit.Resolver, unit.Table, unit.AST)
	unit.HIR = pkg
	diag.ReportAll(reporter, errs)
	if len(errs) > 0 {
		return unit, StageLower
	}
	return unit, StageNone
}

// tee records into a local bag and forwards to the caller's reporter.
type tee struct {
	bag  *diag.Bag
	next diag.Reporter
}

func (t tee) Report(code diag.Code, sev diag.Severity, primary source.Span, msg string, notes []diag.Note) {
	diag.BagReporter{Bag: t.bag}.Report(code, sev, primary, msg, notes)
	if t.next != nil {
		t.next.Report(code, sev, primary, msg, notes)
	}
}

// CompileCore compiles the embedded core library as package 0. Errors here
// are defects in the library itself.
func CompileCore(fs *source.FileSet, opts Options) (*Unit, Stage) {
	var files []*source.File
	for _, src := range corelib.Sources() {
		files = append(files, fs.Get(fs.Add(src.Name, src.Content, source.FileVirtual|source.FileCore)))
	}
	return Compile(ids.CorePackage, files, NewDeps(), opts)
}
