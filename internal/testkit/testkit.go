// Package testkit compiles source snippets for tests against a core library
// that is built once per test binary.
package testkit

import (
	"fmt"
	"testing"

	"fortio.org/safecast"

	"quill/internal/diag"
	"quill/internal/driver"
	"quill/internal/fir"
	firlower "quill/internal/fir/lower"
	"quill/internal/frontend"
	"quill/internal/hir"
	"quill/internal/ids"
	"quill/internal/passes"
	"quill/internal/source"
)

// UserPackage is the package id snippets are compiled as.
const UserPackage ids.PackageID = 1

// Core returns the frozen core library and the deps of a user package.
func Core(tb testing.TB) (*frontend.Unit, *frontend.Deps) {
	tb.Helper()
	core := frozen(tb)
	return core.Unit, core.Deps
}

func frozen(tb testing.TB) *driver.Core {
	tb.Helper()
	core, err := driver.FrozenCore()
	if err != nil {
		tb.Fatal(err)
	}
	return core
}

// Result is a compiled snippet.
type Result struct {
	Unit  *frontend.Unit
	Stage frontend.Stage
	Diags []diag.Diagnostic
	File  *source.File
}

// Codes lists the diagnostic codes in report order.
func (r *Result) Codes() []diag.Code {
	out := make([]diag.Code, len(r.Diags))
	for i, d := range r.Diags {
		out[i] = d.Code
	}
	return out
}

// Build compiles src and returns whatever the front end produced.
func Build(tb testing.TB, src string) *Result {
	tb.Helper()
	_, deps := Core(tb)
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("test.qs", []byte(src)))
	bag := diag.NewBag(0)
	unit, stage := frontend.Compile(UserPackage, []*source.File{file}, deps, frontend.Options{Reporter: diag.BagReporter{Bag: bag}})
	return &Result{Unit: unit, Stage: stage, Diags: bag.Items(), File: file}
}

// Compile is Build that fails the test on any diagnostic.
func Compile(tb testing.TB, src string) *frontend.Unit {
	tb.Helper()
	res := Build(tb, src)
	if res.Stage != frontend.StageNone {
		for _, d := range res.Diags {
			tb.Logf("%s: %s %v", d.Code.ID(), d.Message, d.Primary)
		}
		tb.Fatalf("compile failed at %s", res.Stage)
	}
	return res.Unit
}

// Lower compiles src and runs the semantic passes over it. Front-end errors
// fail the test; pass errors are returned.
func Lower(tb testing.TB, src string) (*frontend.Unit, []passes.Error) {
	tb.Helper()
	unit := Compile(tb, src)
	return unit, passes.Run(unit.HIR, unit.Assigner, frozen(tb).Items)
}

// FIR compiles src through the passes into FIR. The returned store layers
// the package over the frozen core.
func FIR(tb testing.TB, src string) (*fir.PackageStore, *fir.Package) {
	tb.Helper()
	unit, errs := Lower(tb, src)
	for _, err := range errs {
		tb.Errorf("%s: %s", err.Code.ID(), err.Msg)
	}
	if len(errs) > 0 {
		tb.FailNow()
	}
	store := frozen(tb).Store.Open()
	pkg := firlower.Package(unit.HIR)
	store.Insert(pkg)
	return store, pkg
}

// Names renders item ids with their qualified names.
func Names(unit *frontend.Unit) hir.ItemNamer {
	return func(id hir.ItemID) string { return unit.Resolver.Table().QualifiedName(id) }
}

// Callable finds a callable of pkg by name.
func Callable(tb testing.TB, pkg *hir.Package, name string) *hir.CallableDecl {
	tb.Helper()
	for _, item := range pkg.Callables() {
		if item.Name() == name {
			return item.Kind.(*hir.ItemCallable).Decl
		}
	}
	tb.Fatalf("callable %q not found", name)
	return nil
}

// CheckSpanInvariants verifies that every HIR node of pkg that came from
// file has a span inside the file.
func CheckSpanInvariants(pkg *hir.Package, file *source.File) error {
	size, err := safecast.Conv[uint32](len(file.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	check := func(sp source.Span) error {
		if sp.File != file.ID {
			return nil
		}
		if sp.End < sp.Start || sp.End > size {
			return fmt.Errorf("span %v outside file of %d bytes", sp, size)
		}
		return nil
	}
	var first error
	for _, item := range pkg.SortedItems() {
		if err := check(item.Span); err != nil {
			return err
		}
		c, ok := item.Kind.(*hir.ItemCallable)
		if !ok {
			continue
		}
		hir.Inspect(c.Decl, func(n any) bool {
			if first != nil {
				return false
			}
			switch n := n.(type) {
			case *hir.Expr:
				first = check(n.Span)
			case *hir.Stmt:
				first = check(n.Span)
			case *hir.Pat:
				first = check(n.Span)
			}
			return true
		})
		if first != nil {
			return first
		}
	}
	return nil
}
