package driver

import (
	"strings"
	"sync"

	"github.com/pkg/errors"

	"quill/internal/diag"
	"quill/internal/fir"
	firlower "quill/internal/fir/lower"
	"quill/internal/frontend"
	"quill/internal/passes"
	"quill/internal/source"
)

// Core is the compiled core library. It is built once per process and
// shared read-only by every compilation.
type Core struct {
	Files *source.FileSet
	Unit  *frontend.Unit
	// Deps are the signatures user packages compile against.
	Deps *frontend.Deps
	// Items are the core callables generated code calls into.
	Items *passes.Core
	// Store holds the core FIR package and is frozen.
	Store *fir.PackageStore
}

var (
	coreOnce  sync.Once
	coreValue *Core
	coreErr   error
)

// FrozenCore returns the shared core library, building it on first use.
func FrozenCore() (*Core, error) {
	coreOnce.Do(func() {
		coreValue, coreErr = BuildCore()
	})
	return coreValue, coreErr
}

// BuildCore compiles the core library from scratch. Failures are defects
// in the embedded sources.
func BuildCore() (*Core, error) {
	files := source.NewFileSet()
	bag := diag.NewBag(0)
	unit, stage := frontend.CompileCore(files, frontend.Options{Reporter: diag.BagReporter{Bag: bag}})
	if stage != frontend.StageNone {
		return nil, errors.Errorf("core library failed at %s: %s", stage, summarize(bag))
	}
	self := frontend.NewDeps().Extend(unit.HIR)
	items, err := passes.LookupCore(self.Table, unit.Globals)
	if err != nil {
		return nil, errors.Wrap(err, "core library")
	}
	if errs := passes.Run(unit.HIR, unit.Assigner, items); len(errs) > 0 {
		return nil, errors.Errorf("core library failed semantic passes: %s", errs[0].Msg)
	}
	// signatures are taken after the passes: functor propagation may grow them
	deps := frontend.NewDeps().Extend(unit.HIR)
	if items, err = passes.LookupCore(deps.Table, deps.Globals); err != nil {
		return nil, errors.Wrap(err, "core library")
	}

	store := fir.NewPackageStore()
	store.Insert(firlower.Package(unit.HIR))
	store.Freeze()
	return &Core{Files: files, Unit: unit, Deps: deps, Items: items, Store: store}, nil
}

func summarize(bag *diag.Bag) string {
	var sb strings.Builder
	for i, d := range bag.Items() {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(d.Code.ID() + " " + d.Message)
	}
	return sb.String()
}
