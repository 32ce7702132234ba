package rca

import (
	"fmt"
	"sort"

	"quill/internal/ast"
	"quill/internal/capability"
	"quill/internal/diag"
	"quill/internal/fir"
	"quill/internal/source"
)

// Record classifies every expression of pkg reachable from its entry
// point, or from its top-level statements when there is none. Callees in
// pkg are followed with the dynamism of their arguments; callees in other
// packages are taken from their summaries.
func (a *Analysis) Record(pkg *fir.Package) {
	a.record(pkg, pkg.EntryPoint())
}

// RecordTop is Record starting from the top-level statements even when pkg
// has an entry point.
func (a *Analysis) RecordTop(pkg *fir.Package) {
	a.record(pkg, nil)
}

func (a *Analysis) record(pkg *fir.Package, entry *fir.Item) {
	a.recorded = pkg.ID
	var work []call
	if entry != nil {
		work = append(work, call{key: SpecKey{Item: fir.ItemID{Package: pkg.ID, Item: entry.ID}, Spec: ast.SpecBody}})
	} else {
		w := newWalker(a, pkg, SpecKey{}, true)
		w.stmts(pkg.Top)
		work = w.calls
	}
	seen := make(map[string]bool)
	for len(work) > 0 {
		c := work[0]
		work = work[1:]
		id := fmt.Sprint(c.key, c.mask)
		if seen[id] {
			continue
		}
		seen[id] = true
		callee, _ := a.store.Get(c.key.Item.Package)
		_, decl, ok := a.store.Callable(c.key.Item)
		if !ok || callee == nil {
			continue
		}
		w := newWalker(a, callee, c.key, true)
		for i, p := range params(callee, decl.Input) {
			v := Static
			if i < len(c.mask) && c.mask[i] {
				v = Dynamic
			}
			w.bindAll(p, v)
		}
		spec := decl.Spec(c.key.Spec == ast.SpecAdj || c.key.Spec == ast.SpecCtlAdj, c.key.Spec == ast.SpecCtl || c.key.Spec == ast.SpecCtlAdj)
		if spec == nil || spec.Intrinsic {
			continue
		}
		if spec.Input != 0 {
			w.bindAll(spec.Input, Static)
		}
		w.block(spec.Block)
		work = append(work, w.calls...)
	}
}

// Error reports an expression the target cannot run.
type Error struct {
	Span     source.Span
	Features RuntimeFeatureFlags
	Missing  capability.Flags
}

func (e Error) Error() string {
	return fmt.Sprintf("cannot use %s: target lacks %s", e.Features, e.Missing)
}

func (e Error) ToDiagnostic() diag.Diagnostic {
	return diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.CapUnsupported,
		Message:  e.Error(),
		Primary:  e.Span,
	}
}

// CheckCapabilities reports every recorded expression whose own features
// need capabilities outside target. Call Record first.
func (a *Analysis) CheckCapabilities(target capability.Flags) []Error {
	var out []Error
	for key, r := range a.exprs {
		if key.Package != a.recorded || r.Own == 0 {
			continue
		}
		missing := r.Own.Capabilities() &^ target
		if missing == 0 {
			continue
		}
		// report only the features that cause the gap
		var features RuntimeFeatureFlags
		for bit := RuntimeFeatureFlags(1); bit != 0 && bit <= MeasurementWithinDynamicScope; bit <<= 1 {
			if r.Own&bit != 0 && bit.Capabilities()&^target != 0 {
				features |= bit
			}
		}
		out = append(out, Error{Span: r.Span, Features: features, Missing: missing})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Span.File != out[j].Span.File {
			return out[i].Span.File < out[j].Span.File
		}
		if out[i].Span.Start != out[j].Span.Start {
			return out[i].Span.Start < out[j].Span.Start
		}
		return out[i].Span.End < out[j].Span.End
	})
	return out
}
