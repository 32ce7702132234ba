package passes

import (
	"quill/internal/ast"
	"quill/internal/diag"
	"quill/internal/hir"
	"quill/internal/types"
)

// maxNesting is how deep callables may be declared inside callables.
const maxNesting = 1

// CheckCallableLimits validates structural restrictions on callables. It
// reports and never rewrites.
func CheckCallableLimits(pkg *hir.Package) []Error {
	var errs []Error
	for _, item := range pkg.SortedItems() {
		c, ok := item.Kind.(*hir.ItemCallable)
		if !ok {
			continue
		}
		decl := c.Decl
		if depth(pkg, item) > maxNesting {
			errs = append(errs, errorf(diag.PassNestedCallable, decl.Name.Span, "callable `%s` is nested too deeply", decl.Name.Name))
		}
		if decl.Kind == types.Function {
			errs = append(errs, checkFunction(decl)...)
		}
		for _, attr := range item.Attrs {
			switch attr {
			case hir.AttrMeasurement:
				if !validMeasurement(decl) {
					errs = append(errs, errorf(diag.PassBadMeasurement, decl.Name.Span,
						"measurement `%s` must be an intrinsic operation taking qubits and returning results", decl.Name.Name))
				}
			case hir.AttrReset:
				if !validReset(decl) {
					errs = append(errs, errorf(diag.PassBadMeasurement, decl.Name.Span,
						"reset `%s` must be an intrinsic operation taking qubits and returning Unit", decl.Name.Name))
				}
			case hir.AttrEntryPoint:
				if !types.IsUnit(decl.Input.Ty) {
					errs = append(errs, errorf(diag.PassEntryPointParams, decl.Input.Span, "entry point `%s` cannot take parameters", decl.Name.Name))
				}
			}
		}
	}
	return errs
}

func depth(pkg *hir.Package, item *hir.Item) int {
	d := 0
	for item.Parent != 0 {
		d++
		parent, ok := pkg.Items[item.Parent]
		if !ok {
			break
		}
		item = parent
	}
	return d
}

func checkFunction(decl *hir.CallableDecl) []Error {
	var errs []Error
	if decl.Functors != types.Empty {
		errs = append(errs, errorf(diag.PassFunctorOnFunction, decl.Name.Span, "function `%s` cannot declare functors", decl.Name.Name))
	}
	for _, s := range []ast.Spec{ast.SpecAdj, ast.SpecCtl, ast.SpecCtlAdj} {
		if spec := decl.Spec(s); spec != nil {
			errs = append(errs, errorf(diag.PassFunctorOnFunction, spec.Span, "function `%s` cannot have a %s specialization", decl.Name.Name, s))
		}
	}
	hir.Inspect(decl, func(n any) bool {
		switch n := n.(type) {
		case *hir.Stmt:
			if _, ok := n.Kind.(*hir.StmtQubit); ok {
				errs = append(errs, errorf(diag.PassQubitInFunction, n.Span, "qubits cannot be allocated in function `%s`", decl.Name.Name))
			}
		case *hir.Expr:
			if isOperationCall(n) {
				errs = append(errs, errorf(diag.PassOperationInFunction, n.Span, "operations cannot be called from function `%s`", decl.Name.Name))
			}
		}
		return true
	})
	return errs
}

func validMeasurement(decl *hir.CallableDecl) bool {
	if decl.Kind != types.Operation || !decl.IsIntrinsic() || !hasQubit(decl.Input.Ty) {
		return false
	}
	switch out := decl.Output.(type) {
	case types.Prim:
		return out == types.PrimResult
	case *types.Tuple:
		if len(out.Items) == 0 {
			return false
		}
		for _, item := range out.Items {
			if !types.Equal(item, types.PrimResult) {
				return false
			}
		}
		return true
	}
	return false
}

func validReset(decl *hir.CallableDecl) bool {
	return decl.Kind == types.Operation && decl.IsIntrinsic() && hasQubit(decl.Input.Ty) && types.IsUnit(decl.Output)
}

func hasQubit(t types.Ty) bool {
	return types.Contains(t, func(t types.Ty) bool { return types.Equal(t, types.PrimQubit) })
}
