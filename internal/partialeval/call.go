package partialeval

import (
	"github.com/pkg/errors"

	"quill/internal/capability"
	"quill/internal/corelib"
	"quill/internal/fir"
	"quill/internal/rca"
	"quill/internal/rir"
	"quill/internal/source"
	"quill/internal/types"
)

// call applies callee to arg. site is nil for the entry point.
func (e *evaluator) call(site *fir.Expr, callee, arg Value) (Value, *Error) {
	c, ok := callee.(VCallable)
	if !ok {
		return nil, unsupported(e.span, capability.HigherLevelConstructs, "call to a callable only known at run time")
	}
	// each Controlled layer wraps the argument as (controls, inner)
	var ctls VArray
	for i := 0; i < c.Ctls; i++ {
		t, ok := arg.(VTuple)
		if !ok || len(t) != 2 {
			panic(errors.Errorf("partial evaluation: controlled call of %s with %s", e.describe(c), Format(arg)))
		}
		more, ok := t[0].(VArray)
		if !ok {
			return nil, errorf(ValueNotStatic, e.span, "control qubits must be known at compile time")
		}
		ctls = append(ctls, more...)
		arg = t[1]
	}

	pkg, item, ok := e.store.Item(c.Item)
	if !ok {
		panic(errors.Errorf("partial evaluation: unknown item %s", c.Item))
	}
	var decl *fir.CallableDecl
	switch k := item.Kind.(type) {
	case *fir.ItemTy:
		return arg, nil
	case *fir.ItemCallable:
		decl = k.Decl
	}
	at := e.span
	spec := decl.Spec(c.Adj, c.Ctls > 0)
	if spec == nil {
		panic(errors.Errorf("partial evaluation: %s has no specialization for %s", decl.Name, Format(c)))
	}
	if spec.Intrinsic {
		v, err := e.intrinsic(decl, ctls, arg)
		return v, e.anchor(err, pkg.ID, c, at)
	}
	if pkg.ID != e.user && decl.Name == corelib.AllocateQubitArray {
		n, err := e.staticInt(arg, "qubit array size")
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, errorf(EvaluationFailed, at, "cannot allocate a qubit array of negative size %d", n)
		}
	}

	if site != nil && e.analysis != nil {
		if kind, ok := e.analysis.Expr(e.stack.scope().pkg.ID, site.ID); ok && kind == rca.Classical {
			e.classical++
			defer func() { e.classical-- }()
		}
	}

	span := e.enter(c)
	s := newScope(pkg, decl.Name)
	bind(s, decl.Input, arg)
	if spec.Input != 0 {
		bind(s, spec.Input, ctls)
	}
	e.stack.push(s)
	v, err := e.block(spec.Block)
	e.stack.pop()
	e.leave(span, err)
	if err != nil {
		return nil, e.anchor(err, pkg.ID, c, at)
	}
	if s.returning {
		return s.ret, nil
	}
	return v, nil
}

// anchor moves an error raised inside another package to the span of the
// call that entered it from user code. Errors that already passed through
// a user frame keep their span.
func (e *evaluator) anchor(err *Error, callee fir.PackageID, c VCallable, at source.Span) *Error {
	if err == nil || err.anchored {
		return err
	}
	if callee == e.user {
		err.anchored = true
		return err
	}
	if e.stack.scope().pkg.ID != e.user {
		return err
	}
	err.Span = at
	err.Within = e.describe(c)
	err.anchored = true
	return err
}

func (e *evaluator) intrinsic(decl *fir.CallableDecl, ctls VArray, arg Value) (Value, *Error) {
	if len(ctls) > 0 {
		return nil, errorf(Unimplemented, e.span, "controlled %s has no implementation", decl.Name)
	}
	switch decl.Name {
	case corelib.Length:
		if a, ok := arg.(VArray); ok {
			return VInt(len(a)), nil
		}
		return nil, errorf(ValueNotStatic, e.span, "array length must be known at compile time")
	case corelib.RangeStart, corelib.RangeStep, corelib.RangeEnd:
		r, ok := arg.(VRange)
		if !ok {
			return nil, errorf(ValueNotStatic, e.span, "range must be known at compile time")
		}
		switch decl.Name {
		case corelib.RangeStart:
			return VInt(r.Start), nil
		case corelib.RangeStep:
			return VInt(r.Step), nil
		}
		return VInt(r.End), nil
	case corelib.IntAsDouble:
		if n, ok := arg.(VInt); ok {
			return VDouble(float64(n)), nil
		}
		return nil, errorf(Unimplemented, e.span, "conversion of a dynamic Int to Double")
	case corelib.QubitAllocate:
		return VQubit{ID: e.qubits.allocate()}, nil
	case corelib.QubitRelease:
		q, ok := arg.(VQubit)
		if !ok {
			return nil, errorf(ValueNotStatic, e.span, "released qubit must be known at compile time")
		}
		e.qubits.release(q.ID)
		return unit, nil
	}
	if decl.Kind == types.Function {
		return nil, errorf(Unimplemented, e.span, "intrinsic function %s cannot be evaluated", decl.Name)
	}

	var args []rir.Operand
	if err := e.flatten(arg, &args); err != nil {
		return nil, err
	}
	inputs := make([]rir.Ty, len(args))
	for i, a := range args {
		inputs[i] = a.Ty()
	}
	switch decl.CallKind {
	case fir.CallMeasurement:
		id := e.results
		e.results++
		args = append(args, rir.Result(id))
		inputs = append(inputs, rir.TyResult)
		e.emit(rir.Call(e.declare(decl.Name, inputs, rir.TyVoid, rir.CallableMeasurement), args...))
		return VResult{ID: id}, nil
	case fir.CallReset:
		e.emit(rir.Call(e.declare(decl.Name, inputs, rir.TyVoid, rir.CallableReset), args...))
		return unit, nil
	}
	if !types.IsUnit(decl.Output) {
		return nil, errorf(Unimplemented, e.span, "intrinsic operation %s returning %s", decl.Name, decl.Output)
	}
	e.emit(rir.Call(e.declare(decl.Name, inputs, rir.TyVoid, rir.CallableRegular), args...))
	return unit, nil
}

// flatten lowers an intrinsic argument into call operands.
func (e *evaluator) flatten(v Value, out *[]rir.Operand) *Error {
	if t, ok := v.(VTuple); ok {
		for _, item := range t {
			if err := e.flatten(item, out); err != nil {
				return err
			}
		}
		return nil
	}
	op, ok := operand(v)
	if !ok {
		return errorf(UnsupportedLiteral, e.span, "%s cannot be passed to an intrinsic operation", Format(v))
	}
	*out = append(*out, op)
	return nil
}

// declare returns the external callable name, adding it on first use.
func (e *evaluator) declare(name string, input []rir.Ty, output rir.Ty, typ rir.CallableType) rir.CallableID {
	if id, ok := e.intrinsics[name]; ok {
		return id
	}
	id := e.prog.AddCallable(rir.Callable{Name: name, Input: input, Output: output, Type: typ})
	e.intrinsics[name] = id
	return id
}

// output records the entry point result and its shape.
func (e *evaluator) output(v Value) *Error {
	record := func(name string, in rir.Ty, value rir.Operand) {
		callee := e.declare(name, []rir.Ty{in, rir.TyPointer}, rir.TyVoid, rir.CallableOutputRecording)
		e.emit(rir.Call(callee, value, rir.NullPointer()))
	}
	var items []Value
	switch v := v.(type) {
	case VTuple:
		record("__quantum__rt__tuple_record_output", rir.TyInteger, rir.Int(int64(len(v))))
		items = v
	case VArray:
		record("__quantum__rt__array_record_output", rir.TyInteger, rir.Int(int64(len(v))))
		items = v
	default:
		op, ok := operand(v)
		if !ok {
			return errorf(UnsupportedLiteral, e.span, "%s cannot be recorded as program output", Format(v))
		}
		switch op.Ty() {
		case rir.TyResult:
			record("__quantum__rt__result_record_output", rir.TyResult, op)
		case rir.TyBoolean:
			record("__quantum__rt__bool_record_output", rir.TyBoolean, op)
		case rir.TyInteger:
			record("__quantum__rt__int_record_output", rir.TyInteger, op)
		case rir.TyDouble:
			record("__quantum__rt__double_record_output", rir.TyDouble, op)
		default:
			return errorf(UnsupportedLiteral, e.span, "a %s cannot be recorded as program output", op.Ty())
		}
	}
	for _, item := range items {
		if err := e.output(item); err != nil {
			return err
		}
	}
	return nil
}
