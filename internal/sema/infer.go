package sema

import (
	"quill/internal/source"
	"quill/internal/types"
)

type classKind uint8

const (
	classAdd classKind = iota
	classAdj
	classCall
	classCtl
	classEq
	classExp
	classHasIndex
	classIntegral
	classIterable
	classNum
	classUnwrap
	classIntLiteral
)

var classNames = [...]string{
	classAdd: "Add", classAdj: "Adj", classCall: "Call", classCtl: "Ctl", classEq: "Eq",
	classExp: "Exp", classHasIndex: "HasIndex", classIntegral: "Integral",
	classIterable: "Iterable", classNum: "Num", classUnwrap: "Unwrap", classIntLiteral: "IntLiteral",
}

// class is a deferred constraint. The meaning of tys depends on kind:
//
//	Add, Eq, Integral, Num, Adj, IntLiteral: [subject]
//	Call:     [callee, input, output]
//	Ctl:      [operation, controlled]
//	Exp:      [base, power]
//	HasIndex: [container, index, item]
//	Iterable: [container, item]
//	Unwrap:   [wrapper, base]
type class struct {
	kind classKind
	tys  []types.Ty
	span source.Span
}

// inferrer owns the substitution for one callable body.
type inferrer struct {
	solution []types.Ty // indexed by Infer; nil when unbound
	classes  []class
	// diverging vars come from return and fail and default to Unit
	diverging []types.Infer
	udts      func(types.Ty) (types.Ty, bool)
	errs      []Error
}

func newInferrer(udtBase func(types.Ty) (types.Ty, bool)) *inferrer {
	return &inferrer{udts: udtBase}
}

func (in *inferrer) fresh() types.Infer {
	in.solution = append(in.solution, nil)
	return types.Infer(len(in.solution) - 1)
}

func (in *inferrer) freshDiverging() types.Infer {
	v := in.fresh()
	in.diverging = append(in.diverging, v)
	return v
}

func (in *inferrer) report(e Error) {
	if e.Expected != nil {
		e.Expected = in.substitute(e.Expected)
	}
	if e.Actual != nil {
		e.Actual = in.substitute(e.Actual)
	}
	in.errs = append(in.errs, e)
}

func (in *inferrer) addClass(kind classKind, span source.Span, tys ...types.Ty) {
	in.classes = append(in.classes, class{kind: kind, tys: tys, span: span})
}

// shallow follows bindings at the head of t.
func (in *inferrer) shallow(t types.Ty) types.Ty {
	for {
		v, ok := t.(types.Infer)
		if !ok || int(v) >= len(in.solution) || in.solution[v] == nil {
			return t
		}
		t = in.solution[v]
	}
}

// substitute applies the current solution everywhere in t.
func (in *inferrer) substitute(t types.Ty) types.Ty {
	return types.Map(t, func(leaf types.Ty) types.Ty {
		if v, ok := leaf.(types.Infer); ok {
			if bound := in.shallow(v); bound != leaf {
				return in.substitute(bound)
			}
		}
		return nil
	})
}

func (in *inferrer) occurs(v types.Infer, t types.Ty) bool {
	return types.Contains(in.substitute(t), func(t types.Ty) bool { return t == v })
}

// unify makes expected and actual equal. For arrows the actual functor set
// must contain the expected one.
func (in *inferrer) unify(expected, actual types.Ty, span source.Span) {
	e, a := in.shallow(expected), in.shallow(actual)
	if ev, ok := e.(types.Infer); ok {
		if av, ok := a.(types.Infer); ok && av == ev {
			return
		}
		in.bind(ev, a, span, expected, actual)
		return
	}
	if av, ok := a.(types.Infer); ok {
		in.bind(av, e, span, expected, actual)
		return
	}
	if _, ok := e.(types.Err); ok {
		return
	}
	if _, ok := a.(types.Err); ok {
		return
	}
	mismatch := func() {
		in.report(Error{Kind: ErrMismatch, Span: span, Expected: expected, Actual: actual})
	}
	switch e := e.(type) {
	case types.Prim:
		if ap, ok := a.(types.Prim); !ok || ap != e {
			mismatch()
		}
	case types.Param:
		if ap, ok := a.(types.Param); !ok || ap.Index != e.Index {
			mismatch()
		}
	case *types.Udt:
		if au, ok := a.(*types.Udt); !ok || au.ID != e.ID {
			mismatch()
		}
	case *types.Array:
		aa, ok := a.(*types.Array)
		if !ok {
			mismatch()
			return
		}
		in.unify(e.Item, aa.Item, span)
	case *types.Tuple:
		at, ok := a.(*types.Tuple)
		if !ok {
			mismatch()
			return
		}
		if len(at.Items) != len(e.Items) {
			in.report(Error{Kind: ErrTupleArity, Span: span, Expected: expected, Actual: actual})
			return
		}
		for i := range e.Items {
			in.unify(e.Items[i], at.Items[i], span)
		}
	case *types.Arrow:
		aa, ok := a.(*types.Arrow)
		if !ok {
			mismatch()
			return
		}
		if aa.Kind != e.Kind {
			in.report(Error{Kind: ErrCallableKindMismatch, Span: span, Expected: expected, Actual: actual})
			return
		}
		if !aa.Functors.Contains(e.Functors) {
			in.report(Error{Kind: ErrFunctorMismatch, Span: span, Expected: expected, Actual: actual})
		}
		in.unify(e.Input, aa.Input, span)
		in.unify(e.Output, aa.Output, span)
	default:
		mismatch()
	}
}

func (in *inferrer) bind(v types.Infer, t types.Ty, span source.Span, expected, actual types.Ty) {
	if in.occurs(v, t) {
		in.report(Error{Kind: ErrMismatch, Span: span, Expected: expected, Actual: actual})
		return
	}
	in.solution[v] = t
}

// solve re-checks deferred classes until none makes progress.
func (in *inferrer) solve() {
	for {
		progress := false
		pending := in.classes
		in.classes = nil
		for _, c := range pending {
			if in.check(c) {
				progress = true
			} else {
				in.classes = append(in.classes, c)
			}
		}
		if !progress || len(in.classes) == 0 {
			return
		}
	}
}

// finish applies defaults and reports classes that never resolved.
func (in *inferrer) finish() {
	in.solve()
	for _, c := range in.classes {
		if c.kind != classIntLiteral {
			continue
		}
		if v, ok := in.shallow(c.tys[0]).(types.Infer); ok {
			in.solution[v] = types.PrimInt
		}
	}
	in.solve()
	for _, v := range in.diverging {
		if _, ok := in.shallow(v).(types.Infer); ok {
			in.solution[v] = types.Unit
		}
	}
	in.solve()
	for _, c := range in.classes {
		in.errs = append(in.errs, Error{Kind: ErrAmbiguous, Span: c.span, Class: classNames[c.kind]})
	}
	in.classes = nil
}

// poison gives the result of a class on an erroneous subject the error
// type, so nothing downstream reports it again.
func (in *inferrer) poison(c class) {
	var out types.Ty
	switch c.kind {
	case classCall, classHasIndex:
		out = c.tys[2]
	case classCtl, classIterable, classUnwrap:
		out = c.tys[1]
	default:
		return
	}
	in.unify(out, types.Err{}, c.span)
}

// unifyOperands unifies the operands of a binary operator. An integer
// literal facing a type that is not integral is fixed to Int first, so the
// error is a plain mismatch on the operator.
func (in *inferrer) unifyOperands(lhs, rhs types.Ty, span source.Span) {
	if v, ok := in.literal(lhs); ok && !in.integral(rhs) {
		in.solution[v] = types.PrimInt
	} else if v, ok := in.literal(rhs); ok && !in.integral(lhs) {
		in.solution[v] = types.PrimInt
	}
	in.unify(lhs, rhs, span)
}

// literal reports the variable of a still unbound integer literal.
func (in *inferrer) literal(t types.Ty) (types.Infer, bool) {
	v, ok := in.shallow(t).(types.Infer)
	if !ok {
		return 0, false
	}
	for _, c := range in.classes {
		if c.kind == classIntLiteral && in.shallow(c.tys[0]) == v {
			return v, true
		}
	}
	return 0, false
}

// integral is false only for types known not to be Int or BigInt.
func (in *inferrer) integral(t types.Ty) bool {
	switch t := in.shallow(t).(type) {
	case types.Prim:
		return t == types.PrimInt || t == types.PrimBigInt
	case types.Infer, types.Err:
		return true
	}
	return false
}

func (in *inferrer) missing(c class, t types.Ty) {
	in.report(Error{Kind: ErrMissingClass, Span: c.span, Actual: t, Class: classNames[c.kind]})
}

// check returns false when the subject is still unknown.
func (in *inferrer) check(c class) bool {
	subject := in.shallow(c.tys[0])
	if _, ok := subject.(types.Infer); ok {
		return false
	}
	if _, ok := subject.(types.Err); ok {
		in.poison(c)
		return true
	}
	switch c.kind {
	case classAdd:
		switch t := subject.(type) {
		case types.Prim:
			if t != types.PrimBigInt && t != types.PrimDouble && t != types.PrimInt && t != types.PrimString {
				in.missing(c, t)
			}
		case *types.Array:
		default:
			in.missing(c, t)
		}
	case classNum:
		if p, ok := subject.(types.Prim); !ok || (p != types.PrimBigInt && p != types.PrimDouble && p != types.PrimInt) {
			in.missing(c, subject)
		}
	case classIntegral, classIntLiteral:
		if p, ok := subject.(types.Prim); !ok || (p != types.PrimBigInt && p != types.PrimInt) {
			in.missing(c, subject)
		}
	case classEq:
		if !in.supportsEq(subject) {
			in.missing(c, subject)
		}
	case classExp:
		switch subject {
		case types.PrimInt, types.PrimBigInt:
			in.unify(types.PrimInt, c.tys[1], c.span)
		case types.PrimDouble:
			in.unify(types.PrimDouble, c.tys[1], c.span)
		default:
			in.missing(c, subject)
		}
	case classAdj:
		arrow, ok := subject.(*types.Arrow)
		if !ok || arrow.Kind != types.Operation || !arrow.Functors.Contains(types.Adj) {
			in.report(Error{Kind: ErrFunctorMismatch, Span: c.span, Expected: &types.Arrow{Kind: types.Operation, Input: types.Err{}, Output: types.Err{}, Functors: types.Adj}, Actual: subject})
		}
	case classCtl:
		arrow, ok := subject.(*types.Arrow)
		if !ok || arrow.Kind != types.Operation || !arrow.Functors.Contains(types.Ctl) {
			in.report(Error{Kind: ErrFunctorMismatch, Span: c.span, Expected: &types.Arrow{Kind: types.Operation, Input: types.Err{}, Output: types.Err{}, Functors: types.Ctl}, Actual: subject})
			in.unify(c.tys[1], types.Err{}, c.span)
			return true
		}
		ctl := &types.Arrow{Kind: types.Operation, Input: types.ControlledInput(arrow.Input), Output: arrow.Output, Functors: arrow.Functors}
		in.unify(c.tys[1], ctl, c.span)
	case classCall:
		arrow, ok := subject.(*types.Arrow)
		if !ok {
			in.missing(c, subject)
			return true
		}
		in.unify(arrow.Input, c.tys[1], c.span)
		in.unify(c.tys[2], arrow.Output, c.span)
	case classHasIndex:
		arr, ok := subject.(*types.Array)
		if !ok {
			in.report(Error{Kind: ErrNotIndexable, Span: c.span, Actual: subject})
			return true
		}
		index := in.shallow(c.tys[1])
		switch index {
		case types.PrimInt:
			in.unify(c.tys[2], arr.Item, c.span)
		case types.PrimRange:
			in.unify(c.tys[2], arr, c.span)
		default:
			if _, ok := index.(types.Infer); ok {
				return false
			}
			in.report(Error{Kind: ErrMismatch, Span: c.span, Expected: types.PrimInt, Actual: index})
		}
	case classIterable:
		switch t := subject.(type) {
		case *types.Array:
			in.unify(c.tys[1], t.Item, c.span)
		case types.Prim:
			if t != types.PrimRange {
				in.report(Error{Kind: ErrNotIterable, Span: c.span, Actual: t})
				return true
			}
			in.unify(c.tys[1], types.PrimInt, c.span)
		default:
			in.report(Error{Kind: ErrNotIterable, Span: c.span, Actual: t})
		}
	case classUnwrap:
		base, ok := in.udts(subject)
		if !ok {
			in.report(Error{Kind: ErrMissingField, Span: c.span, Actual: subject})
			return true
		}
		in.unify(c.tys[1], base, c.span)
	}
	return true
}

func (in *inferrer) supportsEq(t types.Ty) bool {
	switch t := in.shallow(t).(type) {
	case types.Prim:
		return t != types.PrimQubit
	case *types.Array:
		return in.supportsEq(t.Item)
	case *types.Tuple:
		for _, item := range t.Items {
			if !in.supportsEq(item) {
				return false
			}
		}
		return true
	case *types.Udt, types.Infer, types.Err:
		return true
	}
	return false
}
