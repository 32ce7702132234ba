package partialeval

import (
	"math"
	"math/big"

	"github.com/pkg/errors"

	"quill/internal/ast"
	"quill/internal/capability"
	"quill/internal/fir"
	"quill/internal/rir"
)

func (e *evaluator) binopExpr(k *fir.ExprBinOp) (Value, *Error) {
	lhs, err := e.expr(k.Lhs)
	if err != nil {
		return nil, err
	}
	if k.Op == ast.OpAndL || k.Op == ast.OpOrL {
		switch l := lhs.(type) {
		case VBool:
			if bool(l) == (k.Op == ast.OpOrL) {
				return l, nil
			}
		case VVar:
			return e.dynamicShortCircuit(k, l)
		}
	}
	rhs, err := e.expr(k.Rhs)
	if err != nil {
		return nil, err
	}
	return e.binop(k.Op, lhs, rhs)
}

// dynamicShortCircuit evaluates the right side of and/or only in the
// block where the left side does not already decide the result.
func (e *evaluator) dynamicShortCircuit(k *fir.ExprBinOp, lhs VVar) (Value, *Error) {
	if err := e.require(capability.Adaptive, "boolean computation on a dynamic value"); err != nil {
		return nil, err
	}
	s := e.stack.scope()
	if err := e.slots(s, []fir.ExprID{k.Rhs}, nil); err != nil {
		return nil, err
	}
	rhsBlock, cont := e.prog.NewBlock(), e.prog.NewBlock()
	from := e.stack.current()
	decided := VBool(k.Op == ast.OpOrL)
	if decided {
		e.emit(rir.Branch(rir.Var(lhs.Var), cont, rhsBlock))
	} else {
		e.emit(rir.Branch(rir.Var(lhs.Var), rhsBlock, cont))
	}

	s.dyn++
	rv, rhsEnd, err := e.region(rhsBlock, k.Rhs, cont)
	s.dyn--
	if err != nil {
		return nil, err
	}
	e.stack.resume(cont)
	return e.merge(rv, rhsEnd, decided, from)
}

func (e *evaluator) binop(op ast.BinOp, lhs, rhs Value) (Value, *Error) {
	if resultLike(lhs) || resultLike(rhs) {
		return e.compareResults(op, lhs, rhs)
	}
	if isDynamic(lhs) || isDynamic(rhs) {
		return e.dynamicBinop(op, lhs, rhs)
	}
	switch l := lhs.(type) {
	case VInt:
		return e.intOp(op, int64(l), int64(rhs.(VInt)))
	case VBigInt:
		return e.bigOp(op, l.V, rhs)
	case VDouble:
		return e.doubleOp(op, float64(l), float64(rhs.(VDouble)))
	case VBool:
		r := bool(rhs.(VBool))
		switch op {
		case ast.OpAndL:
			return VBool(bool(l) && r), nil
		case ast.OpOrL:
			return VBool(bool(l) || r), nil
		}
	case VString:
		if op == ast.OpAdd {
			return l + rhs.(VString), nil
		}
	case VArray:
		if op == ast.OpAdd {
			r := rhs.(VArray)
			out := make(VArray, 0, len(l)+len(r))
			return append(append(out, l...), r...), nil
		}
	}
	switch op {
	case ast.OpEq:
		return VBool(equal(lhs, rhs)), nil
	case ast.OpNeq:
		return VBool(!equal(lhs, rhs)), nil
	}
	panic(errors.Errorf("partial evaluation: %s on %s and %s", op, Format(lhs), Format(rhs)))
}

func (e *evaluator) intOp(op ast.BinOp, l, r int64) (Value, *Error) {
	switch op {
	case ast.OpAdd:
		return VInt(l + r), nil
	case ast.OpSub:
		return VInt(l - r), nil
	case ast.OpMul:
		return VInt(l * r), nil
	case ast.OpDiv, ast.OpMod:
		if r == 0 {
			return nil, errorf(EvaluationFailed, e.span, "division by zero")
		}
		if op == ast.OpDiv {
			return VInt(l / r), nil
		}
		return VInt(l % r), nil
	case ast.OpExp:
		if r < 0 {
			return nil, errorf(EvaluationFailed, e.span, "negative exponent %d", r)
		}
		// squaring wraps on overflow like the other Int operations
		out, base := int64(1), l
		for ; r > 0; r >>= 1 {
			if r&1 == 1 {
				out *= base
			}
			base *= base
		}
		return VInt(out), nil
	case ast.OpAndB:
		return VInt(l & r), nil
	case ast.OpOrB:
		return VInt(l | r), nil
	case ast.OpXorB:
		return VInt(l ^ r), nil
	case ast.OpShl:
		return VInt(l << uint64(r)), nil
	case ast.OpShr:
		return VInt(l >> uint64(r)), nil
	case ast.OpEq:
		return VBool(l == r), nil
	case ast.OpNeq:
		return VBool(l != r), nil
	case ast.OpLt:
		return VBool(l < r), nil
	case ast.OpLte:
		return VBool(l <= r), nil
	case ast.OpGt:
		return VBool(l > r), nil
	case ast.OpGte:
		return VBool(l >= r), nil
	}
	panic(errors.Errorf("partial evaluation: %s on Int", op))
}

// maxBigIntBits bounds the size of a BigInt the evaluator will build.
const maxBigIntBits = 1 << 20

func (e *evaluator) bigOp(op ast.BinOp, l *big.Int, rhs Value) (Value, *Error) {
	// shifts and powers take an Int on the right
	if n, ok := rhs.(VInt); ok {
		switch op {
		case ast.OpShl, ast.OpShr:
			if n < 0 {
				return nil, errorf(EvaluationFailed, e.span, "negative shift amount %d", int64(n))
			}
			if op == ast.OpShr {
				return VBigInt{V: new(big.Int).Rsh(l, uint(n))}, nil
			}
			if l.Sign() != 0 && int64(n) > maxBigIntBits-int64(l.BitLen()) {
				return nil, errorf(EvaluationFailed, e.span, "shift by %d exceeds %d bits", int64(n), maxBigIntBits)
			}
			return VBigInt{V: new(big.Int).Lsh(l, uint(n))}, nil
		case ast.OpExp:
			if n < 0 {
				return nil, errorf(EvaluationFailed, e.span, "negative exponent %d", int64(n))
			}
			// 0, 1 and -1 stay small for any exponent
			if l.CmpAbs(big.NewInt(1)) > 0 && int64(n) > maxBigIntBits/int64(l.BitLen()-1) {
				return nil, errorf(EvaluationFailed, e.span, "%sL ^ %d exceeds %d bits", l, int64(n), maxBigIntBits)
			}
			return VBigInt{V: new(big.Int).Exp(l, big.NewInt(int64(n)), nil)}, nil
		}
		panic(errors.Errorf("partial evaluation: %s on BigInt and Int", op))
	}
	r := rhs.(VBigInt).V
	out := new(big.Int)
	switch op {
	case ast.OpAdd:
		return VBigInt{V: out.Add(l, r)}, nil
	case ast.OpSub:
		return VBigInt{V: out.Sub(l, r)}, nil
	case ast.OpMul:
		return VBigInt{V: out.Mul(l, r)}, nil
	case ast.OpDiv, ast.OpMod:
		if r.Sign() == 0 {
			return nil, errorf(EvaluationFailed, e.span, "division by zero")
		}
		if op == ast.OpDiv {
			return VBigInt{V: out.Quo(l, r)}, nil
		}
		return VBigInt{V: out.Rem(l, r)}, nil
	case ast.OpAndB:
		return VBigInt{V: out.And(l, r)}, nil
	case ast.OpOrB:
		return VBigInt{V: out.Or(l, r)}, nil
	case ast.OpXorB:
		return VBigInt{V: out.Xor(l, r)}, nil
	case ast.OpEq:
		return VBool(l.Cmp(r) == 0), nil
	case ast.OpNeq:
		return VBool(l.Cmp(r) != 0), nil
	case ast.OpLt:
		return VBool(l.Cmp(r) < 0), nil
	case ast.OpLte:
		return VBool(l.Cmp(r) <= 0), nil
	case ast.OpGt:
		return VBool(l.Cmp(r) > 0), nil
	case ast.OpGte:
		return VBool(l.Cmp(r) >= 0), nil
	}
	panic(errors.Errorf("partial evaluation: %s on BigInt", op))
}

func (e *evaluator) doubleOp(op ast.BinOp, l, r float64) (Value, *Error) {
	switch op {
	case ast.OpAdd:
		return VDouble(l + r), nil
	case ast.OpSub:
		return VDouble(l - r), nil
	case ast.OpMul:
		return VDouble(l * r), nil
	case ast.OpDiv:
		return VDouble(l / r), nil
	case ast.OpMod:
		return VDouble(math.Mod(l, r)), nil
	case ast.OpExp:
		return VDouble(math.Pow(l, r)), nil
	case ast.OpEq:
		return VBool(l == r), nil
	case ast.OpNeq:
		return VBool(l != r), nil
	case ast.OpLt:
		return VBool(l < r), nil
	case ast.OpLte:
		return VBool(l <= r), nil
	case ast.OpGt:
		return VBool(l > r), nil
	case ast.OpGte:
		return VBool(l >= r), nil
	}
	panic(errors.Errorf("partial evaluation: %s on Double", op))
}

var (
	intInstrs = map[ast.BinOp]rir.InstrKind{
		ast.OpAdd: rir.InstrAdd, ast.OpSub: rir.InstrSub, ast.OpMul: rir.InstrMul,
		ast.OpDiv: rir.InstrSdiv, ast.OpMod: rir.InstrSrem, ast.OpShl: rir.InstrShl,
		ast.OpShr: rir.InstrAshr, ast.OpAndB: rir.InstrBitwiseAnd, ast.OpOrB: rir.InstrBitwiseOr,
		ast.OpXorB: rir.InstrBitwiseXor,
	}
	doubleInstrs = map[ast.BinOp]rir.InstrKind{
		ast.OpAdd: rir.InstrFadd, ast.OpSub: rir.InstrFsub, ast.OpMul: rir.InstrFmul, ast.OpDiv: rir.InstrFdiv,
	}
	conds = map[ast.BinOp]rir.Cond{
		ast.OpEq: rir.CondEq, ast.OpNeq: rir.CondNe, ast.OpLt: rir.CondSlt,
		ast.OpLte: rir.CondSle, ast.OpGt: rir.CondSgt, ast.OpGte: rir.CondSge,
	}
)

func (e *evaluator) dynamicBinop(op ast.BinOp, lhs, rhs Value) (Value, *Error) {
	lo, lok := operand(lhs)
	ro, rok := operand(rhs)
	if !lok || !rok {
		return nil, unsupported(e.span, capability.HigherLevelConstructs, "%s on %s and %s cannot be computed at run time", op, Format(lhs), Format(rhs))
	}
	ty := lo.Ty()
	if isDynamic(rhs) {
		ty = ro.Ty()
	}
	cond, isCmp := conds[op]
	switch ty {
	case rir.TyInteger:
		if err := e.require(capability.Adaptive|capability.IntegerComputations, "integer computation on a dynamic value"); err != nil {
			return nil, err
		}
		if isCmp {
			return e.cmp(rir.Icmp, cond, lo, ro), nil
		}
		if kind, ok := intInstrs[op]; ok {
			return e.binary(kind, lo, ro, rir.TyInteger), nil
		}
	case rir.TyDouble:
		if err := e.require(capability.Adaptive|capability.FloatingPointComputations, "floating-point computation on a dynamic value"); err != nil {
			return nil, err
		}
		if isCmp {
			return e.cmp(rir.Fcmp, cond, lo, ro), nil
		}
		if kind, ok := doubleInstrs[op]; ok {
			return e.binary(kind, lo, ro, rir.TyDouble), nil
		}
	case rir.TyBoolean:
		if err := e.require(capability.Adaptive, "boolean computation on a dynamic value"); err != nil {
			return nil, err
		}
		switch op {
		case ast.OpAndL:
			return e.binary(rir.InstrLogicalAnd, lo, ro, rir.TyBoolean), nil
		case ast.OpOrL:
			return e.binary(rir.InstrLogicalOr, lo, ro, rir.TyBoolean), nil
		case ast.OpEq, ast.OpNeq:
			return e.cmp(rir.Icmp, cond, lo, ro), nil
		}
	}
	return nil, errorf(Unimplemented, e.span, "%s on a dynamic %s", op, ty)
}

func (e *evaluator) binary(kind rir.InstrKind, lhs, rhs rir.Operand, ty rir.Ty) Value {
	dst := e.prog.NewVariable(ty)
	e.emit(rir.Binary(kind, lhs, rhs, dst))
	return VVar{Var: dst}
}

func (e *evaluator) cmp(mk func(rir.Cond, rir.Operand, rir.Operand, rir.Variable) rir.Instr, cond rir.Cond, lhs, rhs rir.Operand) Value {
	dst := e.prog.NewVariable(rir.TyBoolean)
	e.emit(mk(cond, lhs, rhs, dst))
	return VVar{Var: dst}
}

func resultLike(v Value) bool {
	switch v := v.(type) {
	case VResult:
		return true
	case VVar:
		return v.Var.Ty == rir.TyResult
	}
	return false
}

// compareResults compares measurement outcomes by reading them into
// booleans.
func (e *evaluator) compareResults(op ast.BinOp, lhs, rhs Value) (Value, *Error) {
	if op != ast.OpEq && op != ast.OpNeq {
		panic(errors.Errorf("partial evaluation: %s on Result", op))
	}
	if err := e.require(capability.Adaptive, "comparing a measurement result"); err != nil {
		return nil, err
	}
	read := func(v Value) Value {
		switch v := v.(type) {
		case VResultLit:
			return VBool(ast.Result(v) == ast.ResultOne)
		case VResult, VVar:
			op, _ := operand(v)
			dst := e.prog.NewVariable(rir.TyBoolean)
			callee := e.declare("__quantum__rt__read_result", []rir.Ty{rir.TyResult}, rir.TyBoolean, rir.CallableReadout)
			e.emit(rir.CallValue(callee, dst, op))
			return VVar{Var: dst}
		}
		panic(errors.Errorf("partial evaluation: %s is not a Result", Format(v)))
	}
	l, r := read(lhs), read(rhs)
	// against a literal the comparison folds into the read
	if _, ok := r.(VBool); ok {
		l, r = r, l
	}
	if b, ok := l.(VBool); ok {
		if bool(b) == (op == ast.OpEq) {
			return r, nil
		}
		return e.not(r), nil
	}
	lo, _ := operand(l)
	ro, _ := operand(r)
	return e.cmp(rir.Icmp, conds[op], lo, ro), nil
}

func (e *evaluator) not(v Value) Value {
	op, _ := operand(v)
	dst := e.prog.NewVariable(rir.TyBoolean)
	e.emit(rir.Unary(rir.InstrLogicalNot, op, dst))
	return VVar{Var: dst}
}

func (e *evaluator) unop(op ast.UnOp, v Value) (Value, *Error) {
	switch op {
	case ast.OpPos, ast.OpUnwrap:
		return v, nil
	case ast.OpFunctorAdj:
		c := v.(VCallable)
		c.Adj = !c.Adj
		return c, nil
	case ast.OpFunctorCtl:
		c := v.(VCallable)
		c.Ctls++
		return c, nil
	}
	switch v := v.(type) {
	case VInt:
		if op == ast.OpNeg {
			return -v, nil
		}
		return ^v, nil
	case VBigInt:
		if op == ast.OpNeg {
			return VBigInt{V: new(big.Int).Neg(v.V)}, nil
		}
		return VBigInt{V: new(big.Int).Not(v.V)}, nil
	case VDouble:
		return -v, nil
	case VBool:
		return !v, nil
	case VVar:
		return e.dynamicUnop(op, v)
	}
	panic(errors.Errorf("partial evaluation: %s on %s", op, Format(v)))
}

func (e *evaluator) dynamicUnop(op ast.UnOp, v VVar) (Value, *Error) {
	x := rir.Var(v.Var)
	switch v.Var.Ty {
	case rir.TyBoolean:
		if err := e.require(capability.Adaptive, "boolean computation on a dynamic value"); err != nil {
			return nil, err
		}
		return e.not(v), nil
	case rir.TyInteger:
		if err := e.require(capability.Adaptive|capability.IntegerComputations, "integer computation on a dynamic value"); err != nil {
			return nil, err
		}
		if op == ast.OpNeg {
			return e.binary(rir.InstrSub, rir.Int(0), x, rir.TyInteger), nil
		}
		dst := e.prog.NewVariable(rir.TyInteger)
		e.emit(rir.Unary(rir.InstrBitwiseNot, x, dst))
		return VVar{Var: dst}, nil
	case rir.TyDouble:
		if err := e.require(capability.Adaptive|capability.FloatingPointComputations, "floating-point computation on a dynamic value"); err != nil {
			return nil, err
		}
		return e.binary(rir.InstrFsub, rir.Double(0), x, rir.TyDouble), nil
	}
	return nil, errorf(Unimplemented, e.span, "%s on a dynamic %s", op, v.Var.Ty)
}

// indices expands a range against an array of length n.
func (e *evaluator) indices(r VRange, n int64) ([]int64, *Error) {
	if r.Step == 0 {
		return nil, errorf(EvaluationFailed, e.span, "range step cannot be zero")
	}
	start, end := r.Start, r.End
	if !r.HasStart {
		start = 0
		if r.Step < 0 {
			start = n - 1
		}
	}
	if !r.HasEnd {
		end = n - 1
		if r.Step < 0 {
			end = 0
		}
	}
	var out []int64
	for i := start; (r.Step > 0 && i <= end) || (r.Step < 0 && i >= end); i += r.Step {
		if i < 0 || i >= n {
			return nil, errorf(EvaluationFailed, e.span, "index %d out of range for length %d", i, n)
		}
		out = append(out, i)
	}
	return out, nil
}

func (e *evaluator) index(arr, idx Value) (Value, *Error) {
	a, ok := arr.(VArray)
	if !ok {
		return nil, errorf(ValueNotStatic, e.span, "array %s must be known at compile time", Format(arr))
	}
	switch i := idx.(type) {
	case VInt:
		if i < 0 || int(i) >= len(a) {
			return nil, errorf(EvaluationFailed, e.span, "index %d out of range for length %d", int64(i), len(a))
		}
		return a[i], nil
	case VRange:
		is, err := e.indices(i, int64(len(a)))
		if err != nil {
			return nil, err
		}
		out := make(VArray, len(is))
		for j, k := range is {
			out[j] = a[k]
		}
		return out, nil
	case VVar:
		return nil, errorf(ValueNotStatic, e.span, "array index must be known at compile time")
	}
	panic(errors.Errorf("partial evaluation: index %s", Format(idx)))
}

// update copies arr with the element at idx replaced.
func (e *evaluator) update(arr, idx, val Value) (Value, *Error) {
	a, ok := arr.(VArray)
	if !ok {
		return nil, errorf(ValueNotStatic, e.span, "array %s must be known at compile time", Format(arr))
	}
	i, err := e.staticInt(idx, "array index")
	if err != nil {
		return nil, err
	}
	if i < 0 || int(i) >= len(a) {
		return nil, errorf(EvaluationFailed, e.span, "index %d out of range for length %d", i, len(a))
	}
	out := append(VArray(nil), a...)
	out[i] = val
	return out, nil
}
