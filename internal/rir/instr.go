package rir

type Ty uint8

const (
	TyVoid Ty = iota
	TyBoolean
	TyInteger
	TyDouble
	TyQubit
	TyResult
	TyPointer
)

var tyNames = [...]string{
	TyVoid: "Void", TyBoolean: "Boolean", TyInteger: "Integer", TyDouble: "Double",
	TyQubit: "Qubit", TyResult: "Result", TyPointer: "Pointer",
}

func (t Ty) String() string { return tyNames[t] }

type Variable struct {
	ID VariableID
	Ty Ty
}

type LitKind uint8

const (
	LitBool LitKind = iota
	LitInteger
	LitDouble
	LitQubit
	LitResult
	// LitPointer is the null pointer used as an empty output label.
	LitPointer
)

type Literal struct {
	Kind   LitKind
	Bool   bool
	Int    int64
	Double float64
	// ID of a static qubit or result.
	ID uint32
}

func (l Literal) Ty() Ty {
	switch l.Kind {
	case LitBool:
		return TyBoolean
	case LitInteger:
		return TyInteger
	case LitDouble:
		return TyDouble
	case LitQubit:
		return TyQubit
	case LitResult:
		return TyResult
	}
	return TyPointer
}

type OperandKind uint8

const (
	OperandLiteral OperandKind = iota
	OperandVariable
)

type Operand struct {
	Kind OperandKind
	Lit  Literal
	Var  Variable
}

func (o Operand) Ty() Ty {
	if o.Kind == OperandVariable {
		return o.Var.Ty
	}
	return o.Lit.Ty()
}

func Bool(b bool) Operand      { return Operand{Lit: Literal{Kind: LitBool, Bool: b}} }
func Int(n int64) Operand      { return Operand{Lit: Literal{Kind: LitInteger, Int: n}} }
func Double(f float64) Operand { return Operand{Lit: Literal{Kind: LitDouble, Double: f}} }
func Qubit(id uint32) Operand  { return Operand{Lit: Literal{Kind: LitQubit, ID: id}} }
func Result(id uint32) Operand { return Operand{Lit: Literal{Kind: LitResult, ID: id}} }
func NullPointer() Operand     { return Operand{Lit: Literal{Kind: LitPointer}} }
func Var(v Variable) Operand   { return Operand{Kind: OperandVariable, Var: v} }

// InstrKind enumerates RIR instructions.
type InstrKind uint8

const (
	InstrAdd InstrKind = iota
	InstrSub
	InstrMul
	InstrSdiv
	InstrSrem
	InstrShl
	InstrAshr
	InstrFadd
	InstrFsub
	InstrFmul
	InstrFdiv
	InstrLogicalAnd
	InstrLogicalOr
	InstrBitwiseAnd
	InstrBitwiseOr
	InstrBitwiseXor
	InstrLogicalNot
	InstrBitwiseNot
	InstrIcmp
	InstrFcmp
	InstrPhi
	InstrAlloca
	InstrStore
	InstrLoad
	InstrCall
	InstrBranch
	InstrJump
	InstrReturn
)

var instrNames = [...]string{
	InstrAdd: "add", InstrSub: "sub", InstrMul: "mul", InstrSdiv: "sdiv", InstrSrem: "srem",
	InstrShl: "shl", InstrAshr: "ashr", InstrFadd: "fadd", InstrFsub: "fsub", InstrFmul: "fmul",
	InstrFdiv: "fdiv", InstrLogicalAnd: "and", InstrLogicalOr: "or", InstrBitwiseAnd: "band",
	InstrBitwiseOr: "bor", InstrBitwiseXor: "bxor", InstrLogicalNot: "not", InstrBitwiseNot: "bnot",
	InstrIcmp: "icmp", InstrFcmp: "fcmp", InstrPhi: "phi", InstrAlloca: "alloca", InstrStore: "store",
	InstrLoad: "load", InstrCall: "call", InstrBranch: "br", InstrJump: "jump", InstrReturn: "ret",
}

func (k InstrKind) String() string { return instrNames[k] }

func (k InstrKind) IsTerminator() bool {
	return k == InstrBranch || k == InstrJump || k == InstrReturn
}

func (k InstrKind) IsBinary() bool { return k <= InstrBitwiseXor }

func (k InstrKind) IsUnary() bool { return k == InstrLogicalNot || k == InstrBitwiseNot }

// operandTy is the type binary and unary operands must have.
func (k InstrKind) operandTy() Ty {
	switch k {
	case InstrFadd, InstrFsub, InstrFmul, InstrFdiv:
		return TyDouble
	case InstrLogicalAnd, InstrLogicalOr, InstrLogicalNot:
		return TyBoolean
	}
	return TyInteger
}

type Cond uint8

const (
	CondEq Cond = iota
	CondNe
	CondSlt
	CondSle
	CondSgt
	CondSge
)

var condNames = [...]string{CondEq: "eq", CondNe: "ne", CondSlt: "slt", CondSle: "sle", CondSgt: "sgt", CondSge: "sge"}

func (c Cond) String() string { return condNames[c] }

// Instr is one instruction. Kind selects which of the payload fields is
// meaningful.
type Instr struct {
	Kind InstrKind

	Binary BinaryInstr
	Unary  UnaryInstr
	Cmp    CmpInstr
	Phi    PhiInstr
	Alloca AllocaInstr
	Store  StoreInstr
	Load   LoadInstr
	Call   CallInstr
	Branch BranchInstr
	Jump   JumpInstr

	Dbg DbgLocationID
}

type BinaryInstr struct {
	Lhs, Rhs Operand
	Dst      Variable
}

type UnaryInstr struct {
	Value Operand
	Dst   Variable
}

type CmpInstr struct {
	Cond     Cond
	Lhs, Rhs Operand
	Dst      Variable
}

type PhiArg struct {
	Value Operand
	Block BlockID
}

type PhiInstr struct {
	Args []PhiArg
	Dst  Variable
}

// AllocaInstr declares a memory slot; Var carries the slot's value type.
type AllocaInstr struct {
	Var Variable
}

type StoreInstr struct {
	Value Operand
	Var   Variable
}

type LoadInstr struct {
	Var Variable
	Dst Variable
}

type CallInstr struct {
	Callee CallableID
	Args   []Operand
	HasDst bool
	Dst    Variable
}

type BranchInstr struct {
	Cond       Operand
	Then, Else BlockID
}

type JumpInstr struct {
	Target BlockID
}

func Binary(kind InstrKind, lhs, rhs Operand, dst Variable) Instr {
	return Instr{Kind: kind, Binary: BinaryInstr{Lhs: lhs, Rhs: rhs, Dst: dst}}
}

func Unary(kind InstrKind, value Operand, dst Variable) Instr {
	return Instr{Kind: kind, Unary: UnaryInstr{Value: value, Dst: dst}}
}

func Icmp(cond Cond, lhs, rhs Operand, dst Variable) Instr {
	return Instr{Kind: InstrIcmp, Cmp: CmpInstr{Cond: cond, Lhs: lhs, Rhs: rhs, Dst: dst}}
}

func Fcmp(cond Cond, lhs, rhs Operand, dst Variable) Instr {
	return Instr{Kind: InstrFcmp, Cmp: CmpInstr{Cond: cond, Lhs: lhs, Rhs: rhs, Dst: dst}}
}

func Phi(dst Variable, args ...PhiArg) Instr {
	return Instr{Kind: InstrPhi, Phi: PhiInstr{Args: args, Dst: dst}}
}

func Alloca(v Variable) Instr { return Instr{Kind: InstrAlloca, Alloca: AllocaInstr{Var: v}} }

func Store(value Operand, v Variable) Instr {
	return Instr{Kind: InstrStore, Store: StoreInstr{Value: value, Var: v}}
}

func Load(v, dst Variable) Instr { return Instr{Kind: InstrLoad, Load: LoadInstr{Var: v, Dst: dst}} }

func Call(callee CallableID, args ...Operand) Instr {
	return Instr{Kind: InstrCall, Call: CallInstr{Callee: callee, Args: args}}
}

func CallValue(callee CallableID, dst Variable, args ...Operand) Instr {
	return Instr{Kind: InstrCall, Call: CallInstr{Callee: callee, Args: args, HasDst: true, Dst: dst}}
}

func Branch(cond Operand, then, els BlockID) Instr {
	return Instr{Kind: InstrBranch, Branch: BranchInstr{Cond: cond, Then: then, Else: els}}
}

func Jump(target BlockID) Instr { return Instr{Kind: InstrJump, Jump: JumpInstr{Target: target}} }

func Return() Instr { return Instr{Kind: InstrReturn} }

// Def returns the variable the instruction defines.
func (in *Instr) Def() (Variable, bool) {
	switch {
	case in.Kind.IsBinary():
		return in.Binary.Dst, true
	case in.Kind.IsUnary():
		return in.Unary.Dst, true
	}
	switch in.Kind {
	case InstrIcmp, InstrFcmp:
		return in.Cmp.Dst, true
	case InstrPhi:
		return in.Phi.Dst, true
	case InstrAlloca:
		return in.Alloca.Var, true
	case InstrLoad:
		return in.Load.Dst, true
	case InstrCall:
		return in.Call.Dst, in.Call.HasDst
	}
	return Variable{}, false
}

// Operands returns pointers to every operand the instruction reads, so
// passes can rewrite them in place.
func (in *Instr) Operands() []*Operand {
	switch {
	case in.Kind.IsBinary():
		return []*Operand{&in.Binary.Lhs, &in.Binary.Rhs}
	case in.Kind.IsUnary():
		return []*Operand{&in.Unary.Value}
	}
	switch in.Kind {
	case InstrIcmp, InstrFcmp:
		return []*Operand{&in.Cmp.Lhs, &in.Cmp.Rhs}
	case InstrPhi:
		out := make([]*Operand, len(in.Phi.Args))
		for i := range in.Phi.Args {
			out[i] = &in.Phi.Args[i].Value
		}
		return out
	case InstrStore:
		return []*Operand{&in.Store.Value}
	case InstrBranch:
		return []*Operand{&in.Branch.Cond}
	case InstrCall:
		out := make([]*Operand, len(in.Call.Args))
		for i := range in.Call.Args {
			out[i] = &in.Call.Args[i]
		}
		return out
	}
	return nil
}
