package rir

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Dump writes a human-readable representation of the program: external
// declarations first, then every callable with its reachable blocks.
func Dump(w io.Writer, p *Program) error {
	if w == nil || p == nil {
		return nil
	}
	for _, id := range p.CallableIDs() {
		c := p.Callables[id]
		if !c.External() {
			continue
		}
		if _, err := fmt.Fprintf(w, "declare %s\n", signature(c)); err != nil {
			return err
		}
	}
	for _, id := range p.CallableIDs() {
		c := p.Callables[id]
		if c.External() {
			continue
		}
		entry := ""
		if id == p.EntryPoint {
			entry = " #entry"
		}
		if _, err := fmt.Fprintf(w, "\ndefine %s%s {\n", signature(c), entry); err != nil {
			return err
		}
		reach := p.Reachable(c)
		for _, bid := range p.BlockIDs() {
			if !reach[bid] {
				continue
			}
			fmt.Fprintf(w, "b%d:\n", bid)
			blk := p.Blocks[bid]
			for i := range blk.Instrs {
				fmt.Fprintf(w, "  %s\n", p.FormatInstr(&blk.Instrs[i]))
			}
		}
		if _, err := fmt.Fprintln(w, "}"); err != nil {
			return err
		}
	}
	return nil
}

func (p *Program) String() string {
	var sb strings.Builder
	_ = Dump(&sb, p)
	return sb.String()
}

func signature(c *Callable) string {
	params := make([]string, len(c.Input))
	for i, t := range c.Input {
		params[i] = t.String()
	}
	return fmt.Sprintf("%s @%s(%s)", c.Output, c.Name, strings.Join(params, ", "))
}

// FormatInstr renders one instruction.
func (p *Program) FormatInstr(in *Instr) string {
	switch {
	case in.Kind.IsBinary():
		return fmt.Sprintf("%s = %s %s, %s", formatVar(in.Binary.Dst), in.Kind, formatOperand(in.Binary.Lhs), formatOperand(in.Binary.Rhs))
	case in.Kind.IsUnary():
		return fmt.Sprintf("%s = %s %s", formatVar(in.Unary.Dst), in.Kind, formatOperand(in.Unary.Value))
	}
	switch in.Kind {
	case InstrIcmp, InstrFcmp:
		return fmt.Sprintf("%s = %s %s %s, %s", formatVar(in.Cmp.Dst), in.Kind, in.Cmp.Cond, formatOperand(in.Cmp.Lhs), formatOperand(in.Cmp.Rhs))
	case InstrPhi:
		args := make([]string, len(in.Phi.Args))
		for i, a := range in.Phi.Args {
			args[i] = fmt.Sprintf("[%s, b%d]", formatOperand(a.Value), a.Block)
		}
		return fmt.Sprintf("%s = phi %s", formatVar(in.Phi.Dst), strings.Join(args, ", "))
	case InstrAlloca:
		return fmt.Sprintf("%s = alloca", formatVar(in.Alloca.Var))
	case InstrStore:
		return fmt.Sprintf("store %s, %s", formatOperand(in.Store.Value), formatVar(in.Store.Var))
	case InstrLoad:
		return fmt.Sprintf("%s = load %s", formatVar(in.Load.Dst), formatVar(in.Load.Var))
	case InstrCall:
		dst := ""
		if in.Call.HasDst {
			dst = formatVar(in.Call.Dst) + " = "
		}
		name := "?"
		if c, ok := p.Callables[in.Call.Callee]; ok {
			name = c.Name
		}
		return fmt.Sprintf("%scall @%s(%s)", dst, name, formatOperands(in.Call.Args))
	case InstrBranch:
		return fmt.Sprintf("br %s, b%d, b%d", formatOperand(in.Branch.Cond), in.Branch.Then, in.Branch.Else)
	case InstrJump:
		return fmt.Sprintf("jump b%d", in.Jump.Target)
	case InstrReturn:
		return "ret"
	}
	return "<instr?>"
}

func formatVar(v Variable) string {
	return fmt.Sprintf("%%%d: %s", v.ID, v.Ty)
}

func formatOperands(ops []Operand) string {
	parts := make([]string, len(ops))
	for i, op := range ops {
		parts[i] = formatOperand(op)
	}
	return strings.Join(parts, ", ")
}

func formatOperand(op Operand) string {
	if op.Kind == OperandVariable {
		return fmt.Sprintf("%%%d", op.Var.ID)
	}
	switch op.Lit.Kind {
	case LitBool:
		return strconv.FormatBool(op.Lit.Bool)
	case LitInteger:
		return strconv.FormatInt(op.Lit.Int, 10)
	case LitDouble:
		return strconv.FormatFloat(op.Lit.Double, 'g', -1, 64)
	case LitQubit:
		return fmt.Sprintf("Qubit(%d)", op.Lit.ID)
	case LitResult:
		return fmt.Sprintf("Result(%d)", op.Lit.ID)
	}
	return "null"
}
