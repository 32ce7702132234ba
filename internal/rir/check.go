package rir

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// CheckTypes panics when an instruction's operand and result types
// disagree with each other or with the callee signature. By the time RIR
// exists every user-facing type rule has been checked, so a failure here
// is a compiler bug.
func CheckTypes(p *Program) {
	if err := multierr.Combine(typeErrors(p)...); err != nil {
		panic(errors.Wrap(err, "rir type check"))
	}
}

// CheckBlocks panics unless every block of every callable ends in exactly
// one terminator and only jumps to existing blocks.
func CheckBlocks(p *Program) {
	if err := multierr.Combine(blockErrors(p)...); err != nil {
		panic(errors.Wrap(err, "rir block check"))
	}
}

// Validate runs every structural check and returns all violations
// instead of panicking.
func Validate(p *Program) error {
	errs := blockErrors(p)
	errs = append(errs, typeErrors(p)...)
	if _, ok := p.Callables[p.EntryPoint]; !ok {
		errs = append(errs, fmt.Errorf("entry point c%d does not exist", p.EntryPoint))
	}
	return multierr.Combine(errs...)
}

func blockErrors(p *Program) []error {
	var errs []error
	for _, cid := range p.CallableIDs() {
		c := p.Callables[cid]
		if c.External() {
			continue
		}
		if _, ok := p.Blocks[c.Body]; !ok {
			errs = append(errs, fmt.Errorf("%s: entry block b%d does not exist", c.Name, c.Body))
			continue
		}
		reach := p.Reachable(c)
		for _, bid := range p.BlockIDs() {
			if !reach[bid] {
				continue
			}
			blk := p.Blocks[bid]
			if len(blk.Instrs) == 0 {
				errs = append(errs, fmt.Errorf("%s: b%d is empty", c.Name, bid))
				continue
			}
			for i, in := range blk.Instrs {
				last := i == len(blk.Instrs)-1
				switch {
				case in.Kind.IsTerminator() && !last:
					errs = append(errs, fmt.Errorf("%s: b%d has %s before its end", c.Name, bid, in.Kind))
				case !in.Kind.IsTerminator() && last:
					errs = append(errs, fmt.Errorf("%s: b%d is not terminated", c.Name, bid))
				}
			}
			for _, succ := range blk.Successors() {
				if _, ok := p.Blocks[succ]; !ok {
					errs = append(errs, fmt.Errorf("%s: b%d jumps to missing b%d", c.Name, bid, succ))
				}
			}
		}
	}
	return errs
}

func typeErrors(p *Program) []error {
	var errs []error
	fail := func(bid BlockID, i int, format string, args ...any) {
		errs = append(errs, fmt.Errorf("b%d[%d]: %s", bid, i, fmt.Sprintf(format, args...)))
	}
	for _, bid := range p.BlockIDs() {
		for i := range p.Blocks[bid].Instrs {
			in := &p.Blocks[bid].Instrs[i]
			switch {
			case in.Kind.IsBinary():
				want := in.Kind.operandTy()
				if in.Binary.Lhs.Ty() != want || in.Binary.Rhs.Ty() != want || in.Binary.Dst.Ty != want {
					fail(bid, i, "%s on %s, %s into %s", in.Kind, in.Binary.Lhs.Ty(), in.Binary.Rhs.Ty(), in.Binary.Dst.Ty)
				}
				continue
			case in.Kind.IsUnary():
				want := in.Kind.operandTy()
				if in.Unary.Value.Ty() != want || in.Unary.Dst.Ty != want {
					fail(bid, i, "%s on %s into %s", in.Kind, in.Unary.Value.Ty(), in.Unary.Dst.Ty)
				}
				continue
			}
			switch in.Kind {
			case InstrIcmp, InstrFcmp:
				want := TyInteger
				if in.Kind == InstrFcmp {
					want = TyDouble
				}
				lhs, rhs := in.Cmp.Lhs.Ty(), in.Cmp.Rhs.Ty()
				if in.Kind == InstrIcmp && lhs == TyBoolean && rhs == TyBoolean && (in.Cmp.Cond == CondEq || in.Cmp.Cond == CondNe) {
					want = TyBoolean
				}
				if lhs != want || rhs != want || in.Cmp.Dst.Ty != TyBoolean {
					fail(bid, i, "%s %s on %s, %s into %s", in.Kind, in.Cmp.Cond, lhs, rhs, in.Cmp.Dst.Ty)
				}
			case InstrPhi:
				for _, arg := range in.Phi.Args {
					if arg.Value.Ty() != in.Phi.Dst.Ty {
						fail(bid, i, "phi of %s from b%d into %s", arg.Value.Ty(), arg.Block, in.Phi.Dst.Ty)
					}
				}
			case InstrStore:
				if in.Store.Value.Ty() != in.Store.Var.Ty {
					fail(bid, i, "store of %s into %s slot", in.Store.Value.Ty(), in.Store.Var.Ty)
				}
			case InstrLoad:
				if in.Load.Var.Ty != in.Load.Dst.Ty {
					fail(bid, i, "load of %s slot into %s", in.Load.Var.Ty, in.Load.Dst.Ty)
				}
			case InstrCall:
				c, ok := p.Callables[in.Call.Callee]
				if !ok {
					fail(bid, i, "call of missing c%d", in.Call.Callee)
					continue
				}
				if len(in.Call.Args) != len(c.Input) {
					fail(bid, i, "call of %s with %d arguments, want %d", c.Name, len(in.Call.Args), len(c.Input))
					continue
				}
				for j, arg := range in.Call.Args {
					if arg.Ty() != c.Input[j] {
						fail(bid, i, "argument %d of %s is %s, want %s", j, c.Name, arg.Ty(), c.Input[j])
					}
				}
				if in.Call.HasDst != (c.Output != TyVoid) || (in.Call.HasDst && in.Call.Dst.Ty != c.Output) {
					fail(bid, i, "call of %s returning %s into %s", c.Name, c.Output, in.Call.Dst.Ty)
				}
			case InstrBranch:
				if in.Branch.Cond.Ty() != TyBoolean {
					fail(bid, i, "branch on %s", in.Branch.Cond.Ty())
				}
			}
		}
	}
	return errs
}
