package rir

// PruneStores removes memory traffic that never leaves a block. A load
// that follows a store to the same slot in the same block is replaced by
// the stored value. Stores and allocas survive only for slots some block
// reads without storing first, since that value crosses a block edge.
func PruneStores(p *Program) {
	for _, cid := range p.CallableIDs() {
		c := p.Callables[cid]
		if c.External() {
			continue
		}
		pruneStores(p, c)
	}
}

func pruneStores(p *Program, c *Callable) {
	var blocks []*Block
	reach := p.Reachable(c)
	for _, id := range p.BlockIDs() {
		if reach[id] {
			blocks = append(blocks, p.Blocks[id])
		}
	}

	cross := make(map[VariableID]bool)
	for _, blk := range blocks {
		stored := make(map[VariableID]bool)
		for _, in := range blk.Instrs {
			switch in.Kind {
			case InstrStore:
				stored[in.Store.Var.ID] = true
			case InstrLoad:
				if !stored[in.Load.Var.ID] {
					cross[in.Load.Var.ID] = true
				}
			}
		}
	}

	subst := make(map[VariableID]Operand)
	resolve := func(op Operand) Operand {
		for op.Kind == OperandVariable {
			next, ok := subst[op.Var.ID]
			if !ok {
				break
			}
			op = next
		}
		return op
	}
	for _, blk := range blocks {
		last := make(map[VariableID]Operand)
		kept := blk.Instrs[:0]
		for _, in := range blk.Instrs {
			for _, op := range in.Operands() {
				*op = resolve(*op)
			}
			switch in.Kind {
			case InstrStore:
				last[in.Store.Var.ID] = in.Store.Value
				if !cross[in.Store.Var.ID] {
					continue
				}
			case InstrLoad:
				if v, ok := last[in.Load.Var.ID]; ok {
					subst[in.Load.Dst.ID] = v
					continue
				}
			case InstrAlloca:
				if !cross[in.Alloca.Var.ID] {
					continue
				}
			}
			kept = append(kept, in)
		}
		blk.Instrs = kept
	}
	// loads may feed blocks that come earlier in id order
	for _, blk := range blocks {
		for i := range blk.Instrs {
			for _, op := range blk.Instrs[i].Operands() {
				*op = resolve(*op)
			}
		}
	}
}

// PruneUnreachable drops blocks no callable can reach and the phi inputs
// that came from them.
func PruneUnreachable(p *Program) {
	live := make(map[BlockID]bool)
	for _, c := range p.Callables {
		for id := range p.Reachable(c) {
			live[id] = true
		}
	}
	for id := range p.Blocks {
		if !live[id] {
			delete(p.Blocks, id)
		}
	}
	for _, blk := range p.Blocks {
		for i := range blk.Instrs {
			in := &blk.Instrs[i]
			if in.Kind != InstrPhi {
				continue
			}
			args := in.Phi.Args[:0]
			for _, arg := range in.Phi.Args {
				if live[arg.Block] {
					args = append(args, arg)
				}
			}
			in.Phi.Args = args
		}
	}
}

// Run applies the transform passes and then the fatal checks.
func Run(p *Program) {
	PruneUnreachable(p)
	PruneStores(p)
	CheckBlocks(p)
	CheckTypes(p)
}
