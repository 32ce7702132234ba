// Package rir is the static program the partial evaluator emits: callables
// made of basic blocks of typed instructions, with no classical control
// flow left but runtime branches on dynamic values.
package rir

import (
	"sort"

	"golang.org/x/exp/maps"

	"quill/internal/capability"
	"quill/internal/source"
)

type (
	CallableID uint32
	BlockID    uint32
	VariableID uint32
	// DbgLocationID indexes Program.DbgLocations; zero is none.
	DbgLocationID uint32
)

// Program maps ids to callables and blocks. Block ids are shared by all
// callables.
type Program struct {
	Callables  map[CallableID]*Callable
	Blocks     map[BlockID]*Block
	EntryPoint CallableID
	Config     Config
	NumQubits  int
	NumResults int
	// DbgLocations holds the source span of instructions; element i has
	// id i+1.
	DbgLocations []source.Span

	nextCallable CallableID
	nextBlock    BlockID
	nextVariable VariableID
}

type Config struct {
	Capabilities capability.Flags
}

func NewProgram() *Program {
	return &Program{
		Callables: make(map[CallableID]*Callable),
		Blocks:    make(map[BlockID]*Block),
	}
}

// CallableType tells code generation how an external callable behaves.
type CallableType uint8

const (
	CallableRegular CallableType = iota
	CallableMeasurement
	CallableReset
	CallableReadout
	CallableOutputRecording
)

type Callable struct {
	ID     CallableID
	Name   string
	Input  []Ty
	Output Ty
	// Body is the entry block; zero for callables the target provides.
	Body BlockID
	Type CallableType
}

func (c *Callable) External() bool { return c.Body == 0 }

type Block struct {
	ID     BlockID
	Instrs []Instr
}

// Terminator returns the last instruction when it ends the block.
func (b *Block) Terminator() (*Instr, bool) {
	if len(b.Instrs) == 0 {
		return nil, false
	}
	last := &b.Instrs[len(b.Instrs)-1]
	return last, last.Kind.IsTerminator()
}

// Successors lists the blocks control may continue into.
func (b *Block) Successors() []BlockID {
	term, ok := b.Terminator()
	if !ok {
		return nil
	}
	switch term.Kind {
	case InstrBranch:
		return []BlockID{term.Branch.Then, term.Branch.Else}
	case InstrJump:
		return []BlockID{term.Jump.Target}
	}
	return nil
}

func (p *Program) AddCallable(c Callable) CallableID {
	p.nextCallable++
	c.ID = p.nextCallable
	p.Callables[c.ID] = &c
	return c.ID
}

// NewBlock allocates an empty block.
func (p *Program) NewBlock() BlockID {
	p.nextBlock++
	p.Blocks[p.nextBlock] = &Block{ID: p.nextBlock}
	return p.nextBlock
}

func (p *Program) NewVariable(ty Ty) Variable {
	p.nextVariable++
	return Variable{ID: p.nextVariable, Ty: ty}
}

// Dbg records a source span and returns its id.
func (p *Program) Dbg(sp source.Span) DbgLocationID {
	p.DbgLocations = append(p.DbgLocations, sp)
	return DbgLocationID(len(p.DbgLocations))
}

// Location returns the span recorded for id.
func (p *Program) Location(id DbgLocationID) (source.Span, bool) {
	if id == 0 || int(id) > len(p.DbgLocations) {
		return source.Span{}, false
	}
	return p.DbgLocations[id-1], true
}

// Append adds an instruction to a block.
func (p *Program) Append(b BlockID, in Instr) {
	blk := p.Blocks[b]
	blk.Instrs = append(blk.Instrs, in)
}

// CallableIDs returns the callable ids in ascending order.
func (p *Program) CallableIDs() []CallableID {
	keys := maps.Keys(p.Callables)
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// BlockIDs returns the block ids in ascending order.
func (p *Program) BlockIDs() []BlockID {
	keys := maps.Keys(p.Blocks)
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Reachable returns the blocks reachable from the body of c.
func (p *Program) Reachable(c *Callable) map[BlockID]bool {
	seen := make(map[BlockID]bool)
	if c.External() {
		return seen
	}
	stack := []BlockID{c.Body}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		blk, ok := p.Blocks[id]
		if !ok {
			continue
		}
		seen[id] = true
		stack = append(stack, blk.Successors()...)
	}
	return seen
}

// Resync moves the id counters past every id in use. Programs decoded
// from the cache need it before more code is appended.
func (p *Program) Resync() {
	for id := range p.Callables {
		p.nextCallable = max(p.nextCallable, id)
	}
	for id, blk := range p.Blocks {
		p.nextBlock = max(p.nextBlock, id)
		for _, in := range blk.Instrs {
			if v, ok := in.Def(); ok {
				p.nextVariable = max(p.nextVariable, v.ID)
			}
		}
	}
}
