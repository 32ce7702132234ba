package partialeval

import (
	"sort"

	"github.com/pkg/errors"

	"quill/internal/fir"
	"quill/internal/rir"
)

// Scope is the environment of one callable invocation.
type Scope struct {
	pkg    *fir.Package
	name   string
	locals map[fir.LocalVarID]Value
	// depth of dynamic branches and loops entered in this invocation
	dyn int

	returning bool
	ret       Value
}

func newScope(pkg *fir.Package, name string) *Scope {
	return &Scope{pkg: pkg, name: name, locals: make(map[fir.LocalVarID]Value)}
}

// Context is the evaluation stack. Scopes are pushed per invocation; the
// active-block stack grows while a dynamic region is being emitted and
// its top receives new instructions.
type Context struct {
	scopes []*Scope
	blocks []rir.BlockID
}

func (c *Context) push(s *Scope) { c.scopes = append(c.scopes, s) }

func (c *Context) pop() *Scope {
	if len(c.scopes) == 0 {
		panic(errors.New("partial evaluation: scope stack underflow"))
	}
	s := c.scopes[len(c.scopes)-1]
	c.scopes = c.scopes[:len(c.scopes)-1]
	return s
}

func (c *Context) scope() *Scope {
	if len(c.scopes) == 0 {
		panic(errors.New("partial evaluation: no active scope"))
	}
	return c.scopes[len(c.scopes)-1]
}

func (c *Context) pushBlock(b rir.BlockID) { c.blocks = append(c.blocks, b) }

func (c *Context) popBlock() rir.BlockID {
	if len(c.blocks) == 0 {
		panic(errors.New("partial evaluation: active block stack underflow"))
	}
	b := c.blocks[len(c.blocks)-1]
	c.blocks = c.blocks[:len(c.blocks)-1]
	return b
}

// current is the block receiving instructions.
func (c *Context) current() rir.BlockID {
	if len(c.blocks) == 0 {
		panic(errors.New("partial evaluation: no active block"))
	}
	return c.blocks[len(c.blocks)-1]
}

// resume makes b the block receiving instructions in place of the top.
func (c *Context) resume(b rir.BlockID) {
	c.popBlock()
	c.pushBlock(b)
}

// qubits hands out static qubit ids, reusing released ones lowest first.
type qubits struct {
	free []uint32
	next uint32
}

func (q *qubits) allocate() uint32 {
	if len(q.free) > 0 {
		id := q.free[0]
		q.free = q.free[1:]
		return id
	}
	id := q.next
	q.next++
	return id
}

func (q *qubits) release(id uint32) {
	i := sort.Search(len(q.free), func(i int) bool { return q.free[i] >= id })
	q.free = append(q.free, 0)
	copy(q.free[i+1:], q.free[i:])
	q.free[i] = id
}
