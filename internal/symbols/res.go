package symbols

import (
	"fmt"

	"quill/internal/ids"
	"quill/internal/types"
)

// Res is the resolution of a name. It is a closed sum type.
type Res interface{ isRes() }

type (
	// ResErr marks a name that failed to resolve; an error was reported.
	ResErr struct{}
	// ResLocal points at the binding pattern node.
	ResLocal struct{ Node ids.NodeID }
	ResItem  struct{ ID ids.ItemID }
	// ResPrimTy is a builtin primitive type name.
	ResPrimTy struct{ Prim types.Prim }
	ResUnitTy struct{}
	// ResParam is a generic parameter of the enclosing callable.
	ResParam struct {
		Name  string
		Index int
	}
)

func (ResErr) isRes()    {}
func (ResLocal) isRes()  {}
func (ResItem) isRes()   {}
func (ResPrimTy) isRes() {}
func (ResUnitTy) isRes() {}
func (ResParam) isRes()  {}

func (ResErr) String() string      { return "err" }
func (r ResLocal) String() string  { return fmt.Sprintf("local(%d)", r.Node) }
func (r ResItem) String() string   { return r.ID.String() }
func (r ResPrimTy) String() string { return r.Prim.String() }
func (ResUnitTy) String() string   { return "Unit" }
func (r ResParam) String() string  { return fmt.Sprintf("param(%s#%d)", r.Name, r.Index) }

// Names maps path nodes (and type parameter identifiers) to their resolution.
type Names map[ids.NodeID]Res
