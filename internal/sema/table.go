package sema

import (
	"quill/internal/hir"
	"quill/internal/ids"
	"quill/internal/types"
)

// Globals holds the signatures of every item visible to a compilation:
// dependency packages plus the package being checked.
type Globals struct {
	Callables map[ids.ItemID]*types.Scheme
	Udts      map[ids.ItemID]*types.UdtDef
}

func NewGlobals() *Globals {
	return &Globals{Callables: make(map[ids.ItemID]*types.Scheme), Udts: make(map[ids.ItemID]*types.UdtDef)}
}

// Clone copies the maps; the signatures themselves are immutable.
func (g *Globals) Clone() *Globals {
	out := NewGlobals()
	for k, v := range g.Callables {
		out.Callables[k] = v
	}
	for k, v := range g.Udts {
		out.Udts[k] = v
	}
	return out
}

// AddPackage registers the signatures of a lowered package.
func (g *Globals) AddPackage(id ids.PackageID, pkg *hir.Package) {
	for _, item := range pkg.SortedItems() {
		key := ids.ItemID{Package: id, Item: item.ID}
		switch k := item.Kind.(type) {
		case *hir.ItemCallable:
			g.Callables[key] = k.Decl.Scheme()
		case *hir.ItemTy:
			g.Udts[key] = k.Def
		}
	}
}

// Term returns the type of a reference to item id, instantiated with args.
func (g *Globals) Term(id ids.ItemID) (*types.Scheme, bool) {
	if s, ok := g.Callables[id]; ok {
		return s, true
	}
	if u, ok := g.Udts[id]; ok {
		return &types.Scheme{Ty: u.Constructor()}, true
	}
	return nil, false
}

// Table is the checker's output, keyed by AST node ids.
type Table struct {
	// Terms holds the type of every expression and pattern.
	Terms map[ids.NodeID]types.Ty
	// Generics holds the instantiation of every generic item reference.
	Generics map[ids.NodeID][]types.Ty
	// Callables and Udts are the signatures of the package's own items.
	Callables map[ids.LocalItemID]*types.Scheme
	Udts      map[ids.LocalItemID]*types.UdtDef
}

func newTable() *Table {
	return &Table{
		Terms:     make(map[ids.NodeID]types.Ty),
		Generics:  make(map[ids.NodeID][]types.Ty),
		Callables: make(map[ids.LocalItemID]*types.Scheme),
		Udts:      make(map[ids.LocalItemID]*types.UdtDef),
	}
}
