// Package ids holds the dense identifiers shared by the AST, HIR and the
// type system. Zero means "none" for every kind.
package ids

import "fmt"

// NodeID identifies an AST or HIR node. HIR nodes lowered from the AST keep
// the AST id; nodes synthesized by passes get fresh ids from an Assigner.
type NodeID uint32

// PackageID identifies a compiled package inside a store. The core library
// is always package 0.
type PackageID uint32

const CorePackage PackageID = 0

// LocalItemID identifies an item inside its package.
type LocalItemID uint32

// ItemID is a package-qualified item reference.
type ItemID struct {
	Package PackageID
	Item    LocalItemID
}

func (id ItemID) String() string {
	return fmt.Sprintf("Item(%d@%d)", id.Item, id.Package)
}

// Assigner hands out NodeIDs; one Assigner is shared by a whole package (or
// an incremental session) so ids never collide across fragments.
type Assigner struct {
	next NodeID
}

func NewAssigner() *Assigner { return &Assigner{} }

// Next returns a fresh id.
func (a *Assigner) Next() NodeID {
	a.next++
	return a.next
}

// Last returns the most recently assigned id.
func (a *Assigner) Last() NodeID { return a.next }

// Bump makes sure future ids are above id.
func (a *Assigner) Bump(id NodeID) {
	if id > a.next {
		a.next = id
	}
}

// ItemAssigner hands out LocalItemIDs for one package.
type ItemAssigner struct {
	next LocalItemID
}

func (a *ItemAssigner) Next() LocalItemID {
	a.next++
	return a.next
}

func (a *ItemAssigner) Last() LocalItemID { return a.next }
