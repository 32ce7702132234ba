package passes

import (
	"fmt"

	"quill/internal/corelib"
	"quill/internal/ids"
	"quill/internal/sema"
	"quill/internal/symbols"
	"quill/internal/types"
)

// CoreItem is a core-library callable the passes call into.
type CoreItem struct {
	ID     ids.ItemID
	Scheme *types.Scheme
}

// Core holds the core-library callables generated code refers to.
type Core struct {
	Allocate      CoreItem
	Release       CoreItem
	AllocateArray CoreItem
	ReleaseArray  CoreItem
	Length        CoreItem
	RangeStart    CoreItem
	RangeStep     CoreItem
	RangeEnd      CoreItem
	RangeReverse  CoreItem
	Reversed      CoreItem
}

// LookupCore finds the core items in a table that has the core library.
func LookupCore(table *symbols.GlobalTable, globals *sema.Globals) (*Core, error) {
	core := &Core{}
	slots := []struct {
		ns, name string
		dst      *CoreItem
	}{
		{corelib.NamespaceIntrinsic, corelib.QubitAllocate, &core.Allocate},
		{corelib.NamespaceIntrinsic, corelib.QubitRelease, &core.Release},
		{corelib.NamespaceIntrinsic, corelib.AllocateQubitArray, &core.AllocateArray},
		{corelib.NamespaceIntrinsic, corelib.ReleaseQubitArray, &core.ReleaseArray},
		{corelib.NamespaceCore, corelib.Length, &core.Length},
		{corelib.NamespaceCore, "RangeStart", &core.RangeStart},
		{corelib.NamespaceCore, "RangeStep", &core.RangeStep},
		{corelib.NamespaceCore, "RangeEnd", &core.RangeEnd},
		{corelib.NamespaceCore, corelib.RangeReverse, &core.RangeReverse},
		{corelib.NamespaceCore, corelib.Reversed, &core.Reversed},
	}
	for _, s := range slots {
		g, ok := table.Term(s.ns, s.name)
		if !ok {
			return nil, fmt.Errorf("core item %s.%s not found", s.ns, s.name)
		}
		scheme, ok := globals.Callables[g.ID]
		if !ok {
			return nil, fmt.Errorf("core item %s.%s has no signature", s.ns, s.name)
		}
		*s.dst = CoreItem{ID: g.ID, Scheme: scheme}
	}
	return core, nil
}
