package fir

import (
	"fmt"
	"sort"

	"golang.org/x/exp/maps"
)

// PackageStore maps package ids to packages. A store may sit on top of a
// frozen parent holding the core library; lookups fall through to it and
// the parent is never written.
type PackageStore struct {
	parent *PackageStore
	pkgs   map[PackageID]*Package
	frozen bool
}

func NewPackageStore() *PackageStore {
	return &PackageStore{pkgs: make(map[PackageID]*Package)}
}

// Open returns an empty store layered over s. s must be frozen.
func (s *PackageStore) Open() *PackageStore {
	if !s.frozen {
		panic("fir: layering over a store that is not frozen")
	}
	return &PackageStore{parent: s, pkgs: make(map[PackageID]*Package)}
}

// Freeze makes the store read-only.
func (s *PackageStore) Freeze() { s.frozen = true }

func (s *PackageStore) Frozen() bool { return s.frozen }

func (s *PackageStore) Insert(pkg *Package) {
	if s.frozen {
		panic(fmt.Sprintf("fir: insert of package %d into a frozen store", pkg.ID))
	}
	if _, ok := s.Get(pkg.ID); ok {
		panic(fmt.Sprintf("fir: package %d inserted twice", pkg.ID))
	}
	s.pkgs[pkg.ID] = pkg
}

func (s *PackageStore) Get(id PackageID) (*Package, bool) {
	for st := s; st != nil; st = st.parent {
		if pkg, ok := st.pkgs[id]; ok {
			return pkg, true
		}
	}
	return nil, false
}

// Item looks up a global item.
func (s *PackageStore) Item(id ItemID) (*Package, *Item, bool) {
	pkg, ok := s.Get(id.Package)
	if !ok {
		return nil, nil, false
	}
	item, ok := pkg.Items[id.Item]
	return pkg, item, ok
}

// Callable looks up a global callable.
func (s *PackageStore) Callable(id ItemID) (*Package, *CallableDecl, bool) {
	pkg, item, ok := s.Item(id)
	if !ok {
		return nil, nil, false
	}
	c, ok := item.Kind.(*ItemCallable)
	if !ok {
		return nil, nil, false
	}
	return pkg, c.Decl, true
}

// IDs lists every visible package id in ascending order.
func (s *PackageStore) IDs() []PackageID {
	seen := make(map[PackageID]bool)
	for st := s; st != nil; st = st.parent {
		for id := range st.pkgs {
			seen[id] = true
		}
	}
	out := maps.Keys(seen)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
