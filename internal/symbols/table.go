package symbols

import (
	"sort"

	"golang.org/x/exp/maps"

	"quill/internal/hir"
	"quill/internal/ids"
	"quill/internal/source"
)

type ItemKind uint8

const (
	ItemCallable ItemKind = iota
	ItemTy
)

// GlobalItem is a namespace-level declaration visible to other code.
type GlobalItem struct {
	ID        ids.ItemID
	Kind      ItemKind
	Namespace string
	Name      string
	Span      source.Span
}

type namespaceEntry struct {
	terms map[string]GlobalItem
	tys   map[string]GlobalItem
}

func newNamespaceEntry() *namespaceEntry {
	return &namespaceEntry{terms: make(map[string]GlobalItem), tys: make(map[string]GlobalItem)}
}

// GlobalTable maps fully-qualified names to items. Callables live in the
// term table; newtypes live in both (their constructor is a term).
type GlobalTable struct {
	namespaces map[string]*namespaceEntry
	byID       map[ids.ItemID]GlobalItem
}

func NewGlobalTable() *GlobalTable {
	return &GlobalTable{namespaces: make(map[string]*namespaceEntry), byID: make(map[ids.ItemID]GlobalItem)}
}

// Clone returns an independent copy; compiling a package never mutates the
// table of its dependencies.
func (t *GlobalTable) Clone() *GlobalTable {
	out := NewGlobalTable()
	for ns, entry := range t.namespaces {
		copied := newNamespaceEntry()
		maps.Copy(copied.terms, entry.terms)
		maps.Copy(copied.tys, entry.tys)
		out.namespaces[ns] = copied
	}
	maps.Copy(out.byID, t.byID)
	return out
}

// AddPackage registers the namespace-level items of a compiled package.
func (t *GlobalTable) AddPackage(id ids.PackageID, pkg *hir.Package) {
	for _, item := range pkg.SortedItems() {
		if item.Parent != 0 {
			continue
		}
		g := GlobalItem{
			ID:        ids.ItemID{Package: id, Item: item.ID},
			Namespace: item.Namespace,
			Name:      item.Name(),
			Span:      item.Span,
		}
		if _, ok := item.Kind.(*hir.ItemTy); ok {
			g.Kind = ItemTy
		}
		t.Insert(g)
	}
}

func (t *GlobalTable) ensure(ns string) *namespaceEntry {
	entry, ok := t.namespaces[ns]
	if !ok {
		entry = newNamespaceEntry()
		t.namespaces[ns] = entry
	}
	return entry
}

// DeclareNamespace makes ns available to `open` even when it is empty.
func (t *GlobalTable) DeclareNamespace(ns string) { t.ensure(ns) }

// Insert adds an item. It returns the previous declaration when the name is
// already taken in that namespace.
func (t *GlobalTable) Insert(g GlobalItem) (GlobalItem, bool) {
	entry := t.ensure(g.Namespace)
	if prev, ok := entry.terms[g.Name]; ok {
		return prev, false
	}
	if prev, ok := entry.tys[g.Name]; ok {
		return prev, false
	}
	entry.terms[g.Name] = g
	if g.Kind == ItemTy {
		entry.tys[g.Name] = g
	}
	t.byID[g.ID] = g
	return GlobalItem{}, true
}

func (t *GlobalTable) HasNamespace(ns string) bool {
	_, ok := t.namespaces[ns]
	return ok
}

func (t *GlobalTable) Term(ns, name string) (GlobalItem, bool) {
	entry, ok := t.namespaces[ns]
	if !ok {
		return GlobalItem{}, false
	}
	g, ok := entry.terms[name]
	return g, ok
}

func (t *GlobalTable) Ty(ns, name string) (GlobalItem, bool) {
	entry, ok := t.namespaces[ns]
	if !ok {
		return GlobalItem{}, false
	}
	g, ok := entry.tys[name]
	return g, ok
}

// Item looks an item up by id.
func (t *GlobalTable) Item(id ids.ItemID) (GlobalItem, bool) {
	g, ok := t.byID[id]
	return g, ok
}

// QualifiedName renders Namespace.Name for diagnostics and printers.
func (t *GlobalTable) QualifiedName(id ids.ItemID) string {
	g, ok := t.byID[id]
	if !ok {
		return id.String()
	}
	if g.Namespace == "" {
		return g.Name
	}
	return g.Namespace + "." + g.Name
}

// Namespaces lists known namespaces in sorted order.
func (t *GlobalTable) Namespaces() []string {
	out := maps.Keys(t.namespaces)
	sort.Strings(out)
	return out
}
