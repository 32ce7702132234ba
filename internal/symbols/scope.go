package symbols

import "quill/internal/ids"

type ScopeKind uint8

const (
	ScopeTop ScopeKind = iota // fragment top level
	ScopeNamespace
	ScopeCallable
	ScopeBlock
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeNamespace:
		return "namespace"
	case ScopeCallable:
		return "callable"
	case ScopeBlock:
		return "block"
	default:
		return "top"
	}
}

// Scope is one level of the resolver stack.
type Scope struct {
	Kind      ScopeKind
	Namespace string
	Locals    map[string]ids.NodeID
	Items     map[string]ids.LocalItemID
	TyParams  map[string]int
	// Opens maps an alias ("" for plain opens) to the opened namespaces.
	Opens map[string][]string
}

func newScope(kind ScopeKind) *Scope {
	return &Scope{
		Kind:     kind,
		Locals:   make(map[string]ids.NodeID),
		Items:    make(map[string]ids.LocalItemID),
		TyParams: make(map[string]int),
		Opens:    make(map[string][]string),
	}
}
