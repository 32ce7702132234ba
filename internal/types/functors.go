package types

// FunctorSet is a lattice over {Adj, Ctl}: Empty < Adj, Ctl < Adj + Ctl.
type FunctorSet uint8

const (
	Empty FunctorSet = 0
	Adj   FunctorSet = 1 << 0
	Ctl   FunctorSet = 1 << 1
	CtlAdj           = Adj | Ctl
)

func (f FunctorSet) Contains(other FunctorSet) bool { return f&other == other }
func (f FunctorSet) Union(other FunctorSet) FunctorSet {
	return f | other
}
func (f FunctorSet) Intersect(other FunctorSet) FunctorSet {
	return f & other
}

func (f FunctorSet) String() string {
	switch f {
	case Adj:
		return "Adj"
	case Ctl:
		return "Ctl"
	case CtlAdj:
		return "Adj + Ctl"
	default:
		return "empty set"
	}
}
