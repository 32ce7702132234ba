// Package capability names what a target can execute at runtime beyond
// a straight-line sequence of gates and measurements.
package capability

import (
	"fmt"
	"sort"
	"strings"
)

// Flags is a set of target capabilities.
type Flags uint8

const (
	// Adaptive allows branching on measurement results.
	Adaptive Flags = 1 << iota
	IntegerComputations
	FloatingPointComputations
	BackwardsBranching
	HigherLevelConstructs

	None Flags = 0
	All        = Adaptive | IntegerComputations | FloatingPointComputations | BackwardsBranching | HigherLevelConstructs
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{Adaptive, "Adaptive"},
	{IntegerComputations, "IntegerComputations"},
	{FloatingPointComputations, "FloatingPointComputations"},
	{BackwardsBranching, "BackwardsBranching"},
	{HigherLevelConstructs, "HigherLevelConstructs"},
}

func (f Flags) Has(other Flags) bool { return f&other == other }

func (f Flags) String() string {
	if f == None {
		return "none"
	}
	var parts []string
	for _, n := range flagNames {
		if f&n.flag != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, " | ")
}

// Profile is a named set of capabilities.
type Profile struct {
	Name  string
	Flags Flags
}

var (
	Base         = Profile{"base", None}
	AdaptiveRI   = Profile{"adaptive", Adaptive | IntegerComputations}
	AdaptiveRIF  = Profile{"adaptive_rif", Adaptive | IntegerComputations | FloatingPointComputations}
	Unrestricted = Profile{"unrestricted", All}
)

var profiles = map[string]Profile{
	Base.Name:         Base,
	AdaptiveRI.Name:   AdaptiveRI,
	AdaptiveRIF.Name:  AdaptiveRIF,
	Unrestricted.Name: Unrestricted,
}

// Lookup finds a profile by name.
func Lookup(name string) (Profile, error) {
	p, ok := profiles[strings.ToLower(name)]
	if !ok {
		return Profile{}, fmt.Errorf("unknown profile %q (want one of %s)", name, strings.Join(Names(), ", "))
	}
	return p, nil
}

// Names lists the profile names in sorted order.
func Names() []string {
	out := make([]string, 0, len(profiles))
	for name := range profiles {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (p Profile) String() string { return p.Name }
