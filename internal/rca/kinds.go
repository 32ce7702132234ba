package rca

import (
	"strings"

	"quill/internal/capability"
	"quill/internal/types"
)

// RuntimeFeatureFlags are the dynamic behaviours a piece of code needs.
type RuntimeFeatureFlags uint32

const (
	UseOfDynamicBool RuntimeFeatureFlags = 1 << iota
	UseOfDynamicInt
	UseOfDynamicDouble
	UseOfDynamicPauli
	UseOfDynamicRange
	UseOfDynamicBigInt
	UseOfDynamicString
	UseOfDynamicQubit
	UseOfDynamicUdt
	UseOfDynamicTuple
	UseOfDynamicallySizedArray
	ForwardBranchingOnDynamicValue
	LoopWithDynamicCondition
	ReturnWithinDynamicScope
	CallToDynamicCallee
	MeasurementWithinDynamicScope
)

var featureNames = [...]string{
	"UseOfDynamicBool",
	"UseOfDynamicInt",
	"UseOfDynamicDouble",
	"UseOfDynamicPauli",
	"UseOfDynamicRange",
	"UseOfDynamicBigInt",
	"UseOfDynamicString",
	"UseOfDynamicQubit",
	"UseOfDynamicUdt",
	"UseOfDynamicTuple",
	"UseOfDynamicallySizedArray",
	"ForwardBranchingOnDynamicValue",
	"LoopWithDynamicCondition",
	"ReturnWithinDynamicScope",
	"CallToDynamicCallee",
	"MeasurementWithinDynamicScope",
}

func (f RuntimeFeatureFlags) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	for i, name := range featureNames {
		if f&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	return strings.Join(parts, " | ")
}

// Capabilities maps features to what a target must support to run them.
func (f RuntimeFeatureFlags) Capabilities() capability.Flags {
	var out capability.Flags
	if f&(UseOfDynamicBool|ForwardBranchingOnDynamicValue|MeasurementWithinDynamicScope) != 0 {
		out |= capability.Adaptive
	}
	if f&UseOfDynamicInt != 0 {
		out |= capability.Adaptive | capability.IntegerComputations
	}
	if f&UseOfDynamicDouble != 0 {
		out |= capability.Adaptive | capability.FloatingPointComputations
	}
	if f&LoopWithDynamicCondition != 0 {
		out |= capability.Adaptive | capability.BackwardsBranching
	}
	if f&(UseOfDynamicPauli|UseOfDynamicRange|UseOfDynamicBigInt|UseOfDynamicString|UseOfDynamicQubit|
		UseOfDynamicUdt|UseOfDynamicTuple|UseOfDynamicallySizedArray|ReturnWithinDynamicScope|CallToDynamicCallee) != 0 {
		out |= capability.Adaptive | capability.HigherLevelConstructs
	}
	return out
}

// dynamicUse is the feature needed to compute a dynamic value of type t.
// Results are dynamic by nature and need nothing.
func dynamicUse(t types.Ty) RuntimeFeatureFlags {
	switch t := t.(type) {
	case types.Prim:
		switch t {
		case types.PrimBool:
			return UseOfDynamicBool
		case types.PrimInt:
			return UseOfDynamicInt
		case types.PrimDouble:
			return UseOfDynamicDouble
		case types.PrimPauli:
			return UseOfDynamicPauli
		case types.PrimRange:
			return UseOfDynamicRange
		case types.PrimBigInt:
			return UseOfDynamicBigInt
		case types.PrimString:
			return UseOfDynamicString
		case types.PrimQubit:
			return UseOfDynamicQubit
		}
	case *types.Udt:
		return UseOfDynamicUdt
	case *types.Tuple:
		if len(t.Items) > 0 {
			return UseOfDynamicTuple
		}
	case *types.Array:
		return dynamicUse(t.Item)
	}
	return 0
}

type ValueKind uint8

const (
	Static ValueKind = iota
	Dynamic
)

func (v ValueKind) String() string {
	if v == Dynamic {
		return "Dynamic"
	}
	return "Static"
}

// ComputeKind classifies a computation. The zero value is Classical:
// no quantum effects, statically known value.
type ComputeKind struct {
	Quantum bool
	Flags   RuntimeFeatureFlags
	Value   ValueKind
}

var Classical = ComputeKind{}

func (k ComputeKind) IsDynamic() bool { return k.Value == Dynamic }

// Join is the least upper bound of k and o.
func (k ComputeKind) Join(o ComputeKind) ComputeKind {
	return ComputeKind{Quantum: k.Quantum || o.Quantum, Flags: k.Flags | o.Flags, Value: max(k.Value, o.Value)}
}

// effects drops the value part.
func (k ComputeKind) effects() ComputeKind {
	k.Value = Static
	return k
}

func (k ComputeKind) String() string {
	if k == Classical {
		return "Classical"
	}
	s := "Quantum(" + k.Value.String()
	if k.Flags != 0 {
		s += ", " + k.Flags.String()
	}
	return s + ")"
}

// ApplicationGeneratorSet summarizes a callable specialization: its kind
// when every parameter is static, and what each parameter adds when its
// argument is dynamic.
type ApplicationGeneratorSet struct {
	Inherent                 ComputeKind
	DynamicParamApplications []ComputeKind
}

// Apply computes the kind of a call whose arguments have the given
// dynamism, one entry per parameter.
func (s *ApplicationGeneratorSet) Apply(dynamic []bool) ComputeKind {
	out := s.Inherent
	for i, dyn := range dynamic {
		if dyn && i < len(s.DynamicParamApplications) {
			out = out.Join(s.DynamicParamApplications[i])
		}
	}
	return out
}

func (s *ApplicationGeneratorSet) equal(o *ApplicationGeneratorSet) bool {
	if s.Inherent != o.Inherent || len(s.DynamicParamApplications) != len(o.DynamicParamApplications) {
		return false
	}
	for i := range s.DynamicParamApplications {
		if s.DynamicParamApplications[i] != o.DynamicParamApplications[i] {
			return false
		}
	}
	return true
}
