package diag

import "fmt"

type Code uint16

const (
	UnknownCode Code = 0

	// Lexical
	LexInfo             Code = 1000
	LexUnknownChar      Code = 1001
	LexUnterminatedStr  Code = 1002
	LexBadNumber        Code = 1003
	LexUnterminatedAttr Code = 1004

	// Syntax
	SynInfo              Code = 2000
	SynUnexpectedToken   Code = 2001
	SynExpectSemicolon   Code = 2002
	SynExpectIdentifier  Code = 2003
	SynExpectType        Code = 2004
	SynExpectExpression  Code = 2005
	SynUnclosedDelim     Code = 2006
	SynBadSpecialization Code = 2007
	SynBadAttribute      Code = 2008

	// Name resolution
	ResInfo         Code = 3000
	ResNotFound     Code = 3001
	ResDuplicate    Code = 3002
	ResAmbiguous    Code = 3003
	ResNotAvailable Code = 3004

	// Type checking
	TyInfo                 Code = 4000
	TyMismatch             Code = 4001
	TyCallableKindMismatch Code = 4002
	TyFunctorMismatch      Code = 4003
	TyMissingClass         Code = 4004
	TyMissingField         Code = 4005
	TyNotIndexable         Code = 4006
	TyNotIterable          Code = 4007
	TyAmbiguous            Code = 4008
	TyTupleArity           Code = 4009

	// Semantic passes
	PassInfo                  Code = 5000
	PassNestedCallable        Code = 5001
	PassQubitInFunction       Code = 5002
	PassOperationInFunction   Code = 5003
	PassFunctorOnFunction     Code = 5004
	PassBadMeasurement        Code = 5005
	PassEntryPointParams      Code = 5006
	PassMutability            Code = 5007
	PassSpecNotInvertible     Code = 5008
	PassSpecNotControllable   Code = 5009
	PassMissingFunctor        Code = 5010
	PassApplyAssignsWithinVar Code = 5011
	PassBadSpecialization     Code = 5012

	// Capability analysis
	CapInfo        Code = 6000
	CapUnsupported Code = 6001

	// Partial evaluation
	PEInfo               Code = 7000
	PEUnsupportedDynamic Code = 7001
	PEValueNotStatic     Code = 7002
	PELoopLimitExceeded  Code = 7003
	PEEvaluationFailed   Code = 7004
	PEUnsupportedLiteral Code = 7005
	PEUnimplemented      Code = 7006
	PEMissingEntryPoint  Code = 7007

	// Observability
	ObsInfo    Code = 9000
	ObsTimings Code = 9001
)

var codeDescription = map[Code]string{
	UnknownCode: "Unknown error",

	LexInfo:             "Lexical information",
	LexUnknownChar:      "Unknown character",
	LexUnterminatedStr:  "Unterminated string literal",
	LexBadNumber:        "Malformed numeric literal",
	LexUnterminatedAttr: "Unterminated attribute",

	SynInfo:              "Syntax information",
	SynUnexpectedToken:   "Unexpected token",
	SynExpectSemicolon:   "Expected ';'",
	SynExpectIdentifier:  "Expected identifier",
	SynExpectType:        "Expected type",
	SynExpectExpression:  "Expected expression",
	SynUnclosedDelim:     "Unclosed delimiter",
	SynBadSpecialization: "Malformed specialization",
	SynBadAttribute:      "Malformed attribute",

	ResInfo:         "Resolution information",
	ResNotFound:     "Name not found",
	ResDuplicate:    "Duplicate declaration",
	ResAmbiguous:    "Ambiguous name",
	ResNotAvailable: "Namespace not available",

	TyInfo:                 "Type information",
	TyMismatch:             "Type mismatch",
	TyCallableKindMismatch: "Callable kind mismatch",
	TyFunctorMismatch:      "Functor mismatch",
	TyMissingClass:         "Missing class",
	TyMissingField:         "Missing field",
	TyNotIndexable:         "Type is not indexable",
	TyNotIterable:          "Type is not iterable",
	TyAmbiguous:            "Ambiguous type",
	TyTupleArity:           "Tuple arity mismatch",

	PassInfo:                  "Semantic pass information",
	PassNestedCallable:        "Nested callable too deep",
	PassQubitInFunction:       "Qubit allocation in function",
	PassOperationInFunction:   "Operation call in function",
	PassFunctorOnFunction:     "Functor on function",
	PassBadMeasurement:        "Malformed measurement",
	PassEntryPointParams:      "Entry point with parameters",
	PassMutability:            "Assignment to immutable binding",
	PassSpecNotInvertible:     "Cannot generate adjoint",
	PassSpecNotControllable:   "Cannot generate controlled",
	PassMissingFunctor:        "Missing functor",
	PassApplyAssignsWithinVar: "Apply block assigns within variable",
	PassBadSpecialization:     "Invalid specialization",

	CapInfo:        "Capability information",
	CapUnsupported: "Unsupported by target",

	PEInfo:               "Partial evaluation information",
	PEUnsupportedDynamic: "Unsupported dynamic construct",
	PEValueNotStatic:     "Value not known at compile time",
	PELoopLimitExceeded:  "Loop unrolling limit exceeded",
	PEEvaluationFailed:   "Evaluation failed",
	PEUnsupportedLiteral: "Unsupported literal",
	PEUnimplemented:      "Unimplemented intrinsic",
	PEMissingEntryPoint:  "Missing entry point",

	ObsInfo:    "Observability information",
	ObsTimings: "Pipeline timings",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("RES%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("TYP%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("CAP%04d", ic)
	case ic >= 7000 && ic < 8000:
		return fmt.Sprintf("PEV%04d", ic)
	case ic >= 9000 && ic < 10000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	if d, ok := codeDescription[c]; ok {
		return d
	}
	return codeDescription[UnknownCode]
}

func (c Code) String() string {
	return c.ID()
}
