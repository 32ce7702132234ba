package token

var keywords = map[string]Kind{
	"namespace":  KwNamespace,
	"open":       KwOpen,
	"as":         KwAs,
	"function":   KwFunction,
	"operation":  KwOperation,
	"newtype":    KwNewtype,
	"is":         KwIs,
	"Adj":        KwAdj,
	"Ctl":        KwCtl,
	"body":       KwBody,
	"adjoint":    KwAdjoint,
	"controlled": KwControlled,
	"intrinsic":  KwIntrinsic,
	"auto":       KwAuto,
	"self":       KwSelf,
	"invert":     KwInvert,
	"distribute": KwDistribute,
	"let":        KwLet,
	"mutable":    KwMutable,
	"set":        KwSet,
	"use":        KwUse,
	"borrow":     KwBorrow,
	"if":         KwIf,
	"elif":       KwElif,
	"else":       KwElse,
	"for":        KwFor,
	"in":         KwIn,
	"while":      KwWhile,
	"repeat":     KwRepeat,
	"until":      KwUntil,
	"fixup":      KwFixup,
	"within":     KwWithin,
	"apply":      KwApply,
	"return":     KwReturn,
	"fail":       KwFail,
	"true":       KwTrue,
	"false":      KwFalse,
	"Zero":       KwZero,
	"One":        KwOne,
	"PauliI":     KwPauliI,
	"PauliX":     KwPauliX,
	"PauliY":     KwPauliY,
	"PauliZ":     KwPauliZ,
	"and":        KwAnd,
	"or":         KwOr,
	"not":        KwNot,
	"new":        KwNew,
}

// LookupKeyword reports the keyword kind for ident, if any.
// "Adjoint" and "Controlled" stay identifiers-with-meaning handled by the
// parser because they double as functor application prefixes.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}
