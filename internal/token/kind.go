package token

// Kind represents the category of a source token.
type Kind uint8

const (
	Invalid Kind = iota
	EOF

	Ident
	TyParam // 'T

	IntLit    // 42, 0xff
	BigIntLit // 42L
	DoubleLit // 1.5, 1e3
	StringLit // "text"

	// keywords
	KwNamespace
	KwOpen
	KwAs
	KwFunction
	KwOperation
	KwNewtype
	KwIs
	KwAdj
	KwCtl
	KwBody
	KwAdjoint
	KwControlled
	KwIntrinsic
	KwAuto
	KwSelf
	KwInvert
	KwDistribute
	KwLet
	KwMutable
	KwSet
	KwUse
	KwBorrow
	KwIf
	KwElif
	KwElse
	KwFor
	KwIn
	KwWhile
	KwRepeat
	KwUntil
	KwFixup
	KwWithin
	KwApply
	KwReturn
	KwFail
	KwTrue
	KwFalse
	KwZero
	KwOne
	KwPauliI
	KwPauliX
	KwPauliY
	KwPauliZ
	KwAnd
	KwOr
	KwNot
	KwNew

	// punctuation and operators
	LParen
	RParen
	LBracket
	RBracket
	LBrace
	RBrace
	Comma
	Semi
	Colon
	Dot
	DotDot
	DotDotDot
	At
	Underscore
	Question
	Bar
	Bang
	Eq       // =
	EqEq     // ==
	Ne       // !=
	Lt       // <
	Le       // <=
	Gt       // >
	Ge       // >=
	Plus     // +
	Minus    // -
	Star     // *
	Slash    // /
	Percent  // %
	Caret    // ^
	Arrow    // ->
	FatArrow // =>
	LArrow   // <-
	AmpAmpAmp
	BarBarBar
	CaretCaretCaret
	TildeTildeTilde
	LtLtLt
	GtGtGt
	WSlash   // w/
	WSlashEq // w/=

	// compound assignment: op followed by '='
	PlusEq
	MinusEq
	StarEq
	SlashEq
	PercentEq
	CaretEq
	AmpAmpAmpEq
	BarBarBarEq
	CaretCaretCaretEq
	LtLtLtEq
	GtGtGtEq
	AndEq
	OrEq
)

var kindNames = map[Kind]string{
	Invalid: "invalid", EOF: "end of file", Ident: "identifier", TyParam: "type parameter",
	IntLit: "integer literal", BigIntLit: "big integer literal", DoubleLit: "double literal",
	StringLit: "string literal",
	LParen:    "(", RParen: ")", LBracket: "[", RBracket: "]", LBrace: "{", RBrace: "}",
	Comma: ",", Semi: ";", Colon: ":", Dot: ".", DotDot: "..", DotDotDot: "...", At: "@",
	Underscore: "_", Question: "?", Bar: "|", Bang: "!", Eq: "=", EqEq: "==", Ne: "!=",
	Lt: "<", Le: "<=", Gt: ">", Ge: ">=", Plus: "+", Minus: "-", Star: "*", Slash: "/",
	Percent: "%", Caret: "^", Arrow: "->", FatArrow: "=>", LArrow: "<-",
	AmpAmpAmp: "&&&", BarBarBar: "|||", CaretCaretCaret: "^^^", TildeTildeTilde: "~~~",
	LtLtLt: "<<<", GtGtGt: ">>>", WSlash: "w/", WSlashEq: "w/=",
	PlusEq: "+=", MinusEq: "-=", StarEq: "*=", SlashEq: "/=", PercentEq: "%=", CaretEq: "^=",
	AmpAmpAmpEq: "&&&=", BarBarBarEq: "|||=", CaretCaretCaretEq: "^^^=", LtLtLtEq: "<<<=",
	GtGtGtEq: ">>>=", AndEq: "and=", OrEq: "or=",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	for text, kw := range keywords {
		if kw == k {
			return text
		}
	}
	return "unknown"
}

// IsKeyword reports whether k is a reserved word.
func (k Kind) IsKeyword() bool {
	return k >= KwNamespace && k <= KwNew
}

// IsAssignOp reports whether k is a compound assignment operator.
func (k Kind) IsAssignOp() bool {
	return k >= PlusEq && k <= OrEq
}
