// Package token defines lexical token kinds for the quill front end.
// Invariants:
//   - Token.Span covers Text exactly.
//   - Identifier and string texts are NFC-normalised by the lexer.
//   - Primitive type names (Int, Double, Qubit, ...) are identifiers; the
//     resolver recognises them.
//   - Attributes are lexed as '@' (Kind: At) + Ident.
package token
