// Package fuzztests houses Go fuzz harnesses that feed arbitrary bytes
// through the lexer, the parser and the whole compiler pipeline, checking
// that they neither panic nor hang.
//
// Не делает: генерацию корпусов, запись файлов, выполнение CLI.
package fuzztests
