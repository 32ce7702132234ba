// Package symbols binds every identifier of an AST package to what it
// refers to. GlobalTable maps namespace-qualified names to items of the
// package being compiled and of its dependencies; Resolver walks the AST with
// a stack of lexical scopes and records one Res per path node.
package symbols
