// Package compiler is the front end of a small expression language: a
// lexer and a parser that both write flat, fixed-stride record buffers
// instead of object trees.
//
// Pipeline: source bytes → Lex → Tokens → Parse → AST
//
// Spans (parens, scopes, statements, expressions, function bodies) are
// written as a placeholder record when they open and backpatched with their
// extent when they close, so a tree walk needs nothing but the records.
package compiler
