// Package cdecl parses short C declarations into ABI-accurate foreign-type
// descriptors.
//
// A declaration is a type name with optional pointer stars and an optional
// declarator: "int i", "char **argv", "void *", a function
// "int hello(int name)" or a function pointer
// "IOReturn (*USBDeviceOpen)(void *self)". Names resolve against a
// [Registry] seeded with the standard C scalars; applications register
// their own typedefs, structures and callbacks with [Define],
// [DefineAlias] and the composition helpers such as [DefineStruct] and
// [DefineInterface].
//
//	cdecl.DefineAlias("UInt16", "unsigned short")
//	d, err := cdecl.Parse("UInt16 *wValue")
//	// d.Name() == "wValue", d.TypeName() == "UInt16*", d.Type() is a *ctype.Pointer
package cdecl

import (
	"github.com/golangsnmp/cdecl/ctype"
	"github.com/golangsnmp/cdecl/internal/lexer"
	"github.com/golangsnmp/cdecl/internal/registry"
	"github.com/golangsnmp/cdecl/internal/types"
)

// Type aliases for public API.

// Registry is a table of named C types, safe for concurrent use.
type Registry = registry.Registry

// Type is a foreign-type descriptor.
type Type = ctype.Type

// Field is a named member of an aggregate or parameter list.
type Field = ctype.Field

// Token is one token of a declaration string.
type Token = lexer.Token

// TokenKind identifies a token type.
type TokenKind = lexer.TokenKind

// Token kinds.
const (
	TokEOF    = lexer.TokEOF
	TokIdent  = lexer.TokIdent
	TokStar   = lexer.TokStar
	TokLParen = lexer.TokLParen
	TokRParen = lexer.TokRParen
	TokComma  = lexer.TokComma
)

// SyntaxError reports a grammar violation with the offending token and its
// byte offset.
type SyntaxError = types.SyntaxError

// Errors returned by parsing and resolution.
var (
	ErrEndOfInput     = types.ErrEndOfInput
	ErrUnknownType    = types.ErrUnknownType
	ErrCyclicAlias    = types.ErrCyclicAlias
	ErrIncompleteType = types.ErrIncompleteType
)
