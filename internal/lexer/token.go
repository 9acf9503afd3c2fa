// Package lexer provides tokenization for C declaration strings.
package lexer

import "github.com/golangsnmp/cdecl/internal/types"

// Token is a lexical unit with its kind, text and source span.
type Token struct {
	Kind TokenKind
	Text string
	Span types.Span
}

// TokenKind identifies a token type.
type TokenKind int

const (
	// TokEOF is end of input.
	TokEOF TokenKind = iota
	// TokIdent is an identifier or a registered multi-word type name.
	TokIdent
	// TokStar is '*'.
	TokStar
	// TokLParen is '('.
	TokLParen
	// TokRParen is ')'.
	TokRParen
	// TokComma is ','.
	TokComma
)

var tokenNames = [...]string{
	TokEOF:    "end of input",
	TokIdent:  "identifier",
	TokStar:   "'*'",
	TokLParen: "'('",
	TokRParen: "')'",
	TokComma:  "','",
}

func (k TokenKind) String() string {
	if k >= 0 && int(k) < len(tokenNames) {
		return tokenNames[k]
	}
	return "unknown"
}

// IsPunct reports whether the token kind is one of the punctuation marks.
func (k TokenKind) IsPunct() bool {
	return k == TokStar || k == TokLParen || k == TokRParen || k == TokComma
}
