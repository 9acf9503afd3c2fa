// Package parser parses C declaration strings into declaration nodes.
//
// The grammar covers a single declaration: a type name with optional
// qualifiers and pointer stars, then an optional declarator that is a bare
// identifier, a function "name(params)" or a function pointer
// "(*name)(params)". Parameters use the same grammar but are never
// function-shaped. The parser is a cursor over an immutable token slice,
// so errors report the exact offending token.
package parser

import (
	"fmt"
	"log/slog"

	"github.com/golangsnmp/cdecl/internal/ast"
	"github.com/golangsnmp/cdecl/internal/lexer"
	"github.com/golangsnmp/cdecl/internal/types"
)

// Parser converts a token slice into a declaration node.
type Parser struct {
	tokens []lexer.Token
	pos    int
	types.Logger
}

// New returns a Parser over tokens, which must end with a TokEOF token as
// produced by lexer.Tokenize.
func New(tokens []lexer.Token, logger *slog.Logger) *Parser {
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != lexer.TokEOF {
		end := 0
		if len(tokens) > 0 {
			end = tokens[len(tokens)-1].Span.End
		}
		tokens = append(tokens, lexer.Token{Kind: lexer.TokEOF, Span: types.NewSpan(end, end)})
	}
	return &Parser{tokens: tokens, Logger: types.Logger{L: logger}}
}

// Parse tokenizes and parses source in one step.
func Parse(source string, names lexer.Names, logger *slog.Logger) (*ast.Decl, error) {
	tokens, err := lexer.New(source, names, types.ComponentLogger(logger, "lexer")).Tokenize()
	if err != nil {
		return nil, err
	}
	return New(tokens, types.ComponentLogger(logger, "parser")).ParseDecl()
}

// ParseDecl parses one complete declaration. Tokens left over after it
// are a syntax error.
func (p *Parser) ParseDecl() (*ast.Decl, error) {
	decl, err := p.parseDecl(false)
	if err != nil {
		return nil, err
	}
	if !p.isEOF() {
		return nil, p.errorf("unexpected %s after declaration", p.peek().Kind)
	}
	if p.Enabled(slog.LevelDebug) {
		p.Log(slog.LevelDebug, "parsed declaration",
			slog.String("name", decl.Name.Name),
			slog.String("type", decl.TypeName()),
			slog.Bool("func", decl.IsFunc()))
	}
	return decl, nil
}

// parseDecl parses a declaration. Parameters (param == true) stop at ','
// or ')' and may not be function-shaped.
func (p *Parser) parseDecl(param bool) (*ast.Decl, error) {
	start := p.peek().Span.Start
	spec, err := p.parseTypeSpec()
	if err != nil {
		return nil, err
	}
	decl := &ast.Decl{Type: spec}

	switch {
	case p.check(lexer.TokIdent):
		tok := p.advance()
		decl.Name = ast.Ident{Name: tok.Text, Span: tok.Span}
		if p.check(lexer.TokLParen) {
			if param {
				return nil, p.errorf("function-shaped parameter %q", tok.Text)
			}
			fn, err := p.parseParamList()
			if err != nil {
				return nil, err
			}
			decl.Func = fn
		}

	case p.check(lexer.TokLParen):
		if param {
			return nil, p.errorf("function-shaped parameter")
		}
		fn, name, err := p.parseFuncDeclarator()
		if err != nil {
			return nil, err
		}
		decl.Name = name
		decl.Func = fn
	}

	decl.Span = types.NewSpan(start, p.prevEnd())
	if p.TraceEnabled() {
		p.Trace("declaration",
			slog.String("type", spec.String()),
			slog.String("name", decl.Name.Name),
			slog.Bool("param", param))
	}
	return decl, nil
}

// parseTypeSpec parses qualifiers, the type name and every pointer star
// up to the declarator.
func (p *Parser) parseTypeSpec() (ast.TypeSpec, error) {
	p.skipQualifiers()
	if !p.check(lexer.TokIdent) {
		return ast.TypeSpec{}, p.errorf("expected type name, found %s", p.peek().Kind)
	}
	tok := p.advance()
	spec := ast.TypeSpec{Name: tok.Text, Span: tok.Span}
	for {
		p.skipQualifiers()
		if !p.check(lexer.TokStar) {
			break
		}
		p.advance()
		spec.Pointers++
	}
	spec.Span.End = p.prevEnd()
	return spec, nil
}

// parseFuncDeclarator parses "(*name)(params)", "(*)(params)" or the
// abstract function form "(params)".
func (p *Parser) parseFuncDeclarator() (*ast.FuncSpec, ast.Ident, error) {
	var name ast.Ident
	if p.peekNth(1).Kind != lexer.TokStar {
		fn, err := p.parseParamList()
		return fn, name, err
	}

	p.advance() // (
	p.advance() // *
	if p.check(lexer.TokStar) {
		return nil, name, p.errorf("pointer to function pointer is not supported")
	}
	if p.check(lexer.TokIdent) {
		tok := p.advance()
		name = ast.Ident{Name: tok.Text, Span: tok.Span}
	}
	if _, err := p.expect(lexer.TokRParen); err != nil {
		return nil, name, err
	}
	if !p.check(lexer.TokLParen) {
		return nil, name, p.errorf("expected parameter list, found %s", p.peek().Kind)
	}
	fn, err := p.parseParamList()
	if err != nil {
		return nil, name, err
	}
	fn.Pointer = true
	return fn, name, nil
}

// parseParamList parses "(" [param {"," param}] ")". A sole unnamed void
// parameter means no parameters.
func (p *Parser) parseParamList() (*ast.FuncSpec, error) {
	if _, err := p.expect(lexer.TokLParen); err != nil {
		return nil, err
	}
	fn := &ast.FuncSpec{}
	if p.check(lexer.TokRParen) {
		p.advance()
		return fn, nil
	}
	for {
		param, err := p.parseDecl(true)
		if err != nil {
			return nil, err
		}
		fn.Params = append(fn.Params, param)
		if !p.check(lexer.TokComma) {
			break
		}
		p.advance()
	}
	if _, err := p.expect(lexer.TokRParen); err != nil {
		return nil, err
	}

	for i, param := range fn.Params {
		if !param.Type.IsVoid() {
			continue
		}
		if len(fn.Params) == 1 && param.Name.Name == "" {
			fn.Params = nil
			break
		}
		return nil, &types.SyntaxError{
			Token: "void",
			Pos:   param.Type.Span.Start,
			Msg:   fmt.Sprintf("parameter %d has type void", i+1),
		}
	}
	return fn, nil
}

func (p *Parser) skipQualifiers() {
	for p.check(lexer.TokIdent) && lexer.IsQualifier(p.peek().Text) {
		p.advance()
	}
}

func (p *Parser) isEOF() bool {
	return p.check(lexer.TokEOF)
}

func (p *Parser) peek() lexer.Token {
	return p.tokens[p.pos]
}

func (p *Parser) peekNth(n int) lexer.Token {
	if i := p.pos + n; i < len(p.tokens) {
		return p.tokens[i]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *Parser) advance() lexer.Token {
	tok := p.tokens[p.pos]
	if tok.Kind != lexer.TokEOF {
		p.pos++
	}
	return tok
}

func (p *Parser) check(kind lexer.TokenKind) bool {
	return p.peek().Kind == kind
}

func (p *Parser) expect(kind lexer.TokenKind) (lexer.Token, error) {
	if p.check(kind) {
		return p.advance(), nil
	}
	return lexer.Token{}, p.errorf("expected %s, found %s", kind, p.peek().Kind)
}

// prevEnd returns the end offset of the last consumed token.
func (p *Parser) prevEnd() int {
	if p.pos == 0 {
		return p.peek().Span.Start
	}
	return p.tokens[p.pos-1].Span.End
}

// errorf returns a SyntaxError at the current token.
func (p *Parser) errorf(format string, args ...any) error {
	tok := p.peek()
	return &types.SyntaxError{
		Token: tok.Text,
		Pos:   tok.Span.Start,
		Msg:   fmt.Sprintf(format, args...),
	}
}
