package cdecl

import (
	"github.com/golangsnmp/cdecl/internal/lexer"
	"github.com/golangsnmp/cdecl/internal/types"
)

// Tokenizer yields the tokens of one declaration string. Registered
// multi-word type names such as "unsigned long long" come out as single
// identifier tokens, so registering a new multi-word name changes how
// later strings tokenize.
type Tokenizer struct {
	tokens []Token // without the trailing EOF
	pos    int
}

// NewTokenizer tokenizes text against the registry selected by opts.
// Characters other than identifiers, whitespace and the marks * ( ) ,
// fail with a *SyntaxError.
func NewTokenizer(text string, opts ...Option) (*Tokenizer, error) {
	cfg := newConfig(opts)
	tokens, err := lexer.New(text, cfg.registry, types.ComponentLogger(cfg.logger, "lexer")).Tokenize()
	if err != nil {
		return nil, err
	}
	return &Tokenizer{tokens: tokens[:len(tokens)-1]}, nil
}

// Next returns the next token, or ErrEndOfInput when none remain.
func (t *Tokenizer) Next() (Token, error) {
	if t.Empty() {
		return Token{}, ErrEndOfInput
	}
	tok := t.tokens[t.pos]
	t.pos++
	return tok, nil
}

// Empty reports whether every token has been consumed.
func (t *Tokenizer) Empty() bool {
	return t.pos >= len(t.tokens)
}

// Remaining returns the number of unconsumed tokens.
func (t *Tokenizer) Remaining() int {
	return len(t.tokens) - t.pos
}

// Tokenize returns the token texts of text.
func Tokenize(text string, opts ...Option) ([]string, error) {
	tz, err := NewTokenizer(text, opts...)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(tz.tokens))
	for i, tok := range tz.tokens {
		texts[i] = tok.Text
	}
	return texts, nil
}
