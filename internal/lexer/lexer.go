package lexer

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/golangsnmp/cdecl/internal/types"
)

// Names reports the registered multi-word type names the lexer merges
// into single tokens.
type Names interface {
	// LongestName returns how many leading words form the longest
	// registered multi-word name: 0 when none matches, otherwise >= 2.
	LongestName(words []string) int
	// MaxWords returns the word count of the longest registered name.
	MaxWords() int
}

// IsQualifier reports whether word is a type qualifier. Qualifiers may
// sit between the words of a multi-word name and are left out of the
// merged token.
func IsQualifier(word string) bool {
	return word == "const" || word == "volatile"
}

// Lexer tokenizes a single C declaration.
type Lexer struct {
	source string
	pos    int
	names  Names
	types.Logger
}

// New returns a Lexer over source. names may be nil, in which case no
// multi-word merging happens.
func New(source string, names Names, logger *slog.Logger) *Lexer {
	l := &Lexer{
		source: source,
		names:  names,
		Logger: types.Logger{L: logger},
	}
	l.Log(slog.LevelDebug, "lexer initialized", slog.Int("bytes", len(source)))
	return l
}

// Tokenize consumes the whole source and returns its tokens, terminated
// by a TokEOF token.
func (l *Lexer) Tokenize() ([]Token, error) {
	tokens := make([]Token, 0, max(len(l.source)/3, 8))
	for {
		tok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == TokEOF {
			break
		}
	}
	l.Log(slog.LevelDebug, "tokenization complete", slog.Int("tokens", len(tokens)-1))
	return tokens, nil
}

// NextToken returns the next token, or TokEOF when input is exhausted.
func (l *Lexer) NextToken() (Token, error) {
	l.skipWhitespace()
	start := l.pos
	if l.pos >= len(l.source) {
		return l.token(TokEOF, start), nil
	}

	c := l.source[l.pos]
	switch c {
	case '*':
		l.pos++
		return l.token(TokStar, start), nil
	case '(':
		l.pos++
		return l.token(TokLParen, start), nil
	case ')':
		l.pos++
		return l.token(TokRParen, start), nil
	case ',':
		l.pos++
		return l.token(TokComma, start), nil
	}

	if isIdentStart(c) {
		return l.scanIdent(), nil
	}

	r, _ := utf8.DecodeRuneInString(l.source[l.pos:])
	return Token{}, &types.SyntaxError{
		Token: string(r),
		Pos:   start,
		Msg:   "unexpected character",
	}
}

// scanIdent scans an identifier, merging it with the following words when
// they form the longest registered multi-word type name.
func (l *Lexer) scanIdent() Token {
	start := l.pos
	end := identEnd(l.source, start)

	if l.names != nil && l.names.MaxWords() >= 2 {
		words := []string{l.source[start:end]}
		ends := []int{end}
		pos := end
		for len(words) < l.names.MaxWords() {
			next := skipSpace(l.source, pos)
			if next == pos || next >= len(l.source) || !isIdentStart(l.source[next]) {
				break
			}
			pos = identEnd(l.source, next)
			if IsQualifier(l.source[next:pos]) {
				continue
			}
			words = append(words, l.source[next:pos])
			ends = append(ends, pos)
		}
		if n := l.names.LongestName(words); n >= 2 {
			l.pos = ends[n-1]
			tok := Token{
				Kind: TokIdent,
				Text: strings.Join(words[:n], " "),
				Span: types.NewSpan(start, l.pos),
			}
			l.traceToken(tok)
			return tok
		}
	}

	l.pos = end
	return l.token(TokIdent, start)
}

func (l *Lexer) token(kind TokenKind, start int) Token {
	tok := Token{
		Kind: kind,
		Text: l.source[start:l.pos],
		Span: types.NewSpan(start, l.pos),
	}
	l.traceToken(tok)
	return tok
}

func (l *Lexer) traceToken(tok Token) {
	if l.TraceEnabled() {
		l.Trace("token",
			slog.String("kind", tok.Kind.String()),
			slog.String("text", tok.Text),
			slog.Int("start", tok.Span.Start))
	}
}

func (l *Lexer) skipWhitespace() {
	l.pos = skipSpace(l.source, l.pos)
}

func skipSpace(s string, pos int) int {
	for pos < len(s) && isSpace(s[pos]) {
		pos++
	}
	return pos
}

func identEnd(s string, pos int) int {
	for pos < len(s) && isIdentChar(s[pos]) {
		pos++
	}
	return pos
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\v' || c == '\f'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
