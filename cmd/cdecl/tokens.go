package main

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/golangsnmp/cdecl"
)

const tokensUsage = `cdecl tokens - Show the tokens of a declaration

Usage:
  cdecl tokens [options] DECL

Registered multi-word type names such as "unsigned long long" are shown
as one identifier token.

Options:
  --json       Output as JSON
  -h, --help   Show help

Examples:
  cdecl tokens 'unsigned long long (*hash)(const unsigned char *data)'
`

func (c *cli) cmdTokens(args []string) int {
	fs := pflag.NewFlagSet("tokens", pflag.ContinueOnError)
	fs.SetOutput(c.stderr)
	fs.Usage = func() { _, _ = fmt.Fprint(c.stderr, tokensUsage) }

	jsonOut := fs.Bool("json", false, "output as JSON")
	help := fs.BoolP("help", "h", false, "show help")

	if err := fs.Parse(args); err != nil {
		return exitError
	}
	if *help || c.HelpFlag {
		_, _ = fmt.Fprint(c.stdout, tokensUsage)
		return exitOK
	}
	if fs.NArg() != 1 {
		c.printError("tokens: expected exactly one declaration")
		return exitError
	}

	s, err := c.newSession()
	if s == nil {
		c.printError("%v", err)
		return exitError
	}

	tz, err := cdecl.NewTokenizer(fs.Arg(0), s.opts()...)
	if err != nil {
		c.printError("%v", err)
		return exitError
	}
	var tokens []TokenJSON
	for !tz.Empty() {
		tok, err := tz.Next()
		if err != nil {
			c.printError("%v", err)
			return exitError
		}
		tokens = append(tokens, TokenJSON{
			Kind:  tok.Kind.String(),
			Text:  tok.Text,
			Start: tok.Span.Start,
			End:   tok.Span.End,
		})
	}

	if *jsonOut {
		if err := writeJSON(c.stdout, tokens); err != nil {
			c.printError("encoding JSON: %v", err)
			return exitError
		}
		return exitOK
	}
	for _, tok := range tokens {
		_, _ = fmt.Fprintf(c.stdout, "%3d-%-3d %-12s %s\n", tok.Start, tok.End, tok.Kind, tok.Text)
	}
	return exitOK
}
