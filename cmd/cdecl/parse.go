package main

import (
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/golangsnmp/cdecl"
	"github.com/golangsnmp/cdecl/ctype"
)

const parseUsage = `cdecl parse - Parse declarations and describe their types

Usage:
  cdecl parse [options] DECL...

Each argument is one declaration: a type with optional stars and name,
a function, or a function pointer.

Options:
  --json       Output as JSON
  -h, --help   Show help

Examples:
  cdecl parse 'char **argv'
  cdecl parse 'int hello(int name)' 'void (*cb)(void *refcon)'
  cdecl -c catalogs parse --json 'IOReturn (*USBDeviceOpen)(void *self)'
`

func (c *cli) cmdParse(args []string) int {
	fs := pflag.NewFlagSet("parse", pflag.ContinueOnError)
	fs.SetOutput(c.stderr)
	fs.Usage = func() { _, _ = fmt.Fprint(c.stderr, parseUsage) }

	jsonOut := fs.Bool("json", false, "output as JSON")
	help := fs.BoolP("help", "h", false, "show help")

	if err := fs.Parse(args); err != nil {
		return exitError
	}
	if *help || c.HelpFlag {
		_, _ = fmt.Fprint(c.stdout, parseUsage)
		return exitOK
	}
	if fs.NArg() == 0 {
		c.printError("parse: no declarations given")
		_, _ = fmt.Fprint(c.stderr, parseUsage)
		return exitError
	}

	s, err := c.newSession()
	if s == nil {
		c.printError("%v", err)
		return exitError
	}
	if err != nil {
		c.printError("catalogs: %v", err)
	}

	code := exitOK
	var results []DeclJSON
	for _, text := range fs.Args() {
		d, err := cdecl.Parse(text, s.opts()...)
		if err != nil {
			code = exitError
			if *jsonOut {
				results = append(results, DeclJSON{Input: text, Error: err.Error()})
			} else {
				c.printError("%s: %v", text, err)
			}
			continue
		}
		if *jsonOut {
			results = append(results, declToJSON(text, d))
			continue
		}
		printDecl(c.stdout, text, d)
	}

	if *jsonOut {
		if err := writeJSON(c.stdout, results); err != nil {
			c.printError("encoding JSON: %v", err)
			return exitError
		}
	}
	return code
}

func printDecl(w io.Writer, text string, d *cdecl.Declaration) {
	_, _ = fmt.Fprintln(w, text)
	if d.Name() != "" {
		_, _ = fmt.Fprintf(w, "  name:      %s\n", d.Name())
	}
	_, _ = fmt.Fprintf(w, "  type name: %s\n", d.TypeName())
	t := d.Type()
	_, _ = fmt.Fprintf(w, "  kind:      %s\n", t.Kind())
	_, _ = fmt.Fprintf(w, "  type:      %s\n", t)
	_, _ = fmt.Fprintf(w, "  size:      %d (align %d)\n", t.Size(), t.Align())
	if p, ok := t.(*ctype.Pointer); ok && p.StringClass() != ctype.StringNone {
		_, _ = fmt.Fprintf(w, "  string:    yes\n")
	}
	if d.IsFunc() {
		_, _ = fmt.Fprintf(w, "  returns:   %s\n", d.ReturnType().Type())
		for i, p := range d.Params() {
			name := p.Name()
			if name == "" {
				name = "-"
			}
			_, _ = fmt.Fprintf(w, "  param %d:   %s %s\n", i+1, p.Type(), name)
		}
	}
}
