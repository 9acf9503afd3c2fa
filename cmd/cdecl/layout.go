package main

import (
	"fmt"
	"io"

	"github.com/spf13/pflag"
)

const layoutUsage = `cdecl layout - Show the memory layout of registered types

Usage:
  cdecl layout [options] NAME...

NAME is any registered type name, optionally with stars. Structs and
unions list each member with its offset and size, and the padding the
platform inserts.

Options:
  --json       Output as JSON
  -h, --help   Show help

Examples:
  cdecl -c catalogs layout IOUSBDevRequest
  cdecl -c catalogs --platform ilp32 layout IOUSBDevRequest
  cdecl layout 'unsigned long' 'char*'
`

func (c *cli) cmdLayout(args []string) int {
	fs := pflag.NewFlagSet("layout", pflag.ContinueOnError)
	fs.SetOutput(c.stderr)
	fs.Usage = func() { _, _ = fmt.Fprint(c.stderr, layoutUsage) }

	jsonOut := fs.Bool("json", false, "output as JSON")
	help := fs.BoolP("help", "h", false, "show help")

	if err := fs.Parse(args); err != nil {
		return exitError
	}
	if *help || c.HelpFlag {
		_, _ = fmt.Fprint(c.stdout, layoutUsage)
		return exitOK
	}
	if fs.NArg() == 0 {
		c.printError("layout: no type names given")
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
	var out []*TypeJSON
	for _, name := range fs.Args() {
		t, err := s.reg.Resolve(name)
		if err != nil {
			c.printError("%v", err)
			code = exitError
			continue
		}
		tj := typeToJSON(t, true)
		if *jsonOut {
			out = append(out, tj)
			continue
		}
		printLayout(c.stdout, tj)
	}

	if *jsonOut {
		if err := writeJSON(c.stdout, out); err != nil {
			c.printError("encoding JSON: %v", err)
			return exitError
		}
	}
	return code
}

func printLayout(w io.Writer, t *TypeJSON) {
	_, _ = fmt.Fprintf(w, "%s: %s, size %d, align %d\n", t.Spelling, t.Kind, t.Size, t.Align)
	if t.Complete != nil && !*t.Complete {
		_, _ = fmt.Fprintln(w, "  (incomplete)")
		return
	}
	pad := 0
	for _, f := range t.Fields {
		for pad < len(t.Padding) && t.Padding[pad][0] < f.Offset {
			printPadding(w, t.Padding[pad])
			pad++
		}
		name := f.Name
		if name == "" {
			name = "-"
		}
		_, _ = fmt.Fprintf(w, "  %4d  %4d  %-24s %s\n", f.Offset, f.Size, name, f.Type)
	}
	for ; pad < len(t.Padding); pad++ {
		printPadding(w, t.Padding[pad])
	}
}

func printPadding(w io.Writer, gap [2]int) {
	_, _ = fmt.Fprintf(w, "  %4d  %4d  (padding)\n", gap[0], gap[1])
}
