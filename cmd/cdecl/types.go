package main

import (
	"fmt"

	"github.com/spf13/pflag"
)

const typesUsage = `cdecl types - List registered type names

Usage:
  cdecl types [options]

Lists every name in the registry: the standard C types, their spelling
variants and everything loaded from catalogs. Aliases show their target.

Options:
  --count      Print only the number of names
  --json       Output as JSON array
  -h, --help   Show help

Examples:
  cdecl types
  cdecl -c catalogs types --count
`

func (c *cli) cmdTypes(args []string) int {
	fs := pflag.NewFlagSet("types", pflag.ContinueOnError)
	fs.SetOutput(c.stderr)
	fs.Usage = func() { _, _ = fmt.Fprint(c.stderr, typesUsage) }

	count := fs.Bool("count", false, "print only the number of names")
	jsonOut := fs.Bool("json", false, "output as JSON array")
	help := fs.BoolP("help", "h", false, "show help")

	if err := fs.Parse(args); err != nil {
		return exitError
	}
	if *help || c.HelpFlag {
		_, _ = fmt.Fprint(c.stdout, typesUsage)
		return exitOK
	}

	s, err := c.newSession()
	if s == nil {
		c.printError("%v", err)
		return exitError
	}
	if err != nil {
		c.printError("catalogs: %v", err)
	}

	names := s.reg.Names()
	if *count {
		_, _ = fmt.Fprintln(c.stdout, len(names))
		return exitOK
	}
	if *jsonOut {
		if err := writeJSON(c.stdout, names); err != nil {
			c.printError("encoding JSON: %v", err)
			return exitError
		}
		return exitOK
	}
	for _, name := range names {
		if target, ok := s.reg.AliasTarget(name); ok {
			_, _ = fmt.Fprintf(c.stdout, "%s -> %s\n", name, target)
			continue
		}
		_, _ = fmt.Fprintln(c.stdout, name)
	}
	return exitOK
}
