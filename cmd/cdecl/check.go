package main

import (
	"fmt"

	"github.com/spf13/pflag"
)

const checkUsage = `cdecl check - Load catalogs and report invalid definitions

Usage:
  cdecl -c CATALOG check [options]

Loads every catalog and reports each definition that fails: unknown
member types, malformed declarations, by-value cycles and missing
requirements. Exits 2 when anything fails.

Options:
  -q, --quiet  Print nothing, only set the exit code
  -h, --help   Show help

Examples:
  cdecl -c catalogs check
  cdecl -c catalogs --platform ilp32 check
`

func (c *cli) cmdCheck(args []string) int {
	fs := pflag.NewFlagSet("check", pflag.ContinueOnError)
	fs.SetOutput(c.stderr)
	fs.Usage = func() { _, _ = fmt.Fprint(c.stderr, checkUsage) }

	quiet := fs.BoolP("quiet", "q", false, "print nothing")
	help := fs.BoolP("help", "h", false, "show help")

	if err := fs.Parse(args); err != nil {
		return exitError
	}
	if *help || c.HelpFlag {
		_, _ = fmt.Fprint(c.stdout, checkUsage)
		return exitOK
	}
	if len(c.Catalogs) == 0 {
		c.printError("check: no catalogs given (use -c)")
		return exitError
	}

	s, err := c.newSession()
	if s == nil {
		c.printError("check: %v", err)
		return exitError
	}
	if err != nil {
		if !*quiet {
			for _, e := range flatten(err) {
				_, _ = fmt.Fprintf(c.stdout, "FAIL %v\n", e)
			}
		}
		return exitCheckFailed
	}

	if !*quiet {
		_, _ = fmt.Fprintf(c.stdout, "ok: %d files, %d aliases, %d aggregates, %d callbacks\n",
			len(s.cat.Files), len(s.cat.Aliases), len(s.cat.Aggregates), len(s.cat.Callbacks))
	}
	return exitOK
}

// flatten splits joined errors into their parts.
func flatten(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, flatten(e)...)
		}
		return out
	}
	return []error{err}
}
