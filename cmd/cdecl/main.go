// Command cdecl parses C declarations and inspects the foreign types they
// describe.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/golangsnmp/cdecl"
	"github.com/golangsnmp/cdecl/catalog"
	"github.com/golangsnmp/cdecl/cmd/internal/cliutil"
	"github.com/golangsnmp/cdecl/ctype"
)

// Exit codes.
const (
	exitOK          = 0 // success
	exitError       = 1 // user error or processing failure
	exitCheckFailed = 2 // check found invalid definitions
)

const usage = `cdecl - C declaration parser and type inspector

Usage:
  cdecl <command> [options] [arguments]

Commands:
  parse    Parse declarations and describe their types
  tokens   Show the tokens of a declaration
  types    List registered type names
  layout   Show the memory layout of registered types
  gen      Generate Go types for catalog aggregates
  check    Load catalogs and report invalid definitions
  version  Show version

Common options:
  -c, --catalog PATH   Load a catalog file or directory (repeatable)
  --platform NAME      Data model: lp64, llp64, ilp32, ilp32-eabi, win32
                       (default: host)
  -v, --verbose        Enable debug logging
  -vv                  Enable trace logging (implies -v)
  -h, --help           Show help

Examples:
  cdecl parse 'unsigned long long *total'
  cdecl parse --json 'int (*compare)(void *a, void *b)'
  cdecl -c catalogs layout IOUSBDevRequest
  cdecl -c catalogs gen -p usb -o usb_types.go
`

type cli struct {
	cliutil.GlobalFlags
	stdout io.Writer
	stderr io.Writer
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags, cmd, cmdArgs := cliutil.ParseGlobalArgs(args)
	c := &cli{GlobalFlags: flags, stdout: stdout, stderr: stderr}

	if c.HelpFlag && cmd == "" {
		_, _ = fmt.Fprint(stdout, usage)
		return exitOK
	}

	if cmd == "" {
		_, _ = fmt.Fprint(stderr, usage)
		return exitError
	}

	switch cmd {
	case "parse":
		return c.cmdParse(cmdArgs)
	case "tokens":
		return c.cmdTokens(cmdArgs)
	case "types":
		return c.cmdTypes(cmdArgs)
	case "layout":
		return c.cmdLayout(cmdArgs)
	case "gen":
		return c.cmdGen(cmdArgs)
	case "check":
		return c.cmdCheck(cmdArgs)
	case "version":
		c.printVersion()
		return exitOK
	case "help":
		_, _ = fmt.Fprint(stdout, usage)
		return exitOK
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command: %s\n\n", cmd)
		_, _ = fmt.Fprint(stderr, usage)
		return exitError
	}
}

func (c *cli) setupLogger() *slog.Logger {
	if c.Verbose == 0 {
		return nil
	}
	level := slog.LevelDebug
	if c.Verbose >= 2 {
		level = cdecl.LevelTrace
	}
	return slog.New(slog.NewTextHandler(c.stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

func (c *cli) platform() (ctype.Platform, error) {
	if c.Platform == "" {
		return ctype.Host(), nil
	}
	return ctype.ParsePlatform(c.Platform)
}

// buildSources turns -c paths into catalog sources: directories are
// indexed recursively, anything else is a single catalog file.
func (c *cli) buildSources() ([]catalog.Source, error) {
	var sources []catalog.Source
	for _, p := range c.Catalogs {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		var src catalog.Source
		if info.IsDir() {
			src, err = catalog.DirTree(p)
		} else {
			src, err = catalog.File(p)
		}
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}

// session is a registry for the selected platform with every -c catalog
// loaded into it.
type session struct {
	reg    *cdecl.Registry
	cat    *catalog.Catalog
	logger *slog.Logger
}

func (s *session) opts() []cdecl.Option {
	return []cdecl.Option{cdecl.WithRegistry(s.reg), cdecl.WithLogger(s.logger)}
}

// newSession builds the registry and loads catalogs. Catalog errors are
// returned together with the session so check can report them; s.cat is
// nil when no catalog could be loaded. Setup errors (platform, catalog
// paths) leave the session nil.
func (c *cli) newSession() (*session, error) {
	p, err := c.platform()
	if err != nil {
		return nil, err
	}
	logger := c.setupLogger()
	s := &session{
		reg:    cdecl.NewRegistry(cdecl.WithPlatform(p), cdecl.WithRegistryLogger(logger)),
		logger: logger,
	}
	if len(c.Catalogs) == 0 {
		return s, nil
	}
	sources, err := c.buildSources()
	if err != nil {
		return nil, err
	}
	cat, err := catalog.Load(context.Background(), s.reg,
		catalog.WithSource(sources...),
		catalog.WithLogger(logger),
	)
	s.cat = cat
	return s, err
}

func (c *cli) printVersion() {
	version := "(devel)"
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		version = info.Main.Version
	}
	_, _ = fmt.Fprintf(c.stdout, "cdecl %s\n", version)
}

func (c *cli) printError(format string, args ...any) {
	_, _ = fmt.Fprintf(c.stderr, "error: "+format+"\n", args...)
}
