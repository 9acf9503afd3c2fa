package main

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/pflag"

	"github.com/golangsnmp/cdecl/cmd/internal/cliutil"
	"github.com/golangsnmp/cdecl/ctype"
	"github.com/golangsnmp/cdecl/internal/gogen"
)

const genUsage = `cdecl gen - Generate Go types for catalog aggregates

Usage:
  cdecl -c CATALOG gen [options]

Writes one Go file with a struct for every struct, union and interface in
the loaded catalogs, an empty struct for every opaque type and a uintptr
type for every callback. Layouts follow --platform, so generate for the
platform the code will be built for. Go field alignment follows --goarch,
which defaults to the host for the host platform, amd64 for 64-bit
platforms, arm for ilp32-eabi and 386 otherwise.

Options:
  -p, --package NAME   Package name (required)
  -o, --output FILE    Output file (default: stdout)
  --goarch ARCH        Target GOARCH for Go field alignment
  --ffi                Also emit libffi type descriptions
  -h, --help           Show help

Examples:
  cdecl -c catalogs gen -p usb -o usb_types.go
  cdecl -c catalogs --platform lp64 gen -p usb --ffi
  cdecl -c catalogs --platform win32 gen -p usb --goarch 386
`

func (c *cli) cmdGen(args []string) int {
	fs := pflag.NewFlagSet("gen", pflag.ContinueOnError)
	fs.SetOutput(c.stderr)
	fs.Usage = func() { _, _ = fmt.Fprint(c.stderr, genUsage) }

	pkg := fs.StringP("package", "p", "", "package name")
	output := fs.StringP("output", "o", "", "output file")
	goarch := fs.String("goarch", "", "target GOARCH")
	withFFI := fs.Bool("ffi", false, "emit libffi type descriptions")
	help := fs.BoolP("help", "h", false, "show help")

	if err := fs.Parse(args); err != nil {
		return exitError
	}
	if *help || c.HelpFlag {
		_, _ = fmt.Fprint(c.stdout, genUsage)
		return exitOK
	}
	if *pkg == "" {
		c.printError("gen: --package is required")
		return exitError
	}
	if len(c.Catalogs) == 0 {
		c.printError("gen: no catalogs given (use -c)")
		return exitError
	}

	s, err := c.newSession()
	if s == nil {
		c.printError("%v", err)
		return exitError
	}
	if err != nil {
		c.printError("catalogs: %v", err)
		return exitError
	}

	callbacks := make([]gogen.Callback, len(s.cat.Callbacks))
	for i, cb := range s.cat.Callbacks {
		callbacks[i] = gogen.Callback{Name: cb.Name, Func: cb.Func}
	}
	arch := *goarch
	if arch == "" {
		arch = defaultGOARCH(s.reg.Platform())
	}
	opts := []gogen.Option{
		gogen.WithSource(strings.Join(c.Catalogs, ", ")),
		gogen.WithGOARCH(arch),
	}
	if *withFFI {
		opts = append(opts, gogen.WithFFITypes())
	}
	src, err := gogen.Generate(*pkg, s.cat.Aggregates, callbacks, opts...)
	if err != nil {
		c.printError("gen: %v", err)
		return exitError
	}

	w, done, err := cliutil.GetOutput(*output, c.stdout)
	if err != nil {
		c.printError("%v", err)
		return exitError
	}
	if _, err := w.Write(src); err != nil {
		_ = done()
		c.printError("writing output: %v", err)
		return exitError
	}
	if err := done(); err != nil {
		c.printError("writing output: %v", err)
		return exitError
	}
	return exitOK
}

// defaultGOARCH picks a Go architecture whose field alignment matches p.
// All 64-bit targets share one Go layout, as do all 32-bit ones.
func defaultGOARCH(p ctype.Platform) string {
	switch {
	case p == ctype.Host():
		return runtime.GOARCH
	case p.PointerSize == 8:
		return "amd64"
	case p.Name == ctype.ILP32EABI.Name:
		return "arm"
	default:
		return "386"
	}
}
