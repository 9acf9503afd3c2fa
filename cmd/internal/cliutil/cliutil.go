// Package cliutil provides shared CLI utilities for the cdecl command.
package cliutil

import (
	"io"
	"os"
	"strings"
)

// GlobalFlags holds the flags accepted before or after any subcommand.
type GlobalFlags struct {
	Verbose  int
	Catalogs []string
	Platform string
	HelpFlag bool
}

// ParseGlobalArgs parses global flags and extracts the subcommand from args.
// Flags handled: -v/--verbose, -vv, -c/--catalog, --platform, -h/--help.
// Unrecognized flags and all other arguments are passed through to the
// subcommand in order.
func ParseGlobalArgs(args []string) (flags GlobalFlags, cmd string, cmdArgs []string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			cmdArgs = append(cmdArgs, args[i:]...)
			return
		case arg == "-h" || arg == "--help":
			flags.HelpFlag = true
		case arg == "-v" || arg == "--verbose":
			flags.Verbose = max(flags.Verbose, 1)
		case arg == "-vv":
			flags.Verbose = 2
		case arg == "-c" || arg == "--catalog":
			if i+1 < len(args) {
				i++
				flags.Catalogs = append(flags.Catalogs, args[i])
			}
		case strings.HasPrefix(arg, "--catalog="):
			flags.Catalogs = append(flags.Catalogs, arg[len("--catalog="):])
		case strings.HasPrefix(arg, "-c") && !strings.HasPrefix(arg, "--"):
			flags.Catalogs = append(flags.Catalogs, arg[2:])
		case arg == "--platform":
			if i+1 < len(args) {
				i++
				flags.Platform = args[i]
			}
		case strings.HasPrefix(arg, "--platform="):
			flags.Platform = arg[len("--platform="):]
		case len(arg) > 0 && arg[0] == '-':
			cmdArgs = append(cmdArgs, arg)
		default:
			if cmd == "" {
				cmd = arg
			} else {
				cmdArgs = append(cmdArgs, arg)
			}
		}
	}
	return
}

// GetOutput opens the output file, or returns stdout when outputFile is
// empty or "-".
func GetOutput(outputFile string, stdout io.Writer) (io.Writer, func() error, error) {
	if outputFile == "" || outputFile == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(outputFile)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
