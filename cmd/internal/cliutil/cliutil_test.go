package cliutil

import (
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestParseGlobalArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		cmd      string
		cmdArgs  []string
		catalogs []string
		platform string
		verbose  int
		help     bool
	}{
		{
			name:    "command only",
			args:    []string{"types"},
			cmd:     "types",
			cmdArgs: nil,
		},
		{
			name:     "globals around the command",
			args:     []string{"-c", "iokit.yaml", "parse", "--platform", "ilp32", "UInt8 b", "--json"},
			cmd:      "parse",
			cmdArgs:  []string{"UInt8 b", "--json"},
			catalogs: []string{"iokit.yaml"},
			platform: "ilp32",
		},
		{
			name:     "joined forms",
			args:     []string{"-ccore.yaml", "--catalog=usb", "--platform=lp64", "-vv", "check"},
			cmd:      "check",
			catalogs: []string{"core.yaml", "usb"},
			platform: "lp64",
			verbose:  2,
		},
		{
			name:    "subcommand flags keep their values in order",
			args:    []string{"gen", "-p", "usb", "-o", "types.go", "-v"},
			cmd:     "gen",
			cmdArgs: []string{"-p", "usb", "-o", "types.go"},
			verbose: 1,
		},
		{
			name:    "double dash stops global parsing",
			args:    []string{"parse", "--", "-c"},
			cmd:     "parse",
			cmdArgs: []string{"--", "-c"},
		},
		{
			name: "help",
			args: []string{"--help"},
			help: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags, cmd, cmdArgs := ParseGlobalArgs(tt.args)
			if cmd != tt.cmd {
				t.Errorf("cmd = %q, want %q", cmd, tt.cmd)
			}
			if !slices.Equal(cmdArgs, tt.cmdArgs) {
				t.Errorf("cmdArgs = %q, want %q", cmdArgs, tt.cmdArgs)
			}
			if !slices.Equal(flags.Catalogs, tt.catalogs) {
				t.Errorf("catalogs = %q, want %q", flags.Catalogs, tt.catalogs)
			}
			if flags.Platform != tt.platform {
				t.Errorf("platform = %q, want %q", flags.Platform, tt.platform)
			}
			if flags.Verbose != tt.verbose {
				t.Errorf("verbose = %d, want %d", flags.Verbose, tt.verbose)
			}
			if flags.HelpFlag != tt.help {
				t.Errorf("help = %v, want %v", flags.HelpFlag, tt.help)
			}
		})
	}
}

func TestGetOutput(t *testing.T) {
	var buf strings.Builder
	w, done, err := GetOutput("-", &buf)
	if err != nil {
		t.Fatal(err)
	}
	if w != &buf {
		t.Error("\"-\" should select stdout")
	}
	if err := done(); err != nil {
		t.Error(err)
	}

	path := filepath.Join(t.TempDir(), "out.go")
	w, done, err = GetOutput(path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := io.WriteString(w, "package usb\n"); err != nil {
		t.Fatal(err)
	}
	if err := done(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "package usb\n" {
		t.Errorf("file content = %q", data)
	}
}
