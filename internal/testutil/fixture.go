package testutil

import (
	"os"
	"testing"

	"gopkg.in/yaml.v3"
)

// DeclCase is one declaration test case from a YAML fixture.
type DeclCase struct {
	Name       string   `yaml:"name"`
	Input      string   `yaml:"input"`
	Declarator string   `yaml:"declarator"`
	TypeName   string   `yaml:"type_name"`
	Kind       string   `yaml:"kind"`
	Type       string   `yaml:"type"`
	Size       *int     `yaml:"size,omitempty"`
	Return     string   `yaml:"return,omitempty"`
	Params     []string `yaml:"params,omitempty"`
	Error      string   `yaml:"error,omitempty"` // "syntax", "unknown-type", "cyclic-alias"
}

// DeclFixture is the top-level structure of a declaration fixture file.
type DeclFixture struct {
	Platform string            `yaml:"platform"`
	Aliases  map[string]string `yaml:"aliases"`
	Cases    []DeclCase        `yaml:"cases"`
}

// LoadDeclFixture reads a YAML declaration fixture.
func LoadDeclFixture(t testing.TB, path string) DeclFixture {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read fixture %s: %v", path, err)
	}
	var fx DeclFixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		t.Fatalf("failed to parse fixture %s: %v", path, err)
	}
	if len(fx.Cases) == 0 {
		t.Fatalf("fixture %s has no cases", path)
	}
	return fx
}
