package testutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

// mockTB captures whether a test failure occurred.
type mockTB struct {
	testing.TB // embedded for unimplemented methods
	failed     bool
}

func (m *mockTB) Helper()                           {}
func (m *mockTB) Fatal(args ...any)                 { m.failed = true }
func (m *mockTB) Fatalf(format string, args ...any) { m.failed = true }

func TestEqual(t *testing.T) {
	m := &mockTB{}
	Equal(m, "int*", "int*")
	if m.failed {
		t.Error("equal strings should pass")
	}
	Equal(m, 4, 8)
	if !m.failed {
		t.Error("Equal(4, 8) should fail")
	}
}

func TestSliceEqual(t *testing.T) {
	m := &mockTB{}
	SliceEqual(m, []string{"void", "*"}, []string{"void", "*"})
	if m.failed {
		t.Error("equal slices should pass")
	}
	SliceEqual(m, []string{"void"}, []string{"void", "*"})
	if !m.failed {
		t.Error("different length slices should fail")
	}
}

func TestErrorHelpers(t *testing.T) {
	m := &mockTB{}
	NoError(m, nil)
	Error(m, errors.New("boom"))
	ErrorIs(m, &fs.PathError{Err: fs.ErrNotExist}, fs.ErrNotExist)
	if m.failed {
		t.Error("matching errors should pass")
	}

	pe := ErrorAs[*fs.PathError](m, &fs.PathError{Op: "open", Err: fs.ErrNotExist})
	if m.failed || pe.Op != "open" {
		t.Error("ErrorAs should return the matched error")
	}

	ErrorIs(m, errors.New("other"), fs.ErrNotExist)
	if !m.failed {
		t.Error("ErrorIs with unrelated error should fail")
	}

	m = &mockTB{}
	Error(m, nil)
	if !m.failed {
		t.Error("Error with nil should fail")
	}
}

func TestLoadDeclFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decls.yaml")
	data := []byte(`platform: lp64
aliases:
  UInt8: unsigned char
cases:
  - name: pointer
    input: "int *p"
    declarator: p
    type_name: "int*"
    size: 8
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	fx := LoadDeclFixture(t, path)
	Equal(t, "lp64", fx.Platform)
	Equal(t, "unsigned char", fx.Aliases["UInt8"])
	Len(t, fx.Cases, 1)
	Equal(t, "int*", fx.Cases[0].TypeName)
	True(t, fx.Cases[0].Size != nil && *fx.Cases[0].Size == 8, "size should decode")
}
