package gogen

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"strings"
	"testing"

	"github.com/golangsnmp/cdecl/ctype"
	"github.com/golangsnmp/cdecl/internal/testutil"
)

func scalars(p ctype.Platform) map[string]*ctype.Scalar {
	m := make(map[string]*ctype.Scalar)
	for _, s := range p.Scalars() {
		m[s.Name()] = s
	}
	return m
}

func mustStruct(t *testing.T, name string, fields ...ctype.Field) *ctype.Aggregate {
	t.Helper()
	agg, err := ctype.NewStruct(name, fields...)
	testutil.NoError(t, err, "NewStruct %s", name)
	return agg
}

// fixture builds IOUSBDevRequest, a union, an opaque type, a struct
// holding a pointer to the opaque type and a callback.
func fixture(t *testing.T) ([]*ctype.Aggregate, []Callback) {
	t.Helper()
	p := ctype.LP64
	s := scalars(p)
	voidp := p.PointerTo(ctype.Void, 1)

	cb := p.Func(ctype.Void, voidp, s["int"], voidp)
	req := mustStruct(t, "IOUSBDevRequest",
		ctype.Field{Name: "bmRequestType", Type: s["unsigned char"]},
		ctype.Field{Name: "bRequest", Type: s["unsigned char"]},
		ctype.Field{Name: "wValue", Type: s["unsigned short"]},
		ctype.Field{Name: "wIndex", Type: s["unsigned short"]},
		ctype.Field{Name: "wLength", Type: s["unsigned short"]},
		ctype.Field{Name: "pData", Type: voidp},
		ctype.Field{Name: "wLenDone", Type: s["unsigned int"]},
	)
	value, err := ctype.NewUnion("Value",
		ctype.Field{Name: "i", Type: s["int"]},
		ctype.Field{Name: "d", Type: s["double"]},
	)
	testutil.NoError(t, err, "NewUnion")
	src := ctype.NewOpaque("__CFRunLoopSource", false)
	holder := mustStruct(t, "Holder",
		ctype.Field{Name: "_reserved", Type: voidp},
		ctype.Field{Name: "source", Type: p.PointerTo(src, 1)},
		ctype.Field{Name: "req", Type: p.PointerTo(req, 1)},
		ctype.Field{Name: "callback", Type: cb},
		ctype.Field{Name: "name", Type: p.StringPointer(s["char"])},
		ctype.Field{Name: "value", Type: value},
		ctype.Field{Name: "flag", Type: s["char"]},
	)
	return []*ctype.Aggregate{src, req, value, holder}, []Callback{{Name: "IOAsyncCallback1", Func: cb}}
}

func parseGenerated(t *testing.T, src []byte) *ast.File {
	t.Helper()
	f, err := parser.ParseFile(token.NewFileSet(), "gen.go", src, parser.ParseComments)
	if err != nil {
		t.Fatalf("generated code does not parse: %v\n%s", err, src)
	}
	return f
}

// unsafeOnly resolves the one import generated code may have without
// libffi descriptions.
type unsafeOnly struct{}

func (unsafeOnly) Import(path string) (*types.Package, error) {
	if path == "unsafe" {
		return types.Unsafe, nil
	}
	return nil, fmt.Errorf("unexpected import %q", path)
}

// typeCheck compiles generated source for goarch, which evaluates the
// size guards.
func typeCheck(src []byte, goarch string) error {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "gen.go", src, 0)
	if err != nil {
		return err
	}
	conf := types.Config{Importer: unsafeOnly{}, Sizes: types.SizesFor("gc", goarch)}
	_, err = conf.Check("gen", fset, []*ast.File{f}, nil)
	return err
}

func TestGenerate(t *testing.T) {
	aggs, cbs := fixture(t)
	out, err := Generate("usb", aggs, cbs, WithSource("iokit"), WithGOARCH("amd64"))
	testutil.NoError(t, err, "Generate")
	got := string(out)
	f := parseGenerated(t, out)

	testutil.Equal(t, "usb", f.Name.Name, "package")
	for _, want := range []string{
		"// Code generated by cdecl gen from iokit. DO NOT EDIT.",
		"type IOAsyncCallback1 uintptr",
		"type CFRunLoopSource struct{ _ [0]byte }",
		"type IOUSBDevRequest struct {",
		"BmRequestType uint8",
		"WIndex        uint16",
		"PData         unsafe.Pointer",
		"WLenDone      uint32",
		"const SizeofIOUSBDevRequest = 24",
		"Source   *CFRunLoopSource",
		"Req      *IOUSBDevRequest",
		"Callback IOAsyncCallback1",
		"Name     *byte",
		"Value    Value",
		"Flag     int8",
		"Reserved unsafe.Pointer",
		"[0]uint64",
		"Data [8]byte",
	} {
		testutil.Contains(t, got, want)
	}
	testutil.False(t, strings.Contains(got, "ffi."), "no libffi descriptions unless asked")

	var importsUnsafe bool
	for _, imp := range f.Imports {
		if imp.Path.Value == `"unsafe"` {
			importsUnsafe = true
		}
	}
	testutil.True(t, importsUnsafe, "goimports adds unsafe")
	testutil.NoError(t, typeCheck(out, "amd64"), "size guards hold")
}

func TestGenerateTailPadding(t *testing.T) {
	s := scalars(ctype.LP64)
	wide := ctype.NewScalar("__int128", 16, true)
	agg := mustStruct(t, "Wide",
		ctype.Field{Name: "c", Type: s["char"]},
		ctype.Field{Name: "x", Type: wide},
	)
	out, err := Generate("wide", []*ctype.Aggregate{agg}, nil, WithGOARCH("amd64"))
	testutil.NoError(t, err, "Generate")
	got := string(out)
	parseGenerated(t, out)

	testutil.Contains(t, got, "_ [15]byte", "gap before the byte-array stand-in")
	testutil.Contains(t, got, "X [16]byte")
	testutil.Contains(t, got, "const SizeofWide = 32")
}

func TestGenerateWin32Padding(t *testing.T) {
	s := scalars(ctype.Win32)
	inner := mustStruct(t, "S",
		ctype.Field{Name: "a", Type: s["int"]},
		ctype.Field{Name: "d", Type: s["double"]},
	)
	outer := mustStruct(t, "Outer",
		ctype.Field{Name: "c", Type: s["char"]},
		ctype.Field{Name: "s", Type: inner},
	)
	testutil.Equal(t, 8, inner.Align(), "MSVC aligns double to 8")

	out, err := Generate("win", []*ctype.Aggregate{outer, inner}, nil, WithGOARCH("386"))
	testutil.NoError(t, err, "Generate")
	got := string(out)
	parseGenerated(t, out)

	for _, want := range []string{
		"A int32",
		"_ [4]byte",
		"D float64",
		"const SizeofS = 16",
		"_ [7]byte",
		"S S",
		"const SizeofOuter = 24",
	} {
		testutil.Contains(t, got, want)
	}
	testutil.NoError(t, typeCheck(out, "386"), "size guards hold on 386")
}

func TestGenerateSizeGuardsBothWays(t *testing.T) {
	s := scalars(ctype.LP64)
	agg := mustStruct(t, "S",
		ctype.Field{Name: "a", Type: s["int"]},
		ctype.Field{Name: "d", Type: s["double"]},
	)
	out, err := Generate("lp", []*ctype.Aggregate{agg}, nil, WithGOARCH("amd64"))
	testutil.NoError(t, err, "Generate")
	testutil.False(t, strings.Contains(string(out), "_ [4]byte"), "amd64 pads implicitly")
	testutil.NoError(t, typeCheck(out, "amd64"))

	// On 386 the Go struct shrinks to 12 bytes.
	testutil.Error(t, typeCheck(out, "386"), "smaller Go layout must not compile")

	i := scalars(ctype.ILP32)
	packed := mustStruct(t, "P",
		ctype.Field{Name: "a", Type: i["int"]},
		ctype.Field{Name: "d", Type: i["double"]},
	)
	out, err = Generate("ilp", []*ctype.Aggregate{packed}, nil, WithGOARCH("386"))
	testutil.NoError(t, err, "Generate")
	testutil.NoError(t, typeCheck(out, "386"))
	testutil.Error(t, typeCheck(out, "amd64"), "larger Go layout must not compile")
}

func TestGenerateLayoutMismatch(t *testing.T) {
	aggs, cbs := fixture(t)
	_, err := Generate("usb", aggs, cbs, WithGOARCH("386"))
	testutil.ErrorIs(t, err, ErrLayout, "8-byte C pointers on a 4-byte Go target")
	testutil.Contains(t, err.Error(), "IOUSBDevRequest")

	i := scalars(ctype.ILP32)
	packed := mustStruct(t, "P",
		ctype.Field{Name: "a", Type: i["int"]},
		ctype.Field{Name: "d", Type: i["double"]},
	)
	_, err = Generate("ilp", []*ctype.Aggregate{packed}, nil, WithGOARCH("amd64"))
	testutil.ErrorIs(t, err, ErrLayout, "double at offset 4 on amd64")
	testutil.Contains(t, err.Error(), "member d")

	_, err = Generate("ilp", nil, nil, WithGOARCH("pdp11"))
	testutil.Error(t, err, "unknown GOARCH")
	testutil.Contains(t, err.Error(), "pdp11")
}

func TestGenerateFFITypes(t *testing.T) {
	aggs, cbs := fixture(t)
	out, err := Generate("usb", aggs, cbs, WithFFITypes(), WithGOARCH("amd64"))
	testutil.NoError(t, err, "Generate")
	got := string(out)
	parseGenerated(t, out)

	testutil.Contains(t, got, `"github.com/jupiterrider/ffi"`)
	testutil.Contains(t, got, "var FFITypeIOUSBDevRequest = ffi.NewType(")
	testutil.Contains(t, got, "&ffi.TypeUint8,")
	testutil.Contains(t, got, "&ffi.TypePointer,")
	testutil.False(t, strings.Contains(got, "FFITypeHolder"), "unions have no libffi description")
	testutil.False(t, strings.Contains(got, "FFITypeValue"), "unions have no libffi description")
}

func TestGenerateNameCollisions(t *testing.T) {
	s := scalars(ctype.LP64)
	a := mustStruct(t, "_point", ctype.Field{Name: "x", Type: s["int"]}, ctype.Field{Name: "_x", Type: s["int"]})
	b := mustStruct(t, "Point", ctype.Field{Name: "", Type: s["int"]})
	out, err := Generate("geom", []*ctype.Aggregate{a, b}, nil, WithGOARCH("amd64"))
	testutil.NoError(t, err, "Generate")
	got := string(out)
	parseGenerated(t, out)

	testutil.Contains(t, got, "type Point struct")
	testutil.Contains(t, got, "type Point2 struct")
	testutil.Contains(t, got, "X2 int32")
	testutil.Contains(t, got, "F0 int32")
}

func TestGenerateInvalidPackage(t *testing.T) {
	_, err := Generate("not-a-package", nil, nil)
	testutil.Error(t, err, "invalid package name")
}

type failingFormatter struct{}

func (failingFormatter) Format(string, []byte) ([]byte, error) {
	return nil, errors.New("formatter exploded")
}

func TestGenerateFormatterError(t *testing.T) {
	_, err := Generate("usb", nil, nil, WithFormatter(failingFormatter{}))
	testutil.Error(t, err, "formatter error")
	testutil.Contains(t, err.Error(), "format: formatter exploded")
}

func TestExportName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"bmRequestType", "BmRequestType"},
		{"_reserved", "Reserved"},
		{"__CFRunLoopSource", "CFRunLoopSource"},
		{"___", "X"},
		{"IUnknown", "IUnknown"},
	}
	for _, tt := range tests {
		testutil.Equal(t, tt.want, exportName(tt.in), "exportName(%q)", tt.in)
	}
}
