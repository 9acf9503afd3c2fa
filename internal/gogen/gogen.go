// Package gogen renders Go declarations that mirror registered C
// aggregates and callbacks.
package gogen

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"go/types"
	"runtime"
	"strconv"
	"strings"
	"text/template"
	"unicode"

	"golang.org/x/tools/imports"

	"github.com/golangsnmp/cdecl/ctype"
)

//go:embed templates/*.go.tmpl
var templateFS embed.FS

var tmpl = template.Must(template.ParseFS(templateFS, "templates/*.go.tmpl"))

// ErrLayout is returned when a C layout has no Go equivalent on the
// target architecture.
var ErrLayout = errors.New("layout not representable in Go")

// Callback is a named function type to emit as a uintptr handle.
type Callback struct {
	Name string
	Func *ctype.Func
}

// Formatter formats generated Go code and organizes imports.
type Formatter interface {
	Format(filename string, src []byte) ([]byte, error)
}

type goimportsFormatter struct{}

// NewGoimportsFormatter creates a formatter backed by goimports.
func NewGoimportsFormatter() Formatter {
	return goimportsFormatter{}
}

func (goimportsFormatter) Format(filename string, src []byte) ([]byte, error) {
	return imports.Process(filename, src, nil)
}

// Option configures Generate.
type Option func(*config)

type config struct {
	source    string
	ffi       bool
	goarch    string
	formatter Formatter
}

// WithSource names the input in the generated header comment.
func WithSource(name string) Option {
	return func(c *config) { c.source = name }
}

// WithFFITypes also emits a libffi type description for every struct.
func WithFFITypes() Option {
	return func(c *config) { c.ffi = true }
}

// WithGOARCH sets the architecture the generated code is built for. Go
// field alignment depends on it: float64 and uint64 are 4-byte aligned on
// 386, arm and mips. The default is runtime.GOARCH.
func WithGOARCH(goarch string) Option {
	return func(c *config) { c.goarch = goarch }
}

// WithFormatter replaces the goimports formatter.
func WithFormatter(f Formatter) Option {
	return func(c *config) { c.formatter = f }
}

// Generate renders one Go file in package pkg declaring a struct per
// complete aggregate, an empty struct per incomplete one and a uintptr
// type per callback. Aggregates should be ordered dependencies first, as
// catalog loading returns them.
//
// Field types use fixed-width Go integers, unsafe.Pointer for data
// pointers and *T for pointers to emitted aggregates. Explicit padding is
// inserted wherever the C layout has a gap Go would not produce on the
// target architecture, and unions become aligned byte arrays of the union
// size. A member Go cannot place at its C offset fails with [ErrLayout].
func Generate(pkg string, aggregates []*ctype.Aggregate, callbacks []Callback, opts ...Option) ([]byte, error) {
	cfg := config{goarch: runtime.GOARCH, formatter: NewGoimportsFormatter()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if !isIdent(pkg) {
		return nil, fmt.Errorf("invalid package name %q", pkg)
	}
	sizes := types.SizesFor("gc", cfg.goarch)
	if sizes == nil {
		return nil, fmt.Errorf("unsupported GOARCH %q", cfg.goarch)
	}

	g := newGenerator(aggregates, callbacks, sizes, cfg.ffi)
	data := fileData{Package: pkg, Source: cfg.source}
	for _, cb := range callbacks {
		data.Callbacks = append(data.Callbacks, callbackData{
			Name:      g.typeNames[cb.Func],
			Signature: cb.Func.String(),
		})
	}
	for _, agg := range aggregates {
		if !agg.IsComplete() {
			data.Opaque = append(data.Opaque, opaqueData{
				Name:    g.typeNames[agg],
				CName:   agg.Name(),
				Keyword: keyword(agg),
			})
			continue
		}
		l := g.layout(agg)
		if l.err != nil {
			return nil, l.err
		}
		data.Structs = append(data.Structs, l.data)
	}
	data.FFI = cfg.ffi && g.usedFFI

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "types.go.tmpl", data); err != nil {
		return nil, fmt.Errorf("template: %w", err)
	}
	out, err := cfg.formatter.Format(pkg+"_types.go", buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format: %w", err)
	}
	return out, nil
}

type fileData struct {
	Package   string
	Source    string
	FFI       bool
	Callbacks []callbackData
	Opaque    []opaqueData
	Structs   []structData
}

type callbackData struct {
	Name      string
	Signature string
}

type opaqueData struct {
	Name    string
	CName   string
	Keyword string
}

type structData struct {
	Name     string
	CName    string
	Keyword  string
	Size     int
	Align    int
	Fields   []fieldData
	FFIElems []string
}

type fieldData struct {
	Name    string
	Type    string
	Comment string
}

type generator struct {
	// Go names of emitted types, keyed by descriptor identity.
	typeNames map[ctype.Type]string
	layouts   map[*ctype.Aggregate]*layout
	sizes     types.Sizes
	ffi       bool
	usedFFI   bool
}

// layout is the Go rendering of one complete aggregate.
type layout struct {
	data  structData
	align int // Go alignment; the Go size always equals the C size
	ffi   bool
	err   error
}

// goField is a Go type expression with the size and alignment Go gives it.
type goField struct {
	typ   string
	size  int
	align int
}

func newGenerator(aggregates []*ctype.Aggregate, callbacks []Callback, sizes types.Sizes, withFFI bool) *generator {
	g := &generator{
		typeNames: make(map[ctype.Type]string),
		layouts:   make(map[*ctype.Aggregate]*layout),
		sizes:     sizes,
		ffi:       withFFI,
	}
	taken := make(map[string]bool)
	name := func(c string) string {
		n := uniqueName(exportName(c), taken)
		taken[n] = true
		return n
	}
	for _, cb := range callbacks {
		g.typeNames[cb.Func] = name(cb.Name)
	}
	for _, agg := range aggregates {
		g.typeNames[agg] = name(agg.Name())
	}
	return g
}

// layout renders agg once. Aggregates held by value are rendered first,
// whatever order they were given in.
func (g *generator) layout(agg *ctype.Aggregate) *layout {
	if l, ok := g.layouts[agg]; ok {
		return l
	}
	l := &layout{data: structData{
		Name:    g.typeNames[agg],
		CName:   agg.Name(),
		Keyword: keyword(agg),
		Size:    agg.Size(),
		Align:   agg.Align(),
	}}
	g.layouts[agg] = l
	if agg.IsUnion() {
		g.unionLayout(agg, l)
	} else {
		g.structLayout(agg, l)
	}
	if l.err != nil {
		l.err = fmt.Errorf("%s %s: %w", keyword(agg), agg.Name(), l.err)
	}
	return l
}

func (g *generator) structLayout(agg *ctype.Aggregate, l *layout) {
	taken := make(map[string]bool)
	offset, align := 0, 1
	ffiOK := g.ffi
	var elems []string
	for i, f := range agg.Fields() {
		name := f.Name
		if name == "" {
			name = "F" + strconv.Itoa(i)
		}
		gf, err := g.goType(f.Type)
		if err != nil {
			l.err = fmt.Errorf("member %s: %w", name, err)
			return
		}
		switch {
		case gf.size != f.Type.Size():
			l.err = fmt.Errorf("%w: member %s is %d bytes in C but %s is %d bytes",
				ErrLayout, name, f.Type.Size(), gf.typ, gf.size)
			return
		case f.Offset < offset || f.Offset%gf.align != 0:
			l.err = fmt.Errorf("%w: member %s at offset %d cannot hold %s (align %d)",
				ErrLayout, name, f.Offset, gf.typ, gf.align)
			return
		}
		if alignUp(offset, gf.align) != f.Offset {
			l.data.Fields = append(l.data.Fields, padField(f.Offset-offset))
		}
		name = uniqueName(exportName(name), taken)
		taken[name] = true
		l.data.Fields = append(l.data.Fields, fieldData{
			Name:    name,
			Type:    gf.typ,
			Comment: fmt.Sprintf("+%d %s", f.Offset, f.Type),
		})
		offset = f.Offset + gf.size
		align = max(align, gf.align)

		if ffiOK {
			elem, ok := g.ffiType(f.Type)
			if !ok {
				ffiOK = false
			}
			elems = append(elems, elem)
		}
	}
	if alignUp(offset, align) < agg.Size() {
		l.data.Fields = append(l.data.Fields, padField(agg.Size()-offset))
		offset = agg.Size()
	}
	if size := alignUp(offset, align); size != agg.Size() {
		l.err = fmt.Errorf("%w: Go size %d, C size %d", ErrLayout, size, agg.Size())
		return
	}
	l.align = align
	if ffiOK && len(elems) > 0 {
		l.data.FFIElems = elems
		l.ffi = true
		g.usedFFI = true
	}
}

// unionLayout lays a union out as raw storage with the union's alignment.
func (g *generator) unionLayout(agg *ctype.Aggregate, l *layout) {
	l.align = 1
	if kind, ok := alignKind(agg.Align()); ok {
		l.data.Fields = append(l.data.Fields, fieldData{Name: "_", Type: "[0]" + types.Typ[kind].Name()})
		_, l.align = g.basic(kind)
	}
	if agg.Size()%l.align != 0 {
		l.err = fmt.Errorf("%w: union size %d is not a multiple of its Go alignment %d",
			ErrLayout, agg.Size(), l.align)
		return
	}
	names := make([]string, 0, agg.NumFields())
	for _, f := range agg.Fields() {
		names = append(names, f.Name)
	}
	l.data.Fields = append(l.data.Fields, fieldData{
		Name:    "Data",
		Type:    fmt.Sprintf("[%d]byte", agg.Size()),
		Comment: "union of " + strings.Join(names, ", "),
	})
}

func padField(n int) fieldData {
	return fieldData{Name: "_", Type: fmt.Sprintf("[%d]byte", n)}
}

// goType maps a C descriptor to a Go type expression.
func (g *generator) goType(t ctype.Type) (goField, error) {
	switch t := t.(type) {
	case *ctype.Scalar:
		if kind, ok := scalarKind(t); ok {
			return g.basicField(types.Typ[kind].Name(), kind), nil
		}
	case *ctype.Pointer:
		if agg, ok := t.Elem().(*ctype.Aggregate); ok && t.Depth() == 1 {
			if name, ok := g.typeNames[agg]; ok {
				return g.basicField("*"+name, types.UnsafePointer), nil
			}
		}
		if t.StringClass() == ctype.StringNarrow {
			return g.basicField("*byte", types.UnsafePointer), nil
		}
		return g.basicField("unsafe.Pointer", types.UnsafePointer), nil
	case *ctype.Func:
		if name, ok := g.typeNames[t]; ok {
			return g.basicField(name, types.Uintptr), nil
		}
		return g.basicField("uintptr", types.Uintptr), nil
	case *ctype.Aggregate:
		if name, ok := g.typeNames[t]; ok && t.IsComplete() {
			l := g.layout(t)
			if l.err != nil {
				return goField{}, l.err
			}
			if l.align == 0 {
				return goField{}, fmt.Errorf("%w: %s contains itself", ErrLayout, t.Name())
			}
			return goField{typ: name, size: t.Size(), align: l.align}, nil
		}
	}
	return goField{typ: fmt.Sprintf("[%d]byte", t.Size()), size: t.Size(), align: 1}, nil
}

func (g *generator) basicField(typ string, kind types.BasicKind) goField {
	size, align := g.basic(kind)
	return goField{typ: typ, size: size, align: align}
}

func (g *generator) basic(kind types.BasicKind) (size, align int) {
	t := types.Typ[kind]
	return int(g.sizes.Sizeof(t)), int(g.sizes.Alignof(t))
}

// scalarKind returns the fixed-width Go type for s. Scalars without one
// are emitted as byte arrays.
func scalarKind(s *ctype.Scalar) (types.BasicKind, bool) {
	if s.Float() {
		switch s.Size() {
		case 4:
			return types.Float32, true
		case 8:
			return types.Float64, true
		}
		return types.Invalid, false
	}
	signed := [...]types.BasicKind{1: types.Int8, 2: types.Int16, 4: types.Int32, 8: types.Int64}
	unsigned := [...]types.BasicKind{1: types.Uint8, 2: types.Uint16, 4: types.Uint32, 8: types.Uint64}
	if s.Size() >= len(signed) || signed[s.Size()] == types.Invalid {
		return types.Invalid, false
	}
	if s.Signed() {
		return signed[s.Size()], true
	}
	return unsigned[s.Size()], true
}

// ffiType maps a member to its libffi element expression. Unions and
// aggregates without a generated description have none.
func (g *generator) ffiType(t ctype.Type) (string, bool) {
	switch t := t.(type) {
	case *ctype.Scalar:
		if t.Float() {
			switch t.Size() {
			case 4:
				return "&ffi.TypeFloat", true
			case 8:
				return "&ffi.TypeDouble", true
			}
			return "&ffi.TypeLongdouble", true
		}
		prefix := "&ffi.TypeUint"
		if t.Signed() {
			prefix = "&ffi.TypeSint"
		}
		return prefix + strconv.Itoa(t.Size()*8), true
	case *ctype.Pointer, *ctype.Func:
		return "&ffi.TypePointer", true
	case *ctype.Aggregate:
		if l, ok := g.layouts[t]; !ok || !l.ffi {
			return "", false
		}
		return "&FFIType" + g.typeNames[t], true
	}
	return "", false
}

func alignKind(align int) (types.BasicKind, bool) {
	switch align {
	case 2:
		return types.Uint16, true
	case 4:
		return types.Uint32, true
	case 8:
		return types.Uint64, true
	}
	return types.Invalid, false
}

func keyword(agg *ctype.Aggregate) string {
	if agg.IsUnion() {
		return "union"
	}
	return "struct"
}

// exportName turns a C identifier into an exported Go identifier:
// leading underscores are dropped and the first letter is upper-cased.
func exportName(name string) string {
	name = strings.TrimLeft(name, "_")
	if name == "" {
		return "X"
	}
	r := []rune(name)
	if !unicode.IsLetter(r[0]) {
		return "X" + name
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func uniqueName(name string, taken map[string]bool) string {
	if !taken[name] {
		return name
	}
	for i := 2; ; i++ {
		n := name + strconv.Itoa(i)
		if !taken[n] {
			return n
		}
	}
}

func alignUp(n, align int) int {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}

func isIdent(s string) bool {
	for i, r := range s {
		if r != '_' && !unicode.IsLetter(r) && (i == 0 || !unicode.IsDigit(r)) {
			return false
		}
	}
	return s != ""
}
