package cdecl

import (
	"fmt"
	"log/slog"

	"github.com/golangsnmp/cdecl/ctype"
	"github.com/golangsnmp/cdecl/internal/ast"
	"github.com/golangsnmp/cdecl/internal/parser"
	"github.com/golangsnmp/cdecl/internal/synth"
	"github.com/golangsnmp/cdecl/internal/types"
)

// Declaration is one parsed and resolved C declaration.
type Declaration struct {
	decl   *ast.Decl
	typ    Type
	ret    *Declaration
	params []*Declaration
}

// Parse parses text and resolves every type name in it.
//
// Example:
//
//	d, err := cdecl.Parse("IOReturn (*DeviceRequest)(void *self, IOUSBDevRequest *req)")
//	if err != nil {
//	    return err
//	}
//	fn := d.Type().(*ctype.Func)
func Parse(text string, opts ...Option) (*Declaration, error) {
	cfg := newConfig(opts)
	decl, err := parser.Parse(text, cfg.registry, cfg.logger)
	if err != nil {
		return nil, err
	}
	s := synth.New(cfg.registry, types.ComponentLogger(cfg.logger, "synth"))
	return newDeclaration(s, decl)
}

// MustParse is like Parse but panics on error. It is meant for
// package-level tables of declarations known to be valid.
func MustParse(text string, opts ...Option) *Declaration {
	d, err := Parse(text, opts...)
	if err != nil {
		panic(fmt.Sprintf("cdecl: Parse(%q): %v", text, err))
	}
	return d
}

func newDeclaration(s *synth.Synthesizer, decl *ast.Decl) (*Declaration, error) {
	t, err := s.Type(decl)
	if err != nil {
		return nil, err
	}
	d := &Declaration{decl: decl, typ: t}
	fn, ok := t.(*ctype.Func)
	if !ok {
		return d, nil
	}
	d.ret = &Declaration{decl: decl.Return(), typ: fn.Return()}
	d.params = make([]*Declaration, len(decl.Func.Params))
	for i, p := range decl.Func.Params {
		d.params[i] = &Declaration{decl: p, typ: fn.Param(i)}
	}
	if s.TraceEnabled() {
		s.Trace("declaration resolved",
			slog.String("name", d.Name()),
			slog.String("type", t.String()))
	}
	return d, nil
}

// Name returns the declarator name, "" for a type-only declaration.
func (d *Declaration) Name() string { return d.decl.Name.Name }

// TypeName returns the normalized type without the declarator. Pointer
// stars are attached to the base name ("int*"); function-shaped
// declarations spell as "ret (*)(params)" or "ret (params)".
func (d *Declaration) TypeName() string { return d.decl.TypeName() }

// Type returns the resolved descriptor. Function-shaped declarations
// yield a *ctype.Func; "void" yields ctype.Void.
func (d *Declaration) Type() Type { return d.typ }

// Field returns the (name, descriptor) member pair used to build
// aggregates and parameter lists.
func (d *Declaration) Field() Field {
	return Field{Name: d.Name(), Type: d.typ}
}

// IsFunc reports whether the declaration is function-shaped.
func (d *Declaration) IsFunc() bool { return d.decl.IsFunc() }

// IsFuncPointer reports whether the declaration used the "(*name)(...)"
// form.
func (d *Declaration) IsFuncPointer() bool {
	return d.decl.IsFunc() && d.decl.Func.Pointer
}

// ReturnType returns the return declaration of a function-shaped
// declaration, or nil.
func (d *Declaration) ReturnType() *Declaration { return d.ret }

// Params returns the parameter declarations in order, or nil for
// non-function declarations.
func (d *Declaration) Params() []*Declaration { return d.params }

// Declare renders the declaration with a different declarator name. The
// result parses back to an equal descriptor.
func (d *Declaration) Declare(name string) string { return d.decl.Declare(name) }

// String renders the declaration in normalized form.
func (d *Declaration) String() string { return d.decl.String() }
