// Package ast provides the syntax tree for parsed C declarations.
package ast

import (
	"strings"

	"github.com/golangsnmp/cdecl/internal/types"
)

// Ident is an identifier with source location. An empty Name means the
// declaration has no declarator.
type Ident struct {
	Name string
	Span types.Span
}

// TypeSpec is a base type name with its accumulated pointer depth.
type TypeSpec struct {
	// Name is the whitespace-collapsed base type name, e.g. "unsigned long".
	Name string
	// Pointers counts every '*' before the declarator, wherever it appeared.
	Pointers int
	Span     types.Span
}

// String returns the normalized spelling, e.g. "char**".
func (t TypeSpec) String() string {
	return t.Name + strings.Repeat("*", t.Pointers)
}

// IsVoid reports whether the spec is void by value.
func (t TypeSpec) IsVoid() bool {
	return t.Name == "void" && t.Pointers == 0
}

// Decl is one parsed declaration. For function-shaped declarations Type
// is the return type and Func holds the parameter list.
type Decl struct {
	Type TypeSpec
	Name Ident
	Func *FuncSpec
	Span types.Span
}

// FuncSpec is the parameter part of a function-shaped declaration.
type FuncSpec struct {
	// Params are never function-shaped themselves.
	Params []*Decl
	// Pointer marks the "(*Name)(...)" form.
	Pointer bool
}

// IsFunc reports whether the declaration is function-shaped.
func (d *Decl) IsFunc() bool {
	return d.Func != nil
}

// Return returns the return-type node of a function-shaped declaration,
// or nil.
func (d *Decl) Return() *Decl {
	if d.Func == nil {
		return nil
	}
	return &Decl{Type: d.Type, Span: d.Type.Span}
}

// TypeName returns the normalized type of the declaration without its
// declarator: "int*" for "int *p", "int (*)(char*)" for a function
// pointer and "int (char*)" for a function.
func (d *Decl) TypeName() string {
	if d.Func == nil {
		return d.Type.String()
	}
	var b strings.Builder
	b.WriteString(d.Type.String())
	if d.Func.Pointer {
		b.WriteString(" (*)")
	} else {
		b.WriteByte(' ')
	}
	d.writeParams(&b, false)
	return b.String()
}

// Declare renders the declaration with name as its declarator, e.g.
// Declare("cb") on "void (*)(int)" gives "void (*cb)(int)". Parameter
// names are kept.
func (d *Decl) Declare(name string) string {
	var b strings.Builder
	b.WriteString(d.Type.String())
	switch {
	case d.Func != nil && d.Func.Pointer:
		b.WriteString(" (*")
		b.WriteString(name)
		b.WriteByte(')')
		d.writeParams(&b, true)
	case d.Func != nil:
		b.WriteByte(' ')
		b.WriteString(name)
		d.writeParams(&b, true)
	case name != "":
		b.WriteByte(' ')
		b.WriteString(name)
	}
	return b.String()
}

// String renders the declaration in normalized form.
func (d *Decl) String() string {
	return d.Declare(d.Name.Name)
}

func (d *Decl) writeParams(b *strings.Builder, names bool) {
	b.WriteByte('(')
	if len(d.Func.Params) == 0 {
		b.WriteString("void")
	}
	for i, p := range d.Func.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		if names {
			b.WriteString(p.String())
		} else {
			b.WriteString(p.TypeName())
		}
	}
	b.WriteByte(')')
}
