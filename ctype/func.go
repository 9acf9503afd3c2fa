package ctype

import (
	"slices"
	"strings"
)

// Func is a callable signature. Stored in an aggregate or passed as an
// argument it occupies one code pointer, the way a C function pointer does.
type Func struct {
	ret    Type
	params []Type
	conv   CallConv
	size   int
}

func (f *Func) Kind() Kind { return KindFunc }
func (f *Func) Size() int  { return f.size }
func (f *Func) Align() int { return f.size }
func (*Func) isType()      {}

// String returns the abstract function pointer spelling,
// e.g. "int (*)(void*, unsigned char)".
func (f *Func) String() string {
	var b strings.Builder
	b.WriteString(f.ret.String())
	b.WriteString(" (*)(")
	b.WriteString(f.paramList())
	b.WriteByte(')')
	return b.String()
}

func (f *Func) paramList() string {
	if len(f.params) == 0 {
		return "void"
	}
	names := make([]string, len(f.params))
	for i, p := range f.params {
		names[i] = p.String()
	}
	return strings.Join(names, ", ")
}

// Return returns the return descriptor; [Void] when nothing is returned.
func (f *Func) Return() Type { return f.ret }

// Params returns the parameter descriptors in declared order.
func (f *Func) Params() []Type { return slices.Clone(f.params) }

// NumParams returns the number of parameters.
func (f *Func) NumParams() int { return len(f.params) }

// Param returns the i'th parameter descriptor.
func (f *Func) Param(i int) Type { return f.params[i] }

// Conv returns the calling convention.
func (f *Func) Conv() CallConv { return f.conv }
