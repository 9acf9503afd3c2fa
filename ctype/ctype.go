// Package ctype models native C types as foreign-type descriptors.
//
// A descriptor is one of a closed set of variants:
//
//   - [Void]: no storage (a void return or bare void declaration)
//   - [*Scalar]: an integer, character or floating point value
//   - [*Pointer]: N levels of indirection over another descriptor
//   - [*Aggregate]: a struct or union with a pre-built layout
//   - [*Func]: a callable signature (return plus ordered parameters)
//
// Sizes and alignments follow the C ABI of a [Platform]. Scalars, pointers
// and functions compare structurally with [Equal]; aggregates compare by
// identity, since two distinct structs with identical members are distinct
// native types.
package ctype

// Kind identifies the variant of a descriptor.
type Kind int

const (
	KindVoid Kind = iota
	KindScalar
	KindPointer
	KindAggregate
	KindFunc
)

var kindNames = [...]string{
	KindVoid:      "void",
	KindScalar:    "scalar",
	KindPointer:   "pointer",
	KindAggregate: "aggregate",
	KindFunc:      "func",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Type is a resolved foreign-type descriptor.
type Type interface {
	// Kind reports the descriptor variant.
	Kind() Kind
	// Size is the storage size in bytes (0 for void and opaque aggregates).
	Size() int
	// Align is the required alignment in bytes.
	Align() int
	// String returns the C spelling of the type.
	String() string

	isType()
}

// Field is a named member of an aggregate, or a (name, descriptor) pair
// produced by a declaration. Offset is assigned by aggregate layout and
// ignored on input.
type Field struct {
	Name   string
	Type   Type
	Offset int
}

// VoidType is the type of [Void].
type VoidType struct{}

// Void denotes the absence of a value. It has no storage and is distinct
// from every scalar and pointer.
var Void = &VoidType{}

func (*VoidType) Kind() Kind     { return KindVoid }
func (*VoidType) Size() int      { return 0 }
func (*VoidType) Align() int     { return 1 }
func (*VoidType) String() string { return "void" }
func (*VoidType) isType()        {}

// IsVoid reports whether t is nil or [Void].
func IsVoid(t Type) bool {
	if t == nil {
		return true
	}
	_, ok := t.(*VoidType)
	return ok
}

// Equal reports whether a and b describe the same native type.
//
// Scalars are equal when their width, alignment, signedness, float-ness and
// character class match, so "long" and "long long" are equal on LP64 the
// same way the ABI treats them. Aggregates are equal only to themselves.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return IsVoid(a) && IsVoid(b)
	}
	switch x := a.(type) {
	case *VoidType:
		_, ok := b.(*VoidType)
		return ok
	case *Scalar:
		y, ok := b.(*Scalar)
		return ok && x.size == y.size && x.align == y.align &&
			x.signed == y.signed && x.float == y.float && x.char == y.char
	case *Pointer:
		y, ok := b.(*Pointer)
		return ok && x.depth == y.depth && x.str == y.str && x.size == y.size && Equal(x.elem, y.elem)
	case *Aggregate:
		y, ok := b.(*Aggregate)
		return ok && x == y
	case *Func:
		y, ok := b.(*Func)
		if !ok || x.conv != y.conv || len(x.params) != len(y.params) || !Equal(x.ret, y.ret) {
			return false
		}
		for i := range x.params {
			if !Equal(x.params[i], y.params[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func alignUp(n, align int) int {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}
