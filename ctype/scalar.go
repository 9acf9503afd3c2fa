package ctype

import "strings"

// CharClass marks character scalars, which consumers may marshal as text.
type CharClass int

const (
	CharNone CharClass = iota
	CharNarrow
	CharWide
)

// Scalar is a fixed-width integer, character or floating point type.
type Scalar struct {
	name   string
	size   int
	align  int
	signed bool
	float  bool
	char   CharClass
}

// NewScalar returns an integer scalar with natural alignment. Most callers
// use the scalars seeded into a registry instead.
func NewScalar(name string, size int, signed bool) *Scalar {
	return &Scalar{name: name, size: size, align: max(size, 1), signed: signed}
}

func (s *Scalar) Kind() Kind     { return KindScalar }
func (s *Scalar) Size() int      { return s.size }
func (s *Scalar) Align() int     { return s.align }
func (s *Scalar) String() string { return s.name }
func (*Scalar) isType()          {}

// Name returns the C spelling, e.g. "unsigned long long".
func (s *Scalar) Name() string { return s.name }

// Signed reports whether the scalar is signed. Floats are signed.
func (s *Scalar) Signed() bool { return s.signed }

// Float reports whether the scalar is an IEEE 754 float.
func (s *Scalar) Float() bool { return s.float }

// Char reports the character class.
func (s *Scalar) Char() CharClass { return s.char }

// StringClass marks pointers that marshal as native strings.
type StringClass int

const (
	StringNone StringClass = iota
	StringNarrow
	StringWide
)

// Pointer is Depth levels of indirection over Elem.
type Pointer struct {
	elem  Type
	depth int
	size  int
	str   StringClass
}

func (p *Pointer) Kind() Kind { return KindPointer }
func (p *Pointer) Size() int  { return p.size }
func (p *Pointer) Align() int { return p.size }
func (*Pointer) isType()      {}

func (p *Pointer) String() string {
	return p.elem.String() + strings.Repeat("*", p.depth)
}

// Elem returns the pointed-to descriptor after all Depth levels.
func (p *Pointer) Elem() Type { return p.elem }

// Depth returns the number of indirection levels (at least 1).
func (p *Pointer) Depth() int { return p.depth }

// StringClass reports whether this is a native string pointer.
func (p *Pointer) StringClass() StringClass { return p.str }
