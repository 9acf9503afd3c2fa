package ctype

import (
	"fmt"
	"slices"

	"github.com/golangsnmp/cdecl/internal/types"
)

// ErrIncompleteType is returned when a member's size is unknown: a void
// member or an aggregate that was declared but never completed.
var ErrIncompleteType = types.ErrIncompleteType

// Aggregate is a struct or union. Its layout is computed once, from
// members supplied as already-resolved descriptors, using the C rules:
// each member at the next offset aligned to its own alignment, the whole
// padded to the strictest member alignment. Union members all sit at
// offset 0.
//
// An aggregate created with [NewOpaque] is a forward declaration. It can
// be referenced through pointers immediately and completed later with
// [Aggregate.Complete]; completion mutates it in place so every descriptor
// already pointing at it sees the final layout. Complete it before sharing
// it between goroutines.
type Aggregate struct {
	name     string
	union    bool
	fields   []Field
	size     int
	align    int
	complete bool
}

// NewStruct lays out a struct with the given members.
func NewStruct(name string, fields ...Field) (*Aggregate, error) {
	a := &Aggregate{name: name}
	if err := a.Complete(fields...); err != nil {
		return nil, err
	}
	return a, nil
}

// NewUnion lays out a union with the given members.
func NewUnion(name string, fields ...Field) (*Aggregate, error) {
	a := &Aggregate{name: name, union: true}
	if err := a.Complete(fields...); err != nil {
		return nil, err
	}
	return a, nil
}

// NewOpaque returns an incomplete aggregate.
func NewOpaque(name string, union bool) *Aggregate {
	return &Aggregate{name: name, union: union, align: 1}
}

// Complete assigns the members of a forward-declared aggregate and
// computes its layout. Completing an aggregate twice is an error.
func (a *Aggregate) Complete(fields ...Field) error {
	if a.complete {
		return fmt.Errorf("aggregate %q is already complete", a.name)
	}
	laid := make([]Field, len(fields))
	offset, size, align := 0, 0, 1
	for i, f := range fields {
		if err := a.checkMember(f, laid[:i]); err != nil {
			return err
		}
		fa := f.Type.Align()
		align = max(align, fa)
		if a.union {
			f.Offset = 0
			size = max(size, f.Type.Size())
		} else {
			offset = alignUp(offset, fa)
			f.Offset = offset
			offset += f.Type.Size()
			size = offset
		}
		laid[i] = f
	}
	a.fields = laid
	a.align = align
	a.size = alignUp(size, align)
	a.complete = true
	return nil
}

func (a *Aggregate) checkMember(f Field, prev []Field) error {
	if f.Type == nil {
		return fmt.Errorf("%s: member %q has no type", a.label(), f.Name)
	}
	if IsVoid(f.Type) {
		return fmt.Errorf("%s: member %q: %w: void", a.label(), f.Name, ErrIncompleteType)
	}
	if inner, ok := f.Type.(*Aggregate); ok && !inner.complete {
		return fmt.Errorf("%s: member %q: %w: %s", a.label(), f.Name, ErrIncompleteType, inner.label())
	}
	for _, p := range prev {
		if f.Name != "" && p.Name == f.Name {
			return fmt.Errorf("%s: duplicate member %q", a.label(), f.Name)
		}
	}
	return nil
}

func (a *Aggregate) label() string {
	if a.name == "" {
		return a.keyword() + " <anonymous>"
	}
	return a.keyword() + " " + a.name
}

func (a *Aggregate) keyword() string {
	if a.union {
		return "union"
	}
	return "struct"
}

func (a *Aggregate) Kind() Kind { return KindAggregate }
func (a *Aggregate) Size() int  { return a.size }
func (a *Aggregate) Align() int { return a.align }
func (*Aggregate) isType()      {}

// String returns the registered name, or "struct <anonymous>".
func (a *Aggregate) String() string {
	if a.name != "" {
		return a.name
	}
	return a.label()
}

// Name returns the aggregate's name, or "" when anonymous.
func (a *Aggregate) Name() string { return a.name }

// IsUnion reports whether members overlap at offset 0.
func (a *Aggregate) IsUnion() bool { return a.union }

// IsComplete reports whether the layout is known.
func (a *Aggregate) IsComplete() bool { return a.complete }

// Fields returns the members with their offsets.
func (a *Aggregate) Fields() []Field { return slices.Clone(a.fields) }

// NumFields returns the number of members.
func (a *Aggregate) NumFields() int { return len(a.fields) }

// Field looks up a member by name.
func (a *Aggregate) Field(name string) (Field, bool) {
	i := slices.IndexFunc(a.fields, func(f Field) bool { return f.Name == name })
	if i < 0 {
		return Field{}, false
	}
	return a.fields[i], true
}

// Padding returns the byte ranges not covered by any member, as
// (offset, length) pairs in ascending order, including tail padding.
func (a *Aggregate) Padding() [][2]int {
	if a.union || !a.complete {
		return nil
	}
	var gaps [][2]int
	end := 0
	for _, f := range a.fields {
		if f.Offset > end {
			gaps = append(gaps, [2]int{end, f.Offset - end})
		}
		end = f.Offset + f.Type.Size()
	}
	if a.size > end {
		gaps = append(gaps, [2]int{end, a.size - end})
	}
	return gaps
}
