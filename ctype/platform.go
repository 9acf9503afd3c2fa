package ctype

import (
	"fmt"
	"runtime"
	"strings"
	"unsafe"
)

// CallConv is the calling convention of a native function.
type CallConv int

const (
	ConvCdecl CallConv = iota
	ConvStdcall
)

func (c CallConv) String() string {
	switch c {
	case ConvCdecl:
		return "cdecl"
	case ConvStdcall:
		return "stdcall"
	default:
		return "unknown"
	}
}

// Platform is a C data model: the widths of the platform-dependent scalars,
// the pointer width and the calling convention used for callbacks.
type Platform struct {
	Name        string
	PointerSize int
	IntSize     int
	LongSize    int
	WCharSize   int
	WCharSigned bool
	// CharUnsigned makes plain char unsigned, as on ARM and POWER Linux.
	CharUnsigned bool
	// MaxAlign caps scalar alignment (4 on i386 System V, where double
	// and long long are 4-byte aligned inside structs).
	MaxAlign int
	Conv     CallConv
}

// Common data models.
var (
	LP64  = Platform{Name: "lp64", PointerSize: 8, IntSize: 4, LongSize: 8, WCharSize: 4, WCharSigned: true, MaxAlign: 8, Conv: ConvCdecl}
	LLP64 = Platform{Name: "llp64", PointerSize: 8, IntSize: 4, LongSize: 4, WCharSize: 2, WCharSigned: false, MaxAlign: 8, Conv: ConvCdecl}
	ILP32 = Platform{Name: "ilp32", PointerSize: 4, IntSize: 4, LongSize: 4, WCharSize: 4, WCharSigned: true, MaxAlign: 4, Conv: ConvCdecl}
	Win32 = Platform{Name: "win32", PointerSize: 4, IntSize: 4, LongSize: 4, WCharSize: 2, WCharSigned: false, MaxAlign: 8, Conv: ConvStdcall}

	// ILP32EABI is 32-bit ARM EABI: double and long long keep their
	// 8-byte alignment, char and wchar_t are unsigned.
	ILP32EABI = Platform{Name: "ilp32-eabi", PointerSize: 4, IntSize: 4, LongSize: 4, WCharSize: 4, WCharSigned: false, CharUnsigned: true, MaxAlign: 8, Conv: ConvCdecl}
)

// Host returns the data model of the running process.
func Host() Platform {
	return hostPlatform(runtime.GOOS, runtime.GOARCH)
}

// hostPlatform selects the data model for a GOOS/GOARCH pair.
func hostPlatform(goos, goarch string) Platform {
	ptr := pointerSize(goarch)
	if goos == "windows" {
		if ptr == 8 {
			return LLP64
		}
		if goarch == "arm" {
			p := Win32
			p.Conv = ConvCdecl
			return p
		}
		return Win32
	}

	var p Platform
	switch {
	case ptr == 8:
		p = LP64
	case goarch == "386":
		return ILP32
	case goarch == "arm":
		return ILP32EABI
	default:
		// MIPS O32 aligns double and long long to 8 but keeps signed char.
		p = ILP32EABI
		p.Name = "ilp32-align8"
		p.CharUnsigned = false
		p.WCharSigned = true
		return p
	}

	switch goarch {
	case "arm64":
		if goos == "darwin" || goos == "ios" {
			return p
		}
		p.CharUnsigned = true
		p.WCharSigned = false
	case "ppc64", "ppc64le", "s390x", "riscv64":
		p.CharUnsigned = true
	}
	return p
}

// pointerSize returns the pointer width of goarch, falling back to the
// running process for architectures it does not know.
func pointerSize(goarch string) int {
	switch goarch {
	case "386", "arm", "mips", "mipsle":
		return 4
	case "amd64", "arm64", "loong64", "mips64", "mips64le", "ppc64", "ppc64le", "riscv64", "s390x", "wasm":
		return 8
	}
	return int(unsafe.Sizeof(uintptr(0)))
}

// ParsePlatform returns the data model with the given name. "host" or ""
// selects [Host].
func ParsePlatform(name string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "host":
		return Host(), nil
	case LP64.Name:
		return LP64, nil
	case LLP64.Name:
		return LLP64, nil
	case ILP32.Name:
		return ILP32, nil
	case ILP32EABI.Name:
		return ILP32EABI, nil
	case Win32.Name:
		return Win32, nil
	}
	return Platform{}, fmt.Errorf("unknown platform %q (want lp64, llp64, ilp32, ilp32-eabi, win32 or host)", name)
}

func (p Platform) scalarAlign(size int) int {
	if p.MaxAlign > 0 && size > p.MaxAlign {
		return p.MaxAlign
	}
	return max(size, 1)
}

// Scalars returns a fresh set of the standard C scalar descriptors for this
// platform, in declaration order.
func (p Platform) Scalars() []*Scalar {
	s := func(name string, size int, signed bool) *Scalar {
		return &Scalar{name: name, size: size, align: p.scalarAlign(size), signed: signed}
	}
	char := s("char", 1, !p.CharUnsigned)
	char.char = CharNarrow
	wchar := s("wchar_t", p.WCharSize, p.WCharSigned)
	wchar.char = CharWide
	float := s("float", 4, true)
	float.float = true
	double := s("double", 8, true)
	double.float = true

	return []*Scalar{
		char,
		s("signed char", 1, true),
		s("unsigned char", 1, false),
		wchar,
		s("short", 2, true),
		s("unsigned short", 2, false),
		s("int", p.IntSize, true),
		s("unsigned int", p.IntSize, false),
		s("long", p.LongSize, true),
		s("unsigned long", p.LongSize, false),
		s("long long", 8, true),
		s("unsigned long long", 8, false),
		float,
		double,
	}
}

// PointerTo wraps elem in n levels of indirection. n == 0 returns elem
// unchanged; wrapping a plain pointer adds to its depth, so depth is
// strictly additive. String pointers are never merged.
func (p Platform) PointerTo(elem Type, n int) Type {
	if n <= 0 {
		return elem
	}
	if elem == nil {
		elem = Void
	}
	if ptr, ok := elem.(*Pointer); ok && ptr.str == StringNone {
		return &Pointer{elem: ptr.elem, depth: ptr.depth + n, size: p.PointerSize}
	}
	return &Pointer{elem: elem, depth: n, size: p.PointerSize}
}

// StringPointer returns a native string pointer over the character scalar
// ch. It has the layout of a one-level pointer but marshals as a string.
func (p Platform) StringPointer(ch *Scalar) *Pointer {
	class := StringNarrow
	if ch.char == CharWide {
		class = StringWide
	}
	return &Pointer{elem: ch, depth: 1, size: p.PointerSize, str: class}
}

// Func builds a function signature with the platform calling convention.
// A nil ret means void.
func (p Platform) Func(ret Type, params ...Type) *Func {
	if ret == nil {
		ret = Void
	}
	return &Func{
		ret:    ret,
		params: append([]Type(nil), params...),
		conv:   p.Conv,
		size:   p.PointerSize,
	}
}
