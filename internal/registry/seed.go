package registry

import (
	"log/slog"

	"github.com/golangsnmp/cdecl/ctype"
)

// spellingAliases maps alternate C spellings of the standard integer types
// to their canonical names.
var spellingAliases = [][2]string{
	{"signed", "int"},
	{"signed int", "int"},
	{"unsigned", "unsigned int"},
	{"short int", "short"},
	{"signed short", "short"},
	{"signed short int", "short"},
	{"unsigned short int", "unsigned short"},
	{"long int", "long"},
	{"signed long", "long"},
	{"signed long int", "long"},
	{"unsigned long int", "unsigned long"},
	{"long long int", "long long"},
	{"signed long long", "long long"},
	{"signed long long int", "long long"},
	{"unsigned long long int", "unsigned long long"},
}

var fixedWidthAliases = [][2]string{
	{"int8_t", "signed char"},
	{"uint8_t", "unsigned char"},
	{"int16_t", "short"},
	{"uint16_t", "unsigned short"},
	{"int32_t", "int"},
	{"uint32_t", "unsigned int"},
	{"int64_t", "long long"},
	{"uint64_t", "unsigned long long"},
}

func (r *Registry) seed() {
	r.put(Name{Base: "void"}, entry{typ: ctype.Void})

	for _, s := range r.platform.Scalars() {
		r.put(Name{Base: s.Name()}, entry{typ: s})
		if s.Char() != ctype.CharNone {
			r.put(Name{Base: s.Name(), Pointers: 1}, entry{typ: r.platform.StringPointer(s)})
		}
	}

	for _, a := range spellingAliases {
		r.seedAlias(a[0], a[1])
	}
	for _, a := range fixedWidthAliases {
		r.seedAlias(a[0], a[1])
	}

	// Pointer-sized typedefs follow the data model.
	signed, unsigned := "int", "unsigned int"
	if r.platform.PointerSize == 8 {
		signed, unsigned = "long long", "unsigned long long"
		if r.platform.LongSize == 8 {
			signed, unsigned = "long", "unsigned long"
		}
	}
	for _, name := range []string{"ssize_t", "intptr_t", "ptrdiff_t"} {
		r.seedAlias(name, signed)
	}
	for _, name := range []string{"size_t", "uintptr_t"} {
		r.seedAlias(name, unsigned)
	}
}

func (r *Registry) seedAlias(name, target string) {
	n, err := ParseName(name)
	if err != nil {
		panic("registry: bad seed name " + name)
	}
	tn, err := ParseName(target)
	if err != nil {
		panic("registry: bad seed target " + target)
	}
	r.put(n, entry{target: tn})
	if r.TraceEnabled() {
		r.Trace("seeded alias", slog.String("name", n.Key()), slog.String("target", tn.Key()))
	}
}
