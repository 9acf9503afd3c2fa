package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/golangsnmp/cdecl/ctype"
	"github.com/golangsnmp/cdecl/internal/testutil"
	"github.com/golangsnmp/cdecl/internal/types"
)

func mustLookup(t *testing.T, r *Registry, name string) ctype.Type {
	t.Helper()
	typ, err := r.Resolve(name)
	testutil.NoError(t, err, "resolve %q", name)
	return typ
}

func TestSeededScalars(t *testing.T) {
	r := New(ctype.LP64, nil)
	tests := []struct {
		name   string
		size   int
		signed bool
	}{
		{"char", 1, true},
		{"unsigned char", 1, false},
		{"wchar_t", 4, true},
		{"short", 2, true},
		{"unsigned short", 2, false},
		{"int", 4, true},
		{"unsigned int", 4, false},
		{"long", 8, true},
		{"unsigned long", 8, false},
		{"long long", 8, true},
		{"unsigned long long", 8, false},
		{"float", 4, true},
		{"double", 8, true},
	}
	for _, tc := range tests {
		s, ok := mustLookup(t, r, tc.name).(*ctype.Scalar)
		testutil.True(t, ok, "%s is a scalar", tc.name)
		testutil.Equal(t, tc.size, s.Size(), "%s size", tc.name)
		testutil.Equal(t, tc.signed, s.Signed(), "%s signedness", tc.name)
	}
	testutil.True(t, ctype.IsVoid(mustLookup(t, r, "void")), "void")
}

func TestLookupReturnsSameDescriptor(t *testing.T) {
	r := New(ctype.LP64, nil)
	a := mustLookup(t, r, "int")
	b := mustLookup(t, r, "int")
	testutil.True(t, a == b, "scalars are stored by reference")
}

func TestStringPointers(t *testing.T) {
	r := New(ctype.LP64, nil)

	p, ok := mustLookup(t, r, "char*").(*ctype.Pointer)
	testutil.True(t, ok, "char* is a pointer")
	testutil.Equal(t, ctype.StringNarrow, p.StringClass())
	testutil.Equal(t, 8, p.Size())

	w := mustLookup(t, r, "wchar_t *").(*ctype.Pointer)
	testutil.Equal(t, ctype.StringWide, w.StringClass())

	pp := mustLookup(t, r, "char**").(*ctype.Pointer)
	testutil.Equal(t, 1, pp.Depth(), "pointer to the string pointer")
	testutil.True(t, pp.Elem() == ctype.Type(p), "wraps the registered string pointer")
	testutil.Equal(t, "char**", pp.String())

	u := mustLookup(t, r, "unsigned char*").(*ctype.Pointer)
	testutil.Equal(t, ctype.StringNone, u.StringClass(), "unsigned char* is a plain pointer")
}

func TestPointerWrapping(t *testing.T) {
	r := New(ctype.ILP32, nil)
	p := mustLookup(t, r, "void**").(*ctype.Pointer)
	testutil.Equal(t, 2, p.Depth())
	testutil.Equal(t, 4, p.Size())
	testutil.True(t, ctype.IsVoid(p.Elem()), "elem is void")
}

func TestSpellingAliases(t *testing.T) {
	r := New(ctype.LP64, nil)
	tests := map[string]string{
		"unsigned":               "unsigned int",
		"signed":                 "int",
		"short int":              "short",
		"long int":               "long",
		"unsigned long long int": "unsigned long long",
		"uint8_t":                "unsigned char",
		"int64_t":                "long long",
		"size_t":                 "unsigned long",
		"intptr_t":               "long",
	}
	for alias, target := range tests {
		testutil.True(t, mustLookup(t, r, alias) == mustLookup(t, r, target), "%s -> %s", alias, target)
	}
}

func TestSizeTFollowsDataModel(t *testing.T) {
	tests := []struct {
		platform ctype.Platform
		size     int
		target   string
	}{
		{ctype.LP64, 8, "unsigned long"},
		{ctype.LLP64, 8, "unsigned long long"},
		{ctype.ILP32, 4, "unsigned int"},
	}
	for _, tc := range tests {
		r := New(tc.platform, nil)
		target, ok := r.AliasTarget("size_t")
		testutil.True(t, ok, "size_t is an alias")
		testutil.Equal(t, tc.target, target, tc.platform.Name)
		testutil.Equal(t, tc.size, mustLookup(t, r, "size_t").Size(), tc.platform.Name)
	}
}

func TestDefineOverwrites(t *testing.T) {
	r := New(ctype.LP64, nil)
	first := ctype.NewOpaque("Handle", false)
	second := ctype.NewOpaque("Handle", false)
	testutil.NoError(t, r.Define("Handle", first))
	testutil.NoError(t, r.Define("Handle", second))
	testutil.True(t, mustLookup(t, r, "Handle") == ctype.Type(second), "last write wins")
}

func TestDefineRejectsBadNames(t *testing.T) {
	r := New(ctype.LP64, nil)
	for _, name := range []string{"", "*", "int * x", "a-b", "9lives"} {
		err := r.Define(name, ctype.Void)
		testutil.True(t, err != nil, "define %q should fail", name)
	}
	testutil.True(t, r.Define("x", nil) != nil, "nil descriptor")
}

func TestAliasChain(t *testing.T) {
	r := New(ctype.LP64, nil)
	testutil.NoError(t, r.DefineAlias("UInt8", "unsigned char"))
	testutil.NoError(t, r.DefineAlias("Byte", "UInt8"))
	testutil.True(t, mustLookup(t, r, "Byte") == mustLookup(t, r, "unsigned char"), "transitive alias")
}

func TestAliasBeforeTarget(t *testing.T) {
	r := New(ctype.LP64, nil)
	testutil.NoError(t, r.DefineAlias("DescPtr", "Desc*"))

	_, err := r.Resolve("DescPtr")
	testutil.ErrorIs(t, err, types.ErrUnknownType, "target not yet defined")

	desc := ctype.NewOpaque("Desc", false)
	testutil.NoError(t, r.Define("Desc", desc))
	p, ok := mustLookup(t, r, "DescPtr").(*ctype.Pointer)
	testutil.True(t, ok, "alias with a star resolves to a pointer")
	testutil.True(t, p.Elem() == ctype.Type(desc), "pointer to the registered aggregate")

	pp := mustLookup(t, r, "DescPtr*").(*ctype.Pointer)
	testutil.Equal(t, 2, pp.Depth(), "depth adds through the alias")
}

func TestStarredAliasName(t *testing.T) {
	r := New(ctype.LP64, nil)
	testutil.NoError(t, r.DefineAlias("CFStringRef*", "void*"))
	p := mustLookup(t, r, "CFStringRef*").(*ctype.Pointer)
	testutil.Equal(t, 1, p.Depth())

	_, err := r.Resolve("CFStringRef")
	testutil.ErrorIs(t, err, types.ErrUnknownType, "only the starred spelling is registered")
}

func TestCyclicAlias(t *testing.T) {
	r := New(ctype.LP64, nil)
	testutil.NoError(t, r.DefineAlias("A", "B"))
	testutil.NoError(t, r.DefineAlias("B", "C*"))
	testutil.NoError(t, r.DefineAlias("C", "A"))

	_, err := r.Resolve("A")
	testutil.ErrorIs(t, err, types.ErrCyclicAlias)
	testutil.Contains(t, err.Error(), "A -> B -> C -> A")

	testutil.NoError(t, r.DefineAlias("Self", "Self"))
	_, err = r.Resolve("Self")
	testutil.ErrorIs(t, err, types.ErrCyclicAlias, "self alias")
}

func TestUnknownType(t *testing.T) {
	r := New(ctype.LP64, nil)
	_, err := r.Lookup("CFRunLoopSourceRef", 2)
	testutil.ErrorIs(t, err, types.ErrUnknownType)
	testutil.Contains(t, err.Error(), "CFRunLoopSourceRef**")
}

func TestNameNormalization(t *testing.T) {
	tests := []struct {
		in   string
		want Name
	}{
		{"int", Name{"int", 0}},
		{"  unsigned \t long  ", Name{"unsigned long", 0}},
		{"char *", Name{"char", 1}},
		{"void**", Name{"void", 2}},
		{"void * *", Name{"void", 2}},
	}
	for _, tc := range tests {
		got, err := ParseName(tc.in)
		testutil.NoError(t, err, "parse %q", tc.in)
		testutil.Equal(t, tc.want, got, "parse %q", tc.in)
	}
	testutil.Equal(t, "unsigned long**", Name{"unsigned long", 2}.Key())
}

func TestLongestName(t *testing.T) {
	r := New(ctype.LP64, nil)
	testutil.Equal(t, 3, r.LongestName([]string{"unsigned", "long", "long", "x"}))
	testutil.Equal(t, 2, r.LongestName([]string{"unsigned", "long", "x"}))
	testutil.Equal(t, 0, r.LongestName([]string{"int", "x"}), "single words do not count")
	testutil.Equal(t, 0, r.LongestName([]string{"long"}))
	testutil.Equal(t, 4, r.MaxWords(), "signed long long int")

	testutil.NoError(t, r.Define("struct my big thing", ctype.NewOpaque("thing", false)))
	testutil.Equal(t, 4, r.LongestName([]string{"struct", "my", "big", "thing"}))
}

func TestNamesSorted(t *testing.T) {
	r := New(ctype.LP64, nil)
	names := r.Names()
	testutil.Len(t, names, r.Len())
	for i := 1; i < len(names); i++ {
		testutil.True(t, names[i-1] < names[i], "sorted at %d", i)
	}
	testutil.True(t, r.Has("char*"), "string pointer registered")
	testutil.True(t, r.Has("unsigned  long"), "lookup normalizes")
	testutil.False(t, r.Has("int*"), "plain pointers are synthesized")
}

func TestConcurrentAccess(t *testing.T) {
	r := New(ctype.LP64, nil)
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := fmt.Sprintf("T%d", i)
			for j := range 100 {
				if err := r.DefineAlias(name, "int"); err != nil {
					t.Error(err)
					return
				}
				if _, err := r.Lookup(name, j%3); err != nil {
					t.Error(err)
					return
				}
				r.LongestName([]string{"long", "long"})
			}
		}()
	}
	wg.Wait()
}
