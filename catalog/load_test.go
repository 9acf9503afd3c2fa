package catalog

import (
	"context"
	"io/fs"
	"slices"
	"testing"
	"testing/fstest"

	"github.com/golangsnmp/cdecl"
	"github.com/golangsnmp/cdecl/ctype"
	"github.com/golangsnmp/cdecl/internal/testutil"
)

func loadIOKit(t *testing.T, p ctype.Platform) (*cdecl.Registry, *Catalog) {
	t.Helper()
	reg := cdecl.NewRegistry(cdecl.WithPlatform(p))
	cat, err := Load(context.Background(), reg,
		WithSource(mustDir(t, "testdata")),
		WithCatalogs("iokit"),
	)
	testutil.NoError(t, err, "Load iokit")
	return reg, cat
}

func memSource(files map[string]string) Source {
	fsys := fstest.MapFS{}
	for name, content := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(content)}
	}
	return FS("mem", fsys)
}

func aggregate(t *testing.T, cat *Catalog, name string) *ctype.Aggregate {
	t.Helper()
	agg, ok := cat.Aggregate(name)
	if !ok {
		t.Fatalf("aggregate %s not in catalog", name)
	}
	return agg
}

func TestLoadIOKit(t *testing.T) {
	reg, cat := loadIOKit(t, ctype.LP64)

	testutil.Len(t, cat.Files, 2, "iokit and its requirement")
	testutil.Contains(t, cat.Files[0], "core.yaml", "required catalog first")
	testutil.Equal(t, "IOUSBConfigurationDescriptor*", cat.Aliases["IOUSBConfigurationDescriptorPtr"], "alias")

	tests := []struct {
		name   string
		size   int
		fields int
	}{
		{"CFUUIDBytes", 16, 16},
		{"IUnknown", 32, 4},
		{"AbsoluteTime", 8, 2},
		{"IOUSBDevRequest", 24, 7},
		{"IOUSBIsocFrame", 8, 3},
		{"IOUSBDevRequestTO", 32, 9},
		{"IOUSBConfigurationDescriptor", 10, 8},
		{"IOUSBFindInterfaceRequest", 8, 4},
		{"IOUSBDeviceInterface", 232, 29},
		{"IOUSBInterfaceInterface182", 352, 44},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := aggregate(t, cat, tt.name)
			testutil.True(t, agg.IsComplete(), "complete")
			testutil.Equal(t, tt.size, agg.Size(), "size")
			testutil.Equal(t, tt.fields, agg.NumFields(), "fields")

			got, err := reg.Resolve(tt.name)
			testutil.NoError(t, err, "Resolve")
			testutil.True(t, got == ctype.Type(agg), "registered descriptor is the catalog's")
		})
	}

	src := aggregate(t, cat, "__CFRunLoopSource")
	testutil.False(t, src.IsComplete(), "opaque stays incomplete")

	fn, ok := cat.Callback("IOAsyncCallback1")
	testutil.True(t, ok, "callback registered")
	testutil.Equal(t, 3, fn.NumParams(), "callback params")
	testutil.Equal(t, "void (*)(void*, int, void*)", fn.String(), "callback signature")
}

func TestLoadIOKitILP32(t *testing.T) {
	_, cat := loadIOKit(t, ctype.ILP32)

	testutil.Equal(t, 116, aggregate(t, cat, "IOUSBDeviceInterface").Size(), "29 pointers")
	testutil.Equal(t, 16, aggregate(t, cat, "IOUSBDevRequest").Size(), "IOUSBDevRequest")
}

func TestLoadIOKitDependencyOrder(t *testing.T) {
	_, cat := loadIOKit(t, ctype.LP64)

	index := func(name string) int {
		return slices.IndexFunc(cat.Aggregates, func(a *ctype.Aggregate) bool { return a.Name() == name })
	}
	testutil.True(t, index("IUnknown") < index("IOUSBDeviceInterface"), "base before interface")
	testutil.True(t, index("IUnknown") < index("IOUSBInterfaceInterface182"), "base before interface")
	testutil.True(t, index("__CFRunLoopSource") == 0, "opaque types first")
}

func TestLoadIOKitDeclarations(t *testing.T) {
	reg, cat := loadIOKit(t, ctype.LP64)
	opt := cdecl.WithRegistry(reg)

	d, err := cdecl.Parse("IOUSBConfigurationDescriptorPtr desc", opt)
	testutil.NoError(t, err, "Parse")
	ptr, ok := d.Type().(*ctype.Pointer)
	testutil.True(t, ok, "pointer alias")
	testutil.True(t, ptr.Elem() == ctype.Type(aggregate(t, cat, "IOUSBConfigurationDescriptor")), "points at the struct")

	iface := aggregate(t, cat, "IOUSBDeviceInterface")
	f, ok := iface.Field("DeviceRequestAsync")
	testutil.True(t, ok, "method field")
	fn, ok := f.Type.(*ctype.Func)
	testutil.True(t, ok, "method is a function pointer")
	cb, _ := cat.Callback("IOAsyncCallback1")
	testutil.True(t, fn.Param(2) == ctype.Type(cb), "callback parameter shares the registered descriptor")

	first := iface.Fields()[0]
	testutil.Equal(t, "_reserved", first.Name, "base members come first")
}

func TestLoadAllCatalogs(t *testing.T) {
	reg := cdecl.NewRegistry(cdecl.WithPlatform(ctype.LP64))
	cat, err := Load(context.Background(), reg, WithSource(mustDir(t, "testdata")))
	testutil.NoError(t, err, "Load")
	testutil.Len(t, cat.Files, 2, "files")
	testutil.Len(t, cat.Callbacks, 1, "callbacks")
	testutil.Len(t, cat.Aggregates, 11, "aggregates")
}

func TestLoadByValueOrder(t *testing.T) {
	src := memSource(map[string]string{
		"outer.yaml": `
requires: [inner]
aliases:
  Frame: Inner
structs:
  - name: Outer
    fields: [Frame f, Middle m, char c]
  - name: Middle
    fields: [Inner i, Inner *next]
`,
		"inner.yaml": `
structs:
  - name: Inner
    fields: [long long a, int b]
`,
	})
	reg := cdecl.NewRegistry(cdecl.WithPlatform(ctype.LP64))
	cat, err := Load(context.Background(), reg, WithSource(src))
	testutil.NoError(t, err, "Load")

	testutil.Equal(t, 16, aggregate(t, cat, "Inner").Size(), "Inner")
	testutil.Equal(t, 24, aggregate(t, cat, "Middle").Size(), "Middle")
	testutil.Equal(t, 48, aggregate(t, cat, "Outer").Size(), "Outer")
}

func TestLoadSelfReferentialPointer(t *testing.T) {
	src := memSource(map[string]string{
		"list.yaml": `
aliases:
  NodePtr: Node*
structs:
  - name: Node
    fields: [NodePtr next, struct_data *data, int value]
opaque: [struct_data]
`,
	})
	reg := cdecl.NewRegistry(cdecl.WithPlatform(ctype.LP64))
	cat, err := Load(context.Background(), reg, WithSource(src))
	testutil.NoError(t, err, "Load")

	node := aggregate(t, cat, "Node")
	testutil.Equal(t, 24, node.Size(), "Node")
	next, _ := node.Field("next")
	ptr := next.Type.(*ctype.Pointer)
	testutil.True(t, ptr.Elem() == ctype.Type(node), "pointer to itself")
}

func TestLoadByValueCycle(t *testing.T) {
	src := memSource(map[string]string{
		"cycle.yaml": `
structs:
  - name: A
    fields: [B b]
  - name: B
    fields: [A a]
  - name: C
    fields: [A *a, int n]
  - name: D
    fields: [A a]
`,
	})
	reg := cdecl.NewRegistry(cdecl.WithPlatform(ctype.LP64))
	cat, err := Load(context.Background(), reg, WithSource(src))
	testutil.ErrorIs(t, err, ErrCycle, "by-value cycle")
	testutil.Contains(t, err.Error(), "dependency cycle: A, B")
	testutil.Contains(t, err.Error(), "struct D")

	testutil.Equal(t, 16, aggregate(t, cat, "C").Size(), "pointers into the cycle are fine")
	_, ok := cat.Aggregate("A")
	testutil.False(t, ok, "cycle members are not defined")

	a, err := reg.Resolve("A")
	testutil.NoError(t, err, "A stays registered")
	testutil.False(t, a.(*ctype.Aggregate).IsComplete(), "A stays a forward declaration")
}

func TestLoadErrorsDoNotStopOthers(t *testing.T) {
	src := memSource(map[string]string{
		"mixed.yaml": `
structs:
  - name: Bad
    fields: [CFStringRef name]
  - name: Broken
    fields: ["int (x"]
  - name: Good
    fields: [int x]
callbacks:
  - int notAFunction
`,
	})
	reg := cdecl.NewRegistry(cdecl.WithPlatform(ctype.LP64))
	cat, err := Load(context.Background(), reg, WithSource(src))
	testutil.ErrorIs(t, err, cdecl.ErrUnknownType, "unknown member type")
	testutil.ErrorAs[*cdecl.SyntaxError](t, err, "broken member")
	testutil.Contains(t, err.Error(), "struct Bad")
	testutil.Contains(t, err.Error(), "not a named function declaration")

	testutil.Equal(t, 4, aggregate(t, cat, "Good").Size(), "Good")
	_, ok := cat.Aggregate("Bad")
	testutil.False(t, ok, "Bad not defined")
}

func TestLoadOverride(t *testing.T) {
	src := memSource(map[string]string{
		"base.yaml": "structs:\n  - name: Point\n    fields: [int x]\n",
		"ext.yaml":  "requires: [base]\nstructs:\n  - name: Point\n    fields: [int x, int y]\n",
	})
	reg := cdecl.NewRegistry(cdecl.WithPlatform(ctype.LP64))
	cat, err := Load(context.Background(), reg, WithSource(src), WithCatalogs("ext"))
	testutil.NoError(t, err, "Load")
	testutil.Len(t, cat.Files, 2, "requirement pulled in")
	testutil.Equal(t, 8, aggregate(t, cat, "Point").Size(), "requiring catalog wins")
}

func TestLoadInterfaceBaseThroughAlias(t *testing.T) {
	src := memSource(map[string]string{
		"com.yaml": `
aliases:
  IUnknownVtbl: IUnknown
interfaces:
  - name: IClassFactory
    base: IUnknownVtbl
    methods:
      - int (*LockServer)(void *self, int lock)
  - name: IUnknown
    methods:
      - unsigned long (*AddRef)(void *self)
      - unsigned long (*Release)(void *self)
`,
	})
	reg := cdecl.NewRegistry(cdecl.WithPlatform(ctype.LP64))
	cat, err := Load(context.Background(), reg, WithSource(src))
	testutil.NoError(t, err, "Load")
	testutil.Equal(t, 24, aggregate(t, cat, "IClassFactory").Size(), "base methods plus one")
}

func TestLoadMissingRequirement(t *testing.T) {
	src := memSource(map[string]string{"a.yaml": "requires: [nope]\n"})
	_, err := Load(context.Background(), cdecl.NewRegistry(), WithSource(src))
	testutil.ErrorIs(t, err, fs.ErrNotExist, "missing requirement")
	testutil.Contains(t, err.Error(), "nope")
}

func TestLoadRequiresCycle(t *testing.T) {
	src := memSource(map[string]string{
		"a.yaml": "requires: [b]\n",
		"b.yaml": "requires: [a]\n",
	})
	_, err := Load(context.Background(), cdecl.NewRegistry(), WithSource(src), WithCatalogs("a"))
	testutil.ErrorIs(t, err, ErrCycle, "requires cycle")
}

func TestLoadDecodeError(t *testing.T) {
	src := memSource(map[string]string{"bad.yaml": "structs: {name: X}\n"})
	_, err := Load(context.Background(), cdecl.NewRegistry(), WithSource(src))
	testutil.Error(t, err, "malformed document")
	testutil.Contains(t, err.Error(), "mem:bad.yaml")
}

func TestLoadNoSources(t *testing.T) {
	_, err := Load(context.Background(), cdecl.NewRegistry())
	testutil.ErrorIs(t, err, ErrNoSources, "no sources")
}

func TestLoadCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Load(ctx, cdecl.NewRegistry(), WithSource(mustDir(t, "testdata")))
	testutil.ErrorIs(t, err, context.Canceled, "canceled context")
}
