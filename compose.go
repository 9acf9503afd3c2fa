package cdecl

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/golangsnmp/cdecl/ctype"
	"github.com/golangsnmp/cdecl/internal/types"
)

// Fields parses each declaration into its (name, descriptor) member pair,
// in order.
func Fields(decls []string, opts ...Option) ([]Field, error) {
	fields := make([]Field, len(decls))
	for i, text := range decls {
		d, err := Parse(text, opts...)
		if err != nil {
			return nil, fmt.Errorf("member %d %q: %w", i+1, text, err)
		}
		fields[i] = d.Field()
	}
	return fields, nil
}

// DefineStruct lays out a struct from member declarations and registers it
// under name. If name is a registered forward declaration (see
// DefineOpaque) it is completed in place, so pointers taken to it earlier
// see the final layout.
//
// Example:
//
//	req, err := cdecl.DefineStruct("IOUSBDevRequest", []string{
//	    "UInt8 bmRequestType",
//	    "UInt8 bRequest",
//	    "UInt16 wValue",
//	    "UInt16 wIndex",
//	    "UInt16 wLength",
//	    "void *pData",
//	    "UInt32 wLenDone",
//	})
func DefineStruct(name string, decls []string, opts ...Option) (*ctype.Aggregate, error) {
	return defineAggregate(name, false, nil, decls, opts)
}

// DefineUnion is DefineStruct for unions.
func DefineUnion(name string, decls []string, opts ...Option) (*ctype.Aggregate, error) {
	return defineAggregate(name, true, nil, decls, opts)
}

// DefineInterface registers a COM-style function table: a struct of
// function pointers, one per method declaration, prefixed by the members
// of the base interface when base is not empty.
//
//	cdecl.DefineInterface("IOUSBDeviceInterface", "IUnknown", []string{
//	    "IOReturn (*USBDeviceOpen)(void *self)",
//	    "IOReturn (*USBDeviceClose)(void *self)",
//	})
func DefineInterface(name, base string, methods []string, opts ...Option) (*ctype.Aggregate, error) {
	var prefix []Field
	if base != "" {
		cfg := newConfig(opts)
		t, err := cfg.registry.Resolve(base)
		if err != nil {
			return nil, fmt.Errorf("interface %s: base: %w", name, err)
		}
		agg, ok := t.(*ctype.Aggregate)
		if !ok {
			return nil, fmt.Errorf("interface %s: base %s is a %s, not an interface", name, base, t.Kind())
		}
		if !agg.IsComplete() {
			return nil, fmt.Errorf("interface %s: base %s: %w", name, base, ErrIncompleteType)
		}
		prefix = agg.Fields()
	}
	for i, m := range methods {
		d, err := Parse(m, opts...)
		if err != nil {
			return nil, fmt.Errorf("interface %s: method %d %q: %w", name, i+1, m, err)
		}
		if !d.IsFunc() || d.Name() == "" {
			return nil, fmt.Errorf("interface %s: method %d %q is not a named function", name, i+1, m)
		}
	}
	return defineAggregate(name, false, prefix, methods, opts)
}

// DefineOpaque registers an incomplete struct or union under name. It can
// be used behind pointers at once and completed later by DefineStruct or
// DefineUnion.
func DefineOpaque(name string, union bool, opts ...Option) (*ctype.Aggregate, error) {
	cfg := newConfig(opts)
	agg := ctype.NewOpaque(name, union)
	if err := cfg.registry.Define(name, agg); err != nil {
		return nil, err
	}
	return agg, nil
}

// DefineCallback parses a function or function pointer declaration and
// registers its descriptor under the declarator name:
//
//	cdecl.DefineCallback("void (*IOAsyncCallback1)(void *refcon, IOReturn result, void *arg0)")
func DefineCallback(decl string, opts ...Option) (*ctype.Func, error) {
	d, err := Parse(decl, opts...)
	if err != nil {
		return nil, err
	}
	fn, ok := d.Type().(*ctype.Func)
	if !ok || d.Name() == "" {
		return nil, fmt.Errorf("callback %q: not a named function declaration", decl)
	}
	if err := Define(d.Name(), fn, opts...); err != nil {
		return nil, err
	}
	return fn, nil
}

func defineAggregate(name string, union bool, prefix []Field, decls []string, opts []Option) (*ctype.Aggregate, error) {
	cfg := newConfig(opts)
	members, err := Fields(decls, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", keyword(union), name, err)
	}
	fields := append(prefix[:len(prefix):len(prefix)], members...)

	agg, err := forwardDeclared(cfg.registry, name, union)
	if err != nil {
		return nil, err
	}
	if agg != nil {
		if err := agg.Complete(fields...); err != nil {
			return nil, err
		}
	} else {
		if union {
			agg, err = ctype.NewUnion(name, fields...)
		} else {
			agg, err = ctype.NewStruct(name, fields...)
		}
		if err != nil {
			return nil, err
		}
		if err := cfg.registry.Define(name, agg); err != nil {
			return nil, err
		}
	}

	l := types.Logger{L: types.ComponentLogger(cfg.logger, "compose")}
	l.Log(slog.LevelDebug, "defined aggregate",
		slog.String("name", name),
		slog.String("kind", keyword(union)),
		slog.Int("members", agg.NumFields()),
		slog.Int("size", agg.Size()))
	return agg, nil
}

// forwardDeclared returns the incomplete aggregate registered under name,
// or nil when there is none to complete.
func forwardDeclared(reg *Registry, name string, union bool) (*ctype.Aggregate, error) {
	if !reg.Has(name) {
		return nil, nil
	}
	t, err := reg.Resolve(name)
	if err != nil {
		if errors.Is(err, ErrUnknownType) {
			return nil, nil
		}
		return nil, err
	}
	agg, ok := t.(*ctype.Aggregate)
	if !ok || agg.IsComplete() {
		return nil, nil
	}
	if agg.IsUnion() != union {
		return nil, fmt.Errorf("%s %s was forward declared as a %s", keyword(union), name, keyword(agg.IsUnion()))
	}
	return agg, nil
}

func keyword(union bool) string {
	if union {
		return "union"
	}
	return "struct"
}
