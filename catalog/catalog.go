// Package catalog loads declarative C type sets from YAML files into a
// cdecl registry.
//
// A catalog names typedef aliases, opaque types, structs and unions
// written as lists of member declarations, COM-style interfaces written
// as lists of function pointer declarations, and callback types:
//
//	requires: [coretypes]
//	aliases:
//	  UInt16: unsigned short
//	  IOUSBConfigurationDescriptorPtr: IOUSBConfigurationDescriptor*
//	opaque: [__CFRunLoopSource]
//	structs:
//	  - name: IOUSBDevRequest
//	    fields:
//	      - UInt8 bmRequestType
//	      - void *pData
//	interfaces:
//	  - name: IOUSBDeviceInterface
//	    base: IUnknown
//	    methods:
//	      - IOReturn (*USBDeviceOpen)(void *self)
//	callbacks:
//	  - void (*IOAsyncCallback1)(void *refcon, IOReturn result, void *arg0)
//
// Definitions may appear in any order and across files: Load registers
// every aggregate as a forward declaration first and completes them in
// dependency order, so only by-value members and interface bases impose
// ordering.
package catalog

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/golangsnmp/cdecl/ctype"
)

// ErrCycle is returned when aggregates contain each other by value.
var ErrCycle = errors.New("dependency cycle")

// ErrNoSources is returned when Load is called with no sources.
var ErrNoSources = errors.New("no catalog sources provided")

// Document is the YAML form of one catalog file.
type Document struct {
	Requires   []string          `yaml:"requires,omitempty"`
	Aliases    map[string]string `yaml:"aliases,omitempty"`
	Opaque     []Opaque          `yaml:"opaque,omitempty"`
	Structs    []Struct          `yaml:"structs,omitempty"`
	Interfaces []Interface       `yaml:"interfaces,omitempty"`
	Callbacks  []string          `yaml:"callbacks,omitempty"`
}

// Opaque is a forward-declared type that is never completed. In YAML it
// is either a bare name or a mapping with name and union.
type Opaque struct {
	Name  string `yaml:"name"`
	Union bool   `yaml:"union,omitempty"`
}

// UnmarshalYAML accepts the bare-name shorthand.
func (o *Opaque) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		o.Name = node.Value
		o.Union = false
		return nil
	}
	type plain Opaque
	return node.Decode((*plain)(o))
}

// Struct is a struct or union given by member declarations.
type Struct struct {
	Name   string   `yaml:"name"`
	Union  bool     `yaml:"union,omitempty"`
	Fields []string `yaml:"fields"`
}

// Interface is a function table, optionally extending a base.
type Interface struct {
	Name    string   `yaml:"name"`
	Base    string   `yaml:"base,omitempty"`
	Methods []string `yaml:"methods"`
}

// Decode reads one catalog document. Unknown keys are an error.
func Decode(r io.Reader) (*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return &doc, nil
		}
		return nil, err
	}
	if err := doc.validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Encode writes doc as YAML.
func Encode(w io.Writer, doc *Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func (d *Document) validate() error {
	var errs []error
	for i, o := range d.Opaque {
		if o.Name == "" {
			errs = append(errs, fmt.Errorf("opaque %d: missing name", i+1))
		}
	}
	for i, s := range d.Structs {
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("struct %d: missing name", i+1))
		}
	}
	for i, in := range d.Interfaces {
		if in.Name == "" {
			errs = append(errs, fmt.Errorf("interface %d: missing name", i+1))
		}
	}
	return errors.Join(errs...)
}

// Callback is a named function type defined by a catalog.
type Callback struct {
	Name string
	Func *ctype.Func
}

// Catalog is the result of loading: every definition that was registered,
// in definition order.
type Catalog struct {
	// Files lists the loaded catalog paths.
	Files []string
	// Aliases maps alias names to their target spelling.
	Aliases map[string]string
	// Aggregates holds the structs, unions and interfaces, dependencies
	// first. Opaque types are included and remain incomplete.
	Aggregates []*ctype.Aggregate
	Callbacks  []Callback
}

// Aggregate returns the aggregate with the given name.
func (c *Catalog) Aggregate(name string) (*ctype.Aggregate, bool) {
	for _, a := range c.Aggregates {
		if a.Name() == name {
			return a, true
		}
	}
	return nil, false
}

// Callback returns the callback with the given name.
func (c *Catalog) Callback(name string) (*ctype.Func, bool) {
	for _, cb := range c.Callbacks {
		if cb.Name == name {
			return cb.Func, true
		}
	}
	return nil, false
}
