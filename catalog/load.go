package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/golangsnmp/cdecl"
	"github.com/golangsnmp/cdecl/ctype"
	"github.com/golangsnmp/cdecl/internal/ast"
	"github.com/golangsnmp/cdecl/internal/graph"
	"github.com/golangsnmp/cdecl/internal/parser"
	"github.com/golangsnmp/cdecl/internal/registry"
	"github.com/golangsnmp/cdecl/internal/types"
)

// maxAliasHops bounds catalog alias chasing while building the dependency
// graph. The registry reports real cycles when the alias is used.
const maxAliasHops = 64

// Option configures Load.
type Option func(*loadConfig)

type loadConfig struct {
	sources []Source
	names   []string
	logger  *slog.Logger
}

// WithSource adds catalog sources. Sources are searched in order.
func WithSource(src ...Source) Option {
	return func(c *loadConfig) {
		c.sources = append(c.sources, src...)
	}
}

// WithCatalogs restricts loading to the named catalogs and the catalogs
// they require. Without it every catalog the sources list is loaded.
func WithCatalogs(names ...string) Option {
	return func(c *loadConfig) {
		c.names = append(c.names, names...)
	}
}

// WithLogger sets the logger for debug/trace output.
// If not set, no logging occurs (zero overhead).
func WithLogger(logger *slog.Logger) Option {
	return func(c *loadConfig) {
		c.logger = logger
	}
}

// Load reads catalogs from the configured sources and registers their
// definitions in reg. Required catalogs are loaded before the catalogs
// that require them, and a later definition of a name replaces an earlier
// one.
//
// Load keeps going after a bad definition and returns everything that was
// registered together with the joined errors.
//
// Example:
//
//	reg := cdecl.NewRegistry(cdecl.WithPlatform(ctype.LP64))
//	cat, err := catalog.Load(ctx, reg,
//	    catalog.WithSource(catalog.FS("catalogs", os.DirFS("catalogs"))),
//	    catalog.WithCatalogs("iokit"),
//	)
func Load(ctx context.Context, reg *cdecl.Registry, opts ...Option) (*Catalog, error) {
	var cfg loadConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if len(cfg.sources) == 0 {
		return nil, ErrNoSources
	}
	if reg == nil {
		reg = cdecl.Default()
	}
	logger := types.ComponentLogger(cfg.logger, "catalog")
	src := Multi(cfg.sources...)

	names := cfg.names
	if len(names) == 0 {
		var err error
		names, err = src.ListCatalogs()
		if err != nil {
			return nil, err
		}
	}

	files, err := readCatalogs(ctx, src, names, logger)
	if err != nil {
		return nil, err
	}
	ordered, err := fileOrder(files)
	if err != nil {
		return nil, err
	}

	l := &loader{
		reg:     reg,
		opts:    []cdecl.Option{cdecl.WithRegistry(reg), cdecl.WithLogger(cfg.logger)},
		Logger:  types.Logger{L: logger},
		logger:  cfg.logger,
		aliases: make(map[string]string),
		defs:    make(map[string]*definition),
		cat:     &Catalog{Aliases: make(map[string]string)},
	}
	for _, f := range ordered {
		l.merge(f)
	}
	return l.load(ctx)
}

// file is one decoded catalog.
type file struct {
	name string
	path string
	doc  *Document
}

// readCatalogs decodes the named catalogs and everything they require.
// Each round of newly discovered names is decoded in parallel.
func readCatalogs(ctx context.Context, src Source, names []string, logger *slog.Logger) (map[string]*file, error) {
	l := types.Logger{L: logger}
	files := make(map[string]*file)
	pending := slices.Clone(names)

	for len(pending) > 0 {
		if l.Enabled(slog.LevelDebug) {
			l.Log(slog.LevelDebug, "reading catalogs",
				slog.Int("count", len(pending)),
				slog.Int("workers", runtime.NumCPU()))
		}
		round, err := decodeAll(ctx, src, pending)
		if err != nil {
			return nil, err
		}
		var next []string
		for _, f := range round {
			files[f.name] = f
		}
		for _, f := range round {
			for _, req := range f.doc.Requires {
				if _, ok := files[req]; !ok && !slices.Contains(next, req) {
					next = append(next, req)
				}
			}
		}
		pending = next
	}
	return files, nil
}

func decodeAll(ctx context.Context, src Source, names []string) ([]*file, error) {
	type result struct {
		f   *file
		err error
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, runtime.NumCPU())
	results := make([]result, len(names))

	for i, name := range names {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			f, err := decodeOne(src, name)
			results[i] = result{f: f, err: err}
		}()
	}
	wg.Wait()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var errs []error
	files := make([]*file, 0, len(names))
	for _, r := range results {
		if r.err != nil {
			errs = append(errs, r.err)
			continue
		}
		files = append(files, r.f)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return files, nil
}

func decodeOne(src Source, name string) (*file, error) {
	r, path, err := src.Find(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("catalog %s: %w", name, err)
		}
		return nil, fmt.Errorf("catalog %s (%s): %w", name, path, err)
	}
	defer r.Close()

	doc, err := Decode(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &file{name: name, path: path, doc: doc}, nil
}

// fileOrder puts required catalogs before the catalogs requiring them.
func fileOrder(files map[string]*file) ([]*file, error) {
	g := graph.New()
	for name, f := range files {
		g.AddNode(name)
		for _, req := range f.doc.Requires {
			g.AddEdge(name, req)
		}
	}
	order, cycles := g.ResolutionOrder()
	if len(cycles) > 0 {
		return nil, fmt.Errorf("requires: %w", cycleError(cycles))
	}
	ordered := make([]*file, len(order))
	for i, name := range order {
		ordered[i] = files[name]
	}
	return ordered, nil
}

func cycleError(cycles [][]string) error {
	errs := make([]error, len(cycles))
	for i, c := range cycles {
		errs[i] = fmt.Errorf("%w: %s", ErrCycle, strings.Join(c, ", "))
	}
	return errors.Join(errs...)
}

type defKind int

const (
	defOpaque defKind = iota
	defStruct
	defInterface
	defCallback
)

func (k defKind) String() string {
	switch k {
	case defOpaque:
		return "opaque"
	case defStruct:
		return "struct"
	case defInterface:
		return "interface"
	case defCallback:
		return "callback"
	}
	return "definition"
}

// definition is one named catalog entry after merging.
type definition struct {
	kind  defKind
	name  string
	path  string
	union bool
	base  string
	decls []string

	// parsed member, method or callback declarations
	parsed []*ast.Decl
}

type loader struct {
	reg  *cdecl.Registry
	opts []cdecl.Option
	types.Logger

	logger    *slog.Logger
	aliases   map[string]string
	defs      map[string]*definition
	callbacks []string // path and declaration, in file order

	cat  *Catalog
	errs []error
}

func (l *loader) merge(f *file) {
	l.cat.Files = append(l.cat.Files, f.path)
	doc := f.doc

	for _, name := range slices.Sorted(maps.Keys(doc.Aliases)) {
		if prev, ok := l.aliases[name]; ok && l.Enabled(slog.LevelDebug) {
			l.Log(slog.LevelDebug, "alias redefined",
				slog.String("name", name),
				slog.String("previous", prev),
				slog.String("file", f.path))
		}
		l.aliases[name] = doc.Aliases[name]
	}
	for _, o := range doc.Opaque {
		l.add(&definition{kind: defOpaque, name: o.Name, path: f.path, union: o.Union})
	}
	for _, s := range doc.Structs {
		l.add(&definition{kind: defStruct, name: s.Name, path: f.path, union: s.Union, decls: s.Fields})
	}
	for _, in := range doc.Interfaces {
		l.add(&definition{kind: defInterface, name: in.Name, path: f.path, base: in.Base, decls: in.Methods})
	}
	for _, cb := range doc.Callbacks {
		// Named once parsed, after aliases are registered.
		l.callbacks = append(l.callbacks, f.path+"\x00"+cb)
	}
}

func (l *loader) add(d *definition) {
	if prev, ok := l.defs[d.name]; ok && l.Enabled(slog.LevelDebug) {
		l.Log(slog.LevelDebug, "definition replaced",
			slog.String("name", d.name),
			slog.String("previous", prev.path),
			slog.String("file", d.path))
	}
	l.defs[d.name] = d
}

func (l *loader) fail(err error) {
	l.errs = append(l.errs, err)
	l.Log(slog.LevelDebug, "definition failed", slog.String("error", err.Error()))
}

func (l *loader) load(ctx context.Context) (*Catalog, error) {
	l.registerAliases()
	l.declareAggregates()
	l.parseCallbacks()

	g := graph.New()
	for _, name := range slices.Sorted(maps.Keys(l.defs)) {
		d := l.defs[name]
		if d.kind == defOpaque {
			continue
		}
		g.AddNode(name)
		l.parseDecls(d)
		l.addEdges(g, d)
	}

	order, cycles := g.ResolutionOrder()
	if len(cycles) > 0 {
		l.fail(cycleError(cycles))
	}

	for _, name := range order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d, ok := l.defs[name]
		if !ok || d.kind == defOpaque || d.parsed == nil && len(d.decls) > 0 {
			continue
		}
		l.define(d)
	}

	if l.Enabled(slog.LevelInfo) {
		l.Log(slog.LevelInfo, "catalogs loaded",
			slog.Int("files", len(l.cat.Files)),
			slog.Int("aliases", len(l.cat.Aliases)),
			slog.Int("aggregates", len(l.cat.Aggregates)),
			slog.Int("callbacks", len(l.cat.Callbacks)),
			slog.Int("errors", len(l.errs)))
	}
	return l.cat, errors.Join(l.errs...)
}

func (l *loader) registerAliases() {
	for _, name := range slices.Sorted(maps.Keys(l.aliases)) {
		target := l.aliases[name]
		if err := l.reg.DefineAlias(name, target); err != nil {
			l.fail(fmt.Errorf("alias %s: %w", name, err))
			continue
		}
		l.cat.Aliases[name] = target
	}
}

// declareAggregates registers every struct, union and interface as an
// incomplete type so members can point at each other in any order.
func (l *loader) declareAggregates() {
	for _, name := range slices.Sorted(maps.Keys(l.defs)) {
		d := l.defs[name]
		agg, err := cdecl.DefineOpaque(name, d.union, l.opts...)
		if err != nil {
			l.fail(fmt.Errorf("%s: %s %s: %w", d.path, d.kind, name, err))
			continue
		}
		if d.kind == defOpaque {
			l.cat.Aggregates = append(l.cat.Aggregates, agg)
		}
	}
}

func (l *loader) parseCallbacks() {
	for _, entry := range l.callbacks {
		path, text, _ := strings.Cut(entry, "\x00")
		decl, err := parser.Parse(text, l.reg, l.logger)
		if err != nil {
			l.fail(fmt.Errorf("%s: callback %q: %w", path, text, err))
			continue
		}
		if !decl.IsFunc() || decl.Name.Name == "" {
			l.fail(fmt.Errorf("%s: callback %q: not a named function declaration", path, text))
			continue
		}
		l.add(&definition{
			kind:   defCallback,
			name:   decl.Name.Name,
			path:   path,
			decls:  []string{text},
			parsed: []*ast.Decl{decl},
		})
	}
}

func (l *loader) parseDecls(d *definition) {
	if d.kind == defCallback {
		return
	}
	parsed := make([]*ast.Decl, 0, len(d.decls))
	for i, text := range d.decls {
		decl, err := parser.Parse(text, l.reg, l.logger)
		if err != nil {
			l.fail(fmt.Errorf("%s: %s %s: member %d %q: %w", d.path, d.kind, d.name, i+1, text, err))
			return
		}
		parsed = append(parsed, decl)
	}
	d.parsed = parsed
}

// addEdges records what must be complete before d can be defined: the
// aggregates it holds by value, its interface base and every callback it
// mentions.
func (l *loader) addEdges(g *graph.Graph, d *definition) {
	if d.base != "" {
		if name, _, ok := l.chase(d.base, 0); ok {
			g.AddEdge(d.name, name)
		}
	}
	for _, decl := range d.parsed {
		l.addTypeEdge(g, d.name, decl.Type, !decl.IsFunc() && d.kind != defCallback)
		if decl.Func == nil {
			continue
		}
		for _, p := range decl.Func.Params {
			l.addTypeEdge(g, d.name, p.Type, false)
		}
	}
}

func (l *loader) addTypeEdge(g *graph.Graph, from string, spec ast.TypeSpec, byValue bool) {
	name, pointers, ok := l.chase(spec.Name, spec.Pointers)
	if !ok || name == from && pointers > 0 {
		return
	}
	dep, defined := l.defs[name]
	if !defined || dep.kind == defOpaque {
		return
	}
	switch {
	case dep.kind == defCallback:
		g.AddEdge(from, name)
	case byValue && pointers == 0:
		g.AddEdge(from, name)
	}
}

// chase follows catalog aliases from name, accumulating pointer depth.
func (l *loader) chase(name string, pointers int) (string, int, bool) {
	for range maxAliasHops {
		target, ok := l.aliases[name]
		if !ok {
			return name, pointers, true
		}
		n, err := registry.ParseName(target)
		if err != nil {
			return "", 0, false
		}
		name = n.Base
		pointers += n.Pointers
	}
	return "", 0, false
}

func (l *loader) define(d *definition) {
	var err error
	switch d.kind {
	case defCallback:
		var fn *ctype.Func
		fn, err = cdecl.DefineCallback(d.decls[0], l.opts...)
		if err == nil {
			l.cat.Callbacks = append(l.cat.Callbacks, Callback{Name: d.name, Func: fn})
		}
	case defStruct, defInterface:
		var agg *ctype.Aggregate
		switch {
		case d.kind == defInterface:
			agg, err = cdecl.DefineInterface(d.name, d.base, d.decls, l.opts...)
		case d.union:
			agg, err = cdecl.DefineUnion(d.name, d.decls, l.opts...)
		default:
			agg, err = cdecl.DefineStruct(d.name, d.decls, l.opts...)
		}
		if err == nil {
			l.cat.Aggregates = append(l.cat.Aggregates, agg)
		}
	}
	if err != nil {
		l.fail(fmt.Errorf("%s: %s %s: %w", d.path, d.kind, d.name, err))
		return
	}
	if l.TraceEnabled() {
		l.Trace("defined", slog.String("name", d.name), slog.String("kind", d.kind.String()))
	}
}
