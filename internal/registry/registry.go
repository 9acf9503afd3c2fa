// Package registry maps C type names to foreign-type descriptors.
//
// Entries are either terminal descriptors or aliases to another type
// name, which may carry pointer stars ("IOUSBConfigurationDescriptor*").
// Aliases are stored unresolved and followed at lookup time, so an alias
// may be registered before its target. Registered descriptors are kept by
// reference: every lookup of a name returns the same descriptor value.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/golangsnmp/cdecl/ctype"
	"github.com/golangsnmp/cdecl/internal/types"
)

type entry struct {
	typ    ctype.Type // nil for aliases
	target Name
}

func (e entry) isAlias() bool { return e.typ == nil }

// Registry is a table of named C types. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	platform ctype.Platform
	entries  map[string]entry
	words    *wordTrie
	maxWords int
	types.Logger
}

// New returns a registry for platform seeded with the standard C scalars,
// void, the narrow and wide string pointers, and the common spelling and
// <stdint.h> aliases.
func New(platform ctype.Platform, logger *slog.Logger) *Registry {
	r := &Registry{
		platform: platform,
		entries:  make(map[string]entry),
		words:    newWordTrie(),
		maxWords: 1,
		Logger:   types.Logger{L: logger},
	}
	r.seed()
	r.Log(slog.LevelDebug, "registry initialized",
		slog.String("platform", platform.Name),
		slog.Int("names", len(r.entries)))
	return r
}

// Platform returns the data model used for pointer and scalar widths.
func (r *Registry) Platform() ctype.Platform {
	return r.platform
}

// Define registers name as t. Re-registering a name replaces the previous
// entry.
func (r *Registry) Define(name string, t ctype.Type) error {
	if t == nil {
		return fmt.Errorf("define %q: nil type", name)
	}
	n, err := ParseName(name)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(n, entry{typ: t})
	r.Log(slog.LevelDebug, "defined type",
		slog.String("name", n.Key()),
		slog.String("kind", t.Kind().String()))
	return nil
}

// DefineAlias registers name as an alias of target. The target need not
// exist yet.
func (r *Registry) DefineAlias(name, target string) error {
	n, err := ParseName(name)
	if err != nil {
		return err
	}
	tn, err := ParseName(target)
	if err != nil {
		return fmt.Errorf("alias %q: %w", name, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(n, entry{target: tn})
	r.Log(slog.LevelDebug, "defined alias",
		slog.String("name", n.Key()),
		slog.String("target", tn.Key()))
	return nil
}

func (r *Registry) put(n Name, e entry) {
	r.entries[n.Key()] = e
	if words := n.Words(); len(words) >= 2 {
		r.words.insert(words)
		r.maxWords = max(r.maxWords, len(words))
	}
}

// Lookup resolves base followed by pointers stars. The longest registered
// starred spelling wins, so with "char*" registered as a string pointer,
// ("char", 2) yields a pointer to that string pointer. Remaining depth is
// wrapped with [ctype.Platform.PointerTo]; aliases are followed
// transitively.
func (r *Registry) Lookup(base string, pointers int) (ctype.Type, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup(base, pointers, nil)
}

// Resolve is Lookup for a type name that may contain stars.
func (r *Registry) Resolve(name string) (ctype.Type, error) {
	n, err := ParseName(name)
	if err != nil {
		return nil, err
	}
	return r.Lookup(n.Base, n.Pointers)
}

func (r *Registry) lookup(base string, pointers int, chain []string) (ctype.Type, error) {
	for d := pointers; d >= 0; d-- {
		key := spell(base, d)
		e, ok := r.entries[key]
		if !ok {
			continue
		}
		if !e.isAlias() {
			return r.platform.PointerTo(e.typ, pointers-d), nil
		}
		if slices.Contains(chain, key) {
			return nil, fmt.Errorf("%w: %s", types.ErrCyclicAlias,
				strings.Join(append(chain, key), " -> "))
		}
		if r.TraceEnabled() {
			r.Trace("following alias",
				slog.String("name", key),
				slog.String("target", e.target.Key()))
		}
		t, err := r.lookup(e.target.Base, e.target.Pointers, append(chain, key))
		if err != nil {
			if len(chain) == 0 && errors.Is(err, types.ErrUnknownType) {
				return nil, fmt.Errorf("alias %s: %w", key, err)
			}
			return nil, err
		}
		return r.platform.PointerTo(t, pointers-d), nil
	}
	return nil, types.UnknownType(spell(base, pointers))
}

// Has reports whether name is registered exactly (aliases included,
// without resolving them).
func (r *Registry) Has(name string) bool {
	n, err := ParseName(name)
	if err != nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[n.Key()]
	return ok
}

// AliasTarget returns the target spelling of an alias entry.
func (r *Registry) AliasTarget(name string) (string, bool) {
	n, err := ParseName(name)
	if err != nil {
		return "", false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[n.Key()]
	if !ok || !e.isAlias() {
		return "", false
	}
	return e.target.Key(), true
}

// Names returns all registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Len returns the number of registered names.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// LongestName implements lexer.Names.
func (r *Registry) LongestName(words []string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if n := r.words.longest(words); n >= 2 {
		return n
	}
	return 0
}

// MaxWords implements lexer.Names.
func (r *Registry) MaxWords() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.maxWords
}
