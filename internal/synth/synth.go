// Package synth turns declaration nodes into foreign-type descriptors.
package synth

import (
	"fmt"
	"log/slog"

	"github.com/golangsnmp/cdecl/ctype"
	"github.com/golangsnmp/cdecl/internal/ast"
	"github.com/golangsnmp/cdecl/internal/types"
)

// Resolver looks up a base type name followed by a pointer depth.
// *registry.Registry implements it.
type Resolver interface {
	Lookup(base string, pointers int) (ctype.Type, error)
	Platform() ctype.Platform
}

// Synthesizer resolves declarations against a Resolver.
type Synthesizer struct {
	res Resolver
	types.Logger
}

// New returns a Synthesizer. Pass nil for logger to disable logging.
func New(res Resolver, logger *slog.Logger) *Synthesizer {
	return &Synthesizer{res: res, Logger: types.Logger{L: logger}}
}

// Type returns the descriptor for decl. Non-function declarations resolve
// to the base type wrapped in their pointer depth; function-shaped ones
// produce a *ctype.Func from the return and parameter nodes in order.
func (s *Synthesizer) Type(decl *ast.Decl) (ctype.Type, error) {
	base, err := s.res.Lookup(decl.Type.Name, decl.Type.Pointers)
	if err != nil {
		return nil, err
	}
	if !decl.IsFunc() {
		if s.TraceEnabled() {
			s.Trace("synthesized",
				slog.String("type", decl.Type.String()),
				slog.String("kind", base.Kind().String()))
		}
		return base, nil
	}

	params := make([]ctype.Type, len(decl.Func.Params))
	for i, p := range decl.Func.Params {
		pt, err := s.Type(p)
		if err != nil {
			return nil, fmt.Errorf("parameter %d: %w", i+1, err)
		}
		params[i] = pt
	}
	fn := s.res.Platform().Func(base, params...)
	s.Log(slog.LevelDebug, "synthesized function",
		slog.String("name", decl.Name.Name),
		slog.String("signature", fn.String()))
	return fn, nil
}
