package cdecl

import (
	"log/slog"
	"sync"

	"github.com/golangsnmp/cdecl/ctype"
	"github.com/golangsnmp/cdecl/internal/registry"
	"github.com/golangsnmp/cdecl/internal/types"
)

// LevelTrace is a custom log level more verbose than Debug.
// Use for per-item iteration logging (tokens, alias hops, members).
// Enable with: &slog.HandlerOptions{Level: slog.Level(-8)}
const LevelTrace = types.LevelTrace

// Option configures Parse, Tokenize and the Define helpers.
type Option func(*config)

type config struct {
	registry *Registry
	logger   *slog.Logger
}

// WithRegistry resolves names against r instead of the process-wide
// registry returned by Default.
func WithRegistry(r *Registry) Option {
	return func(c *config) { c.registry = r }
}

// WithLogger sets the logger for debug/trace output.
// If not set, no logging occurs (zero overhead).
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

func newConfig(opts []Option) config {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.registry == nil {
		cfg.registry = Default()
	}
	return cfg
}

// RegistryOption configures NewRegistry.
type RegistryOption func(*registryConfig)

type registryConfig struct {
	platform ctype.Platform
	logger   *slog.Logger
}

// WithPlatform selects the data model. The default is ctype.Host().
func WithPlatform(p ctype.Platform) RegistryOption {
	return func(c *registryConfig) { c.platform = p }
}

// WithRegistryLogger sets the logger for registry definitions and alias
// resolution.
func WithRegistryLogger(logger *slog.Logger) RegistryOption {
	return func(c *registryConfig) { c.logger = logger }
}

// NewRegistry returns an isolated registry seeded with the standard C
// types.
//
// Example:
//
//	reg := cdecl.NewRegistry(cdecl.WithPlatform(ctype.ILP32))
//	d, err := cdecl.Parse("unsigned long n", cdecl.WithRegistry(reg))
func NewRegistry(opts ...RegistryOption) *Registry {
	cfg := registryConfig{platform: ctype.Host()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return registry.New(cfg.platform, types.ComponentLogger(cfg.logger, "registry"))
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	return NewRegistry()
})

// Default returns the process-wide registry for the host platform. It is
// created on first use and lives for the rest of the process.
func Default() *Registry {
	return defaultRegistry()
}

// Define registers name as t. Re-defining a name replaces it.
func Define(name string, t Type, opts ...Option) error {
	cfg := newConfig(opts)
	return cfg.registry.Define(name, t)
}

// DefineAlias registers name as another spelling of target, which may
// carry pointer stars and need not be registered yet:
//
//	cdecl.DefineAlias("USBDeviceAddress", "UInt16")
//	cdecl.DefineAlias("IOUSBConfigurationDescriptorPtr", "IOUSBConfigurationDescriptor*")
func DefineAlias(name, target string, opts ...Option) error {
	cfg := newConfig(opts)
	return cfg.registry.DefineAlias(name, target)
}
