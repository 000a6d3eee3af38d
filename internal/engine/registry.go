package engine

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownEngine is returned when no constructor is registered under a name.
var ErrUnknownEngine = errors.New("unknown engine")

// Engines is a resolved pair of compilers sharing one engine implementation.
type Engines struct {
	Queries QueryCompiler
	Probes  ProbeCompiler
}

// Constructor builds a fresh engine pair.
type Constructor func() (Engines, error)

// Registry maps configured engine names to constructors. It is filled
// explicitly during bootstrap and resolved once.
type Registry struct {
	ctors map[string]Constructor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{ctors: make(map[string]Constructor)}
}

// Register adds a constructor. Registering a name twice is an error.
func (r *Registry) Register(name string, ctor Constructor) error {
	if name == "" || ctor == nil {
		return errors.New("engine name and constructor are required")
	}
	if _, exists := r.ctors[name]; exists {
		return fmt.Errorf("engine %q already registered", name)
	}
	r.ctors[name] = ctor
	return nil
}

// New constructs the engine registered under name.
func (r *Registry) New(name string) (Engines, error) {
	ctor, ok := r.ctors[name]
	if !ok {
		return Engines{}, fmt.Errorf("%w: %q (available: %v)", ErrUnknownEngine, name, r.Names())
	}

	engines, err := ctor()
	if err != nil {
		return Engines{}, fmt.Errorf("construct engine %q: %w", name, err)
	}
	if engines.Queries == nil || engines.Probes == nil {
		return Engines{}, fmt.Errorf("construct engine %q: incomplete engine pair", name)
	}

	return engines, nil
}

// Names lists registered engine names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.ctors))
	for name := range r.ctors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
