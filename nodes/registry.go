// Package nodes provides built-in processors and a registry that creates
// them by type name.
package nodes

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cwbudde/algo-graph/engine/processor"
)

// ErrUnknownType is returned when a type name has no registered factory.
var ErrUnknownType = errors.New("nodes: unknown node type")

var errDuplicateType = errors.New("nodes: duplicate node type")

// Factory builds one processor implementation.
type Factory func() (processor.Impl, error)

// Typed is implemented by processors that know their registry type name.
type Typed interface {
	TypeName() string
}

// TypeOf returns the registry type name of a node, or "" when its
// implementation does not report one.
func TypeOf(n *processor.Node) string {
	if t, ok := n.Impl().(Typed); ok {
		return t.TypeName()
	}

	return ""
}

// Registry maps type names to factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory for the given type.
func (r *Registry) Register(typeName string, factory Factory) error {
	if typeName == "" {
		return errors.New("nodes: empty node type")
	}

	if factory == nil {
		return errors.New("nodes: nil factory")
	}

	if _, exists := r.factories[typeName]; exists {
		return fmt.Errorf("%w: %s", errDuplicateType, typeName)
	}

	r.factories[typeName] = factory

	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(typeName string, factory Factory) {
	if err := r.Register(typeName, factory); err != nil {
		panic(err.Error())
	}
}

// Lookup returns the factory for the given type, or nil.
func (r *Registry) Lookup(typeName string) Factory {
	return r.factories[typeName]
}

// Types returns the registered type names in sorted order.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.factories))
	for name := range r.factories {
		out = append(out, name)
	}
	sort.Strings(out)

	return out
}

// Create builds a node of the given type, named after the type.
func (r *Registry) Create(typeName string) (*processor.Node, error) {
	factory := r.Lookup(typeName)
	if factory == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, typeName)
	}

	impl, err := factory()
	if err != nil {
		return nil, fmt.Errorf("nodes: create %s: %w", typeName, err)
	}

	n := processor.New(impl)
	n.SetName(typeName)

	return n, nil
}

// DefaultRegistry returns a registry holding every built-in processor.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.MustRegister(TypeGain, func() (processor.Impl, error) { return NewGain(2), nil })
	r.MustRegister(TypeTone, func() (processor.Impl, error) { return NewTone(2), nil })
	r.MustRegister(TypeDelay, func() (processor.Impl, error) { return NewDelay(2), nil })
	r.MustRegister(TypeFilter, func() (processor.Impl, error) { return NewFilter(2), nil })
	r.MustRegister(TypeAnalyzer, func() (processor.Impl, error) { return NewAnalyzer(DefaultFFTSize) })
	r.MustRegister(TypeCVScale, func() (processor.Impl, error) { return NewCVScale(), nil })

	return r
}
