package model

import (
	"errors"
	"fmt"
)

var (
	ErrForeignStateNotFound = errors.New("foreign state not found")
	ErrDuplicateName        = errors.New("component name is not unique")
)

// ForeignState points at an attribute of another component. With an empty
// Component the Literal is used instead.
type ForeignState struct {
	Component string
	Attribute string
	Literal   *float64
}

// LiteralState builds a foreign state that always yields v.
func LiteralState(v float64) ForeignState {
	return ForeignState{Literal: &v}
}

func (fs ForeignState) String() string {
	if fs.Component == "" && fs.Literal != nil {
		return fmt.Sprintf("%g", *fs.Literal)
	}
	return fs.Component + "." + fs.Attribute
}

// Registry indexes every component of a run by name.
type Registry struct {
	byName map[string]*Component
	order  []*Component
}

func NewRegistry(components ...*Component) (*Registry, error) {
	r := &Registry{byName: make(map[string]*Component, len(components))}
	for _, c := range components {
		if err := r.Add(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Add(c *Component) error {
	if _, ok := r.byName[c.Name()]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateName, c.Name())
	}
	r.byName[c.Name()] = c
	r.order = append(r.order, c)
	return nil
}

func (r *Registry) Get(name string) (*Component, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// Components returns the components in registration order.
func (r *Registry) Components() []*Component {
	return r.order
}

// Simulated returns the components that take part in the timestep loop.
func (r *Registry) Simulated() []*Component {
	out := make([]*Component, 0, len(r.order))
	for _, c := range r.order {
		if !c.External {
			out = append(out, c)
		}
	}
	return out
}

// Resolve returns attribute of component, its current state first.
func (r *Registry) Resolve(component, attribute string) (float64, error) {
	c, ok := r.byName[component]
	if !ok {
		return 0, fmt.Errorf("%w: no component %q", ErrForeignStateNotFound, component)
	}
	v, ok := c.Value(attribute)
	if !ok {
		return 0, fmt.Errorf("%w: component %q has no attribute %q", ErrForeignStateNotFound, component, attribute)
	}
	return v, nil
}

// ForeignState resolves fs against the registry.
func (r *Registry) ForeignState(fs ForeignState) (float64, error) {
	if fs.Component == "" {
		if fs.Literal != nil {
			return *fs.Literal, nil
		}
		return 0, fmt.Errorf("%w: empty foreign state", ErrForeignStateNotFound)
	}
	return r.Resolve(fs.Component, fs.Attribute)
}
