package costing

import (
	"errors"
	"fmt"
	"strings"

	"smooth/internal/fitting"
)

var (
	ErrFittingCycle   = errors.New("fitting slots depend on each other in a cycle")
	ErrNoMatchingTier = errors.New("no tier matches the dependency value")
	ErrInvalidTiers   = errors.New("invalid tier thresholds")
)

// Resolver looks up attributes of simulated components.
type Resolver interface {
	Resolve(component, attribute string) (float64, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(component, attribute string) (float64, error)

func (f ResolverFunc) Resolve(component, attribute string) (float64, error) {
	return f(component, attribute)
}

// Set holds the slots of one component. Nil slots resolve to zero.
type Set struct {
	Capex        *Slot `yaml:"capex,omitempty" json:"capex,omitempty"`
	Opex         *Slot `yaml:"opex,omitempty" json:"opex,omitempty"`
	FixEmissions *Slot `yaml:"fix_emissions,omitempty" json:"fix_emissions,omitempty"`
	OpEmissions  *Slot `yaml:"op_emissions,omitempty" json:"op_emissions,omitempty"`
}

func (s Set) Get(n Name) *Slot {
	switch n {
	case Capex:
		return s.Capex
	case Opex:
		return s.Opex
	case FixEmissions:
		return s.FixEmissions
	case OpEmissions:
		return s.OpEmissions
	}
	return nil
}

// Empty reports whether no slot is set.
func (s Set) Empty() bool {
	return s.Capex == nil && s.Opex == nil && s.FixEmissions == nil && s.OpEmissions == nil
}

// NeedsLifeTime reports whether capex or fix_emissions is a known non-zero
// constant. Slots that depend on other values are checked once resolved.
func (s Set) NeedsLifeTime() bool {
	for _, slot := range []*Slot{s.Capex, s.FixEmissions} {
		if v, ok := slot.Constant(); ok && v != 0 {
			return true
		}
	}
	return false
}

// Values are the resolved slots of a component.
type Values struct {
	Capex        float64 `json:"capex"`
	Opex         float64 `json:"opex"`
	FixEmissions float64 `json:"fix_emissions"`
	OpEmissions  float64 `json:"op_emissions"`
}

func (v Values) Get(n Name) float64 {
	switch n {
	case Capex:
		return v.Capex
	case Opex:
		return v.Opex
	case FixEmissions:
		return v.FixEmissions
	case OpEmissions:
		return v.OpEmissions
	}
	return 0
}

func (v *Values) set(n Name, x float64) {
	switch n {
	case Capex:
		v.Capex = x
	case Opex:
		v.Opex = x
	case FixEmissions:
		v.FixEmissions = x
	case OpEmissions:
		v.OpEmissions = x
	}
}

// Validate checks every slot and the references between them.
func (s Set) Validate() error {
	for _, n := range Names {
		if slot := s.Get(n); slot != nil {
			if err := slot.Validate(); err != nil {
				return fmt.Errorf("%s: %w", n, err)
			}
		}
	}
	_, err := s.Order()
	return err
}

// Order returns the set slots so that every slot comes after the slots it
// depends on. A slot naming itself refers to its own running cost.
func (s Set) Order() ([]Name, error) {
	deps := make(map[Name][]Name)
	for _, n := range Names {
		slot := s.Get(n)
		if slot == nil {
			continue
		}
		for _, step := range slot.steps() {
			ref := step.DependantValue.Name
			if step.Key == fitting.KeyFix || !IsName(ref) || Name(ref) == n {
				continue
			}
			if s.Get(Name(ref)) == nil {
				return nil, fmt.Errorf("%w: %s depends on %s which is not set", fitting.ErrInvalidFittingSpec, n, ref)
			}
			deps[n] = appendUnique(deps[n], Name(ref))
		}
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[Name]int)
	order := make([]Name, 0, len(Names))
	var path []Name

	var visit func(n Name) error
	visit = func(n Name) error {
		switch state[n] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("%w: %s", ErrFittingCycle, cyclePath(path, n))
		}
		state[n] = visiting
		path = append(path, n)
		for _, d := range deps[n] {
			if err := visit(d); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		state[n] = done
		order = append(order, n)
		return nil
	}

	for _, n := range Names {
		if s.Get(n) == nil {
			continue
		}
		if err := visit(n); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// Resolve evaluates every slot of component. Attributes are read through r.
func (s Set) Resolve(component string, r Resolver) (Values, error) {
	order, err := s.Order()
	if err != nil {
		return Values{}, err
	}
	var out Values
	for _, n := range order {
		v, err := s.Get(n).evaluate(n, component, r, &out)
		if err != nil {
			return Values{}, fmt.Errorf("%s: %w", n, err)
		}
		out.set(n, v)
	}
	return out, nil
}

// Resolve evaluates a single slot that does not reference other slots.
func (s *Slot) Resolve(component string, r Resolver) (float64, error) {
	return s.evaluate("", component, r, &Values{})
}

func (s *Slot) evaluate(self Name, component string, r Resolver, resolved *Values) (float64, error) {
	slot := s
	if s.Tiers != nil {
		v, err := r.Resolve(component, s.Tiers.Dependency)
		if err != nil {
			return 0, err
		}
		tier, err := s.Tiers.choose(v)
		if err != nil {
			return 0, err
		}
		slot = &tier.Slot
	}

	var current *float64
	if slot.Cost != nil {
		c := *slot.Cost
		current = &c
	}

	for i, step := range slot.Steps {
		if step.Cost != nil {
			c := *step.Cost
			current = &c
		}
		v, err := evaluateStep(step, self, component, r, resolved, current)
		if err != nil {
			return 0, fmt.Errorf("step %d (%s): %w", i, step.Key, err)
		}
		current = &v
	}
	if current == nil {
		return 0, fmt.Errorf("%w: slot produced no value", fitting.ErrInvalidFittingSpec)
	}
	return *current, nil
}

func evaluateStep(step fitting.Spec, self Name, component string, r Resolver, resolved *Values, current *float64) (float64, error) {
	if !step.Key.Valid() {
		return 0, fmt.Errorf("%w: %q", fitting.ErrUnknownFittingKey, string(step.Key))
	}
	if step.Key == fitting.KeyFix && step.FittingValue.IsZero() {
		if current == nil {
			return 0, fmt.Errorf("%w: fix step without a value or a cost", fitting.ErrInvalidFittingSpec)
		}
		return *current, nil
	}

	values, err := step.FittingValue.Resolve(current)
	if err != nil {
		return 0, err
	}

	d := 0.0
	if step.Key != fitting.KeyFix {
		d, err = dependant(step.DependantValue, self, component, r, resolved, current)
		if err != nil {
			return 0, err
		}
	}
	return fitting.Evaluate(step.Key, d, values)
}

func dependant(dep fitting.Dependant, self Name, component string, r Resolver, resolved *Values, current *float64) (float64, error) {
	switch {
	case dep.IsLiteral():
		return *dep.Number, nil
	case dep.IsZero():
		return 0, fmt.Errorf("%w: missing dependant_value", fitting.ErrInvalidFittingSpec)
	case dep.IsCost(), self != "" && Name(dep.Name) == self:
		if current == nil {
			return 0, fmt.Errorf("%w: dependant_value %q used before any cost is known", fitting.ErrInvalidFittingSpec, dep.Name)
		}
		return *current, nil
	case IsName(dep.Name) && self != "":
		return resolved.Get(Name(dep.Name)), nil
	}
	return r.Resolve(component, dep.Name)
}

func appendUnique(ns []Name, n Name) []Name {
	for _, x := range ns {
		if x == n {
			return ns
		}
	}
	return append(ns, n)
}

func cyclePath(path []Name, back Name) string {
	start := 0
	for i, n := range path {
		if n == back {
			start = i
			break
		}
	}
	parts := make([]string, 0, len(path)-start+1)
	for _, n := range path[start:] {
		parts = append(parts, string(n))
	}
	parts = append(parts, string(back))
	return strings.Join(parts, " -> ")
}
