// Package costing resolves the fitting slots of a component (capex, opex,
// fix_emissions, op_emissions) into plain numbers.
//
// A slot is a chain of fitting steps applied in order, or a list of tiers
// of which one is picked by the value of a component attribute. Slots may
// depend on each other through their dependant values; they are resolved in
// dependency order and cycles are rejected before anything is evaluated.
package costing

import (
	"fmt"
	"math"

	"gopkg.in/yaml.v3"

	"smooth/internal/fitting"
)

// Name identifies a slot.
type Name string

const (
	Capex        Name = "capex"
	Opex         Name = "opex"
	FixEmissions Name = "fix_emissions"
	OpEmissions  Name = "op_emissions"
)

// Names lists the slots in their default resolution order.
var Names = []Name{Capex, Opex, FixEmissions, OpEmissions}

// IsName reports whether s names a slot.
func IsName(s string) bool {
	switch Name(s) {
	case Capex, Opex, FixEmissions, OpEmissions:
		return true
	}
	return false
}

// tieredKey marks a slot made of tiers.
const tieredKey = "variable"

// Slot is one fitting slot of a component.
type Slot struct {
	// Cost is the value before the first step. A slot with a cost and no
	// steps is a fixed value.
	Cost  *float64
	Steps []fitting.Spec
	Tiers *Tiered
}

// Tiered picks one tier by the value of Dependency.
type Tiered struct {
	Dependency string
	Tiers      []Tier
}

// Tier applies its slot when Low <= value < High. A nil High is unbounded.
type Tier struct {
	Low  float64
	High *float64
	Slot Slot
}

func (t Tier) upper() float64 {
	if t.High == nil {
		return math.Inf(1)
	}
	return *t.High
}

// Fixed builds a slot holding a constant.
func Fixed(v float64) *Slot {
	return &Slot{Cost: &v}
}

// Chain builds a slot applying steps in order.
func Chain(steps ...fitting.Spec) *Slot {
	return &Slot{Steps: steps}
}

// Constant returns the value of a slot that depends on nothing: a plain cost
// or a single fix step with a number.
func (s *Slot) Constant() (float64, bool) {
	if s == nil || s.Tiers != nil {
		return 0, false
	}
	switch {
	case len(s.Steps) == 0 && s.Cost != nil:
		return *s.Cost, true
	case len(s.Steps) == 1 && s.Steps[0].Key == fitting.KeyFix:
		v := s.Steps[0].FittingValue
		if v.Len() == 1 && !v.UsesCost() {
			return v.Items[0].Number, true
		}
	}
	return 0, false
}

// Validate checks keys, cardinalities and tier ranges. References are
// checked when the slots of a component are resolved together.
func (s *Slot) Validate() error {
	if s.Tiers != nil {
		return s.Tiers.validate()
	}
	if len(s.Steps) == 0 && s.Cost == nil {
		return fmt.Errorf("%w: slot has neither steps nor cost", fitting.ErrInvalidFittingSpec)
	}
	placeholder := 0.0
	for i, step := range s.Steps {
		// A fix step without a value keeps the cost so far.
		if step.Cost == nil && (i > 0 || s.Cost != nil) {
			step.Cost = &placeholder
		}
		if err := step.Validate(); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}

func (t *Tiered) validate() error {
	if t.Dependency == "" {
		return fmt.Errorf("%w: var_dict_dependency is required", fitting.ErrInvalidFittingSpec)
	}
	if len(t.Tiers) == 0 {
		return fmt.Errorf("%w: var_dicts is empty", fitting.ErrInvalidFittingSpec)
	}
	for i, tier := range t.Tiers {
		if !(tier.Low < tier.upper()) {
			return fmt.Errorf("%w: tier %d has an empty or negative range", ErrInvalidTiers, i)
		}
		if i+1 < len(t.Tiers) {
			next := t.Tiers[i+1]
			if tier.Low > next.Low {
				return fmt.Errorf("%w: tier %d is not in ascending order", ErrInvalidTiers, i+1)
			}
			if tier.upper() > next.Low {
				return fmt.Errorf("%w: tiers %d and %d overlap", ErrInvalidTiers, i, i+1)
			}
		}
		if tier.Slot.Tiers != nil {
			return fmt.Errorf("%w: tier %d is tiered itself", fitting.ErrInvalidFittingSpec, i)
		}
		if err := tier.Slot.Validate(); err != nil {
			return fmt.Errorf("tier %d: %w", i, err)
		}
	}
	return nil
}

// choose returns the tier containing v.
func (t *Tiered) choose(v float64) (*Tier, error) {
	for i := range t.Tiers {
		if v >= t.Tiers[i].Low && v < t.Tiers[i].upper() {
			return &t.Tiers[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s = %g", ErrNoMatchingTier, t.Dependency, v)
}

// steps returns every step of the slot including those of all tiers.
func (s *Slot) steps() []fitting.Spec {
	if s.Tiers == nil {
		return s.Steps
	}
	var out []fitting.Spec
	for _, t := range s.Tiers.Tiers {
		out = append(out, t.Slot.Steps...)
	}
	return out
}

type rawSlot struct {
	Key               yaml.Node `yaml:"key"`
	Cost              *float64  `yaml:"cost"`
	DependantValue    yaml.Node `yaml:"dependant_value"`
	FittingValue      yaml.Node `yaml:"fitting_value"`
	VarDictDependency string    `yaml:"var_dict_dependency"`
	VarDicts          []Tier    `yaml:"var_dicts"`
}

// UnmarshalYAML accepts a single step, parallel lists of keys, dependant
// values and fitting values, or a tiered slot.
func (s *Slot) UnmarshalYAML(node *yaml.Node) error {
	*s = Slot{}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: slot must be a mapping (line %d)", fitting.ErrInvalidFittingSpec, node.Line)
	}
	var raw rawSlot
	if err := node.Decode(&raw); err != nil {
		return err
	}
	s.Cost = raw.Cost

	switch raw.Key.Kind {
	case 0:
		if raw.Cost == nil {
			return fmt.Errorf("%w: slot needs a key or a cost (line %d)", fitting.ErrInvalidFittingSpec, node.Line)
		}
		return nil
	case yaml.ScalarNode:
		if raw.Key.Value == tieredKey {
			s.Tiers = &Tiered{Dependency: raw.VarDictDependency, Tiers: raw.VarDicts}
			return nil
		}
		var spec fitting.Spec
		if err := node.Decode(&spec); err != nil {
			return err
		}
		spec.Cost = nil
		s.Steps = []fitting.Spec{spec}
		return nil
	case yaml.SequenceNode:
		return s.decodeChain(&raw)
	}
	return fmt.Errorf("%w: key must be a name or a list (line %d)", fitting.ErrInvalidFittingSpec, raw.Key.Line)
}

func (s *Slot) decodeChain(raw *rawSlot) error {
	n := len(raw.Key.Content)
	deps, err := parallel(&raw.DependantValue, n, "dependant_value")
	if err != nil {
		return err
	}
	vals, err := parallel(&raw.FittingValue, n, "fitting_value")
	if err != nil {
		return err
	}
	s.Steps = make([]fitting.Spec, n)
	for i, k := range raw.Key.Content {
		step := fitting.Spec{Key: fitting.Key(k.Value)}
		if deps[i] != nil {
			if err := deps[i].Decode(&step.DependantValue); err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
		}
		if vals[i] != nil {
			if err := vals[i].Decode(&step.FittingValue); err != nil {
				return fmt.Errorf("step %d: %w", i, err)
			}
		}
		s.Steps[i] = step
	}
	return nil
}

// parallel splits a list that runs parallel to the key list. A missing
// list yields nil entries.
func parallel(node *yaml.Node, n int, field string) ([]*yaml.Node, error) {
	out := make([]*yaml.Node, n)
	if node.Kind == 0 || node.Tag == "!!null" {
		return out, nil
	}
	if node.Kind != yaml.SequenceNode || len(node.Content) != n {
		return nil, fmt.Errorf("%w: %s must be a list of %d entries (line %d)", fitting.ErrInvalidFittingSpec, field, n, node.Line)
	}
	for i, c := range node.Content {
		if c.Tag != "!!null" {
			out[i] = c
		}
	}
	return out, nil
}

// UnmarshalJSON decodes the same shapes as UnmarshalYAML.
func (s *Slot) UnmarshalJSON(b []byte) error {
	return yaml.Unmarshal(b, s)
}

func (t *Tier) UnmarshalYAML(node *yaml.Node) error {
	var th struct {
		Low  *float64 `yaml:"low_threshold"`
		High *float64 `yaml:"high_threshold"`
	}
	if err := node.Decode(&th); err != nil {
		return err
	}
	if th.Low == nil {
		return fmt.Errorf("%w: low_threshold is required (line %d)", ErrInvalidTiers, node.Line)
	}
	t.Low = *th.Low
	t.High = th.High
	if t.High != nil && math.IsInf(*t.High, 1) {
		t.High = nil
	}
	return node.Decode(&t.Slot)
}
