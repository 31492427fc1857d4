package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"smooth/internal/costing"
	"smooth/internal/model"
)

// ComponentConfig is one component as written in a model file or preset.
//
// Keys that are not listed here (power_max, storage_capacity, bus_el, ...)
// land in Attributes; the numeric ones can be referenced by fittings.
type ComponentConfig struct {
	Name          string  `yaml:"name,omitempty" validate:"required"`
	Component     string  `yaml:"component" validate:"required"`
	ComponentFile string  `yaml:"component_file,omitempty"`
	LifeTime      float64 `yaml:"life_time,omitempty" validate:"gte=0"`

	VariableCosts       *float64 `yaml:"variable_costs,omitempty"`
	ArtificialCosts     *float64 `yaml:"artificial_costs,omitempty"`
	DependencyFlowCosts []string `yaml:"dependency_flow_costs,omitempty" validate:"omitempty,len=2,dive,required"`

	VariableEmissions       *float64 `yaml:"variable_emissions,omitempty"`
	DependencyFlowEmissions []string `yaml:"dependency_flow_emissions,omitempty" validate:"omitempty,len=2,dive,required"`

	// Foreign state: with an empty component name the attribute is read as a number.
	FSComponentName string   `yaml:"fs_component_name,omitempty"`
	FSAttributeName string   `yaml:"fs_attribute_name,omitempty" validate:"required_with=FSComponentName FSThreshold"`
	FSThreshold     *float64 `yaml:"fs_threshold,omitempty" validate:"required_with=FSLowArtCost FSHighArtCost"`
	FSLowArtCost    *float64 `yaml:"fs_low_art_cost,omitempty" validate:"required_with=FSThreshold"`
	FSHighArtCost   *float64 `yaml:"fs_high_art_cost,omitempty" validate:"required_with=FSThreshold"`

	Slots      costing.Set    `yaml:",inline" validate:"-"`
	Attributes map[string]any `yaml:",inline"`
}

// ComponentList decodes either a mapping keyed by component name or a list
// of components carrying a name each.
type ComponentList []ComponentConfig

func (l *ComponentList) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.MappingNode:
		out := make(ComponentList, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			name := n.Content[i].Value
			var c ComponentConfig
			if err := n.Content[i+1].Decode(&c); err != nil {
				return fmt.Errorf("component %q: %w", name, err)
			}
			if c.Name != "" && c.Name != name {
				return fmt.Errorf("component %q: name %q does not match its key", name, c.Name)
			}
			c.Name = name
			out = append(out, c)
		}
		*l = out
	case yaml.SequenceNode:
		var out []ComponentConfig
		if err := n.Decode(&out); err != nil {
			return err
		}
		*l = out
	case yaml.ScalarNode:
		if n.Tag != "!!null" {
			return fmt.Errorf("line %d: components must be a mapping or a list", n.Line)
		}
		*l = nil
	default:
		return fmt.Errorf("line %d: components must be a mapping or a list", n.Line)
	}
	return nil
}

func (c ComponentConfig) ToModelParams() (model.Params, error) {
	p := model.Params{
		Type:              c.Component,
		Name:              c.Name,
		LifeTime:          c.LifeTime,
		VariableCosts:     c.VariableCosts,
		ArtificialCosts:   c.ArtificialCosts,
		VariableEmissions: c.VariableEmissions,
		Slots:             c.Slots,
	}

	if len(c.DependencyFlowCosts) > 0 {
		f, err := model.ParseFlow(c.DependencyFlowCosts)
		if err != nil {
			return model.Params{}, fmt.Errorf("component %q dependency_flow_costs: %w", c.Name, err)
		}
		p.DependencyFlowCosts = &f
	}
	if len(c.DependencyFlowEmissions) > 0 {
		f, err := model.ParseFlow(c.DependencyFlowEmissions)
		if err != nil {
			return model.Params{}, fmt.Errorf("component %q dependency_flow_emissions: %w", c.Name, err)
		}
		p.DependencyFlowEmissions = &f
	}

	switch {
	case c.FSComponentName != "":
		p.ForeignState = &model.ForeignState{Component: c.FSComponentName, Attribute: c.FSAttributeName}
	case c.FSAttributeName != "":
		v, err := strconv.ParseFloat(c.FSAttributeName, 64)
		if err != nil {
			return model.Params{}, fmt.Errorf("component %q: fs_attribute_name %q without fs_component_name must be a number", c.Name, c.FSAttributeName)
		}
		fs := model.LiteralState(v)
		p.ForeignState = &fs
	}
	if c.FSThreshold != nil {
		if c.FSLowArtCost == nil || c.FSHighArtCost == nil {
			return model.Params{}, fmt.Errorf("component %q: fs_threshold needs fs_low_art_cost and fs_high_art_cost", c.Name)
		}
		p.ArtificialRule = &model.ArtificialCostRule{
			Threshold: *c.FSThreshold,
			Low:       *c.FSLowArtCost,
			High:      *c.FSHighArtCost,
		}
	}

	for k, v := range c.Attributes {
		if f, ok := number(v); ok {
			if p.Attributes == nil {
				p.Attributes = make(map[string]float64)
			}
			p.Attributes[k] = f
		}
	}
	return p, nil
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// LoadComponentFile reads a component preset.
func LoadComponentFile(path string) (ComponentConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ComponentConfig{}, err
	}
	var c ComponentConfig
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return ComponentConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Preset is a component file found in a preset directory.
type Preset struct {
	File      string
	Component ComponentConfig
}

// ListComponentFiles loads every *.yaml and *.yml preset in dir, sorted by file name.
func ListComponentFiles(dir string) ([]Preset, error) {
	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		m, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, m...)
	}
	sort.Strings(files)

	out := make([]Preset, 0, len(files))
	for _, f := range files {
		c, err := LoadComponentFile(f)
		if err != nil {
			return nil, err
		}
		out = append(out, Preset{File: filepath.Base(f), Component: c})
	}
	return out, nil
}

// MergeComponent overlays the set fields of override onto base.
// This is used when loading a preset and then applying the model's fields.
func MergeComponent(base, override ComponentConfig) ComponentConfig {
	out := base
	out.ComponentFile = override.ComponentFile
	if override.Name != "" {
		out.Name = override.Name
	}
	if override.Component != "" {
		out.Component = override.Component
	}
	if override.LifeTime != 0 {
		out.LifeTime = override.LifeTime
	}
	if override.VariableCosts != nil {
		out.VariableCosts = override.VariableCosts
	}
	if override.ArtificialCosts != nil {
		out.ArtificialCosts = override.ArtificialCosts
	}
	if len(override.DependencyFlowCosts) > 0 {
		out.DependencyFlowCosts = override.DependencyFlowCosts
	}
	if override.VariableEmissions != nil {
		out.VariableEmissions = override.VariableEmissions
	}
	if len(override.DependencyFlowEmissions) > 0 {
		out.DependencyFlowEmissions = override.DependencyFlowEmissions
	}
	if override.FSComponentName != "" {
		out.FSComponentName = override.FSComponentName
	}
	if override.FSAttributeName != "" {
		out.FSAttributeName = override.FSAttributeName
	}
	if override.FSThreshold != nil {
		out.FSThreshold = override.FSThreshold
	}
	if override.FSLowArtCost != nil {
		out.FSLowArtCost = override.FSLowArtCost
	}
	if override.FSHighArtCost != nil {
		out.FSHighArtCost = override.FSHighArtCost
	}
	for _, n := range costing.Names {
		if s := override.Slots.Get(n); s != nil {
			out.Slots = setSlot(out.Slots, n, s)
		}
	}
	if len(override.Attributes) > 0 {
		attrs := make(map[string]any, len(base.Attributes)+len(override.Attributes))
		for k, v := range base.Attributes {
			attrs[k] = v
		}
		for k, v := range override.Attributes {
			attrs[k] = v
		}
		out.Attributes = attrs
	}
	return out
}

func setSlot(s costing.Set, n costing.Name, slot *costing.Slot) costing.Set {
	switch n {
	case costing.Capex:
		s.Capex = slot
	case costing.Opex:
		s.Opex = slot
	case costing.FixEmissions:
		s.FixEmissions = slot
	case costing.OpEmissions:
		s.OpEmissions = slot
	}
	return s
}
