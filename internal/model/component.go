package model

import (
	"errors"
	"fmt"
	"sort"

	"smooth/internal/annuity"
	"smooth/internal/costing"
	"smooth/internal/financial"
)

var (
	ErrMissingDependencyFlow = errors.New("dependency flow is required")
	ErrFlowNotFound          = errors.New("flow not found in solution")
)

// Params defines a component as written in a model.
// Units:
// - LifeTime: years
// - VariableCosts, ArtificialCosts: currency per energy unit of the dependency flow (e.g. EUR/Wh)
// - VariableEmissions: mass per energy unit of the dependency flow (e.g. kg/Wh)
type Params struct {
	Type     string
	Name     string
	LifeTime float64

	VariableCosts   *float64
	ArtificialCosts *float64
	// Artificial costs steer the solver and are left out of the financial analysis.
	DependencyFlowCosts *Flow

	VariableEmissions       *float64
	DependencyFlowEmissions *Flow

	ForeignState   *ForeignState
	ArtificialRule *ArtificialCostRule

	Slots costing.Set

	// Attributes are the numeric device parameters (p_max, storage_capacity, ...)
	// that fittings and foreign states can refer to.
	Attributes map[string]float64
}

// ArtificialCostRule switches the artificial costs depending on the foreign
// state: Low below Threshold, High otherwise.
type ArtificialCostRule struct {
	Threshold float64
	Low       float64
	High      float64
}

// Attribute looks up a numeric parameter by its model file name.
func (p Params) Attribute(name string) (float64, bool) {
	switch name {
	case "life_time":
		return p.LifeTime, true
	case "variable_costs":
		return deref(p.VariableCosts)
	case "artificial_costs":
		return deref(p.ArtificialCosts)
	case "variable_emissions":
		return deref(p.VariableEmissions)
	}
	v, ok := p.Attributes[name]
	return v, ok
}

func deref(v *float64) (float64, bool) {
	if v == nil {
		return 0, false
	}
	return *v, true
}

// Component is a simulated (or external) component bundling params, mutable
// state and its financial record.
type Component struct {
	Params   Params
	External bool

	// States holds the latest value of every solver reported state.
	States map[string]float64
	// StateSeries and FlowSeries hold one value per timestep.
	StateSeries map[string][]float64
	FlowSeries  map[Flow][]float64

	Record *financial.Record

	// Foreign is the foreign state value read in the last PrepareStep.
	Foreign *float64

	artificial *float64
	nIntervals int
}

// NewComponent validates p and allocates the per-step series for nIntervals.
func NewComponent(p Params, nIntervals int) (*Component, error) {
	c := &Component{
		Params:      p,
		States:      make(map[string]float64),
		StateSeries: make(map[string][]float64),
		FlowSeries:  make(map[Flow][]float64),
		Record:      financial.NewRecord(),
		artificial:  p.ArtificialCosts,
		nIntervals:  nIntervals,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewExternalComponent builds a component that is not simulated and only
// contributes its one-time and recurring values.
func NewExternalComponent(p Params) (*Component, error) {
	c := &Component{
		Params:      p,
		External:    true,
		States:      make(map[string]float64),
		StateSeries: make(map[string][]float64),
		FlowSeries:  make(map[Flow][]float64),
		Record:      financial.NewRecord(),
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Component) Name() string { return c.Params.Name }

func (c *Component) Validate() error {
	p := c.Params
	if p.Name == "" {
		return errors.New("name is required")
	}
	if p.Type == "" {
		return fmt.Errorf("component %s: component type is required", p.Name)
	}
	if p.Slots.NeedsLifeTime() && p.LifeTime <= 0 {
		return fmt.Errorf("component %s: capex or fix_emissions given: %w", p.Name, annuity.ErrMissingLifeTime)
	}
	if err := p.Slots.Validate(); err != nil {
		return fmt.Errorf("component %s: %w", p.Name, err)
	}
	if c.External {
		return nil
	}
	if (p.VariableCosts != nil || p.ArtificialCosts != nil || p.ArtificialRule != nil) && p.DependencyFlowCosts == nil {
		return fmt.Errorf("component %s: variable or artificial costs given: %w", p.Name, ErrMissingDependencyFlow)
	}
	if p.VariableEmissions != nil && p.DependencyFlowEmissions == nil {
		return fmt.Errorf("component %s: variable emissions given: %w", p.Name, ErrMissingDependencyFlow)
	}
	if p.ArtificialRule != nil && p.ForeignState == nil {
		return fmt.Errorf("component %s: fs_threshold needs a foreign state", p.Name)
	}
	if c.nIntervals <= 0 {
		return fmt.Errorf("component %s: number of intervals must be > 0", p.Name)
	}
	return nil
}

// Value returns the current state named attr, falling back to the params.
func (c *Component) Value(attr string) (float64, bool) {
	if v, ok := c.States[attr]; ok {
		return v, true
	}
	return c.Params.Attribute(attr)
}

// PrepareStep reads the foreign state for the coming step and updates the
// artificial costs when a rule is configured.
func (c *Component) PrepareStep(r *Registry) error {
	fs := c.Params.ForeignState
	if fs == nil {
		return nil
	}
	v, err := r.ForeignState(*fs)
	if err != nil {
		return fmt.Errorf("component %s: %w", c.Name(), err)
	}
	c.Foreign = &v
	if rule := c.Params.ArtificialRule; rule != nil {
		art := rule.High
		if v < rule.Threshold {
			art = rule.Low
		}
		c.artificial = &art
	}
	return nil
}

// CurrentCosts is the sum of variable and artificial costs per energy unit
// the solver should use for this step.
func (c *Component) CurrentCosts() float64 {
	total := 0.0
	if c.Params.VariableCosts != nil {
		total += *c.Params.VariableCosts
	}
	if c.artificial != nil {
		total += *c.artificial
	}
	return total
}

// ApplyStep records what the solver decided for step and accumulates the
// variable costs and emissions of the step in the component's record.
func (c *Component) ApplyStep(step int, intervalMin float64, flows map[Flow]float64, states map[string]float64) (financial.Step, error) {
	if step < 0 || step >= c.nIntervals {
		return financial.Step{}, fmt.Errorf("component %s: step %d outside of [0, %d)", c.Name(), step, c.nIntervals)
	}
	for f, v := range flows {
		series, ok := c.FlowSeries[f]
		if !ok {
			series = make([]float64, c.nIntervals)
			c.FlowSeries[f] = series
		}
		series[step] = v
	}
	for name, v := range states {
		series, ok := c.StateSeries[name]
		if !ok {
			series = make([]float64, c.nIntervals)
			c.StateSeries[name] = series
		}
		series[step] = v
		c.States[name] = v
	}

	var out financial.Step
	p := c.Params
	if p.VariableCosts != nil || c.artificial != nil {
		flow, err := c.dependency(p.DependencyFlowCosts, flows)
		if err != nil {
			return financial.Step{}, err
		}
		if p.VariableCosts != nil {
			out.VariableCost = financial.StepValue(flow, intervalMin, *p.VariableCosts)
		}
		if c.artificial != nil {
			out.ArtificialCost = financial.StepValue(flow, intervalMin, *c.artificial)
		}
	}
	if p.VariableEmissions != nil {
		flow, err := c.dependency(p.DependencyFlowEmissions, flows)
		if err != nil {
			return financial.Step{}, err
		}
		out.VariableEmission = financial.StepValue(flow, intervalMin, *p.VariableEmissions)
	}

	if err := c.Record.AccumulateStep(step, out); err != nil {
		return financial.Step{}, fmt.Errorf("component %s: %w", c.Name(), err)
	}
	return out, nil
}

func (c *Component) dependency(f *Flow, flows map[Flow]float64) (float64, error) {
	if f == nil {
		return 0, fmt.Errorf("component %s: %w", c.Name(), ErrMissingDependencyFlow)
	}
	v, ok := flows[*f]
	if !ok {
		return 0, fmt.Errorf("component %s: %w: %s", c.Name(), ErrFlowNotFound, f)
	}
	return v, nil
}

// Settle resolves the fitting slots and stores the fixed values in the
// record. It runs once, after the last step.
func (c *Component) Settle(r costing.Resolver, interestRate float64) (costing.Values, error) {
	if !c.External {
		if err := c.Record.Complete(c.nIntervals); err != nil {
			return costing.Values{}, fmt.Errorf("component %s: %w", c.Name(), err)
		}
	}
	vals, err := c.Params.Slots.Resolve(c.Name(), r)
	if err != nil {
		return costing.Values{}, fmt.Errorf("component %s: %w", c.Name(), err)
	}
	for _, n := range costing.Names {
		if v := vals.Get(n); !financial.Finite(v) {
			return costing.Values{}, fmt.Errorf("component %s %s: %w: %g", c.Name(), n, financial.ErrNonFinite, v)
		}
	}
	err = c.Record.SetFixed(financial.Fixed{
		Capex:        vals.Capex,
		Opex:         vals.Opex,
		FixEmissions: vals.FixEmissions,
		OpEmissions:  vals.OpEmissions,
		LifeTime:     c.Params.LifeTime,
		InterestRate: interestRate,
	})
	if err != nil {
		return costing.Values{}, fmt.Errorf("component %s: %w", c.Name(), err)
	}
	return vals, nil
}

// FlowNames returns the recorded flows in a stable order.
func (c *Component) FlowNames() []Flow {
	out := make([]Flow, 0, len(c.FlowSeries))
	for f := range c.FlowSeries {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
