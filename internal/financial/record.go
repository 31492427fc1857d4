// Package financial holds the per-component accumulator of variable costs
// and emissions of a simulation run.
package financial

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/shopspring/decimal"
)

var (
	ErrDuplicateStep = errors.New("step already accumulated")
	ErrMissingSteps  = errors.New("steps missing from accumulation")
	ErrFixedSet      = errors.New("fixed values already set")
	ErrNonFinite     = errors.New("value is not a finite number")
)

// Fixed carries the values resolved from the fitting slots once the run is
// over. LifeTime is in years; zero means undefined.
type Fixed struct {
	Capex        float64 `json:"capex"`
	Opex         float64 `json:"opex"`
	FixEmissions float64 `json:"fix_emissions"`
	OpEmissions  float64 `json:"op_emissions"`
	LifeTime     float64 `json:"life_time"`
	InterestRate float64 `json:"interest_rate"`
}

// Step is the variable cost and emission of one component in one timestep.
// Artificial costs steer the solver and are tracked apart from real costs.
type Step struct {
	VariableCost     float64 `json:"variable_cost"`
	ArtificialCost   float64 `json:"artificial_cost"`
	VariableEmission float64 `json:"variable_emission"`
}

// Totals is the read-only snapshot returned by Finalize.
type Totals struct {
	VariableCost     float64 `json:"variable_cost"`
	ArtificialCost   float64 `json:"artificial_cost"`
	VariableEmission float64 `json:"variable_emission"`
}

// Record is owned by exactly one component for the lifetime of a run.
// Sums are kept as decimals so the result does not depend on the order in
// which steps are added. The zero value is ready to use.
type Record struct {
	mu sync.Mutex

	variableCost     decimal.Decimal
	artificialCost   decimal.Decimal
	variableEmission decimal.Decimal

	seen map[int]struct{}
	n    int

	fixed    Fixed
	fixedSet bool
}

func NewRecord() *Record {
	return &Record{seen: make(map[int]struct{})}
}

// Accumulate adds one step's variable cost and emission.
func (r *Record) Accumulate(cost, emission float64) error {
	step := Step{VariableCost: cost, VariableEmission: emission}
	if err := step.check(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.add(step)
	return nil
}

// AccumulateStep adds the values of timestep index. Each index is accepted once.
func (r *Record) AccumulateStep(index int, step Step) error {
	if err := step.check(); err != nil {
		return fmt.Errorf("step %d: %w", index, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.seen[index]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateStep, index)
	}
	if r.seen == nil {
		r.seen = make(map[int]struct{})
	}
	r.seen[index] = struct{}{}
	r.add(step)
	return nil
}

// check rejects values a decimal cannot hold.
func (s Step) check() error {
	for _, v := range []struct {
		name string
		v    float64
	}{
		{"variable cost", s.VariableCost},
		{"artificial cost", s.ArtificialCost},
		{"variable emission", s.VariableEmission},
	} {
		if !Finite(v.v) {
			return fmt.Errorf("%s: %w: %g", v.name, ErrNonFinite, v.v)
		}
	}
	return nil
}

// Finite reports whether v is neither NaN nor infinite.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// add requires r.mu.
func (r *Record) add(step Step) {
	r.variableCost = r.variableCost.Add(decimal.NewFromFloat(step.VariableCost))
	r.artificialCost = r.artificialCost.Add(decimal.NewFromFloat(step.ArtificialCost))
	r.variableEmission = r.variableEmission.Add(decimal.NewFromFloat(step.VariableEmission))
	r.n++
}

// Complete checks that every index in [0, n) went through AccumulateStep.
func (r *Record) Complete(n int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	missing := 0
	first := -1
	for i := 0; i < n; i++ {
		if _, ok := r.seen[i]; !ok {
			if first < 0 {
				first = i
			}
			missing++
		}
	}
	if missing > 0 {
		return fmt.Errorf("%w: %d of %d (first %d)", ErrMissingSteps, missing, n, first)
	}
	return nil
}

// Steps returns how many accumulations were made.
func (r *Record) Steps() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

// Totals returns the sums accumulated so far.
func (r *Record) Totals() Totals {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Totals{
		VariableCost:     r.variableCost.InexactFloat64(),
		ArtificialCost:   r.artificialCost.InexactFloat64(),
		VariableEmission: r.variableEmission.InexactFloat64(),
	}
}

// Finalize returns the sums once every step is in. It does not change the
// record and may be called again.
func (r *Record) Finalize() Totals {
	return r.Totals()
}

// SetFixed stores the resolved one-time and recurring values. It may be
// called once per record.
func (r *Record) SetFixed(f Fixed) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fixedSet {
		return ErrFixedSet
	}
	r.fixed = f
	r.fixedSet = true
	return nil
}

func (r *Record) Fixed() Fixed {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fixed
}

// StepValue converts a flow held for intervalMin minutes and a specific value
// per energy unit (e.g. EUR/Wh) into the value of that step.
func StepValue(flow, intervalMin, specific float64) float64 {
	return flow * intervalMin / 60 * specific
}
