// Package annuity converts one-time, recurring and variable values of a
// component into yearly figures.
package annuity

import (
	"errors"
	"fmt"
	"math"

	"smooth/internal/financial"
)

const (
	DaysPerYear   = 365.0
	MinutesPerDay = 1440.0
)

var (
	ErrMissingLifeTime        = errors.New("life time must be positive when one-time values are set")
	ErrZeroDurationSimulation = errors.New("simulated duration must be positive")
)

// Horizon is the simulated time span the variable totals were collected over.
type Horizon struct {
	Intervals   int
	IntervalMin float64
}

// Days returns the simulated days of the horizon.
func (h Horizon) Days() float64 {
	return float64(h.Intervals) * h.IntervalMin / MinutesPerDay
}

// Input is everything needed to annualize one component.
type Input struct {
	Fixed   financial.Fixed
	Totals  financial.Totals
	Horizon Horizon
}

// FromRecord reads the fixed values and the variable totals of r.
func FromRecord(r *financial.Record, h Horizon) Input {
	return Input{Fixed: r.Fixed(), Totals: r.Finalize(), Horizon: h}
}

// Breakdown is a yearly figure split by origin. For costs the unit is
// currency per year, for emissions mass per year.
type Breakdown struct {
	Capex    float64 `json:"capex"`
	Opex     float64 `json:"opex"`
	Variable float64 `json:"variable"`
}

func (b Breakdown) Total() float64 {
	return b.Capex + b.Opex + b.Variable
}

func (b Breakdown) Add(o Breakdown) Breakdown {
	return Breakdown{Capex: b.Capex + o.Capex, Opex: b.Opex + o.Opex, Variable: b.Variable + o.Variable}
}

type Result struct {
	Costs     Breakdown `json:"costs"`
	Emissions Breakdown `json:"emissions"`
}

func (r Result) Add(o Result) Result {
	return Result{Costs: r.Costs.Add(o.Costs), Emissions: r.Emissions.Add(o.Emissions)}
}

// Compute annualizes a simulated component.
func Compute(in Input) (Result, error) {
	res, err := ComputeFixed(in.Fixed)
	if err != nil {
		return Result{}, err
	}

	days := in.Horizon.Days()
	if days <= 0 {
		return Result{}, fmt.Errorf("%w: %d intervals of %g min", ErrZeroDurationSimulation, in.Horizon.Intervals, in.Horizon.IntervalMin)
	}
	res.Costs.Variable = Variable(in.Totals.VariableCost, days)
	res.Emissions.Variable = Variable(in.Totals.VariableEmission, days)
	return res, nil
}

// ComputeFixed annualizes the one-time and recurring values only. It is
// used for components that are not part of the simulation.
func ComputeFixed(f financial.Fixed) (Result, error) {
	capex, err := Capital(f.Capex, f.InterestRate, f.LifeTime)
	if err != nil {
		return Result{}, fmt.Errorf("capex: %w", err)
	}
	// Emissions do not bear interest.
	fix, err := Capital(f.FixEmissions, 0, f.LifeTime)
	if err != nil {
		return Result{}, fmt.Errorf("fix emissions: %w", err)
	}
	return Result{
		Costs:     Breakdown{Capex: capex, Opex: f.Opex},
		Emissions: Breakdown{Capex: fix, Opex: f.OpEmissions},
	}, nil
}

// Capital spreads a one-time value over lifeTime years using the capital
// recovery factor of rate.
func Capital(value, rate, lifeTime float64) (float64, error) {
	if value == 0 {
		return 0, nil
	}
	if lifeTime <= 0 || math.IsNaN(lifeTime) {
		return 0, fmt.Errorf("%w: got %g", ErrMissingLifeTime, lifeTime)
	}
	if rate == 0 {
		return value / lifeTime, nil
	}
	return value * RecoveryFactor(rate, lifeTime), nil
}

// RecoveryFactor is r(1+r)^n / ((1+r)^n - 1) for a non-zero rate.
func RecoveryFactor(rate, lifeTime float64) float64 {
	q := math.Pow(1+rate, lifeTime)
	return rate * q / (q - 1)
}

// Variable scales a total collected over days to a full year.
func Variable(total, days float64) float64 {
	return total * DaysPerYear / days
}
