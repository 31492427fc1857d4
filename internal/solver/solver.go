// Package solver is the boundary to the optimization backend that decides
// the flows and states of every component for one timestep.
//
// The LP/MILP backend itself lives outside this module. Profile and Schedule
// replay predefined flows and are used to drive the bookkeeping without it.
package solver

import (
	"context"
	"errors"
	"fmt"

	"smooth/internal/model"
)

var (
	ErrNonOptimal       = errors.New("solver did not return an optimal solution")
	ErrUnknownComponent = errors.New("solver refers to an unknown component")
)

// Status mirrors the solver status and termination condition.
type Status string

const (
	StatusOK         Status = "ok"
	StatusOptimal    Status = "optimal"
	StatusInfeasible Status = "infeasible"
	StatusError      Status = "error"
)

// Step is the timestep handed to the solver.
type Step struct {
	Index    int
	Interval model.Interval
	// IntervalMin is the step length in minutes.
	IntervalMin float64
}

// Result is what the solver decided for one component.
type Result struct {
	Flows  map[model.Flow]float64
	States map[string]float64
}

type Solution struct {
	Status     Status
	Components map[string]Result
}

// Check fails unless the solver reported ok or optimal.
func (s Solution) Check() error {
	switch s.Status {
	case StatusOK, StatusOptimal:
		return nil
	}
	return fmt.Errorf("%w: status %q", ErrNonOptimal, s.Status)
}

func (s *Solution) result(component string) Result {
	if s.Components == nil {
		s.Components = make(map[string]Result)
	}
	r, ok := s.Components[component]
	if !ok {
		r = Result{Flows: make(map[model.Flow]float64), States: make(map[string]float64)}
		s.Components[component] = r
	}
	return r
}

// Solver computes one timestep. Calls are made strictly in step order.
type Solver interface {
	Name() string
	Solve(ctx context.Context, step Step, components []*model.Component) (Solution, error)
}

// Resetter is implemented by solvers that keep state between steps.
type Resetter interface {
	Reset()
}

func knownComponents(components []*model.Component) map[string]*model.Component {
	out := make(map[string]*model.Component, len(components))
	for _, c := range components {
		out[c.Name()] = c
	}
	return out
}
