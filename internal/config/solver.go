package config

import (
	"fmt"

	"smooth/internal/model"
	"smooth/internal/solver"
)

// SolverConfig selects the solver that decides the flows of every step.
type SolverConfig struct {
	Name    string         `yaml:"name" validate:"required,oneof=profile schedule"`
	Series  []SeriesConfig `yaml:"series,omitempty" validate:"dive"`
	Windows []WindowConfig `yaml:"windows,omitempty" validate:"dive"`
}

type SeriesConfig struct {
	Component string    `yaml:"component" validate:"required"`
	Flow      []string  `yaml:"flow,omitempty" validate:"omitempty,len=2"`
	State     string    `yaml:"state,omitempty"`
	Values    []float64 `yaml:"values" validate:"required,min=1"`
}

type WindowConfig struct {
	Component string   `yaml:"component" validate:"required"`
	Flow      []string `yaml:"flow" validate:"len=2"`
	Start     string   `yaml:"start" validate:"required"`
	End       string   `yaml:"end" validate:"required"`
	Value     float64  `yaml:"value"`
	Level     string   `yaml:"level,omitempty"`
}

// NewSolver builds the configured solver.
func NewSolver(c SolverConfig) (solver.Solver, error) {
	switch c.Name {
	case "profile":
		series := make([]solver.Series, 0, len(c.Series))
		for i, s := range c.Series {
			out := solver.Series{Component: s.Component, State: s.State, Values: s.Values}
			if len(s.Flow) > 0 {
				f, err := model.ParseFlow(s.Flow)
				if err != nil {
					return nil, fmt.Errorf("series %d: %w", i, err)
				}
				out.Flow = &f
			}
			series = append(series, out)
		}
		return solver.NewProfile(series)
	case "schedule":
		windows := make([]solver.Window, 0, len(c.Windows))
		for i, w := range c.Windows {
			f, err := model.ParseFlow(w.Flow)
			if err != nil {
				return nil, fmt.Errorf("window %d: %w", i, err)
			}
			windows = append(windows, solver.Window{
				Component: w.Component,
				Flow:      f,
				Start:     w.Start,
				End:       w.End,
				Value:     w.Value,
				Level:     w.Level,
			})
		}
		return solver.NewSchedule(windows)
	}
	return nil, fmt.Errorf("unknown solver %q", c.Name)
}
