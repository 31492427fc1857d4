package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"smooth/internal/model"
	"smooth/internal/simulation"
	"smooth/internal/solver"
)

// Config is the on-disk model file shape (YAML).
type Config struct {
	SimParams SimParamsConfig `yaml:"sim_params"`
	Busses    []string        `yaml:"busses,omitempty"`

	// Components are simulated every step. External components only carry
	// one-time costs (e.g. a dispenser that is not part of the energy system).
	Components         ComponentList `yaml:"components" validate:"required,min=1,dive"`
	ExternalComponents ComponentList `yaml:"external_components,omitempty" validate:"dive"`

	Solver SolverConfig `yaml:"solver"`

	// dir resolves relative component_file paths.
	dir string
}

type SimParamsConfig struct {
	// StartDate accepts 2006-01-02, RFC3339 or 1/2/2006.
	StartDate     string   `yaml:"start_date,omitempty"`
	NIntervals    int      `yaml:"n_intervals,omitempty" validate:"gte=0"`
	IntervalTime  int      `yaml:"interval_time,omitempty" validate:"gte=0"`
	InterestRate  *float64 `yaml:"interest_rate,omitempty" validate:"omitempty,gte=0"`
	PrintProgress bool     `yaml:"print_progress,omitempty"`
}

var validate = validator.New()

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads the model file and merges component presets, but does
// not validate it. Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parse(raw, filepath.Dir(path))
}

// Parse decodes and validates a model document. Relative component_file
// paths are resolved against presetDir.
func Parse(raw []byte, presetDir string) (*Config, error) {
	c, err := parse(raw, presetDir)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func parse(raw []byte, dir string) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	c.dir = dir
	if err := c.applyPresets(c.Components); err != nil {
		return nil, err
	}
	if err := c.applyPresets(c.ExternalComponents); err != nil {
		return nil, err
	}
	return &c, nil
}

// applyPresets loads every component_file and overlays the explicit fields.
func (c *Config) applyPresets(list ComponentList) error {
	for i, cc := range list {
		if cc.ComponentFile == "" {
			continue
		}
		preset, err := LoadComponentFile(c.presetPath(cc.ComponentFile))
		if err != nil {
			return fmt.Errorf("component %q: %w", cc.Name, err)
		}
		list[i] = MergeComponent(preset, cc)
	}
	return nil
}

func (c *Config) presetPath(p string) string {
	if filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	// Prefer paths relative to the model file, fall back to the cwd.
	cand := filepath.Join(c.dir, p)
	if _, err := os.Stat(cand); err == nil {
		return cand
	}
	return p
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("model invalid: %w", err)
	}
	p, err := c.SimParams.ToParams()
	if err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("sim_params invalid: %w", err)
	}

	// Validate components by constructing them.
	in, err := c.ToInputs()
	if err != nil {
		return err
	}
	reg, err := model.NewRegistry()
	if err != nil {
		return err
	}
	for _, mp := range in.Components {
		comp, err := model.NewComponent(mp, p.NIntervals)
		if err != nil {
			return fmt.Errorf("component config invalid: %w", err)
		}
		if err := reg.Add(comp); err != nil {
			return err
		}
	}
	for _, mp := range in.ExternalComponents {
		comp, err := model.NewExternalComponent(mp)
		if err != nil {
			return fmt.Errorf("external component config invalid: %w", err)
		}
		if err := reg.Add(comp); err != nil {
			return err
		}
	}
	if _, err := NewSolver(c.Solver); err != nil {
		return fmt.Errorf("solver config invalid: %w", err)
	}
	return nil
}

// Build returns everything a simulation run needs.
func (c *Config) Build() (simulation.Params, model.Inputs, solver.Solver, error) {
	p, err := c.SimParams.ToParams()
	if err != nil {
		return simulation.Params{}, model.Inputs{}, nil, err
	}
	in, err := c.ToInputs()
	if err != nil {
		return simulation.Params{}, model.Inputs{}, nil, err
	}
	s, err := NewSolver(c.Solver)
	if err != nil {
		return simulation.Params{}, model.Inputs{}, nil, err
	}
	return p, in, s, nil
}

// ToInputs converts the components to the model representation.
func (c *Config) ToInputs() (model.Inputs, error) {
	in := model.Inputs{Busses: c.Busses}
	for _, cc := range c.Components {
		p, err := cc.ToModelParams()
		if err != nil {
			return model.Inputs{}, err
		}
		in.Components = append(in.Components, p)
	}
	for _, cc := range c.ExternalComponents {
		p, err := cc.ToModelParams()
		if err != nil {
			return model.Inputs{}, err
		}
		in.ExternalComponents = append(in.ExternalComponents, p)
	}
	return in, nil
}

var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05", "1/2/2006"}

// ToParams fills the simulation parameters, unset fields keep their defaults.
func (s SimParamsConfig) ToParams() (simulation.Params, error) {
	p := simulation.DefaultParams()
	if s.StartDate != "" {
		var (
			t   time.Time
			err error
		)
		for _, layout := range dateLayouts {
			if t, err = time.Parse(layout, s.StartDate); err == nil {
				break
			}
		}
		if err != nil {
			return simulation.Params{}, fmt.Errorf("sim_params.start_date %q: unsupported format", s.StartDate)
		}
		p.StartDate = t
	}
	if s.NIntervals != 0 {
		p.NIntervals = s.NIntervals
	}
	if s.IntervalTime != 0 {
		p.IntervalTime = s.IntervalTime
	}
	if s.InterestRate != nil {
		p.InterestRate = *s.InterestRate
	}
	p.PrintProgress = s.PrintProgress
	return p, nil
}
