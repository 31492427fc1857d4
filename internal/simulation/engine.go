package simulation

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"smooth/internal/annuity"
	"smooth/internal/model"
	"smooth/internal/solver"
)

type Engine struct {
	Params Params
	// KeepLedger records a LedgerRow per component and step.
	KeepLedger bool
}

func New(p Params) *Engine { return &Engine{Params: p, KeepLedger: true} }

// Run advances the timesteps one after the other, then resolves the fitting
// slots and annuities of every component.
func (e *Engine) Run(ctx context.Context, in model.Inputs, s solver.Solver) (*Result, error) {
	if s == nil {
		return nil, errors.New("solver is nil")
	}
	if len(in.Components) == 0 {
		return nil, errors.New("no components")
	}
	p := e.Params
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("simulation parameters: %w", err)
	}

	reg, err := build(in, p.NIntervals)
	if err != nil {
		return nil, err
	}
	if r, ok := s.(solver.Resetter); ok {
		r.Reset()
	}

	simulated := reg.Simulated()
	var ledger []LedgerRow
	if e.KeepLedger {
		ledger = make([]LedgerRow, 0, len(simulated)*p.NIntervals)
	}
	intervalMin := float64(p.IntervalTime)
	index := p.TimeIndex()

	for idx, it := range index {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("interval %d: %w", idx, err)
		}
		if p.PrintProgress {
			zap.S().Infof("Simulating interval %d/%d", idx+1, p.NIntervals)
		} else {
			zap.S().Debugf("Simulating interval %d/%d", idx+1, p.NIntervals)
		}

		for _, c := range simulated {
			if err := c.PrepareStep(reg); err != nil {
				return nil, fmt.Errorf("interval %d prepare: %w", idx, err)
			}
		}

		sol, err := s.Solve(ctx, solver.Step{Index: idx, Interval: it, IntervalMin: intervalMin}, simulated)
		if err != nil {
			return nil, fmt.Errorf("interval %d solve: %w", idx, err)
		}
		if err := sol.Check(); err != nil {
			return nil, fmt.Errorf("interval %d: %w", idx, err)
		}
		for name := range sol.Components {
			if c, ok := reg.Get(name); !ok || c.External {
				return nil, fmt.Errorf("interval %d: %w: %q", idx, solver.ErrUnknownComponent, name)
			}
		}

		for _, c := range simulated {
			res := sol.Components[c.Name()]
			step, err := c.ApplyStep(idx, intervalMin, res.Flows, res.States)
			if err != nil {
				return nil, fmt.Errorf("interval %d apply step: %w", idx, err)
			}
			if !e.KeepLedger {
				continue
			}
			cum := c.Record.Totals()
			ledger = append(ledger, LedgerRow{
				Index:     idx,
				Start:     it.Start,
				End:       it.End,
				Component: c.Name(),

				Flows:   flowValues(res.Flows),
				States:  copyStates(res.States),
				Foreign: c.Foreign,

				VariableCost:     step.VariableCost,
				ArtificialCost:   step.ArtificialCost,
				VariableEmission: step.VariableEmission,

				CumVariableCost:     cum.VariableCost,
				CumVariableEmission: cum.VariableEmission,
			})
		}
	}

	out := &Result{Params: p, Ledger: ledger, Solver: s.Name()}
	for _, c := range reg.Components() {
		cr, err := settle(c, reg, p)
		if err != nil {
			return nil, err
		}
		out.Components = append(out.Components, cr)
		out.Total = out.Total.Add(cr.Annuity)
	}
	return out, nil
}

func build(in model.Inputs, n int) (*model.Registry, error) {
	reg, err := model.NewRegistry()
	if err != nil {
		return nil, err
	}
	for _, p := range in.Components {
		c, err := model.NewComponent(p, n)
		if err != nil {
			return nil, err
		}
		if err := reg.Add(c); err != nil {
			return nil, err
		}
	}
	for _, p := range in.ExternalComponents {
		c, err := model.NewExternalComponent(p)
		if err != nil {
			return nil, err
		}
		if err := reg.Add(c); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func settle(c *model.Component, reg *model.Registry, p Params) (ComponentResult, error) {
	vals, err := c.Settle(reg, p.InterestRate)
	if err != nil {
		return ComponentResult{}, err
	}
	var res annuity.Result
	if c.External {
		res, err = annuity.ComputeFixed(c.Record.Fixed())
	} else {
		res, err = annuity.Compute(annuity.FromRecord(c.Record, p.Horizon()))
	}
	if err != nil {
		return ComponentResult{}, fmt.Errorf("component %s annuity: %w", c.Name(), err)
	}
	return ComponentResult{
		Name:     c.Name(),
		Type:     c.Params.Type,
		External: c.External,
		LifeTime: c.Params.LifeTime,
		Slots:    vals,
		Totals:   c.Record.Finalize(),
		Annuity:  res,
	}, nil
}

func flowValues(flows map[model.Flow]float64) map[string]float64 {
	if len(flows) == 0 {
		return nil
	}
	out := make(map[string]float64, len(flows))
	for f, v := range flows {
		out[f.String()] = v
	}
	return out
}

func copyStates(states map[string]float64) map[string]float64 {
	if len(states) == 0 {
		return nil
	}
	out := make(map[string]float64, len(states))
	for k, v := range states {
		out[k] = v
	}
	return out
}
