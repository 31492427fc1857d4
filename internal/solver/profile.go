package solver

import (
	"context"
	"fmt"

	"smooth/internal/model"
)

// Series is a per-step value for either a flow or a state of a component.
// Values repeat when the run has more steps than values.
type Series struct {
	Component string
	Flow      *model.Flow
	State     string
	Values    []float64
}

// Profile replays explicit series.
type Profile struct {
	series []Series
}

func NewProfile(series []Series) (*Profile, error) {
	for i, s := range series {
		if s.Component == "" {
			return nil, fmt.Errorf("series %d: component is required", i)
		}
		if (s.Flow == nil) == (s.State == "") {
			return nil, fmt.Errorf("series %d: exactly one of flow or state is required", i)
		}
		if len(s.Values) == 0 {
			return nil, fmt.Errorf("series %d: values are required", i)
		}
	}
	return &Profile{series: series}, nil
}

func (p *Profile) Name() string { return "profile" }

func (p *Profile) Solve(ctx context.Context, step Step, components []*model.Component) (Solution, error) {
	if err := ctx.Err(); err != nil {
		return Solution{}, err
	}
	known := knownComponents(components)
	sol := Solution{Status: StatusOK}
	for _, s := range p.series {
		if _, ok := known[s.Component]; !ok {
			return Solution{}, fmt.Errorf("%w: %q", ErrUnknownComponent, s.Component)
		}
		v := s.Values[step.Index%len(s.Values)]
		r := sol.result(s.Component)
		if s.Flow != nil {
			r.Flows[*s.Flow] = v
		} else {
			r.States[s.State] = v
		}
	}
	return sol, nil
}
