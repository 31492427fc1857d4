package simulation

import (
	"time"

	"smooth/internal/annuity"
	"smooth/internal/costing"
	"smooth/internal/financial"
)

// LedgerRow is one component in one interval.
// This is the primary artifact for "what happened" in a run.
type LedgerRow struct {
	Index     int       `json:"index"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Component string    `json:"component"`

	Flows  map[string]float64 `json:"flows,omitempty"`
	States map[string]float64 `json:"states,omitempty"`

	// Foreign is the foreign state value read before the step, if any.
	Foreign *float64 `json:"foreign_state,omitempty"`

	VariableCost     float64 `json:"variable_cost"`
	ArtificialCost   float64 `json:"artificial_cost"`
	VariableEmission float64 `json:"variable_emission"`

	CumVariableCost     float64 `json:"cum_variable_cost"`
	CumVariableEmission float64 `json:"cum_variable_emission"`
}

// ComponentResult holds the figures of one component after the run.
type ComponentResult struct {
	Name     string           `json:"name"`
	Type     string           `json:"component"`
	External bool             `json:"external"`
	LifeTime float64          `json:"life_time"`
	Slots    costing.Values   `json:"slots"`
	Totals   financial.Totals `json:"totals"`
	Annuity  annuity.Result   `json:"annuity"`
}

type Result struct {
	Params     Params            `json:"-"`
	Components []ComponentResult `json:"components"`
	// Total sums the annuities of every component.
	Total  annuity.Result `json:"total"`
	Ledger []LedgerRow    `json:"ledger,omitempty"`
	Solver string         `json:"solver"`
}

// Component looks up the result of name.
func (r *Result) Component(name string) (ComponentResult, bool) {
	for _, c := range r.Components {
		if c.Name == name {
			return c, true
		}
	}
	return ComponentResult{}, false
}
