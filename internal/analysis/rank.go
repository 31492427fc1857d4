package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"smooth/internal/financial"
	"smooth/internal/simulation"
)

// RankBy names the annuity figure components are ranked by.
type RankBy string

const (
	ByCosts     RankBy = "costs"
	ByEmissions RankBy = "emissions"
	ByCapex     RankBy = "capex"
	ByOpex      RankBy = "opex"
	ByVariable  RankBy = "variable"
)

type Ranked struct {
	Rank     int     `json:"rank"`
	Name     string  `json:"name"`
	Type     string  `json:"component"`
	External bool    `json:"external"`
	Value    float64 `json:"value"`
	// SharePct is the percentage of the run total, rounded to two places.
	SharePct float64 `json:"share_pct"`
}

func (by RankBy) value(c simulation.ComponentResult) (float64, error) {
	switch by {
	case ByCosts, "":
		return c.Annuity.Costs.Total(), nil
	case ByEmissions:
		return c.Annuity.Emissions.Total(), nil
	case ByCapex:
		return c.Annuity.Costs.Capex, nil
	case ByOpex:
		return c.Annuity.Costs.Opex, nil
	case ByVariable:
		return c.Annuity.Costs.Variable, nil
	}
	return 0, fmt.Errorf("unknown ranking %q", by)
}

// Rank sorts the components of a run descending by the chosen annuity.
// Ties keep the name order.
func Rank(res *simulation.Result, by RankBy) ([]Ranked, error) {
	out := make([]Ranked, 0, len(res.Components))
	total := 0.0
	for _, c := range res.Components {
		v, err := by.value(c)
		if err != nil {
			return nil, err
		}
		if !financial.Finite(v) {
			return nil, fmt.Errorf("component %s %s: %w: %g", c.Name, by, financial.ErrNonFinite, v)
		}
		total += v
		out = append(out, Ranked{Name: c.Name, Type: c.Type, External: c.External, Value: v})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Name < out[j].Name
	})
	if !financial.Finite(total) {
		return nil, fmt.Errorf("%s total: %w: %g", by, financial.ErrNonFinite, total)
	}
	for i := range out {
		out[i].Rank = i + 1
		if total != 0 {
			out[i].SharePct = Round(out[i].Value/total*100, 2)
		}
	}
	return out, nil
}

// Round rounds v half away from zero to places decimals.
// NaN and infinities are returned unchanged.
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
