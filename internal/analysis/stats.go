package analysis

import (
	"math"
	"sort"
	"time"

	"smooth/internal/simulation"
)

// Metric selects the per-step figure of a ledger row.
type Metric string

const (
	MetricVariableCost     Metric = "variable_cost"
	MetricArtificialCost   Metric = "artificial_cost"
	MetricVariableEmission Metric = "variable_emission"
)

func (m Metric) value(r simulation.LedgerRow) (float64, bool) {
	switch m {
	case MetricVariableCost:
		return r.VariableCost, true
	case MetricArtificialCost:
		return r.ArtificialCost, true
	case MetricVariableEmission:
		return r.VariableEmission, true
	}
	return 0, false
}

// StepStats summarizes one per-step figure of a component over a run.
type StepStats struct {
	Component string `json:"component"`
	Metric    Metric `json:"metric"`

	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Count int       `json:"count"`

	Sum  float64 `json:"sum"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
	P05  float64 `json:"p05"`
	P95  float64 `json:"p95"`

	SpreadP95P05 float64 `json:"spread_p95_p05"`
}

// ComputeStepStats collects the rows of component from the ledger. An
// unknown metric or a component without rows yields zero stats.
func ComputeStepStats(ledger []simulation.LedgerRow, component string, m Metric) StepStats {
	s := StepStats{Component: component, Metric: m}

	sum := 0.0
	minv := math.Inf(1)
	maxv := math.Inf(-1)
	var vals []float64
	for _, r := range ledger {
		if r.Component != component {
			continue
		}
		v, ok := m.value(r)
		if !ok {
			return s
		}
		if len(vals) == 0 {
			s.Start = r.Start
		}
		s.End = r.End
		vals = append(vals, v)
		sum += v
		if v < minv {
			minv = v
		}
		if v > maxv {
			maxv = v
		}
	}
	if len(vals) == 0 {
		return s
	}
	sort.Float64s(vals)
	s.Count = len(vals)
	s.Sum = sum
	s.Min = minv
	s.Max = maxv
	s.Mean = sum / float64(len(vals))
	s.P05 = percentileSorted(vals, 0.05)
	s.P95 = percentileSorted(vals, 0.95)
	s.SpreadP95P05 = s.P95 - s.P05
	return s
}

func percentileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	// Linear interpolation between order stats.
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
