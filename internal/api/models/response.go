package models

import (
	"time"

	"smooth/internal/analysis"
	"smooth/internal/annuity"
	"smooth/internal/costing"
	"smooth/internal/simulation"
)

// FittingInfo describes one fitting key.
type FittingInfo struct {
	Key         string `json:"key"`
	Cardinality string `json:"cardinality"`
	Description string `json:"description"`
}

type EvaluateFittingResponse struct {
	Key  string  `json:"key"`
	Cost float64 `json:"cost"`
}

type AnnuityResponse struct {
	Annuity annuity.Result `json:"annuity"`
	Total   Totals         `json:"total"`
}

// Totals sums the breakdowns of an annuity.
type Totals struct {
	Costs     float64 `json:"costs"`
	Emissions float64 `json:"emissions"`
}

func TotalsOf(r annuity.Result) Totals {
	return Totals{Costs: r.Costs.Total(), Emissions: r.Emissions.Total()}
}

// RunResponse represents the response from a simulation run
type RunResponse struct {
	ID        string                 `json:"id"`
	Status    string                 `json:"status"`
	CreatedAt time.Time              `json:"created_at"`
	ExpiresAt time.Time              `json:"expires_at"`
	Summary   RunSummary             `json:"summary"`
	Ledger    []simulation.LedgerRow `json:"ledger,omitempty"`
}

// RunSummary contains the aggregated results of a run
type RunSummary struct {
	Solver       string                       `json:"solver"`
	Window       TimeWindow                   `json:"window"`
	Intervals    int                          `json:"intervals"`
	IntervalTime int                          `json:"interval_time"`
	InterestRate float64                      `json:"interest_rate"`
	Annuity      annuity.Result               `json:"annuity"`
	Total        Totals                       `json:"total"`
	Components   []simulation.ComponentResult `json:"components"`
}

// TimeWindow represents a time range
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type LedgerResponse struct {
	ID     string                 `json:"id"`
	Count  int                    `json:"count"`
	Ledger []simulation.LedgerRow `json:"ledger"`
}

// RankResponse represents the components of a run ranked by annuity
type RankResponse struct {
	ID       string            `json:"id"`
	By       string            `json:"by"`
	Rankings []analysis.Ranked `json:"rankings"`
}

type StatsResponse struct {
	ID    string             `json:"id"`
	Stats analysis.StepStats `json:"stats"`
}

// ComponentPreset represents a component file in the preset directory
type ComponentPreset struct {
	ID         string             `json:"id"`
	File       string             `json:"file"`
	Component  string             `json:"component"`
	LifeTime   float64            `json:"life_time,omitempty"`
	Slots      []costing.Name     `json:"slots,omitempty"`
	Attributes map[string]float64 `json:"attributes,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
