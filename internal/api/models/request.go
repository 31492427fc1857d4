package models

import (
	"encoding/json"

	"smooth/internal/financial"
	"smooth/internal/fitting"
)

// EvaluateFittingRequest is the body of POST /api/v1/fittings/evaluate.
// Cost is the running cost referenced by a "cost" fitting value.
type EvaluateFittingRequest struct {
	Key            string         `json:"key" binding:"required"`
	DependantValue float64        `json:"dependant_value"`
	FittingValue   fitting.Values `json:"fitting_value"`
	Cost           *float64       `json:"cost,omitempty"`
}

// AnnuityRequest is the body of POST /api/v1/annuities.
// Without a horizon and variable totals only the fixed values are annualized.
type AnnuityRequest struct {
	financial.Fixed

	VariableCostTotal     float64 `json:"variable_cost_total,omitempty"`
	VariableEmissionTotal float64 `json:"variable_emission_total,omitempty"`

	NIntervals   int     `json:"n_intervals,omitempty" binding:"gte=0"`
	IntervalTime float64 `json:"interval_time,omitempty" binding:"gte=0"` // minutes
}

// RunRequest is the body of POST /api/v1/runs. Model is either a JSON
// object or a string holding a YAML model file.
type RunRequest struct {
	Model   json.RawMessage `json:"model" binding:"required"`
	Options RunOptions      `json:"options,omitempty"`
}

type RunOptions struct {
	IncludeLedger bool `json:"include_ledger,omitempty"` // default: false
}

// RankRequest holds the query of GET /api/v1/runs/:id/rank.
type RankRequest struct {
	By    string `form:"by,omitempty"`    // default: costs
	Limit int    `form:"limit,omitempty"` // 0 = all
}

// LedgerRequest holds the query of GET /api/v1/runs/:id/ledger.
type LedgerRequest struct {
	Component string `form:"component,omitempty"`
	Format    string `form:"format,omitempty" binding:"omitempty,oneof=json csv"`
}

// StatsRequest holds the query of GET /api/v1/runs/:id/components/:name/stats.
type StatsRequest struct {
	Metric string `form:"metric,omitempty" binding:"omitempty,oneof=variable_cost artificial_cost variable_emission"`
}
