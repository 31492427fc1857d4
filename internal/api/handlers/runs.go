package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"smooth/internal/api/models"
	"smooth/internal/config"
	"smooth/internal/metrics"
	"smooth/internal/runstore"
	"smooth/internal/simulation"
)

var errRunNotFound = errors.New("run not found or expired")

// RunHandler handles simulation runs and their cached results
type RunHandler struct {
	store     *runstore.Store
	presetDir string
}

// NewRunHandler creates a new run handler. Relative component_file paths in
// a posted model are resolved against presetDir.
func NewRunHandler(store *runstore.Store, presetDir string) *RunHandler {
	return &RunHandler{store: store, presetDir: presetDir}
}

// CreateRun handles POST /api/v1/runs
func (h *RunHandler) CreateRun(c *gin.Context) {
	var req models.RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}

	raw, err := modelDocument(req.Model)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}
	cfg, err := config.Parse(raw, h.presetDir)
	if err != nil {
		abortWithDomainError(c, http.StatusBadRequest, "INVALID_MODEL", err)
		return
	}
	params, inputs, s, err := cfg.Build()
	if err != nil {
		abortWithDomainError(c, http.StatusBadRequest, "INVALID_MODEL", err)
		return
	}

	zap.S().Infof("RunHandler: Running %d components over %d intervals with solver %s",
		len(inputs.Components), params.NIntervals, s.Name())
	start := time.Now()
	result, err := simulation.New(params).Run(c.Request.Context(), inputs, s)
	metrics.ObserveRunDuration(time.Since(start).Seconds())
	if err != nil {
		metrics.IncreaseRunsTotalMetric("failed", s.Name())
		zap.S().Warnf("RunHandler: Run failed: %v", err)
		abortWithDomainError(c, http.StatusInternalServerError, "SIMULATION_ERROR", err)
		return
	}
	metrics.IncreaseRunsTotalMetric("completed", s.Name())

	entry := h.store.Put(result)
	zap.S().Infof("RunHandler: Stored run %s", entry.ID)
	c.JSON(http.StatusCreated, buildRunResponse(entry, req.Options.IncludeLedger))
}

// GetRun handles GET /api/v1/runs/:id
func (h *RunHandler) GetRun(c *gin.Context) {
	entry, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, buildRunResponse(entry, false))
}

// GetLedger handles GET /api/v1/runs/:id/ledger
func (h *RunHandler) GetLedger(c *gin.Context) {
	var req models.LedgerRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}
	entry, ok := h.lookup(c)
	if !ok {
		return
	}

	rows := entry.Result.Ledger
	if req.Component != "" {
		rows = make([]simulation.LedgerRow, 0, len(entry.Result.Ledger))
		for _, r := range entry.Result.Ledger {
			if r.Component == req.Component {
				rows = append(rows, r)
			}
		}
	}

	if req.Format == "csv" {
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", "attachment; filename=\"ledger-"+entry.ID+".csv\"")
		c.Status(http.StatusOK)
		if err := simulation.WriteLedgerCSV(c.Writer, rows); err != nil {
			zap.S().Errorf("RunHandler: Failed to write ledger csv: %v", err)
		}
		return
	}
	c.JSON(http.StatusOK, models.LedgerResponse{ID: entry.ID, Count: len(rows), Ledger: rows})
}

func (h *RunHandler) lookup(c *gin.Context) (*runstore.Entry, bool) {
	id := c.Param("id")
	entry, ok := h.store.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "RUN_NOT_FOUND",
				Message: errRunNotFound.Error(),
				Details: map[string]interface{}{"id": id},
			},
		})
		return nil, false
	}
	return entry, true
}

// modelDocument accepts a model as JSON object or as a YAML string.
func modelDocument(raw json.RawMessage) ([]byte, error) {
	if len(raw) > 0 && raw[0] == '"' {
		var doc string
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
		return []byte(doc), nil
	}
	return raw, nil
}

func buildRunResponse(e *runstore.Entry, includeLedger bool) models.RunResponse {
	res := e.Result
	summary := models.RunSummary{
		Solver:       res.Solver,
		Intervals:    res.Params.NIntervals,
		IntervalTime: res.Params.IntervalTime,
		InterestRate: res.Params.InterestRate,
		Annuity:      res.Total,
		Total:        models.TotalsOf(res.Total),
		Components:   res.Components,
	}
	if idx := res.Params.TimeIndex(); len(idx) > 0 {
		summary.Window = models.TimeWindow{Start: idx[0].Start, End: idx[len(idx)-1].End}
	}

	out := models.RunResponse{
		ID:        e.ID,
		Status:    "completed",
		CreatedAt: e.CreatedAt,
		ExpiresAt: e.ExpiresAt,
		Summary:   summary,
	}
	if includeLedger {
		out.Ledger = res.Ledger
	}
	return out
}
