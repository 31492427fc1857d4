package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"smooth/internal/analysis"
	"smooth/internal/api/models"
)

// RankRun handles GET /api/v1/runs/:id/rank
func (h *RunHandler) RankRun(c *gin.Context) {
	var req models.RankRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}
	entry, ok := h.lookup(c)
	if !ok {
		return
	}

	by := analysis.RankBy(req.By)
	if by == "" {
		by = analysis.ByCosts
	}
	rankings, err := analysis.Rank(entry.Result, by)
	if err != nil {
		abortWithDomainError(c, http.StatusBadRequest, "INVALID_RANKING", err)
		return
	}
	if req.Limit > 0 && req.Limit < len(rankings) {
		rankings = rankings[:req.Limit]
	}

	c.JSON(http.StatusOK, models.RankResponse{ID: entry.ID, By: string(by), Rankings: rankings})
}

// ComponentStats handles GET /api/v1/runs/:id/components/:name/stats
func (h *RunHandler) ComponentStats(c *gin.Context) {
	var req models.StatsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}
	entry, ok := h.lookup(c)
	if !ok {
		return
	}

	name := c.Param("name")
	if _, found := entry.Result.Component(name); !found {
		abortWithError(c, http.StatusNotFound, "COMPONENT_NOT_FOUND", fmt.Errorf("component %q is not part of run %s", name, entry.ID))
		return
	}
	metric := analysis.Metric(req.Metric)
	if metric == "" {
		metric = analysis.MetricVariableCost
	}

	c.JSON(http.StatusOK, models.StatsResponse{
		ID:    entry.ID,
		Stats: analysis.ComputeStepStats(entry.Result.Ledger, name, metric),
	})
}
