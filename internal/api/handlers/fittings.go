package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"smooth/internal/api/models"
	"smooth/internal/fitting"
	"smooth/internal/metrics"
)

// FittingHandler handles fitting-related requests
type FittingHandler struct{}

// NewFittingHandler creates a new fitting handler
func NewFittingHandler() *FittingHandler {
	return &FittingHandler{}
}

// ListFittings handles GET /api/v1/fittings
func (h *FittingHandler) ListFittings(c *gin.Context) {
	fittings := make([]models.FittingInfo, 0, len(fitting.Keys))
	for _, k := range fitting.Keys {
		fittings = append(fittings, models.FittingInfo{
			Key:         string(k),
			Cardinality: k.Cardinality(),
			Description: k.Description(),
		})
	}
	zap.S().Debugf("FittingHandler: Returning %d fittings", len(fittings))
	c.JSON(http.StatusOK, gin.H{"fittings": fittings})
}

// EvaluateFitting handles POST /api/v1/fittings/evaluate
func (h *FittingHandler) EvaluateFitting(c *gin.Context) {
	var req models.EvaluateFittingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}

	key, err := fitting.ParseKey(req.Key)
	if err != nil {
		abortWithDomainError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}
	if err := fitting.CheckValues(key, req.FittingValue); err != nil {
		abortWithDomainError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}
	values, err := req.FittingValue.Resolve(req.Cost)
	if err != nil {
		abortWithDomainError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}

	cost, err := fitting.Evaluate(key, req.DependantValue, values)
	if err != nil {
		abortWithDomainError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}
	metrics.IncreaseFittingEvaluationsMetric(string(key))

	c.JSON(http.StatusOK, models.EvaluateFittingResponse{Key: string(key), Cost: cost})
}
