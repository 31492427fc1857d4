package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"smooth/internal/annuity"
	"smooth/internal/api/models"
	"smooth/internal/financial"
)

// AnnuityHandler handles annuity requests
type AnnuityHandler struct{}

func NewAnnuityHandler() *AnnuityHandler {
	return &AnnuityHandler{}
}

// ComputeAnnuity handles POST /api/v1/annuities
func (h *AnnuityHandler) ComputeAnnuity(c *gin.Context) {
	var req models.AnnuityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}

	var (
		res annuity.Result
		err error
	)
	if req.NIntervals == 0 && req.IntervalTime == 0 && req.VariableCostTotal == 0 && req.VariableEmissionTotal == 0 {
		res, err = annuity.ComputeFixed(req.Fixed)
	} else {
		res, err = annuity.Compute(annuity.Input{
			Fixed: req.Fixed,
			Totals: financial.Totals{
				VariableCost:     req.VariableCostTotal,
				VariableEmission: req.VariableEmissionTotal,
			},
			Horizon: annuity.Horizon{Intervals: req.NIntervals, IntervalMin: req.IntervalTime},
		})
	}
	if err != nil {
		abortWithDomainError(c, http.StatusBadRequest, "INVALID_REQUEST", err)
		return
	}

	c.JSON(http.StatusOK, models.AnnuityResponse{Annuity: res, Total: models.TotalsOf(res)})
}
