package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"smooth/internal/annuity"
	"smooth/internal/api/models"
	"smooth/internal/costing"
	"smooth/internal/financial"
	"smooth/internal/fitting"
	"smooth/internal/model"
	"smooth/internal/solver"
)

type errorCode struct {
	err    error
	status int
	code   string
}

// Order matters: wrapped cycle and tier errors also match ErrInvalidFittingSpec.
var errorCodes = []errorCode{
	{costing.ErrFittingCycle, http.StatusUnprocessableEntity, "FITTING_CYCLE"},
	{costing.ErrNoMatchingTier, http.StatusUnprocessableEntity, "NO_MATCHING_TIER"},
	{costing.ErrInvalidTiers, http.StatusBadRequest, "INVALID_TIERS"},
	{fitting.ErrUnknownFittingKey, http.StatusBadRequest, "UNKNOWN_FITTING_KEY"},
	{fitting.ErrInvalidFittingSpec, http.StatusBadRequest, "INVALID_FITTING_SPEC"},
	{annuity.ErrMissingLifeTime, http.StatusUnprocessableEntity, "MISSING_LIFE_TIME"},
	{annuity.ErrZeroDurationSimulation, http.StatusUnprocessableEntity, "ZERO_DURATION_SIMULATION"},
	{model.ErrDuplicateName, http.StatusBadRequest, "DUPLICATE_NAME"},
	{model.ErrForeignStateNotFound, http.StatusUnprocessableEntity, "FOREIGN_STATE_NOT_FOUND"},
	{model.ErrFlowNotFound, http.StatusUnprocessableEntity, "FLOW_NOT_FOUND"},
	{model.ErrMissingDependencyFlow, http.StatusBadRequest, "MISSING_DEPENDENCY_FLOW"},
	{solver.ErrNonOptimal, http.StatusUnprocessableEntity, "SOLVER_NON_OPTIMAL"},
	{solver.ErrUnknownComponent, http.StatusUnprocessableEntity, "SOLVER_UNKNOWN_COMPONENT"},
	{financial.ErrMissingSteps, http.StatusInternalServerError, "MISSING_STEPS"},
	{financial.ErrNonFinite, http.StatusUnprocessableEntity, "NON_FINITE_VALUE"},
}

// classify maps a domain error to a status and code, falling back to the given ones.
func classify(err error, status int, code string) (int, string) {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.status, ec.code
		}
	}
	return status, code
}

func abortWithError(c *gin.Context, status int, code string, err error) {
	c.JSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: err.Error(),
		},
	})
}

// abortWithDomainError classifies err before responding.
func abortWithDomainError(c *gin.Context, fallbackStatus int, fallbackCode string, err error) {
	status, code := classify(err, fallbackStatus, fallbackCode)
	abortWithError(c, status, code, err)
}
