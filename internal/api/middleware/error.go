package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"smooth/internal/api/models"
)

// ErrorHandler middleware handles panics
func ErrorHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		zap.S().Named("http").Errorf("panic serving %s %s: %v", c.Request.Method, c.Request.URL.Path, recovered)

		msg := "An unexpected error occurred"
		if s, ok := recovered.(string); ok {
			msg = s
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INTERNAL_ERROR",
				Message: msg,
			},
		})
	})
}
