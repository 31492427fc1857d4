package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

// CORS allows the given origins to call the API. Preflight requests are
// answered here and do not reach the handlers.
func CORS(origins []string) gin.HandlerFunc {
	cc := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	})
	return func(c *gin.Context) {
		cc.HandlerFunc(c.Writer, c.Request)
		if c.Request.Method == http.MethodOptions && c.GetHeader("Access-Control-Request-Method") != "" {
			c.Abort()
			return
		}
		c.Next()
	}
}
