package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"smooth/internal/api/handlers"
	"smooth/internal/api/middleware"
	"smooth/internal/api/models"
	"smooth/internal/runstore"
)

// RouterConfig wires the router to its dependencies.
type RouterConfig struct {
	Store          *runstore.Store
	ComponentDir   string
	StaticDir      string
	AllowedOrigins []string
	// Metrics registers request metrics and serves /metrics.
	Metrics gin.HandlerFunc
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()

	if cfg.Metrics != nil {
		router.Use(cfg.Metrics)
	}
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())

	fittingHandler := handlers.NewFittingHandler()
	annuityHandler := handlers.NewAnnuityHandler()
	runHandler := handlers.NewRunHandler(cfg.Store, cfg.ComponentDir)
	componentHandler := handlers.NewComponentHandler(cfg.ComponentDir)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		api.GET("/fittings", fittingHandler.ListFittings)
		api.POST("/fittings/evaluate", fittingHandler.EvaluateFitting)

		api.POST("/annuities", annuityHandler.ComputeAnnuity)

		api.POST("/runs", runHandler.CreateRun)
		api.GET("/runs/:id", runHandler.GetRun)
		api.GET("/runs/:id/ledger", runHandler.GetLedger)
		api.GET("/runs/:id/rank", runHandler.RankRun)
		api.GET("/runs/:id/components/:name/stats", runHandler.ComponentStats)

		api.GET("/components", componentHandler.ListComponents)
	}

	serveStatic(router, cfg.StaticDir)
	return router
}

// serveStatic serves a single page app from dir, if it exists.
func serveStatic(router *gin.Engine, dir string) {
	notFound := func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "NOT_FOUND", Message: "Not found"},
		})
	}
	if dir == "" {
		router.NoRoute(notFound)
		return
	}
	if _, err := os.Stat(dir); err != nil {
		zap.S().Infof("Static directory %s not found, skipping static file serving", dir)
		router.NoRoute(notFound)
		return
	}

	router.Static("/assets", filepath.Join(dir, "assets"))
	router.StaticFile("/favicon.ico", filepath.Join(dir, "favicon.ico"))
	// Serve index.html for all non-API routes (SPA routing)
	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			notFound(c)
			return
		}
		c.File(filepath.Join(dir, "index.html"))
	})
	zap.S().Infof("Serving static files from %s", dir)
}
