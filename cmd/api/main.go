package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"smooth/internal/api"
	"smooth/internal/config"
	"smooth/internal/log"
	"smooth/internal/metrics"
	"smooth/internal/runstore"
)

func main() {
	cfg, err := config.NewServiceConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "reading configuration: %v\n", err)
		os.Exit(1)
	}

	logger := log.InitLog(log.ParseLevel(cfg.LogLevel))
	defer func() { _ = logger.Sync() }()
	undo := zap.ReplaceGlobals(logger)
	defer undo()

	if wd, err := os.Getwd(); err == nil {
		zap.S().Infof("Working directory: %s", wd)
	}
	if info, err := os.Stat(cfg.ComponentDir); err == nil && info.IsDir() {
		zap.S().Infof("Component directory found: %s", cfg.ComponentDir)
	} else {
		zap.S().Warnf("Component directory not found at: %s (error: %v)", cfg.ComponentDir, err)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	store := runstore.New(cfg.RunCacheTTL)
	go store.Cleanup(ctx)

	requestMetrics := metrics.NewMiddleware("api")
	requestMetrics.MustRegisterDefault()

	router := api.NewRouter(api.RouterConfig{
		Store:          store,
		ComponentDir:   cfg.ComponentDir,
		StaticDir:      cfg.StaticDir,
		AllowedOrigins: cfg.AllowedOrigins,
		Metrics:        requestMetrics.Handler(),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		zap.S().Info("Shutting down API server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zap.S().Errorf("Server shutdown: %v", err)
		}
	}()

	zap.S().Infof("Starting API server on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		zap.S().Fatalf("Failed to start server: %v", err)
	}
	zap.S().Info("API server stopped")
}
