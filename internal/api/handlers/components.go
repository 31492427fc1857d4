package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"smooth/internal/api/models"
	"smooth/internal/config"
	"smooth/internal/costing"
)

// ComponentHandler lists the component presets of a directory
type ComponentHandler struct {
	componentDir string
}

// NewComponentHandler creates a new component handler
func NewComponentHandler(dir string) *ComponentHandler {
	// Convert to absolute path for reliability
	if absDir, err := filepath.Abs(dir); err == nil {
		dir = absDir
	}
	zap.S().Infof("ComponentHandler: Using component directory: %s", dir)
	return &ComponentHandler{componentDir: dir}
}

// ListComponents handles GET /api/v1/components
func (h *ComponentHandler) ListComponents(c *gin.Context) {
	presets := []models.ComponentPreset{}

	if _, err := os.Stat(h.componentDir); err != nil {
		zap.S().Warnf("ComponentHandler: Directory stat error: %v", err)
		c.JSON(http.StatusOK, gin.H{"components": presets})
		return
	}

	files, err := config.ListComponentFiles(h.componentDir)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "PRESET_ERROR", err)
		return
	}
	for _, f := range files {
		p, err := f.Component.ToModelParams()
		if err != nil {
			zap.S().Warnf("ComponentHandler: Skipping preset %s: %v", f.File, err)
			continue
		}
		var slots []costing.Name
		for _, n := range costing.Names {
			if p.Slots.Get(n) != nil {
				slots = append(slots, n)
			}
		}
		presets = append(presets, models.ComponentPreset{
			ID:         strings.TrimSuffix(f.File, filepath.Ext(f.File)),
			File:       f.File,
			Component:  p.Type,
			LifeTime:   p.LifeTime,
			Slots:      slots,
			Attributes: p.Attributes,
		})
	}

	zap.S().Debugf("ComponentHandler: Returning %d presets", len(presets))
	c.JSON(http.StatusOK, gin.H{"components": presets})
}
