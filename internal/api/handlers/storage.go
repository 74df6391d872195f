package handlers

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/exp/slog"

	"hybrid-dispatch/internal/api/models"
	"hybrid-dispatch/internal/config"
)

// StorageHandler serves ESS preset files
type StorageHandler struct {
	dir    string
	logger *slog.Logger
}

// NewStorageHandler reads presets from dir, or from ESS_DIR, or from
// ./examples/ess when both are empty.
func NewStorageHandler(dir string, logger *slog.Logger) *StorageHandler {
	if dir == "" {
		dir = os.Getenv("ESS_DIR")
	}
	if dir == "" {
		dir = filepath.Join("examples", "ess")
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StorageHandler{dir: dir, logger: logger}
}

// Dir returns the preset directory.
func (h *StorageHandler) Dir() string { return h.dir }

// ListStorage handles GET /api/v1/ess
func (h *StorageHandler) ListStorage(c *gin.Context) {
	presets := []models.StorageInfo{}

	entries, err := os.ReadDir(h.dir)
	if err != nil {
		h.logger.Warn("ess preset directory unreadable", "dir", h.dir, "error", err)
		c.JSON(http.StatusOK, gin.H{"ess": presets})
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".yaml")
		ess, err := h.Preset(id)
		if err != nil {
			h.logger.Warn("skipping ess preset", "file", entry.Name(), "error", err)
			continue
		}
		name := ess.Name
		if name == "" {
			name = id
		}
		presets = append(presets, models.StorageInfo{
			ID:   id,
			Name: name,
			File: filepath.Join(h.dir, entry.Name()),
			Specs: models.StorageSpecs{
				StoreEfficiency:    ess.StoreEfficiency,
				DispatchEfficiency: ess.DispatchEfficiency,
				DoD:                ess.DoD,
				MaxHours:           ess.MaxHours,
				MaxEnergyCapacity:  ess.MaxEnergyCapacity,
				CapitalCost:        ess.CapitalCost,
			},
		})
	}
	c.JSON(http.StatusOK, gin.H{"ess": presets})
}

// Preset loads one preset by ID (file name without .yaml).
func (h *StorageHandler) Preset(id string) (config.ESSConfig, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return config.ESSConfig{}, fmt.Errorf("invalid preset id %q", id)
	}
	return config.LoadESSFile(filepath.Join(h.dir, id+".yaml"))
}
