// Package api wires the HTTP surface: gin router, middleware and handlers.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/exp/slog"

	"hybrid-dispatch/internal/api/handlers"
	"hybrid-dispatch/internal/api/middleware"
	"hybrid-dispatch/internal/api/models"
	"hybrid-dispatch/internal/batch"
	"hybrid-dispatch/internal/data"
)

// Deps are the collaborators the router needs.
type Deps struct {
	Runner         *batch.Runner
	Runs           *data.Cache[*models.OptimizeResponse]
	ESSDir         string
	RequestTimeout time.Duration
	AllowedOrigins []string
	Logger         *slog.Logger
}

// NewRouter builds the API router.
func NewRouter(d Deps) *gin.Engine {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	runs := d.Runs
	if runs == nil {
		runs = data.NewCache[*models.OptimizeResponse](time.Hour, 0)
	}

	router := gin.New()
	if len(d.AllowedOrigins) > 0 {
		router.Use(middleware.CORSWithOrigins(d.AllowedOrigins))
	} else {
		router.Use(middleware.CORS())
	}
	router.Use(middleware.Logger(logger))
	router.Use(middleware.ErrorHandler(logger))

	storage := handlers.NewStorageHandler(d.ESSDir, logger)
	optimize := handlers.NewOptimizeHandler(d.Runner, runs, storage, d.RequestTimeout, logger)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		v1.POST("/optimize", optimize.Optimize)
		v1.GET("/runs/:id", optimize.GetRun)
		v1.POST("/sizing", handlers.Size)

		v1.GET("/ess", storage.ListStorage)
		v1.GET("/features", handlers.ListFeatures)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "NOT_FOUND", Message: "Not found"},
		})
	})
	return router
}
