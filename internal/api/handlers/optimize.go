package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/exp/slog"

	"hybrid-dispatch/internal/api/models"
	"hybrid-dispatch/internal/batch"
	"hybrid-dispatch/internal/config"
	"hybrid-dispatch/internal/data"
	"hybrid-dispatch/internal/model"
)

// OptimizeHandler runs batch optimizations and keeps finished runs for
// later retrieval
type OptimizeHandler struct {
	runner  *batch.Runner
	runs    *data.Cache[*models.OptimizeResponse]
	storage *StorageHandler
	timeout time.Duration
	logger  *slog.Logger
}

// NewOptimizeHandler creates a new optimize handler. timeout bounds a
// whole request; zero leaves it to the client connection.
func NewOptimizeHandler(runner *batch.Runner, runs *data.Cache[*models.OptimizeResponse], storage *StorageHandler, timeout time.Duration, logger *slog.Logger) *OptimizeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &OptimizeHandler{runner: runner, runs: runs, storage: storage, timeout: timeout, logger: logger}
}

// Optimize handles POST /api/v1/optimize
func (h *OptimizeHandler) Optimize(c *gin.Context) {
	var req models.OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}

	var presets func(string) (config.ESSConfig, error)
	if h.storage != nil {
		presets = h.storage.Preset
	}
	plan, err := toPlan(&req, presets)
	if err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}

	ctx := c.Request.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	report, err := h.runner.Run(ctx, plan)
	switch {
	case errors.Is(err, batch.ErrNoCombinations):
		badRequest(c, "NO_COMBINATIONS", err)
		return
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, models.ErrorResponse{
			Error: models.ErrorDetail{Code: "TIMEOUT", Message: err.Error()},
		})
		return
	case err != nil && !errors.Is(err, batch.ErrAllInfeasible):
		badRequest(c, "INVALID_REQUEST", err)
		return
	}

	resp := toResponse(report, req.IncludeLedger)
	h.runs.Set(resp.ID, toResponse(report, true))
	if errors.Is(err, batch.ErrAllInfeasible) {
		failures := make([]interface{}, len(resp.Failed))
		for i, f := range resp.Failed {
			failures[i] = f
		}
		c.JSON(http.StatusUnprocessableEntity, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "ALL_INFEASIBLE",
				Message: batch.ErrAllInfeasible.Error(),
				Details: map[string]interface{}{"id": resp.ID, "failed": failures},
			},
		})
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetRun handles GET /api/v1/runs/:id
func (h *OptimizeHandler) GetRun(c *gin.Context) {
	id := c.Param("id")
	resp, ok := h.runs.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "RUN_NOT_FOUND",
				Message: "run not found or expired",
				Details: map[string]interface{}{"id": id},
			},
		})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func badRequest(c *gin.Context, code string, err error) {
	detail := models.ErrorDetail{Code: code, Message: err.Error()}
	var fe *model.FieldError
	if errors.As(err, &fe) {
		detail.Details = map[string]interface{}{"field": fe.Field}
	}
	c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: detail})
}
