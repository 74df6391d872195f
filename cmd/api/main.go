package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/exp/slog"

	"hybrid-dispatch/internal/api"
	"hybrid-dispatch/internal/api/models"
	"hybrid-dispatch/internal/batch"
	"hybrid-dispatch/internal/data"
	"hybrid-dispatch/internal/dispatch"
	"hybrid-dispatch/internal/formulation"
	"hybrid-dispatch/internal/solver"
)

func main() {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Get configuration from environment
	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}
	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	ttl := durationEnv("RUN_CACHE_TTL", time.Hour)
	timeout := durationEnv("REQUEST_TIMEOUT", 2*time.Minute)
	parallel := 1
	if v, err := strconv.Atoi(os.Getenv("BATCH_PARALLEL")); err == nil && v > 0 {
		parallel = v
	}

	engine := dispatch.New(solver.NewSimplex())
	engine.Logger = logger
	engine.Sink = formulation.NewSlogSink(logger)

	runs := data.NewCache[*models.OptimizeResponse](ttl, 5*time.Minute)
	defer runs.Close()

	router := api.NewRouter(api.Deps{
		Runner:         &batch.Runner{Engine: engine, Logger: logger, Parallel: parallel},
		Runs:           runs,
		ESSDir:         os.Getenv("ESS_DIR"),
		RequestTimeout: timeout,
		Logger:         logger,
	})

	addr := fmt.Sprintf(":%s", port)
	logger.Info("starting API server", "addr", addr, "run_cache_ttl", ttl.String(), "parallel", parallel)
	if err := router.Run(addr); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func durationEnv(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
