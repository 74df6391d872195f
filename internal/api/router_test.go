package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"hybrid-dispatch/internal/api/models"
	"hybrid-dispatch/internal/batch"
	"hybrid-dispatch/internal/data"
	"hybrid-dispatch/internal/dispatch"
	"hybrid-dispatch/internal/lp"
	"hybrid-dispatch/internal/solver"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type infeasibleSolver struct{}

func (infeasibleSolver) Solve(context.Context, *lp.Model) (*solver.Solution, error) {
	return &solver.Solution{Status: solver.StatusInfeasible, Err: solver.ErrInfeasible}, nil
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(t *testing.T, s solver.Solver, essDir string) *gin.Engine {
	t.Helper()
	runs := data.NewCache[*models.OptimizeResponse](time.Hour, 0)
	t.Cleanup(runs.Close)
	engine := dispatch.New(s)
	engine.Logger = quiet()
	return NewRouter(Deps{
		Runner:         &batch.Runner{Engine: engine, Logger: quiet()},
		Runs:           runs,
		ESSDir:         essDir,
		AllowedOrigins: []string{"*"},
		Logger:         quiet(),
	})
}

func do(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func smallRequest() map[string]interface{} {
	return map[string]interface{}{
		"start":                     "2022-06-01T10:00:00Z",
		"demand":                    []float64{10, 10},
		"sell_curtailment_fraction": 0,
		"include_ledger":            true,
		"ipps": []map[string]interface{}{
			{
				"name":    "dear",
				"oa_cost": 0,
				"solar": []map[string]interface{}{
					{"name": "s", "per_unit": []float64{0.5, 1}, "max_capacity_mw": 100, "capital_cost": 2},
				},
			},
			{
				"name":    "cheap",
				"oa_cost": 0,
				"solar": []map[string]interface{}{
					{"name": "s", "per_unit": []float64{0.5, 1}, "max_capacity_mw": 100, "capital_cost": 1},
				},
			},
		},
	}
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, infeasibleSolver{}, t.TempDir())
	w := do(r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestNotFound(t *testing.T) {
	r := newTestRouter(t, infeasibleSolver{}, t.TempDir())
	w := do(r, http.MethodGet, "/api/v1/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestOptimizeRanksCombinations(t *testing.T) {
	r := newTestRouter(t, solver.NewSimplex(), t.TempDir())
	w := do(r, http.MethodPost, "/api/v1/optimize", smallRequest())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.OptimizeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Ranked, 2)

	best := resp.Ranked[0]
	assert.Equal(t, 1, best.Rank)
	assert.Equal(t, "cheap/s/none/none", best.Name)
	assert.Equal(t, "solar_only", best.Mix)
	require.NotNil(t, best.Summary.CostPerUnit)
	assert.InDelta(t, 1, *best.Summary.CostPerUnit, 1e-6)
	assert.InDelta(t, 20, best.Summary.SolarCapacityMW, 1e-6)
	require.Len(t, best.Ledger, 2)
	assert.Equal(t, "IDLE", best.Ledger[0].Action)

	// the run is retrievable afterwards
	w = do(r, http.MethodGet, "/api/v1/runs/"+resp.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stored models.OptimizeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stored))
	assert.Equal(t, resp.ID, stored.ID)
	assert.Len(t, stored.Ranked, 2)
}

func TestOptimizeAllInfeasible(t *testing.T) {
	r := newTestRouter(t, infeasibleSolver{}, t.TempDir())
	w := do(r, http.MethodPost, "/api/v1/optimize", smallRequest())
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ALL_INFEASIBLE", resp.Error.Code)
	assert.Equal(t, batch.ErrAllInfeasible.Error(), resp.Error.Message)

	details := resp.Error.Details
	require.NotNil(t, details)
	id, _ := details["id"].(string)
	require.NotEmpty(t, id)
	assert.Len(t, details["failed"], 2)

	w = do(r, http.MethodGet, "/api/v1/runs/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stored models.OptimizeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stored))
	assert.Equal(t, "all_infeasible", stored.Status)
	assert.Empty(t, stored.Ranked)
}

func TestOptimizeBadRequests(t *testing.T) {
	r := newTestRouter(t, infeasibleSolver{}, t.TempDir())

	tests := []struct {
		name string
		edit func(map[string]interface{})
		code string
	}{
		{name: "no ipps", edit: func(m map[string]interface{}) { delete(m, "ipps") }, code: "INVALID_REQUEST"},
		{name: "no start", edit: func(m map[string]interface{}) { delete(m, "start") }, code: "INVALID_REQUEST"},
		{name: "bad peak hours", edit: func(m map[string]interface{}) { m["peak_hours"] = "25" }, code: "INVALID_REQUEST"},
		{name: "storage only", edit: func(m map[string]interface{}) {
			m["ipps"] = []map[string]interface{}{{"name": "a", "ess": []map[string]interface{}{{"name": "e"}}}}
		}, code: "NO_COMBINATIONS"},
		{name: "unknown preset", edit: func(m map[string]interface{}) {
			m["ipps"] = []map[string]interface{}{{"name": "a", "ess": []map[string]interface{}{{"preset": "../etc"}}}}
		}, code: "INVALID_REQUEST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := smallRequest()
			tt.edit(body)
			w := do(r, http.MethodPost, "/api/v1/optimize", body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			var resp models.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestGetRunNotFound(t *testing.T) {
	r := newTestRouter(t, infeasibleSolver{}, t.TempDir())
	w := do(r, http.MethodGet, "/api/v1/runs/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "RUN_NOT_FOUND")
}

func TestSizing(t *testing.T) {
	r := newTestRouter(t, infeasibleSolver{}, t.TempDir())
	w := do(r, http.MethodPost, "/api/v1/sizing", map[string]interface{}{
		"start":               "2022-06-01T17:00:00Z",
		"demand":              []float64{100, 100, 100},
		"solar_per_unit":      []float64{0, 0, 0},
		"peak_hours":          "18-20",
		"peak_target":         0.9,
		"dispatch_efficiency": 0.9,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.SizingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Days, 1)
	assert.Equal(t, "2022-06-01", resp.Days[0].Date)
	assert.InDelta(t, 180, resp.TotalRequiredDischarge, 1e-9)
	assert.InDelta(t, 200, resp.MaxRequiredCapacity, 1e-9)

	w = do(r, http.MethodPost, "/api/v1/sizing", map[string]interface{}{"demand": []float64{1}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListStorageAndPresets(t *testing.T) {
	dir := t.TempDir()
	preset := "ess:\n  name: Lithium 4h\n  store_efficiency: 0.95\n  dispatch_efficiency: 0.95\n  dod: 0.8\n  max_hours: 4\n  capital_cost: 800\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "li4h.yaml"), []byte(preset), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	r := newTestRouter(t, solver.NewSimplex(), dir)
	w := do(r, http.MethodGet, "/api/v1/ess", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list struct {
		ESS []models.StorageInfo `json:"ess"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.ESS, 1)
	assert.Equal(t, "li4h", list.ESS[0].ID)
	assert.Equal(t, "Lithium 4h", list.ESS[0].Name)
	assert.Equal(t, 4.0, list.ESS[0].Specs.MaxHours)

	body := smallRequest()
	body["ipps"] = []map[string]interface{}{{
		"name":    "a",
		"oa_cost": 0,
		"solar": []map[string]interface{}{
			{"name": "s", "per_unit": []float64{0.5, 1}, "max_capacity_mw": 100, "capital_cost": 1},
		},
		"ess": []map[string]interface{}{{"preset": "li4h", "capital_cost": 5}},
	}}
	w = do(r, http.MethodPost, "/api/v1/optimize", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp models.OptimizeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Ranked, 1)
	assert.Equal(t, "a/s/none/Lithium 4h", resp.Ranked[0].Name)
}

func TestListStorageMissingDir(t *testing.T) {
	r := newTestRouter(t, infeasibleSolver{}, filepath.Join(t.TempDir(), "missing"))
	w := do(r, http.MethodGet, "/api/v1/ess", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ess":[]}`, w.Body.String())
}

func TestListFeatures(t *testing.T) {
	r := newTestRouter(t, infeasibleSolver{}, t.TempDir())
	w := do(r, http.MethodGet, "/api/v1/features", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list struct {
		Features []models.FeatureInfo `json:"features"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.NotEmpty(t, list.Features)
	assert.Equal(t, "peak_demand", list.Features[0].Name)
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t, infeasibleSolver{}, t.TempDir())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/optimize", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
