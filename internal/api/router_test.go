package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smooth/internal/api/models"
	"smooth/internal/runstore"
)

const runModel = `{
  "sim_params": {"n_intervals": 24, "interval_time": 60, "interest_rate": 0},
  "busses": ["bel"],
  "components": {
    "from_grid": {
      "component": "supply",
      "life_time": 10,
      "variable_costs": 0.0003,
      "dependency_flow_costs": ["from_grid", "bel"],
      "capex": {"key": "fix", "fitting_value": 1000},
      "opex": {"key": "spec", "fitting_value": 0.02, "dependant_value": "capex"}
    }
  },
  "external_components": {
    "dispenser": {"component": "h2_dispenser", "life_time": 5, "capex": {"key": "fix", "fitting_value": 500}}
  },
  "solver": {"name": "profile", "series": [{"component": "from_grid", "flow": ["from_grid", "bel"], "values": [1000]}]}
}`

type testServer struct {
	t      *testing.T
	router *gin.Engine
}

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newTestServer(t *testing.T, componentDir string) *testServer {
	t.Helper()
	return &testServer{t: t, router: NewRouter(RouterConfig{
		Store:          runstore.New(time.Hour),
		ComponentDir:   componentDir,
		AllowedOrigins: []string{"*"},
	})}
}

func (s *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(s.t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[models.ErrorResponse](t, w).Error.Code
}

func TestHealth(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, "")
	w := s.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = s.do(http.MethodGet, "/api/v1/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, w))
}

func TestFittings(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, "")

	w := s.do(http.MethodGet, "/api/v1/fittings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Fittings []models.FittingInfo `json:"fittings"`
	}](t, w)
	require.Len(t, list.Fittings, 5)
	assert.Equal(t, "fix", list.Fittings[0].Key)

	tests := []struct {
		name     string
		body     string
		wantCode int
		want     float64
		errCode  string
	}{
		{"poly", `{"key":"poly","dependant_value":2,"fitting_value":[1,2,3]}`, http.StatusOK, 17, ""},
		{"spec", `{"key":"spec","dependant_value":500,"fitting_value":0.04}`, http.StatusOK, 20, ""},
		{"cost token", `{"key":"spec","dependant_value":10,"fitting_value":"cost","cost":3}`, http.StatusOK, 30, ""},
		{"cost token without cost", `{"key":"spec","dependant_value":10,"fitting_value":"cost"}`, http.StatusBadRequest, 0, "INVALID_FITTING_SPEC"},
		{"unknown key", `{"key":"addspec","dependant_value":1,"fitting_value":[1,2]}`, http.StatusBadRequest, 0, "UNKNOWN_FITTING_KEY"},
		{"bad cardinality", `{"key":"exp","dependant_value":1,"fitting_value":[1]}`, http.StatusBadRequest, 0, "INVALID_FITTING_SPEC"},
		{"odd free", `{"key":"free","dependant_value":1,"fitting_value":[1,2,3]}`, http.StatusBadRequest, 0, "INVALID_FITTING_SPEC"},
		{"missing values", `{"key":"fix","dependant_value":1}`, http.StatusBadRequest, 0, "INVALID_FITTING_SPEC"},
		{"sequence key given a scalar", `{"key":"poly","dependant_value":2,"fitting_value":5}`, http.StatusBadRequest, 0, "INVALID_FITTING_SPEC"},
		{"scalar key given a sequence", `{"key":"fix","fitting_value":[5]}`, http.StatusBadRequest, 0, "INVALID_FITTING_SPEC"},
		{"missing key", `{"dependant_value":1,"fitting_value":1}`, http.StatusBadRequest, 0, "INVALID_REQUEST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/api/v1/fittings/evaluate", tt.body)
			require.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.errCode != "" {
				assert.Equal(t, tt.errCode, errorCode(t, w))
				return
			}
			assert.InDelta(t, tt.want, decode[models.EvaluateFittingResponse](t, w).Cost, 1e-9)
		})
	}
}

func TestAnnuities(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, "")

	w := s.do(http.MethodPost, "/api/v1/annuities", `{"capex":1000,"interest_rate":0.05,"life_time":10,"opex":20}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[models.AnnuityResponse](t, w)
	assert.InDelta(t, 129.504575, res.Annuity.Costs.Capex, 1e-6)
	assert.InDelta(t, 149.504575, res.Total.Costs, 1e-6)

	w = s.do(http.MethodPost, "/api/v1/annuities", `{"variable_cost_total":7.2,"n_intervals":24,"interval_time":60}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.InDelta(t, 2628, decode[models.AnnuityResponse](t, w).Annuity.Costs.Variable, 1e-9)

	w = s.do(http.MethodPost, "/api/v1/annuities", `{"capex":1000}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "MISSING_LIFE_TIME", errorCode(t, w))

	w = s.do(http.MethodPost, "/api/v1/annuities", `{"variable_cost_total":10}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "ZERO_DURATION_SIMULATION", errorCode(t, w))

	w = s.do(http.MethodPost, "/api/v1/annuities", `{"n_intervals":-1,"interval_time":60}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRuns(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, "")

	w := s.do(http.MethodPost, "/api/v1/runs", `{"model": `+runModel+`, "options": {"include_ledger": true}}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	run := decode[models.RunResponse](t, w)
	require.NotEmpty(t, run.ID)
	assert.Equal(t, "completed", run.Status)
	assert.Equal(t, "profile", run.Summary.Solver)
	assert.Equal(t, 24, run.Summary.Intervals)
	assert.Len(t, run.Ledger, 24)
	assert.InDelta(t, 2848, run.Summary.Total.Costs, 1e-6)
	assert.Equal(t, 24*time.Hour, run.Summary.Window.End.Sub(run.Summary.Window.Start))
	require.Len(t, run.Summary.Components, 2)

	w = s.do(http.MethodGet, "/api/v1/runs/"+run.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[models.RunResponse](t, w)
	assert.Equal(t, run.ID, got.ID)
	assert.Empty(t, got.Ledger)

	w = s.do(http.MethodGet, "/api/v1/runs/"+run.ID+"/ledger?component=from_grid", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 24, decode[models.LedgerResponse](t, w).Count)

	w = s.do(http.MethodGet, "/api/v1/runs/"+run.ID+"/ledger?format=csv", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Len(t, strings.Split(strings.TrimSpace(w.Body.String()), "\n"), 25)

	w = s.do(http.MethodGet, "/api/v1/runs/"+run.ID+"/ledger?format=xml", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/v1/runs/"+run.ID+"/rank", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rank := decode[models.RankResponse](t, w)
	assert.Equal(t, "costs", rank.By)
	require.Len(t, rank.Rankings, 2)
	assert.Equal(t, "from_grid", rank.Rankings[0].Name)
	assert.Equal(t, 96.49, rank.Rankings[0].SharePct)

	w = s.do(http.MethodGet, "/api/v1/runs/"+run.ID+"/rank?by=capex&limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rank = decode[models.RankResponse](t, w)
	require.Len(t, rank.Rankings, 1)
	assert.Equal(t, 100.0, rank.Rankings[0].Value)

	w = s.do(http.MethodGet, "/api/v1/runs/"+run.ID+"/rank?by=profit", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/v1/runs/"+run.ID+"/components/from_grid/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[models.StatsResponse](t, w)
	assert.Equal(t, 24, stats.Stats.Count)
	assert.InDelta(t, 0.3, stats.Stats.Mean, 1e-12)

	w = s.do(http.MethodGet, "/api/v1/runs/"+run.ID+"/components/ghost/stats", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "COMPONENT_NOT_FOUND", errorCode(t, w))

	w = s.do(http.MethodGet, "/api/v1/runs/00000000-0000-0000-0000-000000000000", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "RUN_NOT_FOUND", errorCode(t, w))

	w = s.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "smooth_runs_total")
}

func TestRuns_YAMLModel(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, "")

	doc := "components:\n  grid:\n    component: supply\n    life_time: 10\n    capex: {key: fix, fitting_value: 1000}\nsolver: {name: profile}\nsim_params: {n_intervals: 2, interest_rate: 0}\n"
	body, err := json.Marshal(map[string]any{"model": doc})
	require.NoError(t, err)

	w := s.do(http.MethodPost, "/api/v1/runs", string(body))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	run := decode[models.RunResponse](t, w)
	assert.InDelta(t, 100, run.Summary.Total.Costs, 1e-9)
}

func TestRuns_Errors(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, "")

	tests := []struct {
		name     string
		body     string
		wantCode int
		errCode  string
	}{
		{"no model", `{}`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"invalid model", `{"model": {"components": {}}}`, http.StatusBadRequest, "INVALID_MODEL"},
		{
			"cycle",
			`{"model": {"components": {"a": {"component": "x", "life_time": 1,
			  "capex": {"key": "spec", "fitting_value": 1, "dependant_value": "opex"},
			  "opex": {"key": "spec", "fitting_value": 1, "dependant_value": "capex"}}},
			  "solver": {"name": "profile"}}}`,
			http.StatusUnprocessableEntity, "FITTING_CYCLE",
		},
		{
			"no matching tier",
			`{"model": {"components": {"a": {"component": "x", "life_time": 1, "power": 500,
			  "capex": {"key": "variable", "var_dict_dependency": "power",
			    "var_dicts": [{"low_threshold": 0, "high_threshold": 100, "key": "spec", "fitting_value": 1, "dependant_value": "power"}]}}},
			  "solver": {"name": "profile"}, "sim_params": {"n_intervals": 1}}}`,
			http.StatusUnprocessableEntity, "NO_MATCHING_TIER",
		},
		{
			"missing flow in solution",
			`{"model": {"components": {"a": {"component": "supply", "variable_costs": 1, "dependency_flow_costs": ["a", "bel"]}},
			  "solver": {"name": "profile"}, "sim_params": {"n_intervals": 1}}}`,
			http.StatusUnprocessableEntity, "FLOW_NOT_FOUND",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/api/v1/runs", tt.body)
			require.Equal(t, tt.wantCode, w.Code, w.Body.String())
			assert.Equal(t, tt.errCode, errorCode(t, w))
		})
	}
}

func TestComponents(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	preset := "component: storage_h2\nlife_time: 30\np_max: 450\ncapex: {key: spec, fitting_value: 10, dependant_value: p_max}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "storage_h2.yaml"), []byte(preset), 0o644))

	s := newTestServer(t, dir)
	w := s.do(http.MethodGet, "/api/v1/components", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Components []models.ComponentPreset `json:"components"`
	}](t, w)
	require.Len(t, list.Components, 1)
	c := list.Components[0]
	assert.Equal(t, "storage_h2", c.ID)
	assert.Equal(t, "storage_h2", c.Component)
	assert.Equal(t, 30.0, c.LifeTime)
	assert.Equal(t, map[string]float64{"p_max": 450}, c.Attributes)
	require.Len(t, c.Slots, 1)

	empty := newTestServer(t, filepath.Join(dir, "missing"))
	w = empty.do(http.MethodGet, "/api/v1/components", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"components":[]}`, w.Body.String())
}
