package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/buemura/threatscore/internal/runner"
	"github.com/buemura/threatscore/internal/threatmodel"
	"github.com/buemura/threatscore/internal/web/history"
	"github.com/buemura/threatscore/pkg/types"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLoader struct {
	name string
	err  error
}

func (l *stubLoader) Load(_ context.Context, platform types.Platform) (*threatmodel.Document, error) {
	if l.err != nil {
		return nil, l.err
	}
	return &threatmodel.Document{
		Name: l.name + " " + string(platform),
		Date: "2025-01-01",
		Metrics: []threatmodel.MetricRecord{
			{Name: "Firewall off", Dimension: "network", Severity: threatmodel.Severity(4), Tags: []string{"CIS Benchmark Level 1,Firewall"}},
			{Name: "No password", Dimension: "credentials", Severity: threatmodel.Severity(2)},
		},
	}, nil
}

type recordedRun struct {
	platform types.Platform
	failed   bool
}

type fakeRecorder struct {
	runs []recordedRun
}

func (f *fakeRecorder) Observe(platform types.Platform, report *types.PlatformReport, _ time.Duration, err error) {
	f.runs = append(f.runs, recordedRun{platform: platform, failed: err != nil || report == nil})
}

func setupTestHandlers(def threatmodel.Loader) (*Handlers, *chi.Mux, *fakeRecorder) {
	reg := runner.NewRegistry(def)
	reg.Register(types.PlatformAndroid, &stubLoader{err: errors.New("upstream unavailable")})

	rec := &fakeRecorder{}
	branch := func(_ types.Platform, branch string) threatmodel.Loader {
		return &stubLoader{name: "branch " + branch}
	}
	h := NewHandlers(history.NewStore(10), runner.NewRunner(reg, nil), branch, rec)

	r := chi.NewRouter()
	r.Get("/api/v1/platforms", h.ListPlatforms)
	r.Get("/api/v1/threatmodels/{platform}", h.GetThreatModel)
	r.Post("/api/v1/scores", h.CreateScore)
	r.Get("/api/v1/scores", h.ListScores)
	r.Get("/api/v1/scores/{id}", h.GetScore)
	r.Get("/api/v1/scores/{id}/report", h.GetScoreReport)
	r.Delete("/api/v1/scores/{id}", h.DeleteScore)
	return h, r, rec
}

func doRequest(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createScore(t *testing.T, router http.Handler, body string) map[string]interface{} {
	t.Helper()
	w := doRequest(router, http.MethodPost, "/api/v1/scores", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestListPlatforms(t *testing.T) {
	_, router, _ := setupTestHandlers(&stubLoader{name: "model"})

	w := doRequest(router, http.MethodGet, "/api/v1/platforms", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var platforms []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &platforms))
	assert.Equal(t, []string{"macOS", "Windows", "Linux", "iOS", "Android"}, platforms)
}

func TestGetThreatModel(t *testing.T) {
	_, router, _ := setupTestHandlers(&stubLoader{name: "model"})

	w := doRequest(router, http.MethodGet, "/api/v1/threatmodels/linux", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Platform string          `json:"platform"`
		Name     string          `json:"name"`
		Metrics  []threatSummary `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Linux", resp.Platform)
	assert.Equal(t, "model Linux", resp.Name)
	require.Len(t, resp.Metrics, 2)
	assert.Equal(t, "Firewall off", resp.Metrics[0].Name)
	assert.Equal(t, 4, resp.Metrics[0].Severity)
	assert.Equal(t, []string{}, resp.Metrics[1].Tags)
}

func TestGetThreatModel_Branch(t *testing.T) {
	_, router, _ := setupTestHandlers(&stubLoader{name: "model"})

	w := doRequest(router, http.MethodGet, "/api/v1/threatmodels/macOS?branch=dev", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "branch dev macOS")
}

func TestGetThreatModel_InvalidPlatform(t *testing.T) {
	_, router, _ := setupTestHandlers(&stubLoader{name: "model"})

	w := doRequest(router, http.MethodGet, "/api/v1/threatmodels/beos", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "macOS, Windows, Linux, iOS, Android")
}

func TestGetThreatModel_LoadFailure(t *testing.T) {
	_, router, _ := setupTestHandlers(&stubLoader{name: "model"})

	w := doRequest(router, http.MethodGet, "/api/v1/threatmodels/Android", "")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "upstream unavailable")
}

func TestCreateScore_ValidBody(t *testing.T) {
	h, router, rec := setupTestHandlers(&stubLoader{name: "model"})

	resp := createScore(t, router, `{"platform": "macOS", "inactive": ["Firewall off"]}`)

	assert.NotEmpty(t, resp["id"])
	assert.Equal(t, "macOS", resp["platform"])
	assert.Equal(t, []interface{}{"Firewall off"}, resp["inactive"])

	report := resp["report"].(map[string]interface{})
	result := report["result"].(map[string]interface{})
	assert.Equal(t, float64(66), result["overall"])
	assert.Equal(t, "model macOS", result["platform"])

	assert.Equal(t, 1, h.Store.Len())
	require.Len(t, rec.runs, 1)
	assert.False(t, rec.runs[0].failed)
}

func TestCreateScore_AllInactive(t *testing.T) {
	_, router, _ := setupTestHandlers(&stubLoader{name: "model"})

	resp := createScore(t, router, `{"platform": "Windows", "inactive": ["bogus"], "all_inactive": true}`)
	report := resp["report"].(map[string]interface{})
	assert.Equal(t, float64(100), report["result"].(map[string]interface{})["overall"])
	assert.NotContains(t, report, "unknown_names")
}

func TestCreateScore_UnknownNames(t *testing.T) {
	_, router, _ := setupTestHandlers(&stubLoader{name: "model"})

	resp := createScore(t, router, `{"platform": "Windows", "inactive": ["bogus"]}`)
	report := resp["report"].(map[string]interface{})
	assert.Equal(t, []interface{}{"bogus"}, report["unknown_names"])
}

func TestCreateScore_Branch(t *testing.T) {
	_, router, _ := setupTestHandlers(&stubLoader{name: "model"})

	resp := createScore(t, router, `{"platform": "iOS", "branch": "dev"}`)
	assert.Equal(t, "dev", resp["branch"])
	result := resp["report"].(map[string]interface{})["result"].(map[string]interface{})
	assert.Equal(t, "branch dev iOS", result["platform"])
}

func TestCreateScore_BadRequests(t *testing.T) {
	_, router, _ := setupTestHandlers(&stubLoader{name: "model"})

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", "{invalid"},
		{"missing platform", `{"inactive": []}`},
		{"unknown platform", `{"platform": "beos"}`},
		{"bad branch", `{"platform": "Linux", "branch": "../etc"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, http.MethodPost, "/api/v1/scores", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestCreateScore_LoadFailure(t *testing.T) {
	h, router, rec := setupTestHandlers(&stubLoader{name: "model"})

	w := doRequest(router, http.MethodPost, "/api/v1/scores", `{"platform": "Android"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, 0, h.Store.Len())
	require.Len(t, rec.runs, 1)
	assert.True(t, rec.runs[0].failed)
}

func TestListScores(t *testing.T) {
	_, router, _ := setupTestHandlers(&stubLoader{name: "model"})
	createScore(t, router, `{"platform": "Linux"}`)
	second := createScore(t, router, `{"platform": "macOS", "all_inactive": true}`)

	w := doRequest(router, http.MethodGet, "/api/v1/scores", "")
	require.Equal(t, http.StatusOK, w.Code)

	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, second["id"], list[0]["id"])
	assert.Equal(t, float64(100), list[0]["overall_percent"])
	assert.Equal(t, 5.0, list[0]["stars"])
	assert.Equal(t, float64(0), list[1]["overall_percent"])
}

func TestGetScore(t *testing.T) {
	_, router, _ := setupTestHandlers(&stubLoader{name: "model"})
	created := createScore(t, router, `{"platform": "Linux"}`)

	w := doRequest(router, http.MethodGet, "/api/v1/scores/"+created["id"].(string), "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), created["id"].(string))
}

func TestGetScore_NotFound(t *testing.T) {
	_, router, _ := setupTestHandlers(&stubLoader{name: "model"})

	w := doRequest(router, http.MethodGet, "/api/v1/scores/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetScoreReport_ReturnsHTML(t *testing.T) {
	_, router, _ := setupTestHandlers(&stubLoader{name: "model"})
	created := createScore(t, router, `{"platform": "Linux"}`)

	w := doRequest(router, http.MethodGet, "/api/v1/scores/"+created["id"].(string)+"/report", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "<!DOCTYPE html>")
	assert.Contains(t, w.Body.String(), "model Linux")
}

func TestGetScoreReport_Markdown(t *testing.T) {
	_, router, _ := setupTestHandlers(&stubLoader{name: "model"})
	created := createScore(t, router, `{"platform": "Linux"}`)

	w := doRequest(router, http.MethodGet, "/api/v1/scores/"+created["id"].(string)+"/report?format=markdown", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/markdown")
	assert.Contains(t, w.Body.String(), "## Linux: model Linux")
}

func TestGetScoreReport_UnknownFormat(t *testing.T) {
	_, router, _ := setupTestHandlers(&stubLoader{name: "model"})
	created := createScore(t, router, `{"platform": "Linux"}`)

	w := doRequest(router, http.MethodGet, "/api/v1/scores/"+created["id"].(string)+"/report?format=xml", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteScore(t *testing.T) {
	h, router, _ := setupTestHandlers(&stubLoader{name: "model"})
	created := createScore(t, router, `{"platform": "Linux"}`)

	w := doRequest(router, http.MethodDelete, "/api/v1/scores/"+created["id"].(string), "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 0, h.Store.Len())

	w = doRequest(router, http.MethodDelete, "/api/v1/scores/"+created["id"].(string), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmit(t *testing.T) {
	h, _, _ := setupTestHandlers(&stubLoader{name: "model"})

	run, err := h.Submit(context.Background(), CreateScoreRequest{Platform: "linux", Inactive: []string{"Firewall off"}})
	require.NoError(t, err)
	assert.Equal(t, types.PlatformLinux, run.Platform)
	assert.Equal(t, 66, run.Overall())
	assert.Equal(t, 1, h.Store.Len())
}

func TestSubmit_ErrorStatus(t *testing.T) {
	h, _, _ := setupTestHandlers(&stubLoader{name: "model"})

	_, err := h.Submit(context.Background(), CreateScoreRequest{Platform: "Plan9"})
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrInvalidPlatform)
	assert.Equal(t, http.StatusBadRequest, StatusFor(err))

	_, err = h.Submit(context.Background(), CreateScoreRequest{Platform: "Linux", Branch: "../etc"})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, StatusFor(err))

	_, err = h.Submit(context.Background(), CreateScoreRequest{Platform: "Android"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Contains(t, err.Error(), "upstream unavailable")
	assert.Equal(t, http.StatusBadGateway, StatusFor(err))
}
