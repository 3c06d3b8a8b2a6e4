package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/buemura/threatscore/internal/output"
	"github.com/buemura/threatscore/internal/runner"
	"github.com/buemura/threatscore/internal/threatmodel"
	"github.com/buemura/threatscore/internal/web/history"
	"github.com/buemura/threatscore/pkg/types"
	"github.com/go-chi/chi/v5"
)

// LoaderFunc returns the loader for a platform on a branch other than the
// configured one.
type LoaderFunc func(platform types.Platform, branch string) threatmodel.Loader

// Recorder observes the outcome of score runs.
type Recorder interface {
	Observe(platform types.Platform, report *types.PlatformReport, loadTime time.Duration, err error)
}

// Handlers holds dependencies for the REST API handlers.
type Handlers struct {
	Store    *history.Store
	Runner   *runner.Runner
	Branch   LoaderFunc
	Recorder Recorder
	Timeout  time.Duration
}

// NewHandlers creates API handlers with the given dependencies. branch and
// rec may be nil.
func NewHandlers(store *history.Store, r *runner.Runner, branch LoaderFunc, rec Recorder) *Handlers {
	return &Handlers{
		Store:    store,
		Runner:   r,
		Branch:   branch,
		Recorder: rec,
		Timeout:  30 * time.Second,
	}
}

// ListPlatforms handles GET /api/v1/platforms.
func (h *Handlers) ListPlatforms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.Platforms())
}

type threatSummary struct {
	Name      string   `json:"name"`
	Title     string   `json:"title"`
	Dimension string   `json:"dimension"`
	Severity  int      `json:"severity"`
	Tags      []string `json:"tags"`
}

// GetThreatModel handles GET /api/v1/threatmodels/{platform}.
func (h *Handlers) GetThreatModel(w http.ResponseWriter, r *http.Request) {
	platform, err := types.ParsePlatform(chi.URLParam(r, "platform"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	branch := r.URL.Query().Get("branch")
	if err := validateBranch(branch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	doc, err := h.load(r.Context(), platform, branch)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	metrics := make([]threatSummary, 0, len(doc.Metrics))
	for _, m := range doc.Metrics {
		severity := 0
		if m.Severity != nil {
			severity = *m.Severity
		}
		tags := m.Tags
		if tags == nil {
			tags = []string{}
		}
		metrics = append(metrics, threatSummary{
			Name:      m.Name,
			Title:     m.Title(),
			Dimension: m.Dimension,
			Severity:  severity,
			Tags:      tags,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"platform": platform,
		"name":     doc.Name,
		"date":     doc.Date,
		"metrics":  metrics,
	})
}

// ErrUpstream marks failures to load or score a threat model, as opposed to
// a bad request.
var ErrUpstream = errors.New("threat model unavailable")

// CreateScore handles POST /api/v1/scores.
func (h *Handlers) CreateScore(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCreateScoreRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	run, err := h.Submit(r.Context(), *req)
	if err != nil {
		writeError(w, StatusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, run)
}

// Submit loads the threat model named by req, scores it and stores the run.
// Load and score failures wrap ErrUpstream; anything else is the caller's
// fault.
func (h *Handlers) Submit(ctx context.Context, req CreateScoreRequest) (*history.Run, error) {
	platform, err := types.ParsePlatform(req.Platform)
	if err != nil {
		return nil, err
	}
	if err := validateBranch(req.Branch); err != nil {
		return nil, err
	}

	start := time.Now()
	doc, err := h.load(ctx, platform, req.Branch)
	loadTime := time.Since(start)
	if err != nil {
		h.observe(platform, nil, loadTime, err)
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	inactive := threatmodel.NewChecks(req.Inactive...)
	report, err := h.Runner.Score(platform, doc, runner.Request{Inactive: inactive, AllInactive: req.AllInactive})
	h.observe(platform, report, loadTime, err)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	return h.Store.Add(&history.Run{
		Platform:    platform,
		Branch:      req.Branch,
		Inactive:    inactive.Names(),
		AllInactive: req.AllInactive,
		Report:      *report,
	}), nil
}

// StatusFor maps a Submit error to an HTTP status code.
func StatusFor(err error) int {
	if errors.Is(err, ErrUpstream) {
		return http.StatusBadGateway
	}
	return http.StatusBadRequest
}

// ListScores handles GET /api/v1/scores.
func (h *Handlers) ListScores(w http.ResponseWriter, r *http.Request) {
	runs := h.Store.List()

	type scoreSummary struct {
		ID        string         `json:"id"`
		Platform  types.Platform `json:"platform"`
		Branch    string         `json:"branch,omitempty"`
		Overall   int            `json:"overall_percent"`
		Stars     float64        `json:"stars"`
		CreatedAt time.Time      `json:"created_at"`
	}

	summaries := make([]scoreSummary, len(runs))
	for i, run := range runs {
		summaries[i] = scoreSummary{
			ID:        run.ID,
			Platform:  run.Platform,
			Branch:    run.Branch,
			Overall:   run.Overall(),
			CreatedAt: run.CreatedAt,
		}
		if run.Report.Result != nil {
			summaries[i].Stars = run.Report.Result.Stars
		}
	}

	writeJSON(w, http.StatusOK, summaries)
}

// GetScore handles GET /api/v1/scores/{id}.
func (h *Handlers) GetScore(w http.ResponseWriter, r *http.Request) {
	run, err := h.Store.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, run)
}

var reportContentTypes = map[string]string{
	"html":     "text/html; charset=utf-8",
	"json":     "application/json",
	"markdown": "text/markdown; charset=utf-8",
	"text":     "text/plain; charset=utf-8",
	"table":    "text/plain; charset=utf-8",
}

// GetScoreReport handles GET /api/v1/scores/{id}/report. The format query
// parameter selects any output format; HTML is the default.
func (h *Handlers) GetScoreReport(w http.ResponseWriter, r *http.Request) {
	run, err := h.Store.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "html"
	}
	formatter, err := output.GetFormatter(format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, []types.PlatformReport{run.Report}); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to render report: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", reportContentTypes[format])
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// DeleteScore handles DELETE /api/v1/scores/{id}.
func (h *Handlers) DeleteScore(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Delete(chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) load(ctx context.Context, platform types.Platform, branch string) (*threatmodel.Document, error) {
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	loader := h.Runner.Registry().Get(platform)
	if branch != "" && h.Branch != nil {
		loader = h.Branch(platform, branch)
	}
	return loader.Load(ctx, platform)
}

func (h *Handlers) observe(platform types.Platform, report *types.PlatformReport, loadTime time.Duration, err error) {
	if h.Recorder != nil {
		h.Recorder.Observe(platform, report, loadTime, err)
	}
}
