package pages

import (
	"context"
	"net/http"
	"strings"

	"github.com/buemura/threatscore/internal/web/api"
	"github.com/buemura/threatscore/internal/web/history"
	"github.com/buemura/threatscore/internal/web/templates"
	"github.com/buemura/threatscore/pkg/types"
	"github.com/go-chi/chi/v5"
)

// Submitter computes and stores a score run.
type Submitter interface {
	Submit(ctx context.Context, req api.CreateScoreRequest) (*history.Run, error)
}

// FormValues echoes the score form back after a failed submission.
type FormValues struct {
	Platform    string
	Branch      string
	Inactive    string
	AllInactive bool
}

// IndexData is the template data for the index (score form) page.
type IndexData struct {
	Platforms []types.Platform
	Form      FormValues
	Error     string
}

// ScoreListData is the template data for the score history page.
type ScoreListData struct {
	Runs []*history.Run
}

// ScoreDetailData is the template data for the score detail page.
type ScoreDetailData struct {
	Run *history.Run
}

// NotFoundData is the template data for the 404 page.
type NotFoundData struct {
	Message string
}

// PageHandlers serves the HTML pages of the web application.
type PageHandlers struct {
	submitter Submitter
	store     *history.Store
	branch    string
}

// NewPageHandlers creates a new PageHandlers. branch prefills the form.
func NewPageHandlers(submitter Submitter, store *history.Store, branch string) *PageHandlers {
	return &PageHandlers{
		submitter: submitter,
		store:     store,
		branch:    branch,
	}
}

// Index renders the landing page with the score form.
func (h *PageHandlers) Index(w http.ResponseWriter, r *http.Request) {
	data := IndexData{
		Platforms: types.Platforms(),
		Form:      FormValues{Platform: string(types.PlatformMacOS), Branch: h.branch},
	}
	h.render(w, http.StatusOK, "index.html", data)
}

// CreateScore handles the score form, redirecting to the new run.
func (h *PageHandlers) CreateScore(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	form := FormValues{
		Platform:    r.PostForm.Get("platform"),
		Branch:      strings.TrimSpace(r.PostForm.Get("branch")),
		Inactive:    r.PostForm.Get("inactive"),
		AllInactive: r.PostForm.Get("all_inactive") != "",
	}

	req := api.CreateScoreRequest{
		Platform:    form.Platform,
		Inactive:    splitLines(form.Inactive),
		AllInactive: form.AllInactive,
	}
	if form.Branch != h.branch {
		req.Branch = form.Branch
	}

	run, err := h.submitter.Submit(r.Context(), req)
	if err != nil {
		data := IndexData{Platforms: types.Platforms(), Form: form, Error: err.Error()}
		h.render(w, api.StatusFor(err), "index.html", data)
		return
	}

	http.Redirect(w, r, "/scores/"+run.ID, http.StatusSeeOther)
}

// ScoreList renders the score history page.
func (h *PageHandlers) ScoreList(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "scores.html", ScoreListData{Runs: h.store.List()})
}

// ScoreDetail renders the detail page for a single run.
func (h *PageHandlers) ScoreDetail(w http.ResponseWriter, r *http.Request) {
	run, err := h.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.render(w, http.StatusNotFound, "not_found.html", NotFoundData{
			Message: "Score not found.",
		})
		return
	}

	h.render(w, http.StatusOK, "score_detail.html", ScoreDetailData{Run: run})
}

func (h *PageHandlers) render(w http.ResponseWriter, status int, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := templates.RenderPage(w, name, data); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// splitLines returns the non-blank lines of s, trimmed.
func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
