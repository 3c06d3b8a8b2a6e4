package web

import (
	"net/http"

	"github.com/buemura/threatscore/internal/web/api"
	"github.com/buemura/threatscore/internal/web/pages"
	"github.com/go-chi/chi/v5"
)

// registerRoutes mounts all route groups on the server's router.
func (s *Server) registerRoutes() {
	apiHandlers := api.NewHandlers(s.store, s.runner, s.opts.Branch, s.metrics)
	if s.opts.LoadTimeout > 0 {
		apiHandlers.Timeout = s.opts.LoadTimeout
	}

	pageHandlers := pages.NewPageHandlers(apiHandlers, s.store, s.opts.DefaultBranch)

	s.router.Get("/health", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	// HTML pages
	s.router.Get("/", pageHandlers.Index)
	s.router.Get("/scores", pageHandlers.ScoreList)
	s.router.Post("/scores", pageHandlers.CreateScore)
	s.router.Get("/scores/{id}", pageHandlers.ScoreDetail)

	// REST API
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/platforms", apiHandlers.ListPlatforms)
		r.Get("/threatmodels/{platform}", apiHandlers.GetThreatModel)

		r.Post("/scores", apiHandlers.CreateScore)
		r.Get("/scores", apiHandlers.ListScores)
		r.Get("/scores/{id}", apiHandlers.GetScore)
		r.Get("/scores/{id}/report", apiHandlers.GetScoreReport)
		r.Delete("/scores/{id}", apiHandlers.DeleteScore)
	})
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}` + "\n"))
}
