package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/buemura/threatscore/internal/runner"
	"github.com/buemura/threatscore/internal/web/api"
	"github.com/buemura/threatscore/internal/web/history"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Options configures a Server.
type Options struct {
	Addr string
	// Branch builds loaders for requests that name a branch. Nil means the
	// runner's loaders are used regardless of the requested branch.
	Branch api.LoaderFunc
	// DefaultBranch prefills the branch field of the score form.
	DefaultBranch string
	Logger        *zap.Logger
	HistorySize   int
	LoadTimeout   time.Duration
}

// Server is the HTTP API server.
type Server struct {
	router  chi.Router
	addr    string
	runner  *runner.Runner
	store   *history.Store
	metrics *Metrics
	log     *zap.Logger
	opts    Options
}

// NewServer builds a new Server with middleware and routes configured.
func NewServer(r *runner.Runner, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{
		router:  chi.NewRouter(),
		addr:    opts.Addr,
		runner:  r,
		store:   history.NewStore(opts.HistorySize),
		metrics: NewMetrics(),
		log:     log,
		opts:    opts,
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(requestLogger(log))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.registerRoutes()

	return s
}

// Start listens on the configured address until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", zap.String("addr", s.addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.log.Info("http server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Router exposes the chi.Router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Metrics returns the server's Prometheus collectors.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// requestLogger logs one line per request through zap.
func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			log.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
