// Package server provides the HTTP API for resumatch.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/resumatch/internal/config"
	"github.com/hyperjump/resumatch/internal/jobsearch"
	"github.com/hyperjump/resumatch/internal/lazy"
	"github.com/hyperjump/resumatch/internal/matcher"
	"github.com/hyperjump/resumatch/internal/serverless"
)

// WatchService manages the resume inbox directories while the server runs.
type WatchService interface {
	Directories() []string
	AddDirectory(path string, syncExisting bool) error
	RemoveDirectory(path string) error
}

// Server is the HTTP server for the resumatch API.
type Server struct {
	matcher   *matcher.Matcher
	functions *serverless.Handler
	jobIndex  *lazy.Value[*jobsearch.Index]
	config    *config.Config
	logger    *zap.Logger
	server    *http.Server
	startedAt time.Time

	watch         WatchService
	configPath    string
	watchConfigMu sync.Mutex
}

// Option configures a Server.
type Option func(*Server)

// WithWatch enables the watch directory endpoints. When configPath is set, directory
// changes are persisted to that config file.
func WithWatch(w WatchService, configPath string) Option {
	return func(s *Server) {
		s.watch = w
		s.configPath = configPath
	}
}

// NewServer creates a server with the given dependencies. jobIndex may be nil to disable job lookup.
func NewServer(m *matcher.Matcher, jobIndex *lazy.Value[*jobsearch.Index], cfg *config.Config, logger *zap.Logger, opts ...Option) *Server {
	s := &Server{
		matcher:  m,
		jobIndex: jobIndex,
		config:   cfg,
		logger:   logger,
		functions: serverless.NewHandler(m,
			serverless.WithDefaultThreshold(cfg.Matching.ServerlessThreshold),
			serverless.WithLogger(logger)),
		startedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors)
	r.Use(middleware.Timeout(time.Duration(s.config.Server.RequestTimeoutSeconds) * time.Second))

	r.Post("/match-jobs", s.handleMatchJobs)
	r.Post("/match-candidates", s.handleMatchCandidates)
	r.Post("/match-candidates/{jobID}", s.handleMatchCandidatesForJob)

	r.Post("/api/match", s.function(s.functions.Match))
	r.Post("/api/find_candidates", s.function(s.functions.FindCandidates))

	r.Get("/api/v1/jobs", s.handleSearchJobs)
	r.Get("/api/v1/jobs/{id}", s.handleGetJob)
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/api/v1/watch/directories", s.handleWatchDirectoriesList)
	r.Post("/api/v1/watch/directories", s.handleWatchDirectoriesAdd)
	r.Delete("/api/v1/watch/directories", s.handleWatchDirectoriesRemove)
	r.Get("/health", s.handleHealth)
	return r
}

// Start warms the shared resources in the background, then serves until Stop is called.
func (s *Server) Start() error {
	s.matcher.Warm(context.Background())
	if s.jobIndex != nil {
		s.jobIndex.Warm(context.Background())
	}

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// cors sets the CORS headers on every response and answers preflight requests.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
