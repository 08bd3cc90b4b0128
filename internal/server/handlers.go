package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/resumatch/internal/config"
	"github.com/hyperjump/resumatch/internal/jobsearch"
	"github.com/hyperjump/resumatch/internal/models"
	"github.com/hyperjump/resumatch/internal/serverless"
	"github.com/hyperjump/resumatch/internal/storage"
)

func (s *Server) handleSearchJobs(w http.ResponseWriter, r *http.Request) {
	if s.jobIndex == nil {
		s.respondError(w, http.StatusNotImplemented, "job search not enabled")
		return
	}
	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		s.respondError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	fuzzy, _ := strconv.ParseBool(r.URL.Query().Get("fuzzy"))

	start := time.Now()
	idx, err := s.jobIndex.Get(r.Context())
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	hits, err := idx.Search(r.Context(), q, limit, jobsearch.Options{Fuzzy: fuzzy})
	if err != nil {
		s.logger.Error("job search failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp := models.JobSearchResponse{Query: q, Results: make([]models.JobSearchHit, len(hits)), Total: len(hits)}
	for i, h := range hits {
		resp.Results[i] = models.JobSearchHit{Job: models.NewJob(h.Job), Score: h.Score}
	}
	if len(hits) == 0 {
		if suggestion, ok := idx.Suggest(q); ok {
			resp.Suggestion = suggestion
		}
	}
	resp.QueryTime = time.Since(start).Milliseconds()
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := s.matcher.Corpus(r.Context())
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	job, err := c.Get(id)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "job not found")
		return
	}
	s.respondJSON(w, http.StatusOK, models.NewJob(job))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"uptime_seconds": int64(time.Since(s.startedAt).Seconds()),
		"resources":      s.matcher.States(),
	}
	if s.jobIndex != nil {
		resp["resources"].(map[string]string)[s.jobIndex.Name()] = s.jobIndex.State().String()
	}
	if c, ok := s.matcher.LoadedCorpus(); ok {
		resp["jobs"] = c.Len()
		resp["corpus_model"] = c.Meta().Model
	}

	configInfo := map[string]interface{}{
		"embedding_provider":   s.config.Embedding.Provider,
		"embedding_model":      s.config.Embedding.ModelID(),
		"embedding_dimensions": s.config.Embedding.Dimensions,
		"corpus_source":        s.config.Corpus.Source,
		"corpus_path":          s.config.Corpus.Path,
		"default_threshold":    s.config.Matching.DefaultThreshold,
		"fallback_limit":       s.config.Matching.FallbackLimit,
	}
	if usage, err := storage.MeasureUsage(s.config.Corpus.Path, s.config.Storage.TempDir); err == nil {
		resp["disk"] = usage
	} else {
		s.logger.Warn("failed to measure disk usage", zap.Error(err))
	}
	resp["config"] = configInfo
	s.respondJSON(w, http.StatusOK, resp)
}

// function adapts a serverless handler to net/http.
func (s *Server) function(fn func(ctx context.Context, req *serverless.Request) *serverless.Response) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := toFunctionRequest(r)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "could not read request body")
			return
		}
		resp := fn(r.Context(), req)
		for k, v := range resp.Headers {
			w.Header().Set(k, v)
		}
		w.WriteHeader(resp.StatusCode)
		_, _ = w.Write([]byte(resp.Body))
	}
}

func (s *Server) handleWatchDirectoriesList(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	dirs := s.watch.Directories()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"directories": dirs})
}

type watchAddRequest struct {
	Path string `json:"path"`
	Sync *bool  `json:"sync,omitempty"`
}

func (s *Server) handleWatchDirectoriesAdd(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	var req watchAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	abs, err := filepath.Abs(req.Path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			s.respondError(w, http.StatusNotFound, "directory not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !info.IsDir() {
		s.respondError(w, http.StatusBadRequest, "path is not a directory")
		return
	}
	syncExisting := true
	if req.Sync != nil {
		syncExisting = *req.Sync
	}
	s.logger.Debug("watch add directory request", zap.String("path", abs), zap.Bool("sync_existing", syncExisting))
	if err := s.watch.AddDirectory(abs, syncExisting); err != nil {
		s.logger.Error("watch add directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusCreated, map[string]string{"path": abs, "status": "added"})
}

func (s *Server) handleWatchDirectoriesRemove(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		var body struct {
			Path string `json:"path"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil && body.Path != "" {
			path = body.Path
		}
	}
	if path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required (query or body)")
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	s.logger.Debug("watch remove directory request", zap.String("path", abs))
	if err := s.watch.RemoveDirectory(abs); err != nil {
		s.logger.Error("watch remove directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusOK, map[string]string{"path": abs, "status": "removed"})
}

func (s *Server) persistWatchDirectories() {
	if s.configPath == "" {
		return
	}
	s.watchConfigMu.Lock()
	defer s.watchConfigMu.Unlock()
	s.config.Watch.Directories = s.watch.Directories()
	if err := config.Save(s.configPath, s.config); err != nil {
		s.logger.Warn("failed to persist watch config", zap.Error(err))
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// respondFailure maps a matching error to its status. 5xx details are logged, never returned.
func (s *Server) respondFailure(w http.ResponseWriter, err error) {
	status, msg := serverless.ErrorStatus(err)
	switch {
	case status == http.StatusServiceUnavailable:
		w.Header().Set("Retry-After", strconv.Itoa(serverless.RetryAfterSeconds))
	case status >= 500:
		s.logger.Error("request failed", zap.Error(err))
	default:
		s.logger.Info("request rejected", zap.Int("status", status), zap.Error(err))
	}
	s.respondError(w, status, msg)
}
