package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/resumatch/internal/matcher"
	"github.com/hyperjump/resumatch/internal/models"
	"github.com/hyperjump/resumatch/internal/serverless"
)

const pdfContentType = "application/pdf"

var errNotPDF = errors.New("only PDF files are accepted")

func (s *Server) handleMatchJobs(w http.ResponseWriter, r *http.Request) {
	if status, err := s.parseUpload(w, r); err != nil {
		s.respondError(w, status, err.Error())
		return
	}
	threshold, err := s.threshold(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	headers := r.MultipartForm.File["resume"]
	if len(headers) == 0 {
		s.respondError(w, http.StatusBadRequest, "resume file is required")
		return
	}
	resume, err := readPDF(headers[0])
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("match jobs request", zap.String("filename", resume.Filename), zap.Float64("threshold", threshold))
	ranking, err := s.matcher.MatchJobs(r.Context(), resume, threshold)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, models.NewJobMatchResponse(ranking))
}

func (s *Server) handleMatchCandidates(w http.ResponseWriter, r *http.Request) {
	s.matchCandidates(w, r, "")
}

func (s *Server) handleMatchCandidatesForJob(w http.ResponseWriter, r *http.Request) {
	s.matchCandidates(w, r, chi.URLParam(r, "jobID"))
}

func (s *Server) matchCandidates(w http.ResponseWriter, r *http.Request, jobID string) {
	if status, err := s.parseUpload(w, r); err != nil {
		s.respondError(w, status, err.Error())
		return
	}
	threshold, err := s.threshold(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	headers := r.MultipartForm.File["resumes"]
	if len(headers) == 0 {
		s.respondError(w, http.StatusBadRequest, "at least one resume file is required")
		return
	}
	resumes := make([]matcher.Resume, 0, len(headers))
	for _, fh := range headers {
		resume, err := readPDF(fh)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		resumes = append(resumes, resume)
	}
	s.logger.Debug("match candidates request",
		zap.String("job_id", jobID), zap.Int("resumes", len(resumes)), zap.Float64("threshold", threshold))

	var res *matcher.BatchResult
	if jobID != "" {
		res, err = s.matcher.MatchCandidatesForJob(r.Context(), jobID, resumes, threshold)
	} else {
		res, err = s.matcher.MatchCandidates(r.Context(), r.FormValue("job_description"), resumes, threshold)
	}
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, models.NewCandidateMatchResponse(res.Ranking, len(res.Skipped())))
}

// parseUpload bounds the body to server.max_upload_bytes and parses the multipart form.
// On failure it also returns the status to respond with.
func (s *Server) parseUpload(w http.ResponseWriter, r *http.Request) (int, error) {
	limit := s.config.Server.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return http.StatusRequestEntityTooLarge, fmt.Errorf("upload exceeds %d bytes", limit)
		}
		return http.StatusBadRequest, fmt.Errorf("invalid multipart form: %v", err)
	}
	return http.StatusOK, nil
}

// threshold reads similarity_threshold, defaulting to matching.default_threshold.
func (s *Server) threshold(r *http.Request) (float64, error) {
	raw := strings.TrimSpace(r.FormValue("similarity_threshold"))
	if raw == "" {
		return s.config.Matching.DefaultThreshold, nil
	}
	t, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(t) || t < 0 || t > 1 {
		return 0, fmt.Errorf("similarity_threshold must be a number between 0 and 1, got %q", raw)
	}
	return t, nil
}

// readPDF reads one uploaded part, rejecting anything not declared as application/pdf.
func readPDF(fh *multipart.FileHeader) (matcher.Resume, error) {
	mediaType, _, err := mime.ParseMediaType(fh.Header.Get("Content-Type"))
	if err != nil || mediaType != pdfContentType {
		return matcher.Resume{}, fmt.Errorf("%w: %s", errNotPDF, fh.Filename)
	}
	f, err := fh.Open()
	if err != nil {
		return matcher.Resume{}, fmt.Errorf("could not read %s: %v", fh.Filename, err)
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return matcher.Resume{}, fmt.Errorf("could not read %s: %v", fh.Filename, err)
	}
	return matcher.Resume{Filename: fh.Filename, Content: content}, nil
}

// toFunctionRequest converts an HTTP request into a function event. A JSON body is passed
// through; a base64 body is flagged as such; anything else is passed as a string.
func toFunctionRequest(r *http.Request) (*serverless.Request, error) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	headers := make(map[string]string, len(r.Header))
	for k := range r.Header {
		headers[strings.ToLower(k)] = r.Header.Get(k)
	}
	req := &serverless.Request{
		HTTPMethod: r.Method,
		Path:       r.URL.Path,
		Headers:    headers,
	}
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0:
	case (trimmed[0] == '{' || trimmed[0] == '"') && json.Valid(trimmed):
		req.Body = trimmed
	default:
		req.Body, _ = json.Marshal(string(trimmed))
		if _, err := base64.StdEncoding.DecodeString(string(trimmed)); err == nil {
			req.IsBase64Encoded = true
		}
	}
	return req, nil
}
