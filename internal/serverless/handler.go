package serverless

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/resumatch/internal/config"
	"github.com/hyperjump/resumatch/internal/matcher"
	"github.com/hyperjump/resumatch/internal/models"
	"github.com/hyperjump/resumatch/pkg/utils"
)

// FallbackHeader is set to "true" when the returned list is the top-K fallback rather than
// the matches that met the threshold.
const FallbackHeader = "X-Resumatch-Fallback"

// Handler serves the match and find_candidates functions.
type Handler struct {
	matcher          *matcher.Matcher
	defaultThreshold float64
	logger           *zap.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithDefaultThreshold sets the threshold used when a request has none or an invalid one.
func WithDefaultThreshold(t float64) Option {
	return func(h *Handler) { h.defaultThreshold = t }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(h *Handler) { h.logger = utils.OrNop(l) }
}

// NewHandler creates a Handler over m.
func NewHandler(m *matcher.Matcher, opts ...Option) *Handler {
	h := &Handler{matcher: m, defaultThreshold: config.DefaultServerlessThreshold, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type matchPayload struct {
	Resume    string          `json:"resume"`
	Filename  string          `json:"filename"`
	Threshold json.RawMessage `json:"threshold"`
}

// resumeItem keeps both fields raw so a missing key can be told apart from null.
type resumeItem struct {
	Filename json.RawMessage `json:"filename"`
	Content  json.RawMessage `json:"content"`
}

type findCandidatesPayload struct {
	JobDescription string          `json:"job_description"`
	JobID          json.RawMessage `json:"job_id"`
	ResumesData    []resumeItem    `json:"resumes_data"`
	Threshold      json.RawMessage `json:"threshold"`
}

// Match ranks jobs for one base64-encoded resume. The body is the bare list of matches.
func (h *Handler) Match(ctx context.Context, req *Request) *Response {
	return h.serve(ctx, req, "match", func(ctx context.Context, logger *zap.Logger) *Response {
		var p matchPayload
		if err := req.decodePayload(&p); err != nil {
			return errorResponse(400, fmt.Sprintf("Invalid or missing request payload: %v", err))
		}
		if p.Resume == "" {
			return errorResponse(400, "Missing or invalid resume data (base64 string required)")
		}
		content, err := DecodeBase64(p.Resume)
		if err != nil {
			return errorResponse(400, fmt.Sprintf("Invalid resume base64 data: %v", err))
		}
		threshold := ParseThreshold(p.Threshold, h.defaultThreshold)
		filename := p.Filename
		if filename == "" {
			filename = "resume.pdf"
		}
		logger.Info("matching resume to jobs", zap.String("filename", filename), zap.Float64("threshold", threshold))

		r, err := h.matcher.MatchJobs(ctx, matcher.Resume{Filename: filename, Content: content}, threshold)
		if err != nil {
			return h.fail(logger, err)
		}
		resp := jsonResponse(200, models.JobMatches(r.Results))
		resp.Headers[FallbackHeader] = strconv.FormatBool(r.Fallback)
		return resp
	})
}

// FindCandidates ranks base64-encoded resumes against a job description, or against a corpus
// job when job_id is given instead. Every item must carry both filename and content keys;
// items whose content is null or undecodable are skipped, and a null or empty filename
// falls back to resume_N.pdf.
func (h *Handler) FindCandidates(ctx context.Context, req *Request) *Response {
	return h.serve(ctx, req, "find_candidates", func(ctx context.Context, logger *zap.Logger) *Response {
		var p findCandidatesPayload
		if err := req.decodePayload(&p); err != nil {
			return errorResponse(400, fmt.Sprintf("Invalid or missing request payload: %v", err))
		}
		jobID := jobIDString(p.JobID)
		if utils.CollapseWhitespace(p.JobDescription) == "" && jobID == "" {
			return errorResponse(400, "Missing or empty job_description")
		}
		if len(p.ResumesData) == 0 {
			return errorResponse(400, "Missing or empty resumes_data list")
		}
		for _, item := range p.ResumesData {
			if len(item.Filename) == 0 || len(item.Content) == 0 {
				return errorResponse(400, "Invalid format in resumes_data list. Expected list of {'filename': str, 'content': str}")
			}
		}
		threshold := ParseThreshold(p.Threshold, h.defaultThreshold)

		resumes := make([]matcher.Resume, 0, len(p.ResumesData))
		for i, item := range p.ResumesData {
			filename := fmt.Sprintf("resume_%d.pdf", i+1)
			var name string
			if err := json.Unmarshal(item.Filename, &name); err == nil && name != "" {
				filename = name
			}
			var b64 string
			if err := json.Unmarshal(item.Content, &b64); err != nil || b64 == "" {
				logger.Warn("skipping resume: missing or invalid base64 content", zap.String("filename", filename))
				continue
			}
			content, err := DecodeBase64(b64)
			if err != nil {
				logger.Warn("skipping resume: invalid base64 data", zap.String("filename", filename), zap.Error(err))
				continue
			}
			resumes = append(resumes, matcher.Resume{Filename: filename, Content: content})
		}
		logger.Info("finding candidates",
			zap.Int("resumes", len(p.ResumesData)), zap.Int("decoded", len(resumes)), zap.Float64("threshold", threshold))
		if len(resumes) == 0 {
			return jsonResponse(200, []models.CandidateMatch{})
		}

		var (
			res *matcher.BatchResult
			err error
		)
		if jobID != "" && utils.CollapseWhitespace(p.JobDescription) == "" {
			res, err = h.matcher.MatchCandidatesForJob(ctx, jobID, resumes, threshold)
		} else {
			res, err = h.matcher.MatchCandidates(ctx, p.JobDescription, resumes, threshold)
		}
		if err != nil {
			return h.fail(logger, err)
		}
		resp := jsonResponse(200, models.CandidateMatches(res.Ranking.Results))
		resp.Headers[FallbackHeader] = strconv.FormatBool(res.Ranking.Fallback)
		return resp
	})
}

// serve applies the method rules, request-scoped logging, and the outermost panic guard.
func (h *Handler) serve(ctx context.Context, req *Request, name string, fn func(context.Context, *zap.Logger) *Response) (resp *Response) {
	method := req.HTTPMethodName()
	if method == "OPTIONS" {
		return newResponse(200, "")
	}
	if method != "POST" {
		return errorResponse(405, fmt.Sprintf("Method %s Not Allowed", method))
	}
	logger := h.logger.With(zap.String("request_id", req.RequestID()), zap.String("function", name))
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("unexpected panic", zap.Any("panic", r), zap.Stack("stack"))
			resp = errorResponse(500, msgInternal)
		}
		logger.Info("request handled", zap.Int("status", resp.StatusCode), zap.Duration("elapsed", time.Since(start)))
	}()
	return fn(ctx, logger)
}

func (h *Handler) fail(logger *zap.Logger, err error) *Response {
	status, _ := ErrorStatus(err)
	if status >= 500 {
		logger.Error("request failed", zap.Error(err))
	} else {
		logger.Info("request rejected", zap.Int("status", status), zap.Error(err))
	}
	return errorFor(err)
}

// jobIDString accepts a job_id given as a string or a number.
func jobIDString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
