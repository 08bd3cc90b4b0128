// Package matcher runs the resume/job matching flows: it spools uploaded documents to scratch
// files, extracts and embeds their text, and ranks them with the threshold and fallback policy.
package matcher

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/resumatch/internal/corpus"
	"github.com/hyperjump/resumatch/internal/embedding"
	"github.com/hyperjump/resumatch/internal/extract"
	"github.com/hyperjump/resumatch/internal/lazy"
	"github.com/hyperjump/resumatch/internal/ranking"
	"github.com/hyperjump/resumatch/internal/storage"
	"github.com/hyperjump/resumatch/pkg/utils"
)

// TextExtractor turns a document on disk into cleaned text, returning extract.ErrNoText
// when the document has none.
type TextExtractor interface {
	ExtractFile(path string) (string, error)
}

// Resume is one uploaded resume.
type Resume struct {
	Filename string
	Content  []byte
}

// ValidationError is a problem with the caller's input rather than with the service.
type ValidationError struct {
	Msg string
	Err error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ErrEmptyDocument is returned for a resume with no bytes.
var ErrEmptyDocument = errors.New("empty document")

// Matcher matches resumes and job descriptions. It is safe for concurrent use.
type Matcher struct {
	embedder  *lazy.Value[embedding.Embedder]
	jobs      *lazy.Value[*corpus.Corpus]
	extractor TextExtractor
	ranker    *ranking.Ranker
	tempDir   string
	logger    *zap.Logger
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithExtractor replaces the default document extractor.
func WithExtractor(e TextExtractor) Option {
	return func(m *Matcher) { m.extractor = e }
}

// WithRanker replaces the default ranker.
func WithRanker(r *ranking.Ranker) Option {
	return func(m *Matcher) { m.ranker = r }
}

// WithTempDir sets where uploaded resumes are spooled while they are processed.
func WithTempDir(dir string) Option {
	return func(m *Matcher) { m.tempDir = dir }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Matcher) { m.logger = utils.OrNop(l) }
}

// New creates a Matcher over a lazily initialized embedder and job corpus.
// jobs may be nil when only job-description matching is needed.
func New(embedder *lazy.Value[embedding.Embedder], jobs *lazy.Value[*corpus.Corpus], opts ...Option) *Matcher {
	m := &Matcher{
		embedder:  embedder,
		jobs:      jobs,
		extractor: extract.NewExtractor(),
		ranker:    ranking.NewRanker(nil),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Embedder returns the embedder, initializing it on first use.
func (m *Matcher) Embedder(ctx context.Context) (embedding.Embedder, error) {
	return m.embedder.Get(ctx)
}

// Corpus returns the job corpus, initializing it on first use.
func (m *Matcher) Corpus(ctx context.Context) (*corpus.Corpus, error) {
	if m.jobs == nil {
		return nil, errors.New("no job corpus configured")
	}
	return m.jobs.Get(ctx)
}

// Warm starts loading the embedder and corpus in the background.
func (m *Matcher) Warm(ctx context.Context) {
	m.embedder.Warm(ctx)
	if m.jobs != nil {
		m.jobs.Warm(ctx)
	}
}

// States reports the initialization state of each shared resource.
func (m *Matcher) States() map[string]string {
	states := map[string]string{m.embedder.Name(): m.embedder.State().String()}
	if m.jobs != nil {
		states[m.jobs.Name()] = m.jobs.State().String()
	}
	return states
}

// LoadedCorpus returns the corpus if it has already been loaded, without loading it.
func (m *Matcher) LoadedCorpus() (*corpus.Corpus, bool) {
	if m.jobs == nil {
		return nil, false
	}
	return m.jobs.Peek()
}

// MatchJobs ranks every job in the corpus against one resume.
func (m *Matcher) MatchJobs(ctx context.Context, resume Resume, threshold float64) (*ranking.Ranking, error) {
	if err := validateThreshold(threshold); err != nil {
		return nil, err
	}
	if len(resume.Content) == 0 {
		return nil, &ValidationError{Msg: "resume file is required", Err: ErrEmptyDocument}
	}
	emb, err := m.Embedder(ctx)
	if err != nil {
		return nil, err
	}
	jobs, err := m.Corpus(ctx)
	if err != nil {
		return nil, err
	}
	query, err := m.embedResume(ctx, emb, resume)
	if err != nil {
		m.logger.Warn("resume could not be processed", zap.String("filename", resume.Filename), zap.Error(err))
		return nil, &ValidationError{Msg: "could not process resume", Err: err}
	}
	r, err := m.ranker.Rank(query, jobs.Candidates(), threshold)
	if err != nil {
		return nil, err
	}
	m.logger.Debug("matched resume to jobs",
		zap.String("filename", resume.Filename),
		zap.Int("matches", len(r.Results)),
		zap.Bool("fallback", r.Fallback))
	return r, nil
}

// MatchCandidates ranks resumes against a job description. Resumes that cannot be read,
// have no text, or fail to embed are excluded and reported in the result's outcomes.
func (m *Matcher) MatchCandidates(ctx context.Context, jobDescription string, resumes []Resume, threshold float64) (*BatchResult, error) {
	if err := validateThreshold(threshold); err != nil {
		return nil, err
	}
	jd := utils.CollapseWhitespace(jobDescription)
	if jd == "" {
		return nil, &ValidationError{Msg: "job description is required"}
	}
	if len(resumes) == 0 {
		return nil, &ValidationError{Msg: "at least one resume is required"}
	}
	emb, err := m.Embedder(ctx)
	if err != nil {
		return nil, err
	}
	query, err := emb.Embed(ctx, jd)
	if err != nil {
		return nil, fmt.Errorf("embed job description: %w", err)
	}
	return m.scoreBatch(ctx, emb, query, resumes, threshold)
}

// MatchCandidatesForJob ranks resumes against a job already in the corpus, using its stored embedding.
func (m *Matcher) MatchCandidatesForJob(ctx context.Context, jobID string, resumes []Resume, threshold float64) (*BatchResult, error) {
	if err := validateThreshold(threshold); err != nil {
		return nil, err
	}
	if len(resumes) == 0 {
		return nil, &ValidationError{Msg: "at least one resume is required"}
	}
	emb, err := m.Embedder(ctx)
	if err != nil {
		return nil, err
	}
	jobs, err := m.Corpus(ctx)
	if err != nil {
		return nil, err
	}
	job, err := jobs.Get(jobID)
	if err != nil {
		return nil, err
	}
	return m.scoreBatch(ctx, emb, job.Embedding, resumes, threshold)
}

func validateThreshold(t float64) error {
	if math.IsNaN(t) || t < 0 || t > 1 {
		return &ValidationError{Msg: fmt.Sprintf("similarity threshold must be between 0 and 1, got %v", t)}
	}
	return nil
}

// embedResume spools the resume to a scratch file, extracts its text and embeds it.
// The scratch file is removed on every return path, including a panic in a parser.
func (m *Matcher) embedResume(ctx context.Context, emb embedding.Embedder, resume Resume) (vec []float32, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("processing panicked: %v", r)
		}
	}()
	if len(resume.Content) == 0 {
		return nil, ErrEmptyDocument
	}
	tmp, err := storage.WriteTemp(m.tempDir, resume.Filename, resume.Content)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rmErr := tmp.Remove(); rmErr != nil {
			m.logger.Warn("failed to remove temp file", zap.String("path", tmp.Path), zap.Error(rmErr))
		}
	}()
	text, err := m.extractor.ExtractFile(tmp.Path)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, extract.ErrNoText
	}
	vec, err = emb.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed resume: %w", err)
	}
	return vec, nil
}
