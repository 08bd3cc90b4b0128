package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/resumatch/internal/fileid"
	"github.com/hyperjump/resumatch/internal/matcher"
)

// Target is the job resumes dropped into the inbox are scored against.
// JobID takes precedence when both are set.
type Target struct {
	JobID          string
	JobDescription string
}

func (t Target) String() string {
	if t.JobID != "" {
		return "job " + t.JobID
	}
	return "job description"
}

// Score is the result of scoring one inbox file.
type Score struct {
	Path       string
	Filename   string
	ContentID  string
	Similarity float64
	// Match reports whether Similarity reached the inbox threshold.
	Match    bool
	Err      error
	ScoredAt time.Time
}

// Inbox scores resume files against a single target. Identical file contents are
// scored once no matter how many paths they appear under.
type Inbox struct {
	matcher   *matcher.Matcher
	target    Target
	threshold float64
	logger    *zap.Logger
	onScore   func(Score)

	mu        sync.Mutex
	byContent map[string]Score
	byPath    map[string]inboxEntry
}

// inboxEntry is one path in the inbox, keyed by fileid.PathID.
type inboxEntry struct {
	path      string
	contentID string
}

func pathKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return fileid.PathID(path)
}

// InboxOption configures an Inbox.
type InboxOption func(*Inbox)

// WithInboxLogger sets the logger scores are reported to.
func WithInboxLogger(l *zap.Logger) InboxOption {
	return func(in *Inbox) { in.logger = l }
}

// WithScoreHandler registers fn to receive every new score.
func WithScoreHandler(fn func(Score)) InboxOption {
	return func(in *Inbox) { in.onScore = fn }
}

// NewInbox returns an inbox scoring against target with the given threshold.
func NewInbox(m *matcher.Matcher, target Target, threshold float64, opts ...InboxOption) (*Inbox, error) {
	if target.JobID == "" && target.JobDescription == "" {
		return nil, errors.New("watch needs a job id or a job description")
	}
	in := &Inbox{
		matcher:   m,
		target:    target,
		threshold: threshold,
		logger:    zap.NewNop(),
		byContent: make(map[string]Score),
		byPath:    make(map[string]inboxEntry),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in, nil
}

// Score reads the file at path and scores it. Failures tied to the file itself
// (no text, unreadable PDF) are recorded on the returned Score; errors from the
// matcher (bad target, model not loaded) are returned.
func (in *Inbox) Score(ctx context.Context, path string) (Score, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Score{}, fmt.Errorf("read %s: %w", path, err)
	}
	id := fileid.ContentID(content)
	key := pathKey(path)

	in.mu.Lock()
	if prev, ok := in.byContent[id]; ok {
		in.byPath[key] = inboxEntry{path: path, contentID: id}
		in.mu.Unlock()
		prev.Path = path
		prev.Filename = filepath.Base(path)
		in.logger.Debug("resume already scored", zap.String("path", path), zap.String("content_id", id))
		return prev, nil
	}
	in.mu.Unlock()

	resumes := []matcher.Resume{{Filename: filepath.Base(path), Content: content}}
	var res *matcher.BatchResult
	if in.target.JobID != "" {
		res, err = in.matcher.MatchCandidatesForJob(ctx, in.target.JobID, resumes, in.threshold)
	} else {
		res, err = in.matcher.MatchCandidates(ctx, in.target.JobDescription, resumes, in.threshold)
	}
	if err != nil {
		return Score{}, err
	}

	out := res.Outcomes[0]
	s := Score{
		Path:       path,
		Filename:   out.Filename,
		ContentID:  id,
		Similarity: out.Similarity,
		Match:      out.OK() && out.Similarity >= in.threshold,
		Err:        out.Err,
		ScoredAt:   time.Now(),
	}
	in.mu.Lock()
	in.byContent[id] = s
	in.byPath[key] = inboxEntry{path: path, contentID: id}
	in.mu.Unlock()

	if s.Err != nil {
		in.logger.Warn("resume skipped", zap.String("path", path), zap.String("reason", out.Reason()), zap.Error(s.Err))
	} else {
		in.logger.Info("resume scored",
			zap.String("path", path),
			zap.String("target", in.target.String()),
			zap.Float64("similarity", s.Similarity),
			zap.Bool("match", s.Match))
	}
	if in.onScore != nil {
		in.onScore(s)
	}
	return s, nil
}

// Forget drops path from the results. The content score stays cached while
// another path still refers to it.
func (in *Inbox) Forget(path string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	key := pathKey(path)
	e, ok := in.byPath[key]
	if !ok {
		return
	}
	delete(in.byPath, key)
	for _, other := range in.byPath {
		if other.contentID == e.contentID {
			return
		}
	}
	delete(in.byContent, e.contentID)
	in.logger.Debug("resume removed", zap.String("path", path))
}

// Results returns the current score per path, best first. Skipped files sort last.
func (in *Inbox) Results() []Score {
	in.mu.Lock()
	out := make([]Score, 0, len(in.byPath))
	for _, e := range in.byPath {
		s := in.byContent[e.contentID]
		s.Path = e.path
		s.Filename = filepath.Base(e.path)
		out = append(out, s)
	}
	in.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool {
		if (out[i].Err == nil) != (out[j].Err == nil) {
			return out[i].Err == nil
		}
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].Path < out[j].Path
	})
	return out
}

// Callbacks adapts the inbox to Watcher's onFile and onRemove hooks.
func (in *Inbox) Callbacks(ctx context.Context) (onFile, onRemove func(path string)) {
	onFile = func(path string) {
		if _, err := in.Score(ctx, path); err != nil {
			in.logger.Error("failed to score resume", zap.String("path", path), zap.Error(err))
		}
	}
	return onFile, in.Forget
}
