package matcher

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"

	"github.com/hyperjump/resumatch/internal/embedding"
	"github.com/hyperjump/resumatch/internal/extract"
	"github.com/hyperjump/resumatch/internal/ranking"
	"github.com/hyperjump/resumatch/internal/vector"
)

// Outcome is the per-resume result of a batch: a similarity, or the reason it was skipped.
type Outcome struct {
	Filename   string
	Similarity float64
	Err        error
}

// OK reports whether the resume was scored.
func (o Outcome) OK() bool { return o.Err == nil }

// Reason is a short, client-safe description of why the resume was skipped.
func (o Outcome) Reason() string {
	switch {
	case o.Err == nil:
		return ""
	case errors.Is(o.Err, extract.ErrNoText):
		return "no extractable text"
	case errors.Is(o.Err, ErrEmptyDocument):
		return "empty file"
	case errors.Is(o.Err, extract.ErrUnsupportedFormat):
		return "unsupported format"
	case errors.Is(o.Err, embedding.ErrEmptyText):
		return "no extractable text"
	default:
		return "could not be processed"
	}
}

// BatchResult is the ranked output of a batch along with every per-resume outcome in input order.
type BatchResult struct {
	Ranking  *ranking.Ranking
	Outcomes []Outcome
}

// Skipped returns the outcomes of resumes that were excluded.
func (b *BatchResult) Skipped() []Outcome {
	var out []Outcome
	for _, o := range b.Outcomes {
		if !o.OK() {
			out = append(out, o)
		}
	}
	return out
}

// scoreBatch processes resumes one at a time. A failing resume is logged and excluded;
// only a dimension mismatch, which would affect every resume, aborts the batch.
func (m *Matcher) scoreBatch(ctx context.Context, emb embedding.Embedder, query []float32, resumes []Resume, threshold float64) (*BatchResult, error) {
	outcomes := make([]Outcome, len(resumes))
	scored := make([]ranking.Result, 0, len(resumes))
	for i, r := range resumes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		outcomes[i].Filename = r.Filename
		vec, err := m.embedResume(ctx, emb, r)
		if err != nil {
			outcomes[i].Err = err
			m.logger.Warn("skipping resume", zap.Int("index", i), zap.String("filename", r.Filename), zap.Error(err))
			continue
		}
		sim, err := vector.Dot(query, vec)
		if err != nil {
			return nil, &ranking.ConfigurationError{CandidateID: r.Filename, Query: len(query), Candidate: len(vec)}
		}
		outcomes[i].Similarity = sim
		scored = append(scored, ranking.Result{ID: strconv.Itoa(i), Label: r.Filename, Similarity: sim})
	}

	res := &BatchResult{Ranking: m.ranker.Select(scored, threshold), Outcomes: outcomes}
	if skipped := res.Skipped(); len(skipped) > 0 {
		names := make([]string, len(skipped))
		for i, o := range skipped {
			names[i] = o.Filename
		}
		m.logger.Warn("resumes excluded from batch",
			zap.Int("skipped", len(skipped)), zap.Int("total", len(resumes)), zap.Strings("filenames", names))
	}
	m.logger.Debug("scored resume batch",
		zap.Int("scored", len(scored)),
		zap.Int("matches", len(res.Ranking.Results)),
		zap.Bool("fallback", res.Ranking.Fallback))
	return res, nil
}
