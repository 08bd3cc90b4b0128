package ranking

import (
	"sort"

	"github.com/hyperjump/resumatch/internal/vector"
)

// Ranker orders candidates by dot-product similarity to a query.
// All vectors are expected to be L2-normalized so the score equals cosine similarity.
type Ranker struct {
	config *Config
}

// NewRanker creates a Ranker. A nil config uses DefaultConfig.
func NewRanker(config *Config) *Ranker {
	if config == nil {
		config = DefaultConfig()
	}
	config.ApplyDefaults()
	return &Ranker{config: config}
}

// FallbackLimit returns the number of results returned when the threshold filter is empty.
func (r *Ranker) FallbackLimit() int {
	return r.config.FallbackLimit
}

// Rank scores every candidate against query and selects results with Select.
// An empty candidate set yields an empty, non-fallback ranking.
// Any dimension mismatch fails the whole call with *ConfigurationError.
func (r *Ranker) Rank(query []float32, candidates []Candidate, threshold float64) (*Ranking, error) {
	if len(candidates) == 0 {
		return &Ranking{Results: []Result{}}, nil
	}
	if len(query) == 0 {
		return nil, &ConfigurationError{}
	}
	scored := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		if len(c.Vector) != len(query) {
			return nil, &ConfigurationError{CandidateID: c.ID, Query: len(query), Candidate: len(c.Vector)}
		}
		scored = append(scored, Result{
			ID:         c.ID,
			Label:      c.Label,
			Similarity: vector.InnerProduct(query, c.Vector),
		})
	}
	return r.Select(scored, threshold), nil
}

// Select orders pre-scored results by similarity descending, keeping input order on ties,
// and returns those with similarity >= threshold. When none qualify, it returns the
// top FallbackLimit results regardless of threshold and marks the ranking as a fallback.
func (r *Ranker) Select(scored []Result, threshold float64) *Ranking {
	if len(scored) == 0 {
		return &Ranking{Results: []Result{}}
	}
	sorted := make([]Result, len(scored))
	copy(sorted, scored)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Similarity > sorted[j].Similarity
	})

	strict := make([]Result, 0, len(sorted))
	for _, res := range sorted {
		if res.Similarity >= threshold {
			strict = append(strict, res)
		}
	}
	if len(strict) > 0 {
		return &Ranking{Results: strict}
	}

	limit := r.config.FallbackLimit
	if limit > len(sorted) {
		limit = len(sorted)
	}
	return &Ranking{Results: sorted[:limit], Fallback: true}
}
