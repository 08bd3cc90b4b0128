// Package ranking scores candidates against a query embedding and applies the
// threshold filter with its top-K fallback.
package ranking

import "fmt"

// Candidate is one item that can be ranked against a query: a job posting or a resume.
type Candidate struct {
	ID     string
	Label  string
	Vector []float32
}

// Result is a scored candidate.
type Result struct {
	ID         string
	Label      string
	Similarity float64
}

// Ranking is the outcome of a ranking pass.
// Fallback is true when nothing met the threshold and Results holds the best-scoring candidates instead.
type Ranking struct {
	Results  []Result
	Fallback bool
}

// ConfigurationError reports that the query and a candidate were embedded in different spaces.
// It is a deployment problem, not a per-request one.
type ConfigurationError struct {
	CandidateID string
	Query       int
	Candidate   int
}

func (e *ConfigurationError) Error() string {
	if e.CandidateID == "" {
		return fmt.Sprintf("embedding dimension mismatch: query has %d dimensions", e.Query)
	}
	return fmt.Sprintf("embedding dimension mismatch for %q: query has %d dimensions, candidate has %d",
		e.CandidateID, e.Query, e.Candidate)
}
