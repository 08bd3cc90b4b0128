// Package corpus loads, stores, and serves the precomputed job posting embeddings that
// resumes are ranked against.
package corpus

import (
	"errors"
	"fmt"

	"github.com/hyperjump/resumatch/internal/ranking"
	"github.com/hyperjump/resumatch/pkg/utils"
)

// ErrJobNotFound is returned when a job ID is not in the corpus.
var ErrJobNotFound = errors.New("job not found")

// JobRecord is one job posting with its embedding.
type JobRecord struct {
	ID          string    `json:"job_id"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description"`
	Embedding   []float32 `json:"-"`
}

// Corpus is an immutable, in-memory set of job records sharing one embedding space.
// It is safe for concurrent reads.
type Corpus struct {
	meta       Meta
	jobs       []JobRecord
	byID       map[string]int
	candidates []ranking.Candidate
}

// New validates records and builds a Corpus. Every embedding must have meta.Dimensions
// values; embeddings are re-normalized so dot product equals cosine similarity.
func New(meta Meta, records []JobRecord) (*Corpus, error) {
	c := &Corpus{
		meta:       meta,
		jobs:       make([]JobRecord, 0, len(records)),
		byID:       make(map[string]int, len(records)),
		candidates: make([]ranking.Candidate, 0, len(records)),
	}
	for _, r := range records {
		if len(r.Embedding) != meta.Dimensions {
			return nil, &ranking.ConfigurationError{CandidateID: r.ID, Query: meta.Dimensions, Candidate: len(r.Embedding)}
		}
		if _, dup := c.byID[r.ID]; dup {
			return nil, fmt.Errorf("duplicate job_id %q in corpus", r.ID)
		}
		r.Embedding = utils.Normalized(r.Embedding)
		c.byID[r.ID] = len(c.jobs)
		c.jobs = append(c.jobs, r)
		c.candidates = append(c.candidates, ranking.Candidate{ID: r.ID, Label: r.Title, Vector: r.Embedding})
	}
	return c, nil
}

// Meta describes the embedding space of the corpus.
func (c *Corpus) Meta() Meta { return c.meta }

// Len returns the number of jobs.
func (c *Corpus) Len() int { return len(c.jobs) }

// Get returns the job with the given ID.
func (c *Corpus) Get(id string) (JobRecord, error) {
	i, ok := c.byID[id]
	if !ok {
		return JobRecord{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return c.jobs[i], nil
}

// Jobs returns all records in load order. Callers must not modify the result.
func (c *Corpus) Jobs() []JobRecord { return c.jobs }

// Candidates returns the jobs as ranking candidates. Callers must not modify the result.
func (c *Corpus) Candidates() []ranking.Candidate { return c.candidates }
