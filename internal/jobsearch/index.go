// Package jobsearch provides keyword search over the job corpus so callers can find a job_id
// to rank candidates against.
package jobsearch

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/resumatch/internal/corpus"
)

const (
	// DefaultLimit is used when Search is called with limit <= 0.
	DefaultLimit = 10
	// MaxLimit caps a single search.
	MaxLimit = 100

	titleBoost = 3.0
	fuzziness  = 1
)

// Hit is one job matching a keyword query.
type Hit struct {
	Job   corpus.JobRecord `json:"job"`
	Score float64          `json:"score"`
}

// Options tune a search. The zero value runs an exact match over title and description.
type Options struct {
	// Fuzzy tolerates one-character typos per term.
	Fuzzy bool
}

// Index is an in-memory Bleve index of job titles and descriptions.
type Index struct {
	index  bleve.Index
	corpus *corpus.Corpus
	terms  map[string]int
}

type jobDoc struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// New indexes every job in c.
func New(c *corpus.Corpus) (*Index, error) {
	im := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()
	// Standard analyzer: lowercase + tokenize, no stemming, so "golang" does not match "go".
	text := bleve.NewTextFieldMapping()
	text.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("title", text)
	docMapping.AddFieldMappingsAt("description", text)
	im.DefaultMapping = docMapping

	index, err := bleve.NewMemOnly(im)
	if err != nil {
		return nil, fmt.Errorf("failed to create job index: %w", err)
	}
	batch := index.NewBatch()
	for _, job := range c.Jobs() {
		if err := batch.Index(job.ID, jobDoc{Title: job.Title, Description: job.Description}); err != nil {
			_ = index.Close()
			return nil, fmt.Errorf("index job %s: %w", job.ID, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("failed to build job index: %w", err)
	}
	terms, err := loadTerms(index)
	if err != nil {
		_ = index.Close()
		return nil, err
	}
	return &Index{index: index, corpus: c, terms: terms}, nil
}

// Search returns up to limit jobs matching query, best first. Title matches are weighted
// above description matches.
func (ix *Index) Search(ctx context.Context, query string, limit int, opts Options) ([]Hit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	reqSize := limit * 2
	if reqSize < 50 {
		reqSize = 50
	}
	scores := make(map[string]float64)
	for _, f := range []struct {
		field string
		boost float64
	}{{"title", titleBoost}, {"description", 1}} {
		req := bleve.NewSearchRequest(fieldQuery(query, f.field, opts.Fuzzy))
		req.Size = reqSize
		res, err := ix.index.SearchInContext(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("job %s search failed: %w", f.field, err)
		}
		for _, hit := range res.Hits {
			scores[hit.ID] += hit.Score * f.boost
		}
	}

	hits := make([]Hit, 0, len(scores))
	for id, score := range scores {
		job, err := ix.corpus.Get(id)
		if err != nil {
			continue
		}
		hits = append(hits, Hit{Job: job, Score: score})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Job.ID < hits[j].Job.ID
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// fieldQuery builds a match query on field, or a disjunction of fuzzy term queries.
func fieldQuery(query, field string, fuzzy bool) blevequery.Query {
	if !fuzzy {
		mq := bleve.NewMatchQuery(query)
		mq.SetField(field)
		return mq
	}
	terms := strings.Fields(strings.ToLower(query))
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(fuzziness)
		fq.SetField(field)
		queries = append(queries, fq)
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// DocCount returns the number of indexed jobs.
func (ix *Index) DocCount() (uint64, error) {
	return ix.index.DocCount()
}

// Close releases the index.
func (ix *Index) Close() error {
	return ix.index.Close()
}
