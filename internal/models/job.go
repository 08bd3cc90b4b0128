package models

import "github.com/hyperjump/resumatch/internal/corpus"

// Job is a job posting as exposed over the API, without its embedding.
type Job struct {
	JobID       string `json:"job_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// NewJob converts a corpus record.
func NewJob(r corpus.JobRecord) Job {
	return Job{JobID: r.ID, Title: r.Title, Description: r.Description}
}

// JobSearchHit is one keyword search result.
type JobSearchHit struct {
	Job
	Score float64 `json:"score"`
}

// JobSearchResponse is the response for a keyword job lookup.
type JobSearchResponse struct {
	Query     string         `json:"query"`
	Results   []JobSearchHit `json:"results"`
	Total     int            `json:"total"`
	QueryTime int64          `json:"query_time_ms"`
	// Suggestion is a spelling-corrected query, set when nothing matched.
	Suggestion string `json:"suggestion,omitempty"`
}
