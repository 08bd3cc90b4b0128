// Package models defines the JSON shapes returned by the matching surfaces.
package models

import "github.com/hyperjump/resumatch/internal/ranking"

// JobMatch is a job posting scored against a resume.
type JobMatch struct {
	JobID      string  `json:"job_id"`
	Title      string  `json:"title"`
	Similarity float64 `json:"similarity"`
}

// CandidateMatch is a resume scored against a job description.
type CandidateMatch struct {
	Filename   string  `json:"filename"`
	Similarity float64 `json:"similarity"`
}

// JobMatchResponse is the HTTP response for matching one resume to jobs.
// Fallback is true when no job met the threshold and the best-scoring jobs are returned instead.
type JobMatchResponse struct {
	Matches  []JobMatch `json:"matches"`
	Fallback bool       `json:"fallback"`
}

// CandidateMatchResponse is the HTTP response for ranking resumes against a job description.
type CandidateMatchResponse struct {
	Matches  []CandidateMatch `json:"matches"`
	Fallback bool             `json:"fallback"`
	// Skipped counts resumes that could not be scored.
	Skipped int `json:"skipped,omitempty"`
}

// JobMatches converts ranking results whose IDs are job IDs. The result is never nil.
func JobMatches(results []ranking.Result) []JobMatch {
	out := make([]JobMatch, len(results))
	for i, r := range results {
		out[i] = JobMatch{JobID: r.ID, Title: r.Label, Similarity: r.Similarity}
	}
	return out
}

// CandidateMatches converts ranking results whose labels are filenames. The result is never nil.
func CandidateMatches(results []ranking.Result) []CandidateMatch {
	out := make([]CandidateMatch, len(results))
	for i, r := range results {
		out[i] = CandidateMatch{Filename: r.Label, Similarity: r.Similarity}
	}
	return out
}

// NewJobMatchResponse builds a JobMatchResponse from a ranking.
func NewJobMatchResponse(r *ranking.Ranking) *JobMatchResponse {
	return &JobMatchResponse{Matches: JobMatches(r.Results), Fallback: r.Fallback}
}

// NewCandidateMatchResponse builds a CandidateMatchResponse from a ranking.
func NewCandidateMatchResponse(r *ranking.Ranking, skipped int) *CandidateMatchResponse {
	return &CandidateMatchResponse{Matches: CandidateMatches(r.Results), Fallback: r.Fallback, Skipped: skipped}
}
