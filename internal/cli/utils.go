// Package cli provides output helpers for the resumatch command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/resumatch/internal/models"
)

// OutputFormat is the format for match output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is the same JSON the HTTP API returns.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat returns the format for s; anything other than json is text.
func ParseOutputFormat(s string) OutputFormat {
	if strings.EqualFold(strings.TrimSpace(s), string(OutputJSON)) {
		return OutputJSON
	}
	return OutputText
}

// Skipped is a resume that could not be scored, with a short reason.
type Skipped struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

// WriteJobMatches writes the jobs matched to one resume.
func WriteJobMatches(w io.Writer, resp *models.JobMatchResponse, threshold float64, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	if len(resp.Matches) == 0 {
		fmt.Fprintln(w, "No jobs in the corpus.")
		return nil
	}
	if resp.Fallback {
		fmt.Fprintf(w, "No jobs matched at or above %s. Showing the top %d jobs instead:\n\n", Percent(threshold), len(resp.Matches))
	} else {
		fmt.Fprintf(w, "%d jobs matched at or above %s:\n\n", len(resp.Matches), Percent(threshold))
	}
	for i, m := range resp.Matches {
		title := m.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(w, "%3d. %7s  %s  [%s]\n", i+1, Percent(m.Similarity), Truncate(title, 60), m.JobID)
	}
	return nil
}

// WriteCandidateMatches writes resumes ranked against a job, followed by the resumes that were skipped.
func WriteCandidateMatches(w io.Writer, resp *models.CandidateMatchResponse, skipped []Skipped, threshold float64, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, struct {
			*models.CandidateMatchResponse
			SkippedFiles []Skipped `json:"skipped_files,omitempty"`
		}{resp, skipped})
	}
	switch {
	case len(resp.Matches) == 0:
		fmt.Fprintln(w, "No resumes could be scored.")
	case resp.Fallback:
		fmt.Fprintf(w, "No candidates met the %s threshold. Showing top matches instead:\n\n", Percent(threshold))
	default:
		fmt.Fprintf(w, "%d candidates matched at or above %s:\n\n", len(resp.Matches), Percent(threshold))
	}
	for i, m := range resp.Matches {
		fmt.Fprintf(w, "%3d. %7s  %s\n", i+1, Percent(m.Similarity), m.Filename)
	}
	if len(skipped) > 0 {
		fmt.Fprintf(w, "\nSkipped %d resumes:\n", len(skipped))
		for _, s := range skipped {
			fmt.Fprintf(w, "  - %s: %s\n", s.Filename, s.Reason)
		}
	}
	return nil
}

// WriteJobSearch writes keyword search hits over the corpus.
func WriteJobSearch(w io.Writer, resp *models.JobSearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, resp)
	}
	fmt.Fprintf(w, "\nFound %d jobs for %q in %dms\n\n", resp.Total, resp.Query, resp.QueryTime)
	if resp.Suggestion != "" {
		fmt.Fprintf(w, "Did you mean: %s\n\n", resp.Suggestion)
	}
	for _, h := range resp.Results {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "[%s] %s | Score: %.4f\n", h.JobID, h.Title, h.Score)
		fmt.Fprintf(w, "%s\n\n", TruncateWords(h.Description, 40))
	}
	return nil
}

// Percent formats a similarity in [0,1] as a percentage with one decimal.
func Percent(similarity float64) string {
	return fmt.Sprintf("%.1f%%", similarity*100)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Truncate truncates s to maxLen and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
