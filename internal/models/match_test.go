package models

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/resumatch/internal/ranking"
)

func TestNewJobMatchResponse(t *testing.T) {
	resp := NewJobMatchResponse(&ranking.Ranking{
		Results: []ranking.Result{{ID: "1", Label: "Backend Engineer", Similarity: 0.82}},
	})
	if len(resp.Matches) != 1 || resp.Matches[0].JobID != "1" || resp.Matches[0].Title != "Backend Engineer" {
		t.Errorf("matches = %+v", resp.Matches)
	}
	b, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"job_id":"1"`) || !strings.Contains(string(b), `"fallback":false`) {
		t.Errorf("json = %s", b)
	}
}

func TestNewCandidateMatchResponse_emptyIsArray(t *testing.T) {
	resp := NewCandidateMatchResponse(&ranking.Ranking{}, 2)
	b, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"matches":[]`) {
		t.Errorf("empty matches should encode as [], got %s", b)
	}
	if !strings.Contains(string(b), `"skipped":2`) {
		t.Errorf("json = %s", b)
	}
}

func TestCandidateMatches_usesLabel(t *testing.T) {
	got := CandidateMatches([]ranking.Result{{ID: "0", Label: "a.pdf", Similarity: 0.5}})
	if got[0].Filename != "a.pdf" {
		t.Errorf("filename = %q", got[0].Filename)
	}
}
