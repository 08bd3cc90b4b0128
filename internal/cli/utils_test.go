package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/resumatch/internal/models"
)

func TestWriteJobMatches_JSON(t *testing.T) {
	resp := &models.JobMatchResponse{
		Matches: []models.JobMatch{{JobID: "1", Title: "Backend Engineer", Similarity: 0.82}},
	}
	var buf bytes.Buffer
	if err := WriteJobMatches(&buf, resp, 0.7, OutputJSON); err != nil {
		t.Fatalf("WriteJobMatches(json): %v", err)
	}
	var decoded models.JobMatchResponse
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded.Matches) != 1 || decoded.Matches[0].JobID != "1" || decoded.Fallback {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestWriteJobMatches_text(t *testing.T) {
	tests := []struct {
		name string
		resp *models.JobMatchResponse
		want []string
	}{
		{
			name: "above threshold",
			resp: &models.JobMatchResponse{Matches: []models.JobMatch{
				{JobID: "1", Title: "Backend Engineer", Similarity: 0.82},
			}},
			want: []string{"1 jobs matched at or above 70.0%", "82.0%", "Backend Engineer", "[1]"},
		},
		{
			name: "fallback",
			resp: &models.JobMatchResponse{Fallback: true, Matches: []models.JobMatch{
				{JobID: "1", Title: "", Similarity: 0.2},
				{JobID: "2", Title: "Data Analyst", Similarity: 0.1},
			}},
			want: []string{"No jobs matched at or above 70.0%", "top 2 jobs", "(untitled)", "10.0%"},
		},
		{
			name: "empty corpus",
			resp: &models.JobMatchResponse{Matches: []models.JobMatch{}},
			want: []string{"No jobs in the corpus."},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteJobMatches(&buf, tt.resp, 0.7, OutputText); err != nil {
				t.Fatal(err)
			}
			for _, sub := range tt.want {
				if !strings.Contains(buf.String(), sub) {
					t.Errorf("text output missing %q:\n%s", sub, buf.String())
				}
			}
		})
	}
}

func TestWriteCandidateMatches(t *testing.T) {
	resp := &models.CandidateMatchResponse{
		Matches: []models.CandidateMatch{{Filename: "jane.pdf", Similarity: 0.91}},
		Skipped: 1,
	}
	skipped := []Skipped{{Filename: "scan.pdf", Reason: "no extractable text"}}

	var buf bytes.Buffer
	if err := WriteCandidateMatches(&buf, resp, skipped, 0.7, OutputText); err != nil {
		t.Fatal(err)
	}
	for _, sub := range []string{"1 candidates matched", "91.0%", "jane.pdf", "Skipped 1 resumes", "scan.pdf: no extractable text"} {
		if !strings.Contains(buf.String(), sub) {
			t.Errorf("text output missing %q:\n%s", sub, buf.String())
		}
	}

	buf.Reset()
	if err := WriteCandidateMatches(&buf, resp, skipped, 0.7, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	for _, key := range []string{"matches", "fallback", "skipped", "skipped_files"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("JSON missing %q: %s", key, buf.String())
		}
	}
}

func TestWriteCandidateMatches_fallback(t *testing.T) {
	resp := &models.CandidateMatchResponse{
		Fallback: true,
		Matches:  []models.CandidateMatch{{Filename: "a.pdf", Similarity: 0.3}},
	}
	var buf bytes.Buffer
	if err := WriteCandidateMatches(&buf, resp, nil, 0.7, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No candidates met the 70.0% threshold") {
		t.Errorf("missing fallback notice:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "Skipped") {
		t.Errorf("no skipped section expected:\n%s", buf.String())
	}
}

func TestWriteJobSearch_text(t *testing.T) {
	resp := &models.JobSearchResponse{
		Query:     "golang",
		Total:     1,
		QueryTime: 3,
		Results: []models.JobSearchHit{{
			Job:   models.Job{JobID: "1", Title: "Backend Engineer", Description: "Build Go services"},
			Score: 1.25,
		}},
	}
	var buf bytes.Buffer
	if err := WriteJobSearch(&buf, resp, OutputText); err != nil {
		t.Fatal(err)
	}
	for _, sub := range []string{`Found 1 jobs for "golang"`, "3ms", "[1] Backend Engineer", "Build Go services"} {
		if !strings.Contains(buf.String(), sub) {
			t.Errorf("text output missing %q:\n%s", sub, buf.String())
		}
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in   string
		want OutputFormat
	}{
		{"json", OutputJSON},
		{"JSON", OutputJSON},
		{" json ", OutputJSON},
		{"text", OutputText},
		{"", OutputText},
		{"yaml", OutputText},
	}
	for _, tt := range tests {
		if got := ParseOutputFormat(tt.in); got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(0.8234); got != "82.3%" {
		t.Errorf("Percent(0.8234) = %q", got)
	}
	if got := Percent(1); got != "100.0%" {
		t.Errorf("Percent(1) = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		s      string
		maxLen int
		want   string
	}{
		{"empty", "", 5, ""},
		{"short", "hi", 5, "hi"},
		{"exact", "hello", 5, "hello"},
		{"long", "hello world", 5, "hello..."},
		{"maxLen zero", "ab", 0, "ab"},
		{"maxLen negative", "ab", -1, "ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.s, tt.maxLen)
			if got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.s, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestTruncateWords(t *testing.T) {
	tests := []struct {
		name     string
		s        string
		maxWords int
		want     string
	}{
		{"empty", "", 3, ""},
		{"few words", "one two", 3, "one two"},
		{"exact", "one two three", 3, "one two three"},
		{"more", "one two three four", 3, "one two three..."},
		{"single long", "word", 1, "word"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateWords(tt.s, tt.maxWords)
			if got != tt.want {
				t.Errorf("TruncateWords(%q, %d) = %q, want %q", tt.s, tt.maxWords, got, tt.want)
			}
		})
	}
}
