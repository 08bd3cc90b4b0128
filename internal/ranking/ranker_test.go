package ranking

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"
)

func unit(x, y float64) []float32 {
	n := math.Sqrt(x*x + y*y)
	return []float32{float32(x / n), float32(y / n)}
}

// scoreVec returns a unit vector whose dot product with (1, 0) is s.
func scoreVec(s float64) []float32 {
	return []float32{float32(s), float32(math.Sqrt(1 - s*s))}
}

func ids(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.ID
	}
	return out
}

func TestNewRanker(t *testing.T) {
	r := NewRanker(nil)
	if r.FallbackLimit() != DefaultFallbackLimit {
		t.Errorf("FallbackLimit = %d", r.FallbackLimit())
	}
	r = NewRanker(&Config{FallbackLimit: 3})
	if r.FallbackLimit() != 3 {
		t.Errorf("FallbackLimit = %d", r.FallbackLimit())
	}
	r = NewRanker(&Config{FallbackLimit: -1})
	if r.FallbackLimit() != DefaultFallbackLimit {
		t.Errorf("negative limit should default, got %d", r.FallbackLimit())
	}
}

func TestRank_thresholdFilterSortedDescending(t *testing.T) {
	query := []float32{1, 0}
	candidates := []Candidate{
		{ID: "j1", Vector: scoreVec(0.82)},
		{ID: "j2", Vector: scoreVec(0.40)},
		{ID: "j3", Vector: scoreVec(0.75)},
	}
	got, err := NewRanker(nil).Rank(query, candidates, 0.7)
	if err != nil {
		t.Fatal(err)
	}
	if got.Fallback {
		t.Error("unexpected fallback")
	}
	if want := []string{"j1", "j3"}; !reflect.DeepEqual(ids(got.Results), want) {
		t.Errorf("ids = %v, want %v", ids(got.Results), want)
	}
	for _, r := range got.Results {
		if r.Similarity < 0.7 {
			t.Errorf("%s below threshold: %v", r.ID, r.Similarity)
		}
	}
}

func TestRank_fallbackWhenNothingMeetsThreshold(t *testing.T) {
	query := []float32{1, 0}
	candidates := []Candidate{
		{ID: "j1", Vector: scoreVec(0.30)},
		{ID: "j2", Vector: scoreVec(0.55)},
		{ID: "j3", Vector: scoreVec(0.10)},
	}
	got, err := NewRanker(nil).Rank(query, candidates, 0.7)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Fallback {
		t.Error("expected fallback")
	}
	if want := []string{"j2", "j1", "j3"}; !reflect.DeepEqual(ids(got.Results), want) {
		t.Errorf("ids = %v, want %v", ids(got.Results), want)
	}
}

func TestRank_fallbackCappedAtLimit(t *testing.T) {
	query := []float32{1, 0}
	var candidates []Candidate
	for i := 0; i < 25; i++ {
		candidates = append(candidates, Candidate{ID: fmt.Sprintf("j%02d", i), Vector: scoreVec(float64(i) / 100)})
	}
	got, err := NewRanker(nil).Rank(query, candidates, 0.9)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Fallback || len(got.Results) != DefaultFallbackLimit {
		t.Fatalf("fallback=%v len=%d", got.Fallback, len(got.Results))
	}
	if got.Results[0].ID != "j24" || got.Results[9].ID != "j15" {
		t.Errorf("unexpected order: %v", ids(got.Results))
	}
}

func TestRank_emptyCandidates(t *testing.T) {
	got, err := NewRanker(nil).Rank([]float32{1, 0}, nil, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if got.Fallback || len(got.Results) != 0 || got.Results == nil {
		t.Errorf("got %+v", got)
	}
}

func TestRank_dimensionMismatch(t *testing.T) {
	candidates := []Candidate{
		{ID: "ok", Vector: unit(1, 1)},
		{ID: "bad", Vector: []float32{1, 0, 0}},
	}
	_, err := NewRanker(nil).Rank([]float32{1, 0}, candidates, 0.5)
	var ce *ConfigurationError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	if ce.CandidateID != "bad" || ce.Query != 2 || ce.Candidate != 3 {
		t.Errorf("got %+v", ce)
	}
}

func TestRank_tiesKeepInputOrder(t *testing.T) {
	query := []float32{1, 0}
	candidates := []Candidate{
		{ID: "a", Vector: scoreVec(0.8)},
		{ID: "b", Vector: scoreVec(0.9)},
		{ID: "c", Vector: scoreVec(0.8)},
		{ID: "d", Vector: scoreVec(0.8)},
	}
	for i := 0; i < 5; i++ {
		got, err := NewRanker(nil).Rank(query, candidates, 0.5)
		if err != nil {
			t.Fatal(err)
		}
		if want := []string{"b", "a", "c", "d"}; !reflect.DeepEqual(ids(got.Results), want) {
			t.Fatalf("run %d: ids = %v, want %v", i, ids(got.Results), want)
		}
	}
}

func TestSelect(t *testing.T) {
	r := NewRanker(&Config{FallbackLimit: 2})
	tests := []struct {
		name         string
		scored       []Result
		threshold    float64
		wantIDs      []string
		wantFallback bool
	}{
		{
			name:    "empty input",
			wantIDs: []string{},
		},
		{
			name:      "boundary score is included",
			scored:    []Result{{ID: "x", Similarity: 0.5}, {ID: "y", Similarity: 0.49}},
			threshold: 0.5,
			wantIDs:   []string{"x"},
		},
		{
			name:         "fallback respects configured limit",
			scored:       []Result{{ID: "a", Similarity: 0.1}, {ID: "b", Similarity: 0.3}, {ID: "c", Similarity: 0.2}},
			threshold:    0.9,
			wantIDs:      []string{"b", "c"},
			wantFallback: true,
		},
		{
			name:      "threshold zero keeps everything",
			scored:    []Result{{ID: "a", Similarity: 0.1}, {ID: "b", Similarity: 0}},
			threshold: 0,
			wantIDs:   []string{"a", "b"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Select(tt.scored, tt.threshold)
			if got.Fallback != tt.wantFallback {
				t.Errorf("Fallback = %v", got.Fallback)
			}
			if !reflect.DeepEqual(ids(got.Results), tt.wantIDs) {
				t.Errorf("ids = %v, want %v", ids(got.Results), tt.wantIDs)
			}
		})
	}
}

func TestSelect_doesNotMutateInput(t *testing.T) {
	scored := []Result{{ID: "a", Similarity: 0.1}, {ID: "b", Similarity: 0.9}}
	NewRanker(nil).Select(scored, 0.5)
	if scored[0].ID != "a" {
		t.Error("input slice reordered")
	}
}
