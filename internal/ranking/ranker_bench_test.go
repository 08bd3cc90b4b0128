package ranking

import (
	"strconv"
	"testing"

	"github.com/hyperjump/resumatch/internal/embedding"
)

// benchCandidates builds n unit vectors of the given dimensions.
func benchCandidates(n, dims int) []Candidate {
	out := make([]Candidate, n)
	for i := range out {
		v := make([]float32, dims)
		v[i%dims] = 1
		v[(i+1)%dims] = float32(i%7) / 7
		embedding.NormalizeL2Slice(v)
		out[i] = Candidate{ID: strconv.Itoa(i), Label: "job " + strconv.Itoa(i), Vector: v}
	}
	return out
}

func BenchmarkRank_10kJobs(b *testing.B) {
	candidates := benchCandidates(10000, 384)
	query := make([]float32, 384)
	query[0] = 1
	r := NewRanker(nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = r.Rank(query, candidates, 0.7)
	}
}

func BenchmarkRank_fallback(b *testing.B) {
	candidates := benchCandidates(10000, 384)
	query := make([]float32, 384)
	query[383] = 1
	r := NewRanker(nil)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = r.Rank(query, candidates, 0.99)
	}
}
