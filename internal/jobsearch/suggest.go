package jobsearch

import (
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
)

const maxSuggestDistance = 2

// loadTerms reads the title and description dictionaries with their document frequencies.
func loadTerms(index bleve.Index) (map[string]int, error) {
	terms := make(map[string]int)
	for _, field := range []string{"title", "description"} {
		dict, err := index.FieldDict(field)
		if err != nil {
			return nil, fmt.Errorf("read %s terms: %w", field, err)
		}
		for {
			entry, err := dict.Next()
			if err != nil || entry == nil {
				break
			}
			terms[entry.Term] += int(entry.Count)
		}
		_ = dict.Close()
	}
	return terms, nil
}

// Suggest returns query with each unknown term replaced by the closest known term,
// and whether anything changed. Short terms only tolerate a single edit.
func (ix *Index) Suggest(query string) (string, bool) {
	words := strings.Fields(strings.ToLower(query))
	changed := false
	for i, w := range words {
		if _, ok := ix.terms[w]; ok {
			continue
		}
		if best, ok := ix.closestTerm(w); ok {
			words[i] = best
			changed = true
		}
	}
	return strings.Join(words, " "), changed
}

func (ix *Index) closestTerm(word string) (string, bool) {
	n := len([]rune(word))
	maxDist := maxSuggestDistance
	if n <= 4 {
		maxDist = 1
	}
	var best string
	var bestScore float64
	for term, freq := range ix.terms {
		diff := len([]rune(term)) - n
		if diff < -maxDist || diff > maxDist {
			continue
		}
		d := levenshtein(word, term)
		if d == 0 || d > maxDist {
			continue
		}
		score := float64(freq) / float64(d+1)
		if score > bestScore || (score == bestScore && term < best) {
			best, bestScore = term, score
		}
	}
	return best, best != ""
}

// levenshtein counts single-rune insertions, deletions and substitutions between a and b.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
