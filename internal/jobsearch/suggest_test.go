package jobsearch

import "testing"

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "go", 2},
		{"nurse", "", 5},
		{"kubernetes", "kubernetes", 0},
		{"kubernets", "kubernetes", 1},
		{"enginer", "engineer", 1},
		{"kitten", "sitting", 3},
		{"ab", "ba", 2},
		{"café", "cafe", 1},
	}
	for _, tt := range tests {
		if got := levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
		if got := levenshtein(tt.b, tt.a); got != tt.want {
			t.Errorf("levenshtein(%q, %q) not symmetric: %d", tt.b, tt.a, got)
		}
	}
}

func TestIndex_Suggest(t *testing.T) {
	ix, err := New(testCorpus(t))
	if err != nil {
		t.Fatal(err)
	}
	defer ix.Close()

	tests := []struct {
		query   string
		want    string
		changed bool
	}{
		{"kubernets", "kubernetes", true},
		{"Backend enginer", "backend engineer", true},
		{"backend", "backend", false},
		{"xyzzyq", "xyzzyq", false},
		{"nurze", "nurse", true},
	}
	for _, tt := range tests {
		got, changed := ix.Suggest(tt.query)
		if got != tt.want || changed != tt.changed {
			t.Errorf("Suggest(%q) = %q, %v; want %q, %v", tt.query, got, changed, tt.want, tt.changed)
		}
	}
}
