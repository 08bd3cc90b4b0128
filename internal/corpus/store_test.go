package corpus

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestStore_ReplaceAndLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "jobs.db")
	s, err := OpenStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	meta := Meta{Model: "mock/m@2", Dimensions: 2, CreatedAt: created}
	records := []JobRecord{
		{ID: "b", Title: "Second", Description: "two", Embedding: []float32{0, 1}},
		{ID: "a", Title: "First", Description: "one", Embedding: []float32{1, 0}},
	}
	if err := s.Replace(ctx, meta, records); err != nil {
		t.Fatal(err)
	}

	got, err := s.LoadAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != "b" || got[1].ID != "a" {
		t.Fatalf("insertion order not preserved: %+v", got)
	}
	if got[1].Embedding[0] != 1 {
		t.Errorf("embedding round trip: %v", got[1].Embedding)
	}

	m, err := s.Meta(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if m.Model != meta.Model || m.Dimensions != 2 || !m.CreatedAt.Equal(created) {
		t.Errorf("meta = %+v", m)
	}

	if err := s.Replace(ctx, meta, records[:1]); err != nil {
		t.Fatal(err)
	}
	if n, err := s.Count(ctx); err != nil || n != 1 {
		t.Errorf("Count after replace = %d, %v", n, err)
	}
}
