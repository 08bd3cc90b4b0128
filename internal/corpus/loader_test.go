package corpus

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hyperjump/resumatch/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Embedding: config.EmbeddingConfig{Provider: "mock", Model: "m", Dimensions: 2},
		Corpus:    config.CorpusConfig{Path: filepath.Join(t.TempDir(), "jobs.db")},
	}
	config.ApplyDefaults(cfg)
	return cfg
}

func seedStore(t *testing.T, path string, meta Meta, records []JobRecord) {
	t.Helper()
	s, err := OpenStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if err := s.Replace(context.Background(), meta, records); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_sqlite(t *testing.T) {
	cfg := testConfig(t)
	seedStore(t, cfg.Corpus.Path, Meta{Model: cfg.Embedding.ModelID(), Dimensions: 2}, []JobRecord{
		{ID: "1", Description: "Go", Embedding: []float32{1, 1}},
	})
	c, err := Load(context.Background(), cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	if c.Len() != 1 || c.Meta().Model != cfg.Embedding.ModelID() {
		t.Errorf("corpus = %d jobs, meta %+v", c.Len(), c.Meta())
	}
}

func TestLoad_modelMismatch(t *testing.T) {
	cfg := testConfig(t)
	seedStore(t, cfg.Corpus.Path, Meta{Model: "onnx/all-MiniLM-L6-v2@2", Dimensions: 2}, []JobRecord{
		{ID: "1", Description: "Go", Embedding: []float32{1, 1}},
	})
	_, err := Load(context.Background(), cfg, nil)
	var mm *ModelMismatchError
	if !errors.As(err, &mm) {
		t.Errorf("expected ModelMismatchError, got %v", err)
	}
}

func TestLoad_dimensionMismatch(t *testing.T) {
	cfg := testConfig(t)
	seedStore(t, cfg.Corpus.Path, Meta{Dimensions: 3}, []JobRecord{
		{ID: "1", Description: "Go", Embedding: []float32{1, 1, 1}},
	})
	if _, err := Load(context.Background(), cfg, nil); err == nil {
		t.Error("expected error for 3-dimensional corpus with 2-dimensional embedder")
	}
}

func TestLoad_missingCorpus(t *testing.T) {
	cfg := testConfig(t)
	if _, err := Load(context.Background(), cfg, nil); err == nil {
		t.Error("expected error when corpus file is missing")
	}
}

func TestLoad_unknownSource(t *testing.T) {
	cfg := testConfig(t)
	cfg.Corpus.Source = "postgres"
	if _, err := Load(context.Background(), cfg, nil); err == nil {
		t.Error("expected error for unknown source")
	}
}
